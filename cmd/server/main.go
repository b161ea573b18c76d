package main

import (
	"context"
	"log"
	"os"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig(os.Args[1:])
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

}
