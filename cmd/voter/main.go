package main

import (
	"context"
	"log"
	"os"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/client/cli"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/client/config"
)

func main() {

	cfg := config.LoadConfig(os.Args[1:])
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(context.Background())

}
