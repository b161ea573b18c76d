package main

import (
	"context"
	"fmt"
	"os"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/admin"
)

func main() {

	if err := admin.Run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

}
