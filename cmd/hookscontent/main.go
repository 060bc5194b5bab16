package main

import (
	"context"
	"os"

	"github.com/hookscontent/hooks/internal/app"
	"github.com/hookscontent/hooks/internal/httpserver"
)

func main() {
	ctx, stop := httpserver.SignalContext(context.Background())
	err := app.Run(ctx, os.Args[1:])
	stop()
	if err != nil {
		os.Exit(1)
	}
}
