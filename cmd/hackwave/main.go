package main

import (
	"context"
	"os"

	"hackwave/internal/commands"
	appLog "hackwave/internal/log"
)

func main() {
	if err := commands.New().ExecuteContext(context.Background()); err != nil {
		appLog.Error("command failed", err)
		os.Exit(1)
	}
}
