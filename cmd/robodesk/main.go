package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/offlinefirst/robodesk/internal/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	root := cmd.NewRootCommand()
	err := root.Execute(ctx, os.Args[1:])
	stop()
	os.Exit(cmd.ExitCode(err))
}
