package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	watchercmd "github.com/ironsightlabs/spectator/internal/cmd/watcher"
)

func main() {
	cfg, err := watchercmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[WATCHER] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := watchercmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to watch: %v", err)
	}
}
