// Package main provides a CLI for querying patient timelines.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	timelinecmd "github.com/louisbranch/mindchart/internal/cmd/timeline"
)

func main() {
	log.SetPrefix("[TIMELINE] ")

	cfg, err := timelinecmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := timelinecmd.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		stop()
		log.Fatalf("timeline: %v", err)
	}
}
