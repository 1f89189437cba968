package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/torosent/flowrunner/internal/engine"
	"github.com/torosent/flowrunner/internal/telemetry"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cmd := newRootCommand()
	if err := cmd.ParseFlags(args); err != nil {
		return err
	}
	flags := cmd.Flags()

	flowPath, err := flags.GetString("flow")
	if err != nil {
		return err
	}
	configPath, err := flags.GetString("config")
	if err != nil {
		return err
	}
	if flowPath == "" || configPath == "" {
		return fmt.Errorf("both --flow and --config are required")
	}

	flow, err := loadFlow(flowPath)
	if err != nil {
		return err
	}
	cfg, err := loadRuntimeConfig(configPath)
	if err != nil {
		return err
	}

	if simUsers, _ := flags.GetInt("sim-users"); simUsers > 0 {
		cfg.SimUsers = simUsers
	}
	if debug, _ := flags.GetBool("debug"); debug {
		cfg.Debug = true
	}
	snapshotInterval, err := flags.GetDuration("snapshot-interval")
	if err != nil {
		return err
	}

	logger := telemetry.New(cfg.Debug)
	e := engine.New(logger)
	if err := e.Start(cfg, flow); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ticker := time.NewTicker(snapshotInterval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			printSnapshot(e.Snapshot())
		}
	}

	e.Stop()
	printSnapshot(e.Snapshot())
	return nil
}

func printSnapshot(snap any) {
	b, err := json.Marshal(snap)
	if err != nil {
		fmt.Fprintf(os.Stderr, "snapshot marshal error: %v\n", err)
		return
	}
	fmt.Fprintln(os.Stdout, string(b))
}
