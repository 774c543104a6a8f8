// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Command degrader reads packets from a Linux NFQUEUE, runs them through
// a per-flow chain of degradation models (random loss/delay, scripted
// pattern replay, bandwidth shaping), and returns a verdict for each
// (spec.md §1). Grounded on the teacher's cmd/flywall-sim/main.go
// wiring style: parse flags, build components, run until signaled.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"grimm.is/degrader/internal/clock"
	"grimm.is/degrader/internal/config"
	"grimm.is/degrader/internal/dispatcher"
	"grimm.is/degrader/internal/logging"
	"grimm.is/degrader/internal/metrics"
	"grimm.is/degrader/internal/nfq"
	"grimm.is/degrader/internal/packet"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logging.New(logging.Config{Level: cfg.LogLevel, Path: logging.DefaultConfig().Path})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Close()

	root := log.WithComponent("degrader")
	root.Infof("starting: %s", cfg)

	registry := metrics.NewRegistry()
	collector := metrics.NewCollector(registry, log.WithComponent("metrics"))

	ingress := make(chan *packet.Packet, 1024)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.MetricsAddr != "" {
		srv := metrics.NewServer(cfg.MetricsAddr, registry, log.WithComponent("metrics"))
		go srv.Start(ctx)
	}

	reader := nfq.NewReader(cfg.QueueNum, log.WithComponent("nfqueue"))

	if err := reader.Start(ctx, ingress); err != nil {
		root.Errorf("failed to start nfqueue reader: %v", err)
		os.Exit(1)
	}
	defer reader.Stop()

	d := dispatcher.New(ingress, cfg.BuildChainBuilder(log.WithComponent("models")), cfg.PerConnection, clock.NewReal(), log.WithComponent("dispatcher"), collector)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		root.Infof("shutting down")
		cancel()
	}()

	d.Run(ctx)
}
