// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package config parses the command-line surface (spec.md §6.1) and
// turns it into the pieces the rest of the program wires together: a
// queue number, a log level, per-connection mode, and the set of
// degradation models to chain. Grounded on the teacher's flat
// stdlib-`flag` CLI style (cmd/flywall-sim/main.go) and on
// original_source/src/config.rs's validation rules.
package config

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"grimm.is/degrader/internal/errors"
	"grimm.is/degrader/internal/logging"
	"grimm.is/degrader/internal/models"
)

// RandomSpec configures the random loss/delay model.
type RandomSpec struct {
	LossRate uint32 // percent, 0-100
	DelayMin time.Duration
	DelayMax time.Duration
}

// BandwidthSpec configures the bandwidth model. Rate/Burst/Buffer are
// already byte quantities (converted from the CLI's kilobyte units).
type BandwidthSpec struct {
	RateBytesPerS uint64
	BurstBytes    uint64
	BufferBytes   uint64
}

// Config is the fully parsed and validated program configuration.
type Config struct {
	QueueNum      uint16
	LogLevel      logging.Level
	PerConnection bool
	MetricsAddr   string // empty disables the Prometheus exposition server

	Random     *RandomSpec
	Pattern    []models.PacketInfo
	PatternSrc string // source file path, for logging only
	Bandwidth  *BandwidthSpec
}

// Parse parses args (excluding the program name, as with flag.Args)
// against a fresh FlagSet and validates the result. On a validation
// failure it returns a *errors.Error with errors.KindConfig, matching
// original_source/src/config.rs's exit(1)-on-invalid-input behavior
// (the caller, cmd/degrader, turns that into os.Exit(1)).
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("degrader", flag.ContinueOnError)

	queueNum := fs.Uint("queue_num", 0, "nfqueue number")
	logLevel := fs.String("log_level", "info", "log level: info, debug, warn")
	perConnection := fs.Bool("per_connection", true, "apply configured degradation model per connection (source + destination ip/port/protocol)")
	random := fs.String("random", "", "<loss>% packet loss with random delay between <delay_min> and <delay_max> ms: \"loss delay_min delay_max\"")
	patternFile := fs.String("pattern_file", "", "csv pattern file with delay and drop/accept info per packet")
	bandwidth := fs.String("bandwidth", "", "restrict bandwidth to <rate> KBps, burst <burst> KB, buffer <buffer> KB: \"rate burst buffer\"")
	metricsAddr := fs.String("metrics_addr", "", "address to serve Prometheus metrics on, e.g. :9090 (empty disables)")

	if err := fs.Parse(args); err != nil {
		return nil, errors.Wrap(err, errors.KindConfig, "parse flags")
	}

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindConfig, "parse log_level")
	}

	cfg := &Config{
		QueueNum:      uint16(*queueNum),
		LogLevel:      level,
		PerConnection: *perConnection,
		MetricsAddr:   *metricsAddr,
	}

	if *random != "" {
		spec, err := parseRandomSpec(*random)
		if err != nil {
			return nil, err
		}
		cfg.Random = spec
	}

	if *patternFile != "" {
		info, err := ParsePatternFile(*patternFile)
		if err != nil {
			return nil, err
		}
		cfg.Pattern = info
		cfg.PatternSrc = *patternFile
	}

	if *bandwidth != "" {
		spec, err := parseBandwidthSpec(*bandwidth)
		if err != nil {
			return nil, err
		}
		cfg.Bandwidth = spec
	}

	return cfg, nil
}

func parseRandomSpec(raw string) (*RandomSpec, error) {
	fields := strings.Fields(raw)
	if len(fields) != 3 {
		return nil, errors.Errorf(errors.KindConfig, `--random requires "loss delay_min delay_max", got %q`, raw)
	}
	loss, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindConfig, "parse random loss")
	}
	delayMin, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindConfig, "parse random delay_min")
	}
	delayMax, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindConfig, "parse random delay_max")
	}
	if delayMin > delayMax {
		return nil, errors.Errorf(errors.KindConfig, "min. delay must be smaller equal max. delay")
	}
	return &RandomSpec{
		LossRate: uint32(loss),
		DelayMin: time.Duration(delayMin) * time.Millisecond,
		DelayMax: time.Duration(delayMax) * time.Millisecond,
	}, nil
}

func parseBandwidthSpec(raw string) (*BandwidthSpec, error) {
	fields := strings.Fields(raw)
	if len(fields) != 3 {
		return nil, errors.Errorf(errors.KindConfig, `--bandwidth requires "rate burst buffer", got %q`, raw)
	}
	rate, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindConfig, "parse bandwidth rate")
	}
	burst, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindConfig, "parse bandwidth burst")
	}
	buffer, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindConfig, "parse bandwidth buffer")
	}
	if rate == 0 {
		return nil, errors.Errorf(errors.KindConfig, "bitrate must be larger 0")
	}
	if burst == 0 {
		return nil, errors.Errorf(errors.KindConfig, "burst size cannot be 0, it should cover at least the size of a packet")
	}
	if burst > buffer {
		return nil, errors.Errorf(errors.KindConfig, "burst size must be smaller equal buffer size")
	}
	const kb = 1024
	return &BandwidthSpec{
		RateBytesPerS: rate * kb,
		BurstBytes:    burst * kb,
		BufferBytes:   buffer * kb,
	}, nil
}

// String renders a one-line summary for startup logging.
func (c *Config) String() string {
	return fmt.Sprintf("queue_num=%d log_level=%s per_connection=%t random=%v pattern=%d-row(%s) bandwidth=%v metrics_addr=%q",
		c.QueueNum, c.LogLevel, c.PerConnection, c.Random, len(c.Pattern), c.PatternSrc, c.Bandwidth, c.MetricsAddr)
}
