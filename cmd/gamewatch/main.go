// GameWatch Core
// Copyright (c) 2026 The GameWatch Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of GameWatch Core.
//
// GameWatch Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// GameWatch Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with GameWatch Core.  If not, see <http://www.gnu.org/licenses/>.

// gamewatch runs the detection core in the foreground and prints game
// events as JSON lines, one per event, for a UI shell to consume.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/GameWatchProject/gamewatch-core/pkg/config"
	"github.com/GameWatchProject/gamewatch-core/pkg/detector"
	"github.com/GameWatchProject/gamewatch-core/pkg/helpers"
	"github.com/GameWatchProject/gamewatch-core/pkg/models"
	"github.com/GameWatchProject/gamewatch-core/pkg/scanners"
	"github.com/GameWatchProject/gamewatch-core/pkg/scanners/remote"
	"github.com/GameWatchProject/gamewatch-core/pkg/scanners/steam"
	"github.com/GameWatchProject/gamewatch-core/pkg/service"
	"github.com/GameWatchProject/gamewatch-core/pkg/service/broker"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "gamewatch: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var logWriters []io.Writer
	logWriters = append(logWriters, zerolog.ConsoleWriter{Out: os.Stderr})
	if err := helpers.InitLogging(config.DefaultLogDir(), logWriters...); err != nil {
		return fmt.Errorf("error initializing logging: %w", err)
	}

	cfg, err := config.NewConfig(config.DefaultConfigDir(), config.BaseDefaults)
	if err != nil {
		return err
	}

	if cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	scs := []scanners.GameScanner{
		steam.NewScanner(steam.WithExtraLibraryDirs(cfg.SteamExtraLibraryDirs())),
	}
	if url := cfg.MappingsURL(); url != "" {
		scs = append(scs, remote.NewScanner(url,
			remote.WithHTTPClient(&http.Client{Timeout: cfg.MappingsTimeout()}),
		))
	}

	notifs := make(chan models.Notification, 32)
	b := broker.NewBroker(ctx, notifs)
	b.Start()

	events, subID := b.Subscribe(64)
	defer b.Unsubscribe(subID)

	svc := service.New(notifs, scs,
		service.WithDetectorOptions(detector.WithPollInterval(cfg.PollInterval())),
	)

	if _, err := svc.ScanAllGames(ctx); err != nil {
		return fmt.Errorf("initial scan failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	for {
		select {
		case <-ctx.Done():
			svc.Detector().StopMonitoring()
			log.Info().Msg("shutting down")
			return nil
		case notif, ok := <-events:
			if !ok {
				return nil
			}
			if err := enc.Encode(notif); err != nil {
				log.Warn().Err(err).Msg("error writing event")
			}
		}
	}
}
