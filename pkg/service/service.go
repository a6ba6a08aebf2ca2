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

// Package service orchestrates scanners and the detector: it fans scans out
// across all available sources, merges and caches the results, keeps the
// detector's monitored set current and republishes game events.
package service

import (
	"context"

	"github.com/GameWatchProject/gamewatch-core/pkg/detector"
	"github.com/GameWatchProject/gamewatch-core/pkg/helpers/syncutil"
	"github.com/GameWatchProject/gamewatch-core/pkg/models"
	"github.com/GameWatchProject/gamewatch-core/pkg/scanners"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// GameService owns the published game snapshot. Consumers only ever observe
// a complete snapshot: either the previous one or the next one, never a
// partially built list.
type GameService struct {
	detector *detector.Detector
	notifs   chan<- models.Notification
	scanners []scanners.GameScanner
	cached   []models.DetectedGame
	mu       syncutil.RWMutex
}

// Option configures a GameService.
type Option func(*options)

type options struct {
	enum    detector.ProcessEnumerator
	detOpts []detector.Option
}

// WithEnumerator replaces the OS process enumerator backing the detector.
func WithEnumerator(enum detector.ProcessEnumerator) Option {
	return func(o *options) {
		o.enum = enum
	}
}

// WithDetectorOptions forwards options to the internal detector.
func WithDetectorOptions(detOpts ...detector.Option) Option {
	return func(o *options) {
		o.detOpts = append(o.detOpts, detOpts...)
	}
}

// New creates a game service publishing events to notifs. Scanners are
// queried in registration order on every scan.
func New(notifs chan<- models.Notification, scs []scanners.GameScanner, opts ...Option) *GameService {
	o := options{
		enum: detector.NewProcessEnumerator(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &GameService{
		notifs:   notifs,
		scanners: scs,
	}
	s.detector = detector.New(o.enum, detector.Callbacks{
		OnGameStarted: s.onGameStarted,
		OnGameStopped: s.onGameStopped,
	}, o.detOpts...)

	return s
}

// Detector exposes the detector for direct running-state queries.
func (s *GameService) Detector() *detector.Detector {
	return s.detector
}

// ScanAllGames runs every available scanner concurrently, publishes the
// merged result wholesale and (re)starts monitoring against it. One
// scanner's failure contributes zero games without affecting its siblings;
// only cancellation aborts the whole operation, in which case nothing is
// published.
func (s *GameService) ScanAllGames(ctx context.Context) ([]models.DetectedGame, error) {
	var available []scanners.GameScanner
	for _, sc := range s.scanners {
		if sc.IsAvailable() {
			available = append(available, sc)
		} else {
			log.Debug().Str("platform", string(sc.Platform())).Msg("scanner unavailable, skipping")
		}
	}

	// Fan-out, with results slotted by registration order so the merged
	// list stays stable regardless of completion order.
	results := make([][]models.DetectedGame, len(available))
	g, gctx := errgroup.WithContext(ctx)
	for i, sc := range available {
		i, sc := i, sc
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).
						Str("platform", string(sc.Platform())).
						Msg("scanner panicked")
				}
			}()

			games, err := sc.DetectGames(gctx)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Error().Err(err).Str("platform", string(sc.Platform())).
					Msg("scanner failed, contributing zero games")
				return nil
			}
			results[i] = games
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Fan-in: concatenate in registration order, no cross-scanner dedup.
	var all []models.DetectedGame
	for _, games := range results {
		all = append(all, games...)
	}

	states := s.detector.RunningStates(all)
	for i := range all {
		all[i].IsRunning = states[all[i].Key()]
	}

	s.mu.Lock()
	s.cached = all
	s.mu.Unlock()

	s.detector.StartMonitoring(all)

	snapshot := copyGames(all)
	s.publish(models.Notification{
		Method: models.MethodGamesDetected,
		Params: snapshot,
	})

	log.Info().Int("count", len(all)).Msg("game scan published")
	return copyGames(all), nil
}

// RescanGames stops monitoring, clears the cache and performs a full
// rebuild. The previous results never merge into the new snapshot.
func (s *GameService) RescanGames(ctx context.Context) ([]models.DetectedGame, error) {
	s.detector.StopMonitoring()

	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()

	return s.ScanAllGames(ctx)
}

// CachedGames returns the last published snapshot with running flags
// re-derived from the detector's current state.
func (s *GameService) CachedGames() []models.DetectedGame {
	s.mu.RLock()
	games := copyGames(s.cached)
	s.mu.RUnlock()

	running := s.detector.RunningIDs()
	for i := range games {
		games[i].IsRunning = running[games[i].Key()]
	}
	return games
}

func (s *GameService) onGameStarted(game models.DetectedGame) {
	s.publish(models.Notification{
		Method: models.MethodGameStarted,
		Params: models.GameStateParams{
			State:    models.StateRunning,
			Platform: game.Platform,
			ID:       game.ID,
			Name:     game.Name,
		},
	})
}

func (s *GameService) onGameStopped(game models.DetectedGame) {
	s.publish(models.Notification{
		Method: models.MethodGameStopped,
		Params: models.GameStateParams{
			State:    models.StateNotRunning,
			Platform: game.Platform,
			ID:       game.ID,
			Name:     game.Name,
		},
	})
}

func (s *GameService) publish(notif models.Notification) {
	if s.notifs == nil {
		return
	}
	s.notifs <- notif
}

func copyGames(games []models.DetectedGame) []models.DetectedGame {
	out := make([]models.DetectedGame, len(games))
	copy(out, games)
	return out
}
