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

// Package detector determines whether known games are currently executing
// and raises edge-triggered start/stop events from a periodic poll.
package detector

import (
	"strings"
	"sync"
	"time"

	"github.com/GameWatchProject/gamewatch-core/pkg/helpers"
	"github.com/GameWatchProject/gamewatch-core/pkg/helpers/syncutil"
	"github.com/GameWatchProject/gamewatch-core/pkg/models"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DefaultPollInterval is the default interval between poll ticks.
const DefaultPollInterval = 15 * time.Second

// Callbacks are invoked on game state edges. They run inline on the poll
// goroutine, so each callback type is serial with respect to itself; hand-off
// to a UI context is the consumer's responsibility.
type Callbacks struct {
	OnGameStarted func(game models.DetectedGame)
	OnGameStopped func(game models.DetectedGame)
}

// Detector maintains a per-game {running, not running} state machine over a
// monitored set, driven by a fixed-interval poll of the OS process table.
// Transitions are strictly edge-triggered: a game staying running across
// ticks fires nothing further.
type Detector struct {
	enum         ProcessEnumerator
	clock        clockwork.Clock
	running      map[string]bool
	done         chan struct{}
	callbacks    Callbacks
	monitored    []models.DetectedGame
	pollInterval time.Duration
	wg           sync.WaitGroup
	mu           syncutil.Mutex
	monitoring   bool
}

// Option configures a Detector.
type Option func(*Detector)

// WithPollInterval sets the interval between poll ticks.
func WithPollInterval(d time.Duration) Option {
	return func(det *Detector) {
		if d > 0 {
			det.pollInterval = d
		}
	}
}

// WithClock replaces the wall clock, used by tests to drive ticks.
func WithClock(clock clockwork.Clock) Option {
	return func(det *Detector) {
		det.clock = clock
	}
}

// New creates a detector reading process snapshots from enum.
func New(enum ProcessEnumerator, callbacks Callbacks, opts ...Option) *Detector {
	d := &Detector{
		enum:         enum,
		callbacks:    callbacks,
		clock:        clockwork.NewRealClock(),
		pollInterval: DefaultPollInterval,
		running:      make(map[string]bool),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// GetRunningProcesses returns a fresh best-effort snapshot of the OS
// process table. It never fails; unreadable processes are omitted.
func (d *Detector) GetRunningProcesses() []models.RunningProcess {
	return d.enum.RunningProcesses()
}

// IsGameRunning checks a single game against a fresh process snapshot.
func (d *Detector) IsGameRunning(game *models.DetectedGame) bool {
	_, ok := MatchGameProcess(game, d.GetRunningProcesses())
	return ok
}

// GetRunningGameProcess returns the process a game was matched to, or nil.
func (d *Detector) GetRunningGameProcess(game *models.DetectedGame) *models.RunningProcess {
	if proc, ok := MatchGameProcess(game, d.GetRunningProcesses()); ok {
		return proc
	}
	return nil
}

// RunningStates evaluates every game against one process snapshot and
// returns running flags keyed by game key.
func (d *Detector) RunningStates(games []models.DetectedGame) map[string]bool {
	procs := d.GetRunningProcesses()
	states := make(map[string]bool, len(games))
	for i := range games {
		_, ok := MatchGameProcess(&games[i], procs)
		states[games[i].Key()] = ok
	}
	return states
}

// RunningIDs returns a copy of the detector's running-game table from the
// last completed tick.
func (d *Detector) RunningIDs() map[string]bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]bool, len(d.running))
	for k, v := range d.running {
		out[k] = v
	}
	return out
}

// StartMonitoring snapshots the monitored set, clears the running table and
// begins the fixed-interval poll. Any previous poll is stopped first.
func (d *Detector) StartMonitoring(games []models.DetectedGame) {
	d.StopMonitoring()

	d.mu.Lock()
	d.monitored = make([]models.DetectedGame, len(games))
	copy(d.monitored, games)
	d.running = make(map[string]bool)
	d.done = make(chan struct{})
	d.monitoring = true
	done := d.done
	d.mu.Unlock()

	d.wg.Add(1)
	go d.pollLoop(done)

	log.Info().Int("games", len(games)).Dur("interval", d.pollInterval).
		Msg("game monitoring started")
}

// StopMonitoring halts the poll. State is not cleared here; the next
// StartMonitoring begins from a clean slate.
func (d *Detector) StopMonitoring() {
	d.mu.Lock()
	if !d.monitoring {
		d.mu.Unlock()
		return
	}
	close(d.done)
	d.monitoring = false
	d.mu.Unlock()

	d.wg.Wait()
	log.Info().Msg("game monitoring stopped")
}

// pollLoop runs ticks until done closes. Ticks are sequential on this
// goroutine and can never overlap.
func (d *Detector) pollLoop(done <-chan struct{}) {
	defer d.wg.Done()

	d.tick()

	ticker := d.clock.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.Chan():
			d.tick()
		}
	}
}

// tick enumerates processes exactly once, evaluates every monitored game
// against that snapshot, diffs against the previous tick's membership and
// fires events only for changed games. A tick failure is logged and the
// schedule continues.
func (d *Detector) tick() {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("poll tick failed")
		}
	}()

	procs := d.enum.RunningProcesses()

	d.mu.Lock()
	var started, stopped []models.DetectedGame
	next := make(map[string]bool, len(d.running))
	for i := range d.monitored {
		game := d.monitored[i]
		_, running := MatchGameProcess(&game, procs)
		if running {
			next[game.Key()] = true
		}
		switch {
		case running && !d.running[game.Key()]:
			game.IsRunning = true
			started = append(started, game)
		case !running && d.running[game.Key()]:
			game.IsRunning = false
			stopped = append(stopped, game)
		}
	}
	d.running = next
	d.mu.Unlock()

	for i := range started {
		log.Info().Str("id", started[i].ID).Str("name", started[i].Name).
			Msg("game started")
		if d.callbacks.OnGameStarted != nil {
			d.callbacks.OnGameStarted(started[i])
		}
	}
	for i := range stopped {
		log.Info().Str("id", stopped[i].ID).Str("name", stopped[i].Name).
			Msg("game stopped")
		if d.callbacks.OnGameStopped != nil {
			d.callbacks.OnGameStopped(stopped[i])
		}
	}
}

// MatchGameProcess finds the process a game is running as, applying rules in
// priority order:
//
//  1. a process whose executable path is a strict descendant of the game's
//     install directory and contains no globally ignored path fragment;
//  2. case-insensitive exact equality with the game's recorded executable;
//  3. case-insensitive equality with one of the game's process names;
//  4. a deep-search pattern appearing in a process's command line.
//
// A game carrying none of these attributes can never be reported running.
func MatchGameProcess(game *models.DetectedGame, procs []models.RunningProcess) (*models.RunningProcess, bool) {
	if game.InstallPath != "" {
		for i := range procs {
			exe := procs[i].ExePath
			if exe == "" {
				continue
			}
			if helpers.PathIsDescendant(exe, game.InstallPath) &&
				!helpers.ContainsIgnoredFragment(exe) {
				return &procs[i], true
			}
		}
	}

	if game.ExecutablePath != "" {
		want := helpers.NormalizePathForComparison(game.ExecutablePath)
		for i := range procs {
			if procs[i].ExePath == "" {
				continue
			}
			if helpers.NormalizePathForComparison(procs[i].ExePath) == want {
				return &procs[i], true
			}
		}
	}

	for _, name := range game.ProcessNames {
		for i := range procs {
			if strings.EqualFold(procs[i].Name, name) {
				return &procs[i], true
			}
		}
	}

	for _, pattern := range game.DeepSearchPatterns {
		if pattern == "" {
			continue
		}
		lower := strings.ToLower(pattern)
		for i := range procs {
			if strings.Contains(strings.ToLower(procs[i].Cmdline), lower) {
				return &procs[i], true
			}
		}
	}

	return nil, false
}
