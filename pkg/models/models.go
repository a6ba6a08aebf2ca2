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

// Package models defines the shared data types exchanged between scanners,
// the detector and the game service.
package models

import (
	"strings"
	"time"
)

// Platform identifies the distribution platform a game was detected on.
type Platform string

const (
	PlatformSteam     Platform = "steam"
	PlatformEpic      Platform = "epic"
	PlatformGOG       Platform = "gog"
	PlatformOrigin    Platform = "origin"
	PlatformUplay     Platform = "uplay"
	PlatformBattleNet Platform = "battlenet"
	PlatformCustom    Platform = "custom"
)

// knownPlatforms maps lowercase platform tags to their canonical value.
var knownPlatforms = map[string]Platform{
	"steam":     PlatformSteam,
	"epic":      PlatformEpic,
	"gog":       PlatformGOG,
	"origin":    PlatformOrigin,
	"uplay":     PlatformUplay,
	"battlenet": PlatformBattleNet,
	"custom":    PlatformCustom,
}

// PlatformFromString resolves a platform tag case-insensitively.
// Unknown tags map to PlatformCustom.
func PlatformFromString(tag string) Platform {
	if p, ok := knownPlatforms[strings.ToLower(strings.TrimSpace(tag))]; ok {
		return p
	}
	return PlatformCustom
}

// DetectedGame is a single installed game discovered by a scanner. A fresh
// set is created on every scan pass; instances are not mutated after
// publication. The running flag is stamped from the detector's state at the
// time a snapshot is built.
type DetectedGame struct {
	LastPlayed         time.Time
	ID                 string
	Name               string
	Platform           Platform
	InstallPath        string
	ExecutablePath     string
	IconURL            string
	ProcessNames       []string
	DeepSearchPatterns []string
	PlaytimeMinutes    int64
	IsRunning          bool
}

// Key returns the (platform, id) identity of a game, unique within the
// result set of a single scanner.
func (g *DetectedGame) Key() string {
	return string(g.Platform) + ":" + g.ID
}

// RunningProcess is a transient snapshot of one OS process. It is recomputed
// on every poll tick and never persisted. ExePath and Cmdline are best
// effort and may be empty when the process exited mid-enumeration or the
// lookup was denied.
type RunningProcess struct {
	StartTime time.Time
	Name      string
	ExePath   string
	Cmdline   string
	PID       int32
}

// GameMapping is one record of the remote heuristics document. JSON field
// matching is case-insensitive (encoding/json semantics), so documents using
// PascalCase or camelCase keys both decode.
type GameMapping struct {
	ID               string           `json:"id"        validate:"required"`
	Name             string           `json:"name"      validate:"required"`
	Platform         string           `json:"platform"`
	Icon             string           `json:"icon"`
	ProcessDetection ProcessDetection `json:"processDetection"`
	PathDetection    PathDetection    `json:"pathDetection"`
	Enabled          bool             `json:"enabled"`
}

// ProcessDetection holds process-name rules for a mapping, split into names
// valid everywhere and per-OS lists, plus deep-search substrings matched
// against extended process metadata.
type ProcessDetection struct {
	Common     []string `json:"common"`
	Windows    []string `json:"windows"`
	Linux      []string `json:"linux"`
	Mac        []string `json:"mac"`
	DeepSearch []string `json:"deepSearch"`
}

// PathDetection holds install-path candidates for a mapping.
type PathDetection struct {
	Common  []string `json:"common"`
	Windows []string `json:"windows"`
	Linux   []string `json:"linux"`
	Mac     []string `json:"mac"`
}

// Notification methods published by the service and detector.
const (
	MethodGamesDetected = "games.detected"
	MethodGameStarted   = "game.started"
	MethodGameStopped   = "game.stopped"
)

// Game state values carried in GameStateParams.
const (
	StateRunning    = "running"
	StateNotRunning = "not_running"
)

// Notification is the envelope delivered to event subscribers.
type Notification struct {
	Params any
	Method string
}

// GameStateParams is the payload of game.started and game.stopped events.
type GameStateParams struct {
	State    string   `json:"state"`
	Platform Platform `json:"platform"`
	ID       string   `json:"id"`
	Name     string   `json:"name"`
}
