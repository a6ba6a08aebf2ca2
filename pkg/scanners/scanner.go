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

// Package scanners defines the contract implemented by every game source.
// Concrete scanners are registered with the game service at startup.
package scanners

import (
	"context"

	"github.com/GameWatchProject/gamewatch-core/pkg/models"
)

// GameScanner discovers installed games for one platform or source.
//
// Absence of the platform is never an error: IsAvailable returns false
// and/or DetectGames returns an empty list with a nil error. Only unexpected
// I/O failures and cancellation may propagate; callers isolate one scanner's
// failure from the rest.
type GameScanner interface {
	// Platform identifies the source this scanner covers.
	Platform() models.Platform

	// IsAvailable is a cheap probe for whether the platform client is
	// installed on this machine.
	IsAvailable() bool

	// DetectGames scans for installed games. The returned order is stable
	// for a given on-disk state.
	DetectGames(ctx context.Context) ([]models.DetectedGame, error)

	// InstallPath returns the platform's root install directory, or empty
	// when the platform has no single root.
	InstallPath() string
}
