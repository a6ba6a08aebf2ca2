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

package steam

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// excludedExeFragments marks filenames that are support tooling shipped
// alongside a game's main binary.
var excludedExeFragments = []string{
	"uninst",
	"crash",
	"redist",
	"setup",
}

// PickMainExecutable picks the most likely main binary from the top level of
// a game's install directory. Preference order: the first candidate not
// excluded by name, else the first candidate at all, else empty.
func PickMainExecutable(installDir string) string {
	entries, err := os.ReadDir(installDir)
	if err != nil {
		return ""
	}

	var candidates []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if isExecutableCandidate(entry) {
			candidates = append(candidates, entry.Name())
		}
	}
	if len(candidates) == 0 {
		return ""
	}

	for _, name := range candidates {
		if !excludedExecutable(name) {
			return filepath.Join(installDir, name)
		}
	}
	return filepath.Join(installDir, candidates[0])
}

// isExecutableCandidate reports whether a directory entry looks like a game
// binary. Windows binaries are recognized everywhere since Proton games keep
// their .exe layout on Linux.
func isExecutableCandidate(entry os.DirEntry) bool {
	lower := strings.ToLower(entry.Name())
	if strings.HasSuffix(lower, ".exe") {
		return true
	}

	if runtime.GOOS == "windows" {
		return false
	}

	switch filepath.Ext(lower) {
	case ".sh", ".x86_64":
		return true
	case "":
		info, err := entry.Info()
		return err == nil && info.Mode()&0o111 != 0
	default:
		return false
	}
}

// excludedExecutable applies the support-tool blacklist plus the launcher
// stem rule: a stem merely containing "launcher" is a helper
// ("GameLauncherHelper"), while a stem ending in it is the real entry point
// ("Launcher", "GameLauncher").
func excludedExecutable(name string) bool {
	lower := strings.ToLower(name)
	for _, fragment := range excludedExeFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}

	stem := strings.TrimSuffix(lower, filepath.Ext(lower))
	if strings.Contains(stem, "launcher") && !strings.HasSuffix(stem, "launcher") {
		return true
	}
	return false
}
