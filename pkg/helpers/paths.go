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

// Package helpers contains path matching and logging utilities shared by
// the scanner, detector and service packages.
package helpers

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// IgnoredPathFragments lists directory names of companion tooling that ships
// inside game install directories. A process running under one of these is
// never treated as the game itself.
//
// The list is global rather than per-game configuration. A future mapping
// schema revision could move it into PathDetection.
var IgnoredPathFragments = []string{
	"easyanticheat",
	"battleye",
	"commonredist",
	"directx",
	"dotnet",
	"vcredist",
}

// windowsEnvRe matches %VAR% style environment references.
var windowsEnvRe = regexp.MustCompile(`%([^%]+)%`)

// ExpandPath expands a leading "~" to the user home directory and resolves
// both $VAR/${VAR} and %VAR% environment references. Unset variables expand
// to the empty string, matching os.ExpandEnv.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	} else if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	path = windowsEnvRe.ReplaceAllStringFunc(path, func(m string) string {
		return os.Getenv(m[1 : len(m)-1])
	})

	return os.ExpandEnv(path)
}

// NormalizePathForComparison normalizes a path for cross-platform
// case-insensitive comparison. Converts to forward slashes and lowercases so
// matching behaves the same for paths produced by filepath.Join and paths
// reported by the OS process table.
func NormalizePathForComparison(path string) string {
	return strings.ToLower(filepath.ToSlash(filepath.Clean(path)))
}

// PathIsDescendant reports whether path is strictly inside root, handling
// separator boundaries correctly so "c:/games2/game.exe" never matches root
// "c:/games". Equality with root is not containment.
func PathIsDescendant(path, root string) bool {
	if path == "" || root == "" {
		return false
	}

	normPath := NormalizePathForComparison(path)
	normRoot := NormalizePathForComparison(root)
	if normPath == normRoot {
		return false
	}

	if !strings.HasSuffix(normRoot, "/") {
		normRoot += "/"
	}
	return strings.HasPrefix(normPath, normRoot)
}

// ContainsIgnoredFragment reports whether any path segment contains one of
// the globally ignored fragments.
func ContainsIgnoredFragment(path string) bool {
	norm := NormalizePathForComparison(path)
	for _, segment := range strings.Split(norm, "/") {
		for _, fragment := range IgnoredPathFragments {
			if strings.Contains(segment, fragment) {
				return true
			}
		}
	}
	return false
}
