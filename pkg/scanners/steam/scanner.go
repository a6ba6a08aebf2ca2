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

// Package steam scans Steam libraries for installed games by parsing the
// client's VDF config and ACF manifest files. No Steam API access is used.
package steam

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/GameWatchProject/gamewatch-core/pkg/models"
	"github.com/andygrunwald/vdf"
	"github.com/rs/zerolog/log"
)

// iconURLTemplate is the deterministic CDN location of a game's header
// image, keyed by app ID. Never fetched during scanning.
const iconURLTemplate = "https://cdn.cloudflare.steamstatic.com/steam/apps/%s/header.jpg"

// nonGameNameFragments marks manifest titles that are Steam tooling rather
// than games (runtime redistributables, compatibility layers). Matched
// case-insensitively as substrings.
var nonGameNameFragments = []string{
	"steamworks common redistributables",
	"steam linux runtime",
	"proton",
	"steamvr",
	"compatibility tool",
}

// Scanner discovers installed Steam games.
type Scanner struct {
	rootDirs         []string
	extraLibraryDirs []string
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithRootDirs replaces the default OS-specific Steam root candidates.
func WithRootDirs(dirs []string) Option {
	return func(s *Scanner) {
		s.rootDirs = dirs
	}
}

// WithExtraLibraryDirs adds user-configured library directories scanned in
// addition to those discovered from libraryfolders.vdf.
func WithExtraLibraryDirs(dirs []string) Option {
	return func(s *Scanner) {
		s.extraLibraryDirs = dirs
	}
}

// NewScanner creates a Steam scanner with default root candidates for the
// current OS.
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{
		rootDirs: defaultRootDirs(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// defaultRootDirs returns the ordered Steam root candidates for this OS.
func defaultRootDirs() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			`C:\Program Files (x86)\Steam`,
			`C:\Program Files\Steam`,
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		return []string{
			filepath.Join(home, "Library", "Application Support", "Steam"),
		}
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		return []string{
			filepath.Join(home, ".steam", "steam"),
			filepath.Join(home, ".local", "share", "Steam"),
			filepath.Join(home, ".var", "app", "com.valvesoftware.Steam", ".steam", "steam"),
		}
	}
}

// Platform implements scanners.GameScanner.
func (*Scanner) Platform() models.Platform {
	return models.PlatformSteam
}

// IsAvailable reports whether a Steam root directory exists on this machine.
func (s *Scanner) IsAvailable() bool {
	return s.InstallPath() != ""
}

// InstallPath returns the first existing Steam root candidate, or empty.
func (s *Scanner) InstallPath() string {
	for _, dir := range s.rootDirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return ""
}

// DetectGames scans every Steam library for installed games. A missing
// client yields an empty list; corrupt configs and manifests degrade rather
// than abort.
func (s *Scanner) DetectGames(ctx context.Context) ([]models.DetectedGame, error) {
	root := s.InstallPath()
	if root == "" {
		log.Debug().Msg("steam root not found, skipping scan")
		return nil, nil
	}

	var games []models.DetectedGame
	seen := make(map[string]bool)

	for _, library := range s.libraryDirs(root) {
		libraryGames, err := s.scanLibrary(ctx, library, seen)
		if err != nil {
			return nil, err
		}
		games = append(games, libraryGames...)
	}

	log.Info().Int("count", len(games)).Msg("steam scan complete")
	return games, nil
}

// libraryDirs discovers every Steam library root, starting with the client
// root itself. Parse failure or absence of libraryfolders.vdf falls back to
// the single default library; it never aborts the scan.
func (s *Scanner) libraryDirs(root string) []string {
	dirs := []string{root}
	seen := map[string]bool{root: true}

	appendDir := func(dir string) {
		if dir == "" || seen[dir] {
			return
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}

	libraryFoldersPath := filepath.Join(findSteamAppsDir(root), "libraryfolders.vdf")

	//nolint:gosec // reads Steam config files for library discovery
	f, err := os.Open(libraryFoldersPath)
	if err != nil {
		log.Debug().Err(err).Msg("failed to open libraryfolders.vdf, using default library")
	} else {
		defer func() {
			if closeErr := f.Close(); closeErr != nil {
				log.Warn().Err(closeErr).Msg("error closing libraryfolders.vdf")
			}
		}()

		m, parseErr := vdf.NewParser(f).Parse()
		if parseErr != nil {
			log.Warn().Err(parseErr).Msg("failed to parse libraryfolders.vdf, using default library")
		} else {
			m = normalizeVDFKeys(m)
			if lfs, ok := m["libraryfolders"].(map[string]any); ok {
				for id, v := range lfs {
					ls, ok := v.(map[string]any)
					if !ok {
						continue
					}
					libraryPath, ok := ls["path"].(string)
					if !ok {
						log.Debug().Str("library", id).Msg("library entry has no path")
						continue
					}
					appendDir(libraryPath)
				}
			}
		}
	}

	for _, dir := range s.extraLibraryDirs {
		appendDir(dir)
	}

	return dirs
}

// scanLibrary enumerates the appmanifest files of one library. A corrupted
// manifest is skipped without affecting the rest; only cancellation aborts.
func (s *Scanner) scanLibrary(
	ctx context.Context,
	library string,
	seen map[string]bool,
) ([]models.DetectedGame, error) {
	appsDir := findSteamAppsDir(library)

	entries, err := os.ReadDir(appsDir)
	if err != nil {
		log.Debug().Err(err).Str("library", library).Msg("error listing steamapps folder")
		return nil, nil
	}

	var games []models.DetectedGame
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "appmanifest_") || !strings.HasSuffix(name, ".acf") {
			continue
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		game, ok := s.readManifest(filepath.Join(appsDir, name), appsDir)
		if !ok || seen[game.ID] {
			continue
		}
		seen[game.ID] = true
		games = append(games, game)
	}

	return games, nil
}

// readManifest parses one appmanifest file into a DetectedGame. Returns
// false for corrupt manifests, non-game tooling and titles whose install
// directory no longer exists.
func (s *Scanner) readManifest(manifestPath, appsDir string) (models.DetectedGame, bool) {
	//nolint:gosec // reads Steam manifest files for game library scanning
	f, err := os.Open(manifestPath)
	if err != nil {
		log.Warn().Err(err).Str("manifest", manifestPath).Msg("error opening manifest")
		return models.DetectedGame{}, false
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing manifest file")
		}
	}()

	m, err := vdf.NewParser(f).Parse()
	if err != nil {
		log.Warn().Err(err).Str("manifest", manifestPath).Msg("error parsing manifest, skipping")
		return models.DetectedGame{}, false
	}
	m = normalizeVDFKeys(m)

	appState, ok := m["appstate"].(map[string]any)
	if !ok {
		log.Warn().Str("manifest", manifestPath).Msg("appstate missing in manifest, skipping")
		return models.DetectedGame{}, false
	}

	appID, ok := appState["appid"].(string)
	if !ok {
		log.Warn().Str("manifest", manifestPath).Msg("appid missing in manifest, skipping")
		return models.DetectedGame{}, false
	}

	name, ok := appState["name"].(string)
	if !ok {
		log.Warn().Str("manifest", manifestPath).Msg("name missing in manifest, skipping")
		return models.DetectedGame{}, false
	}

	if isNonGameTitle(name) {
		log.Debug().Str("name", name).Msg("skipping non-game title")
		return models.DetectedGame{}, false
	}

	installDir, _ := appState["installdir"].(string)
	if installDir == "" {
		log.Debug().Str("name", name).Msg("manifest has no installdir, skipping")
		return models.DetectedGame{}, false
	}

	installPath := filepath.Join(appsDir, "common", installDir)
	if info, err := os.Stat(installPath); err != nil || !info.IsDir() {
		log.Debug().Str("path", installPath).Msg("install directory missing, skipping")
		return models.DetectedGame{}, false
	}

	game := models.DetectedGame{
		ID:             appID,
		Name:           name,
		Platform:       models.PlatformSteam,
		InstallPath:    installPath,
		ExecutablePath: PickMainExecutable(installPath),
		IconURL:        iconURL(appID),
	}

	if raw, ok := appState["lastplayed"].(string); ok {
		if epoch, err := strconv.ParseInt(raw, 10, 64); err == nil && epoch > 0 {
			game.LastPlayed = time.Unix(epoch, 0)
		}
	}
	if raw, ok := appState["playtime"].(string); ok {
		if minutes, err := strconv.ParseInt(raw, 10, 64); err == nil && minutes > 0 {
			game.PlaytimeMinutes = minutes
		}
	}

	return game, true
}

// findSteamAppsDir locates the steamapps directory under a library root,
// tolerating the mixed-case spelling older clients used.
func findSteamAppsDir(library string) string {
	candidates := []string{
		"steamapps",
		"SteamApps",
	}
	for _, candidate := range candidates {
		path := filepath.Join(library, candidate)
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return path
		}
	}
	return filepath.Join(library, "steamapps")
}

// isNonGameTitle reports whether a manifest title names known Steam tooling.
func isNonGameTitle(name string) bool {
	lower := strings.ToLower(name)
	for _, fragment := range nonGameNameFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

func iconURL(appID string) string {
	return fmt.Sprintf(iconURLTemplate, appID)
}

// normalizeVDFKeys lowercases map keys recursively. Steam writes manifest
// keys with inconsistent casing across client versions.
func normalizeVDFKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			v = normalizeVDFKeys(nested)
		}
		out[strings.ToLower(k)] = v
	}
	return out
}
