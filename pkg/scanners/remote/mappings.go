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

// Package remote detects games from a hosted JSON document of per-title
// detection heuristics, covering platforms that have no local scanner.
package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/GameWatchProject/gamewatch-core/pkg/helpers"
	"github.com/GameWatchProject/gamewatch-core/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// DefaultFetchTimeout bounds the mapping document download.
const DefaultFetchTimeout = 10 * time.Second

// Scanner detects games from a remote mapping document. Every network,
// timeout and malformed-document failure degrades to zero results; only
// cancellation propagates.
type Scanner struct {
	client   *http.Client
	fs       afero.Fs
	validate *validator.Validate
	url      string
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithHTTPClient replaces the default bounded-timeout client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Scanner) {
		s.client = client
	}
}

// WithFs replaces the filesystem used for install-path existence checks.
func WithFs(fs afero.Fs) Option {
	return func(s *Scanner) {
		s.fs = fs
	}
}

// NewScanner creates a remote mapping scanner for the given document URL.
func NewScanner(url string, opts ...Option) *Scanner {
	s := &Scanner{
		url:      url,
		client:   &http.Client{Timeout: DefaultFetchTimeout},
		fs:       afero.NewOsFs(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Platform implements scanners.GameScanner. Individual games carry their
// own platform tag from the mapping record.
func (*Scanner) Platform() models.Platform {
	return models.PlatformCustom
}

// IsAvailable reports whether a mapping URL is configured.
func (s *Scanner) IsAvailable() bool {
	return s.url != ""
}

// InstallPath implements scanners.GameScanner; a remote source has no root.
func (*Scanner) InstallPath() string {
	return ""
}

// DetectGames fetches and converts the mapping document.
func (s *Scanner) DetectGames(ctx context.Context) ([]models.DetectedGame, error) {
	mappings, err := s.fetchMappings(ctx)
	if err != nil {
		return nil, err
	}

	var games []models.DetectedGame
	seen := make(map[string]bool)

	for i := range mappings {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		mapping := &mappings[i]
		if err := s.validate.Struct(mapping); err != nil {
			log.Debug().Err(err).Str("id", mapping.ID).Msg("skipping invalid mapping record")
			continue
		}

		game, ok := s.convertMapping(mapping)
		if !ok || seen[game.Key()] {
			continue
		}
		seen[game.Key()] = true
		games = append(games, game)
	}

	log.Info().Int("count", len(games)).Msg("remote mapping scan complete")
	return games, nil
}

// fetchMappings downloads and decodes the document. Non-success responses
// and malformed bodies yield zero mappings, not an error.
func (s *Scanner) fetchMappings(ctx context.Context) ([]models.GameMapping, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, http.NoBody)
	if err != nil {
		log.Warn().Err(err).Str("url", s.url).Msg("error building mapping request")
		return nil, nil
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn().Err(err).Str("url", s.url).Msg("error fetching mapping document")
		return nil, nil
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing mapping response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("url", s.url).
			Msg("mapping document fetch returned non-success status")
		return nil, nil
	}

	var mappings []models.GameMapping
	if err := json.NewDecoder(resp.Body).Decode(&mappings); err != nil {
		log.Warn().Err(err).Str("url", s.url).Msg("error decoding mapping document")
		return nil, nil
	}

	return mappings, nil
}

// convertMapping turns an actionable mapping into a DetectedGame. A mapping
// is actionable only if it is enabled and carries at least one applicable
// process rule, deep-search pattern, or a path resolving to an existing
// directory on this OS.
func (s *Scanner) convertMapping(mapping *models.GameMapping) (models.DetectedGame, bool) {
	if !mapping.Enabled {
		return models.DetectedGame{}, false
	}

	names := unionForOS(mapping.ProcessDetection.Common, osProcessNames(&mapping.ProcessDetection))
	installPath := s.firstExistingDir(unionForOS(mapping.PathDetection.Common, osPaths(&mapping.PathDetection)))

	if len(names) == 0 && len(mapping.ProcessDetection.DeepSearch) == 0 && installPath == "" {
		log.Debug().Str("id", mapping.ID).Msg("mapping has no applicable detection rules, skipping")
		return models.DetectedGame{}, false
	}

	return models.DetectedGame{
		ID:                 mapping.ID,
		Name:               mapping.Name,
		Platform:           models.PlatformFromString(mapping.Platform),
		InstallPath:        installPath,
		IconURL:            mapping.Icon,
		ProcessNames:       names,
		DeepSearchPatterns: mapping.ProcessDetection.DeepSearch,
	}, true
}

// firstExistingDir expands each candidate path and returns the first one
// that is an existing directory, else empty.
func (s *Scanner) firstExistingDir(paths []string) string {
	for _, raw := range paths {
		path := helpers.ExpandPath(raw)
		if path == "" {
			continue
		}
		if ok, err := afero.DirExists(s.fs, path); err == nil && ok {
			return path
		}
	}
	return ""
}

// osProcessNames returns the process-name list for the current OS.
func osProcessNames(pd *models.ProcessDetection) []string {
	switch runtime.GOOS {
	case "windows":
		return pd.Windows
	case "darwin":
		return pd.Mac
	default:
		return pd.Linux
	}
}

// osPaths returns the path candidates for the current OS.
func osPaths(pd *models.PathDetection) []string {
	switch runtime.GOOS {
	case "windows":
		return pd.Windows
	case "darwin":
		return pd.Mac
	default:
		return pd.Linux
	}
}

// unionForOS merges common and OS-specific entries, preserving order and
// dropping duplicates case-insensitively.
func unionForOS(common, osSpecific []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, list := range [][]string{common, osSpecific} {
		for _, entry := range list {
			key := strings.ToLower(strings.TrimSpace(entry))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, entry)
		}
	}
	return out
}
