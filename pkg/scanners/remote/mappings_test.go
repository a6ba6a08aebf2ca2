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

package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GameWatchProject/gamewatch-core/pkg/models"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serveMappings starts a test server returning the given mappings as JSON.
func serveMappings(t *testing.T, mappings []models.GameMapping) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(mappings))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestScannerAvailability(t *testing.T) {
	t.Parallel()

	assert.False(t, NewScanner("").IsAvailable())
	assert.True(t, NewScanner("http://example.com/mappings.json").IsAvailable())
	assert.Empty(t, NewScanner("http://example.com/mappings.json").InstallPath())
	assert.Equal(t, models.PlatformCustom, NewScanner("").Platform())
}

func TestDetectGamesDegradesToZero(t *testing.T) {
	t.Parallel()

	t.Run("empty_document", func(t *testing.T) {
		t.Parallel()

		srv := serveMappings(t, []models.GameMapping{})
		games, err := NewScanner(srv.URL).DetectGames(context.Background())

		require.NoError(t, err)
		assert.Empty(t, games)
	})

	t.Run("non_success_status", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)

		games, err := NewScanner(srv.URL).DetectGames(context.Background())

		require.NoError(t, err)
		assert.Empty(t, games)
	})

	t.Run("malformed_document", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("{not json"))
		}))
		t.Cleanup(srv.Close)

		games, err := NewScanner(srv.URL).DetectGames(context.Background())

		require.NoError(t, err)
		assert.Empty(t, games)
	})

	t.Run("unreachable_endpoint", func(t *testing.T) {
		t.Parallel()

		games, err := NewScanner("http://127.0.0.1:1/mappings.json").DetectGames(context.Background())

		require.NoError(t, err)
		assert.Empty(t, games)
	})
}

func TestDetectGamesConversion(t *testing.T) {
	t.Parallel()

	t.Run("disabled_mapping_yields_nothing", func(t *testing.T) {
		t.Parallel()

		fs := afero.NewMemMapFs()
		require.NoError(t, fs.MkdirAll("/games/worldcraft", 0o750))

		srv := serveMappings(t, []models.GameMapping{{
			ID:      "worldcraft",
			Name:    "Worldcraft",
			Enabled: false,
			ProcessDetection: models.ProcessDetection{
				Common: []string{"worldcraft.exe"},
			},
			PathDetection: models.PathDetection{
				Common: []string{"/games/worldcraft"},
			},
		}})

		games, err := NewScanner(srv.URL, WithFs(fs)).DetectGames(context.Background())

		require.NoError(t, err)
		assert.Empty(t, games)
	})

	t.Run("mapping_without_applicable_rules_yields_nothing", func(t *testing.T) {
		t.Parallel()

		srv := serveMappings(t, []models.GameMapping{{
			ID:      "ghost",
			Name:    "Ghost Game",
			Enabled: true,
			PathDetection: models.PathDetection{
				Common: []string{"/does/not/exist"},
			},
		}})

		games, err := NewScanner(srv.URL, WithFs(afero.NewMemMapFs())).DetectGames(context.Background())

		require.NoError(t, err)
		assert.Empty(t, games)
	})

	t.Run("process_names_union_common_and_os", func(t *testing.T) {
		t.Parallel()

		srv := serveMappings(t, []models.GameMapping{{
			ID:      "worldcraft",
			Name:    "Worldcraft",
			Enabled: true,
			ProcessDetection: models.ProcessDetection{
				Common:  []string{"worldcraft.exe"},
				Windows: []string{"worldcraft64.exe"},
				Linux:   []string{"worldcraft64.exe"},
				Mac:     []string{"worldcraft64.exe"},
			},
		}})

		games, err := NewScanner(srv.URL, WithFs(afero.NewMemMapFs())).DetectGames(context.Background())

		require.NoError(t, err)
		require.Len(t, games, 1)
		assert.Equal(t, []string{"worldcraft.exe", "worldcraft64.exe"}, games[0].ProcessNames)
		assert.Empty(t, games[0].InstallPath)
	})

	t.Run("union_dedupes_case_insensitively", func(t *testing.T) {
		t.Parallel()

		srv := serveMappings(t, []models.GameMapping{{
			ID:      "worldcraft",
			Name:    "Worldcraft",
			Enabled: true,
			ProcessDetection: models.ProcessDetection{
				Common:  []string{"Worldcraft.exe"},
				Windows: []string{"worldcraft.exe"},
				Linux:   []string{"worldcraft.exe"},
				Mac:     []string{"worldcraft.exe"},
			},
		}})

		games, err := NewScanner(srv.URL, WithFs(afero.NewMemMapFs())).DetectGames(context.Background())

		require.NoError(t, err)
		require.Len(t, games, 1)
		assert.Equal(t, []string{"Worldcraft.exe"}, games[0].ProcessNames)
	})

	t.Run("install_path_is_first_existing_directory", func(t *testing.T) {
		t.Parallel()

		fs := afero.NewMemMapFs()
		require.NoError(t, fs.MkdirAll("/games/worldcraft", 0o750))

		srv := serveMappings(t, []models.GameMapping{{
			ID:      "worldcraft",
			Name:    "Worldcraft",
			Enabled: true,
			PathDetection: models.PathDetection{
				Common: []string{"/missing/one", "/games/worldcraft", "/games/other"},
			},
		}})

		games, err := NewScanner(srv.URL, WithFs(fs)).DetectGames(context.Background())

		require.NoError(t, err)
		require.Len(t, games, 1)
		assert.Equal(t, "/games/worldcraft", games[0].InstallPath)
	})

	t.Run("deep_search_patterns_pass_through", func(t *testing.T) {
		t.Parallel()

		srv := serveMappings(t, []models.GameMapping{{
			ID:      "worldcraft",
			Name:    "Worldcraft",
			Enabled: true,
			ProcessDetection: models.ProcessDetection{
				DeepSearch: []string{"-game worldcraft"},
			},
		}})

		games, err := NewScanner(srv.URL, WithFs(afero.NewMemMapFs())).DetectGames(context.Background())

		require.NoError(t, err)
		require.Len(t, games, 1)
		assert.Equal(t, []string{"-game worldcraft"}, games[0].DeepSearchPatterns)
	})

	t.Run("platform_tag_resolved_case_insensitively", func(t *testing.T) {
		t.Parallel()

		srv := serveMappings(t, []models.GameMapping{
			{
				ID:       "alpha",
				Name:     "Alpha",
				Platform: "Epic",
				Enabled:  true,
				ProcessDetection: models.ProcessDetection{
					Common: []string{"alpha.exe"},
				},
			},
			{
				ID:       "beta",
				Name:     "Beta",
				Platform: "SomethingElse",
				Enabled:  true,
				ProcessDetection: models.ProcessDetection{
					Common: []string{"beta.exe"},
				},
			},
		})

		games, err := NewScanner(srv.URL, WithFs(afero.NewMemMapFs())).DetectGames(context.Background())

		require.NoError(t, err)
		require.Len(t, games, 2)
		assert.Equal(t, models.PlatformEpic, games[0].Platform)
		assert.Equal(t, models.PlatformCustom, games[1].Platform)
	})

	t.Run("invalid_record_skipped_without_affecting_others", func(t *testing.T) {
		t.Parallel()

		srv := serveMappings(t, []models.GameMapping{
			{
				// Missing name: fails validation.
				ID:      "broken",
				Enabled: true,
				ProcessDetection: models.ProcessDetection{
					Common: []string{"broken.exe"},
				},
			},
			{
				ID:      "alpha",
				Name:    "Alpha",
				Enabled: true,
				ProcessDetection: models.ProcessDetection{
					Common: []string{"alpha.exe"},
				},
			},
		})

		games, err := NewScanner(srv.URL, WithFs(afero.NewMemMapFs())).DetectGames(context.Background())

		require.NoError(t, err)
		require.Len(t, games, 1)
		assert.Equal(t, "alpha", games[0].ID)
	})

	t.Run("cancellation_propagates", func(t *testing.T) {
		t.Parallel()

		srv := serveMappings(t, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		games, err := NewScanner(srv.URL).DetectGames(ctx)

		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, games)
	})
}
