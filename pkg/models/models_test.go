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

package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformFromString(t *testing.T) {
	t.Parallel()

	t.Run("resolves_known_tags_case_insensitively", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, PlatformSteam, PlatformFromString("Steam"))
		assert.Equal(t, PlatformEpic, PlatformFromString("EPIC"))
		assert.Equal(t, PlatformBattleNet, PlatformFromString(" battlenet "))
	})

	t.Run("unknown_tags_default_to_custom", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, PlatformCustom, PlatformFromString("itchio"))
		assert.Equal(t, PlatformCustom, PlatformFromString(""))
	})
}

func TestGameMappingDecoding(t *testing.T) {
	t.Parallel()

	t.Run("field_matching_is_case_insensitive", func(t *testing.T) {
		t.Parallel()

		doc := `{
			"Id": "worldcraft",
			"NAME": "Worldcraft",
			"Platform": "custom",
			"enabled": true,
			"ProcessDetection": {
				"Common": ["worldcraft.exe"],
				"deepSearch": ["-worldcraft"]
			}
		}`

		var mapping GameMapping
		require.NoError(t, json.Unmarshal([]byte(doc), &mapping))

		assert.Equal(t, "worldcraft", mapping.ID)
		assert.Equal(t, "Worldcraft", mapping.Name)
		assert.True(t, mapping.Enabled)
		assert.Equal(t, []string{"worldcraft.exe"}, mapping.ProcessDetection.Common)
		assert.Equal(t, []string{"-worldcraft"}, mapping.ProcessDetection.DeepSearch)
	})
}

func TestDetectedGameKey(t *testing.T) {
	t.Parallel()

	game := DetectedGame{ID: "730", Platform: PlatformSteam}
	assert.Equal(t, "steam:730", game.Key())
}
