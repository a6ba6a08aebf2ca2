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

package detector

import (
	"time"

	"github.com/GameWatchProject/gamewatch-core/pkg/models"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/process"
)

// ProcessEnumerator produces a snapshot of running OS processes with
// best-effort identifying metadata. The call never fails: a process whose
// metadata lookup fails (exited mid-enumeration, permission denied) is
// simply omitted.
type ProcessEnumerator interface {
	RunningProcesses() []models.RunningProcess
}

// EnumeratorFunc adapts a function to the ProcessEnumerator interface.
type EnumeratorFunc func() []models.RunningProcess

// RunningProcesses implements ProcessEnumerator.
func (f EnumeratorFunc) RunningProcesses() []models.RunningProcess {
	return f()
}

type psEnumerator struct{}

// NewProcessEnumerator returns the OS process-table enumerator.
func NewProcessEnumerator() ProcessEnumerator {
	return &psEnumerator{}
}

func (*psEnumerator) RunningProcesses() []models.RunningProcess {
	procs, err := process.Processes()
	if err != nil {
		log.Warn().Err(err).Msg("error enumerating processes")
		return nil
	}

	out := make([]models.RunningProcess, 0, len(procs))
	for _, p := range procs {
		// A name is the minimum useful identity; without one the process
		// likely exited mid-enumeration.
		name, err := p.Name()
		if err != nil || name == "" {
			continue
		}

		rp := models.RunningProcess{
			PID:  p.Pid,
			Name: name,
		}
		if exe, err := p.Exe(); err == nil {
			rp.ExePath = exe
		}
		if cmdline, err := p.Cmdline(); err == nil {
			rp.Cmdline = cmdline
		}
		if createTime, err := p.CreateTime(); err == nil && createTime > 0 {
			rp.StartTime = time.UnixMilli(createTime)
		}

		out = append(out, rp)
	}
	return out
}
