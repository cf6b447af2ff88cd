// mstp
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of mstp.
//
// mstp is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// mstp is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with mstp; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mstp-go/mstp"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	stateStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")).Padding(0, 1)
	logStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

type logEntry struct {
	at   time.Time
	text string
}

// dashboard is the bubbletea model for `mstpmaster run`'s live view. It
// drives the node's cycle loop itself on every tick, so the model owns the
// only goroutine allowed to touch the node's state-machine side.
type dashboard struct {
	node *mstp.Node

	width, height int
	ticks         int
	log           []logEntry
	quitting      bool
}

func newDashboard(node *mstp.Node) dashboard {
	return dashboard{node: node, width: 80, height: 24}
}

type cycleTickMsg time.Time

const cycleInterval = 20 * time.Millisecond

func cycleTick() tea.Cmd {
	return tea.Tick(cycleInterval, func(t time.Time) tea.Msg {
		return cycleTickMsg(t)
	})
}

func (d dashboard) Init() tea.Cmd {
	return tea.Batch(cycleTick(), tea.EnterAltScreen)
}

func (d dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			d.quitting = true
			return d, tea.Quit
		}

	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height

	case cycleTickMsg:
		before := d.node.State()
		d.node.DoCycle()
		after := d.node.State()
		if after != before {
			d.log = append(d.log, logEntry{at: time.Time(msg), text: fmt.Sprintf("%s -> %s", before, after)})
			if len(d.log) > 200 {
				d.log = d.log[len(d.log)-200:]
			}
		}
		return d, cycleTick()
	}

	return d, nil
}

func (d dashboard) View() string {
	if d.quitting {
		return "bye\n"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("mstpmaster"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("state:           %s\n", stateStyle.Render(d.node.State().String())))
	b.WriteString(fmt.Sprintf("joined ring:     %v\n", d.node.HasReceivedToken()))
	b.WriteString("\nrecent transitions:\n")

	start := 0
	maxLines := d.height - 8
	if maxLines < 1 {
		maxLines = 1
	}
	if len(d.log) > maxLines {
		start = len(d.log) - maxLines
	}
	for _, entry := range d.log[start:] {
		b.WriteString(logStyle.Render(fmt.Sprintf("  [%s] %s\n", entry.at.Format("15:04:05.000"), entry.text)))
	}

	b.WriteString("\n(q to quit)\n")
	return b.String()
}
