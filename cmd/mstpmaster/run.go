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
	"context"
	"fmt"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mstp-go/mstp"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var noTUI bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Join the token ring as a master node",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().BoolVar(&noTUI, "no-tui", false, "Disable the live dashboard even on an interactive terminal")
}

func runRun(cmd *cobra.Command, args []string) error {
	link, desc, err := openLink()
	if err != nil {
		return err
	}
	defer link.Close()

	node, err := mstp.NewNode(link, byte(thisStation), retryCount, mstp.WithMaxMaster(byte(maxMaster)))
	if err != nil {
		return fmt.Errorf("creating node: %w", err)
	}

	fmt.Fprintf(os.Stderr, "mstpmaster: %s, station %d\n", desc, thisStation)

	ctx, cancel := context.WithCancel(cmd.Context())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		cancel()
	}()

	if !noTUI && term.IsTerminal(int(os.Stdout.Fd())) {
		program := tea.NewProgram(newDashboard(node))
		go func() {
			<-ctx.Done()
			program.Quit()
		}()
		_, err := program.Run()
		return err
	}

	runErr := node.Run(ctx)
	if runErr == context.Canceled {
		return nil
	}
	return runErr
}
