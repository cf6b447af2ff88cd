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
	"time"

	"github.com/mstp-go/mstp"
	"github.com/spf13/cobra"
)

var sniffCmd = &cobra.Command{
	Use:   "sniff",
	Short: "Join the ring as a quiet master and log the data frames it receives",
	Long: `Joins the token ring as a master station that never queues frames of
its own, and prints every data frame delivered to it (addressed to this
station or broadcast). It still takes part in token passing, answers Poll
For Master, and sends Reply Postponed for requests it is handed, so it is
not a passive tap: the segment must tolerate one more master station.`,
	RunE: runSniff,
}

func runSniff(cmd *cobra.Command, args []string) error {
	link, desc, err := openLink()
	if err != nil {
		return err
	}
	defer link.Close()

	fmt.Printf("mstpmaster sniff - %s\n", desc)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	// A receive-only view of the wire is a degenerate master node: nothing
	// is ever queued, so it never originates a data frame of its own, and
	// the onDataNoReply/onDataNeedingReply hooks do the printing. It still
	// answers PFM, passes the token, and sends replyPostponed for requests
	// it never answers, so it is not a perfectly passive tap - only
	// suitable for segments that can tolerate one more station.
	onFrame := func(label string) func(mstp.Frame) {
		return func(f mstp.Frame) {
			fmt.Printf("[%s] %-28s src=%-3d dst=%-3d len=%d\n",
				time.Now().Format("15:04:05.000"), label, f.Source, f.Destination, len(f.Data))
		}
	}

	node, err := mstp.NewNode(link, byte(thisStation), retryCount,
		mstp.WithMaxMaster(byte(maxMaster)),
		mstp.WithDataNoReplyHandler(onFrame("data (no reply)")),
		mstp.WithDataNeedingReplyHandler(onFrame("data (needs reply)")),
	)
	if err != nil {
		return fmt.Errorf("creating node: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		cancel()
	}()

	runErr := node.Run(ctx)
	if runErr == context.Canceled {
		return nil
	}
	return runErr
}
