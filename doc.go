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

/*
Package mstp implements the master-node state machine of an MS/TP
(Master-Slave/Token-Passing) data link, the token-passing half-duplex
serial protocol used beneath BACnet over EIA-485.

A Node acquires and passes a logical token among cooperating master
stations, polls for new masters when it has no known successor, and
exchanges application frames with its peers while it holds the token.
Slave-only nodes, the physical UART driver, and the higher-layer network
protocol are out of scope; this package only implements the data link.

Basic usage:

	link, err := serial.Open("/dev/ttyUSB0", 38400)
	if err != nil {
	    log.Fatal(err)
	}
	defer link.Close()

	node, err := mstp.NewNode(link, 1, 0,
	    mstp.WithMaxMaster(127),
	    mstp.WithDataNoReplyHandler(func(f mstp.Frame) {
	        fmt.Printf("received %d bytes from %d\n", len(f.Data), f.Source)
	    }),
	)
	if err != nil {
	    log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := node.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    log.Fatal(err)
	}

Thread safety:

Node is safe for concurrent use by a producer calling QueueFrame or
SetReplyFrame from other goroutines while the cycle loop runs on its own
goroutine; those are the only two entry points a caller needs from outside
the cycle loop.
*/
package mstp
