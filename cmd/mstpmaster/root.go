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
	"github.com/spf13/cobra"
)

var (
	portName string
	baudRate int

	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	thisStation int
	maxMaster   int
	retryCount  int
)

var rootCmd = &cobra.Command{
	Use:     "mstpmaster",
	Short:   "MS/TP master-node data-link station",
	Version: "0.1.0",
	Long: `mstpmaster runs an MS/TP (EIA-485 Master-Slave/Token-Passing) master
station and either drives it silently or shows a live TUI of the token ring.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 38400]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the MSTP_PASSWORD
environment variable, or prompted interactively if not set.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 38400, "Baud rate (serial only)")

	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket relay URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().IntVarP(&thisStation, "station", "s", 1, "This node's MAC address (0-127)")
	rootCmd.PersistentFlags().IntVar(&maxMaster, "max-master", 127, "Highest master address on the segment")
	rootCmd.PersistentFlags().IntVar(&retryCount, "retry-count", 0, "Initial retry counter")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sniffCmd)
}
