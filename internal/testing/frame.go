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

package testing

import "github.com/mstp-go/mstp/internal/frame"

// EncodeFrame renders a wire-format MS/TP frame for injection into a
// MockLink. It panics on an oversized payload, since test callers pass
// fixed, known-good data.
func EncodeFrame(frameType frame.Type, destination, source byte, data []byte) []byte {
	wire, err := frame.Encode(frame.Frame{Type: frameType, Destination: destination, Source: source, Data: data})
	if err != nil {
		panic(err)
	}
	return wire
}
