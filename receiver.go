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

package mstp

import (
	"time"

	"github.com/mstp-go/mstp/internal/frame"
)

// receiver drains octets from a Link, feeds them through the frame codec,
// and tracks the silence timer and activity counter the state machine reads
// every cycle. It never blocks.
type receiver struct {
	clock   Clock
	decoder *frame.Decoder

	lastActivity time.Time
	eventCount   int

	receivedValidFrame   bool
	receivedInvalidFrame string
	frame                Frame
}

func newReceiver(clock Clock) *receiver {
	return &receiver{
		clock:        clock,
		decoder:      frame.NewDecoder(),
		lastActivity: clock.Now(),
	}
}

// silence returns the time elapsed since the last octet was seen on the
// wire.
func (r *receiver) silence() time.Duration {
	return r.clock.Now().Sub(r.lastActivity)
}

// resetEventCount zeroes the activity counter. Called by the state machine
// whenever a transition restarts the silence/activity window.
func (r *receiver) resetEventCount() {
	r.eventCount = 0
}

// pollBufSize bounds a single non-blocking read; larger reads are drained
// across repeated calls within the same poll.
const pollBufSize = 256

// poll drains every octet currently buffered on link, updating silence and
// eventCount as it goes and surfacing at most the most recently completed
// frame or framing error via receivedValidFrame/receivedInvalidFrame.
func (r *receiver) poll(link Link) error {
	var buf [pollBufSize]byte
	for {
		n, err := link.ReadAvailable(buf[:])
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}

		for _, b := range buf[:n] {
			r.lastActivity = r.clock.Now()
			r.eventCount++

			res := r.decoder.Push(b)
			switch {
			case res.Err != nil:
				r.receivedInvalidFrame = res.Err.Error()
			case res.Complete:
				r.receivedValidFrame = true
				r.frame = fromInternalFrame(res.Frame)
			}
		}

		if n < len(buf) {
			return nil
		}
	}
}
