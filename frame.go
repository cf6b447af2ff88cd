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

import "github.com/mstp-go/mstp/internal/frame"

// FrameType is the wire-level MS/TP frame type. Values other than the named
// constants are proprietary/unknown at the framing layer.
type FrameType = frame.Type

// Frame types defined by the MS/TP data link.
const (
	Token                       = frame.TypeToken
	PollForMaster               = frame.TypePollForMaster
	ReplyToPollForMaster        = frame.TypeReplyToPollForMaster
	TestRequest                 = frame.TypeTestRequest
	TestResponse                = frame.TypeTestResponse
	BACnetDataExpectingReply    = frame.TypeBACnetDataExpectingReply
	BACnetDataNotExpectingReply = frame.TypeBACnetDataNotExpectingReply
	ReplyPostponed              = frame.TypeReplyPostponed
)

// BroadcastAddress is the reserved destination meaning "all stations".
const BroadcastAddress byte = frame.Broadcast

// MaxMasterAddress is the largest address a master station may hold.
const MaxMasterAddress byte = 127

// MaxFrameDataLength is the largest data payload an MS/TP frame may carry.
const MaxFrameDataLength = frame.MaxDataLength

// Frame is a parsed or to-be-sent MS/TP frame.
type Frame struct {
	Type        FrameType
	Destination byte
	Source      byte
	Data        []byte
}

// ForStation reports whether f is addressed directly to ts.
func (f Frame) ForStation(ts byte) bool {
	return f.Destination == ts
}

// ForStationOrBroadcast reports whether f is addressed to ts or to every
// station on the segment.
func (f Frame) ForStationOrBroadcast(ts byte) bool {
	return f.Destination == ts || f.Destination == BroadcastAddress
}

// Broadcast reports whether f is addressed to every station.
func (f Frame) Broadcast() bool {
	return f.Destination == BroadcastAddress
}

// oneOf reports whether f.Type is one of the given types.
func (f Frame) oneOf(types ...FrameType) bool {
	for _, t := range types {
		if f.Type == t {
			return true
		}
	}
	return false
}

func toInternalFrame(f Frame) frame.Frame {
	return frame.Frame{Type: f.Type, Destination: f.Destination, Source: f.Source, Data: f.Data}
}

func fromInternalFrame(f frame.Frame) Frame {
	return Frame{Type: f.Type, Destination: f.Destination, Source: f.Source, Data: f.Data}
}

// adjacentStation computes (x+1) mod (maxMaster+1), treating x as an
// unsigned 8-bit address.
func adjacentStation(x, maxMaster byte) byte {
	next := (int(x) + 1) % (int(maxMaster) + 1)
	return byte(next)
}
