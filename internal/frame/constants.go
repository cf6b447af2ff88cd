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

// Package frame implements the MS/TP wire format: preamble detection,
// header/data CRC, and streaming decode of the octet stream into frames.
package frame

// Preamble bytes that open every MS/TP frame.
const (
	Preamble1 = 0x55
	Preamble2 = 0xFF
)

// Header layout, not counting the two preamble bytes.
const (
	HeaderLength    = 5 // type, destination, source, length_hi, length_lo
	HeaderCRCLength = 1
	DataCRCLength   = 2
)

// MaxDataLength is the largest data payload an MS/TP frame may carry.
const MaxDataLength = 501

// Broadcast is the reserved destination address meaning "all stations".
const Broadcast = 0xFF

// Type is the wire value of the MS/TP frame type octet. Values outside the
// ones named here are proprietary/unknown at the framing layer.
type Type uint8

// Frame types defined by the MS/TP data link.
const (
	TypeToken                       Type = 0x00
	TypePollForMaster                Type = 0x01
	TypeReplyToPollForMaster         Type = 0x02
	TypeTestRequest                  Type = 0x03
	TypeTestResponse                 Type = 0x04
	TypeBACnetDataExpectingReply     Type = 0x05
	TypeBACnetDataNotExpectingReply  Type = 0x06
	TypeReplyPostponed               Type = 0x07
)

// Known reports whether t is one of the frame types defined above.
func (t Type) Known() bool {
	switch t {
	case TypeToken, TypePollForMaster, TypeReplyToPollForMaster, TypeTestRequest,
		TypeTestResponse, TypeBACnetDataExpectingReply, TypeBACnetDataNotExpectingReply,
		TypeReplyPostponed:
		return true
	default:
		return false
	}
}

func (t Type) String() string {
	switch t {
	case TypeToken:
		return "Token"
	case TypePollForMaster:
		return "PollForMaster"
	case TypeReplyToPollForMaster:
		return "ReplyToPollForMaster"
	case TypeTestRequest:
		return "TestRequest"
	case TypeTestResponse:
		return "TestResponse"
	case TypeBACnetDataExpectingReply:
		return "BACnetDataExpectingReply"
	case TypeBACnetDataNotExpectingReply:
		return "BACnetDataNotExpectingReply"
	case TypeReplyPostponed:
		return "ReplyPostponed"
	default:
		return "Unknown"
	}
}
