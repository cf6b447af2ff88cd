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

package frame

import "fmt"

// Frame is a fully parsed MS/TP frame: type, addressing, and optional data.
type Frame struct {
	Type        Type
	Destination byte
	Source      byte
	Data        []byte
}

// Encode renders f as the bytes that go on the wire, including preamble,
// header, header CRC, and (if Data is non-empty) the data and its CRC.
func Encode(f Frame) ([]byte, error) {
	if len(f.Data) > MaxDataLength {
		return nil, fmt.Errorf("frame data length %d exceeds maximum %d", len(f.Data), MaxDataLength)
	}

	out := make([]byte, 0, 8+len(f.Data)+DataCRCLength)
	out = append(out, Preamble1, Preamble2)

	header := []byte{
		byte(f.Type),
		f.Destination,
		f.Source,
		byte(len(f.Data) >> 8),
		byte(len(f.Data)),
	}
	out = append(out, header...)
	out = append(out, CalculateHeaderCRC(header)^0xFF)

	if len(f.Data) > 0 {
		out = append(out, f.Data...)
		lo, hi := EncodeDataCRC(f.Data)
		out = append(out, lo, hi)
	}

	return out, nil
}

// scanState is the byte-level parser's current position in a frame.
type scanState int

const (
	scanIdle scanState = iota
	scanPreamble1
	scanPreamble2
	scanHeader
	scanData
)

// Decoder consumes octets one at a time through the preamble/header/data
// scan states and reports complete frames or framing errors. It holds no
// reference to a clock or silence timer; that bookkeeping belongs to the
// caller (the receiver loop), which is why Decoder only ever returns
// frame-level results.
type Decoder struct {
	header       []byte
	data         []byte
	pendingFrame Frame
	state        scanState
	dataLen      int
}

// NewDecoder returns a Decoder ready to scan from the beginning of a frame.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Result is what pushing a single octet through the decoder produced.
type Result struct {
	// Err, if non-nil, describes a framing failure (bad CRC, truncated
	// frame). The decoder resets itself and the caller should surface this
	// via receivedInvalidFrame without treating it as a Go error upward.
	Err error
	// Frame is set when Complete is true and Err is nil.
	Frame Frame
	// Complete is true exactly when a full, valid frame has been decoded.
	Complete bool
}

// Push feeds one received octet into the decoder.
func (d *Decoder) Push(b byte) Result {
	switch d.state {
	case scanIdle:
		if b == Preamble1 {
			d.state = scanPreamble1
		}
		return Result{}

	case scanPreamble1:
		switch b {
		case Preamble2:
			d.state = scanPreamble2
			d.header = d.header[:0]
		case Preamble1:
			// stay, in case of repeated 0x55 padding
		default:
			d.state = scanIdle
		}
		return Result{}

	case scanPreamble2:
		d.header = append(d.header, b)
		if len(d.header) == HeaderLength {
			d.state = scanHeader
		}
		return Result{}

	case scanHeader:
		return d.finishHeader(b)

	case scanData:
		return d.consumeData(b)
	}

	d.reset()
	return Result{}
}

func (d *Decoder) finishHeader(crcByte byte) Result {
	if !ValidateHeaderCRC(d.header, crcByte) {
		d.reset()
		return Result{Err: fmt.Errorf("header CRC mismatch")}
	}

	length := int(d.header[3])<<8 | int(d.header[4])
	if length > MaxDataLength {
		d.reset()
		return Result{Err: fmt.Errorf("frame data length %d exceeds maximum %d", length, MaxDataLength)}
	}

	f := Frame{
		Type:        Type(d.header[0]),
		Destination: d.header[1],
		Source:      d.header[2],
	}

	if length == 0 {
		d.reset()
		return Result{Complete: true, Frame: f}
	}

	// Not finished: more octets (data + data CRC) remain. Re-enter scanData
	// rather than resetting.
	d.state = scanData
	d.dataLen = length
	d.data = make([]byte, 0, length+DataCRCLength)
	d.pendingFrame = f
	return Result{}
}

func (d *Decoder) consumeData(b byte) Result {
	d.data = append(d.data, b)
	if len(d.data) < d.dataLen+DataCRCLength {
		return Result{}
	}

	defer d.reset()

	payload := d.data[:d.dataLen]
	lo := d.data[d.dataLen]
	hi := d.data[d.dataLen+1]
	if !ValidateDataCRC(payload, lo, hi) {
		return Result{Err: fmt.Errorf("data CRC mismatch")}
	}

	f := d.pendingFrame
	f.Data = append([]byte(nil), payload...)
	return Result{Complete: true, Frame: f}
}

func (d *Decoder) reset() {
	d.state = scanIdle
	d.header = nil
	d.data = nil
	d.dataLen = 0
	d.pendingFrame = Frame{}
}
