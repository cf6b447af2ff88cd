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

// Package serial implements mstp.Link over a real EIA-485 serial port via
// go.bug.st/serial.
package serial

import (
	"time"

	"github.com/mstp-go/mstp"
	"go.bug.st/serial"
)

// Port wraps a go.bug.st/serial.Port as an mstp.Link. The underlying port is
// put into a short read-timeout mode so ReadAvailable never blocks the
// cycle loop for more than a few milliseconds.
type Port struct {
	port serial.Port
	name string
}

// defaultReadTimeout bounds how long a single ReadAvailable call may block
// waiting for the first octet, keeping DoCycle responsive even on an idle
// bus.
const defaultReadTimeout = 2 * time.Millisecond

// Open opens portName at baudRate, 8N1, ready for MS/TP use.
func Open(portName string, baudRate int) (*Port, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	p, err := serial.Open(portName, mode)
	if err != nil {
		return nil, mstp.NewTransportError("open", portName, err, mstp.ErrorTypePermanent)
	}

	if err := p.SetReadTimeout(defaultReadTimeout); err != nil {
		_ = p.Close()
		return nil, mstp.NewTransportError("set-read-timeout", portName, err, mstp.ErrorTypePermanent)
	}

	return &Port{port: p, name: portName}, nil
}

// ReadAvailable implements mstp.Link. It never blocks longer than
// defaultReadTimeout, so an idle link still returns promptly with (0, nil).
func (p *Port) ReadAvailable(buf []byte) (int, error) {
	n, err := p.port.Read(buf)
	if err != nil {
		return 0, mstp.NewTransportError("read", p.name, err, classify(err))
	}
	return n, nil
}

// Write implements mstp.Link.
func (p *Port) Write(data []byte) error {
	if _, err := p.port.Write(data); err != nil {
		return mstp.NewTransportError("write", p.name, err, classify(err))
	}
	return nil
}

// Close implements mstp.Link.
func (p *Port) Close() error {
	if err := p.port.Close(); err != nil {
		return mstp.NewTransportError("close", p.name, err, mstp.ErrorTypePermanent)
	}
	return nil
}

// classify guesses whether err is likely to clear on its own. A missing
// port (unplugged cable) or a closed handle is treated as permanent, since
// retrying a cycle won't fix it; every other error is treated as transient.
func classify(err error) mstp.ErrorType {
	if pe, ok := err.(*serial.PortError); ok {
		if pe.Code() == serial.PortNotFound || pe.Code() == serial.PortClosed {
			return mstp.ErrorTypePermanent
		}
	}
	return mstp.ErrorTypeTransient
}
