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

import "sync"

// MockLink is an in-memory Link: bytes written to it with Inject become
// available to ReadAvailable, and bytes passed to Write are captured for
// assertions instead of going anywhere.
type MockLink struct {
	mu      sync.Mutex
	inbound []byte
	written [][]byte
	closed  bool
}

// NewMockLink returns an empty MockLink.
func NewMockLink() *MockLink {
	return &MockLink{}
}

// Inject appends bytes as if they had just arrived on the wire.
func (l *MockLink) Inject(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inbound = append(l.inbound, b...)
}

// ReadAvailable implements mstp.Link.
func (l *MockLink) ReadAvailable(buf []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.inbound) == 0 {
		return 0, nil
	}
	n := copy(buf, l.inbound)
	l.inbound = l.inbound[n:]
	return n, nil
}

// Write implements mstp.Link.
func (l *MockLink) Write(p []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := make([]byte, len(p))
	copy(cp, p)
	l.written = append(l.written, cp)
	return nil
}

// Close implements mstp.Link.
func (l *MockLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

// Written returns every frame handed to Write so far, in order.
func (l *MockLink) Written() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]byte, len(l.written))
	copy(out, l.written)
	return out
}

// LastWritten returns the most recent frame written, or nil if none yet.
func (l *MockLink) LastWritten() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.written) == 0 {
		return nil
	}
	return l.written[len(l.written)-1]
}

// Closed reports whether Close has been called.
func (l *MockLink) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
