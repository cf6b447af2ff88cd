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

	"github.com/pion/logging"
)

// Option configures a Node at construction time.
type Option func(*Node) error

// WithMaxMaster sets the highest address a master station on this segment
// may hold. Must be no greater than MaxMasterAddress.
func WithMaxMaster(maxMaster byte) Option {
	return func(n *Node) error {
		return n.SetMaxMaster(maxMaster)
	}
}

// WithMaxInfoFrames sets how many data frames this node may send per token
// possession. Must be at least 1.
func WithMaxInfoFrames(maxInfoFrames int) Option {
	return func(n *Node) error {
		return n.SetMaxInfoFrames(maxInfoFrames)
	}
}

// WithUsageTimeout sets the silence threshold used while waiting for a
// token or Poll For Master to be picked up. Must be within
// [MinUsageTimeout, MaxUsageTimeout].
func WithUsageTimeout(timeout time.Duration) Option {
	return func(n *Node) error {
		return n.SetUsageTimeout(timeout)
	}
}

// WithLoggerFactory sets the logging.LoggerFactory used to derive the
// node's scoped logger. Defaults to logging.NewDefaultLoggerFactory(),
// also when factory is nil.
func WithLoggerFactory(factory logging.LoggerFactory) Option {
	return func(n *Node) error {
		if factory == nil {
			factory = logging.NewDefaultLoggerFactory()
		}
		n.log = factory.NewLogger("mstp")
		return nil
	}
}

// WithClock overrides the monotonic clock used for silence timers and
// reply deadlines. Intended for tests; production callers should leave
// this unset.
func WithClock(clock Clock) Option {
	return func(n *Node) error {
		n.clock = clock
		n.receiver = newReceiver(clock)
		return nil
	}
}

// WithDataNoReplyHandler sets the callback invoked for unsolicited data and
// test-response frames. The callback runs synchronously from the cycle loop
// and must not block.
func WithDataNoReplyHandler(handler func(Frame)) Option {
	return func(n *Node) error {
		n.onDataNoReply = handler
		return nil
	}
}

// WithDataNeedingReplyHandler sets the callback invoked for frames that
// must be answered within ReplyDelay. The callback runs synchronously from
// the cycle loop, must not block, and is expected to eventually call
// SetReplyFrame.
func WithDataNeedingReplyHandler(handler func(Frame)) Option {
	return func(n *Node) error {
		n.onDataNeedingReply = handler
		return nil
	}
}
