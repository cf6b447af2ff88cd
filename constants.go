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

import "time"

// Protocol timing constants. Values match the MS/TP defaults;
// UsageTimeout is the only one that is also independently configurable
// per node within [MinUsageTimeout, MaxUsageTimeout].
const (
	// NoTokenTimeout is the silence threshold after which a node declares
	// the token lost.
	NoTokenTimeout = 500 * time.Millisecond

	// ReplyTimeout is the silence threshold after sending a data-expecting
	// frame, past which the reply is considered to have failed.
	ReplyTimeout = 255 * time.Millisecond

	// ReplyDelay is the maximum time allowed to answer a data-expecting
	// frame before a replyPostponed must be sent instead.
	ReplyDelay = 250 * time.Millisecond

	// DefaultUsageTimeout is used when no Option overrides it.
	DefaultUsageTimeout = 50 * time.Millisecond

	// MinUsageTimeout and MaxUsageTimeout bound SetUsageTimeout/WithUsageTimeout.
	MinUsageTimeout = 20 * time.Millisecond
	MaxUsageTimeout = 100 * time.Millisecond

	// Slot is the per-address stagger used while waiting to generate a new
	// token in the noToken state.
	Slot = 10 * time.Millisecond

	// RetryTokenCount is how many times a token re-send is attempted
	// before giving up on the current successor.
	RetryTokenCount = 1

	// MinOctets is the minimum wire activity, in octets, that counts as
	// "someone is using the bus" rather than noise.
	MinOctets = 4

	// DefaultMaxInfoFrames is the maxInfoFrames value a Node uses unless
	// overridden with WithMaxInfoFrames/SetMaxInfoFrames.
	DefaultMaxInfoFrames = 1

	// DefaultMaxMaster is the maxMaster value a Node uses unless overridden.
	DefaultMaxMaster = MaxMasterAddress
)

// pollInterval (Npoll in the standard) is the number of token possessions
// between maintenance polls for new masters. Once tokenCount reaches
// pollInterval-1, doneWithToken starts its maintenance-PFM branches.
const pollInterval = 50
