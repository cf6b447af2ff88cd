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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdjacentStation_WrapsAtMaxMaster(t *testing.T) {
	t.Parallel()

	cases := []struct {
		x, maxMaster, want byte
	}{
		{0, 127, 1},
		{126, 127, 127},
		{127, 127, 0},
		{5, 10, 6},
		{10, 10, 0},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, adjacentStation(tc.x, tc.maxMaster))
	}
}

func TestFrame_ForStationAndBroadcast(t *testing.T) {
	t.Parallel()

	direct := Frame{Destination: 5}
	require.True(t, direct.ForStation(5))
	require.False(t, direct.ForStation(6))
	require.True(t, direct.ForStationOrBroadcast(5))

	broadcast := Frame{Destination: BroadcastAddress}
	require.True(t, broadcast.Broadcast())
	require.True(t, broadcast.ForStationOrBroadcast(9))
	require.False(t, broadcast.ForStation(9))
}

func TestFrame_OneOf(t *testing.T) {
	t.Parallel()

	f := Frame{Type: TestRequest}
	require.True(t, f.oneOf(Token, TestRequest))
	require.False(t, f.oneOf(Token, PollForMaster))
}
