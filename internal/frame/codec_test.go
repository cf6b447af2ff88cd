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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func pushAll(d *Decoder, data []byte) []Result {
	results := make([]Result, 0, len(data))
	for _, b := range data {
		results = append(results, d.Push(b))
	}
	return results
}

func TestEncodeDecode_NoData(t *testing.T) {
	t.Parallel()

	f := Frame{Type: TypeToken, Destination: 2, Source: 1}
	wire, err := Encode(f)
	require.NoError(t, err)

	d := NewDecoder()
	results := pushAll(d, wire)

	var got *Frame
	for _, r := range results {
		if r.Complete {
			require.NoError(t, r.Err)
			f := r.Frame
			got = &f
		}
	}

	require.NotNil(t, got)
	require.Equal(t, f.Type, got.Type)
	require.Equal(t, f.Destination, got.Destination)
	require.Equal(t, f.Source, got.Source)
	require.Empty(t, got.Data)
}

func TestEncodeDecode_WithData(t *testing.T) {
	t.Parallel()

	f := Frame{
		Type:        TypeBACnetDataExpectingReply,
		Destination: 5,
		Source:      1,
		Data:        []byte("hello, mstp"),
	}
	wire, err := Encode(f)
	require.NoError(t, err)

	d := NewDecoder()
	var got *Frame
	for _, b := range wire {
		r := d.Push(b)
		if r.Complete {
			require.NoError(t, r.Err)
			fr := r.Frame
			got = &fr
		}
	}

	require.NotNil(t, got)
	require.Equal(t, f.Data, got.Data)
}

func TestEncode_RejectsOversizedData(t *testing.T) {
	t.Parallel()

	_, err := Encode(Frame{Type: TypeBACnetDataNotExpectingReply, Data: make([]byte, MaxDataLength+1)})
	require.Error(t, err)
}

func TestDecoder_SkipsNoiseBeforePreamble(t *testing.T) {
	t.Parallel()

	f := Frame{Type: TypePollForMaster, Destination: 3, Source: 1}
	wire, err := Encode(f)
	require.NoError(t, err)

	noisy := append([]byte{0x01, 0x02, 0x03}, wire...)

	d := NewDecoder()
	var got *Frame
	for _, b := range noisy {
		r := d.Push(b)
		if r.Complete {
			require.NoError(t, r.Err)
			fr := r.Frame
			got = &fr
		}
	}

	require.NotNil(t, got)
	require.Equal(t, f.Destination, got.Destination)
}

func TestDecoder_DetectsHeaderCRCFailure(t *testing.T) {
	t.Parallel()

	f := Frame{Type: TypeToken, Destination: 2, Source: 1}
	wire, err := Encode(f)
	require.NoError(t, err)
	wire[len(wire)-1] ^= 0xFF // corrupt the header CRC byte

	d := NewDecoder()
	var sawErr bool
	for _, b := range wire {
		r := d.Push(b)
		if r.Err != nil {
			sawErr = true
		}
		require.False(t, r.Complete)
	}

	require.True(t, sawErr)
}

func TestDecoder_DetectsDataCRCFailure(t *testing.T) {
	t.Parallel()

	f := Frame{Type: TypeTestRequest, Destination: 2, Source: 1, Data: []byte{1, 2, 3}}
	wire, err := Encode(f)
	require.NoError(t, err)
	wire[len(wire)-1] ^= 0xFF // corrupt the last data CRC byte

	d := NewDecoder()
	var sawErr bool
	for _, b := range wire {
		r := d.Push(b)
		if r.Err != nil {
			sawErr = true
		}
	}

	require.True(t, sawErr)
}

func TestDecoder_MultipleFramesBackToBack(t *testing.T) {
	t.Parallel()

	f1 := Frame{Type: TypeToken, Destination: 2, Source: 1}
	f2 := Frame{Type: TypePollForMaster, Destination: 3, Source: 2}

	w1, err := Encode(f1)
	require.NoError(t, err)
	w2, err := Encode(f2)
	require.NoError(t, err)

	stream := append(append([]byte{}, w1...), w2...)

	d := NewDecoder()
	var got []Frame
	for _, b := range stream {
		r := d.Push(b)
		if r.Complete {
			got = append(got, r.Frame)
		}
	}

	require.Len(t, got, 2)
	require.Equal(t, f1.Destination, got[0].Destination)
	require.Equal(t, f2.Destination, got[1].Destination)
}
