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
	"time"

	"github.com/mstp-go/mstp/internal/frame"
	mstptest "github.com/mstp-go/mstp/internal/testing"
	"github.com/stretchr/testify/require"
)

func newTestNode(t *testing.T, thisStation byte, opts ...Option) (*Node, *mstptest.MockLink, *mstptest.FakeClock) {
	t.Helper()
	link := mstptest.NewMockLink()
	clock := mstptest.NewFakeClock()
	allOpts := append([]Option{WithClock(clock)}, opts...)
	n, err := NewNode(link, thisStation, 0, allOpts...)
	require.NoError(t, err)
	return n, link, clock
}

func TestNewNode_RejectsStationOutOfRange(t *testing.T) {
	t.Parallel()
	_, err := NewNode(mstptest.NewMockLink(), MaxMasterAddress+1, 0)
	require.ErrorIs(t, err, ErrInvalidStation)
}

func TestNewNode_SeedsTokenCountAtPollInterval(t *testing.T) {
	t.Parallel()
	n, _, _ := newTestNode(t, 5)
	require.Equal(t, pollInterval, n.tokenCount)
}

func TestIdle_ReceivesToken(t *testing.T) {
	t.Parallel()
	n, link, _ := newTestNode(t, 5)
	link.Inject(mstptest.EncodeFrame(frame.TypeToken, 5, 6, nil))

	n.DoCycle()

	require.Equal(t, UseToken, n.state)
	require.True(t, n.receivedToken)
	require.False(t, n.soleMaster)
}

func TestIdle_AnswersPollForMaster(t *testing.T) {
	t.Parallel()
	n, link, _ := newTestNode(t, 5)
	link.Inject(mstptest.EncodeFrame(frame.TypePollForMaster, 5, 9, nil))

	n.DoCycle()

	require.Equal(t, Idle, n.state)
	last := link.LastWritten()
	require.NotNil(t, last)
	decoded := decodeOne(t, last)
	require.Equal(t, frame.TypeReplyToPollForMaster, decoded.Type)
	require.Equal(t, byte(9), decoded.Destination)
}

func TestIdle_DataNeedingReplyEntersAnswerDataRequest(t *testing.T) {
	t.Parallel()
	var gotFrame Frame
	n, link, _ := newTestNode(t, 5, WithDataNeedingReplyHandler(func(f Frame) { gotFrame = f }))
	link.Inject(mstptest.EncodeFrame(frame.TypeBACnetDataExpectingReply, 5, 9, []byte{1, 2, 3}))

	n.DoCycle()

	require.Equal(t, AnswerDataRequest, n.state)
	require.Equal(t, byte(9), gotFrame.Source)
	require.Equal(t, []byte{1, 2, 3}, gotFrame.Data)
}

func TestIdle_LosesTokenAfterSilence(t *testing.T) {
	t.Parallel()
	n, _, clock := newTestNode(t, 5)
	clock.Advance(NoTokenTimeout + time.Millisecond)

	n.DoCycle()

	require.Equal(t, NoToken, n.state)
}

func TestUseToken_NoFramesGoesDoneWithToken(t *testing.T) {
	t.Parallel()
	n, _, _ := newTestNode(t, 5)
	n.state = UseToken

	n.DoCycle()

	require.Equal(t, DoneWithToken, n.state)
	require.Equal(t, n.maxInfoFrames, n.frameCount)
}

func TestUseToken_SendsQueuedDataExpectingReply(t *testing.T) {
	t.Parallel()
	n, link, _ := newTestNode(t, 5)
	n.state = UseToken
	require.NoError(t, n.QueueFrame(BACnetDataExpectingReply, 6, []byte{0xAB}))

	n.DoCycle()

	require.Equal(t, WaitForReply, n.state)
	decoded := decodeOne(t, link.LastWritten())
	require.Equal(t, frame.TypeBACnetDataExpectingReply, decoded.Type)
	require.Equal(t, []byte{0xAB}, decoded.Data)
}

func TestUseToken_SendsQueuedDataNotExpectingReply(t *testing.T) {
	t.Parallel()
	n, _, _ := newTestNode(t, 5)
	n.state = UseToken
	require.NoError(t, n.QueueFrame(BACnetDataNotExpectingReply, 6, nil))

	n.DoCycle()

	require.Equal(t, DoneWithToken, n.state)
}

func TestDoneWithToken_SendsTokenToKnownSuccessor(t *testing.T) {
	t.Parallel()
	n, link, _ := newTestNode(t, 5)
	n.state = DoneWithToken
	n.nextStation = 6
	n.frameCount = n.maxInfoFrames
	n.tokenCount = 0

	n.DoCycle()

	require.Equal(t, PassToken, n.state)
	decoded := decodeOne(t, link.LastWritten())
	require.Equal(t, frame.TypeToken, decoded.Type)
	require.Equal(t, byte(6), decoded.Destination)
}

func TestDoneWithToken_UnknownSuccessorStartsPoll(t *testing.T) {
	t.Parallel()
	n, link, _ := newTestNode(t, 5)
	n.state = DoneWithToken
	n.nextStation = n.thisStation
	n.frameCount = n.maxInfoFrames
	n.soleMaster = false

	n.DoCycle()

	require.Equal(t, PollForMasterState, n.state)
	decoded := decodeOne(t, link.LastWritten())
	require.Equal(t, frame.TypePollForMaster, decoded.Type)
	require.Equal(t, n.adjacent(5), decoded.Destination)
}

func TestDoneWithToken_SoleMasterReusesToken(t *testing.T) {
	t.Parallel()
	n, _, _ := newTestNode(t, 5)
	n.state = DoneWithToken
	n.frameCount = n.maxInfoFrames
	n.soleMaster = true
	n.tokenCount = 0

	n.DoCycle()

	require.Equal(t, UseToken, n.state)
	require.Equal(t, 0, n.frameCount)
}

func TestPassToken_SeesSuccessorActivity(t *testing.T) {
	t.Parallel()
	n, _, clock := newTestNode(t, 5)
	n.state = PassToken
	n.receiver.eventCount = MinOctets + 1
	n.receiver.lastActivity = clock.Now()

	n.DoCycle()

	require.Equal(t, Idle, n.state)
}

func TestPassToken_RetriesThenGivesUp(t *testing.T) {
	t.Parallel()
	n, link, clock := newTestNode(t, 5)
	n.state = PassToken
	n.nextStation = 6
	n.retryCount = 0

	clock.Advance(n.usageTimeout + time.Millisecond)
	n.DoCycle()
	require.Equal(t, PassToken, n.state)
	require.Equal(t, 1, n.retryCount)
	retryFrame := decodeOne(t, link.LastWritten())
	require.Equal(t, frame.TypeToken, retryFrame.Type)

	clock.Advance(n.usageTimeout + time.Millisecond)
	n.DoCycle()
	require.Equal(t, PollForMasterState, n.state)
	require.Equal(t, n.thisStation, n.nextStation)
}

func TestNoToken_GeneratesTokenAfterStaggeredDelay(t *testing.T) {
	t.Parallel()
	n, link, clock := newTestNode(t, 0)
	n.state = NoToken

	clock.Advance(NoTokenTimeout + Slot/2)
	n.DoCycle()

	require.Equal(t, PollForMasterState, n.state)
	decoded := decodeOne(t, link.LastWritten())
	require.Equal(t, frame.TypePollForMaster, decoded.Type)
}

func TestPollForMaster_ReplyAdoptsSuccessor(t *testing.T) {
	t.Parallel()
	n, link, _ := newTestNode(t, 5)
	n.state = PollForMasterState
	n.pollStation = 6
	link.Inject(mstptest.EncodeFrame(frame.TypeReplyToPollForMaster, 5, 6, nil))

	n.DoCycle()

	require.Equal(t, PassToken, n.state)
	require.Equal(t, byte(6), n.nextStation)
	require.False(t, n.soleMaster)
	decoded := decodeOne(t, link.LastWritten())
	require.Equal(t, frame.TypeToken, decoded.Type)
	require.Equal(t, byte(6), decoded.Destination)
}

func TestPollForMaster_DeclaresSoleMasterAfterFullSweep(t *testing.T) {
	t.Parallel()
	n, _, clock := newTestNode(t, 5)
	n.state = PollForMasterState
	n.nextStation = n.thisStation
	// pollStation must be the station whose adjacent() wraps back to
	// thisStation, i.e. the ring has been fully walked with no replies.
	n.pollStation = 4

	clock.Advance(n.usageTimeout + time.Millisecond)
	n.DoCycle()

	require.Equal(t, UseToken, n.state)
	require.True(t, n.soleMaster)
	require.True(t, n.receivedToken)
}

func TestAnswerDataRequest_SendsSuppliedReply(t *testing.T) {
	t.Parallel()
	n, link, _ := newTestNode(t, 5)
	n.state = AnswerDataRequest
	n.replyDeadline = n.clock.Now().Add(ReplyDelay)
	n.receiver.frame = Frame{Source: 9}

	n.SetReplyFrame(BACnetDataNotExpectingReply, 9, []byte{0x42})
	n.DoCycle()

	require.Equal(t, Idle, n.state)
	decoded := decodeOne(t, link.LastWritten())
	require.Equal(t, frame.TypeBACnetDataNotExpectingReply, decoded.Type)
	require.Equal(t, []byte{0x42}, decoded.Data)
}

func TestAnswerDataRequest_DeadlinePassedSendsPostponed(t *testing.T) {
	t.Parallel()
	n, link, clock := newTestNode(t, 5)
	n.state = AnswerDataRequest
	n.receiver.frame = Frame{Source: 9}
	n.replyDeadline = clock.Now().Add(ReplyDelay)

	clock.Advance(ReplyDelay + time.Millisecond)
	n.DoCycle()

	require.Equal(t, Idle, n.state)
	decoded := decodeOne(t, link.LastWritten())
	require.Equal(t, frame.TypeReplyPostponed, decoded.Type)
	require.Equal(t, byte(9), decoded.Destination)
}

func TestSetReplyFrame_AfterDeadlineQueuesInstead(t *testing.T) {
	t.Parallel()
	n, _, _ := newTestNode(t, 5)
	n.state = Idle

	n.SetReplyFrame(BACnetDataNotExpectingReply, 9, nil)

	require.Equal(t, 1, n.queue.len())
}

func TestQueueFrame_RejectsNonDataFrameTypes(t *testing.T) {
	t.Parallel()
	n, _, _ := newTestNode(t, 5)
	err := n.QueueFrame(Token, 6, nil)
	require.ErrorIs(t, err, ErrInvalidFrameType)
}

func decodeOne(t *testing.T, wire []byte) frame.Frame {
	t.Helper()
	d := frame.NewDecoder()
	var last frame.Result
	for _, b := range wire {
		res := d.Push(b)
		if res.Complete || res.Err != nil {
			last = res
		}
	}
	require.NoError(t, last.Err)
	require.True(t, last.Complete)
	return last.Frame
}
