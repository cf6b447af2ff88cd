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
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mstp-go/mstp/internal/frame"
	"github.com/pion/logging"
)

// MasterState is one of the seven states of the master-node controller.
type MasterState int

// The seven master-node states. Initial state is Idle.
const (
	Idle MasterState = iota
	UseToken
	WaitForReply
	DoneWithToken
	PassToken
	NoToken
	PollForMasterState
	AnswerDataRequest
)

func (s MasterState) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case UseToken:
		return "USE_TOKEN"
	case WaitForReply:
		return "WAIT_FOR_REPLY"
	case DoneWithToken:
		return "DONE_WITH_TOKEN"
	case PassToken:
		return "PASS_TOKEN"
	case NoToken:
		return "NO_TOKEN"
	case PollForMasterState:
		return "POLL_FOR_MASTER"
	case AnswerDataRequest:
		return "ANSWER_DATA_REQUEST"
	default:
		return "UNKNOWN"
	}
}

// Node is a single MS/TP master station: token acquisition, maintenance
// polling, frame exchange, and reply handling, all driven by repeated
// calls to DoCycle (directly, or via Run).
//
// QueueFrame and SetReplyFrame may be called from any goroutine; DoCycle
// and Run must only ever be invoked from one goroutine at a time.
type Node struct {
	link  Link
	clock Clock
	log   logging.LeveledLogger

	thisStation   byte
	maxMaster     byte
	maxInfoFrames int
	usageTimeout  time.Duration

	receiver *receiver
	queue    *frameQueue

	onDataNoReply      func(Frame)
	onDataNeedingReply func(Frame)

	// mu guards state and replyFrame together, so SetReplyFrame and the
	// answerDataRequest transition to Idle can never race.
	mu            sync.Mutex
	state         MasterState
	replyFrame    *Frame
	replyDeadline time.Time

	nextStation byte
	pollStation byte
	retryCount  int
	soleMaster  bool
	tokenCount  int
	frameCount  int

	receivedToken bool
	terminated    bool
}

// NewNode constructs a master station bound to link, addressed as
// thisStation, with retryCount as the initial retry counter (ordinarily 0;
// callers resuming a previous run of the same physical node may seed a
// different value).
func NewNode(link Link, thisStation byte, retryCount int, opts ...Option) (*Node, error) {
	if thisStation > MaxMasterAddress {
		return nil, ErrInvalidStation
	}

	n := &Node{
		link:          link,
		clock:         realClock,
		thisStation:   thisStation,
		maxMaster:     DefaultMaxMaster,
		maxInfoFrames: DefaultMaxInfoFrames,
		usageTimeout:  DefaultUsageTimeout,
		queue:         &frameQueue{},
		nextStation:   thisStation,
		pollStation:   thisStation,
		retryCount:    retryCount,
		// Seeded at Npoll rather than zero, so a freshly joined node's
		// first doneWithToken already treats maintenance polling as due.
		tokenCount: pollInterval,
		state:      Idle,
		log:        logging.NewDefaultLoggerFactory().NewLogger("mstp"),
	}
	n.receiver = newReceiver(n.clock)

	for _, opt := range opts {
		if err := opt(n); err != nil {
			return nil, err
		}
	}

	return n, nil
}

// SetMaxMaster sets the highest address a master station on this segment
// may hold.
func (n *Node) SetMaxMaster(maxMaster byte) error {
	if maxMaster > MaxMasterAddress {
		return ErrInvalidMaxMaster
	}
	n.maxMaster = maxMaster
	return nil
}

// SetMaxInfoFrames sets how many data frames this node may send per token
// possession.
func (n *Node) SetMaxInfoFrames(maxInfoFrames int) error {
	if maxInfoFrames < 1 {
		return ErrInvalidMaxInfoFrames
	}
	n.maxInfoFrames = maxInfoFrames
	return nil
}

// SetUsageTimeout sets the silence threshold used while waiting for a token
// or Poll For Master to be picked up.
func (n *Node) SetUsageTimeout(timeout time.Duration) error {
	if timeout < MinUsageTimeout || timeout > MaxUsageTimeout {
		return ErrInvalidUsageTimeout
	}
	n.usageTimeout = timeout
	return nil
}

// HasReceivedToken reports whether this node has ever joined the token
// ring, either by receiving a token or by declaring itself sole master.
func (n *Node) HasReceivedToken() bool {
	return n.receivedToken
}

// State returns the node's current state. Intended for observability
// (logging, a monitoring TUI); the cycle loop does not need callers to read
// this.
func (n *Node) State() MasterState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// QueueFrame enqueues a frame to be sent once this node holds the token.
// Only bacnetDataExpectingReply, bacnetDataNotExpectingReply, and
// testRequest may be queued; any other type is a programmer error.
func (n *Node) QueueFrame(frameType FrameType, destination byte, data []byte) error {
	if frameType != BACnetDataExpectingReply && frameType != BACnetDataNotExpectingReply && frameType != TestRequest {
		return fmt.Errorf("%w: %s", ErrInvalidFrameType, frameType)
	}
	n.queue.push(Frame{Type: frameType, Destination: destination, Source: n.thisStation, Data: data})
	return nil
}

// SetReplyFrame supplies the reply to a pending data-expecting-reply frame.
// If this node is still in AnswerDataRequest, the reply is installed in the
// single reply slot and sent immediately on the next cycle. Otherwise the
// deadline has already passed (a replyPostponed was already sent), so the
// reply is instead queued for transmission under a future token possession.
func (n *Node) SetReplyFrame(frameType FrameType, destination byte, data []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == AnswerDataRequest {
		f := Frame{Type: frameType, Destination: destination, Source: n.thisStation, Data: data}
		n.replyFrame = &f
		return
	}

	// Deadline already passed; fall through to the ordinary queue. The
	// queue's own lock is taken while n.mu is held; the cycle loop never
	// takes them in the opposite order, since it pops without n.mu.
	n.queue.push(Frame{Type: frameType, Destination: destination, Source: n.thisStation, Data: data})
}

// Terminate stops Run before its next cycle. Any reply still sitting in the
// single-slot buffer is dropped.
func (n *Node) Terminate() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.terminated = true
}

func (n *Node) isTerminated() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.terminated
}

// Run drives the cycle loop until ctx is cancelled or Terminate is called.
func (n *Node) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if n.isTerminated() {
			return ErrNodeTerminated
		}
		n.DoCycle()
	}
}

// DoCycle drains any available octets, then evaluates the current state
// exactly once. A single call may walk through several states if each
// transition does not suspend.
func (n *Node) DoCycle() {
	if err := n.receiver.poll(n.link); err != nil {
		n.log.Warnf("mstp(%d): link read failed: %v", n.thisStation, err)
	}

	switch n.state {
	case Idle:
		n.idle()
	case UseToken:
		n.useToken()
	case WaitForReply:
		n.waitForReply()
	case DoneWithToken:
		n.doneWithToken()
	case PassToken:
		n.passToken()
	case NoToken:
		n.noToken()
	case PollForMasterState:
		n.pollForMaster()
	case AnswerDataRequest:
		n.answerDataRequest()
	}
}

func (n *Node) adjacent(x byte) byte {
	return adjacentStation(x, n.maxMaster)
}

// transmit encodes and sends f, logging but not failing the cycle on a
// write error: I/O errors belong to the worker loop, not the state machine.
func (n *Node) transmit(f Frame) {
	wire, err := encodeFrame(f)
	if err != nil {
		n.log.Errorf("mstp(%d): failed to encode frame: %v", n.thisStation, err)
		return
	}
	if err := n.link.Write(wire); err != nil {
		n.log.Warnf("mstp(%d): failed to write frame: %v", n.thisStation, err)
	}
}

// send is a convenience for transmitting a header-only frame addressed to
// destination, sourced from this station.
func (n *Node) send(frameType FrameType, destination byte) {
	n.transmit(Frame{Type: frameType, Destination: destination, Source: n.thisStation})
}

func (n *Node) idle() {
	r := n.receiver
	switch {
	case r.silence() >= NoTokenTimeout:
		n.log.Tracef("mstp(%d): idle:LostToken", n.thisStation)
		n.state = NoToken

	case r.receivedInvalidFrame != "":
		n.log.Tracef("mstp(%d): idle:ReceivedInvalidFrame: %s", n.thisStation, r.receivedInvalidFrame)
		r.receivedInvalidFrame = ""

	case r.receivedValidFrame:
		n.handleIdleFrame()
		r.receivedValidFrame = false
	}
}

func (n *Node) handleIdleFrame() {
	r := n.receiver
	f := r.frame

	switch {
	case !f.Type.Known():
		n.log.Tracef("mstp(%d): idle:UnknownFrameType", n.thisStation)

	case f.Broadcast() && f.oneOf(Token, BACnetDataExpectingReply, TestRequest):
		n.log.Tracef("mstp(%d): idle:ReceivedUnwantedFrame (broadcast %s)", n.thisStation, f.Type)

	case f.ForStation(n.thisStation) && f.Type == Token:
		n.log.Tracef("mstp(%d): idle:ReceivedToken", n.thisStation)
		n.receivedToken = true
		n.frameCount = 0
		n.soleMaster = false
		n.state = UseToken

	case f.ForStation(n.thisStation) && f.Type == PollForMaster:
		n.log.Tracef("mstp(%d): idle:ReceivedPFM", n.thisStation)
		n.send(ReplyToPollForMaster, f.Source)

	case f.ForStationOrBroadcast(n.thisStation) && f.oneOf(BACnetDataNotExpectingReply, TestResponse):
		n.log.Tracef("mstp(%d): idle:ReceivedDataNoReply", n.thisStation)
		if n.onDataNoReply != nil {
			n.onDataNoReply(f)
		}

	case f.ForStation(n.thisStation) && f.oneOf(BACnetDataExpectingReply, TestRequest):
		n.log.Tracef("mstp(%d): idle:ReceivedDataNeedingReply", n.thisStation)
		if n.onDataNeedingReply != nil {
			n.onDataNeedingReply(f)
		}
		n.mu.Lock()
		n.state = AnswerDataRequest
		n.replyDeadline = r.lastActivity.Add(ReplyDelay)
		n.mu.Unlock()

	default:
		n.log.Tracef("mstp(%d): idle:other frame", n.thisStation)
	}
}

func (n *Node) useToken() {
	frameToSend, ok := n.queue.pop()
	if !ok {
		n.log.Tracef("mstp(%d): useToken:NothingToSend", n.thisStation)
		n.frameCount = n.maxInfoFrames
		n.state = DoneWithToken
		return
	}

	switch {
	case frameToSend.oneOf(TestResponse, BACnetDataNotExpectingReply):
		n.log.Tracef("mstp(%d): useToken:SendNoWait", n.thisStation)
		n.state = DoneWithToken
	case frameToSend.oneOf(TestRequest, BACnetDataExpectingReply):
		n.log.Tracef("mstp(%d): useToken:SendAndWait", n.thisStation)
		n.state = WaitForReply
	default:
		n.log.Errorf("mstp(%d): useToken: unhandled frame type %s, dropping", n.thisStation, frameToSend.Type)
		return
	}

	n.transmit(frameToSend)
	n.frameCount++
}

func (n *Node) waitForReply() {
	r := n.receiver

	switch {
	case r.silence() > ReplyTimeout:
		n.log.Tracef("mstp(%d): waitForReply:ReplyTimeout", n.thisStation)
		n.frameCount = n.maxInfoFrames
		n.state = DoneWithToken

	case r.receivedInvalidFrame != "":
		n.log.Tracef("mstp(%d): waitForReply:InvalidFrame: %s", n.thisStation, r.receivedInvalidFrame)
		r.receivedInvalidFrame = ""
		n.state = DoneWithToken

	case r.receivedValidFrame:
		n.handleWaitForReplyFrame()
		r.receivedValidFrame = false
	}
}

func (n *Node) handleWaitForReplyFrame() {
	f := n.receiver.frame

	if f.ForStation(n.thisStation) {
		switch {
		case f.oneOf(TestResponse, BACnetDataNotExpectingReply):
			n.log.Tracef("mstp(%d): waitForReply:ReceivedReply", n.thisStation)
			if n.onDataNoReply != nil {
				n.onDataNoReply(f)
			}
		case f.Type == ReplyPostponed:
			n.log.Tracef("mstp(%d): waitForReply:ReceivedPostpone", n.thisStation)
		}
		n.state = DoneWithToken
		return
	}

	if !f.oneOf(TestResponse, BACnetDataNotExpectingReply) {
		// Not for us and not a reply: possible duplicate token on the bus.
		n.log.Tracef("mstp(%d): waitForReply:ReceivedUnexpectedFrame", n.thisStation)
		n.state = Idle
	}
}

// doneWithToken either sends another queued frame, passes the token, or
// starts a Poll For Master maintenance cycle. The seven branches below are
// evaluated in priority order; they are not mutually exclusive and must
// not be reordered.
func (n *Node) doneWithToken() {
	switch {
	case n.frameCount < n.maxInfoFrames:
		n.log.Tracef("mstp(%d): doneWithToken:SendAnotherFrame", n.thisStation)
		n.state = UseToken

	case !n.soleMaster && n.nextStation == n.thisStation:
		n.log.Tracef("mstp(%d): doneWithToken:NextStationUnknown", n.thisStation)
		n.pollStation = n.adjacent(n.thisStation)
		n.send(PollForMaster, n.pollStation)
		n.retryCount = 0
		n.state = PollForMasterState

	case n.tokenCount < pollInterval-1 && n.soleMaster:
		n.log.Tracef("mstp(%d): doneWithToken:SoleMaster", n.thisStation)
		n.frameCount = 0
		n.tokenCount++
		n.state = UseToken

	case (n.tokenCount < pollInterval-1 && !n.soleMaster) || n.nextStation == n.adjacent(n.thisStation):
		n.log.Tracef("mstp(%d): doneWithToken:SendToken to %d", n.thisStation, n.nextStation)
		n.tokenCount++
		n.send(Token, n.nextStation)
		n.retryCount = 0
		n.receiver.resetEventCount()
		n.state = PassToken

	case n.tokenCount >= pollInterval-1 && n.adjacent(n.pollStation) != n.nextStation:
		n.log.Tracef("mstp(%d): doneWithToken:SendMaintenancePFM", n.thisStation)
		n.pollStation = n.adjacent(n.pollStation)
		n.send(PollForMaster, n.pollStation)
		n.retryCount = 0
		n.state = PollForMasterState

	case n.tokenCount >= pollInterval-1 && n.adjacent(n.pollStation) == n.nextStation && !n.soleMaster:
		n.log.Tracef("mstp(%d): doneWithToken:ResetMaintenancePFM", n.thisStation)
		n.pollStation = n.thisStation
		n.send(Token, n.nextStation)
		n.retryCount = 0
		n.receiver.resetEventCount()
		n.tokenCount = 1
		n.state = PassToken

	case n.tokenCount >= pollInterval-1 && n.adjacent(n.pollStation) == n.nextStation && n.soleMaster:
		n.log.Tracef("mstp(%d): doneWithToken:SoleMasterRestartMaintenancePFM", n.thisStation)
		n.pollStation = n.adjacent(n.nextStation)
		n.send(PollForMaster, n.pollStation)
		n.nextStation = n.thisStation
		n.retryCount = 0
		n.receiver.resetEventCount()
		n.tokenCount = 1
		n.state = PollForMasterState
	}
}

func (n *Node) passToken() {
	r := n.receiver

	switch {
	case r.silence() < n.usageTimeout && r.eventCount > MinOctets:
		n.log.Tracef("mstp(%d): passToken:SawTokenUser", n.thisStation)
		n.state = Idle

	case r.silence() >= n.usageTimeout && n.retryCount < RetryTokenCount:
		n.log.Tracef("mstp(%d): passToken:RetrySendToken", n.thisStation)
		n.retryCount++
		n.send(Token, n.nextStation)
		r.resetEventCount()

	case r.silence() >= n.usageTimeout && n.retryCount >= RetryTokenCount:
		n.log.Tracef("mstp(%d): passToken:FindNewSuccessor", n.thisStation)
		n.pollStation = n.adjacent(n.nextStation)
		n.send(PollForMaster, n.pollStation)
		n.nextStation = n.thisStation
		n.retryCount = 0
		n.tokenCount = 0
		r.resetEventCount()
		n.state = PollForMasterState
	}
}

func (n *Node) noToken() {
	r := n.receiver
	silence := r.silence()
	delay := NoTokenTimeout + Slot*time.Duration(n.thisStation)

	switch {
	case silence < delay && r.eventCount > MinOctets:
		n.log.Tracef("mstp(%d): noToken:SawFrame", n.thisStation)
		n.state = Idle

	case (silence >= delay && silence < delay+Slot) || silence > NoTokenTimeout+Slot*time.Duration(n.maxMaster+1):
		n.log.Tracef("mstp(%d): noToken:GenerateToken", n.thisStation)
		n.pollStation = n.adjacent(n.thisStation)
		n.send(PollForMaster, n.pollStation)
		n.nextStation = n.thisStation
		n.tokenCount = 0
		n.retryCount = 0
		r.resetEventCount()
		n.state = PollForMasterState
	}
}

func (n *Node) pollForMaster() {
	r := n.receiver

	if r.receivedValidFrame {
		n.handlePollForMasterFrame()
		r.receivedValidFrame = false
		return
	}

	longCondition := r.silence() >= n.usageTimeout || r.receivedInvalidFrame != ""

	switch {
	case n.soleMaster && longCondition:
		n.log.Tracef("mstp(%d): pollForMaster:SoleMaster", n.thisStation)
		n.frameCount = 0
		r.receivedInvalidFrame = ""
		n.state = UseToken

	case !n.soleMaster && n.nextStation != n.thisStation && longCondition:
		n.log.Tracef("mstp(%d): pollForMaster:DoneWithPFM", n.thisStation)
		r.resetEventCount()
		n.send(Token, n.nextStation)
		n.retryCount = 0
		r.receivedInvalidFrame = ""
		n.state = PassToken

	case !n.soleMaster && n.nextStation == n.thisStation && n.adjacent(n.pollStation) != n.thisStation && longCondition:
		n.log.Tracef("mstp(%d): pollForMaster:SendNextPFM", n.thisStation)
		n.pollStation = n.adjacent(n.pollStation)
		n.send(PollForMaster, n.pollStation)
		n.retryCount = 0
		r.receivedInvalidFrame = ""

	case !n.soleMaster && n.nextStation == n.thisStation && n.adjacent(n.pollStation) == n.thisStation && longCondition:
		n.log.Tracef("mstp(%d): pollForMaster:DeclareSoleMaster", n.thisStation)
		// A lone master that gives up looking for peers has still, in the
		// sense the upper layer cares about, joined the ring.
		n.receivedToken = true
		n.soleMaster = true
		n.frameCount = 0
		r.receivedInvalidFrame = ""
		n.state = UseToken
	}
}

func (n *Node) handlePollForMasterFrame() {
	r := n.receiver
	f := r.frame

	if f.ForStation(n.thisStation) && f.Type == ReplyToPollForMaster {
		n.log.Tracef("mstp(%d): pollForMaster:ReceivedReplyToPFM from %d", n.thisStation, f.Source)
		n.soleMaster = false
		n.nextStation = f.Source
		r.resetEventCount()
		n.send(Token, n.nextStation)
		n.pollStation = n.thisStation
		n.tokenCount = 0
		n.retryCount = 0
		n.state = PassToken
		return
	}

	n.log.Tracef("mstp(%d): pollForMaster:ReceivedUnexpectedFrame", n.thisStation)
	n.state = Idle
}

// answerDataRequest is entered when a frame expecting a reply was received
// while idle. It must eventually either transmit the reply the upper layer
// supplies via SetReplyFrame, or give up and send replyPostponed once the
// deadline passes.
func (n *Node) answerDataRequest() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.replyFrame != nil {
		n.log.Tracef("mstp(%d): answerDataRequest:Reply", n.thisStation)
		reply := *n.replyFrame
		n.replyFrame = nil
		n.mu.Unlock()
		n.transmit(reply)
		n.mu.Lock()
		n.state = Idle
		return
	}

	now := n.clock.Now()
	if now.After(n.replyDeadline) {
		n.log.Tracef("mstp(%d): answerDataRequest:DeferredReply", n.thisStation)
		source := n.receiver.frame.Source
		n.mu.Unlock()
		n.send(ReplyPostponed, source)
		n.mu.Lock()
		n.state = Idle
		return
	}

	// Guard against a wall-clock regression leaving replyDeadline
	// indefinitely in the future.
	if timeDiff := n.replyDeadline.Sub(now); timeDiff > ReplyDelay {
		n.log.Warnf("mstp(%d): correcting replyDeadline, timeDiff=%s", n.thisStation, timeDiff)
		n.replyDeadline = now.Add(ReplyDelay)
	}
}

func encodeFrame(f Frame) ([]byte, error) {
	return frame.Encode(toInternalFrame(f))
}
