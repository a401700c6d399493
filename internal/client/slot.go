package client

import "sync"

// slotState mirrors spec.md §3's correlation-slot lifecycle:
// EMPTY -> IN_PROGRESS -> (DONE|EMPTY).
type slotState int32

const (
	slotEmpty slotState = iota
	slotInProgress
	slotDone
)

// slot is one entry of the connection's fixed-size correlation ring. The
// caller that owns the id moves it EMPTY -> IN_PROGRESS before the request
// leaves the socket (spec.md §9's race fix), back to EMPTY after a failed
// send (abandon) or after consuming a reply (await); the connection's
// receive loop moves it IN_PROGRESS -> DONE on a matching reply; and
// expire, run by the call's timeout timer or on context cancellation,
// moves it IN_PROGRESS -> EMPTY.
type slot struct {
	mu   sync.Mutex
	cond *sync.Cond

	state slotState

	// meta and data are buffers borrowed from the caller for the
	// duration of IN_PROGRESS; the receive loop writes directly into
	// them and the slot drops its reference the moment state leaves
	// IN_PROGRESS (spec.md §9, "Shared buffer pointers").
	meta []byte
	data []byte

	status  int32
	metaLen int
	dataLen int
}

func newSlot() *slot {
	s := &slot{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// begin transitions EMPTY -> IN_PROGRESS and records the caller's result
// buffers. Must be called before the request is sent.
func (s *slot) begin(meta, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = slotInProgress
	s.meta = meta
	s.data = data
	s.status = 0
	s.metaLen = 0
	s.dataLen = 0
}

// abandon transitions IN_PROGRESS -> EMPTY after a failed send, releasing
// the borrowed buffers without waiting for any reply.
func (s *slot) abandon() {
	s.mu.Lock()
	s.state = slotEmpty
	s.meta = nil
	s.data = nil
	s.mu.Unlock()
}

// acquireForReply checks ownership and captures the borrowed buffers in
// one atomic step. Splitting this into two locked calls (an ownership
// check, then a separate buffer read) leaves a window for expire() to
// nil out meta/data between them, which would make the receive loop read
// a reply body into a zero-length buffer and mistake a late reply for a
// framing violation. ok is false if the slot is no longer IN_PROGRESS
// (timed out or reused); the caller must still drain the reply body.
func (s *slot) acquireForReply() (meta, data []byte, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != slotInProgress {
		return nil, nil, false
	}
	return s.meta, s.data, true
}

// complete records a reply and wakes the waiter. Returns false, recording
// nothing, if the slot left IN_PROGRESS after acquireForReply (the call
// timed out while its reply body was being read into the buffers).
func (s *slot) complete(status int32, metaLen, dataLen int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != slotInProgress {
		return false
	}
	s.status = status
	s.metaLen = metaLen
	s.dataLen = dataLen
	s.state = slotDone
	s.cond.Broadcast()
	return true
}

// expire forces IN_PROGRESS -> EMPTY if the slot is still waiting when a
// call's timeout fires, then wakes the waiter so it observes EMPTY and
// returns -ETIMEDOUT.
func (s *slot) expire() {
	s.mu.Lock()
	if s.state == slotInProgress {
		s.state = slotEmpty
		s.meta = nil
		s.data = nil
	}
	s.mu.Unlock()
	s.cond.Broadcast()
}

// await blocks until the slot leaves IN_PROGRESS, then resets it to EMPTY
// and returns the reply. done reports whether a reply actually arrived;
// when false the call timed out.
func (s *slot) await() (status int32, metaLen, dataLen int, done bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.state == slotInProgress {
		s.cond.Wait()
	}
	if s.state == slotEmpty {
		return 0, 0, 0, false
	}
	status, metaLen, dataLen = s.status, s.metaLen, s.dataLen
	s.state = slotEmpty
	return status, metaLen, dataLen, true
}
