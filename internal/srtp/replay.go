// Copyright 2019 Lanikai Labs. All rights reserved.
//
// 64-slot sliding replay window, per RFC 3711 appendix A. The teacher's
// internal/srtp/srtp.go only tracked the rollover counter
// (updateRolloverCount); this file adds the replay bitmap the spec
// requires on top of that same ROC-tracking shape, and generalizes it to
// cover both the 48-bit SRTP index and the 31-bit SRTCP index.

package srtp

const replayWindowSize = 64

// replayWindow rejects indices that have already been accepted, or that
// fall far enough behind the highest accepted index to be considered
// stale. It does not itself decide whether an index is within the
// "rollover disorder" tolerance used to guess the ROC -- that's
// rocTracker's job.
type replayWindow struct {
	// highest is the largest index ever accepted.
	highest uint64
	// bitmap is a window of replayWindowSize bits; bit 0 corresponds to
	// `highest`, bit k to `highest - k`.
	bitmap  uint64
	started bool
}

// check reports whether index would be accepted (not a replay), without
// mutating state. Callers must call accept after successfully
// authenticating the packet.
func (w *replayWindow) check(index uint64) error {
	if !w.started {
		return nil
	}
	if index > w.highest {
		return nil
	}
	delta := w.highest - index
	if delta >= replayWindowSize {
		return ErrReplay
	}
	if w.bitmap&(1<<delta) != 0 {
		return ErrReplay
	}
	return nil
}

// accept records index as received, advancing the window if it's the new
// highest.
func (w *replayWindow) accept(index uint64) {
	if !w.started {
		w.highest = index
		w.bitmap = 1
		w.started = true
		return
	}

	if index > w.highest {
		shift := index - w.highest
		if shift >= replayWindowSize {
			w.bitmap = 1
		} else {
			w.bitmap = (w.bitmap << shift) | 1
		}
		w.highest = index
		return
	}

	delta := w.highest - index
	if delta < replayWindowSize {
		w.bitmap |= 1 << delta
	}
}

// rocTracker maintains the 32-bit rollover counter for one SSRC's RTP
// stream, guessing when the 16-bit sequence number has wrapped. This is a
// direct port of the teacher's updateRolloverCount, which already
// implements the RFC 3550 appendix A.1 heuristic.
type rocTracker struct {
	roc                uint32
	lastSequenceNumber uint16
	initialized        bool
}

const maxROCDisorder = 100
const maxSequenceNumber = 65535

func (t *rocTracker) update(seq uint16) {
	if !t.initialized {
		t.initialized = true
	} else if seq == 0 {
		if t.lastSequenceNumber > maxROCDisorder {
			t.roc++
		}
	} else if t.lastSequenceNumber < maxROCDisorder && seq > (maxSequenceNumber-maxROCDisorder) {
		t.roc--
	} else if seq < maxROCDisorder && t.lastSequenceNumber > (maxSequenceNumber-maxROCDisorder) {
		t.roc++
	}
	t.lastSequenceNumber = seq
}

// guessROC implements the RFC 3711 appendix A "guess index" algorithm:
// given a candidate sequence number and the locally tracked ROC, pick
// whichever of {roc-1, roc, roc+1} places the resulting 48-bit index
// nearest the highest index seen so far.
func guessROC(localROC uint32, highestIndex uint64, seq uint16) (roc uint32, index uint64) {
	candidate := func(r uint32) uint64 {
		return uint64(r)<<16 | uint64(seq)
	}

	best := localROC
	bestIndex := candidate(localROC)
	bestDist := distance(bestIndex, highestIndex)

	for _, r := range []uint32{localROC - 1, localROC + 1} {
		idx := candidate(r)
		if d := distance(idx, highestIndex); d < bestDist {
			best, bestIndex, bestDist = r, idx, d
		}
	}

	return best, bestIndex
}

func distance(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
