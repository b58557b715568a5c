// Copyright 2019 Lanikai Labs. All rights reserved.
//
// The SRTP/SRTCP Transformer (spec section 4.4). Generalizes the teacher's
// internal/srtp/srtp.go#encrypt (AES-CM XOR + ROC tracking, no
// authentication) into full protect/unprotect pairs with HMAC-SHA1 tag
// computation/verification and a replay window.

package srtp

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/binary"
	"sync"

	"github.com/lanikai/dtlssrtp/internal/aesctr"
)

// ssrcState is the per-sender-SSRC bookkeeping a Context needs for RTP:
// the ROC tracker for outgoing/guessed indices, and the RTP replay
// window for inbound verification. SRTCP keeps its own replay window in
// Context.srtcpRecv instead of sharing this one -- RTP and SRTCP indices
// advance independently, so a single shared window falsely flags one
// stream as replayed once the other has advanced past it.
type ssrcState struct {
	roc    rocTracker
	replay replayWindow
}

// Context implements the Transformer for one cryptographic direction (one
// master key + salt pair) across both RTP and RTCP. A peer holds two of
// these: one for sending and one for receiving, each covering RTP and RTCP.
type Context struct {
	profile Profile

	rtp  sessionKeys
	rtcp sessionKeys

	mu        sync.Mutex
	ssrcs     map[uint32]*ssrcState
	srtcpSend map[uint32]*srtcpSendState
	srtcpRecv map[uint32]*replayWindow

	// scratch and scratchCap are not used by the protect/unprotect paths,
	// which XOR the keystream over the payload in place.
	scratch []byte
}

const scratchCap = 10 * 1024

// NewContext derives the session keys for a direction from its master
// key and salt and the negotiated profile, and returns a ready-to-use
// Transformer context.
func NewContext(masterKey, masterSalt []byte, profile Profile) (*Context, error) {
	if len(masterKey) != profile.EncKeyLen && profile.Enc != EncryptionNull {
		return nil, errMalformedPacket
	}
	if len(masterSalt) != profile.SaltLen {
		return nil, errMalformedPacket
	}

	rtpKeys, err := deriveRTPKeys(masterKey, masterSalt, 0, 0)
	if err != nil {
		return nil, err
	}
	rtcpKeys, err := deriveRTCPKeys(masterKey, masterSalt, 0, 0)
	if err != nil {
		return nil, err
	}

	return &Context{
		profile:   profile,
		rtp:       rtpKeys,
		rtcp:      rtcpKeys,
		ssrcs:     make(map[uint32]*ssrcState),
		srtcpSend: make(map[uint32]*srtcpSendState),
		srtcpRecv: make(map[uint32]*replayWindow),
	}, nil
}

func (c *Context) stateFor(ssrc uint32) *ssrcState {
	s, ok := c.ssrcs[ssrc]
	if !ok {
		s = &ssrcState{}
		c.ssrcs[ssrc] = s
	}
	return s
}

// recvReplayFor returns the SRTCP receive-side replay window for ssrc.
// RTP indices (ROC<<16|SEQ) and SRTCP indices occupy the same numeric
// range but advance completely independently of each other, so SRTCP
// keeps its own window here rather than sharing ssrcState.replay (spec
// section 3: the replay window is per-direction-per-RTP/RTCP).
func (c *Context) recvReplayFor(ssrc uint32) *replayWindow {
	w, ok := c.srtcpRecv[ssrc]
	if !ok {
		w = &replayWindow{}
		c.srtcpRecv[ssrc] = w
	}
	return w
}

// rtpIV builds the 14-byte AES-CM IV prefix for RTP per RFC 3711 section
// 4.1.1: (salt * 2^16) XOR (SSRC * 2^64) XOR (index * 2^16).
func rtpIV(salt []byte, ssrc uint32, index uint64) []byte {
	iv := make([]byte, aesctr.IVPrefixLen)
	copy(iv, salt)

	// SSRC occupies bytes 4:8 of the prefix: in the 16-byte IV, SSRC*2^64
	// places the 4-byte SSRC just above the low-order 8 bytes (16-8-4=4).
	var ssrcBytes [4]byte
	binary.BigEndian.PutUint32(ssrcBytes[:], ssrc)
	for i := 0; i < 4; i++ {
		iv[4+i] ^= ssrcBytes[i]
	}

	// index (48-bit) * 2^16 places index's 6 bytes at the end of the
	// 14-byte prefix, just before the 2-byte block counter.
	var idxBytes [8]byte
	binary.BigEndian.PutUint64(idxBytes[:], index)
	for i := 0; i < 6; i++ {
		iv[8+i] ^= idxBytes[2+i]
	}

	return iv
}

// cryptPayload XORs payload in place with the AES-CM keystream for the
// given direction/SSRC/index. NULL-encryption profiles are a no-op.
func (c *Context) cryptPayload(keys sessionKeys, ssrc uint32, index uint64, payload []byte) error {
	if c.profile.Enc == EncryptionNull {
		return nil
	}
	iv := rtpIV(keys.salt, ssrc, index)
	return aesctr.XORKeyStream(keys.encKey, iv, payload, payload)
}

func hmacTag(authKey []byte, tagLen int, parts ...[]byte) []byte {
	mac := hmac.New(sha1.New, authKey)
	for _, p := range parts {
		mac.Write(p)
	}
	return mac.Sum(nil)[:tagLen]
}

// ProtectRTP encrypts and authenticates an RTP packet (spec section 4.4,
// "Protect RTP"). pkt is a full, unencrypted RTP packet; the returned slice
// is pkt's ciphertext with the authentication tag appended.
func (c *Context) ProtectRTP(pkt []byte) ([]byte, error) {
	var m rtpMsg
	if err := m.unmarshal(pkt); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.stateFor(m.ssrc)
	state.roc.update(m.sequenceNumber)
	index := uint64(state.roc.roc)<<16 | uint64(m.sequenceNumber)

	if err := c.cryptPayload(c.rtp, m.ssrc, index, m.payload); err != nil {
		return nil, err
	}

	out := m.marshal()

	var rocBytes [4]byte
	binary.BigEndian.PutUint32(rocBytes[:], state.roc.roc)

	tag := hmacTag(c.rtp.authKey, c.profile.RTPTagLen, out, rocBytes[:])

	return append(out, tag...), nil
}

// UnprotectRTP authenticates, replay-checks, and decrypts an RTP packet
// (spec section 4.4, "Unprotect RTP"). On success it returns the decrypted
// packet (header + plaintext payload, tag stripped). On a soft failure it
// returns ErrAuthFail or ErrReplay and the packet must be dropped, not
// treated as a transport error.
func (c *Context) UnprotectRTP(pkt []byte) ([]byte, error) {
	tagLen := c.profile.RTPTagLen
	if len(pkt) < rtpFixedHeaderLen+tagLen {
		return nil, errPacketTooShort
	}

	body := pkt[:len(pkt)-tagLen]
	tag := pkt[len(pkt)-tagLen:]

	var m rtpMsg
	if err := m.unmarshal(body); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.stateFor(m.ssrc)
	roc, index := guessROC(state.roc.roc, state.replay.highest, m.sequenceNumber)

	if err := state.replay.check(index); err != nil {
		return nil, err
	}

	var rocBytes [4]byte
	binary.BigEndian.PutUint32(rocBytes[:], roc)
	expected := hmacTag(c.rtp.authKey, tagLen, body, rocBytes[:])
	if subtle.ConstantTimeCompare(expected, tag) != 1 {
		return nil, ErrAuthFail
	}

	if err := c.cryptPayload(c.rtp, m.ssrc, index, m.payload); err != nil {
		return nil, err
	}

	state.roc.roc = roc
	state.roc.lastSequenceNumber = m.sequenceNumber
	state.roc.initialized = true
	state.replay.accept(index)

	return m.marshal(), nil
}
