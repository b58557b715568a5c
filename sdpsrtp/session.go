// Copyright 2019 Lanikai Labs. All rights reserved.
//
// Session is the parallel, non-DTLS SRTP path (spec.md section 2, item
// 9): a host application that already has SRTP key material from some
// other source -- an SDP a=crypto line (RFC 4568), a provisioning API,
// a test harness -- builds a Session directly instead of running a
// DTLS-SRTP handshake. Adapted from the now-removed
// internal/srtp/srtp.go#NewSession/Conn and srtcp_reader.go, which built
// an srtp.Context straight from caller-supplied key/salt with no
// handshake involved; generalized here to wrap the shared
// internal/srtp Transformer symmetrically for both directions instead
// of the teacher's one-off encrypt/DecipherRTCP call sites.
//
// SDP parsing itself is out of scope (spec.md section 1): Session only
// ever accepts already-decoded key material, never an a=crypto line.
package sdpsrtp

import (
	"github.com/lanikai/dtlssrtp/internal/srtp"
)

// Session holds one pair of SRTP/SRTCP protection contexts: one for
// packets this host sends, one for packets it receives. Unlike the
// DTLS-SRTP Peer, both directions' key material is supplied up front by
// the caller rather than derived from a handshake.
type Session struct {
	send *srtp.Context
	recv *srtp.Context
}

// NewSession builds a Session from externally-supplied master keys and
// salts for each direction, under the named protection profile
// (typically decoded from an SDP a=crypto line's suite name upstream of
// this package).
func NewSession(profileCodePoint uint16, sendKey, sendSalt, recvKey, recvSalt []byte) (*Session, error) {
	profile, err := srtp.ForProfile(profileCodePoint)
	if err != nil {
		return nil, err
	}

	sendCtx, err := srtp.NewContext(sendKey, sendSalt, profile)
	if err != nil {
		return nil, err
	}
	recvCtx, err := srtp.NewContext(recvKey, recvSalt, profile)
	if err != nil {
		return nil, err
	}

	return &Session{send: sendCtx, recv: recvCtx}, nil
}

// NewSymmetricSession builds a Session where both directions share the
// same master key and salt -- the common case for point-to-point calls
// where the same a=crypto line key is used for both legs.
func NewSymmetricSession(profileCodePoint uint16, key, salt []byte) (*Session, error) {
	return NewSession(profileCodePoint, key, salt, key, salt)
}

// ProtectRTP encrypts and authenticates an outbound RTP packet.
func (s *Session) ProtectRTP(pkt []byte) ([]byte, error) {
	return s.send.ProtectRTP(pkt)
}

// UnprotectRTP authenticates, replay-checks, and decrypts an inbound
// RTP packet.
func (s *Session) UnprotectRTP(pkt []byte) ([]byte, error) {
	return s.recv.UnprotectRTP(pkt)
}

// ProtectRTCP encrypts and authenticates an outbound RTCP compound
// packet.
func (s *Session) ProtectRTCP(pkt []byte) ([]byte, error) {
	return s.send.ProtectRTCP(pkt)
}

// UnprotectRTCP authenticates and decrypts an inbound RTCP compound
// packet.
func (s *Session) UnprotectRTCP(pkt []byte) ([]byte, error) {
	return s.recv.UnprotectRTCP(pkt)
}
