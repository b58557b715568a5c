// Copyright 2019 Lanikai Labs. All rights reserved.

package srtp

import "errors"

// Per-packet soft failures. These are returned to the caller as a typed
// status and never escalated into a transport-level error or session
// teardown (spec section 4.4).
var (
	ErrAuthFail = errors.New("srtp: authentication tag mismatch")
	ErrReplay   = errors.New("srtp: replayed or out-of-window packet")
)

var (
	errMalformedPacket    = errors.New("malformed packet")
	errUnsupportedVersion = errors.New("unsupported version")
	errPacketTooShort     = errors.New("srtp: packet shorter than authentication tag")
)
