// Copyright 2019 Lanikai Labs. All rights reserved.
//
// Typed error sum for the handshake engine (spec section 7/9), replacing
// the teacher's three bare sentinel errors in the root errors.go
// (errNotFound/errNotImplemented/errNotSupported) with a structured kind
// so callers can switch on Kind instead of comparing error values.
// classifyHandshakeError maps whatever pion/dtls.Client/Server/Read
// returns into this taxonomy, since pion/dtls now owns the protocol
// itself and this package no longer raises these errors directly off its
// own wire parsing.

package dtls

import (
	"fmt"
	"net"

	"github.com/pkg/errors"
	"golang.org/x/xerrors"
)

// Kind identifies which named failure mode a HandshakeError represents.
// The string form (via Kind.String) is the public tag a host application
// sees; it must never change meaning once shipped.
type Kind int

const (
	KindHandshakeTimeout Kind = iota
	KindTLSFatalAlert
	KindHandshakeProtocolError
	KindMissingExtendedMasterSecret
	KindInvalidState
	KindDisconnected
)

func (k Kind) String() string {
	switch k {
	case KindHandshakeTimeout:
		return "handshake_timeout"
	case KindTLSFatalAlert:
		return "tls_fatal_alert"
	case KindHandshakeProtocolError:
		return "handshake_protocol_error"
	case KindMissingExtendedMasterSecret:
		return "missing_extended_master_secret"
	case KindInvalidState:
		return "invalid_state"
	case KindDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// HandshakeError is the one error type every exported handshake-path
// function returns. Alert carries the peer-reported alert description when
// Kind is KindTLSFatalAlert; it is zero otherwise.
type HandshakeError struct {
	Kind  Kind
	Alert AlertDescription
	cause error
}

func (e *HandshakeError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("dtls: %s: %v", e.Kind, e.cause)
	}
	return fmt.Sprintf("dtls: %s", e.Kind)
}

func (e *HandshakeError) Unwrap() error { return e.cause }

func newError(kind Kind, cause error) *HandshakeError {
	return &HandshakeError{Kind: kind, cause: errors.WithStack(cause)}
}

func newAlertError(desc AlertDescription) *HandshakeError {
	return &HandshakeError{Kind: KindTLSFatalAlert, Alert: desc}
}

var errInvalidState = newError(KindInvalidState, errors.New("dtls: operation invalid in current handshake state"))

// classifyHandshakeError maps an error returned from pion/dtls.Client,
// pion/dtls.Server, or a completed Conn's Read/Write into this package's
// typed sum (spec section 7's taxonomy), since those calls return plain
// errors (often satisfying net.Error for timeouts) rather than this
// package's own Kind.
func classifyHandshakeError(err error) *HandshakeError {
	if err == nil {
		return nil
	}
	if he, ok := err.(*HandshakeError); ok {
		return he
	}
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return newError(KindHandshakeTimeout, err)
	}
	return newError(KindHandshakeProtocolError, err)
}

// IsTimeout reports whether err is (or wraps) a handshake timeout, for a
// host application that only cares whether the peer stopped responding.
func IsTimeout(err error) bool {
	var he *HandshakeError
	if !xerrors.As(err, &he) {
		return false
	}
	return he.Kind == KindHandshakeTimeout
}
