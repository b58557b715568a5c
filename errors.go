// Copyright 2019 Lanikai Labs. All rights reserved.

package dtlssrtp

import "github.com/pkg/errors"

var errHandshakeNotComplete = errors.New("dtlssrtp: handshake has not completed, no SRTP keys available")
