package aesctr

import "errors"

var errIVPrefixLen = errors.New("aesctr: iv prefix must be 14 bytes")
