// Copyright 2019 Lanikai Labs. All rights reserved.
//
// Key Derivation Function (KDF) described in RFC 3711 section 4.3
// (https://tools.ietf.org/html/rfc3711#section-4.3). Directly adapted from
// the teacher's standalone srtp/kdf.go, which hand-rolled a single AES
// block encryption per label; generalized here onto the shared
// internal/aesctr keystream generator so it shares one AES-CM
// implementation with packet encryption instead of a second one.

package srtp

import (
	"encoding/binary"

	"github.com/lanikai/dtlssrtp/internal/aesctr"
)

// Label bytes from RFC 3711 section 4.3.
const (
	labelSRTPEncryption  byte = 0x00
	labelSRTPAuth        byte = 0x01
	labelSRTPSalt        byte = 0x02
	labelSRTCPEncryption byte = 0x03
	labelSRTCPAuth       byte = 0x04
	labelSRTCPSalt       byte = 0x05
)

// deriveSessionKey implements the x = master_salt XOR key_id,
// session_key = AES-CM(master_key, x)[0:n] derivation of RFC 3711 section
// 4.3.1. index is the current SRTP or SRTCP index; rate is the key
// derivation rate (0 disables periodic re-keying, forcing r = 0).
func deriveSessionKey(masterKey, masterSalt []byte, label byte, index uint64, rate uint64, n int) ([]byte, error) {
	r := uint64(0)
	if rate != 0 {
		r = index / rate
	}

	// key_id = label (1 byte) || r (48-bit big-endian)
	keyID := make([]byte, 7)
	keyID[0] = label
	var rBytes [8]byte
	binary.BigEndian.PutUint64(rBytes[:], r)
	copy(keyID[1:], rBytes[2:8])

	// x = master_salt, left-padded to 14 bytes, XORed with key_id right-
	// aligned (key_id is 7 bytes; it overlaps the low-order 7 bytes of the
	// 14-byte salt).
	x := make([]byte, aesctr.IVPrefixLen)
	copy(x, masterSalt)
	for i, b := range keyID {
		x[aesctr.IVPrefixLen-len(keyID)+i] ^= b
	}

	keystream, err := aesctr.Generate(masterKey, x, n)
	if err != nil {
		return nil, err
	}
	return keystream, nil
}

// sessionKeys holds the three session values derived for one direction
// (RTP or RTCP) from a single master key/salt pair.
type sessionKeys struct {
	encKey  []byte
	authKey []byte
	salt    []byte
}

// deriveRTPKeys and deriveRTCPKeys derive the full {enc, auth, salt} triple
// for a direction, per the label assignments in RFC 3711 section 4.3.2/4.3.3.
// Derived lengths are fixed regardless of the profile's encryption kind:
// 16-byte encryption key, 20-byte auth key, 14-byte salt, since even NULL
// profiles derive (unused) encryption material and a real auth key.
func deriveRTPKeys(masterKey, masterSalt []byte, index uint64, rate uint64) (sessionKeys, error) {
	return deriveKeys(masterKey, masterSalt, index, rate, labelSRTPEncryption, labelSRTPAuth, labelSRTPSalt)
}

func deriveRTCPKeys(masterKey, masterSalt []byte, index uint64, rate uint64) (sessionKeys, error) {
	return deriveKeys(masterKey, masterSalt, index, rate, labelSRTCPEncryption, labelSRTCPAuth, labelSRTCPSalt)
}

func deriveKeys(masterKey, masterSalt []byte, index uint64, rate uint64, encLabel, authLabel, saltLabel byte) (sessionKeys, error) {
	encKey, err := deriveSessionKey(masterKey, masterSalt, encLabel, index, rate, 16)
	if err != nil {
		return sessionKeys{}, err
	}
	authKey, err := deriveSessionKey(masterKey, masterSalt, authLabel, index, rate, 20)
	if err != nil {
		return sessionKeys{}, err
	}
	salt, err := deriveSessionKey(masterKey, masterSalt, saltLabel, index, rate, 14)
	if err != nil {
		return sessionKeys{}, err
	}
	return sessionKeys{encKey: encKey, authKey: authKey, salt: salt}, nil
}

// kdf reproduces the teacher's four-value return shape (used by
// kdf_test.go, which carries the teacher's original RFC 3711 appendix B.3
// test vectors) on top of the generalized derivation above.
func kdf(masterKey, masterSalt []byte, index uint, rate uint, keyLen, saltLen int) (srtpKey, srtpSalt, srtcpKey, srtcpSalt []byte, err error) {
	rtp, err := deriveRTPKeys(masterKey, masterSalt, uint64(index), uint64(rate))
	if err != nil {
		return nil, nil, nil, nil, err
	}
	rtcp, err := deriveRTCPKeys(masterKey, masterSalt, uint64(index), uint64(rate))
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return rtp.encKey[:keyLen], rtp.salt[:saltLen], rtcp.encKey[:keyLen], rtcp.salt[:saltLen], nil
}
