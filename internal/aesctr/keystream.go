// Package aesctr implements the AES counter-mode (AES-CM) keystream
// generator used to key-derive and to encrypt SRTP/SRTCP payloads, per
// RFC 3711 section 4.1.1.
//
// The teacher's internal/aes package selected between a portable
// crypto/aes implementation and a hand-rolled ARM assembly one
// (internal/aes/stdlib.go, internal/aes/ctr_arm.go). The ARM variant leaned
// on unexported fields of the standard library's AES block cipher that
// aren't reachable from outside crypto/aes, so it's dropped here in favor
// of the portable path every other architecture already used.
package aesctr

import (
	"crypto/aes"
	"crypto/cipher"
)

// BlockSize is the AES block size in bytes, and also the length of an
// AES-CM IV.
const BlockSize = aes.BlockSize

// IVPrefixLen is the length in bytes of the salt-derived portion of an
// AES-CM IV; the remaining two bytes carry the big-endian block counter.
const IVPrefixLen = 14

// Generate produces n bytes of AES-CM keystream for the given 16-byte key
// and 14-byte IV prefix. Blocks are formed as ivPrefix || ctr, with ctr a
// big-endian uint16 starting at 0. n need not be a multiple of the block
// size: the final partial block is produced by encrypting
// ctr = floor(n/16) and truncating to the remaining bytes, which is exactly
// what a standard CTR-mode keystream already does for a short final read.
func Generate(key, ivPrefix []byte, n int) ([]byte, error) {
	if len(ivPrefix) != IVPrefixLen {
		return nil, errIVPrefixLen
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	iv := make([]byte, BlockSize)
	copy(iv, ivPrefix)

	stream := cipher.NewCTR(block, iv)
	out := make([]byte, n)
	stream.XORKeyStream(out, out)
	return out, nil
}

// XORKeyStream XORs src with the AES-CM keystream for (key, ivPrefix) into
// dst, which may alias src for in-place encryption/decryption. This is the
// operation the SRTP/SRTCP transformer uses directly on packet payloads.
func XORKeyStream(key, ivPrefix, dst, src []byte) error {
	if len(ivPrefix) != IVPrefixLen {
		return errIVPrefixLen
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return err
	}
	iv := make([]byte, BlockSize)
	copy(iv, ivPrefix)

	cipher.NewCTR(block, iv).XORKeyStream(dst, src)
	return nil
}
