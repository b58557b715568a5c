package srtp

import "fmt"

// EncryptionKind identifies the SRTP payload cipher.
type EncryptionKind uint8

const (
	EncryptionAESCM EncryptionKind = iota
	EncryptionNull
)

// AuthKind identifies the SRTP authentication function. RFC 3711 only
// defines HMAC-SHA1; it is the only kind this module implements.
type AuthKind uint8

const (
	AuthHMACSHA1 AuthKind = iota
)

// Profile is one of the four SRTP protection profiles negotiable over the
// DTLS use_srtp extension (RFC 5764 section 4.1.2).
type Profile struct {
	// Name is the profile's canonical RFC 5764 name, e.g.
	// "SRTP_AES128_CM_HMAC_SHA1_80".
	Name string

	// CodePoint is the two-byte wire value advertised/negotiated in the
	// use_srtp extension.
	CodePoint uint16

	Enc        EncryptionKind
	EncKeyLen  int
	Auth       AuthKind
	AuthKeyLen int
	RTPTagLen  int
	RTCPTagLen int
	SaltLen    int
}

// Wire code points from RFC 5764 section 4.1.2.
const (
	CodePointAES128CMHMACSHA1_80 uint16 = 0x0001
	CodePointAES128CMHMACSHA1_32 uint16 = 0x0002
	CodePointNULLHMACSHA1_80     uint16 = 0x0005
	CodePointNULLHMACSHA1_32     uint16 = 0x0006
)

var profiles = map[uint16]Profile{
	CodePointAES128CMHMACSHA1_80: {
		Name: "SRTP_AES128_CM_HMAC_SHA1_80", CodePoint: CodePointAES128CMHMACSHA1_80,
		Enc: EncryptionAESCM, EncKeyLen: 16,
		Auth: AuthHMACSHA1, AuthKeyLen: 20,
		RTPTagLen: 10, RTCPTagLen: 10, SaltLen: 14,
	},
	CodePointAES128CMHMACSHA1_32: {
		Name: "SRTP_AES128_CM_HMAC_SHA1_32", CodePoint: CodePointAES128CMHMACSHA1_32,
		Enc: EncryptionAESCM, EncKeyLen: 16,
		Auth: AuthHMACSHA1, AuthKeyLen: 20,
		RTPTagLen: 4, RTCPTagLen: 10, SaltLen: 14,
	},
	// NULL profiles still carry a 16-byte master key and 14-byte salt: the
	// AES-CM key derivation function is structural machinery needed to
	// produce the authentication key regardless of whether the resulting
	// encryption key is ever applied to a payload (spec section 4.3: even
	// NULL profiles derive their auth key and salt the same way). EncKeyLen
	// here gates whether the Transformer XORs the keystream over the
	// payload (section 4.4's "NULL-encryption profiles skip steps 3/5"),
	// not how many bytes of master key material exist.
	CodePointNULLHMACSHA1_80: {
		Name: "SRTP_NULL_HMAC_SHA1_80", CodePoint: CodePointNULLHMACSHA1_80,
		Enc: EncryptionNull, EncKeyLen: 0,
		Auth: AuthHMACSHA1, AuthKeyLen: 20,
		RTPTagLen: 10, RTCPTagLen: 10, SaltLen: 14,
	},
	CodePointNULLHMACSHA1_32: {
		Name: "SRTP_NULL_HMAC_SHA1_32", CodePoint: CodePointNULLHMACSHA1_32,
		Enc: EncryptionNull, EncKeyLen: 0,
		Auth: AuthHMACSHA1, AuthKeyLen: 20,
		RTPTagLen: 4, RTCPTagLen: 10, SaltLen: 14,
	},
}

// ForProfile looks up the fixed parameter tuple for a protection profile
// code point. It fails for any code point outside the four profiles this
// package supports (RFC 3711/5764 define others, e.g. GCM variants, which
// are explicitly out of scope here).
func ForProfile(codePoint uint16) (Profile, error) {
	p, ok := profiles[codePoint]
	if !ok {
		return Profile{}, &UnsupportedProfileError{CodePoint: codePoint}
	}
	return p, nil
}

// DefaultProfiles is the ordered list a client offers when the host
// application doesn't configure its own, most-preferred first.
func DefaultProfiles() []uint16 {
	return []uint16{
		CodePointAES128CMHMACSHA1_80,
		CodePointAES128CMHMACSHA1_32,
		CodePointNULLHMACSHA1_80,
		CodePointNULLHMACSHA1_32,
	}
}

// RTPPolicy and RTCPPolicy are direction-specific projections of a
// Profile's tag length, used by the Transformer so callers never have to
// remember which field applies to which packet type.
type Policy struct {
	Enc        EncryptionKind
	EncKeyLen  int
	Auth       AuthKind
	AuthKeyLen int
	TagLen     int
	SaltLen    int
}

func (p Profile) RTPPolicy() Policy {
	return Policy{Enc: p.Enc, EncKeyLen: p.EncKeyLen, Auth: p.Auth, AuthKeyLen: p.AuthKeyLen, TagLen: p.RTPTagLen, SaltLen: p.SaltLen}
}

func (p Profile) RTCPPolicy() Policy {
	return Policy{Enc: p.Enc, EncKeyLen: p.EncKeyLen, Auth: p.Auth, AuthKeyLen: p.AuthKeyLen, TagLen: p.RTCPTagLen, SaltLen: p.SaltLen}
}

type UnsupportedProfileError struct {
	CodePoint uint16
}

func (e *UnsupportedProfileError) Error() string {
	return fmt.Sprintf("srtp: unsupported protection profile 0x%04x", e.CodePoint)
}
