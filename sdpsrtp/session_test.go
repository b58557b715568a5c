// Copyright 2019 Lanikai Labs. All rights reserved.

package sdpsrtp

import (
	"encoding/binary"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanikai/dtlssrtp/internal/srtp"
)

// testKeys mirrors internal/srtp/context_test.go's own teacher-derived AES-CM
// vectors, reused here since Session wraps the same Context underneath.
func testKeys(t *testing.T) ([]byte, []byte) {
	key, err := hex.DecodeString("E1F97A0D3E018BE0D64FA32C06DE4139")
	if err != nil {
		t.Fatal(err)
	}
	salt, err := hex.DecodeString("0EC675AD498AFEEBB6960B3AABE6")
	if err != nil {
		t.Fatal(err)
	}
	return key, salt
}

// rtpPacket builds a minimal 12-byte-header RTP packet with no CSRCs and no
// extension, enough to round-trip through Session.Protect/UnprotectRTP.
func rtpPacket(seq uint16, ssrc uint32, payload []byte) []byte {
	b := make([]byte, 12+len(payload))
	b[0] = 2 << 6 // version 2, no csrc, no extension
	b[1] = 96     // payload type
	binary.BigEndian.PutUint16(b[2:4], seq)
	binary.BigEndian.PutUint32(b[4:8], 1000)
	binary.BigEndian.PutUint32(b[8:12], ssrc)
	copy(b[12:], payload)
	return b
}

func TestSymmetricSessionRoundTrip(t *testing.T) {
	key, salt := testKeys(t)
	a, err := NewSymmetricSession(srtp.CodePointAES128CMHMACSHA1_80, key, salt)
	require.NoError(t, err)
	b, err := NewSymmetricSession(srtp.CodePointAES128CMHMACSHA1_80, key, salt)
	require.NoError(t, err)

	pkt := rtpPacket(1, 0xdeadbeef, []byte("hello srtp"))
	protected, err := a.ProtectRTP(pkt)
	require.NoError(t, err)

	plain, err := b.UnprotectRTP(protected)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello srtp"), plain[12:])
}

func TestSessionRoundTripDistinctDirections(t *testing.T) {
	key, salt := testKeys(t)
	remoteKey := append([]byte{}, key...)
	remoteKey[0] ^= 0xff
	remoteSalt := append([]byte{}, salt...)
	remoteSalt[0] ^= 0xff

	// Each side holds one Session with its own send/recv key-salt pairs
	// swapped against its peer's, mirroring an SDP offer/answer where each
	// side's a=crypto line names its own send key.
	local, err := NewSession(srtp.CodePointAES128CMHMACSHA1_80, key, salt, remoteKey, remoteSalt)
	require.NoError(t, err)
	remote, err := NewSession(srtp.CodePointAES128CMHMACSHA1_80, remoteKey, remoteSalt, key, salt)
	require.NoError(t, err)

	pkt := rtpPacket(7, 0xabad1dea, []byte("payload"))
	protected, err := local.ProtectRTP(pkt)
	require.NoError(t, err)
	plain, err := remote.UnprotectRTP(protected)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), plain[12:])
}

func TestSessionRTCPRoundTrip(t *testing.T) {
	key, salt := testKeys(t)
	a, err := NewSymmetricSession(srtp.CodePointAES128CMHMACSHA1_80, key, salt)
	require.NoError(t, err)
	b, err := NewSymmetricSession(srtp.CodePointAES128CMHMACSHA1_80, key, salt)
	require.NoError(t, err)

	// Minimal RTCP sender-report header: V=2,P=0,RC=0, PT=200, length=1.
	rtcp := []byte{0x80, 0xc8, 0x00, 0x01, 0xde, 0xad, 0xbe, 0xef}

	protected, err := a.ProtectRTCP(rtcp)
	require.NoError(t, err)
	plain, err := b.UnprotectRTCP(protected)
	require.NoError(t, err)
	assert.Equal(t, rtcp, plain)
}

func TestSessionUnprotectRejectsForgedTag(t *testing.T) {
	key, salt := testKeys(t)
	a, err := NewSymmetricSession(srtp.CodePointAES128CMHMACSHA1_80, key, salt)
	require.NoError(t, err)
	b, err := NewSymmetricSession(srtp.CodePointAES128CMHMACSHA1_80, key, salt)
	require.NoError(t, err)

	pkt := rtpPacket(9, 0xabad1dea, []byte("payload"))
	protected, err := a.ProtectRTP(pkt)
	require.NoError(t, err)
	protected[len(protected)-1] ^= 0xff

	_, err = b.UnprotectRTP(protected)
	assert.Equal(t, srtp.ErrAuthFail, err)
}
