package srtp

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// testMasterKey/testMasterSalt and the plaintext/ciphertext pair are the
// teacher's original AES-CM test vectors (internal/srtp/context_test.go),
// carried forward against the new Protect/Unprotect API.
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

func TestProtectRTPKeystream(t *testing.T) {
	key, salt := testKeys(t)
	ctx, err := NewContext(key, salt, mustProfile(t, CodePointAES128CMHMACSHA1_80))
	if err != nil {
		t.Fatal(err)
	}

	plaintext := []byte{
		0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
		0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
	}
	wantCiphertext := []byte{
		0x7c, 0x64, 0x06, 0x03, 0xe8, 0x1d, 0x44, 0x0d,
		0xf2, 0x3d, 0xdb, 0xe5, 0xb0, 0x7f, 0x88, 0x7a,
	}

	m := rtpMsg{
		payloadType:    1,
		timestamp:      2,
		marker:         false,
		csrc:           []uint32{},
		ssrc:           12345678,
		sequenceNumber: 1,
		payload:        append([]byte{}, plaintext...),
	}

	protected, err := ctx.ProtectRTP(m.marshal())
	if err != nil {
		t.Fatal(err)
	}

	got := protected[rtpFixedHeaderLen : rtpFixedHeaderLen+len(wantCiphertext)]
	if !bytes.Equal(got, wantCiphertext) {
		t.Fatalf("keystream mismatch: got %x want %x", got, wantCiphertext)
	}
}

func TestProtectUnprotectRTPRoundTrip(t *testing.T) {
	key, salt := testKeys(t)
	sender, err := NewContext(key, salt, mustProfile(t, CodePointAES128CMHMACSHA1_80))
	if err != nil {
		t.Fatal(err)
	}
	receiver, err := NewContext(key, salt, mustProfile(t, CodePointAES128CMHMACSHA1_80))
	if err != nil {
		t.Fatal(err)
	}

	m := rtpMsg{
		payloadType:    96,
		timestamp:      1000,
		marker:         true,
		csrc:           []uint32{},
		ssrc:           0xdeadbeef,
		sequenceNumber: 1,
		payload:        []byte("hello srtp"),
	}

	protected, err := sender.ProtectRTP(m.marshal())
	if err != nil {
		t.Fatal(err)
	}

	plain, err := receiver.UnprotectRTP(protected)
	if err != nil {
		t.Fatal(err)
	}

	var out rtpMsg
	if err := out.unmarshal(plain); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.payload, m.payload) {
		t.Fatalf("round trip mismatch: got %q want %q", out.payload, m.payload)
	}
}

func TestUnprotectRTPRejectsReplay(t *testing.T) {
	key, salt := testKeys(t)
	sender, err := NewContext(key, salt, mustProfile(t, CodePointAES128CMHMACSHA1_80))
	if err != nil {
		t.Fatal(err)
	}
	receiver, err := NewContext(key, salt, mustProfile(t, CodePointAES128CMHMACSHA1_80))
	if err != nil {
		t.Fatal(err)
	}

	m := rtpMsg{
		payloadType:    96,
		timestamp:      1000,
		ssrc:           0xabad1dea,
		sequenceNumber: 42,
		payload:        []byte("payload"),
	}
	protected, err := sender.ProtectRTP(m.marshal())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := receiver.UnprotectRTP(protected); err != nil {
		t.Fatalf("first delivery: unexpected error %v", err)
	}
	if _, err := receiver.UnprotectRTP(protected); err != ErrReplay {
		t.Fatalf("replayed delivery: got %v, want ErrReplay", err)
	}
}

func TestUnprotectRTPRejectsForgedTag(t *testing.T) {
	key, salt := testKeys(t)
	sender, err := NewContext(key, salt, mustProfile(t, CodePointAES128CMHMACSHA1_80))
	if err != nil {
		t.Fatal(err)
	}
	receiver, err := NewContext(key, salt, mustProfile(t, CodePointAES128CMHMACSHA1_80))
	if err != nil {
		t.Fatal(err)
	}

	m := rtpMsg{
		payloadType:    96,
		timestamp:      1000,
		ssrc:           0xabad1dea,
		sequenceNumber: 7,
		payload:        []byte("payload"),
	}
	protected, err := sender.ProtectRTP(m.marshal())
	if err != nil {
		t.Fatal(err)
	}
	protected[len(protected)-1] ^= 0xff

	if _, err := receiver.UnprotectRTP(protected); err != ErrAuthFail {
		t.Fatalf("forged tag: got %v, want ErrAuthFail", err)
	}
}

func mustProfile(t *testing.T, codePoint uint16) Profile {
	p, err := ForProfile(codePoint)
	if err != nil {
		t.Fatal(err)
	}
	return p
}
