package srtp

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func rtcpSenderReport(ssrc uint32) []byte {
	pkt := make([]byte, rtcpHeaderLen+4)
	pkt[0] = 0x80
	pkt[1] = 200 // sender report
	binary.BigEndian.PutUint16(pkt[2:4], 1)
	binary.BigEndian.PutUint32(pkt[4:8], ssrc)
	copy(pkt[8:], []byte("ntp0"))
	return pkt
}

func TestProtectUnprotectRTCPRoundTrip(t *testing.T) {
	key, salt := testKeys(t)
	sender, err := NewContext(key, salt, mustProfile(t, CodePointAES128CMHMACSHA1_80))
	if err != nil {
		t.Fatal(err)
	}
	receiver, err := NewContext(key, salt, mustProfile(t, CodePointAES128CMHMACSHA1_80))
	if err != nil {
		t.Fatal(err)
	}

	pkt := rtcpSenderReport(0xc0ffee)
	protected, err := sender.ProtectRTCP(pkt)
	if err != nil {
		t.Fatal(err)
	}

	plain, err := receiver.UnprotectRTCP(protected)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(plain, pkt) {
		t.Fatalf("round trip mismatch: got %x want %x", plain, pkt)
	}
}

func TestUnprotectRTCPRejectsReplay(t *testing.T) {
	key, salt := testKeys(t)
	sender, err := NewContext(key, salt, mustProfile(t, CodePointAES128CMHMACSHA1_80))
	if err != nil {
		t.Fatal(err)
	}
	receiver, err := NewContext(key, salt, mustProfile(t, CodePointAES128CMHMACSHA1_80))
	if err != nil {
		t.Fatal(err)
	}

	protected, err := sender.ProtectRTCP(rtcpSenderReport(0xc0ffee))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := receiver.UnprotectRTCP(protected); err != nil {
		t.Fatalf("first delivery: unexpected error %v", err)
	}
	if _, err := receiver.UnprotectRTCP(protected); err != ErrReplay {
		t.Fatalf("replayed delivery: got %v, want ErrReplay", err)
	}
}

// TestRTCPReplayWindowIsIndependentOfRTP pins down the fix for SRTCP
// sharing a replay window with RTP on the same SSRC: RTP indices
// (ROC<<16|SEQ) race far ahead of SRTCP's own slowly incrementing index,
// so a shared window would push every legitimate SRTCP packet outside
// the 64-slot tolerance once RTP advanced (spec section 3: the replay
// window is per-direction-per-RTP/RTCP).
func TestRTCPReplayWindowIsIndependentOfRTP(t *testing.T) {
	key, salt := testKeys(t)
	sender, err := NewContext(key, salt, mustProfile(t, CodePointAES128CMHMACSHA1_80))
	if err != nil {
		t.Fatal(err)
	}
	receiver, err := NewContext(key, salt, mustProfile(t, CodePointAES128CMHMACSHA1_80))
	if err != nil {
		t.Fatal(err)
	}

	const ssrc = 0xabad1dea

	m := rtpMsg{
		payloadType: 96,
		timestamp:   1000,
		ssrc:        ssrc,
		payload:     []byte("payload"),
	}
	for seq := uint16(1); seq <= 1000; seq++ {
		m.sequenceNumber = seq
		protected, err := sender.ProtectRTP(m.marshal())
		if err != nil {
			t.Fatalf("seq %d: protect: %v", seq, err)
		}
		if _, err := receiver.UnprotectRTP(protected); err != nil {
			t.Fatalf("seq %d: unprotect: %v", seq, err)
		}
	}

	rtcpProtected, err := sender.ProtectRTCP(rtcpSenderReport(ssrc))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := receiver.UnprotectRTCP(rtcpProtected); err != nil {
		t.Fatalf("RTCP packet on a well-advanced RTP stream falsely rejected: %v", err)
	}
}
