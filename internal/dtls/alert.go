// Copyright 2019 Lanikai Labs. All rights reserved.
//
// Alert vocabulary and fan-out plumbing (spec section 4.8). Modeled on
// the teacher's callback-channel idiom for ICE candidate delivery
// (`chan<- ice.Candidate`, now-removed ice.go) but scoped to DTLS alerts.
// pion/dtls owns the alert record wire format now; Conn does not parse
// alert bytes off the wire. It publishes an Alert only for a handshake
// failure classified as KindTLSFatalAlert, a kind classifyHandshakeError
// never assigns to the errors pion/dtls returns.

package dtls

// AlertLevel is the first byte of an Alert record (RFC 5246 section 7.2).
type AlertLevel uint8

const (
	AlertLevelWarning AlertLevel = 1
	AlertLevelFatal   AlertLevel = 2
)

func (l AlertLevel) String() string {
	if l == AlertLevelFatal {
		return "fatal"
	}
	return "warning"
}

// AlertDescription is the second byte of an Alert record.
type AlertDescription uint8

const (
	AlertCloseNotify            AlertDescription = 0
	AlertUnexpectedMessage      AlertDescription = 10
	AlertBadRecordMAC           AlertDescription = 20
	AlertHandshakeFailure       AlertDescription = 40
	AlertBadCertificate         AlertDescription = 42
	AlertUnsupportedCertificate AlertDescription = 43
	AlertCertificateExpired     AlertDescription = 45
	AlertIllegalParameter       AlertDescription = 47
	AlertDecodeError            AlertDescription = 50
	AlertDecryptError           AlertDescription = 51
	AlertProtocolVersion        AlertDescription = 70
	AlertInsufficientSecurity   AlertDescription = 71
	AlertInternalError          AlertDescription = 80
	AlertNoRenegotiation        AlertDescription = 100
	AlertUnsupportedExtension   AlertDescription = 110
)

// Alert is the classification Conn assigns to a handshake or connection
// failure for subscribers, not a DTLS record parsed off the wire.
type Alert struct {
	Level       AlertLevel
	Description AlertDescription
}

// alertHub fans out the alerts a Conn publishes to subscribers. Alerts a
// Conn sends or receives on the wire are not seen by it. It never blocks
// a handshake on a slow subscriber: sends are best-effort.
type alertHub struct {
	subscribers []chan Alert
}

// Subscribe registers a new listener. The returned channel is closed when
// the Conn that owns this hub is closed.
func (h *alertHub) Subscribe() <-chan Alert {
	ch := make(chan Alert, 8)
	h.subscribers = append(h.subscribers, ch)
	return ch
}

func (h *alertHub) notify(a Alert) {
	for _, ch := range h.subscribers {
		select {
		case ch <- a:
		default:
		}
	}
}

func (h *alertHub) closeAll() {
	for _, ch := range h.subscribers {
		close(ch)
	}
	h.subscribers = nil
}
