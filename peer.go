// Copyright 2019 Lanikai Labs. All rights reserved.
//
// Peer is the package's public entry point (spec section 6), replacing
// the teacher's ICE/SDP/media-orchestrating peer_connection.go#PeerConnection
// with a facade scoped to exactly what spec.md's "Non-goals" leave in
// scope: drive a DTLS-SRTP handshake over a caller-supplied transport,
// then protect/unprotect RTP and RTCP with the keys it negotiates.

package dtlssrtp

import (
	"context"
	"crypto/x509"
	"sync"

	"github.com/lanikai/dtlssrtp/internal/dtls"
	"github.com/lanikai/dtlssrtp/internal/srtp"
)

// Config is re-exported so a host application never has to import
// internal/dtls directly.
type Config = dtls.Config

// Sender is how a Peer emits outbound DTLS datagrams; supply a UDP
// socket wrapper, an ICE candidate pair, or a test pipe.
type Sender = dtls.Sender

const srtpMasterKeyLen = 16

// Peer runs one DTLS-SRTP handshake and, once complete, protects and
// unprotects RTP/RTCP traffic with the keying material it derived.
type Peer struct {
	conn      *dtls.Conn
	transport *dtls.Adapter

	mu          sync.Mutex
	sendContext *srtp.Context
	recvContext *srtp.Context
}

func newPeer(conn *dtls.Conn, transport *dtls.Adapter) *Peer {
	return &Peer{conn: conn, transport: transport}
}

// NewClientPeer creates a Peer that will initiate the DTLS-SRTP
// handshake once DoHandshake is called.
func NewClientPeer(sender Sender, config *Config) (*Peer, error) {
	transport := dtls.NewAdapter(sender)
	client, err := dtls.NewClient(transport, config)
	if err != nil {
		return nil, err
	}
	return newPeer(client.Conn, transport), nil
}

// NewServerPeer creates a Peer that will respond to the DTLS-SRTP
// handshake once DoHandshake is called.
func NewServerPeer(sender Sender, config *Config) (*Peer, error) {
	transport := dtls.NewAdapter(sender)
	server, err := dtls.NewServer(transport, config)
	if err != nil {
		return nil, err
	}
	return newPeer(server.Conn, transport), nil
}

// WriteToRecvStream delivers one inbound datagram for this Peer's
// handshake/connection. The host application calls this whenever its
// socket (or ICE component, or test harness) receives a packet destined
// for this Peer.
func (p *Peer) WriteToRecvStream(b []byte) {
	p.transport.WriteToRecvStream(b)
}

// DoHandshake runs the DTLS-SRTP handshake to completion, deriving the
// SRTP keying material on success (spec section 4.5/4.7). Canceling ctx
// before the handshake's own internal timeout elapses closes the
// transport out from under a blocked Read, unblocking it early.
func (p *Peer) DoHandshake(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- p.conn.Handshake()
	}()

	select {
	case err := <-done:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		p.conn.Close()
		<-done
		return ctx.Err()
	}

	return p.deriveSRTPContexts()
}

// deriveSRTPContexts exports keying material per RFC 5764 section 4.2
// and splits it into per-direction SRTP contexts, assigning client_write
// material to whichever side of the handshake this Peer actually played
// (spec section 4.5's exporter output ordering: client key, server key,
// client salt, server salt).
func (p *Peer) deriveSRTPContexts() error {
	profile, err := srtp.ForProfile(p.conn.NegotiatedProfile())
	if err != nil {
		return err
	}

	saltLen := profile.SaltLen
	total := 2*srtpMasterKeyLen + 2*saltLen
	material, err := p.conn.ExportKeyingMaterial(total)
	if err != nil {
		return err
	}

	offset := 0
	clientKey := material[offset : offset+srtpMasterKeyLen]
	offset += srtpMasterKeyLen
	serverKey := material[offset : offset+srtpMasterKeyLen]
	offset += srtpMasterKeyLen
	clientSalt := material[offset : offset+saltLen]
	offset += saltLen
	serverSalt := material[offset : offset+saltLen]

	var sendKey, sendSalt, recvKey, recvSalt []byte
	if p.conn.IsClient() {
		sendKey, sendSalt = clientKey, clientSalt
		recvKey, recvSalt = serverKey, serverSalt
	} else {
		sendKey, sendSalt = serverKey, serverSalt
		recvKey, recvSalt = clientKey, clientSalt
	}

	sendCtx, err := srtp.NewContext(sendKey, sendSalt, profile)
	if err != nil {
		return err
	}
	recvCtx, err := srtp.NewContext(recvKey, recvSalt, profile)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.sendContext = sendCtx
	p.recvContext = recvCtx
	p.mu.Unlock()
	return nil
}

func (p *Peer) contexts() (send, recv *srtp.Context, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sendContext, p.recvContext, p.sendContext != nil && p.recvContext != nil
}

// ProtectRTP encrypts and authenticates an outbound RTP packet.
func (p *Peer) ProtectRTP(pkt []byte) ([]byte, error) {
	send, _, ok := p.contexts()
	if !ok {
		return nil, errHandshakeNotComplete
	}
	return send.ProtectRTP(pkt)
}

// UnprotectRTP authenticates, replay-checks, and decrypts an inbound RTP
// packet.
func (p *Peer) UnprotectRTP(pkt []byte) ([]byte, error) {
	_, recv, ok := p.contexts()
	if !ok {
		return nil, errHandshakeNotComplete
	}
	return recv.UnprotectRTP(pkt)
}

// ProtectRTCP encrypts and authenticates an outbound RTCP compound
// packet.
func (p *Peer) ProtectRTCP(pkt []byte) ([]byte, error) {
	send, _, ok := p.contexts()
	if !ok {
		return nil, errHandshakeNotComplete
	}
	return send.ProtectRTCP(pkt)
}

// UnprotectRTCP authenticates and decrypts an inbound RTCP compound
// packet.
func (p *Peer) UnprotectRTCP(pkt []byte) ([]byte, error) {
	_, recv, ok := p.contexts()
	if !ok {
		return nil, errHandshakeNotComplete
	}
	return recv.UnprotectRTCP(pkt)
}

// RemoteCertificate returns the peer's certificate, available once the
// handshake has completed.
func (p *Peer) RemoteCertificate() *x509.Certificate {
	return p.conn.RemoteCertificate()
}

// Fingerprint returns this Peer's own local certificate fingerprint
// (spec section 6), suitable for carrying out of band (e.g. in SDP).
func (p *Peer) Fingerprint() (string, error) {
	return p.conn.Fingerprint()
}

// Subscribe registers a listener for the alerts the underlying dtls.Conn
// publishes; see dtls.Conn.Subscribe for which alerts that covers.
func (p *Peer) Subscribe() <-chan dtls.Alert {
	return p.conn.Subscribe()
}

// Close releases the Peer's transport and any blocked Read call.
func (p *Peer) Close() {
	p.conn.Close()
}
