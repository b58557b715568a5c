// Copyright 2019 Lanikai Labs. All rights reserved.

package dtls

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// pipeSender delivers every Send call to the peer Adapter's receive
// queue on its own goroutine, standing in for a real socket/ICE
// transport in this same-process handshake test.
type pipeSender struct {
	peer *Adapter
}

func (s *pipeSender) Send(b []byte) error {
	cp := append([]byte{}, b...)
	go s.peer.WriteToRecvStream(cp)
	return nil
}

func testConfig() *Config {
	cert, key, err := GenerateSelfSigned()
	if err != nil {
		panic(err)
	}
	return &Config{
		Certificate:              cert,
		PrivateKey:               key,
		HandshakeTimeout:         5 * time.Second,
		FlightInterval:           50 * time.Millisecond,
		RequireClientCertificate: true,
	}
}

func wireTransports() (*Adapter, *Adapter) {
	clientTransport := NewAdapter(nil)
	serverTransport := NewAdapter(nil)
	clientTransport.sender = &pipeSender{peer: serverTransport}
	serverTransport.sender = &pipeSender{peer: clientTransport}
	return clientTransport, serverTransport
}

func TestHandshakeClientServer(t *testing.T) {
	clientTransport, serverTransport := wireTransports()

	client, err := NewClient(clientTransport, testConfig())
	require.NoError(t, err)
	server, err := NewServer(serverTransport, testConfig())
	require.NoError(t, err)

	clientErr := make(chan error, 1)
	serverErr := make(chan error, 1)
	go func() { clientErr <- client.Handshake() }()
	go func() { serverErr <- server.Handshake() }()

	require.NoError(t, <-clientErr)
	require.NoError(t, <-serverErr)

	require.Equal(t, client.NegotiatedProfile(), server.NegotiatedProfile())

	clientKeys, err := client.ExportKeyingMaterial(40)
	require.NoError(t, err)
	serverKeys, err := server.ExportKeyingMaterial(40)
	require.NoError(t, err)
	require.Equal(t, clientKeys, serverKeys)

	require.NotNil(t, client.RemoteCertificate())
	require.NotNil(t, server.RemoteCertificate())

	client.Close()
	server.Close()
}

func TestHandshakeRequireExtendedMasterSecretSucceedsWhenBothSidesNegotiateIt(t *testing.T) {
	clientTransport, serverTransport := wireTransports()

	clientConfig := testConfig()
	clientConfig.RequireExtendedMasterSecret = true
	serverConfig := testConfig()
	serverConfig.RequireExtendedMasterSecret = true

	client, err := NewClient(clientTransport, clientConfig)
	require.NoError(t, err)
	server, err := NewServer(serverTransport, serverConfig)
	require.NoError(t, err)

	clientErr := make(chan error, 1)
	serverErr := make(chan error, 1)
	go func() { clientErr <- client.Handshake() }()
	go func() { serverErr <- server.Handshake() }()
	require.NoError(t, <-clientErr)
	require.NoError(t, <-serverErr)

	// pion/dtls itself enforces RequireExtendedMasterSecret during the
	// handshake now (spec's resolved open question 3, superseded: the
	// engine rejects a non-EMS peer before Handshake returns, rather than
	// this package deferring the check to export time).
	_, err = server.ExportKeyingMaterial(40)
	require.NoError(t, err)

	client.Close()
	server.Close()
}

func TestNegotiatedProfileDefaultsBeforeHandshakeCompletes(t *testing.T) {
	transport := NewAdapter(nil)
	conn, err := newConn(roleServer, transport, testConfig())
	require.NoError(t, err)

	// Spec section 4.5: a peer that never selected a protection profile
	// (here, because no handshake has run at all) falls back to
	// AES128_CM_HMAC_SHA1_80 rather than reporting no profile.
	require.Equal(t, uint16(defaultSRTPProfile), conn.NegotiatedProfile())
}
