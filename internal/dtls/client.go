// Copyright 2019 Lanikai Labs. All rights reserved.
//
// Client is the tagged client-role variant spec section 9's "role
// polymorphism" note calls for, replacing the teacher's informal
// dtls.Client(...) constructor referenced (never defined) from
// peer_connection.go.

package dtls

// Client drives the DTLS-SRTP handshake from the initiating side: it
// sends the first ClientHello and verifies the server's certificate.
type Client struct {
	*Conn
}

// NewClient creates a Client ready to run Handshake over transport.
func NewClient(transport *Adapter, config *Config) (*Client, error) {
	conn, err := newConn(roleClient, transport, config)
	if err != nil {
		return nil, err
	}
	return &Client{Conn: conn}, nil
}
