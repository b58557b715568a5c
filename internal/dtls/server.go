// Copyright 2019 Lanikai Labs. All rights reserved.
//
// Server is the tagged server-role variant spec section 9's "role
// polymorphism" note calls for, replacing the teacher's informal
// DefaultTlsServer split implied alongside dtls.Client(...) in
// peer_connection.go.

package dtls

// Server drives the DTLS-SRTP handshake from the responding side: it
// waits for a ClientHello, runs the stateless cookie round trip, and
// presents its own certificate.
type Server struct {
	*Conn
}

// NewServer creates a Server ready to run Handshake over transport.
func NewServer(transport *Adapter, config *Config) (*Server, error) {
	conn, err := newConn(roleServer, transport, config)
	if err != nil {
		return nil, err
	}
	return &Server{Conn: conn}, nil
}
