//////////////////////////////////////////////////////////////////////////////
//
// Config contains configuration data for a DTLS-SRTP handshake.
//
// Copyright 2019 Lanikai Labs. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package dtls

import (
	"crypto"
	"crypto/tls"
	"crypto/x509"
	"time"

	pion "github.com/pion/dtls/v2"

	"github.com/lanikai/dtlssrtp/internal/srtp"
)

// Config carries everything a Client or Server needs to run a handshake.
// There is no constructor; the zero value is filled in by
// withDefaults() wherever fields are left unset. It is this package's
// own host-facing shape, translated into a *pion.Config by toPionConfig
// rather than exposed directly, so a host application never has to know
// pion/dtls is the engine underneath.
type Config struct {
	// Certificate and PrivateKey authenticate this peer. Self-signed,
	// per spec section 4.5 -- generated with GenerateSelfSigned if left
	// nil.
	Certificate *x509.Certificate
	PrivateKey  crypto.PrivateKey

	// MTU bounds the size of a single handshake flight's UDP datagrams
	// (spec section 4.6). Fragmentation across records is pion/dtls's
	// own job now.
	MTU int

	// HandshakeTimeout bounds the whole handshake; exceeding it yields a
	// HandshakeError with KindHandshakeTimeout.
	HandshakeTimeout time.Duration

	// FlightInterval bounds the retransmission backoff between flight
	// retransmissions (spec section 4.6), handed straight through to
	// pion.Config.FlightInterval.
	FlightInterval time.Duration

	// RequireExtendedMasterSecret refuses to complete the handshake
	// (spec section 4.5/9) unless the peer negotiates RFC 7627. When
	// false, RFC 7627 is still offered and used whenever the peer
	// supports it, just not required.
	RequireExtendedMasterSecret bool

	// RequireClientCertificate demands and verifies a certificate from
	// the connecting peer on a Server, matching a client Peer's own
	// behavior of always presenting one (spec section 4.5: mutual
	// fingerprint-based authentication).
	RequireClientCertificate bool

	// SRTPProfiles is the ordered list of protection profiles offered in
	// the use_srtp extension. Defaults to srtp.DefaultProfiles().
	SRTPProfiles []uint16
}

const (
	defaultMTU              = 1200
	defaultHandshakeTimeout = 30 * time.Second
	defaultFlightInterval   = 1 * time.Second
)

func (c *Config) withDefaults() *Config {
	out := *c
	if out.MTU == 0 {
		out.MTU = defaultMTU
	}
	if out.HandshakeTimeout == 0 {
		out.HandshakeTimeout = defaultHandshakeTimeout
	}
	if out.FlightInterval == 0 {
		out.FlightInterval = defaultFlightInterval
	}
	if len(out.SRTPProfiles) == 0 {
		out.SRTPProfiles = srtp.DefaultProfiles()
	}
	return &out
}

// toPionConfig builds the pion/dtls engine configuration for one
// handshake attempt, translating this package's host-facing Config into
// the shape github.com/pion/dtls/v2.Client/Server actually takes.
// InsecureSkipVerify is always set: this package authenticates peers by
// out-of-band certificate fingerprint (spec section 6), not by CA chain,
// so pion must not reject the self-signed certificate on its own.
func (c *Config) toPionConfig(r role) (*pion.Config, error) {
	cert := c.Certificate
	key := c.PrivateKey
	if cert == nil || key == nil {
		generated, privKey, err := GenerateSelfSigned()
		if err != nil {
			return nil, err
		}
		cert = generated
		key = privKey
	}

	srtpProfiles := make([]pion.SRTPProtectionProfile, len(c.SRTPProfiles))
	for i, p := range c.SRTPProfiles {
		srtpProfiles[i] = pion.SRTPProtectionProfile(p)
	}

	ems := pion.RequestExtendedMasterSecret
	if c.RequireExtendedMasterSecret {
		ems = pion.RequireExtendedMasterSecret
	}

	pcfg := &pion.Config{
		Certificates: []tls.Certificate{{
			Certificate: [][]byte{cert.Raw},
			PrivateKey:  key,
			Leaf:        cert,
		}},
		CipherSuites:           cipherSuitesForCertificate(cert),
		SRTPProtectionProfiles: srtpProfiles,
		ExtendedMasterSecret:   ems,
		InsecureSkipVerify:     true,
		FlightInterval:         c.FlightInterval,
		MTU:                    c.MTU,
	}
	if r == roleServer && c.RequireClientCertificate {
		pcfg.ClientAuth = pion.RequireAnyClientCert
	}
	return pcfg, nil
}
