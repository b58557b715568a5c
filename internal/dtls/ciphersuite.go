// Copyright 2019 Lanikai Labs. All rights reserved.
//
// Certificate-driven cipher suite selection (spec section 4.5). The
// actual ECDHE key exchange, record protection, and suite negotiation
// are pion/dtls's job now (github.com/pion/dtls/v2); this file only
// picks which of pion's CipherSuiteIDs to offer, based on the local
// certificate's signing key type, matching the teacher's dtls.go intent
// of driving suite choice off the certificate rather than hardcoding
// one suite.

package dtls

import (
	"crypto/x509"

	"github.com/pion/dtls/v2"
)

// cipherSuitesForCertificate returns the ECDHE-ECDSA or ECDHE-RSA suite
// list to hand pion/dtls, in preference order, driven by the local
// certificate's signature algorithm. The client certificate is used only
// for peer authentication and never constrains this list (spec section
// 4.5).
func cipherSuitesForCertificate(cert *x509.Certificate) []dtls.CipherSuiteID {
	switch cert.SignatureAlgorithm {
	case x509.ECDSAWithSHA1, x509.ECDSAWithSHA256, x509.ECDSAWithSHA384, x509.ECDSAWithSHA512:
		return []dtls.CipherSuiteID{
			dtls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			dtls.TLS_ECDHE_ECDSA_WITH_AES_128_CBC_SHA,
			dtls.TLS_ECDHE_ECDSA_WITH_AES_256_CBC_SHA,
			dtls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
		}
	default:
		return []dtls.CipherSuiteID{
			dtls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			dtls.TLS_ECDHE_RSA_WITH_AES_128_CBC_SHA,
			dtls.TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA,
			dtls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
		}
	}
}
