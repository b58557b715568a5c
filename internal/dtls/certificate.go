// Portions of this file are:
//
// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// Adapted from the teacher's root certificate.go#generateCertificate:
// same ECDSA P-256/SHA-256 self-signed certificate shape and fingerprint
// formatting, generalized into an exported GenerateSelfSigned/Fingerprint
// pair usable by both Client and Server, and into a HashAlgorithm-keyed
// fingerprint so other digests can be added later without an API break.

package dtls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// HashAlgorithm identifies a certificate fingerprint digest (RFC 8122).
type HashAlgorithm uint8

const (
	HashAlgorithmSHA1   HashAlgorithm = 0x02
	HashAlgorithmSHA256 HashAlgorithm = 0x04
	HashAlgorithmSHA384 HashAlgorithm = 0x05
	HashAlgorithmSHA512 HashAlgorithm = 0x06
)

const selfSignedValidity = 30 * 24 * time.Hour

// GenerateSelfSigned creates a self-signed ECDSA P-256 certificate good
// for selfSignedValidity, the shape every real DTLS-SRTP peer uses since
// the certificate itself is never CA-validated -- only its fingerprint,
// carried out of band (e.g. in SDP), is trusted.
func GenerateSelfSigned() (*x509.Certificate, *ecdsa.PrivateKey, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, errors.Wrap(err, "dtls: generate key")
	}

	serialLimit := new(big.Int).Lsh(big.NewInt(1), 128)
	serial, err := rand.Int(rand.Reader, serialLimit)
	if err != nil {
		return nil, nil, errors.Wrap(err, "dtls: generate serial number")
	}

	notBefore := time.Now()
	template := x509.Certificate{
		SignatureAlgorithm: x509.ECDSAWithSHA256,
		SerialNumber:       serial,
		Subject:            pkix.Name{CommonName: "dtlssrtp"},
		NotBefore:          notBefore,
		NotAfter:           notBefore.Add(selfSignedValidity),
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return nil, nil, errors.Wrap(err, "dtls: create certificate")
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, nil, errors.Wrap(err, "dtls: parse generated certificate")
	}

	return cert, priv, nil
}

// Fingerprint computes the RFC 8122 "hash-algorithm fingerprint" of a
// certificate's DER encoding, formatted as colon-separated uppercase hex
// pairs prefixed with the algorithm name -- the form an SDP a=fingerprint
// line carries.
func Fingerprint(cert *x509.Certificate, alg HashAlgorithm) (string, error) {
	if alg != HashAlgorithmSHA256 {
		return "", errors.Errorf("dtls: unsupported fingerprint hash algorithm %d", alg)
	}

	sum := sha256.Sum256(cert.Raw)
	parts := make([]string, len(sum))
	for i, b := range sum {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return "sha-256 " + strings.Join(parts, ":"), nil
}
