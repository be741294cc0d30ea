// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-jwtkeys.
//
// go-jwtkeys is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.


// Package testutil generates RSA certificate fixtures for tests: a
// throwaway CA, leaf certificates for arbitrary keys, and TLS server
// certificates written to disk.
package testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/jeremyhahn/go-jwtkeys/pkg/encoding"
)

// TestKeySize is the modulus size of keys generated by this package.
const TestKeySize = 2048

// TestCA represents a test Certificate Authority
type TestCA struct {
	// Cert is the CA certificate
	Cert *x509.Certificate
	// Key is the CA private key
	Key *rsa.PrivateKey
	// CertPEM is the PEM-encoded CA certificate
	CertPEM string
}

// TestCertificate represents a generated test certificate
type TestCertificate struct {
	// Cert is the X.509 certificate
	Cert *x509.Certificate
	// Key is the private key
	Key *rsa.PrivateKey
	// CertPEM is the PEM-encoded certificate
	CertPEM string
	// KeyPEM is the PKCS#1 PEM-encoded private key
	KeyPEM string
}

// GenerateTestCA generates a self-signed RSA CA valid for 24 hours.
//
// Example:
//
//	ca, err := testutil.GenerateTestCA()
//	if err != nil {
//	    t.Fatalf("Failed to generate CA: %v", err)
//	}
func GenerateTestCA() (*TestCA, error) {
	key, err := rsa.GenerateKey(rand.Reader, TestKeySize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CA key: %w", err)
	}

	template, err := newTemplate("Test CA", "Test CA")
	if err != nil {
		return nil, err
	}
	template.IsCA = true
	template.KeyUsage = x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign
	template.BasicConstraintsValid = true

	cert, certPEM, err := createCertificate(template, template, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create CA certificate: %w", err)
	}

	return &TestCA{
		Cert:    cert,
		Key:     key,
		CertPEM: certPEM,
	}, nil
}

// IssueTestCert signs a certificate for key with the CA. A nil key is
// replaced with a freshly generated one.
func IssueTestCert(ca *TestCA, key *rsa.PrivateKey, commonName string) (*TestCertificate, error) {
	if commonName == "" {
		commonName = "test-signer"
	}
	template, err := newTemplate("Test Signer", commonName)
	if err != nil {
		return nil, err
	}
	template.KeyUsage = x509.KeyUsageDigitalSignature
	return issue(ca, key, template)
}

// GenerateTestServerCert generates a TLS server certificate signed by the
// CA. The certificate always covers 127.0.0.1 and ::1 in addition to
// dnsNames, which default to localhost.
func GenerateTestServerCert(ca *TestCA, dnsNames ...string) (*TestCertificate, error) {
	if len(dnsNames) == 0 {
		dnsNames = []string{"localhost"}
	}
	template, err := newTemplate("Test Server", dnsNames[0])
	if err != nil {
		return nil, err
	}
	template.DNSNames = dnsNames
	template.IPAddresses = []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback}
	template.KeyUsage = x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment
	template.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}
	return issue(ca, nil, template)
}

// TLSCertificate returns the certificate and key as a tls.Certificate.
func (c *TestCertificate) TLSCertificate() (tls.Certificate, error) {
	return tls.X509KeyPair([]byte(c.CertPEM), []byte(c.KeyPEM))
}

// WriteFiles writes cert.pem and key.pem into dir and returns their paths.
func (c *TestCertificate) WriteFiles(dir string) (certFile, keyFile string, err error) {
	certFile = filepath.Join(dir, "cert.pem")
	keyFile = filepath.Join(dir, "key.pem")
	if err := os.WriteFile(certFile, []byte(c.CertPEM), 0600); err != nil {
		return "", "", fmt.Errorf("failed to write certificate: %w", err)
	}
	if err := os.WriteFile(keyFile, []byte(c.KeyPEM), 0600); err != nil {
		return "", "", fmt.Errorf("failed to write key: %w", err)
	}
	return certFile, keyFile, nil
}

func issue(ca *TestCA, key *rsa.PrivateKey, template *x509.Certificate) (*TestCertificate, error) {
	if key == nil {
		var err error
		if key, err = rsa.GenerateKey(rand.Reader, TestKeySize); err != nil {
			return nil, fmt.Errorf("failed to generate key: %w", err)
		}
	}
	template.BasicConstraintsValid = true

	cert, certPEM, err := createCertificate(template, ca.Cert, &key.PublicKey, ca.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	keyPEM, err := encoding.PEMFromPrivateKey(encoding.NewPrivateKey(key, encoding.FormatPKCS1))
	if err != nil {
		return nil, fmt.Errorf("failed to encode key: %w", err)
	}

	return &TestCertificate{
		Cert:    cert,
		Key:     key,
		CertPEM: certPEM,
		KeyPEM:  keyPEM,
	}, nil
}

func newTemplate(organization, commonName string) (*x509.Certificate, error) {
	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	notBefore := time.Now().Add(-time.Minute)
	return &x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{organization},
			CommonName:   commonName,
		},
		NotBefore:          notBefore,
		NotAfter:           notBefore.Add(24 * time.Hour),
		SignatureAlgorithm: x509.SHA256WithRSA,
	}, nil
}

func createCertificate(template, parent *x509.Certificate, pub *rsa.PublicKey, signer *rsa.PrivateKey) (*x509.Certificate, string, error) {
	der, err := x509.CreateCertificate(rand.Reader, template, parent, pub, signer)
	if err != nil {
		return nil, "", err
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, "", err
	}
	certPEM, err := encoding.PEMFromCertificate(cert)
	if err != nil {
		return nil, "", err
	}
	return cert, certPEM, nil
}
