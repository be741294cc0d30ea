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


package testutil

import (
	"crypto/x509"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-jwtkeys/pkg/encoding"
)

func TestGenerateTestServerCert(t *testing.T) {
	ca, err := GenerateTestCA()
	require.NoError(t, err)
	assert.True(t, ca.Cert.IsCA)

	cert, err := GenerateTestServerCert(ca)
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost"}, cert.Cert.DNSNames)

	roots := x509.NewCertPool()
	roots.AddCert(ca.Cert)
	_, err = cert.Cert.Verify(x509.VerifyOptions{
		Roots:     roots,
		DNSName:   "127.0.0.1",
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	})
	assert.NoError(t, err)

	tlsCert, err := cert.TLSCertificate()
	require.NoError(t, err)
	assert.Len(t, tlsCert.Certificate, 1)

	certFile, keyFile, err := cert.WriteFiles(t.TempDir())
	require.NoError(t, err)
	assert.FileExists(t, certFile)
	assert.FileExists(t, keyFile)
}

func TestIssueTestCert(t *testing.T) {
	ca, err := GenerateTestCA()
	require.NoError(t, err)

	cert, err := IssueTestCert(ca, ca.Key, "")
	require.NoError(t, err)
	assert.Equal(t, "test-signer", cert.Cert.Subject.CommonName)
	assert.True(t, ca.Key.PublicKey.Equal(cert.Cert.PublicKey))
	assert.NoError(t, cert.Cert.CheckSignatureFrom(ca.Cert))

	key, err := encoding.PrivateKeyFromPEM(cert.KeyPEM)
	require.NoError(t, err)
	assert.Equal(t, encoding.FormatPKCS1, key.Format)
	assert.True(t, key.Key.Equal(ca.Key))
}
