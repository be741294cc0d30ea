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

package cli

import (
	"crypto/rsa"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-jwtkeys/pkg/encoding"
	"github.com/jeremyhahn/go-jwtkeys/pkg/encoding/jwk"
	"github.com/jeremyhahn/go-jwtkeys/pkg/encoding/x5t"
	"github.com/jeremyhahn/go-jwtkeys/pkg/metrics"
)

// Conversion targets accepted by pem convert --to.
const (
	targetPKCS1       = "pkcs1"
	targetPKCS8       = "pkcs8"
	targetPublic      = "public"
	targetPKCS1Public = "pkcs1-public"
)

func newPEMCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pem",
		Short: "Inspect and convert PEM key material",
	}
	cmd.AddCommand(newPEMInspectCmd(a), newPEMConvertCmd(a))
	return cmd
}

func newPEMInspectCmd(a *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "inspect [key]",
		Short: "Describe a PEM private key, public key or certificate",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.loadKeyText(cmd.Context(), argOrStdin(args))
			if err != nil {
				return err
			}

			start := time.Now()
			info, err := inspect(text, []byte(password))
			metrics.Observe(metrics.OpParse, "", start, err)
			if err != nil {
				return err
			}
			return a.printer().PrintKeyInfo(info)
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password for an encrypted PKCS#8 key")
	return cmd
}

func inspect(text string, password []byte) (*KeyInfo, error) {
	env, err := encoding.Decode(text)
	if err != nil {
		return nil, err
	}

	info := &KeyInfo{
		Kind:    env.Kind.String(),
		Private: env.Kind.IsPrivate() || env.Kind == encoding.KindPKCS8Encrypted,
	}

	var pub *rsa.PublicKey
	switch env.Kind {
	case encoding.KindPKCS8Encrypted:
		info.Encrypted = true
		if len(password) == 0 {
			return info, nil
		}
		key, err := encoding.PrivateKeyFromEncryptedPEM(text, password)
		if err != nil {
			return nil, err
		}
		pub = key.Public()
	case encoding.KindPKCS1Private, encoding.KindPKCS8Private:
		spec, err := encoding.PrivateKeySpec(env)
		if err != nil {
			return nil, err
		}
		key, err := spec.PrivateKey()
		if err != nil {
			return nil, err
		}
		pub = key.Public()
	case encoding.KindX509Certificate:
		cert, err := encoding.Certificate(env)
		if err != nil {
			return nil, err
		}
		info.Subject = cert.Subject.String()
		info.Issuer = cert.Issuer.String()
		info.Serial = cert.SerialNumber.String()
		info.NotBefore = &cert.NotBefore
		info.NotAfter = &cert.NotAfter
		if info.X5T, err = x5t.GenerateSHA1(cert.Raw); err != nil {
			return nil, err
		}
		if info.X5TS256, err = x5t.GenerateSHA256(cert.Raw); err != nil {
			return nil, err
		}
		if pub, err = encoding.PublicKeyMaterial(env); err != nil {
			return nil, err
		}
	default:
		if pub, err = encoding.PublicKeyMaterial(env); err != nil {
			return nil, err
		}
	}

	info.Bits = pub.N.BitLen()
	info.Exponent = pub.E
	if info.KeyID, err = jwk.KeyID(pub); err != nil {
		return nil, err
	}
	return info, nil
}

func newPEMConvertCmd(a *app) *cobra.Command {
	var (
		to          string
		password    string
		outPassword string
	)

	cmd := &cobra.Command{
		Use:   "convert [key]",
		Short: "Re-encode a key as PKCS#1, PKCS#8 or a public key",
		Long: `Re-encode a key. Targets:
  pkcs1         RSA PRIVATE KEY
  pkcs8         PRIVATE KEY, or ENCRYPTED PRIVATE KEY with --out-password
  public        PUBLIC KEY (X.509 SubjectPublicKeyInfo)
  pkcs1-public  RSA PUBLIC KEY`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.loadKeyText(cmd.Context(), argOrStdin(args))
			if err != nil {
				return err
			}

			start := time.Now()
			out, err := convert(text, strings.ToLower(to), []byte(password), []byte(outPassword))
			metrics.Observe(metrics.OpEncode, "", start, err)
			if err != nil {
				return err
			}
			return a.printer().PrintValue("pem", out)
		},
	}
	cmd.Flags().StringVar(&to, "to", targetPKCS8, "target encoding (pkcs1, pkcs8, public, pkcs1-public)")
	cmd.Flags().StringVar(&password, "password", "", "password for an encrypted input key")
	cmd.Flags().StringVar(&outPassword, "out-password", "", "encrypt PKCS#8 output with this password")
	return cmd
}

func convert(text, to string, password, outPassword []byte) (string, error) {
	switch to {
	case targetPublic, targetPKCS1Public:
		pub, err := publicKeyFromText(text, password)
		if err != nil {
			return "", err
		}
		if to == targetPublic {
			return encoding.PEMFromPublicKey(pub)
		}
		return encoding.PKCS1PEMFromPublicKey(pub)
	case targetPKCS1, targetPKCS8:
		key, err := encoding.PrivateKeyFromEncryptedPEM(text, password)
		if err != nil {
			return "", err
		}
		if to == targetPKCS1 {
			if len(outPassword) > 0 {
				return "", fmt.Errorf("--out-password requires --to %s", targetPKCS8)
			}
			return encoding.PEMFromPrivateKey(encoding.NewPrivateKey(key.Key, encoding.FormatPKCS1))
		}
		if len(outPassword) > 0 {
			return encoding.EncryptedPEMFromPrivateKey(key, outPassword)
		}
		return encoding.PEMFromPrivateKey(encoding.NewPrivateKey(key.Key, encoding.FormatPKCS8))
	default:
		return "", fmt.Errorf("unknown conversion target %q (must be pkcs1, pkcs8, public or pkcs1-public)", to)
	}
}

// publicKeyFromText accepts every envelope, decrypting an encrypted
// PKCS#8 key with password.
func publicKeyFromText(text string, password []byte) (*rsa.PublicKey, error) {
	env, err := encoding.Decode(text)
	if err != nil {
		return nil, err
	}
	if env.Kind == encoding.KindPKCS8Encrypted {
		key, err := encoding.PrivateKeyFromEncryptedPEM(text, password)
		if err != nil {
			return nil, err
		}
		return key.Public(), nil
	}
	return encoding.PublicKeyFromPEM(text)
}

func argOrStdin(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}
