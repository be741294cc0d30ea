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
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-jwtkeys/pkg/encoding"
	"github.com/jeremyhahn/go-jwtkeys/pkg/metrics"
	"github.com/jeremyhahn/go-jwtkeys/pkg/signing"
	"github.com/jeremyhahn/go-jwtkeys/pkg/types"
	"github.com/jeremyhahn/go-jwtkeys/pkg/verification"
)

// Signature encodings.
const (
	encodingBase64URL = "base64url"
	encodingBase64    = "base64"
	encodingHex       = "hex"
)

// ErrSignatureMismatch is returned by verify after printing an invalid
// result, so the process exits non-zero.
var ErrSignatureMismatch = errors.New("signature verification failed")

// payloadFlags selects the bytes to sign or verify.
type payloadFlags struct {
	input string
	data  string
}

func (p *payloadFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&p.input, "input", "i", "-", "file holding the payload, or - for standard input")
	cmd.Flags().StringVar(&p.data, "data", "", "payload given inline instead of --input")
}

func (p *payloadFlags) read(a *app, cmd *cobra.Command) ([]byte, error) {
	if cmd.Flags().Changed("data") {
		return []byte(p.data), nil
	}
	return a.readInput(p.input)
}

func encodeSignature(sig []byte, enc string) (string, error) {
	switch strings.ToLower(enc) {
	case encodingBase64URL:
		return base64.RawURLEncoding.EncodeToString(sig), nil
	case encodingBase64:
		return base64.StdEncoding.EncodeToString(sig), nil
	case encodingHex:
		return hex.EncodeToString(sig), nil
	default:
		return "", fmt.Errorf("unknown signature encoding %q (must be base64url, base64 or hex)", enc)
	}
}

func decodeSignature(sig, enc string) ([]byte, error) {
	sig = strings.TrimSpace(sig)
	switch strings.ToLower(enc) {
	case encodingBase64URL:
		return base64.RawURLEncoding.DecodeString(strings.TrimRight(sig, "="))
	case encodingBase64:
		return base64.StdEncoding.DecodeString(sig)
	case encodingHex:
		return hex.DecodeString(sig)
	default:
		return nil, fmt.Errorf("unknown signature encoding %q (must be base64url, base64 or hex)", enc)
	}
}

func newSignCmd(a *app) *cobra.Command {
	var (
		keyRef   string
		alg      string
		sigEnc   string
		password string
		payload  payloadFlags
	)

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a payload with an RSA private key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			algorithm, err := types.ParseAlgorithm(alg)
			if err != nil {
				return err
			}
			text, err := a.loadKeyText(cmd.Context(), keyRef)
			if err != nil {
				return err
			}
			key, err := encoding.PrivateKeyFromEncryptedPEM(text, []byte(password))
			if err != nil {
				return err
			}
			signer, err := signing.NewSigner(algorithm, key.Key)
			if err != nil {
				return err
			}
			data, err := payload.read(a, cmd)
			if err != nil {
				return err
			}

			start := time.Now()
			sig, err := signer.SignBytes(data)
			metrics.Observe(metrics.OpSign, algorithm, start, err)
			if err != nil {
				return err
			}

			encoded, err := encodeSignature(sig, sigEnc)
			if err != nil {
				return err
			}
			return a.printer().PrintValue("signature", encoded)
		},
	}
	cmd.Flags().StringVarP(&keyRef, "key", "k", "", "private key reference")
	cmd.Flags().StringVarP(&alg, "alg", "a", types.RS256.String(), "signature algorithm (RS256, RS384, RS512)")
	cmd.Flags().StringVarP(&sigEnc, "encoding", "e", encodingBase64URL, "signature encoding (base64url, base64, hex)")
	cmd.Flags().StringVar(&password, "password", "", "password for an encrypted PKCS#8 key")
	payload.register(cmd)
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func newVerifyCmd(a *app) *cobra.Command {
	var (
		keyRef    string
		alg       string
		signature string
		sigEnc    string
		payload   payloadFlags
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a signature with an RSA public key, certificate or private key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			algorithm, err := types.ParseAlgorithm(alg)
			if err != nil {
				return err
			}
			text, err := a.loadKeyText(cmd.Context(), keyRef)
			if err != nil {
				return err
			}
			verifier, err := verification.NewRSAVerifierFromPEM(text)
			if err != nil {
				return err
			}
			sig, err := decodeSignature(signature, sigEnc)
			if err != nil {
				return fmt.Errorf("invalid signature encoding: %w", err)
			}
			data, err := payload.read(a, cmd)
			if err != nil {
				return err
			}

			start := time.Now()
			err = verifier.Verify(algorithm, data, sig)
			metrics.Observe(metrics.OpVerify, algorithm, start, err)

			switch {
			case err == nil:
				return a.printer().PrintVerifyResult(algorithm.String(), true, "")
			case errors.Is(err, verification.ErrInvalidSignature):
				if printErr := a.printer().PrintVerifyResult(algorithm.String(), false, err.Error()); printErr != nil {
					return printErr
				}
				return ErrSignatureMismatch
			default:
				return err
			}
		},
	}
	cmd.Flags().StringVarP(&keyRef, "key", "k", "", "public key, certificate or private key reference")
	cmd.Flags().StringVarP(&alg, "alg", "a", types.RS256.String(), "signature algorithm (RS256, RS384, RS512)")
	cmd.Flags().StringVarP(&signature, "signature", "s", "", "encoded signature")
	cmd.Flags().StringVarP(&sigEnc, "encoding", "e", encodingBase64URL, "signature encoding (base64url, base64, hex)")
	payload.register(cmd)
	_ = cmd.MarkFlagRequired("key")
	_ = cmd.MarkFlagRequired("signature")
	return cmd
}
