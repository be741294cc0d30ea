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
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-jwtkeys/pkg/encoding"
	"github.com/jeremyhahn/go-jwtkeys/pkg/encoding/jwk"
	jwtkeys "github.com/jeremyhahn/go-jwtkeys/pkg/encoding/jwt"
	"github.com/jeremyhahn/go-jwtkeys/pkg/metrics"
	"github.com/jeremyhahn/go-jwtkeys/pkg/signing"
	"github.com/jeremyhahn/go-jwtkeys/pkg/types"
	"github.com/jeremyhahn/go-jwtkeys/pkg/verification"
)

func newTokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign and verify JSON Web Tokens",
	}
	cmd.AddCommand(newTokenSignCmd(a), newTokenVerifyCmd(a))
	return cmd
}

func newTokenSignCmd(a *app) *cobra.Command {
	var (
		keyRef   string
		certRef  string
		alg      string
		kid      string
		claims   string
		issuer   string
		subject  string
		audience []string
		expires  time.Duration
		password string
	)

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a JWT with an RSA private key",
		Long: `Sign a JWT. Claims are given as a JSON object, inline or as @file. The
kid header defaults to the RFC 7638 thumbprint of the key; --cert adds an
x5t header for the certificate.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			algorithm, err := types.ParseAlgorithm(alg)
			if err != nil {
				return err
			}

			mapClaims, err := a.parseClaims(claims)
			if err != nil {
				return err
			}
			now := time.Now()
			if _, ok := mapClaims["iat"]; !ok {
				mapClaims["iat"] = now.Unix()
			}
			if issuer != "" {
				mapClaims["iss"] = issuer
			}
			if subject != "" {
				mapClaims["sub"] = subject
			}
			if len(audience) == 1 {
				mapClaims["aud"] = audience[0]
			} else if len(audience) > 1 {
				mapClaims["aud"] = audience
			}
			if expires > 0 {
				mapClaims["exp"] = now.Add(expires).Unix()
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

			var opts []jwtkeys.SignerOption
			if kid != "" {
				opts = append(opts, jwtkeys.WithKeyID(kid))
			}
			if certRef != "" {
				certText, err := a.loadKeyText(cmd.Context(), certRef)
				if err != nil {
					return err
				}
				env, err := encoding.Decode(certText)
				if err != nil {
					return err
				}
				cert, err := encoding.Certificate(env)
				if err != nil {
					return err
				}
				opts = append(opts, jwtkeys.WithCertificate(cert))
			}

			tokenSigner, err := jwtkeys.NewSigner(signer, opts...)
			if err != nil {
				return err
			}

			start := time.Now()
			token, err := tokenSigner.SignClaims(mapClaims)
			metrics.Observe(metrics.OpSign, algorithm, start, err)
			if err != nil {
				return err
			}
			return a.printer().PrintValue("token", token)
		},
	}
	cmd.Flags().StringVarP(&keyRef, "key", "k", "", "private key reference")
	cmd.Flags().StringVar(&certRef, "cert", "", "certificate reference for the x5t header")
	cmd.Flags().StringVarP(&alg, "alg", "a", types.RS256.String(), "signature algorithm (RS256, RS384, RS512)")
	cmd.Flags().StringVar(&kid, "kid", "", "kid header instead of the RFC 7638 thumbprint")
	cmd.Flags().StringVarP(&claims, "claims", "c", "{}", "claims as JSON, or @file")
	cmd.Flags().StringVar(&issuer, "issuer", "", "iss claim")
	cmd.Flags().StringVar(&subject, "subject", "", "sub claim")
	cmd.Flags().StringSliceVar(&audience, "audience", nil, "aud claim (repeatable)")
	cmd.Flags().DurationVar(&expires, "expires", 0, "exp claim relative to now, e.g. 1h")
	cmd.Flags().StringVar(&password, "password", "", "password for an encrypted PKCS#8 key")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func newTokenVerifyCmd(a *app) *cobra.Command {
	var (
		keyRefs    []string
		jwksFile   string
		issuer     string
		audience   string
		leeway     time.Duration
		requireExp bool
	)

	cmd := &cobra.Command{
		Use:   "verify [token]",
		Short: "Verify a JWT against RSA keys or a JWK Set",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(keyRefs) == 0 && jwksFile == "" {
				return fmt.Errorf("one of --key or --jwks is required")
			}

			var tokenString string
			if len(args) == 1 && args[0] != "-" {
				tokenString = args[0]
			} else {
				data, err := a.readInput("-")
				if err != nil {
					return err
				}
				tokenString = string(data)
			}
			tokenString = strings.TrimSpace(tokenString)

			var parserOpts []jwt.ParserOption
			if issuer != "" {
				parserOpts = append(parserOpts, jwt.WithIssuer(issuer))
			}
			if audience != "" {
				parserOpts = append(parserOpts, jwt.WithAudience(audience))
			}
			if leeway > 0 {
				parserOpts = append(parserOpts, jwt.WithLeeway(leeway))
			}
			if requireExp {
				parserOpts = append(parserOpts, jwt.WithExpirationRequired())
			}

			verifier := jwtkeys.NewVerifier(parserOpts...)
			if jwksFile != "" {
				data, err := a.readInput(jwksFile)
				if err != nil {
					return err
				}
				set, err := jwk.ParseSet(data)
				if err != nil {
					return err
				}
				if verifier, err = jwtkeys.NewVerifierFromSet(set, parserOpts...); err != nil {
					return err
				}
			}
			for _, ref := range keyRefs {
				text, err := a.loadKeyText(cmd.Context(), ref)
				if err != nil {
					return err
				}
				pub, err := encoding.PublicKeyFromPEM(text)
				if err != nil {
					return err
				}
				kid, err := jwk.KeyID(pub)
				if err != nil {
					return err
				}
				verifier.AddKey(kid, verification.NewRSAVerifier(pub))
			}

			claims := jwt.MapClaims{}
			start := time.Now()
			token, err := verifier.Parse(tokenString, claims)
			alg := types.Algorithm("")
			if token != nil {
				if name, ok := token.Header["alg"].(string); ok {
					alg = types.Algorithm(name)
				}
			}
			metrics.Observe(metrics.OpVerify, alg, start, err)
			if err != nil {
				return err
			}
			return a.printer().PrintToken(token.Header, claims)
		},
	}
	cmd.Flags().StringSliceVarP(&keyRefs, "key", "k", nil, "public key, certificate or private key reference (repeatable)")
	cmd.Flags().StringVar(&jwksFile, "jwks", "", "JWK Set file")
	cmd.Flags().StringVar(&issuer, "issuer", "", "required iss claim")
	cmd.Flags().StringVar(&audience, "audience", "", "required aud claim")
	cmd.Flags().DurationVar(&leeway, "leeway", 0, "clock skew allowed for exp, nbf and iat")
	cmd.Flags().BoolVar(&requireExp, "require-exp", false, "reject tokens without an exp claim")
	return cmd
}

// parseClaims decodes a JSON object given inline or as @file.
func (a *app) parseClaims(value string) (jwt.MapClaims, error) {
	data := []byte(value)
	if path, ok := strings.CutPrefix(value, "@"); ok {
		var err error
		if data, err = a.readInput(path); err != nil {
			return nil, err
		}
	}

	claims := jwt.MapClaims{}
	if err := json.Unmarshal(data, &claims); err != nil {
		return nil, fmt.Errorf("invalid claims JSON: %w", err)
	}
	return claims, nil
}
