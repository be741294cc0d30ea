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
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-jwtkeys/pkg/encoding/jwk"
	"github.com/jeremyhahn/go-jwtkeys/pkg/metrics"
	"github.com/jeremyhahn/go-jwtkeys/pkg/types"
)

func newJWKCmd(a *app) *cobra.Command {
	var (
		alg     string
		use     string
		kid     string
		private bool
		asSet   bool
	)

	cmd := &cobra.Command{
		Use:   "jwk [key...]",
		Short: "Render PEM keys or certificates as JSON Web Keys",
		Long: `Render PEM keys or certificates as JSON Web Keys. The key ID defaults to
the RFC 7638 SHA-256 thumbprint. Certificates also produce the x5c, x5t
and x5t#S256 members. Private members are omitted unless --private is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"-"}
			}
			opts := jwk.Options{Use: use, KeyID: kid}
			if alg != "" {
				algorithm, err := types.ParseAlgorithm(alg)
				if err != nil {
					return err
				}
				opts.Algorithm = algorithm
			}

			keys := make([]*jose.JSONWebKey, 0, len(args))
			for _, ref := range args {
				text, err := a.loadKeyText(cmd.Context(), ref)
				if err != nil {
					return err
				}
				start := time.Now()
				key, err := jwk.FromPEM(text, opts)
				metrics.Observe(metrics.OpEncode, opts.Algorithm, start, err)
				if err != nil {
					return err
				}
				keys = append(keys, key)
			}

			if asSet || len(keys) > 1 {
				set, err := jwk.NewSet(keys...)
				if err != nil {
					return err
				}
				return a.printer().PrintDocument(set)
			}

			key := keys[0]
			if !private {
				public := key.Public()
				key = &public
			}
			raw, err := jwk.Marshal(key)
			if err != nil {
				return err
			}
			return a.printer().PrintDocument(json.RawMessage(raw))
		},
	}
	cmd.Flags().StringVarP(&alg, "alg", "a", "", "alg member (RS256, RS384, RS512)")
	cmd.Flags().StringVar(&use, "use", jwk.UseSignature, "use member")
	cmd.Flags().StringVar(&kid, "kid", "", "key ID instead of the RFC 7638 thumbprint")
	cmd.Flags().BoolVar(&private, "private", false, "include private members")
	cmd.Flags().BoolVar(&asSet, "set", false, "wrap the output in a JWK Set")
	return cmd
}
