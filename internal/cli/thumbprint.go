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
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-jwtkeys/pkg/encoding/x5t"
	"github.com/jeremyhahn/go-jwtkeys/pkg/metrics"
)

func newThumbprintCmd(a *app) *cobra.Command {
	var (
		digest      string
		fingerprint bool
	)

	cmd := &cobra.Command{
		Use:   "thumbprint [certificate]",
		Short: "Compute the x5t thumbprint of a PEM certificate",
		Long: `Compute the base64url thumbprint of an X.509 certificate, as used by
the JOSE "x5t" (SHA-1) and "x5t#S256" (SHA-256) header parameters.
Digests: SHA-1, SHA-224, SHA-256, SHA-384, SHA-512, SHA-512/224, SHA-512/256.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.loadKeyText(cmd.Context(), argOrStdin(args))
			if err != nil {
				return err
			}

			start := time.Now()
			thumbprint, err := x5t.GenerateFromPEM(digest, text)
			metrics.Observe(metrics.OpThumbprint, "", start, err)
			if err != nil {
				return err
			}

			if fingerprint {
				hex, err := x5t.ThumbprintToFingerprint(thumbprint)
				if err != nil {
					return err
				}
				return a.printer().PrintValue("fingerprint", hex)
			}
			return a.printer().PrintValue("x5t", thumbprint)
		},
	}
	cmd.Flags().StringVarP(&digest, "digest", "d", x5t.DefaultDigest, "digest algorithm")
	cmd.Flags().BoolVar(&fingerprint, "fingerprint", false, "print a hex fingerprint instead of base64url")
	return cmd
}

func newFingerprintCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Convert between hex fingerprints and x5t thumbprints",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "to-x5t <hex>",
		Short: "Convert a hex fingerprint to a base64url thumbprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			thumbprint, err := x5t.FingerprintToThumbprint(args[0])
			if err != nil {
				return err
			}
			return a.printer().PrintValue("x5t", thumbprint)
		},
	}, &cobra.Command{
		Use:   "from-x5t <thumbprint>",
		Short: "Convert a base64url thumbprint to a hex fingerprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fingerprint, err := x5t.ThumbprintToFingerprint(args[0])
			if err != nil {
				return err
			}
			return a.printer().PrintValue("fingerprint", fingerprint)
		},
	})

	return cmd
}
