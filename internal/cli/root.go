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

// Package cli implements the jwtkeys command line tool.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-jwtkeys/pkg/logging"
)

// app carries the state shared by one command tree.
type app struct {
	config *Config
	viper  *viper.Viper
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// NewRootCmd builds the jwtkeys command tree writing to out and errOut.
func NewRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{
		config: NewConfig(),
		in:     in,
		out:    out,
		errOut: errOut,
	}

	rootCmd := &cobra.Command{
		Use:   "jwtkeys",
		Short: "jwtkeys - RSA key material and JWS signature tool",
		Long: `jwtkeys inspects and converts RSA key material in PEM form, computes
X.509 certificate thumbprints, produces and checks RS256, RS384 and RS512
signatures and JSON Web Tokens, and serves a JWK Set over HTTP.

Key arguments accept a file path, "-" for standard input, or
"vault:<path>[#field]" for a HashiCorp Vault KV v2 secret.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := newViper(cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			a.viper = v
			a.config = resolveConfig(v)
			switch OutputFormat(a.config.OutputFormat) {
			case OutputFormatText, OutputFormatJSON:
				return nil
			default:
				return fmt.Errorf("unknown output format: %s", a.config.OutputFormat)
			}
		},
	}
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	addGlobalFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newVersionCmd(a),
		newPEMCmd(a),
		newThumbprintCmd(a),
		newFingerprintCmd(a),
		newSignCmd(a),
		newVerifyCmd(a),
		newJWKCmd(a),
		newTokenCmd(a),
		newServeCmd(a),
	)

	return rootCmd
}

// Execute runs the root command against the process streams and prints
// any error to stderr in the selected output format.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd(os.Stdin, os.Stdout, os.Stderr)
	cmd, err := rootCmd.ExecuteContextC(ctx)
	if err != nil {
		format := string(OutputFormatText)
		if cmd != nil {
			if f := cmd.Flag(flagOutput); f != nil {
				format = f.Value.String()
			}
		}
		_ = NewPrinter(format, os.Stderr).PrintError(err)
	}
	return err
}

func (a *app) printer() *Printer {
	return NewPrinter(a.config.OutputFormat, a.out)
}

// logger builds a logger writing to the error stream.
func (a *app) logger() (*logging.Logger, error) {
	return logging.New(logging.Options{
		Level:  a.config.LogLevel,
		Format: a.config.LogFormat,
		Output: a.errOut,
	})
}
