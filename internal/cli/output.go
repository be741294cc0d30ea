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
	"io"
	"strings"
	"time"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(format),
		writer: writer,
	}
}

// KeyInfo describes a decoded PEM envelope.
type KeyInfo struct {
	Kind      string `json:"kind"`
	Private   bool   `json:"private"`
	Encrypted bool   `json:"encrypted,omitempty"`
	Bits      int    `json:"bits,omitempty"`
	Exponent  int    `json:"exponent,omitempty"`
	KeyID     string `json:"kid,omitempty"`

	Subject   string     `json:"subject,omitempty"`
	Issuer    string     `json:"issuer,omitempty"`
	Serial    string     `json:"serial,omitempty"`
	NotBefore *time.Time `json:"not_before,omitempty"`
	NotAfter  *time.Time `json:"not_after,omitempty"`
	X5T       string     `json:"x5t,omitempty"`
	X5TS256   string     `json:"x5t#S256,omitempty"`
}

// PrintKeyInfo prints the result of pem inspect
func (p *Printer) PrintKeyInfo(info *KeyInfo) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(info)
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Kind:      %s\n", info.Kind)
		if info.Encrypted {
			fmt.Fprintln(p.writer, "Encrypted: true")
		}
		if info.Bits > 0 {
			fmt.Fprintf(p.writer, "Key Size:  %d bits\n", info.Bits)
			fmt.Fprintf(p.writer, "Exponent:  %d\n", info.Exponent)
		}
		if info.KeyID != "" {
			fmt.Fprintf(p.writer, "Key ID:    %s\n", info.KeyID)
		}
		if info.Subject != "" {
			fmt.Fprintf(p.writer, "Subject:   %s\n", info.Subject)
			fmt.Fprintf(p.writer, "Issuer:    %s\n", info.Issuer)
			fmt.Fprintf(p.writer, "Serial:    %s\n", info.Serial)
		}
		if info.NotBefore != nil && info.NotAfter != nil {
			fmt.Fprintf(p.writer, "Valid:     %s to %s\n",
				info.NotBefore.UTC().Format(time.RFC3339), info.NotAfter.UTC().Format(time.RFC3339))
		}
		if info.X5T != "" {
			fmt.Fprintf(p.writer, "x5t:       %s\n", info.X5T)
			fmt.Fprintf(p.writer, "x5t#S256:  %s\n", info.X5TS256)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintValue prints a single named value: the bare value as text, or an
// object with one member as JSON.
func (p *Printer) PrintValue(name, value string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]string{name: value})
	case OutputFormatText:
		if strings.HasSuffix(value, "\n") {
			_, err := io.WriteString(p.writer, value)
			return err
		}
		_, err := fmt.Fprintln(p.writer, value)
		return err
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintVerifyResult prints the outcome of a signature check
func (p *Printer) PrintVerifyResult(alg string, valid bool, reason string) error {
	switch p.format {
	case OutputFormatJSON:
		result := map[string]any{
			"algorithm": alg,
			"valid":     valid,
		}
		if reason != "" {
			result["reason"] = reason
		}
		return p.printJSON(result)
	case OutputFormatText:
		if valid {
			fmt.Fprintf(p.writer, "Signature valid (%s)\n", alg)
			return nil
		}
		fmt.Fprintf(p.writer, "Signature INVALID (%s): %s\n", alg, reason)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintDocument prints an already encoded JSON document. Both formats
// print it indented.
func (p *Printer) PrintDocument(doc any) error {
	switch p.format {
	case OutputFormatJSON, OutputFormatText:
		return p.printJSON(doc)
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintToken prints a verified token's header and claims
func (p *Printer) PrintToken(header, claims map[string]any) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]any{
			"valid":  true,
			"header": header,
			"claims": claims,
		})
	case OutputFormatText:
		fmt.Fprintln(p.writer, "Token valid")
		fmt.Fprintln(p.writer, "Header:")
		if err := p.printIndented(header); err != nil {
			return err
		}
		fmt.Fprintln(p.writer, "Claims:")
		return p.printIndented(claims)
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]any{
			"error": err.Error(),
		})
	default:
		_, writeErr := fmt.Fprintf(p.writer, "Error: %v\n", err)
		return writeErr
	}
}

// printJSON prints data as JSON
func (p *Printer) printJSON(data any) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func (p *Printer) printIndented(data any) error {
	encoded, err := json.MarshalIndent(data, "  ", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(p.writer, "  %s\n", encoded)
	return err
}
