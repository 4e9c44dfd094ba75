package cmd

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ssargent/crunchybytes/pkg/di"
)

// Binary text encodings accepted by encode and decode
const (
	formatHex    = "hex"
	formatBase64 = "base64"
)

func formatBinary(data []byte, format string) (string, error) {
	switch format {
	case formatHex:
		return hex.EncodeToString(data), nil
	case formatBase64:
		return base64.StdEncoding.EncodeToString(data), nil
	}
	return "", fmt.Errorf("unknown format %q (want %q or %q)", format, formatHex, formatBase64)
}

func parseBinary(text, format string) ([]byte, error) {
	text = strings.TrimSpace(text)
	switch format {
	case formatHex:
		return hex.DecodeString(text)
	case formatBase64:
		return base64.StdEncoding.DecodeString(text)
	}
	return nil, fmt.Errorf("unknown format %q (want %q or %q)", format, formatHex, formatBase64)
}

func newEncodeCmd(c *cli) *cobra.Command {
	var format string

	encodeCmd := &cobra.Command{
		Use:   "encode <schema> <json|->",
		Short: "Encode a JSON object with a schema",
		Long: `Encode a JSON object with the named schema and print the binary encoding.
Buffers are given as base64 strings, references as objects and sets as arrays.
Pass - to read the JSON from stdin.

Example:
  crunchy encode test::OneBool '{"boolean": true}'`,
		Args: cobra.ExactArgs(2),
		RunE: c.withContainer(func(cmd *cobra.Command, args []string, container *di.Container) error {
			reg, err := container.Registry()
			if err != nil {
				return err
			}
			input, err := readArg(cmd, args[1])
			if err != nil {
				return err
			}
			values, err := parseValues(input)
			if err != nil {
				return err
			}
			data, err := reg.Encode(args[0], values)
			if err != nil {
				return err
			}
			text, err := formatBinary(data, format)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		}),
	}

	encodeCmd.Flags().StringVarP(&format, "format", "f", formatHex, "Output format: hex or base64")
	return encodeCmd
}

func newDecodeCmd(c *cli) *cobra.Command {
	var format string

	decodeCmd := &cobra.Command{
		Use:   "decode <schema> <data|->",
		Short: "Decode binary data with a schema",
		Long: `Decode one record of the named schema and print it as JSON. The data must
hold exactly one record. Pass - to read the data from stdin.

Example:
  crunchy decode test::OneBool 01`,
		Args: cobra.ExactArgs(2),
		RunE: c.withContainer(func(cmd *cobra.Command, args []string, container *di.Container) error {
			reg, err := container.Registry()
			if err != nil {
				return err
			}
			input, err := readArg(cmd, args[1])
			if err != nil {
				return err
			}
			data, err := parseBinary(string(input), format)
			if err != nil {
				return fmt.Errorf("invalid %s data: %w", format, err)
			}
			rec, err := reg.Decode(args[0], data)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		}),
	}

	decodeCmd.Flags().StringVarP(&format, "format", "f", formatHex, "Input format: hex or base64")
	return decodeCmd
}
