package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/ssargent/crunchybytes/pkg/di"
)

func newPutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "put <schema> <json|->",
		Short: "Encode a JSON object and store the record",
		Long: `Encode a JSON object with the named schema and store the encoding.
Prints the id of the new record.

Example:
  crunchy put test::OneBool '{"boolean": true}'`,
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

			s, err := container.Store()
			if err != nil {
				return err
			}
			id, err := s.Put(args[0], data)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id.String())
			return nil
		}),
	}
}

func newGetCmd(c *cli) *cobra.Command {
	var raw bool

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Decode and print a stored record",
		Args:  cobra.ExactArgs(1),
		RunE: c.withContainer(func(cmd *cobra.Command, args []string, container *di.Container) error {
			id, err := ksuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid record id %q: %w", args[0], err)
			}
			s, err := container.Store()
			if err != nil {
				return err
			}
			rec, err := s.Get(id)
			if err != nil {
				return err
			}

			if raw {
				text, err := formatBinary(rec.Payload, formatHex)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			}

			reg, err := container.Registry()
			if err != nil {
				return err
			}
			decoded, err := reg.Decode(rec.Schema, rec.Payload)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"id":        rec.ID,
				"schema":    rec.Schema,
				"timestamp": rec.Timestamp,
				"value":     decoded,
			})
		}),
	}

	getCmd.Flags().BoolVar(&raw, "raw", false, "Print the stored encoding as hex")
	return getCmd
}

func newDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored record",
		Args:  cobra.ExactArgs(1),
		RunE: c.withContainer(func(cmd *cobra.Command, args []string, container *di.Container) error {
			id, err := ksuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid record id %q: %w", args[0], err)
			}
			s, err := container.Store()
			if err != nil {
				return err
			}
			if err := s.Delete(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			return nil
		}),
	}
}

func newListCmd(c *cli) *cobra.Command {
	var schemaFilter string

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored records",
		Args:  cobra.NoArgs,
		RunE: c.withContainer(func(cmd *cobra.Command, args []string, container *di.Container) error {
			s, err := container.Store()
			if err != nil {
				return err
			}
			entries, err := s.List()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSCHEMA\tSIZE\tWRITTEN")
			for _, e := range entries {
				if schemaFilter != "" && e.Schema != schemaFilter {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", e.ID, e.Schema, e.Size, e.Timestamp.Format(time.RFC3339))
			}
			return w.Flush()
		}),
	}

	listCmd.Flags().StringVar(&schemaFilter, "schema", "", "Only list records of this schema")
	return listCmd
}
