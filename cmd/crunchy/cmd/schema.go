package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ssargent/crunchybytes/pkg/di"
	"github.com/ssargent/crunchybytes/pkg/schema"
)

func newValidateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configured schema files and report errors",
		Args:  cobra.NoArgs,
		RunE: c.withContainer(func(cmd *cobra.Command, args []string, container *di.Container) error {
			reg, err := container.Registry()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d schemas OK\n", len(reg.Names()))
			return nil
		}),
	}
}

func newInspectCmd(c *cli) *cobra.Command {
	var asJSON bool

	inspectCmd := &cobra.Command{
		Use:   "inspect [schema]",
		Short: "Show schemas, their property order and serial lengths",
		Long: `Without arguments, list every loaded schema with its maximum serial length.
With a schema name, show its properties in serialization order.

Examples:
  crunchy inspect
  crunchy inspect geo::Point --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: c.withContainer(func(cmd *cobra.Command, args []string, container *di.Container) error {
			reg, err := container.Registry()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				defs := reg.Definitions()
				if asJSON {
					return printJSON(out, defs)
				}
				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "SCHEMA\tPROPS\tMAX LENGTH\tFILE")
				for _, def := range defs {
					fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", def.FullName, len(def.Props), def.MaxSerialLength, def.File)
				}
				return w.Flush()
			}

			def, err := reg.Lookup(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(out, def)
			}

			fmt.Fprintf(out, "%s (%s), max serial length %d\n", def.FullName, def.File, def.MaxSerialLength)
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "#\tPROPERTY\tTYPE\tDETAIL\tMAX LENGTH")
			for i, p := range def.Props {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", i, p.Name, p.Type, propDetail(p), p.MaxSerialLength)
			}
			return w.Flush()
		}),
	}

	inspectCmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return inspectCmd
}

func propDetail(p *schema.Prop) string {
	switch p.Type {
	case schema.TypeString, schema.TypeDynamicLengthBuffer:
		return "max " + strconv.Itoa(p.Length)
	case schema.TypeConstLengthBuffer:
		return "length " + strconv.Itoa(p.Length)
	case schema.TypeReference:
		return p.Reference
	case schema.TypeSet:
		return fmt.Sprintf("max %d of %s", p.MaxItems, itemType(p.Item))
	}
	return ""
}

func itemType(p *schema.Prop) string {
	if p == nil {
		return "?"
	}
	if detail := propDetail(p); detail != "" {
		return fmt.Sprintf("%s(%s)", p.Type, detail)
	}
	return string(p.Type)
}
