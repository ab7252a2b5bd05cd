package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the fields of the active table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := service().Headers(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), fields)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tTYPE\tPRIMARY")
		for _, f := range fields {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%v\n", f.ID, f.Name, f.Type, f.IsPrimary)
		}
		return tw.Flush()
	},
}

var fieldCmd = &cobra.Command{
	Use:   "field <name>",
	Short: "Show one field of the active table by exact name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := service().Field(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), f)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", f.ID, f.Name, f.Type)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
	rootCmd.AddCommand(fieldCmd)
}
