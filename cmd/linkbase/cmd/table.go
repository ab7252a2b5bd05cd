package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/linkbase/internal/store"
)

var (
	tableActive bool
	tableUnlock bool
	recordsFrom string
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Create and manage tables",
}

var tableInitCmd = &cobra.Command{
	Use:   "init <name>",
	Short: "Create a link table with the configured title and url fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec := store.LinkTable(args[0], service().TitleField(), service().URLField())
		spec.Active = tableActive

		info, err := app.Backend.CreateTable(cmd.Context(), spec)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), info)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s active=%v\n", info.ID, info.Name, info.Active)
		return nil
	},
}

var tableListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tables, err := app.Backend.ListTables(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), tables)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tACTIVE\tLOCKED\tFIELDS")
		for _, t := range tables {
			fmt.Fprintf(tw, "%s\t%s\t%v\t%v\t%d\n", t.ID, t.Name, t.Active, t.Locked, len(t.Fields))
		}
		return tw.Flush()
	},
}

var tableActivateCmd = &cobra.Command{
	Use:   "activate <id>",
	Short: "Make a table the active table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Backend.SetActive(cmd.Context(), args[0])
	},
}

var tableLockCmd = &cobra.Command{
	Use:   "lock <id>",
	Short: "Lock a table against writes (--unlock to release)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Backend.SetLocked(cmd.Context(), args[0], !tableUnlock)
	},
}

var recordsCmd = &cobra.Command{
	Use:   "records --table <id>",
	Short: "Print the records of a table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := app.Backend.ListRecords(cmd.Context(), recordsFrom)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), records)
		}
		title, url := service().TitleField(), service().URLField()
		for _, r := range records {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%v\t%v\n", r.ID, r.Values[title], r.Values[url])
		}
		return nil
	},
}

func init() {
	tableInitCmd.Flags().BoolVar(&tableActive, "active", false, "make the new table active")
	tableLockCmd.Flags().BoolVar(&tableUnlock, "unlock", false, "unlock instead of lock")
	recordsCmd.Flags().StringVar(&recordsFrom, "table", "", "table id")
	recordsCmd.MarkFlagRequired("table")

	rootCmd.AddCommand(tableCmd)
	tableCmd.AddCommand(tableInitCmd, tableListCmd, tableActivateCmd, tableLockCmd)
	rootCmd.AddCommand(recordsCmd)
}
