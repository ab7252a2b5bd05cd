package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/linkbase/internal/core"
)

var (
	ingestTable string
	ingestFile  string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest --table <id> --file <links.json>",
	Short: "Write (title, url) records from a JSON file",
	Long: `Write records into a table. The file holds a JSON array of
{"title": ..., "url": ...} objects; "-" reads standard input.
Records missing a title or url are skipped.

Example:
  linkbase ingest --table 7f0c... --file links.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, closeFn, err := openInput(cmd, ingestFile)
		if err != nil {
			return err
		}
		defer closeFn()

		var records []core.Record
		if err := json.NewDecoder(r).Decode(&records); err != nil {
			return fmt.Errorf("%w: %s is not a JSON array of records: %v", core.ErrInvalidInput, ingestFile, err)
		}

		report, err := service().Ingest(cmd.Context(), ingestTable, records)
		if err != nil {
			return err
		}
		return printReport(cmd, report)
	},
}

var importCmd = &cobra.Command{
	Use:   "import --table <id> --file <links.csv>",
	Short: "Import records from a CSV with title and url columns",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, closeFn, err := openInput(cmd, ingestFile)
		if err != nil {
			return err
		}
		defer closeFn()

		report, err := service().ImportCSV(cmd.Context(), ingestTable, r)
		if err != nil {
			return err
		}
		return printReport(cmd, report)
	},
}

func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func printReport(cmd *cobra.Command, report core.IngestReport) error {
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), report)
	}
	out := cmd.OutOrStdout()
	if report.Rejected {
		fmt.Fprintln(out, "the table rejected the batch; nothing was written (see log)")
		return nil
	}
	fmt.Fprintf(out, "written: %d, dropped: %d\n", report.Written, report.Dropped)
	for _, id := range report.RecordIDs {
		fmt.Fprintln(out, id)
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{ingestCmd, importCmd} {
		c.Flags().StringVar(&ingestTable, "table", "", "target table id")
		c.Flags().StringVar(&ingestFile, "file", "", `input file, or "-" for stdin`)
		c.MarkFlagRequired("table")
		c.MarkFlagRequired("file")
		rootCmd.AddCommand(c)
	}
}
