package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/linkbase/internal/core"
)

var timePattern string

var formatTimeCmd = &cobra.Command{
	Use:   "format-time <value>",
	Short: "Format a date value",
	Long: `Format a date string or Unix millisecond timestamp.
Prints "null" when the value is not a date.

Examples:
  linkbase format-time 2024-03-05T10:20:30Z
  linkbase format-time 1709634030000 --pattern "YYYY/MM/DD [at] HH:mm"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		formatted, ok, err := service().FormatTime(core.ValueFromText(args[0]), timePattern)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "null")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), formatted)
		return nil
	},
}

func init() {
	formatTimeCmd.Flags().StringVarP(&timePattern, "pattern", "p", "", "format pattern (default TIME_FORMAT)")
	rootCmd.AddCommand(formatTimeCmd)
}
