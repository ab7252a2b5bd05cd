package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/linkbase/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse the navigation catalog",
}

var catalogTreeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the catalog tree",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tree := service().Catalog()
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), tree)
		}
		printNodes(cmd.OutOrStdout(), tree)
		return nil
	},
}

var catalogChildrenCmd = &cobra.Command{
	Use:   "children <id>",
	Short: "Print the direct children of a catalog node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		children, err := service().Children(args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), children)
		}
		for _, n := range children {
			printNode(cmd.OutOrStdout(), n, 0)
		}
		return nil
	},
}

func printNodes(w io.Writer, nodes []catalog.Node) {
	catalog.Walk(nodes, func(n catalog.Node, depth int) bool {
		printNode(w, n, depth)
		return true
	})
}

func printNode(w io.Writer, n catalog.Node, depth int) {
	line := fmt.Sprintf("%s%s %s", strings.Repeat("  ", depth), n.ID, n.Name)
	if n.URL != "" {
		line += "  " + n.URL
	}
	if n.Disabled {
		line += "  (disabled)"
	}
	fmt.Fprintln(w, line)
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogTreeCmd)
	catalogCmd.AddCommand(catalogChildrenCmd)
}
