package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/linkbase/internal/application"
	"github.com/JonMunkholm/linkbase/internal/config"
	"github.com/JonMunkholm/linkbase/internal/core"
	"github.com/JonMunkholm/linkbase/internal/logging"
)

var (
	envFile    string
	jsonOutput bool

	app *application.App

	openApp = application.Open
)

var rootCmd = &cobra.Command{
	Use:   "linkbase",
	Short: "Manage link tables and the navigation catalog",
	Long: `linkbase is a command-line interface to the linkbase table store.

It lists the active table's fields, writes (title, url) records into a
table, imports link CSVs, browses the navigation catalog and formats dates
the same way the HTTP API does. Settings come from the environment and an
optional .env file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// app is already set when a test injects one.
		if cmd.Name() == "help" || cmd.Name() == "completion" || app != nil {
			return nil
		}

		if err := godotenv.Load(envFile); err != nil && !(envFile == ".env" && errors.Is(err, os.ErrNotExist)) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logging.SetupTo(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

		app, err = openApp(cmd.Context(), cfg)
		return err
	},
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	if app != nil {
		app.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, core.FormatUserError(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
}

func service() *core.Service { return app.Service }

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
