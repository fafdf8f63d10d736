// Package cli implements contentctl, an operator tool that reads and
// commits content documents and assets through the same store and
// validation rules the admin API uses.
package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sakif/portfolio/internal/config"
	"github.com/sakif/portfolio/internal/server"
	"github.com/sakif/portfolio/internal/service"
)

// app is the state shared by every subcommand.
type app struct {
	envFile    string
	backend    string
	sqlitePath string
	noColor    bool
	verbose    bool

	store   server.Store
	content *service.ContentService
}

// Execute runs contentctl with the process arguments.
func Execute() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if a.store != nil {
		if closeErr := a.store.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "contentctl",
		Short: "Read and commit portfolio content",
		Long: `contentctl reads and commits the portfolio's content documents and assets.

It uses the same configuration as the server (environment and .env) and the
same store: the GitHub repository by default, or a local SQLite file with
--backend sqlite.`,
		Example: `contentctl get site
contentctl put projects projects.json -m "Add pathfinder"
contentctl upload data/assets/resume.pdf ~/resume.pdf
contentctl log site -n 5
contentctl hash-password`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file to load if present")
	root.PersistentFlags().StringVar(&a.backend, "backend", "", "store backend: github or sqlite (default: STORE_BACKEND)")
	root.PersistentFlags().StringVar(&a.sqlitePath, "sqlite-path", "", "SQLite database file (default: SQLITE_PATH)")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log store requests")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if a.noColor {
			color.NoColor = true
		}
		if cmd.Annotations["store"] == "none" {
			return nil
		}
		return a.open(cmd.ErrOrStderr())
	}

	root.AddCommand(
		newGetCmd(a),
		newPutCmd(a),
		newUploadCmd(a),
		newLogCmd(a),
		newHashPasswordCmd(),
	)
	root.CompletionOptions.HiddenDefaultCmd = true

	return root
}

// open loads configuration and connects the store.
func (a *app) open(stderr io.Writer) error {
	if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", a.envFile, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.backend != "" {
		cfg.StoreBackend = a.backend
	}
	if a.sqlitePath != "" {
		cfg.SQLitePath = a.sqlitePath
	}

	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	store, err := server.OpenStore(cfg, config.Static(cfg), logger)
	if err != nil {
		return err
	}
	a.store = store
	a.content = service.NewContentService(store, logger)
	return nil
}

// status prints a secondary line to stderr so stdout stays pipeable.
func status(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", color.GreenString("✓"), fmt.Sprintf(format, args...))
}
