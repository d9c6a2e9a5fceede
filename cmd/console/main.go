// Package main is the entrypoint for the console CLI.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/MacJediWizard/console/internal/adapter"
	"github.com/MacJediWizard/console/internal/auth"
	"github.com/MacJediWizard/console/internal/config"
	"github.com/MacJediWizard/console/internal/db"
	"github.com/MacJediWizard/console/internal/httpclient"
	"github.com/MacJediWizard/console/internal/integrations"
	"github.com/MacJediWizard/console/internal/integrations/notion"
	"github.com/MacJediWizard/console/internal/propimport"
	"github.com/MacJediWizard/console/internal/propsync"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Build-time variables set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// globalOpts are the persistent flags shared by every command.
type globalOpts struct {
	configPath string
	verbose    bool
}

func (o *globalOpts) logger() zerolog.Logger {
	level := zerolog.WarnLevel
	if o.verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func (o *globalOpts) integrationsConfig() (config.IntegrationsConfig, error) {
	file, err := config.LoadFile(o.configPath)
	if err != nil {
		return config.IntegrationsConfig{}, err
	}
	return config.LoadIntegrations(file), nil
}

func newRootCmd() *cobra.Command {
	opts := &globalOpts{}

	rootCmd := &cobra.Command{
		Use:   "console",
		Short: "Console backend command line",
		Long: `console calls the integrated third-party APIs through the same adapters
the server uses, runs the Notion property sync and imports property CSV
exports.

Credentials are read from the environment (CLOUDFLARE_API_TOKEN,
NOTION_API_TOKEN, SUPABASE_SERVICE_ROLE_KEY, DATABASE_URL, ...).`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("CONSOLE_CONFIG"), "path to YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		newVersionCmd(),
		newActionsCmd(opts),
		newCallCmd(opts),
		newSyncCmd(opts),
		newImportCmd(opts),
		newStatusCmd(opts),
		newMigrateCmd(opts),
		newHashPasswordCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Console %s\n", Version)
			fmt.Fprintf(out, "  Commit:     %s\n", Commit)
			fmt.Fprintf(out, "  Built:      %s\n", BuildDate)
			fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func buildAdapters(opts *globalOpts) ([]*adapter.Adapter, error) {
	cfg, err := opts.integrationsConfig()
	if err != nil {
		return nil, err
	}
	client, err := httpclient.New(httpclient.Options{ProxyConfig: &cfg.Proxy, UserAgent: "Console-CLI/" + Version})
	if err != nil {
		return nil, err
	}
	return integrations.Build(cfg, client, opts.logger())
}

func newActionsCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "actions [service]",
		Short: "List integrated services and their actions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapters, err := buildAdapters(opts)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				a, ok := integrations.Lookup(adapters, args[0])
				if !ok {
					return fmt.Errorf("unknown service %q", args[0])
				}
				adapters = []*adapter.Adapter{a}
			}
			printActions(cmd.OutOrStdout(), adapters)
			return nil
		},
	}
}

func printActions(out io.Writer, adapters []*adapter.Adapter) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tACTION\tPARAMS\tCONFIGURED")
	for _, a := range adapters {
		for _, action := range a.Actions() {
			params := strings.Join(action.Params, ",")
			if params == "" {
				params = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", a.Name(), action.Name, params, a.Configured())
		}
	}
	_ = w.Flush()
}

func newCallCmd(opts *globalOpts) *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "call <service> <action>",
		Short: "Call an integration action and print the envelope",
		Example: `  console call cloudflare workers
  console call cloudflare worker-details -p workerName=api
  console call supabase property -p propertyId=42`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseParams(params)
			if err != nil {
				return err
			}

			adapters, err := buildAdapters(opts)
			if err != nil {
				return err
			}
			a, ok := integrations.Lookup(adapters, args[0])
			if !ok {
				return fmt.Errorf("unknown service %q", args[0])
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			status, envelope := a.Handle(ctx, adapter.Request{Action: args[1], Params: values})
			if err := printJSON(cmd.OutOrStdout(), envelope); err != nil {
				return err
			}
			if !envelope.Success {
				return fmt.Errorf("%s (status %d)", envelope.Error, status)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "action parameter as name=value (repeatable)")
	return cmd
}

// parseParams turns name=value pairs into a parameter map.
func parseParams(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected name=value", pair)
		}
		values[name] = strings.TrimSpace(value)
	}
	return values, nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// openSyncer connects to the database and Notion. The returned cleanup closes the pool.
func openSyncer(ctx context.Context, opts *globalOpts) (*propsync.Syncer, func(), error) {
	cfg, err := opts.integrationsConfig()
	if err != nil {
		return nil, nil, err
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, nil, errors.New("DATABASE_URL is required")
	}
	if !cfg.Notion.Configured() {
		return nil, nil, notion.ErrNotConfigured
	}

	logger := opts.logger()
	client, err := httpclient.New(httpclient.Options{ProxyConfig: &cfg.Proxy, UserAgent: "Console-CLI/" + Version})
	if err != nil {
		return nil, nil, err
	}
	notionClient, err := notion.NewClient(cfg.Notion, client, logger)
	if err != nil {
		return nil, nil, err
	}

	database, err := openDatabase(ctx, logger)
	if err != nil {
		return nil, nil, err
	}

	return propsync.NewSyncer(notionClient, database, nil, logger), database.Close, nil
}

// openDatabase connects to DATABASE_URL and applies pending migrations.
func openDatabase(ctx context.Context, logger zerolog.Logger) (*db.DB, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	dbCfg := db.DefaultConfig(databaseURL)
	dbCfg.MaxConns = 2
	database, err := db.New(ctx, dbCfg, logger)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

func newSyncCmd(opts *globalOpts) *cobra.Command {
	var direction string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync properties between Notion and the database",
		Example: `  console sync
  console sync --direction to_notion
  console sync --direction full`,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch direction {
			case string(propsync.DirectionToDatabase), string(propsync.DirectionToNotion), "full":
			default:
				return fmt.Errorf("invalid direction %q, expected to_database, to_notion or full", direction)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			syncer, cleanup, err := openSyncer(ctx, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			var result any
			switch direction {
			case string(propsync.DirectionToNotion):
				result, err = syncer.SyncDatabaseToNotion(ctx)
			case "full":
				result, err = syncer.FullSync(ctx)
			default:
				result, err = syncer.SyncNotionToDatabase(ctx)
			}
			if err != nil {
				return fmt.Errorf("sync: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&direction, "direction", string(propsync.DirectionToDatabase), "to_database, to_notion or full")
	return cmd
}

func newImportCmd(opts *globalOpts) *cobra.Command {
	var (
		file      string
		batchSize int
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import properties from a CSV file into the database",
		Long: `Reads a CSV export of property listings, maps its headers onto property
fields, validates each row and stores the valid rows in batches. Rows with the
same address and city as an existing property update it.

Use --dry-run to validate a file without DATABASE_URL.`,
		Example: `  console import --file listings.csv --dry-run
  console import --file listings.csv --batch-size 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open csv: %w", err)
			}
			defer f.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger := opts.logger()
			var store propimport.Store
			if !dryRun {
				database, err := openDatabase(ctx, logger)
				if err != nil {
					return err
				}
				defer database.Close()
				store = database
			}

			importer := propimport.NewImporter(propimport.NewParser(propimport.DefaultParseOptions()), store, logger)
			summary, err := importer.Import(ctx, f, propimport.Options{BatchSize: batchSize, DryRun: dryRun})
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			if err := printJSON(cmd.OutOrStdout(), summary); err != nil {
				return err
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%d rows failed to import", summary.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the CSV file")
	cmd.Flags().IntVar(&batchSize, "batch-size", propimport.DefaultBatchSize, "rows per database transaction")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate without writing")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newStatusCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show property counts in Notion and the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			syncer, cleanup, err := openSyncer(ctx, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			status, err := syncer.Status(ctx)
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), status)
		},
	}
}

func newMigrateCmd(opts *globalOpts) *cobra.Command {
	var (
		list        bool
		showVersion bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if list {
				migrations, err := db.GetMigrations()
				if err != nil {
					return fmt.Errorf("list migrations: %w", err)
				}
				fmt.Fprintln(out, "Available migrations:")
				for _, m := range migrations {
					fmt.Fprintf(out, "  %03d: %s\n", m.Version, m.Name)
				}
				return nil
			}

			databaseURL := os.Getenv("DATABASE_URL")
			if databaseURL == "" {
				return errors.New("DATABASE_URL is required")
			}

			ctx := cmd.Context()
			dbCfg := db.DefaultConfig(databaseURL)
			dbCfg.MaxConns = 2
			database, err := db.New(ctx, dbCfg, opts.logger())
			if err != nil {
				return err
			}
			defer database.Close()

			if !showVersion {
				if err := database.Migrate(ctx); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
			}

			version, err := database.CurrentVersion(ctx)
			if err != nil {
				return fmt.Errorf("get schema version: %w", err)
			}
			fmt.Fprintf(out, "Current schema version: %d\n", version)
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "list embedded migrations")
	cmd.Flags().BoolVar(&showVersion, "show-version", false, "show the current schema version without migrating")
	return cmd
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a password for ADMIN_PASSWORD_HASH",
		Long:  "Reads a password from stdin and prints its bcrypt hash.",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.ErrOrStderr(), "Enter password: ")
			reader := bufio.NewReader(cmd.InOrStdin())
			password, err := reader.ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("read password: %w", err)
			}
			password = strings.TrimRight(password, "\r\n")

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
