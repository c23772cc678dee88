package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/warp/timesheet-analytics/config"
	"github.com/warp/timesheet-analytics/logging"
	"github.com/warp/timesheet-analytics/notify"
	"github.com/warp/timesheet-analytics/observability"
	"github.com/warp/timesheet-analytics/pipeline"
	"github.com/warp/timesheet-analytics/store/jsonfile"
	"github.com/warp/timesheet-analytics/store/postgres"
	"github.com/warp/timesheet-analytics/store/sqlite"
	"github.com/warp/timesheet-analytics/timesheet"
)

// globalFlags override configuration loaded from the environment.
type globalFlags struct {
	envFile    string
	uploadsDir string
	dataFile   string
	store      string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "timesheet",
		Short: "Ingest timesheet exports into the analytics dashboard store",
		Long: `Ingest analytic and managerial timesheet exports into the month document
read by the dashboard.

Drop the month's spreadsheets into the uploads directory, named after the
month ("Analitico - Dezembro.xlsx", "Gerencial - Dezembro.xlsx"), and run
the command. Re-running replaces the months found, other months are kept.`,
		Example: `
  # Ingest with defaults (src/data/uploads → src/data/data.json)
  timesheet

  # Ingest into SQLite
  timesheet ingest --store sqlite

  # Serve the dashboard API and re-ingest every 30 minutes
  TIMESHEET_INGEST_INTERVAL_MINUTES=30 timesheet serve --addr :8080
`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIngest(cmd, flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.envFile, "env-file", ".env", "Optional dotenv file loaded before the environment")
	pf.StringVar(&flags.uploadsDir, "uploads", "", "Spreadsheet directory (TIMESHEET_UPLOADS_DIR)")
	pf.StringVar(&flags.dataFile, "data", "", "JSON store path (TIMESHEET_DATA_FILE)")
	pf.StringVar(&flags.store, "store", "", "Store backend: json, sqlite or postgres (TIMESHEET_STORE)")

	root.AddCommand(newIngestCmd(flags))
	root.AddCommand(newServeCmd(flags))
	return root
}

// =============================================================================
// APPLICATION WIRING
// =============================================================================

// app holds the collaborators shared by the commands.
type app struct {
	cfg       *config.Config
	log       *logrus.Logger
	store     timesheet.MonthStore
	publisher notify.Publisher
	metrics   *observability.Metrics
	closers   []func() error
}

func newApp(ctx context.Context, cmd *cobra.Command, flags *globalFlags) (*app, error) {
	cfg, err := config.Load(flags.envFile)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("uploads") {
		cfg.UploadsDir = flags.uploadsDir
	}
	if cmd.Flags().Changed("data") {
		cfg.DataFile = flags.dataFile
	}
	if cmd.Flags().Changed("store") {
		cfg.Store = flags.store
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logCfg, err := logging.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(logCfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, metrics: observability.NewMetrics(), publisher: notify.Noop{}}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, closeStore)

	if brokers := cfg.Brokers(); len(brokers) > 0 {
		kp := notify.NewKafkaPublisher(brokers, cfg.KafkaTopic)
		a.publisher = kp
		a.closers = append(a.closers, kp.Close)
		log.WithFields(logrus.Fields{"brokers": brokers, "topic": cfg.KafkaTopic}).Info("publishing month events")
	}

	log.WithFields(logrus.Fields{"store": cfg.Store, "uploads": cfg.UploadsDir}).Debug("configuration loaded")
	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config) (timesheet.MonthStore, func() error, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		s, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.StorePostgres:
		s, err := postgres.New(ctx, cfg.PostgresURL, postgres.DefaultSchema)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.StoreJSON, "":
		return jsonfile.New(cfg.DataFile), func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
}

func (a *app) pipeline() *pipeline.Pipeline {
	return &pipeline.Pipeline{
		UploadsDir: a.cfg.UploadsDir,
		Store:      a.store,
		Publisher:  a.publisher,
		Metrics:    a.metrics,
		Log:        a.log,
	}
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.WithError(err).Warn("close failed")
		}
	}
}
