package main

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yield-drawing/drawingdb/internal/config"
	"github.com/yield-drawing/drawingdb/internal/database"
	"github.com/yield-drawing/drawingdb/internal/drawing"
	"github.com/yield-drawing/drawingdb/internal/memstore"
)

type globalFlags struct {
	configFile string
	logLevel   string
	dbPath     string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:           "drawing",
		Short:         "drawing - batch updates for yield drawings",
		Long:          "drawing applies batches of drawing object changes to yield drawings with optimistic concurrency.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "Settings file (default: config.yaml in the data directory)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: panic, fatal, error, warn, info, debug, trace")
	cmd.PersistentFlags().StringVar(&flags.dbPath, "db", "", "SQLite database path")

	cmd.AddCommand(newApplyCmd(flags))
	cmd.AddCommand(newShowCmd(flags))
	cmd.AddCommand(newListCmd(flags))
	cmd.AddCommand(newMCPCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// runtimeEnv is what a subcommand needs after settings are resolved.
type runtimeEnv struct {
	settings config.Settings
	store    drawing.UnitOfWork
	closeFn  func() error
}

func (r *runtimeEnv) actor() drawing.Actor {
	return drawing.Actor{
		UserID:             r.settings.UserID,
		ProgramID:          r.settings.ProgramID,
		AccessibleFieldIDs: r.settings.FieldIDs,
	}
}

func (r *runtimeEnv) Close() error {
	if r.closeFn == nil {
		return nil
	}
	return r.closeFn()
}

func openRuntime(flags *globalFlags) (*runtimeEnv, error) {
	settings, err := config.LoadSettings(flags.configFile)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		settings.LogLevel = strings.ToLower(flags.logLevel)
	}
	if flags.dbPath != "" {
		settings.DBPath = flags.dbPath
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	logrus.SetLevel(settings.Level())
	logrus.WithFields(logrus.Fields{
		"backend": settings.Backend,
		"db_path": settings.DBPath,
	}).Debug("opening drawing store")

	switch settings.Backend {
	case config.BackendMemory:
		return &runtimeEnv{settings: settings, store: memstore.New()}, nil
	case config.BackendSQLite:
		dbCtx, err := database.CreateDatabase(settings.DBPath)
		if err != nil {
			return nil, err
		}
		return &runtimeEnv{
			settings: settings,
			store:    database.NewStore(dbCtx),
			closeFn:  func() error { return database.CloseDatabase(dbCtx) },
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrBackendUnknown, settings.Backend)
	}
}
