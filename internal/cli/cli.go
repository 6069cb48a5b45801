//-------------------------------------------------------------------------
//
// pgEdge Warehouse Loader
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for pgedge-dwhload.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-dwhload/internal/config"
	"github.com/pgEdge/pgedge-dwhload/internal/db"
	"github.com/pgEdge/pgedge-dwhload/internal/logging"
	"github.com/pgEdge/pgedge-dwhload/internal/metrics"
	"github.com/pgEdge/pgedge-dwhload/internal/warehouse"
	"github.com/pgEdge/pgedge-dwhload/pkg/version"
)

var (
	// Global flags
	cfgFile    string
	connection string
	dialect    string
	logLevel   string
	atomic     bool

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "pgedge-dwhload",
		Short: "Star-schema loader for a song-play analytics warehouse",
		Long: `pgedge-dwhload builds and fills a star-schema warehouse from raw
JSON activity logs and a song catalog held in object storage.

The reset command drops and recreates the seven warehouse tables. The etl
command bulk-loads the two staging tables and then transforms them into the
songplays fact table and the users, songs, artists and time dimensions.

Amazon Redshift (native COPY from S3) and PostgreSQL (client-side COPY) are
supported.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./pgedge-dwhload.yaml)")
	rootCmd.PersistentFlags().StringVar(&connection, "connection", "",
		"warehouse connection string (overrides the cluster section)")
	rootCmd.PersistentFlags().StringVar(&dialect, "dialect", "",
		"warehouse dialect (redshift, postgres)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&atomic, "atomic", false,
		"run each step in a single transaction")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(dialectsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(etlCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(sampleCmd)
}

func initConfig(cmd *cobra.Command) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if connection != "" {
		cfg.Connection = connection
	}
	if dialect != "" {
		cfg.Dialect = dialect
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if atomic {
		cfg.Atomic = true
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	return nil
}

// signalContext returns a context cancelled by SIGINT or SIGTERM. Cancelling
// it aborts the in-flight statement.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			logging.Info().
				Str("signal", sig.String()).
				Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// target resolves the configured dialect.
func target() (warehouse.Dialect, error) {
	d, err := warehouse.Get(cfg.Dialect)
	if err != nil {
		return nil, fmt.Errorf("%w (available: %v)", err, warehouse.List())
	}
	return d, nil
}

func connect(ctx context.Context) (*pgx.Conn, error) {
	conn, err := db.Connect(ctx, cfg.ConnString(), cfg.StatementTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	return conn, nil
}

func newRecorder(d warehouse.Dialect) (*metrics.Recorder, error) {
	rec, err := metrics.NewRecorder(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job)
	if err != nil {
		return nil, err
	}
	rec.SetDialect(d.Name())
	return rec, nil
}

// finish records the command outcome and pushes the metrics. A failed push
// is logged but never fails the command.
func finish(rec *metrics.Recorder, command string, err error) {
	rec.Finish(command, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if pushErr := rec.Push(ctx); pushErr != nil {
		logging.Warn().Err(pushErr).Msg("Failed to push metrics")
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}

var dialectsCmd = &cobra.Command{
	Use:   "dialects",
	Short: "List supported warehouse dialects",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("Available dialects:")
		cmd.Println()
		for _, name := range warehouse.List() {
			d, err := warehouse.Get(name)
			if err != nil {
				continue
			}
			cmd.Printf("  %-10s - %s\n", name, d.Description())
		}
	},
}
