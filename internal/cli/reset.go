package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-dwhload/internal/db"
	"github.com/pgEdge/pgedge-dwhload/internal/logging"
	"github.com/pgEdge/pgedge-dwhload/internal/pipeline"
)

var resetNoDrop bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop and recreate the warehouse tables",
	Long: `Drop the seven warehouse tables if they exist and create them again,
empty. Running it twice leaves the same empty schema as running it once.

With --no-drop only missing tables are created and existing data is kept.

Example:
  pgedge-dwhload reset --config dwh.yaml
  pgedge-dwhload reset --dialect postgres --connection "postgres://..."`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetNoDrop, "no-drop", false,
		"create missing tables without dropping existing ones")
}

func runReset(cmd *cobra.Command, args []string) (err error) {
	if err := cfg.ValidateReset(); err != nil {
		return err
	}
	d, err := target()
	if err != nil {
		return err
	}
	rec, err := newRecorder(d)
	if err != nil {
		return err
	}
	defer func() { finish(rec, "reset", err) }()

	ctx, stop := signalContext()
	defer stop()

	conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	p := pipeline.New(conn, d, pipeline.Options{
		Atomic:   cfg.Atomic,
		Observer: rec,
	})
	if err := p.ResetSchema(ctx, !resetNoDrop); err != nil {
		return err
	}

	if err := db.RecordReset(ctx, conn, d.Name(), time.Now()); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	logging.Info().
		Str("dialect", d.Name()).
		Msg("Warehouse schema is ready")
	return nil
}
