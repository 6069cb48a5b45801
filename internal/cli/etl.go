package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-dwhload/internal/db"
	"github.com/pgEdge/pgedge-dwhload/internal/pipeline"
	"github.com/pgEdge/pgedge-dwhload/internal/warehouse"
)

var (
	etlSkipLoad      bool
	etlSkipTransform bool
)

var etlCmd = &cobra.Command{
	Use:   "etl",
	Short: "Load the staging tables and fill the star schema",
	Long: `Bulk-load the event log and the song catalog into the staging tables,
then insert new rows into the users, songs, artists, time and songplays
tables. The transform never starts if a load failed, and rerunning it on
unchanged staging data inserts nothing.

Example:
  pgedge-dwhload etl --config dwh.yaml
  pgedge-dwhload etl --skip-load
  pgedge-dwhload etl --dialect postgres --atomic`,
	RunE: runETL,
}

func init() {
	etlCmd.Flags().BoolVar(&etlSkipLoad, "skip-load", false,
		"skip the staging load and only transform")
	etlCmd.Flags().BoolVar(&etlSkipTransform, "skip-transform", false,
		"load the staging tables without transforming them")
}

func runETL(cmd *cobra.Command, args []string) (err error) {
	if etlSkipLoad && etlSkipTransform {
		return fmt.Errorf("--skip-load and --skip-transform leave nothing to do")
	}
	if err := cfg.ValidateETL(!etlSkipLoad); err != nil {
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
	defer func() { finish(rec, "etl", err) }()

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
		Storage:  pipeline.StorageOptions(cfg),
	})
	report, err := p.RunETL(ctx, pipeline.Jobs(cfg), pipeline.ETLOptions{
		SkipLoad:      etlSkipLoad,
		SkipTransform: etlSkipTransform,
	})
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("etl interrupted: %w", err)
		}
		return err
	}

	if err := db.RecordETL(ctx, conn, d.Name(), time.Now(), !etlSkipLoad, !etlSkipTransform); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, report *pipeline.Report) {
	cmd.Println()
	if report.Loaded != nil {
		cmd.Println("Loaded:")
		for _, table := range []string{warehouse.StagingEvents, warehouse.StagingSongs} {
			cmd.Printf("  %-16s %10d rows\n", table, report.Loaded[table])
		}
	}
	if report.Inserted != nil {
		cmd.Println("Inserted:")
		for _, table := range warehouse.TransformOrder {
			cmd.Printf("  %-16s %10d rows\n", table, report.Inserted[table])
		}
	}
	cmd.Printf("Completed in %s\n", report.Duration.Round(time.Millisecond))
}
