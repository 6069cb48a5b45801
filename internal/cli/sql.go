package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-dwhload/internal/config"
	"github.com/pgEdge/pgedge-dwhload/internal/pipeline"
	"github.com/pgEdge/pgedge-dwhload/internal/warehouse"
)

var sqlSteps = []string{pipeline.StepReset, pipeline.StepLoad, pipeline.StepTransform}

var sqlCmd = &cobra.Command{
	Use:   "sql [reset|load|transform]",
	Short: "Print the SQL statements for the configured dialect",
	Long: `Print the statements each step submits, in execution order, without
connecting to the warehouse. With no argument every step is printed.

Example:
  pgedge-dwhload sql transform --dialect postgres`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: sqlSteps,
	RunE:      runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	d, err := target()
	if err != nil {
		return err
	}

	steps := sqlSteps
	if len(args) == 1 {
		steps = args
	}
	for _, step := range steps {
		if err := writeStep(cmd.OutOrStdout(), d, cfg, step); err != nil {
			return err
		}
	}
	return nil
}

func writeStep(w io.Writer, d warehouse.Dialect, c *config.Config, step string) error {
	var stmts []warehouse.Statement
	switch step {
	case pipeline.StepReset:
		stmts = append(d.DropTableQueries(), d.CreateTableQueries()...)
	case pipeline.StepLoad:
		for _, job := range pipeline.Jobs(c) {
			stmt, err := d.CopyTableQuery(job.CopyJob())
			if errors.Is(err, warehouse.ErrNoNativeCopy) {
				fmt.Fprintf(w, "-- %s: streamed by the client from %s\n\n", job.Table, job.Source)
				continue
			}
			if err != nil {
				return fmt.Errorf("%s: %w", job.Table, err)
			}
			stmts = append(stmts, stmt)
		}
	case pipeline.StepTransform:
		stmts = d.InsertTableQueries()
	default:
		return fmt.Errorf("unknown step %q (valid: %s)", step, strings.Join(sqlSteps, ", "))
	}

	for _, stmt := range stmts {
		fmt.Fprintf(w, "-- %s\n%s;\n\n", stmt.Name, strings.TrimSpace(stmt.SQL))
	}
	return nil
}
