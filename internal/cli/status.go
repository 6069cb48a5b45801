package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-dwhload/internal/db"
	"github.com/pgEdge/pgedge-dwhload/internal/warehouse"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show table row counts and loader metadata",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	counts, err := db.CountRows(ctx, conn, warehouse.Tables)
	if err != nil {
		return err
	}
	meta, err := db.GetAllMetadata(ctx, conn)
	if err != nil {
		return fmt.Errorf("failed to read metadata: %w", err)
	}

	writeStatus(cmd.OutOrStdout(), counts, meta)
	return nil
}

// writeStatus prints the table counts, then when each command last
// completed ("never" if it has not), then the remaining metadata.
func writeStatus(w io.Writer, counts []db.TableCount, meta map[string]string) {
	fmt.Fprintln(w, "Tables:")
	for _, tc := range counts {
		if !tc.Exists {
			fmt.Fprintf(w, "  %-18s %10s\n", tc.Table, "missing")
			continue
		}
		fmt.Fprintf(w, "  %-18s %10d rows\n", tc.Table, tc.Rows)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Last completed:")
	for _, key := range db.RunKeys {
		value, ok := meta[key]
		if !ok {
			value = "never"
		}
		fmt.Fprintf(w, "  %-18s %s\n", key, value)
	}

	rest := make([]string, 0, len(meta))
	for k := range meta {
		if !slices.Contains(db.RunKeys, k) {
			rest = append(rest, k)
		}
	}
	if len(rest) == 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "No loader metadata; run 'pgedge-dwhload reset' first.")
		return
	}
	sort.Strings(rest)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Metadata:")
	for _, k := range rest {
		fmt.Fprintf(w, "  %-18s %s\n", k, meta[k])
	}
}
