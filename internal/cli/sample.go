package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-dwhload/internal/logging"
	"github.com/pgEdge/pgedge-dwhload/internal/pipeline"
	"github.com/pgEdge/pgedge-dwhload/internal/sample"
	"github.com/pgEdge/pgedge-dwhload/internal/storage"
)

var (
	sampleOut            string
	sampleSeed           uint64
	sampleArtists        int
	sampleSongs          int
	sampleUsers          int
	sampleEvents         int
	sampleStart          string
	sampleUnmatchedRatio float64
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Write a synthetic song catalog and event log",
	Long: `Generate a small song catalog, an event log and the JSONPaths
descriptor for the log, and write them to a local directory or an S3
prefix in the layout the etl command reads.

Example:
  pgedge-dwhload sample --out ./dataset
  pgedge-dwhload sample --out s3://my-bucket/dwh --events 5000 --seed 42`,
	RunE: runSample,
}

func init() {
	defaults := sample.DefaultOptions()

	sampleCmd.Flags().StringVar(&sampleOut, "out", "",
		"output location (directory, file:// or s3:// prefix)")
	sampleCmd.Flags().Uint64Var(&sampleSeed, "seed", defaults.Seed,
		"random seed; the same seed writes the same data")
	sampleCmd.Flags().IntVar(&sampleArtists, "artists", defaults.Artists,
		"number of artists")
	sampleCmd.Flags().IntVar(&sampleSongs, "songs", defaults.Songs,
		"number of songs in the catalog")
	sampleCmd.Flags().IntVar(&sampleUsers, "users", defaults.Users,
		"number of users")
	sampleCmd.Flags().IntVar(&sampleEvents, "events", defaults.Events,
		"number of log events")
	sampleCmd.Flags().StringVar(&sampleStart, "start", defaults.Start.Format("2006-01-02"),
		"date of the first event (YYYY-MM-DD)")
	sampleCmd.Flags().Float64Var(&sampleUnmatchedRatio, "unmatched-ratio", defaults.UnmatchedRatio,
		"share of plays naming a song missing from the catalog")
	_ = sampleCmd.MarkFlagRequired("out")
}

func runSample(cmd *cobra.Command, args []string) error {
	start, err := time.Parse("2006-01-02", sampleStart)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}

	root, err := storage.ParseLocation(sampleOut)
	if err != nil {
		return err
	}

	ds, err := sample.Generate(sample.Options{
		Seed:           sampleSeed,
		Artists:        sampleArtists,
		Songs:          sampleSongs,
		Users:          sampleUsers,
		Events:         sampleEvents,
		Start:          start,
		UnmatchedRatio: sampleUnmatchedRatio,
	})
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	store, err := storage.Open(ctx, root, pipeline.StorageOptions(cfg))
	if err != nil {
		return err
	}
	m, err := sample.Write(ctx, store, root, ds)
	if err != nil {
		return err
	}

	logging.Info().
		Str("out", root.String()).
		Int("objects", m.Objects).
		Int("songs", m.Songs).
		Int("events", m.Events).
		Msg("Sample data written")

	cmd.Println("Add to the s3 section of pgedge-dwhload.yaml:")
	cmd.Println()
	cmd.Println("s3:")
	cmd.Printf("  log_data: %s\n", m.LogData)
	cmd.Printf("  log_jsonpath: %s\n", m.LogJSONPath)
	cmd.Printf("  song_data: %s\n", m.SongData)
	return nil
}
