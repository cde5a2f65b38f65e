package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/trailpost/trailpost/internal/model"
	"github.com/trailpost/trailpost/pkg/geo"
)

var (
	resolveFile        string
	resolveConcurrency int
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [lat] [lon]",
	Short: "Infer the semantic location of a GPS fix",
	Long: `Infers a place label for a coordinate, consulting the local knowledge
base first and falling back to the configured place providers.

Examples:
  # Single fix
  trailpost resolve 38.7223 -9.1393

  # Batch from a CSV of lat,lon rows
  trailpost resolve --file fixes.csv`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if resolveFile != "" {
			return resolveBatch(ctx, env, resolveFile)
		}

		if len(args) != 2 {
			return eris.New("resolve: expected lat and lon arguments or --file")
		}
		point, err := parsePoint(args[0], args[1])
		if err != nil {
			return err
		}

		loc, err := env.Resolver.Infer(ctx, point)
		if err != nil {
			return err
		}
		return printJSON(loc)
	},
}

func parsePoint(latArg, lonArg string) (geo.Point, error) {
	lat, err := strconv.ParseFloat(latArg, 64)
	if err != nil {
		return geo.Point{}, eris.Wrapf(err, "resolve: parse lat %q", latArg)
	}
	lon, err := strconv.ParseFloat(lonArg, 64)
	if err != nil {
		return geo.Point{}, eris.Wrapf(err, "resolve: parse lon %q", lonArg)
	}
	return geo.NewPoint(lat, lon), nil
}

// resolveBatch infers every lat,lon row of a CSV concurrently and prints
// the results as a JSON array in input order.
func resolveBatch(ctx context.Context, env *env, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "resolve: open %s", path)
	}
	defer f.Close()

	points, err := parseFixCSV(f)
	if err != nil {
		return err
	}
	zap.L().Info("parsed fixes", zap.Int("count", len(points)))

	results := make([]model.Location, len(points))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveConcurrency)
	for i, p := range points {
		g.Go(func() error {
			loc, err := env.Resolver.Infer(gctx, p)
			if err != nil {
				return eris.Wrapf(err, "resolve: fix %d", i)
			}
			mu.Lock()
			results[i] = loc
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return printJSON(results)
}

func parseFixCSV(r io.Reader) ([]geo.Point, error) {
	var points []geo.Point
	reader := csv.NewReader(r)
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "resolve: read csv line %d", line)
		}
		if len(record) < 2 {
			return nil, eris.Errorf("resolve: csv line %d has %d fields, want 2", line, len(record))
		}
		// Tolerate a lat,lon header row.
		if line == 1 {
			if _, err := strconv.ParseFloat(record[0], 64); err != nil {
				continue
			}
		}
		point, err := parsePoint(record[0], record[1])
		if err != nil {
			return nil, eris.Wrapf(err, "resolve: csv line %d", line)
		}
		points = append(points, point)
	}
	return points, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "resolve: encode output")
	}
	return nil
}

func init() {
	resolveCmd.Flags().StringVar(&resolveFile, "file", "", "CSV file of lat,lon fixes to resolve")
	resolveCmd.Flags().IntVar(&resolveConcurrency, "concurrency", 4, "concurrent resolutions in batch mode")
	rootCmd.AddCommand(resolveCmd)
}
