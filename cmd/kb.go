package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Manage the place knowledge base",
}

var kbAddCmd = &cobra.Command{
	Use:   "add [label] [lat] [lon]",
	Short: "Record a confirmed observation at a labelled place",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		point, err := parsePoint(args[1], args[2])
		if err != nil {
			return err
		}

		place, err := env.KB.AddObservation(ctx, args[0], point)
		if err != nil {
			return err
		}

		fmt.Printf("%s: centroid (%.6f, %.6f), %d points\n",
			place.Label, place.Centroid.Lat, place.Centroid.Lon, len(place.History))
		return nil
	},
}

var kbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known places",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		all, err := env.KB.List(ctx)
		if err != nil {
			return err
		}
		if len(all) == 0 {
			fmt.Println("no places recorded")
			return nil
		}
		for _, p := range all {
			fmt.Printf("%-30s (%.6f, %.6f)  %d points\n",
				p.Label, p.Centroid.Lat, p.Centroid.Lon, len(p.History))
		}
		return nil
	},
}

var kbImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import places from a YAML seed file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrapf(err, "kb: open %s", args[0])
		}
		defer f.Close()

		n, err := env.KB.ImportSeed(ctx, f)
		if err != nil {
			return err
		}
		zap.L().Info("seed imported", zap.Int("places", n))
		fmt.Printf("imported %d places\n", n)
		return nil
	},
}

var kbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the store schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		// initEnv migrates on startup; this exists so operators can run
		// the migration on its own against a fresh database.
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		fmt.Println("schema up to date")
		return nil
	},
}

func init() {
	kbCmd.AddCommand(kbAddCmd)
	kbCmd.AddCommand(kbListCmd)
	kbCmd.AddCommand(kbImportCmd)
	kbCmd.AddCommand(kbMigrateCmd)
	rootCmd.AddCommand(kbCmd)
}
