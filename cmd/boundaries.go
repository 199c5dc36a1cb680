package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridsight/siterisk-cli/internal/boundary"
	"github.com/gridsight/siterisk-cli/internal/fetch"
)

var (
	boundariesShpPath string
	boundariesName    string
	boundariesOut     string
	boundariesURL     string
	boundariesDest    string
)

var boundariesCmd = &cobra.Command{
	Use:   "boundaries",
	Short: "Manage the administrative boundary reference data",
}

var boundariesStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which boundary collections load from the configured directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		collections, err := boundary.LoadDir(cfg.Boundaries.Dir, cfg.Boundaries.Collections)
		if err != nil {
			return err
		}

		loaded := map[string]int{}
		for _, col := range collections {
			loaded[col.Name] = len(col.Features)
		}
		for _, name := range cfg.Boundaries.Collections {
			if n, ok := loaded[name]; ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %d features\n", name, n)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s missing\n", name)
			}
		}
		return nil
	},
}

// boundariesImportCmd converts a shapefile into the GeoJSON collection format
// the resolver loads, so upstream PSA releases can be used directly.
var boundariesImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Convert a boundary shapefile into a resolver collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		col, err := boundary.ImportShapefile(boundariesShpPath, boundariesName)
		if err != nil {
			return err
		}

		out := boundariesOut
		if out == "" {
			out = filepath.Join(cfg.Boundaries.Dir, boundariesName+".geojson")
		}
		if err := boundary.WriteCollectionFile(col, out); err != nil {
			return err
		}

		zap.L().Info("boundary collection imported",
			zap.String("name", col.Name),
			zap.Int("features", len(col.Features)),
			zap.String("path", out))
		return nil
	},
}

var boundariesFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download a boundary or fault file over HTTP or FTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if boundariesDest == "" {
			boundariesDest = filepath.Join(cfg.Boundaries.Dir, filepath.Base(boundariesURL))
		}

		f := fetch.New(fetch.Options{
			Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			UserAgent:  cfg.Fetch.UserAgent,
			RatePerSec: cfg.Fetch.RatePerSec,
			Burst:      cfg.Fetch.Burst,
		})
		if err := f.Download(cmd.Context(), boundariesURL, boundariesDest); err != nil {
			return err
		}

		zap.L().Info("reference file downloaded",
			zap.String("url", boundariesURL),
			zap.String("dest", boundariesDest))
		return nil
	},
}

// boundariesLoadPGCmd pushes the file collections into PostGIS so Resolve can
// run as spatial queries instead of in-process point-in-polygon checks.
var boundariesLoadPGCmd = &cobra.Command{
	Use:   "load-pg",
	Short: "Load the boundary collections into PostGIS",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Boundaries.DatabaseURL == "" {
			return eris.New("boundaries: boundaries.database_url is not configured")
		}

		collections, err := boundary.LoadDir(cfg.Boundaries.Dir, cfg.Boundaries.Collections)
		if err != nil {
			return err
		}

		pool, err := pgxpool.New(cmd.Context(), cfg.Boundaries.DatabaseURL)
		if err != nil {
			return eris.Wrap(err, "boundaries: connect postgres")
		}
		defer pool.Close()

		resolver := boundary.NewStoreResolver(pool)
		if err := resolver.EnsureSchema(cmd.Context()); err != nil {
			return err
		}

		n, err := resolver.ImportCollections(cmd.Context(), collections)
		if err != nil {
			return err
		}

		zap.L().Info("boundary collections loaded into postgres",
			zap.Int("collections", len(collections)),
			zap.Int("features", n))
		return nil
	},
}

func init() {
	boundariesImportCmd.Flags().StringVar(&boundariesShpPath, "shp", "", "path to the boundary shapefile")
	boundariesImportCmd.Flags().StringVar(&boundariesName, "name", "", "collection name, controls resolver priority")
	boundariesImportCmd.Flags().StringVar(&boundariesOut, "out", "", "output geojson path (default under boundaries.dir)")
	_ = boundariesImportCmd.MarkFlagRequired("shp")
	_ = boundariesImportCmd.MarkFlagRequired("name")

	boundariesFetchCmd.Flags().StringVar(&boundariesURL, "url", "", "http, https, or ftp URL to download")
	boundariesFetchCmd.Flags().StringVar(&boundariesDest, "dest", "", "destination path (default under boundaries.dir)")
	_ = boundariesFetchCmd.MarkFlagRequired("url")

	boundariesCmd.AddCommand(boundariesStatusCmd, boundariesImportCmd, boundariesFetchCmd, boundariesLoadPGCmd)
	rootCmd.AddCommand(boundariesCmd)
}
