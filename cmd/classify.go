package main

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gridsight/siterisk-cli/internal/ingest"
	"github.com/gridsight/siterisk-cli/internal/model"
	"github.com/gridsight/siterisk-cli/internal/risk"
)

var (
	classifyFiles      []string
	classifyConvention string
	classifySheet      string
	classifyFormat     string
	classifyOut        string
	classifyNoSave     bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Parse site files, resolve locations, and classify fault risk",
	Long: `Reads one or more cell-site files (CSV or XLSX), resolves each site's
city and province against the boundary collections, computes distance to the
fault line, and assigns risk tiers. The classified batch replaces the previous
snapshot in the store and is written to --out (or stdout).

Examples:
  # Canonical CSV, JSON to stdout
  siterisk classify --file combined-cellsites.csv

  # Alternate-convention export plus an XLSX workbook, saved as YAML
  siterisk classify --file dito-sites.csv --file globe.xlsx \
    --convention alternate --format yaml --out classified.yaml`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		convention, err := ingest.ParseConvention(conventionOrDefault(classifyConvention))
		if err != nil {
			return err
		}

		resolver, closeResolver, err := newLocationResolver(ctx)
		if err != nil {
			return err
		}
		defer closeResolver()

		fault := loadFaultGeometry()

		// Parse input files concurrently, keeping file order stable. The
		// parsers take no context, so a plain group is enough here.
		results := make([]*ingest.SiteResult, len(classifyFiles))
		var g errgroup.Group
		for i, path := range classifyFiles {
			g.Go(func() error {
				opts := ingest.Options{Convention: convention, Resolver: resolver}
				var res *ingest.SiteResult
				var err error
				if strings.EqualFold(filepath.Ext(path), ".xlsx") {
					res, err = ingest.ParseSitesXLSX(path, ingest.XLSXOptions{SheetName: classifySheet}, opts)
				} else {
					res, err = ingest.ParseSitesFile(path, opts)
				}
				if err != nil {
					return eris.Wrapf(err, "classify: parse %s", path)
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		var sites []model.SiteRecord
		var dropped int
		for i, res := range results {
			sites = append(sites, res.Sites...)
			dropped += len(res.Dropped)
			zap.L().Info("parsed site file",
				zap.String("file", classifyFiles[i]),
				zap.Int("sites", len(res.Sites)),
				zap.Int("dropped", len(res.Dropped)),
			)
		}

		classified := risk.ClassifyAll(sites, fault)
		logBatchStats(classified)

		if !classifyNoSave {
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			batch, err := st.SaveSites(ctx, strings.Join(classifyFiles, ","), classified, dropped)
			if err != nil {
				return eris.Wrap(err, "classify: save batch")
			}
			zap.L().Info("saved batch",
				zap.String("id", batch.ID),
				zap.String("cache_version", batch.CacheVersion),
			)
		}

		return writeRecords(classified, classifyFormat, classifyOut)
	},
}

func conventionOrDefault(flag string) string {
	if flag != "" {
		return flag
	}
	return cfg.Parse.Convention
}

// logBatchStats mirrors the provider and tier breakdown the dashboard
// reported after each load.
func logBatchStats(sites []model.SiteRecord) {
	providers := make(map[string]int)
	tiers := make(map[model.RiskLevel]int)
	for _, s := range sites {
		providers[s.Provider]++
		tiers[s.RiskLevel]++
	}

	fields := []zap.Field{zap.Int("total", len(sites))}
	for p, n := range providers {
		fields = append(fields, zap.Int("provider_"+p, n))
	}
	fields = append(fields,
		zap.Int("high", tiers[model.RiskHigh]),
		zap.Int("medium", tiers[model.RiskMedium]),
		zap.Int("low", tiers[model.RiskLow]),
		zap.Int("unknown", tiers[model.RiskUnknown]),
	)
	zap.L().Info("classification complete", fields...)
}

func init() {
	classifyCmd.Flags().StringArrayVar(&classifyFiles, "file", nil, "site file to classify, CSV or XLSX (repeatable, required)")
	classifyCmd.Flags().StringVar(&classifyConvention, "convention", "", "parsing convention: canonical or alternate (default from config)")
	classifyCmd.Flags().StringVar(&classifySheet, "sheet", "", "XLSX sheet name (default first sheet)")
	classifyCmd.Flags().StringVar(&classifyFormat, "format", "json", "output format: json or yaml")
	classifyCmd.Flags().StringVar(&classifyOut, "out", "", "output path (default stdout)")
	classifyCmd.Flags().BoolVar(&classifyNoSave, "no-save", false, "skip persisting the batch snapshot")
	_ = classifyCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(classifyCmd)
}
