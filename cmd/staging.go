package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridsight/siterisk-cli/internal/ingest"
)

var (
	stagingFile   string
	stagingFormat string
	stagingOut    string
	stagingNoSave bool
)

var stagingCmd = &cobra.Command{
	Use:   "staging",
	Short: "Parse disaster-staging areas and resolve their locations",
	Long: `Reads a staging-area CSV (evacuation hubs, relief depots), resolves each
area's city and province, and persists the batch. Rows with 0,0 placeholder
coordinates are dropped as missing.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		resolver, closeResolver, err := newLocationResolver(ctx)
		if err != nil {
			return err
		}
		defer closeResolver()

		res, err := ingest.ParseStagingAreasFile(stagingFile, resolver)
		if err != nil {
			return eris.Wrapf(err, "staging: parse %s", stagingFile)
		}
		zap.L().Info("parsed staging areas",
			zap.String("file", stagingFile),
			zap.Int("areas", len(res.Areas)),
			zap.Int("dropped", len(res.Dropped)),
		)

		if !stagingNoSave {
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			batch, err := st.SaveStaging(ctx, stagingFile, res.Areas, len(res.Dropped))
			if err != nil {
				return eris.Wrap(err, "staging: save batch")
			}
			zap.L().Info("saved batch", zap.String("id", batch.ID))
		}

		return writeRecords(res.Areas, stagingFormat, stagingOut)
	},
}

func init() {
	stagingCmd.Flags().StringVar(&stagingFile, "file", "", "staging-area CSV file (required)")
	stagingCmd.Flags().StringVar(&stagingFormat, "format", "json", "output format: json or yaml")
	stagingCmd.Flags().StringVar(&stagingOut, "out", "", "output path (default stdout)")
	stagingCmd.Flags().BoolVar(&stagingNoSave, "no-save", false, "skip persisting the batch snapshot")
	_ = stagingCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(stagingCmd)
}
