package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gridsight/siterisk-cli/internal/filter"
	"github.com/gridsight/siterisk-cli/internal/store"
)

var (
	snapshotLimit    int
	snapshotFormat   string
	snapshotOut      string
	snapshotCity     string
	snapshotStatus   string
	snapshotProvider string
	snapshotRisk     string
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect saved classification batches",
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved batches, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		batches, err := st.ListBatches(cmd.Context(), snapshotLimit)
		if err != nil {
			return err
		}
		return writeRecords(batches, snapshotFormat, snapshotOut)
	},
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show <batch-id>",
	Short: "Print the records of one saved batch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		batch, err := st.GetBatch(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		switch batch.Kind {
		case store.KindStaging:
			areas, err := batch.StagingAreas()
			if err != nil {
				return err
			}
			return writeRecords(areas, snapshotFormat, snapshotOut)
		default:
			sites, err := batch.Sites()
			if err != nil {
				return err
			}
			return writeRecords(sites, snapshotFormat, snapshotOut)
		}
	},
}

var snapshotLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Print the records of the most recent sites batch",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		batch, err := st.LatestBatch(cmd.Context(), store.KindSites)
		if err != nil {
			if eris.Is(err, store.ErrNoBatch) {
				return eris.New("snapshot: no saved sites batch, run classify first")
			}
			return err
		}

		sites, err := batch.Sites()
		if err != nil {
			return err
		}

		sites = filter.Apply(sites, filter.Criteria{
			City:      snapshotCity,
			Status:    snapshotStatus,
			Provider:  snapshotProvider,
			RiskLevel: snapshotRisk,
		})
		return writeRecords(sites, snapshotFormat, snapshotOut)
	},
}

func init() {
	snapshotCmd.PersistentFlags().StringVar(&snapshotFormat, "format", "json", "output format: json or yaml")
	snapshotCmd.PersistentFlags().StringVar(&snapshotOut, "out", "", "write output to a file instead of stdout")
	snapshotListCmd.Flags().IntVar(&snapshotLimit, "limit", 20, "maximum batches to list")

	snapshotLatestCmd.Flags().StringVar(&snapshotCity, "city", "", "filter by city, empty or \"all\" matches everything")
	snapshotLatestCmd.Flags().StringVar(&snapshotStatus, "status", "", "filter by status")
	snapshotLatestCmd.Flags().StringVar(&snapshotProvider, "provider", "", "filter by provider")
	snapshotLatestCmd.Flags().StringVar(&snapshotRisk, "risk", "", "filter by risk level")

	snapshotCmd.AddCommand(snapshotListCmd, snapshotShowCmd, snapshotLatestCmd)
	rootCmd.AddCommand(snapshotCmd)
}
