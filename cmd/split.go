package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atlas-creative/content-engine/internal/split"
)

var (
	splitPDF   string
	splitPages string
)

var splitIngestCmd = &cobra.Command{
	Use:   "split-ingest",
	Short: "Split a multi-case-study PDF and index each described page",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(splitPDF); err != nil {
			return eris.Errorf("split-ingest: pdf not found: %s", splitPDF)
		}
		specs, err := split.LoadPageTable(splitPages)
		if err != nil {
			return err
		}

		splitter := split.NewChain(cfg.Split)
		if err := splitter.Probe(); err != nil {
			return err
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		summary, err := split.SplitIngest(cmd.Context(), splitter, newIndexer(env), splitPDF, specs)
		if err != nil {
			return err
		}

		zap.L().Info("split-ingest finished",
			zap.Int("ingested", summary.Ingested),
			zap.Int("skipped", summary.Skipped),
			zap.Int("failed", summary.Failed),
			zap.Ints("missing_pages", summary.MissingPages),
		)
		return nil
	},
}

func init() {
	splitIngestCmd.Flags().StringVar(&splitPDF, "pdf", "", "multi-page PDF to split")
	splitIngestCmd.Flags().StringVar(&splitPages, "pages", "", "YAML page descriptor table")
	splitIngestCmd.MarkFlagRequired("pdf")
	splitIngestCmd.MarkFlagRequired("pages")
	rootCmd.AddCommand(splitIngestCmd)
}
