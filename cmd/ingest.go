package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ingestDir string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index every PDF in a directory as articles",
	RunE: func(cmd *cobra.Command, args []string) error {
		if info, err := os.Stat(ingestDir); err != nil || !info.IsDir() {
			return eris.Errorf("ingest: not a directory: %s", ingestDir)
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		summary, err := newIndexer(env).IngestDirectory(cmd.Context(), ingestDir)
		if err != nil {
			return err
		}

		zap.L().Info("ingest finished",
			zap.Int("ingested", summary.Ingested),
			zap.Int("skipped", summary.Skipped),
			zap.Int("failed", summary.Failed),
		)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDir, "dir", "", "directory of PDFs to ingest")
	ingestCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(ingestCmd)
}
