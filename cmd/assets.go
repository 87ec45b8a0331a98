package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atlas-creative/content-engine/internal/assets"
	"github.com/atlas-creative/content-engine/pkg/supabase"
)

var assetsDir string

var matchAssetsCmd = &cobra.Command{
	Use:   "match-assets",
	Short: "Match loose PDFs to clients, upload them, and link case studies",
	RunE: func(cmd *cobra.Command, args []string) error {
		if info, err := os.Stat(assetsDir); err != nil || !info.IsDir() {
			return eris.Errorf("match-assets: not a directory: %s", assetsDir)
		}
		if cfg.Supabase.URL == "" || cfg.Supabase.ServiceKey == "" {
			return eris.New("match-assets: supabase url and service key are required")
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		storage := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceKey, cfg.Supabase.Bucket)
		matcher := assets.New(env.store, storage, cfg.Supabase.PathPrefix, nil)

		summary, err := matcher.MatchDirectory(cmd.Context(), assetsDir)
		if err != nil {
			return err
		}

		zap.L().Info("match-assets finished",
			zap.Int("uploaded", summary.Uploaded),
			zap.Int("linked", summary.Linked),
			zap.Int("unmatched", summary.Unmatched),
		)
		return nil
	},
}

func init() {
	matchAssetsCmd.Flags().StringVar(&assetsDir, "dir", "", "directory of asset PDFs")
	matchAssetsCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(matchAssetsCmd)
}
