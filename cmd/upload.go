package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/audience-sync/internal/model"
	"github.com/sells-group/audience-sync/internal/pipeline"
	"github.com/sells-group/audience-sync/internal/route"
	"github.com/sells-group/audience-sync/internal/track"
	"github.com/sells-group/audience-sync/internal/uploader"
	"github.com/sells-group/audience-sync/pkg/googleads"
)

var (
	uploadMode    string
	uploadBrand   string
	uploadSegment string
	uploadDryRun  bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Run an audience upload",
	Long:  "Fetches customer rows, builds hashed identifiers, and uploads each brand/segment audience through the offline user data job lifecycle.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mode := model.UploadMode(uploadMode)
		if mode != model.ModeDelta && mode != model.ModeFull {
			return eris.Errorf("invalid --mode %q: must be delta or full", uploadMode)
		}
		if err := cfg.ValidateCredentials(); err != nil {
			return err
		}
		mapping, err := cfg.Mapping()
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		adsClient := googleads.NewClient(
			cfg.GoogleAds.CustomerID,
			cfg.GoogleAds.DeveloperToken,
			googleads.StaticToken(cfg.GoogleAds.AccessToken),
			googleads.WithAPIVersion(cfg.GoogleAds.APIVersion),
			googleads.WithRateLimit(cfg.GoogleAds.RateLimit),
		)

		engine := uploader.New(adsClient, uploader.Config{
			BatchSize:       cfg.Upload.BatchSize,
			MaxAttempts:     cfg.Upload.MaxAttempts,
			RetryBaseDelay:  cfg.Upload.RetryBaseDelay,
			InterBatchDelay: cfg.Upload.InterBatchDelay,
			PollInterval:    cfg.Upload.PollInterval,
			PollTimeout:     cfg.Upload.PollTimeout,
		}, nil)

		p := pipeline.New(st, mapping, engine, track.New(st), pipeline.Config{
			Mode:               mode,
			Brand:              route.NormalizeBrand(uploadBrand),
			Segment:            model.SegmentName(strings.ToUpper(strings.TrimSpace(uploadSegment))),
			DryRun:             uploadDryRun,
			Region:             cfg.Upload.Region,
			Workers:            cfg.Upload.Workers,
			SegmentConcurrency: cfg.Upload.SegmentConcurrency,
			UnmappedPolicy:     route.UnmappedBrandPolicy(cfg.Route.UnmappedPolicy),
			DefaultBrand:       route.NormalizeBrand(cfg.Route.DefaultBrand),
		})

		summary, err := p.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "upload run")
		}

		for _, r := range summary.Segments {
			zap.L().Info("segment result",
				zap.String("segment", r.Key.String()),
				zap.String("status", string(r.Status)),
				zap.Int("rows_attempted", r.RowsAttempted),
				zap.Int("rows_confirmed", r.RowsConfirmed),
				zap.Duration("duration", r.Duration),
			)
		}
		zap.L().Info("upload complete",
			zap.String("run_id", summary.RunID),
			zap.Int("rows_fetched", summary.RowsFetched),
			zap.Int("rows_with_identifiers", summary.Counts.RowsWithID),
			zap.Int("segments", len(summary.Segments)),
			zap.Bool("succeeded", summary.Succeeded()),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return err
		}

		if !summary.Succeeded() {
			var failed int
			for _, r := range summary.Segments {
				if !r.Succeeded() {
					failed++
				}
			}
			return eris.Errorf("%d of %d segments failed", failed, len(summary.Segments))
		}
		return nil
	},
}

func init() {
	uploadCmd.Flags().StringVar(&uploadMode, "mode", "delta", "row selection mode (delta, full)")
	uploadCmd.Flags().StringVar(&uploadBrand, "brand", "", "restrict the run to one brand")
	uploadCmd.Flags().StringVar(&uploadSegment, "segment", "", "restrict the run to one segment (ALL, TIRE, SERVICE, LAPSED, REPEAT, PROSPECT)")
	uploadCmd.Flags().BoolVar(&uploadDryRun, "dry-run", false, "route and count without uploading")
	rootCmd.AddCommand(uploadCmd)
}
