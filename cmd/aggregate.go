package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/visibility-engine/internal/aggregate"
	"github.com/sells-group/visibility-engine/internal/store"
)

var aggregateLimit int

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Recompute per-scope metrics from all stored scorecards",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		cards, err := st.ListScorecards(ctx, store.ScorecardFilter{Limit: aggregateLimit})
		if err != nil {
			return err
		}

		agg := aggregate.New(cfg.AggregateConfig())
		metrics := agg.AggregateAll(cards)

		for _, m := range metrics {
			if err := st.UpsertMetric(ctx, m); err != nil {
				return err
			}
			avgPos := "-"
			if m.AveragePosition != nil {
				avgPos = fmt.Sprintf("%.1f", *m.AveragePosition)
			}
			fmt.Printf("%-24s n=%-5d visibility=%5.1f [%5.1f,%5.1f]  depth=%5.1f  citation=%5.1f  pos=%s  sentiment=%+.0f\n",
				m.Scope.Key(), m.SampleSize,
				m.VisibilityScore, m.VisibilityCI.Low, m.VisibilityCI.High,
				m.DepthOfMention, m.CitationShare, avgPos, m.SentimentScore)
		}

		zap.L().Info("metrics persisted", zap.Int("scopes", len(metrics)))
		return nil
	},
}

func init() {
	aggregateCmd.Flags().IntVar(&aggregateLimit, "limit", 10000, "max scorecards to load")
	rootCmd.AddCommand(aggregateCmd)
}
