package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/visibility-engine/internal/store"
	"github.com/sells-group/visibility-engine/internal/summary"
)

var (
	summarizePromptID string
	summarizeLimit    int
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Print batch headline metrics for stored scorecards",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		cards, err := st.ListScorecards(ctx, store.ScorecardFilter{
			PromptID: summarizePromptID,
			Limit:    summarizeLimit,
		})
		if err != nil {
			return err
		}

		res := summary.Summarize(cards)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(res), "encode summary")
	},
}

func init() {
	summarizeCmd.Flags().StringVar(&summarizePromptID, "prompt-id", "", "restrict to one prompt")
	summarizeCmd.Flags().IntVar(&summarizeLimit, "limit", 10000, "max scorecards to load")
	rootCmd.AddCommand(summarizeCmd)
}
