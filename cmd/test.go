package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/visibility-engine/internal/brand"
	"github.com/sells-group/visibility-engine/internal/model"
	"github.com/sells-group/visibility-engine/internal/orchestrator"
	"github.com/sells-group/visibility-engine/internal/provider"
	"github.com/sells-group/visibility-engine/internal/resilience"
	"github.com/sells-group/visibility-engine/internal/summary"
)

var (
	testBrandName   string
	testBrandDomain string
	testCompetitors []string
	testProviders   []string
	testTopicID     string
	testPersonaID   string
	testSave        bool
	testJSON        bool
)

var testCmd = &cobra.Command{
	Use:   "test <prompt text>",
	Short: "Run one prompt against every configured provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if testBrandName == "" {
			return eris.New("--brand is required")
		}

		brandCtx := model.BrandContext{
			Subject: model.Brand{Name: testBrandName, Domain: testBrandDomain},
		}
		for _, c := range testCompetitors {
			comp, err := parseBrandArg(c)
			if err != nil {
				return err
			}
			brandCtx.Competitors = append(brandCtx.Competitors, comp)
		}

		client, err := initProviderClient()
		if err != nil {
			return err
		}

		providerIDs := testProviders
		if len(providerIDs) == 0 {
			providerIDs = client.Providers()
		}
		if len(providerIDs) == 0 {
			return eris.New("no providers configured: set at least one API key")
		}

		var opts []orchestrator.Option
		if cfg.Test.MaxConcurrency > 0 {
			opts = append(opts, orchestrator.WithMaxConcurrency(cfg.Test.MaxConcurrency))
		}
		if testSave {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			opts = append(opts, orchestrator.WithScorecardWriter(st))
		}

		matcher := brand.NewMatcher(cfg.BrandMatcherConfig())
		orch := orchestrator.New(client, matcher, opts...)

		prompt := model.Prompt{
			ID:        uuid.New().String(),
			Text:      args[0],
			TopicID:   testTopicID,
			PersonaID: testPersonaID,
			Status:    model.PromptStatusActive,
			CreatedAt: time.Now().UTC(),
		}

		cards, err := orch.TestPrompt(ctx, prompt, providerIDs, brandCtx)
		if err != nil {
			return err
		}

		if testJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return eris.Wrap(enc.Encode(cards), "encode scorecards")
		}

		printScorecards(cards)
		printSummary(summary.Summarize(cards))
		return nil
	},
}

func initProviderClient() (*provider.Client, error) {
	retry := resilience.DefaultRetryConfig()
	if cfg.Retry.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.Retry.MaxAttempts
	}
	if cfg.Retry.InitialBackoffSecs > 0 {
		retry.InitialBackoff = time.Duration(cfg.Retry.InitialBackoffSecs * float64(time.Second))
	}
	if cfg.Retry.MaxBackoffSecs > 0 {
		retry.MaxBackoff = time.Duration(cfg.Retry.MaxBackoffSecs * float64(time.Second))
	}

	circuit := resilience.CircuitBreakerConfig{
		FailureThreshold: cfg.Circuit.FailureThreshold,
		ResetTimeout:     time.Duration(cfg.Circuit.ResetTimeoutSecs) * time.Second,
	}

	opts := provider.Options{
		Retry:   retry,
		Circuit: circuit,
	}
	if cfg.Test.TimeoutSecs > 0 {
		opts.Timeout = time.Duration(cfg.Test.TimeoutSecs) * time.Second
	}

	return provider.NewClient(cfg.Providers(), opts)
}

// parseBrandArg parses "Name" or "Name=domain.com".
func parseBrandArg(s string) (model.Brand, error) {
	name, domain, _ := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Brand{}, eris.Errorf("invalid competitor %q: expected Name or Name=domain", s)
	}
	return model.Brand{Name: name, Domain: strings.TrimSpace(domain)}, nil
}

func printScorecards(cards []model.ProviderScorecard) {
	for i := range cards {
		sc := &cards[i]
		if !sc.Completed() {
			fmt.Printf("%-12s FAILED  reason=%s  %s\n", sc.ProviderID, sc.FailureReason, sc.FailureDetail)
			continue
		}
		fmt.Printf("%-12s ok  words=%d  latency=%dms  citations=%d\n",
			sc.ProviderID, sc.WordCount, sc.LatencyMS, len(sc.Citations))
		for j := range sc.Brands {
			b := &sc.Brands[j]
			if !b.Mentioned {
				fmt.Printf("  %-20s not mentioned\n", b.BrandName)
				continue
			}
			pos := 0
			if b.FirstPosition != nil {
				pos = *b.FirstPosition
			}
			fmt.Printf("  %-20s mentions=%d first=%d depth=%d conf=%.2f sentiment=%s\n",
				b.BrandName, b.MentionCount, pos, b.DepthWords, b.Confidence, b.Sentiment)
		}
	}
}

func printSummary(res summary.Result) {
	fmt.Printf("\nvisibility=%.1f%%  overall=%.1f  mention_rate=%.2f  best=%s  worst=%s\n",
		res.AvgVisibility, res.AvgOverallScore, res.MentionRate, res.BestProvider, res.WorstProvider)
}

func init() {
	testCmd.Flags().StringVar(&testBrandName, "brand", "", "subject brand name (required)")
	testCmd.Flags().StringVar(&testBrandDomain, "brand-domain", "", "subject brand primary domain")
	testCmd.Flags().StringArrayVar(&testCompetitors, "competitor", nil, "competitor brand, Name or Name=domain (repeatable)")
	testCmd.Flags().StringArrayVar(&testProviders, "provider", nil, "provider IDs to test (default: all configured)")
	testCmd.Flags().StringVar(&testTopicID, "topic", "", "topic ID for scope aggregation")
	testCmd.Flags().StringVar(&testPersonaID, "persona", "", "persona ID for scope aggregation")
	testCmd.Flags().BoolVar(&testSave, "save", false, "persist scorecards to the store")
	testCmd.Flags().BoolVar(&testJSON, "json", false, "print scorecards as JSON")
	rootCmd.AddCommand(testCmd)
}
