package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/visibility-engine/internal/brand"
	"github.com/sells-group/visibility-engine/internal/model"
	"github.com/sells-group/visibility-engine/internal/monitoring"
	"github.com/sells-group/visibility-engine/internal/orchestrator"
	"github.com/sells-group/visibility-engine/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the metrics API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		client, err := initProviderClient()
		if err != nil {
			return err
		}

		matcher := brand.NewMatcher(cfg.BrandMatcherConfig())
		orch := orchestrator.New(client, matcher,
			orchestrator.WithMaxConcurrency(cfg.Test.MaxConcurrency),
			orchestrator.WithScorecardWriter(st),
		)
		collector := monitoring.NewCollector(st)

		r := buildRouter(ctx, st, collector, orch, client.Providers())

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildRouter wires the HTTP API. The context outlives individual requests
// and bounds the async prompt tests kicked off by POST /test.
func buildRouter(ctx context.Context, st store.Store, collector *monitoring.Collector, orch *orchestrator.Orchestrator, providers []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		snap, err := collector.Collect(req.Context(), 24)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	})

	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		metrics, err := st.ListMetrics(req.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, metrics)
	})

	r.Get("/metrics/overall", func(w http.ResponseWriter, req *http.Request) {
		serveMetric(w, req, st, model.Scope{Kind: model.ScopeOverall})
	})

	r.Get("/metrics/{kind}/{id}", func(w http.ResponseWriter, req *http.Request) {
		scope := model.Scope{
			Kind: model.ScopeKind(chi.URLParam(req, "kind")),
			ID:   chi.URLParam(req, "id"),
		}
		switch scope.Kind {
		case model.ScopePlatform, model.ScopeTopic, model.ScopePersona:
		default:
			writeError(w, http.StatusBadRequest, eris.Errorf("unknown scope kind: %s", scope.Kind))
			return
		}
		serveMetric(w, req, st, scope)
	})

	r.Post("/test", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Prompt      string        `json:"prompt"`
			TopicID     string        `json:"topic_id"`
			PersonaID   string        `json:"persona_id"`
			Brand       model.Brand   `json:"brand"`
			Competitors []model.Brand `json:"competitors"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, eris.New("invalid request body"))
			return
		}
		if body.Prompt == "" || body.Brand.Name == "" {
			writeError(w, http.StatusBadRequest, eris.New("prompt and brand.name are required"))
			return
		}

		prompt := model.Prompt{
			ID:        uuid.New().String(),
			Text:      body.Prompt,
			TopicID:   body.TopicID,
			PersonaID: body.PersonaID,
			Status:    model.PromptStatusActive,
			CreatedAt: time.Now().UTC(),
		}
		brandCtx := model.BrandContext{Subject: body.Brand, Competitors: body.Competitors}

		// Run the test asynchronously; results land in the store.
		go func() {
			cards, err := orch.TestPrompt(ctx, prompt, providers, brandCtx)
			if err != nil {
				zap.L().Error("async prompt test failed",
					zap.String("prompt_id", prompt.ID),
					zap.Error(err),
				)
				return
			}
			zap.L().Info("async prompt test complete",
				zap.String("prompt_id", prompt.ID),
				zap.Int("scorecards", len(cards)),
			)
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{
			"status":    "accepted",
			"prompt_id": prompt.ID,
		})
	})

	return r
}

func serveMetric(w http.ResponseWriter, req *http.Request, st store.Store, scope model.Scope) {
	metric, err := st.GetMetric(req.Context(), scope)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if metric == nil {
		writeError(w, http.StatusNotFound, eris.Errorf("no metric for scope %s", scope.Key()))
		return
	}
	writeJSON(w, http.StatusOK, metric)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
