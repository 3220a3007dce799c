package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/visibility-engine/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_SaveScorecards(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	card := testScorecard("p1", "anthropic", model.ScorecardStatusCompleted)
	mock.ExpectExec(`INSERT INTO scorecards`).
		WithArgs(card.ID, "p1", "analytics", "dev", "anthropic", "completed",
			pgxmock.AnyArg(), card.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SaveScorecards(context.Background(), []model.ProviderScorecard{card})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetMetric_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT payload FROM aggregated_metrics WHERE scope_key = \$1`).
		WithArgs("topic:unknown").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetMetric(context.Background(), model.Scope{Kind: model.ScopeTopic, ID: "unknown"})
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetMetric_RoundTrip(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	payload := []byte(`{"scope":{"kind":"overall"},"sample_size":12,"visibility_score":48.5,` +
		`"visibility_ci":{"low":30,"high":65},"depth_of_mention":0,"depth_ci":{"low":0,"high":0},` +
		`"citation_share":0,"citation_ci":{"low":0,"high":0},"sentiment_score":0,` +
		`"last_calculated_at":"2026-08-25T10:00:00Z"}`)

	mock.ExpectQuery(`SELECT payload FROM aggregated_metrics WHERE scope_key = \$1`).
		WithArgs("overall").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow(payload))

	got, err := s.GetMetric(context.Background(), model.Scope{Kind: model.ScopeOverall})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 12, got.SampleSize)
	assert.InDelta(t, 48.5, got.VisibilityScore, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertMetric(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	metric := testMetric(model.Scope{Kind: model.ScopePlatform, ID: "anthropic"}, 52)
	mock.ExpectExec(`INSERT INTO aggregated_metrics`).
		WithArgs("platform:anthropic", "platform", "anthropic", pgxmock.AnyArg(), metric.LastCalculatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.UpsertMetric(context.Background(), metric)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListScorecards_AppliesFilters(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	card := testScorecard("p1", "anthropic", model.ScorecardStatusCompleted)
	payload, err := json.Marshal(&card)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT payload FROM scorecards WHERE 1=1 AND prompt_id = \$1 AND status = \$2`).
		WithArgs("p1", "completed", 1000).
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow(payload))

	got, err := s.ListScorecards(context.Background(), ScorecardFilter{
		PromptID: "p1",
		Status:   model.ScorecardStatusCompleted,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, card.ID, got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
