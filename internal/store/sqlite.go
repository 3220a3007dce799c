package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/visibility-engine/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS scorecards (
	id          TEXT PRIMARY KEY,
	prompt_id   TEXT NOT NULL,
	topic_id    TEXT,
	persona_id  TEXT,
	provider_id TEXT NOT NULL,
	status      TEXT NOT NULL,
	payload     TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS aggregated_metrics (
	scope_key     TEXT PRIMARY KEY,
	scope_kind    TEXT NOT NULL,
	scope_id      TEXT,
	payload       TEXT NOT NULL,
	calculated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scorecards_prompt_id ON scorecards(prompt_id);
CREATE INDEX IF NOT EXISTS idx_scorecards_provider_id ON scorecards(provider_id);
CREATE INDEX IF NOT EXISTS idx_scorecards_status ON scorecards(status);
CREATE INDEX IF NOT EXISTS idx_scorecards_created_at ON scorecards(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveScorecards(ctx context.Context, cards []model.ProviderScorecard) error {
	if len(cards) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	for i := range cards {
		payload, err := json.Marshal(&cards[i])
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal scorecard %s", cards[i].ID)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO scorecards (id, prompt_id, topic_id, persona_id, provider_id, status, payload, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			cards[i].ID, cards[i].PromptID, cards[i].TopicID, cards[i].PersonaID,
			cards[i].ProviderID, string(cards[i].Status), string(payload), cards[i].CreatedAt,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert scorecard %s", cards[i].ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit scorecards")
}

func (s *SQLiteStore) ListScorecards(ctx context.Context, filter ScorecardFilter) ([]model.ProviderScorecard, error) {
	query := `SELECT payload FROM scorecards WHERE 1=1`
	var args []any

	if filter.PromptID != "" {
		query += ` AND prompt_id = ?`
		args = append(args, filter.PromptID)
	}
	if filter.ProviderID != "" {
		query += ` AND provider_id = ?`
		args = append(args, filter.ProviderID)
	}
	if filter.TopicID != "" {
		query += ` AND topic_id = ?`
		args = append(args, filter.TopicID)
	}
	if filter.PersonaID != "" {
		query += ` AND persona_id = ?`
		args = append(args, filter.PersonaID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if !filter.CreatedAfter.IsZero() {
		query += ` AND created_at > ?`
		args = append(args, filter.CreatedAfter)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list scorecards")
	}
	defer rows.Close()

	var cards []model.ProviderScorecard
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan scorecard")
		}
		var card model.ProviderScorecard
		if err := json.Unmarshal([]byte(payload), &card); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal scorecard")
		}
		cards = append(cards, card)
	}
	return cards, eris.Wrap(rows.Err(), "sqlite: list scorecards iterate")
}

func (s *SQLiteStore) UpsertMetric(ctx context.Context, metric model.AggregatedMetric) error {
	payload, err := json.Marshal(&metric)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal metric")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO aggregated_metrics (scope_key, scope_kind, scope_id, payload, calculated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(scope_key) DO UPDATE SET
		   payload = excluded.payload,
		   calculated_at = excluded.calculated_at`,
		metric.Scope.Key(), string(metric.Scope.Kind), metric.Scope.ID,
		string(payload), metric.LastCalculatedAt,
	)
	return eris.Wrapf(err, "sqlite: upsert metric %s", metric.Scope.Key())
}

func (s *SQLiteStore) GetMetric(ctx context.Context, scope model.Scope) (*model.AggregatedMetric, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM aggregated_metrics WHERE scope_key = ?`,
		scope.Key(),
	)

	var payload string
	err := row.Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get metric")
	}

	var metric model.AggregatedMetric
	if err := json.Unmarshal([]byte(payload), &metric); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal metric")
	}
	return &metric, nil
}

func (s *SQLiteStore) ListMetrics(ctx context.Context) ([]model.AggregatedMetric, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM aggregated_metrics ORDER BY scope_key`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list metrics")
	}
	defer rows.Close()

	var metrics []model.AggregatedMetric
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan metric")
		}
		var metric model.AggregatedMetric
		if err := json.Unmarshal([]byte(payload), &metric); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal metric")
		}
		metrics = append(metrics, metric)
	}
	return metrics, eris.Wrap(rows.Err(), "sqlite: list metrics iterate")
}
