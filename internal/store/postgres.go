package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/visibility-engine/internal/model"
)

// Pool is the subset of pgxpool.Pool the store needs. pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot store operations.
var preparedStatements = map[string]string{
	"insert_scorecard": `INSERT INTO scorecards (id, prompt_id, topic_id, persona_id, provider_id, status, payload, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
	"get_metric":       `SELECT payload FROM aggregated_metrics WHERE scope_key = $1`,
	"upsert_metric":    `INSERT INTO aggregated_metrics (scope_key, scope_kind, scope_id, payload, calculated_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (scope_key) DO UPDATE SET payload = EXCLUDED.payload, calculated_at = EXCLUDED.calculated_at`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresWithPool(pool Pool, closeFn func()) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: closeFn}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS scorecards (
	id          TEXT PRIMARY KEY,
	prompt_id   TEXT NOT NULL,
	topic_id    TEXT,
	persona_id  TEXT,
	provider_id TEXT NOT NULL,
	status      TEXT NOT NULL,
	payload     JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS aggregated_metrics (
	scope_key     TEXT PRIMARY KEY,
	scope_kind    TEXT NOT NULL,
	scope_id      TEXT,
	payload       JSONB NOT NULL,
	calculated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scorecards_prompt_id ON scorecards(prompt_id);
CREATE INDEX IF NOT EXISTS idx_scorecards_provider_id ON scorecards(provider_id);
CREATE INDEX IF NOT EXISTS idx_scorecards_status ON scorecards(status);
CREATE INDEX IF NOT EXISTS idx_scorecards_created_at ON scorecards(created_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveScorecards(ctx context.Context, cards []model.ProviderScorecard) error {
	for i := range cards {
		payload, err := json.Marshal(&cards[i])
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal scorecard %s", cards[i].ID)
		}
		_, err = s.pool.Exec(ctx,
			`INSERT INTO scorecards (id, prompt_id, topic_id, persona_id, provider_id, status, payload, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			cards[i].ID, cards[i].PromptID, cards[i].TopicID, cards[i].PersonaID,
			cards[i].ProviderID, string(cards[i].Status), payload, cards[i].CreatedAt,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert scorecard %s", cards[i].ID)
		}
	}
	return nil
}

func (s *PostgresStore) ListScorecards(ctx context.Context, filter ScorecardFilter) ([]model.ProviderScorecard, error) {
	query := `SELECT payload FROM scorecards WHERE 1=1`
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return placeholder(len(args))
	}

	if filter.PromptID != "" {
		query += ` AND prompt_id = ` + arg(filter.PromptID)
	}
	if filter.ProviderID != "" {
		query += ` AND provider_id = ` + arg(filter.ProviderID)
	}
	if filter.TopicID != "" {
		query += ` AND topic_id = ` + arg(filter.TopicID)
	}
	if filter.PersonaID != "" {
		query += ` AND persona_id = ` + arg(filter.PersonaID)
	}
	if filter.Status != "" {
		query += ` AND status = ` + arg(string(filter.Status))
	}
	if !filter.CreatedAfter.IsZero() {
		query += ` AND created_at > ` + arg(filter.CreatedAfter)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += ` LIMIT ` + arg(limit)

	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list scorecards")
	}
	defer rows.Close()

	var cards []model.ProviderScorecard
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan scorecard")
		}
		var card model.ProviderScorecard
		if err := json.Unmarshal(payload, &card); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal scorecard")
		}
		cards = append(cards, card)
	}
	return cards, eris.Wrap(rows.Err(), "postgres: list scorecards iterate")
}

func (s *PostgresStore) UpsertMetric(ctx context.Context, metric model.AggregatedMetric) error {
	payload, err := json.Marshal(&metric)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal metric")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO aggregated_metrics (scope_key, scope_kind, scope_id, payload, calculated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (scope_key) DO UPDATE SET
		   payload = EXCLUDED.payload,
		   calculated_at = EXCLUDED.calculated_at`,
		metric.Scope.Key(), string(metric.Scope.Kind), metric.Scope.ID,
		payload, metric.LastCalculatedAt,
	)
	return eris.Wrapf(err, "postgres: upsert metric %s", metric.Scope.Key())
}

func (s *PostgresStore) GetMetric(ctx context.Context, scope model.Scope) (*model.AggregatedMetric, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM aggregated_metrics WHERE scope_key = $1`,
		scope.Key(),
	).Scan(&payload)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get metric")
	}

	var metric model.AggregatedMetric
	if err := json.Unmarshal(payload, &metric); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal metric")
	}
	return &metric, nil
}

func (s *PostgresStore) ListMetrics(ctx context.Context) ([]model.AggregatedMetric, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM aggregated_metrics ORDER BY scope_key`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list metrics")
	}
	defer rows.Close()

	var metrics []model.AggregatedMetric
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan metric")
		}
		var metric model.AggregatedMetric
		if err := json.Unmarshal(payload, &metric); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal metric")
		}
		metrics = append(metrics, metric)
	}
	return metrics, eris.Wrap(rows.Err(), "postgres: list metrics iterate")
}

// placeholder renders the nth positional parameter, 1-based.
func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}
