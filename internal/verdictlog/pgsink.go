package verdictlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"
)

// PGConfig holds configuration for the Postgres sink.
type PGConfig struct {
	DSN       string
	Table     string
	BatchSize int
	FlushMS   int
}

// PGSink batches verdict records into a Postgres table. One JSONB column
// carries the full record; hot columns are broken out for indexed queries.
type PGSink struct {
	config PGConfig
	db     *sql.DB

	mu    sync.Mutex
	batch []Record

	kick   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

var tableNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func validateTableName(name string) error {
	if !tableNameRe.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}
	return nil
}

// NewPGSinkFromEnv creates a PGSink from environment variables.
func NewPGSinkFromEnv() *PGSink {
	return &PGSink{
		config: PGConfig{
			DSN:       getEnvOr("PG_DSN", "postgres://localhost/snare?sslmode=disable"),
			Table:     getEnvOr("PG_TABLE", "verdicts"),
			BatchSize: getIntEnv("PG_BATCH_SIZE", 100),
			FlushMS:   getIntEnv("PG_FLUSH_MS", 1000),
		},
	}
}

func NewPGSink(dsn string) *PGSink {
	return &PGSink{
		config: PGConfig{DSN: dsn, Table: "verdicts", BatchSize: 100, FlushMS: 1000},
	}
}

func (s *PGSink) Start(ctx context.Context) error {
	if err := validateTableName(s.config.Table); err != nil {
		return err
	}

	db, err := sql.Open("postgres", s.config.DSN)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}
	s.db = db

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.kick = make(chan struct{}, 1)
	s.batch = make([]Record, 0, s.config.BatchSize)

	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return err
	}

	go s.flushRoutine()
	return nil
}

func (s *PGSink) ensureSchema() error {
	table := pq.QuoteIdentifier(s.config.Table)

	createTable := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		verdict_id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		ts TIMESTAMPTZ NOT NULL,
		is_bot BOOLEAN NOT NULL,
		bot_type TEXT NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		record JSONB NOT NULL
	)`, table)
	if _, err := s.db.ExecContext(s.ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	indexes := []string{
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_ts ON %s (ts)", s.config.Table, table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_bot_type ON %s (bot_type, ts)", s.config.Table, table),
	}
	for _, stmt := range indexes {
		if _, err := s.db.ExecContext(s.ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// Enqueue buffers a record. A full batch is handed to the flush goroutine;
// the caller never blocks on the database.
func (s *PGSink) Enqueue(r Record) error {
	s.mu.Lock()
	s.batch = append(s.batch, r)
	full := len(s.batch) >= s.config.BatchSize
	s.mu.Unlock()

	if full && s.kick != nil {
		select {
		case s.kick <- struct{}{}:
		default: // a flush is already pending
		}
	}
	return nil
}

func (s *PGSink) flushRoutine() {
	defer close(s.done)
	ticker := time.NewTicker(time.Duration(s.config.FlushMS) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = s.flush()
		case <-s.kick:
			_ = s.flush()
		case <-s.ctx.Done():
			return
		}
	}
}

// flush writes the pending batch in one multi-row insert. On failure the
// batch is put back so records are retried on the next flush.
func (s *PGSink) flush() error {
	s.mu.Lock()
	if len(s.batch) == 0 {
		s.mu.Unlock()
		return nil
	}
	pending := s.batch
	s.batch = make([]Record, 0, s.config.BatchSize)
	s.mu.Unlock()

	if s.db == nil {
		s.requeue(pending)
		return fmt.Errorf("pg sink not started")
	}

	var (
		placeholders []string
		args         []interface{}
	)
	for i, r := range pending {
		payload, err := json.Marshal(r)
		if err != nil {
			continue // unmarshalable record is dropped, not retried
		}
		base := i * 7
		placeholders = append(placeholders, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		args = append(args, r.VerdictID, r.SessionID, r.Timestamp, r.IsBot, r.BotType, r.Confidence, payload)
	}
	if len(placeholders) == 0 {
		return nil
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (verdict_id, session_id, ts, is_bot, bot_type, confidence, record) VALUES %s ON CONFLICT (verdict_id) DO NOTHING",
		pq.QuoteIdentifier(s.config.Table), strings.Join(placeholders, ","))

	if _, err := s.db.ExecContext(s.ctx, query, args...); err != nil {
		s.requeue(pending)
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

func (s *PGSink) requeue(pending []Record) {
	s.mu.Lock()
	s.batch = append(pending, s.batch...)
	s.mu.Unlock()
}

func (s *PGSink) Close() error {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	err := s.flushFinal()
	if s.db != nil {
		if cerr := s.db.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// flushFinal drains the batch with a background context since s.ctx is
// already cancelled during Close.
func (s *PGSink) flushFinal() error {
	if s.db == nil {
		return nil
	}
	s.ctx = context.Background()
	return s.flush()
}

func (s *PGSink) Name() string { return "postgres" }

func getEnvOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getIntEnv(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
