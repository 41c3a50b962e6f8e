package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/AbishekAnand15/exodetect-backend/internal/domain/models"
	pkgch "github.com/AbishekAnand15/exodetect-backend/pkg/clickhouse"
	applogger "github.com/AbishekAnand15/exodetect-backend/pkg/logger"
)

type sqlConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	PingContext(ctx context.Context) error
}

// CHRunStore implements RunStore backed by ClickHouse.
type CHRunStore struct {
	db    sqlConn
	table string
	l     *applogger.Logger
}

func NewCHRunStore(ch *pkgch.Client) *CHRunStore {
	return newCHRunStore(ch.DB(), ch.Database())
}

func newCHRunStore(db sqlConn, database string) *CHRunStore {
	return &CHRunStore{db: db, table: database + ".vetting_runs", l: applogger.Nop()}
}

// SetLogger injects a structured logger.
func (s *CHRunStore) SetLogger(l *applogger.Logger) {
	if l != nil {
		s.l = l
	}
}

func (s *CHRunStore) Save(ctx context.Context, rec models.AnalysisRecord) error {
	start := time.Now()
	q := fmt.Sprintf(`
        INSERT INTO %s (tic_id, period, duration, depth, snr, odd_depth, even_depth,
                        secondary_depth, transit_points, confidence, verdict, samples, completed_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, s.table)
	_, err := s.db.ExecContext(ctx, q,
		rec.Target, rec.Period, rec.Duration, rec.Depth, rec.SNR,
		rec.OddDepth, rec.EvenDepth, rec.SecondaryDepth,
		uint32(rec.TransitPoints), rec.Confidence, rec.Verdict,
		uint32(rec.Samples), rec.CompletedAt.UTC(),
	)
	if err != nil {
		s.l.Error("clickhouse save_run error",
			applogger.String("table", s.table),
			applogger.String("tic_id", rec.Target),
			applogger.Error(err),
		)
		return fmt.Errorf("save run: %w", err)
	}
	s.l.Debug("clickhouse save_run ok",
		applogger.String("tic_id", rec.Target),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

// Recent returns up to limit runs, newest first. An empty target lists all targets.
func (s *CHRunStore) Recent(ctx context.Context, target string, limit int) ([]models.AnalysisRecord, error) {
	start := time.Now()
	where := ""
	args := make([]any, 0, 2)
	if target != "" {
		where = "WHERE tic_id = ?"
		args = append(args, target)
	}
	args = append(args, limit)
	q := fmt.Sprintf(`
        SELECT tic_id, period, duration, depth, snr, odd_depth, even_depth,
               secondary_depth, transit_points, confidence, verdict, samples, completed_at
        FROM %s
        %s
        ORDER BY completed_at DESC
        LIMIT ?
    `, s.table, where)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse recent_runs query error",
			applogger.String("tic_id", target),
			applogger.Int("limit", limit),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	out := make([]models.AnalysisRecord, 0, limit)
	for rows.Next() {
		var (
			rec             models.AnalysisRecord
			points, samples uint32
		)
		if err := rows.Scan(&rec.Target, &rec.Period, &rec.Duration, &rec.Depth, &rec.SNR,
			&rec.OddDepth, &rec.EvenDepth, &rec.SecondaryDepth, &points,
			&rec.Confidence, &rec.Verdict, &samples, &rec.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.TransitPoints = int(points)
		rec.Samples = int(samples)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.l.Debug("clickhouse recent_runs ok",
		applogger.String("tic_id", target),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *CHRunStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
