package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbishekAnand15/exodetect-backend/internal/domain/models"
	"github.com/AbishekAnand15/exodetect-backend/pkg/cache"
)

type fakeConn struct {
	query string
	args  []any
	err   error
}

func (f *fakeConn) ExecContext(_ context.Context, q string, args ...any) (sql.Result, error) {
	f.query, f.args = q, args
	return nil, f.err
}

func (f *fakeConn) QueryContext(_ context.Context, q string, args ...any) (*sql.Rows, error) {
	f.query, f.args = q, args
	return nil, f.err
}

func (f *fakeConn) PingContext(context.Context) error { return f.err }

func sampleRecord() models.AnalysisRecord {
	return models.AnalysisRecord{
		Target:        "307210830",
		Period:        3.69,
		Depth:         0.0021,
		SNR:           14.2,
		TransitPoints: 120,
		Confidence:    62.7,
		Verdict:       string(models.VerdictCandidate),
		Samples:       18000,
		CompletedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600)),
	}
}

func TestCHRunStore_Save(t *testing.T) {
	conn := &fakeConn{}
	s := newCHRunStore(conn, "exodetect")

	require.NoError(t, s.Save(context.Background(), sampleRecord()))
	assert.Contains(t, conn.query, "INSERT INTO exodetect.vetting_runs")
	require.Len(t, conn.args, 13)
	assert.Equal(t, "307210830", conn.args[0])
	assert.Equal(t, uint32(120), conn.args[8])
	assert.Equal(t, time.UTC, conn.args[12].(time.Time).Location())
}

func TestCHRunStore_Errors(t *testing.T) {
	conn := &fakeConn{err: errors.New("connection refused")}
	s := newCHRunStore(conn, "exodetect")

	assert.ErrorContains(t, s.Save(context.Background(), sampleRecord()), "save run")
	_, err := s.Recent(context.Background(), "", 10)
	assert.ErrorContains(t, err, "recent runs")
	assert.Error(t, s.Health(context.Background()))
}

func TestCHRunStore_RecentFiltersByTarget(t *testing.T) {
	conn := &fakeConn{err: errors.New("stop")}
	s := newCHRunStore(conn, "exodetect")

	_, _ = s.Recent(context.Background(), "42", 5)
	assert.Contains(t, conn.query, "WHERE tic_id = ?")
	assert.Equal(t, []any{"42", 5}, conn.args)

	_, _ = s.Recent(context.Background(), "", 5)
	assert.False(t, strings.Contains(conn.query, "WHERE"))
	assert.Equal(t, []any{5}, conn.args)
}

type fakeProducer struct {
	topic  string
	key    []byte
	value  interface{}
	err    error
	closed bool
}

func (f *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	f.topic, f.key, f.value = topic, key, value
	return f.err
}

func (f *fakeProducer) Close() error {
	f.closed = true
	return nil
}

func TestKafkaRunPublisher(t *testing.T) {
	p := &fakeProducer{}
	pub := NewKafkaRunPublisher(p, "exodetect.vetting.completed")

	ev := models.VettingCompleted{TicID: "42", Confidence: 80}
	require.NoError(t, pub.PublishCompleted(context.Background(), ev))
	assert.Equal(t, "exodetect.vetting.completed", p.topic)
	assert.Equal(t, []byte("42"), p.key)
	assert.Equal(t, ev, p.value)

	p.err = errors.New("broker down")
	assert.ErrorContains(t, pub.PublishCompleted(context.Background(), ev), "publish completed 42")

	require.NoError(t, pub.Close())
	assert.True(t, p.closed)
}

func TestLatestVerdictStore(t *testing.T) {
	ctx := context.Background()
	s := NewLatestVerdictStore(cache.NewLRUCache(), time.Hour)

	_, ok, err := s.Get(ctx, "307210830")
	require.NoError(t, err)
	assert.False(t, ok)

	rec := sampleRecord()
	rec.CompletedAt = rec.CompletedAt.UTC()
	require.NoError(t, s.Put(ctx, rec))

	got, ok, err := s.Get(ctx, "307210830")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec.Verdict, got.Verdict)
	assert.True(t, rec.CompletedAt.Equal(got.CompletedAt))
}
