package worker

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/sheets"
	"fintrack/internal/sheets/memory"
	"fintrack/internal/storage"
)

func newRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "worker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

type failingLedger struct{ calls int }

func (f *failingLedger) AppendEntry(context.Context, sheets.Entry) (string, error) {
	f.calls++
	return "", errors.New("quota exceeded")
}

type failingStore struct{}

func (failingStore) RecordActivity(context.Context, string, core.Activity) (bool, error) {
	return false, errors.New("database is locked")
}

func TestHandleRecordEventRecordsAndMirrors(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	user, err := repo.CreateUser(ctx, "A", "a@x.com", "hash")
	require.NoError(t, err)

	ledger := memory.New()
	w := NewActivityWorker(repo, ledger, nil)

	evt := amqp.NewRecordEvent(user.ID, amqp.EntityExpense, amqp.ActionCreated, 11).
		WithEntry(core.MustMoney("12.34"), core.NewDate(2024, 3, 1), "Groceries")

	require.NoError(t, w.HandleRecordEvent(ctx, evt))
	require.NoError(t, w.HandleRecordEvent(ctx, evt), "redelivery is a no-op")

	acts, err := repo.ListActivity(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, amqp.EntityExpense, acts[0].Entity)
	assert.Equal(t, "12.34", acts[0].Amount.String())

	entries := ledger.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, sheets.KindExpense, entries[0].Kind)
	assert.Equal(t, int64(11), entries[0].RecordID)
}

func TestHandleRecordEventSkipsLedgerForOtherEvents(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	user, err := repo.CreateUser(ctx, "A", "a@x.com", "hash")
	require.NoError(t, err)

	ledger := memory.New()
	w := NewActivityWorker(repo, ledger, nil)

	events := []amqp.RecordEvent{
		amqp.NewRecordEvent(user.ID, amqp.EntityBudget, amqp.ActionCreated, 1),
		amqp.NewRecordEvent(user.ID, amqp.EntityExpense, amqp.ActionDeleted, 2),
		amqp.NewRecordEvent(user.ID, amqp.EntityIncome, amqp.ActionUpdated, 3).
			WithEntry(core.MustMoney("5"), core.NewDate(2024, 3, 1), "Gift"),
	}
	for _, evt := range events {
		require.NoError(t, w.HandleRecordEvent(ctx, evt))
	}

	acts, err := repo.ListActivity(ctx, user.ID, 10)
	require.NoError(t, err)
	assert.Len(t, acts, 3)
	assert.Empty(t, ledger.Entries())
}

func TestHandleRecordEventLedgerFailureIsNotRetried(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	user, err := repo.CreateUser(ctx, "A", "a@x.com", "hash")
	require.NoError(t, err)

	ledger := &failingLedger{}
	w := NewActivityWorker(repo, ledger, nil)

	evt := amqp.NewRecordEvent(user.ID, amqp.EntityIncome, amqp.ActionCreated, 4).
		WithEntry(core.MustMoney("100"), core.NewDate(2024, 3, 1), "Salary")
	assert.NoError(t, w.HandleRecordEvent(ctx, evt))
	assert.Equal(t, 1, ledger.calls)
}

func TestHandleRecordEventStoreFailureRequeues(t *testing.T) {
	w := NewActivityWorker(failingStore{}, nil, nil)
	err := w.HandleRecordEvent(context.Background(), amqp.NewRecordEvent(1, amqp.EntityGoal, amqp.ActionCreated, 1))
	assert.ErrorContains(t, err, "record activity")
}

func TestHandleRecordEventUnknownUser(t *testing.T) {
	repo := newRepo(t)
	w := NewActivityWorker(repo, memory.New(), nil)

	evt := amqp.NewRecordEvent(999, amqp.EntityExpense, amqp.ActionCreated, 1).
		WithEntry(core.MustMoney("1"), core.NewDate(2024, 3, 1), "x")
	assert.NoError(t, w.HandleRecordEvent(context.Background(), evt))
}

func TestSessionSweeper(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	user, err := repo.CreateUser(ctx, "A", "a@x.com", "hash")
	require.NoError(t, err)

	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.ReplaceSessions(ctx, core.Session{
		ID: "old", UserID: user.ID, Expires: now.Add(-time.Minute), CreatedAt: now.Add(-time.Hour),
	}))

	s := NewSessionSweeper(repo, time.Minute, nil)
	s.now = func() time.Time { return now }

	n, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSessionSweeperLogsOncePerSweep(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: "test", Output: &buf})
	prev := slog.Default()
	applog.SetDefault(logger)
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := context.Background()
	repo := newRepo(t)
	user, err := repo.CreateUser(ctx, "A", "a@x.com", "hash")
	require.NoError(t, err)

	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.ReplaceSessions(ctx, core.Session{
		ID: "old", UserID: user.ID, Expires: now.Add(-time.Minute), CreatedAt: now.Add(-time.Hour),
	}))

	s := NewSessionSweeper(repo, time.Minute, logger)
	s.now = func() time.Time { return now }
	_, err = s.Sweep(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(buf.String(), "Expired sessions removed"))
}

func TestSessionSweeperRunStopsOnCancel(t *testing.T) {
	repo := newRepo(t)
	s := NewSessionSweeper(repo, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
