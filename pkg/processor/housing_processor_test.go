package processor

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MTES-MCT/zero-logement-vacant-sub004/internal/database"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/models"
)

// fakeTx satisfies database.Tx and records its terminal state.
type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) IsOpen() bool { return !t.committed && !t.rolledBack }

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

func (t *fakeTx) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, nil
}

func (t *fakeTx) GetContext(context.Context, any, string, ...any) error    { return nil }
func (t *fakeTx) SelectContext(context.Context, any, string, ...any) error { return nil }

// fakeHousingDB hands a fresh fakeTx to every group transaction.
type fakeHousingDB struct {
	txs []*fakeTx
}

func (db *fakeHousingDB) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, nil
}
func (db *fakeHousingDB) GetContext(context.Context, any, string, ...any) error    { return nil }
func (db *fakeHousingDB) SelectContext(context.Context, any, string, ...any) error { return nil }
func (db *fakeHousingDB) QueryxContext(context.Context, string, ...any) (*sqlx.Rows, error) {
	return nil, nil
}
func (db *fakeHousingDB) BeginTxx(context.Context, *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, nil
}
func (db *fakeHousingDB) PingContext(context.Context) error { return nil }
func (db *fakeHousingDB) Close() error                      { return nil }

func (db *fakeHousingDB) GetTx(ctx context.Context, _ *sql.TxOptions) (context.Context, database.Tx, error) {
	tx := &fakeTx{}
	db.txs = append(db.txs, tx)
	return ctx, tx, nil
}

type fakeHousingStore struct {
	db        *fakeHousingDB
	snapshots []models.Housing
	canonical map[string]*models.Housing

	upserted  []models.Housing
	deleted   [][]string
	upsertErr error
}

func (s *fakeHousingStore) DB() database.DB { return s.db }

func (s *fakeHousingStore) StreamSnapshots(_ context.Context, fn func(models.Housing) error) error {
	for _, snapshot := range s.snapshots {
		if err := fn(snapshot); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeHousingStore) GetByLocalID(_ context.Context, localID string) (*models.Housing, error) {
	return s.canonical[localID], nil
}

func (s *fakeHousingStore) UpsertTx(_ context.Context, _ database.Tx, housing models.Housing) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserted = append(s.upserted, housing)
	return nil
}

func (s *fakeHousingStore) DeleteSnapshotsTx(_ context.Context, _ database.Tx, ids []string) error {
	s.deleted = append(s.deleted, ids)
	return nil
}

func snapshot(id, localID string, year int64) models.Housing {
	return models.Housing{ID: id, LocalID: localID, DataYears: pq.Int64Array{year}}
}

func TestHousingRunGroupsByNormalizedLocalID(t *testing.T) {
	store := &fakeHousingStore{
		db: &fakeHousingDB{},
		snapshots: []models.Housing{
			snapshot("s1", "ABC123", 2020),
			snapshot("s2", "ABC123:1", 2021),
			snapshot("s3", "XYZ789", 2021),
		},
	}

	proc := NewHousingProcessor(store, nil, testLogger(), true)
	report, err := proc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Groups)
	assert.Equal(t, 3, report.Snapshots)
	assert.Equal(t, 2, report.Merged)
	assert.Equal(t, 0, report.Failed)

	require.Len(t, store.upserted, 2)
	assert.Equal(t, "ABC123", store.upserted[0].LocalID)
	assert.Equal(t, pq.Int64Array{2021, 2020}, store.upserted[0].DataYears)
	assert.Equal(t, "XYZ789", store.upserted[1].LocalID)

	require.Len(t, store.deleted, 2)
	assert.Equal(t, []string{"s1", "s2"}, store.deleted[0])
	assert.Equal(t, []string{"s3"}, store.deleted[1])

	for _, tx := range store.db.txs {
		assert.True(t, tx.committed)
	}
}

func TestHousingRunPrependsPersistedCanonical(t *testing.T) {
	canonical := models.Housing{
		ID:        "canonical",
		LocalID:   "ABC123",
		Invariant: "INV-1",
		DataYears: pq.Int64Array{2020, 2021},
	}
	store := &fakeHousingStore{
		db:        &fakeHousingDB{},
		snapshots: []models.Housing{snapshot("s1", "ABC123", 2020)},
		canonical: map[string]*models.Housing{"ABC123": &canonical},
	}

	proc := NewHousingProcessor(store, nil, testLogger(), true)
	_, err := proc.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, store.upserted, 1)
	assert.Equal(t, "canonical", store.upserted[0].ID)
	assert.Equal(t, "INV-1", store.upserted[0].Invariant)
}

func TestHousingRunWithoutCommitLeavesTablesAlone(t *testing.T) {
	store := &fakeHousingStore{
		db:        &fakeHousingDB{},
		snapshots: []models.Housing{snapshot("s1", "ABC123", 2020)},
	}

	proc := NewHousingProcessor(store, nil, testLogger(), false)
	report, err := proc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Merged)
	assert.Empty(t, store.upserted)
	assert.Empty(t, store.deleted)
	assert.Empty(t, store.db.txs)
}

func TestHousingRunContainsGroupFailures(t *testing.T) {
	store := &fakeHousingStore{
		db: &fakeHousingDB{},
		snapshots: []models.Housing{
			snapshot("s1", "ABC123", 2020),
			snapshot("s2", "XYZ789", 2021),
		},
		upsertErr: errors.New("value too long for type character varying"),
	}

	proc := NewHousingProcessor(store, nil, testLogger(), true)
	report, err := proc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Groups)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, 0, report.Merged)
	assert.Empty(t, store.deleted)

	for _, tx := range store.db.txs {
		assert.True(t, tx.rolledBack)
		assert.False(t, tx.committed)
	}
}
