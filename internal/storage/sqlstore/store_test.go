package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/fp4-go/internal/core/domain"
)

var dbSeq atomic.Int64

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:fp4_test_%d?mode=memory&cache=shared&_foreign_keys=on", dbSeq.Add(1))
	s, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: dsn, MaxOpenConns: 4}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	applied, err := s.Migrate(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3}, applied)
	return s
}

func seizureInput(ref, seizedOn string, subs ...domain.SubstanceInput) *domain.SeizureInput {
	return &domain.SeizureInput{
		Reference:  ref,
		Location:   "Port of Montreal",
		SeizedOn:   seizedOn,
		ReportedOn: "2026-03-01",
		Substances: subs,
	}
}

func sub(name string, amount float64) domain.SubstanceInput {
	return domain.SubstanceInput{Name: name, Category: domain.CategoryControlled, Amount: amount, Unit: domain.UnitGrams}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql", DSN: "x"}, nil)
	require.Error(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)

	applied, err := s.Migrate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, applied)

	status, err := s.MigrationStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, status, 3)
	for _, st := range status {
		assert.True(t, st.Applied, "migration %d should be applied", st.Version)
	}
}

func TestFindOrCreateAccount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a1, err := s.FindOrCreateAccount(ctx, "ada@rcmp-grc.gc.ca")
	require.NoError(t, err)
	assert.NotZero(t, a1.ID)
	assert.Equal(t, "ada@rcmp-grc.gc.ca", a1.Email)
	assert.False(t, a1.CreatedAt.IsZero())

	a2, err := s.FindOrCreateAccount(ctx, "ada@rcmp-grc.gc.ca")
	require.NoError(t, err)
	assert.Equal(t, a1.ID, a2.ID, "same email must map to the same account")

	got, err := s.GetAccount(ctx, a1.ID)
	require.NoError(t, err)
	assert.Equal(t, a1.Email, got.Email)

	_, err = s.GetAccount(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFindOrCreateAccount_Concurrent(t *testing.T) {
	s := newTestStore(t)
	// Shared-cache SQLite locks per table; one connection keeps the test about
	// the statements rather than lock contention.
	s.DB().SetMaxOpenConns(1)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]int64, 8)
	errs := make([]error, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := s.FindOrCreateAccount(ctx, "grace@cbsa-asfc.gc.ca")
			errs[i] = err
			if err == nil {
				ids[i] = a.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range ids {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
}

func TestDigestLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.FindOrCreateAccount(ctx, "ada@rcmp-grc.gc.ca")
	require.NoError(t, err)

	const digest = "9a423be550ef283672594dddce0c7f13d977615801910cdce1f50a55a29009b3"
	require.NoError(t, s.SaveDigest(ctx, digest, a.ID))

	err = s.SaveDigest(ctx, digest, a.ID)
	assert.ErrorIs(t, err, domain.ErrDigestConflict)

	got, err := s.ConsumeDigest(ctx, digest)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = s.ConsumeDigest(ctx, digest)
	assert.ErrorIs(t, err, domain.ErrNotFound, "a digest is consumed once")
}

func TestConsumeDigest_ExactlyOnceUnderRace(t *testing.T) {
	s := newTestStore(t)
	s.DB().SetMaxOpenConns(1)
	ctx := context.Background()

	a, err := s.FindOrCreateAccount(ctx, "ada@rcmp-grc.gc.ca")
	require.NoError(t, err)
	require.NoError(t, s.SaveDigest(ctx, "d1", a.ID))

	var wg sync.WaitGroup
	var wins atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.ConsumeDigest(ctx, "d1"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestDeleteDigest_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.FindOrCreateAccount(ctx, "ada@rcmp-grc.gc.ca")
	require.NoError(t, err)
	require.NoError(t, s.SaveDigest(ctx, "d2", a.ID))

	require.NoError(t, s.DeleteDigest(ctx, "d2"))
	require.NoError(t, s.DeleteDigest(ctx, "d2"))

	_, err = s.ConsumeDigest(ctx, "d2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSaveDigest_UnknownAccount(t *testing.T) {
	s := newTestStore(t)
	err := s.SaveDigest(context.Background(), "d3", 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Equal(t, "storage error", domain.PublicMessage(err))
}

func TestCreateSeizure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.FindOrCreateAccount(ctx, "ada@rcmp-grc.gc.ca")
	require.NoError(t, err)

	got, err := s.CreateSeizure(ctx, a.ID, seizureInput("R-1", "2026-02-27", sub("cocaine", 1.5), sub("fentanyl", 0.25)))
	require.NoError(t, err)
	assert.NotZero(t, got.ID)
	assert.Equal(t, a.ID, got.UserID)
	require.Len(t, got.Substances, 2)
	for _, sb := range got.Substances {
		assert.Equal(t, got.ID, sb.SeizureID)
		assert.NotZero(t, sb.ID)
	}

	page, err := s.ListSeizures(ctx, domain.PageQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "2026-02-27", page[0].SeizedOn)
	assert.Equal(t, "2026-03-01", page[0].ReportedOn)
	assert.Len(t, page[0].Substances, 2)
}

func TestCreateSeizure_RollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// No such user: the foreign key fails the seizure insert.
	_, err := s.CreateSeizure(ctx, 777, seizureInput("R-1", "2026-02-27", sub("cocaine", 1)))
	require.ErrorIs(t, err, domain.ErrStorage)

	var n int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM seizures`).Scan(&n))
	assert.Zero(t, n)
}

func TestListSeizures_Pagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.FindOrCreateAccount(ctx, "ada@rcmp-grc.gc.ca")
	require.NoError(t, err)
	for i := 1; i <= 5; i++ {
		_, err := s.CreateSeizure(ctx, a.ID, seizureInput(fmt.Sprintf("R-%d", i), "2026-02-27", sub("cannabis", float64(i))))
		require.NoError(t, err)
	}

	ids := func(rows []*domain.Seizure) []int64 {
		out := make([]int64, len(rows))
		for i, r := range rows {
			out[i] = r.ID
		}
		return out
	}

	tests := []struct {
		name string
		q    domain.PageQuery
		want []int64
	}{
		{"first 2", domain.PageQuery{Limit: 2}, []int64{1, 2, 3}},
		{"first 2 after 3", domain.PageQuery{Limit: 2, AfterID: 3}, []int64{4, 5}},
		{"last 2", domain.PageQuery{Backward: true, Limit: 2}, []int64{3, 4, 5}},
		{"last 2 before 3", domain.PageQuery{Backward: true, Limit: 2, BeforeID: 3}, []int64{1, 2}},
		{"after the end", domain.PageQuery{Limit: 2, AfterID: 5}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := s.ListSeizures(ctx, tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(rows))
		})
	}

	conn := domain.NewSeizureConnection(domain.PageQuery{Backward: true, Limit: 2}, mustList(t, s, domain.PageQuery{Backward: true, Limit: 2}))
	assert.True(t, conn.PageInfo.HasPreviousPage)
	assert.False(t, conn.PageInfo.HasNextPage)
	require.Len(t, conn.Edges, 2)
	assert.Equal(t, int64(4), conn.Edges[0].Node.ID)
}

func mustList(t *testing.T, s *Store, q domain.PageQuery) []*domain.Seizure {
	t.Helper()
	rows, err := s.ListSeizures(context.Background(), q)
	require.NoError(t, err)
	return rows
}

func TestSeizureSummary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.FindOrCreateAccount(ctx, "ada@rcmp-grc.gc.ca")
	require.NoError(t, err)

	empty, err := s.SeizureSummary(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	inputs := []*domain.SeizureInput{
		seizureInput("R-1", "2026-02-03", sub("cocaine", 1.5), sub("cannabis", 10)),
		seizureInput("R-2", "2026-02-20", sub("cocaine", 2)),
		seizureInput("R-3", "2026-01-15", sub("cocaine", 4)),
	}
	for _, in := range inputs {
		_, err := s.CreateSeizure(ctx, a.ID, in)
		require.NoError(t, err)
	}

	rows, err := s.SeizureSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.SummaryRow{
		{Month: "01-2026", Substance: "cocaine", Total: 4},
		{Month: "02-2026", Substance: "cannabis", Total: 10},
		{Month: "02-2026", Substance: "cocaine", Total: 3.5},
	}, rows)
}

func TestWithTx(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	count := func() int {
		var n int
		require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n))
		return n
	}

	err := WithTx(ctx, s.DB(), nil, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO users (email) VALUES ('a@x.gc.ca')`)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count(), "must commit on success")

	boom := errors.New("boom")
	err = WithTx(ctx, s.DB(), nil, func(ctx context.Context, tx DBTX) error {
		_, e := tx.ExecContext(ctx, `INSERT INTO users (email) VALUES ('b@x.gc.ca')`)
		require.NoError(t, e)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, count(), "must roll back when fn fails")

	func() {
		defer func() {
			require.NotNil(t, recover(), "panic must propagate")
			assert.Equal(t, 1, count(), "must roll back on panic")
		}()
		_ = WithTx(ctx, s.DB(), nil, func(ctx context.Context, tx DBTX) error {
			_, _ = tx.ExecContext(ctx, `INSERT INTO users (email) VALUES ('c@x.gc.ca')`)
			panic("kaput")
		})
	}()
}

func TestWithTx_BeginError(t *testing.T) {
	db, err := sql.Open(DriverSQLite, "file:closed?mode=memory")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	err = WithTx(context.Background(), db, nil, func(context.Context, DBTX) error { return nil })
	require.Error(t, err)
}
