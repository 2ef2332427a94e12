package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yndnr/fp4-go/internal/core/domain"
	"github.com/yndnr/fp4-go/pkg/cmap"
)

// Store is an in-memory repository.
type Store struct {
	// email -> account
	accounts *cmap.Map[*domain.Account]
	// token digest -> account id
	digests *cmap.Map[int64]

	// accountMu serialises account creation so ids stay unique per email.
	accountMu sync.Mutex
	byID      map[int64]*domain.Account
	nextUser  int64

	seizureMu   sync.RWMutex
	seizures    []*domain.Seizure
	nextSeizure int64
	nextSub     int64

	now func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithClock sets the clock used for account creation times.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		accounts: cmap.New[*domain.Account](),
		digests:  cmap.New[int64](),
		byID:     make(map[int64]*domain.Account),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindOrCreateAccount returns the account for email, creating it if needed.
func (s *Store) FindOrCreateAccount(_ context.Context, email string) (*domain.Account, error) {
	if a, ok := s.accounts.Get(email); ok {
		return cloneAccount(a), nil
	}

	s.accountMu.Lock()
	defer s.accountMu.Unlock()

	if a, ok := s.accounts.Get(email); ok {
		return cloneAccount(a), nil
	}
	s.nextUser++
	a := &domain.Account{ID: s.nextUser, Email: email, CreatedAt: s.now().UTC()}
	s.accounts.Set(email, a)
	s.byID[a.ID] = a
	return cloneAccount(a), nil
}

// GetAccount returns the account with id, or ErrNotFound.
func (s *Store) GetAccount(_ context.Context, id int64) (*domain.Account, error) {
	s.accountMu.Lock()
	defer s.accountMu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneAccount(a), nil
}

// SaveDigest stores a digest. A stored digest is ErrDigestConflict.
func (s *Store) SaveDigest(ctx context.Context, digest string, accountID int64) error {
	if _, err := s.GetAccount(ctx, accountID); err != nil {
		return domain.ErrStorage.WithDetails("unknown account")
	}
	conflict := false
	s.digests.Compute(digest, func(existing int64, exists bool) (int64, bool) {
		if exists {
			conflict = true
			return existing, true
		}
		return accountID, true
	})
	if conflict {
		return domain.ErrDigestConflict
	}
	return nil
}

// ConsumeDigest removes a digest and returns its account. Concurrent
// callers with the same digest see exactly one success.
func (s *Store) ConsumeDigest(ctx context.Context, digest string) (*domain.Account, error) {
	accountID, ok := s.digests.Pop(digest)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.GetAccount(ctx, accountID)
}

// DeleteDigest removes a digest if present.
func (s *Store) DeleteDigest(_ context.Context, digest string) error {
	s.digests.Delete(digest)
	return nil
}

// Digests returns the number of outstanding digests.
func (s *Store) Digests() int {
	return s.digests.Count()
}

// CreateSeizure stores a seizure and its substances.
func (s *Store) CreateSeizure(ctx context.Context, accountID int64, in *domain.SeizureInput) (*domain.Seizure, error) {
	if _, err := s.GetAccount(ctx, accountID); err != nil {
		return nil, domain.ErrStorage.WithDetails("unknown account")
	}

	s.seizureMu.Lock()
	defer s.seizureMu.Unlock()

	s.nextSeizure++
	sz := &domain.Seizure{
		ID:         s.nextSeizure,
		Reference:  in.Reference,
		Location:   in.Location,
		SeizedOn:   in.SeizedOn,
		ReportedOn: in.ReportedOn,
		UserID:     accountID,
		Substances: make([]domain.Substance, 0, len(in.Substances)),
	}
	for _, sub := range in.Substances {
		s.nextSub++
		sz.Substances = append(sz.Substances, domain.Substance{
			ID:        s.nextSub,
			Name:      sub.Name,
			Category:  sub.Category,
			Amount:    sub.Amount,
			Unit:      sub.Unit,
			SeizureID: sz.ID,
		})
	}
	s.seizures = append(s.seizures, sz)
	return cloneSeizure(sz), nil
}

// ListSeizures returns up to q.Limit+1 seizures in ascending id order.
func (s *Store) ListSeizures(_ context.Context, q domain.PageQuery) ([]*domain.Seizure, error) {
	s.seizureMu.RLock()
	defer s.seizureMu.RUnlock()

	n := q.Limit + 1
	var out []*domain.Seizure
	if q.Backward {
		end := len(s.seizures)
		if q.BeforeID > 0 {
			end = sort.Search(len(s.seizures), func(i int) bool { return s.seizures[i].ID >= q.BeforeID })
		}
		start := max(end-n, 0)
		for _, sz := range s.seizures[start:end] {
			out = append(out, cloneSeizure(sz))
		}
		return out, nil
	}

	start := sort.Search(len(s.seizures), func(i int) bool { return s.seizures[i].ID > q.AfterID })
	for _, sz := range s.seizures[start:] {
		if len(out) == n {
			break
		}
		out = append(out, cloneSeizure(sz))
	}
	return out, nil
}

// SeizureSummary totals amounts per substance and month (MM-YYYY), ordered
// by month then substance.
func (s *Store) SeizureSummary(_ context.Context) ([]domain.SummaryRow, error) {
	s.seizureMu.RLock()
	defer s.seizureMu.RUnlock()

	type key struct{ month, substance string }
	totals := make(map[key]float64)
	for _, sz := range s.seizures {
		month, err := monthOf(sz.SeizedOn)
		if err != nil {
			return nil, domain.ErrStorage.WithCause(err)
		}
		for _, sub := range sz.Substances {
			totals[key{month, sub.Name}] += sub.Amount
		}
	}

	out := make([]domain.SummaryRow, 0, len(totals))
	for k, total := range totals {
		out = append(out, domain.SummaryRow{Month: k.month, Substance: k.substance, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := strings.Compare(out[i].Month, out[j].Month); c != 0 {
			return c < 0
		}
		return out[i].Substance < out[j].Substance
	})
	return out, nil
}

func monthOf(date string) (string, error) {
	t, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("seized_on %q: %w", date, err)
	}
	return t.Format("01-2006"), nil
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	return &c
}

func cloneSeizure(sz *domain.Seizure) *domain.Seizure {
	c := *sz
	c.Substances = append([]domain.Substance(nil), sz.Substances...)
	return &c
}
