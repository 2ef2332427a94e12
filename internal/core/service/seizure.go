package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/yndnr/fp4-go/internal/core/domain"
)

// SeizureRepository persists seizure records.
type SeizureRepository interface {
	// CreateSeizure stores the seizure and its substances atomically.
	CreateSeizure(ctx context.Context, accountID int64, in *domain.SeizureInput) (*domain.Seizure, error)

	// ListSeizures returns up to q.Limit+1 seizures in ascending id order.
	// Forward queries start after q.AfterID. Backward queries return the
	// rows just below q.BeforeID (or the last rows when it is 0).
	ListSeizures(ctx context.Context, q domain.PageQuery) ([]*domain.Seizure, error)

	// SeizureSummary totals substance amounts per substance and month.
	SeizureSummary(ctx context.Context) ([]domain.SummaryRow, error)
}

// SeizureService serves seizure reports to authenticated callers.
type SeizureService struct {
	repo SeizureRepository
	log  *slog.Logger
	now  func() time.Time
}

// NewSeizureService creates a SeizureService. A nil logger uses slog.Default.
func NewSeizureService(repo SeizureRepository, log *slog.Logger) *SeizureService {
	if log == nil {
		log = slog.Default()
	}
	return &SeizureService{repo: repo, log: log, now: time.Now}
}

// RequireIdentity returns the caller identity or ErrUnauthenticated.
func RequireIdentity(ctx context.Context) (*domain.Identity, error) {
	return domain.RequireIdentity(ctx)
}

// Report validates and stores a seizure on behalf of the caller.
func (s *SeizureService) Report(ctx context.Context, in *domain.SeizureInput) (*domain.Seizure, error) {
	id, err := RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if in == nil {
		return nil, domain.ErrMissingArgument.WithDetails("seizure")
	}
	in.Normalize(s.now())
	if err := in.Validate(); err != nil {
		return nil, err
	}

	seizure, err := s.repo.CreateSeizure(ctx, id.AccountID, in)
	if err != nil {
		s.log.ErrorContext(ctx, "report seizure failed", "account_id", id.AccountID, "error", err)
		return nil, asStorageError(err)
	}
	s.log.InfoContext(ctx, "seizure reported",
		"account_id", id.AccountID,
		"seizure_id", seizure.ID,
		"substances", len(seizure.Substances),
	)
	return seizure, nil
}

// List returns one page of seizures.
func (s *SeizureService) List(ctx context.Context, page domain.PageRequest) (*domain.SeizureConnection, error) {
	if _, err := RequireIdentity(ctx); err != nil {
		return nil, err
	}
	q, err := page.Resolve()
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListSeizures(ctx, q)
	if err != nil {
		s.log.ErrorContext(ctx, "list seizures failed", "error", err)
		return nil, asStorageError(err)
	}
	return domain.NewSeizureConnection(q, rows), nil
}

// Summary totals seized amounts per substance and month.
func (s *SeizureService) Summary(ctx context.Context) ([]domain.SummaryRow, error) {
	if _, err := RequireIdentity(ctx); err != nil {
		return nil, err
	}
	rows, err := s.repo.SeizureSummary(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "seizure summary failed", "error", err)
		return nil, asStorageError(err)
	}
	if rows == nil {
		rows = []domain.SummaryRow{}
	}
	return rows, nil
}
