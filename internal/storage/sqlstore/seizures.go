package sqlstore

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/fp4-go/internal/core/domain"
)

const seizureColumns = `id, reference, location, seized_on, reported_on, user_id`

// CreateSeizure inserts a seizure and its substances in one transaction.
func (s *Store) CreateSeizure(ctx context.Context, accountID int64, in *domain.SeizureInput) (*domain.Seizure, error) {
	out := &domain.Seizure{
		Reference:  in.Reference,
		Location:   in.Location,
		SeizedOn:   in.SeizedOn,
		ReportedOn: in.ReportedOn,
		UserID:     accountID,
		Substances: make([]domain.Substance, 0, len(in.Substances)),
	}

	err := WithTx(ctx, s.db, nil, func(ctx context.Context, tx DBTX) error {
		const insertSeizure = `INSERT INTO seizures (reference, location, seized_on, reported_on, user_id)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`
		if err := tx.QueryRowContext(ctx, insertSeizure,
			in.Reference, in.Location, in.SeizedOn, in.ReportedOn, accountID,
		).Scan(&out.ID); err != nil {
			return err
		}

		const insertSubstance = `INSERT INTO substances (name, category, amount, unit, seizure_id)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`
		for _, sub := range in.Substances {
			row := domain.Substance{
				Name:      sub.Name,
				Category:  sub.Category,
				Amount:    sub.Amount,
				Unit:      sub.Unit,
				SeizureID: out.ID,
			}
			if err := tx.QueryRowContext(ctx, insertSubstance,
				sub.Name, sub.Category, sub.Amount, sub.Unit, out.ID,
			).Scan(&row.ID); err != nil {
				return err
			}
			out.Substances = append(out.Substances, row)
		}
		return nil
	})
	if err != nil {
		return nil, storageError("create seizure", err)
	}
	return out, nil
}

// ListSeizures returns up to q.Limit+1 seizures with their substances in
// ascending id order.
func (s *Store) ListSeizures(ctx context.Context, q domain.PageQuery) ([]*domain.Seizure, error) {
	var (
		query string
		args  []any
	)
	if q.Backward {
		before := q.BeforeID
		if before <= 0 {
			before = math.MaxInt64
		}
		query = `SELECT ` + seizureColumns + ` FROM seizures WHERE id < $1 ORDER BY id DESC LIMIT $2`
		args = []any{before, q.Limit + 1}
	} else {
		query = `SELECT ` + seizureColumns + ` FROM seizures WHERE id > $1 ORDER BY id ASC LIMIT $2`
		args = []any{q.AfterID, q.Limit + 1}
	}

	seizures, err := scanSeizures(ctx, s.db, query, args...)
	if err != nil {
		return nil, storageError("list seizures", err)
	}
	if q.Backward {
		for i, j := 0, len(seizures)-1; i < j; i, j = i+1, j-1 {
			seizures[i], seizures[j] = seizures[j], seizures[i]
		}
	}
	if err := s.attachSubstances(ctx, seizures); err != nil {
		return nil, storageError("list substances", err)
	}
	return seizures, nil
}

func scanSeizures(ctx context.Context, db DBTX, query string, args ...any) ([]*domain.Seizure, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Seizure
	for rows.Next() {
		var (
			sz                 domain.Seizure
			seizedOn, reported time.Time
		)
		if err := rows.Scan(&sz.ID, &sz.Reference, &sz.Location, &seizedOn, &reported, &sz.UserID); err != nil {
			return nil, err
		}
		sz.SeizedOn = seizedOn.Format(domain.DateLayout)
		sz.ReportedOn = reported.Format(domain.DateLayout)
		sz.Substances = []domain.Substance{}
		out = append(out, &sz)
	}
	return out, rows.Err()
}

func (s *Store) attachSubstances(ctx context.Context, seizures []*domain.Seizure) error {
	if len(seizures) == 0 {
		return nil
	}
	byID := make(map[int64]*domain.Seizure, len(seizures))
	placeholders := make([]string, len(seizures))
	args := make([]any, len(seizures))
	for i, sz := range seizures {
		byID[sz.ID] = sz
		placeholders[i] = "$" + strconv.Itoa(i+1)
		args[i] = sz.ID
	}

	query := `SELECT id, name, category, amount, unit, seizure_id FROM substances
		WHERE seizure_id IN (` + strings.Join(placeholders, ", ") + `) ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var sub domain.Substance
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.Category, &sub.Amount, &sub.Unit, &sub.SeizureID); err != nil {
			return err
		}
		if sz := byID[sub.SeizureID]; sz != nil {
			sz.Substances = append(sz.Substances, sub)
		}
	}
	return rows.Err()
}

// SeizureSummary totals substance amounts per substance name and seizure
// month, ordered by month then substance.
func (s *Store) SeizureSummary(ctx context.Context) ([]domain.SummaryRow, error) {
	month := s.dialect.month("sz.seized_on")
	query := `SELECT ` + month + ` AS month, sub.name, SUM(sub.amount)
		FROM substances sub JOIN seizures sz ON sz.id = sub.seizure_id
		GROUP BY ` + month + `, sub.name
		ORDER BY month, sub.name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storageError("seizure summary", err)
	}
	defer rows.Close()

	out := []domain.SummaryRow{}
	for rows.Next() {
		var r domain.SummaryRow
		if err := rows.Scan(&r.Month, &r.Substance, &r.Total); err != nil {
			return nil, storageError("seizure summary", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("seizure summary", err)
	}
	return out, nil
}
