package domain

import (
	"encoding/base64"
	"strconv"
	"strings"
)

// DefaultPageSize is the page size transports apply when a caller gives
// neither first nor last.
const DefaultPageSize = 50

// MaxPageSize bounds a single page.
const MaxPageSize = 500

const cursorPrefix = "seizures/"

// EncodeCursor returns the opaque cursor for a seizure id.
func EncodeCursor(id int64) string {
	return base64.URLEncoding.EncodeToString([]byte(cursorPrefix + strconv.FormatInt(id, 10)))
}

// DecodeCursor returns the seizure id carried by a cursor.
func DecodeCursor(cursor string) (int64, error) {
	raw, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		raw, err = base64.RawURLEncoding.DecodeString(cursor)
		if err != nil {
			return 0, ErrInvalidArgument.WithDetails("malformed cursor")
		}
	}
	s, ok := strings.CutPrefix(string(raw), cursorPrefix)
	if !ok {
		return 0, ErrInvalidArgument.WithDetails("malformed cursor")
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 0 {
		return 0, ErrInvalidArgument.WithDetails("malformed cursor")
	}
	return id, nil
}

// PageRequest holds the connection arguments. Nil means "not supplied".
type PageRequest struct {
	First  *int
	After  *string
	Last   *int
	Before *string
}

// PageQuery is a validated PageRequest resolved to ids.
type PageQuery struct {
	Backward bool
	Limit    int
	// AfterID is the exclusive lower bound for forward paging (0 means from the start).
	AfterID int64
	// BeforeID is the exclusive upper bound for backward paging (0 means from the end).
	BeforeID int64
}

// Resolve validates the argument combination and decodes cursors.
// Exactly one of First and Last must be supplied.
func (p PageRequest) Resolve() (PageQuery, error) {
	switch {
	case p.First != nil && p.Last != nil:
		return PageQuery{}, ErrInvalidArgument.WithDetails("first and last cannot be combined")
	case p.First == nil && p.Last == nil:
		return PageQuery{}, ErrMissingArgument.WithDetails("first or last")
	case p.After != nil && p.Before != nil:
		return PageQuery{}, ErrInvalidArgument.WithDetails("after and before cannot be combined")
	case p.After != nil && p.First == nil:
		return PageQuery{}, ErrInvalidArgument.WithDetails("after requires first")
	case p.Before != nil && p.Last == nil:
		return PageQuery{}, ErrInvalidArgument.WithDetails("before requires last")
	}

	if p.Last != nil {
		n, err := pageSize("last", *p.Last)
		if err != nil {
			return PageQuery{}, err
		}
		q := PageQuery{Backward: true, Limit: n}
		if p.Before != nil {
			if q.BeforeID, err = DecodeCursor(*p.Before); err != nil {
				return PageQuery{}, err
			}
		}
		return q, nil
	}

	n, err := pageSize("first", *p.First)
	if err != nil {
		return PageQuery{}, err
	}
	q := PageQuery{Limit: n}
	if p.After != nil {
		id, err := DecodeCursor(*p.After)
		if err != nil {
			return PageQuery{}, err
		}
		q.AfterID = id
	}
	return q, nil
}

func pageSize(field string, n int) (int, error) {
	if n <= 0 {
		return 0, ErrInvalidArgument.WithDetails(field + " must be greater than 0")
	}
	if n > MaxPageSize {
		return 0, ErrInvalidArgument.WithDetails(field + " must not exceed " + strconv.Itoa(MaxPageSize))
	}
	return n, nil
}

// PageInfo describes the position of a page within the full result set.
type PageInfo struct {
	HasNextPage     bool   `json:"has_next_page"`
	HasPreviousPage bool   `json:"has_previous_page"`
	StartCursor     string `json:"start_cursor,omitempty"`
	EndCursor       string `json:"end_cursor,omitempty"`
}

// SeizureEdge pairs a seizure with its cursor.
type SeizureEdge struct {
	Cursor string   `json:"cursor"`
	Node   *Seizure `json:"node"`
}

// SeizureConnection is one page of seizures.
type SeizureConnection struct {
	Edges    []SeizureEdge `json:"edges"`
	PageInfo PageInfo      `json:"page_info"`
}

// NewSeizureConnection builds a connection from rows fetched with Limit+1.
// rows are in ascending id order; for backward queries the extra row, when
// present, is the first element.
func NewSeizureConnection(q PageQuery, rows []*Seizure) *SeizureConnection {
	more := len(rows) > q.Limit
	if more {
		if q.Backward {
			rows = rows[1:]
		} else {
			rows = rows[:q.Limit]
		}
	}

	conn := &SeizureConnection{Edges: make([]SeizureEdge, 0, len(rows))}
	for _, s := range rows {
		conn.Edges = append(conn.Edges, SeizureEdge{Cursor: EncodeCursor(s.ID), Node: s})
	}
	if q.Backward {
		conn.PageInfo.HasPreviousPage = more
		conn.PageInfo.HasNextPage = q.BeforeID > 0
	} else {
		conn.PageInfo.HasNextPage = more
		conn.PageInfo.HasPreviousPage = q.AfterID > 0
	}
	if n := len(conn.Edges); n > 0 {
		conn.PageInfo.StartCursor = conn.Edges[0].Cursor
		conn.PageInfo.EndCursor = conn.Edges[n-1].Cursor
	}
	return conn
}
