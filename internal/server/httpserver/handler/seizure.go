package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/yndnr/fp4-go/internal/core/domain"
)

// ListSeizures handles GET /seizures?first=&after=&last=&before=.
func (h *Handler) ListSeizures(w http.ResponseWriter, r *http.Request) {
	page, err := pageRequestFromQuery(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	conn, err := h.seizures.List(r.Context(), page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, conn)
}

// CreateSeizure handles POST /seizures.
func (h *Handler) CreateSeizure(w http.ResponseWriter, r *http.Request) {
	var in domain.SeizureInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	seizure, err := h.seizures.Report(r.Context(), &in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, seizure)
}

// SeizureSummary handles GET /seizures/summary.
func (h *Handler) SeizureSummary(w http.ResponseWriter, r *http.Request) {
	rows, err := h.seizures.Summary(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, rows)
}

// pageRequestFromQuery reads the connection arguments. With neither first
// nor last the first DefaultPageSize rows are returned.
func pageRequestFromQuery(q url.Values) (domain.PageRequest, error) {
	var page domain.PageRequest

	for _, arg := range []struct {
		name string
		dst  **int
	}{
		{"first", &page.First},
		{"last", &page.Last},
	} {
		if !q.Has(arg.name) {
			continue
		}
		n, err := strconv.Atoi(q.Get(arg.name))
		if err != nil {
			return page, domain.ErrInvalidArgument.WithDetails(arg.name + " must be an integer")
		}
		*arg.dst = &n
	}
	if q.Has("after") {
		after := q.Get("after")
		page.After = &after
	}
	if q.Has("before") {
		before := q.Get("before")
		page.Before = &before
	}

	if page.First == nil && page.Last == nil {
		n := domain.DefaultPageSize
		page.First = &n
	}
	return page, nil
}
