package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"tally/internal/core"
	"tally/internal/ledger"
	"tally/internal/log"
)

// ledgerHandlers serves one ledger's operation routes. The expense and
// credit ledgers mount identical handlers on their own base paths.
type ledgerHandlers struct {
	svc  *ledger.Service
	base string
}

type middleware func(http.HandlerFunc) http.HandlerFunc

func mountLedger(mux *http.ServeMux, base string, svc *ledger.Service, mw middleware) {
	h := &ledgerHandlers{svc: svc, base: base}
	mux.HandleFunc(base, mw(h.handleCollection))
	mux.HandleFunc(base+"/summary", mw(h.handleSummary))
	mux.HandleFunc(base+"/", mw(h.handleItem))
}

// recordPayload is the wire shape for insert and delete bodies. Pointer
// fields distinguish an absent key from an explicit empty value; that
// distinction is what drives the partial-update contract.
type recordPayload struct {
	Date        *string  `json:"date"`
	Amount      *float64 `json:"amount"`
	Category    *string  `json:"category"`
	Subcategory *string  `json:"subcategory"`
	Note        *string  `json:"note"`
}

// record builds a full record from the payload, requiring the three
// mandatory fields and defaulting subcategory/note to "".
func (p recordPayload) record() (core.Record, string) {
	switch {
	case p.Date == nil:
		return core.Record{}, "missing required field: date"
	case p.Amount == nil:
		return core.Record{}, "missing required field: amount"
	case p.Category == nil:
		return core.Record{}, "missing required field: category"
	}

	rec := core.Record{
		Date:     *p.Date,
		Amount:   *p.Amount,
		Category: *p.Category,
	}
	if p.Subcategory != nil {
		rec.Subcategory = *p.Subcategory
	}
	if p.Note != nil {
		rec.Note = *p.Note
	}
	return rec, ""
}

// updates translates the payload into a partial-update field set; only keys
// present in the body are touched.
func (p recordPayload) updates() core.FieldUpdates {
	return core.FieldUpdates{
		Date:        p.Date,
		Amount:      p.Amount,
		Category:    p.Category,
		Subcategory: p.Subcategory,
		Note:        p.Note,
	}
}

func decodePayload(r *http.Request) (recordPayload, bool) {
	var p recordPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		return recordPayload{}, false
	}
	return p, true
}

func (h *ledgerHandlers) handleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleInsert(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodDelete:
		h.handleDelete(w, r)
	default:
		w.Header().Set("Allow", "POST, GET, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *ledgerHandlers) handleInsert(w http.ResponseWriter, r *http.Request) {
	p, ok := decodePayload(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ledger.Status{Status: "error", Message: "invalid JSON body"})
		return
	}
	rec, missing := p.record()
	if missing != "" {
		writeJSON(w, http.StatusBadRequest, ledger.Status{Status: "error", Message: missing})
		return
	}

	writeJSON(w, http.StatusOK, h.svc.Insert(r.Context(), rec))
}

// handleList returns a bare sequence of records, not a status envelope.
// A store fault here propagates as a 500; this asymmetry with the write
// operations is part of the external contract.
func (h *ledgerHandlers) handleList(w http.ResponseWriter, r *http.Request) {
	start, end, ok := rangeParams(w, r)
	if !ok {
		return
	}

	records, err := h.svc.ListRange(r.Context(), start, end)
	if err != nil {
		slog.ErrorContext(r.Context(), "List failed",
			log.FieldLedger, h.svc.Kind(),
			log.FieldStartDate, start,
			log.FieldEndDate, end,
			log.FieldError, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

func (h *ledgerHandlers) handleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := decodePayload(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ledger.Status{Status: "error", Message: "invalid JSON body"})
		return
	}
	rec, missing := p.record()
	if missing != "" {
		writeJSON(w, http.StatusBadRequest, ledger.Status{Status: "error", Message: missing})
		return
	}

	writeJSON(w, http.StatusOK, h.svc.DeleteExact(r.Context(), rec))
}

func (h *ledgerHandlers) handleItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.Header().Set("Allow", "PATCH")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, h.base+"/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	p, ok := decodePayload(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ledger.Status{Status: "error", Message: "invalid JSON body"})
		return
	}

	writeJSON(w, http.StatusOK, h.svc.UpdateFields(r.Context(), id, p.updates()))
}

// handleSummary returns a bare sequence of category totals; faults
// propagate as a 500, like handleList.
func (h *ledgerHandlers) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	start, end, ok := rangeParams(w, r)
	if !ok {
		return
	}
	category := strings.TrimSpace(r.URL.Query().Get("category"))

	totals, err := h.svc.SummarizeByCategory(r.Context(), start, end, category)
	if err != nil {
		slog.ErrorContext(r.Context(), "Summary failed",
			log.FieldLedger, h.svc.Kind(),
			log.FieldStartDate, start,
			log.FieldEndDate, end,
			log.FieldError, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, totals)
}

// rangeParams extracts the required inclusive date bounds. The bounds are
// opaque strings here; the store compares them lexicographically.
func rangeParams(w http.ResponseWriter, r *http.Request) (start, end string, ok bool) {
	start = strings.TrimSpace(r.URL.Query().Get("start_date"))
	end = strings.TrimSpace(r.URL.Query().Get("end_date"))
	if start == "" || end == "" {
		http.Error(w, "missing start_date or end_date", http.StatusBadRequest)
		return "", "", false
	}
	return start, end, true
}
