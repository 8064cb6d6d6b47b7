package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/etnz/coinfolio"
	"github.com/etnz/coinfolio/renderer"
)

const maxUpload = 10 << 20

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.tracker.Transactions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(txs))
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var tx coinfolio.Transaction
	if !decode(w, r, &tx) {
		return
	}
	tx.ID = 0
	added, err := s.tracker.Add(r.Context(), tx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": added.ID, "msg": "Transaction added successfully"})
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p coinfolio.Patch
	if !decode(w, r, &p) {
		return
	}
	if err := s.tracker.Edit(r.Context(), id, p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"msg": "Transaction updated successfully"})
}

func (s *Server) handleRemoveTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.tracker.Remove(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"msg": "Transaction deleted successfully"})
}

func (s *Server) handleBatchDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []int64 `json:"ids"`
	}
	if !decode(w, r, &req) {
		return
	}
	n, err := s.tracker.RemoveAll(r.Context(), req.IDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"msg": "Batch delete successful", "count": n})
}

func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No CSV file uploaded"})
		return
	}
	defer file.Close()

	txs, err := coinfolio.DecodeCSV(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Error parsing CSV: " + err.Error()})
		return
	}
	if len(txs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "CSV has no data"})
		return
	}
	n, err := s.tracker.Import(r.Context(), txs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"msg": "CSV import successful", "inserted": n})
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.tracker.Accounts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(accounts))
}

func (s *Server) handleAccountBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := s.tracker.AccountBalances(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(balances))
}

func (s *Server) handleCostBasis(w http.ResponseWriter, r *http.Request) {
	positions, err := s.tracker.CostBasis(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(positions.Sorted()))
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	v, err := s.tracker.Current(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.tracker.RecordSnapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSnapshotAt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SnapshotDate coinfolio.Date `json:"snapshotDate"`
		Date         coinfolio.Date `json:"date"`
	}
	if !decode(w, r, &req) {
		return
	}
	on := req.SnapshotDate
	if on.IsZero() {
		on = req.Date
	}
	snap, err := s.tracker.RecordSnapshotAt(r.Context(), on)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	snapshots, err := s.tracker.Snapshots(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(snapshots))
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	p, err := s.tracker.Performance(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleListManual(w http.ResponseWriter, r *http.Request) {
	balances, err := s.tracker.ManualBalances(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(balances))
}

func (s *Server) handleAddManual(w http.ResponseWriter, r *http.Request) {
	var b coinfolio.ManualBalance
	if !decode(w, r, &b) {
		return
	}
	b.ID = 0
	added, err := s.tracker.AddManual(r.Context(), b)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": added.ID, "msg": "Manual balance added"})
}

func (s *Server) handleEditManual(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p coinfolio.ManualPatch
	if !decode(w, r, &p) {
		return
	}
	if err := s.tracker.EditManual(r.Context(), id, p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"msg": "Manual balance updated"})
}

func (s *Server) handleRemoveManual(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.tracker.RemoveManual(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"msg": "Manual balance deleted"})
}

func (s *Server) handleManualOverview(w http.ResponseWriter, r *http.Request) {
	o, err := s.tracker.ManualOverview(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := renderer.NewReport(r.Context(), s.tracker)
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := renderer.ToHTML(renderer.RenderReport(report))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(renderer.Page(fmt.Sprintf("Portfolio on %s", report.Date), body)))
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.hub.AddClient(conn)

	if v, err := s.tracker.Current(r.Context()); err == nil {
		_ = conn.WriteJSON(Event{Type: "valuation", Data: v})
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.hub.RemoveClient(conn)
			return
		}
	}
}

// decode reads a JSON body into v, answering 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := parseID(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return 0, false
	}
	return id, true
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// statusOf maps tracker errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, coinfolio.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, coinfolio.ErrInvalidTransaction),
		errors.Is(err, coinfolio.ErrInvalidBalance),
		errors.Is(err, coinfolio.ErrMissingDate),
		errors.Is(err, coinfolio.ErrEmptySelection):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
