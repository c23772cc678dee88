/*
handlers.go - HTTP handlers for the dashboard API

PURPOSE:
  Serves the month document and the figures the dashboard views compute
  from it. The API never writes months itself; POST /api/ingest runs the
  same pipeline as the CLI.

ENDPOINTS:
  Months:
    GET    /api/months                               Summaries, stored order
    GET    /api/months/summary?months=A,B            Combined summary
    GET    /api/months/{id}                          Month document
    GET    /api/months/{id}/persons                  Collaborator table
    GET    /api/months/{id}/persons/{name}/entries   One person's entries
    GET    /api/months/{id}/clients                  Clients, most logged first
    GET    /api/months/{id}/nucleos                  Núcleos, most logged first

  Managers:
    GET    /api/managers                             Manager → núcleos
    GET    /api/managers/{name}/months/{id}          Month scoped to a manager

  Ingestion:
    POST   /api/ingest                               Run the pipeline now
    GET    /api/runs?limit=N                         Run ledger (SQL stores)

MONTH IDS:
  {id} matches a month id or name, then its canonical key ("marco" finds
  "Março"). The id "ALL" is every stored month combined.

ERROR HANDLING:
  - 400: Bad query parameter
  - 404: Unknown month, person or manager
  - 409: Ingestion aborted on a fatal input error
  - 500: Store failure
  - 503: Ingestion not configured

SEE ALSO:
  - dto.go: Response types
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/warp/timesheet-analytics/pipeline"
	"github.com/warp/timesheet-analytics/timesheet"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	Store    timesheet.MonthStore
	Pipeline *pipeline.Pipeline // nil disables POST /api/ingest
	Log      logrus.FieldLogger
}

// NewHandler creates a handler reading from store.
func NewHandler(store timesheet.MonthStore, p *pipeline.Pipeline, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{Store: store, Pipeline: p, Log: log.WithField("component", "api")}
}

// =============================================================================
// MONTH HANDLERS
// =============================================================================

// ListMonths returns one summary per stored month.
func (h *Handler) ListMonths(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.load(w, r)
	if !ok {
		return
	}
	dtos := make([]MonthSummaryDTO, len(doc.Months))
	for i, m := range doc.Months {
		dtos[i] = toMonthSummaryDTO(timesheet.Summarize(m))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CombinedSummary sums the months named in ?months= (all when absent).
func (h *Handler) CombinedSummary(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.load(w, r)
	if !ok {
		return
	}

	months := doc.Months
	if q := strings.TrimSpace(r.URL.Query().Get("months")); q != "" {
		months = nil
		for _, id := range strings.Split(q, ",") {
			m, err := findMonth(doc, strings.TrimSpace(id))
			if err != nil {
				writeError(w, http.StatusNotFound, "Month not found", err)
				return
			}
			months = append(months, m)
		}
	}
	writeJSON(w, http.StatusOK, toMonthSummaryDTO(timesheet.Summarize(timesheet.Combine(months))))
}

// GetMonth returns the month in the stored wire format.
func (h *Handler) GetMonth(w http.ResponseWriter, r *http.Request) {
	month, ok := h.month(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, month)
}

// ListPersons returns the collaborator table of a month.
func (h *Handler) ListPersons(w http.ResponseWriter, r *http.Request) {
	month, ok := h.month(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toPersonSummaryDTOs(timesheet.SummarizePersons(month)))
}

// ListPersonEntries returns one person's entries in ingestion order.
func (h *Handler) ListPersonEntries(w http.ResponseWriter, r *http.Request) {
	month, ok := h.month(w, r)
	if !ok {
		return
	}
	entries, err := timesheet.EntriesFor(month, param(r, "name"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Person not found", err)
		return
	}
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = EntryDTO{TimeEntry: e, ActivityGroup: timesheet.CleanTaskName(e.Activity)}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListClients returns client totals, most logged first.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	month, ok := h.month(w, r)
	if !ok {
		return
	}
	clients := make([]timesheet.ClientStat, 0, len(month.ByClient))
	for _, c := range month.ByClient {
		clients = append(clients, *c)
	}
	sort.Slice(clients, func(i, j int) bool {
		if clients[i].LoggedMinutes != clients[j].LoggedMinutes {
			return clients[i].LoggedMinutes > clients[j].LoggedMinutes
		}
		return clients[i].Name < clients[j].Name
	})
	writeJSON(w, http.StatusOK, clients)
}

// ListUnits returns núcleo totals, most logged first.
func (h *Handler) ListUnits(w http.ResponseWriter, r *http.Request) {
	month, ok := h.month(w, r)
	if !ok {
		return
	}
	units := make([]timesheet.UnitStat, 0, len(month.ByUnit))
	for _, u := range month.ByUnit {
		units = append(units, *u)
	}
	sort.Slice(units, func(i, j int) bool {
		if units[i].LoggedMinutes != units[j].LoggedMinutes {
			return units[i].LoggedMinutes > units[j].LoggedMinutes
		}
		return units[i].Name < units[j].Name
	})
	writeJSON(w, http.StatusOK, units)
}

// =============================================================================
// MANAGER HANDLERS
// =============================================================================

// ListManagers returns the manager → núcleos map.
func (h *Handler) ListManagers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, timesheet.Managers)
}

// GetManagerView returns a month narrowed to a manager's núcleos.
func (h *Handler) GetManagerView(w http.ResponseWriter, r *http.Request) {
	mgr, err := timesheet.FindManager(param(r, "name"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Manager not found", err)
		return
	}
	month, ok := h.month(w, r)
	if !ok {
		return
	}
	scoped := timesheet.ScopeToManager(month, mgr)
	writeJSON(w, http.StatusOK, ManagerViewDTO{
		Manager: mgr,
		Summary: toMonthSummaryDTO(timesheet.Summarize(scoped)),
		Persons: toPersonSummaryDTOs(timesheet.SummarizePersons(scoped)),
	})
}

// =============================================================================
// INGESTION HANDLERS
// =============================================================================

// TriggerIngest runs the pipeline and returns its result.
func (h *Handler) TriggerIngest(w http.ResponseWriter, r *http.Request) {
	if h.Pipeline == nil {
		writeError(w, http.StatusServiceUnavailable, "Ingestion not configured", nil)
		return
	}
	res, err := h.Pipeline.Run(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if timesheet.IsFatal(err) {
			status = http.StatusConflict
		}
		writeError(w, status, "Ingestion failed", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListRuns returns the run ledger, newest first. Stores without a ledger
// return an empty list.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	recorder, ok := h.Store.(timesheet.RunRecorder)
	if !ok {
		writeJSON(w, http.StatusOK, []timesheet.RunRecord{})
		return
	}
	runs, err := recorder.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}
	if runs == nil {
		runs = []timesheet.RunRecord{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// Health reports whether the store can be read.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Store.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Store unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Months: len(doc.Months)})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*timesheet.Document, bool) {
	doc, err := h.Store.Load(r.Context())
	if err != nil {
		h.Log.WithError(err).Error("failed to load store")
		writeError(w, http.StatusInternalServerError, "Failed to load months", err)
		return nil, false
	}
	return doc, true
}

func (h *Handler) month(w http.ResponseWriter, r *http.Request) (timesheet.MonthRecord, bool) {
	doc, ok := h.load(w, r)
	if !ok {
		return timesheet.MonthRecord{}, false
	}
	month, err := findMonth(doc, param(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Month not found", err)
		return timesheet.MonthRecord{}, false
	}
	return month, true
}

// findMonth resolves id to a stored month or to the combined view.
func findMonth(doc *timesheet.Document, id string) (timesheet.MonthRecord, error) {
	if strings.EqualFold(id, timesheet.CombinedID) {
		return timesheet.Combine(doc.Months), nil
	}
	if m, ok := doc.Find(id); ok {
		return m, nil
	}
	key := timesheet.MonthKey(id)
	for _, m := range doc.Months {
		if timesheet.MonthKey(m.ID) == key || timesheet.MonthKey(m.Name) == key {
			return m, nil
		}
	}
	return timesheet.MonthRecord{}, fmt.Errorf("%w: %s", timesheet.ErrMonthNotFound, id)
}

func param(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
