package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"hackwave/internal/calendar"
	appLog "hackwave/internal/log"
	"hackwave/internal/model"
	"hackwave/internal/provider"
	"hackwave/internal/store"
)

const maxBodyBytes = 1 << 20

type validationResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// stateResponse is the UI cursor plus the load flags.
type stateResponse struct {
	SelectedDate       string         `json:"selected_date"`
	Theme              provider.Theme `json:"theme"`
	Loading            bool           `json:"loading"`
	LoadingRecommended bool           `json:"loading_recommended"`
	Error              string         `json:"error,omitempty"`
}

type stateRequest struct {
	SelectedDate *string `json:"selected_date,omitempty"`
	Theme        *string `json:"theme,omitempty"`
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}

// writeMutationError maps provider errors onto HTTP statuses.
func writeMutationError(w http.ResponseWriter, err error) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, validationResponse{
			Error:  "validation failed",
			Fields: verr.Fields,
		})
		return
	}
	appLog.Error("api mutation failed", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// handleListEvents serves the provider's cache. When the first load failed
// there is nothing to serve and the load error is returned instead.
func (s *Server) handleListEvents(w http.ResponseWriter, _ *http.Request) {
	st := s.provider.Snapshot()
	if st.Error != "" && len(st.Events) == 0 {
		writeError(w, http.StatusServiceUnavailable, st.Error)
		return
	}
	writeJSON(w, http.StatusOK, st.Events)
}

func (s *Server) handleListRecommended(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.provider.Snapshot().Recommended)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var fields model.Fields
	if err := decodeBody(r, &fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	created, err := s.provider.AddEvent(r.Context(), fields)
	if err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// formDefaults is what a blank create form starts with.
type formDefaults struct {
	model.Fields
	Categories []string `json:"categories"`
}

func (s *Server) handleEventDefaults(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, formDefaults{
		Fields:     model.DefaultFields(s.provider.Today()),
		Categories: model.Categories,
	})
}

func (s *Server) handleAdopt(w http.ResponseWriter, r *http.Request) {
	created, err := s.provider.AdoptRecommendation(r.Context(), r.PathValue("id"))
	if errors.Is(err, provider.ErrUnknownRecommendation) {
		writeError(w, http.StatusNotFound, "recommendation not found")
		return
	}
	if err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	var patch model.Patch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	updated, ok, err := s.provider.EditEvent(r.Context(), r.PathValue("id"), patch)
	if errors.Is(err, provider.ErrEmptyPatch) {
		writeError(w, http.StatusBadRequest, "patch sets no field")
		return
	}
	if err != nil {
		writeMutationError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, store.NotFoundMessage)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.provider.RemoveEvent(r.Context(), r.PathValue("id")); err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// handleAgenda serves the sidebar lists.
//
// GET /api/agenda?today=YYYY-MM-DD
//   - today: reference date (default: today in the configured zone)
func (s *Server) handleAgenda(w http.ResponseWriter, r *http.Request) {
	today := s.provider.Today()
	if q := strings.TrimSpace(r.URL.Query().Get("today")); q != "" {
		t, err := calendar.ParseDate(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "today must be YYYY-MM-DD")
			return
		}
		today = t
	}
	writeJSON(w, http.StatusOK, s.provider.Agenda(today, s.cfg.AgendaLimit))
}

// handleCalendar serves the month grid.
//
// GET /api/calendar?year=2024&month=5
//   - year, month: month is zero-based; without either the month of the
//     selected date is served
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	view, err := s.monthView(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) monthView(r *http.Request) (calendar.MonthView, error) {
	q := r.URL.Query()
	if q.Get("year") == "" && q.Get("month") == "" {
		return s.provider.SelectedMonthView(s.cfg.CellChipLimit), nil
	}

	sel := s.provider.SelectedDate()
	year, err := parseIntDefault(q.Get("year"), sel.Year())
	if err != nil {
		return calendar.MonthView{}, errors.New("year must be an integer")
	}
	month, err := parseIntDefault(q.Get("month"), int(sel.Month())-1)
	if err != nil {
		return calendar.MonthView{}, errors.New("month must be an integer")
	}
	return s.provider.MonthView(year, month, s.cfg.CellChipLimit), nil
}

func (s *Server) stateResponse() stateResponse {
	st := s.provider.Snapshot()
	return stateResponse{
		SelectedDate:       st.SelectedDate,
		Theme:              st.Theme,
		Loading:            st.Loading,
		LoadingRecommended: st.LoadingRecommended,
		Error:              st.Error,
	}
}

func (s *Server) handleGetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.stateResponse())
}

func (s *Server) handlePutState(w http.ResponseWriter, r *http.Request) {
	var req stateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	// Validate everything before changing anything.
	var theme provider.Theme
	if req.Theme != nil {
		t, err := provider.ParseTheme(*req.Theme)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		theme = t
	}
	if req.SelectedDate != nil {
		if err := s.provider.SelectDate(*req.SelectedDate); err != nil {
			writeError(w, http.StatusBadRequest, "selected_date must be YYYY-MM-DD")
			return
		}
	}
	if theme != "" {
		s.provider.SetTheme(theme)
	}
	writeJSON(w, http.StatusOK, s.stateResponse())
}

// handleNavigate moves the month cursor: prev, next, today, or toggles the
// theme with theme.
func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	switch r.PathValue("action") {
	case "prev":
		s.provider.PrevMonth()
	case "next":
		s.provider.NextMonth()
	case "today":
		s.provider.GoToday()
	case "theme":
		s.provider.ToggleTheme()
	default:
		writeError(w, http.StatusNotFound, "unknown action")
		return
	}
	writeJSON(w, http.StatusOK, s.stateResponse())
}
