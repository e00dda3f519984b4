package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"seta/internal/auth"
	"seta/internal/core"
	"seta/internal/export"
	applog "seta/internal/log"
	"seta/internal/services"
	"seta/internal/store"
)

const noticeStoreUnavailable = "Could not reach your expenses. Please try again."

// handleSummary returns the owner's summary for ?window=. Anonymous callers
// get the empty summary. When the record store fails, the previously
// computed summary is returned marked stale; without one the response is
// a 502 notice.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	params, err := ParseWindowParams(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	owner, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		NewJSONResponse().Body(toSummaryJSON(services.View{Summary: core.EmptySummary(params.Selector)})).Write(w)
		return
	}

	view, err := s.dashboards.Refresh(r.Context(), owner, params.Selector, params.Theme)
	if err != nil {
		var loadErr *services.LoadError
		notice := noticeStoreUnavailable
		if errors.As(err, &loadErr) {
			notice = loadErr.Notice
		}
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Summary unavailable",
			applog.FieldWindow, string(params.Selector), applog.FieldError, err)
		NoticeResponse(http.StatusBadGateway, notice).Write(w)
		return
	}
	NewJSONResponse().Body(toSummaryJSON(view)).Write(w)
}

// handleListExpenses returns the owner's records in ?window=, newest first.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	params, err := ParseWindowParams(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	owner, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		NewJSONResponse().Body(toRecordsJSON(params.Selector, nil)).Write(w)
		return
	}

	recs, err := s.ledger.ListRecords(r.Context(), owner, params.Selector)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "List expenses failed", applog.FieldError, err)
		NoticeResponse(http.StatusBadGateway, noticeStoreUnavailable).Write(w)
		return
	}
	NewJSONResponse().Body(toRecordsJSON(params.Selector, recs)).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFromContext(r.Context())

	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		if fields, ok := ProcessValidationErrors(err); ok {
			ValidationError(fields).Write(w)
			return
		}
		BadRequestError(err.Error()).Write(w)
		return
	}
	draft, problems := req.toDraft()
	if problems != nil {
		ValidationError(problems).Write(w)
		return
	}

	rec, err := s.ledger.CreateRecord(r.Context(), owner, draft)
	if err != nil {
		if errors.Is(err, core.ErrNegativeAmount) || errors.Is(err, core.ErrUnknownCategory) || errors.Is(err, core.ErrNoteTooLong) {
			ErrorResponse(http.StatusUnprocessableEntity, err.Error()).Write(w)
			return
		}
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Create expense failed", applog.FieldError, err)
		NoticeResponse(http.StatusBadGateway, "Could not save the expense. Please try again.").Write(w)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/"+rec.ID).
		Body(toRecordJSON(rec)).
		Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.OwnerFromContext(r.Context())
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		BadRequestError("missing expense id").Write(w)
		return
	}

	if err := s.ledger.DeleteRecord(r.Context(), owner, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError("expense not found").Write(w)
			return
		}
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Delete expense failed",
			applog.FieldRecordID, id, applog.FieldError, err)
		NoticeResponse(http.StatusBadGateway, "Could not delete the expense. Please try again.").Write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleInsight blocks until advice for ?window= is available. The text
// is never an error: failures come back as the fixed fallback copy.
func (s *Server) handleInsight(w http.ResponseWriter, r *http.Request) {
	params, err := ParseWindowParams(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	owner, _ := auth.OwnerFromContext(r.Context())

	text, err := s.ledger.Insight(r.Context(), owner, params.Selector)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Insight records unavailable", applog.FieldError, err)
		NoticeResponse(http.StatusBadGateway, noticeStoreUnavailable).Write(w)
		return
	}
	NewJSONResponse().Body(insightJSON{Window: string(params.Selector), Text: text}).Write(w)
}

// handleExport streams the owner's summary and window records as xlsx.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	params, err := ParseWindowParams(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	owner, _ := auth.OwnerFromContext(r.Context())
	logger := applog.FromContext(r.Context()).WithComponent(applog.ComponentExport)

	summary, err := s.ledger.Summary(r.Context(), owner, params.Selector, params.Theme)
	if err != nil {
		logger.ErrorContext(r.Context(), "Export summary failed", applog.FieldError, err)
		NoticeResponse(http.StatusBadGateway, noticeStoreUnavailable).Write(w)
		return
	}
	recs, err := s.ledger.ListRecords(r.Context(), owner, params.Selector)
	if err != nil {
		logger.ErrorContext(r.Context(), "Export records failed", applog.FieldError, err)
		NoticeResponse(http.StatusBadGateway, noticeStoreUnavailable).Write(w)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=seta-%s.xlsx", params.Selector))
	if err := export.WriteWorkbook(w, summary, recs); err != nil {
		logger.ErrorContext(r.Context(), "Write workbook failed", applog.FieldError, err)
	}
}
