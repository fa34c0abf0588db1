package transport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/hirehall/dealflow/internal/coordinator"
	"github.com/hirehall/dealflow/internal/domain/project"
	"github.com/hirehall/dealflow/internal/domain/revision"
	"github.com/hirehall/dealflow/internal/notify"
	"github.com/hirehall/dealflow/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Services bundles what the HTTP layer needs: the coordinator for every
// state-changing action, the project service for creation and listing, and
// read-only repositories for the sub-resource GETs.
type Services struct {
	Coordinator   *coordinator.Coordinator
	Projects      *project.Service
	Notifications *notify.Service
	Quotes        coordinator.QuoteRepository
	Revisions     coordinator.RevisionRepository
	Escrows       coordinator.EscrowRepository
}

// Server wires HTTP handlers.
type Server struct {
	svc Services
}

// NewServer creates an HTTP router with middleware.
func NewServer(svc Services, authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	srv := &Server{svc: svc}

	r.Get("/health", srv.handleHealth)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", srv.handleCreateProject)
			r.Get("/", srv.handleListProjects)
			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", srv.handleGetProject)
				r.Get("/quotes", srv.handleListQuotes)
				r.Get("/escrow", srv.handleGetEscrow)
				r.Get("/notifications", srv.handleListNotifications)
				r.Post("/quotes", srv.handleSubmitQuote)
				r.Post("/cancel", srv.handleCancelProject)
				r.Post("/expire", srv.handleExpireProject)
				r.Post("/payment/begin", srv.handleBeginPayment)
				r.Post("/payment/confirm", srv.handleConfirmPayment)
				r.Post("/completion/request", srv.handleRequestCompletion)
				r.Post("/completion/approve", srv.handleApproveCompletion)
				r.Post("/dispute", srv.handleDisputeEscrow)
			})
		})

		r.Route("/quotes/{quoteID}", func(r chi.Router) {
			r.Post("/view", srv.handleMarkQuoteViewed)
			r.Post("/accept", srv.handleAcceptQuote)
			r.Post("/reject", srv.handleRejectQuote)
			r.Post("/revisions", srv.handleRequestRevision)
			r.Get("/revisions", srv.handleListRevisions)
		})

		r.Post("/revisions/{revisionID}/resolve", srv.handleResolveRevision)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func actor(r *http.Request) coordinator.Actor {
	a, _ := ActorFromContext(r.Context())
	return a
}

// decode parses the JSON body; an empty body leaves v at its zero value.
func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

type createProjectRequest struct {
	CategoryID string `json:"category_id"`
	Title      string `json:"title"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	a := actor(r)
	if a.Role != coordinator.RoleClient {
		writeJSON(w, http.StatusForbidden, errorBody{Error: "only clients create projects"})
		return
	}

	proj, err := s.svc.Projects.Create(r.Context(), project.CreateRequest{
		ClientID:   a.ID,
		CategoryID: req.CategoryID,
		Title:      req.Title,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, proj)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.svc.Projects.ListByClient(r.Context(), actor(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	proj, err := s.svc.Projects.Get(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

func (s *Server) handleListQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.svc.Quotes.ListByProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quotes)
}

func (s *Server) handleGetEscrow(w http.ResponseWriter, r *http.Request) {
	esc, err := s.svc.Escrows.GetByProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		if err == repository.ErrNotFound {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "no escrow for this project"})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, esc)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Notifications.ListByProject(r.Context(), chi.URLParam(r, "projectID"), 50)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type submitQuoteRequest struct {
	Amount int64  `json:"amount"`
	Note   string `json:"note"`
}

func (s *Server) handleSubmitQuote(w http.ResponseWriter, r *http.Request) {
	var req submitQuoteRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	q, err := s.svc.Coordinator.SubmitQuote(r.Context(), coordinator.SubmitQuote{
		Actor:     actor(r),
		ProjectID: chi.URLParam(r, "projectID"),
		Amount:    req.Amount,
		Note:      req.Note,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (s *Server) handleMarkQuoteViewed(w http.ResponseWriter, r *http.Request) {
	q, err := s.svc.Coordinator.MarkQuoteViewed(r.Context(), coordinator.MarkQuoteViewed{
		Actor:   actor(r),
		QuoteID: chi.URLParam(r, "quoteID"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// acceptQuoteResponse carries the acceptance outcome plus, when the escrow
// or project step failed after the acceptance committed, a warning the UI
// must show. The warning never demotes the response below 200: the user's
// primary intent was honored.
type acceptQuoteResponse struct {
	*coordinator.AcceptQuoteResult
	Warning *coordinator.SyncFailure `json:"warning,omitempty"`
}

func (s *Server) handleAcceptQuote(w http.ResponseWriter, r *http.Request) {
	result, failure, err := s.svc.Coordinator.AcceptQuote(r.Context(), coordinator.AcceptQuote{
		Actor:   actor(r),
		QuoteID: chi.URLParam(r, "quoteID"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acceptQuoteResponse{AcceptQuoteResult: result, Warning: failure})
}

func (s *Server) handleRejectQuote(w http.ResponseWriter, r *http.Request) {
	q, err := s.svc.Coordinator.RejectQuote(r.Context(), coordinator.RejectQuote{
		Actor:   actor(r),
		QuoteID: chi.URLParam(r, "quoteID"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

type requestRevisionRequest struct {
	SuggestedPrice *int64 `json:"suggested_price,omitempty"`
	AdditionalFees *int64 `json:"additional_fees,omitempty"`
	Comments       string `json:"comments"`
}

func (s *Server) handleRequestRevision(w http.ResponseWriter, r *http.Request) {
	var req requestRevisionRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	rev, err := s.svc.Coordinator.RequestRevision(r.Context(), coordinator.RequestRevision{
		Actor:          actor(r),
		QuoteID:        chi.URLParam(r, "quoteID"),
		SuggestedPrice: req.SuggestedPrice,
		AdditionalFees: req.AdditionalFees,
		Comments:       req.Comments,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rev)
}

func (s *Server) handleListRevisions(w http.ResponseWriter, r *http.Request) {
	revs, err := s.svc.Revisions.ListByQuote(r.Context(), chi.URLParam(r, "quoteID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, revs)
}

type resolveRevisionRequest struct {
	Resolution    string `json:"resolution"`
	CounterAmount *int64 `json:"counter_amount,omitempty"`
	CounterNote   string `json:"counter_note,omitempty"`
}

type resolveRevisionResponse struct {
	*coordinator.ResolveRevisionResult
	Warning *coordinator.SyncFailure `json:"warning,omitempty"`
}

func (s *Server) handleResolveRevision(w http.ResponseWriter, r *http.Request) {
	var req resolveRevisionRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	result, failure, err := s.svc.Coordinator.ResolveRevision(r.Context(), coordinator.ResolveRevision{
		Actor:         actor(r),
		RevisionID:    chi.URLParam(r, "revisionID"),
		Resolution:    revision.Resolution(req.Resolution),
		CounterAmount: req.CounterAmount,
		CounterNote:   req.CounterNote,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolveRevisionResponse{ResolveRevisionResult: result, Warning: failure})
}

func (s *Server) handleCancelProject(w http.ResponseWriter, r *http.Request) {
	proj, err := s.svc.Coordinator.CancelProject(r.Context(), coordinator.CancelProject{
		Actor:     actor(r),
		ProjectID: chi.URLParam(r, "projectID"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

func (s *Server) handleExpireProject(w http.ResponseWriter, r *http.Request) {
	proj, err := s.svc.Coordinator.ExpireProject(r.Context(), coordinator.ExpireProject{
		Actor:     actor(r),
		ProjectID: chi.URLParam(r, "projectID"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

func (s *Server) handleBeginPayment(w http.ResponseWriter, r *http.Request) {
	proj, err := s.svc.Coordinator.BeginPayment(r.Context(), coordinator.BeginPayment{
		Actor:     actor(r),
		ProjectID: chi.URLParam(r, "projectID"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

type projectResponse struct {
	*project.Project
	Warning *coordinator.SyncFailure `json:"warning,omitempty"`
}

func (s *Server) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	proj, failure, err := s.svc.Coordinator.ConfirmPayment(r.Context(), coordinator.ConfirmPayment{
		Actor:     actor(r),
		ProjectID: chi.URLParam(r, "projectID"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projectResponse{Project: proj, Warning: failure})
}

func (s *Server) handleRequestCompletion(w http.ResponseWriter, r *http.Request) {
	proj, err := s.svc.Coordinator.RequestCompletion(r.Context(), coordinator.RequestCompletion{
		Actor:     actor(r),
		ProjectID: chi.URLParam(r, "projectID"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

func (s *Server) handleApproveCompletion(w http.ResponseWriter, r *http.Request) {
	proj, failure, err := s.svc.Coordinator.ApproveCompletion(r.Context(), coordinator.ApproveCompletion{
		Actor:     actor(r),
		ProjectID: chi.URLParam(r, "projectID"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projectResponse{Project: proj, Warning: failure})
}

type disputeRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleDisputeEscrow(w http.ResponseWriter, r *http.Request) {
	var req disputeRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	esc, err := s.svc.Coordinator.DisputeEscrow(r.Context(), coordinator.DisputeEscrow{
		Actor:     actor(r),
		ProjectID: chi.URLParam(r, "projectID"),
		Reason:    req.Reason,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, esc)
}
