package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/me/batchsim/internal/scheduler"
	"github.com/me/batchsim/internal/workload"
	"github.com/me/batchsim/pkg/model"
)

var listOne = model.ListOptions{Limit: 1}

// handleCreateRun simulates the posted workload, archives the run and
// returns it. The body is YAML; JSON works too since it is a YAML subset.
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	wl, err := workload.Parse(data)
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest, invalidWorkload(err))
		return
	}
	if name := r.URL.Query().Get("name"); name != "" {
		wl.Name = name
	}

	loop, err := scheduler.NewLoop(wl, scheduler.Options{Config: s.config.Sim}, s.logger)
	if err != nil {
		respondError(w, reqID, http.StatusBadRequest, invalidWorkload(err))
		return
	}

	if !s.limiter.acquire(r.Context()) {
		noteRun(r.Context(), "", "abandoned")
		s.logger.Info("run abandoned while queued", "request_id", reqID)
		return
	}
	rep, runErr := loop.Run(r.Context())
	s.limiter.release()
	if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
		noteRun(r.Context(), "", "abandoned")
		s.logger.Info("run abandoned by client", "request_id", reqID, "error", runErr)
		return
	}

	run, err := scheduler.NewRun(wl, rep, runErr)
	if err != nil {
		respondErr(w, reqID, err)
		return
	}
	if err := s.store.CreateRun(r.Context(), run); err != nil {
		respondErr(w, reqID, err)
		return
	}

	outcome := "completed"
	if run.Error != "" {
		outcome = "aborted"
	}
	noteRun(r.Context(), run.ID, outcome)
	s.logger.Info("run created",
		"id", run.ID,
		"jobs", run.JobCount,
		"makespan", run.Summary.Makespan,
		"events", len(run.Events),
		"error", run.Error,
	)

	if r.URL.Query().Get("events") != "true" {
		run.Events = nil
	}
	run.Workload = ""
	respondRunCreated(w, reqID, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	opts, apiErr := listOptions(r)
	if apiErr != nil {
		respondError(w, reqID, http.StatusBadRequest, apiErr)
		return
	}

	runs, total, err := s.store.ListRuns(r.Context(), opts)
	if err != nil {
		respondErr(w, reqID, err)
		return
	}
	if runs == nil {
		runs = []*model.Run{}
	}

	respondList(w, reqID, runs, model.NewPagination(opts, len(runs), total))
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	run, ok := s.lookupRun(w, r, reqID, id)
	if !ok {
		return
	}
	respondOK(w, reqID, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if _, ok := s.lookupRun(w, r, reqID, id); !ok {
		return
	}
	if err := s.store.DeleteRun(r.Context(), id); err != nil {
		respondErr(w, reqID, err)
		return
	}
	noteRun(r.Context(), id, "deleted")
	s.logger.Info("run deleted", "id", id)
	respondOK(w, reqID, map[string]any{"id": id, "deleted": true})
}

func (s *Server) handleListRunEvents(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var pid model.PID
	if v := r.URL.Query().Get("pid"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("invalid query parameter",
				model.FieldError{Field: "pid", Message: "pid must be a non-negative integer"}))
			return
		}
		pid = model.PID(n)
	}

	if _, ok := s.lookupRun(w, r, reqID, id); !ok {
		return
	}
	events, err := s.store.ListRunEvents(r.Context(), id, pid)
	if err != nil {
		respondErr(w, reqID, err)
		return
	}

	respondList(w, reqID, events, &model.Pagination{
		Total: len(events),
		Limit: len(events),
	})
}

func (s *Server) handleListRunProcesses(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	run, ok := s.lookupRun(w, r, reqID, id)
	if !ok {
		return
	}
	respondList(w, reqID, run.Processes, &model.Pagination{
		Total: len(run.Processes),
		Limit: len(run.Processes),
	})
}

// invalidWorkload reports a rejected workload, keeping field details when
// validation produced them.
func invalidWorkload(err error) *model.APIError {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return model.NewValidationError("Invalid workload: " + err.Error())
}

// lookupRun fetches a run or writes the matching error response.
func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request, reqID, id string) (*model.Run, bool) {
	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		respondErr(w, reqID, err)
		return nil, false
	}
	if run == nil {
		respondErr(w, reqID, model.NewNotFoundError("run", id))
		return nil, false
	}
	noteRun(r.Context(), run.ID, "")
	return run, true
}

func listOptions(r *http.Request) (model.ListOptions, *model.APIError) {
	opts := model.DefaultListOptions()
	q := r.URL.Query()
	var details []model.FieldError

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			details = append(details, model.FieldError{Field: "limit", Message: "limit must be an integer"})
		}
		opts.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			details = append(details, model.FieldError{Field: "offset", Message: "offset must be an integer"})
		}
		opts.Offset = n
	}
	opts.Name = q.Get("name")

	if len(details) > 0 {
		return opts, model.NewValidationError("invalid query parameter", details...)
	}
	opts.Clamp()
	return opts, nil
}
