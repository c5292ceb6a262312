package ui

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jdziat/simple-async-jobs/pkg/core"
	"github.com/jdziat/simple-async-jobs/pkg/queue"
	"github.com/jdziat/simple-async-jobs/pkg/security"
)

// maxEventLimit caps the limit query parameter of GET /events.
const maxEventLimit = 1000

// ErrStoppedFromUI is the error a queue ends with after POST /queue/end
// without a reason.
var ErrStoppedFromUI = errors.New("jobs: queue ended from ui")

type service struct {
	queue       *queue.Queue
	store       core.Storage
	logger      *slog.Logger
	statsWindow time.Duration
}

// JobSummary describes a pending job.
type JobSummary struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// QueueStatus is the body of GET /queue.
type QueueStatus struct {
	Name        string       `json:"name"`
	Running     bool         `json:"running"`
	Session     uint64       `json:"session"`
	InFlight    int          `json:"in_flight"`
	Pending     int          `json:"pending"`
	Length      int          `json:"length"`
	Concurrency int          `json:"concurrency"`
	Unlimited   bool         `json:"unlimited"`
	Timeout     string       `json:"timeout,omitempty"`
	FailFast    bool         `json:"fail_fast"`
	PendingJobs []JobSummary `json:"pending_jobs"`
}

// EventView is one journaled event in GET /events.
type EventView struct {
	ID        string    `json:"id"`
	Queue     string    `json:"queue"`
	Kind      string    `json:"kind"`
	JobID     string    `json:"job_id,omitempty"`
	JobName   string    `json:"job_name,omitempty"`
	Session   uint64    `json:"session"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// StatView is one per-minute bucket in GET /stats.
type StatView struct {
	Timestamp time.Time `json:"timestamp"`
	Started   int64     `json:"started"`
	Succeeded int64     `json:"succeeded"`
	Failed    int64     `json:"failed"`
	TimedOut  int64     `json:"timed_out"`
	Ended     int64     `json:"ended"`
}

func (s *service) status() QueueStatus {
	pending := s.queue.Pending()
	concurrency := s.queue.Concurrency()

	st := QueueStatus{
		Name:        s.queue.Name(),
		Running:     s.queue.Running(),
		Session:     s.queue.Session(),
		InFlight:    s.queue.InFlight(),
		Pending:     len(pending),
		Length:      s.queue.Len(),
		Concurrency: concurrency,
		Unlimited:   concurrency == queue.Unlimited,
		FailFast:    s.queue.FailFast(),
		PendingJobs: make([]JobSummary, len(pending)),
	}
	if st.Unlimited {
		st.Concurrency = -1
	}
	if d := s.queue.Timeout(); d > 0 {
		st.Timeout = d.String()
	}
	for i, job := range pending {
		st.PendingJobs[i] = JobSummary{ID: job.ID, Name: job.Name}
	}
	return st
}

func (s *service) getQueue(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.status())
}

func (s *service) startQueue(w http.ResponseWriter, r *http.Request) {
	if err := s.queue.Start(nil); err != nil {
		s.respondWithError(w, r, http.StatusConflict, err.Error(), err)
		return
	}
	respondWithJSON(w, http.StatusAccepted, s.status())
}

func (s *service) stopQueue(w http.ResponseWriter, r *http.Request) {
	s.queue.Stop()
	respondWithJSON(w, http.StatusOK, s.status())
}

func (s *service) endQueue(w http.ResponseWriter, r *http.Request) {
	err := ErrStoppedFromUI
	if reason := r.URL.Query().Get("reason"); reason != "" {
		err = errors.New(security.SanitizeErrorMessage(reason))
	}
	s.queue.End(err)
	respondWithJSON(w, http.StatusOK, s.status())
}

type concurrencyRequest struct {
	Concurrency *int `json:"concurrency"`
}

func (s *service) setConcurrency(w http.ResponseWriter, r *http.Request) {
	var req concurrencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Concurrency == nil || *req.Concurrency < 0 {
		s.respondWithError(w, r, http.StatusBadRequest, "concurrency must be a non-negative integer", nil)
		return
	}
	s.queue.SetConcurrency(*req.Concurrency)
	respondWithJSON(w, http.StatusOK, s.status())
}

func (s *service) listEvents(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondWithError(w, r, http.StatusServiceUnavailable, core.ErrNoStorage.Error(), core.ErrNoStorage)
		return
	}

	q := r.URL.Query()
	filter := core.EventFilter{
		Queue: s.queue.Name(),
		Kind:  core.EventKind(q.Get("kind")),
		JobID: q.Get("job_id"),
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			s.respondWithError(w, r, http.StatusBadRequest, "limit must be a positive integer", err)
			return
		}
		filter.Limit = min(limit, maxEventLimit)
	}

	if v := q.Get("since"); v != "" {
		since, err := parseTime(v, time.Now())
		if err != nil {
			s.respondWithError(w, r, http.StatusBadRequest, "invalid since: "+err.Error(), err)
			return
		}
		filter.Since = since
	}

	records, err := s.store.ListEvents(r.Context(), filter)
	if err != nil {
		s.respondWithError(w, r, http.StatusInternalServerError, "failed to list events", err)
		return
	}

	views := make([]EventView, len(records))
	for i, rec := range records {
		views[i] = EventView{
			ID:        rec.ID,
			Queue:     rec.Queue,
			Kind:      string(rec.Kind),
			JobID:     rec.JobID,
			JobName:   rec.JobName,
			Session:   rec.Session,
			Error:     rec.Error,
			CreatedAt: rec.CreatedAt,
		}
	}
	respondWithJSON(w, http.StatusOK, views)
}

func (s *service) countEvents(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondWithError(w, r, http.StatusServiceUnavailable, core.ErrNoStorage.Error(), core.ErrNoStorage)
		return
	}

	counts, err := s.store.CountEvents(r.Context(), s.queue.Name())
	if err != nil {
		s.respondWithError(w, r, http.StatusInternalServerError, "failed to count events", err)
		return
	}
	respondWithJSON(w, http.StatusOK, counts)
}

func (s *service) getStats(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondWithError(w, r, http.StatusServiceUnavailable, core.ErrNoStorage.Error(), core.ErrNoStorage)
		return
	}

	now := time.Now()
	since := now.Add(-s.statsWindow)
	var until time.Time

	q := r.URL.Query()
	if v := q.Get("since"); v != "" {
		t, err := parseTime(v, now)
		if err != nil {
			s.respondWithError(w, r, http.StatusBadRequest, "invalid since: "+err.Error(), err)
			return
		}
		since = t
	}
	if v := q.Get("until"); v != "" {
		t, err := parseTime(v, now)
		if err != nil {
			s.respondWithError(w, r, http.StatusBadRequest, "invalid until: "+err.Error(), err)
			return
		}
		until = t
	}

	stats, err := s.store.GetStatsHistory(r.Context(), s.queue.Name(), since, until)
	if err != nil {
		s.respondWithError(w, r, http.StatusInternalServerError, "failed to load stats", err)
		return
	}

	views := make([]StatView, len(stats))
	for i, st := range stats {
		views[i] = StatView{
			Timestamp: st.Timestamp,
			Started:   st.Started,
			Succeeded: st.Succeeded,
			Failed:    st.Failed,
			TimedOut:  st.TimedOut,
			Ended:     st.Ended,
		}
	}
	respondWithJSON(w, http.StatusOK, views)
}

// parseTime accepts an RFC 3339 timestamp or a duration, which is taken as
// that long before now.
func parseTime(v string, now time.Time) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return time.Time{}, errors.New("expected RFC 3339 time or duration")
	}
	return now.Add(-d), nil
}
