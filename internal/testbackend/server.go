// Package testbackend is a scripted stand-in for the recognition service.
// It backs the client and app tests and the hidden dev-backend command.
package testbackend

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/himanishpuri/spectra/pkg/logger"
	"github.com/himanishpuri/spectra/pkg/spectra/model"
)

// maxUploadBytes caps the multipart form parsed in memory.
const maxUploadBytes = 32 << 20

type task struct {
	next int
	done bool
}

// Server serves one Script. Counters are safe to read concurrently.
type Server struct {
	script  Script
	log     model.Logger
	metrics *Metrics

	mu       sync.Mutex
	tasks    map[string]*task
	submits  int
	polls    int
	uploads  [][]byte
	filename string
}

// New returns a server for script.
func New(script Script) *Server {
	return &Server{
		script:  script,
		log:     logger.GetLogger().WithPrefix("testbackend"),
		metrics: newMetrics(),
		tasks:   make(map[string]*task),
	}
}

// SetLogger replaces the request logger.
func (s *Server) SetLogger(l model.Logger) {
	if l != nil {
		s.log = l
	}
}

// Submits returns the number of POST /match_file requests received.
func (s *Server) Submits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submits
}

// Polls returns the number of task status requests received.
func (s *Server) Polls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls
}

// OpenTasks returns the number of tasks still waiting for a terminal status.
func (s *Server) OpenTasks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.done {
			n++
		}
	}
	return n
}

// LastUpload returns the most recent uploaded file and its form filename.
func (s *Server) LastUpload() ([]byte, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.uploads) == 0 {
		return nil, ""
	}
	return s.uploads[len(s.uploads)-1], s.filename
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{Error: message})
}

func respondRaw(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = io.WriteString(w, body)
}

// handleMatchFile handles POST /match_file (multipart field "file")
func (s *Server) handleMatchFile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.submits++
	s.mu.Unlock()

	if code := s.script.SubmitCode; code != 0 && code/100 != 2 {
		s.respondError(w, code, http.StatusText(code))
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.log.Warnf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Failed to read upload")
		return
	}

	id := s.script.TaskID
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	s.uploads = append(s.uploads, data)
	s.filename = header.Filename
	s.tasks[id] = &task{}
	s.mu.Unlock()
	s.metrics.observeUpload(len(data))

	s.log.Infof("Accepted %s (%d bytes) as task %s", header.Filename, len(data), id)

	if s.script.SubmitRaw != "" {
		respondRaw(w, http.StatusOK, s.script.SubmitRaw)
		return
	}
	s.respondJSON(w, http.StatusOK, SubmitResponse{TaskID: id, Status: "pending"})
}

// handleTaskStatus handles GET /task_status/{task_id}
func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "task_id")

	s.mu.Lock()
	s.polls++
	t, ok := s.tasks[id]
	var step Step
	if ok {
		step = s.stepAt(t.next)
		t.next++
		if step.Code == 0 && step.Raw == "" && step.Status != "pending" {
			t.done = true
		}
	}
	s.mu.Unlock()

	if !ok {
		s.respondError(w, http.StatusNotFound, "Invalid task_id")
		return
	}
	if step.Code == 0 && step.Raw == "" {
		s.metrics.observeStatus(step.Status)
	}

	switch {
	case step.Code != 0:
		s.respondError(w, step.Code, http.StatusText(step.Code))
	case step.Raw != "":
		respondRaw(w, http.StatusOK, step.Raw)
	default:
		s.respondJSON(w, http.StatusOK, StatusResponse{
			Status: step.Status,
			Result: step.Result,
			Error:  step.Error,
		})
	}
}

// stepAt returns step i, repeating the last step. An empty script succeeds
// with no candidates.
func (s *Server) stepAt(i int) Step {
	steps := s.script.Steps
	if len(steps) == 0 {
		return Success()
	}
	if i >= len(steps) {
		i = len(steps) - 1
	}
	return steps[i]
}

// handlePing handles GET /ping
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"msg": "spectra-api"})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: "spectra-api",
		Checks:  map[string]bool{"thread_pool": true, "filesystem": true, "database": true},
	})
}
