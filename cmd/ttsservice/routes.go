package main

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/ttsjob"
)

// registerRoutes wires the job submit/poll/cancel/cleanup surface plus the
// ambient health and metrics endpoints to mux.
func registerRoutes(mux *http.ServeMux, manager *ttsjob.Manager) {
	d := &deps{manager: manager}

	mux.HandleFunc("POST /start", d.handleStart)
	mux.HandleFunc("POST /cancel", d.handleCancel)
	mux.HandleFunc("GET /result/{job_id}", d.handleResult)
	mux.HandleFunc("DELETE /jobs/{job_id}", d.handleCleanup)
	mux.HandleFunc("GET /health", handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
}

type deps struct {
	manager *ttsjob.Manager
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type startRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

type startResponse struct {
	Status  string `json:"status"`
	JobID   string `json:"job_id"`
	Message string `json:"message,omitempty"`
}

func (d *deps) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, "text must not be empty", http.StatusBadRequest)
		return
	}

	id := d.manager.Start(req.Text, req.Voice)
	writeJSON(w, startResponse{Status: "started", JobID: id, Message: "synthesis scheduled"})
}

type cancelRequest struct {
	JobID string `json:"job_id"`
}

type statusResponse struct {
	Status  string `json:"status"`
	JobID   string `json:"job_id"`
	Message string `json:"message,omitempty"`
}

func (d *deps) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	outcome := d.manager.Cancel(req.JobID)
	resp := statusResponse{Status: string(outcome), JobID: req.JobID}
	switch outcome {
	case ttsjob.CancelNotFound:
		http.Error(w, "job not found", http.StatusNotFound)
		return
	case ttsjob.CancelAlreadyDone:
		resp.Message = "job already completed"
	case ttsjob.CancelAlreadyCancelled:
		resp.Message = "job already cancelled"
	default:
		resp.Message = "cancellation requested"
	}
	writeJSON(w, resp)
}

type resultResponse struct {
	Status         string    `json:"status"`
	JobID          string    `json:"job_id"`
	AudioBase64    string    `json:"audio_base64,omitempty"`
	AudioSize      int       `json:"audio_size,omitempty"`
	Segments       int       `json:"segments,omitempty"`
	AudioDurationS float64   `json:"audio_duration_s,omitempty"`
	RTF            float64   `json:"rtf,omitempty"`
	SegmentRTF     []float64 `json:"segment_rtf,omitempty"`
	Error          string    `json:"error,omitempty"`
	Message        string    `json:"message,omitempty"`
}

func (d *deps) handleResult(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("job_id")
	job := d.manager.Get(id)
	if job == nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	status, result, errMsg := job.Snapshot()
	resp := resultResponse{Status: string(status), JobID: id}
	switch status {
	case ttsjob.Completed:
		resp.AudioBase64 = result.AudioBase64
		resp.AudioSize = result.AudioSize
		resp.Segments = result.Segments
		resp.AudioDurationS = result.AudioDurationS
		resp.RTF = result.RTF
		resp.SegmentRTF = result.SegmentRTF
	case ttsjob.Error:
		resp.Error = errMsg
	case ttsjob.Cancelled:
		resp.Message = "job cancelled"
	default:
		resp.Message = "job not yet complete"
	}
	writeJSON(w, resp)
}

type cleanupResponse struct {
	Status string `json:"status"`
	JobID  string `json:"job_id"`
}

func (d *deps) handleCleanup(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("job_id")
	outcome := d.manager.Cleanup(id)
	switch outcome {
	case ttsjob.CleanupNotFound:
		http.Error(w, "job not found", http.StatusNotFound)
	case ttsjob.CleanupCannotCleanup:
		http.Error(w, "job is not in a terminal state", http.StatusBadRequest)
	default:
		writeJSON(w, cleanupResponse{Status: "deleted", JobID: id})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
