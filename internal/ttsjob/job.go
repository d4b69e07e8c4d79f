// Package ttsjob manages asynchronous TTS synthesis jobs: a UUID-keyed job
// table, a bounded worker pool that runs ttsseg.Run for each job, and the
// start/cancel/poll/cleanup operations the TTS HTTP surface exposes.
package ttsjob

import (
	"encoding/base64"
	"sync"
	"time"
)

// Status is a job's lifecycle state.
type Status string

const (
	Pending    Status = "pending"
	Processing Status = "processing"
	Completed  Status = "completed"
	Cancelled  Status = "cancelled"
	Error      Status = "error"
)

// Result is the synthesis output recorded on a completed job.
type Result struct {
	AudioBase64    string
	Text           string
	AudioSize      int
	Segments       int
	AudioDurationS float64
	RTF            float64
	SegmentRTF     []float64
}

// Job is one TTS synthesis request and its current state.
type Job struct {
	ID        string
	Text      string
	Voice     string
	Status    Status
	CreatedAt time.Time
	StartedAt time.Time
	EndedAt   time.Time
	Result    Result
	Err       string

	mu sync.Mutex
}

func (j *Job) snapshotStatus() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status
}

// Snapshot returns a consistent view of the job's status, result, and error
// string, safe to call from any goroutine while the worker may still be
// mutating the job.
func (j *Job) Snapshot() (Status, Result, string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status, j.Result, j.Err
}

func (j *Job) setStatus(s Status) {
	j.mu.Lock()
	j.Status = s
	j.mu.Unlock()
}

func (j *Job) complete(wav []byte, text string, segments int, audioDurationS, rtf float64, segmentRTF []float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = Completed
	j.EndedAt = time.Now()
	j.Result = Result{
		AudioBase64:    base64.StdEncoding.EncodeToString(wav),
		Text:           text,
		AudioSize:      len(wav),
		Segments:       segments,
		AudioDurationS: audioDurationS,
		RTF:            rtf,
		SegmentRTF:     segmentRTF,
	}
}

func (j *Job) fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = Error
	j.EndedAt = time.Now()
	j.Err = err.Error()
}
