package ttsjob

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/config"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/metrics"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/ttsseg"
)

// Manager owns the job table and the bounded worker pool that runs
// synthesis. One Manager backs one ttsservice process.
type Manager struct {
	cfg    config.TTS
	synth  ttsseg.Synthesizer
	loader *Loader

	work chan string

	mu   sync.Mutex
	jobs map[string]*Job
}

// NewManager creates a Manager backed by synth, with a worker pool sized by
// cfg.WorkerCount (defaulting to 1 if non-positive).
func NewManager(cfg config.TTS, synth ttsseg.Synthesizer, warmup func(ctx context.Context) error) *Manager {
	workers := cfg.WorkerCount
	if workers < 1 {
		workers = 1
	}

	m := &Manager{
		cfg:    cfg,
		synth:  synth,
		loader: NewLoader(warmup),
		work:   make(chan string, 256),
		jobs:   make(map[string]*Job),
	}

	for i := 0; i < workers; i++ {
		go m.worker()
	}
	return m
}

func (m *Manager) worker() {
	for id := range m.work {
		m.process(id)
	}
}

// Start allocates a job for text/voice, enqueues it on the worker pool, and
// returns its ID immediately.
func (m *Manager) Start(text, voice string) string {
	id := uuid.NewString()
	job := &Job{
		ID:        id,
		Text:      text,
		Voice:     voice,
		Status:    Pending,
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.jobs[id] = job
	m.mu.Unlock()

	metrics.TTSJobsActive.Inc()
	m.work <- id
	return id
}

// CancelOutcome is the result of a Cancel call.
type CancelOutcome string

const (
	CancelOK               CancelOutcome = "cancelled"
	CancelNotFound         CancelOutcome = "not_found"
	CancelAlreadyDone      CancelOutcome = "already_completed"
	CancelAlreadyCancelled CancelOutcome = "already_cancelled"
)

// Cancel flips a job to Cancelled unless it is already Completed or
// Cancelled. A job in the Error state is flipped to Cancelled as well.
func (m *Manager) Cancel(id string) CancelOutcome {
	job := m.lookup(id)
	if job == nil {
		return CancelNotFound
	}

	job.mu.Lock()
	defer job.mu.Unlock()
	switch job.Status {
	case Completed:
		return CancelAlreadyDone
	case Cancelled:
		return CancelAlreadyCancelled
	default:
		job.Status = Cancelled
		job.EndedAt = time.Now()
		return CancelOK
	}
}

// Get returns the job's current state, or nil if id is unknown.
func (m *Manager) Get(id string) *Job {
	return m.lookup(id)
}

// CleanupOutcome is the result of a Cleanup call.
type CleanupOutcome string

const (
	CleanupDeleted       CleanupOutcome = "deleted"
	CleanupNotFound      CleanupOutcome = "not_found"
	CleanupCannotCleanup CleanupOutcome = "cannot_cleanup"
)

// Cleanup deletes a job, but only once it has reached a terminal state.
func (m *Manager) Cleanup(id string) CleanupOutcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return CleanupNotFound
	}
	if job.snapshotStatus() == Pending || job.snapshotStatus() == Processing {
		return CleanupCannotCleanup
	}
	delete(m.jobs, id)
	return CleanupDeleted
}

func (m *Manager) lookup(id string) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[id]
}

// process runs the synthesis pipeline for one job, invoked on a worker
// goroutine.
func (m *Manager) process(id string) {
	job := m.lookup(id)
	if job == nil {
		return
	}
	defer metrics.TTSJobsActive.Dec()

	if job.snapshotStatus() == Cancelled {
		metrics.TTSJobStatus.WithLabelValues("cancelled").Inc()
		return
	}
	job.setStatus(Processing)

	ctx := context.Background()
	waitTimeout := time.Duration(m.cfg.ModelLoadWait) * time.Second
	if err := m.loader.Ensure(ctx, waitTimeout); err != nil {
		job.fail(fmt.Errorf("synthesis backend not ready: %w", err))
		metrics.TTSJobStatus.WithLabelValues("error").Inc()
		return
	}

	cancelled := func() bool { return job.snapshotStatus() == Cancelled }

	result, err := ttsseg.Run(ctx, m.synth, job.Text, job.Voice, m.cfg, cancelled)
	if err != nil {
		if job.snapshotStatus() == Cancelled {
			metrics.TTSJobStatus.WithLabelValues("cancelled").Inc()
			return
		}
		job.fail(err)
		metrics.TTSJobStatus.WithLabelValues("error").Inc()
		return
	}

	if job.snapshotStatus() == Cancelled {
		metrics.TTSJobStatus.WithLabelValues("cancelled").Inc()
		return
	}

	for _, rtf := range result.SegmentRTF {
		metrics.TTSSegmentRTF.Observe(rtf)
	}
	metrics.TTSSegmentsTotal.Add(float64(len(result.Segments)))

	job.complete(result.WAV, job.Text, len(result.Segments), result.AudioDurationS, result.OverallRTF, result.SegmentRTF)
	metrics.TTSJobStatus.WithLabelValues("completed").Inc()
}
