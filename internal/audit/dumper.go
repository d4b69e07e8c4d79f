package audit

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Dumper writes debug WAV artifacts (KWS detection windows, finalized
// utterances, enrollment samples, per-speaker splices) to disk. Persistence
// is best-effort: a write failure is logged and otherwise ignored, so these
// artifacts can be disabled in production without any behavior change.
type Dumper struct {
	dir string
}

// NewDumper creates a Dumper rooted at dir, creating it if necessary. A
// failure to create dir disables persistence (SaveWAV becomes a no-op)
// rather than failing session construction.
func NewDumper(dir string) *Dumper {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Warn("wav dump dir unavailable, disabling persistence", "dir", dir, "error", err)
		return nil
	}
	return &Dumper{dir: dir}
}

// SaveWAV writes wavBytes under dir as "<kind>_<yyyyMMdd_HHmmss_mmm>.wav".
func (d *Dumper) SaveWAV(kind string, wavBytes []byte) {
	if d == nil {
		return
	}
	now := time.Now().UTC()
	name := fmt.Sprintf("%s_%s_%03d.wav", kind, now.Format("20060102_150405"), now.Nanosecond()/1e6)
	path := filepath.Join(d.dir, name)
	if err := os.WriteFile(path, wavBytes, 0o644); err != nil {
		slog.Warn("wav dump write failed", "path", path, "error", err)
	}
}
