// Package svgate implements the speaker-verification gate: it runs
// speaker-separation-and-ASR over a finalized utterance, groups sentences by
// speaker, and, when SV is enabled and the session is enrolled and
// activated, verifies each speaker group against the enrollment sample,
// returning only the text of the group that passes.
package svgate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/audioio"
	"github.com/terrense/toolbox-for-ASR-and-TTS/internal/models"
)

// Sentinel errors mapped by the session layer to user-facing result
// messages.
var (
	ErrEmpty        = errors.New("ASR_RESULT_EMPTY")
	ErrSVFailed     = errors.New("SV_VERIFICATION_FAILED")
	ErrNotActivated = errors.New("SV_NOT_ACTIVATED")
)

// speakerGapMs is the inter-sentence gap above which a single reported
// speaker is split into a new synthetic speaker, compensating for models
// that under-segment.
const speakerGapMs = 800

// Gate wires the opaque ASR+speaker-separation and SV clients.
type Gate struct {
	asr       *models.ASRClient
	sv        *models.SVClient
	threshold float64
}

// New creates a speaker-verification gate with the given pass threshold.
func New(asr *models.ASRClient, sv *models.SVClient, threshold float64) *Gate {
	return &Gate{asr: asr, sv: sv, threshold: threshold}
}

// Options controls whether SV gating is actually applied.
type Options struct {
	SVEnabled   bool
	IsEnrolled  bool
	IsActivated bool
	EnrollWAV   []byte
}

// durationToBatchSize scales the inferencer's batch parameter with total
// audio duration.
func durationToBatchSize(samples []float32, sampleRate int) int {
	seconds := float64(len(samples)) / float64(sampleRate)
	switch {
	case seconds < 30:
		return 60
	case seconds < 60:
		return 120
	default:
		return 300
	}
}

// Run executes the full gate sequence over one finalized utterance.
func (g *Gate) Run(ctx context.Context, utterance []float32, opts Options) (string, error) {
	wavBytes, err := audioio.EncodeWAV16(utterance, audioio.TargetSampleRate)
	if err != nil {
		return "", fmt.Errorf("encode finalized utterance: %w", err)
	}

	batchSize := durationToBatchSize(utterance, audioio.TargetSampleRate)
	sentences, err := g.asr.Transcribe(ctx, wavBytes, batchSize)
	if err != nil {
		return "", fmt.Errorf("transcribe utterance: %w", err)
	}
	if len(sentences) == 0 {
		return "", ErrEmpty
	}
	for _, s := range sentences {
		if s.SpeakerID == "" {
			// The model gave no speaker attribution; grouping would lump
			// everything under one synthetic speaker.
			return "", ErrEmpty
		}
	}

	groups := groupBySpeaker(sentences)
	if len(groups) == 0 {
		return "", ErrEmpty
	}

	if !opts.SVEnabled || !opts.IsEnrolled || !opts.IsActivated {
		if !opts.SVEnabled || !opts.IsEnrolled {
			return concatAllGroups(groups), nil
		}
		// Enrolled but not activated: refuse to gate unauthenticated audio.
		return "", ErrNotActivated
	}

	return g.verifyGroups(ctx, utterance, groups, opts.EnrollWAV)
}

type speakerGroup struct {
	speakerID string
	sentences []models.Sentence
}

// groupBySpeaker groups sentences by reported speakerId, sorted by start
// time within each group. When the model reports only one speaker, that
// speaker is split into synthetic groups across gaps wider than
// speakerGapMs; with two or more reported speakers no gap split is made.
func groupBySpeaker(sentences []models.Sentence) []speakerGroup {
	byID := map[string][]models.Sentence{}
	for _, s := range sentences {
		byID[s.SpeakerID] = append(byID[s.SpeakerID], s)
	}

	var groups []speakerGroup
	for id, group := range byID {
		sort.Slice(group, func(i, j int) bool { return group[i].StartMs < group[j].StartMs })
		if len(byID) == 1 {
			groups = append(groups, splitOnGaps(id, group)...)
		} else {
			groups = append(groups, speakerGroup{speakerID: id, sentences: group})
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].speakerID < groups[j].speakerID })
	return groups
}

func splitOnGaps(baseID string, sorted []models.Sentence) []speakerGroup {
	if len(sorted) == 0 {
		return nil
	}
	var out []speakerGroup
	current := []models.Sentence{sorted[0]}
	syntheticIdx := 0
	for i := 1; i < len(sorted); i++ {
		gap := sorted[i].StartMs - sorted[i-1].EndMs
		if gap > speakerGapMs {
			out = append(out, speakerGroup{speakerID: syntheticID(baseID, syntheticIdx), sentences: current})
			syntheticIdx++
			current = nil
		}
		current = append(current, sorted[i])
	}
	out = append(out, speakerGroup{speakerID: syntheticID(baseID, syntheticIdx), sentences: current})
	return out
}

func syntheticID(baseID string, idx int) string {
	if idx == 0 {
		return baseID
	}
	return baseID + "#" + strconv.Itoa(idx)
}

func concatText(group speakerGroup) string {
	var out string
	for _, s := range group.sentences {
		out += s.Text
	}
	return out
}

func concatAllGroups(groups []speakerGroup) string {
	var out string
	for _, g := range groups {
		out += concatText(g)
	}
	return out
}

// verifyGroups extracts each group's audio, verifies it against the
// enrollment sample, and returns the best-scoring group's text if it meets
// the pass threshold.
func (g *Gate) verifyGroups(ctx context.Context, utterance []float32, groups []speakerGroup, enrollWAV []byte) (string, error) {
	type scored struct {
		text  string
		score float64
		ok    bool
	}
	var results []scored

	for _, group := range groups {
		speakerWAV, err := spliceGroupWAV(utterance, group)
		if err != nil {
			continue
		}
		verdict, err := g.sv.Verify(ctx, enrollWAV, speakerWAV)
		if err != nil {
			continue
		}
		if verdict.Score == nil {
			results = append(results, scored{text: concatText(group), ok: false})
			continue
		}
		pass := *verdict.Score >= g.threshold
		if *verdict.Score == g.threshold {
			pass = verdict.Verdict == "yes"
		}
		results = append(results, scored{text: concatText(group), score: *verdict.Score, ok: pass})
	}

	if len(results) == 0 {
		return "", ErrSVFailed
	}

	best := results[0]
	for _, r := range results[1:] {
		if r.score > best.score {
			best = r
		}
	}
	if !best.ok {
		return "", ErrSVFailed
	}
	return best.text, nil
}

// spliceGroupWAV concatenates the [startMs,endMs] audio ranges belonging to
// one speaker group out of the finalized utterance and encodes them as WAV.
func spliceGroupWAV(utterance []float32, group speakerGroup) ([]byte, error) {
	var spliced []float32
	for _, s := range group.sentences {
		startSample := msToSample(s.StartMs)
		endSample := msToSample(s.EndMs)
		if startSample < 0 {
			startSample = 0
		}
		if endSample > len(utterance) {
			endSample = len(utterance)
		}
		if startSample >= endSample {
			continue
		}
		spliced = append(spliced, utterance[startSample:endSample]...)
	}
	if len(spliced) == 0 {
		return nil, fmt.Errorf("empty speaker splice")
	}
	return audioio.EncodeWAV16(spliced, audioio.TargetSampleRate)
}

func msToSample(ms int) int {
	return ms * audioio.TargetSampleRate / 1000
}
