package ttsseg

import (
	"regexp"
	"strings"
)

var (
	strongBoundaryRe = regexp.MustCompile(`(?:[。！？；\n])`)
	weakBoundaryRe   = regexp.MustCompile(`(?:[，、：])`)
	listItemRe       = regexp.MustCompile(`^\d{1,2}\.\s+`)
)

// Limits bundles the three segment-length targets.
type Limits struct {
	Target      int // general segment target length, in runes
	FirstTarget int // shorter first-segment target, in runes
	HardMax     int // hard cap; exceeding it forces a further split
}

// Split normalizes text, then splits it into TTS segments: first by strong
// punctuation/newlines, merging naturally-occurring list items back
// together, then packs runs into segments up to Limits.Target runes (with a
// shorter first segment), falling back to weak-punctuation and finally hard
// character splitting for any run still over HardMax. A trailing comma is
// appended to any non-final segment that doesn't already end in punctuation,
// so the synthesized audio doesn't sound cut off.
func Split(text string, limits Limits) []string {
	t := Normalize(text)
	if t == "" {
		return nil
	}

	parts := splitRetainingBoundary(t, strongBoundaryRe)
	parts = mergeListItems(parts)

	var out []string
	var buf []rune

	emit := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}

	limitFor := func(isFirst bool) int {
		if isFirst {
			return limits.FirstTarget
		}
		return limits.Target
	}

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		pr := []rune(p)

		limit := limitFor(len(out) == 0 && len(buf) == 0)
		if len(buf) > 0 && len(buf)+len(pr) <= limit {
			buf = append(buf, pr...)
			continue
		}
		if len(buf) == 0 && len(pr) <= limit {
			buf = pr
			continue
		}

		if len(buf) > 0 {
			emit(string(buf))
			buf = nil
		}

		if len(pr) > limits.HardMax {
			for _, seg := range splitWeak(pr, limits) {
				emit(seg)
			}
		} else {
			emit(p)
		}
	}

	if len(buf) > 0 {
		emit(string(buf))
	}

	for i := 0; i < len(out)-1; i++ {
		last := []rune(out[i])
		if !isBoundaryRune(last[len(last)-1]) {
			out[i] = out[i] + "，"
		}
	}
	return out
}

func isBoundaryRune(r rune) bool {
	switch r {
	case '。', '！', '？', '；', '，', '、', '：', '\n':
		return true
	default:
		return false
	}
}

// splitWeak further splits an over-long run by weak punctuation, packing
// runs up to the target length and hard-splitting anything still too long.
func splitWeak(pr []rune, limits Limits) []string {
	subs := splitRetainingBoundary(string(pr), weakBoundaryRe)

	var out []string
	var buf []rune

	for _, s := range subs {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		sr := []rune(s)

		limit := limits.Target
		if len(out) == 0 && len(buf) == 0 {
			limit = limits.FirstTarget
		}

		switch {
		case len(buf) > 0 && len(buf)+len(sr) <= limit:
			buf = append(buf, sr...)
		case len(buf) == 0 && len(sr) <= limit:
			buf = sr
		default:
			if len(buf) > 0 {
				out = append(out, string(buf))
				buf = nil
			}
			if len(sr) <= limits.HardMax {
				out = append(out, s)
			} else {
				out = append(out, hardSplit(sr, limits.HardMax)...)
			}
		}
	}
	if len(buf) > 0 {
		out = append(out, string(buf))
	}
	return out
}

func hardSplit(r []rune, max int) []string {
	var out []string
	for i := 0; i < len(r); i += max {
		end := i + max
		if end > len(r) {
			end = len(r)
		}
		out = append(out, string(r[i:end]))
	}
	return out
}

// splitRetainingBoundary splits s after every match of boundary, keeping the
// matched boundary character attached to the preceding piece.
func splitRetainingBoundary(s string, boundary *regexp.Regexp) []string {
	locs := boundary.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return []string{s}
	}

	var out []string
	start := 0
	for _, loc := range locs {
		out = append(out, s[start:loc[1]])
		start = loc[1]
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// mergeListItems keeps a run beginning with a numeric list marker ("1. ")
// as its own segment boundary rather than letting it absorb into the
// preceding buffer.
func mergeListItems(parts []string) []string {
	var out []string
	var buf strings.Builder

	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			out = append(out, s)
		}
		buf.Reset()
	}

	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s == "" {
			continue
		}
		if listItemRe.MatchString(s) {
			flush()
			out = append(out, s)
			continue
		}
		if buf.Len() == 0 {
			buf.WriteString(s)
		} else {
			buf.WriteString(" ")
			buf.WriteString(s)
		}
	}
	flush()
	return out
}
