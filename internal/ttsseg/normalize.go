// Package ttsseg implements the TTS text segmenter and WAV concatenator:
// normalize, split by strong/weak punctuation with a shorter first
// segment, synthesize each segment, then concatenate with inter-segment
// pauses and a linear crossfade.
package ttsseg

import (
	"regexp"
	"strings"
)

var (
	crlfRe        = regexp.MustCompile(`\r\n|\r`)
	spacesRe      = regexp.MustCompile(`[ \t]+`)
	blankLinesRe  = regexp.MustCompile(`\n\s*\n+`)
	singleBreakRe = regexp.MustCompile(`([^\n，。！？；\s])\s*\n\s*([^\n，。！？；\s])`)
	listMarkerRe  = regexp.MustCompile(`(^|\n)\s*\d{1,2}\s*[.、:：)]\s*`)
	commaRunsRe   = regexp.MustCompile(`，+`)
	edgeCommasRe  = regexp.MustCompile(`^，+|，+$`)
)

// Normalize collapses whitespace, folds blank lines and single line breaks
// into the Chinese comma, and strips list-numbering markers, all of which
// shorten and flatten the text before segmentation.
func Normalize(text string) string {
	t := text
	if t == "" {
		return ""
	}

	t = crlfRe.ReplaceAllString(t, "\n")
	t = spacesRe.ReplaceAllString(t, " ")
	t = listMarkerRe.ReplaceAllString(t, "$1")
	t = blankLinesRe.ReplaceAllString(t, "，")
	t = singleBreakRe.ReplaceAllString(t, "$1，$2")
	t = commaRunsRe.ReplaceAllString(t, "，")
	t = edgeCommasRe.ReplaceAllString(t, "")

	return strings.TrimSpace(t)
}
