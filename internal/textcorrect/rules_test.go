package textcorrect

import (
	"strings"
	"testing"
)

func TestApplyDeterministicWuHomophoneCollapse(t *testing.T) {
	for _, homophone := range []string{"五", "乌", "吴", "午"} {
		if got := ApplyDeterministic(homophone); got != "无" {
			t.Errorf("ApplyDeterministic(%q) = %q, want 无", homophone, got)
		}
	}
}

func TestApplyDeterministicWuHomophoneWithPunctuation(t *testing.T) {
	if got := ApplyDeterministic("五。"); got != "无" {
		t.Errorf("expected trailing punctuation stripped before the homophone test, got %q", got)
	}
}

func TestApplyDeterministicSubstitutions(t *testing.T) {
	cases := map[string]string{
		"头黑边":  "头黑便",
		"肚子腾":  "肚子疼",
		"壳嗽":   "咳嗽",
		"气势发作": "前期发作",
	}
	for in, want := range cases {
		if got := ApplyDeterministic(in); got != want {
			t.Errorf("ApplyDeterministic(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestApplyDeterministicFullSentence(t *testing.T) {
	got := ApplyDeterministic("我头疼，脱腾得厉害，前妻检查过")
	if !strings.Contains(got, "头疼") || !strings.Contains(got, "前期") {
		t.Errorf("expected 头疼 and 前期 in corrected text, got %q", got)
	}
	if strings.Contains(got, "脱腾") || strings.Contains(got, "前妻") {
		t.Errorf("expected 脱腾 and 前妻 replaced, got %q", got)
	}
}

func TestApplyDeterministicIdempotent(t *testing.T) {
	for _, in := range []string{"我头疼，脱腾得厉害，前妻检查过", "嗯啊头疼", "五。"} {
		once := ApplyDeterministic(in)
		if twice := ApplyDeterministic(once); twice != once {
			t.Errorf("ApplyDeterministic not idempotent on %q: %q then %q", in, once, twice)
		}
	}
}

func TestApplyDeterministicStripsInterjections(t *testing.T) {
	if got := ApplyDeterministic("嗯啊头疼"); got != "头疼" {
		t.Errorf("expected interjections stripped, got %q", got)
	}
}

func TestIsEffectivelyEmpty(t *testing.T) {
	cases := map[string]bool{
		"":     true,
		"   ":  true,
		"，。": true,
		"头疼": false,
	}
	for in, want := range cases {
		if got := IsEffectivelyEmpty(in); got != want {
			t.Errorf("IsEffectivelyEmpty(%q) = %v, want %v", in, got, want)
		}
	}
}
