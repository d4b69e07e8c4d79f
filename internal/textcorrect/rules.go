package textcorrect

import (
	"regexp"
	"strings"
)

// wuHomophones are single-character homophones of "无" that, once the token
// is stripped of punctuation and whitespace, cause the whole text to be
// replaced with "无".
var wuHomophones = map[string]bool{
	"五": true, "乌": true, "吴": true, "屋": true,
	"舞": true, "5": true, "午": true, "吾": true, "芜": true,
}

// substitutions is the fixed, ordered list of global substring corrections
// for recurring ASR mishearings in medical triage speech.
var substitutions = []struct {
	pattern *regexp.Regexp
	replace string
}{
	{regexp.MustCompile(`(?i)前妻`), "前期"},
	{regexp.MustCompile(`(?i)黑边|黑变`), "黑便"},
	{regexp.MustCompile(`(?i)腾|藤|滕|誊`), "疼"},
	{regexp.MustCompile(`(?i)壳`), "咳"},
	{regexp.MustCompile(`(?i)气势`), "前期"},
	{regexp.MustCompile(`(?i)串|川`), "喘"},
	{regexp.MustCompile(`(?i)涨|账`), "胀"},
	{regexp.MustCompile(`(?i)脱腾|拖腾|拖疼|脱疼`), "头疼"},
	{regexp.MustCompile(`(?i)游离|游历`), "油腻"},
	{regexp.MustCompile(`(?i)颜面不通`), "颜面部痛"},
	{regexp.MustCompile(`(?i)即性`), "急性"},
	{regexp.MustCompile(`(?i)犯罪症状`), "伴随症状"},
	{regexp.MustCompile(`(?i)树叶|书页|术业|树业`), "输液"},
}

// interjectionRe matches runs of interjection characters, which are
// stripped wherever they appear.
var interjectionRe = regexp.MustCompile(`[嗯哈哼噗砰呀嗷啊哦额呃诶唉哎呦妈]+`)

// punctuationRe matches the punctuation/whitespace a token is stripped of
// before testing it against wuHomophones.
var punctuationRe = regexp.MustCompile(`[\s,.!?，。！？、；;:：]+`)

// ApplyDeterministic runs the fixed, ordered rule set over raw recognized
// text: the 无-homophone collapse, the substring substitutions, then the
// interjection strip.
func ApplyDeterministic(text string) string {
	stripped := punctuationRe.ReplaceAllString(text, "")
	if wuHomophones[stripped] {
		return "无"
	}

	for _, sub := range substitutions {
		text = sub.pattern.ReplaceAllString(text, sub.replace)
	}

	text = interjectionRe.ReplaceAllString(text, "")
	return text
}

// IsEffectivelyEmpty reports whether text, once stripped of punctuation and
// whitespace, carries no content, the ASR_RESULT_EMPTY condition.
func IsEffectivelyEmpty(text string) bool {
	return strings.TrimSpace(punctuationRe.ReplaceAllString(text, "")) == ""
}
