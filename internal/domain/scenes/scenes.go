package scenes

import (
	"regexp"
	"strings"

	"github.com/dstrelnikov/bookreel/internal/types"
)

// maxSentenceScenes bounds downstream work when the sentence fallback kicks
// in on a single run-on paragraph.
const maxSentenceScenes = 100

var (
	reBlankLines  = regexp.MustCompile(`\n{2,}`)
	reSentenceEnd = regexp.MustCompile(`([.!?])\s+`)
)

// Split segments raw book text into ordered scene units. Deterministic, no
// I/O, never fails: empty input yields an empty slice.
//
// Authors paragraph their prose, so blank-line boundaries are the primary
// split. A single-paragraph paste would produce one giant scene, so anything
// short of two fragments switches to sentence boundaries instead, capped at
// maxSentenceScenes.
func Split(text string) []types.SceneUnit {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	frags := collect(reBlankLines.Split(text, -1))
	if len(frags) < 2 {
		frags = collect(splitSentences(text))
		if len(frags) > maxSentenceScenes {
			frags = frags[:maxSentenceScenes]
		}
	}

	out := make([]types.SceneUnit, 0, len(frags))
	for i, f := range frags {
		out = append(out, types.SceneUnit{Index: i, Text: f})
	}
	return out
}

// splitSentences breaks after terminal punctuation followed by whitespace,
// keeping the punctuation with its sentence.
func splitSentences(text string) []string {
	marked := reSentenceEnd.ReplaceAllString(text, "$1\x00")
	return strings.Split(marked, "\x00")
}

func collect(parts []string) []string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
