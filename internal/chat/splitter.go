package chat

import (
	"regexp"
	"strings"
)

// Thinking regions are delimited by a matched pair of tags from a fixed
// synonym set. RE2 has no backreferences, so each synonym pair is spelled out
// as its own alternative; (?is) makes matching case-insensitive and lets
// regions span newlines.
var thinkingRe = regexp.MustCompile(`(?is)<think>(.*?)</think>|<thought>(.*?)</thought>|<thinking>(.*?)</thinking>`)

// SplitThinking separates a model's thinking trace from its visible answer.
//
// All fully closed thinking regions are extracted in document order and joined
// with a newline; nil is returned when none exist (also when the only regions
// are empty). The answer is the input with those regions removed and the
// result trimmed; no other whitespace normalization happens.
//
// The function is stateless and re-scans the whole buffer, so it is safe to
// call once per delta on a growing buffer. An open tag whose closing tag has
// not streamed in yet is not a region: the tag text stays in the answer
// verbatim until the close arrives, at which point the region disappears from
// the answer wholesale. Known limitation, pinned by tests.
func SplitThinking(buffer string) (thinking *string, answer string) {
	matches := thinkingRe.FindAllStringSubmatchIndex(buffer, -1)
	if len(matches) == 0 {
		return nil, strings.TrimSpace(buffer)
	}

	var regions []string
	for _, m := range matches {
		// Exactly one of the three capture groups participates per match.
		for g := 1; g <= 3; g++ {
			if m[2*g] >= 0 {
				regions = append(regions, buffer[m[2*g]:m[2*g+1]])
				break
			}
		}
	}

	answer = strings.TrimSpace(thinkingRe.ReplaceAllString(buffer, ""))

	joined := strings.Join(regions, "\n")
	if joined == "" {
		return nil, answer
	}
	return &joined, answer
}
