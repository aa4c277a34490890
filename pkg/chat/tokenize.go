package chat

import "unicode"

// Tokenize splits a sentence into the chunks streamed as llm_token events.
// Runs of CJK ideographs are split into pieces of 1-3 runes (cycling 1,2,3
// so the split is deterministic), runs of other non-whitespace characters
// are kept whole, and each run of whitespace becomes a single chunk.
// Concatenating the chunks in order reproduces the input exactly.
func Tokenize(s string) []string {
	runes := []rune(s)
	var out []string
	for i := 0; i < len(runes); {
		switch {
		case unicode.IsSpace(runes[i]):
			j := i
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			out = append(out, string(runes[i:j]))
			i = j
		case isCJK(runes[i]):
			j := i
			for j < len(runes) && isCJK(runes[j]) {
				j++
			}
			out = append(out, splitCJK(runes[i:j])...)
			i = j
		default:
			j := i
			for j < len(runes) && !unicode.IsSpace(runes[j]) && !isCJK(runes[j]) {
				j++
			}
			out = append(out, string(runes[i:j]))
			i = j
		}
	}
	return out
}

func splitCJK(run []rune) []string {
	var out []string
	size := 1
	for i := 0; i < len(run); {
		end := i + size
		if end > len(run) {
			end = len(run)
		}
		out = append(out, string(run[i:end]))
		i = end
		size++
		if size > 3 {
			size = 1
		}
	}
	return out
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r)
}
