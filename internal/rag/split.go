package rag

import "strings"

// DefaultChunkSize is the target chunk length in characters.
const DefaultChunkSize = 1200

// SplitText breaks a document body into chunk-sized pieces. Paragraph
// boundaries (blank lines) are preferred split points; adjacent paragraphs
// are packed together while they fit. A single paragraph longer than maxLen
// is hard-wrapped at the last whitespace before the limit.
func SplitText(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultChunkSize
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		for len(paragraph) > maxLen {
			cut := strings.LastIndexAny(paragraph[:maxLen], " \t\n")
			if cut <= 0 {
				cut = maxLen
			}
			flush()
			chunks = append(chunks, strings.TrimSpace(paragraph[:cut]))
			paragraph = strings.TrimSpace(paragraph[cut:])
		}
		if paragraph == "" {
			continue
		}

		if current.Len() > 0 && current.Len()+2+len(paragraph) > maxLen {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(paragraph)
	}
	flush()

	return chunks
}
