package service

import "strings"

// ChunkConfig controls how documents are split for embedding.
type ChunkConfig struct {
	MaxSize int
	Overlap int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxSize: 500,
		Overlap: 50,
	}
}

// ChunkText splits text into overlapping bounded-size chunks, preferring to
// cut at sentence boundaries. Every character of the input is covered by at
// least one chunk span; adjacent chunks share up to Overlap characters.
// The same input and config always produce the same sequence.
func ChunkText(text string, cfg ChunkConfig) []string {
	if cfg.MaxSize <= 0 || cfg.Overlap < 0 || cfg.Overlap >= cfg.MaxSize {
		cfg = DefaultChunkConfig()
	}

	runes := []rune(text)
	if len(runes) <= cfg.MaxSize {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	chunks := make([]string, 0, len(runes)/(cfg.MaxSize-cfg.Overlap)+1)
	start := 0
	for start < len(runes) {
		end := start + cfg.MaxSize

		// Snap the cut to the last sentence boundary inside the window.
		if end < len(runes) {
			if cut := lastSentenceBoundary(runes, start, end); cut > start {
				end = cut
			}
		}

		sliceEnd := end
		if sliceEnd > len(runes) {
			sliceEnd = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:sliceEnd]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := end - cfg.Overlap
		if next <= start {
			// A very early boundary cut would stall the cursor; skip the
			// overlap for this step so the walk always advances.
			next = end
		}
		start = next
	}

	return chunks
}

// lastSentenceBoundary returns the cut position just after the rightmost
// sentence-ending delimiter (". ", "! ", "? ", or a newline) strictly inside
// runes[start:end], or -1 when the window holds none.
func lastSentenceBoundary(runes []rune, start, end int) int {
	for i := end; i > start; i-- {
		prev := runes[i-1]
		if prev == '\n' {
			return i
		}
		if i < end && (prev == '.' || prev == '!' || prev == '?') && runes[i] == ' ' {
			return i
		}
	}
	return -1
}
