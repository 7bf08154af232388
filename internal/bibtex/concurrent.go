package bibtex

import (
	"strings"
	"sync"
)

// chunk is a piece of source text that starts at an entry-start line.
type chunk struct {
	text string
	line int
}

// splitEntries cuts preprocessed text before every line whose first
// non-blank byte is '@'. Entries never span two chunks.
func splitEntries(src string) []chunk {
	var chunks []chunk
	start, startLine, line := 0, 1, 1
	for off := 0; off < len(src); {
		next := len(src)
		if i := strings.IndexByte(src[off:], '\n'); i >= 0 {
			next = off + i + 1
		}
		if off > start && strings.HasPrefix(strings.TrimLeft(src[off:next], " \t"), "@") {
			chunks = append(chunks, chunk{text: src[start:off], line: startLine})
			start, startLine = off, line
		}
		off = next
		line++
	}
	return append(chunks, chunk{text: src[start:], line: startLine})
}

// ParseConcurrent parses like Parse, but parses independent entries on up to
// workers goroutines. The result is the same as Parse's.
func ParseConcurrent(src string, workers int) (*Result, error) {
	if workers < 1 {
		workers = 1
	}
	chunks := splitEntries(Preprocess(src))

	results := make([]*Result, len(chunks))
	errs := make([]error, len(chunks))

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i, c := range chunks {
		wg.Add(1)
		go func(idx int, c chunk) {
			defer wg.Done()
			sem <- struct{}{}        // acquire semaphore
			defer func() { <-sem }() // release semaphore
			results[idx], errs[idx] = parseText(c.text, c.line)
		}(i, c)
	}
	wg.Wait()

	merged := &Result{}
	for i, r := range results {
		if errs[i] != nil {
			return nil, errs[i]
		}
		merged.Records = append(merged.Records, r.Records...)
		merged.Rejected = append(merged.Rejected, r.Rejected...)
		merged.Warnings = append(merged.Warnings, r.Warnings...)
		merged.Skipped += r.Skipped
	}
	return merged, nil
}
