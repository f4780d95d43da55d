package pageops

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseRanges converts a human page selection such as "1-3,7,10-12"
// (1-based, as users write them) into 0-based page indices. Duplicates
// are dropped while preserving first-seen order. pageCount bounds the
// selection; an empty spec selects nothing.
func ParseRanges(spec string, pageCount int) ([]int, error) {
	var indices []int
	seen := make(map[int]bool)

	add := func(idx int) {
		if !seen[idx] {
			seen[idx] = true
			indices = append(indices, idx)
		}
	}

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err1 := strconv.Atoi(strings.TrimSpace(lo))
			end, err2 := strconv.Atoi(strings.TrimSpace(hi))
			if err1 != nil || err2 != nil {
				return nil, &OperationError{Op: "pages", Reason: fmt.Sprintf("malformed range %q", part)}
			}
			if start < 1 || end < start || end > pageCount {
				return nil, &OperationError{
					Op:     "pages",
					Reason: fmt.Sprintf("range %q outside document with %d pages", part, pageCount),
				}
			}
			for i := start; i <= end; i++ {
				add(i - 1)
			}
			continue
		}

		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, &OperationError{Op: "pages", Reason: fmt.Sprintf("malformed page number %q", part)}
		}
		if n < 1 || n > pageCount {
			return nil, &OperationError{
				Op:     "pages",
				Reason: fmt.Sprintf("page %d outside document with %d pages", n, pageCount),
			}
		}
		add(n - 1)
	}
	return indices, nil
}
