package papermill

import "strings"

// Warning is a non-fatal problem encountered during a conversion,
// such as a page whose text could not be extracted. Conversions
// finish despite warnings; callers decide whether to surface them.
type Warning struct {
	Message string
}

func (w Warning) String() string { return w.Message }

// FormatWarnings joins warnings into a single human-readable string,
// one per line.
func FormatWarnings(warnings []Warning) string {
	if len(warnings) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, w := range warnings {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(w.Message)
	}
	return sb.String()
}
