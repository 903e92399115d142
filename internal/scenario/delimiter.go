package scenario

import "strings"

var candidateDelimiters = []rune{',', ';', '\t'}

// DetectDelimiter picks the delimiter that splits the first non-empty lines
// most consistently. It defaults to a comma.
func DetectDelimiter(content string) rune {
	sample := make([]string, 0, 5)
	for _, line := range strings.Split(content, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			sample = append(sample, trimmed)
			if len(sample) == 5 {
				break
			}
		}
	}
	if len(sample) == 0 {
		return ','
	}

	best := ','
	bestScore := 0.0
	for _, delim := range candidateDelimiters {
		counts := make([]float64, len(sample))
		sum := 0.0
		for i, line := range sample {
			counts[i] = float64(strings.Count(line, string(delim)))
			sum += counts[i]
		}
		mean := sum / float64(len(sample))
		if mean == 0 {
			continue
		}
		variance := 0.0
		for _, c := range counts {
			variance += (c - mean) * (c - mean)
		}
		variance /= float64(len(sample))

		if score := mean / (1 + variance); score > bestScore {
			bestScore = score
			best = delim
		}
	}
	return best
}
