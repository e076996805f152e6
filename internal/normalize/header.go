package normalize

import "strings"

// DefaultHeaderScanRows is how many leading rows are previewed when looking
// for the header.
const DefaultHeaderScanRows = 20

// DefaultHeaderKeywords identify a header row in a generic sheet.
var DefaultHeaderKeywords = []string{"material", "codigo", "sku", "producto"}

// LocateHeader returns the index of the row within the first limit rows
// whose text contains the most keywords. Ties keep the earliest row and a
// grid with no matches yields 0.
func LocateHeader(grid [][]string, limit int, keywords []string) int {
	if limit <= 0 {
		limit = DefaultHeaderScanRows
	}
	if len(keywords) == 0 {
		keywords = DefaultHeaderKeywords
	}

	best, bestScore := 0, 0
	for i, row := range grid {
		if i >= limit {
			break
		}

		parts := make([]string, 0, len(row))
		for _, cell := range row {
			if cell = strings.TrimSpace(cell); cell != "" {
				parts = append(parts, strings.ToLower(cell))
			}
		}
		text := strings.Join(parts, " ")

		score := 0
		for _, k := range keywords {
			if strings.Contains(text, k) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}

	return best
}
