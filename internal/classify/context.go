package classify

import "strings"

const maxContextChars = 500

// ContextExtractor collects nearby caption text for a figure or formula
// block, used by AltTextOrchestrator as prompt context for the Describer.
type ContextExtractor struct{}

// NewContextExtractor creates a ContextExtractor.
func NewContextExtractor() *ContextExtractor { return &ContextExtractor{} }

// Extract returns the concatenation of text found in the caption-below zone
// (x0-50, y1, x1+50, y1+100) and the label-above zone (x0-50, y0-100, x1+50,
// y0) of target's bbox, each truncated to 500 characters. Empty if neither
// zone overlaps any other block on the same page.
func (ce *ContextExtractor) Extract(target ClassifiedBlock, pageBlocks []ClassifiedBlock) string {
	below := BBox{target.BBox.X0 - 50, target.BBox.Y1, target.BBox.X1 + 50, target.BBox.Y1 + 100}
	above := BBox{target.BBox.X0 - 50, target.BBox.Y0 - 100, target.BBox.X1 + 50, target.BBox.Y0}

	belowText := collectText(target, pageBlocks, below)
	aboveText := collectText(target, pageBlocks, above)

	var parts []string
	if belowText != "" {
		parts = append(parts, truncate(belowText, maxContextChars))
	}
	if aboveText != "" {
		parts = append(parts, truncate(aboveText, maxContextChars))
	}
	return strings.Join(parts, " ")
}

func collectText(target ClassifiedBlock, pageBlocks []ClassifiedBlock, zone BBox) string {
	var sb strings.Builder
	for _, b := range pageBlocks {
		if b.PageIndex != target.PageIndex || b.BlockIndex == target.BlockIndex {
			continue
		}
		if b.Text == "" || !overlaps(b.BBox, zone) {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(b.Text)
	}
	return sb.String()
}

func overlaps(a, b BBox) bool {
	return a.X0 < b.X1 && a.X1 > b.X0 && a.Y0 < b.Y1 && a.Y1 > b.Y0
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
