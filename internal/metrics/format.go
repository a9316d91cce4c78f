package metrics

import (
	"fmt"
	"strings"
)

// Section headers for the formatted context block, one per dimension.
const (
	headerResults  = "【结果指标 Results】"
	headerProcess  = "【流程指标 Process】"
	headerSupport  = "【支撑指标 Support】"
	headerLongterm = "【环境指标 Long-term】"
)

var sectionHeaders = map[Dimension]string{
	DimResults:  headerResults,
	DimProcess:  headerProcess,
	DimSupport:  headerSupport,
	DimLongterm: headerLongterm,
}

// FormatContext renders the context as the grouped text block injected into
// prompts: one labeled section per non-empty dimension, in fixed dimension
// order, separated by blank lines. Fractional numbers in results and support
// render as one-decimal percentages, in process as two-decimal plain values;
// everything else renders in its natural text form.
func FormatContext(c Context) string {
	var b strings.Builder
	for _, d := range Dimensions {
		g := c.Group(d)
		if g.Empty() {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(sectionHeaders[d])
		for _, name := range g.Names() {
			v, _ := g.Get(name)
			b.WriteString("\n  - ")
			b.WriteString(name)
			b.WriteString(": ")
			b.WriteString(formatValue(d, v))
		}
	}
	return b.String()
}

// formatValue applies the per-dimension display policy. Only fractional
// numbers are dimension-sensitive; integral numbers, booleans and text keep
// their natural form everywhere.
func formatValue(d Dimension, v Value) string {
	if v.Kind() != KindNumber || v.IsInt() {
		return v.String()
	}
	switch d {
	case DimResults, DimSupport:
		return fmt.Sprintf("%.1f%%", v.Float()*100)
	case DimProcess:
		return fmt.Sprintf("%.2f", v.Float())
	default:
		return v.String()
	}
}
