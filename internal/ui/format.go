package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatFileSize renders bytes with a 1024 base and at most two decimals:
// 1536 is "1.5 KB".
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	v := float64(bytes)
	i := 0
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	// FtoaWithDigits truncates; round first.
	v = math.Round(v*100) / 100
	return humanize.FtoaWithDigits(v, 2) + " " + sizeUnits[i]
}

// FormatDuration renders seconds as m:ss: 125 is "2:05".
func FormatDuration(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws vs as a one-line block chart scaled to its own range.
func Sparkline(vs []float64) string {
	if len(vs) == 0 {
		return ""
	}
	lo, hi := vs[0], vs[0]
	for _, v := range vs {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}

	var b strings.Builder
	for _, v := range vs {
		idx := 0
		if hi > lo {
			idx = int(math.Round((v - lo) / (hi - lo) * float64(len(sparkBlocks)-1)))
		}
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}

// Meter draws a horizontal bar of width cells filled to frac (0..1),
// followed by the percentage.
func Meter(frac float64, width int) string {
	frac = math.Max(0, math.Min(1, frac))
	filled := int(math.Round(frac * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled) +
		fmt.Sprintf(" %3.0f%%", frac*100)
}
