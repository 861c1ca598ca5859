package commands

import (
	"fmt"
	"strings"

	"github.com/wonny/quantafolio/internal/contracts"
	"github.com/wonny/quantafolio/internal/validation"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Printf("⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// pct renders a fraction as a percentage
func pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

// signedPct renders an already-percent value with its sign
func signedPct(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

// PrintResult prints a canonical result as allocation and metric tables
func PrintResult(r *contracts.CanonicalOptimizationResult) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  Optimization Result (%s)\n", r.Method)
	PrintSeparator()
	PrintKeyValue("Timestamp", r.Timestamp, 10)
	if r.Input != nil {
		PrintKeyValue("Period", string(r.Input.Period), 10)
		PrintKeyValue("Risk", fmt.Sprintf("%.2f (%s)", r.Input.RiskFactor, validation.RiskLevel(r.Input.RiskFactor)), 10)
	}
	PrintSeparator()

	widths := []int{12, 10, 10, 10}
	PrintTableHeader([]string{"Ticker", "Original", "Optimized", "Change"}, widths)
	for _, a := range r.Allocations() {
		PrintTableRow([]string{a.Ticker, pct(a.Original), pct(a.Optimized), fmt.Sprintf("%+.2f%%p", a.Change*100)}, widths)
	}

	fmt.Println()
	widths = []int{16, 10, 10}
	PrintTableHeader([]string{"Metric", "Original", "Optimized"}, widths)
	PrintTableRow([]string{"Expected return", pct(r.Original.ExpectedReturn), pct(r.Optimized.ExpectedReturn)}, widths)
	PrintTableRow([]string{"Risk", pct(r.Original.Risk), pct(r.Optimized.Risk)}, widths)
	PrintTableRow([]string{"Sharpe", fmt.Sprintf("%.3f", r.Original.SharpeRatio), fmt.Sprintf("%.3f", r.Optimized.SharpeRatio)}, widths)
	if r.Optimized.MaxDrawdown != nil {
		PrintTableRow([]string{"Max drawdown", "-", pct(*r.Optimized.MaxDrawdown)}, widths)
	}

	fmt.Println()
	PrintKeyValue("Return", signedPct(r.Improvement.ReturnImprovement), 10)
	PrintKeyValue("Risk", signedPct(r.Improvement.RiskChange), 10)
	PrintKeyValue("Sharpe", fmt.Sprintf("%s (%s)", signedPct(r.Improvement.SharpeImprovement), validation.SharpeRating(r.Optimized.SharpeRatio)), 10)

	if r.HasWarnings() {
		fmt.Println()
		for _, w := range r.Warnings {
			PrintWarning(fmt.Sprintf("[%s] %s: %s", w.Code, w.Section, w.Message))
		}
	}
	PrintDoubleSeparator()
}
