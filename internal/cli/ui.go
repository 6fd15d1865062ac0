package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/spatialgen/pkg/pipeline"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

// status prints one icon-prefixed line to stdout.
func status(icon lipgloss.Style, glyph, format string, args ...any) {
	fmt.Println(icon.Render(glyph) + " " + fmt.Sprintf(format, args...))
}

func printSuccess(format string, args ...any) { status(styleIconSuccess, iconSuccess, format, args...) }

func printInfo(format string, args ...any) { status(styleIconInfo, iconInfo, format, args...) }

func printWarning(format string, args ...any) {
	status(styleIconWarning, iconWarning, "%s", StyleWarning.Render(fmt.Sprintf(format, args...)))
}

// PrintError writes to stderr; main uses it for the error a command
// returned.
func PrintError(format string, args ...any) {
	fmt.Fprintln(os.Stderr, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line under a status line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

var styleKey = lipgloss.NewStyle().Foreground(colorGray).Width(14)

func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep suggests the command to run next.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Batch Summary
// =============================================================================

// formatStats renders batch counters on a single line, skipping zeros.
func formatStats(s pipeline.Stats) string {
	counts := []struct {
		n     int
		label string
		style lipgloss.Style
	}{
		{s.Rendered, "rendered", StyleSuccess},
		{s.Cached, "cached", StyleDim},
		{s.Skipped, "skipped", StyleWarning},
		{s.Failed, "failed", styleIconError},
	}
	var parts []string
	for _, c := range counts {
		if c.n > 0 {
			parts = append(parts, c.style.Render(fmt.Sprintf("%d %s", c.n, c.label)))
		}
	}
	if len(parts) == 0 {
		return StyleDim.Render("nothing to do")
	}
	return strings.Join(parts, StyleDim.Render(" · "))
}

// printBatchStats prints the outcome of a batch.
func printBatchStats(s pipeline.Stats) {
	icon := styleIconSuccess.Render(iconSuccess)
	if s.Failed > 0 {
		icon = styleIconWarning.Render(iconWarning)
	}
	fmt.Printf("%s %s of %s combinations %s\n", icon,
		StyleNumber.Render(fmt.Sprint(s.Rendered+s.Cached)),
		StyleNumber.Render(fmt.Sprint(s.Total)),
		StyleDim.Render("("+s.Duration.Round(time.Millisecond).String()+")"))
	fmt.Println("  " + formatStats(s))
}
