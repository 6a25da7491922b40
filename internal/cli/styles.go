// Package cli holds the styled console output shared by the command-line
// surface: banner, error and summary printers, and the kong help renderer.
package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Colour palette
var (
	primaryColor   = lipgloss.Color("#8A2BE2") // classcii violet
	accentColor    = lipgloss.Color("#00D7AF") // spring green
	successColor   = lipgloss.Color("#00AA00")
	mutedColor     = lipgloss.Color("#888888")
	highlightColor = lipgloss.Color("#FFD700")
	textColor      = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			MarginTop(1).
			MarginBottom(1)

	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(successColor)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	HighlightStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(highlightColor)

	KeyStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	ValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)
)

// PrintBanner prints the application banner
func PrintBanner() {
	fmt.Println(TitleStyle.Render("classcii ▚"))
	fmt.Println(SubtitleStyle.Render("Audio-reactive terminal-art video renderer"))
	fmt.Println()
}

// PrintVersion prints version information
func PrintVersion(version string) {
	fmt.Println(TitleStyle.Render("classcii ▚"))
	fmt.Printf("%s %s\n", KeyStyle.Render("Version:"), ValueStyle.Render(version))
	fmt.Println()
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("Error:"), message)
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Printf("%s %s\n", HighlightStyle.Render("Warning:"), message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("%s %s\n", SuccessStyle.Render("✓"), message)
}

// PrintInfo prints a key/value line
func PrintInfo(key, value string) {
	fmt.Printf("%s %s\n", KeyStyle.Render(key+":"), ValueStyle.Render(value))
}

// FormatDuration formats a duration nicely
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", d.Seconds()*1000)
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}

// PrintBox prints content in a styled box
func PrintBox(content string) {
	fmt.Println(BoxStyle.Render(content))
}

// PrintExportSummary prints the end-of-export box
func PrintExportSummary(outputPath string, frames int, duration time.Duration, throughput float64) {
	var b strings.Builder

	b.WriteString(SuccessStyle.Render("✓ Export complete"))
	b.WriteString("\n\n")

	b.WriteString(KeyStyle.Render("Output:      "))
	b.WriteString(ValueStyle.Render(outputPath))
	b.WriteString("\n")

	b.WriteString(KeyStyle.Render("Frames:      "))
	b.WriteString(ValueStyle.Render(fmt.Sprintf("%d", frames)))
	b.WriteString("\n")

	b.WriteString(KeyStyle.Render("Render time: "))
	b.WriteString(ValueStyle.Render(FormatDuration(duration)))
	b.WriteString("\n")

	b.WriteString(KeyStyle.Render("Throughput:  "))
	b.WriteString(ValueStyle.Render(fmt.Sprintf("%.1f fps", throughput)))

	PrintBox(b.String())
}
