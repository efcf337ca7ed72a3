package main

import (
	"fmt"
	"os"
)

// ANSI escapes for terminal output. Color is dropped when --no-color is
// given or the NO_COLOR environment variable is set.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		noColor = true
	}
}

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

// notify writes a status line to stderr so stdout stays free for
// machine-readable command output.
func notify(color, icon, format string, args ...any) {
	fmt.Fprintln(os.Stderr, colorize(color, icon+" "+fmt.Sprintf(format, args...)))
}

func printSuccess(format string, args ...any) { notify(colorGreen, "✓", format, args...) }

func printError(format string, args ...any) { notify(colorRed, "✗", format, args...) }

func printWarning(format string, args ...any) { notify(colorYellow, "⚠", format, args...) }

func printStatus(label string, format string, args ...any) {
	fmt.Fprintf(os.Stderr, "  %s %s\n", colorize(colorBold, label+":"), fmt.Sprintf(format, args...))
}
