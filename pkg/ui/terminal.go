package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// ASCII logo for the application
const ASCIILogo = `
    ╔═══════════════════════════════════════════════╗
    ║  ▀█▀ █▀▄▀█ █▀▀ █▀ █▀▀ ▄▀█ █▀█ █▀▀ █ █         ║
    ║  ▄█▄ █ ▀ █ █▄█ ▄█ ██▄ █▀█ █▀▄ █▄▄ █▀█         ║
    ║      IMAGE SEARCH HARVESTER AND DOWNLOADER    ║
    ╚═══════════════════════════════════════════════╝
`

var (
	mu           sync.Mutex
	out          io.Writer = os.Stdout
	colorEnabled           = isTerminal(os.Stdout)
	quietMode    bool
)

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
// while colors are enabled
func colorize(colorString string) func(string) string {
	return func(text string) string {
		if !ColorEnabled() {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// SetOutput redirects everything the package prints; nil restores stdout.
// Colors are turned off unless w is a terminal.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	mu.Lock()
	defer mu.Unlock()
	out = w
	if f, ok := w.(*os.File); ok {
		colorEnabled = isTerminal(f)
	} else {
		colorEnabled = false
	}
}

// SetColorEnabled forces colors on or off
func SetColorEnabled(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	colorEnabled = enabled
}

// ColorEnabled reports whether output is colored
func ColorEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return colorEnabled
}

// SetQuietMode suppresses everything except errors
func SetQuietMode(quiet bool) {
	mu.Lock()
	defer mu.Unlock()
	quietMode = quiet
}

// IsQuietMode reports whether quiet mode is on
func IsQuietMode() bool {
	mu.Lock()
	defer mu.Unlock()
	return quietMode
}

func printf(format string, args ...interface{}) {
	mu.Lock()
	w := out
	mu.Unlock()
	fmt.Fprintf(w, format, args...)
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	if IsQuietMode() {
		return
	}
	printf("%s", Cyan(ASCIILogo))
}

// PrintError prints an error message in red; shown even in quiet mode
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		printf("%s\n", Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		printf("%s\n", Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	if IsQuietMode() {
		return
	}
	printf("%s\n", Green(msg))
}

// PrintInfo prints an info message in cyan
func PrintInfo(label string, value string) {
	if IsQuietMode() {
		return
	}
	printf("%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if IsQuietMode() {
		return
	}
	if len(args) > 0 {
		printf("%s\n", Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		printf("%s\n", Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	if IsQuietMode() {
		return
	}
	printf("%s\n", Magenta(msg))
}
