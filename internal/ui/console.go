package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
)

type ConsoleStyle int

const (
	StyleNormal ConsoleStyle = iota
	StyleError
	StyleWarning
	StyleSuccess
	StyleInfo
	StyleStage
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// Console prints human-readable status lines. Status goes to out, errors to errOut.
type Console struct {
	useColors bool
	out       io.Writer
	errOut    io.Writer
}

func NewConsole() *Console {
	return &Console{
		useColors: isTerminal(),
		out:       os.Stdout,
		errOut:    os.Stderr,
	}
}

// NewConsoleWithWriters returns an uncoloured console writing to the given writers.
func NewConsoleWithWriters(out, errOut io.Writer) *Console {
	return &Console{
		out:    out,
		errOut: errOut,
	}
}

func isTerminal() bool {
	stat, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func (c *Console) formatMessage(style ConsoleStyle, message string) string {
	if !c.useColors {
		return message
	}

	var color string
	switch style {
	case StyleError:
		color = colorRed + colorBold
	case StyleWarning:
		color = colorYellow
	case StyleSuccess:
		color = colorGreen
	case StyleInfo:
		color = colorBlue
	case StyleStage:
		color = colorCyan
	default:
		return message
	}

	return color + message + colorReset
}

func (c *Console) PrintError(message string) {
	fmt.Fprintf(c.errOut, "%s\n", c.formatMessage(StyleError, "Error: "+message))
}

func (c *Console) PrintWarning(message string) {
	fmt.Fprintf(c.errOut, "%s\n", c.formatMessage(StyleWarning, "Warning: "+message))
}

func (c *Console) PrintSuccess(message string) {
	fmt.Fprintf(c.out, "%s\n", c.formatMessage(StyleSuccess, message))
}

func (c *Console) PrintInfo(message string) {
	fmt.Fprintf(c.out, "%s\n", c.formatMessage(StyleInfo, message))
}

// PrintFailure reports a terminal failure on the status stream, unlike PrintError.
func (c *Console) PrintFailure(message string) {
	fmt.Fprintf(c.out, "%s\n", c.formatMessage(StyleError, message))
}

func (c *Console) PrintStage(message string) {
	fmt.Fprintf(c.out, "%s\n", c.formatMessage(StyleStage, message))
}

// PrintLog prints a captured build or container log under a label, unstyled.
func (c *Console) PrintLog(label, log string) {
	fmt.Fprintf(c.out, "%s:\n%s\n", label, strings.TrimRight(log, "\n"))
}

func (c *Console) FormatErrorMessage(context, cause, suggestion string) string {
	var parts []string

	if context != "" {
		parts = append(parts, context)
	}

	if cause != "" {
		parts = append(parts, fmt.Sprintf("Cause: %s", cause))
	}

	if suggestion != "" {
		parts = append(parts, fmt.Sprintf("Suggestion: %s", suggestion))
	}

	return strings.Join(parts, "\n")
}
