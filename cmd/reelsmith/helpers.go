package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"reelsmith/internal/api"
)

const (
	ansiBlue  = "\x1b[34m"
	ansiReset = "\x1b[0m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func heading(text string, colorize bool) string {
	rule := strings.Repeat("-", len(text))
	if colorize {
		text = ansiBlue + text + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return text + "\n" + rule
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// shortTime reformats an API timestamp for table display.
func shortTime(value string) string {
	if value == "" {
		return ""
	}
	parsed, err := time.Parse("2006-01-02T15:04:05.000Z07:00", value)
	if err != nil {
		return value
	}
	return parsed.Local().Format("2006-01-02 15:04")
}

func failureSummary(failure *api.FailureReason) string {
	if failure == nil {
		return ""
	}
	return fmt.Sprintf("%s at %s: %s", failure.Kind, failure.Stage, failure.Message)
}

func progressCell(snapshot api.JobSnapshot) string {
	return fmt.Sprintf("%d%%", snapshot.Progress)
}
