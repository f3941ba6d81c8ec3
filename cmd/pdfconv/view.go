package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/pdf2word/backend/internal/client"
	"github.com/pdf2word/backend/internal/models"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

// cliView prints notifications and progress to stderr so stdout carries only
// listings.
type cliView struct {
	w        io.Writer
	colorize bool
}

func newCLIView(w io.Writer) *cliView {
	return &cliView{w: w, colorize: shouldColorize(w)}
}

func (v *cliView) RenderFiles([]models.PendingFile)    {}
func (v *cliView) RenderHistory([]models.HistoryEntry) {}
func (v *cliView) RenderRecent([]models.HistoryEntry)  {}
func (v *cliView) SetSubmitEnabled(bool)               {}

func (v *cliView) SetProgress(active bool, percent int, text string) {
	if !active || text == "" {
		return
	}
	fmt.Fprintln(v.w, v.paint(ansiBlue, fmt.Sprintf("[%3d%%] %s", percent, text)))
}

func (v *cliView) Notify(level client.Level, message string) {
	switch level {
	case client.LevelError:
		fmt.Fprintln(v.w, v.paint(ansiRed, "✗ "+message))
	case client.LevelSuccess:
		fmt.Fprintln(v.w, v.paint(ansiGreen, "✓ "+message))
	default:
		fmt.Fprintln(v.w, v.paint(ansiYellow, message))
	}
}

func (v *cliView) paint(color, s string) string {
	if !v.colorize {
		return s
	}
	return color + s + ansiReset
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
