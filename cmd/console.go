package main

import (
	"bucketscan/pkg/domain"
	"bucketscan/pkg/serrors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

var (
	foundf = color.New(color.FgGreen, color.Bold).SprintfFunc()
	infof  = color.New(color.FgCyan).SprintfFunc()
	warnf  = color.New(color.FgYellow).SprintfFunc()
	errorf = color.New(color.FgRed).SprintfFunc()
)

// console prints notices and the progress bar of a hunt. Report is called
// serialized by the pool.
type console struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

func newConsole(out io.Writer, total int, progress bool) *console {
	c := &console{out: out}
	if progress && total > 0 {
		c.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(out),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("Probing domains..."),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}))
	}

	return c
}

// Report implements worker.Reporter.
func (c *console) Report(res domain.Result, _, _ int) {
	if msg := notice(res); msg != "" {
		if c.bar != nil {
			_ = c.bar.Clear()
		}
		fmt.Fprintln(c.out, msg)
	}
	if c.bar != nil {
		_ = c.bar.Add(1)
	}
}

// Finish completes the progress bar, if any.
func (c *console) Finish() {
	if c.bar != nil {
		_ = c.bar.Finish()
		fmt.Fprintln(c.out)
	}
}

// notice returns the console line for res, or "" when res is not worth
// printing.
func notice(res domain.Result) string {
	switch {
	case res.Outcome == domain.OutcomeExcluded:
		return warnf("[EXCLUDED] %s", res.Domain)
	case res.Outcome == domain.OutcomeClassified && res.Candidate:
		var b strings.Builder
		b.WriteString(foundf("[FOUND] %s", res.URL))
		if res.Bucket != "" {
			b.WriteString(infof(" bucket=%s", res.Bucket))
		}
		for _, cname := range res.CNAMEs {
			b.WriteString(infof(" CNAME=%s", cname))
		}
		if res.ConfirmErr != nil {
			b.WriteString(errorf(" (CNAME lookup failed: %v)", res.ConfirmErr))
		}

		return b.String()
	case res.Outcome == domain.OutcomeFailed && res.Kind == serrors.ErrGeneric:
		return errorf("[ERROR] %s: %v", res.Domain, res.Err)
	default:
		return ""
	}
}
