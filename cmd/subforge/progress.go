package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"subforge/internal/jobs"
	"subforge/internal/logging"
	"subforge/internal/timecode"
	"subforge/internal/workbench"
)

// progressPrinter renders job notifications for one CLI run. On a terminal
// it rewrites a single status line; otherwise it prints sampled lines so
// redirected output stays short.
type progressPrinter struct {
	out         io.Writer
	interactive bool
	kinds       map[jobs.Kind]bool

	mu       sync.Mutex
	produced int
	sampler  *logging.ProgressSampler
	dirty    bool
}

func newProgressPrinter(out io.Writer, kinds ...jobs.Kind) *progressPrinter {
	p := &progressPrinter{
		out:         out,
		interactive: isTerminal(out),
		kinds:       make(map[jobs.Kind]bool, len(kinds)),
		sampler:     logging.NewProgressSampler(10),
	}
	for _, k := range kinds {
		p.kinds[k] = true
	}
	return p
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Present implements workbench.Presenter. It runs on the workbench control
// goroutine.
func (p *progressPrinter) Present(n workbench.Notification) {
	if n.Type != workbench.NotifyJob || n.Event == nil || !p.kinds[n.Event.Kind] {
		return
	}
	ev := n.Event
	p.mu.Lock()
	defer p.mu.Unlock()
	switch ev.Type {
	case jobs.EventSegmentProduced:
		p.produced++
		if ev.Segment == nil {
			return
		}
		line := fmt.Sprintf("%d segments  [%s] %s", p.produced, timecode.Format(ev.Segment.EndSec), clip(ev.Segment.Text, 60))
		p.status(line, p.sampler.ShouldLog(p.produced, 0))
	case jobs.EventProgress:
		line := fmt.Sprintf("%s %d/%d", ev.Kind, ev.Current, ev.Total)
		p.status(line, p.sampler.ShouldLog(ev.Current, ev.Total))
	}
}

func (p *progressPrinter) status(line string, sampled bool) {
	if p.interactive {
		fmt.Fprintf(p.out, "\r\x1b[K%s", line)
		p.dirty = true
		return
	}
	if sampled {
		fmt.Fprintln(p.out, line)
	}
}

func (p *progressPrinter) watch(view workbench.JobView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "Started %s job %s\n", view.Kind, view.ID)
}

func (p *progressPrinter) finish(ev jobs.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dirty {
		fmt.Fprintln(p.out)
		p.dirty = false
	}
	switch ev.Type {
	case jobs.EventCompleted:
		count := 0
		if ev.Result != nil {
			count = ev.Result.Count
		}
		fmt.Fprintf(p.out, "%s completed (%d rows)\n", ev.Kind, count)
	default:
		fmt.Fprintf(p.out, "%s\n", ev.Reason)
	}
}

// jobError converts a non-successful terminal event into an error.
func jobError(ev jobs.Event) error {
	switch ev.Type {
	case jobs.EventCompleted:
		return nil
	case jobs.EventFailed:
		if ev.Err != nil {
			return ev.Err
		}
		return errors.New(ev.Reason)
	default:
		return fmt.Errorf("%s", ev.Reason)
	}
}

func clip(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}
