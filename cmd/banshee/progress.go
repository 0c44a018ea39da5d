package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"banshee/internal/transaction"
	"banshee/internal/workflow"
)

const (
	progressTick     = 100 * time.Millisecond
	progressMinFrame = 250 * time.Millisecond
	progressBarWidth = 24
)

// progressView renders manager activity. On a terminal it keeps one live
// status line for the top visible transaction; otherwise it prints one line
// per start and finish.
type progressView struct {
	out     io.Writer
	manager *workflow.Manager
	live    bool
	limiter *rate.Limiter
	width   int
	printed map[string]bool
}

func newProgressView(out io.Writer, manager *workflow.Manager, live bool) *progressView {
	return &progressView{
		out:     out,
		manager: manager,
		live:    live,
		limiter: rate.NewLimiter(rate.Every(progressMinFrame), 1),
		printed: make(map[string]bool),
	}
}

func (v *progressView) run(ctx context.Context, events <-chan workflow.Event) {
	ticker := time.NewTicker(progressTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			v.clearLine()
			return
		case evt, ok := <-events:
			if !ok {
				v.clearLine()
				return
			}
			v.handle(evt)
		case <-ticker.C:
			if v.live && v.limiter.Allow() {
				v.redraw()
			}
		}
	}
}

func (v *progressView) handle(evt workflow.Event) {
	switch evt.Kind {
	case workflow.EventStarted:
		if !v.live {
			fmt.Fprintf(v.out, "started  [%s] %s\n", evt.Snapshot.Category, evt.Snapshot.Name)
		}
	case workflow.EventFinished:
		v.clearLine()
		fmt.Fprintln(v.out, finishedLine(evt.Snapshot, evt.Outcome))
		v.printed[evt.Snapshot.ID] = true
		if v.live {
			v.redraw()
		}
	case workflow.EventIdle:
		v.clearLine()
	}
}

func (v *progressView) redraw() {
	top, ok := v.manager.TopVisible()
	if !ok {
		v.clearLine()
		return
	}
	line := liveLine(top.Snapshot(), v.manager.VisibleCount())
	pad := ""
	if n := v.width - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	fmt.Fprintf(v.out, "\r%s%s", line, pad)
	v.width = len(line)
}

func (v *progressView) clearLine() {
	if !v.live || v.width == 0 {
		return
	}
	fmt.Fprintf(v.out, "\r%s\r", strings.Repeat(" ", v.width))
	v.width = 0
}

// summary prints finish lines the event stream did not deliver, such as
// queued transactions cancelled before they started, then the totals. It
// must only be called after run has returned.
func (v *progressView) summary(txs []transaction.Transaction) {
	for _, tx := range txs {
		outcome := tx.Outcome()
		if v.printed[tx.ID()] || !outcome.State.Terminal() {
			continue
		}
		fmt.Fprintln(v.out, finishedLine(tx.Snapshot(), outcome))
	}
	counts := map[transaction.State]int{}
	for _, tx := range txs {
		counts[tx.Outcome().State]++
	}
	fmt.Fprintf(v.out, "%d completed, %d failed, %d cancelled\n",
		counts[transaction.StateCompleted], counts[transaction.StateFailed], counts[transaction.StateCancelled])
}

func liveLine(snap transaction.Snapshot, visible int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s %s %5.1f%%", snap.Category, snap.Name, progressBar(snap.Percent), snap.Percent)
	if snap.Status != "" {
		b.WriteString("  ")
		b.WriteString(snap.Status)
	}
	if visible > 1 {
		fmt.Fprintf(&b, "  (+%d more)", visible-1)
	}
	return b.String()
}

func progressBar(percent float64) string {
	filled := int(percent / 100 * progressBarWidth)
	filled = max(0, min(progressBarWidth, filled))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", progressBarWidth-filled) + "]"
}

func finishedLine(snap transaction.Snapshot, outcome transaction.Outcome) string {
	elapsed := outcome.Duration().Round(time.Second)
	switch outcome.State {
	case transaction.StateCompleted:
		line := fmt.Sprintf("done     [%s] %s in %s", snap.Category, snap.Name, elapsed)
		if snap.Status != "" {
			line += ": " + snap.Status
		}
		return line
	case transaction.StateCancelled:
		return fmt.Sprintf("cancel   [%s] %s", snap.Category, snap.Name)
	default:
		msg := "unknown error"
		if outcome.Err != nil {
			msg = outcome.Err.Error()
		}
		return fmt.Sprintf("failed   [%s] %s: %s", snap.Category, snap.Name, msg)
	}
}
