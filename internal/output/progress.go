package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/partget/internal/utils"
)

type ReporterOptions struct {
	TotalSize  int64
	TotalParts int
	// Interval between two drains of the event channel. Default: 1s
	Interval time.Duration
	// Output defaults to os.Stdout.
	Output io.Writer
}

// Reporter consumes progress events from every part fetcher and renders one
// status line per tick: downloaded size, percent, bar, throughput and ETA.
type Reporter struct {
	opts       ReporterOptions
	events     <-chan utils.ProgressEvent
	inPlace    bool
	width      int
	downloaded int64
	completed  int
	closed     bool
	rendered   bool
}

func NewReporter(events <-chan utils.ProgressEvent, opts ReporterOptions) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Interval <= 0 {
		opts.Interval = utils.DefaultProgressInterval
	}
	return &Reporter{
		opts:    opts,
		events:  events,
		inPlace: isTerminal(opts.Output),
		width:   terminalWidth(opts.Output),
	}
}

// Run polls the event channel once per interval until every part has reported
// completion. It also stops, without error, when ctx is cancelled or the channel closes,
// since a failed part never reports completion.
func (r *Reporter) Run(ctx context.Context) error {
	if r.opts.TotalParts <= 0 {
		return nil
	}
	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.finish()
			return nil
		case <-ticker.C:
		}
		received := r.drain()
		speed := int64(float64(received) / r.opts.Interval.Seconds())
		if r.completed >= r.opts.TotalParts {
			r.render(speed, true)
			log.Debug().Str("op", "output/progress").Msgf("All %d parts reported complete", r.completed)
			return nil
		}
		if speed > 0 {
			r.render(speed, false)
		}
		if r.closed {
			r.finish()
			return nil
		}
	}
}

func (r *Reporter) Downloaded() int64 {
	return r.downloaded
}

func (r *Reporter) Completed() int {
	return r.completed
}

// drain takes every event currently buffered without blocking and returns
// the bytes received during this tick.
func (r *Reporter) drain() int64 {
	var received int64
	for {
		select {
		case event, ok := <-r.events:
			if !ok {
				r.closed = true
				return received
			}
			switch event.Kind {
			case utils.BytesReceived:
				received += event.Bytes
				r.downloaded += event.Bytes
			case utils.PartComplete:
				r.completed++
				log.Debug().Str("op", "output/progress").Int("part", event.Part).Msg("Part complete")
			}
		default:
			return received
		}
	}
}

// ETASeconds floors the time left at the throughput of the last tick.
// Remaining bytes are divided by the rate; total/downloaded is a ratio, not a byte count.
func ETASeconds(total, downloaded, speed int64) int64 {
	if speed <= 0 {
		return 0
	}
	remaining := max(total-downloaded, 0)
	return remaining / speed
}

func (r *Reporter) line(speed int64, final bool) string {
	eta := time.Duration(ETASeconds(r.opts.TotalSize, r.downloaded, speed)) * time.Second
	if final {
		eta = 0
	}
	size := utils.FormatBytes(r.downloaded)
	percent := fmt.Sprintf("%3d%%", CeilPercent(r.downloaded, r.opts.TotalSize))
	bar := "[" + ProgressBar(r.downloaded, r.opts.TotalSize, utils.ProgressBarWidth) + "]"
	rate := utils.FormatSpeed(speed)
	remaining := "ETA " + eta.String()
	if !r.inPlace {
		return strings.Join([]string{size, percent, bar, rate, remaining}, " ")
	}
	parts := []string{infoStyle.Render(size), infoStyle.Render(percent), debugStyle.Render(bar),
		detailStyle.Render(rate), debugStyle.Render(remaining)}
	rendered := strings.Join(parts, " ")
	if r.width > 0 && lipgloss.Width(rendered) >= r.width {
		rendered = strings.Join([]string{parts[0], parts[1], parts[3], parts[4]}, " ")
	}
	return rendered
}

func (r *Reporter) render(speed int64, final bool) {
	text := r.line(speed, final)
	switch {
	case r.inPlace && final:
		fmt.Fprintf(r.opts.Output, "\r%s\033[K\n", text)
	case r.inPlace:
		fmt.Fprintf(r.opts.Output, "\r%s\033[K", text)
	default:
		fmt.Fprintln(r.opts.Output, text)
	}
	r.rendered = !final
}

// finish terminates an in-place line left open by a non-final render.
func (r *Reporter) finish() {
	if r.inPlace && r.rendered {
		fmt.Fprintln(r.opts.Output)
	}
	r.rendered = false
}
