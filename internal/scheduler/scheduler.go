package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/partget/internal/output"
	"github.com/tanq16/partget/internal/utils"
)

type State int

const (
	Probing State = iota
	Planning
	Fetching
	Merging
	CleaningUp
	Done
)

func (s State) String() string {
	switch s {
	case Probing:
		return "probing"
	case Planning:
		return "planning"
	case Fetching:
		return "fetching"
	case Merging:
		return "merging"
	case CleaningUp:
		return "cleaning-up"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Scheduler drives one job through Probing -> Planning -> Fetching -> Merging -> Done.
// A failed fetch or merge passes through CleaningUp before Done.
type Scheduler struct {
	Downloader utils.Downloader
	// OnTransition is called after every state change.
	OnTransition func(from, to State)
	// Quiet suppresses the status lines printed to stdout.
	Quiet bool

	state State
}

func New(downloader utils.Downloader) *Scheduler {
	return &Scheduler{Downloader: downloader}
}

// Run executes the job with the given downloader and returns the outcome.
func Run(ctx context.Context, job *utils.PartgetJob, downloader utils.Downloader) (utils.DownloadResult, error) {
	return New(downloader).Run(ctx, job)
}

func (s *Scheduler) Run(ctx context.Context, job *utils.PartgetJob) (utils.DownloadResult, error) {
	s.state = Probing
	var result utils.DownloadResult

	if err := s.Downloader.ValidateJob(ctx, job); err != nil {
		s.transition(Done)
		if errors.Is(err, context.Canceled) {
			s.warn("Downloading cancelled.")
			return result, fmt.Errorf("%w: %v", utils.ErrUserCancelled, err)
		}
		return result, err
	}
	s.info(fmt.Sprintf("File size: %s", utils.FormatBytes(job.FileSize)))

	s.transition(Planning)
	if err := s.Downloader.BuildJob(job); err != nil {
		s.transition(Done)
		return result, err
	}
	s.info(fmt.Sprintf("File total parts: %d (Each part is almost %s)",
		job.Plan.TotalParts(), utils.FormatBytes(job.Plan.ChunkSize)))

	s.transition(Fetching)
	s.pending("Download started...")
	if err := s.Downloader.Download(ctx, job); err != nil {
		cancelled := ctx.Err() != nil && errors.Is(err, context.Canceled)
		if cancelled {
			s.warn("Downloading cancelled.")
		}
		s.transition(CleaningUp)
		s.warn("Deleting the partial downloaded parts...")
		s.Downloader.Cleanup(job)
		s.transition(Done)
		if cancelled {
			return result, fmt.Errorf("%w: %v", utils.ErrUserCancelled, err)
		}
		return result, err
	}

	s.transition(Merging)
	s.pending("Merging parts...")
	if err := s.Downloader.Assemble(job); err != nil {
		s.transition(CleaningUp)
		s.warn("Deleting the partial downloaded parts...")
		s.Downloader.Cleanup(job)
		s.transition(Done)
		return result, err
	}
	s.transition(Done)
	result.Saved = true
	result.OutputPath = job.OutputPath
	return result, nil
}

func (s *Scheduler) State() State {
	return s.state
}

func (s *Scheduler) transition(to State) {
	from := s.state
	s.state = to
	log.Debug().Str("op", "scheduler").Msgf("%s -> %s", from, to)
	if s.OnTransition != nil {
		s.OnTransition(from, to)
	}
}

func (s *Scheduler) info(text string) {
	if !s.Quiet {
		output.PrintInfo(text)
	}
}

func (s *Scheduler) pending(text string) {
	if !s.Quiet {
		output.PrintPending(text)
	}
}

func (s *Scheduler) warn(text string) {
	if !s.Quiet {
		output.PrintWarning(text)
	}
}
