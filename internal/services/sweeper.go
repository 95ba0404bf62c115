package services

import (
	"context"
	"errors"
	"sync"

	"github.com/veltra/genflow/internal/db/models"
	"github.com/veltra/genflow/internal/db/repos"
	"github.com/veltra/genflow/internal/logger"
	"github.com/veltra/genflow/internal/types"
)

// Sweeper drives reconciliation from the polling side. It is what guarantees
// forward progress for jobs whose callback was lost or never configured.
type Sweeper struct {
	jobs       *repos.JobRepository
	gateway    *Gateway
	reconciler *Reconciler
	workers    int
}

// NewSweeper creates a new sweeper with the given bulk-poll concurrency.
func NewSweeper(jobs *repos.JobRepository, gateway *Gateway, reconciler *Reconciler, workers int) *Sweeper {
	if workers <= 0 {
		workers = 1
	}
	return &Sweeper{jobs: jobs, gateway: gateway, reconciler: reconciler, workers: workers}
}

// PollOne fetches the provider state for a single job and reconciles it. A
// transient provider error is logged and swallowed: the job stays
// non-terminal and the next poll or callback retries.
func (s *Sweeper) PollOne(ctx context.Context, jobID string) (*models.GenerationJob, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	updated, err := s.poll(ctx, job)
	if err != nil {
		if errors.Is(err, types.ErrProviderTransient) {
			logger.Warnf("poll of job %s hit a transient provider error, will retry: %v", job.ID, err)
			return job, nil
		}
		return nil, err
	}
	return updated, nil
}

// PollAll reconciles every non-terminal job with a small bounded worker pool.
// One job's failure never aborts the sweep for the rest; each job's result is
// collected into the batch report.
func (s *Sweeper) PollAll(ctx context.Context) (*types.SweepReport, error) {
	jobs, err := s.jobs.ListNonTerminal(ctx)
	if err != nil {
		return nil, err
	}

	outcomes := make([]types.SweepOutcome, len(jobs))

	workers := s.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				job := jobs[i]
				updated, pollErr := s.poll(ctx, &job)
				outcomes[i] = sweepOutcome(&job, updated, pollErr)
			}
		}()
	}

	for i := range jobs {
		select {
		case <-ctx.Done():
			// Stop feeding work; in-flight polls finish on their own.
		case indexes <- i:
			continue
		}
		break
	}
	close(indexes)
	wg.Wait()

	report := &types.SweepReport{Polled: len(jobs), Outcomes: outcomes}
	logger.Infof("sweep polled %d jobs", report.Polled)
	return report, nil
}

func (s *Sweeper) poll(ctx context.Context, job *models.GenerationJob) (*models.GenerationJob, error) {
	if job.Status.Terminal() {
		return job, nil
	}

	state, err := s.gateway.FetchState(ctx, job)
	if err != nil {
		return nil, err
	}
	return s.reconciler.Apply(ctx, job, state)
}

func sweepOutcome(job, updated *models.GenerationJob, err error) types.SweepOutcome {
	out := types.SweepOutcome{JobID: job.ID, Status: job.Status.String()}
	if err != nil {
		if errors.Is(err, types.ErrProviderTransient) {
			out.Outcome = types.SweepOutcomeTransient
		} else {
			out.Outcome = types.SweepOutcomeError
		}
		out.Error = err.Error()
		return out
	}

	out.Status = updated.Status.String()
	switch updated.Status {
	case models.JobStatusReady:
		out.Outcome = types.SweepOutcomeReady
	case models.JobStatusFailed:
		out.Outcome = types.SweepOutcomeFailed
	default:
		out.Outcome = types.SweepOutcomeProcessing
	}
	return out
}
