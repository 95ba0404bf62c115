package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/veltra/genflow/internal/db/models"
	"github.com/veltra/genflow/internal/providers"
	"github.com/veltra/genflow/internal/types"
)

type SweeperTestSuite struct {
	ServicesTestSuite
}

func TestSweeper(t *testing.T) {
	suite.Run(t, new(SweeperTestSuite))
}

func (s *SweeperTestSuite) TestPollOne() {
	job := s.submitJob("")
	s.mock.SetState(*job.ExternalTaskID, providers.Success("https://cdn.example.com/out.mp4"))

	updated, err := s.sweeper.PollOne(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Equal(models.JobStatusReady, updated.Status)
	s.Equal("https://cdn.example.com/out.mp4", updated.ResultURL)
}

func (s *SweeperTestSuite) TestPollOneTransientLeavesJobUntouched() {
	job := s.submitJob("")
	s.mock.GetErr = errors.New("provider is down")

	updated, err := s.sweeper.PollOne(s.ctx, job.ID)
	s.Require().NoError(err, "transient errors are swallowed")
	s.Equal(models.JobStatusQueued, updated.Status)

	persisted := s.reload(job.ID)
	s.Equal(models.JobStatusQueued, persisted.Status)
	s.Empty(persisted.FailureCode)
}

func (s *SweeperTestSuite) TestPollOneUnknownJob() {
	_, err := s.sweeper.PollOne(s.ctx, "no-such-job")
	s.Error(err)
}

func (s *SweeperTestSuite) TestPollAll() {
	ready := s.submitJob("")
	s.mock.SetState(*ready.ExternalTaskID, providers.Success("https://cdn.example.com/a.mp4"))

	failed := s.submitJob("")
	s.mock.SetState(*failed.ExternalTaskID, providers.Failure("oom", "out of memory"))

	pending := s.submitJob("")

	// A job whose provider has no record of the task reads as transient.
	orphanTask := "mock-task-gone"
	orphan := &models.GenerationJob{
		ID:             "orphan-job",
		OwnerKind:      models.OwnerKindVideo,
		OwnerID:        "video-9",
		Provider:       providers.MockName,
		Kind:           models.JobKindVideo,
		ExternalTaskID: &orphanTask,
		Status:         models.JobStatusQueued,
	}
	s.Require().NoError(s.jobRepo.Create(s.ctx, orphan))

	report, err := s.sweeper.PollAll(s.ctx)
	s.Require().NoError(err)
	s.Equal(4, report.Polled)
	s.Len(report.Outcomes, 4)

	byJob := make(map[string]types.SweepOutcome, len(report.Outcomes))
	for _, out := range report.Outcomes {
		byJob[out.JobID] = out
	}

	s.Equal(types.SweepOutcomeReady, byJob[ready.ID].Outcome)
	s.Equal(types.SweepOutcomeFailed, byJob[failed.ID].Outcome)
	s.Equal(types.SweepOutcomeProcessing, byJob[pending.ID].Outcome)
	s.Equal(types.SweepOutcomeTransient, byJob[orphan.ID].Outcome)
	s.NotEmpty(byJob[orphan.ID].Error)

	// The database reflects each outcome.
	s.Equal(models.JobStatusReady, s.reload(ready.ID).Status)
	s.Equal(models.JobStatusFailed, s.reload(failed.ID).Status)
	s.Equal(models.JobStatusProcessing, s.reload(pending.ID).Status)
	s.Equal(models.JobStatusQueued, s.reload(orphan.ID).Status)
}

func (s *SweeperTestSuite) TestPollAllSkipsTerminalJobs() {
	done := s.submitJob("")
	s.mock.SetState(*done.ExternalTaskID, providers.Success("https://cdn.example.com/a.mp4"))
	_, err := s.sweeper.PollOne(s.ctx, done.ID)
	s.Require().NoError(err)

	report, err := s.sweeper.PollAll(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, report.Polled)
}

func (s *SweeperTestSuite) TestPollAllEmpty() {
	report, err := s.sweeper.PollAll(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, report.Polled)
	s.Empty(report.Outcomes)
}
