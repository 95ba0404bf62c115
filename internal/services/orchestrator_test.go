package services

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/veltra/genflow/internal/db/models"
	"github.com/veltra/genflow/internal/providers"
	"github.com/veltra/genflow/internal/types"
)

type OrchestratorTestSuite struct {
	ServicesTestSuite
}

func TestOrchestrator(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}

func (s *OrchestratorTestSuite) startPipeline(personaID string) *models.PersonaPipeline {
	pipeline, err := s.orchestrator.Start(s.ctx, types.StartPipelineRequest{
		PersonaID: personaID,
		Provider:  providers.MockName,
		Params:    map[string]interface{}{"style": "studio", "age": "30s"},
	})
	s.Require().NoError(err)
	return pipeline
}

// stageJob loads the pipeline's active stage job.
func (s *OrchestratorTestSuite) stageJob(personaID string) *models.GenerationJob {
	pipeline, err := s.pipelineRepo.GetByPersonaID(s.ctx, personaID)
	s.Require().NoError(err)
	s.Require().NotNil(pipeline.StageJobID)
	return s.reload(*pipeline.StageJobID)
}

// finishStage drives the active stage job to success through the reconciler,
// which in turn notifies the orchestrator.
func (s *OrchestratorTestSuite) finishStage(personaID, resultURL string) {
	job := s.stageJob(personaID)
	_, err := s.reconciler.Apply(s.ctx, job, providers.Success(resultURL))
	s.Require().NoError(err)
}

func (s *OrchestratorTestSuite) payloadOf(job *models.GenerationJob) map[string]interface{} {
	payload := make(map[string]interface{})
	s.Require().NoError(json.Unmarshal(job.Payload, &payload))
	return payload
}

func (s *OrchestratorTestSuite) TestStart() {
	pipeline := s.startPipeline("persona-1")

	s.Equal(models.StageIntroVideo, pipeline.Stage)
	s.Require().NotNil(pipeline.StageJobID)

	job := s.reload(*pipeline.StageJobID)
	s.Equal(models.JobKindVideo, job.Kind)
	s.Equal(models.OwnerKindVideo, job.OwnerKind)
	s.Equal("persona-1", job.OwnerID)
	s.Equal("persona-1", job.PersonaID)

	payload := s.payloadOf(job)
	s.Equal("intro_video", payload["stage"])
	s.Equal("studio", payload["style"])
}

func (s *OrchestratorTestSuite) TestStartValidation() {
	_, err := s.orchestrator.Start(s.ctx, types.StartPipelineRequest{Provider: providers.MockName})
	s.True(errors.Is(err, types.ErrInvalidInput))

	_, err = s.orchestrator.Start(s.ctx, types.StartPipelineRequest{PersonaID: "persona-1"})
	s.True(errors.Is(err, types.ErrInvalidInput))
}

func (s *OrchestratorTestSuite) TestStartDuplicate() {
	s.startPipeline("persona-1")

	_, err := s.orchestrator.Start(s.ctx, types.StartPipelineRequest{
		PersonaID: "persona-1",
		Provider:  providers.MockName,
	})
	s.Require().Error(err)
	s.True(errors.Is(err, types.ErrInvalidInput))
}

func (s *OrchestratorTestSuite) TestStartProviderRejected() {
	s.mock.CreateErr = errors.New("quota exceeded")

	_, err := s.orchestrator.Start(s.ctx, types.StartPipelineRequest{
		PersonaID: "persona-1",
		Provider:  providers.MockName,
	})
	s.Require().Error(err)
	s.True(errors.Is(err, types.ErrProviderRejected))

	// No half-started pipeline row.
	_, err = s.pipelineRepo.GetByPersonaID(s.ctx, "persona-1")
	s.Error(err)
}

func (s *OrchestratorTestSuite) TestFullPipeline() {
	s.startPipeline("persona-1")

	// Intro video finishes; the profile image stage starts from its result.
	s.finishStage("persona-1", "https://cdn.example.com/intro.mp4")

	pipeline, err := s.pipelineRepo.GetByPersonaID(s.ctx, "persona-1")
	s.Require().NoError(err)
	s.Equal(models.StageProfileImage, pipeline.Stage)

	profileJob := s.stageJob("persona-1")
	s.Equal(models.JobKindImage, profileJob.Kind)
	s.Equal(models.OwnerKindPersonaProfile, profileJob.OwnerKind)
	payload := s.payloadOf(profileJob)
	s.Equal("https://cdn.example.com/intro.mp4", payload["face_reference_url"])
	s.Equal("studio", payload["style"], "persona params thread through the chain")

	// Profile image finishes; the body map stage starts from its result.
	s.finishStage("persona-1", "https://cdn.example.com/profile.png")

	pipeline, err = s.pipelineRepo.GetByPersonaID(s.ctx, "persona-1")
	s.Require().NoError(err)
	s.Equal(models.StageBodyMap, pipeline.Stage)

	bodyJob := s.stageJob("persona-1")
	s.Equal(models.OwnerKindPersonaBody, bodyJob.OwnerKind)
	payload = s.payloadOf(bodyJob)
	s.Equal("https://cdn.example.com/profile.png", payload["identity_reference_url"])
	s.NotContains(payload, "face_reference_url", "stage keys do not leak forward")

	// Body map finishes; the pipeline completes with no further jobs.
	s.finishStage("persona-1", "https://cdn.example.com/body.png")

	pipeline, err = s.pipelineRepo.GetByPersonaID(s.ctx, "persona-1")
	s.Require().NoError(err)
	s.Equal(models.StageCompleted, pipeline.Stage)
	s.Nil(pipeline.StageJobID)

	jobs, err := s.jobRepo.List(s.ctx, nil)
	s.Require().NoError(err)
	s.Len(jobs, 3, "one job per stage, nothing extra")
}

func (s *OrchestratorTestSuite) TestStageFailureFailsPipeline() {
	s.startPipeline("persona-1")
	s.finishStage("persona-1", "https://cdn.example.com/intro.mp4")

	// The profile image job fails; the whole pipeline fails with it.
	profileJob := s.stageJob("persona-1")
	_, err := s.reconciler.Apply(s.ctx, profileJob, providers.Failure("nsfw", "face rejected"))
	s.Require().NoError(err)

	pipeline, err := s.pipelineRepo.GetByPersonaID(s.ctx, "persona-1")
	s.Require().NoError(err)
	s.Equal(models.StageFailed, pipeline.Stage)
	s.Equal("nsfw: face rejected", pipeline.LastError)
	s.Nil(pipeline.StageJobID)

	// No body map job was ever submitted.
	jobs, err := s.jobRepo.List(s.ctx, nil)
	s.Require().NoError(err)
	s.Len(jobs, 2)
}

func (s *OrchestratorTestSuite) TestDuplicateReadyIsIgnored() {
	s.startPipeline("persona-1")

	intro := s.stageJob("persona-1")
	s.finishStage("persona-1", "https://cdn.example.com/intro.mp4")

	// A second notification for the finished intro job finds the pipeline
	// already past it and submits nothing.
	finished := s.reload(intro.ID)
	s.Require().NoError(s.orchestrator.OnJobReady(s.ctx, finished))

	pipeline, err := s.pipelineRepo.GetByPersonaID(s.ctx, "persona-1")
	s.Require().NoError(err)
	s.Equal(models.StageProfileImage, pipeline.Stage)

	jobs, err := s.jobRepo.List(s.ctx, nil)
	s.Require().NoError(err)
	s.Len(jobs, 2)
}

func (s *OrchestratorTestSuite) TestLateFailureCannotRegressCompleted() {
	s.startPipeline("persona-1")
	intro := s.stageJob("persona-1")
	s.finishStage("persona-1", "https://cdn.example.com/intro.mp4")
	s.finishStage("persona-1", "https://cdn.example.com/profile.png")
	s.finishStage("persona-1", "https://cdn.example.com/body.png")

	// A stray failure notification for an old job cannot undo completion.
	stale := s.reload(intro.ID)
	stale.FailureCode = "late"
	stale.FailureMessage = "late report"
	s.Require().NoError(s.orchestrator.OnJobFailed(s.ctx, stale))

	pipeline, err := s.pipelineRepo.GetByPersonaID(s.ctx, "persona-1")
	s.Require().NoError(err)
	s.Equal(models.StageCompleted, pipeline.Stage)
	s.Empty(pipeline.LastError)
}

func (s *OrchestratorTestSuite) TestGet() {
	s.startPipeline("persona-1")

	pipeline, err := s.orchestrator.Get(s.ctx, "persona-1")
	s.Require().NoError(err)
	s.Equal("persona-1", pipeline.PersonaID)

	_, err = s.orchestrator.Get(s.ctx, "persona-2")
	s.Error(err)
}
