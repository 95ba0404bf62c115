package repos

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/veltra/genflow/internal/db/models"
)

type PipelineRepositoryTestSuite struct {
	DBRepositoryTestSuite
}

func TestPipelineRepository(t *testing.T) {
	suite.Run(t, new(PipelineRepositoryTestSuite))
}

func (s *PipelineRepositoryTestSuite) TestCreate() {
	p := s.createTestPipeline()
	s.NotEmpty(p.PersonaID)
	s.Equal(models.StageIntroVideo, p.Stage)
}

func (s *PipelineRepositoryTestSuite) TestGetByPersonaID() {
	original := s.createTestPipeline()

	found, err := s.pipelineRepo.GetByPersonaID(s.ctx, original.PersonaID)
	s.NoError(err)
	s.Equal(original.PersonaID, found.PersonaID)
	s.Equal(original.Stage, found.Stage)

	_, err = s.pipelineRepo.GetByPersonaID(s.ctx, "non-existent")
	s.Error(err)
}

func (s *PipelineRepositoryTestSuite) TestAdvanceStage() {
	p := s.createTestPipeline()
	next := s.createTestJob()

	ok, err := s.pipelineRepo.AdvanceStage(s.ctx, p.PersonaID, models.StageIntroVideo, models.StageProfileImage, &next.ID)
	s.NoError(err)
	s.True(ok)

	updated, err := s.pipelineRepo.GetByPersonaID(s.ctx, p.PersonaID)
	s.NoError(err)
	s.Equal(models.StageProfileImage, updated.Stage)
	s.Require().NotNil(updated.StageJobID)
	s.Equal(next.ID, *updated.StageJobID)
}

func (s *PipelineRepositoryTestSuite) TestAdvanceStageGuard() {
	p := s.createTestPipeline()
	next := s.createTestJob()

	ok, err := s.pipelineRepo.AdvanceStage(s.ctx, p.PersonaID, models.StageIntroVideo, models.StageProfileImage, &next.ID)
	s.NoError(err)
	s.True(ok)

	// A duplicate notification for the same stage finds the guard closed.
	ok, err = s.pipelineRepo.AdvanceStage(s.ctx, p.PersonaID, models.StageIntroVideo, models.StageProfileImage, &next.ID)
	s.NoError(err)
	s.False(ok)

	updated, err := s.pipelineRepo.GetByPersonaID(s.ctx, p.PersonaID)
	s.NoError(err)
	s.Equal(models.StageProfileImage, updated.Stage)
}

func (s *PipelineRepositoryTestSuite) TestAdvanceToCompleted() {
	p := s.createTestPipeline()

	ok, err := s.pipelineRepo.AdvanceStage(s.ctx, p.PersonaID, models.StageIntroVideo, models.StageProfileImage, nil)
	s.NoError(err)
	s.True(ok)
	ok, err = s.pipelineRepo.AdvanceStage(s.ctx, p.PersonaID, models.StageProfileImage, models.StageBodyMap, nil)
	s.NoError(err)
	s.True(ok)
	ok, err = s.pipelineRepo.AdvanceStage(s.ctx, p.PersonaID, models.StageBodyMap, models.StageCompleted, nil)
	s.NoError(err)
	s.True(ok)

	updated, err := s.pipelineRepo.GetByPersonaID(s.ctx, p.PersonaID)
	s.NoError(err)
	s.Equal(models.StageCompleted, updated.Stage)
	s.Nil(updated.StageJobID)
}

func (s *PipelineRepositoryTestSuite) TestFail() {
	p := s.createTestPipeline()

	ok, err := s.pipelineRepo.Fail(s.ctx, p.PersonaID, "provider_error: content policy")
	s.NoError(err)
	s.True(ok)

	updated, err := s.pipelineRepo.GetByPersonaID(s.ctx, p.PersonaID)
	s.NoError(err)
	s.Equal(models.StageFailed, updated.Stage)
	s.Equal("provider_error: content policy", updated.LastError)
	s.Nil(updated.StageJobID)
}

func (s *PipelineRepositoryTestSuite) TestFailGuardsTerminal() {
	p := s.createTestPipeline()

	ok, err := s.pipelineRepo.AdvanceStage(s.ctx, p.PersonaID, models.StageIntroVideo, models.StageProfileImage, nil)
	s.NoError(err)
	s.True(ok)
	ok, err = s.pipelineRepo.AdvanceStage(s.ctx, p.PersonaID, models.StageProfileImage, models.StageBodyMap, nil)
	s.NoError(err)
	s.True(ok)
	ok, err = s.pipelineRepo.AdvanceStage(s.ctx, p.PersonaID, models.StageBodyMap, models.StageCompleted, nil)
	s.NoError(err)
	s.True(ok)

	// A late failure report cannot regress a completed pipeline.
	ok, err = s.pipelineRepo.Fail(s.ctx, p.PersonaID, "late failure")
	s.NoError(err)
	s.False(ok)

	updated, err := s.pipelineRepo.GetByPersonaID(s.ctx, p.PersonaID)
	s.NoError(err)
	s.Equal(models.StageCompleted, updated.Stage)
	s.Empty(updated.LastError)
}
