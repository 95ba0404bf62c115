package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/veltra/genflow/internal/db/models"
)

// DBRepositoryTestSuite provides a base test suite for repository tests
type DBRepositoryTestSuite struct {
	suite.Suite
	db           *gorm.DB
	ctx          context.Context
	jobRepo      *JobRepository
	pipelineRepo *PipelineRepository
}

func (s *DBRepositoryTestSuite) SetupTest() {
	// Create new in-memory database with JSON support
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_json=1"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err, "Failed to create in-memory database")

	err = db.AutoMigrate(&models.GenerationJob{}, &models.PersonaPipeline{})
	require.NoError(s.T(), err, "Failed to run database migrations")

	s.db = db
	s.jobRepo = NewJobRepository(s.db)
	s.pipelineRepo = NewPipelineRepository(s.db)
	s.ctx = context.Background()
}

func (s *DBRepositoryTestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	if err == nil && sqlDB != nil {
		_ = sqlDB.Close()
	}
}

// Helper methods for creating test data

func (s *DBRepositoryTestSuite) createTestJob() *models.GenerationJob {
	taskID := "task-" + uuid.NewString()
	job := &models.GenerationJob{
		ID:             uuid.NewString(),
		OwnerKind:      models.OwnerKindVideo,
		OwnerID:        "video-1",
		Provider:       "mock",
		Kind:           models.JobKindVideo,
		ExternalTaskID: &taskID,
		Status:         models.JobStatusQueued,
		NotifyURL:      "https://example.com/webhook",
		CreatedAt:      time.Now(),
	}
	err := s.jobRepo.Create(s.ctx, job)
	s.Require().NoError(err)
	return job
}

func (s *DBRepositoryTestSuite) createTestPipeline() *models.PersonaPipeline {
	job := s.createTestJob()
	p := &models.PersonaPipeline{
		PersonaID:  "persona-" + uuid.NewString(),
		Stage:      models.StageIntroVideo,
		StageJobID: &job.ID,
	}
	err := s.pipelineRepo.Create(s.ctx, p)
	s.Require().NoError(err)
	return p
}

// TestDBRepository runs the test suite for the DBRepository to verify no panic
func TestDBRepository(t *testing.T) {
	suite.Run(t, new(DBRepositoryTestSuite))
}
