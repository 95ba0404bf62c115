package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/veltra/genflow/internal/db/models"
	"github.com/veltra/genflow/internal/db/repos"
	"github.com/veltra/genflow/internal/providers"
	"github.com/veltra/genflow/internal/types"
)

// ServicesTestSuite wires the full service graph against an in-memory
// database and the mock provider.
type ServicesTestSuite struct {
	suite.Suite
	db           *gorm.DB
	ctx          context.Context
	jobRepo      *repos.JobRepository
	pipelineRepo *repos.PipelineRepository
	mock         *providers.Mock
	registry     *providers.Registry
	gateway      *Gateway
	orchestrator *Orchestrator
	notifier     *Notifier
	reconciler   *Reconciler
	sweeper      *Sweeper
}

func (s *ServicesTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_json=1"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err, "Failed to create in-memory database")

	err = db.AutoMigrate(&models.GenerationJob{}, &models.PersonaPipeline{})
	require.NoError(s.T(), err, "Failed to run database migrations")

	s.db = db
	s.ctx = context.Background()
	s.jobRepo = repos.NewJobRepository(db)
	s.pipelineRepo = repos.NewPipelineRepository(db)

	s.mock = providers.NewMock()
	s.registry = providers.NewRegistry()
	s.registry.Register(s.mock)

	s.gateway = NewGateway(s.jobRepo, s.registry, nil, 100*1024*1024)
	s.orchestrator = NewOrchestrator(s.pipelineRepo, s.jobRepo, s.gateway)
	s.notifier = NewNotifier(s.jobRepo, nil)
	s.reconciler = NewReconciler(s.jobRepo, s.orchestrator, s.notifier)
	// Single worker keeps sweeps deterministic against the in-memory database.
	s.sweeper = NewSweeper(s.jobRepo, s.gateway, s.reconciler, 1)
}

func (s *ServicesTestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	if err == nil && sqlDB != nil {
		_ = sqlDB.Close()
	}
}

// submitJob pushes a plain video job through the gateway.
func (s *ServicesTestSuite) submitJob(notifyURL string) *models.GenerationJob {
	job, err := s.gateway.Submit(s.ctx, types.SubmitJobRequest{
		OwnerKind: models.OwnerKindVideo,
		OwnerID:   "video-1",
		Provider:  providers.MockName,
		Kind:      "video",
		Payload:   map[string]interface{}{"prompt": "a test clip"},
		NotifyURL: notifyURL,
	})
	s.Require().NoError(err)
	return job
}

// reload fetches the job's current database row.
func (s *ServicesTestSuite) reload(jobID string) *models.GenerationJob {
	job, err := s.jobRepo.GetByID(s.ctx, jobID)
	s.Require().NoError(err)
	return job
}

// TestServices runs the service test suite.
func TestServices(t *testing.T) {
	suite.Run(t, new(ServicesTestSuite))
}
