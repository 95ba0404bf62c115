package services

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/veltra/genflow/internal/db/models"
	"github.com/veltra/genflow/internal/providers"
	"github.com/veltra/genflow/internal/types"
)

type GatewayTestSuite struct {
	ServicesTestSuite
}

func TestGateway(t *testing.T) {
	suite.Run(t, new(GatewayTestSuite))
}

func (s *GatewayTestSuite) TestSubmit() {
	job := s.submitJob("")

	s.Equal(models.JobStatusQueued, job.Status)
	s.Require().NotNil(job.ExternalTaskID)
	s.Equal("mock-task-1", *job.ExternalTaskID)
	s.Equal(providers.MockName, job.Provider)
	s.Equal(models.JobKindVideo, job.Kind)

	// The submitted payload is persisted for diagnostics.
	var stored map[string]interface{}
	s.Require().NoError(json.Unmarshal(job.Payload, &stored))
	s.Equal("a test clip", stored["prompt"])

	// And it reached the provider verbatim.
	created := s.mock.CreatedRequests()
	s.Require().Len(created, 1)
	s.Equal("a test clip", created[0].Payload["prompt"])

	persisted := s.reload(job.ID)
	s.Equal(models.JobStatusQueued, persisted.Status)
}

func (s *GatewayTestSuite) TestSubmitInvalidRequests() {
	tests := []struct {
		name string
		req  types.SubmitJobRequest
	}{
		{
			name: "unknown kind",
			req: types.SubmitJobRequest{
				OwnerKind: models.OwnerKindVideo, OwnerID: "v1",
				Provider: providers.MockName, Kind: "audio",
			},
		},
		{
			name: "missing owner",
			req: types.SubmitJobRequest{
				Provider: providers.MockName, Kind: "video",
			},
		},
		{
			name: "unknown provider",
			req: types.SubmitJobRequest{
				OwnerKind: models.OwnerKindVideo, OwnerID: "v1",
				Provider: "no-such-provider", Kind: "video",
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.gateway.Submit(s.ctx, tt.req)
			s.Require().Error(err)
			s.True(errors.Is(err, types.ErrInvalidInput), "expected invalid input, got: %v", err)
		})
	}

	// None of the rejected submissions left a job behind.
	jobs, err := s.jobRepo.List(s.ctx, nil)
	s.NoError(err)
	s.Empty(jobs)
}

func (s *GatewayTestSuite) TestSubmitProviderRejected() {
	s.mock.CreateErr = errors.New("prompt violates policy")

	_, err := s.gateway.Submit(s.ctx, types.SubmitJobRequest{
		OwnerKind: models.OwnerKindVideo,
		OwnerID:   "video-1",
		Provider:  providers.MockName,
		Kind:      "video",
	})
	s.Require().Error(err)
	s.True(errors.Is(err, types.ErrProviderRejected))

	// A refusal creates no job row.
	jobs, listErr := s.jobRepo.List(s.ctx, nil)
	s.NoError(listErr)
	s.Empty(jobs)
}

func (s *GatewayTestSuite) TestSubmitValidatesInputMedia() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.jpg":
			w.Header().Set("Content-Length", "1024")
		case "/huge.mp4":
			w.Header().Set("Content-Length", strconv.FormatInt(200*1024*1024, 10))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	base := types.SubmitJobRequest{
		OwnerKind: models.OwnerKindVideo,
		OwnerID:   "video-1",
		Provider:  providers.MockName,
		Kind:      "video",
	}

	ok := base
	ok.InputURL = srv.URL + "/ok.jpg"
	job, err := s.gateway.Submit(s.ctx, ok)
	s.Require().NoError(err)

	// The reference URL travels in the persisted payload too.
	var stored map[string]interface{}
	s.Require().NoError(json.Unmarshal(job.Payload, &stored))
	s.Equal(ok.InputURL, stored["input_url"])

	missing := base
	missing.InputURL = srv.URL + "/gone.jpg"
	_, err = s.gateway.Submit(s.ctx, missing)
	s.Require().Error(err)
	s.True(errors.Is(err, types.ErrInvalidInput))

	huge := base
	huge.InputURL = srv.URL + "/huge.mp4"
	_, err = s.gateway.Submit(s.ctx, huge)
	s.Require().Error(err)
	s.True(errors.Is(err, types.ErrInvalidInput))

	badScheme := base
	badScheme.InputURL = "ftp://example.com/ref.jpg"
	_, err = s.gateway.Submit(s.ctx, badScheme)
	s.Require().Error(err)
	s.True(errors.Is(err, types.ErrInvalidInput))
}

func (s *GatewayTestSuite) TestFetchState() {
	job := s.submitJob("")

	state, err := s.gateway.FetchState(s.ctx, job)
	s.Require().NoError(err)
	s.Equal(providers.Pending(), state)

	s.mock.SetState(*job.ExternalTaskID, providers.Success("https://cdn.example.com/out.mp4"))
	state, err = s.gateway.FetchState(s.ctx, job)
	s.Require().NoError(err)
	s.Equal(providers.Success("https://cdn.example.com/out.mp4"), state)
}
