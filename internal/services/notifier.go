package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/veltra/genflow/internal/db/models"
	"github.com/veltra/genflow/internal/db/repos"
	"github.com/veltra/genflow/internal/logger"
)

// Notifier delivers one-shot completion webhooks for jobs submitted with a
// notify URL. Delivery is best effort: a failure is logged and never retried,
// and never affects the job itself.
type Notifier struct {
	jobs   *repos.JobRepository
	client *http.Client
}

// NewNotifier creates a new completion notifier.
func NewNotifier(jobs *repos.JobRepository, client *http.Client) *Notifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &Notifier{jobs: jobs, client: client}
}

// jobNotification is the webhook body.
type jobNotification struct {
	JobID          string `json:"job_id"`
	OwnerKind      string `json:"owner_kind"`
	OwnerID        string `json:"owner_id"`
	Status         string `json:"status"`
	ResultURL      string `json:"result_url,omitempty"`
	FailureCode    string `json:"failure_code,omitempty"`
	FailureMessage string `json:"failure_message,omitempty"`
}

// JobCompleted fires the job's completion webhook if one is configured and
// not yet sent.
func (n *Notifier) JobCompleted(ctx context.Context, job *models.GenerationJob) {
	if job.NotifyURL == "" || job.NotifySent {
		return
	}

	body, err := json.Marshal(jobNotification{
		JobID:          job.ID,
		OwnerKind:      job.OwnerKind,
		OwnerID:        job.OwnerID,
		Status:         job.Status.String(),
		ResultURL:      job.ResultURL,
		FailureCode:    job.FailureCode,
		FailureMessage: job.FailureMessage,
	})
	if err != nil {
		logger.Errorf("encode notification for job %s: %v", job.ID, err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, job.NotifyURL, bytes.NewReader(body))
	if err != nil {
		logger.Errorf("build notification request for job %s: %v", job.ID, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		logger.Warnf("notification for job %s failed: %v", job.ID, err)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warnf("notification for job %s got status %d", job.ID, resp.StatusCode)
		return
	}

	if err := n.jobs.MarkNotifySent(ctx, job.ID); err != nil {
		logger.Errorf("mark notification sent for job %s: %v", job.ID, err)
	}
}
