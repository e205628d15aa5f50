package redash

import (
	"context"
	"fmt"
	nethttp "net/http"
	"time"

	"marketpulse/internal/domain/models"
	"marketpulse/internal/domain/repository"
	pkghttp "marketpulse/pkg/http"
	"marketpulse/pkg/logger"
	"marketpulse/pkg/util"
)

// Client talks to the analytics backend that runs queries as async jobs.
type Client struct {
	baseURL string
	apiKey  string
	http    *pkghttp.Client
	log     *logger.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    pkghttp.NewClient(pkghttp.WithTimeout(timeout)),
		log:     log,
	}
}

// Open validates the credential and returns a session. The backend has no
// login round trip; a missing key is the only auth failure detectable
// up front.
func (c *Client) Open(_ context.Context) (repository.JobSession, error) {
	if c.apiKey == "" {
		return nil, &models.AuthError{Backend: "jobs", Message: "api key is not configured"}
	}
	return &Conn{client: c}, nil
}

// Conn is one job-backend session.
type Conn struct {
	client *Client
}

func (s *Conn) Close() error {
	s.client.http.CloseIdleConnections()
	return nil
}

func (s *Conn) auth() map[string]string {
	return map[string]string{"Authorization": "Key " + s.client.apiKey}
}

// Submit posts the job. A backend rejection is soft: it logs the refusal
// and returns an empty id with a nil error, so the caller skips polling
// instead of failing the run.
func (s *Conn) Submit(ctx context.Context, spec models.JobSpec) (string, error) {
	var url string
	var body interface{}
	if spec.Saved() {
		url = fmt.Sprintf("%s/api/queries/%d/results", s.client.baseURL, spec.QueryID)
		body = map[string]interface{}{
			"id":               spec.QueryID,
			"parameters":       spec.Parameters,
			"apply_auto_limit": false,
			"max_age":          0,
		}
	} else {
		url = s.client.baseURL + "/api/query_results"
		body = map[string]interface{}{
			"query":          spec.Query,
			"data_source_id": spec.DataSourceID,
			"max_age":        0,
		}
	}

	var res struct {
		Job struct {
			ID interface{} `json:"id"`
		} `json:"job"`
		Message string `json:"message"`
	}
	status, err := s.client.http.SendStatus(ctx, &pkghttp.RequestOptions{
		Method:  pkghttp.MethodPost,
		URL:     url,
		Headers: s.auth(),
		Body:    body,
	}, &res)
	if err != nil {
		return "", fmt.Errorf("submit %s: %w", spec.Name, err)
	}
	if status != nethttp.StatusOK {
		s.client.log.Warn("job submission rejected",
			logger.String("job", spec.Name),
			logger.Int("status", status),
			logger.String("message", res.Message),
		)
		return "", nil
	}

	return util.CoerceString(res.Job.ID), nil
}

// Status fetches the current state of a job. On success the result handle
// accompanies the terminal status. A payload that cannot be decoded is a
// backend error, not a pending job; the caller stops polling on it.
func (s *Conn) Status(ctx context.Context, jobID string) (models.JobStatus, int, error) {
	var res struct {
		Job struct {
			Status        int `json:"status"`
			QueryResultID int `json:"query_result_id"`
		} `json:"job"`
	}
	status, err := s.client.http.SendStatusStrict(ctx, &pkghttp.RequestOptions{
		Method:  pkghttp.MethodGet,
		URL:     s.client.baseURL + "/api/jobs/" + jobID,
		Headers: s.auth(),
	}, &res)
	if err != nil {
		if status != 0 {
			return 0, 0, &models.BackendError{Status: status, Message: "malformed job status payload"}
		}
		return 0, 0, err
	}
	if status != nethttp.StatusOK {
		return 0, 0, &models.BackendError{Status: status, Message: "job status fetch failed"}
	}

	// An empty payload on 200 means the job is still queueing.
	if res.Job.Status == 0 {
		return models.JobPending, 0, nil
	}
	return models.JobStatus(res.Job.Status), res.Job.QueryResultID, nil
}

// Result fetches the rows of a completed job. Rows that arrive alongside
// a non-success status are still returned: partial data is informative.
func (s *Conn) Result(ctx context.Context, resultID int) ([]models.JobRow, error) {
	var res struct {
		QueryResult struct {
			Data struct {
				Rows []models.JobRow `json:"rows"`
			} `json:"data"`
		} `json:"query_result"`
	}
	status, err := s.client.http.SendStatus(ctx, &pkghttp.RequestOptions{
		Method:  pkghttp.MethodGet,
		URL:     fmt.Sprintf("%s/api/query_results/%d", s.client.baseURL, resultID),
		Headers: s.auth(),
	}, &res)
	if err != nil {
		return nil, err
	}
	rows := res.QueryResult.Data.Rows
	if status != nethttp.StatusOK && len(rows) == 0 {
		return nil, &models.BackendError{Status: status, Message: "result fetch failed"}
	}
	if status != nethttp.StatusOK {
		s.client.log.Warn("result fetch returned rows with a non-success status",
			logger.Int("status", status),
			logger.Int("result_id", resultID),
		)
	}
	return rows, nil
}
