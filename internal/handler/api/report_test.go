package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"marketpulse/internal/domain/models"
	"marketpulse/internal/domain/repository"
	"marketpulse/internal/service/redash"
	"marketpulse/internal/usecase"
	"marketpulse/pkg/logger"
)

type stubRegistry struct {
	marketplaces []models.Marketplace
}

func (s *stubRegistry) List(_ context.Context) ([]models.Marketplace, error) {
	return s.marketplaces, nil
}

func (s *stubRegistry) Find(_ context.Context, name string) (models.Marketplace, error) {
	for _, mp := range s.marketplaces {
		if mp.Name == name && mp.Active {
			return mp, nil
		}
	}
	return models.Marketplace{}, fmt.Errorf("marketplace %q not found", name)
}

func (s *stubRegistry) Append(_ context.Context, mp models.Marketplace) error {
	s.marketplaces = append(s.marketplaces, mp)
	return nil
}

type stubDashSession struct{}

func (stubDashSession) StoreCounts(_ context.Context, _ models.Marketplace) (map[string]int, error) {
	return map[string]int{"MSK": 5}, nil
}

func (stubDashSession) CacheState(_ context.Context, _ models.Marketplace) (string, error) {
	return models.CacheStatusOK, nil
}

func (stubDashSession) CacheDetail(_ context.Context, _ models.Marketplace) (map[string]models.CacheDetail, error) {
	return nil, nil
}

func (stubDashSession) CountSignal(_ context.Context, _ models.Marketplace, _ models.Signal, _ int) (int, error) {
	return 1, nil
}

func (stubDashSession) Close() error { return nil }

type stubDashBackend struct{ err error }

func (b stubDashBackend) Open(_ context.Context) (repository.DashboardSession, error) {
	if b.err != nil {
		return nil, b.err
	}
	return stubDashSession{}, nil
}

type stubJobSession struct{}

func (stubJobSession) Submit(_ context.Context, _ models.JobSpec) (string, error) { return "", nil }

func (stubJobSession) Status(_ context.Context, _ string) (models.JobStatus, int, error) {
	return models.JobPending, 0, nil
}

func (stubJobSession) Result(_ context.Context, _ int) ([]models.JobRow, error) { return nil, nil }

func (stubJobSession) Close() error { return nil }

type stubJobBackend struct{}

func (stubJobBackend) Open(_ context.Context) (repository.JobSession, error) {
	return stubJobSession{}, nil
}

func newTestHandler(dash repository.DashboardBackend) *ReportHandler {
	reg := &stubRegistry{marketplaces: []models.Marketplace{
		{Active: true, ID: 1, GUID: "g", Name: "apteka", ELKName: "e", Env: models.EnvLTS},
	}}
	builder := usecase.NewReportBuilder(usecase.ReportBuilderParams{
		Dashboard: dash,
		Jobs:      stubJobBackend{},
		Queries:   redash.QueryIDs{History: 1, ProblemRegions: 2, Schedules: 3, DiscrepancySource: 4},
		Windows:   []int{5, 10},
		Logger:    logger.Nop(),
	})
	return NewReportHandler(reg, builder, logger.Nop())
}

func doRequest(h *ReportHandler, path string) *httptest.ResponseRecorder {
	e := echo.New()
	h.RegisterRoutes(e)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestBuildReportEndpoint(t *testing.T) {
	rec := doRequest(newTestHandler(stubDashBackend{}), "/api/reports/apteka")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Status int            `json:"status"`
		Data   *models.Report `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Data == nil || resp.Data.Marketplace != "apteka" {
		t.Errorf("report = %+v", resp.Data)
	}
	if resp.Data.Stores["MSK"] != 5 {
		t.Errorf("stores = %v", resp.Data.Stores)
	}
	// Job sections degrade when the backend refuses submissions.
	if _, ok := resp.Data.Degraded["history"]; !ok {
		t.Errorf("degraded = %v", resp.Data.Degraded)
	}
}

func TestBuildReportUnknownMarketplace(t *testing.T) {
	rec := doRequest(newTestHandler(stubDashBackend{}), "/api/reports/nope")
	var resp struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.Status)
	}
}

func TestBuildReportUpstreamAuthFailure(t *testing.T) {
	dash := stubDashBackend{err: &models.AuthError{Backend: "dashboard", Status: 401, Message: "bad creds"}}
	rec := doRequest(newTestHandler(dash), "/api/reports/apteka")
	var resp struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.Status)
	}
}

func TestListMarketplaces(t *testing.T) {
	rec := doRequest(newTestHandler(stubDashBackend{}), "/api/marketplaces")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Data []models.Marketplace `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].Name != "apteka" {
		t.Errorf("data = %+v", resp.Data)
	}
}
