package grafana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"marketpulse/internal/domain/models"
	"marketpulse/internal/service/session"
	"marketpulse/pkg/logger"
)

func testMarketplace() models.Marketplace {
	msk, _ := models.RegionByCode("MSK")
	spb, _ := models.RegionByCode("SPB")
	return models.Marketplace{
		Active:  true,
		ID:      3,
		GUID:    "11111111-2222-3333-4444-555555555555",
		Name:    "apteka",
		ELKName: "apteka-prod",
		Env:     models.EnvLTS,
		Regions: []models.Region{msk, spb},
	}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "user", "pass", session.NewMemoryStore(), 5*time.Second, logger.Nop())
}

func loginOK(w http.ResponseWriter, maxAge int) {
	http.SetCookie(w, &http.Cookie{Name: "grafana_session", Value: "tok-123", MaxAge: maxAge})
	w.WriteHeader(http.StatusOK)
}

func TestOpenLoginSetsCookieCredential(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["user"] != "user" || body["password"] != "pass" {
			t.Errorf("unexpected login payload: %v", body)
		}
		loginOK(w, 3600)
	}))

	conn, err := c.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()

	got := conn.(*Conn).cookie
	if got != "grafana_session=tok-123" {
		t.Errorf("cookie = %q", got)
	}
}

func TestOpenRejectedLoginIsAuthError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Invalid username or password"})
	}))

	_, err := c.Open(context.Background())
	var authErr *models.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if authErr.Status != http.StatusUnauthorized || authErr.Message != "Invalid username or password" {
		t.Errorf("unexpected AuthError: %+v", authErr)
	}
}

func TestOpenMissingCookieIsAuthError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	_, err := c.Open(context.Background())
	var authErr *models.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestOpenReusesCachedSession(t *testing.T) {
	var logins int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&logins, 1)
		loginOK(w, 3600)
	}))

	for i := 0; i < 2; i++ {
		conn, err := c.Open(context.Background())
		if err != nil {
			t.Fatalf("Open %d: %v", i, err)
		}
		conn.Close()
	}
	if n := atomic.LoadInt32(&logins); n != 1 {
		t.Errorf("expected 1 login, got %d", n)
	}
}

func TestOpenZeroMaxAgeNeverReused(t *testing.T) {
	var logins int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&logins, 1)
		loginOK(w, 0)
	}))

	for i := 0; i < 2; i++ {
		if _, err := c.Open(context.Background()); err != nil {
			t.Fatalf("Open %d: %v", i, err)
		}
	}
	if n := atomic.LoadInt32(&logins); n != 2 {
		t.Errorf("expected a login per open, got %d", n)
	}
}

func frameResponse(refID string, values [][]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"results": map[string]interface{}{
			refID: map[string]interface{}{
				"frames": []map[string]interface{}{
					{"data": map[string]interface{}{"values": values}},
				},
			},
		},
	}
}

func TestStoreCountsParsesFrames(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			loginOK(w, 3600)
			return
		}
		if r.Header.Get("cookie") != "grafana_session=tok-123" {
			t.Errorf("missing session cookie, got %q", r.Header.Get("cookie"))
		}
		var payload dsQueryPayload
		_ = json.NewDecoder(r.Body).Decode(&payload)
		refID := payload.Queries[0].RefID
		count := map[string]float64{"MSK": 42, "SPB": 7}[refID]
		_ = json.NewEncoder(w).Encode(frameResponse(refID, [][]interface{}{{count}}))
	}))

	conn, err := c.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()

	counts, err := conn.StoreCounts(context.Background(), testMarketplace())
	if err != nil {
		t.Fatalf("StoreCounts: %v", err)
	}
	if counts["MSK"] != 42 || counts["SPB"] != 7 {
		t.Errorf("counts = %v", counts)
	}
}

func TestCacheStateAndDetail(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			loginOK(w, 3600)
			return
		}
		var payload dsQueryPayload
		_ = json.NewDecoder(r.Body).Decode(&payload)
		sql := payload.Queries[0].RawSQL
		switch {
		case strings.Contains(sql, "statistic_nonzerostockmetricstatus"):
			_ = json.NewEncoder(w).Encode(frameResponse("A", [][]interface{}{{"FAILURE"}}))
		default:
			_ = json.NewEncoder(w).Encode(frameResponse("A", [][]interface{}{
				{"Москва", "СПб"},
				{100, 90},
				{95, 90},
				{5.0, 0.0},
			}))
		}
	}))

	conn, err := c.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()

	mp := testMarketplace()
	state, err := conn.CacheState(context.Background(), mp)
	if err != nil {
		t.Fatalf("CacheState: %v", err)
	}
	if state != "FAILURE" {
		t.Errorf("state = %q", state)
	}

	detail, err := conn.CacheDetail(context.Background(), mp)
	if err != nil {
		t.Fatalf("CacheDetail: %v", err)
	}
	want := models.CacheDetail{DBCount: 100, CacheCount: 95, Percent: 5.0}
	if detail["Москва"] != want {
		t.Errorf("detail[Москва] = %+v", detail["Москва"])
	}
}

func TestCountSignalParsesNDJSON(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			loginOK(w, 3600)
			return
		}
		if r.URL.Path != "/api/datasources/proxy/17/_msearch" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-ndjson" {
			t.Errorf("content type = %q", ct)
		}
		fmt.Fprint(w, `{"responses":[{"hits":{"total":{"value":19}}}]}`)
	}))

	conn, err := c.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()

	count, err := conn.CountSignal(context.Background(), testMarketplace(), models.SignalOrders, 15)
	if err != nil {
		t.Fatalf("CountSignal: %v", err)
	}
	if count != 19 {
		t.Errorf("count = %d", count)
	}
}

func TestCountSignalBackendError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			loginOK(w, 3600)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))

	conn, err := c.Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()

	_, err = conn.CountSignal(context.Background(), testMarketplace(), models.SignalStocks, 5)
	var backendErr *models.BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("expected BackendError, got %v", err)
	}
	if backendErr.Status != http.StatusBadGateway {
		t.Errorf("status = %d", backendErr.Status)
	}
}
