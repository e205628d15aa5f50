package grafana

import (
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"strconv"
	"time"

	"marketpulse/internal/domain/models"
	"marketpulse/internal/domain/repository"
	pkghttp "marketpulse/pkg/http"
	"marketpulse/pkg/logger"
	"marketpulse/pkg/util"
)

const (
	loginPath   = "/login"
	queryPath   = "/api/ds/query"
	msearchPath = "/api/datasources/proxy/%d/_msearch"

	sessionCookie = "grafana_session"
)

// Client authenticates against the dashboard backend and opens report
// sessions. One Client is shared by the whole process; each report run
// opens its own Conn.
type Client struct {
	baseURL  string
	login    string
	password string
	http     *pkghttp.Client
	sessions *SessionCache
	log      *logger.Logger
	now      func() time.Time
}

func NewClient(baseURL, login, password string, store repository.CredentialStore, timeout time.Duration, log *logger.Logger) *Client {
	c := &Client{
		baseURL:  baseURL,
		login:    login,
		password: password,
		http:     pkghttp.NewClient(pkghttp.WithTimeout(timeout)),
		log:      log,
		now:      time.Now,
	}
	c.sessions = NewSessionCache(store, c.authenticate, log)
	return c
}

// Open returns an authenticated session. A cached credential is reused
// when still valid; otherwise a fresh login runs first.
func (c *Client) Open(ctx context.Context) (repository.DashboardSession, error) {
	cred, err := c.sessions.Credential(ctx)
	if err != nil {
		return nil, err
	}
	return &Conn{
		client: c,
		cookie: sessionCookie + "=" + cred.Token,
	}, nil
}

// authenticate performs the login round trip and extracts the session
// cookie together with its advertised lifetime.
func (c *Client) authenticate(ctx context.Context) (models.Credential, error) {
	resp, err := c.http.SendRequest(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodPost,
		URL:    c.baseURL + loginPath,
		Body:   map[string]string{"user": c.login, "password": c.password},
	})
	if err != nil {
		return models.Credential{}, fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK {
		var body struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return models.Credential{}, &models.AuthError{
			Backend: "dashboard",
			Status:  resp.StatusCode,
			Message: body.Message,
		}
	}

	for _, ck := range resp.Cookies() {
		if ck.Name != sessionCookie || ck.Value == "" {
			continue
		}
		cred := models.Credential{Token: ck.Value}
		if ck.MaxAge > 0 {
			cred.ExpiresAt = c.now().Add(time.Duration(ck.MaxAge) * time.Second)
		}
		return cred, nil
	}

	return models.Credential{}, &models.AuthError{
		Backend: "dashboard",
		Status:  resp.StatusCode,
		Message: "login response carries no session cookie",
	}
}

// Conn is one authenticated dashboard session.
type Conn struct {
	client *Client
	cookie string
}

func (s *Conn) Close() error {
	s.client.http.CloseIdleConnections()
	return nil
}

type dsQueryItem struct {
	RefID         string        `json:"refId"`
	Datasource    datasourceRef `json:"datasource"`
	RawSQL        string        `json:"rawSQL"`
	Format        interface{}   `json:"format"`
	MaxDataPoints int           `json:"maxDataPoints"`
}

type dsRange struct {
	From string `json:"from"`
	To   string `json:"to"`
	Raw  struct {
		From string `json:"from"`
		To   string `json:"to"`
	} `json:"raw"`
}

type dsQueryPayload struct {
	Queries []dsQueryItem `json:"queries"`
	Range   dsRange       `json:"range"`
	From    string        `json:"from"`
	To      string        `json:"to"`
}

type dsQueryResponse struct {
	Results map[string]struct {
		Frames []struct {
			Data struct {
				Values [][]interface{} `json:"values"`
			} `json:"data"`
		} `json:"frames"`
	} `json:"results"`
}

// dsQuery runs one raw SQL query through the dashboard query endpoint and
// returns the columnar values of the first frame. A missing frame yields
// nil values with a nil error.
func (s *Conn) dsQuery(ctx context.Context, refID string, ds datasourceRef, rawSQL string, format interface{}, lookback time.Duration, rawFrom string) ([][]interface{}, error) {
	now := s.client.now()

	payload := dsQueryPayload{
		Queries: []dsQueryItem{{
			RefID:         refID,
			Datasource:    ds,
			RawSQL:        rawSQL,
			Format:        format,
			MaxDataPoints: 1384,
		}},
		From: strconv.FormatInt(now.Add(-lookback).UnixMilli(), 10),
		To:   strconv.FormatInt(now.UnixMilli(), 10),
	}
	payload.Range.From = now.Add(-lookback).Format(time.RFC3339)
	payload.Range.To = now.Format(time.RFC3339)
	payload.Range.Raw.From = rawFrom
	payload.Range.Raw.To = "now"

	var res dsQueryResponse
	status, err := s.client.http.SendStatus(ctx, &pkghttp.RequestOptions{
		Method:  pkghttp.MethodPost,
		URL:     s.client.baseURL + queryPath,
		Headers: map[string]string{"cookie": s.cookie},
		Body:    payload,
	}, &res)
	if err != nil {
		return nil, err
	}
	if status != nethttp.StatusOK {
		return nil, &models.BackendError{Status: status, Message: "dashboard query failed"}
	}

	frames := res.Results[refID].Frames
	if len(frames) == 0 {
		return nil, nil
	}
	return frames[0].Data.Values, nil
}

// StoreCounts queries the active store count for every region of the
// marketplace, one query per region.
func (s *Conn) StoreCounts(ctx context.Context, mp models.Marketplace) (map[string]int, error) {
	sql, ok := storesSQL[mp.Env]
	if !ok {
		return nil, fmt.Errorf("no stores query for environment %s", mp.Env)
	}

	counts := make(map[string]int, len(mp.Regions))
	for _, region := range mp.Regions {
		values, err := s.dsQuery(ctx, region.Code, dwhClickhouseDS,
			fmt.Sprintf(sql, region.CompanyID, mp.ID), 1, 24*time.Hour, "now-24h")
		if err != nil {
			return nil, fmt.Errorf("stores query for %s: %w", region.Code, err)
		}
		if len(values) == 0 || len(values[0]) == 0 {
			s.client.log.Warn("no store count in response",
				logger.String("region", region.Code),
				logger.String("marketplace", mp.Name),
			)
			counts[region.Code] = 0
			continue
		}
		counts[region.Code] = util.CoerceInt(values[0][0])
	}
	return counts, nil
}

// CacheState fetches the stock-cache status string for the marketplace.
func (s *Conn) CacheState(ctx context.Context, mp models.Marketplace) (string, error) {
	ds, ok := postgresDS[mp.Env]
	if !ok {
		return "", fmt.Errorf("no cache datasource for environment %s", mp.Env)
	}

	values, err := s.dsQuery(ctx, "A", ds,
		fmt.Sprintf(cacheStatusSQL, mp.GUID), "table", 6*time.Hour, "now-6h")
	if err != nil {
		return "", err
	}
	if len(values) == 0 || len(values[0]) == 0 {
		return "", &models.BackendError{Status: nethttp.StatusOK, Message: "cache status response carries no rows"}
	}
	return util.CoerceString(values[0][0]), nil
}

// CacheDetail fetches the per-region cache breakdown. Columns arrive in
// parallel arrays: region name, db count, cache count, percent.
func (s *Conn) CacheDetail(ctx context.Context, mp models.Marketplace) (map[string]models.CacheDetail, error) {
	ds, ok := postgresDS[mp.Env]
	if !ok {
		return nil, fmt.Errorf("no cache datasource for environment %s", mp.Env)
	}

	values, err := s.dsQuery(ctx, "A", ds,
		fmt.Sprintf(cacheDetailSQL, "'"+mp.Name+"'"), 1, 6*time.Hour, "now-6h")
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return map[string]models.CacheDetail{}, nil
	}
	if len(values) < 4 {
		return nil, &models.BackendError{Status: nethttp.StatusOK, Message: "cache detail response has unexpected shape"}
	}

	detail := make(map[string]models.CacheDetail, len(values[0]))
	for i := range values[0] {
		if i >= len(values[1]) || i >= len(values[2]) || i >= len(values[3]) {
			break
		}
		detail[util.CoerceString(values[0][i])] = models.CacheDetail{
			DBCount:    util.CoerceInt(values[1][i]),
			CacheCount: util.CoerceInt(values[2][i]),
			Percent:    util.CoerceFloat(values[3][i], 0),
		}
	}
	return detail, nil
}

type msearchBody struct {
	Size  int `json:"size"`
	Query struct {
		Bool struct {
			Filter []map[string]interface{} `json:"filter"`
		} `json:"bool"`
	} `json:"query"`
	Aggs map[string]interface{} `json:"aggs"`
}

type msearchResponse struct {
	Responses []struct {
		Hits struct {
			Total struct {
				Value *int `json:"value"`
			} `json:"total"`
		} `json:"hits"`
	} `json:"responses"`
}

// CountSignal counts signal events seen within the last windowMinutes via
// the log-search proxy. The request body is newline-delimited JSON: an
// index header line followed by the query line.
func (s *Conn) CountSignal(ctx context.Context, mp models.Marketplace, signal models.Signal, windowMinutes int) (int, error) {
	source, ok := elkSources[mp.Env]
	if !ok {
		return 0, fmt.Errorf("no log source for environment %s", mp.Env)
	}
	lucene, ok := signalLucene[signal][mp.Env]
	if !ok {
		return 0, fmt.Errorf("no %s query for environment %s", signal, mp.Env)
	}

	now := s.client.now().UTC()
	from := now.Add(-time.Duration(windowMinutes) * time.Minute).UnixMilli()
	to := now.UnixMilli()

	var body msearchBody
	body.Query.Bool.Filter = []map[string]interface{}{
		{"range": map[string]interface{}{
			"@timestamp": map[string]interface{}{"gte": from, "lte": to},
		}},
		{"query_string": map[string]interface{}{
			"query": fmt.Sprintf(lucene, mp.ELKName),
		}},
	}
	body.Aggs = map[string]interface{}{
		"2": map[string]interface{}{
			"date_histogram": map[string]interface{}{
				"field":           "@timestamp",
				"min_doc_count":   0,
				"extended_bounds": map[string]interface{}{"min": from, "max": to},
				"format":          "epoch_millis",
				"fixed_interval":  "300000ms",
			},
			"aggs": map[string]interface{}{},
		},
	}

	header, err := json.Marshal(map[string]string{"index": source.Index})
	if err != nil {
		return 0, fmt.Errorf("marshal msearch header: %w", err)
	}
	bodyLine, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshal msearch body: %w", err)
	}
	payload := append(append(header, '\n'), append(bodyLine, '\n')...)

	var res msearchResponse
	status, err := s.client.http.SendStatus(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodPost,
		URL:    s.client.baseURL + fmt.Sprintf(msearchPath, source.ProxyID),
		Headers: map[string]string{
			"Content-Type": "application/x-ndjson",
			"cookie":       s.cookie,
		},
		Body: payload,
	}, &res)
	if err != nil {
		return 0, err
	}
	if status != nethttp.StatusOK {
		return 0, &models.BackendError{Status: status, Message: "msearch failed"}
	}
	if len(res.Responses) == 0 || res.Responses[0].Hits.Total.Value == nil {
		return 0, &models.BackendError{Status: status, Message: "msearch response carries no hit total"}
	}
	return *res.Responses[0].Hits.Total.Value, nil
}
