// Package sentry fetches impact-risk data from the JPL Sentry API.
package sentry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/orbitwatch/neo-data-service/internal/domain"
)

// Client fetches the Sentry risk table and per-object details.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Sentry client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchRisks returns the current risk table filtered to objects with a
// nonzero Torino score. Asteroid ids are left unresolved.
func (c *Client) FetchRisks(ctx context.Context) ([]domain.ThreatAssessment, error) {
	params := url.Values{
		"ip-min": {"1e-10"},
	}

	var payload listResponse
	if err := c.getJSON(ctx, c.baseURL+"/sentry.api?"+params.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("sentry list: %w", err)
	}

	if v := payload.Signature.Version; v != "" && v < "2.0" {
		c.logger.Warn("sentry API version predates Sentry-II", "version", v)
	}

	risks := make([]domain.ThreatAssessment, 0, len(payload.Data))
	for _, item := range payload.Data {
		t := item.toThreat()
		if t.TSMax <= 0 {
			continue
		}
		risks = append(risks, t)
	}
	c.logger.Info("fetched sentry risk table", "total", len(payload.Data), "nonzero_torino", len(risks))
	return risks, nil
}

// FetchObject returns the assessment for one designation, or nil when the
// object was never listed or has been removed from the risk table. The API
// reports both through an in-band "error" field with HTTP 200.
func (c *Client) FetchObject(ctx context.Context, designation string) (*domain.ThreatAssessment, error) {
	params := url.Values{
		"des": {designation},
	}

	var payload objectResponse
	if err := c.getJSON(ctx, c.baseURL+"/sentry.api?"+params.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("sentry object %s: %w", designation, err)
	}

	if payload.Error != "" {
		c.logger.Info("object not in sentry risk table", "designation", designation, "reason", payload.Error)
		return nil, nil
	}

	t := payload.Summary.toThreat()
	if t.Designation == "" {
		return nil, nil
	}

	dates := make([]string, 0, len(payload.Data))
	for _, vi := range payload.Data {
		dates = append(dates, vi.Date)
	}
	t.ImpactYears = domain.ImpactYearsFromDates(dates)
	if t.NImp == 0 {
		t.NImp = len(payload.Data)
	}
	return &t, nil
}

func (c *Client) getJSON(ctx context.Context, fullURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sentry API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Sentry API response types. Numeric fields arrive as strings or numbers
// depending on the endpoint.

type listResponse struct {
	Signature struct {
		Version string `json:"version"`
	} `json:"signature"`
	Data []item `json:"data"`
}

type objectResponse struct {
	Error   string `json:"error"`
	Summary item   `json:"summary"`
	Data    []struct {
		Date string `json:"date"`
	} `json:"data"`
}

type item struct {
	Des      string  `json:"des"`
	Fullname string  `json:"fullname"`
	IP       numeric `json:"ip"`
	TsMax    numeric `json:"ts_max"`
	PsMax    numeric `json:"ps_max"`
	Diameter numeric `json:"diameter"`
	VInf     numeric `json:"v_inf"`
	H        numeric `json:"h"`
	NImp     numeric `json:"n_imp"`
	LastObs  string  `json:"last_obs"`
}

func (it item) toThreat() domain.ThreatAssessment {
	return domain.ThreatAssessment{
		Designation:       it.Des,
		Fullname:          it.Fullname,
		IP:                it.IP.or(0),
		TSMax:             int(it.TsMax.or(0)),
		PSMax:             it.PsMax.or(-10),
		DiameterKm:        it.Diameter.or(domain.SentryDefaultDiameterKm),
		VInfKmS:           it.VInf.or(domain.SentryDefaultVInfKmS),
		AbsoluteMagnitude: it.H.or(domain.SentryDefaultMagnitude),
		NImp:              int(it.NImp.or(0)),
		LastObs:           it.LastObs,
		ImpactYears:       domain.ImpactYears{},
	}
}

// numeric tolerates string-or-number JSON values.
type numeric struct {
	value float64
	ok    bool
}

func (n *numeric) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		n.value, n.ok = num, true
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return nil
	}
	n.value, n.ok = v, true
	return nil
}

// or returns the parsed value, or def when the field was absent or unparsable.
func (n numeric) or(def float64) float64 {
	if !n.ok {
		return def
	}
	return n.value
}
