// Package cad fetches Earth close-approach data from the JPL CAD API.
package cad

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

// cdLayout is the JPL calendar format for approach timestamps, UTC.
const cdLayout = "2006-Jan-02 15:04"

// Client fetches the close-approach table. The API returns a fields array
// plus rows-of-arrays; rows are indexed by field name, so column order
// changes upstream are harmless.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a CAD client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchApproaches returns Earth close approaches within the next days
// days and at most maxDistanceAU away. Asteroid ids are left unresolved;
// reconciliation maps designations to internal ids.
func (c *Client) FetchApproaches(ctx context.Context, now time.Time, days int, maxDistanceAU float64) ([]domain.CloseApproach, error) {
	params := url.Values{
		"date-min": {now.UTC().Format("2006-01-02")},
		"date-max": {now.UTC().AddDate(0, 0, days).Format("2006-01-02")},
		"dist-max": {strconv.FormatFloat(maxDistanceAU, 'f', -1, 64)},
		"body":     {"Earth"},
		"sort":     {"dist"},
		"fullname": {"true"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/cad.api?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cad request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("cad API error: status %d: %s", resp.StatusCode, body)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// count=0 responses omit the fields/data arrays entirely.
	if len(payload.Fields) == 0 {
		c.logger.Info("no close approaches in period", "days", days)
		return nil, nil
	}

	idx := fieldIndices(payload.Fields)
	if idx == nil {
		return nil, fmt.Errorf("cad API response missing required fields: %v", payload.Fields)
	}

	approaches := make([]domain.CloseApproach, 0, len(payload.Data))
	for _, row := range payload.Data {
		a, err := parseRow(row, idx)
		if err != nil {
			c.logger.Warn("skipping malformed approach row", "error", err)
			continue
		}
		approaches = append(approaches, a)
	}
	return approaches, nil
}

type indices struct {
	des, cd, dist, vRel int
	fullname            int // -1 when absent
}

func fieldIndices(fields []string) *indices {
	pos := make(map[string]int, len(fields))
	for i, f := range fields {
		pos[f] = i
	}
	idx := &indices{des: -1, cd: -1, dist: -1, vRel: -1, fullname: -1}
	var ok bool
	if idx.des, ok = pos["des"]; !ok {
		return nil
	}
	if idx.cd, ok = pos["cd"]; !ok {
		return nil
	}
	if idx.dist, ok = pos["dist"]; !ok {
		return nil
	}
	if idx.vRel, ok = pos["v_rel"]; !ok {
		return nil
	}
	if i, ok := pos["fullname"]; ok {
		idx.fullname = i
	}
	return idx
}

func parseRow(row []string, idx *indices) (domain.CloseApproach, error) {
	need := idx.vRel
	if idx.cd > need {
		need = idx.cd
	}
	if idx.dist > need {
		need = idx.dist
	}
	if idx.des > need {
		need = idx.des
	}
	if len(row) <= need {
		return domain.CloseApproach{}, fmt.Errorf("row has %d columns, need %d", len(row), need+1)
	}

	at, err := time.ParseInLocation(cdLayout, row[idx.cd], time.UTC)
	if err != nil {
		return domain.CloseApproach{}, fmt.Errorf("parse cd %q: %w", row[idx.cd], err)
	}
	dist, err := strconv.ParseFloat(row[idx.dist], 64)
	if err != nil {
		return domain.CloseApproach{}, fmt.Errorf("parse dist %q: %w", row[idx.dist], err)
	}
	vel, err := strconv.ParseFloat(row[idx.vRel], 64)
	if err != nil {
		return domain.CloseApproach{}, fmt.Errorf("parse v_rel %q: %w", row[idx.vRel], err)
	}

	return domain.CloseApproach{
		Designation:  strings.TrimSpace(row[idx.des]),
		ApproachTime: at,
		DistanceAU:   dist,
		DistanceKm:   domain.DistanceKmFromAU(dist),
		VelocityKmS:  vel,
	}, nil
}

// CAD API response envelope.
type response struct {
	Fields []string   `json:"fields"`
	Data   [][]string `json:"data"`
}
