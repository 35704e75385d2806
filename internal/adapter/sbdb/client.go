// Package sbdb fetches asteroid catalog data from the JPL Small-Body
// Database APIs.
package sbdb

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

// Client implements the two-step SBDB fetch: the query API lists PHA
// designations, then the per-object API returns the full parameter set.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an SBDB client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchAsteroids returns up to limit potentially hazardous asteroids. A
// failure of the designation list fails the whole fetch; a failed
// per-object lookup only skips that object.
func (c *Client) FetchAsteroids(ctx context.Context, limit int) ([]domain.Asteroid, error) {
	designations, err := c.fetchDesignations(ctx, limit)
	if err != nil {
		return nil, err
	}

	asteroids := make([]domain.Asteroid, 0, len(designations))
	for _, des := range designations {
		a, err := c.FetchAsteroid(ctx, des)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("skipping asteroid detail", "designation", des, "error", err)
			continue
		}
		asteroids = append(asteroids, *a)
	}
	return asteroids, nil
}

func (c *Client) fetchDesignations(ctx context.Context, limit int) ([]string, error) {
	params := url.Values{
		"fields":   {"pdes"},
		"sb-group": {"pha"},
		"limit":    {strconv.Itoa(limit)},
	}

	var resp queryResponse
	if err := c.getJSON(ctx, c.baseURL+"/sbdb_query.api?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("sbdb query: %w", err)
	}

	designations := make([]string, 0, len(resp.Data))
	for _, row := range resp.Data {
		if len(row) > 0 && row[0] != "" {
			designations = append(designations, row[0])
		}
	}
	c.logger.Info("fetched PHA designation list", "count", len(designations))
	return designations, nil
}

// FetchAsteroid returns the full record for one designation.
func (c *Client) FetchAsteroid(ctx context.Context, designation string) (*domain.Asteroid, error) {
	params := url.Values{
		"sstr":           {designation},
		"phys-par":       {"true"},
		"full-precision": {"true"},
	}

	var resp objectResponse
	if err := c.getJSON(ctx, c.baseURL+"/sbdb.api?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("sbdb object %s: %w", designation, err)
	}

	a := parseObject(designation, &resp)
	domain.NormalizeAsteroid(a)
	return a, nil
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
		return fmt.Errorf("sbdb API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// parseObject maps an sbdb.api payload onto the asteroid entity, deriving
// an estimated diameter when no measured one is present.
func parseObject(designation string, resp *objectResponse) *domain.Asteroid {
	a := &domain.Asteroid{
		Designation: designation,
		Name:        nameFromFullname(resp.Object.Fullname),
		OrbitClass:  resp.Object.OrbitClass.Name,
	}

	elements := map[string]float64{}
	for _, e := range resp.Orbit.Elements {
		if v, ok := e.Value.Float(); ok {
			elements[e.Name] = v
		}
	}
	a.PerihelionAU = elements["q"]
	a.AphelionAU = elements["ad"]

	if v, ok := resp.Orbit.MOIDEarth.Float(); ok {
		a.EarthMOIDAU = v
	} else if v, ok := resp.Orbit.MOID.Float(); ok {
		a.EarthMOIDAU = v
	}

	phys := map[string]flexFloat{}
	for _, p := range resp.PhysPar {
		phys[p.Name] = p.Value
	}

	h, ok := phys["H"].Float()
	if !ok {
		h = domain.DefaultAbsoluteMagnitude
	}
	a.AbsoluteMagnitude = h

	albedo, hasAlbedo := phys["albedo"].Float()
	diameter, hasDiameter := phys["diameter"].Float()

	switch {
	case hasDiameter && diameter > 0:
		a.EstimatedDiameterKm = diameter
		a.AccurateDiameter = true
		a.DiameterSource = domain.DiameterMeasured
		if hasAlbedo {
			a.Albedo = albedo
		}
	case hasAlbedo && albedo > 0:
		if d, err := domain.EstimateDiameter(albedo, h); err == nil {
			a.EstimatedDiameterKm = d
			a.Albedo = albedo
			a.DiameterSource = domain.DiameterComputed
			break
		}
		fallthrough
	default:
		if d, err := domain.EstimateDiameterAssumed(h); err == nil {
			a.EstimatedDiameterKm = d
		}
		a.Albedo = domain.AssumedAlbedo
		a.DiameterSource = domain.DiameterCalculated
	}

	return a
}

// nameFromFullname extracts the proper name from a fullname like
// "99942 Apophis (2004 MN4)". Purely numeric prefixes are not names.
func nameFromFullname(fullname string) string {
	head, _, _ := strings.Cut(fullname, "(")
	head = strings.TrimSpace(head)
	if head == "" {
		return ""
	}
	if _, err := strconv.Atoi(strings.ReplaceAll(head, " ", "")); err == nil {
		return ""
	}
	return head
}

// SBDB API response types.

type queryResponse struct {
	Data [][]string `json:"data"`
}

type objectResponse struct {
	Object struct {
		Fullname   string `json:"fullname"`
		OrbitClass struct {
			Name string `json:"name"`
		} `json:"orbit_class"`
	} `json:"object"`
	Orbit struct {
		Elements []struct {
			Name  string    `json:"name"`
			Value flexFloat `json:"value"`
		} `json:"elements"`
		MOIDEarth flexFloat `json:"moid_earth"`
		MOID      flexFloat `json:"moid"`
	} `json:"orbit"`
	PhysPar []struct {
		Name  string    `json:"name"`
		Value flexFloat `json:"value"`
	} `json:"phys_par"`
}
