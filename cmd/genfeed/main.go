// Command genfeed writes deterministic JPL-shaped JSON fixtures (SBDB query
// and lookup, CAD, Sentry list and object) for use by a stub feed server in
// local development and integration tests. It uses the actual domain package
// so computed diameters match real sync behavior.
//
// Usage:
//
//	go run ./cmd/genfeed -out data/mock
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/orbitwatch/neo-data-service/internal/domain"
)

var baseDate = time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)

type object struct {
	des        string
	fullname   string
	h          float64
	albedo     float64
	diameter   float64 // measured, km; 0 means unmeasured
	q, ad      float64
	moid       float64
	orbitClass string
	// close approach relative to baseDate
	approachDays int
	distAU       float64
	velKmS       float64
	// sentry risk; tsMax < 0 means not in the risk table
	ip          float64
	tsMax       int
	psMax       float64
	impactYears []int
}

var catalog = []object{
	{
		des: "99942", fullname: "99942 Apophis (2004 MN4)",
		h: 19.7, albedo: 0.35, diameter: 0.340,
		q: 0.746, ad: 1.099, moid: 0.000270, orbitClass: "ATE",
		approachDays: 1189, distAU: 0.00025, velKmS: 7.42,
		tsMax: -1,
	},
	{
		des: "2023 DW", fullname: "(2023 DW)",
		h: 26.0, albedo: 0,
		q: 0.491, ad: 1.836, moid: 0.001950, orbitClass: "APO",
		approachDays: 45, distAU: 0.031, velKmS: 24.6,
		ip: 5.4e-4, tsMax: 1, psMax: -2.2, impactYears: []int{2046, 2047},
	},
	{
		des: "101955", fullname: "101955 Bennu (1999 RQ36)",
		h: 20.19, albedo: 0.044, diameter: 0.490,
		q: 0.897, ad: 1.356, moid: 0.003220, orbitClass: "APO",
		approachDays: 220, distAU: 0.048, velKmS: 6.01,
		ip: 5.7e-4, tsMax: 0, psMax: -1.41, impactYears: []int{2178, 2182},
	},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output directory for fixture files")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	files := map[string]any{
		"sbdb_query.json":  sbdbQuery(),
		"cad.json":         cadResponse(),
		"sentry_list.json": sentryList(),
	}
	for _, obj := range catalog {
		files["sbdb_"+fileSafe(obj.des)+".json"] = sbdbLookup(obj)
		if obj.tsMax >= 0 {
			files["sentry_"+fileSafe(obj.des)+".json"] = sentryObject(obj)
		}
	}

	for name, payload := range files {
		if err := writeJSON(filepath.Join(*out, name), payload); err != nil {
			return err
		}
	}
	fmt.Printf("wrote %d fixture files to %s\n", len(files), *out)
	return nil
}

func sbdbQuery() any {
	rows := make([][]string, 0, len(catalog))
	for _, obj := range catalog {
		rows = append(rows, []string{obj.des})
	}
	return map[string]any{
		"signature": signature(),
		"fields":    []string{"pdes"},
		"count":     len(rows),
		"data":      rows,
	}
}

func sbdbLookup(obj object) any {
	phys := []map[string]any{
		{"name": "H", "value": fmt.Sprintf("%.2f", obj.h)},
	}
	if obj.albedo > 0 {
		phys = append(phys, map[string]any{"name": "albedo", "value": fmt.Sprintf("%.3f", obj.albedo)})
	}
	if obj.diameter > 0 {
		phys = append(phys, map[string]any{"name": "diameter", "value": fmt.Sprintf("%.3f", obj.diameter)})
	}
	return map[string]any{
		"signature": signature(),
		"object": map[string]any{
			"des":      obj.des,
			"fullname": obj.fullname,
			"orbit_class": map[string]any{
				"name": obj.orbitClass,
			},
		},
		"orbit": map[string]any{
			"moid_earth": fmt.Sprintf("%.6f", obj.moid),
			"elements": []map[string]any{
				{"name": "q", "value": fmt.Sprintf("%.3f", obj.q)},
				{"name": "ad", "value": fmt.Sprintf("%.3f", obj.ad)},
			},
		},
		"phys_par": phys,
	}
}

func cadResponse() any {
	rows := make([][]string, 0, len(catalog))
	for _, obj := range catalog {
		at := baseDate.AddDate(0, 0, obj.approachDays)
		rows = append(rows, []string{
			obj.des,
			at.Format("2006-Jan-02 15:04"),
			fmt.Sprintf("%.8f", obj.distAU),
			fmt.Sprintf("%.4f", obj.velKmS),
			obj.fullname,
		})
	}
	return map[string]any{
		"signature": signature(),
		"count":     fmt.Sprintf("%d", len(rows)),
		"fields":    []string{"des", "cd", "dist", "v_rel", "fullname"},
		"data":      rows,
	}
}

func sentryList() any {
	rows := make([]map[string]any, 0, len(catalog))
	for _, obj := range catalog {
		if obj.tsMax < 0 {
			continue
		}
		rows = append(rows, sentrySummary(obj))
	}
	return map[string]any{
		"signature": signature(),
		"count":     fmt.Sprintf("%d", len(rows)),
		"data":      rows,
	}
}

func sentryObject(obj object) any {
	data := make([]map[string]any, 0, len(obj.impactYears))
	for _, year := range obj.impactYears {
		data = append(data, map[string]any{
			"date": fmt.Sprintf("%d-03-02.77", year),
			"ip":   fmt.Sprintf("%.2e", obj.ip/float64(len(obj.impactYears))),
		})
	}
	return map[string]any{
		"signature": signature(),
		"summary":   sentrySummary(obj),
		"data":      data,
	}
}

func sentrySummary(obj object) map[string]any {
	diameter := obj.diameter
	if diameter == 0 {
		// Match what the estimator produces for H-only objects.
		diameter, _ = domain.EstimateDiameterAssumed(obj.h)
	}
	return map[string]any{
		"des":      obj.des,
		"fullname": obj.fullname,
		"ip":       fmt.Sprintf("%.2e", obj.ip),
		"ts_max":   fmt.Sprintf("%d", obj.tsMax),
		"ps_max":   fmt.Sprintf("%.2f", obj.psMax),
		"diameter": fmt.Sprintf("%.4f", diameter),
		"v_inf":    fmt.Sprintf("%.2f", obj.velKmS),
		"h":        fmt.Sprintf("%.2f", obj.h),
		"n_imp":    len(obj.impactYears),
		"last_obs": baseDate.AddDate(0, 0, -14).Format("2006-01-02"),
	}
}

func signature() map[string]string {
	return map[string]string{
		"source":  "genfeed fixture",
		"version": "1.0",
	}
}

func fileSafe(des string) string {
	return strings.ReplaceAll(strings.ToLower(des), " ", "_")
}

func writeJSON(path string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
