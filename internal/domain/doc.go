// Package domain models near-Earth-asteroid data aggregated from the
// NASA/JPL Solar System Dynamics (SSD) public APIs.
//
// # Data Sources
//
// Three feeds, all under https://ssd-api.jpl.nasa.gov:
//
//	SBDB (Small-Body Database): orbital elements and physical parameters
//	per object. Queried in two steps: a query-API call listing the
//	designations of potentially hazardous asteroids (sb-group=pha), then
//	a per-object lookup for the full parameter set.
//	CAD (Close-Approach Data): upcoming and recent Earth close approaches
//	as a fields array plus rows-of-arrays payload.
//	Sentry: the impact-risk table, objects with a nonzero chance of
//	Earth impact in the next ~100 years, with Torino/Palermo scores and
//	per-scenario impact dates.
//
// # SBDB Conventions
//
// Numeric values arrive inconsistently as JSON numbers, bare strings
// ("0.433"), or strings with unit or uncertainty suffixes. Parsing strips
// everything after the first whitespace and falls back to a documented
// default on failure. Absolute magnitude H defaults to 18 when absent.
//
// Diameter provenance is tracked in DiameterSource:
//
//	measured:   SBDB carries a directly measured diameter
//	computed:   derived from measured albedo + H via [EstimateDiameter]
//	calculated: derived with the assumed albedo 0.15 (no albedo known)
//
// # CAD Conventions
//
// Approach timestamps use the JPL calendar format "2029-Apr-13 21:46"
// (UTC). Distances are in astronomical units; kilometers are derived with
// [KmPerAU].
//
// # Sentry Conventions
//
// Only objects with ts_max > 0 (nonzero Torino score) are treated as
// current threats. The per-object endpoint reports "not found" or
// "removed" through an in-band "error" field with HTTP 200; both mean
// the object carries no assessed risk and map to an absent value, not a
// failure. Impact years are the deduplicated, ascending year prefixes of
// the scenario dates. Missing physical parameters default to a 0.05 km
// diameter, 20 km/s v-infinity, and H = 22.
package domain
