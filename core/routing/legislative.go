package routing

import (
	"context"

	"github.com/dronershare/mobility/core/geo"
)

// Clearance is the outcome of a regulatory check for a corridor. The
// restrictions list is returned verbatim for display to the requesting user.
type Clearance struct {
	Allowed        bool     `json:"allowed"`
	Restrictions   []string `json:"restrictions"`
	RequiresPermit bool     `json:"requires_permit"`
}

// LegislativeChecker decides whether a corridor may be flown. Callers must
// obtain a clearance before committing a route and reject the trip when
// Allowed is false.
type LegislativeChecker interface {
	CheckRestrictions(ctx context.Context, start, end geo.Point) (Clearance, error)
}

// StaticChecker allows every corridor and attaches the standing operational
// restrictions that apply to all flights.
type StaticChecker struct{}

var standingRestrictions = []string{
	"Flight altitude must not exceed 120m",
	"Visual line of sight required",
	"No night flights without special authorization",
	"Minimum distance from airports: 5km",
	"No flights over crowds without authorization",
}

func (StaticChecker) CheckRestrictions(context.Context, geo.Point, geo.Point) (Clearance, error) {
	restrictions := make([]string, len(standingRestrictions))
	copy(restrictions, standingRestrictions)
	return Clearance{Allowed: true, Restrictions: restrictions}, nil
}
