// Package routing plans drone flight paths between two geographic points.
//
// The planner produces a waypoint route and its derived metrics: total and
// direct distance, flight duration, battery energy required, path efficiency
// and a safety score. Waypoints follow one of two mutually exclusive
// strategies: with a clear corridor the straight line is subdivided every
// few kilometers, otherwise one avoidance waypoint is inserted per obstacle,
// offset outward from the corridor midpoint. Interior waypoints whose detour
// is negligible are pruned before the metrics are computed.
//
// This is a deliberately simplified substitute for graph-based pathfinding:
// routes are shaped by interpolation and single-point offsets, not by a
// search over an airspace graph. Obstacle collaborators supply the no-fly
// zones; legislative collaborators decide whether a route may fly at all.
package routing
