package domain

import (
	"time"
)

// Monument is a point of interest reachable over the trail network
// (castles, churches, towers and similar from the regional catalogue).
type Monument struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	Location  GeoPoint       `json:"location"`
	Region    string         `json:"region,omitempty"`
	URL       string         `json:"url,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Distance  *float64       `json:"distance_km,omitempty"` // computed field
	CreatedAt time.Time      `json:"created_at"`
}

// Trackpoint is a raw GPS sample from a recorded trail trace.
// Track and Page identify the trace it came from, so that consecutive
// samples of different traces are never joined into a segment.
type Trackpoint struct {
	Location GeoPoint  `json:"location"`
	Time     time.Time `json:"time"`
	Track    int       `json:"track"`
	Page     int       `json:"page"`
}

// RouteRequest describes one multi-target routing computation.
type RouteRequest struct {
	Bounds        Bounds   `json:"bounds"`
	Origin        GeoPoint `json:"origin"`
	MonumentTypes []string `json:"monument_types,omitempty"`
	Simplify      bool     `json:"simplify"`
	EpsilonDeg    float64  `json:"epsilon_degrees,omitempty"`
}

// MonumentRoute is the result for a single reachable monument.
type MonumentRoute struct {
	Monument   Monument   `json:"monument"`
	DistanceKm float64    `json:"distance_km"`
	Path       []GeoPoint `json:"path"`
}

// RouteResult aggregates one RouteRequest's outcome: which monuments could
// be reached, which could not, and the union of trail edges used by all
// reachable paths (for rendering and export).
type RouteResult struct {
	Origin      GeoPoint        `json:"origin"`
	Reachable   []MonumentRoute `json:"reachable"`
	Unreachable []Monument      `json:"unreachable"`
	Edges       []Segment       `json:"edges"`
	GraphNodes  int             `json:"graph_nodes"`
	GraphEdges  int             `json:"graph_edges"`
	Degenerate  bool            `json:"degenerate,omitempty"` // input had <2 usable points
	ComputedAt  time.Time       `json:"computed_at"`
}

// Job lifecycle states.
const (
	JobPending    = "pending"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// RouteJob is a background routing computation tracked in the database.
type RouteJob struct {
	ID          string       `json:"id"`
	Status      string       `json:"status"`
	Progress    float64      `json:"progress"`
	Request     RouteRequest `json:"request"`
	Result      *RouteResult `json:"result,omitempty"`
	Error       string       `json:"error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// JobEvent is published whenever a job changes state.
type JobEvent struct {
	JobID    string  `json:"job_id"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Error    string  `json:"error,omitempty"`
}
