package trailgraph

import (
	"math/rand"

	"github.com/martivilar/camins/internal/core/domain"
)

// ClusterConfig tunes the point clusterer. Zero values fall back to the
// defaults below.
type ClusterConfig struct {
	Clusters   int   // configured cluster count before capping
	HardCap    int   // absolute upper bound on the number of clusters
	MinPoints  int   // inputs smaller than this skip clustering entirely
	Iterations int   // mini-batch passes
	BatchSize  int   // points sampled per pass
	Seed       int64 // fixed seed: identical input yields identical centers
}

const (
	defaultClusters   = 500
	defaultHardCap    = 2000
	defaultMinPoints  = 1000
	defaultIterations = 40
	defaultBatchSize  = 1024
)

func (c ClusterConfig) withDefaults() ClusterConfig {
	if c.Clusters <= 0 {
		c.Clusters = defaultClusters
	}
	if c.HardCap <= 0 {
		c.HardCap = defaultHardCap
	}
	if c.MinPoints <= 0 {
		c.MinPoints = defaultMinPoints
	}
	if c.Iterations <= 0 {
		c.Iterations = defaultIterations
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	return c
}

// Cluster collapses noisy raw coordinates into representative cluster
// centers via seeded mini-batch k-means, returning a mapping from every
// input point to its center. Small inputs (below MinPoints) and inputs with
// fewer than two distinct points map each point to itself; the caller
// decides whether that counts as degenerate.
func Cluster(points []domain.GeoPoint, cfg ClusterConfig) map[domain.GeoPoint]domain.GeoPoint {
	cfg = cfg.withDefaults()

	// Dedup in first-seen order so the run is reproducible: map iteration
	// order would leak randomness into centroid seeding.
	seen := make(map[domain.GeoPoint]struct{}, len(points))
	distinct := make([]domain.GeoPoint, 0, len(points))
	for _, p := range points {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		distinct = append(distinct, p)
	}

	identity := func() map[domain.GeoPoint]domain.GeoPoint {
		m := make(map[domain.GeoPoint]domain.GeoPoint, len(distinct))
		for _, p := range distinct {
			m[p] = p
		}
		return m
	}

	if len(points) < cfg.MinPoints || len(distinct) < 2 {
		return identity()
	}

	k := cfg.Clusters
	if limit := len(points) / 10; limit < k {
		k = limit
	}
	if cfg.HardCap < k {
		k = cfg.HardCap
	}
	if k < 2 {
		return identity()
	}
	if k > len(distinct) {
		k = len(distinct)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	// Seed centroids from a random sample of distinct points.
	centers := make([]domain.GeoPoint, k)
	for i, idx := range rng.Perm(len(distinct))[:k] {
		centers[i] = distinct[idx]
	}

	// Mini-batch k-means: each pass samples a batch, assigns points to their
	// nearest center, and moves the center by a per-center learning rate
	// that decays with its assignment count.
	counts := make([]int, k)
	batch := cfg.BatchSize
	if batch > len(distinct) {
		batch = len(distinct)
	}
	for iter := 0; iter < cfg.Iterations; iter++ {
		for i := 0; i < batch; i++ {
			p := distinct[rng.Intn(len(distinct))]
			c := nearestCenter(centers, p)
			counts[c]++
			eta := 1 / float64(counts[c])
			centers[c].Lat += eta * (p.Lat - centers[c].Lat)
			centers[c].Lon += eta * (p.Lon - centers[c].Lon)
		}
	}

	assign := make(map[domain.GeoPoint]domain.GeoPoint, len(distinct))
	for _, p := range distinct {
		assign[p] = centers[nearestCenter(centers, p)]
	}
	return assign
}

// nearestCenter uses squared planar distance in degree space. For
// cluster-sized neighborhoods the distortion relative to great-circle
// distance does not change assignments enough to matter, and it keeps the
// inner loop cheap.
func nearestCenter(centers []domain.GeoPoint, p domain.GeoPoint) int {
	best := 0
	bestD := sqDist(centers[0], p)
	for i := 1; i < len(centers); i++ {
		if d := sqDist(centers[i], p); d < bestD {
			bestD = d
			best = i
		}
	}
	return best
}

func sqDist(a, b domain.GeoPoint) float64 {
	dLat := a.Lat - b.Lat
	dLon := a.Lon - b.Lon
	return dLat*dLat + dLon*dLon
}
