package anomaly

import (
	"math"
	"sort"

	"netsentry/internal/models"
)

const lofEpsilon = 1e-10

// LOFDetector flags outliers by local density: a record whose local
// reachability density is low relative to its neighbors' gets a local
// outlier factor well above 1. Scores are negated LOF values so that, as
// with the isolation forest, more negative means more anomalous.
//
// Fit happens at most once per instance; the engine constructs a fresh
// detector per detection cycle.
type LOFDetector struct {
	Neighbors     int
	Contamination float64
	ScoreHigh     float64
	MinSamples    int

	Trained bool
	model   *lofModel
	offset  float64
}

// NewLOFDetector returns an untrained detector with the standard
// 20-neighbor tuning
func NewLOFDetector(contamination, scoreHigh float64, minSamples int) *LOFDetector {
	return &LOFDetector{
		Neighbors:     20,
		Contamination: contamination,
		ScoreHigh:     scoreHigh,
		MinSamples:    minSamples,
	}
}

// Detect fits on the first call and flags records whose score falls below
// the contamination-quantile offset
func (d *LOFDetector) Detect(records []models.MetricRecord) []models.Detection {
	if len(records) < d.MinSamples {
		return nil
	}

	features := ExtractFeatures(records)

	if !d.Trained {
		d.model = fitLOF(features, d.Neighbors)
		scores := d.scoreAll(features)
		d.offset = quantile(scores, d.Contamination)
		d.Trained = true
	}

	scores := d.scoreAll(features)

	var detections []models.Detection
	for i, score := range scores {
		if score >= d.offset {
			continue
		}
		severity := models.SeverityMedium
		if score < d.ScoreHigh {
			severity = models.SeverityHigh
		}
		detections = append(detections, models.Detection{
			Timestamp: records[i].Timestamp,
			DeviceID:  records[i].DeviceID,
			Method:    models.MethodLOF,
			Severity:  severity,
			Snapshot:  snapshotOf(records[i]),
			Score:     ptr(score),
		})
	}
	return detections
}

func (d *LOFDetector) scoreAll(features [][]float64) []float64 {
	scores := make([]float64, len(features))
	for i, row := range features {
		scores[i] = d.model.score(row)
	}
	return scores
}

// lofModel holds the fitted neighborhood state: training points with their
// k-distances and local reachability densities
type lofModel struct {
	k      int
	points [][]float64
	kdist  []float64
	lrd    []float64
}

func fitLOF(data [][]float64, k int) *lofModel {
	n := len(data)
	if k >= n {
		k = n - 1
	}

	m := &lofModel{k: k, points: data, kdist: make([]float64, n), lrd: make([]float64, n)}

	neighbors := make([][]int, n)
	dists := make([][]float64, n)
	for i := 0; i < n; i++ {
		idx, dst := m.nearest(data[i], i)
		neighbors[i] = idx
		dists[i] = dst
		m.kdist[i] = dst[len(dst)-1]
	}

	for i := 0; i < n; i++ {
		reachSum := 0.0
		for pos, j := range neighbors[i] {
			reachSum += math.Max(m.kdist[j], dists[i][pos])
		}
		m.lrd[i] = 1.0 / (reachSum/float64(len(neighbors[i])) + lofEpsilon)
	}

	return m
}

// nearest returns the k nearest training points to x, excluding index skip
// (-1 to exclude nothing), with their distances in ascending order
func (m *lofModel) nearest(x []float64, skip int) ([]int, []float64) {
	type cand struct {
		idx  int
		dist float64
	}
	cands := make([]cand, 0, len(m.points))
	for j, p := range m.points {
		if j == skip {
			continue
		}
		cands = append(cands, cand{j, euclidean(x, p)})
	}
	sort.Slice(cands, func(a, b int) bool { return cands[a].dist < cands[b].dist })

	k := m.k
	if k > len(cands) {
		k = len(cands)
	}
	idx := make([]int, k)
	dst := make([]float64, k)
	for i := 0; i < k; i++ {
		idx[i] = cands[i].idx
		dst[i] = cands[i].dist
	}
	return idx, dst
}

// score returns the negated local outlier factor of x against the fitted
// training set. Inliers land near -1; outliers drift further negative.
func (m *lofModel) score(x []float64) float64 {
	idx, dst := m.nearest(x, -1)

	reachSum := 0.0
	lrdSum := 0.0
	for pos, j := range idx {
		reachSum += math.Max(m.kdist[j], dst[pos])
		lrdSum += m.lrd[j]
	}
	k := float64(len(idx))
	lrdX := 1.0 / (reachSum/k + lofEpsilon)

	lof := (lrdSum / k) / lrdX
	return -lof
}

func euclidean(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
