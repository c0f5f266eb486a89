package anomaly

import (
	"math"
	"math/rand"
	"sort"

	"netsentry/internal/models"
)

// IsolationForestDetector is an unsupervised outlier detector built on an
// isolation forest. Scores follow the score-samples convention: more negative
// is more anomalous. A record is flagged when its score falls below the
// contamination-quantile offset computed at fit time.
//
// The detector fits at most once per instance (Trained flag). Callers wanting
// a re-fit on fresh data construct a new instance; the engine does exactly
// that each detection cycle, so one device's fitted model never bleeds into
// another's.
type IsolationForestDetector struct {
	NumTrees      int
	SubsampleSize int
	Contamination float64 // expected outlier fraction
	ScoreHigh     float64 // high severity when score below this
	MinSamples    int

	Trained bool
	forest  *isolationForest
	offset  float64
}

// NewIsolationForestDetector returns an untrained detector with the given
// tuning. Seeding is fixed so repeated runs over the same window agree.
func NewIsolationForestDetector(contamination, scoreHigh float64, minSamples int) *IsolationForestDetector {
	return &IsolationForestDetector{
		NumTrees:      100,
		SubsampleSize: 256,
		Contamination: contamination,
		ScoreHigh:     scoreHigh,
		MinSamples:    minSamples,
	}
}

// Detect fits the forest (first call only) and flags outlier records
func (d *IsolationForestDetector) Detect(records []models.MetricRecord) []models.Detection {
	if len(records) < d.MinSamples {
		return nil
	}

	features := ExtractFeatures(records)

	if !d.Trained {
		d.forest = newIsolationForest(d.NumTrees, d.SubsampleSize, 42)
		d.forest.fit(features)
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
			Method:    models.MethodIsolationForest,
			Severity:  severity,
			Snapshot:  snapshotOf(records[i]),
			Score:     ptr(score),
		})
	}
	return detections
}

func (d *IsolationForestDetector) scoreAll(features [][]float64) []float64 {
	scores := make([]float64, len(features))
	for i, row := range features {
		// s(x) in (0,1], high means isolated; negate for the
		// more-negative-is-worse convention
		scores[i] = -d.forest.score(row)
	}
	return scores
}

// quantile returns the q-quantile of values with linear interpolation
func quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// isolationForest is the fitted model state
type isolationForest struct {
	numTrees      int
	subsampleSize int
	trees         []*isolationTree
	avgPathLen    float64
	rng           *rand.Rand
}

func newIsolationForest(numTrees, subsampleSize int, seed int64) *isolationForest {
	return &isolationForest{
		numTrees:      numTrees,
		subsampleSize: subsampleSize,
		trees:         make([]*isolationTree, 0, numTrees),
		rng:           rand.New(rand.NewSource(seed)),
	}
}

func (f *isolationForest) fit(data [][]float64) {
	f.avgPathLen = harmonicPathLength(len(data))

	size := f.subsampleSize
	if size > len(data) {
		size = len(data)
	}
	maxHeight := int(math.Ceil(math.Log2(math.Max(float64(size), 2))))

	for i := 0; i < f.numTrees; i++ {
		sample := f.subsample(data, size)
		tree := &isolationTree{maxHeight: maxHeight}
		tree.fit(sample, 0, f.rng)
		f.trees = append(f.trees, tree)
	}
}

// subsample picks size rows without replacement via partial Fisher-Yates
func (f *isolationForest) subsample(data [][]float64, size int) [][]float64 {
	n := len(data)
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	for i := 0; i < size; i++ {
		j := i + f.rng.Intn(n-i)
		indices[i], indices[j] = indices[j], indices[i]
	}

	sample := make([][]float64, size)
	for i := 0; i < size; i++ {
		sample[i] = data[indices[i]]
	}
	return sample
}

// score returns s(x, n) = 2^(-E(h(x))/c(n))
func (f *isolationForest) score(sample []float64) float64 {
	if f.avgPathLen == 0 || len(f.trees) == 0 {
		return 0.5
	}
	totalPath := 0.0
	for _, tree := range f.trees {
		totalPath += tree.pathLength(sample, 0)
	}
	avgPath := totalPath / float64(len(f.trees))
	return math.Pow(2, -avgPath/f.avgPathLen)
}

type isolationTree struct {
	maxHeight    int
	splitFeature int
	splitValue   float64
	left         *isolationTree
	right        *isolationTree
	size         int
	isLeaf       bool
}

func (t *isolationTree) fit(data [][]float64, depth int, rng *rand.Rand) {
	t.size = len(data)

	if len(data) <= 1 || depth >= t.maxHeight {
		t.isLeaf = true
		return
	}

	numFeatures := len(data[0])
	t.splitFeature = rng.Intn(numFeatures)

	minVal, maxVal := data[0][t.splitFeature], data[0][t.splitFeature]
	for _, row := range data[1:] {
		if row[t.splitFeature] < minVal {
			minVal = row[t.splitFeature]
		}
		if row[t.splitFeature] > maxVal {
			maxVal = row[t.splitFeature]
		}
	}
	if minVal == maxVal {
		t.isLeaf = true
		return
	}

	t.splitValue = minVal + rng.Float64()*(maxVal-minVal)

	var leftData, rightData [][]float64
	for _, row := range data {
		if row[t.splitFeature] < t.splitValue {
			leftData = append(leftData, row)
		} else {
			rightData = append(rightData, row)
		}
	}
	if len(leftData) == 0 || len(rightData) == 0 {
		t.isLeaf = true
		return
	}

	t.left = &isolationTree{maxHeight: t.maxHeight}
	t.right = &isolationTree{maxHeight: t.maxHeight}
	t.left.fit(leftData, depth+1, rng)
	t.right.fit(rightData, depth+1, rng)
}

func (t *isolationTree) pathLength(sample []float64, depth int) float64 {
	if t.isLeaf {
		return float64(depth) + harmonicPathLength(t.size)
	}
	if sample[t.splitFeature] < t.splitValue {
		return t.left.pathLength(sample, depth+1)
	}
	return t.right.pathLength(sample, depth+1)
}

// harmonicPathLength is c(n), the average BST path length for n points
func harmonicPathLength(n int) float64 {
	if n > 2 {
		fn := float64(n)
		return 2.0*(math.Log(fn-1)+0.5772156649) - 2.0*(fn-1)/fn
	}
	if n == 2 {
		return 1.0
	}
	return 0.0
}
