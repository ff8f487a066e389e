// Package segment clusters users into behavioral segments from early
// engagement data. It provides a small KMeans implementation (fit and
// predict), the persisted model artifact, and segment assignment with
// confidence scoring.
package segment

import (
	"errors"
	"math/rand"
	"time"

	"github.com/welli-app/retention-go/pkg/features"
)

// KMeans is a fitted k-means model: one centroid per behavioral segment,
// in scaled feature space.
type KMeans struct {
	// Centroids holds the cluster centers.
	Centroids [][]float64 `json:"centroids"`
}

// K returns the number of clusters.
func (m *KMeans) K() int {
	return len(m.Centroids)
}

// Predict assigns a feature vector to its nearest centroid.
//
// Returns the cluster index and the distances to every centroid
// (used for confidence scoring).
func (m *KMeans) Predict(x []float64) (int, []float64) {
	distances := make([]float64, len(m.Centroids))
	best := 0
	for i, c := range m.Centroids {
		distances[i] = features.EuclideanDistance(x, c)
		if distances[i] < distances[best] {
			best = i
		}
	}
	return best, distances
}

// FitOptions controls k-means training.
type FitOptions struct {
	// K is the number of clusters.
	K int

	// MaxIterations caps Lloyd's algorithm iterations. Default 100.
	MaxIterations int

	// Seed makes centroid initialization deterministic. Zero seeds
	// from the current time.
	Seed int64
}

// Fit trains a k-means model on a scaled dataset using Lloyd's algorithm
// with k-means++ seeding.
//
// Parameters:
//   - X: Dataset of scaled feature vectors
//   - opts: Training options (K required)
//
// Returns the fitted model, or an error if the dataset is smaller than K.
func Fit(X [][]float64, opts FitOptions) (*KMeans, error) {
	if opts.K <= 0 {
		return nil, errors.New("segment: K must be positive")
	}
	if len(X) < opts.K {
		return nil, errors.New("segment: dataset smaller than K")
	}

	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = 100
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	centroids := seedCentroids(X, opts.K, rng)

	assignments := make([]int, len(X))
	for iter := 0; iter < maxIter; iter++ {
		changed := false

		// Assignment step
		for i, x := range X {
			best := 0
			bestDist := features.EuclideanDistance(x, centroids[0])
			for j := 1; j < len(centroids); j++ {
				if d := features.EuclideanDistance(x, centroids[j]); d < bestDist {
					best, bestDist = j, d
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}

		if !changed && iter > 0 {
			break
		}

		// Update step
		dims := len(X[0])
		sums := make([][]float64, opts.K)
		counts := make([]int, opts.K)
		for j := range sums {
			sums[j] = make([]float64, dims)
		}
		for i, x := range X {
			c := assignments[i]
			counts[c]++
			for d, v := range x {
				sums[c][d] += v
			}
		}
		for j := range centroids {
			if counts[j] == 0 {
				// Empty cluster: reseed from a random point.
				centroids[j] = append([]float64(nil), X[rng.Intn(len(X))]...)
				continue
			}
			for d := range sums[j] {
				sums[j][d] /= float64(counts[j])
			}
			centroids[j] = sums[j]
		}
	}

	return &KMeans{Centroids: centroids}, nil
}

// seedCentroids picks initial centroids with k-means++: the first at random,
// each subsequent one with probability proportional to squared distance from
// the nearest chosen centroid.
func seedCentroids(X [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, append([]float64(nil), X[rng.Intn(len(X))]...))

	for len(centroids) < k {
		weights := make([]float64, len(X))
		var total float64
		for i, x := range X {
			minDist := features.EuclideanDistance(x, centroids[0])
			for _, c := range centroids[1:] {
				if d := features.EuclideanDistance(x, c); d < minDist {
					minDist = d
				}
			}
			weights[i] = minDist * minDist
			total += weights[i]
		}

		if total == 0 {
			// All points coincide with chosen centroids.
			centroids = append(centroids, append([]float64(nil), X[rng.Intn(len(X))]...))
			continue
		}

		target := rng.Float64() * total
		var cum float64
		pick := len(X) - 1
		for i, w := range weights {
			cum += w
			if cum >= target {
				pick = i
				break
			}
		}
		centroids = append(centroids, append([]float64(nil), X[pick]...))
	}

	return centroids
}
