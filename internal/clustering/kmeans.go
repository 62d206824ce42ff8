package clustering

import (
	"math"
	"math/rand"
)

const maxIterations = 100

type point [2]float64

// kmeans labels each feature row with a cluster in [0, k). Seeding follows
// k-means++, so a fixed seed gives a fixed labeling. k is clamped to the
// number of rows.
func kmeans(rows []FeatureRow, k int, seed int64) []int {
	n := len(rows)
	if n == 0 {
		return nil
	}
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}

	points := make([]point, n)
	for i, row := range rows {
		points[i] = point{row.Returns, row.Variance}
	}

	rng := rand.New(rand.NewSource(seed))
	centroids := seedCentroids(points, k, rng)
	labels := make([]int, n)

	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, p := range points {
			best := nearestCentroid(p, centroids)
			if best != labels[i] {
				labels[i] = best
				changed = true
			}
		}

		sums := make([]point, k)
		counts := make([]int, k)
		for i, p := range points {
			label := labels[i]
			sums[label][0] += p[0]
			sums[label][1] += p[1]
			counts[label]++
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				// re-seed an empty cluster on a random point
				centroids[c] = points[rng.Intn(n)]
				changed = true
				continue
			}
			centroids[c] = point{
				sums[c][0] / float64(counts[c]),
				sums[c][1] / float64(counts[c]),
			}
		}

		if !changed && iter > 0 {
			break
		}
	}
	return labels
}

func seedCentroids(points []point, k int, rng *rand.Rand) []point {
	centroids := make([]point, 0, k)
	centroids = append(centroids, points[rng.Intn(len(points))])

	for len(centroids) < k {
		weights := make([]float64, len(points))
		total := 0.0
		for i, p := range points {
			d := distSquared(p, centroids[nearestCentroid(p, centroids)])
			weights[i] = d
			total += d
		}
		if total == 0 {
			centroids = append(centroids, points[rng.Intn(len(points))])
			continue
		}
		target := rng.Float64() * total
		acc := 0.0
		chosen := len(points) - 1
		for i, w := range weights {
			acc += w
			if acc >= target {
				chosen = i
				break
			}
		}
		centroids = append(centroids, points[chosen])
	}
	return centroids
}

func nearestCentroid(p point, centroids []point) int {
	best := 0
	bestDist := math.MaxFloat64
	for i, c := range centroids {
		if d := distSquared(p, c); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func distSquared(a, b point) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	return dx*dx + dy*dy
}
