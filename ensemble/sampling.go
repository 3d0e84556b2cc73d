package ensemble

import (
	"math/rand/v2"
)

// sampler bundles the seeded randomness one tree needs: bootstrap draws and
// per-split feature subsets. Each tree gets its own sampler so training stays
// deterministic under parallel tree construction.
type sampler struct {
	rng *rand.Rand
}

func newSampler(seed int64) *sampler {
	return &sampler{
		rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed))),
	}
}

// bootstrap draws n indices with replacement and reports which source rows
// made it into the bag.
func (s *sampler) bootstrap(n int) (indices []int, inBag []bool) {
	indices = make([]int, n)
	inBag = make([]bool, n)
	for i := 0; i < n; i++ {
		idx := s.rng.IntN(n)
		indices[i] = idx
		inBag[idx] = true
	}
	return indices, inBag
}

// subsample draws a fraction of rows without replacement, in random order.
func (s *sampler) subsample(n int, fraction float64) []int {
	if fraction >= 1.0 || fraction <= 0 {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}

	k := int(float64(n) * fraction)
	if k < 1 {
		k = 1
	}
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + s.rng.IntN(n-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm[:k]
}
