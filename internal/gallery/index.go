package gallery

import (
	"github.com/coder/hnsw"

	"github.com/17hemanthkumar/pm/internal/facematch"
)

// hnswMaxNeighbors is the M parameter of the graph.
const hnswMaxNeighbors = 16

// vectorIndex wraps an HNSW graph over enrolled encodings. It is not
// locked itself; the owning store serializes access.
type vectorIndex struct {
	graph *hnsw.Graph[int64]
}

func newVectorIndex() *vectorIndex {
	return &vectorIndex{}
}

func (v *vectorIndex) add(key int64, enc facematch.Encoding) {
	if v.graph == nil {
		g := hnsw.NewGraph[int64]()
		g.M = hnswMaxNeighbors
		g.Ml = 1.0 / float64(hnswMaxNeighbors)
		g.Distance = hnsw.EuclideanDistance
		v.graph = g
	}
	v.graph.Add(hnsw.MakeNode(key, toFloat32(enc)))
}

// search returns the keys of up to k approximate nearest neighbors,
// nearest first.
func (v *vectorIndex) search(enc facematch.Encoding, k int) []int64 {
	if v.graph == nil || k <= 0 {
		return nil
	}

	neighbors := v.graph.Search(toFloat32(enc), k)
	keys := make([]int64, len(neighbors))
	for i, n := range neighbors {
		keys[i] = n.Key
	}
	return keys
}

// rebuild recreates the graph from scratch. HNSW has no true deletion,
// so removals rebuild from the surviving entries.
func (v *vectorIndex) rebuild(entries []entry) {
	v.graph = nil
	for _, e := range entries {
		v.add(e.key, e.encoding)
	}
}

func toFloat32(enc facematch.Encoding) []float32 {
	vec := make([]float32, len(enc))
	for i, f := range enc {
		vec[i] = float32(f)
	}
	return vec
}
