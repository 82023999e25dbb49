// Package testutil provides shared fakes and container helpers for tests.
package testutil

import (
	"context"
	"hash/fnv"
	"math"
)

// FakeEmbedder is a deterministic in-process embedder: identical text always
// produces an identical unit vector, so repeated-call determinism can be
// asserted. Specific texts can be pinned to fixed vectors for similarity
// scenarios.
type FakeEmbedder struct {
	Model string
	Dims  int

	// Fixed pins exact vectors per input text.
	Fixed map[string][]float32

	// Err, when set, fails every Embed call.
	Err error

	// Calls counts Embed invocations.
	Calls int
}

// NewFakeEmbedder returns a fake with 8 dimensions and a stable model id.
func NewFakeEmbedder() *FakeEmbedder {
	return &FakeEmbedder{
		Model: "fake-embedder-001",
		Dims:  8,
		Fixed: map[string][]float32{},
	}
}

func (f *FakeEmbedder) ModelID() string { return f.Model }
func (f *FakeEmbedder) Dimensions() int { return f.Dims }

func (f *FakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	if v, ok := f.Fixed[text]; ok {
		return v, nil
	}
	return hashVector(text, f.Dims), nil
}

// hashVector derives a normalized vector from the text, stable across calls.
func hashVector(text string, dims int) []float32 {
	v := make([]float32, dims)
	var norm float64
	for i := range v {
		h := fnv.New64a()
		_, _ = h.Write([]byte(text))
		_, _ = h.Write([]byte{byte(i)})
		component := float64(h.Sum64()%1000) / 1000.0
		v[i] = float32(component)
		norm += component * component
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range v {
			v[i] *= scale
		}
	}
	return v
}
