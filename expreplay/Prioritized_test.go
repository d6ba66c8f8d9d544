package expreplay_test

import (
	"math"
	"testing"

	"github.com/reinlife/reinlife/expreplay"
	"github.com/reinlife/reinlife/timestep"
	"golang.org/x/exp/rand"
)

const features = 2

func transition(i int) timestep.Transition {
	return timestep.Transition{
		State:     []float64{float64(i), float64(i)},
		Action:    i % 3,
		Reward:    float64(i) / 10,
		NextState: []float64{float64(i + 1), float64(i + 1)},
		Done:      i%2 == 0,
	}
}

func newBuffer(t *testing.T, capacity int, betaIncrement float64) *expreplay.Prioritized {
	t.Helper()

	c := expreplay.Config{
		Capacity:      capacity,
		Alpha:         expreplay.DefaultAlpha,
		Beta:          expreplay.DefaultBeta,
		BetaIncrement: betaIncrement,
	}
	buffer, err := c.Create(features, rand.NewSource(42))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return buffer
}

func TestStoreWrapsAround(t *testing.T) {
	buffer := newBuffer(t, 4, expreplay.DefaultBetaIncrement)

	for i := 1; i <= 5; i++ {
		if err := buffer.Store(transition(i)); err != nil {
			t.Fatalf("store: %v", err)
		}
	}

	if buffer.Len() != 4 {
		t.Errorf("len: \n\twant(4)\n\thave(%v)", buffer.Len())
	}

	first, err := buffer.At(0)
	if err != nil {
		t.Fatalf("at: %v", err)
	}
	if first.State[0] != 5 || first.Action != transition(5).Action {
		t.Errorf("at: slot 0 should hold the fifth transition, have %v",
			first)
	}

	second, err := buffer.At(1)
	if err != nil {
		t.Fatalf("at: %v", err)
	}
	if second.State[0] != 2 {
		t.Errorf("at: slot 1 should hold the second transition, have %v",
			second)
	}
}

func TestStoreUsesMaxPriority(t *testing.T) {
	buffer := newBuffer(t, 8, expreplay.DefaultBetaIncrement)

	if err := buffer.Store(transition(0)); err != nil {
		t.Fatalf("store: %v", err)
	}
	if p, _ := buffer.Priority(0); p != 1.0 {
		t.Errorf("priority: first transition \n\twant(1)\n\thave(%v)", p)
	}

	buffer.Store(transition(1))
	buffer.Store(transition(2))
	if err := buffer.UpdatePriorities([]int{0, 1, 2},
		[]float64{0.5, 3.0, 0.1}); err != nil {
		t.Fatalf("updatePriorities: %v", err)
	}

	buffer.Store(transition(3))
	if p, _ := buffer.Priority(3); p != 3.0 {
		t.Errorf("priority: new transition \n\twant(3)\n\thave(%v)", p)
	}
}

func TestStoreInvalidFeatures(t *testing.T) {
	buffer := newBuffer(t, 4, expreplay.DefaultBetaIncrement)

	tr := transition(1)
	tr.NextState = []float64{1}
	if err := buffer.Store(tr); err == nil {
		t.Error("store: expected error for invalid next state size")
	}
	if buffer.Len() != 0 {
		t.Errorf("len: invalid transition stored \n\twant(0)\n\thave(%v)",
			buffer.Len())
	}
}

func TestSampleEmpty(t *testing.T) {
	buffer := newBuffer(t, 4, expreplay.DefaultBetaIncrement)

	_, err := buffer.Sample(2)
	if err == nil {
		t.Fatal("sample: expected error on empty buffer")
	}
	if !expreplay.IsEmptyBuffer(err) {
		t.Errorf("sample: expected empty buffer error, have %v", err)
	}
}

func TestSampleBatch(t *testing.T) {
	const batchSize = 16
	buffer := newBuffer(t, 10, expreplay.DefaultBetaIncrement)

	for i := 0; i < 7; i++ {
		buffer.Store(transition(i))
	}
	buffer.UpdatePriorities([]int{0, 1, 2, 3, 4, 5, 6},
		[]float64{0.1, 0.2, 5, 0.3, 1, 2, 0.05})

	batch, err := buffer.Sample(batchSize)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if batch.Len() != batchSize {
		t.Errorf("sample: invalid batch size \n\twant(%v)\n\thave(%v)",
			batchSize, batch.Len())
	}
	if len(batch.States) != batchSize*features {
		t.Errorf("sample: invalid states length \n\twant(%v)\n\thave(%v)",
			batchSize*features, len(batch.States))
	}

	maxWeight := 0.0
	for i, index := range batch.Indices {
		if index < 0 || index >= buffer.Len() {
			t.Errorf("sample: index %v out of range [0, %v)", index,
				buffer.Len())
			continue
		}
		if w := batch.Weights[i]; w <= 0 || w > 1 {
			t.Errorf("sample: weight %v not in (0, 1]", w)
		}
		maxWeight = math.Max(maxWeight, batch.Weights[i])

		stored, _ := buffer.At(index)
		if batch.States[i*features] != stored.State[0] ||
			batch.Actions[i] != stored.Action ||
			batch.Rewards[i] != stored.Reward {
			t.Errorf("sample: sample %v does not match slot %v", i, index)
		}
		if (batch.Dones[i] == 1.0) != stored.Done {
			t.Errorf("sample: done mask mismatch at slot %v", index)
		}
	}
	if maxWeight != 1.0 {
		t.Errorf("sample: max weight \n\twant(1)\n\thave(%v)", maxWeight)
	}
}

func TestSampleFollowsPriorities(t *testing.T) {
	buffer := newBuffer(t, 4, expreplay.DefaultBetaIncrement)
	for i := 0; i < 4; i++ {
		buffer.Store(transition(i))
	}
	buffer.UpdatePriorities([]int{0, 1, 2, 3}, []float64{0, 0, 1, 0})

	batch, err := buffer.Sample(32)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	for _, index := range batch.Indices {
		if index != 2 {
			t.Errorf("sample: zero priority slot %v sampled", index)
		}
	}
}

func TestSampleZeroPrioritiesUniform(t *testing.T) {
	buffer := newBuffer(t, 3, expreplay.DefaultBetaIncrement)
	for i := 0; i < 3; i++ {
		buffer.Store(transition(i))
	}
	buffer.UpdatePriorities([]int{0, 1, 2}, []float64{0, 0, 0})

	counts := make([]int, 3)
	batch, err := buffer.Sample(300)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	for i, index := range batch.Indices {
		counts[index]++
		if batch.Weights[i] != 1.0 {
			t.Errorf("sample: uniform weights should all be 1, have %v",
				batch.Weights[i])
		}
	}
	for i, c := range counts {
		if c == 0 {
			t.Errorf("sample: slot %v never sampled", i)
		}
	}
}

func TestUpdatePriorities(t *testing.T) {
	buffer := newBuffer(t, 5, expreplay.DefaultBetaIncrement)
	for i := 0; i < 5; i++ {
		buffer.Store(transition(i))
	}

	if err := buffer.UpdatePriorities([]int{1, 3},
		[]float64{0.25, 7}); err != nil {
		t.Fatalf("updatePriorities: %v", err)
	}

	want := []float64{1, 0.25, 1, 7, 1}
	for i, w := range want {
		if p, _ := buffer.Priority(i); p != w {
			t.Errorf("priority %v: \n\twant(%v)\n\thave(%v)", i, w, p)
		}
	}

	err := buffer.UpdatePriorities([]int{9}, []float64{1})
	if !expreplay.IsIndexOutOfRange(err) {
		t.Errorf("updatePriorities: expected out of range error, have %v",
			err)
	}
	if err := buffer.UpdatePriorities([]int{0}, []float64{-1}); err == nil {
		t.Error("updatePriorities: expected error for negative priority")
	}
}

func TestBetaAnneals(t *testing.T) {
	buffer := newBuffer(t, 4, 0.25)
	buffer.Store(transition(0))

	want := []float64{0.4, 0.65, 0.9, 1.0, 1.0}
	for i, w := range want {
		if math.Abs(buffer.Beta()-w) > 1e-12 {
			t.Errorf("beta after %v samples: \n\twant(%v)\n\thave(%v)", i, w,
				buffer.Beta())
		}
		if _, err := buffer.Sample(1); err != nil {
			t.Fatalf("sample: %v", err)
		}
	}
}

func TestBetaSaturatesImmediately(t *testing.T) {
	buffer := newBuffer(t, 4, 1000)
	buffer.Store(transition(0))

	if _, err := buffer.Sample(1); err != nil {
		t.Fatalf("sample: %v", err)
	}
	if buffer.Beta() != 1.0 {
		t.Errorf("beta: \n\twant(1)\n\thave(%v)", buffer.Beta())
	}
}

func TestConfigValidate(t *testing.T) {
	if err := expreplay.DefaultConfig().Validate(); err != nil {
		t.Errorf("validate: default config: %v", err)
	}

	c := expreplay.DefaultConfig()
	c.Capacity = 0
	if err := c.Validate(); err == nil {
		t.Error("validate: expected error for zero capacity")
	}

	c = expreplay.DefaultConfig()
	c.Beta = 1.5
	if err := c.Validate(); err == nil {
		t.Error("validate: expected error for beta > 1")
	}
}

func BenchmarkSample(b *testing.B) {
	c := expreplay.DefaultConfig()
	buffer, err := c.Create(153, rand.NewSource(1))
	if err != nil {
		b.Fatal(err)
	}

	state := make([]float64, 153)
	for i := 0; i < c.Capacity; i++ {
		buffer.Store(timestep.Transition{
			State:     state,
			Action:    i % 8,
			NextState: state,
		})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := buffer.Sample(64); err != nil {
			b.Fatal(err)
		}
	}
}
