package ml

import (
	"math"
	"testing"
)

// linearly separable toy set on two features
func toyData() ([]SparseVector, []int) {
	x := []SparseVector{
		{0: 1.0},
		{0: 0.9, 1: 0.1},
		{0: 0.8},
		{0: 1.0, 1: 0.2},
		{1: 1.0},
		{1: 0.9, 0: 0.1},
		{1: 0.8},
		{1: 1.0, 0: 0.2},
	}
	y := []int{0, 0, 0, 0, 1, 1, 1, 1}
	return x, y
}

func TestSVMSeparatesToyData(t *testing.T) {
	x, y := toyData()
	m := TrainLinearSVM(x, y, 2, [2]string{"aman", "berbahaya"}, 1.0, 42)

	for i := range x {
		if got := m.Predict(x[i]); got != y[i] {
			t.Fatalf("sample %d misclassified: got class %d want %d", i, got, y[i])
		}
	}
}

func TestSVMProbaSumsToOne(t *testing.T) {
	x, y := toyData()
	m := TrainLinearSVM(x, y, 2, [2]string{"aman", "berbahaya"}, 1.0, 42)

	p := m.Proba(SparseVector{0: 0.5, 1: 0.5})
	if math.Abs(p[0]+p[1]-1.0) > 1e-9 {
		t.Fatalf("probabilities must sum to 1, got %v", p)
	}
	if p[0] < 0 || p[0] > 1 || p[1] < 0 || p[1] > 1 {
		t.Fatalf("probabilities out of range: %v", p)
	}
}

func TestSVMProbaTracksDecision(t *testing.T) {
	x, y := toyData()
	m := TrainLinearSVM(x, y, 2, [2]string{"aman", "berbahaya"}, 1.0, 42)

	pNeg := m.Proba(SparseVector{0: 1.0})
	pPos := m.Proba(SparseVector{1: 1.0})
	if pNeg[1] >= pPos[1] {
		t.Fatalf("class-1 probability must grow with the decision value: %v vs %v", pNeg, pPos)
	}
}

func TestSVMDeterministicWithSeed(t *testing.T) {
	x, y := toyData()
	a := TrainLinearSVM(x, y, 2, [2]string{"aman", "berbahaya"}, 1.0, 7)
	b := TrainLinearSVM(x, y, 2, [2]string{"aman", "berbahaya"}, 1.0, 7)

	for i := range a.Weights {
		if a.Weights[i] != b.Weights[i] {
			t.Fatalf("weights differ at %d: %f vs %f", i, a.Weights[i], b.Weights[i])
		}
	}
	if a.Bias != b.Bias || a.PlattA != b.PlattA || a.PlattB != b.PlattB {
		t.Fatal("training is not deterministic for a fixed seed")
	}
}

func TestSVMEmptyTrainingSet(t *testing.T) {
	m := TrainLinearSVM(nil, nil, 0, [2]string{"aman", "berbahaya"}, 1.0, 1)
	if got := m.Predict(SparseVector{}); got != 0 {
		t.Fatalf("empty model must default to class 0, got %d", got)
	}
}
