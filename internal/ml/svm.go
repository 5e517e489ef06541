package ml

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// LinearSVM is a binary linear-kernel SVM trained with Pegasos-style SGD on
// the hinge loss, with Platt-scaled probability estimates. Classes holds the
// two labels in sorted order; the decision function is positive for
// Classes[1].
type LinearSVM struct {
	Weights []float64
	Bias    float64
	Classes [2]string

	// Platt sigmoid parameters: P(Classes[1]|x) = 1/(1+exp(A*f(x)+B)).
	PlattA float64
	PlattB float64
}

// TrainLinearSVM fits the SVM on vectorized samples. y holds 0/1 class
// indices into classes. c mirrors the usual SVM cost parameter.
func TrainLinearSVM(x []SparseVector, y []int, dim int, classes [2]string, c float64, seed int64) *LinearSVM {
	n := len(x)
	m := &LinearSVM{
		Weights: make([]float64, dim),
		Classes: classes,
	}
	if n == 0 || dim == 0 {
		m.PlattA = -1
		return m
	}

	lambda := 1.0 / (c * float64(n))
	rng := rand.New(rand.NewSource(seed))
	order := rng.Perm(n)

	// Feature indices in sorted order per sample, so float accumulation
	// happens in the same order on every run with the same seed.
	features := make([][]int, n)
	for i := range x {
		features[i] = sortedFeatureIndices(x[i])
	}

	const epochs = 30
	t := 0
	for epoch := 0; epoch < epochs; epoch++ {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		for _, idx := range order {
			t++
			eta := 1.0 / (lambda * float64(t))
			yi := float64(2*y[idx] - 1) // -1 / +1

			margin := yi * m.decisionOrdered(x[idx], features[idx])

			// Regularization shrink, then a subgradient step for violators.
			floats.Scale(1-eta*lambda, m.Weights)
			if margin < 1 {
				for _, featIdx := range features[idx] {
					m.Weights[featIdx] += eta * yi * x[idx][featIdx]
				}
				m.Bias += eta * yi
			}
		}
	}

	// Platt scaling on the training decision values.
	scores := make([]float64, n)
	for i := range x {
		scores[i] = m.decisionOrdered(x[i], features[i])
	}
	m.PlattA, m.PlattB = fitPlatt(scores, y)

	return m
}

func sortedFeatureIndices(x SparseVector) []int {
	idxs := make([]int, 0, len(x))
	for idx := range x {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)
	return idxs
}

func (m *LinearSVM) decision(x SparseVector) float64 {
	return m.decisionOrdered(x, sortedFeatureIndices(x))
}

func (m *LinearSVM) decisionOrdered(x SparseVector, idxs []int) float64 {
	f := m.Bias
	for _, idx := range idxs {
		if idx < len(m.Weights) {
			f += m.Weights[idx] * x[idx]
		}
	}
	return f
}

// Predict returns the index (0 or 1) of the winning class.
func (m *LinearSVM) Predict(x SparseVector) int {
	if m.decision(x) > 0 {
		return 1
	}
	return 0
}

// Proba returns [p(Classes[0]), p(Classes[1])] via the Platt sigmoid.
func (m *LinearSVM) Proba(x SparseVector) [2]float64 {
	f := m.decision(x)
	p1 := 1.0 / (1.0 + math.Exp(m.PlattA*f+m.PlattB))
	if math.IsNaN(p1) {
		p1 = 0.5
	}
	return [2]float64{1 - p1, p1}
}

// fitPlatt implements the Lin-Weng-Keerthi Newton refinement of Platt's
// sigmoid fit on decision values.
func fitPlatt(scores []float64, y []int) (a, b float64) {
	n := len(scores)
	prior1, prior0 := 0, 0
	for _, yi := range y {
		if yi == 1 {
			prior1++
		} else {
			prior0++
		}
	}

	hiTarget := (float64(prior1) + 1.0) / (float64(prior1) + 2.0)
	loTarget := 1.0 / (float64(prior0) + 2.0)
	targets := make([]float64, n)
	for i, yi := range y {
		if yi == 1 {
			targets[i] = hiTarget
		} else {
			targets[i] = loTarget
		}
	}

	a = 0.0
	b = math.Log((float64(prior0) + 1.0) / (float64(prior1) + 1.0))

	fval := plattObjective(scores, targets, a, b)

	const (
		maxIter = 100
		minStep = 1e-10
		sigma   = 1e-12
		eps     = 1e-5
	)

	for iter := 0; iter < maxIter; iter++ {
		h11, h22 := sigma, sigma
		h21, g1, g2 := 0.0, 0.0, 0.0
		for i := 0; i < n; i++ {
			fApB := scores[i]*a + b
			var p, q float64
			if fApB >= 0 {
				p = math.Exp(-fApB) / (1.0 + math.Exp(-fApB))
				q = 1.0 / (1.0 + math.Exp(-fApB))
			} else {
				p = 1.0 / (1.0 + math.Exp(fApB))
				q = math.Exp(fApB) / (1.0 + math.Exp(fApB))
			}
			d2 := p * q
			h11 += scores[i] * scores[i] * d2
			h22 += d2
			h21 += scores[i] * d2
			d1 := targets[i] - p
			g1 += scores[i] * d1
			g2 += d1
		}

		if math.Abs(g1) < eps && math.Abs(g2) < eps {
			break
		}

		det := h11*h22 - h21*h21
		dA := -(h22*g1 - h21*g2) / det
		dB := -(-h21*g1 + h11*g2) / det
		gd := g1*dA + g2*dB

		stepSize := 1.0
		for stepSize >= minStep {
			newA := a + stepSize*dA
			newB := b + stepSize*dB
			newF := plattObjective(scores, targets, newA, newB)
			if newF < fval+1e-4*stepSize*gd {
				a, b, fval = newA, newB, newF
				break
			}
			stepSize /= 2.0
		}
		if stepSize < minStep {
			break
		}
	}
	return a, b
}

func plattObjective(scores, targets []float64, a, b float64) float64 {
	var fval float64
	for i := range scores {
		fApB := scores[i]*a + b
		if fApB >= 0 {
			fval += targets[i]*fApB + math.Log1p(math.Exp(-fApB))
		} else {
			fval += (targets[i]-1)*fApB + math.Log1p(math.Exp(fApB))
		}
	}
	return fval
}
