package relevance

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// FitOptions configures logistic regression training.
type FitOptions struct {
	// MaxIter bounds the Newton iterations.
	MaxIter int
	// L2 is the ridge penalty on the weights (the inverse of C). The intercept is not penalized.
	L2 float64
	// Balanced reweights samples so both classes carry equal total weight.
	Balanced bool
	// Tol stops iteration once the largest parameter step falls below it.
	Tol float64
	// Source is recorded on the fitted model.
	Source string
}

// DefaultFitOptions mirrors a balanced, C=1 logistic regression capped at 1000 iterations.
func DefaultFitOptions() FitOptions {
	return FitOptions{MaxIter: 1000, L2: 1.0, Balanced: true, Tol: 1e-8}
}

// Fit trains a model on x (rows of equal length) with labels y in {0,1}
// using Newton-Raphson (IRLS). The result is deterministic for a given input.
func Fit(x [][]float64, y []int, opts FitOptions) (*Model, error) {
	if len(x) == 0 {
		return nil, ErrEmptyTrainingSet
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d rows, %d labels", ErrDimensionMismatch, len(x), len(y))
	}
	d := len(x[0])
	if d == 0 {
		return nil, fmt.Errorf("%w: zero features", ErrDimensionMismatch)
	}

	var pos int
	for i, row := range x {
		if len(row) != d {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrDimensionMismatch, i, len(row), d)
		}
		switch y[i] {
		case 1:
			pos++
		case 0:
		default:
			return nil, fmt.Errorf("label %d at row %d: must be 0 or 1", y[i], i)
		}
	}
	neg := len(y) - pos
	if pos == 0 || neg == 0 {
		return nil, ErrSingleClass
	}

	if opts.MaxIter <= 0 {
		opts.MaxIter = DefaultFitOptions().MaxIter
	}
	if opts.Tol <= 0 {
		opts.Tol = DefaultFitOptions().Tol
	}
	if opts.L2 < 0 {
		return nil, fmt.Errorf("l2 must be >= 0, got %f", opts.L2)
	}

	sw := sampleWeights(y, pos, neg, opts.Balanced)

	// theta[0:d] are the weights, theta[d] the intercept.
	p := d + 1
	theta := make([]float64, p)
	xi := make([]float64, p)

	iter := 0
	for iter < opts.MaxIter {
		iter++
		grad := make([]float64, p)
		hess := make([]float64, p*p)

		for n, row := range x {
			copy(xi, row)
			xi[d] = 1
			mu := sigmoid(floats.Dot(theta, xi))
			floats.AddScaled(grad, sw[n]*(mu-float64(y[n])), xi)
			h := sw[n] * mu * (1 - mu)
			for j := 0; j < p; j++ {
				floats.AddScaled(hess[j*p:(j+1)*p], h*xi[j], xi)
			}
		}
		for j := 0; j < d; j++ {
			grad[j] += opts.L2 * theta[j]
			hess[j*p+j] += opts.L2
		}

		step, err := newtonStep(hess, grad, p)
		if err != nil {
			return nil, fmt.Errorf("newton step %d: %w", iter, err)
		}
		floats.Sub(theta, step)
		if floats.Norm(step, math.Inf(1)) < opts.Tol {
			break
		}
	}

	m := &Model{
		Weights:      append([]float64(nil), theta[:d]...),
		Intercept:    theta[d],
		FeatureCount: d,
		Source:       opts.Source,
		Iterations:   iter,
		TrainedAt:    time.Now().UTC(),
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("fit diverged: %w", err)
	}
	return m, nil
}

func sampleWeights(y []int, pos, neg int, balanced bool) []float64 {
	w := make([]float64, len(y))
	n := float64(len(y))
	for i, label := range y {
		switch {
		case !balanced:
			w[i] = 1
		case label == 1:
			w[i] = n / (2 * float64(pos))
		default:
			w[i] = n / (2 * float64(neg))
		}
	}
	return w
}

// ErrSingularHessian means the Newton system has no unique solution, which
// happens with l2 = 0 on degenerate features.
var ErrSingularHessian = errors.New("hessian is not positive definite")

// newtonStep solves hess·step = grad. hess is the p×p row-major Hessian of the
// penalized log-loss and must be symmetric positive definite.
func newtonStep(hess, grad []float64, p int) ([]float64, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(mat.NewSymDense(p, hess)); !ok {
		return nil, ErrSingularHessian
	}
	var step mat.VecDense
	if err := chol.SolveVecTo(&step, mat.NewVecDense(p, grad)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSingularHessian, err)
	}
	return step.RawVector().Data, nil
}
