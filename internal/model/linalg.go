package model

import (
	"fmt"
	"math"
)

// solveLinearSystem solves Ax = b by Gaussian elimination with partial
// pivoting. A is destroyed. The ridge normal equations are symmetric positive
// definite for lambda > 0, so the pivot never degenerates in practice.
func solveLinearSystem(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	for i := range a {
		if len(a[i]) != n {
			return nil, fmt.Errorf("matrix is not square")
		}
	}
	if len(b) != n {
		return nil, fmt.Errorf("dimension mismatch: %d equations, %d unknowns", len(b), n)
	}

	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("singular system at column %d", col)
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for row := col + 1; row < n; row++ {
			factor := a[row][col] / a[col][col]
			for k := col; k < n; k++ {
				a[row][k] -= factor * a[col][k]
			}
			b[row] -= factor * b[col]
		}
	}

	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := b[row]
		for k := row + 1; k < n; k++ {
			sum -= a[row][k] * x[k]
		}
		x[row] = sum / a[row][row]
	}
	return x, nil
}

// ridgeSolve fits y = intercept + X*beta with an L2 penalty on beta.
// Features are standardized internally; the returned coefficients are on the
// raw feature scale and the intercept absorbs the centering.
func ridgeSolve(x [][]float64, y []float64, lambda float64) ([]float64, float64, error) {
	n := len(x)
	if n == 0 {
		return nil, 0, fmt.Errorf("empty design matrix")
	}
	d := len(x[0])

	means := make([]float64, d)
	stds := make([]float64, d)
	for j := 0; j < d; j++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += x[i][j]
		}
		means[j] = sum / float64(n)
		variance := 0.0
		for i := 0; i < n; i++ {
			diff := x[i][j] - means[j]
			variance += diff * diff
		}
		stds[j] = math.Sqrt(variance / float64(n))
		if stds[j] < 1e-9 {
			stds[j] = 1 // constant column: leave centered values at zero
		}
	}

	yMean := 0.0
	for _, v := range y {
		yMean += v
	}
	yMean /= float64(n)

	// Normal equations on standardized, centered data: (Z'Z + lambda*I) beta = Z'y.
	gram := make([][]float64, d)
	for j := range gram {
		gram[j] = make([]float64, d)
	}
	rhs := make([]float64, d)
	for i := 0; i < n; i++ {
		row := make([]float64, d)
		for j := 0; j < d; j++ {
			row[j] = (x[i][j] - means[j]) / stds[j]
		}
		centered := y[i] - yMean
		for j := 0; j < d; j++ {
			rhs[j] += row[j] * centered
			for k := j; k < d; k++ {
				gram[j][k] += row[j] * row[k]
			}
		}
	}
	for j := 0; j < d; j++ {
		for k := 0; k < j; k++ {
			gram[j][k] = gram[k][j]
		}
		gram[j][j] += lambda
	}

	betaStd, err := solveLinearSystem(gram, rhs)
	if err != nil {
		return nil, 0, fmt.Errorf("ridge solve failed: %w", err)
	}

	beta := make([]float64, d)
	intercept := yMean
	for j := 0; j < d; j++ {
		beta[j] = betaStd[j] / stds[j]
		intercept -= beta[j] * means[j]
	}
	return beta, intercept, nil
}

func dot(beta []float64, x []float64, intercept float64) float64 {
	sum := intercept
	for j := range beta {
		sum += beta[j] * x[j]
	}
	return sum
}
