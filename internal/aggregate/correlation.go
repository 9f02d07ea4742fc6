package aggregate

import (
	"math"

	"wdiviz/domain/indicators"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// MinPairs is the number of paired observations a coefficient needs
const MinPairs = 2

// Correlate computes pairwise-complete Pearson coefficients between the pivot
// columns. The matrix follows the pivot's column order.
func Correlate(p *Pivot) *indicators.CorrelationMatrix {
	m := indicators.NewCorrelationMatrix(p.Columns)
	k := len(p.Columns)

	columns := make([][]indicators.Value, k)
	for j := range columns {
		columns[j] = p.Column(j)
	}

	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			x, y := pairwiseComplete(columns[i], columns[j])
			n := len(x)
			m.N[i][j], m.N[j][i] = n, n
			if n < MinPairs {
				continue
			}

			var r float64
			if i == j {
				r = 1
			} else {
				r = stat.Correlation(x, y, nil)
				if math.IsNaN(r) {
					// a constant column has no defined coefficient
					continue
				}
				r = math.Max(-1, math.Min(1, r))
			}
			pValue := correlationPValue(r, n)
			m.R[i][j], m.R[j][i] = r, r
			m.P[i][j], m.P[j][i] = pValue, pValue
		}
	}
	return m
}

func pairwiseComplete(a, b []indicators.Value) ([]float64, []float64) {
	x := make([]float64, 0, len(a))
	y := make([]float64, 0, len(a))
	for i := range a {
		if a[i].Valid && b[i].Valid {
			x = append(x, a[i].Float)
			y = append(y, b[i].Float)
		}
	}
	return x, y
}

// correlationPValue is the two-sided t-test of r against zero
func correlationPValue(r float64, n int) float64 {
	df := float64(n - 2)
	if df <= 0 {
		return math.NaN()
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	t := r * math.Sqrt(df/(1-r*r))
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * (1 - tDist.CDF(math.Abs(t)))
}
