package indicators

import "math"

// Describe holds the descriptive statistics of one numeric column
type Describe struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// SeriesSummary is the describe block of one indicator, one entry per year column
type SeriesSummary struct {
	Series string              `json:"series"`
	Years  []string            `json:"years"`
	Stats  map[string]Describe `json:"stats"`
}

// CorrelationMatrix is a square Pearson matrix over indicator names.
// Missing entries are NaN; N holds the number of paired observations and P the
// two-sided p-value of each coefficient.
type CorrelationMatrix struct {
	Labels []string    `json:"labels"`
	R      [][]float64 `json:"r"`
	N      [][]int     `json:"n"`
	P      [][]float64 `json:"p"`
}

// NewCorrelationMatrix allocates an all-missing matrix for the given labels
func NewCorrelationMatrix(labels []string) *CorrelationMatrix {
	k := len(labels)
	m := &CorrelationMatrix{
		Labels: append([]string(nil), labels...),
		R:      make([][]float64, k),
		N:      make([][]int, k),
		P:      make([][]float64, k),
	}
	for i := 0; i < k; i++ {
		m.R[i] = make([]float64, k)
		m.N[i] = make([]int, k)
		m.P[i] = make([]float64, k)
		for j := 0; j < k; j++ {
			m.R[i][j] = math.NaN()
			m.P[i][j] = math.NaN()
		}
	}
	return m
}

// Size returns the number of indicators
func (m *CorrelationMatrix) Size() int {
	return len(m.Labels)
}

// At returns the coefficient at (i, j) and whether it is defined
func (m *CorrelationMatrix) At(i, j int) (float64, bool) {
	r := m.R[i][j]
	return r, !math.IsNaN(r)
}

// Lookup returns the coefficient between two indicator names
func (m *CorrelationMatrix) Lookup(a, b string) (float64, bool) {
	i, j := m.indexOf(a), m.indexOf(b)
	if i < 0 || j < 0 {
		return math.NaN(), false
	}
	return m.At(i, j)
}

func (m *CorrelationMatrix) indexOf(label string) int {
	for i, l := range m.Labels {
		if l == label {
			return i
		}
	}
	return -1
}
