package topology

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

const (
	sheMaxIterations = 100
	sheTolerance     = 1e-10
)

// sheHarmonics lists the fundamental followed by the cells-1 lowest
// non-triplen odd harmonics, the ones a balanced system does not cancel.
func sheHarmonics(cells int) []float64 {
	hs := []float64{1}
	for h := 5; len(hs) < cells; h += 2 {
		if h%3 != 0 {
			hs = append(hs, float64(h))
		}
	}
	return hs
}

// nearestLevelAngles are the switching angles at which rounding the reference
// changes level. They seed the solver.
func nearestLevelAngles(cells int, peak float64) []float64 {
	angles := make([]float64, cells)
	for j := range angles {
		s := (float64(j) + 0.5) / (float64(cells) * peak)
		angles[j] = math.Asin(math.Min(s, 1))
	}
	return angles
}

// solveSHE returns quarter-wave switching angles for a staircase of cells
// steps per half-wave whose fundamental is peak (relative to Vdc) and whose
// lowest cells-1 non-triplen harmonics vanish. ok is false when Newton's
// method does not reach a valid, ordered solution.
func solveSHE(cells int, peak float64) (angles []float64, ok bool) {
	target := math.Pi * float64(cells) * peak / 4
	if cells < 1 || target <= 0 || target >= float64(cells) {
		return nil, false
	}

	hs := sheHarmonics(cells)
	th := nearestLevelAngles(cells, peak)
	for i := range th {
		th[i] = math.Min(th[i], math.Pi/2-1e-3)
	}

	f := mat.NewVecDense(cells, nil)
	jac := mat.NewDense(cells, cells, nil)
	var d mat.VecDense

	converged := false
	for it := 0; it < sheMaxIterations; it++ {
		worst := 0.0
		for i, h := range hs {
			var sum float64
			for j, t := range th {
				sum += math.Cos(h * t)
				jac.Set(i, j, -h*math.Sin(h*t))
			}
			if i == 0 {
				sum -= target
			}
			f.SetVec(i, -sum)
			worst = math.Max(worst, math.Abs(sum))
		}
		if worst < sheTolerance {
			converged = true
			break
		}
		if err := d.SolveVec(jac, f); err != nil {
			return nil, false
		}
		for j := range th {
			th[j] += d.AtVec(j)
		}
	}
	if !converged {
		return nil, false
	}

	sort.Float64s(th)
	for _, t := range th {
		if t <= 0 || t >= math.Pi/2 {
			return nil, false
		}
	}
	return th, true
}

// sheAngles caches solved angles per reference peak. It returns nil when no
// solution exists, and the caller falls back to nearest level.
func (m *Multilevel) sheAngles(cells int, peak float64) []float64 {
	key := math.Round(peak * 1e6)
	if a, ok := m.she[key]; ok {
		return a
	}
	a, _ := solveSHE(cells, peak)
	if m.she == nil {
		m.she = make(map[float64][]float64)
	}
	m.she[key] = a
	return a
}

// selectiveHarmonic maps a reference sample to a level of a staircase
// switching at the given angles. The reference is assumed sinusoidal with the
// given peak.
func selectiveHarmonic(r, peak float64, angles []float64) int {
	cells := len(angles)
	on := 0
	for _, a := range angles {
		if math.Abs(r) >= peak*math.Sin(a) {
			on++
		}
	}
	if r < 0 {
		return cells - on
	}
	return cells + on
}
