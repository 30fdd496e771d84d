// Package forecast fits a seasonal autoregressive model to a monthly
// series and produces out-of-sample point forecasts.
//
// The model is SARIMA(p,d,0)(P,D,0,s) without a trend term. Coefficients
// are estimated by conditional sum of squares. Stationarity of both AR
// polynomials is enforced through a partial-autocorrelation
// reparameterization; there is no MA component, so no invertibility
// constraint applies.
package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

var (
	ErrInsufficientHistory = errors.New("insufficient history")
	ErrUnsupportedOrder    = errors.New("unsupported model order")
)

// Order is the (p,d,q)(P,D,Q,s) specification.
type Order struct {
	P, D, Q    int
	SP, SD, SQ int
	S          int
}

// DefaultOrder is SARIMA(2,1,0)(1,0,0,12).
var DefaultOrder = Order{P: 2, D: 1, Q: 0, SP: 1, SD: 0, SQ: 0, S: 12}

func (o Order) String() string {
	return fmt.Sprintf("SARIMA(%d,%d,%d)(%d,%d,%d,%d)", o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.S)
}

// MinObservations is the shortest series the order can be fit on: enough
// to difference, fill every AR lag and leave one residual.
func (o Order) MinObservations() int {
	return o.D + o.SD*o.S + o.P + o.SP*o.S + 1
}

func (o Order) validate() error {
	if o.Q != 0 || o.SQ != 0 {
		return fmt.Errorf("%w: moving-average terms are not supported", ErrUnsupportedOrder)
	}
	if o.P < 0 || o.D < 0 || o.SP < 0 || o.SD < 0 {
		return fmt.Errorf("%w: negative order", ErrUnsupportedOrder)
	}
	if (o.SP > 0 || o.SD > 0) && o.S < 2 {
		return fmt.Errorf("%w: seasonal period must be at least 2", ErrUnsupportedOrder)
	}
	return nil
}

// lags lists the differencing steps in application order.
func (o Order) lags() []int {
	lags := make([]int, 0, o.SD+o.D)
	for range o.SD {
		lags = append(lags, o.S)
	}
	for range o.D {
		lags = append(lags, 1)
	}
	return lags
}

type Model struct {
	order  Order
	ar     []float64
	sar    []float64
	coef   []float64 // coef[k-1] multiplies w[t-k] in the expanded AR polynomial
	stages [][]float64
	sigma2 float64
}

func (m *Model) Order() Order          { return m.order }
func (m *Model) AR() []float64         { return append([]float64(nil), m.ar...) }
func (m *Model) SeasonalAR() []float64 { return append([]float64(nil), m.sar...) }
func (m *Model) Sigma2() float64       { return m.sigma2 }

// Fit estimates the model on series, oldest value first.
func Fit(series []float64, order Order) (*Model, error) {
	if err := order.validate(); err != nil {
		return nil, err
	}
	if len(series) < order.MinObservations() {
		return nil, fmt.Errorf("%w: %s needs %d observations, got %d",
			ErrInsufficientHistory, order, order.MinObservations(), len(series))
	}
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("non-finite observation at index %d", i)
		}
	}

	stages := [][]float64{append([]float64(nil), series...)}
	for _, lag := range order.lags() {
		stages = append(stages, difference(stages[len(stages)-1], lag))
	}
	w := stages[len(stages)-1]

	m := &Model{order: order, stages: stages}
	maxLag := order.P + order.SP*order.S

	nparams := order.P + order.SP
	if nparams == 0 {
		m.coef = nil
		m.sigma2 = css(w, nil, 0) / float64(len(w))
		return m, nil
	}

	objective := func(x []float64) float64 {
		ar := constrain(x[:order.P])
		sar := constrain(x[order.P:])
		v := css(w, expand(ar, sar, order.S), maxLag)
		if math.IsNaN(v) {
			return math.Inf(1)
		}
		return v
	}

	x0 := startingValues(w, order)
	settings := &optimize.Settings{
		FuncEvaluations: 20000,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Relative:   1e-12,
			Iterations: 200,
		},
	}
	res, err := optimize.Minimize(optimize.Problem{Func: objective}, x0, settings, &optimize.NelderMead{})
	if res == nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}

	m.ar = constrain(res.X[:order.P])
	m.sar = constrain(res.X[order.P:])
	m.coef = expand(m.ar, m.sar, order.S)
	m.sigma2 = css(w, m.coef, maxLag) / float64(len(w)-maxLag)
	return m, nil
}

// Predict returns point forecasts for the h periods after the training
// range, on the original (undifferenced) scale.
func (m *Model) Predict(h int) []float64 {
	if h <= 0 {
		return nil
	}

	w := m.stages[len(m.stages)-1]
	ext := make([]float64, len(w), len(w)+h)
	copy(ext, w)
	for range h {
		t := len(ext)
		var v float64
		for k, c := range m.coef {
			if t-k-1 >= 0 {
				v += c * ext[t-k-1]
			}
		}
		ext = append(ext, v)
	}

	// Undo differencing stage by stage.
	lags := m.order.lags()
	next := ext
	for k := len(lags) - 1; k >= 0; k-- {
		lag := lags[k]
		base := m.stages[k]
		n := len(base)
		level := make([]float64, n, n+h)
		copy(level, base)
		for i := range h {
			j := n + i - lag
			level = append(level, level[j]+next[j])
		}
		next = level
	}

	return append([]float64(nil), next[len(next)-h:]...)
}

func difference(x []float64, lag int) []float64 {
	if len(x) <= lag {
		return nil
	}
	out := make([]float64, len(x)-lag)
	for i := range out {
		out[i] = x[i+lag] - x[i]
	}
	return out
}

// expand multiplies (1 - Σ ar_i L^i)(1 - Σ sar_j L^(j·s)) and returns the
// coefficients c_k of y_t = Σ c_k y_{t-k}.
func expand(ar, sar []float64, s int) []float64 {
	a := make([]float64, len(ar)+1)
	a[0] = 1
	for i, v := range ar {
		a[i+1] = -v
	}
	b := make([]float64, len(sar)*s+1)
	b[0] = 1
	for j, v := range sar {
		b[(j+1)*s] = -v
	}

	prod := make([]float64, len(a)+len(b)-1)
	for i, x := range a {
		if x == 0 {
			continue
		}
		for j, y := range b {
			prod[i+j] += x * y
		}
	}

	coef := make([]float64, len(prod)-1)
	for k := 1; k < len(prod); k++ {
		coef[k-1] = -prod[k]
	}
	return coef
}

// css is the conditional sum of squared one-step errors from maxLag on.
func css(w, coef []float64, maxLag int) float64 {
	var sum float64
	for t := maxLag; t < len(w); t++ {
		e := w[t]
		for k, c := range coef {
			e -= c * w[t-k-1]
		}
		sum += e * e
	}
	return sum
}

// pacfBound keeps partial autocorrelations off the unit circle. Far out
// in the unconstrained space u/hypot(1,u) rounds to exactly ±1.
const pacfBound = 1 - 1e-6

// constrain maps unconstrained values to the coefficients of a stationary
// AR polynomial: each value becomes a partial autocorrelation in (-1, 1)
// and Durbin-Levinson turns those into coefficients.
func constrain(u []float64) []float64 {
	p := len(u)
	phi := make([]float64, p)
	tmp := make([]float64, p)
	for k := range p {
		r := u[k] / math.Hypot(1, u[k])
		r = math.Max(-pacfBound, math.Min(pacfBound, r))
		for j := range k {
			tmp[j] = phi[j] - r*phi[k-1-j]
		}
		copy(phi[:k], tmp[:k])
		phi[k] = r
	}
	return phi
}

// unconstrain is the inverse of constrain. Partial autocorrelations are
// clamped inside the unit interval so any start maps somewhere valid.
func unconstrain(phi []float64) []float64 {
	const limit = 0.99
	p := len(phi)
	a := append([]float64(nil), phi...)
	u := make([]float64, p)
	tmp := make([]float64, p)
	for k := p - 1; k >= 0; k-- {
		r := math.Max(-limit, math.Min(limit, a[k]))
		u[k] = r / math.Sqrt(1-r*r)
		denom := 1 - r*r
		for j := range k {
			tmp[j] = (a[j] + r*a[k-1-j]) / denom
		}
		copy(a[:k], tmp[:k])
	}
	return u
}

// startingValues regresses w_t on its non-seasonal and seasonal lags and
// maps the least-squares estimates into the unconstrained space. A
// degenerate regression starts from zero.
func startingValues(w []float64, o Order) []float64 {
	x0 := make([]float64, o.P+o.SP)

	cols := o.P + o.SP
	maxLag := max(o.P, o.SP*o.S)
	rows := len(w) - maxLag
	if rows <= cols {
		return x0
	}

	X := mat.NewDense(rows, cols, nil)
	y := mat.NewVecDense(rows, nil)
	for i := range rows {
		t := i + maxLag
		y.SetVec(i, w[t])
		for k := range o.P {
			X.Set(i, k, w[t-k-1])
		}
		for j := range o.SP {
			X.Set(i, o.P+j, w[t-(j+1)*o.S])
		}
	}

	var beta mat.VecDense
	if err := beta.SolveVec(X, y); err != nil {
		return x0
	}

	est := make([]float64, cols)
	for i := range est {
		est[i] = beta.AtVec(i)
		if math.IsNaN(est[i]) || math.IsInf(est[i], 0) {
			return x0
		}
	}
	copy(x0[:o.P], unconstrain(est[:o.P]))
	copy(x0[o.P:], unconstrain(est[o.P:]))
	return x0
}
