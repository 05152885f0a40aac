// Package distribution implements the two loss-distribution families a
// leaf may carry: lognormal fitted from a 90% confidence interval, and
// an expert Metalog quantile function fitted from matched
// (percentile, quantile) pairs. Both are sampled by evaluating an
// inverse CDF at a uniform variate drawn from the PRNG.
package distribution

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	riskerrors "github.com/riskforge/lossengine/internal/errors"
)

// ciLower and ciUpper are the percentiles minLoss/maxLoss are interpreted
// as under the fixed 90% confidence interval convention.
const (
	ciLower = 0.05
	ciUpper = 0.95
)

// Sampler is satisfied by any fitted distribution capable of evaluating
// its inverse CDF at a uniform variate. Both Lognormal and Metalog
// implement it.
type Sampler interface {
	Sample(u float64) int64
}

// stdNormal is shared across every Quantile call: Normal.Quantile depends
// only on Mu/Sigma, which are passed explicitly, so one zero-valued
// standard normal is reused rather than constructing one per call.
var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// Lognormal is a loss distribution fitted so that minLoss and maxLoss
// land on the 5th and 95th percentiles of the underlying lognormal.
type Lognormal struct {
	mu    float64
	sigma float64
}

// NewLognormal fits the underlying normal's (mu, sigma) from the given
// 90% confidence interval. Returns INVALID_LOGNORMAL_PARAMS when
// minLoss >= maxLoss.
func NewLognormal(minLoss, maxLoss int64) (Lognormal, error) {
	if minLoss >= maxLoss {
		return Lognormal{}, riskerrors.Newf(riskerrors.INVALID_LOGNORMAL_PARAMS,
			"minLoss (%d) must be strictly less than maxLoss (%d)", minLoss, maxLoss)
	}
	if minLoss <= 0 {
		return Lognormal{}, riskerrors.New(riskerrors.INVALID_LOGNORMAL_PARAMS,
			"minLoss must be positive for a lognormal fit")
	}

	lnMin := math.Log(float64(minLoss))
	lnMax := math.Log(float64(maxLoss))

	zLower := stdNormal.Quantile(ciLower)
	zUpper := stdNormal.Quantile(ciUpper)

	sigma := (lnMax - lnMin) / (zUpper - zLower)
	mu := lnMin - sigma*zLower

	return Lognormal{mu: mu, sigma: sigma}, nil
}

// Sample evaluates the fitted lognormal's inverse CDF at u, truncating
// toward zero to land on a whole currency unit. u must come from the
// loss stream of the HDR generator.
func (l Lognormal) Sample(u float64) int64 {
	z := stdNormal.Quantile(u)
	loss := math.Exp(l.mu + l.sigma*z)
	return int64(math.Floor(loss))
}

// Mu and Sigma expose the fitted underlying-normal parameters, mainly
// for provenance records and tests.
func (l Lognormal) Mu() float64    { return l.mu }
func (l Lognormal) Sigma() float64 { return l.sigma }

// metalogMinTerms and metalogMaxTerms bound the number of coefficients a
// Metalog fit may use.
const (
	metalogMinTerms = 3
	metalogMaxTerms = 16
	defaultTerms    = 9
)

// Metalog is a quantile-parameterized loss distribution fitted via
// ordinary least squares to a set of (percentile, quantile) anchor
// points, following Keelin's metalog family.
type Metalog struct {
	coefficients []float64
}

// NewMetalog fits a Metalog quantile function with the given number of
// terms to the provided percentile/quantile pairs. percentiles must be
// strictly within (0,1), quantiles non-negative, and both slices the
// same non-zero length. terms defaults to 9 when 0 is passed and must
// otherwise lie in [3,16] and not exceed the number of anchor points.
func NewMetalog(percentiles []float64, quantiles []int64, terms int) (Metalog, error) {
	if terms == 0 {
		terms = defaultTerms
	}
	if terms < metalogMinTerms || terms > metalogMaxTerms {
		return Metalog{}, riskerrors.Newf(riskerrors.INVALID_DISTRIBUTION,
			"metalog terms must be in [%d,%d], got %d", metalogMinTerms, metalogMaxTerms, terms)
	}
	if len(percentiles) != len(quantiles) || len(percentiles) == 0 {
		return Metalog{}, riskerrors.New(riskerrors.INVALID_DISTRIBUTION,
			"percentiles and quantiles must be equal-length and non-empty")
	}
	if len(percentiles) < terms {
		return Metalog{}, riskerrors.Newf(riskerrors.INVALID_DISTRIBUTION,
			"need at least %d anchor points to fit %d terms, got %d", terms, terms, len(percentiles))
	}
	for _, p := range percentiles {
		if p <= 0 || p >= 1 {
			return Metalog{}, riskerrors.Newf(riskerrors.INVALID_DISTRIBUTION,
				"percentile %v out of (0,1)", p)
		}
	}
	for _, q := range quantiles {
		if q < 0 {
			return Metalog{}, riskerrors.New(riskerrors.INVALID_DISTRIBUTION,
				"quantiles must be non-negative")
		}
	}

	n := len(percentiles)
	basis := mat.NewDense(n, terms, nil)
	y := mat.NewVecDense(n, nil)
	for i, p := range percentiles {
		row := metalogBasisRow(p, terms)
		basis.SetRow(i, row)
		y.SetVec(i, float64(quantiles[i]))
	}

	var coeffs mat.VecDense
	if err := coeffs.SolveVec(basis, y); err != nil {
		return Metalog{}, riskerrors.Wrap(err, "metalog least-squares fit failed")
	}

	out := make([]float64, terms)
	for i := 0; i < terms; i++ {
		out[i] = coeffs.AtVec(i)
	}
	return Metalog{coefficients: out}, nil
}

// metalogBasisRow computes the basis function values y_1..y_terms for
// percentile p in Keelin's metalog expansion, using logit(p)=ln(p/(1-p))
// as the driving transform.
func metalogBasisRow(p float64, terms int) []float64 {
	logit := math.Log(p / (1 - p))
	row := make([]float64, terms)
	if terms >= 1 {
		row[0] = 1
	}
	if terms >= 2 {
		row[1] = logit
	}
	if terms >= 3 {
		row[2] = (p - 0.5) * logit
	}
	if terms >= 4 {
		row[3] = p - 0.5
	}
	for k := 5; k <= terms; k++ {
		switch {
		case k%2 == 1:
			exp := (k - 1) / 2
			row[k-1] = math.Pow(p-0.5, float64(exp))
		default:
			exp := k/2 - 1
			row[k-1] = math.Pow(p-0.5, float64(exp)) * logit
		}
	}
	return row
}

// Sample evaluates the fitted Metalog quantile function at u, which must
// be strictly within (0,1).
func (m Metalog) Sample(u float64) int64 {
	row := metalogBasisRow(u, len(m.coefficients))
	var v float64
	for i, c := range m.coefficients {
		v += c * row[i]
	}
	if v < 0 {
		v = 0
	}
	return int64(math.Floor(v))
}

// Terms returns the number of fitted coefficients.
func (m Metalog) Terms() int { return len(m.coefficients) }
