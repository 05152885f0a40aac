// Package risktree models the risk-tree data model: leaves and
// portfolios as a tagged union, and the tree that owns them together
// with its derived index.
package risktree

import (
	"github.com/riskforge/lossengine/internal/distribution"
	riskerrors "github.com/riskforge/lossengine/internal/errors"
	"github.com/riskforge/lossengine/internal/types"
)

// DistributionKind discriminates the two supported loss distribution
// families. Distribution is a tagged union over this field; callers
// switch on Kind() rather than type-asserting.
type DistributionKind int

const (
	// KindLognormal fits from a 90% confidence interval.
	KindLognormal DistributionKind = iota + 1
	// KindExpert fits a Metalog quantile function from matched
	// (percentile, quantile) pairs.
	KindExpert
)

// Distribution is a leaf's occurrence probability plus its fitted loss
// sampler. Lognormal and Expert populate mutually exclusive raw-param
// fields; Sample always delegates to the fitted distribution.Sampler.
type Distribution struct {
	kind        DistributionKind
	probability types.Probability

	minLoss int64
	maxLoss int64

	percentiles []float64
	quantiles   []int64
	terms       int

	sampler distribution.Sampler
}

// Kind reports which distribution family this is.
func (d Distribution) Kind() DistributionKind { return d.kind }

// Probability returns the leaf's occurrence probability.
func (d Distribution) Probability() types.Probability { return d.probability }

// MinMax returns the lognormal confidence-interval bounds. Only
// meaningful when Kind() == KindLognormal.
func (d Distribution) MinMax() (min, max int64) { return d.minLoss, d.maxLoss }

// ExpertParams returns the Metalog anchor points and term count. Only
// meaningful when Kind() == KindExpert.
func (d Distribution) ExpertParams() (percentiles []float64, quantiles []int64, terms int) {
	return d.percentiles, d.quantiles, d.terms
}

// Sample draws a loss for uniform variate u by delegating to the fitted
// distribution.
func (d Distribution) Sample(u float64) int64 {
	return d.sampler.Sample(u)
}

// NewLognormalDistribution validates p and the confidence-interval
// bounds and fits the underlying lognormal.
func NewLognormalDistribution(p types.Probability, minLoss, maxLoss int64) (Distribution, error) {
	ln, err := distribution.NewLognormal(minLoss, maxLoss)
	if err != nil {
		return Distribution{}, err
	}
	return Distribution{
		kind:        KindLognormal,
		probability: p,
		minLoss:     minLoss,
		maxLoss:     maxLoss,
		sampler:     ln,
	}, nil
}

// NewExpertDistribution validates p and the Metalog anchor points and
// fits the quantile function.
func NewExpertDistribution(p types.Probability, percentiles []float64, quantiles []int64, terms int) (Distribution, error) {
	ml, err := distribution.NewMetalog(percentiles, quantiles, terms)
	if err != nil {
		return Distribution{}, err
	}
	return Distribution{
		kind:        KindExpert,
		probability: p,
		percentiles: append([]float64{}, percentiles...),
		quantiles:   append([]int64{}, quantiles...),
		terms:       ml.Terms(),
		sampler:     ml,
	}, nil
}

// distributionTypeName renders the kind as the wire-level string the
// validator accepts ("lognormal" | "expert").
func distributionTypeName(kind DistributionKind) string {
	switch kind {
	case KindLognormal:
		return "lognormal"
	case KindExpert:
		return "expert"
	default:
		return ""
	}
}

// ParseDistributionKind maps a wire-level distribution type string to
// its DistributionKind, or UNSUPPORTED_DISTRIBUTION_TYPE.
func ParseDistributionKind(s string) (DistributionKind, error) {
	switch s {
	case "lognormal":
		return KindLognormal, nil
	case "expert":
		return KindExpert, nil
	default:
		return 0, riskerrors.Newf(riskerrors.UNSUPPORTED_DISTRIBUTION_TYPE, "unsupported distribution type %q", s)
	}
}
