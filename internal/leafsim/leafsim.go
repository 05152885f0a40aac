// Package leafsim draws per-trial occurrence and loss samples for a
// single leaf, fanning trial computation out across worker goroutines.
// Because the underlying PRNG is counter-keyed, results are independent
// of how trials are partitioned across workers.
package leafsim

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/riskforge/lossengine/internal/distribution"
	"github.com/riskforge/lossengine/internal/outcome"
	"github.com/riskforge/lossengine/internal/prng"
	"github.com/riskforge/lossengine/internal/types"
)

// Params bundles the stream identity and simulation knobs a leaf
// simulation needs. Occurrence/loss var ids are derived from the leaf's
// nodeId by internal/hash before this package is invoked.
type Params struct {
	EntityID    uint64
	OccVarID    uint64
	LossVarID   uint64
	Seed3       uint64
	Seed4       uint64
	Probability float64
	Distribution distribution.Sampler
	NTrials     int
	Parallelism int
}

// chunkSize is the number of trials each worker claims per batch; keeps
// goroutines busy without creating one task per trial for large nTrials.
const chunkSize = 256

// Simulate runs nTrials independent occurrence/loss draws for a leaf and
// returns the sparse outcome map. For trial i: draw u_occ from the
// occurrence stream; if u_occ < p, draw u_loss from the loss stream and
// sample the distribution; store (i, loss) only if loss > 0. Cooperative
// with ctx cancellation between chunks.
func Simulate(ctx context.Context, p Params) (outcome.Map, error) {
	parallelism := p.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}

	results := make([]map[int]types.Loss, (p.NTrials+chunkSize-1)/chunkSize)
	for i := range results {
		results[i] = make(map[int]types.Loss)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for chunkIdx := 0; chunkIdx*chunkSize < p.NTrials; chunkIdx++ {
		chunkIdx := chunkIdx
		start := chunkIdx * chunkSize
		end := start + chunkSize
		if end > p.NTrials {
			end = p.NTrials
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			chunk := results[chunkIdx]
			for trial := start; trial < end; trial++ {
				uOcc := prng.Uniform(uint64(trial), p.EntityID, p.OccVarID, p.Seed3, p.Seed4)
				if uOcc >= p.Probability {
					continue
				}
				uLoss := prng.Uniform(uint64(trial), p.EntityID, p.LossVarID, p.Seed3, p.Seed4)
				lossValue := p.Distribution.Sample(uLoss)
				if lossValue <= 0 {
					continue
				}
				loss, err := types.NewLoss(lossValue)
				if err != nil {
					continue
				}
				chunk[trial] = loss
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return outcome.Map{}, err
	}

	merged := make(map[int]types.Loss)
	for _, chunk := range results {
		for trial, loss := range chunk {
			merged[trial] = loss
		}
	}
	return outcome.New(p.NTrials, merged), nil
}
