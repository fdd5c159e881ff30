package motionplan

import (
	"context"
	"math"
	"runtime"
	"sync"

	"go.viam.com/utils"

	"go.viam.com/planctx/referenceframe"
)

const neighborsBeforeParallelization = 1000

type distanceFunc func(a, b []referenceframe.Input) float64

type neighborManager struct {
	nCPU     int
	distance distanceFunc
}

type neighbor struct {
	dist float64
	node *node
}

func newNeighborManager(distance distanceFunc) *neighborManager {
	nCPU := runtime.NumCPU() / 4
	if nCPU < 1 {
		nCPU = 1
	}
	return &neighborManager{nCPU: nCPU, distance: distance}
}

func (nm *neighborManager) nearestNeighbor(
	ctx context.Context,
	seed []referenceframe.Input,
	tree rrtMap,
) *node {
	if len(tree) > neighborsBeforeParallelization && nm.nCPU > 1 {
		// If the map is large, calculate distances in parallel
		return nm.parallelNearestNeighbor(ctx, seed, tree)
	}
	bestDist := math.Inf(1)
	var best *node
	for k := range tree {
		dist := nm.distance(seed, k.inputs)
		if dist < bestDist {
			bestDist = dist
			best = k
		}
	}
	return best
}

func (nm *neighborManager) parallelNearestNeighbor(
	ctx context.Context,
	seed []referenceframe.Input,
	tree rrtMap,
) *node {
	keys := make([]*node, 0, len(tree))
	for k := range tree {
		keys = append(keys, k)
	}
	results := make([]neighbor, nm.nCPU)
	chunk := (len(keys) + nm.nCPU - 1) / nm.nCPU

	var wg sync.WaitGroup
	for w := 0; w < nm.nCPU; w++ {
		lo, hi := w*chunk, (w+1)*chunk
		if hi > len(keys) {
			hi = len(keys)
		}
		results[w] = neighbor{dist: math.Inf(1)}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		utils.PanicCapturingGo(func() {
			defer wg.Done()
			nm.nnWorker(ctx, seed, keys[lo:hi], &results[w])
		})
	}
	wg.Wait()

	var best *node
	bestDist := math.Inf(1)
	for _, nn := range results {
		if nn.node != nil && nn.dist < bestDist {
			bestDist = nn.dist
			best = nn.node
		}
	}
	return best
}

func (nm *neighborManager) nnWorker(ctx context.Context, seed []referenceframe.Input, keys []*node, out *neighbor) {
	for i, k := range keys {
		if i%100 == 0 && ctx.Err() != nil {
			return
		}
		if dist := nm.distance(seed, k.inputs); dist < out.dist {
			out.dist = dist
			out.node = k
		}
	}
}
