package motionplan

import (
	"go.uber.org/atomic"

	"go.viam.com/planctx/referenceframe"
)

type node struct {
	name   int64
	inputs []referenceframe.Input
}

var nodeNameCounter atomic.Int64

func newConfigurationNode(q []referenceframe.Input) *node {
	return &node{
		name:   nodeNameCounter.Inc(),
		inputs: q,
	}
}

// rrtMap maps every node of a tree to its parent. Roots map to nil.
type rrtMap map[*node]*node

// nodePair groups together nodes in a tuple.
type nodePair struct{ a, b *node }

// extractPath returns the states from the root of startMap through the pair to the root of goalMap.
// When matched, both nodes of the pair hold the same state and it is only included once.
func extractPath(startMap, goalMap rrtMap, pair *nodePair, matched bool) [][]referenceframe.Input {
	// need to figure out which of the two nodes is in the start map
	var startReached, goalReached *node
	if _, ok := startMap[pair.a]; ok {
		startReached, goalReached = pair.a, pair.b
	} else {
		startReached, goalReached = pair.b, pair.a
	}

	// extract the path to the seed
	path := [][]referenceframe.Input{}
	for startReached != nil {
		path = append(path, startReached.inputs)
		startReached = startMap[startReached]
	}

	// reverse the slice
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	if goalReached != nil {
		if matched {
			// skip goalReached node and go directly to its parent in order to not repeat this node
			goalReached = goalMap[goalReached]
		}

		// extract the path to the goal
		for goalReached != nil {
			path = append(path, goalReached.inputs)
			goalReached = goalMap[goalReached]
		}
	}

	return path
}

// pathToRoot returns the states from the root of the tree to n.
func pathToRoot(tree rrtMap, n *node) [][]referenceframe.Input {
	return extractPath(tree, nil, &nodePair{n, nil}, false)
}
