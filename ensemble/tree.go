// Package ensemble provides tree ensemble classifiers for binary problems:
// a bagged random forest and a gradient boosting machine. Both share the same
// flat-node tree representation and the same estimator surface built on
// core/model.
package ensemble

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// NodeType represents the type of a tree node.
type NodeType int

const (
	// LeafNode is a terminal node carrying a value.
	LeafNode NodeType = iota
	// NumericalNode splits on a numeric threshold.
	NumericalNode
)

// Node is a single node in a decision tree. Trees are stored as flat node
// slices indexed by child IDs rather than as linked structs.
type Node struct {
	NodeID     int
	ParentID   int // -1 for root
	LeftChild  int // -1 if leaf
	RightChild int // -1 if leaf
	NodeType   NodeType

	// Split information (non-leaf nodes)
	SplitFeature int
	Threshold    float64
	Gain         float64 // impurity or loss reduction, scaled by node size

	// Leaf information
	LeafValue float64
	LeafCount int
}

// IsLeaf reports whether the node is terminal.
func (n *Node) IsLeaf() bool {
	return n.LeftChild == -1 && n.RightChild == -1
}

// Tree is a single decision tree. For forest trees the leaf value is the
// positive-class fraction of the training samples in the leaf; for boosting
// trees it is the additive score contribution, with ShrinkageRate applied at
// prediction time.
type Tree struct {
	TreeIndex     int
	NumLeaves     int
	MaxDepth      int
	ShrinkageRate float64
	Nodes         []Node
}

// Predict walks the tree for one sample.
func (t *Tree) Predict(features []float64) float64 {
	nodeID := 0
	for nodeID >= 0 && nodeID < len(t.Nodes) {
		node := &t.Nodes[nodeID]
		if node.IsLeaf() {
			return node.LeafValue * t.ShrinkageRate
		}
		if features[node.SplitFeature] <= node.Threshold {
			nodeID = node.LeftChild
		} else {
			nodeID = node.RightChild
		}
	}
	return 0
}

// accumulateGains adds each split's gain to its feature's slot.
func (t *Tree) accumulateGains(out []float64) {
	for i := range t.Nodes {
		if !t.Nodes[i].IsLeaf() {
			out[t.Nodes[i].SplitFeature] += t.Nodes[i].Gain
		}
	}
}

func (t *Tree) countLeaves() int {
	leaves := 0
	for i := range t.Nodes {
		if t.Nodes[i].IsLeaf() {
			leaves++
		}
	}
	return leaves
}

// treeConfig bounds the growth of a single tree.
type treeConfig struct {
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int     // candidate features per split; 0 means all
	lambda          float64 // L2 on leaf weights, boosting trees only
	minGain         float64
}

// splitInfo describes the best split found for a node.
type splitInfo struct {
	feature    int
	threshold  float64
	gain       float64
	leftCount  int
	rightCount int
}

// candidateFeatures returns the feature indices to scan at one split. With
// maxFeatures set it draws a random subset, otherwise all features.
func candidateFeatures(nFeatures int, cfg treeConfig, rng *rand.Rand) []int {
	if cfg.maxFeatures <= 0 || cfg.maxFeatures >= nFeatures {
		features := make([]int, nFeatures)
		for i := range features {
			features[i] = i
		}
		return features
	}

	perm := make([]int, nFeatures)
	for i := range perm {
		perm[i] = i
	}
	for i := 0; i < cfg.maxFeatures; i++ {
		j := i + rng.IntN(nFeatures-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm[:cfg.maxFeatures]
}

// ===========================================================================
//
//	Gini tree (random forest)
//
// ===========================================================================

type giniGrower struct {
	X    *mat.Dense
	y    []int
	cfg  treeConfig
	rng  *rand.Rand
	tree *Tree
}

// growGiniTree builds a classification tree on binary labels, minimizing
// gini impurity. Leaf values are positive-class fractions.
func growGiniTree(X *mat.Dense, y []int, indices []int, cfg treeConfig, rng *rand.Rand) Tree {
	g := &giniGrower{
		X:   X,
		y:   y,
		cfg: cfg,
		rng: rng,
		tree: &Tree{
			ShrinkageRate: 1.0,
			Nodes:         []Node{},
		},
	}
	g.buildNode(indices, -1, 0)
	g.tree.NumLeaves = g.tree.countLeaves()
	return *g.tree
}

func (g *giniGrower) buildNode(indices []int, parentID, depth int) int {
	nodeID := len(g.tree.Nodes)

	positives := 0
	for _, idx := range indices {
		positives += g.y[idx]
	}

	pure := positives == 0 || positives == len(indices)
	if pure ||
		(g.cfg.maxDepth > 0 && depth >= g.cfg.maxDepth) ||
		len(indices) < g.cfg.minSamplesSplit {
		return g.appendLeaf(indices, positives, parentID)
	}

	best := g.findBestSplit(indices, positives)
	if best.gain <= g.cfg.minGain {
		return g.appendLeaf(indices, positives, parentID)
	}

	g.tree.Nodes = append(g.tree.Nodes, Node{
		NodeID:       nodeID,
		ParentID:     parentID,
		NodeType:     NumericalNode,
		SplitFeature: best.feature,
		Threshold:    best.threshold,
		Gain:         best.gain,
	})
	if depth+1 > g.tree.MaxDepth {
		g.tree.MaxDepth = depth + 1
	}

	left := make([]int, 0, best.leftCount)
	right := make([]int, 0, best.rightCount)
	for _, idx := range indices {
		if g.X.At(idx, best.feature) <= best.threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}

	leftChild := g.buildNode(left, nodeID, depth+1)
	rightChild := g.buildNode(right, nodeID, depth+1)
	g.tree.Nodes[nodeID].LeftChild = leftChild
	g.tree.Nodes[nodeID].RightChild = rightChild
	return nodeID
}

func (g *giniGrower) appendLeaf(indices []int, positives, parentID int) int {
	nodeID := len(g.tree.Nodes)
	g.tree.Nodes = append(g.tree.Nodes, Node{
		NodeID:     nodeID,
		ParentID:   parentID,
		NodeType:   LeafNode,
		LeftChild:  -1,
		RightChild: -1,
		LeafValue:  float64(positives) / float64(len(indices)),
		LeafCount:  len(indices),
	})
	return nodeID
}

// findBestSplit scans a random feature subset for the threshold with the
// largest impurity decrease. The gain is scaled by the node size so that
// summed gains yield sklearn-style importances.
func (g *giniGrower) findBestSplit(indices []int, positives int) splitInfo {
	_, cols := g.X.Dims()
	n := len(indices)
	parentGini := giniImpurity(n, positives)
	best := splitInfo{gain: -math.MaxFloat64}

	type valueLabel struct {
		value float64
		label int
	}
	values := make([]valueLabel, n)

	for _, feature := range candidateFeatures(cols, g.cfg, g.rng) {
		for i, idx := range indices {
			values[i] = valueLabel{value: g.X.At(idx, feature), label: g.y[idx]}
		}
		sort.Slice(values, func(a, b int) bool { return values[a].value < values[b].value })

		leftCount, leftPos := 0, 0
		for i := 0; i < n-1; i++ {
			leftCount++
			leftPos += values[i].label

			if values[i].value == values[i+1].value {
				continue
			}
			rightCount := n - leftCount
			if leftCount < g.cfg.minSamplesLeaf || rightCount < g.cfg.minSamplesLeaf {
				continue
			}

			rightPos := positives - leftPos
			weighted := (float64(leftCount)*giniImpurity(leftCount, leftPos) +
				float64(rightCount)*giniImpurity(rightCount, rightPos)) / float64(n)
			gain := (parentGini - weighted) * float64(n)

			if gain > best.gain {
				best = splitInfo{
					feature:    feature,
					threshold:  (values[i].value + values[i+1].value) / 2,
					gain:       gain,
					leftCount:  leftCount,
					rightCount: rightCount,
				}
			}
		}
	}

	return best
}

func giniImpurity(n, positives int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(positives) / float64(n)
	return 2 * p * (1 - p)
}

// ===========================================================================
//
//	Gradient tree (boosting)
//
// ===========================================================================

type gradientGrower struct {
	X          *mat.Dense
	grad, hess []float64
	cfg        treeConfig
	tree       *Tree
}

// growGradientTree builds a regression tree on gradient and hessian targets
// using the second-order gain formula. Leaf values are the Newton steps
// -G/(H+lambda); the learning rate is carried as the tree's shrinkage.
func growGradientTree(X *mat.Dense, grad, hess []float64, indices []int, cfg treeConfig, shrinkage float64) Tree {
	g := &gradientGrower{
		X:    X,
		grad: grad,
		hess: hess,
		cfg:  cfg,
		tree: &Tree{
			ShrinkageRate: shrinkage,
			Nodes:         []Node{},
		},
	}
	g.buildNode(indices, -1, 0)
	g.tree.NumLeaves = g.tree.countLeaves()
	return *g.tree
}

func (g *gradientGrower) buildNode(indices []int, parentID, depth int) int {
	nodeID := len(g.tree.Nodes)

	if (g.cfg.maxDepth > 0 && depth >= g.cfg.maxDepth) ||
		len(indices) < g.cfg.minSamplesSplit {
		return g.appendLeaf(indices, parentID)
	}

	best := g.findBestSplit(indices)
	if best.gain <= g.cfg.minGain {
		return g.appendLeaf(indices, parentID)
	}

	g.tree.Nodes = append(g.tree.Nodes, Node{
		NodeID:       nodeID,
		ParentID:     parentID,
		NodeType:     NumericalNode,
		SplitFeature: best.feature,
		Threshold:    best.threshold,
		Gain:         best.gain,
	})
	if depth+1 > g.tree.MaxDepth {
		g.tree.MaxDepth = depth + 1
	}

	left := make([]int, 0, best.leftCount)
	right := make([]int, 0, best.rightCount)
	for _, idx := range indices {
		if g.X.At(idx, best.feature) <= best.threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}

	leftChild := g.buildNode(left, nodeID, depth+1)
	rightChild := g.buildNode(right, nodeID, depth+1)
	g.tree.Nodes[nodeID].LeftChild = leftChild
	g.tree.Nodes[nodeID].RightChild = rightChild
	return nodeID
}

func (g *gradientGrower) appendLeaf(indices []int, parentID int) int {
	nodeID := len(g.tree.Nodes)
	sumGrad, sumHess := 0.0, 0.0
	for _, idx := range indices {
		sumGrad += g.grad[idx]
		sumHess += g.hess[idx]
	}
	g.tree.Nodes = append(g.tree.Nodes, Node{
		NodeID:     nodeID,
		ParentID:   parentID,
		NodeType:   LeafNode,
		LeftChild:  -1,
		RightChild: -1,
		LeafValue:  -sumGrad / (sumHess + g.cfg.lambda),
		LeafCount:  len(indices),
	})
	return nodeID
}

func (g *gradientGrower) findBestSplit(indices []int) splitInfo {
	_, cols := g.X.Dims()
	n := len(indices)
	best := splitInfo{gain: -math.MaxFloat64}

	totalGrad, totalHess := 0.0, 0.0
	for _, idx := range indices {
		totalGrad += g.grad[idx]
		totalHess += g.hess[idx]
	}

	type valueTarget struct {
		value      float64
		grad, hess float64
	}
	values := make([]valueTarget, n)

	for feature := 0; feature < cols; feature++ {
		for i, idx := range indices {
			values[i] = valueTarget{
				value: g.X.At(idx, feature),
				grad:  g.grad[idx],
				hess:  g.hess[idx],
			}
		}
		sort.Slice(values, func(a, b int) bool { return values[a].value < values[b].value })

		leftGrad, leftHess := 0.0, 0.0
		leftCount := 0
		for i := 0; i < n-1; i++ {
			leftGrad += values[i].grad
			leftHess += values[i].hess
			leftCount++

			if values[i].value == values[i+1].value {
				continue
			}
			rightCount := n - leftCount
			if leftCount < g.cfg.minSamplesLeaf || rightCount < g.cfg.minSamplesLeaf {
				continue
			}

			gain := g.splitGain(leftGrad, leftHess, totalGrad-leftGrad, totalHess-leftHess, totalGrad, totalHess)
			if gain > best.gain {
				best = splitInfo{
					feature:    feature,
					threshold:  (values[i].value + values[i+1].value) / 2,
					gain:       gain,
					leftCount:  leftCount,
					rightCount: rightCount,
				}
			}
		}
	}

	return best
}

func (g *gradientGrower) splitGain(leftGrad, leftHess, rightGrad, rightHess, totalGrad, totalHess float64) float64 {
	lambda := g.cfg.lambda
	leftScore := (leftGrad * leftGrad) / (leftHess + lambda)
	rightScore := (rightGrad * rightGrad) / (rightHess + lambda)
	totalScore := (totalGrad * totalGrad) / (totalHess + lambda)
	return 0.5 * (leftScore + rightScore - totalScore)
}
