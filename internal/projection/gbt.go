package projection

import (
	"errors"
	"math"
)

// GBTParams configures the gradient-boosted tree regressor
type GBTParams struct {
	Rounds         int     // number of boosting rounds
	MaxDepth       int     // maximum tree depth
	LearningRate   float64 // shrinkage applied to each tree's contribution
	MinLeafSamples int     // minimum samples per leaf before a split is allowed
}

// DefaultGBTParams mirrors the tuning the projection engine was calibrated
// with: shallow trees, moderate shrinkage
func DefaultGBTParams() GBTParams {
	return GBTParams{
		Rounds:         50,
		MaxDepth:       3,
		LearningRate:   0.1,
		MinLeafSamples: 2,
	}
}

// GBTRegressor is a gradient-boosted ensemble of regression trees fit with
// squared loss. Each round fits a shallow tree to the current residuals and
// adds its shrunken predictions to the ensemble.
type GBTRegressor struct {
	params GBTParams
	base   float64
	trees  []*treeNode
}

// NewGBTRegressor creates an untrained regressor
func NewGBTRegressor(params GBTParams) *GBTRegressor {
	return &GBTRegressor{params: params}
}

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

// Fit trains the ensemble on the given examples. Every row of x must have
// the same length, and len(x) must equal len(y).
func (g *GBTRegressor) Fit(x [][]float64, y []float64) error {
	if len(x) == 0 || len(x) != len(y) {
		return errors.New("gbt: training set is empty or mismatched")
	}
	width := len(x[0])
	for _, row := range x {
		if len(row) != width {
			return errors.New("gbt: ragged feature matrix")
		}
	}

	g.base = meanOf(y)
	g.trees = g.trees[:0]

	residuals := make([]float64, len(y))
	predictions := make([]float64, len(y))
	for i := range predictions {
		predictions[i] = g.base
	}

	indices := make([]int, len(x))
	for i := range indices {
		indices[i] = i
	}

	for round := 0; round < g.params.Rounds; round++ {
		for i := range y {
			residuals[i] = y[i] - predictions[i]
		}

		tree := g.buildTree(x, residuals, indices, 0)
		if tree == nil {
			break
		}
		g.trees = append(g.trees, tree)

		for i, row := range x {
			predictions[i] += g.params.LearningRate * tree.predict(row)
		}
	}

	return nil
}

// Predict returns the ensemble's estimate for one feature vector
func (g *GBTRegressor) Predict(row []float64) float64 {
	value := g.base
	for _, tree := range g.trees {
		value += g.params.LearningRate * tree.predict(row)
	}
	return value
}

// Trained reports whether Fit has produced a usable model
func (g *GBTRegressor) Trained() bool {
	return len(g.trees) > 0
}

func (t *treeNode) predict(row []float64) float64 {
	node := t
	for !node.leaf {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

// buildTree grows one regression tree on the residuals by greedy
// variance-reduction splitting over the index subset
func (g *GBTRegressor) buildTree(x [][]float64, residuals []float64, indices []int, depth int) *treeNode {
	if len(indices) == 0 {
		return nil
	}

	leafValue := meanAt(residuals, indices)
	if depth >= g.params.MaxDepth || len(indices) < 2*g.params.MinLeafSamples {
		return &treeNode{leaf: true, value: leafValue}
	}

	feature, threshold, ok := g.bestSplit(x, residuals, indices)
	if !ok {
		return &treeNode{leaf: true, value: leafValue}
	}

	var leftIdx, rightIdx []int
	for _, i := range indices {
		if x[i][feature] <= threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      g.buildTree(x, residuals, leftIdx, depth+1),
		right:     g.buildTree(x, residuals, rightIdx, depth+1),
	}
}

// bestSplit finds the (feature, threshold) pair minimizing the weighted sum
// of squared errors of the two children
func (g *GBTRegressor) bestSplit(x [][]float64, residuals []float64, indices []int) (int, float64, bool) {
	bestFeature := -1
	bestThreshold := 0.0
	bestScore := math.Inf(1)

	nFeatures := len(x[indices[0]])
	for feature := 0; feature < nFeatures; feature++ {
		for _, i := range indices {
			threshold := x[i][feature]

			var leftSum, rightSum float64
			var leftN, rightN int
			for _, j := range indices {
				if x[j][feature] <= threshold {
					leftSum += residuals[j]
					leftN++
				} else {
					rightSum += residuals[j]
					rightN++
				}
			}
			if leftN < g.params.MinLeafSamples || rightN < g.params.MinLeafSamples {
				continue
			}

			leftMean := leftSum / float64(leftN)
			rightMean := rightSum / float64(rightN)

			score := 0.0
			for _, j := range indices {
				var diff float64
				if x[j][feature] <= threshold {
					diff = residuals[j] - leftMean
				} else {
					diff = residuals[j] - rightMean
				}
				score += diff * diff
			}

			if score < bestScore {
				bestScore = score
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func meanOf(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func meanAt(values []float64, indices []int) float64 {
	sum := 0.0
	for _, i := range indices {
		sum += values[i]
	}
	return sum / float64(len(indices))
}
