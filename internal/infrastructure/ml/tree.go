package ml

import (
	"math/rand"
	"sort"
)

// Node: узел дерева решений в плоском массиве.
// У листа Left == -1, распределение классов хранится в Dist.
type Node struct {
	Feature int
	Split   float64
	Left    int
	Right   int
	Dist    []float64
}

// Tree: дерево классификации CART с критерием Джини.
type Tree struct {
	Nodes []Node
}

type treeBuilder struct {
	data        [][]float64
	labels      []int
	nClasses    int
	maxFeatures int
	maxDepth    int
	minSplit    int
	rng         *rand.Rand
	nodes       []Node
}

func (b *treeBuilder) build(idx []int, depth int) int {
	counts := make([]float64, b.nClasses)
	for _, i := range idx {
		counts[b.labels[i]]++
	}

	self := len(b.nodes)
	b.nodes = append(b.nodes, Node{Left: -1, Right: -1})

	if depth >= b.maxDepth || len(idx) < b.minSplit || pure(counts) {
		b.nodes[self].Dist = normalize(counts)
		return self
	}

	feature, split, ok := b.bestSplit(idx, counts)
	if !ok {
		b.nodes[self].Dist = normalize(counts)
		return self
	}

	var left, right []int
	for _, i := range idx {
		if b.data[i][feature] <= split {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[self].Feature = feature
	b.nodes[self].Split = split
	b.nodes[self].Left = l
	b.nodes[self].Right = r
	return self
}

// bestSplit перебирает случайное подмножество признаков и все пороги между соседними значениями.
func (b *treeBuilder) bestSplit(idx []int, total []float64) (int, float64, bool) {
	nFeatures := len(b.data[0])
	candidates := b.rng.Perm(nFeatures)[:b.maxFeatures]

	n := float64(len(idx))
	bestGain := 0.0
	bestFeature, bestSplit := -1, 0.0
	parent := gini(total, n)

	sorted := make([]int, len(idx))
	left := make([]float64, b.nClasses)
	right := make([]float64, b.nClasses)

	for _, f := range candidates {
		copy(sorted, idx)
		sort.Slice(sorted, func(i, j int) bool {
			return b.data[sorted[i]][f] < b.data[sorted[j]][f]
		})

		clear(left)
		copy(right, total)
		for k := 0; k < len(sorted)-1; k++ {
			c := b.labels[sorted[k]]
			left[c]++
			right[c]--

			v, next := b.data[sorted[k]][f], b.data[sorted[k+1]][f]
			if v == next {
				continue
			}
			nl := float64(k + 1)
			nr := n - nl
			gain := parent - (nl/n)*gini(left, nl) - (nr/n)*gini(right, nr)
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestSplit = (v + next) / 2
			}
		}
	}

	return bestFeature, bestSplit, bestFeature >= 0
}

// predict спускается до листа и возвращает распределение классов.
func (t *Tree) predict(sample []float64) []float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Left < 0 {
			return n.Dist
		}
		if sample[n.Feature] <= n.Split {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

func gini(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := c / n
		g -= p * p
	}
	return g
}

func pure(counts []float64) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func normalize(counts []float64) []float64 {
	var sum float64
	for _, c := range counts {
		sum += c
	}
	out := make([]float64, len(counts))
	if sum == 0 {
		return out
	}
	for i, c := range counts {
		out[i] = c / sum
	}
	return out
}
