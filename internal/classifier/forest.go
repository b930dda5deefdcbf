package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Node is one entry of a tree's flat node array. Leaves carry Value, one
// weight per class; internal nodes send x[Feature] <= Threshold to Left.
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value,omitempty"`
}

func (n Node) leaf() bool { return len(n.Value) > 0 }

// Tree is a single decision tree rooted at Nodes[0].
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Forest is a tree ensemble exported from the training pipeline.
type Forest struct {
	Classes    []string            `json:"classes"`
	Features   []string            `json:"features"`
	Categories map[string][]string `json:"categories"`
	Trees      []Tree              `json:"trees"`

	codes map[string]map[string]int
}

// Load reads and validates a forest artifact from path.
func Load(path string) (*Forest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
		}
		return nil, fmt.Errorf("read model artifact %s: %w", path, err)
	}

	var forest Forest
	if err := json.Unmarshal(raw, &forest); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrInvalidArtifact, path, err)
	}
	if err := forest.init(); err != nil {
		return nil, err
	}
	return &forest, nil
}

// New builds a forest from already-decoded parts.
func New(classes, features []string, categories map[string][]string, trees []Tree) (*Forest, error) {
	forest := &Forest{
		Classes:    classes,
		Features:   features,
		Categories: categories,
		Trees:      trees,
	}
	if err := forest.init(); err != nil {
		return nil, err
	}
	return forest, nil
}

// init validates the artifact and builds the category code tables.
func (f *Forest) init() error {
	if len(f.Classes) == 0 {
		return invalidf("no classes")
	}
	if len(f.Features) != len(CategoricalColumns)+3 {
		return invalidf("expected %d features, got %d", len(CategoricalColumns)+3, len(f.Features))
	}
	if len(f.Trees) == 0 {
		return invalidf("no trees")
	}
	for t, tree := range f.Trees {
		if err := f.checkTree(tree); err != nil {
			return fmt.Errorf("tree %d: %w", t, err)
		}
	}

	f.codes = make(map[string]map[string]int, len(f.Categories))
	for column, values := range f.Categories {
		codes := make(map[string]int, len(values))
		for i, v := range values {
			codes[v] = i
		}
		f.codes[column] = codes
	}
	return nil
}

func (f *Forest) checkTree(tree Tree) error {
	if len(tree.Nodes) == 0 {
		return invalidf("empty tree")
	}
	for i, n := range tree.Nodes {
		if n.leaf() {
			if len(n.Value) != len(f.Classes) {
				return invalidf("node %d has %d class weights, want %d", i, len(n.Value), len(f.Classes))
			}
			continue
		}
		if n.Feature < 0 || n.Feature >= len(f.Features) {
			return invalidf("node %d splits on unknown feature %d", i, n.Feature)
		}
		// Children must come after their parent, which also rules out cycles.
		if n.Left <= i || n.Left >= len(tree.Nodes) || n.Right <= i || n.Right >= len(tree.Nodes) {
			return invalidf("node %d has out-of-order children %d/%d", i, n.Left, n.Right)
		}
	}
	return nil
}

// Encode returns the training-time code of value in column.
func (f *Forest) Encode(column, value string) int {
	code, ok := f.codes[column][value]
	if !ok {
		return UnknownCategory
	}
	return code
}

// Classify averages the normalized leaf distributions of every tree.
func (f *Forest) Classify(vector []float64) (string, map[string]float64, error) {
	if len(vector) != len(f.Features) {
		return "", nil, fmt.Errorf("feature vector has %d values, model expects %d", len(vector), len(f.Features))
	}

	sums := make([]float64, len(f.Classes))
	for _, tree := range f.Trees {
		leaf := tree.walk(vector)
		var total float64
		for _, w := range leaf.Value {
			total += w
		}
		for c, w := range leaf.Value {
			if total > 0 {
				sums[c] += w / total
			} else {
				sums[c] += 1 / float64(len(f.Classes))
			}
		}
	}

	best := 0
	probabilities := make(map[string]float64, len(f.Classes))
	for c, class := range f.Classes {
		probabilities[class] = sums[c] / float64(len(f.Trees))
		if sums[c] > sums[best] {
			best = c
		}
	}
	return f.Classes[best], probabilities, nil
}

func (t Tree) walk(vector []float64) Node {
	n := t.Nodes[0]
	for !n.leaf() {
		if vector[n.Feature] <= n.Threshold {
			n = t.Nodes[n.Left]
		} else {
			n = t.Nodes[n.Right]
		}
	}
	return n
}
