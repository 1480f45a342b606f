package lightgbm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/goeli5/pkg/errors"
)

// SaveToFile writes the model in the LightGBM text format.
func (m *Model) SaveToFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create model file %s", path)
	}
	if err := m.SaveToWriter(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// SaveToString returns the model in the LightGBM text format.
func (m *Model) SaveToString() (string, error) {
	var sb strings.Builder
	if err := m.SaveToWriter(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// SaveToWriter writes the model in the LightGBM text format. The output can
// be read back by LoadFromReader and by LightGBM itself.
func (m *Model) SaveToWriter(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "tree")
	fmt.Fprintln(bw, "version=v4")
	fmt.Fprintf(bw, "num_class=%d\n", m.NumClass)
	fmt.Fprintf(bw, "num_tree_per_iteration=%d\n", m.treesPerIteration())
	fmt.Fprintln(bw, "label_index=0")
	fmt.Fprintf(bw, "max_feature_idx=%d\n", m.NumFeatures-1)
	fmt.Fprintf(bw, "objective=%s\n", m.objectiveString())
	fmt.Fprintf(bw, "feature_names=%s\n", strings.Join(m.featureNamesOrDefault(), " "))
	fmt.Fprintf(bw, "feature_infos=%s\n", strings.TrimSpace(strings.Repeat("none ", m.NumFeatures)))
	fmt.Fprintln(bw)

	for i := range m.Trees {
		fmt.Fprintf(bw, "Tree=%d\n", i)
		if err := writeTree(bw, &m.Trees[i]); err != nil {
			return err
		}
		fmt.Fprintln(bw)
	}
	fmt.Fprintln(bw, "end of trees")

	if len(m.Parameters) > 0 {
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, "parameters:")
		keys := make([]string, 0, len(m.Parameters))
		for k := range m.Parameters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(bw, "[%s: %s]\n", k, m.Parameters[k])
		}
		fmt.Fprintln(bw, "end of parameters")
	}
	return bw.Flush()
}

func (m *Model) objectiveString() string {
	switch m.Objective {
	case BinaryLogistic, MulticlassOVA:
		s := fmt.Sprintf("%s sigmoid:%s", m.Objective, formatFloat(m.Sigmoid))
		if m.Objective == MulticlassOVA {
			s = fmt.Sprintf("%s num_class:%d sigmoid:%s", m.Objective, m.NumClass, formatFloat(m.Sigmoid))
		}
		return s
	case MulticlassSoftmax:
		return fmt.Sprintf("%s num_class:%d", m.Objective, m.NumClass)
	}
	return string(m.Objective)
}

func (m *Model) featureNamesOrDefault() []string {
	if len(m.FeatureNames) == m.NumFeatures {
		return m.FeatureNames
	}
	return defaultColumnNames(m.NumFeatures)
}

func defaultColumnNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = "Column_" + strconv.Itoa(i)
	}
	return names
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 17, 64)
}

// writeTree flattens the node graph into LightGBM's parallel arrays.
// Internal nodes are numbered in preorder; leaves in the order visited.
func writeTree(w io.Writer, t *Tree) error {
	if len(t.Nodes) == 0 {
		return errors.NewModelError("SaveToWriter", "empty tree", nil)
	}

	internalID := map[int]int{}
	leafID := map[int]int{}
	var internals, leaves []int
	var visit func(idx int) error
	visit = func(idx int) error {
		if idx < 0 || idx >= len(t.Nodes) {
			return errors.NewModelError("SaveToWriter", "child index out of range", nil)
		}
		if t.Nodes[idx].IsLeaf() {
			leafID[idx] = len(leaves)
			leaves = append(leaves, idx)
			return nil
		}
		internalID[idx] = len(internals)
		internals = append(internals, idx)
		if err := visit(t.Nodes[idx].LeftChild); err != nil {
			return err
		}
		return visit(t.Nodes[idx].RightChild)
	}
	if err := visit(0); err != nil {
		return err
	}

	ref := func(idx int) string {
		if id, ok := internalID[idx]; ok {
			return strconv.Itoa(id)
		}
		return strconv.Itoa(^leafID[idx])
	}

	var (
		splitFeature, splitGain, threshold, decisionType []string
		leftChild, rightChild, internalCount             []string
		leafValue, leafCount                             []string
		catBoundaries                                    = []string{"0"}
		catThreshold                                     []string
		numCat                                           int
	)
	for _, idx := range internals {
		n := &t.Nodes[idx]
		decision := int(n.MissingType) << 2
		if n.DefaultLeft {
			decision |= decisionDefaultLeftMask
		}
		thr := formatFloat(n.Threshold)
		if n.NodeType == CategoricalNode {
			decision |= decisionCategoricalMask
			thr = strconv.Itoa(numCat)
			words := categoriesToBitset(n.Categories)
			for _, word := range words {
				catThreshold = append(catThreshold, strconv.FormatUint(uint64(word), 10))
			}
			catBoundaries = append(catBoundaries, strconv.Itoa(len(catThreshold)))
			numCat++
		}
		splitFeature = append(splitFeature, strconv.Itoa(n.SplitFeature))
		splitGain = append(splitGain, formatFloat(n.Gain))
		threshold = append(threshold, thr)
		decisionType = append(decisionType, strconv.Itoa(decision))
		leftChild = append(leftChild, ref(n.LeftChild))
		rightChild = append(rightChild, ref(n.RightChild))
		internalCount = append(internalCount, strconv.Itoa(n.InternalCount))
	}
	for _, idx := range leaves {
		leafValue = append(leafValue, formatFloat(t.Nodes[idx].LeafValue))
		leafCount = append(leafCount, strconv.Itoa(t.Nodes[idx].LeafCount))
	}

	shrinkage := t.ShrinkageRate
	if shrinkage == 0 {
		shrinkage = 1
	}

	fmt.Fprintf(w, "num_leaves=%d\n", len(leaves))
	fmt.Fprintf(w, "num_cat=%d\n", numCat)
	if len(internals) > 0 {
		fmt.Fprintf(w, "split_feature=%s\n", strings.Join(splitFeature, " "))
		fmt.Fprintf(w, "split_gain=%s\n", strings.Join(splitGain, " "))
		fmt.Fprintf(w, "threshold=%s\n", strings.Join(threshold, " "))
		fmt.Fprintf(w, "decision_type=%s\n", strings.Join(decisionType, " "))
		fmt.Fprintf(w, "left_child=%s\n", strings.Join(leftChild, " "))
		fmt.Fprintf(w, "right_child=%s\n", strings.Join(rightChild, " "))
	}
	fmt.Fprintf(w, "leaf_value=%s\n", strings.Join(leafValue, " "))
	fmt.Fprintf(w, "leaf_count=%s\n", strings.Join(leafCount, " "))
	if len(internals) > 0 {
		fmt.Fprintf(w, "internal_count=%s\n", strings.Join(internalCount, " "))
	}
	if numCat > 0 {
		fmt.Fprintf(w, "cat_boundaries=%s\n", strings.Join(catBoundaries, " "))
		fmt.Fprintf(w, "cat_threshold=%s\n", strings.Join(catThreshold, " "))
	}
	fmt.Fprintln(w, "is_linear=0")
	_, err := fmt.Fprintf(w, "shrinkage=%s\n", formatFloat(shrinkage))
	return err
}

func categoriesToBitset(cats []int) []uint32 {
	maxCat := -1
	for _, c := range cats {
		if c > maxCat {
			maxCat = c
		}
	}
	words := make([]uint32, maxCat/32+1)
	for _, c := range cats {
		if c >= 0 {
			words[c/32] |= 1 << uint(c%32)
		}
	}
	return words
}
