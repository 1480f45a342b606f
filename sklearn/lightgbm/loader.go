package lightgbm

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/goeli5/pkg/errors"
)

const (
	decisionCategoricalMask = 1
	decisionDefaultLeftMask = 2
)

// LoadFromFile loads a model saved by LightGBM's save_model().
func LoadFromFile(filepath string) (*Model, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open model file %s", filepath)
	}
	defer file.Close()

	return LoadFromReader(file)
}

// LoadFromString loads a model from the output of model_to_string().
func LoadFromString(modelStr string) (*Model, error) {
	return LoadFromReader(strings.NewReader(modelStr))
}

type textSection int

const (
	sectionHeader textSection = iota
	sectionTree
	sectionImportances
	sectionParameters
	sectionTail
)

// LoadFromReader parses the LightGBM text model format.
func LoadFromReader(reader io.Reader) (*Model, error) {
	scanner := bufio.NewScanner(reader)
	// Trees with many leaves produce very long lines.
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	m := NewModel()
	section := sectionHeader
	var treeParams map[string]string

	flushTree := func() error {
		if treeParams == nil {
			return nil
		}
		tree, err := parseTree(treeParams)
		if err != nil {
			return err
		}
		tree.TreeIndex = len(m.Trees)
		m.Trees = append(m.Trees, tree)
		treeParams = nil
		return nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(line, "Tree="):
			if err := flushTree(); err != nil {
				return nil, err
			}
			section = sectionTree
			treeParams = map[string]string{}
			continue
		case line == "end of trees":
			if err := flushTree(); err != nil {
				return nil, err
			}
			section = sectionTail
			continue
		case line == "feature_importances:":
			section = sectionImportances
			continue
		case line == "parameters:":
			section = sectionParameters
			continue
		case line == "end of parameters":
			section = sectionTail
			continue
		}

		if line == "" {
			if section == sectionTree {
				if err := flushTree(); err != nil {
					return nil, err
				}
			}
			continue
		}

		switch section {
		case sectionHeader:
			key, value, ok := strings.Cut(line, "=")
			if !ok {
				continue
			}
			if err := applyHeader(m, key, value); err != nil {
				return nil, err
			}
		case sectionTree:
			if key, value, ok := strings.Cut(line, "="); ok {
				treeParams[key] = value
			}
		case sectionParameters:
			// [key: value]
			inner := strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			if key, value, ok := strings.Cut(inner, ":"); ok {
				m.Parameters[strings.TrimSpace(key)] = strings.TrimSpace(value)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "error reading model")
	}
	if err := flushTree(); err != nil {
		return nil, err
	}

	if err := validateModel(m); err != nil {
		return nil, err
	}
	return m, nil
}

func applyHeader(m *Model, key, value string) error {
	var err error
	switch key {
	case "version":
		m.Version = value
	case "num_class":
		m.NumClass, err = strconv.Atoi(value)
	case "num_tree_per_iteration":
		m.NumTreePerIteration, err = strconv.Atoi(value)
	case "max_feature_idx":
		var maxIdx int
		maxIdx, err = strconv.Atoi(value)
		m.NumFeatures = maxIdx + 1
	case "objective":
		err = parseObjective(m, value)
	case "feature_names":
		m.FeatureNames = strings.Fields(value)
	}
	if err != nil {
		return errors.NewModelError("LoadFromReader", "invalid header field "+key, err)
	}
	return nil
}

// parseObjective reads strings such as "binary sigmoid:1" or
// "multiclass num_class:3".
func parseObjective(m *Model, value string) error {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return errors.New("empty objective")
	}
	m.Objective = ObjectiveType(fields[0])
	for _, f := range fields[1:] {
		key, val, ok := strings.Cut(f, ":")
		if !ok {
			continue
		}
		switch key {
		case "sigmoid":
			s, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return err
			}
			m.Sigmoid = s
		case "num_class":
			k, err := strconv.Atoi(val)
			if err != nil {
				return err
			}
			m.NumClass = k
		}
	}
	return nil
}

func validateModel(m *Model) error {
	if m.NumFeatures <= 0 {
		return errors.NewModelError("LoadFromReader", "missing max_feature_idx", nil)
	}
	if m.FeatureNames != nil && len(m.FeatureNames) != m.NumFeatures {
		return errors.NewModelError("LoadFromReader", "feature_names does not match max_feature_idx", nil)
	}
	if m.NumTreePerIteration < 1 {
		m.NumTreePerIteration = 1
	}
	if m.NumClass < 1 {
		m.NumClass = 1
	}
	if len(m.Trees)%m.NumTreePerIteration != 0 {
		return errors.NewModelError("LoadFromReader", "tree count is not a multiple of num_tree_per_iteration", nil)
	}
	for t := range m.Trees {
		for _, node := range m.Trees[t].Nodes {
			if !node.IsLeaf() && (node.SplitFeature < 0 || node.SplitFeature >= m.NumFeatures) {
				return errors.NewModelError("LoadFromReader", "split feature out of range in tree "+strconv.Itoa(t), nil)
			}
		}
	}
	return nil
}

func treeError(kind string, err error) error {
	return errors.NewModelError("parseTree", kind, err)
}

// parseTree builds a Tree from the key=value block of one "Tree=" section.
// Internal node i keeps index i; leaf j is stored at numLeaves-1+j. A
// negative child reference c points to leaf ^c.
func parseTree(params map[string]string) (Tree, error) {
	numLeaves, err := strconv.Atoi(params["num_leaves"])
	if err != nil {
		return Tree{}, treeError("invalid num_leaves", err)
	}
	shrinkage := 1.0
	if v, ok := params["shrinkage"]; ok {
		if shrinkage, err = strconv.ParseFloat(v, 64); err != nil {
			return Tree{}, treeError("invalid shrinkage", err)
		}
	}
	leafValues, err := parseFloats(params["leaf_value"])
	if err != nil {
		return Tree{}, treeError("invalid leaf_value", err)
	}
	if len(leafValues) != numLeaves {
		return Tree{}, treeError("leaf_value length does not match num_leaves", nil)
	}
	leafCounts, err := parseInts(params["leaf_count"])
	if err != nil {
		return Tree{}, treeError("invalid leaf_count", err)
	}

	tree := Tree{NumLeaves: numLeaves, ShrinkageRate: shrinkage}
	numInternal := numLeaves - 1
	tree.Nodes = make([]Node, numInternal+numLeaves)

	for j := 0; j < numLeaves; j++ {
		leaf := Node{LeftChild: -1, RightChild: -1, NodeType: LeafNode, LeafValue: leafValues[j]}
		if j < len(leafCounts) {
			leaf.LeafCount = leafCounts[j]
		}
		tree.Nodes[numInternal+j] = leaf
	}
	if numInternal == 0 {
		return tree, nil
	}

	arrays := map[string][]float64{}
	for _, key := range []string{"split_feature", "split_gain", "threshold", "decision_type", "left_child", "right_child"} {
		vals, err := parseFloats(params[key])
		if err != nil {
			return Tree{}, treeError("invalid "+key, err)
		}
		if len(vals) != numInternal {
			return Tree{}, treeError(key+" length does not match num_leaves", nil)
		}
		arrays[key] = vals
	}
	internalCounts, err := parseInts(params["internal_count"])
	if err != nil {
		return Tree{}, treeError("invalid internal_count", err)
	}
	catBoundaries, err := parseInts(params["cat_boundaries"])
	if err != nil {
		return Tree{}, treeError("invalid cat_boundaries", err)
	}
	catThreshold, err := parseUint32s(params["cat_threshold"])
	if err != nil {
		return Tree{}, treeError("invalid cat_threshold", err)
	}

	childIndex := func(c int) (int, error) {
		if c < 0 {
			c = numInternal + ^c
		}
		if c < 0 || c >= len(tree.Nodes) {
			return 0, treeError("child index out of range", nil)
		}
		return c, nil
	}

	for i := 0; i < numInternal; i++ {
		decision := int(arrays["decision_type"][i])
		left, err := childIndex(int(arrays["left_child"][i]))
		if err != nil {
			return Tree{}, err
		}
		right, err := childIndex(int(arrays["right_child"][i]))
		if err != nil {
			return Tree{}, err
		}
		node := Node{
			LeftChild:    left,
			RightChild:   right,
			NodeType:     NumericalNode,
			SplitFeature: int(arrays["split_feature"][i]),
			Threshold:    arrays["threshold"][i],
			Gain:         arrays["split_gain"][i],
			DefaultLeft:  decision&decisionDefaultLeftMask != 0,
			MissingType:  MissingType((decision >> 2) & 3),
		}
		if i < len(internalCounts) {
			node.InternalCount = internalCounts[i]
		}
		if decision&decisionCategoricalMask != 0 {
			node.NodeType = CategoricalNode
			catIdx := int(node.Threshold)
			if catIdx < 0 || catIdx+1 >= len(catBoundaries) {
				return Tree{}, treeError("categorical split without bitset", nil)
			}
			lo, hi := catBoundaries[catIdx], catBoundaries[catIdx+1]
			if lo < 0 || hi > len(catThreshold) || lo > hi {
				return Tree{}, treeError("cat_boundaries out of range", nil)
			}
			node.Categories = bitsetToCategories(catThreshold[lo:hi])
		}
		tree.Nodes[i] = node
	}
	return tree, nil
}

func bitsetToCategories(words []uint32) []int {
	var cats []int
	for w, word := range words {
		for b := 0; b < 32; b++ {
			if word&(1<<uint(b)) != 0 {
				cats = append(cats, w*32+b)
			}
		}
	}
	return cats
}

func parseFloats(s string) ([]float64, error) {
	fields := strings.Fields(s)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseInts(s string) ([]int, error) {
	fields := strings.Fields(s)
	out := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseUint32s(s string) ([]uint32, error) {
	fields := strings.Fields(s)
	out := make([]uint32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			return nil, err
		}
		out[i] = uint32(v)
	}
	return out, nil
}
