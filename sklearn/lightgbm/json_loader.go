package lightgbm

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/goeli5/pkg/errors"
)

// JSONModel represents the top-level structure of a dump_model() document.
type JSONModel struct {
	Name                string         `json:"name"`
	Version             string         `json:"version"`
	NumClass            int            `json:"num_class"`
	NumTreePerIteration int            `json:"num_tree_per_iteration"`
	MaxFeatureIdx       int            `json:"max_feature_idx"`
	Objective           string         `json:"objective"`
	FeatureNames        []string       `json:"feature_names"`
	TreeInfo            []JSONTreeInfo `json:"tree_info"`
}

// JSONTreeInfo represents information about a single tree
type JSONTreeInfo struct {
	TreeIndex     int          `json:"tree_index"`
	NumLeaves     int          `json:"num_leaves"`
	Shrinkage     float64      `json:"shrinkage"`
	TreeStructure JSONTreeNode `json:"tree_structure"`
}

// JSONTreeNode is either an internal node (LeftChild and RightChild set) or
// a leaf.
type JSONTreeNode struct {
	SplitFeature  int             `json:"split_feature"`
	SplitGain     float64         `json:"split_gain"`
	Threshold     json.RawMessage `json:"threshold"`
	DecisionType  string          `json:"decision_type"`
	DefaultLeft   bool            `json:"default_left"`
	MissingType   string          `json:"missing_type"`
	InternalCount int             `json:"internal_count"`
	LeftChild     *JSONTreeNode   `json:"left_child"`
	RightChild    *JSONTreeNode   `json:"right_child"`

	LeafValue float64 `json:"leaf_value"`
	LeafCount int     `json:"leaf_count"`
}

// LoadFromJSONFile loads a model from a file written with dump_model().
func LoadFromJSONFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read model file %s", path)
	}
	return LoadFromJSON(data)
}

// LoadFromJSON loads a model from the output of dump_model().
func LoadFromJSON(jsonData []byte) (*Model, error) {
	var jm JSONModel
	if err := json.Unmarshal(jsonData, &jm); err != nil {
		return nil, errors.NewModelError("LoadFromJSON", "invalid JSON model", err)
	}
	return jm.ToModel()
}

// ToModel converts the decoded document into a Model.
func (jm *JSONModel) ToModel() (*Model, error) {
	m := NewModel()
	m.Version = jm.Version
	m.NumClass = jm.NumClass
	m.NumTreePerIteration = jm.NumTreePerIteration
	m.NumFeatures = jm.MaxFeatureIdx + 1
	m.FeatureNames = jm.FeatureNames
	if err := parseObjective(m, jm.Objective); err != nil {
		return nil, errors.NewModelError("LoadFromJSON", "invalid objective", err)
	}

	for i, info := range jm.TreeInfo {
		tree := Tree{TreeIndex: i, NumLeaves: info.NumLeaves, ShrinkageRate: info.Shrinkage}
		if _, err := appendJSONNode(&tree, &info.TreeStructure); err != nil {
			return nil, err
		}
		m.Trees = append(m.Trees, tree)
	}

	if err := validateModel(m); err != nil {
		return nil, err
	}
	return m, nil
}

// appendJSONNode appends jn and its subtree in preorder and returns the
// index of jn.
func appendJSONNode(tree *Tree, jn *JSONTreeNode) (int, error) {
	idx := len(tree.Nodes)
	if jn.LeftChild == nil || jn.RightChild == nil {
		tree.Nodes = append(tree.Nodes, Node{
			LeftChild:  -1,
			RightChild: -1,
			NodeType:   LeafNode,
			LeafValue:  jn.LeafValue,
			LeafCount:  jn.LeafCount,
		})
		return idx, nil
	}

	node := Node{
		NodeType:      NumericalNode,
		SplitFeature:  jn.SplitFeature,
		Gain:          jn.SplitGain,
		DefaultLeft:   jn.DefaultLeft,
		InternalCount: jn.InternalCount,
	}
	switch jn.MissingType {
	case "Zero":
		node.MissingType = MissingZero
	case "NaN":
		node.MissingType = MissingNaN
	}
	if err := node.setJSONThreshold(jn); err != nil {
		return 0, err
	}
	tree.Nodes = append(tree.Nodes, node)

	left, err := appendJSONNode(tree, jn.LeftChild)
	if err != nil {
		return 0, err
	}
	right, err := appendJSONNode(tree, jn.RightChild)
	if err != nil {
		return 0, err
	}
	tree.Nodes[idx].LeftChild = left
	tree.Nodes[idx].RightChild = right
	return idx, nil
}

// setJSONThreshold handles numerical thresholds and categorical thresholds
// of the form "1||3||7".
func (n *Node) setJSONThreshold(jn *JSONTreeNode) error {
	if jn.DecisionType == "==" {
		n.NodeType = CategoricalNode
		var s string
		if err := json.Unmarshal(jn.Threshold, &s); err != nil {
			return errors.NewModelError("LoadFromJSON", "invalid categorical threshold", err)
		}
		for _, part := range strings.Split(s, "||") {
			c, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return errors.NewModelError("LoadFromJSON", "invalid categorical threshold", err)
			}
			n.Categories = append(n.Categories, c)
		}
		return nil
	}

	if err := json.Unmarshal(jn.Threshold, &n.Threshold); err != nil {
		return errors.NewModelError("LoadFromJSON", "invalid threshold", err)
	}
	return nil
}
