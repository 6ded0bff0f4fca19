// Package task models the declarative task tree and its evaluator. A tree is
// either a leaf naming an action with parameters, or a combinator over child
// trees: "consistently" runs children in order, "random" picks one uniformly,
// "shuffle" permutes then runs in order.
package task

import (
	"fmt"
	"os"

	clierr "github.com/keremd/chainrunner/internal/errors"
	"gopkg.in/yaml.v3"
)

type Kind int

const (
	Sequence Kind = iota
	RandomChoice
	Shuffle
)

var kindNames = map[string]Kind{
	"consistently": Sequence,
	"random":       RandomChoice,
	"shuffle":      Shuffle,
}

// Node is the tagged union. Action non-empty means leaf; otherwise Kind and
// Children describe a combinator. Immutable once decoded.
type Node struct {
	Action string
	Params map[string]any

	Kind     Kind
	Children []Node
}

func (n Node) IsLeaf() bool { return n.Action != "" }

// UnmarshalYAML decodes the task file shape: a mapping with an `action` key is
// a leaf (remaining keys become its parameters); a sequence whose first scalar
// names a mode is a combinator over the remaining items.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.MappingNode:
		raw := map[string]any{}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		action, _ := raw["action"].(string)
		if action == "" {
			return fmt.Errorf("line %d: task mapping requires a non-empty action", value.Line)
		}
		delete(raw, "action")
		n.Action = action
		n.Params = raw
		return nil
	case yaml.SequenceNode:
		if len(value.Content) == 0 {
			return fmt.Errorf("line %d: empty task group", value.Line)
		}
		var mode string
		if err := value.Content[0].Decode(&mode); err != nil {
			return fmt.Errorf("line %d: task group must start with a mode name", value.Line)
		}
		kind, ok := kindNames[mode]
		if !ok {
			return fmt.Errorf("line %d: unknown task group mode %q", value.Line, mode)
		}
		children := make([]Node, 0, len(value.Content)-1)
		for _, item := range value.Content[1:] {
			var child Node
			if err := item.Decode(&child); err != nil {
				return err
			}
			children = append(children, child)
		}
		n.Action = ""
		n.Kind = kind
		n.Children = children
		return nil
	default:
		return fmt.Errorf("line %d: task node must be a mapping or a sequence", value.Line)
	}
}

// Load reads a task tree from a YAML file.
func Load(path string) (Node, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Node{}, clierr.Wrap(clierr.CodeConfig, "read task file", err)
	}
	var root Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return Node{}, clierr.Wrap(clierr.CodeConfig, "parse task file", err)
	}
	return root, nil
}
