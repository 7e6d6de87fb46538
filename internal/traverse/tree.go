package traverse

import (
	"bytes"
	"encoding/json"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Tree is the result of a traversal: either a leaf holding one file's token
// IDs or a node holding named children in a fixed order.
type Tree struct {
	leaf    bool
	tokens  []int
	entries []Entry
}

// Entry is one named child of a node.
type Entry struct {
	Name string
	Tree *Tree
}

// Leaf returns a tree holding tokens.
func Leaf(tokens []int) *Tree {
	if tokens == nil {
		tokens = []int{}
	}
	return &Tree{leaf: true, tokens: tokens}
}

// Node returns a tree whose children are entries, in the given order.
func Node(entries ...Entry) *Tree {
	return &Tree{entries: entries}
}

func (t *Tree) add(name string, child *Tree) {
	t.entries = append(t.entries, Entry{Name: name, Tree: child})
}

// IsLeaf reports whether t holds tokens rather than children.
func (t *Tree) IsLeaf() bool { return t != nil && t.leaf }

// Tokens returns the token IDs of a leaf, nil for a node.
func (t *Tree) Tokens() []int {
	if !t.IsLeaf() {
		return nil
	}
	return t.tokens
}

// Entries returns the children of a node, nil for a leaf.
func (t *Tree) Entries() []Entry {
	if t == nil || t.leaf {
		return nil
	}
	return t.entries
}

// Keys returns the child names of a node in order.
func (t *Tree) Keys() []string {
	entries := t.Entries()
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Name
	}
	return keys
}

// Get returns the child called name.
func (t *Tree) Get(name string) (*Tree, bool) {
	for _, e := range t.Entries() {
		if e.Name == name {
			return e.Tree, true
		}
	}
	return nil, false
}

// Count sums the number of tokens over every leaf of t.
func Count(t *Tree) int {
	if t == nil {
		return 0
	}
	if t.leaf {
		return len(t.tokens)
	}
	n := 0
	for _, e := range t.entries {
		n += Count(e.Tree)
	}
	return n
}

// Counts returns a tree of the same shape whose leaves hold a single value:
// the token count of the corresponding leaf in t.
func Counts(t *Tree) *CountTree {
	if t == nil {
		return nil
	}
	if t.leaf {
		return &CountTree{Leaf: true, Count: len(t.tokens)}
	}
	ct := &CountTree{Count: Count(t)}
	for _, e := range t.entries {
		ct.Entries = append(ct.Entries, CountEntry{Name: e.Name, Tree: Counts(e.Tree)})
	}
	return ct
}

// Flatten concatenates the tokens of every leaf in depth-first order.
func Flatten(t *Tree) []int {
	out := make([]int, 0, Count(t))
	var walk func(*Tree)
	walk = func(n *Tree) {
		if n == nil {
			return
		}
		if n.leaf {
			out = append(out, n.tokens...)
			return
		}
		for _, e := range n.entries {
			walk(e.Tree)
		}
	}
	walk(t)
	return out
}

// MarshalJSON writes a leaf as an array and a node as an object whose keys
// keep their traversal order.
func (t *Tree) MarshalJSON() ([]byte, error) {
	if t.IsLeaf() {
		return json.Marshal(t.tokens)
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range t.Entries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := e.Tree.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML renders the same ordered shape as MarshalJSON.
func (t *Tree) MarshalYAML() (any, error) {
	return t.yamlNode(), nil
}

func (t *Tree) yamlNode() *yaml.Node {
	if t.IsLeaf() {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, id := range t.tokens {
			seq.Content = append(seq.Content, intNode(id))
		}
		return seq
	}
	m := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range t.Entries() {
		m.Content = append(m.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Name},
			e.Tree.yamlNode(),
		)
	}
	return m
}

func intNode(v int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(v)}
}

// CountTree mirrors a Tree with token counts instead of token IDs. A node's
// Count is the sum over its subtree.
type CountTree struct {
	Leaf    bool
	Count   int
	Entries []CountEntry
}

// CountEntry is one named child of a CountTree node.
type CountEntry struct {
	Name string
	Tree *CountTree
}

// MarshalJSON writes a leaf as its count and a node as an ordered object.
func (c *CountTree) MarshalJSON() ([]byte, error) {
	if c.Leaf {
		return json.Marshal(c.Count)
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range c.Entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := e.Tree.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML renders the same ordered shape as MarshalJSON.
func (c *CountTree) MarshalYAML() (any, error) {
	return c.yamlNode(), nil
}

func (c *CountTree) yamlNode() *yaml.Node {
	if c.Leaf {
		return intNode(c.Count)
	}
	m := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range c.Entries {
		m.Content = append(m.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Name},
			e.Tree.yamlNode(),
		)
	}
	return m
}
