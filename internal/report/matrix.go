package report

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// MatrixRow lists the companion runtime versions that paired with one
// primary runtime version.
type MatrixRow struct {
	Primary    string   `json:"primary" yaml:"primary"`
	Companions []string `json:"companions" yaml:"companions"`
}

// Matrix is a compatibility matrix in display order: rows ascending by
// primary version, companions ascending within a row.
type Matrix []MatrixRow

// Pairs returns the number of (primary, companion) entries.
func (m Matrix) Pairs() int {
	n := 0
	for _, row := range m {
		n += len(row.Companions)
	}
	return n
}

// MarshalJSON writes the matrix as an object whose keys keep row order.
func (m Matrix) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, row := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(row.Primary)
		if err != nil {
			return nil, err
		}
		companions := row.Companions
		if companions == nil {
			companions = []string{}
		}
		val, err := json.Marshal(companions)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML writes the matrix as a mapping whose keys keep row order.
// A plain map would be re-sorted by the encoder. Versions are quoted so
// "13.0" stays a string.
func (m Matrix) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, row := range m {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
		for _, c := range row.Companions {
			seq.Content = append(seq.Content, quoted(c))
		}
		node.Content = append(node.Content,
			quoted(row.Primary),
			seq,
		)
	}
	return node, nil
}

func quoted(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s, Style: yaml.DoubleQuotedStyle}
}
