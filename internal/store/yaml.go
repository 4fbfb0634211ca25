package store

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/theirongolddev/fburn/internal/model"
)

// ImportStats counts what an import changed.
type ImportStats struct {
	Categories int
	Keywords   int
	Skipped    int
}

// ExportYAML writes the categories as an ordered mapping of name to keyword list.
func (s *Store) ExportYAML(w io.Writer) error {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, c := range s.cats {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		if len(c.Keywords) == 0 {
			seq.Style = yaml.FlowStyle
		}
		for _, kw := range c.Keywords {
			seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: kw})
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: c.Name},
			seq,
		)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return fmt.Errorf("encoding categories: %w", err)
	}
	return enc.Close()
}

// ImportYAML merges a mapping of category to keywords into the store through
// AddCategory and AddKeyword, so every rule for those operations applies.
func (s *Store) ImportYAML(r io.Reader) (ImportStats, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return ImportStats{}, nil
		}
		return ImportStats{}, fmt.Errorf("decoding categories: %w", err)
	}
	if len(doc.Content) == 0 {
		return ImportStats{}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return ImportStats{}, fmt.Errorf("line %d: expected a mapping of category to keywords", root.Line)
	}

	var stats ImportStats
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		name := key.Value

		if name != model.Uncategorized {
			added, err := s.AddCategory(name)
			if err != nil {
				return stats, err
			}
			if added {
				stats.Categories++
			}
		}

		var kws []string
		switch val.Kind {
		case yaml.SequenceNode:
			for _, n := range val.Content {
				if n.Kind != yaml.ScalarNode {
					return stats, fmt.Errorf("line %d: keywords of %q must be strings", n.Line, name)
				}
				kws = append(kws, n.Value)
			}
		case yaml.ScalarNode:
			if val.Tag != "!!null" {
				kws = append(kws, val.Value)
			}
		default:
			return stats, fmt.Errorf("line %d: keywords of %q must be a list", val.Line, name)
		}

		for _, kw := range kws {
			learned, err := s.AddKeyword(name, kw)
			if err != nil {
				return stats, err
			}
			if learned {
				stats.Keywords++
			} else {
				stats.Skipped++
			}
		}
	}
	return stats, nil
}
