// Package scenefile stores skeletons as YAML. Every bone field is written
// and read back through the skeleton's property paths, so the file format
// follows the property table.
package scenefile

import (
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"mu-skeleton/internal/skeleton"
)

// FormatVersion is written to every file. Files with a newer version are rejected.
const FormatVersion = 1

type document struct {
	Version  int          `yaml:"version"`
	Skeleton skeletonNode `yaml:"skeleton"`
}

type skeletonNode struct {
	Bones []map[string]any `yaml:"bones"`
}

// Save writes s to w. Bones appear in index order with fields in property
// table order.
func Save(w io.Writer, s *skeleton.Skeleton) error {
	bones := make([]*yaml.Node, s.BoneCount())
	for i := range bones {
		bones[i] = &yaml.Node{Kind: yaml.MappingNode}
	}

	for _, prop := range s.PropertyList() {
		idx, field, err := skeleton.ParsePropertyPath(prop.Path)
		if err != nil {
			return fmt.Errorf("scenefile: %w", err)
		}
		v, err := s.Get(prop.Path)
		if err != nil {
			return fmt.Errorf("scenefile: %w", err)
		}
		if ids, ok := v.([]skeleton.NodeID); ok && len(ids) == 0 {
			continue
		}

		key := &yaml.Node{Kind: yaml.ScalarNode, Value: field}
		val := &yaml.Node{}
		if err := val.Encode(v); err != nil {
			return fmt.Errorf("scenefile: encode %s: %w", prop.Path, err)
		}
		if prop.Type == skeleton.TypeNodeIDs {
			val.Style = yaml.FlowStyle
		}
		bones[idx].Content = append(bones[idx].Content, key, val)
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	seq := &yaml.Node{Kind: yaml.SequenceNode, Content: bones}
	skel := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		{Kind: yaml.ScalarNode, Value: "bones"}, seq,
	}}
	version := &yaml.Node{}
	if err := version.Encode(FormatVersion); err != nil {
		return err
	}
	root.Content = []*yaml.Node{
		{Kind: yaml.ScalarNode, Value: "version"}, version,
		{Kind: yaml.ScalarNode, Value: "skeleton"}, skel,
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("scenefile: %w", err)
	}
	return enc.Close()
}

// SaveFile writes s to path.
func SaveFile(path string, s *skeleton.Skeleton) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("scenefile: create %s: %w", path, err)
	}
	if err := Save(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads a skeleton from r. All bones are created first so parent
// indices may point forward; the remaining fields are then applied through
// the property setters with their usual validation.
func Load(r io.Reader, opts ...skeleton.Option) (*skeleton.Skeleton, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("scenefile: parse: %w", err)
	}
	if doc.Version > FormatVersion {
		return nil, fmt.Errorf("scenefile: unsupported version %d", doc.Version)
	}

	s := skeleton.New(opts...)
	for i, fields := range doc.Skeleton.Bones {
		if err := s.Set(skeleton.PropertyPath(i, skeleton.FieldName), fields[skeleton.FieldName]); err != nil {
			return nil, fmt.Errorf("scenefile: bone %d: %w", i, err)
		}
	}
	for i, fields := range doc.Skeleton.Bones {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			if k != skeleton.FieldName {
				keys = append(keys, k)
			}
		}
		slices.Sort(keys)
		for _, k := range keys {
			if err := s.Set(skeleton.PropertyPath(i, k), fields[k]); err != nil {
				return nil, fmt.Errorf("scenefile: bone %d: %w", i, err)
			}
		}
	}
	return s, nil
}

// LoadFile reads a skeleton from path.
func LoadFile(path string, opts ...skeleton.Option) (*skeleton.Skeleton, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scenefile: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f, opts...)
}
