package bmd

import (
	"fmt"
	"strings"

	"mu-skeleton/internal/mathutil"
	"mu-skeleton/internal/skeleton"
)

// Load parses a BMD file and builds a skeleton from its bind pose.
func Load(path string, opts ...skeleton.Option) (*skeleton.Skeleton, error) {
	m, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Build(m, opts...)
}

// Build creates a skeleton from a parsed model. Bone names are sanitised to
// satisfy the skeleton's naming rules. Dummy bones are kept as disabled
// placeholders with their rest skipped so bone indices match the file.
func Build(m *Model, opts ...skeleton.Option) (*skeleton.Skeleton, error) {
	s := skeleton.New(opts...)

	used := make(map[string]bool, len(m.Bones))
	for i, b := range m.Bones {
		name := boneName(b, i, used)
		if err := s.AddBone(name); err != nil {
			return nil, fmt.Errorf("bmd: bone %d: %w", i, err)
		}
		used[name] = true
	}

	for i, b := range m.Bones {
		if b.IsDummy {
			if err := s.SetBoneEnabled(i, false); err != nil {
				return nil, err
			}
			if err := s.SetBoneDisableRest(i, true); err != nil {
				return nil, err
			}
			continue
		}

		// Local transform: rotation from Euler + translation
		q := mathutil.EulerToQuat(b.BindRotation[0], b.BindRotation[1], b.BindRotation[2])
		rest := mathutil.NewTransform(mathutil.QuatToMat3(q), mathutil.Vec3(b.BindPosition))
		if err := s.SetBoneRest(i, rest); err != nil {
			return nil, err
		}

		// Parents outside the bone table stay roots, as the renderer treats them.
		if b.Parent >= 0 && b.Parent < len(m.Bones) {
			if err := s.SetBoneParent(i, b.Parent); err != nil {
				return nil, err
			}
		}
	}

	return s, nil
}

func boneName(b Bone, i int, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		if r == ':' || r == '/' {
			return '_'
		}
		return r
	}, strings.TrimSpace(b.Name))
	if name == "" {
		if b.IsDummy {
			name = fmt.Sprintf("dummy_%d", i)
		} else {
			name = fmt.Sprintf("bone_%d", i)
		}
	}

	candidate := name
	for n := 1; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s_%d", name, n)
	}
	return candidate
}
