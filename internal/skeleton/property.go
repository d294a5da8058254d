package skeleton

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"mu-skeleton/internal/mathutil"
)

// PropertyType names the value type stored at a property path.
type PropertyType string

const (
	TypeString    PropertyType = "string"
	TypeInt       PropertyType = "int"
	TypeBool      PropertyType = "bool"
	TypeTransform PropertyType = "transform"
	TypeNodeIDs   PropertyType = "node_ids"
)

// Bone property fields, addressed as bones/<index>/<field>.
const (
	FieldName          = "name"
	FieldParent        = "parent"
	FieldRest          = "rest"
	FieldEnabled       = "enabled"
	FieldPose          = "pose"
	FieldDisableRest   = "disable_rest"
	FieldBoundChildren = "bound_children"
)

// PropertyInfo describes one enumerable property.
type PropertyInfo struct {
	Path string       `json:"path" yaml:"path"`
	Type PropertyType `json:"type" yaml:"type"`
}

type boneField struct {
	name string
	typ  PropertyType
	get  func(b *bone) any
	set  func(s *Skeleton, idx int, v any) error
}

// boneFields is the fixed field table, in enumeration order. name comes
// first so a serializer replaying the list recreates bones before touching
// their other fields.
var boneFields = []boneField{
	{
		name: FieldName,
		typ:  TypeString,
		get:  func(b *bone) any { return b.name },
		set: func(s *Skeleton, idx int, v any) error {
			var name string
			if err := decodeValue(v, &name); err != nil {
				return err
			}
			if s.bones[idx].name == name {
				return nil
			}
			return fmt.Errorf("skeleton: rename bone %d: %w", idx, ErrReadOnlyProperty)
		},
	},
	{
		name: FieldParent,
		typ:  TypeInt,
		get:  func(b *bone) any { return b.parent },
		set: func(s *Skeleton, idx int, v any) error {
			var parent int
			if err := decodeValue(v, &parent); err != nil {
				return err
			}
			return s.SetBoneParent(idx, parent)
		},
	},
	{
		name: FieldRest,
		typ:  TypeTransform,
		get:  func(b *bone) any { return b.rest },
		set: func(s *Skeleton, idx int, v any) error {
			t, err := decodeTransform(v)
			if err != nil {
				return err
			}
			return s.SetBoneRest(idx, t)
		},
	},
	{
		name: FieldEnabled,
		typ:  TypeBool,
		get:  func(b *bone) any { return b.enabled },
		set: func(s *Skeleton, idx int, v any) error {
			var enabled bool
			if err := decodeValue(v, &enabled); err != nil {
				return err
			}
			return s.SetBoneEnabled(idx, enabled)
		},
	},
	{
		name: FieldPose,
		typ:  TypeTransform,
		get:  func(b *bone) any { return b.pose },
		set: func(s *Skeleton, idx int, v any) error {
			t, err := decodeTransform(v)
			if err != nil {
				return err
			}
			return s.SetBonePose(idx, t)
		},
	},
	{
		name: FieldDisableRest,
		typ:  TypeBool,
		get:  func(b *bone) any { return b.disableRest },
		set: func(s *Skeleton, idx int, v any) error {
			var disable bool
			if err := decodeValue(v, &disable); err != nil {
				return err
			}
			return s.SetBoneDisableRest(idx, disable)
		},
	},
	{
		name: FieldBoundChildren,
		typ:  TypeNodeIDs,
		get: func(b *bone) any {
			out := make([]NodeID, len(b.nodesBound))
			copy(out, b.nodesBound)
			return out
		},
		set: func(s *Skeleton, idx int, v any) error {
			var ids []NodeID
			if err := decodeValue(v, &ids); err != nil {
				return err
			}
			s.bones[idx].nodesBound = nil
			for _, id := range ids {
				if err := s.BindNode(idx, id); err != nil {
					return err
				}
			}
			return nil
		},
	},
}

func lookupField(name string) (boneField, bool) {
	for _, f := range boneFields {
		if f.name == name {
			return f, true
		}
	}
	return boneField{}, false
}

// PropertyPath formats a bone property path.
func PropertyPath(bone int, field string) string {
	return "bones/" + strconv.Itoa(bone) + "/" + field
}

// ParsePropertyPath splits bones/<index>/<field>. The field is not checked.
func ParsePropertyPath(path string) (int, string, error) {
	parts := strings.Split(path, "/")
	if len(parts) != 3 || parts[0] != "bones" {
		return 0, "", fmt.Errorf("skeleton: property %q: %w", path, ErrUnknownProperty)
	}
	idx, err := strconv.Atoi(parts[1])
	if err != nil || idx < 0 {
		return 0, "", fmt.Errorf("skeleton: property %q: bad index: %w", path, ErrUnknownProperty)
	}
	return idx, parts[2], nil
}

// PropertyList enumerates every bone property in bone order, fields in
// table order.
func (s *Skeleton) PropertyList() []PropertyInfo {
	out := make([]PropertyInfo, 0, len(s.bones)*len(boneFields))
	for i := range s.bones {
		for _, f := range boneFields {
			out = append(out, PropertyInfo{Path: PropertyPath(i, f.name), Type: f.typ})
		}
	}
	return out
}

// Get reads the property at path.
func (s *Skeleton) Get(path string) (any, error) {
	idx, name, err := ParsePropertyPath(path)
	if err != nil {
		return nil, err
	}
	f, ok := lookupField(name)
	if !ok {
		return nil, fmt.Errorf("skeleton: property %q: %w", path, ErrUnknownProperty)
	}
	if !s.validIndex(idx) {
		return nil, s.rangeErr("get "+name, idx)
	}
	return f.get(&s.bones[idx]), nil
}

// Set writes the property at path with the same validation as the typed
// setters. Values may be the native type or a loosely typed decoded form
// (float64 for ints, maps for transforms). Setting bones/<count>/name
// appends a new bone.
func (s *Skeleton) Set(path string, value any) error {
	idx, name, err := ParsePropertyPath(path)
	if err != nil {
		return err
	}
	f, ok := lookupField(name)
	if !ok {
		return fmt.Errorf("skeleton: property %q: %w", path, ErrUnknownProperty)
	}

	if name == FieldName && idx == len(s.bones) {
		var boneName string
		if err := decodeValue(value, &boneName); err != nil {
			return err
		}
		return s.AddBone(boneName)
	}
	if !s.validIndex(idx) {
		return s.rangeErr("set "+name, idx)
	}
	if err := f.set(s, idx, value); err != nil {
		return fmt.Errorf("skeleton: set %q: %w", path, err)
	}
	return nil
}

func decodeTransform(v any) (mathutil.Transform, error) {
	switch t := v.(type) {
	case mathutil.Transform:
		return t, nil
	case *mathutil.Transform:
		if t == nil {
			return mathutil.Identity(), fmt.Errorf("nil transform: %w", ErrTypeMismatch)
		}
		return *t, nil
	}
	out := mathutil.Identity()
	if err := decodeValue(v, &out); err != nil {
		return mathutil.Identity(), err
	}
	return out, nil
}

// decodeValue decodes strictly: strings are never coerced to numbers or
// bools, floats only fill integer fields when they are whole, and lists must
// match fixed-size array lengths exactly.
func decodeValue(in, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			exactArrayLengthHook,
			wholeNumberHook,
		),
		ErrorUnused: true,
		Result:      out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("%v: %w", err, ErrTypeMismatch)
	}
	return nil
}

func exactArrayLengthHook(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Array {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Slice, reflect.Array:
		if n := reflect.ValueOf(data).Len(); n != to.Len() {
			return nil, fmt.Errorf("expected %d values, got %d", to.Len(), n)
		}
	}
	return data, nil
}

func wholeNumberHook(from, to reflect.Type, data any) (any, error) {
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return data, nil
	}
	if from.Kind() != reflect.Float32 && from.Kind() != reflect.Float64 {
		return data, nil
	}
	f := reflect.ValueOf(data).Float()
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, fmt.Errorf("%v is not a whole number", f)
	}
	return data, nil
}
