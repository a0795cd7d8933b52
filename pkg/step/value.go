package step

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind identifies the variant held by a Value
type ValueKind int

const (
	Null    ValueKind = iota // $
	Derived                  // *
	Ref                      // #123
	String                   // 'text'
	Number                   // 1.5, 42
	Enum                     // .TRUE.
	Binary                   // "0F1A"
	List                     // (a, b)
	Typed                    // IFCLABEL('x')
)

func (k ValueKind) String() string {
	return [...]string{"null", "derived", "ref", "string", "number", "enum", "binary", "list", "typed"}[k]
}

// Value is one attribute of an entity instance
type Value struct {
	Kind  ValueKind
	Ref   int
	Str   string // string, enum and binary contents, typed value type name
	Num   float64
	Items []Value // list items, or the single wrapped value of a typed value
}

// IsNull reports whether the value is $ or *
func (v Value) IsNull() bool {
	return v.Kind == Null || v.Kind == Derived
}

// AsRef returns the referenced express ID
func (v Value) AsRef() (int, bool) {
	if v.Kind == Ref {
		return v.Ref, true
	}
	return 0, false
}

// AsRefs returns every reference in a list value (or the single reference)
func (v Value) AsRefs() []int {
	switch v.Kind {
	case Ref:
		return []int{v.Ref}
	case List:
		refs := make([]int, 0, len(v.Items))
		for _, it := range v.Items {
			if id, ok := it.AsRef(); ok {
				refs = append(refs, id)
			}
		}
		return refs
	}
	return nil
}

// AsFloat returns a number, unwrapping typed measures such as IFCNORMALISEDRATIOMEASURE(0.5)
func (v Value) AsFloat() (float64, bool) {
	switch v.Kind {
	case Number:
		return v.Num, true
	case Typed:
		if len(v.Items) == 1 {
			return v.Items[0].AsFloat()
		}
	}
	return 0, false
}

// AsString returns string or enum contents, unwrapping typed labels
func (v Value) AsString() (string, bool) {
	switch v.Kind {
	case String, Enum:
		return v.Str, true
	case Typed:
		if len(v.Items) == 1 {
			return v.Items[0].AsString()
		}
	}
	return "", false
}

func (v Value) String() string {
	switch v.Kind {
	case Null:
		return "$"
	case Derived:
		return "*"
	case Ref:
		return "#" + strconv.Itoa(v.Ref)
	case String:
		return "'" + strings.ReplaceAll(v.Str, "'", "''") + "'"
	case Number:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case Enum:
		return "." + v.Str + "."
	case Binary:
		return `"` + v.Str + `"`
	case List:
		parts := make([]string, len(v.Items))
		for i, it := range v.Items {
			parts[i] = it.String()
		}
		return "(" + strings.Join(parts, ",") + ")"
	case Typed:
		parts := make([]string, len(v.Items))
		for i, it := range v.Items {
			parts[i] = it.String()
		}
		return v.Str + "(" + strings.Join(parts, ",") + ")"
	}
	return fmt.Sprintf("<%d>", v.Kind)
}
