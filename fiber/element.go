package fiber

import (
	"fmt"
	"reflect"
)

// Props is the attribute/input mapping of an element. Children live on the
// Element itself, not in Props, so shallow comparison never sees them.
type Props map[string]any

// Component produces a single child description from its props. Errors are
// routed to the runtime's OnErrorFunc and never abort the pass.
type Component func(h *Hooks, props Props) (*Element, error)

// Element is an immutable tree description. The reconciler never mutates
// an Element it receives.
type Element struct {
	Type     any    // host tag string or Component
	Key      string // "" means unkeyed
	Props    Props
	Children []any // *Element, string, or numeric leaves
}

// E builds an element description.
func E(typ any, props Props, children ...any) *Element {
	switch typ.(type) {
	case string, Component:
	default:
		panic(fmt.Sprintf("fiber: element type must be a host tag or a Component, got %T", typ))
	}
	return &Element{Type: typ, Props: props, Children: children}
}

// Keyed returns a copy of el carrying the given identity key.
func Keyed(key string, el *Element) *Element {
	out := *el
	out.Key = key
	return &out
}

func typeEqual(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case Component:
		bv, ok := b.(Component)
		return ok && reflect.ValueOf(av).Pointer() == reflect.ValueOf(bv).Pointer()
	}
	return false
}

// valueEqual compares two prop or dependency values. Functions compare by
// identity; other non-comparable values never compare equal.
func valueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if !ta.Comparable() {
		if ta.Kind() == reflect.Func {
			return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
		}
		return false
	}
	return a == b
}

// propsEqual is the shallow, one-level input comparison used for Update
// marking and bailout checks.
func propsEqual(a, b Props) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !valueEqual(av, bv) {
			return false
		}
	}
	return true
}

// childrenSame reports whether two children collections are referentially
// the same (or both empty).
func childrenSame(a, b []any) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return len(a) == len(b) && &a[0] == &b[0]
}

type childDesc struct {
	el     *Element
	text   string
	isText bool
}

// normalizeChildren flattens a children collection into a list of element
// and text descriptions. Nested lists flatten one level, nils are skipped,
// numbers become text leaves.
func normalizeChildren(raw []any) []childDesc {
	out := make([]childDesc, 0, len(raw))
	for _, c := range raw {
		switch v := c.(type) {
		case nil:
		case *Element:
			if v != nil {
				out = append(out, childDesc{el: v})
			}
		case string:
			out = append(out, childDesc{text: v, isText: true})
		case []any:
			out = append(out, normalizeChildren(v)...)
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			out = append(out, childDesc{text: fmt.Sprint(v), isText: true})
		default:
			panic(fmt.Sprintf("fiber: unsupported child type %T", c))
		}
	}
	return out
}
