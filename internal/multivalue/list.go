package multivalue

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// List is an ordered sequence of header or query values. Duplicates are
// allowed and insertion order is preserved. A List is immutable once built;
// the zero value is an empty list.
type List struct {
	values []string
}

// New creates a List holding a copy of the given values
func New(values ...string) List {
	if len(values) == 0 {
		return List{}
	}
	cp := make([]string, len(values))
	copy(cp, values)
	return List{values: cp}
}

// Len returns the number of values in the list
func (l List) Len() int {
	return len(l.values)
}

// IsEmpty reports whether the list holds no values
func (l List) IsEmpty() bool {
	return len(l.values) == 0
}

// First returns the first value, if any
func (l List) First() (string, bool) {
	if len(l.values) == 0 {
		return "", false
	}
	return l.values[0], true
}

// Values returns a copy of the values; never nil
func (l List) Values() []string {
	cp := make([]string, len(l.values))
	copy(cp, l.values)
	return cp
}

// Contains reports whether the list holds value
func (l List) Contains(value string) bool {
	for _, v := range l.values {
		if v == value {
			return true
		}
	}
	return false
}

// Append returns a new List with values added after the existing ones
func (l List) Append(values ...string) List {
	out := make([]string, 0, len(l.values)+len(values))
	out = append(out, l.values...)
	out = append(out, values...)
	return List{values: out}
}

// String joins the values with a comma, as a single header line would
func (l List) String() string {
	return strings.Join(l.values, ",")
}

// MarshalJSON always encodes the list as an array
func (l List) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Values())
}

// UnmarshalJSON accepts either a single string or an array of strings
func (l *List) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = New(single)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("value list must be a string or an array of strings: %w", err)
	}
	*l = New(many...)
	return nil
}

// UnmarshalYAML accepts either a scalar or a sequence of scalars
func (l *List) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = New(node.Value)
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := node.Decode(&many); err != nil {
			return err
		}
		*l = New(many...)
		return nil
	default:
		return fmt.Errorf("line %d: value list must be a scalar or a sequence", node.Line)
	}
}
