package pipeline

import (
	"errors"
	"fmt"
)

// ErrUnknownOption is returned when setting or toggling an option that was never declared.
var ErrUnknownOption = errors.New("pipeline: unknown option")

// Options is an ordered set of named boolean options. Iteration follows declaration order
// and the address of each value never changes, so a pass can hold an option's pointer as
// its enable condition.
type Options struct {
	names  []string
	values map[string]*bool
}

// NewOptions creates an empty option set.
func NewOptions() *Options {
	return &Options{values: make(map[string]*bool)}
}

// Declare adds name with value def and returns the stable pointer to its value. Declaring
// an existing name returns the existing pointer and keeps its current value.
//
// Parameters:
//   - name: the option name, also the shader define after spaces become underscores
//   - def: the initial value
//
// Returns:
//   - *bool: the value pointer
func (o *Options) Declare(name string, def bool) *bool {
	if v, ok := o.values[name]; ok {
		return v
	}
	v := new(bool)
	*v = def
	o.names = append(o.names, name)
	o.values[name] = v
	return v
}

// Get returns the value of name and whether it is declared.
func (o *Options) Get(name string) (bool, bool) {
	v, ok := o.values[name]
	if !ok {
		return false, false
	}
	return *v, true
}

// Set assigns value to name.
//
// Returns:
//   - bool: true when the stored value changed
//   - error: ErrUnknownOption for undeclared names
func (o *Options) Set(name string, value bool) (bool, error) {
	v, ok := o.values[name]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownOption, name)
	}
	if *v == value {
		return false, nil
	}
	*v = value
	return true, nil
}

// Names returns every declared name in declaration order.
func (o *Options) Names() []string {
	return append([]string(nil), o.names...)
}

// Enabled returns the names whose value is true, in declaration order.
func (o *Options) Enabled() []string {
	var out []string
	for _, n := range o.names {
		if *o.values[n] {
			out = append(out, n)
		}
	}
	return out
}

// Len returns the number of declared options.
func (o *Options) Len() int {
	return len(o.names)
}
