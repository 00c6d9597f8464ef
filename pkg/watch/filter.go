package watch

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Criteria narrows acceptance of a single notification type. A record of the
// matching type is delivered when its subtype is present in the subtype set
// and its masked info bits equal the masked pattern.
type Criteria struct {
	Type Type `yaml:"type" json:"type"`
	// Subtypes lists accepted subtype values. Empty accepts every subtype.
	Subtypes    []uint8 `yaml:"subtypes,omitempty" json:"subtypes,omitempty"`
	InfoMask    uint32  `yaml:"info_mask,omitempty" json:"info_mask,omitempty"`
	InfoPattern uint32  `yaml:"info_pattern,omitempty" json:"info_pattern,omitempty"`
}

// FilterSpec is the user-facing filter description installed on a queue via
// SetFilter. A record type is accepted only if it has a criteria entry; a
// spec with no criteria at all removes the filter, accepting everything.
type FilterSpec struct {
	Criteria []Criteria `yaml:"criteria" json:"criteria"`
}

// ParseFilterSpec decodes and validates a YAML filter description:
//
//	criteria:
//	  - type: 2
//	    subtypes: [0, 1]
//	    info_mask: 0xff00
//	    info_pattern: 0x0100
//	  - type: 3
func ParseFilterSpec(b []byte) (FilterSpec, error) {
	var spec FilterSpec
	if err := yaml.Unmarshal(b, &spec); err != nil {
		return FilterSpec{}, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	if _, err := compileFilter(spec); err != nil {
		return FilterSpec{}, err
	}
	return spec, nil
}

// typeCriteria is the compiled, read-only form of one Criteria entry.
type typeCriteria struct {
	subtypes    [4]uint64
	infoMask    uint32
	infoPattern uint32
}

// TypeFilter is the compiled allow-list a queue consults during delivery.
// It is immutable after compilation; reconfiguring a queue builds and
// installs a fresh instance, so a delivery that already holds the previous
// filter keeps a consistent view.
type TypeFilter struct {
	typeMap  uint64
	criteria [MaxTypes]typeCriteria
}

// compileFilter validates a spec and builds its read-only form. An empty
// spec compiles to nil, the accept-everything filter.
func compileFilter(spec FilterSpec) (*TypeFilter, error) {
	if len(spec.Criteria) == 0 {
		return nil, nil
	}
	f := &TypeFilter{}
	for _, c := range spec.Criteria {
		if c.Type >= MaxTypes {
			return nil, fmt.Errorf("%w: type %d out of range", ErrInvalidFilter, c.Type)
		}
		if f.typeMap&(1<<c.Type) != 0 {
			return nil, fmt.Errorf("%w: duplicate criteria for type %d", ErrInvalidFilter, c.Type)
		}
		f.typeMap |= 1 << c.Type
		tc := &f.criteria[c.Type]
		tc.infoMask = c.InfoMask
		tc.infoPattern = c.InfoPattern
		if len(c.Subtypes) == 0 {
			for i := range tc.subtypes {
				tc.subtypes[i] = ^uint64(0)
			}
			continue
		}
		for _, st := range c.Subtypes {
			tc.subtypes[st>>6] |= 1 << (st & 63)
		}
	}
	return f, nil
}

// Matches reports whether the record passes the filter. It is pure and
// allocation-free. A nil filter accepts everything.
func (f *TypeFilter) Matches(r *Record) bool {
	if f == nil {
		return true
	}
	if r.Type >= MaxTypes || f.typeMap&(1<<r.Type) == 0 {
		return false
	}
	c := &f.criteria[r.Type]
	if c.subtypes[r.Subtype>>6]&(1<<(r.Subtype&63)) == 0 {
		return false
	}
	return r.Info&c.infoMask == c.infoPattern&c.infoMask
}
