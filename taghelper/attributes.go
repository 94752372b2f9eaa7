package taghelper

import "strings"

// Attribute is a single HTML attribute. Value is empty for
// attributes authored without one.
type Attribute struct {
	Name  string
	Value string
}

// Attributes is an ordered attribute list. Name lookups
// ignore case.
type Attributes []Attribute

// Get returns the value of the first attribute called name.
func (as Attributes) Get(name string) (string, bool) {
	for _, at := range as {
		if strings.EqualFold(at.Name, name) {
			return at.Value, true
		}
	}

	return "", false
}

// Has reports whether an attribute called name exists.
func (as Attributes) Has(name string) bool {
	_, ok := as.Get(name)

	return ok
}

// Set replaces the value of the first attribute called name
// in place, or appends a new one.
func (as *Attributes) Set(name string, value string) {
	for i, at := range *as {
		if strings.EqualFold(at.Name, name) {
			(*as)[i].Value = value

			return
		}
	}

	*as = append(*as, Attribute{Name: name, Value: value})
}

// Remove deletes every attribute called name and reports
// whether any was present.
func (as *Attributes) Remove(name string) bool {
	kept := (*as)[:0]
	removed := false

	for _, at := range *as {
		if strings.EqualFold(at.Name, name) {
			removed = true

			continue
		}

		kept = append(kept, at)
	}

	*as = kept

	return removed
}

// Clone returns a copy that can be modified independently.
func (as Attributes) Clone() Attributes {
	if as == nil {
		return nil
	}

	out := make(Attributes, len(as))
	copy(out, as)

	return out
}
