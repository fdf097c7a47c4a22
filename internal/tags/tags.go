package tags

import "strings"

// Tag is a scenario or feature annotation such as "@smoke" or "@retry:3".
type Tag struct {
	Name     string // without the leading @
	Value    string // text after the first ':'
	HasValue bool
}

// Parse splits a raw tag into name and value. The leading @ is optional.
func Parse(raw string) Tag {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "@")
	name, value, ok := strings.Cut(raw, ":")
	return Tag{Name: name, Value: value, HasValue: ok}
}

// Is reports whether the tag has the given name, ignoring case.
func (t Tag) Is(name string) bool {
	return strings.EqualFold(t.Name, strings.TrimPrefix(name, "@"))
}

// String renders the tag without the leading @, e.g. "retry:3".
func (t Tag) String() string {
	if t.HasValue {
		return t.Name + ":" + t.Value
	}
	return t.Name
}

// Set is an ordered collection of tags.
type Set []Tag

// ParseAll parses each raw tag in order.
func ParseAll(raw []string) Set {
	if len(raw) == 0 {
		return nil
	}
	s := make(Set, 0, len(raw))
	for _, r := range raw {
		s = append(s, Parse(r))
	}
	return s
}

// Value returns the value of the first tag named name that carries one.
func (s Set) Value(name string) (string, bool) {
	for _, t := range s {
		if t.HasValue && t.Is(name) {
			return t.Value, true
		}
	}
	return "", false
}

// Has reports whether any tag is named name, with or without a value.
func (s Set) Has(name string) bool {
	for _, t := range s {
		if t.Is(name) {
			return true
		}
	}
	return false
}

// Without returns the tags whose names match none of names.
func (s Set) Without(names ...string) Set {
	var out Set
	for _, t := range s {
		drop := false
		for _, n := range names {
			if t.Is(n) {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, t)
		}
	}
	return out
}

// Strings renders every tag with String.
func (s Set) Strings() []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, len(s))
	for i, t := range s {
		out[i] = t.String()
	}
	return out
}
