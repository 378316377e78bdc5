package config

import (
	"strings"
)

// Flag is a boolean that is true only when the raw value is exactly "1".
// Any other value, including "true", decodes to false.
type Flag bool

// EnvDecode satisfies envconfig.Decoder.
func (f *Flag) EnvDecode(val string) error {
	*f = Flag(strings.TrimSpace(val) == "1")
	return nil
}

// List is a comma-separated value. Items are trimmed and blanks are dropped,
// so "a, ,b," decodes to [a b] and "" decodes to an empty list.
type List []string

// EnvDecode satisfies envconfig.Decoder.
func (l *List) EnvDecode(val string) error {
	*l = splitList(val)
	return nil
}

// Contains reports whether v is one of the list items.
func (l List) Contains(v string) bool {
	for _, item := range l {
		if item == v {
			return true
		}
	}
	return false
}

func splitList(val string) List {
	out := List{}
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (l List) clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	copy(out, l)
	return out
}
