// Package quality defines common provenance values for reverse-engineered
// IGS configuration data, such as the per-title IGS036 key tables
package quality

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Quality records how much trust to place in a piece of recovered data
type Quality int

// These follow the annotations in the reverse-engineering notes. The zero
// value deliberately carries no claim either way
const (
	Unknown Quality = iota
	Confirmed
	Guess
	Suspect
	Wrong
)

var names = map[Quality]string{
	Unknown:   "Unknown",
	Confirmed: "Confirmed",
	Guess:     "Guess",
	Suspect:   "Suspect",
	Wrong:     "Wrong",
}

func (q Quality) String() string {
	return names[q]
}

// Parse returns the Quality named by s
func Parse(s string) (Quality, error) {
	for q, name := range names {
		if name == s {
			return q, nil
		}
	}
	return Unknown, fmt.Errorf("quality: unknown value %q", s)
}

// MarshalYAML implements the yaml.Marshaler interface
func (q Quality) MarshalYAML() (interface{}, error) {
	return q.String(), nil
}

// UnmarshalYAML implements the yaml.Unmarshaler interface
func (q *Quality) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}

	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*q = parsed

	return nil
}
