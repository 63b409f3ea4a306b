// Package measurement defines the typed readings collected for host status.
package measurement

import (
	"encoding/json"
	"fmt"
)

// Type groups related subtypes.
type Type string

const (
	TypeOS      Type = "os"
	TypeService Type = "service"
)

// Reading is a single collected value.
type Reading struct {
	value any
}

// Str returns a string reading.
func Str(v string) Reading { return Reading{value: v} }

// Bool returns a boolean reading.
func Bool(v bool) Reading { return Reading{value: v} }

// Int returns an integer reading.
func Int(v int) Reading { return Reading{value: v} }

// Uint returns an unsigned integer reading.
func Uint(v uint64) Reading { return Reading{value: v} }

// Any returns the underlying value.
func (r Reading) Any() any { return r.value }

func (r Reading) String() string { return fmt.Sprint(r.value) }

func (r Reading) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.value)
}

func (r Reading) MarshalYAML() (any, error) {
	return r.value, nil
}

// Subtype is a named set of readings.
type Subtype struct {
	Name string             `json:"subtype" yaml:"subtype"`
	Data map[string]Reading `json:"data" yaml:"data"`
}

// Get returns the reading for key.
func (s *Subtype) Get(key string) (Reading, bool) {
	r, ok := s.Data[key]
	return r, ok
}

// Measurement is the output of one collector.
type Measurement struct {
	Type     Type       `json:"type" yaml:"type"`
	Subtypes []*Subtype `json:"subtypes" yaml:"subtypes"`
}

// GetSubtype returns the subtype named name, or nil.
func (m *Measurement) GetSubtype(name string) *Subtype {
	for _, s := range m.Subtypes {
		if s.Name == name {
			return s
		}
	}
	return nil
}
