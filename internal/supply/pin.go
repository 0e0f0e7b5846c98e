package supply

import (
	"fmt"
	"strings"

	"github.com/VikingOwl91/witness/internal/resolution"
)

// Pin asserts the expected content hash of a dependency.
type Pin struct {
	Coordinate resolution.Coordinate
	Hash       string // lowercase hex
}

func (p Pin) String() string {
	return p.Coordinate.String() + ":" + p.Hash
}

// Exclude exempts a dependency from hash verification. The dependency must
// still be part of the resolved set.
type Exclude struct {
	Coordinate resolution.Coordinate
}

func (e Exclude) String() string {
	return e.Coordinate.String()
}

// Policy is the parsed verify and exclude configuration for one run.
// Entries keep the order they were configured in.
type Policy struct {
	Excludes []Exclude
	Pins     []Pin
}

// ParsePin parses "group:name:hexHash".
func ParsePin(entry string) (Pin, error) {
	fields, err := splitEntry("verify", entry, 3)
	if err != nil {
		return Pin{}, err
	}

	hash, err := ParseHash(fields[2])
	if err != nil {
		return Pin{}, &MalformedPinError{Kind: "verify", Entry: entry, Reason: err.Error()}
	}

	return Pin{
		Coordinate: resolution.Coordinate{Group: fields[0], Name: fields[1]},
		Hash:       hash,
	}, nil
}

// ParseExclude parses "group:name".
func ParseExclude(entry string) (Exclude, error) {
	fields, err := splitEntry("exclude", entry, 2)
	if err != nil {
		return Exclude{}, err
	}
	return Exclude{Coordinate: resolution.Coordinate{Group: fields[0], Name: fields[1]}}, nil
}

// ParsePolicy parses both lists, stopping at the first malformed entry.
func ParsePolicy(verify, exclude []string) (Policy, error) {
	var p Policy
	for _, entry := range exclude {
		e, err := ParseExclude(entry)
		if err != nil {
			return Policy{}, err
		}
		p.Excludes = append(p.Excludes, e)
	}
	for _, entry := range verify {
		pin, err := ParsePin(entry)
		if err != nil {
			return Policy{}, err
		}
		p.Pins = append(p.Pins, pin)
	}
	return p, nil
}

func splitEntry(kind, entry string, want int) ([]string, error) {
	fields := strings.Split(strings.TrimSpace(entry), ":")
	if len(fields) != want {
		return nil, &MalformedPinError{
			Kind:   kind,
			Entry:  entry,
			Reason: fmt.Sprintf("expected %d colon-separated fields, got %d", want, len(fields)),
		}
	}
	for i, f := range fields {
		if f == "" {
			return nil, &MalformedPinError{
				Kind:   kind,
				Entry:  entry,
				Reason: fmt.Sprintf("field %d is empty", i+1),
			}
		}
	}
	return fields, nil
}
