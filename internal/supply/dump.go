package supply

import (
	"fmt"
	"io"

	"github.com/VikingOwl91/witness/internal/resolution"
)

// Dump hashes every artifact, in the order given, into pins matching the
// current state. It consults no policy.
func Dump(artifacts []resolution.Artifact) ([]Pin, error) {
	pins := make([]Pin, 0, len(artifacts))
	for _, a := range artifacts {
		sum, err := ComputeFileHash(a.Path)
		if err != nil {
			return nil, &ArtifactUnreadableError{Coordinate: a.Coordinate, Path: a.Path, Err: err}
		}
		pins = append(pins, Pin{Coordinate: a.Coordinate, Hash: sum})
	}
	return pins, nil
}

// WriteVerifyBlock prints pins as a configuration block ready to paste into
// the project's witness.yaml.
func WriteVerifyBlock(w io.Writer, pins []Pin) error {
	if _, err := fmt.Fprintln(w, "dependency_verification:"); err != nil {
		return err
	}
	if len(pins) == 0 {
		_, err := fmt.Fprintln(w, "  verify: []")
		return err
	}
	if _, err := fmt.Fprintln(w, "  verify:"); err != nil {
		return err
	}
	for _, p := range pins {
		if _, err := fmt.Fprintf(w, "    - %q\n", p.String()); err != nil {
			return err
		}
	}
	return nil
}
