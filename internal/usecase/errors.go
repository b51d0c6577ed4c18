package usecase

import (
	"errors"
	"fmt"

	"github.com/jacquetc/qleany-sub001/internal/manifest"
)

var (
	// ErrInvariantViolated reports a store state that should be impossible,
	// such as two Root records.
	ErrInvariantViolated = errors.New("invariant violated")
	// ErrManifestExists is returned by NewManifest when the target file
	// exists and overwriting was not forced.
	ErrManifestExists = errors.New("manifest already exists")
)

// invariant tags store inconsistencies with ErrInvariantViolated.
func invariant(err error) error {
	if errors.Is(err, manifest.ErrRootNotUnique) {
		return fmt.Errorf("%w: %w", ErrInvariantViolated, err)
	}
	return err
}
