//go:build !cgo

package desktop

import (
	"fmt"

	"github.com/ironsheep/region-tools-mcp/internal/platform"
)

// New reports ErrUnavailable: this binary was built without cgo.
func New() (platform.Platform, error) {
	return nil, fmt.Errorf("%w: built without cgo", ErrUnavailable)
}
