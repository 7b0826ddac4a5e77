// Package inspect provides device addressing and display formatting.
//
// The inspect package offers:
//   - Parsing device paths (e.g., "1/kitchen" or "0x2a")
//   - Formatting flows, volumes and registry snapshots for display
//   - A text gauge renderer for the simulator's render loop
package inspect

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hydrosim/hydrosim-go/pkg/registry"
)

// Path errors.
var (
	ErrEmptyPath     = errors.New("empty path")
	ErrInvalidPath   = errors.New("invalid path format")
	ErrInvalidNumber = errors.New("invalid numeric value in path")
)

// Path addresses an owner or one of its devices.
// Format: owner[/key]
type Path struct {
	// Owner is the owner ID.
	Owner registry.OwnerID

	// Key is the device key (empty for owner-only paths).
	Key registry.DeviceKey

	// IsPartial indicates the path names an owner only.
	IsPartial bool

	// Raw stores the original input string.
	Raw string
}

// ParsePath parses a path string into a Path struct.
//
// Supported formats:
//   - "owner/key" - one device
//   - "owner" - partial (for listing an owner's devices)
//
// Owners can be decimal or hex (0x prefix).
func ParsePath(input string) (*Path, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyPath
	}

	if strings.HasPrefix(input, "/") || strings.HasSuffix(input, "/") || strings.Contains(input, "//") {
		return nil, ErrInvalidPath
	}

	parts := strings.Split(input, "/")
	if len(parts) > 2 {
		return nil, ErrInvalidPath
	}

	owner, err := parseOwnerID(parts[0])
	if err != nil {
		return nil, fmt.Errorf("owner: %w", err)
	}

	p := &Path{Owner: owner, Raw: input}
	if len(parts) == 1 {
		p.IsPartial = true
		return p, nil
	}

	p.Key = registry.DeviceKey(parts[1])
	return p, nil
}

// String returns the path as a string.
func (p *Path) String() string {
	var sb strings.Builder

	sb.WriteString(strconv.Itoa(int(p.Owner)))
	if p.IsPartial {
		return sb.String()
	}

	sb.WriteString("/")
	sb.WriteString(string(p.Key))
	return sb.String()
}

// parseOwnerID parses an owner ID from decimal or hex string.
func parseOwnerID(s string) (registry.OwnerID, error) {
	var v int64
	var err error

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err = strconv.ParseInt(s[2:], 16, 32)
	} else {
		v, err = strconv.ParseInt(s, 10, 32)
	}
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidNumber, s)
	}
	return registry.OwnerID(v), nil
}
