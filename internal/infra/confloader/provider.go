package confloader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/maps"
)

// ErrReadBytesNotSupported is returned by the override provider, which only serves parsed maps.
var ErrReadBytesNotSupported = errors.New("confloader: overrides have no byte form")

// overrides is a koanf provider over dotted keys set on the command line.
// They are applied last and win over the file and environment.
type overrides map[string]any

func (o overrides) ReadBytes() ([]byte, error) {
	return nil, ErrReadBytesNotSupported
}

func (o overrides) Read() (map[string]any, error) {
	return maps.Unflatten(o, "."), nil
}

// ParseOverride splits a "section.key=value" flag argument.
func ParseOverride(arg string) (string, string, error) {
	key, value, ok := strings.Cut(arg, "=")
	key = strings.ToLower(strings.TrimSpace(key))
	if !ok || key == "" || strings.HasPrefix(key, ".") || strings.HasSuffix(key, ".") {
		return "", "", fmt.Errorf("confloader: override %q must be key=value", arg)
	}
	return key, value, nil
}
