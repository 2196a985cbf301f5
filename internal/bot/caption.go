package bot

import (
	"fmt"
	"strconv"
	"strings"

	"tattty/internal/overlay"
)

// ParsePlacement reads "x=40 y=60 size=70 rot=15" style overrides from a photo
// caption. Missing keys keep their defaults; other words are ignored.
func ParsePlacement(caption string) (overlay.Placement, error) {
	p := overlay.DefaultPlacement()

	fields := strings.FieldsFunc(strings.ToLower(caption), func(r rune) bool {
		return r == ' ' || r == ',' || r == ';' || r == '\n' || r == '\t'
	})
	for _, f := range fields {
		key, raw, ok := strings.Cut(f, "=")
		if !ok {
			continue
		}

		var dst *float64
		switch strings.TrimSpace(key) {
		case "x":
			dst = &p.X
		case "y":
			dst = &p.Y
		case "size", "s":
			dst = &p.Size
		case "rot", "rotation", "r":
			dst = &p.Rotation
		default:
			continue
		}

		v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(raw), "%"), 64)
		if err != nil {
			return overlay.Placement{}, fmt.Errorf("invalid %s value %q", key, raw)
		}
		*dst = v
	}

	return p.Normalize(), nil
}
