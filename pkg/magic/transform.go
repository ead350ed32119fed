package magic

import (
	"strings"

	"github.com/matzehuels/magflat/pkg/errors"
	"github.com/matzehuels/magflat/pkg/geom"
)

// ParseTransform parses a "transform a b c d e f" record into an affine
// transform x' = a*x + b*y + c, y' = d*x + e*y + f.
// Exactly six signed integers must follow the keyword.
func ParseTransform(line string) (geom.Transform, error) {
	line = strings.TrimSpace(line)
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "transform" {
		return geom.Transform{}, errors.New(errors.ErrCodeStructural, "not a transform record: %q", line)
	}
	return transformFields(fields, line)
}

func transformFields(fields []string, line string) (geom.Transform, error) {
	v, ok := ints(fields[1:], 6)
	if !ok {
		return geom.Transform{}, malformed("transform", line)
	}
	return geom.Transform{A: v[0], B: v[1], C: v[2], D: v[3], E: v[4], F: v[5]}, nil
}
