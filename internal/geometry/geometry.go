package geometry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrGeometryParse = errors.New("malformed geometry")

// Geometry is a window size and position, written WxH+X+Y.
type Geometry struct {
	Width, Height int
	X, Y          int
}

func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", g.Width, g.Height, g.X, g.Y)
}

// Parse reads a WxH+X+Y string. Negative offsets (WxH-X-Y) are accepted.
func Parse(s string) (Geometry, error) {
	s = strings.TrimSpace(s)
	sizeEnd := strings.IndexAny(s, "+-")
	if sizeEnd < 0 {
		return Geometry{}, fmt.Errorf("%w: %q", ErrGeometryParse, s)
	}

	w, h, ok := strings.Cut(s[:sizeEnd], "x")
	if !ok {
		return Geometry{}, fmt.Errorf("%w: %q", ErrGeometryParse, s)
	}
	width, err := strconv.Atoi(w)
	if err != nil || width < 0 {
		return Geometry{}, fmt.Errorf("%w: width in %q", ErrGeometryParse, s)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height < 0 {
		return Geometry{}, fmt.Errorf("%w: height in %q", ErrGeometryParse, s)
	}

	rest := s[sizeEnd:]
	ySign := strings.LastIndexAny(rest, "+-")
	if ySign > 0 && rest[ySign] == '-' && rest[ySign-1] == '+' {
		ySign-- // "+-5" as written by some window managers
	}
	if ySign <= 0 {
		return Geometry{}, fmt.Errorf("%w: offsets in %q", ErrGeometryParse, s)
	}
	x, err := parseOffset(rest[:ySign])
	if err != nil {
		return Geometry{}, fmt.Errorf("%w: x in %q", ErrGeometryParse, s)
	}
	y, err := parseOffset(rest[ySign:])
	if err != nil {
		return Geometry{}, fmt.Errorf("%w: y in %q", ErrGeometryParse, s)
	}

	return Geometry{Width: width, Height: height, X: x, Y: y}, nil
}

func parseOffset(s string) (int, error) {
	if len(s) < 2 {
		return 0, ErrGeometryParse
	}
	v, err := strconv.Atoi(s[1:])
	if err != nil {
		return 0, ErrGeometryParse
	}
	if s[0] == '-' {
		if v < 0 {
			return 0, ErrGeometryParse
		}
		return -v, nil
	}
	return v, nil
}
