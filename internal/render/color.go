package render

import (
	"image/color"
	"strconv"
	"strings"
)

// ParseColor reads #rgb, #rrggbb or #rrggbbaa. Anything else yields opaque
// black, the default ink.
func ParseColor(s string) color.NRGBA {
	black := color.NRGBA{A: 0xff}
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) == 6 {
		s += "ff"
	}
	if len(s) != 8 {
		return black
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return black
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
}

// FormatColor renders c as #rrggbb, or #rrggbbaa when it is translucent.
func FormatColor(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	if n.A == 0xff {
		return "#" + hex2(n.R) + hex2(n.G) + hex2(n.B)
	}
	return "#" + hex2(n.R) + hex2(n.G) + hex2(n.B) + hex2(n.A)
}

func hex2(b uint8) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[b>>4], digits[b&0x0f]})
}
