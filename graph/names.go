package graph

// IsNameBaseChar reports whether r is a Turtle PN_CHARS_BASE character.
func IsNameBaseChar(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		return true
	case r >= 0x00C0 && r <= 0x00D6, r >= 0x00D8 && r <= 0x00F6, r >= 0x00F8 && r <= 0x02FF:
		return true
	case r >= 0x0370 && r <= 0x037D, r >= 0x037F && r <= 0x1FFF:
		return true
	case r >= 0x200C && r <= 0x200D, r >= 0x2070 && r <= 0x218F, r >= 0x2C00 && r <= 0x2FEF:
		return true
	case r >= 0x3001 && r <= 0xD7FF, r >= 0xF900 && r <= 0xFDCF, r >= 0xFDF0 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0xEFFFF:
		return true
	}
	return false
}

// IsNameStartChar reports whether r is a Turtle PN_CHARS_U character.
func IsNameStartChar(r rune) bool {
	return r == '_' || IsNameBaseChar(r)
}

// IsNameChar reports whether r is a Turtle PN_CHARS character.
func IsNameChar(r rune) bool {
	switch {
	case IsNameStartChar(r), r == '-', r >= '0' && r <= '9', r == 0x00B7:
		return true
	case r >= 0x0300 && r <= 0x036F, r >= 0x203F && r <= 0x2040:
		return true
	}
	return false
}
