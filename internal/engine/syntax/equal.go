package syntax

import "strings"

// Equal reports whether a and b are the same expression: same kinds, same
// leaf text and pairwise-equal children. Whitespace and comments are ignored,
// as is the spelling of keywords and of the null/true/false literals, which
// PHP treats case-insensitively. Two absent nodes are equal.
func Equal(a, b Node) bool {
	if a.IsZero() || b.IsZero() {
		return a.IsZero() && b.IsZero()
	}
	if a.Kind() != b.Kind() || a.IsNamed() != b.IsNamed() {
		return false
	}

	ac, bc := a.Children(), b.Children()
	if len(ac) != len(bc) {
		return false
	}
	if len(ac) == 0 {
		switch {
		case !a.IsNamed():
			return true
		case a.Is(KindNull, KindBoolean):
			return strings.EqualFold(a.Text(), b.Text())
		}
		return a.Text() == b.Text()
	}
	for i := range ac {
		if !Equal(ac[i], bc[i]) {
			return false
		}
	}
	return true
}
