package reorg

import (
	"path"
	"strconv"
	"strings"
)

// NameProposer proposes non-colliding names for copies. It remembers every
// name it handed out, so two items copied by the same policy never receive
// the same name.
type NameProposer struct {
	proposed map[string]bool
}

// NewNameProposer creates a proposer with an empty history.
func NewNameProposer() *NameProposer {
	return &NameProposer{proposed: make(map[string]bool)}
}

// ProposeName returns a variant of name for which taken reports false and
// that was not proposed before. A trailing number is incremented, otherwise
// "2" is appended. When hasExtension is set the part after the last dot is
// kept as is, so "A.java" becomes "A2.java".
func (n *NameProposer) ProposeName(name string, hasExtension bool, taken func(string) bool) string {
	base, ext := name, ""
	if hasExtension {
		ext = path.Ext(name)
		base = strings.TrimSuffix(name, ext)
	}
	stem, num := splitNumber(base)
	if num < 1 {
		num = 1
	}
	for {
		num++
		candidate := stem + strconv.Itoa(num) + ext
		if n.proposed[candidate] || (taken != nil && taken(candidate)) {
			continue
		}
		n.proposed[candidate] = true
		return candidate
	}
}

// splitNumber splits a trailing decimal number off s. It returns -1 when s has
// no trailing digits.
func splitNumber(s string) (string, int) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) {
		return s, -1
	}
	num, err := strconv.Atoi(s[i:])
	if err != nil {
		return s, -1
	}
	return s[:i], num
}
