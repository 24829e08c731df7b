package rules

import (
	"github.com/dlclark/regexp2"
)

// ECMAPattern is a formstate.Matcher using ECMAScript regular expression
// semantics, for patterns shared with browser-side forms (lookarounds,
// backreferences).
type ECMAPattern struct {
	re *regexp2.Regexp
}

// ECMAScript compiles pattern with ECMAScript semantics.
func ECMAScript(pattern string) (*ECMAPattern, error) {
	re, err := regexp2.Compile(pattern, regexp2.ECMAScript)
	if err != nil {
		return nil, err
	}
	return &ECMAPattern{re: re}, nil
}

// MustECMAScript is ECMAScript that panics on a bad pattern.
func MustECMAScript(pattern string) *ECMAPattern {
	p, err := ECMAScript(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// MatchString reports whether s contains a match. A match that times out
// counts as no match.
func (p *ECMAPattern) MatchString(s string) bool {
	ok, err := p.re.MatchString(s)
	return err == nil && ok
}

func (p *ECMAPattern) String() string { return p.re.String() }
