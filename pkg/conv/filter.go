package conv

import "strings"

// Filter is a compact include/exclude DSL used for tool and context
// filtering:
//
//	"*"            everything
//	"-*"           nothing
//	"a b"          only a and b
//	"+a, +b"       only a and b (explicit include prefix)
//	"* -a"         everything except a
//	""             nothing (no filter configured)
//
// Tokens are separated by spaces or commas. A "-" prefix excludes, an
// optional "+" prefix includes. Excludes always win over includes.
type Filter string

const (
	// FilterAll allows every name.
	FilterAll Filter = "*"

	// FilterNone allows no names.
	FilterNone Filter = "-*"
)

// IsEmpty reports whether no filter is configured.
func (f Filter) IsEmpty() bool {
	return strings.TrimSpace(string(f)) == ""
}

// IsNone reports whether the filter explicitly allows nothing.
func (f Filter) IsNone() bool {
	return strings.TrimSpace(string(f)) == string(FilterNone)
}

// IsActive reports whether the filter can allow at least one name, i.e. it
// is configured and not the explicit "none" filter.
func (f Filter) IsActive() bool {
	return !f.IsEmpty() && !f.IsNone()
}

// tokens splits the filter into trimmed tokens.
func (f Filter) tokens() []string {
	fields := strings.FieldsFunc(string(f), func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n'
	})
	out := fields[:0]
	for _, t := range fields {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Allows reports whether the named item passes the filter.
func (f Filter) Allows(name string) bool {
	if f.IsEmpty() {
		return false
	}

	all := false
	included := false
	haveIncludes := false
	excluded := false

	for _, tok := range f.tokens() {
		switch {
		case tok == "*":
			all = true
		case tok == "-*":
			return false
		case strings.HasPrefix(tok, "-"):
			if strings.TrimPrefix(tok, "-") == name {
				excluded = true
			}
		default:
			haveIncludes = true
			if strings.TrimPrefix(tok, "+") == name {
				included = true
			}
		}
	}

	if excluded {
		return false
	}
	if haveIncludes {
		return included
	}
	return all
}

// Includes returns the explicit include tokens, prefix stripped.
func (f Filter) Includes() []string {
	var out []string
	for _, tok := range f.tokens() {
		if tok == "*" || tok == "-*" || strings.HasPrefix(tok, "-") {
			continue
		}
		out = append(out, strings.TrimPrefix(tok, "+"))
	}
	return out
}

// Excludes returns the explicit exclude tokens, prefix stripped. The "-*"
// token is not reported here; use IsNone.
func (f Filter) Excludes() []string {
	var out []string
	for _, tok := range f.tokens() {
		if tok == "-*" || !strings.HasPrefix(tok, "-") {
			continue
		}
		out = append(out, strings.TrimPrefix(tok, "-"))
	}
	return out
}
