package pattern

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrPattern is matched by every *PatternError.
var ErrPattern = errors.New("invalid route pattern")

// PatternError reports a URL template that cannot be compiled.
type PatternError struct {
	Template string
	Reason   string
}

// Error implements the error interface.
func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid route pattern %q: %s", e.Template, e.Reason)
}

// Is reports whether target is ErrPattern.
func (e *PatternError) Is(target error) bool {
	return target == ErrPattern
}

// Params maps parameter names to matched path segments.
type Params = map[string]string

// segmentExpr matches a single non-empty path segment.
const segmentExpr = `([^/]+)`

type tokenKind uint8

const (
	tokenLiteral tokenKind = iota
	tokenParam
)

type token struct {
	kind  tokenKind
	value string // literal text (already unescaped) or parameter name
}

// Pattern is a compiled URL template.
// It is immutable and safe for concurrent use.
type Pattern struct {
	template string
	re       *regexp.Regexp
	names    []string
	tokens   []token
}

// Compile turns a URL template such as "/users/{id}" into a Pattern.
//
// Placeholders are written as {name}. An empty placeholder {} is named by its
// index among the anonymous placeholders ("0", "1", ...). Literal braces are
// written doubled: {{ and }}. A placeholder matches one or more characters
// other than '/', and the whole pattern is anchored to the full URL.
func Compile(tmpl string) (*Pattern, error) {
	tokens, err := tokenize(tmpl)
	if err != nil {
		return nil, err
	}

	var (
		expr  strings.Builder
		names []string
		seen  = make(map[string]bool)
	)
	expr.WriteByte('^')
	for _, tok := range tokens {
		switch tok.kind {
		case tokenLiteral:
			expr.WriteString(regexp.QuoteMeta(tok.value))
		case tokenParam:
			if seen[tok.value] {
				return nil, &PatternError{Template: tmpl, Reason: fmt.Sprintf("parameter %q is used more than once", tok.value)}
			}
			seen[tok.value] = true
			names = append(names, tok.value)
			expr.WriteString(segmentExpr)
		}
	}
	expr.WriteByte('$')

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, &PatternError{Template: tmpl, Reason: err.Error()}
	}
	if re.NumSubexp() != len(names) {
		return nil, &PatternError{Template: tmpl, Reason: "capture group count does not match parameters"}
	}

	return &Pattern{
		template: tmpl,
		re:       re,
		names:    names,
		tokens:   tokens,
	}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(tmpl string) *Pattern {
	p, err := Compile(tmpl)
	if err != nil {
		panic(err)
	}
	return p
}

// tokenize splits a template into literal and placeholder tokens.
// Escaped braces are resolved before placeholders are recognized, so "{{}}"
// is a literal "{}" and never an anonymous placeholder.
func tokenize(tmpl string) ([]token, error) {
	var (
		tokens  []token
		literal strings.Builder
		anon    int
	)

	flush := func() {
		if literal.Len() > 0 {
			tokens = append(tokens, token{kind: tokenLiteral, value: literal.String()})
			literal.Reset()
		}
	}

	for i := 0; i < len(tmpl); {
		switch {
		case strings.HasPrefix(tmpl[i:], "{{"):
			literal.WriteByte('{')
			i += 2
		case strings.HasPrefix(tmpl[i:], "}}"):
			literal.WriteByte('}')
			i += 2
		case tmpl[i] == '{':
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				// Unterminated: the brace is literal.
				literal.WriteByte('{')
				i++
				continue
			}
			name := tmpl[i+1 : i+1+end]
			if strings.ContainsAny(name, "{/") {
				return nil, &PatternError{Template: tmpl, Reason: fmt.Sprintf("invalid parameter name %q", name)}
			}
			if name == "" {
				name = strconv.Itoa(anon)
				anon++
			}
			flush()
			tokens = append(tokens, token{kind: tokenParam, value: name})
			i += end + 2
		default:
			literal.WriteByte(tmpl[i])
			i++
		}
	}
	flush()

	return tokens, nil
}

// Template returns the source template.
func (p *Pattern) Template() string {
	return p.template
}

// Names returns the parameter names in left-to-right order.
func (p *Pattern) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// String returns the compiled regular expression.
func (p *Pattern) String() string {
	return p.re.String()
}

// Match applies the pattern to url. On success it returns the captured
// segments keyed by parameter name.
func (p *Pattern) Match(url string) (Params, bool) {
	groups := p.re.FindStringSubmatch(url)
	if groups == nil {
		return nil, false
	}
	params := make(Params, len(p.names))
	for i, name := range p.names {
		params[name] = groups[i+1]
	}
	return params, true
}

// Build substitutes parameter values into the template in compiled order.
// Parameters for which values reports nothing are rendered as "".
func (p *Pattern) Build(values func(name string) (string, bool)) string {
	var b strings.Builder
	for _, tok := range p.tokens {
		switch tok.kind {
		case tokenLiteral:
			b.WriteString(tok.value)
		case tokenParam:
			if values == nil {
				continue
			}
			if v, ok := values(tok.value); ok {
				b.WriteString(v)
			}
		}
	}
	return b.String()
}
