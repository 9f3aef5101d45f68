package localefile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/minios-linux/sitetext/locale"
)

// scanner walks locale module source. It understands just enough of the
// module syntax to locate the declaration, canonicalize the object literal
// and verify the export.
type scanner struct {
	src []byte
	pos int
}

func (s *scanner) fail(err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		return err
	}
	line := 1 + bytes.Count(s.src[:min(s.pos, len(s.src))], []byte{'\n'})
	return &ParseError{Line: line, Err: err}
}

func (s *scanner) eof() bool { return s.pos >= len(s.src) }

func (s *scanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) peekAt(off int) byte {
	if s.pos+off >= len(s.src) {
		return 0
	}
	return s.src[s.pos+off]
}

// skipSpace skips whitespace and comments.
func (s *scanner) skipSpace() error {
	for !s.eof() {
		c := s.src[s.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			s.pos++
		case c == '/' && s.peekAt(1) == '/':
			for !s.eof() && s.src[s.pos] != '\n' {
				s.pos++
			}
		case c == '/' && s.peekAt(1) == '*':
			end := bytes.Index(s.src[s.pos+2:], []byte("*/"))
			if end < 0 {
				return fmt.Errorf("unterminated block comment")
			}
			s.pos += end + 4
		default:
			return nil
		}
	}
	return nil
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= utf8.RuneSelf
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// ident reads an identifier, returning "" when none starts at pos.
func (s *scanner) ident() string {
	if s.eof() || !isIdentStart(s.src[s.pos]) {
		return ""
	}
	start := s.pos
	for !s.eof() && isIdentPart(s.src[s.pos]) {
		s.pos++
	}
	return string(s.src[start:s.pos])
}

func (s *scanner) expect(c byte) error {
	if err := s.skipSpace(); err != nil {
		return err
	}
	if s.peek() != c {
		return fmt.Errorf("expected %q, found %s", c, s.describe())
	}
	s.pos++
	return nil
}

func (s *scanner) describe() string {
	if s.eof() {
		return "end of file"
	}
	r, _ := utf8.DecodeRune(s.src[s.pos:])
	return strconv.QuoteRune(r)
}

// declaration reads "[export] const|let|var NAME [: Type] =" and leaves pos
// on the opening brace.
func (s *scanner) declaration() (name string, exported bool, err error) {
	if err := s.skipSpace(); err != nil {
		return "", false, err
	}
	kw := s.ident()
	if kw == "export" {
		exported = true
		if err := s.skipSpace(); err != nil {
			return "", false, err
		}
		kw = s.ident()
	}
	if kw != "const" && kw != "let" && kw != "var" {
		return "", false, fmt.Errorf("expected a const, let or var declaration")
	}

	if err := s.skipSpace(); err != nil {
		return "", false, err
	}
	name = s.ident()
	if name == "" {
		return "", false, fmt.Errorf("expected declaration name, found %s", s.describe())
	}

	if err := s.skipSpace(); err != nil {
		return "", false, err
	}
	if s.peek() == ':' {
		s.pos++
		if err := s.skipTypeUntil('='); err != nil {
			return "", false, err
		}
	}
	if err := s.expect('='); err != nil {
		return "", false, err
	}
	if err := s.skipSpace(); err != nil {
		return "", false, err
	}
	if s.peek() != '{' {
		return "", false, fmt.Errorf("%s must be initialized with an object literal", name)
	}
	return name, exported, nil
}

// skipTypeUntil skips a type expression up to stop at nesting depth zero.
func (s *scanner) skipTypeUntil(stop byte) error {
	depth := 0
	for !s.eof() {
		if err := s.skipSpace(); err != nil {
			return err
		}
		c := s.peek()
		switch {
		case c == stop && depth == 0:
			return nil
		case c == '<' || c == '(' || c == '[' || c == '{':
			depth++
		case c == '>' || c == ')' || c == ']' || c == '}':
			depth--
		case c == '"' || c == '\'' || c == '`':
			if _, err := s.str(); err != nil {
				return err
			}
			continue
		}
		s.pos++
	}
	return fmt.Errorf("unexpected end of file in type annotation")
}

// object canonicalizes the object literal at pos into JSON and leaves pos
// after the closing brace.
func (s *scanner) object() ([]byte, error) {
	s.pos++ // opening brace
	var out bytes.Buffer
	out.WriteByte('{')
	first := true

	for {
		if err := s.skipSpace(); err != nil {
			return nil, err
		}
		if s.peek() == '}' {
			s.pos++
			out.WriteByte('}')
			return out.Bytes(), nil
		}

		key, err := s.key()
		if err != nil {
			return nil, err
		}
		if err := locale.ValidateKey(key); err != nil {
			return nil, err
		}
		if err := s.expect(':'); err != nil {
			return nil, err
		}
		if err := s.skipSpace(); err != nil {
			return nil, err
		}
		value, err := s.value(key)
		if err != nil {
			return nil, err
		}

		if !first {
			out.WriteByte(',')
		}
		first = false
		writeJSON(&out, key)
		out.WriteByte(':')
		writeJSON(&out, value)

		if err := s.skipSpace(); err != nil {
			return nil, err
		}
		switch s.peek() {
		case ',':
			s.pos++
		case '}':
		default:
			return nil, fmt.Errorf("expected ',' or '}' after value of %q, found %s", key, s.describe())
		}
	}
}

func writeJSON(b *bytes.Buffer, v string) {
	data, _ := json.Marshal(v)
	b.Write(data)
}

func (s *scanner) key() (string, error) {
	c := s.peek()
	switch {
	case c == '"' || c == '\'':
		return s.str()
	case c == '[':
		return "", fmt.Errorf("computed keys are not supported")
	case c == '.' && s.peekAt(1) == '.' && s.peekAt(2) == '.':
		return "", fmt.Errorf("spread elements are not supported")
	case c >= '0' && c <= '9':
		start := s.pos
		for !s.eof() && (isIdentPart(s.src[s.pos]) || s.src[s.pos] == '.') {
			s.pos++
		}
		return string(s.src[start:s.pos]), nil
	case isIdentStart(c):
		return s.ident(), nil
	}
	return "", fmt.Errorf("expected key, found %s", s.describe())
}

// value reads a string literal. Anything else is reported as a
// *locale.ValueError naming the key.
func (s *scanner) value(key string) (string, error) {
	c := s.peek()
	switch {
	case c == '"' || c == '\'' || c == '`':
		return s.str()
	case c == '{':
		return "", &locale.ValueError{Key: key, Got: "object"}
	case c == '[':
		return "", &locale.ValueError{Key: key, Got: "array"}
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return "", &locale.ValueError{Key: key, Got: "number"}
	case isIdentStart(c):
		start := s.pos
		word := s.ident()
		s.pos = start
		switch word {
		case "true", "false":
			return "", &locale.ValueError{Key: key, Got: "boolean " + word}
		case "null", "undefined":
			return "", &locale.ValueError{Key: key, Got: word}
		}
		return "", &locale.ValueError{Key: key, Got: "expression " + strconv.Quote(word)}
	}
	return "", fmt.Errorf("expected value for %q, found %s", key, s.describe())
}

// str decodes a quoted string literal at pos.
func (s *scanner) str() (string, error) {
	q := s.src[s.pos]
	s.pos++
	var b bytes.Buffer
	for {
		if s.eof() {
			return "", fmt.Errorf("unterminated string")
		}
		c := s.src[s.pos]
		switch {
		case c == q:
			s.pos++
			return b.String(), nil
		case c == '\\':
			if err := s.escape(&b); err != nil {
				return "", err
			}
		case q != '`' && (c == '\n' || c == '\r'):
			return "", fmt.Errorf("unterminated string")
		case q == '`' && c == '$' && s.peekAt(1) == '{':
			return "", fmt.Errorf("template interpolation is not supported")
		default:
			b.WriteByte(c)
			s.pos++
		}
	}
}

func (s *scanner) escape(b *bytes.Buffer) error {
	s.pos++ // backslash
	if s.eof() {
		return fmt.Errorf("unterminated string")
	}
	e := s.src[s.pos]
	s.pos++
	switch e {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case '0':
		if c := s.peek(); c >= '0' && c <= '9' {
			return fmt.Errorf("octal escapes are not supported")
		}
		b.WriteByte(0)
	case '\n':
		// line continuation
	case '\r':
		if s.peek() == '\n' {
			s.pos++
		}
	case 'x':
		r, err := s.hex(2)
		if err != nil {
			return err
		}
		b.WriteRune(r)
	case 'u':
		r, err := s.unicodeEscape()
		if err != nil {
			return err
		}
		if utf16.IsSurrogate(r) && s.peek() == '\\' && s.peekAt(1) == 'u' {
			save := s.pos
			s.pos += 2
			if r2, err := s.unicodeEscape(); err == nil {
				if dec := utf16.DecodeRune(r, r2); dec != utf8.RuneError {
					b.WriteRune(dec)
					return nil
				}
			}
			s.pos = save
		}
		b.WriteRune(r)
	default:
		// Identity escape: \' \" \\ \` and any other character.
		b.WriteByte(e)
	}
	return nil
}

func (s *scanner) unicodeEscape() (rune, error) {
	if s.peek() != '{' {
		return s.hex(4)
	}
	s.pos++
	end := bytes.IndexByte(s.src[s.pos:], '}')
	if end <= 0 || end > 6 {
		return 0, fmt.Errorf("invalid unicode escape")
	}
	v, err := strconv.ParseUint(string(s.src[s.pos:s.pos+end]), 16, 32)
	if err != nil || v > utf8.MaxRune {
		return 0, fmt.Errorf("invalid unicode escape")
	}
	s.pos += end + 1
	return rune(v), nil
}

func (s *scanner) hex(n int) (rune, error) {
	if s.pos+n > len(s.src) {
		return 0, fmt.Errorf("invalid escape sequence")
	}
	v, err := strconv.ParseUint(string(s.src[s.pos:s.pos+n]), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid escape sequence")
	}
	s.pos += n
	return rune(v), nil
}

// trailer checks what follows the object literal: optional "as const" or
// "satisfies T" clauses, semicolons and the export of name.
func (s *scanner) trailer(name string, exported bool) error {
	for {
		if err := s.skipSpace(); err != nil {
			return err
		}
		if s.eof() {
			break
		}
		if s.peek() == ';' {
			s.pos++
			continue
		}

		switch word := s.ident(); word {
		case "as", "satisfies":
			s.skipClause()
		case "export":
			found, err := s.exportClause(name)
			if err != nil {
				return err
			}
			exported = exported || found
		case "":
			return fmt.Errorf("unexpected %s after declaration", s.describe())
		default:
			return fmt.Errorf("unexpected %q after declaration", word)
		}
	}

	if !exported {
		return fmt.Errorf("declaration %q is never exported", name)
	}
	return nil
}

// skipClause skips to the end of the current line or statement.
func (s *scanner) skipClause() {
	for !s.eof() {
		c := s.src[s.pos]
		if c == ';' || c == '\n' {
			return
		}
		s.pos++
	}
}

// exportClause reads "default NAME" or "{ a, b as default }" after the
// export keyword and reports whether name is among the exported bindings.
func (s *scanner) exportClause(name string) (bool, error) {
	if err := s.skipSpace(); err != nil {
		return false, err
	}
	if s.peek() != '{' {
		if s.ident() != "default" {
			return false, fmt.Errorf("expected 'export default %s'", name)
		}
		if err := s.skipSpace(); err != nil {
			return false, err
		}
		got := s.ident()
		if got != name {
			return false, fmt.Errorf("export default names %q, expected %q", got, name)
		}
		return true, nil
	}

	s.pos++
	found := false
	for {
		if err := s.skipSpace(); err != nil {
			return false, err
		}
		switch s.peek() {
		case '}':
			s.pos++
			return found, nil
		case ',':
			s.pos++
			continue
		}
		binding := s.ident()
		if binding == "" {
			return false, fmt.Errorf("malformed export list near %s", s.describe())
		}
		if binding == name {
			found = true
		}
		if err := s.skipSpace(); err != nil {
			return false, err
		}
		if save := s.pos; s.ident() == "as" {
			if err := s.skipSpace(); err != nil {
				return false, err
			}
			if s.ident() == "" {
				return false, fmt.Errorf("malformed export alias")
			}
		} else {
			s.pos = save
		}
	}
}
