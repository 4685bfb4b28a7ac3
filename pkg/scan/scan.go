// Package scan tokenizes TeaScript and assembly source text.
//
// Both front ends share the same line model: whitespace separated words,
// ';' comments running to the end of the line, and "name:" label
// definitions. The assembler additionally treats ',' as a separator.
package scan

import (
	"errors"
	"fmt"
	"strconv"
)

type Kind int

const (
	EOF Kind = iota
	Newline
	Word
	Label
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Newline:
		return "NEWLINE"
	case Word:
		return "WORD"
	case Label:
		return "LABEL"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is a view into the source buffer. Text aliases the source and must
// not be modified.
type Token struct {
	Kind Kind
	Text []byte
	Line int
}

func (t Token) String() string {
	return fmt.Sprintf("%d:%s(%q)", t.Line, t.Kind, t.Text)
}

// Rules selects the punctuation differences between the two front ends.
type Rules struct {
	// CommaSeparates makes ',' a word delimiter (assembler operands).
	CommaSeparates bool
}

var (
	TeaScript = Rules{}
	Assembly  = Rules{CommaSeparates: true}
)

type Scanner struct {
	src   []byte
	pos   int
	line  int
	rules Rules
}

func New(src []byte, rules Rules) *Scanner {
	return &Scanner{src: src, line: 1, rules: rules}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r'
}

func (s *Scanner) isDelim(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', ';', ':':
		return true
	case ',':
		return s.rules.CommaSeparates
	}
	return false
}

// Next returns the next token. Comments are skipped; the newline ending a
// comment is still reported.
func (s *Scanner) Next() Token {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case isSpace(c):
			s.pos++
		case c == ',' && s.rules.CommaSeparates:
			s.pos++
		case c == ';':
			for s.pos < len(s.src) && s.src[s.pos] != '\n' {
				s.pos++
			}
		case c == '\n':
			tok := Token{Kind: Newline, Text: s.src[s.pos : s.pos+1], Line: s.line}
			s.pos++
			s.line++
			return tok
		case c == ':':
			// stray colon with no name in front of it
			s.pos++
		default:
			start := s.pos
			for s.pos < len(s.src) && !s.isDelim(s.src[s.pos]) {
				s.pos++
			}
			tok := Token{Kind: Word, Text: s.src[start:s.pos], Line: s.line}
			if s.pos < len(s.src) && s.src[s.pos] == ':' {
				s.pos++
				tok.Kind = Label
			}
			return tok
		}
	}
	return Token{Kind: EOF, Line: s.line}
}

// Statement is either a label definition (Label set) or an instruction
// (Mnemonic set, with its operands).
type Statement struct {
	Line     int
	Label    []byte
	Mnemonic []byte
	Operands [][]byte
}

func (st Statement) IsLabel() bool {
	return st.Label != nil
}

// Statement returns the next label definition or instruction. A label
// does not end the line: "loop: NOP" yields the label, then the NOP.
// ok is false at end of input.
func (s *Scanner) Statement() (st Statement, ok bool) {
	for {
		tok := s.Next()
		switch tok.Kind {
		case EOF:
			return Statement{}, false
		case Newline:
			continue
		case Label:
			return Statement{Line: tok.Line, Label: tok.Text}, true
		}

		st = Statement{Line: tok.Line, Mnemonic: tok.Text}
		for {
			// Operands are read raw: a "name:" in operand position is
			// kept as a word, minus its colon.
			op := s.Next()
			if op.Kind == EOF || op.Kind == Newline {
				return st, true
			}
			st.Operands = append(st.Operands, op.Text)
		}
	}
}

var ErrBadNumber = errors.New("invalid number")

// ParseInt parses a decimal or 0x-prefixed hexadecimal literal with an
// optional sign. Leading zeros do not select octal.
func ParseInt(text []byte) (int64, error) {
	s := string(text)
	neg := false
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}

	base := 10
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
	}
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, fmt.Errorf("%w '%s'", ErrBadNumber, text)
	}

	v, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, fmt.Errorf("%w '%s'", ErrBadNumber, text)
	}
	if neg {
		return -int64(v), nil
	}
	return int64(v), nil
}
