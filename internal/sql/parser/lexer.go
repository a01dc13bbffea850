package parser

import (
	"fmt"
	"strings"
	"unicode"
)

// Lexer splits SQL text into tokens. Unquoted identifiers and keywords are
// case-insensitive; identifiers are folded to lower case.
type Lexer struct {
	src    string
	pos    int
	line   int
	column int
}

// NewLexer creates a lexer over src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1, column: 1}
}

var punctuation = map[byte]TokenType{
	'(': TokenLeftParen,
	')': TokenRightParen,
	',': TokenComma,
	';': TokenSemicolon,
	'.': TokenDot,
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenStar,
	'/': TokenSlash,
	'%': TokenPercent,
	'=': TokenEqual,
	'<': TokenLess,
	'>': TokenGreater,
}

var operators = map[string]TokenType{
	"<=": TokenLessEqual,
	">=": TokenGreaterEqual,
	"<>": TokenNotEqual,
	"!=": TokenNotEqual,
}

// NextToken returns the next token. At the end of input it keeps returning
// TokenEOF; malformed input yields a TokenError whose Value is the message.
func (l *Lexer) NextToken() Token {
	if msg := l.skipTrivia(); msg != "" {
		return l.token(TokenError, msg)
	}
	if l.pos >= len(l.src) {
		return l.token(TokenEOF, "")
	}

	if l.pos+1 < len(l.src) {
		if typ, ok := operators[l.src[l.pos:l.pos+2]]; ok {
			return l.emit(typ, 2)
		}
	}

	ch := l.src[l.pos]
	if typ, ok := punctuation[ch]; ok {
		return l.emit(typ, 1)
	}

	switch {
	case ch == '\'':
		return l.quoted('\'', TokenString, "unterminated string literal")
	case ch == '"':
		return l.quoted('"', TokenIdentifier, "unterminated quoted identifier")
	case isIdentStart(ch):
		return l.word()
	case isDigit(ch):
		return l.number()
	}
	return l.token(TokenError, fmt.Sprintf("unexpected character %q", ch))
}

// skipTrivia consumes whitespace, "--" line comments and "/* */" block
// comments. It returns an error message for an unclosed block comment.
func (l *Lexer) skipTrivia() string {
	for l.pos < len(l.src) {
		switch rest := l.src[l.pos:]; {
		case unicode.IsSpace(rune(rest[0])):
			l.advance(1)
		case strings.HasPrefix(rest, "--"):
			end := strings.IndexByte(rest, '\n')
			if end < 0 {
				end = len(rest)
			}
			l.advance(end)
		case strings.HasPrefix(rest, "/*"):
			end := strings.Index(rest[2:], "*/")
			if end < 0 {
				l.advance(len(rest))
				return "unterminated block comment"
			}
			l.advance(end + 4)
		default:
			return ""
		}
	}
	return ""
}

// advance moves n bytes forward, tracking line and column.
func (l *Lexer) advance(n int) {
	for i := 0; i < n && l.pos < len(l.src); i++ {
		if l.src[l.pos] == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
		l.pos++
	}
}

func (l *Lexer) token(typ TokenType, value string) Token {
	return Token{Type: typ, Value: value, Line: l.line, Column: l.column}
}

// emit returns the next n bytes as a token of type typ.
func (l *Lexer) emit(typ TokenType, n int) Token {
	tok := l.token(typ, l.src[l.pos:l.pos+n])
	l.advance(n)
	return tok
}

func (l *Lexer) span(accept func(byte) bool) string {
	start := l.pos
	for l.pos < len(l.src) && accept(l.src[l.pos]) {
		l.advance(1)
	}
	return l.src[start:l.pos]
}

func (l *Lexer) word() Token {
	tok := l.token(TokenIdentifier, "")
	text := l.span(isIdentPart)
	if typ := LookupKeyword(strings.ToUpper(text)); typ != TokenIdentifier {
		tok.Type, tok.Value = typ, text
		return tok
	}
	tok.Value = strings.ToLower(text)
	return tok
}

// number reads digits with at most one fractional part. A trailing dot
// that is not followed by a digit is left for the parser.
func (l *Lexer) number() Token {
	tok := l.token(TokenNumber, "")
	start := l.pos
	l.span(isDigit)
	if l.pos+1 < len(l.src) && l.src[l.pos] == '.' && isDigit(l.src[l.pos+1]) {
		l.advance(1)
		l.span(isDigit)
	}
	tok.Value = l.src[start:l.pos]
	return tok
}

// quoted reads text up to the closing quote. A doubled quote stands for
// one literal quote character; quoted text may not span lines.
func (l *Lexer) quoted(quote byte, typ TokenType, unterminated string) Token {
	tok := l.token(typ, "")
	l.advance(1)

	var b strings.Builder
	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		if ch == '\n' {
			break
		}
		if ch != quote {
			b.WriteByte(ch)
			l.advance(1)
			continue
		}
		if l.pos+1 < len(l.src) && l.src[l.pos+1] == quote {
			b.WriteByte(quote)
			l.advance(2)
			continue
		}
		l.advance(1)
		tok.Value = b.String()
		return tok
	}
	tok.Type, tok.Value = TokenError, unterminated
	return tok
}

func isDigit(ch byte) bool { return '0' <= ch && ch <= '9' }

func isIdentStart(ch byte) bool {
	return ch == '_' || unicode.IsLetter(rune(ch))
}

func isIdentPart(ch byte) bool { return isIdentStart(ch) || isDigit(ch) }
