package parser

import "fmt"

// TokenType classifies a lexed token.
type TokenType int

// Token kinds. Keyword kinds sit between keywordStart and keywordEnd so the
// keyword table can be derived from tokenText.
const (
	TokenEOF TokenType = iota
	TokenError
	TokenIdentifier
	TokenNumber
	TokenString

	keywordStart
	TokenAnd
	TokenAs
	TokenCast
	TokenCreate
	TokenCross
	TokenDrop
	TokenExists
	TokenFalse
	TokenFrom
	TokenFull
	TokenIf
	TokenInner
	TokenIs
	TokenJoin
	TokenKey
	TokenLeft
	TokenLimit
	TokenNot
	TokenNull
	TokenOffset
	TokenOn
	TokenOr
	TokenOuter
	TokenPrimary
	TokenRight
	TokenSelect
	TokenTable
	TokenTrue
	TokenWhere
	keywordEnd

	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenPercent
	TokenEqual
	TokenNotEqual
	TokenLess
	TokenLessEqual
	TokenGreater
	TokenGreaterEqual
	TokenLeftParen
	TokenRightParen
	TokenComma
	TokenSemicolon
	TokenDot
)

var tokenText = [...]string{
	TokenEOF:          "EOF",
	TokenError:        "ERROR",
	TokenIdentifier:   "IDENTIFIER",
	TokenNumber:       "NUMBER",
	TokenString:       "STRING",
	TokenAnd:          "AND",
	TokenAs:           "AS",
	TokenCast:         "CAST",
	TokenCreate:       "CREATE",
	TokenCross:        "CROSS",
	TokenDrop:         "DROP",
	TokenExists:       "EXISTS",
	TokenFalse:        "FALSE",
	TokenFrom:         "FROM",
	TokenFull:         "FULL",
	TokenIf:           "IF",
	TokenInner:        "INNER",
	TokenIs:           "IS",
	TokenJoin:         "JOIN",
	TokenKey:          "KEY",
	TokenLeft:         "LEFT",
	TokenLimit:        "LIMIT",
	TokenNot:          "NOT",
	TokenNull:         "NULL",
	TokenOffset:       "OFFSET",
	TokenOn:           "ON",
	TokenOr:           "OR",
	TokenOuter:        "OUTER",
	TokenPrimary:      "PRIMARY",
	TokenRight:        "RIGHT",
	TokenSelect:       "SELECT",
	TokenTable:        "TABLE",
	TokenTrue:         "TRUE",
	TokenWhere:        "WHERE",
	TokenPlus:         "+",
	TokenMinus:        "-",
	TokenStar:         "*",
	TokenSlash:        "/",
	TokenPercent:      "%",
	TokenEqual:        "=",
	TokenNotEqual:     "!=",
	TokenLess:         "<",
	TokenLessEqual:    "<=",
	TokenGreater:      ">",
	TokenGreaterEqual: ">=",
	TokenLeftParen:    "(",
	TokenRightParen:   ")",
	TokenComma:        ",",
	TokenSemicolon:    ";",
	TokenDot:          ".",
}

var keywords = func() map[string]TokenType {
	m := make(map[string]TokenType, keywordEnd-keywordStart-1)
	for t := keywordStart + 1; t < keywordEnd; t++ {
		m[tokenText[t]] = t
	}
	return m
}()

func (t TokenType) String() string {
	if t >= 0 && int(t) < len(tokenText) && tokenText[t] != "" {
		return tokenText[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// IsKeyword reports whether t is a reserved word.
func (t TokenType) IsKeyword() bool { return t > keywordStart && t < keywordEnd }

// LookupKeyword maps an upper-cased word to its keyword kind, or
// TokenIdentifier when the word is not reserved.
func LookupKeyword(word string) TokenType {
	if t, ok := keywords[word]; ok {
		return t
	}
	return TokenIdentifier
}

// Token is one lexeme with its 1-based source position.
type Token struct {
	Type   TokenType
	Value  string
	Line   int
	Column int
}

func (t Token) String() string {
	switch t.Type { //nolint:exhaustive
	case TokenIdentifier, TokenNumber, TokenString:
		return fmt.Sprintf("%s(%s)", t.Type, t.Value)
	}
	return t.Type.String()
}
