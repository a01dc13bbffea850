package parser

import (
	"fmt"
	"strconv"
	"strings"

	errs "github.com/dshills/quantaplan/internal/errors"
	"github.com/dshills/quantaplan/internal/sql/types"
)

// Parser parses SQL statements from tokens.
type Parser struct {
	lexer    *Lexer
	current  Token
	previous Token
	errors   []error
}

// NewParser creates a new parser for the given SQL input.
func NewParser(sql string) *Parser {
	parser := &Parser{
		lexer:  NewLexer(sql),
		errors: []error{},
	}
	parser.advance()
	return parser
}

// Parse parses a single SQL statement.
func Parse(sql string) (Statement, error) {
	return NewParser(sql).Parse()
}

// ParseSelect parses sql and requires it to be a SELECT statement.
func ParseSelect(sql string) (*SelectStmt, error) {
	stmt, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	sel, ok := stmt.(*SelectStmt)
	if !ok {
		return nil, errs.FeatureNotSupportedError(fmt.Sprintf("compiling %T", stmt))
	}
	return sel, nil
}

// Parse parses a SQL statement.
func (p *Parser) Parse() (Statement, error) {
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}

	p.match(TokenSemicolon)
	if !p.check(TokenEOF) {
		return nil, p.error(fmt.Sprintf("unexpected token %s", p.current))
	}

	return stmt, nil
}

// ParseMultiple parses multiple SQL statements separated by semicolons.
func (p *Parser) ParseMultiple() ([]Statement, error) {
	var statements []Statement

	for !p.check(TokenEOF) {
		if p.match(TokenSemicolon) {
			continue
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)

		if p.match(TokenSemicolon) {
			continue
		}
		if !p.check(TokenEOF) {
			return nil, p.error(fmt.Sprintf("unexpected token %s", p.current))
		}
	}

	return statements, nil
}

func (p *Parser) parseStatement() (Statement, error) {
	switch p.current.Type { //nolint:exhaustive
	case TokenSelect:
		return p.parseSelect()
	case TokenCreate:
		return p.parseCreateTable()
	case TokenDrop:
		return p.parseDropTable()
	case TokenError:
		return nil, p.error(p.current.Value)
	default:
		return nil, p.error(fmt.Sprintf("unexpected token %s at start of statement", p.current))
	}
}

// parseCreateTable parses CREATE TABLE name (col type [constraints], ...).
func (p *Parser) parseCreateTable() (*CreateTableStmt, error) {
	p.advance() // CREATE
	if !p.consume(TokenTable, "expected TABLE") {
		return nil, p.lastError()
	}

	name, err := p.parseObjectName("table name")
	if err != nil {
		return nil, err
	}

	if !p.consume(TokenLeftParen, "expected '('") {
		return nil, p.lastError()
	}

	stmt := &CreateTableStmt{Table: name}
	var primaryKey []string
	for {
		if p.match(TokenPrimary) {
			if !p.consume(TokenKey, "expected KEY after PRIMARY") {
				return nil, p.lastError()
			}
			cols, err := p.parseColumnList()
			if err != nil {
				return nil, err
			}
			primaryKey = append(primaryKey, cols...)
		} else {
			col, err := p.parseColumnDef()
			if err != nil {
				return nil, err
			}
			stmt.Columns = append(stmt.Columns, col)
		}

		if !p.match(TokenComma) {
			break
		}
	}

	if !p.consume(TokenRightParen, "expected ')'") {
		return nil, p.lastError()
	}

	for _, name := range primaryKey {
		found := false
		for i := range stmt.Columns {
			if stmt.Columns[i].Name == name {
				stmt.Columns[i].PrimaryKey = true
				found = true
			}
		}
		if !found {
			return nil, p.error(fmt.Sprintf("column %q named in key does not exist", name))
		}
	}

	return stmt, nil
}

// parseColumnDef parses a column definition.
func (p *Parser) parseColumnDef() (ColumnDef, error) {
	if !p.canBeIdentifier() {
		return ColumnDef{}, p.error("expected column name")
	}
	col := ColumnDef{Name: p.current.Value}
	p.advance()

	dataType, err := p.parseDataType()
	if err != nil {
		return ColumnDef{}, err
	}
	col.DataType = dataType

	for {
		switch {
		case p.match(TokenNot):
			if !p.consume(TokenNull, "expected NULL after NOT") {
				return ColumnDef{}, p.lastError()
			}
			col.NotNull = true
		case p.match(TokenNull):
			col.NotNull = false
		case p.match(TokenPrimary):
			if !p.consume(TokenKey, "expected KEY after PRIMARY") {
				return ColumnDef{}, p.lastError()
			}
			col.PrimaryKey = true
		default:
			return col, nil
		}
	}
}

// parseDataType reads a type name of one or more words with optional
// modifiers, e.g. "int", "double precision", "varchar(20)".
func (p *Parser) parseDataType() (types.DataType, error) {
	line, col := p.current.Line, p.current.Column

	var words []string
	for p.check(TokenIdentifier) {
		words = append(words, p.current.Value)
		p.advance()
	}
	if len(words) == 0 {
		return nil, p.error("expected data type")
	}
	name := strings.Join(words, " ")

	if p.match(TokenLeftParen) {
		var mods []string
		for {
			if !p.check(TokenNumber) {
				return nil, p.error("expected number in type modifier")
			}
			mods = append(mods, p.current.Value)
			p.advance()
			if !p.match(TokenComma) {
				break
			}
		}
		if !p.consume(TokenRightParen, "expected ')' after type modifier") {
			return nil, p.lastError()
		}
		name = fmt.Sprintf("%s(%s)", name, strings.Join(mods, ","))
	}

	dt, err := types.Parse(name)
	if err != nil {
		return nil, errs.ParseError(err.Error(), line, col)
	}
	return dt, nil
}

// parseDropTable parses DROP TABLE [IF EXISTS] name.
func (p *Parser) parseDropTable() (*DropTableStmt, error) {
	p.advance() // DROP
	if !p.consume(TokenTable, "expected TABLE") {
		return nil, p.lastError()
	}

	stmt := &DropTableStmt{}
	if p.match(TokenIf) {
		if !p.consume(TokenExists, "expected EXISTS after IF") {
			return nil, p.lastError()
		}
		stmt.IfExists = true
	}

	name, err := p.parseObjectName("table name")
	if err != nil {
		return nil, err
	}
	stmt.Table = name
	return stmt, nil
}

// parseSelect parses a SELECT statement.
func (p *Parser) parseSelect() (*SelectStmt, error) {
	if !p.consume(TokenSelect, "expected SELECT") {
		return nil, p.lastError()
	}

	stmt := &SelectStmt{}
	for {
		col, err := p.parseSelectColumn()
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, col)

		if !p.match(TokenComma) {
			break
		}
	}

	if p.match(TokenFrom) {
		tableExpr, err := p.parseTableExpression()
		if err != nil {
			return nil, err
		}
		stmt.From = tableExpr
	}

	if p.match(TokenWhere) {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Where = expr
	}

	if p.match(TokenLimit) {
		limit, err := p.parseCount("LIMIT")
		if err != nil {
			return nil, err
		}
		stmt.Limit = &limit
	}

	if p.match(TokenOffset) {
		offset, err := p.parseCount("OFFSET")
		if err != nil {
			return nil, err
		}
		stmt.Offset = &offset
	}

	return stmt, nil
}

func (p *Parser) parseSelectColumn() (SelectColumn, error) {
	if p.match(TokenStar) {
		return SelectColumn{Expr: &Star{}}, nil
	}

	expr, err := p.parseExpression()
	if err != nil {
		return SelectColumn{}, err
	}
	col := SelectColumn{Expr: expr}

	if _, isStar := expr.(*Star); isStar {
		return col, nil
	}

	if p.match(TokenAs) {
		if !p.canBeIdentifier() {
			return SelectColumn{}, p.error("expected alias name")
		}
		col.Alias = p.current.Value
		p.advance()
	} else if p.check(TokenIdentifier) {
		// Implicit alias (without AS keyword)
		col.Alias = p.current.Value
		p.advance()
	}

	return col, nil
}

func (p *Parser) parseCount(clause string) (int64, error) {
	if p.current.Type != TokenNumber {
		return 0, p.error(fmt.Sprintf("expected number after %s", clause))
	}
	n, err := strconv.ParseInt(p.current.Value, 10, 64)
	if err != nil {
		return 0, p.error(fmt.Sprintf("invalid %s value", clause))
	}
	p.advance()
	return n, nil
}

// parseTableExpression parses a FROM clause: table references joined by
// JOIN keywords or commas, left associative.
func (p *Parser) parseTableExpression() (TableExpression, error) {
	left, err := p.parseTableOrSubquery()
	if err != nil {
		return nil, err
	}

	for {
		if p.peekJoinKeyword() {
			joinType, err := p.parseJoinType()
			if err != nil {
				return nil, err
			}

			right, err := p.parseTableOrSubquery()
			if err != nil {
				return nil, err
			}

			var condition Expression
			if p.match(TokenOn) {
				if joinType == CrossJoin {
					return nil, p.error("CROSS JOIN cannot have an ON condition")
				}
				condition, err = p.parseExpression()
				if err != nil {
					return nil, err
				}
			} else if joinType != CrossJoin {
				return nil, p.error(fmt.Sprintf("expected ON condition for %s", joinType))
			}

			left = &JoinExpr{
				Left:      left,
				Right:     right,
				JoinType:  joinType,
				Condition: condition,
			}
		} else if p.match(TokenComma) {
			// Comma-separated tables (implicit CROSS JOIN)
			right, err := p.parseTableOrSubquery()
			if err != nil {
				return nil, err
			}
			left = &JoinExpr{
				Left:     left,
				Right:    right,
				JoinType: CrossJoin,
			}
		} else {
			break
		}
	}

	return left, nil
}

// parseTableOrSubquery parses a table reference, a derived table or a
// parenthesized table expression, each with an optional alias.
func (p *Parser) parseTableOrSubquery() (TableExpression, error) {
	if !p.check(TokenLeftParen) {
		return p.parseTableRef()
	}

	if p.peek(TokenSelect) {
		p.advance() // consume '('
		subquery, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		if !p.consume(TokenRightParen, "expected ')' after subquery") {
			return nil, p.lastError()
		}
		alias, err := p.parseTableAlias()
		if err != nil {
			return nil, err
		}
		return &SubqueryRef{Query: subquery, Alias: alias}, nil
	}

	p.advance() // consume '('
	inner, err := p.parseTableExpression()
	if err != nil {
		return nil, err
	}
	if !p.consume(TokenRightParen, "expected ')' after table expression") {
		return nil, p.lastError()
	}
	alias, err := p.parseTableAlias()
	if err != nil {
		return nil, err
	}
	return &ParenTableExpr{Expr: inner, Alias: alias}, nil
}

// parseTableRef parses a table name with optional alias.
func (p *Parser) parseTableRef() (*TableRef, error) {
	name, err := p.parseObjectName("table name")
	if err != nil {
		return nil, err
	}
	alias, err := p.parseTableAlias()
	if err != nil {
		return nil, err
	}
	return &TableRef{Table: name, Alias: alias}, nil
}

// parseTableAlias parses an optional "[AS] name [(col, ...)]".
func (p *Parser) parseTableAlias() (*TableAlias, error) {
	if p.match(TokenAs) {
		if !p.canBeIdentifier() {
			return nil, p.error("expected alias after AS")
		}
	} else if !p.check(TokenIdentifier) {
		return nil, nil
	}

	alias := &TableAlias{Name: p.current.Value}
	p.advance()

	if p.check(TokenLeftParen) {
		cols, err := p.parseColumnList()
		if err != nil {
			return nil, err
		}
		alias.Columns = cols
	}
	return alias, nil
}

// parseColumnList parses "(a, b, ...)". An empty list yields a non-nil
// empty slice.
func (p *Parser) parseColumnList() ([]string, error) {
	if !p.consume(TokenLeftParen, "expected '('") {
		return nil, p.lastError()
	}
	cols := []string{}
	if p.match(TokenRightParen) {
		return cols, nil
	}
	for {
		if !p.canBeIdentifier() {
			return nil, p.error("expected column name")
		}
		cols = append(cols, p.current.Value)
		p.advance()
		if !p.match(TokenComma) {
			break
		}
	}
	if !p.consume(TokenRightParen, "expected ')' after column list") {
		return nil, p.lastError()
	}
	return cols, nil
}

// parseObjectName parses "name" or "schema.name".
func (p *Parser) parseObjectName(what string) (ObjectName, error) {
	var parts []string
	for {
		if !p.check(TokenIdentifier) {
			return ObjectName{}, p.error("expected " + what)
		}
		parts = append(parts, p.current.Value)
		p.advance()
		if len(parts) == 2 || !p.match(TokenDot) {
			break
		}
	}
	if len(parts) == 1 {
		return ObjectName{Name: parts[0]}, nil
	}
	return ObjectName{Schema: parts[0], Name: parts[1]}, nil
}

// peekJoinKeyword checks if the current token is a JOIN-related keyword
func (p *Parser) peekJoinKeyword() bool {
	switch p.current.Type { //nolint:exhaustive
	case TokenJoin, TokenInner, TokenLeft, TokenRight, TokenFull, TokenCross:
		return true
	default:
		return false
	}
}

// parseJoinType parses the JOIN type from keywords:
// [INNER] JOIN, LEFT|RIGHT|FULL [OUTER] JOIN, CROSS JOIN.
func (p *Parser) parseJoinType() (JoinType, error) {
	joinType := InnerJoin
	switch {
	case p.match(TokenCross):
		joinType = CrossJoin
	case p.match(TokenInner):
	case p.match(TokenLeft):
		joinType = LeftJoin
		p.match(TokenOuter)
	case p.match(TokenRight):
		joinType = RightJoin
		p.match(TokenOuter)
	case p.match(TokenFull):
		joinType = FullJoin
		p.match(TokenOuter)
	}
	if !p.consume(TokenJoin, "expected JOIN") {
		return joinType, p.lastError()
	}
	return joinType, nil
}

// Expressions, lowest precedence first.

func (p *Parser) parseExpression() (Expression, error) {
	return p.parseOr()
}

// parseOr parses OR expressions.
func (p *Parser) parseOr() (Expression, error) {
	expr, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.match(TokenOr) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: TokenOr, Left: expr, Right: right}
	}

	return expr, nil
}

// parseAnd parses AND expressions.
func (p *Parser) parseAnd() (Expression, error) {
	expr, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	for p.match(TokenAnd) {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: TokenAnd, Left: expr, Right: right}
	}

	return expr, nil
}

// parseNot parses NOT expressions.
func (p *Parser) parseNot() (Expression, error) {
	if p.match(TokenNot) {
		expr, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: TokenNot, Operand: expr}, nil
	}

	return p.parseComparison()
}

// parseComparison parses comparison and IS [NOT] NULL expressions.
func (p *Parser) parseComparison() (Expression, error) {
	expr, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	if p.matchAny(TokenEqual, TokenNotEqual, TokenLess, TokenLessEqual, TokenGreater, TokenGreaterEqual) {
		op := p.previous.Type
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Op: op, Left: expr, Right: right}, nil
	}

	if p.match(TokenIs) {
		not := p.match(TokenNot)
		if !p.consume(TokenNull, "expected NULL after IS") {
			return nil, p.lastError()
		}
		return &NullTest{Operand: expr, Negated: not}, nil
	}

	return expr, nil
}

// parseTerm parses addition and subtraction.
func (p *Parser) parseTerm() (Expression, error) {
	expr, err := p.parseFactor()
	if err != nil {
		return nil, err
	}

	for p.matchAny(TokenPlus, TokenMinus) {
		op := p.previous.Type
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: op, Left: expr, Right: right}
	}

	return expr, nil
}

// parseFactor parses multiplication, division, and modulo.
func (p *Parser) parseFactor() (Expression, error) {
	expr, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for p.matchAny(TokenStar, TokenSlash, TokenPercent) {
		op := p.previous.Type
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: op, Left: expr, Right: right}
	}

	return expr, nil
}

// parseUnary parses unary expressions.
func (p *Parser) parseUnary() (Expression, error) {
	if p.matchAny(TokenPlus, TokenMinus) {
		op := p.previous.Type
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op, Operand: expr}, nil
	}

	return p.parsePrimary()
}

// parsePrimary parses primary expressions.
func (p *Parser) parsePrimary() (Expression, error) {
	switch p.current.Type { //nolint:exhaustive
	case TokenNumber:
		value := p.current.Value
		p.advance()

		if !strings.Contains(value, ".") {
			if i, err := strconv.ParseInt(value, 10, 64); err == nil {
				return &Literal{Value: types.NewValue(i)}, nil
			}
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, p.error("invalid number")
		}
		return &Literal{Value: types.NewValue(f)}, nil

	case TokenString:
		value := p.current.Value
		p.advance()
		return &Literal{Value: types.NewValue(value)}, nil

	case TokenTrue:
		p.advance()
		return &Literal{Value: types.NewValue(true)}, nil

	case TokenFalse:
		p.advance()
		return &Literal{Value: types.NewValue(false)}, nil

	case TokenNull:
		p.advance()
		return &Literal{Value: types.NewNullValue()}, nil

	case TokenLeftParen:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if !p.consume(TokenRightParen, "expected ')'") {
			return nil, p.lastError()
		}
		return expr, nil

	case TokenCast:
		return p.parseCast()

	case TokenError:
		return nil, p.error(p.current.Value)
	}

	if !p.canBeIdentifier() {
		return nil, p.error(fmt.Sprintf("unexpected token %s", p.current))
	}

	name := p.current.Value
	p.advance()

	if !p.match(TokenDot) {
		return &Identifier{Name: name}, nil
	}
	if p.match(TokenStar) {
		return &Star{Table: name}, nil
	}
	if !p.canBeIdentifier() {
		return nil, p.error("expected column name after '.'")
	}
	column := p.current.Value
	p.advance()
	return &Identifier{Table: name, Name: column}, nil
}

// parseCast parses CAST(expr AS type).
func (p *Parser) parseCast() (Expression, error) {
	p.advance() // CAST
	if !p.consume(TokenLeftParen, "expected '(' after CAST") {
		return nil, p.lastError()
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if !p.consume(TokenAs, "expected AS in CAST") {
		return nil, p.lastError()
	}
	dt, err := p.parseDataType()
	if err != nil {
		return nil, err
	}
	if !p.consume(TokenRightParen, "expected ')' after CAST type") {
		return nil, p.lastError()
	}
	return &CastExpr{Expr: expr, Type: dt}, nil
}

// canBeIdentifier checks if the current token can be used as a name.
// KEY is reserved only inside PRIMARY KEY.
func (p *Parser) canBeIdentifier() bool {
	return p.current.Type == TokenIdentifier || p.current.Type == TokenKey
}

func (p *Parser) advance() {
	p.previous = p.current
	p.current = p.lexer.NextToken()
}

func (p *Parser) check(tokenType TokenType) bool {
	return p.current.Type == tokenType
}

// peek reports whether the token after the current one has tokenType.
func (p *Parser) peek(tokenType TokenType) bool {
	saved := *p.lexer
	next := p.lexer.NextToken()
	*p.lexer = saved
	return next.Type == tokenType
}

func (p *Parser) match(tokenType TokenType) bool {
	if p.check(tokenType) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) matchAny(types ...TokenType) bool {
	for _, t := range types {
		if p.match(t) {
			return true
		}
	}
	return false
}

func (p *Parser) consume(tokenType TokenType, message string) bool {
	if p.check(tokenType) {
		p.advance()
		return true
	}
	_ = p.error(message)
	return false
}

func (p *Parser) error(message string) error {
	err := errs.ParseError(message, p.current.Line, p.current.Column)
	p.errors = append(p.errors, err)
	return err
}

func (p *Parser) lastError() error {
	if len(p.errors) > 0 {
		return p.errors[len(p.errors)-1]
	}
	return errs.ParseError("unknown parse error", 0, 0)
}
