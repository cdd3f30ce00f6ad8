// ABOUTME: Tokenizer for DOT source text, shared by the DOT parser and the DSL parser.
// ABOUTME: Handles identifiers, keywords, quoted strings, numerals, ports, both edge operators, and comments.
package dot

import (
	"fmt"
	"strings"
	"unicode"
)

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TokenEOF        TokenType = iota
	TokenStrict               // strict keyword
	TokenDigraph              // digraph keyword
	TokenGraph                // graph keyword
	TokenSubgraph             // subgraph keyword
	TokenNode                 // node keyword
	TokenEdge                 // edge keyword
	TokenLBrace               // {
	TokenRBrace               // }
	TokenLBracket             // [
	TokenRBracket             // ]
	TokenArrow                // ->
	TokenUndirected           // --
	TokenEquals               // =
	TokenComma                // ,
	TokenSemicolon            // ;
	TokenColon                // :
	TokenIdentifier           // bare identifier
	TokenString               // double-quoted string
	TokenNumber               // numeral
)

// String returns a human-readable name for the token type.
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenStrict:
		return "STRICT"
	case TokenDigraph:
		return "DIGRAPH"
	case TokenGraph:
		return "GRAPH"
	case TokenSubgraph:
		return "SUBGRAPH"
	case TokenNode:
		return "NODE"
	case TokenEdge:
		return "EDGE"
	case TokenLBrace:
		return "LBRACE"
	case TokenRBrace:
		return "RBRACE"
	case TokenLBracket:
		return "LBRACKET"
	case TokenRBracket:
		return "RBRACKET"
	case TokenArrow:
		return "ARROW"
	case TokenUndirected:
		return "UNDIRECTED"
	case TokenEquals:
		return "EQUALS"
	case TokenComma:
		return "COMMA"
	case TokenSemicolon:
		return "SEMICOLON"
	case TokenColon:
		return "COLON"
	case TokenIdentifier:
		return "IDENTIFIER"
	case TokenString:
		return "STRING"
	case TokenNumber:
		return "NUMBER"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(t))
	}
}

// Token represents a single lexical token with its type, value, and source location.
type Token struct {
	Type  TokenType
	Value string
	Line  int
	Col   int
}

// IsID reports whether the token can stand for a DOT ID (bare, quoted, or numeral).
func (t Token) IsID() bool {
	return t.Type == TokenIdentifier || t.Type == TokenString || t.Type == TokenNumber
}

// keywords maps the exact lowercase DOT keywords to their token types.
var keywords = map[string]TokenType{
	"strict":   TokenStrict,
	"digraph":  TokenDigraph,
	"graph":    TokenGraph,
	"subgraph": TokenSubgraph,
	"node":     TokenNode,
	"edge":     TokenEdge,
}

// lexer holds the state of the lexical scanner.
type lexer struct {
	input       []rune
	pos         int
	line        int
	col         int
	atLineStart bool
	tokens      []Token
}

// Lex tokenizes the given DOT source string into a slice of tokens ending in EOF.
func Lex(input string) ([]Token, error) {
	l := &lexer{
		input:       []rune(input),
		line:        1,
		col:         1,
		atLineStart: true,
		tokens:      make([]Token, 0),
	}

	if err := l.scan(); err != nil {
		return nil, err
	}

	return l.tokens, nil
}

// scan processes all characters in the input and produces tokens.
func (l *lexer) scan() error {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]

		if ch == '\n' {
			l.advance()
			l.atLineStart = true
			continue
		}
		if unicode.IsSpace(ch) {
			l.advance()
			continue
		}

		// Preprocessor-style lines: # ... at the start of a line
		if ch == '#' && l.atLineStart {
			l.skipLineComment()
			continue
		}
		l.atLineStart = false

		// Line comments: // ...
		if ch == '/' && l.peekIs('/') {
			l.skipLineComment()
			continue
		}

		// Block comments: /* ... */
		if ch == '/' && l.peekIs('*') {
			if err := l.skipBlockComment(); err != nil {
				return err
			}
			continue
		}

		if ch == '"' {
			if err := l.lexString(); err != nil {
				return err
			}
			continue
		}

		if ch == '-' && l.peekIs('>') {
			l.emit(TokenArrow, "->")
			l.advance()
			l.advance()
			continue
		}
		if ch == '-' && l.peekIs('-') {
			l.emit(TokenUndirected, "--")
			l.advance()
			l.advance()
			continue
		}

		// Numerals: digit, '.', or minus followed by digit or '.'
		if unicode.IsDigit(ch) || (ch == '.' && l.peekDigit()) ||
			(ch == '-' && (l.peekDigit() || (l.peekIs('.') && l.peekDigitAt(2)))) {
			l.lexNumber()
			continue
		}

		if isIDStart(ch) {
			l.lexIdentifier()
			continue
		}

		switch ch {
		case '{':
			l.emit(TokenLBrace, "{")
		case '}':
			l.emit(TokenRBrace, "}")
		case '[':
			l.emit(TokenLBracket, "[")
		case ']':
			l.emit(TokenRBracket, "]")
		case '=':
			l.emit(TokenEquals, "=")
		case ',':
			l.emit(TokenComma, ",")
		case ';':
			l.emit(TokenSemicolon, ";")
		case ':':
			l.emit(TokenColon, ":")
		default:
			return &ParseError{
				Message: fmt.Sprintf("unexpected character %q", string(ch)),
				Line:    l.line,
				Column:  l.col,
			}
		}
		l.advance()
	}

	l.tokens = append(l.tokens, Token{Type: TokenEOF, Line: l.line, Col: l.col})
	return nil
}

func (l *lexer) peekIs(r rune) bool {
	return l.pos+1 < len(l.input) && l.input[l.pos+1] == r
}

func (l *lexer) peekDigit() bool {
	return l.peekDigitAt(1)
}

func (l *lexer) peekDigitAt(offset int) bool {
	return l.pos+offset < len(l.input) && unicode.IsDigit(l.input[l.pos+offset])
}

// advance moves the position forward by one character, tracking line and column.
func (l *lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

// emit adds a token to the token list with the current position info.
func (l *lexer) emit(typ TokenType, value string) {
	l.tokens = append(l.tokens, Token{Type: typ, Value: value, Line: l.line, Col: l.col})
}

// skipLineComment skips to the end of the current line.
func (l *lexer) skipLineComment() {
	for l.pos < len(l.input) && l.input[l.pos] != '\n' {
		l.advance()
	}
}

// skipBlockComment skips from /* to */ and returns an error for unterminated comments.
func (l *lexer) skipBlockComment() error {
	startLine, startCol := l.line, l.col
	l.advance()
	l.advance()
	for l.pos < len(l.input) {
		if l.input[l.pos] == '*' && l.peekIs('/') {
			l.advance()
			l.advance()
			return nil
		}
		l.advance()
	}
	return &ParseError{Message: "unterminated block comment", Line: startLine, Column: startCol}
}

// lexString reads a double-quoted string. Only \" and \\ are escapes; any other
// backslash pair is kept verbatim so Graphviz label escapes like \n survive.
func (l *lexer) lexString() error {
	startLine, startCol := l.line, l.col
	l.advance() // skip opening quote

	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]

		if ch == '\\' {
			l.advance()
			if l.pos >= len(l.input) {
				break
			}
			escaped := l.input[l.pos]
			switch escaped {
			case '"', '\\':
				sb.WriteRune(escaped)
			case '\n':
				// line continuation
			default:
				sb.WriteByte('\\')
				sb.WriteRune(escaped)
			}
			l.advance()
			continue
		}

		if ch == '"' {
			l.advance()
			l.tokens = append(l.tokens, Token{Type: TokenString, Value: sb.String(), Line: startLine, Col: startCol})
			return nil
		}

		sb.WriteRune(ch)
		l.advance()
	}

	return &ParseError{Message: "unterminated string", Line: startLine, Column: startCol}
}

// lexNumber reads a numeral with an optional leading minus and fractional part.
func (l *lexer) lexNumber() {
	startLine, startCol := l.line, l.col
	var sb strings.Builder

	if l.input[l.pos] == '-' {
		sb.WriteByte('-')
		l.advance()
	}
	for l.pos < len(l.input) && unicode.IsDigit(l.input[l.pos]) {
		sb.WriteRune(l.input[l.pos])
		l.advance()
	}
	if l.pos < len(l.input) && l.input[l.pos] == '.' {
		sb.WriteByte('.')
		l.advance()
		for l.pos < len(l.input) && unicode.IsDigit(l.input[l.pos]) {
			sb.WriteRune(l.input[l.pos])
			l.advance()
		}
	}

	l.tokens = append(l.tokens, Token{Type: TokenNumber, Value: sb.String(), Line: startLine, Col: startCol})
}

// lexIdentifier reads an identifier or keyword.
func (l *lexer) lexIdentifier() {
	startLine, startCol := l.line, l.col
	var sb strings.Builder

	for l.pos < len(l.input) && isIDChar(l.input[l.pos]) {
		sb.WriteRune(l.input[l.pos])
		l.advance()
	}

	word := sb.String()
	typ, ok := keywords[word]
	if !ok {
		typ = TokenIdentifier
	}

	l.tokens = append(l.tokens, Token{Type: typ, Value: word, Line: startLine, Col: startCol})
}

func isIDStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || ch >= 0x80 && !unicode.IsSpace(ch)
}

func isIDChar(ch rune) bool {
	return isIDStart(ch) || unicode.IsDigit(ch)
}
