// Package parser implements the flatmsg schema parser, transforming token
// streams into syntax trees. It is a recursive descent parser with commit
// semantics: once a declaration keyword matched, every following element is
// mandatory and the first failure aborts the whole parse.
package parser

import (
	"strings"

	"github.com/spf13/afero"

	"github.com/flatmessage/flatmsg/internal/compiler/ast"
	cerrors "github.com/flatmessage/flatmsg/internal/compiler/errors"
	"github.com/flatmessage/flatmsg/internal/compiler/lexer"
)

// Friendly names of grammar elements used in "expecting ..." diagnostics
const (
	expectDeclarations = "one or more declarations"
	expectAttributes   = "one or more attributes"
	expectEnumValues   = "one or more values"
	expectEnumSize     = "byte, word, dword or qword"
	expectIdentifier   = "identifier"
	expectInteger      = "integer"
	expectNonNegative  = "non-negative integer"
	expectLiteral      = "literal"
	expectDeclKeyword  = "data, message or enum"
)

// Parser transforms a stream of tokens into a syntax tree
type Parser struct {
	tokens  []lexer.Token
	current int
	source  string
	file    string
	lexErr  *lexer.LexError
}

// New creates a new parser for the given token stream. source is the text
// the tokens were scanned from and is used to position and excerpt errors.
func New(tokens []lexer.Token, source, file string) *Parser {
	return &Parser{
		tokens: tokens,
		source: source,
		file:   file,
	}
}

// Parse parses text into a tree labelled sourceLabel. The returned error is
// a *errors.CompilerError of category syntax.
func Parse(text, sourceLabel string) (*ast.Tree, error) {
	tokens, lexErr := lexer.New(text, sourceLabel).ScanTokens()
	p := New(tokens, text, sourceLabel)
	p.lexErr = lexErr
	return p.Parse()
}

// ParseFile reads path from fs and parses it, labelling the tree with path
func ParseFile(fs afero.Fs, path string) (*ast.Tree, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, cerrors.NewIOError(path, "read", err)
	}
	return Parse(string(content), path)
}

// Parse parses the token stream into a tree
func (p *Parser) Parse() (*ast.Tree, error) {
	tree := &ast.Tree{Source: p.file, Text: p.source}

	for p.startsDeclaration() {
		decl, err := p.parseDeclaration()
		if err != nil {
			return nil, err
		}
		tree.Decls = append(tree.Decls, decl)
	}

	if len(tree.Decls) == 0 {
		return nil, p.expected(expectDeclarations)
	}

	if !p.isAtEnd() {
		if p.check(lexer.TOKEN_ERROR) {
			return nil, p.lexical()
		}
		tok := p.peek()
		return nil, cerrors.NewTrailingInput(p.locationAt(tok.Start), tok.Describe()).
			WithFile(p.file).WithSource(p.source)
	}

	return tree, nil
}

// startsDeclaration reports whether the current token can begin a
// top-level declaration
func (p *Parser) startsDeclaration() bool {
	switch p.peek().Type {
	case lexer.TOKEN_MODULE, lexer.TOKEN_IMPORT, lexer.TOKEN_PROTOCOL,
		lexer.TOKEN_DATA, lexer.TOKEN_MESSAGE, lexer.TOKEN_ENUM, lexer.TOKEN_AT:
		return true
	default:
		return false
	}
}

// parseDeclaration parses one top-level declaration
func (p *Parser) parseDeclaration() (ast.Decl, error) {
	switch p.peek().Type {
	case lexer.TOKEN_MODULE:
		return p.parseModule()
	case lexer.TOKEN_IMPORT:
		return p.parseImport()
	case lexer.TOKEN_PROTOCOL:
		return p.parseProtocol()
	default:
		return p.parseAnnotatedDecl()
	}
}

// parseModule parses: "module" module_identifier ";"
func (p *Parser) parseModule() (ast.Decl, error) {
	start := p.advance()
	name, err := p.consumeModuleIdentifier()
	if err != nil {
		return nil, err
	}
	if err := p.consume(lexer.TOKEN_SEMICOLON, "';'"); err != nil {
		return nil, err
	}
	return &ast.ModuleDecl{Name: name.Lexeme, Loc: p.spanFrom(start)}, nil
}

// parseImport parses: "import" module_identifier ";"
func (p *Parser) parseImport() (ast.Decl, error) {
	start := p.advance()
	name, err := p.consumeModuleIdentifier()
	if err != nil {
		return nil, err
	}
	if err := p.consume(lexer.TOKEN_SEMICOLON, "';'"); err != nil {
		return nil, err
	}
	return &ast.ImportDecl{Name: name.Lexeme, Loc: p.spanFrom(start)}, nil
}

// parseProtocol parses: "protocol" identifier ";"
func (p *Parser) parseProtocol() (ast.Decl, error) {
	start := p.advance()
	name, err := p.consumeIdentifier()
	if err != nil {
		return nil, err
	}
	if err := p.consume(lexer.TOKEN_SEMICOLON, "';'"); err != nil {
		return nil, err
	}
	return &ast.ProtocolDecl{Name: name.Lexeme, Loc: p.spanFrom(start)}, nil
}

// parseAnnotatedDecl parses: annotation* (message | enumeration | data)
func (p *Parser) parseAnnotatedDecl() (ast.Decl, error) {
	start := p.peek()
	annotations, err := p.parseAnnotations()
	if err != nil {
		return nil, err
	}

	switch p.peek().Type {
	case lexer.TOKEN_DATA:
		p.advance()
		name, attributes, err := p.parseRecordBody()
		if err != nil {
			return nil, err
		}
		return &ast.Data{Name: name, Attributes: attributes, Annotations: annotations, Loc: p.spanFrom(start)}, nil
	case lexer.TOKEN_MESSAGE:
		p.advance()
		name, attributes, err := p.parseRecordBody()
		if err != nil {
			return nil, err
		}
		return &ast.Message{Name: name, Attributes: attributes, Annotations: annotations, Loc: p.spanFrom(start)}, nil
	case lexer.TOKEN_ENUM:
		p.advance()
		enum, err := p.parseEnumBody()
		if err != nil {
			return nil, err
		}
		enum.Annotations = annotations
		enum.Loc = p.spanFrom(start)
		return enum, nil
	default:
		return nil, p.expected(expectDeclKeyword)
	}
}

// parseRecordBody parses the part of data and message after the keyword:
// identifier "{" attribute+ "}"
func (p *Parser) parseRecordBody() (string, []*ast.Attribute, error) {
	name, err := p.consumeIdentifier()
	if err != nil {
		return "", nil, err
	}
	if err := p.consume(lexer.TOKEN_LBRACE, "'{'"); err != nil {
		return "", nil, err
	}

	var attributes []*ast.Attribute
	for p.startsAttribute() {
		attr, err := p.parseAttribute()
		if err != nil {
			return "", nil, err
		}
		attributes = append(attributes, attr)
	}
	if len(attributes) == 0 {
		return "", nil, p.expected(expectAttributes)
	}

	if err := p.consume(lexer.TOKEN_RBRACE, "'}'"); err != nil {
		return "", nil, err
	}
	return name.Lexeme, attributes, nil
}

// startsAttribute reports whether the current token can begin an attribute
func (p *Parser) startsAttribute() bool {
	return p.check(lexer.TOKEN_AT) || p.isIdentifier(p.peek())
}

// parseAttribute parses:
// annotation* specifier? identifier arraySize? identifier defaultValue? ";"
func (p *Parser) parseAttribute() (*ast.Attribute, error) {
	start := p.peek()
	annotations, err := p.parseAnnotations()
	if err != nil {
		return nil, err
	}

	attr := &ast.Attribute{Annotations: annotations}

	// optional/repeated is a specifier only when a type follows it
	if (p.check(lexer.TOKEN_OPTIONAL) || p.check(lexer.TOKEN_REPEATED)) && p.isIdentifier(p.peekNext()) {
		attr.Specifier = p.advance().Lexeme
	}

	typ, err := p.consumeIdentifier()
	if err != nil {
		return nil, err
	}
	attr.Type = typ.Lexeme

	if p.match(lexer.TOKEN_LBRACKET) {
		size, err := p.consumeArraySize()
		if err != nil {
			return nil, err
		}
		attr.ArraySize = &size
		if err := p.consume(lexer.TOKEN_RBRACKET, "']'"); err != nil {
			return nil, err
		}
	}

	name, err := p.consumeIdentifier()
	if err != nil {
		return nil, err
	}
	attr.Name = name.Lexeme

	if p.match(lexer.TOKEN_EQUAL) {
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		attr.Default = lit
	}

	if err := p.consume(lexer.TOKEN_SEMICOLON, "';'"); err != nil {
		return nil, err
	}
	attr.Loc = p.spanFrom(start)
	return attr, nil
}

// consumeArraySize parses the integer between brackets
func (p *Parser) consumeArraySize() (int, error) {
	if !p.check(lexer.TOKEN_INT_LITERAL) {
		return 0, p.expected(expectInteger)
	}
	tok := p.peek()
	value := tok.Literal.(int64)
	if value < 0 {
		return 0, p.expected(expectNonNegative)
	}
	p.advance()
	return int(value), nil
}

// parseEnumBody parses the part of an enumeration after the keyword:
// identifier ":" enumSize "{" enumValue+ "}"
func (p *Parser) parseEnumBody() (*ast.Enumeration, error) {
	name, err := p.consumeIdentifier()
	if err != nil {
		return nil, err
	}
	if err := p.consume(lexer.TOKEN_COLON, "':'"); err != nil {
		return nil, err
	}

	size := p.peek()
	if size.Type != lexer.TOKEN_IDENTIFIER || !ast.IsEnumSize(size.Lexeme) {
		return nil, p.expected(expectEnumSize)
	}
	p.advance()

	if err := p.consume(lexer.TOKEN_LBRACE, "'{'"); err != nil {
		return nil, err
	}

	enum := &ast.Enumeration{Name: name.Lexeme, Alignment: size.Lexeme}
	for p.isIdentifier(p.peek()) {
		value, err := p.parseEnumValue()
		if err != nil {
			return nil, err
		}
		enum.Values = append(enum.Values, value)
	}
	if len(enum.Values) == 0 {
		return nil, p.expected(expectEnumValues)
	}

	if err := p.consume(lexer.TOKEN_RBRACE, "'}'"); err != nil {
		return nil, err
	}
	return enum, nil
}

// parseEnumValue parses: identifier "=" integer ","
func (p *Parser) parseEnumValue() (*ast.EnumValue, error) {
	name := p.advance()
	if err := p.consume(lexer.TOKEN_EQUAL, "'='"); err != nil {
		return nil, err
	}
	if !p.check(lexer.TOKEN_INT_LITERAL) {
		return nil, p.expected(expectInteger)
	}
	value := p.advance().Literal.(int64)
	if err := p.consume(lexer.TOKEN_COMMA, "','"); err != nil {
		return nil, err
	}
	return &ast.EnumValue{Name: name.Lexeme, Value: value, Loc: p.spanFrom(name)}, nil
}

// parseAnnotations parses zero or more: "@" identifier ( "(" literal ")" )?
func (p *Parser) parseAnnotations() ([]*ast.Annotation, error) {
	var annotations []*ast.Annotation
	for p.check(lexer.TOKEN_AT) {
		start := p.advance()
		name, err := p.consumeIdentifier()
		if err != nil {
			return nil, err
		}
		annotation := &ast.Annotation{Name: name.Lexeme}

		if p.match(lexer.TOKEN_LPAREN) {
			lit, err := p.parseLiteral()
			if err != nil {
				return nil, err
			}
			annotation.Value = lit
			if err := p.consume(lexer.TOKEN_RPAREN, "')'"); err != nil {
				return nil, err
			}
		}

		annotation.Loc = p.spanFrom(start)
		annotations = append(annotations, annotation)
	}
	return annotations, nil
}

// parseLiteral parses: quotedString | floatLiteral | doubleLiteral | integer
func (p *Parser) parseLiteral() (*ast.Literal, error) {
	tok := p.peek()
	var lit *ast.Literal

	switch tok.Type {
	case lexer.TOKEN_INT_LITERAL:
		lit = &ast.Literal{Kind: ast.LiteralInt, Int: tok.Literal.(int64)}
	case lexer.TOKEN_FLOAT_LITERAL:
		lit = &ast.Literal{Kind: ast.LiteralFloat, Float: tok.Literal.(float64)}
	case lexer.TOKEN_DOUBLE_LITERAL:
		lit = &ast.Literal{Kind: ast.LiteralDouble, Float: tok.Literal.(float64)}
	case lexer.TOKEN_STRING_LITERAL:
		lit = &ast.Literal{Kind: ast.LiteralString, Str: tok.Literal.(string)}
	default:
		return nil, p.expected(expectLiteral)
	}

	lit.Raw = tok.Lexeme
	p.advance()
	return lit, nil
}

// Identifiers

// isIdentifier reports whether tok can serve as a plain identifier.
// Keywords are contextual and accepted here.
func (p *Parser) isIdentifier(tok lexer.Token) bool {
	if tok.Type.IsKeyword() {
		return true
	}
	return tok.Type == lexer.TOKEN_IDENTIFIER && !strings.Contains(tok.Lexeme, ".")
}

// consumeIdentifier consumes a plain identifier
func (p *Parser) consumeIdentifier() (lexer.Token, error) {
	if !p.isIdentifier(p.peek()) {
		return lexer.Token{}, p.expected(expectIdentifier)
	}
	return p.advance(), nil
}

// consumeModuleIdentifier consumes an identifier that may contain dots
func (p *Parser) consumeModuleIdentifier() (lexer.Token, error) {
	tok := p.peek()
	if tok.Type != lexer.TOKEN_IDENTIFIER && !tok.Type.IsKeyword() {
		return lexer.Token{}, p.expected(expectIdentifier)
	}
	return p.advance(), nil
}

// Token stream navigation

// peek returns the current token without advancing
func (p *Parser) peek() lexer.Token {
	if len(p.tokens) == 0 {
		return lexer.Token{Type: lexer.TOKEN_EOF}
	}
	if p.current >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current]
}

// peekNext returns the token after the current one
func (p *Parser) peekNext() lexer.Token {
	if p.current+1 >= len(p.tokens) {
		return lexer.Token{Type: lexer.TOKEN_EOF}
	}
	return p.tokens[p.current+1]
}

// previous returns the most recently consumed token
func (p *Parser) previous() lexer.Token {
	if len(p.tokens) == 0 || p.current == 0 {
		return lexer.Token{Type: lexer.TOKEN_EOF}
	}
	return p.tokens[p.current-1]
}

// advance consumes the current token and returns it
func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

// check returns true if the current token matches the given type
func (p *Parser) check(tokenType lexer.TokenType) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Type == tokenType
}

// match consumes the token if it matches any of the given types
func (p *Parser) match(types ...lexer.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

// consume advances if the next token matches, otherwise fails with an
// "expecting" error naming what
func (p *Parser) consume(tokenType lexer.TokenType, what string) error {
	if p.check(tokenType) {
		p.advance()
		return nil
	}
	return p.expected(what)
}

// isAtEnd returns true if we've reached the end of the token stream
func (p *Parser) isAtEnd() bool {
	return p.current >= len(p.tokens) || p.tokens[p.current].Type == lexer.TOKEN_EOF
}

// Positions and errors

// spanFrom builds the span from start to the last consumed token
func (p *Parser) spanFrom(start lexer.Token) ast.Span {
	return ast.Span{
		Offset: start.Start,
		End:    p.previous().End,
		Line:   start.Line,
		Column: start.Column,
	}
}

// failOffset is the position right after the last consumed token, or 0
// when nothing was consumed
func (p *Parser) failOffset() int {
	if p.current == 0 {
		return 0
	}
	return p.previous().End
}

func (p *Parser) locationAt(offset int) cerrors.Location {
	return cerrors.LocationAt(p.source, offset)
}

// expected builds the error for a missing grammar element. A lexical error
// at the current token takes precedence since it explains why nothing
// matched.
func (p *Parser) expected(what string) error {
	if p.check(lexer.TOKEN_ERROR) {
		return p.lexical()
	}
	return cerrors.NewExpected(p.locationAt(p.failOffset()), what, p.peek().Describe()).
		WithFile(p.file).WithSource(p.source)
}

// lexical converts the scanner's error into a syntax error
func (p *Parser) lexical() error {
	tok := p.peek()
	message, _ := tok.Literal.(string)
	offset := tok.Start
	if p.lexErr != nil {
		message = p.lexErr.Message
		offset = p.lexErr.Offset
	}
	return cerrors.NewLexical(p.locationAt(offset), message).
		WithFile(p.file).WithSource(p.source)
}
