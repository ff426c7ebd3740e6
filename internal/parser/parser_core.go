package parser

import "kanso/internal/ast"

// ParseError describes a syntax error found while building the AST from tokens.
type ParseError struct {
	Message  string
	Position Position
}

// Parser builds an *ast.Contract from a token stream using recursive descent
// with a Pratt expression parser for operator precedence.
type Parser struct {
	filename string
	tokens   []Token
	current  int
	errors   []ParseError
}

// NewParser creates a parser positioned at the start of tokens.
func NewParser(filename string, tokens []Token) *Parser {
	return &Parser{
		filename: filename,
		tokens:   tokens,
	}
}

// ParseContract parses a full source file into a single contract declaration,
// returning nil if the contract header itself could not be recovered.
func (p *Parser) ParseContract() *ast.Contract {
	var leading []ast.ContractItem

	for p.check(COMMENT) || p.check(DOC_COMMENT) {
		leading = append(leading, p.parseLeadingComment())
	}

	kind, kindTok, ok := p.consumeContractKind()
	if !ok {
		p.errorAtCurrent("expected 'contract', 'library' or 'interface' declaration")
		return nil
	}

	name, ok := p.consumeIdent("expected contract name")
	if !ok {
		p.synchronize()
		return nil
	}

	var bases []ast.Ident
	if p.match(COLON) {
		bases = p.parseIdentifierList()
	}

	items := p.parseContractBody()
	end := p.previous() // parseContractBody leaves p at the closing brace

	return &ast.Contract{
		Pos:             p.makePos(kindTok),
		EndPos:          p.makeEndPos(end),
		LeadingComments: leading,
		Name:            name,
		Kind:            kind,
		Bases:           bases,
		Items:           items,
	}
}

func (p *Parser) consumeContractKind() (ast.ContractKind, Token, bool) {
	switch {
	case p.check(CONTRACT):
		return ast.ContractKindContract, p.advance(), true
	case p.check(LIBRARY):
		return ast.ContractKindLibrary, p.advance(), true
	case p.check(INTERFACE):
		return ast.ContractKindInterface, p.advance(), true
	default:
		return ast.ContractKindContract, p.peek(), false
	}
}

func (p *Parser) parseLeadingComment() ast.ContractItem {
	tok := p.advance()
	if tok.Type == DOC_COMMENT {
		return &ast.DocComment{
			Pos:    p.makePos(tok),
			EndPos: p.makeEndPos(tok),
			Text:   tok.Lexeme,
		}
	}
	return &ast.Comment{
		Pos:    p.makePos(tok),
		EndPos: p.makeEndPos(tok),
		Text:   tok.Lexeme,
	}
}

func (p *Parser) parseContractBody() []ast.ContractItem {
	p.consume(LEFT_BRACE, "expected '{' to start contract body")
	var items []ast.ContractItem

	for !p.check(RIGHT_BRACE) && !p.isAtEnd() {
		item := p.parseContractItem()
		if item != nil {
			items = append(items, item)
		}
	}

	p.consume(RIGHT_BRACE, "expected '}' to close contract body")
	return items
}

func (p *Parser) parseContractItem() ast.ContractItem {
	if p.check(COMMENT) || p.check(DOC_COMMENT) {
		return p.parseLeadingComment()
	}

	if p.check(USE) {
		return p.parseUse()
	}

	var doc *ast.DocComment
	if p.check(DOC_COMMENT) {
		tok := p.advance()
		doc = &ast.DocComment{
			Pos:    p.makePos(tok),
			EndPos: p.makeEndPos(tok),
			Text:   tok.Lexeme,
		}
	}

	var attr *ast.Attribute
	if p.check(POUND) {
		attr = p.parseAttribute()
	}

	// A doc comment may also sit between the attribute and the item
	if attr != nil && p.check(DOC_COMMENT) {
		tok := p.advance()
		doc = &ast.DocComment{Pos: p.makePos(tok), EndPos: p.makeEndPos(tok), Text: tok.Lexeme}
	}

	switch {
	case p.check(STRUCT):
		return p.parseStructWithDoc(attr, doc)
	case p.check(EXT):
		p.advance()
		return p.parseFunction(attr, true)
	case p.check(FN):
		return p.parseFunction(attr, false)
	default:
		p.errorAtCurrent("expected 'struct', 'fn' or 'ext fn' declaration")
		p.synchronize()
		return nil
	}
}

// parseAttribute parses a "#[name]" attribute, e.g. #[storage], #[event], #[create].
func (p *Parser) parseAttribute() *ast.Attribute {
	start := p.consume(POUND, "expected '#'")
	p.consume(LEFT_BRACKET, "expected '[' after '#'")
	name, _ := p.consumeIdent("expected attribute name")
	end := p.consume(RIGHT_BRACKET, "expected ']' to close attribute")

	return &ast.Attribute{
		Pos:    p.makePos(start),
		EndPos: p.makeEndPos(end),
		Name:   name.Value,
	}
}

// parseComment consumes a single comment token, used inside struct bodies.
func (p *Parser) parseComment() ast.StructItem {
	tok := p.advance()
	return &ast.Comment{
		Pos:    p.makePos(tok),
		EndPos: p.makeEndPos(tok),
		Text:   tok.Lexeme,
	}
}

// parseVariableType parses a possibly-generic type name, e.g. "U256",
// "Slots<Address, U256>", aliasing the Pratt parser's type grammar.
func (p *Parser) parseVariableType() *ast.VariableType {
	return p.parseType()
}
