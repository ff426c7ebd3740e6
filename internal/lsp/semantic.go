package lsp

import (
	"kanso/internal/ast"
)

// SemanticToken represents a single LSP semantic token entry
// Line and StartChar are 0-based positions
// TokenType is an index into the semanticTokenTypes array
// TokenModifiers is a bitmask based on semanticTokenModifiers
type SemanticToken struct {
	Line           uint32
	StartChar      uint32
	Length         uint32
	TokenType      int // index into semanticTokenTypes
	TokenModifiers int // bitmask
}

func collectSemanticTokens(contract *ast.Contract) []SemanticToken {
	var tokens []SemanticToken

	if contract == nil {
		return tokens
	}

	tokens = append(tokens, makeToken(contract.Name.Pos, contract.Name.EndPos, contract.Name.Value, "namespace", 1))

	for _, item := range contract.Items {
		switch n := item.(type) {
		case *ast.Struct:
			tokens = append(tokens, walkStruct(n)...)
		case *ast.Function:
			tokens = append(tokens, walkFunction(n)...)
		case *ast.Use:
			tokens = append(tokens, walkUse(n)...)
		}
	}

	return tokens
}

func walkUse(u *ast.Use) []SemanticToken {
	var tokens []SemanticToken
	for _, ns := range u.Namespaces {
		tokens = append(tokens, makeToken(ns.Name.Pos, ns.Name.EndPos, ns.Name.Value, "namespace", 0))
	}
	for _, imp := range u.Imports {
		tokens = append(tokens, makeToken(imp.Name.Pos, imp.Name.EndPos, imp.Name.Value, "type", 0))
	}
	return tokens
}

func walkStruct(s *ast.Struct) []SemanticToken {
	var tokens []SemanticToken

	if s.Attribute != nil {
		tokens = append(tokens, makeToken(s.Attribute.Pos, s.Attribute.EndPos, s.Attribute.Name, "modifier", 0))
	}
	if s.Name.Value != "" {
		tokens = append(tokens, makeToken(s.Name.Pos, s.Name.EndPos, s.Name.Value, "type", 1))
	}

	for _, item := range s.Items {
		field, ok := item.(*ast.StructField)
		if !ok {
			continue
		}
		tokens = append(tokens, makeToken(field.Name.Pos, field.Name.EndPos, field.Name.Value, "property", 1))
		tokens = append(tokens, typeReferenceToken(field.VariableType)...)
	}

	return tokens
}

func walkFunction(f *ast.Function) []SemanticToken {
	var tokens []SemanticToken

	if f.Attribute != nil {
		tokens = append(tokens, makeToken(f.Attribute.Pos, f.Attribute.EndPos, f.Attribute.Name, "modifier", 0))
	}
	if f.Name.Value != "" {
		tokens = append(tokens, makeToken(f.Name.Pos, f.Name.EndPos, f.Name.Value, "function", 1))
	}

	for _, p := range f.Params {
		tokens = append(tokens, makeToken(p.Name.Pos, p.Name.EndPos, p.Name.Value, "parameter", 0))
		tokens = append(tokens, typeReferenceToken(p.Type)...)
	}
	for _, r := range f.Reads {
		tokens = append(tokens, makeToken(r.Pos, r.EndPos, r.Value, "variable", 0))
	}
	for _, w := range f.Writes {
		tokens = append(tokens, makeToken(w.Pos, w.EndPos, w.Value, "variable", 0))
	}

	if f.Body != nil {
		tokens = append(tokens, walkFunctionBlock(f.Body)...)
	}

	return tokens
}

func walkFunctionBlock(fb *ast.FunctionBlock) []SemanticToken {
	var tokens []SemanticToken

	if fb == nil {
		return tokens
	}

	for _, item := range fb.Items {
		tokens = append(tokens, walkBlockItem(item)...)
	}

	if fb.TailExpr != nil && fb.TailExpr.Expr != nil {
		tokens = append(tokens, walkExpr(fb.TailExpr.Expr)...)
	}

	return tokens
}

func walkBlockItem(item ast.FunctionBlockItem) []SemanticToken {
	var tokens []SemanticToken

	switch n := item.(type) {
	case *ast.LetStmt:
		tokens = append(tokens, makeToken(n.Name.Pos, n.Name.EndPos, n.Name.Value, "variable", 1))
		tokens = append(tokens, walkExpr(n.Expr)...)
	case *ast.AssignStmt:
		tokens = append(tokens, walkExpr(n.Target)...)
		tokens = append(tokens, walkExpr(n.Value)...)
	case *ast.ExprStmt:
		tokens = append(tokens, walkExpr(n.Expr)...)
	case *ast.ReturnStmt:
		if n.Value != nil {
			tokens = append(tokens, walkExpr(n.Value)...)
		}
	case *ast.RequireStmt:
		for _, arg := range n.Args {
			tokens = append(tokens, walkExpr(arg)...)
		}
	case *ast.IfStmt:
		tokens = append(tokens, walkExpr(n.Cond)...)
		if n.Then != nil {
			tokens = append(tokens, walkFunctionBlock(n.Then)...)
		}
		if n.ElseIf != nil {
			tokens = append(tokens, walkBlockItem(n.ElseIf)...)
		} else if n.Else != nil {
			tokens = append(tokens, walkFunctionBlock(n.Else)...)
		}
	case *ast.WhileStmt:
		tokens = append(tokens, walkExpr(n.Cond)...)
		if n.Body != nil {
			tokens = append(tokens, walkFunctionBlock(n.Body)...)
		}
	case *ast.ForStmt:
		if n.Init != nil {
			tokens = append(tokens, walkBlockItem(n.Init)...)
		}
		if n.Cond != nil {
			tokens = append(tokens, walkExpr(n.Cond)...)
		}
		if n.Post != nil {
			tokens = append(tokens, walkBlockItem(n.Post)...)
		}
		if n.Body != nil {
			tokens = append(tokens, walkFunctionBlock(n.Body)...)
		}
	}

	return tokens
}

func walkExpr(expr ast.Expr) []SemanticToken {
	var tokens []SemanticToken

	if expr == nil {
		return tokens
	}

	switch n := expr.(type) {
	case *ast.IdentExpr:
		tokens = append(tokens, makeToken(n.Pos, n.EndPos, n.Name, "variable", 0))
	case *ast.BinaryExpr:
		tokens = append(tokens, walkExpr(n.Left)...)
		tokens = append(tokens, walkExpr(n.Right)...)
	case *ast.UnaryExpr:
		tokens = append(tokens, walkExpr(n.Value)...)
	case *ast.CallExpr:
		tokens = append(tokens, walkCallExpr(n)...)
	case *ast.FieldAccessExpr:
		tokens = append(tokens, walkExpr(n.Target)...)
	case *ast.IndexExpr:
		tokens = append(tokens, walkExpr(n.Target)...)
		tokens = append(tokens, walkExpr(n.Index)...)
	case *ast.TupleExpr:
		for _, el := range n.Elements {
			tokens = append(tokens, walkExpr(el)...)
		}
	case *ast.ParenExpr:
		tokens = append(tokens, walkExpr(n.Value)...)
	}

	return tokens
}

func walkCallExpr(call *ast.CallExpr) []SemanticToken {
	var tokens []SemanticToken

	if call == nil {
		return tokens
	}

	if callee, ok := call.Callee.(*ast.CalleePath); ok {
		for _, part := range callee.Parts {
			tokens = append(tokens, makeToken(part.Pos, part.EndPos, part.Value, "function", 0))
		}
	} else {
		tokens = append(tokens, walkExpr(call.Callee)...)
	}

	for _, g := range call.Generic {
		tokens = append(tokens, typeReferenceToken(&g)...)
	}

	for _, arg := range call.Args {
		tokens = append(tokens, walkExpr(arg)...)
	}

	return tokens
}

func makeToken(pos, endPos ast.Position, value, tokenType string, decl int) SemanticToken {
	length := endPos.Column - pos.Column
	if length <= 0 {
		length = len(value)
	}

	return SemanticToken{
		Line:           uint32(pos.Line - 1),
		StartChar:      uint32(pos.Column - 1),
		Length:         uint32(length),
		TokenType:      indexOf(tokenType, SemanticTokenTypes),
		TokenModifiers: decl << indexOf("declaration", SemanticTokenModifiers),
	}
}

// typeReferenceToken collects tokens for type references
// (e.g., parameter types, return types, generic types)
func typeReferenceToken(t *ast.VariableType) []SemanticToken {
	if t == nil || t.Name.Value == "" {
		return nil
	}
	return []SemanticToken{
		makeToken(t.Name.Pos, t.Name.EndPos, t.Name.Value, "type", 0),
	}
}

// indexOf returns the index of a string in a list, or -1 if not found
func indexOf(target string, list []string) int {
	for i, v := range list {
		if v == target {
			return i
		}
	}
	return -1
}
