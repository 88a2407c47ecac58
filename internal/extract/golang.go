package extract

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

type goExtractor struct{}

func (g *goExtractor) Extract(path string, content []byte) (ParseResult, error) {
	root, err := parseTree(context.Background(), golang.GetLanguage(), content)
	if err != nil {
		return ParseResult{}, fmt.Errorf("go extractor: %w", err)
	}

	var res ParseResult
	walk(root, func(n *sitter.Node) {
		switch n.Type() {
		case "function_declaration":
			if name := childByType(n, "identifier"); name != nil {
				res.Symbols = append(res.Symbols, symbolFromNode(n, name, content, KindFunction))
			}
		case "method_declaration":
			if name := childByType(n, "field_identifier"); name != nil {
				res.Symbols = append(res.Symbols, symbolFromNode(n, name, content, KindMethod))
			}
		case "type_spec":
			name := childByType(n, "type_identifier")
			if name == nil {
				return
			}
			kind := KindType
			if body := n.Child(int(n.ChildCount()) - 1); body != nil {
				switch body.Type() {
				case "struct_type":
					kind = KindStruct
				case "interface_type":
					kind = KindInterface
				}
			}
			res.Symbols = append(res.Symbols, symbolFromNode(n, name, content, kind))
		case "const_spec":
			if name := childByType(n, "identifier"); name != nil {
				res.Symbols = append(res.Symbols, symbolFromNode(n, name, content, KindConst))
			}
		case "call_expression":
			fn := n.Child(0)
			if fn == nil {
				return
			}
			var name string
			switch fn.Type() {
			case "identifier":
				name = fn.Content(content)
			case "selector_expression":
				if field := childByType(fn, "field_identifier"); field != nil {
					name = field.Content(content)
				}
			}
			if name != "" {
				res.References = append(res.References, Reference{
					ToName: name,
					Kind:   RefCall,
					Line:   lineStart(n.StartPoint()),
				})
			}
		case "import_spec":
			if path := childByType(n, "interpreted_string_literal"); path != nil {
				res.References = append(res.References, Reference{
					ToName: path.Content(content),
					Kind:   RefImport,
					Line:   lineStart(n.StartPoint()),
				})
			}
		}
	})
	return res, nil
}

func symbolFromNode(n, name *sitter.Node, content []byte, kind SymbolKind) Symbol {
	return Symbol{
		Name:      name.Content(content),
		Kind:      kind,
		LineStart: lineStart(n.StartPoint()),
		LineEnd:   lineStart(n.EndPoint()),
		Signature: firstLine(n.Content(content)),
	}
}
