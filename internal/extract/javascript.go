package extract

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"
)

// jsExtractor handles both JavaScript and TypeScript; the grammar differs
// but the node shapes this extractor cares about are shared.
type jsExtractor struct {
	typescript bool
}

func (j *jsExtractor) Extract(path string, content []byte) (ParseResult, error) {
	lang := javascript.GetLanguage()
	if j.typescript {
		lang = ts.GetLanguage()
	}
	root, err := parseTree(context.Background(), lang, content)
	if err != nil {
		return ParseResult{}, fmt.Errorf("javascript extractor: %w", err)
	}

	var res ParseResult
	classBodies := map[*sitter.Node]bool{}

	walk(root, func(n *sitter.Node) {
		switch n.Type() {
		case "class_declaration":
			if name := childByType(n, "identifier"); name != nil {
				res.Symbols = append(res.Symbols, symbolFromNode(n, name, content, KindClass))
			}
			if body := childByType(n, "class_body"); body != nil {
				classBodies[body] = true
			}
			if heritage := childByType(n, "class_heritage"); heritage != nil {
				walk(heritage, func(h *sitter.Node) {
					if h.Type() == "identifier" {
						res.References = append(res.References, Reference{
							ToName: h.Content(content),
							Kind:   RefInherits,
							Line:   lineStart(n.StartPoint()),
						})
					}
				})
			}
		case "function_declaration":
			if name := childByType(n, "identifier"); name != nil {
				res.Symbols = append(res.Symbols, symbolFromNode(n, name, content, KindFunction))
			}
		case "method_definition":
			if name := childByType(n, "property_identifier"); name != nil {
				kind := KindMethod
				if n.Parent() != nil && classBodies[n.Parent()] {
					kind = KindMethod
				}
				res.Symbols = append(res.Symbols, symbolFromNode(n, name, content, kind))
			}
		case "interface_declaration":
			if name := childByType(n, "type_identifier"); name != nil {
				res.Symbols = append(res.Symbols, symbolFromNode(n, name, content, KindInterface))
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
			case "member_expression":
				if prop := childByType(fn, "property_identifier"); prop != nil {
					name = prop.Content(content)
				}
			}
			if name != "" {
				res.References = append(res.References, Reference{
					ToName: name,
					Kind:   RefCall,
					Line:   lineStart(n.StartPoint()),
				})
			}
		case "import_statement":
			if src := childByType(n, "string"); src != nil {
				res.References = append(res.References, Reference{
					ToName: src.Content(content),
					Kind:   RefImport,
					Line:   lineStart(n.StartPoint()),
				})
			}
		}
	})
	return res, nil
}
