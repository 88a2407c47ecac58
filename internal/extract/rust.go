package extract

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

type rustExtractor struct{}

func (r *rustExtractor) Extract(path string, content []byte) (ParseResult, error) {
	root, err := parseTree(context.Background(), rust.GetLanguage(), content)
	if err != nil {
		return ParseResult{}, fmt.Errorf("rust extractor: %w", err)
	}

	var res ParseResult
	implBodies := map[*sitter.Node]bool{}

	walk(root, func(n *sitter.Node) {
		switch n.Type() {
		case "function_item":
			if name := childByType(n, "identifier"); name != nil {
				kind := KindFunction
				if n.Parent() != nil && implBodies[n.Parent()] {
					kind = KindMethod
				}
				res.Symbols = append(res.Symbols, symbolFromNode(n, name, content, kind))
			}
		case "struct_item":
			if name := childByType(n, "type_identifier"); name != nil {
				res.Symbols = append(res.Symbols, symbolFromNode(n, name, content, KindStruct))
			}
		case "enum_item":
			if name := childByType(n, "type_identifier"); name != nil {
				res.Symbols = append(res.Symbols, symbolFromNode(n, name, content, KindEnum))
			}
		case "trait_item":
			if name := childByType(n, "type_identifier"); name != nil {
				res.Symbols = append(res.Symbols, symbolFromNode(n, name, content, KindTrait))
			}
		case "impl_item":
			var typeName *sitter.Node
			for i := 0; i < int(n.NamedChildCount()); i++ {
				c := n.NamedChild(i)
				if c.Type() == "type_identifier" {
					typeName = c
				}
			}
			if typeName != nil {
				res.Symbols = append(res.Symbols, symbolFromNode(n, typeName, content, KindImpl))
				if trait := n.ChildByFieldName("trait"); trait != nil {
					res.References = append(res.References, Reference{
						FromSymbol: typeName.Content(content),
						ToName:     trait.Content(content),
						Kind:       RefImplements,
						Line:       lineStart(n.StartPoint()),
					})
				}
			}
			if body := childByType(n, "declaration_list"); body != nil {
				implBodies[body] = true
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
			case "field_expression":
				if field := childByType(fn, "field_identifier"); field != nil {
					name = field.Content(content)
				}
			case "scoped_identifier":
				if last := fn.Child(int(fn.ChildCount()) - 1); last != nil {
					name = last.Content(content)
				}
			}
			if name != "" {
				res.References = append(res.References, Reference{
					ToName: name,
					Kind:   RefCall,
					Line:   lineStart(n.StartPoint()),
				})
			}
		case "use_declaration":
			walk(n, func(u *sitter.Node) {
				if u.Type() == "identifier" {
					res.References = append(res.References, Reference{
						ToName: u.Content(content),
						Kind:   RefImport,
						Line:   lineStart(n.StartPoint()),
					})
				}
			})
		}
	})
	return res, nil
}
