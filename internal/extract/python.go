package extract

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

type pythonExtractor struct{}

func (p *pythonExtractor) Extract(path string, content []byte) (ParseResult, error) {
	root, err := parseTree(context.Background(), python.GetLanguage(), content)
	if err != nil {
		return ParseResult{}, fmt.Errorf("python extractor: %w", err)
	}

	var res ParseResult
	// classBodies records each class_definition's body block, so that
	// function_definition nodes directly inside it are reported as methods.
	classBodies := map[*sitter.Node]bool{}

	walk(root, func(n *sitter.Node) {
		switch n.Type() {
		case "class_definition":
			if name := childByType(n, "identifier"); name != nil {
				res.Symbols = append(res.Symbols, symbolFromNode(n, name, content, KindClass))
			}
			if body := childByType(n, "block"); body != nil {
				classBodies[body] = true
			}
			if args := childByType(n, "argument_list"); args != nil {
				for i := 0; i < int(args.NamedChildCount()); i++ {
					base := args.NamedChild(i)
					if base.Type() == "identifier" {
						res.References = append(res.References, Reference{
							ToName: base.Content(content),
							Kind:   RefInherits,
							Line:   lineStart(n.StartPoint()),
						})
					}
				}
			}
		case "function_definition":
			if name := childByType(n, "identifier"); name != nil {
				kind := KindFunction
				if n.Parent() != nil && classBodies[n.Parent()] {
					kind = KindMethod
				}
				res.Symbols = append(res.Symbols, symbolFromNode(n, name, content, kind))
			}
		case "call":
			fn := n.Child(0)
			if fn == nil {
				return
			}
			var name string
			switch fn.Type() {
			case "identifier":
				name = fn.Content(content)
			case "attribute":
				if attr := childByType(fn, "identifier"); attr != nil {
					name = attr.Content(content)
				}
			}
			if name != "" {
				res.References = append(res.References, Reference{
					ToName: name,
					Kind:   RefCall,
					Line:   lineStart(n.StartPoint()),
				})
			}
		case "import_statement", "import_from_statement":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				c := n.NamedChild(i)
				if c.Type() == "dotted_name" || c.Type() == "identifier" {
					res.References = append(res.References, Reference{
						ToName: c.Content(content),
						Kind:   RefImport,
						Line:   lineStart(n.StartPoint()),
					})
				}
			}
		}
	})
	return res, nil
}
