package extract

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// parseTree parses content with lang and returns the root node. Callers
// must not retain the *sitter.Tree beyond the call that produced it.
func parseTree(ctx context.Context, lang *sitter.Language, content []byte) (*sitter.Node, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return tree.RootNode(), nil
}

// walk calls visit for every node in the tree rooted at n, depth first,
// pre-order, including n itself.
func walk(n *sitter.Node, visit func(*sitter.Node)) {
	if n == nil {
		return
	}
	visit(n)
	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i), visit)
	}
}

// childByType returns the first direct child of n whose Type() equals typ.
func childByType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c != nil && c.Type() == typ {
			return c
		}
	}
	return nil
}

// firstLine returns the first line of s, trimmed of surrounding whitespace.
func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// lineStart converts a 0-based tree-sitter row to a 1-based line number.
func lineStart(p sitter.Point) int {
	return int(p.Row) + 1
}
