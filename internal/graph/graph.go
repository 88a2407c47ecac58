// Package graph implements the in-memory directed labelled multigraph
// that backs search, file-symbol lookup, and neighbour traversal. It is
// rebuilt from the store's code partition after every index run.
package graph

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/websines/codegraph-mcp/internal/store"
)

// NodeData is the read-only view of a graph node returned by queries.
type NodeData struct {
	ID   string
	Kind string
	Data map[string]any
}

// EdgeData is the read-only view of a graph edge.
type EdgeData struct {
	Kind string
	Data map[string]any
}

// NeighborResult is one node reached by a bounded traversal, with the
// sequence of edge kinds traversed to reach it and its hop distance.
type NeighborResult struct {
	Node      NodeData
	EdgeKinds []string
	Hops      int
}

// Direction constrains which edges a traversal follows.
type Direction string

const (
	DirIn   Direction = "in"
	DirOut  Direction = "out"
	DirBoth Direction = "both"
)

type adjacency struct {
	target string
	kind   string
}

// Graph is an arena-style directed multigraph keyed by stable string ids,
// guarded by a single reader/writer lock.
type Graph struct {
	mu sync.RWMutex

	nodes   map[string]NodeData
	order   []string // insertion order, for search tie-breaking
	outEdge map[string][]adjacency
	inEdge  map[string][]adjacency
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes:   map[string]NodeData{},
		outEdge: map[string][]adjacency{},
		inEdge:  map[string][]adjacency{},
	}
}

// LoadFromStore builds a new graph from the "code" partition of s. It
// takes no lock: the returned Graph is not shared until the caller
// publishes it (Rebuild takes the exclusive lock for that swap).
func LoadFromStore(s *store.Store) (*Graph, error) {
	nodes, err := s.AllNodes("code")
	if err != nil {
		return nil, fmt.Errorf("graph: load nodes: %w", err)
	}
	edges, err := s.AllEdges("code")
	if err != nil {
		return nil, fmt.Errorf("graph: load edges: %w", err)
	}

	g := New()
	for _, n := range nodes {
		g.nodes[n.ID] = NodeData{ID: n.ID, Kind: n.Kind, Data: n.Data}
		g.order = append(g.order, n.ID)
	}
	for _, e := range edges {
		g.outEdge[e.Source] = append(g.outEdge[e.Source], adjacency{target: e.Target, kind: e.Kind})
		g.inEdge[e.Target] = append(g.inEdge[e.Target], adjacency{target: e.Source, kind: e.Kind})
	}
	return g, nil
}

// Rebuild replaces g's contents in place with a fresh load from s,
// acquiring the exclusive lock only for the pointer swap. Writes to the
// Store are not guarded by the graph lock.
func (g *Graph) Rebuild(s *store.Store) error {
	fresh, err := LoadFromStore(s)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes = fresh.nodes
	g.order = fresh.order
	g.outEdge = fresh.outEdge
	g.inEdge = fresh.inEdge
	return nil
}

// Search finds nodes by name with simple case-insensitive scoring:
// exact name = 100, prefix = 50, substring = 25; non-matches are filtered
// out. Ties are broken by insertion order.
func (g *Graph) Search(query string, kind, fileSubstring string, limit int) []NodeData {
	g.mu.RLock()
	defer g.mu.RUnlock()

	q := strings.ToLower(query)
	type scored struct {
		node  NodeData
		score int
		pos   int
	}
	var matches []scored

	for i, id := range g.order {
		n := g.nodes[id]
		if kind != "" && n.Kind != kind {
			continue
		}
		if fileSubstring != "" {
			file, _ := n.Data["file"].(string)
			if !strings.Contains(file, fileSubstring) {
				continue
			}
		}
		name, _ := n.Data["name"].(string)
		lname := strings.ToLower(name)
		var score int
		switch {
		case lname == q:
			score = 100
		case strings.HasPrefix(lname, q):
			score = 50
		case strings.Contains(lname, q):
			score = 25
		default:
			continue
		}
		matches = append(matches, scored{node: n, score: score, pos: i})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].pos < matches[j].pos
	})

	if limit <= 0 || limit > len(matches) {
		limit = len(matches)
	}
	out := make([]NodeData, 0, limit)
	for i := 0; i < limit; i++ {
		out = append(out, matches[i].node)
	}
	return out
}

// FileSymbols returns every node whose data.file equals path.
func (g *Graph) FileSymbols(path string) []NodeData {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []NodeData
	for _, id := range g.order {
		n := g.nodes[id]
		if file, _ := n.Data["file"].(string); file == path {
			out = append(out, n)
		}
	}
	return out
}

// Neighbors performs a breadth-bounded traversal up to depth hops from id,
// excluding the start node. For direction "both" the union of outgoing and
// incoming edges is taken per hop. edgeFilter, when non-empty, keeps only
// edges whose kind is in the filter. Each node is visited at most once;
// the first reaching path (shortest by hop count) is recorded.
func (g *Graph) Neighbors(id string, depth int, direction Direction, edgeFilter []string) []NeighborResult {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[id]; !ok {
		return nil
	}
	filter := map[string]bool{}
	for _, k := range edgeFilter {
		filter[k] = true
	}

	type queued struct {
		id        string
		hops      int
		edgeKinds []string
	}

	visited := map[string]bool{id: true}
	queue := []queued{{id: id, hops: 0, edgeKinds: nil}}
	var results []NeighborResult

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.hops >= depth {
			continue
		}

		var adj []adjacency
		if direction == DirOut || direction == DirBoth {
			adj = append(adj, g.outEdge[cur.id]...)
		}
		if direction == DirIn || direction == DirBoth {
			adj = append(adj, g.inEdge[cur.id]...)
		}

		for _, a := range adj {
			if len(filter) > 0 && !filter[a.kind] {
				continue
			}
			if visited[a.target] {
				continue
			}
			visited[a.target] = true
			kinds := append(append([]string{}, cur.edgeKinds...), a.kind)
			n, ok := g.nodes[a.target]
			if !ok {
				continue
			}
			results = append(results, NeighborResult{Node: n, EdgeKinds: kinds, Hops: cur.hops + 1})
			queue = append(queue, queued{id: a.target, hops: cur.hops + 1, edgeKinds: kinds})
		}
	}

	return results
}

// NodeCount returns the number of nodes currently loaded.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// HasSymbol reports whether any node's id contains name or whose
// data["name"] contains name. Satisfies
// learning.SymbolChecker.
func (g *Graph) HasSymbol(name string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, id := range g.order {
		if strings.Contains(id, name) {
			return true
		}
		n := g.nodes[id]
		if dn, ok := n.Data["name"].(string); ok && strings.Contains(dn, name) {
			return true
		}
	}
	return false
}

// Get returns a single node by id, or (NodeData{}, false) if absent.
func (g *Graph) Get(id string) (NodeData, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	return n, ok
}
