// Package session implements the working-session sub-graph: the active
// task, its items, decisions, and a mutable context, all stored as a
// distinguished partition of the store.
package session

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/websines/codegraph-mcp/internal/store"
)

// Item is one unit of work tracked under the current task.
type Item struct {
	ID     string
	Text   string
	Status string // pending | in_progress | done
	Order  int
}

// Decision records a choice made during the session.
type Decision struct {
	ID               string
	What             string
	Why              string
	RelatedSymbols   []string
	CreatedAt        int64
}

// Summary is the payload returned by SmartContext.
type Summary struct {
	Task             string
	CurrentItem      *Item
	Progress         string
	RecentDecisions  []Decision
	WorkingSymbols   []string
}

// Session drives the session sub-graph against a Store.
type Session struct {
	Store *store.Store
}

// New wraps a Store for session operations.
func New(s *store.Store) *Session {
	return &Session{Store: s}
}

// StartSession drops all nodes/edges in graphs "session" and "cross",
// creates the task node and one pending item node per entry, and creates
// an empty context node.
func (s *Session) StartSession(task string, items []string) error {
	if err := s.Store.DeleteGraph("session"); err != nil {
		return fmt.Errorf("session: reset session graph: %w", err)
	}
	if err := s.Store.DeleteGraph("cross"); err != nil {
		return fmt.Errorf("session: reset cross graph: %w", err)
	}

	if err := s.Store.UpsertNode(&store.Node{
		ID:    "session::current",
		Graph: "session",
		Kind:  "task",
		Data:  map[string]any{"task": task},
	}); err != nil {
		return fmt.Errorf("session: write task node: %w", err)
	}

	for i, text := range items {
		id := fmt.Sprintf("session::item::%s", uuid.NewString())
		if err := s.Store.UpsertNode(&store.Node{
			ID:    id,
			Graph: "session",
			Kind:  "item",
			Data: map[string]any{
				"text":   text,
				"status": "pending",
				"order":  float64(i),
			},
		}); err != nil {
			return fmt.Errorf("session: write item node: %w", err)
		}
		if err := s.Store.UpsertEdge(&store.Edge{
			Source: "session::current",
			Target: id,
			Kind:   "has_item",
			Graph:  "session",
		}); err != nil {
			return fmt.Errorf("session: link item node: %w", err)
		}
	}

	if err := s.Store.UpsertNode(&store.Node{
		ID:    "session::context",
		Graph: "session",
		Kind:  "context",
		Data: map[string]any{
			"files":   []any{},
			"symbols": []any{},
		},
	}); err != nil {
		return fmt.Errorf("session: write context node: %w", err)
	}
	return nil
}

// UpdateTask changes the status of the item at the given index, in
// insertion order.
func (s *Session) UpdateTask(index int, status string) error {
	items, err := s.Items()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(items) {
		return fmt.Errorf("session: item index %d out of range", index)
	}
	item := items[index]
	node, err := s.Store.GetNode(item.ID)
	if err != nil {
		return fmt.Errorf("session: get item %s: %w", item.ID, err)
	}
	if node == nil {
		return fmt.Errorf("session: item %s not found", item.ID)
	}
	node.Data["status"] = status
	if err := s.Store.UpsertNode(node); err != nil {
		return fmt.Errorf("session: update item %s: %w", item.ID, err)
	}
	return nil
}

// AddDecision creates a decision node linked to the task with has_decision.
// For each related symbol name, resolve via FindAllBySuffix; on a unique
// hit, write a related_to edge in graph "cross".
func (s *Session) AddDecision(what, why string, relatedSymbols []string) error {
	id := fmt.Sprintf("session::decision::%s", uuid.NewString())
	if err := s.Store.UpsertNode(&store.Node{
		ID:    id,
		Graph: "session",
		Kind:  "decision",
		Data: map[string]any{
			"what": what,
			"why":  why,
		},
	}); err != nil {
		return fmt.Errorf("session: write decision node: %w", err)
	}
	if err := s.Store.UpsertEdge(&store.Edge{
		Source: "session::current",
		Target: id,
		Kind:   "has_decision",
		Graph:  "session",
	}); err != nil {
		return fmt.Errorf("session: link decision node: %w", err)
	}

	for _, name := range relatedSymbols {
		matches, err := s.Store.FindAllBySuffix(name)
		if err != nil {
			return fmt.Errorf("session: resolve related symbol %s: %w", name, err)
		}
		if len(matches) != 1 {
			continue
		}
		if err := s.Store.UpsertEdge(&store.Edge{
			Source: id,
			Target: matches[0],
			Kind:   "related_to",
			Graph:  "cross",
		}); err != nil {
			return fmt.Errorf("session: write related_to edge: %w", err)
		}
	}
	return nil
}

// SetContext adds a file and/or symbol to the working context. Either
// argument may be empty to leave that dimension unchanged.
func (s *Session) SetContext(addFile, addSymbol string) error {
	node, err := s.Store.GetNode("session::context")
	if err != nil {
		return fmt.Errorf("session: get context node: %w", err)
	}
	if node == nil {
		return fmt.Errorf("session: no active session")
	}
	files := toStringSlice(node.Data["files"])
	symbols := toStringSlice(node.Data["symbols"])

	if addFile != "" && !contains(files, addFile) {
		files = append(files, addFile)
	}
	if addSymbol != "" && !contains(symbols, addSymbol) {
		symbols = append(symbols, addSymbol)
	}

	node.Data["files"] = files
	node.Data["symbols"] = symbols
	if err := s.Store.UpsertNode(node); err != nil {
		return fmt.Errorf("session: update context node: %w", err)
	}
	return nil
}

// Items returns every item under the current task, in creation order.
func (s *Session) Items() ([]Item, error) {
	edges, err := s.Store.EdgesFrom("session::current")
	if err != nil {
		return nil, fmt.Errorf("session: list task edges: %w", err)
	}
	var items []Item
	for _, e := range edges {
		if e.Kind != "has_item" {
			continue
		}
		n, err := s.Store.GetNode(e.Target)
		if err != nil || n == nil {
			continue
		}
		text, _ := n.Data["text"].(string)
		status, _ := n.Data["status"].(string)
		order := 0
		if o, ok := n.Data["order"].(float64); ok {
			order = int(o)
		}
		items = append(items, Item{ID: n.ID, Text: text, Status: status, Order: order})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Order < items[j].Order })
	return items, nil
}

// Decisions returns every decision under the current task, most recent last.
func (s *Session) Decisions() ([]Decision, error) {
	edges, err := s.Store.EdgesFrom("session::current")
	if err != nil {
		return nil, fmt.Errorf("session: list task edges: %w", err)
	}
	var decisions []Decision
	for _, e := range edges {
		if e.Kind != "has_decision" {
			continue
		}
		n, err := s.Store.GetNode(e.Target)
		if err != nil || n == nil {
			continue
		}
		what, _ := n.Data["what"].(string)
		why, _ := n.Data["why"].(string)
		decisions = append(decisions, Decision{ID: n.ID, What: what, Why: why, CreatedAt: n.CreatedAt.Unix()})
	}
	sort.Slice(decisions, func(i, j int) bool { return decisions[i].CreatedAt < decisions[j].CreatedAt })
	return decisions, nil
}

// SmartContext returns the summary: the task
// description and current item, a progress string, the three most recent
// decisions, and the union of working symbols with their 1-hop neighbours
// under edge kinds {calls, imports}.
func (s *Session) SmartContext(neighborLookup func(symbolID string) []string) (Summary, error) {
	taskNode, err := s.Store.GetNode("session::current")
	if err != nil {
		return Summary{}, fmt.Errorf("session: get task node: %w", err)
	}
	if taskNode == nil {
		return Summary{}, fmt.Errorf("session: no active session")
	}
	task, _ := taskNode.Data["task"].(string)

	items, err := s.Items()
	if err != nil {
		return Summary{}, err
	}

	var current *Item
	completed := 0
	for i := range items {
		if items[i].Status == "done" {
			completed++
		}
		if current == nil && items[i].Status == "in_progress" {
			current = &items[i]
		}
	}
	if current == nil {
		for i := range items {
			if items[i].Status == "pending" {
				current = &items[i]
				break
			}
		}
	}

	decisions, err := s.Decisions()
	if err != nil {
		return Summary{}, err
	}
	recent := decisions
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}

	contextNode, err := s.Store.GetNode("session::context")
	if err != nil {
		return Summary{}, fmt.Errorf("session: get context node: %w", err)
	}
	var working []string
	if contextNode != nil {
		working = toStringSlice(contextNode.Data["symbols"])
	}

	seen := make(map[string]bool, len(working))
	union := append([]string{}, working...)
	for _, w := range working {
		seen[w] = true
	}
	if neighborLookup != nil {
		for _, w := range working {
			for _, n := range neighborLookup(w) {
				if !seen[n] {
					seen[n] = true
					union = append(union, n)
				}
			}
		}
	}

	return Summary{
		Task:            task,
		CurrentItem:     current,
		Progress:        fmt.Sprintf("%d/%d tasks completed", completed, len(items)),
		RecentDecisions: recent,
		WorkingSymbols:  union,
	}, nil
}

func toStringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return append([]string{}, vv...)
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func contains(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}
