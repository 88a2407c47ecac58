// Package toolhandler maps the JSON-RPC tool surface onto
// the core operations of internal/indexer, internal/graph,
// internal/session, and internal/learning, translating errors into
// tool-result failures rather than protocol-level ones.
package toolhandler

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/websines/codegraph-mcp/internal/config"
	"github.com/websines/codegraph-mcp/internal/crosslang"
	"github.com/websines/codegraph-mcp/internal/distill"
	"github.com/websines/codegraph-mcp/internal/graph"
	"github.com/websines/codegraph-mcp/internal/indexer"
	"github.com/websines/codegraph-mcp/internal/learning"
	"github.com/websines/codegraph-mcp/internal/mcptransport"
	"github.com/websines/codegraph-mcp/internal/projectstate"
	"github.com/websines/codegraph-mcp/internal/session"
	"github.com/websines/codegraph-mcp/internal/store"
)

// Handler implements mcptransport.ToolHandler, fanning tools/call
// dispatch out to the core packages.
type Handler struct {
	CodeStore     *store.Store
	LearningStore *store.LearningStore
	Graph         *graph.Graph
	Indexer       *indexer.Indexer
	Session       *session.Session
	Learning      *learning.Store
	CrossLang     *crosslang.Inferrer
	Config        config.Config

	ProjectRoot string
}

// ResolveRoot resolves the project root from the first file:// URI in
// roots, falling back to the current working directory, then opens (or
// reuses, if already bound to the same root) every persistent store for
// that project and wires them into h.
func (h *Handler) ResolveRoot(roots []string) error {
	root := ""
	for _, r := range roots {
		u, err := url.Parse(r)
		if err != nil || u.Scheme != "file" {
			continue
		}
		root = u.Path
		break
	}
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("toolhandler: resolve cwd: %w", err)
		}
		root = cwd
	}

	if h.ProjectRoot == root && h.CodeStore != nil {
		return nil
	}

	layout, err := projectstate.Resolve(root)
	if err != nil {
		return fmt.Errorf("toolhandler: resolve project layout: %w", err)
	}
	if err := layout.EnsureDirs(); err != nil {
		return fmt.Errorf("toolhandler: prepare project directories: %w", err)
	}

	cfg, err := config.Load(layout.ConfigPath)
	if err != nil {
		return fmt.Errorf("toolhandler: load config: %w", err)
	}

	codeStore, err := store.Open(layout.StoreDBPath)
	if err != nil {
		return fmt.Errorf("toolhandler: open store: %w", err)
	}
	learningStore, err := store.OpenLearningStore(layout.LearningDB)
	if err != nil {
		return fmt.Errorf("toolhandler: open learning store: %w", err)
	}
	g, err := graph.LoadFromStore(codeStore)
	if err != nil {
		return fmt.Errorf("toolhandler: load graph: %w", err)
	}

	h.CodeStore = codeStore
	h.LearningStore = learningStore
	h.Graph = g
	h.Indexer = indexer.New(codeStore, cfg.Indexing.Exclude, cfg.Indexing.MaxFileSize)
	h.Session = session.New(codeStore)
	h.Learning = learning.New(learningStore)
	h.CrossLang = crosslang.New(codeStore)
	h.Config = cfg
	h.ProjectRoot = root
	return nil
}

func textResult(s string) mcptransport.CallToolResult {
	return mcptransport.CallToolResult{Content: []mcptransport.Content{{Type: "text", Text: s}}}
}

func jsonResult(v any) mcptransport.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errResult(fmt.Sprintf("failed to marshal result: %v", err))
	}
	return textResult(string(data))
}

func errResult(msg string) mcptransport.CallToolResult {
	return mcptransport.CallToolResult{Content: []mcptransport.Content{{Type: "text", Text: msg}}, IsError: true}
}

// CallTool dispatches name to its handler. Unknown tools and per-tool
// not-found/validation failures are reported as isError=true tool
// results, never protocol errors.
func (h *Handler) CallTool(name string, arguments json.RawMessage) (mcptransport.CallToolResult, error) {
	args := map[string]any{}
	if len(arguments) > 0 {
		if err := json.Unmarshal(arguments, &args); err != nil {
			return errResult("invalid arguments: " + err.Error()), nil
		}
	}

	fn, ok := dispatch[name]
	if !ok {
		return errResult("unknown tool: " + name), nil
	}
	return fn(h, args), nil
}

var dispatch = map[string]func(*Handler, map[string]any) mcptransport.CallToolResult{
	"index_project":             (*Handler).indexProject,
	"search_symbols":            (*Handler).searchSymbols,
	"get_file_symbols":          (*Handler).getFileSymbols,
	"get_neighbors":             (*Handler).getNeighbors,
	"start_session":             (*Handler).startSession,
	"get_session":               (*Handler).getSession,
	"update_task":               (*Handler).updateTask,
	"add_decision":              (*Handler).addDecision,
	"set_context":               (*Handler).setContext,
	"smart_context":             (*Handler).smartContext,
	"recall_patterns":           (*Handler).recallPatterns,
	"recall_failures":           (*Handler).recallFailures,
	"extract_pattern":           (*Handler).extractPattern,
	"record_failure":            (*Handler).recordFailure,
	"record_attempt":            (*Handler).recordAttempt,
	"record_outcome":            (*Handler).recordOutcome,
	"reflect":                   (*Handler).reflect,
	"query_lineage":             (*Handler).queryLineage,
	"suggest_approach":          (*Handler).suggestApproach,
	"distill_project_skill":     (*Handler).distillProjectSkill,
	"add_instruction":           (*Handler).addInstruction,
	"get_project_instructions":  (*Handler).getProjectInstructions,
	"sync_learnings":            (*Handler).syncLearnings,
	"list_niches":               (*Handler).listNiches,
	"infer_cross_edges":         (*Handler).inferCrossEdges,
	"get_api_connections":       (*Handler).getAPIConnections,
}

// ListTools describes every tool's arguments for tools/list.
func (h *Handler) ListTools() []mcptransport.Tool {
	str := mcptransport.Property{Type: "string"}
	num := mcptransport.Property{Type: "number"}
	boolean := mcptransport.Property{Type: "boolean"}
	arr := mcptransport.Property{Type: "array"}

	return []mcptransport.Tool{
		{Name: "index_project", Description: "Full or incremental index of the project tree.",
			InputSchema: mcptransport.InputSchema{Type: "object", Properties: map[string]mcptransport.Property{"full": boolean}}},
		{Name: "search_symbols", Description: "Search symbols by name.",
			InputSchema: mcptransport.InputSchema{Type: "object", Properties: map[string]mcptransport.Property{
				"query": str, "kind": str, "file_pattern": str, "limit": num}, Required: []string{"query"}}},
		{Name: "get_file_symbols", Description: "List symbols defined in a file.",
			InputSchema: mcptransport.InputSchema{Type: "object", Properties: map[string]mcptransport.Property{"path": str}, Required: []string{"path"}}},
		{Name: "get_neighbors", Description: "Bounded neighbour traversal from a node id.",
			InputSchema: mcptransport.InputSchema{Type: "object", Properties: map[string]mcptransport.Property{
				"id": str, "depth": num, "direction": str, "edge_types": arr}, Required: []string{"id"}}},
		{Name: "start_session", Description: "Start a new working session, resetting session state."},
		{Name: "get_session", Description: "Return the current session's task, items, and decisions."},
		{Name: "update_task", Description: "Update the status of a session item."},
		{Name: "add_decision", Description: "Record a decision in the current session."},
		{Name: "set_context", Description: "Add a file and/or symbol to the session's working context."},
		{Name: "smart_context", Description: "Summarise the current session's task, progress, and context."},
		{Name: "recall_patterns", Description: "Recall patterns matching a scope context."},
		{Name: "recall_failures", Description: "Recall failures matching a scope context."},
		{Name: "extract_pattern", Description: "Record a new reusable pattern."},
		{Name: "record_failure", Description: "Record a new known failure."},
		{Name: "record_attempt", Description: "Record a new solution attempt."},
		{Name: "record_outcome", Description: "Record the outcome of a solution attempt."},
		{Name: "reflect", Description: "Validate and record a lesson learned from a task outcome."},
		{Name: "query_lineage", Description: "Return a solution's lineage tree."},
		{Name: "suggest_approach", Description: "Suggest a prior approach for a task."},
		{Name: "distill_project_skill", Description: "Render the distilled project skill document."},
		{Name: "add_instruction", Description: "Manually add an instruction to the distilled skill."},
		{Name: "get_project_instructions", Description: "List manually added instructions."},
		{Name: "sync_learnings", Description: "Write patterns.json and failures.json artefacts."},
		{Name: "list_niches", Description: "List behavioral niches and each one's best-scoring solution.",
			InputSchema: mcptransport.InputSchema{Type: "object", Properties: map[string]mcptransport.Property{"task_type": str}}},
		{Name: "infer_cross_edges", Description: "Infer REST/GraphQL API connections between client call sites and server routes.",
			InputSchema: mcptransport.InputSchema{Type: "object", Properties: map[string]mcptransport.Property{"force_rebuild": boolean}}},
		{Name: "get_api_connections", Description: "List recorded API connections touching a file or path.",
			InputSchema: mcptransport.InputSchema{Type: "object", Properties: map[string]mcptransport.Property{"path": str}, Required: []string{"path"}}},
	}
}

// --- Indexing / graph tools ---

func (h *Handler) indexProject(args map[string]any) mcptransport.CallToolResult {
	full, _ := args["full"].(bool)
	var c indexer.Counters
	var err error
	if full {
		c, err = h.Indexer.IndexFull(h.ProjectRoot)
	} else {
		c, err = h.Indexer.IndexIncremental(h.ProjectRoot)
	}
	if err != nil {
		return errResult("index failed: " + err.Error())
	}
	if err := h.Graph.Rebuild(h.CodeStore); err != nil {
		return errResult("graph rebuild failed: " + err.Error())
	}
	return jsonResult(c)
}

func (h *Handler) searchSymbols(args map[string]any) mcptransport.CallToolResult {
	query, _ := args["query"].(string)
	if query == "" {
		return errResult("search_symbols: query is required")
	}
	kind, _ := args["kind"].(string)
	filePattern, _ := args["file_pattern"].(string)
	limit := 10
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}
	return jsonResult(h.Graph.Search(query, kind, filePattern, limit))
}

func (h *Handler) getFileSymbols(args map[string]any) mcptransport.CallToolResult {
	path, _ := args["path"].(string)
	if path == "" {
		return errResult("get_file_symbols: path is required")
	}
	return jsonResult(h.Graph.FileSymbols(path))
}

func (h *Handler) getNeighbors(args map[string]any) mcptransport.CallToolResult {
	id, _ := args["id"].(string)
	if id == "" {
		return errResult("get_neighbors: id is required")
	}
	if _, ok := h.Graph.Get(id); !ok {
		return errResult("get_neighbors: unknown node id: " + id)
	}
	depth := 1
	if d, ok := args["depth"].(float64); ok && d > 0 {
		depth = int(d)
	}
	direction := graph.DirBoth
	if dir, ok := args["direction"].(string); ok && dir != "" {
		direction = graph.Direction(dir)
	}
	var edgeTypes []string
	if raw, ok := args["edge_types"].([]any); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				edgeTypes = append(edgeTypes, s)
			}
		}
	}
	return jsonResult(h.Graph.Neighbors(id, depth, direction, edgeTypes))
}

// --- Session tools ---

func (h *Handler) startSession(args map[string]any) mcptransport.CallToolResult {
	task, _ := args["task"].(string)
	var items []string
	if raw, ok := args["items"].([]any); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				items = append(items, s)
			}
		}
	}
	if err := h.Session.StartSession(task, items); err != nil {
		return errResult("start_session failed: " + err.Error())
	}
	return textResult("session started")
}

func (h *Handler) getSession(args map[string]any) mcptransport.CallToolResult {
	items, err := h.Session.Items()
	if err != nil {
		return errResult("get_session: " + err.Error())
	}
	decisions, err := h.Session.Decisions()
	if err != nil {
		return errResult("get_session: " + err.Error())
	}
	return jsonResult(map[string]any{"items": items, "decisions": decisions})
}

func (h *Handler) updateTask(args map[string]any) mcptransport.CallToolResult {
	idx, ok := args["index"].(float64)
	if !ok {
		return errResult("update_task: index is required")
	}
	status, _ := args["status"].(string)
	if status == "" {
		return errResult("update_task: status is required")
	}
	if err := h.Session.UpdateTask(int(idx), status); err != nil {
		return errResult("update_task: " + err.Error())
	}
	return textResult("task updated")
}

func (h *Handler) addDecision(args map[string]any) mcptransport.CallToolResult {
	what, _ := args["what"].(string)
	why, _ := args["why"].(string)
	var related []string
	if raw, ok := args["related_symbols"].([]any); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				related = append(related, s)
			}
		}
	}
	if err := h.Session.AddDecision(what, why, related); err != nil {
		return errResult("add_decision: " + err.Error())
	}
	return textResult("decision recorded")
}

func (h *Handler) setContext(args map[string]any) mcptransport.CallToolResult {
	addFile, _ := args["add_file"].(string)
	addSymbol, _ := args["add_symbol"].(string)
	if err := h.Session.SetContext(addFile, addSymbol); err != nil {
		return errResult("set_context: " + err.Error())
	}
	return textResult("context updated")
}

func (h *Handler) smartContext(args map[string]any) mcptransport.CallToolResult {
	lookup := func(symbolName string) []string {
		nodes := h.Graph.Search(symbolName, "", "", 1)
		if len(nodes) == 0 {
			return nil
		}
		results := h.Graph.Neighbors(nodes[0].ID, 1, graph.DirBoth, []string{"calls", "imports"})
		out := make([]string, 0, len(results))
		for _, r := range results {
			if n, _ := r.Node.Data["name"].(string); n != "" {
				out = append(out, n)
			}
		}
		return out
	}
	summary, err := h.Session.SmartContext(lookup)
	if err != nil {
		return errResult("smart_context: " + err.Error())
	}
	return jsonResult(summary)
}

// --- Learning tools ---

func (h *Handler) recallPatterns(args map[string]any) mcptransport.CallToolResult {
	file, _ := args["file"].(string)
	symbols := toStringSlice(args["symbols"])
	tags := toStringSlice(args["tags"])
	patterns, err := h.Learning.RecallPatterns(file, symbols, tags)
	if err != nil {
		return errResult("recall_patterns: " + err.Error())
	}
	return jsonResult(patterns)
}

func (h *Handler) recallFailures(args map[string]any) mcptransport.CallToolResult {
	file, _ := args["file"].(string)
	symbols := toStringSlice(args["symbols"])
	tags := toStringSlice(args["tags"])
	includeAllCritical := true
	if v, ok := args["include_all_critical"].(bool); ok {
		includeAllCritical = v
	}
	failures, err := h.Learning.RecallFailures(file, symbols, tags, includeAllCritical)
	if err != nil {
		return errResult("recall_failures: " + err.Error())
	}
	return jsonResult(failures)
}

func (h *Handler) extractPattern(args map[string]any) mcptransport.CallToolResult {
	intent, _ := args["intent"].(string)
	if intent == "" {
		return errResult("extract_pattern: intent is required")
	}
	mechanism, _ := args["mechanism"].(string)
	confidence, _ := args["confidence"].(float64)
	if confidence < 0 || confidence > 1 {
		return errResult("extract_pattern: confidence must be within [0,1]")
	}
	examples := toStringSlice(args["examples"])
	sc := scopeFromArgs(args)
	p, err := h.Learning.ExtractPattern(intent, mechanism, examples, sc, confidence)
	if err != nil {
		return errResult("extract_pattern: " + err.Error())
	}
	return jsonResult(p)
}

func (h *Handler) recordFailure(args map[string]any) mcptransport.CallToolResult {
	cause, _ := args["cause"].(string)
	avoidance, _ := args["avoidance_rule"].(string)
	severity, _ := args["severity"].(string)
	if severity != "critical" && severity != "major" && severity != "minor" {
		return errResult("record_failure: severity must be critical, major, or minor")
	}
	sc := scopeFromArgs(args)
	f, err := h.Learning.RecordFailure(cause, avoidance, severity, sc)
	if err != nil {
		return errResult("record_failure: " + err.Error())
	}
	return jsonResult(f)
}

func (h *Handler) recordAttempt(args map[string]any) mcptransport.CallToolResult {
	task, _ := args["task"].(string)
	plan, _ := args["plan"].(string)
	approach, _ := args["approach"].(string)
	parentID, _ := args["parent_id"].(string)
	sol, err := h.Learning.RecordAttempt(task, plan, approach, parentID)
	if err != nil {
		return errResult("record_attempt: " + err.Error())
	}
	return jsonResult(sol)
}

func (h *Handler) recordOutcome(args map[string]any) mcptransport.CallToolResult {
	id, _ := args["id"].(string)
	outcome, _ := args["outcome"].(string)
	if outcome != "success" && outcome != "failure" && outcome != "partial" {
		return errResult("record_outcome: outcome must be success, failure, or partial")
	}
	metrics, _ := args["metrics"].(map[string]any)
	filesModified := toStringSlice(args["files_modified"])
	symbolsModified := toStringSlice(args["symbols_modified"])
	if err := h.Learning.RecordOutcome(id, outcome, metrics, filesModified, symbolsModified); err != nil {
		return errResult("record_outcome: " + err.Error())
	}
	return textResult("outcome recorded")
}

var vagueLessonRE = regexp.MustCompile(`(?i)^\s*(it (failed|broke|didn'?t work)|something went wrong|not sure)\.?\s*$`)

func (h *Handler) reflect(args map[string]any) mcptransport.CallToolResult {
	outcome, _ := args["outcome"].(string)
	lesson, _ := args["lesson"].(string)
	rootCause, _ := args["root_cause"].(string)
	confidence, hasConfidence := args["confidence"].(float64)
	if hasConfidence && (confidence < 0 || confidence > 1) {
		return errResult("reflect: confidence must be within [0,1]")
	}

	switch outcome {
	case "success":
		if isVague(lesson) {
			return errResult("reflect: lesson is too vague to record")
		}
		sc := scopeFromArgs(args)
		if !hasConfidence {
			confidence = 0.5
		}
		p, err := h.Learning.ExtractPattern(lesson, "", nil, sc, confidence)
		if err != nil {
			return errResult("reflect: " + err.Error())
		}
		return jsonResult(p)
	case "failure":
		if isVague(rootCause) {
			return errResult("reflect: root_cause is too vague to record")
		}
		severity, _ := args["severity"].(string)
		if severity == "" {
			severity = "minor"
		}
		sc := scopeFromArgs(args)
		f, err := h.Learning.RecordFailure(rootCause, lesson, severity, sc)
		if err != nil {
			return errResult("reflect: " + err.Error())
		}
		return jsonResult(f)
	default:
		return errResult("reflect: outcome must be success or failure")
	}
}

func isVague(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 8 {
		return true
	}
	return vagueLessonRE.MatchString(s)
}

func (h *Handler) queryLineage(args map[string]any) mcptransport.CallToolResult {
	id, _ := args["id"].(string)
	if id == "" {
		return errResult("query_lineage: id is required")
	}
	tree, err := h.Learning.GetLineageTree(id)
	if err != nil {
		return errResult("query_lineage: " + err.Error())
	}
	return jsonResult(tree)
}

func (h *Handler) suggestApproach(args map[string]any) mcptransport.CallToolResult {
	task, _ := args["task"].(string)
	if task == "" {
		return errResult("suggest_approach: task is required")
	}
	solutions, err := h.allSolutions()
	if err != nil {
		return errResult("suggest_approach: " + err.Error())
	}
	best := h.Learning.SuggestApproach(task, solutions)
	if best == nil {
		return errResult("suggest_approach: no prior attempts for this task")
	}
	return jsonResult(best)
}

// allSolutions walks the lineage forest starting from every root-level
// solution (no parent_id). This is a best-effort sweep used only by
// suggest_approach's ranking; it is not part of the store's primary
// lineage API.
func (h *Handler) allSolutions() ([]*store.Solution, error) {
	roots, err := h.LearningStore.RootSolutions()
	if err != nil {
		return nil, err
	}
	var out []*store.Solution
	var walk func(*store.Solution)
	walk = func(s *store.Solution) {
		out = append(out, s)
		children, err := h.LearningStore.ChildSolutions(s.ID)
		if err != nil {
			return
		}
		for _, c := range children {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return out, nil
}

// --- Distillation tools ---

func (h *Handler) distillProjectSkill(args map[string]any) mcptransport.CallToolResult {
	threshold := 0.5
	if t, ok := args["threshold"].(float64); ok {
		threshold = t
	}
	patterns, err := h.LearningStore.ListPatterns()
	if err != nil {
		return errResult("distill_project_skill: " + err.Error())
	}
	failures, err := h.LearningStore.ListFailures()
	if err != nil {
		return errResult("distill_project_skill: " + err.Error())
	}
	manual, err := h.LearningStore.ListInstructions()
	if err != nil {
		return errResult("distill_project_skill: " + err.Error())
	}
	instructions := distill.DistillProjectSkill(patterns, failures, manual, threshold, time.Now(), h.Config.Learning.DecayHalfLife, h.Graph)
	md := distill.RenderSkillMarkdown(projectName(h.ProjectRoot), instructions)

	layout, err := projectstate.Resolve(h.ProjectRoot)
	if err == nil {
		if err := layout.EnsureDirs(); err == nil {
			_ = os.WriteFile(layout.SkillPath, []byte(md), 0o644)
		}
	}
	return textResult(md)
}

func (h *Handler) addInstruction(args map[string]any) mcptransport.CallToolResult {
	category, _ := args["category"].(string)
	text, _ := args["text"].(string)
	if text == "" {
		return errResult("add_instruction: text is required")
	}
	id := "instruction-" + store.ContentHash([]byte(category+text+time.Now().String()))
	if err := h.LearningStore.InsertInstruction(&store.Instruction{ID: id, Category: category, Text: text}); err != nil {
		return errResult("add_instruction: " + err.Error())
	}
	return textResult("instruction added")
}

func (h *Handler) getProjectInstructions(args map[string]any) mcptransport.CallToolResult {
	instructions, err := h.LearningStore.ListInstructions()
	if err != nil {
		return errResult("get_project_instructions: " + err.Error())
	}
	return jsonResult(instructions)
}

func (h *Handler) syncLearnings(args map[string]any) mcptransport.CallToolResult {
	threshold := 0.5
	if t, ok := args["threshold"].(float64); ok {
		threshold = t
	}
	includeAllCritical := true
	if v, ok := args["include_all_critical"].(bool); ok {
		includeAllCritical = v
	}
	patterns, err := h.LearningStore.ListPatterns()
	if err != nil {
		return errResult("sync_learnings: " + err.Error())
	}
	failures, err := h.LearningStore.ListFailures()
	if err != nil {
		return errResult("sync_learnings: " + err.Error())
	}
	pjson, fjson, stats, err := distill.SyncLearnings(patterns, failures, threshold, includeAllCritical, time.Now(), h.Config.Learning.DecayHalfLife, h.Graph)
	if err != nil {
		return errResult("sync_learnings: " + err.Error())
	}

	layout, err := projectstate.Resolve(h.ProjectRoot)
	if err != nil {
		return errResult("sync_learnings: " + err.Error())
	}
	if err := layout.EnsureDirs(); err != nil {
		return errResult("sync_learnings: " + err.Error())
	}
	if err := os.WriteFile(layout.PatternsJSON, pjson, 0o644); err != nil {
		return errResult("sync_learnings: " + err.Error())
	}
	if err := os.WriteFile(layout.FailuresJSON, fjson, 0o644); err != nil {
		return errResult("sync_learnings: " + err.Error())
	}
	return jsonResult(stats)
}

// --- Behavioral niche / cross-language tools ---

func (h *Handler) listNiches(args map[string]any) mcptransport.CallToolResult {
	taskType, _ := args["task_type"].(string)
	niches, err := h.Learning.ListNiches(taskType)
	if err != nil {
		return errResult("list_niches: " + err.Error())
	}
	return jsonResult(niches)
}

func (h *Handler) inferCrossEdges(args map[string]any) mcptransport.CallToolResult {
	if !h.Config.CrossLanguage.Enabled {
		return errResult("infer_cross_edges: cross-language inference is disabled in config")
	}
	forceRebuild, _ := args["force_rebuild"].(bool)
	stats, err := h.CrossLang.Infer(h.ProjectRoot, forceRebuild)
	if err != nil {
		return errResult("infer_cross_edges: " + err.Error())
	}
	return jsonResult(stats)
}

func (h *Handler) getAPIConnections(args map[string]any) mcptransport.CallToolResult {
	path, _ := args["path"].(string)
	if path == "" {
		return errResult("get_api_connections: path is required")
	}
	conns, err := h.CrossLang.GetAPIConnections(path)
	if err != nil {
		return errResult("get_api_connections: " + err.Error())
	}
	return jsonResult(conns)
}

func projectName(root string) string {
	parts := strings.Split(strings.TrimRight(root, "/"), "/")
	if len(parts) == 0 {
		return "project"
	}
	name := parts[len(parts)-1]
	if name == "" {
		return "project"
	}
	return name
}

func scopeFromArgs(args map[string]any) store.Scope {
	raw, _ := args["scope"].(map[string]any)
	if raw == nil {
		return store.Scope{}
	}
	return store.Scope{
		IncludePaths: toStringSlice(raw["include_paths"]),
		ExcludePaths: toStringSlice(raw["exclude_paths"]),
		Symbols:      toStringSlice(raw["symbols"]),
		Tags:         toStringSlice(raw["tags"]),
	}
}

func toStringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
