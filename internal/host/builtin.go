package host

import "github.com/sindri-ai/sindri/internal/agent"

// builtinTools are the tool names the host ships with. Plugins may not
// shadow them.
var builtinTools = []string{
	"read_file",
	"write_file",
	"edit_file",
	"list_directory",
	"read_tree",
	"search_code",
	"shell",
	"git_status",
	"git_diff",
	"git_log",
	"git_branch",
	"http_request",
	"http_get",
	"http_post",
	"sql_query",
	"sql_schema",
	"format_code",
	"run_tests",
	"lint_code",
	"delegate",
}

// BuiltinToolNames returns a copy of the built-in tool names.
func BuiltinToolNames() []string {
	out := make([]string, len(builtinTools))
	copy(out, builtinTools)
	return out
}

// BuiltinAgents returns the agents the host ships with, keyed by name.
func BuiltinAgents() map[string]*agent.Definition {
	defs := []*agent.Definition{
		agent.Builtin("brokkr", "orchestrator", "qwen2.5-coder:14b"),
		agent.Builtin("huginn", "coder", "qwen2.5-coder:7b"),
		agent.Builtin("mimir", "reviewer", "llama3.1:8b"),
		agent.Builtin("ratatoskr", "executor", "qwen2.5:3b"),
		agent.Builtin("skald", "test_writer", "qwen2.5-coder:7b"),
		agent.Builtin("fenrir", "sql_specialist", "sqlcoder:7b"),
		agent.Builtin("odin", "planner", "deepseek-r1:14b"),
	}
	out := make(map[string]*agent.Definition, len(defs))
	for _, d := range defs {
		d.CanDelegate = d.Role == "orchestrator"
		out[d.Name] = d
	}
	return out
}

// AgentNames returns the keys of an agent map.
func AgentNames(agents map[string]*agent.Definition) []string {
	names := make([]string, 0, len(agents))
	for name := range agents {
		names = append(names, name)
	}
	return names
}
