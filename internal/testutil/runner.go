package testutil

import (
	"context"
	"strings"
	"sync"
)

// RunnerCall records one statement executed through a ScriptedRunner.
type RunnerCall struct {
	Statement string
	Params    map[string]any
}

// ScriptedRunner is a fake query-boundary Runner. Responses are keyed by a
// substring of the statement; the first matching script wins. Unmatched
// statements return no rows. Safe for concurrent use.
type ScriptedRunner struct {
	mu      sync.Mutex
	scripts []script
	calls   []RunnerCall
}

type script struct {
	match string
	rows  []map[string]any
	err   error
}

// On registers rows to return for statements containing match.
func (r *ScriptedRunner) On(match string, rows ...map[string]any) *ScriptedRunner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scripts = append(r.scripts, script{match: match, rows: rows})
	return r
}

// OnError registers an error for statements containing match.
func (r *ScriptedRunner) OnError(match string, err error) *ScriptedRunner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scripts = append(r.scripts, script{match: match, err: err})
	return r
}

func (r *ScriptedRunner) Run(_ context.Context, statement string, params map[string]any) ([]map[string]any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, RunnerCall{Statement: statement, Params: params})

	for _, s := range r.scripts {
		if strings.Contains(statement, s.match) {
			return s.rows, s.err
		}
	}
	return nil, nil
}

// Calls returns a snapshot of all executed statements in order.
func (r *ScriptedRunner) Calls() []RunnerCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RunnerCall, len(r.calls))
	copy(out, r.calls)
	return out
}

// CallsMatching returns the calls whose statement contains match.
func (r *ScriptedRunner) CallsMatching(match string) []RunnerCall {
	var out []RunnerCall
	for _, c := range r.Calls() {
		if strings.Contains(c.Statement, match) {
			out = append(out, c)
		}
	}
	return out
}
