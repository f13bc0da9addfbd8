package authz

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/open-policy-agent/opa/rego"

	"github.com/lakekeeper/lakekeeper/internal/catalog/commit"
)

// decisionRuleQuery is the rego entry point a policy bundle must define.
// It evaluates to an object `{"decision": "allow"|"deny_forbidden"|"deny_not_found"}`
// per (principal, action, resource) input.
const decisionRuleQuery = "data.lakekeeper.authz.decision"

// PolicyBackend is the OPA rego backend (spec.md §4.3 "Policy-based"): a
// declarative rule set evaluated against the principal, action, and the
// resource's type and id. The policy file is watched; a successful
// reload atomically swaps the prepared query, a failed reload logs and
// keeps serving the prior valid one.
type PolicyBackend struct {
	policyPath string
	logger     *slog.Logger

	current atomic.Pointer[rego.PreparedEvalQuery]

	watcher *fsnotify.Watcher
	stop    chan struct{}
}

// NewPolicyBackend loads the policy bundle at policyPath and starts
// watching it (and its containing directory, since editors typically
// replace files rather than write in place) for changes.
func NewPolicyBackend(ctx context.Context, policyPath string, logger *slog.Logger) (*PolicyBackend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b := &PolicyBackend{policyPath: policyPath, logger: logger.With("component", "authz-policy"), stop: make(chan struct{})}
	if err := b.reload(ctx); err != nil {
		return nil, fmt.Errorf("loading initial policy: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating policy watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(policyPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching policy directory: %w", err)
	}
	b.watcher = watcher
	go b.watchLoop(ctx)
	return b, nil
}

func (b *PolicyBackend) watchLoop(ctx context.Context) {
	for {
		select {
		case <-b.stop:
			return
		case ev, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(b.policyPath) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := b.reload(ctx); err != nil {
				b.logger.Warn("policy reload failed, keeping prior snapshot", "error", err)
			} else {
				b.logger.Info("policy snapshot reloaded", "path", b.policyPath)
			}
		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			b.logger.Warn("policy watcher error", "error", err)
		}
	}
}

// reload compiles the policy file into a fresh prepared query and swaps
// it in atomically. On failure it returns the error and leaves the
// previous snapshot, if any, untouched.
func (b *PolicyBackend) reload(ctx context.Context) error {
	prepared, err := rego.New(
		rego.Query(decisionRuleQuery),
		rego.Load([]string{b.policyPath}, nil),
	).PrepareForEval(ctx)
	if err != nil {
		return err
	}
	b.current.Store(&prepared)
	return nil
}

// Close stops the policy watcher.
func (b *PolicyBackend) Close() error {
	close(b.stop)
	if b.watcher != nil {
		return b.watcher.Close()
	}
	return nil
}

func (b *PolicyBackend) evalDecision(ctx context.Context, principal commit.Principal, action string, resource Resource) (Decision, error) {
	prepared := b.current.Load()
	if prepared == nil {
		return InternalError, fmt.Errorf("policy backend has no loaded snapshot")
	}

	input := map[string]any{
		"principal":  principal.ID,
		"is_service": principal.IsService,
		"action":     action,
		"resource": map[string]any{
			"type": string(resource.Type),
			"id":   resource.ID.String(),
		},
	}

	results, err := prepared.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return InternalError, err
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DenyForbidden, nil
	}
	obj, ok := results[0].Expressions[0].Value.(map[string]any)
	if !ok {
		return DenyForbidden, nil
	}
	switch obj["decision"] {
	case "allow":
		return Allow, nil
	case "deny_not_found":
		return DenyNotFound, nil
	default:
		return DenyForbidden, nil
	}
}

func (b *PolicyBackend) Check(ctx context.Context, principal commit.Principal, action string, resource Resource) (Decision, error) {
	return b.evalDecision(ctx, principal, action, resource)
}

func (b *PolicyBackend) CheckBatch(ctx context.Context, principal commit.Principal, action string, resources []Resource) ([]Decision, error) {
	out := make([]Decision, len(resources))
	for i, r := range resources {
		d, err := b.evalDecision(ctx, principal, action, r)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}
