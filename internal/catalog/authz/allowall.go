package authz

import (
	"context"

	"github.com/lakekeeper/lakekeeper/internal/catalog/commit"
)

// AllowAll is the permissive backend: every authenticated principal may
// perform every action. Development only (spec.md §4.3).
type AllowAll struct{}

func (AllowAll) Check(ctx context.Context, principal commit.Principal, action string, resource Resource) (Decision, error) {
	return Allow, nil
}

func (AllowAll) CheckBatch(ctx context.Context, principal commit.Principal, action string, resources []Resource) ([]Decision, error) {
	out := make([]Decision, len(resources))
	for i := range out {
		out[i] = Allow
	}
	return out, nil
}
