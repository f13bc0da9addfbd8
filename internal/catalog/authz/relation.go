package authz

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/lakekeeper/lakekeeper/internal/catalog/commit"
)

// Relation is a grant strength. Higher relations imply every permission
// of lower ones.
type Relation int

const (
	RelationNone Relation = iota
	RelationViewer
	RelationEditor
	RelationOwner
)

// navigationalActions are list/read operations that the bottom-up reveal
// rule applies to: an ancestor is list-visible if the principal holds any
// grant on something beneath it, even without a direct grant on the
// ancestor itself.
var navigationalActions = map[string]bool{
	"ListNamespaces": true, "ListTabulars": true, "ListWarehouses": true,
	"ReadNamespace": true, "ReadWarehouse": true, "ReadProject": true,
}

// actionMinRelation maps an action name to the minimum relation required
// to perform it. Unrecognized actions default to RelationEditor, the
// conservative choice.
var actionMinRelation = map[string]Relation{
	"ReadTableMetadata": RelationViewer,
	"ReadTableData":     RelationViewer,
	"ListNamespaces":    RelationViewer,
	"ListTabulars":      RelationViewer,
	"ListWarehouses":    RelationViewer,
	"ReadNamespace":     RelationViewer,
	"ReadWarehouse":     RelationViewer,
	"ReadProject":       RelationViewer,

	"CreateTable":    RelationEditor,
	"CommitTable":    RelationEditor,
	"WriteTableData": RelationEditor,
	"CreateNamespace": RelationEditor,

	"DropTable":         RelationOwner,
	"DropNamespace":     RelationOwner,
	"DeleteWarehouse":   RelationOwner,
	"GrantOnWarehouse":  RelationOwner,
	"GrantOnNamespace":  RelationOwner,
}

func minRelationFor(action string) Relation {
	if r, ok := actionMinRelation[action]; ok {
		return r
	}
	return RelationEditor
}

// grant is one (subject, relation) tuple attached to a resource id.
// Subject is either a principal id or "role:<role-id>".
type grant struct {
	subject  string
	relation Relation
}

// RelationGraph is the tuple-store backend (spec.md §4.3 "Relation-based"):
// authorization reduces to a reachability query over a graph of
// server/project/warehouse/namespace/table/view/role nodes.
type RelationGraph struct {
	mu sync.RWMutex

	grants        map[uuid.UUID][]grant
	managedAccess map[uuid.UUID]bool

	roleMembers map[uuid.UUID]map[string]bool // role id -> principal ids
	parentOf    map[uuid.UUID]uuid.UUID

	// visibleVia records, per ancestor id, which subjects hold a grant on
	// some descendant of it — the bottom-up reveal index.
	visibleVia map[uuid.UUID]map[string]bool
}

// NewRelationGraph returns an empty tuple store.
func NewRelationGraph() *RelationGraph {
	return &RelationGraph{
		grants:        map[uuid.UUID][]grant{},
		managedAccess: map[uuid.UUID]bool{},
		roleMembers:   map[uuid.UUID]map[string]bool{},
		parentOf:      map[uuid.UUID]uuid.UUID{},
		visibleVia:    map[uuid.UUID]map[string]bool{},
	}
}

// RegisterParent records the resource hierarchy edge used for top-down
// inheritance and bottom-up reveal. Must be called before Grant for the
// reveal index to pick up the edge.
func (g *RelationGraph) RegisterParent(child, parent uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.parentOf[child] = parent
}

// SetManagedAccess records the managed-access flag on a warehouse or
// namespace. The flag is stored only: Check and CheckBatch do not
// consult it, and no other code in this module reads it.
func (g *RelationGraph) SetManagedAccess(resource uuid.UUID, on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.managedAccess[resource] = on
}

// Grant attaches a relation to a subject on a resource, and propagates
// the bottom-up reveal index up the parent chain.
func (g *RelationGraph) Grant(resource uuid.UUID, subject string, relation Relation) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.grants[resource] = append(g.grants[resource], grant{subject: subject, relation: relation})

	for id, ok := g.parentOf[resource], true; ok; id, ok = g.parentOf[id] {
		if g.visibleVia[id] == nil {
			g.visibleVia[id] = map[string]bool{}
		}
		g.visibleVia[id][subject] = true
	}
}

// AddRoleMember adds a principal to a role's membership set; grants made
// to "role:<roleID>" then apply to every member.
func (g *RelationGraph) AddRoleMember(role uuid.UUID, principalID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.roleMembers[role] == nil {
		g.roleMembers[role] = map[string]bool{}
	}
	g.roleMembers[role][principalID] = true
}

func (g *RelationGraph) subjectsFor(principal commit.Principal) []string {
	subjects := []string{principal.ID}
	for role, members := range g.roleMembers {
		if members[principal.ID] {
			subjects = append(subjects, "role:"+role.String())
		}
	}
	return subjects
}

// bestRelation walks the resource and its ancestors (top-down
// inheritance: a grant higher in the tree covers everything beneath it)
// and returns the strongest relation any of the principal's subjects
// holds anywhere on that chain.
func (g *RelationGraph) bestRelation(subjects []string, resource Resource) Relation {
	best := RelationNone
	consider := func(id uuid.UUID) {
		for _, gr := range g.grants[id] {
			for _, s := range subjects {
				if gr.subject == s && gr.relation > best {
					best = gr.relation
				}
			}
		}
	}
	consider(resource.ID)
	for _, anc := range resource.Ancestors {
		consider(anc.ID)
	}
	return best
}

func (g *RelationGraph) hasVisibleDescendant(subjects []string, resourceID uuid.UUID) bool {
	via := g.visibleVia[resourceID]
	if via == nil {
		return false
	}
	for _, s := range subjects {
		if via[s] {
			return true
		}
	}
	return false
}

func (g *RelationGraph) Check(ctx context.Context, principal commit.Principal, action string, resource Resource) (Decision, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	subjects := g.subjectsFor(principal)
	have := g.bestRelation(subjects, resource)
	if have >= minRelationFor(action) {
		return Allow, nil
	}
	if navigationalActions[action] && g.hasVisibleDescendant(subjects, resource.ID) {
		return Allow, nil
	}
	if have > RelationNone {
		// Caller already holds some grant in this subtree; safe to reveal
		// that the resource itself exists but is off-limits for this action.
		return DenyForbidden, nil
	}
	return DenyNotFound, nil
}

func (g *RelationGraph) CheckBatch(ctx context.Context, principal commit.Principal, action string, resources []Resource) ([]Decision, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	subjects := g.subjectsFor(principal)
	required := minRelationFor(action)
	out := make([]Decision, len(resources))
	for i, r := range resources {
		have := g.bestRelation(subjects, r)
		switch {
		case have >= required:
			out[i] = Allow
		case navigationalActions[action] && g.hasVisibleDescendant(subjects, r.ID):
			out[i] = Allow
		case have > RelationNone:
			out[i] = DenyForbidden
		default:
			out[i] = DenyNotFound
		}
	}
	return out, nil
}
