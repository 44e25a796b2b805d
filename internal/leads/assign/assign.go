// Package assign enforces the per-assignee workload ceiling.
package assign

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/repository"
)

// Repo is the persistence surface the guard needs.
type Repo interface {
	CountActiveLeads(ctx context.Context, assigneeID uuid.UUID) (int, error)
	AssignLead(ctx context.Context, params repository.AssignLeadParams) (domain.Lead, error)
}

// Guard serializes capacity checks per assignee so two concurrent
// assignments cannot both squeeze under the ceiling.
type Guard struct {
	repo      Repo
	maxActive int

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewGuard(repo Repo, maxActive int) *Guard {
	return &Guard{
		repo:      repo,
		maxActive: maxActive,
		locks:     make(map[uuid.UUID]*sync.Mutex),
	}
}

func (g *Guard) lockFor(assigneeID uuid.UUID) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock, ok := g.locks[assigneeID]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[assigneeID] = lock
	}
	return lock
}

// Load recomputes the assignee's active lead count from ground truth.
func (g *Guard) Load(ctx context.Context, assigneeID uuid.UUID) (int, error) {
	return g.repo.CountActiveLeads(ctx, assigneeID)
}

// Assign gives the lead to the assignee unless that would exceed the
// ceiling. The count is always recomputed inside the assignee's lock;
// checks for different assignees proceed in parallel.
func (g *Guard) Assign(ctx context.Context, leadID, assigneeID uuid.UUID, actor string) (domain.Lead, error) {
	lock := g.lockFor(assigneeID)
	lock.Lock()
	defer lock.Unlock()

	active, err := g.repo.CountActiveLeads(ctx, assigneeID)
	if err != nil {
		return domain.Lead{}, err
	}
	if active >= g.maxActive {
		return domain.Lead{}, &domain.CapacityExceededError{
			AssigneeID: assigneeID,
			Active:     active,
			Limit:      g.maxActive,
		}
	}

	return g.repo.AssignLead(ctx, repository.AssignLeadParams{
		LeadID:     leadID,
		AssigneeID: assigneeID,
		Actor:      actor,
	})
}
