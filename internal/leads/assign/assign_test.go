package assign

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/repository"
)

// fakeRepo counts successful assignments per assignee. It deliberately has
// no locking of its own beyond the map mutex, so over-admission by the
// guard would show up as a count beyond the ceiling.
type fakeRepo struct {
	mu     sync.Mutex
	counts map[uuid.UUID]int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{counts: make(map[uuid.UUID]int)}
}

func (f *fakeRepo) CountActiveLeads(_ context.Context, assigneeID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[assigneeID], nil
}

func (f *fakeRepo) AssignLead(_ context.Context, params repository.AssignLeadParams) (domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[params.AssigneeID]++
	assignee := params.AssigneeID
	return domain.Lead{ID: params.LeadID, AssignedTo: &assignee}, nil
}

func TestAssignRejectsAtCapacity(t *testing.T) {
	repo := newFakeRepo()
	assignee := uuid.New()
	repo.counts[assignee] = 3

	guard := NewGuard(repo, 3)

	_, err := guard.Assign(context.Background(), uuid.New(), assignee, "System")
	var capErr *domain.CapacityExceededError
	if !errors.As(err, &capErr) {
		t.Fatalf("Assign at capacity = %v, want CapacityExceededError", err)
	}
	if capErr.Active != 3 || capErr.Limit != 3 || capErr.AssigneeID != assignee {
		t.Errorf("CapacityExceededError = %+v, want active 3 of 3 for %s", capErr, assignee)
	}
}

func TestAssignUnderCapacity(t *testing.T) {
	repo := newFakeRepo()
	assignee := uuid.New()
	guard := NewGuard(repo, 2)

	lead, err := guard.Assign(context.Background(), uuid.New(), assignee, "System")
	if err != nil {
		t.Fatalf("Assign unexpected error: %v", err)
	}
	if lead.AssignedTo == nil || *lead.AssignedTo != assignee {
		t.Errorf("assigned lead = %+v, want assigned to %s", lead, assignee)
	}
}

func TestAssignSerializesPerAssignee(t *testing.T) {
	repo := newFakeRepo()
	assignee := uuid.New()
	const ceiling = 5
	guard := NewGuard(repo, ceiling)

	var wg sync.WaitGroup
	successes := make(chan struct{}, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := guard.Assign(context.Background(), uuid.New(), assignee, "System"); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	admitted := 0
	for range successes {
		admitted++
	}
	if admitted != ceiling {
		t.Errorf("admitted %d assignments, want exactly %d", admitted, ceiling)
	}
	if repo.counts[assignee] != ceiling {
		t.Errorf("repo recorded %d assignments, want %d", repo.counts[assignee], ceiling)
	}
}

func TestDifferentAssigneesProceedIndependently(t *testing.T) {
	repo := newFakeRepo()
	guard := NewGuard(repo, 1)

	first, second := uuid.New(), uuid.New()
	if _, err := guard.Assign(context.Background(), uuid.New(), first, "System"); err != nil {
		t.Fatalf("first assignee unexpected error: %v", err)
	}
	if _, err := guard.Assign(context.Background(), uuid.New(), second, "System"); err != nil {
		t.Fatalf("second assignee unexpected error: %v", err)
	}
	if _, err := guard.Assign(context.Background(), uuid.New(), first, "System"); err == nil {
		t.Error("first assignee should now be at capacity")
	}
}
