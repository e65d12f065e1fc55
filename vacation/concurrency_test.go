package vacation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vacation-engine/store/memory"
	"github.com/warp/vacation-engine/vacation"
)

// gatedStore wraps the memory store with hooks that let a test park a
// goroutine at a chosen point inside a lifecycle operation. afterGet
// runs once the read has produced its snapshot, so a parked goroutine
// keeps exactly what it saw.
type gatedStore struct {
	*memory.Store

	mu         sync.Mutex
	afterGet   func(id vacation.RequestID)
	beforeSave func(req *vacation.VacationRequest)
}

func (g *gatedStore) GetRequest(ctx context.Context, id vacation.RequestID) (*vacation.VacationRequest, error) {
	req, err := g.Store.GetRequest(ctx, id)
	g.mu.Lock()
	hook := g.afterGet
	g.mu.Unlock()
	if hook != nil {
		hook(id)
	}
	return req, err
}

func (g *gatedStore) SaveRequest(ctx context.Context, req *vacation.VacationRequest) error {
	g.mu.Lock()
	hook := g.beforeSave
	g.mu.Unlock()
	if hook != nil {
		hook(req)
	}
	return g.Store.SaveRequest(ctx, req)
}

func (g *gatedStore) setAfterGet(hook func(id vacation.RequestID)) {
	g.mu.Lock()
	g.afterGet = hook
	g.mu.Unlock()
}

func (g *gatedStore) setBeforeSave(hook func(req *vacation.VacationRequest)) {
	g.mu.Lock()
	g.beforeSave = hook
	g.mu.Unlock()
}

// A confirm whose pre-lock read happened before a concurrent edit moved
// the request into another start year must serialize under the NEW
// year's key. Otherwise its write runs under the old year's key and a
// simultaneous create for the new year validates against a stale
// planned sum, over-allocating the year.
func TestConfirmFollowsEditedYearKey(t *testing.T) {
	mem := memory.New()
	gated := &gatedStore{Store: mem}
	svc := vacation.NewService(gated, mem)
	svc.Clock = fixedClock{now: testNow}
	ctx := context.Background()

	manager := seedEmployee(t, mem, "manager", vacation.RoleManager, nil)
	employee := seedEmployee(t, mem, "employee", vacation.RoleEmployee, &manager.ID)
	seedBalance(t, mem, employee.ID, testYear, 10)
	seedBalance(t, mem, employee.ID, testYear+1, 10)

	// A 10-day request in the current year.
	req, err := svc.CreateRequest(ctx, employee.ID, date(t, "2026-03-02"), date(t, "2026-03-11"))
	require.NoError(t, err)

	// Park the confirm goroutine right after its pre-lock read, holding
	// the original-year snapshot.
	preLockRead := make(chan struct{})
	editApplied := make(chan struct{})
	gated.setAfterGet(func(id vacation.RequestID) {
		gated.setAfterGet(nil)
		close(preLockRead)
		<-editApplied
	})

	confirmDone := make(chan error, 1)
	go func() {
		_, err := svc.ConfirmRequest(ctx, req.ID, employee.ID)
		confirmDone <- err
	}()
	<-preLockRead

	// While confirm is parked, the request moves to next year and is
	// approved, so its committed days will land in the new year.
	_, err = svc.EditRequest(ctx, req.ID, employee.ID, date(t, "2027-03-01"), date(t, "2027-03-10"))
	require.NoError(t, err)
	_, err = svc.ApproveRequest(ctx, req.ID, manager.ID)
	require.NoError(t, err)

	// Park confirm again inside its critical section, just before its
	// save, still holding whatever year key it acquired.
	confirmSaving := make(chan struct{})
	releaseSave := make(chan struct{})
	gated.setBeforeSave(func(saved *vacation.VacationRequest) {
		if saved.ID == req.ID && saved.ConfirmedByEmployee {
			gated.setBeforeSave(nil)
			close(confirmSaving)
			<-releaseSave
		}
	})
	close(editApplied)
	<-confirmSaving

	// A create for the new year must wait for confirm's key, not slip
	// past it on the stale one.
	createDone := make(chan error, 1)
	go func() {
		_, err := svc.CreateRequest(ctx, employee.ID, date(t, "2027-06-01"), date(t, "2027-06-10"))
		createDone <- err
	}()

	select {
	case err := <-createDone:
		t.Fatalf("create finished while confirm held the year key: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	close(releaseSave)
	require.NoError(t, <-confirmDone)

	// Confirm committed 10 of the new year's 10 days first, so the
	// serialized create sees nothing left.
	err = <-createDone
	assert.ErrorIs(t, err, vacation.ErrInsufficientBalance)

	avail, err := svc.GetAvailability(ctx, employee.ID, testYear+1)
	require.NoError(t, err)
	assert.True(t, avail.Planned.Equal(vacation.DaysOf(10)), "planned = %s", avail.Planned)
	assert.True(t, avail.Available.IsZero(), "available = %s", avail.Available)
}
