package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/llcformation/internal/onboarding/domain"
)

func newApp(id, tracking string, createdAt time.Time) *domain.Application {
	return domain.NewApplication(id, tracking, domain.ClientData{
		LLCName: "Acme LLC",
		Email:   "owner@example.com",
	}, createdAt)
}

func TestCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewApplicationRepository()

	app := newApp("app-1", "LLC-AAAAA-00001", time.Now())
	require.NoError(t, repo.Create(ctx, app))
	require.Equal(t, int64(1), app.Version)

	got, err := repo.Get(ctx, "app-1")
	require.NoError(t, err)
	require.Equal(t, "LLC-AAAAA-00001", got.TrackingID)

	got, err = repo.GetByTrackingID(ctx, "LLC-AAAAA-00001")
	require.NoError(t, err)
	require.Equal(t, "app-1", got.ID)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.GetByTrackingID(ctx, "LLC-NOPE0-00000")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateRejectsDuplicateTrackingID(t *testing.T) {
	ctx := context.Background()
	repo := NewApplicationRepository()

	require.NoError(t, repo.Create(ctx, newApp("app-1", "LLC-AAAAA-00001", time.Now())))
	err := repo.Create(ctx, newApp("app-2", "LLC-AAAAA-00001", time.Now()))
	require.ErrorIs(t, err, domain.ErrTrackingIDTaken)

	got, err := repo.GetByTrackingID(ctx, "LLC-AAAAA-00001")
	require.NoError(t, err)
	require.Equal(t, "app-1", got.ID, "existing binding must not be overwritten")
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewApplicationRepository()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newApp("old", "LLC-00000-00001", base)))
	require.NoError(t, repo.Create(ctx, newApp("new", "LLC-00000-00002", base.Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, newApp("tie", "LLC-00000-00003", base.Add(time.Hour))))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	ids := []string{list[0].ID, list[1].ID, list[2].ID}
	require.Equal(t, []string{"tie", "new", "old"}, ids)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewApplicationRepository()
	require.NoError(t, repo.Create(ctx, newApp("app-1", "LLC-AAAAA-00001", time.Now())))

	got, err := repo.Get(ctx, "app-1")
	require.NoError(t, err)
	got.Status.Document = domain.DocumentApproved

	again, err := repo.Get(ctx, "app-1")
	require.NoError(t, err)
	require.Equal(t, domain.DocumentPending, again.Status.Document)
}

func TestUpdateCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	repo := NewApplicationRepository()
	require.NoError(t, repo.Create(ctx, newApp("app-1", "LLC-AAAAA-00001", time.Now())))

	updated, err := repo.Update(ctx, "app-1", 1, func(a *domain.Application) error {
		return a.AttachDocument(domain.DocumentPassport, "files/p.pdf", time.Now())
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), updated.Version)

	_, err = repo.Update(ctx, "app-1", 1, func(*domain.Application) error {
		t.Fatal("mutate must not run on a stale version")
		return nil
	})
	require.ErrorIs(t, err, domain.ErrConflict)

	same, err := repo.Update(ctx, "app-1", 0, func(*domain.Application) error { return domain.ErrNoChange })
	require.NoError(t, err)
	require.Equal(t, int64(2), same.Version)

	boom := errors.New("boom")
	_, err = repo.Update(ctx, "app-1", 0, func(a *domain.Application) error {
		a.Status.Document = domain.DocumentApproved
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repo.Get(ctx, "app-1")
	require.NoError(t, err)
	require.Equal(t, domain.DocumentPending, got.Status.Document, "failed mutation leaves no trace")

	_, err = repo.Update(ctx, "app-1", 0, func(a *domain.Application) error {
		a.TrackingID = "LLC-CHANG-ED000"
		return nil
	})
	require.Error(t, err)

	_, err = repo.Update(ctx, "missing", 0, func(*domain.Application) error { return nil })
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConcurrentUpdatesSerialize(t *testing.T) {
	ctx := context.Background()
	repo := NewApplicationRepository()
	require.NoError(t, repo.Create(ctx, newApp("app-1", "LLC-AAAAA-00001", time.Now())))

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, "app-1", 0, func(a *domain.Application) error {
				a.Client.LLCName += "+"
				return nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.Get(ctx, "app-1")
	require.NoError(t, err)
	require.Equal(t, int64(workers+1), got.Version)
	require.Len(t, got.Client.LLCName, len("Acme LLC")+workers)
}

func TestUpdateRejectsBrokenInvariants(t *testing.T) {
	ctx := context.Background()
	repo := NewApplicationRepository()
	require.NoError(t, repo.Create(ctx, newApp("app-1", "LLC-AAAAA-00001", time.Now())))

	_, err := repo.Update(ctx, "app-1", 0, func(a *domain.Application) error {
		a.Status.Company = domain.CompanyRegistered
		return nil
	})
	require.ErrorIs(t, err, domain.ErrInvariantViolated)

	_, err = repo.Update(ctx, "app-1", 0, func(a *domain.Application) error {
		a.Status.EINNumber = "12-3456789"
		return nil
	})
	require.ErrorIs(t, err, domain.ErrInvariantViolated)

	got, err := repo.Get(ctx, "app-1")
	require.NoError(t, err)
	require.Equal(t, domain.InitialStatus(), got.Status)
	require.Equal(t, int64(1), got.Version)
}
