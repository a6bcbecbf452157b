package dashboard

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/kozaktomas/portfolio/internal/database"
	"github.com/kozaktomas/portfolio/internal/portfolio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu          sync.Mutex
	list        []database.Project
	listErr     error
	orderResult portfolio.ActionResult[bool]
	deleteRes   portfolio.ActionResult[bool]
	orderCalls  [][]string
	deleteCalls [][]string
	listCalls   int
	// block, when set, is received from before an order call returns.
	block chan struct{}
}

func (b *fakeBackend) ListProjects(ctx context.Context) ([]database.Project, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listCalls++
	return slices.Clone(b.list), b.listErr
}

func (b *fakeBackend) UpdateProjectOrder(ctx context.Context, ids []string) portfolio.ActionResult[bool] {
	b.mu.Lock()
	b.orderCalls = append(b.orderCalls, ids)
	res, block := b.orderResult, b.block
	b.mu.Unlock()
	if block != nil {
		<-block
	}
	return res
}

func (b *fakeBackend) DeleteProjects(ctx context.Context, ids []string) portfolio.ActionResult[bool] {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleteCalls = append(b.deleteCalls, ids)
	return b.deleteRes
}

func (b *fakeBackend) counts() (order, del, list int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.orderCalls), len(b.deleteCalls), b.listCalls
}

func twoProjects() []database.Project {
	return []database.Project{
		{ID: "1", Title: "Project One", SortOrder: 1},
		{ID: "2", Title: "Project Two", SortOrder: 2},
	}
}

func threeProjects() []database.Project {
	return []database.Project{
		{ID: "a", Title: "A", SortOrder: 1},
		{ID: "b", Title: "B", SortOrder: 2},
		{ID: "c", Title: "C", SortOrder: 3},
	}
}

func titles(projects []database.Project) []string {
	out := make([]string, len(projects))
	for i, p := range projects {
		out[i] = p.Title
	}
	return out
}

func TestReorder_Success(t *testing.T) {
	backend := &fakeBackend{orderResult: portfolio.OK(true)}
	backend.list = []database.Project{
		{ID: "2", Title: "Project Two", SortOrder: 1},
		{ID: "1", Title: "Project One", SortOrder: 2},
	}

	var statuses []OrderStatus
	var mu sync.Mutex
	db := New(backend, twoProjects(),
		WithSavedDelay(20*time.Millisecond),
		WithOnChange(func(s State) {
			mu.Lock()
			statuses = append(statuses, s.Status)
			mu.Unlock()
		}),
	)
	defer db.Close()

	require.True(t, db.Reorder(context.Background(), "1", "2"))

	assert.Equal(t, [][]string{{"2", "1"}}, backend.orderCalls)
	state := db.State()
	assert.Equal(t, []string{"Project Two", "Project One"}, titles(state.Projects))
	assert.Equal(t, OrderSaved, state.Status)
	assert.Equal(t, "Order saved", state.Status.Text())
	assert.Empty(t, state.Message)
	assert.Equal(t, 1, backend.listCalls)

	assert.Eventually(t, func() bool { return db.State().Status == OrderIdle }, time.Second, 5*time.Millisecond)
	assert.Empty(t, db.State().Status.Text())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, OrderSaving, statuses[0])
	assert.Contains(t, statuses, OrderSaved)
	assert.Equal(t, OrderIdle, statuses[len(statuses)-1])
}

func TestReorder_MoveSemantics(t *testing.T) {
	tests := []struct {
		active, over string
		want         []string
	}{
		{"a", "c", []string{"b", "c", "a"}},
		{"c", "a", []string{"c", "a", "b"}},
		{"b", "c", []string{"a", "c", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.active+"->"+tt.over, func(t *testing.T) {
			backend := &fakeBackend{orderResult: portfolio.Fail[bool](portfolio.KindInternal, "x")}
			db := New(backend, threeProjects())

			db.Reorder(context.Background(), tt.active, tt.over)

			require.Len(t, backend.orderCalls, 1)
			assert.Equal(t, tt.want, backend.orderCalls[0])
		})
	}
}

func TestReorder_OptimisticSortOrder(t *testing.T) {
	backend := &fakeBackend{orderResult: portfolio.OK(true), block: make(chan struct{})}
	db := New(backend, threeProjects())
	defer db.Close()

	done := make(chan struct{})
	go func() {
		db.Reorder(context.Background(), "c", "a")
		close(done)
	}()

	require.Eventually(t, func() bool { return db.State().Status == OrderSaving }, time.Second, time.Millisecond)
	state := db.State()
	assert.Equal(t, []string{"c", "a", "b"}, database.ProjectIDs(state.Projects))
	assert.Equal(t, []int{1, 2, 3}, []int{state.Projects[0].SortOrder, state.Projects[1].SortOrder, state.Projects[2].SortOrder})
	assert.False(t, db.CanReorder())

	// Drag is disabled while saving.
	assert.False(t, db.Reorder(context.Background(), "a", "b"))

	close(backend.block)
	<-done
	order, _, _ := backend.counts()
	assert.Equal(t, 1, order)
}

func TestReorder_Ignored(t *testing.T) {
	backend := &fakeBackend{orderResult: portfolio.OK(true)}
	db := New(backend, twoProjects())

	assert.False(t, db.Reorder(context.Background(), "1", "1"))
	assert.False(t, db.Reorder(context.Background(), "1", "missing"))
	assert.False(t, db.Reorder(context.Background(), "", "2"))
	assert.Empty(t, backend.orderCalls)
	assert.Equal(t, OrderIdle, db.State().Status)
}

func TestReorder_FailureRollsBack(t *testing.T) {
	backend := &fakeBackend{orderResult: portfolio.Fail[bool](portfolio.KindInternal, "Failed to update order")}
	db := New(backend, twoProjects())

	require.True(t, db.Reorder(context.Background(), "1", "2"))

	state := db.State()
	assert.Equal(t, []string{"Project One", "Project Two"}, titles(state.Projects))
	assert.Equal(t, "Failed to update order", state.Message)
	assert.Equal(t, OrderIdle, state.Status)
	assert.Zero(t, backend.listCalls)
}

func TestReorder_UnknownIDsRefreshes(t *testing.T) {
	backend := &fakeBackend{
		orderResult: portfolio.Fail[bool](portfolio.KindConflict, portfolio.MsgUnknownOrderIDs),
		list:        []database.Project{{ID: "2", Title: "Project Two"}},
	}
	db := New(backend, twoProjects())

	require.True(t, db.Reorder(context.Background(), "1", "2"))

	state := db.State()
	assert.Equal(t, MsgOrderOutOfDate, state.Message)
	assert.Equal(t, OrderIdle, state.Status)
	assert.Equal(t, 1, backend.listCalls)
	assert.Equal(t, []string{"Project Two"}, titles(state.Projects))
}

func TestReorder_UnknownIDsRefreshFailureKeepsOptimisticList(t *testing.T) {
	backend := &fakeBackend{
		orderResult: portfolio.Fail[bool](portfolio.KindConflict, portfolio.MsgUnknownOrderIDs),
		listErr:     errors.New("offline"),
	}
	db := New(backend, twoProjects())

	db.Reorder(context.Background(), "1", "2")

	assert.Equal(t, []string{"Project Two", "Project One"}, titles(db.State().Projects))
	assert.Equal(t, MsgOrderOutOfDate, db.State().Message)
}

func TestDeleteSelected_Declined(t *testing.T) {
	backend := &fakeBackend{deleteRes: portfolio.OK(true)}
	db := New(backend, threeProjects())
	db.ToggleSelection("a")
	db.ToggleSelection("c")

	var prompt string
	ok := db.DeleteSelected(context.Background(), func(p string) bool {
		prompt = p
		return false
	})

	assert.False(t, ok)
	assert.Equal(t, "Are you sure you want to delete 2 projects?", prompt)
	assert.Empty(t, backend.deleteCalls)
	state := db.State()
	assert.Len(t, state.Projects, 3)
	assert.Equal(t, []string{"a", "c"}, state.Selected)
}

func TestDeleteSelected_NothingSelected(t *testing.T) {
	backend := &fakeBackend{}
	db := New(backend, threeProjects())

	assert.False(t, db.DeleteSelected(context.Background(), func(string) bool {
		t.Error("unexpected prompt")
		return true
	}))
}

func TestDeleteSelected_Success(t *testing.T) {
	backend := &fakeBackend{deleteRes: portfolio.OK(true), list: []database.Project{{ID: "b", Title: "B"}}}
	db := New(backend, threeProjects())
	db.ToggleSelection("c")
	db.ToggleSelection("a")

	require.True(t, db.DeleteSelected(context.Background(), func(string) bool { return true }))

	assert.Equal(t, [][]string{{"a", "c"}}, backend.deleteCalls)
	assert.Equal(t, 1, backend.listCalls)
	state := db.State()
	assert.Equal(t, []string{"b"}, database.ProjectIDs(state.Projects))
	assert.Empty(t, state.Selected)
}

func TestDeleteSelected_FailureRestoresListNotSelection(t *testing.T) {
	backend := &fakeBackend{deleteRes: portfolio.Fail[bool](portfolio.KindInternal, "Failed")}
	db := New(backend, threeProjects())
	db.ToggleSelection("b")

	require.True(t, db.DeleteSelected(context.Background(), func(string) bool { return true }))

	state := db.State()
	assert.Equal(t, []string{"a", "b", "c"}, database.ProjectIDs(state.Projects))
	assert.Equal(t, "Failed", state.Message)
	assert.Empty(t, state.Selected)
	assert.Zero(t, backend.listCalls)
}

func TestToggleSelection(t *testing.T) {
	db := New(&fakeBackend{}, threeProjects())

	db.ToggleSelection("b")
	db.ToggleSelection("missing")
	assert.Equal(t, []string{"b"}, db.State().Selected)

	db.ToggleSelection("b")
	assert.Empty(t, db.State().Selected)
}

func TestSelect_Idempotent(t *testing.T) {
	db := New(&fakeBackend{}, threeProjects())

	db.Select("c", "missing")
	db.Select("c")
	db.Select("a", "a")
	assert.Equal(t, []string{"a", "c"}, db.State().Selected)
}

func TestSelect_DuplicateIDsStillDelete(t *testing.T) {
	backend := &fakeBackend{deleteRes: portfolio.OK(true)}
	db := New(backend, threeProjects())
	for _, id := range []string{"a", "a"} {
		db.Select(id)
	}

	require.True(t, db.DeleteSelected(context.Background(), func(string) bool { return true }))
	assert.Equal(t, [][]string{{"a"}}, backend.deleteCalls)
}

func TestReplace(t *testing.T) {
	db := New(&fakeBackend{}, threeProjects())
	db.ToggleSelection("a")
	db.ToggleSelection("c")

	db.Replace([]database.Project{{ID: "c"}, {ID: "d"}})

	state := db.State()
	assert.Equal(t, []string{"c", "d"}, database.ProjectIDs(state.Projects))
	assert.Equal(t, []string{"c"}, state.Selected)
}

func TestRefreshError(t *testing.T) {
	db := New(&fakeBackend{listErr: errors.New("boom")}, threeProjects())

	err := db.Refresh(context.Background())

	require.Error(t, err)
	assert.Len(t, db.State().Projects, 3)
}
