// Package dashboard keeps the admin's view of the project list in step with
// the server: optimistic reorder and batch delete with rollback.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/kozaktomas/portfolio/internal/database"
	"github.com/kozaktomas/portfolio/internal/portfolio"
)

// SavedDelay is how long "Order saved" stays visible.
const SavedDelay = 1500 * time.Millisecond

// MsgOrderOutOfDate replaces a rollback when the server rejects stale ids.
const MsgOrderOutOfDate = "Order was out of date. Refreshed list."

// OrderStatus is idle → saving → saved → idle, or saving → idle on failure.
type OrderStatus int

const (
	OrderIdle OrderStatus = iota
	OrderSaving
	OrderSaved
)

func (s OrderStatus) String() string {
	switch s {
	case OrderSaving:
		return "saving"
	case OrderSaved:
		return "saved"
	default:
		return "idle"
	}
}

// Text is the status line shown next to the list.
func (s OrderStatus) Text() string {
	switch s {
	case OrderSaving:
		return "Saving order..."
	case OrderSaved:
		return "Order saved"
	default:
		return ""
	}
}

// Backend is the remote side of the dashboard.
type Backend interface {
	ListProjects(ctx context.Context) ([]database.Project, error)
	UpdateProjectOrder(ctx context.Context, orderedIDs []string) portfolio.ActionResult[bool]
	DeleteProjects(ctx context.Context, ids []string) portfolio.ActionResult[bool]
}

// State is a copy of the dashboard for rendering.
type State struct {
	Projects []database.Project
	Selected []string // in display order
	Status   OrderStatus
	Message  string
}

// Dashboard holds the displayed list. Remote calls run outside the lock;
// only one reorder is accepted at a time. A delete during a reorder is not
// guarded.
type Dashboard struct {
	mu       sync.Mutex
	backend  Backend
	projects []database.Project
	selected map[string]struct{}
	status   OrderStatus
	message  string

	savedDelay time.Duration
	savedTimer *time.Timer
	generation int
	onChange   func(State)
}

// Option configures a Dashboard
type Option func(*Dashboard)

// WithSavedDelay overrides SavedDelay.
func WithSavedDelay(d time.Duration) Option {
	return func(db *Dashboard) { db.savedDelay = d }
}

// WithOnChange is called with a fresh State after every transition.
func WithOnChange(fn func(State)) Option {
	return func(db *Dashboard) { db.onChange = fn }
}

// New seeds a dashboard with the server's snapshot.
func New(backend Backend, initial []database.Project, opts ...Option) *Dashboard {
	db := &Dashboard{
		backend:    backend,
		projects:   slices.Clone(initial),
		selected:   make(map[string]struct{}),
		savedDelay: SavedDelay,
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// stateLocked copies the dashboard. Caller holds mu.
func (db *Dashboard) stateLocked() State {
	selected := make([]string, 0, len(db.selected))
	for _, p := range db.projects {
		if _, ok := db.selected[p.ID]; ok {
			selected = append(selected, p.ID)
		}
	}
	return State{
		Projects: slices.Clone(db.projects),
		Selected: selected,
		Status:   db.status,
		Message:  db.message,
	}
}

// State returns a copy of the current state.
func (db *Dashboard) State() State {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.stateLocked()
}

// unlockAndNotify releases mu and reports the state it held.
func (db *Dashboard) unlockAndNotify() {
	state := db.stateLocked()
	db.mu.Unlock()
	if db.onChange != nil {
		db.onChange(state)
	}
}

// Replace swaps in a server snapshot. Selected ids that no longer exist are
// dropped.
func (db *Dashboard) Replace(projects []database.Project) {
	db.mu.Lock()
	db.projects = slices.Clone(projects)
	live := make(map[string]struct{}, len(projects))
	for _, p := range projects {
		live[p.ID] = struct{}{}
	}
	for id := range db.selected {
		if _, ok := live[id]; !ok {
			delete(db.selected, id)
		}
	}
	db.unlockAndNotify()
}

// Refresh reloads the list from the server. A failed load keeps the current
// list.
func (db *Dashboard) Refresh(ctx context.Context) error {
	projects, err := db.backend.ListProjects(ctx)
	if err != nil {
		slog.Warn("failed to refresh projects", "error", err)
		return fmt.Errorf("refresh projects: %w", err)
	}
	db.Replace(projects)
	return nil
}

// ToggleSelection adds or removes id from the delete selection.
func (db *Dashboard) ToggleSelection(id string) {
	db.mu.Lock()
	if _, ok := db.selected[id]; ok {
		delete(db.selected, id)
	} else if slices.ContainsFunc(db.projects, func(p database.Project) bool { return p.ID == id }) {
		db.selected[id] = struct{}{}
	}
	db.unlockAndNotify()
}

// Select marks ids as selected. Unknown and already selected ids are ignored.
func (db *Dashboard) Select(ids ...string) {
	db.mu.Lock()
	for _, id := range ids {
		if indexOf(db.projects, id) >= 0 {
			db.selected[id] = struct{}{}
		}
	}
	db.unlockAndNotify()
}

// CanReorder reports whether drag is enabled.
func (db *Dashboard) CanReorder() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.status != OrderSaving
}

func indexOf(projects []database.Project, id string) int {
	return slices.IndexFunc(projects, func(p database.Project) bool { return p.ID == id })
}

// moveProject removes the item at from and inserts it at to. Sort orders
// are renumbered from 1.
func moveProject(projects []database.Project, from, to int) []database.Project {
	out := slices.Clone(projects)
	item := out[from]
	out = slices.Delete(out, from, from+1)
	out = slices.Insert(out, to, item)
	for i, u := range portfolio.BuildProjectOrderUpdates(database.ProjectIDs(out), 1) {
		out[i].SortOrder = u.SortOrder
	}
	return out
}

// Reorder moves activeID to overID's position and persists the full order.
// It returns false without any call when the ids are equal or unknown or a
// save is already running.
func (db *Dashboard) Reorder(ctx context.Context, activeID, overID string) bool {
	db.mu.Lock()
	if db.status == OrderSaving || activeID == "" || activeID == overID {
		db.mu.Unlock()
		return false
	}
	from, to := indexOf(db.projects, activeID), indexOf(db.projects, overID)
	if from < 0 || to < 0 {
		db.mu.Unlock()
		return false
	}

	snapshot := slices.Clone(db.projects)
	db.projects = moveProject(db.projects, from, to)
	db.status = OrderSaving
	db.message = ""
	db.generation++
	if db.savedTimer != nil {
		db.savedTimer.Stop()
	}
	ids := database.ProjectIDs(db.projects)
	db.unlockAndNotify()

	res := db.backend.UpdateProjectOrder(ctx, ids)

	db.mu.Lock()
	switch {
	case !res.Failed():
		db.status = OrderSaved
		gen := db.generation
		db.savedTimer = time.AfterFunc(db.savedDelay, func() { db.clearSaved(gen) })
		db.unlockAndNotify()
		db.Refresh(ctx)
	case res.Error == portfolio.MsgUnknownOrderIDs:
		// The server's list wins over the optimistic one.
		db.status = OrderIdle
		db.message = MsgOrderOutOfDate
		db.unlockAndNotify()
		db.Refresh(ctx)
	default:
		db.projects = snapshot
		db.status = OrderIdle
		db.message = res.Error
		db.unlockAndNotify()
	}
	return true
}

func (db *Dashboard) clearSaved(gen int) {
	db.mu.Lock()
	if db.generation != gen || db.status != OrderSaved {
		db.mu.Unlock()
		return
	}
	db.status = OrderIdle
	db.unlockAndNotify()
}

// DeletePrompt is the confirmation text for deleting n projects.
func DeletePrompt(n int) string {
	return fmt.Sprintf("Are you sure you want to delete %d projects?", n)
}

// DeleteSelected asks confirm, then removes the selection optimistically and
// deletes it remotely. A failure restores the list but not the selection.
// It returns false when nothing is selected or confirmation is declined.
func (db *Dashboard) DeleteSelected(ctx context.Context, confirm func(prompt string) bool) bool {
	db.mu.Lock()
	ids := db.stateLocked().Selected
	db.mu.Unlock()
	if len(ids) == 0 || !confirm(DeletePrompt(len(ids))) {
		return false
	}

	db.mu.Lock()
	snapshot := slices.Clone(db.projects)
	db.projects = slices.DeleteFunc(slices.Clone(db.projects), func(p database.Project) bool {
		return slices.Contains(ids, p.ID)
	})
	clear(db.selected)
	db.message = ""
	db.unlockAndNotify()

	res := db.backend.DeleteProjects(ctx, ids)
	if !res.Failed() {
		db.Refresh(ctx)
		return true
	}

	db.mu.Lock()
	db.projects = snapshot
	db.message = res.Error
	db.unlockAndNotify()
	return true
}

// Close stops the pending status timer.
func (db *Dashboard) Close() {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.savedTimer != nil {
		db.savedTimer.Stop()
	}
}
