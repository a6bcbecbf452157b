package portfolio

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/kozaktomas/portfolio/internal/database"
	"github.com/kozaktomas/portfolio/internal/storage"
)

// User is the authenticated admin performing an action.
type User struct {
	Subject string
}

// Service runs project actions against a project store and an object store.
type Service struct {
	store         database.ProjectWriter
	objects       storage.ObjectStore
	maxImageBytes int64
	production    bool
	now           func() time.Time
	observe       func(action, result string)
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithProduction hides backend error text from callers.
func WithProduction(production bool) ServiceOption {
	return func(s *Service) { s.production = production }
}

// WithClock overrides the time source used for created_at and upload names.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithActionObserver is called once per action with its name and result kind.
func WithActionObserver(fn func(action, result string)) ServiceOption {
	return func(s *Service) { s.observe = fn }
}

// NewService creates a project action service. maxImageBytes is the largest
// image accepted for upload.
func NewService(store database.ProjectWriter, objects storage.ObjectStore, maxImageBytes int64, opts ...ServiceOption) *Service {
	s := &Service{
		store:         store,
		objects:       objects,
		maxImageBytes: maxImageBytes,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func record[T any](s *Service, action string, r ActionResult[T]) ActionResult[T] {
	if s.observe != nil {
		s.observe(action, r.Kind.String())
	}
	return r
}

func (s *Service) dbError(action string, err error) ActionResult[bool] {
	slog.Error("database error", "action", action, "error", err)
	return Fail[bool](KindInternal, FormatError(err, MsgFailed, s.production))
}

type preparedMutation struct {
	imageURL string
	tags     []string
}

// prepare validates input and uploads its image.
func (s *Service) prepare(ctx context.Context, in ProjectInput, requireID bool) (*preparedMutation, ActionResult[bool]) {
	if msgs := ValidateProjectInput(in); len(msgs) > 0 {
		return nil, Fail[bool](KindInvalid, strings.Join(msgs, ", "))
	}
	if requireID && strings.TrimSpace(in.ID) == "" {
		return nil, Fail[bool](KindInvalid, MsgMissingProjectID)
	}

	upload := s.uploadImage(ctx, in.Image)
	if upload.Failed() {
		return nil, Fail[bool](upload.Kind, upload.Error)
	}

	var tags []string
	if normalized := NormalizeTags(in.Tags); len(normalized) > 0 {
		tags = normalized
	}

	return &preparedMutation{imageURL: upload.Data, tags: tags}, ActionResult[bool]{}
}

// nextSortOrder places new projects after the current last one. A failed
// lookup puts the project first rather than failing the create.
func (s *Service) nextSortOrder(ctx context.Context) int {
	current, err := s.store.MaxSortOrder(ctx)
	if err != nil {
		slog.Error("failed to fetch sort order", "error", err)
		return 1
	}
	return current + 1
}

// CreateProject validates input, uploads its image and appends the project.
func (s *Service) CreateProject(ctx context.Context, user *User, in ProjectInput) ActionResult[bool] {
	if user == nil {
		return record(s, "create", Fail[bool](KindUnauthorized, MsgUnauthorized))
	}

	prepared, res := s.prepare(ctx, in, false)
	if prepared == nil {
		return record(s, "create", res)
	}

	project := &database.Project{
		CreatedAt:        s.now(),
		Title:            strings.TrimSpace(in.Title),
		ShortDescription: in.ShortDescription,
		Description:      in.Description,
		ImageURL:         prepared.imageURL,
		RepoURL:          strings.TrimSpace(in.RepoURL),
		DemoURL:          strings.TrimSpace(in.DemoURL),
		Tags:             prepared.tags,
		SortOrder:        s.nextSortOrder(ctx),
	}

	if err := s.store.InsertProject(ctx, project); err != nil {
		return record(s, "create", s.dbError("create", err))
	}

	slog.Info("project created", "id", project.ID, "sort_order", project.SortOrder)
	return record(s, "create", OK(true))
}

// UpdateProject replaces a project's fields. Without a new image the
// current image URL is kept.
func (s *Service) UpdateProject(ctx context.Context, user *User, in ProjectInput) ActionResult[bool] {
	if user == nil {
		return record(s, "update", Fail[bool](KindUnauthorized, MsgUnauthorized))
	}

	prepared, res := s.prepare(ctx, in, true)
	if prepared == nil {
		return record(s, "update", res)
	}

	imageURL := prepared.imageURL
	if imageURL == "" {
		imageURL = in.CurrentImageURL
	}

	err := s.store.UpdateProject(ctx, strings.TrimSpace(in.ID), database.ProjectUpdate{
		Title:            strings.TrimSpace(in.Title),
		ShortDescription: in.ShortDescription,
		Description:      in.Description,
		ImageURL:         imageURL,
		RepoURL:          strings.TrimSpace(in.RepoURL),
		DemoURL:          strings.TrimSpace(in.DemoURL),
		Tags:             prepared.tags,
	})
	if errors.Is(err, database.ErrProjectNotFound) {
		return record(s, "update", Fail[bool](KindNotFound, MsgProjectNotFound))
	}
	if err != nil {
		return record(s, "update", s.dbError("update", err))
	}

	return record(s, "update", OK(true))
}

// DeleteProjects removes the given projects. Unknown ids are ignored.
func (s *Service) DeleteProjects(ctx context.Context, user *User, ids []string) ActionResult[bool] {
	if user == nil {
		return record(s, "delete", Fail[bool](KindUnauthorized, MsgUnauthorized))
	}

	n, err := s.store.DeleteProjects(ctx, ids)
	if err != nil {
		return record(s, "delete", s.dbError("delete", err))
	}

	slog.Info("projects deleted", "requested", len(ids), "deleted", n)
	return record(s, "delete", OK(true))
}

// UpdateProjectOrder assigns sort_order 1..n following orderedIDs. The
// sequence must name every project exactly once; when the store updates
// fewer rows than given the caller's view is stale.
func (s *Service) UpdateProjectOrder(ctx context.Context, user *User, orderedIDs []string) ActionResult[bool] {
	if user == nil {
		return record(s, "reorder", Fail[bool](KindUnauthorized, MsgUnauthorized))
	}

	if msg := ValidateProjectOrder(orderedIDs); msg != "" {
		return record(s, "reorder", Fail[bool](KindInvalid, msg))
	}

	updated, err := s.store.UpdateProjectOrder(ctx, orderedIDs)
	if err != nil {
		return record(s, "reorder", s.dbError("reorder", err))
	}
	if updated != len(orderedIDs) {
		slog.Warn("project order contains unknown ids", "sent", len(orderedIDs), "updated", updated)
		return record(s, "reorder", Fail[bool](KindConflict, MsgUnknownOrderIDs))
	}

	return record(s, "reorder", OK(true))
}

// ListProjects returns projects in display order. Store failures are logged
// and yield an empty list.
func (s *Service) ListProjects(ctx context.Context) []database.Project {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		slog.Error("failed to fetch projects", "error", err)
		return []database.Project{}
	}
	if projects == nil {
		return []database.Project{}
	}
	return projects
}
