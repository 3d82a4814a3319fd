// Package memory provides an in-process repository.Store used when no Postgres DSN
// is configured and by tests. It follows the Postgres store's contracts, including
// pgx.ErrNoRows for missing rows and all-or-nothing transactions.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/shopfloor-issues/internal/domain"
	"github.com/spec-kit/shopfloor-issues/internal/repository"
)

type dataset struct {
	issues      map[string]domain.Issue
	escalations []domain.EscalationRecord
	resolutions map[string]domain.ResolutionRecord
	suggestions map[string]domain.AiSuggestion
	categories  map[string]domain.Category
	users       map[string]domain.User
	nextNumber  int64
}

func newDataset() *dataset {
	return &dataset{
		issues:      map[string]domain.Issue{},
		resolutions: map[string]domain.ResolutionRecord{},
		suggestions: map[string]domain.AiSuggestion{},
		categories:  map[string]domain.Category{},
		users:       map[string]domain.User{},
	}
}

func (d *dataset) clone() *dataset {
	out := &dataset{
		issues:      make(map[string]domain.Issue, len(d.issues)),
		escalations: append([]domain.EscalationRecord(nil), d.escalations...),
		resolutions: make(map[string]domain.ResolutionRecord, len(d.resolutions)),
		suggestions: make(map[string]domain.AiSuggestion, len(d.suggestions)),
		categories:  make(map[string]domain.Category, len(d.categories)),
		users:       make(map[string]domain.User, len(d.users)),
		nextNumber:  d.nextNumber,
	}
	for k, v := range d.issues {
		out.issues[k] = v
	}
	for k, v := range d.resolutions {
		out.resolutions[k] = v
	}
	for k, v := range d.suggestions {
		out.suggestions[k] = v
	}
	for k, v := range d.categories {
		out.categories[k] = v
	}
	for k, v := range d.users {
		out.users[k] = v
	}
	return out
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store is a mutex-guarded repository.Store. A transaction holds the mutex for its
// whole body, which serializes concurrent lifecycle operations.
type Store struct {
	mu   *sync.Mutex
	data *dataset
	inTx bool
	now  func() time.Time
}

// NewStore returns an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		mu:   &sync.Mutex{},
		data: newDataset(),
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Issues() repository.IssueRepository           { return issueRepo{s} }
func (s *Store) Escalations() repository.EscalationRepository { return escalationRepo{s} }
func (s *Store) Resolutions() repository.ResolutionRepository { return resolutionRepo{s} }
func (s *Store) Suggestions() repository.SuggestionRepository { return suggestionRepo{s} }
func (s *Store) Categories() repository.CategoryRepository    { return categoryRepo{s} }
func (s *Store) Users() repository.UserRepository             { return userRepo{s} }
func (s *Store) Reports() repository.ReportRepository         { return reportRepo{s} }

// WithinTx runs fn on a snapshot-protected view; any error or panic restores the
// state captured before fn started.
func (s *Store) WithinTx(ctx context.Context, fn func(repository.Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	committed := false
	defer func() {
		if !committed {
			*s.data = *snapshot
		}
	}()

	tx := &Store{mu: s.mu, data: s.data, inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

var _ repository.Store = (*Store)(nil)
