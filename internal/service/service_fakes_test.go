package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/tracklite/ticket-tracker/internal/domain"
	"github.com/tracklite/ticket-tracker/internal/repository"
)

// In-memory repository fakes backing the service tests.

type fakeTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]domain.Ticket{}}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = fakeID("ticket", r.seq)
	now := time.Now().Add(time.Duration(r.seq) * time.Millisecond)
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (r *fakeTicketRepo) UpdateStatus(_ context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	ticket.Status = status
	// mirror Create's per-seq offset so updates never appear older than the
	// creation timestamp they follow
	ticket.UpdatedAt = time.Now().Add(time.Duration(r.seq) * time.Millisecond)
	r.tickets[id] = ticket
	return &ticket, nil
}

func (r *fakeTicketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.AssigneeID != nil && !ticket.IsAssignedTo(*filter.AssigneeID) {
			continue
		}
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		result = append(result, ticket)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

type fakeUserRepo struct {
	mu       sync.Mutex
	seq      int
	users    map[string]domain.User
	profiles *fakeProfileRepo
}

func newFakeUserRepo(profiles *fakeProfileRepo) *fakeUserRepo {
	return &fakeUserRepo{users: map[string]domain.User{}, profiles: profiles}
}

func (r *fakeUserRepo) CreateWithProfile(_ context.Context, user *domain.User, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	user.ID = fakeID("user", r.seq)
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	r.profiles.put(domain.Profile{UserID: user.ID, Role: role})
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now()
	r.users[id] = user
	return nil
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]domain.Profile
	users    *fakeUserRepo
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: map[string]domain.Profile{}}
}

func (r *fakeProfileRepo) put(profile domain.Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.UserID] = profile
}

func (r *fakeProfileRepo) GetByUserID(_ context.Context, userID string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &profile, nil
}

func (r *fakeProfileRepo) UpdateRole(_ context.Context, userID string, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	profile.Role = role
	r.profiles[userID] = profile
	return nil
}

func (r *fakeProfileRepo) ListDevelopers(ctx context.Context) ([]domain.User, error) {
	r.mu.Lock()
	ids := make([]string, 0)
	for id, profile := range r.profiles {
		if profile.Role == domain.RoleDeveloper {
			ids = append(ids, id)
		}
	}
	r.mu.Unlock()

	sort.Strings(ids)
	var result []domain.User
	for _, id := range ids {
		if r.users == nil {
			result = append(result, domain.User{ID: id})
			continue
		}
		user, err := r.users.GetByID(ctx, id)
		if err != nil {
			continue
		}
		result = append(result, *user)
	}
	return result, nil
}

type fakeTicketEventRepo struct {
	mu     sync.Mutex
	seq    int
	events []domain.TicketEvent
}

func newFakeTicketEventRepo() *fakeTicketEventRepo {
	return &fakeTicketEventRepo{}
}

func (r *fakeTicketEventRepo) Create(_ context.Context, event *domain.TicketEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	event.ID = fakeID("event", r.seq)
	event.CreatedAt = time.Now()
	r.events = append(r.events, *event)
	return nil
}

func (r *fakeTicketEventRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.TicketEvent
	for _, event := range r.events {
		if event.TicketID == ticketID {
			result = append(result, event)
		}
	}
	return result, nil
}

func fakeID(kind string, seq int) string {
	return fmt.Sprintf("%s-%02d", kind, seq)
}

func zapNop() *zap.Logger {
	return zap.NewNop()
}
