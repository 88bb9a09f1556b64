package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tracklite/ticket-tracker/internal/auth"
	"github.com/tracklite/ticket-tracker/internal/config"
	"github.com/tracklite/ticket-tracker/internal/domain"
	"github.com/tracklite/ticket-tracker/internal/events"
	"github.com/tracklite/ticket-tracker/internal/observability"
	"github.com/tracklite/ticket-tracker/internal/repository"
	"github.com/tracklite/ticket-tracker/internal/service"
	"github.com/tracklite/ticket-tracker/internal/web/handlers"
)

// memStorage is an in-process fiber.Storage used for session and CSRF state
// in tests. Expirations are ignored; tests never outlive a session TTL.
type memStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{data: make(map[string][]byte)}
}

func (s *memStorage) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (s *memStorage) Set(key string, val []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(val))
	copy(stored, val)
	// fiber hands over keys backed by reusable request buffers; clone so the
	// map key cannot be mutated after the request is recycled
	s.data[strings.Clone(key)] = stored
	return nil
}

func (s *memStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *memStorage) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string][]byte)
	return nil
}

func (s *memStorage) Close() error { return nil }

type fakeTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]domain.Ticket)}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if ticket.ID == "" {
		ticket.ID = nextID("ticket", r.seq)
	}
	now := time.Now().UTC().Add(time.Duration(r.seq) * time.Millisecond)
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
	ticket.UpdatedAt = time.Now().UTC()
	r.tickets[id] = ticket
	return &ticket, nil
}

func (r *fakeTicketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.AssigneeID != nil && !ticket.IsAssignedTo(*filter.AssigneeID) {
			continue
		}
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		out = append(out, ticket)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type fakeUserRepo struct {
	mu       sync.Mutex
	seq      int
	users    map[string]domain.User
	profiles *fakeProfileRepo
}

func (r *fakeUserRepo) CreateWithProfile(_ context.Context, user *domain.User, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if user.ID == "" {
		user.ID = nextID("user", r.seq)
	}
	now := time.Now().UTC()
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
	user.UpdatedAt = time.Now().UTC()
	r.users[id] = user
	return nil
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]domain.Profile
	users    *fakeUserRepo
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

func (r *fakeProfileRepo) ListDevelopers(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	ids := make([]string, 0, len(r.profiles))
	for userID, profile := range r.profiles {
		if profile.Role == domain.RoleDeveloper {
			ids = append(ids, userID)
		}
	}
	r.mu.Unlock()

	var out []domain.User
	for _, id := range ids {
		user, err := r.users.GetByID(context.Background(), id)
		if err != nil {
			continue
		}
		out = append(out, *user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fakeTicketEventRepo struct {
	mu     sync.Mutex
	seq    int
	events []domain.TicketEvent
}

func (r *fakeTicketEventRepo) Create(_ context.Context, event *domain.TicketEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if event.ID == "" {
		event.ID = nextID("event", r.seq)
	}
	event.CreatedAt = time.Now().UTC()
	r.events = append(r.events, *event)
	return nil
}

func (r *fakeTicketEventRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TicketEvent
	for _, event := range r.events {
		if event.TicketID == ticketID {
			out = append(out, event)
		}
	}
	return out, nil
}

func nextID(kind string, seq int) string {
	return fmt.Sprintf("%s-%02d", kind, seq)
}

// testEnv is a fully wired application over fake repositories and in-memory
// session storage, driven through fiber's test transport.
type testEnv struct {
	app      *fiber.App
	tickets  *fakeTicketRepo
	users    *fakeUserRepo
	profiles *fakeProfileRepo
	trail    *fakeTicketEventRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.Config{
		App: config.AppConfig{Name: "ticket-tracker", Version: "test"},
		Auth: config.AuthConfig{
			ResetTokenSecret:     "test-secret",
			ResetTokenTTLMinutes: 30,
			BcryptCost:           bcrypt.MinCost,
			MinPasswordLength:    8,
		},
		Session: config.SessionConfig{
			CookieName:    "tracker_session",
			TTLMinutes:    60,
			CSRFFieldName: "csrf_token",
		},
	}

	tickets := newFakeTicketRepo()
	profiles := &fakeProfileRepo{profiles: make(map[string]domain.Profile)}
	users := &fakeUserRepo{users: make(map[string]domain.User), profiles: profiles}
	profiles.users = users
	trail := &fakeTicketEventRepo{}

	dispatcher := events.NewInMemoryDispatcher()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	sessions := auth.NewSessionManager(cfg.Session, newMemStorage())
	authMiddleware := auth.NewMiddleware(sessions, users, profiles)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:      tickets,
		ProfileRepo:     profiles,
		TicketEventRepo: trail,
		Dispatcher:      dispatcher,
	})
	accountService := service.NewAccountService(cfg.Auth, service.AccountDependencies{
		UserRepo:    users,
		ProfileRepo: profiles,
		Dispatcher:  dispatcher,
	})
	service.NewAuditService(dispatcher, trail, logger).RegisterHandlers()

	engine := html.New("../../views", ".html")
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		Views:                 engine,
		DisableStartupMessage: true,
	})

	RegisterMiddlewares(app, logger, metrics, newMemStorage(), cfg)
	RegisterRoutes(app, RouteConfig{
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Accounts:       handlers.NewAccountsHandler(accountService, sessions, cfg.Auth.MinPasswordLength),
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, nil, nil),
		AuthMiddleware: authMiddleware,
		TicketRepo:     tickets,
	})

	return &testEnv{app: app, tickets: tickets, users: users, profiles: profiles, trail: trail}
}

func (e *testEnv) seedUser(t *testing.T, name, email, password string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{Name: name, Email: email, PasswordHash: string(hash)}
	require.NoError(t, e.users.CreateWithProfile(context.Background(), user, role))
	return user
}

func (e *testEnv) seedTicket(t *testing.T, title, reporterID string, assigneeID *string, status domain.TicketStatus) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		Title:       title,
		Description: "seeded for test",
		Status:      status,
		Priority:    domain.TicketPriorityMedium,
		AssignedTo:  assigneeID,
		ReportedBy:  reporterID,
	}
	require.NoError(t, e.tickets.Create(context.Background(), ticket))
	return ticket
}

func (e *testEnv) ticketStatus(t *testing.T, id string) domain.TicketStatus {
	t.Helper()
	ticket, err := e.tickets.GetByID(context.Background(), id)
	require.NoError(t, err)
	return ticket.Status
}

var csrfTokenPattern = regexp.MustCompile(`name="csrf_token" value="([^"]*)"`)

// browser drives the app through app.Test while carrying cookies between
// requests, the way a real user agent would.
type browser struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]string
}

func (e *testEnv) newBrowser(t *testing.T) *browser {
	return &browser{t: t, app: e.app, cookies: make(map[string]string)}
}

func (b *browser) do(req *http.Request) *http.Response {
	b.t.Helper()
	for name, value := range b.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	resp, err := b.app.Test(req, 5000)
	require.NoError(b.t, err)
	for _, c := range resp.Cookies() {
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c.Value
	}
	return resp
}

func (b *browser) get(path string) *http.Response {
	b.t.Helper()
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) postForm(path string, form url.Values) *http.Response {
	b.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return b.do(req)
}

// csrfFor fetches the given page and extracts the rendered CSRF token, which
// also primes the token cookie in the jar.
func (b *browser) csrfFor(path string) string {
	b.t.Helper()
	resp := b.get(path)
	require.Equal(b.t, http.StatusOK, resp.StatusCode, "expected a page to lift the CSRF token from")
	match := csrfTokenPattern.FindStringSubmatch(readBody(b.t, resp))
	require.Len(b.t, match, 2, "page is missing the CSRF field")
	return match[1]
}

func (b *browser) logIn(email, password string) {
	b.t.Helper()
	token := b.csrfFor(auth.LoginPath)
	resp := b.postForm(auth.LoginPath, url.Values{
		"email":      {email},
		"password":   {password},
		"csrf_token": {token},
	})
	require.Equal(b.t, http.StatusFound, resp.StatusCode, "login should redirect")
	require.Equal(b.t, "/", resp.Header.Get(fiber.HeaderLocation))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}
