package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/oshxona/backend/internal/config"
	"github.com/oshxona/backend/internal/domain"
	"github.com/oshxona/backend/internal/oauth"
	"github.com/oshxona/backend/internal/repository"
	"github.com/oshxona/backend/pkg/auth"
	mock_email "github.com/oshxona/backend/pkg/email/mock"
	"github.com/oshxona/backend/pkg/hash"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type memUsers struct {
	mu     sync.Mutex
	rows   map[uuid.UUID]domain.User
	writes int
}

func newMemUsers() *memUsers {
	return &memUsers{rows: map[uuid.UUID]domain.User{}}
}

func (m *memUsers) put(u domain.User) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	m.rows[u.ID] = u
	return &u
}

func (m *memUsers) get(id uuid.UUID) domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id]
}

func (m *memUsers) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *memUsers) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Email == user.Email || (user.GoogleID.Valid && row.GoogleID == user.GoogleID) {
			return domain.ErrDuplicateEntry
		}
	}
	m.writes++
	m.rows[user.ID] = *user
	return nil
}

func (m *memUsers) GetOneByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &row, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Email == email {
			return &row, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUsers) SetVerificationCode(_ context.Context, id uuid.UUID, code string, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok || row.IsEmailVerified {
		return domain.ErrNoRowsAffected
	}
	m.writes++
	row.EmailVerificationCode.String, row.EmailVerificationCode.Valid = code, true
	row.VerificationSentAt = &sentAt
	row.VerificationAttempts = 0
	m.rows[id] = row
	return nil
}

func (m *memUsers) ConfirmVerificationCode(_ context.Context, id uuid.UUID, code string, issuedAfter time.Time, maxAttempts int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok || row.IsEmailVerified || !row.EmailVerificationCode.Valid || row.EmailVerificationCode.String != code {
		return false, nil
	}
	if !issuedAfter.IsZero() && (row.VerificationSentAt == nil || !row.VerificationSentAt.After(issuedAfter)) {
		return false, nil
	}
	if maxAttempts > 0 && row.VerificationAttempts >= maxAttempts {
		return false, nil
	}
	m.writes++
	row.IsEmailVerified = true
	row.EmailVerificationCode.String, row.EmailVerificationCode.Valid = "", false
	row.VerificationSentAt = nil
	row.VerificationAttempts = 0
	m.rows[id] = row
	return true, nil
}

func (m *memUsers) IncrementVerificationAttempts(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok || row.IsEmailVerified || !row.EmailVerificationCode.Valid {
		return nil
	}
	row.VerificationAttempts++
	m.rows[id] = row
	return nil
}

func (m *memUsers) ChangeEmail(_ context.Context, id uuid.UUID, email string, code string, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return domain.ErrNoRowsAffected
	}
	for otherID, other := range m.rows {
		if otherID != id && other.Email == email {
			return domain.ErrDuplicateEntry
		}
	}
	m.writes++
	row.Email = email
	row.IsEmailVerified = false
	row.EmailVerificationCode.String, row.EmailVerificationCode.Valid = code, true
	row.VerificationSentAt = &sentAt
	row.VerificationAttempts = 0
	m.rows[id] = row
	return nil
}

func (m *memUsers) UpdateProfile(_ context.Context, id uuid.UUID, name string, phoneNumber string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.rows[id]
	m.writes++
	row.Name.String, row.Name.Valid = name, name != ""
	row.PhoneNumber.String, row.PhoneNumber.Valid = phoneNumber, phoneNumber != ""
	m.rows[id] = row
	return nil
}

type memRefreshSessions struct {
	mu   sync.Mutex
	rows map[uuid.UUID]domain.RefreshSession
}

func newMemRefreshSessions() *memRefreshSessions {
	return &memRefreshSessions{rows: map[uuid.UUID]domain.RefreshSession{}}
}

func (m *memRefreshSessions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *memRefreshSessions) Create(_ context.Context, session *domain.RefreshSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[session.ID] = *session
	return nil
}

func (m *memRefreshSessions) GetByRefreshToken(_ context.Context, refreshToken uuid.UUID) (*domain.RefreshSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.RefreshToken == refreshToken {
			return &row, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memRefreshSessions) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

// memCounters backs both attempt counters and resend cooldowns.
type memCounters struct {
	mu     sync.Mutex
	values map[string]int
}

func newMemCounters() *memCounters {
	return &memCounters{values: map[string]int{}}
}

func (m *memCounters) get(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key]
}

func (m *memCounters) Increment(_ context.Context, key string, _ time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key]++
	return m.values[key], nil
}

func (m *memCounters) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values[key] > 0 {
		return false, nil
	}
	m.values[key] = 1
	return true, nil
}

type memStates struct {
	mu     sync.Mutex
	states map[string]bool
}

func (m *memStates) Save(_ context.Context, state string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state] = true
	return nil
}

func (m *memStates) Consume(_ context.Context, state string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ok := m.states[state]
	delete(m.states, state)
	return ok, nil
}

type fakeProvider struct {
	profile *oauth.Profile
	err     error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://idp.test/auth?state=" + state
}

func (p *fakeProvider) ExchangeCode(context.Context, string) (*oauth.Profile, error) {
	return p.profile, p.err
}

// sequenceCodes hands out codes in order and repeats the last one.
type sequenceCodes struct {
	mu    sync.Mutex
	codes []string
}

func (g *sequenceCodes) RandomCode() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	code := g.codes[0]
	if len(g.codes) > 1 {
		g.codes = g.codes[1:]
	}
	return code, nil
}

func (g *sequenceCodes) RandomSecret(int) string {
	return "STATE" + uuid.NewString()
}

type recordingEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
}

func (e *recordingEnqueuer) Enqueue(_ context.Context, t *asynq.Task) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks = append(e.tasks, t)
	return nil
}

type testEnv struct {
	users     *memUsers
	sessions  *memRefreshSessions
	attempts  *memCounters
	cooldowns *memCounters
	states    *memStates
	provider  *fakeProvider
	codes     *sequenceCodes
	sender    *mock_email.EmailSender
	enqueuer  *recordingEnqueuer
	candidate *auth.CandidateManager
	services  *Services
	cfg       *config.Config
}

func newTestEnv(t *testing.T, codes ...string) *testEnv {
	t.Helper()

	if len(codes) == 0 {
		codes = []string{"111111"}
	}

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "verification.html"), []byte("code {{.VerificationCode}}"), 0o600))

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWT: config.JWTConfig{
				AccessTokenTTL:  time.Minute,
				RefreshTokenTTL: time.Hour,
				SigningKey:      "jwt-test-key",
			},
			Candidate: config.CandidateConfig{
				SigningKey:      "candidate-test-key",
				ChallengeTTL:    15 * time.Minute,
				RegistrationTTL: 30 * time.Minute,
			},
			Verification: config.VerificationConfig{
				CodeTTL:     15 * time.Minute,
				MaxAttempts: 5,
			},
		},
		Google: config.GoogleConfig{StateTTL: time.Minute},
		Email: config.EmailConfig{
			Enabled:      true,
			TemplatesDir: dir,
			Templates:    config.EmailTemplates{Verification: "verification.html"},
		},
	}

	tokenManager, err := auth.NewManager(cfg.Auth.JWT)
	require.NoError(t, err)
	candidateManager, err := auth.NewCandidateManager(cfg.Auth.Candidate)
	require.NoError(t, err)

	env := &testEnv{
		users:     newMemUsers(),
		sessions:  newMemRefreshSessions(),
		attempts:  newMemCounters(),
		cooldowns: newMemCounters(),
		states:    &memStates{states: map[string]bool{}},
		provider:  &fakeProvider{},
		codes:     &sequenceCodes{codes: codes},
		sender:    &mock_email.EmailSender{},
		enqueuer:  &recordingEnqueuer{},
		candidate: candidateManager,
		cfg:       cfg,
	}

	env.services = NewServices(Deps{
		Config:           cfg,
		Hasher:           hash.NewBcryptHasher(4),
		TokenManager:     tokenManager,
		CandidateManager: candidateManager,
		OtpGenerator:     env.codes,
		Repos: &repository.Repositories{
			Users:                env.users,
			RefreshSession:       env.sessions,
			VerificationAttempts: env.attempts,
			ResendCooldowns:      env.cooldowns,
			OAuthStates:          env.states,
		},
		EmailSender:   env.sender,
		OAuthProvider: env.provider,
		Enqueuer:      env.enqueuer,
	})

	return env
}

func (e *testEnv) userService() *userService {
	return e.services.Users.(*userService)
}

func unverifiedUser(email string, code string, sentAt time.Time) domain.User {
	u := domain.User{Email: email}
	u.EmailVerificationCode.String, u.EmailVerificationCode.Valid = code, true
	u.VerificationSentAt = &sentAt
	return u
}

func verifiedUser(email string) domain.User {
	return domain.User{Email: email, IsEmailVerified: true}
}
