package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"dubclub-auth/internal/domain"
	"dubclub-auth/internal/provider"
)

type mockTokenRepo struct {
	token domain.SocialToken
	err   error
	saved []domain.SocialToken
}

func (m *mockTokenRepo) GetValidToken(_ context.Context, _ int64) (domain.SocialToken, error) {
	if m.err != nil {
		return domain.SocialToken{}, m.err
	}
	return m.token, nil
}

func (m *mockTokenRepo) Save(_ context.Context, token domain.SocialToken) error {
	m.saved = append(m.saved, token)
	return nil
}

type mockFetcher struct {
	profile domain.Profile
	err     error
	calls   int
}

func (m *mockFetcher) UserInfo(_ context.Context, _ string) (domain.Profile, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.profile, nil
}

type mockGroupRepo struct {
	byName map[string]domain.Group
	err    error
}

func (m *mockGroupRepo) GetByName(_ context.Context, name string) (domain.Group, error) {
	if m.err != nil {
		return domain.Group{}, m.err
	}
	group, ok := m.byName[name]
	if !ok {
		return domain.Group{}, pgx.ErrNoRows
	}
	return group, nil
}

func (m *mockGroupRepo) ListForIdentity(_ context.Context, _ int64) ([]domain.Group, error) {
	return nil, nil
}

type mockIdentityRepo struct {
	created      []*domain.Identity
	stored       map[int64]*domain.Identity
	saveCalls    int
	lastActive   bool
	lastGroupIDs []int64
	saveErr      error
}

func (m *mockIdentityRepo) Create(_ context.Context, identity *domain.Identity) error {
	m.created = append(m.created, identity)
	return nil
}

func (m *mockIdentityRepo) GetByID(_ context.Context, id int64) (*domain.Identity, error) {
	identity, ok := m.stored[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return identity, nil
}

func (m *mockIdentityRepo) SaveSyncResult(_ context.Context, _ int64, active bool, groupIDs []int64) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saveCalls++
	m.lastActive = active
	m.lastGroupIDs = groupIDs
	return nil
}

func newProfileService(tokens *mockTokenRepo, fetcher *mockFetcher, groups *mockGroupRepo, identities *mockIdentityRepo) *ProfileService {
	logger := zap.NewNop()
	return NewProfileService(logger, tokens, fetcher, NewGroupService(logger, groups), identities)
}

func validToken() domain.SocialToken {
	return domain.SocialToken{
		ID:         1,
		IdentityID: 42,
		Token:      "tok",
		ExpiresAt:  time.Now().Add(time.Hour),
	}
}

func TestLoadProfileNoTokenReturnsEmpty(t *testing.T) {
	tokens := &mockTokenRepo{err: pgx.ErrNoRows}
	fetcher := &mockFetcher{}
	svc := newProfileService(tokens, fetcher, &mockGroupRepo{}, &mockIdentityRepo{})

	identity := domain.NewIdentity(42, "dcuser_42")
	prior := domain.Profile{"sub": "42", "email": "x@y.com"}
	identity.ReplaceProfile(prior)

	profile, err := svc.LoadProfile(context.Background(), identity, true)
	if err != nil {
		t.Fatalf("expected no error for missing token, got %v", err)
	}
	if profile != nil {
		t.Fatalf("expected empty profile, got %v", profile)
	}
	if fetcher.calls != 0 {
		t.Fatalf("expected no fetch without token")
	}
	// La cache previa queda como estaba.
	if identity.Email() != "x@y.com" {
		t.Fatalf("prior cache changed: %q", identity.Email())
	}
}

func TestLoadProfileFastPathSkipsFetch(t *testing.T) {
	fetcher := &mockFetcher{profile: domain.Profile{"sub": "42", "email": "x@y.com"}}
	identities := &mockIdentityRepo{}
	svc := newProfileService(&mockTokenRepo{token: validToken()}, fetcher, &mockGroupRepo{}, identities)
	identity := domain.NewIdentity(42, "dcuser_42")

	first, err := svc.LoadProfile(context.Background(), identity, false)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	second, err := svc.LoadProfile(context.Background(), identity, false)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}

	if fetcher.calls != 1 {
		t.Fatalf("expected exactly one fetch, got %d", fetcher.calls)
	}
	if first["email"] != second["email"] {
		t.Fatalf("idempotent load returned different caches")
	}
}

func TestLoadProfileForceRefetches(t *testing.T) {
	fetcher := &mockFetcher{profile: domain.Profile{"sub": "42"}}
	svc := newProfileService(&mockTokenRepo{token: validToken()}, fetcher, &mockGroupRepo{}, &mockIdentityRepo{})
	identity := domain.NewIdentity(42, "dcuser_42")

	for i := 0; i < 3; i++ {
		if _, err := svc.LoadProfile(context.Background(), identity, true); err != nil {
			t.Fatalf("forced load %d: %v", i, err)
		}
	}
	if fetcher.calls != 3 {
		t.Fatalf("expected three fetches, got %d", fetcher.calls)
	}
}

func TestLoadProfileMismatchRejectedEntirely(t *testing.T) {
	fetcher := &mockFetcher{profile: domain.Profile{"sub": "99", "email": "wrong@y.com"}}
	identities := &mockIdentityRepo{}
	svc := newProfileService(&mockTokenRepo{token: validToken()}, fetcher, &mockGroupRepo{}, identities)

	identity := domain.NewIdentity(42, "dcuser_42")
	prior := domain.Profile{"sub": "42", "email": "x@y.com"}
	identity.ReplaceProfile(prior)

	_, err := svc.LoadProfile(context.Background(), identity, true)
	if !errors.Is(err, ErrIdentityMismatch) {
		t.Fatalf("expected ErrIdentityMismatch, got %v", err)
	}
	if identity.Email() != "x@y.com" {
		t.Fatalf("cache changed after mismatch: %q", identity.Email())
	}
	if identities.saveCalls != 0 {
		t.Fatalf("durable state written after mismatch")
	}
}

func TestLoadProfileFetchErrorLeavesCache(t *testing.T) {
	fetcher := &mockFetcher{err: provider.ErrFetchFailed}
	svc := newProfileService(&mockTokenRepo{token: validToken()}, fetcher, &mockGroupRepo{}, &mockIdentityRepo{})

	identity := domain.NewIdentity(42, "dcuser_42")
	identity.ReplaceProfile(domain.Profile{"sub": "42", "email": "x@y.com"})

	_, err := svc.LoadProfile(context.Background(), identity, true)
	if !errors.Is(err, provider.ErrFetchFailed) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if identity.Email() != "x@y.com" {
		t.Fatalf("cache changed after fetch error")
	}
}

func TestLoadProfileSuccessProjectsAndReconciles(t *testing.T) {
	fetcher := &mockFetcher{profile: domain.Profile{
		"sub":       "42",
		"is_active": true,
		"tags":      []any{"vip"},
		"email":     "x@y.com",
	}}
	groups := &mockGroupRepo{byName: map[string]domain.Group{
		"dctag:vip": {ID: 7, Name: "dctag:vip"},
	}}
	identities := &mockIdentityRepo{}
	svc := newProfileService(&mockTokenRepo{token: validToken()}, fetcher, groups, identities)

	identity := domain.NewIdentity(42, "dcuser_42")
	profile, err := svc.LoadProfile(context.Background(), identity, true)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if profile == nil {
		t.Fatalf("expected populated profile")
	}
	if identities.saveCalls != 1 || !identities.lastActive {
		t.Fatalf("expected is_active true persisted once (calls=%d active=%v)", identities.saveCalls, identities.lastActive)
	}
	if len(identities.lastGroupIDs) != 1 || identities.lastGroupIDs[0] != 7 {
		t.Fatalf("membership = %v, want [7]", identities.lastGroupIDs)
	}
	if !identity.IsActive() {
		t.Fatalf("expected is_active projection true")
	}
	if identity.Email() != "x@y.com" {
		t.Fatalf("email projection = %q", identity.Email())
	}
}

func TestLoadProfileMembershipIsFullReplace(t *testing.T) {
	groups := &mockGroupRepo{byName: map[string]domain.Group{
		"dctag:a": {ID: 1, Name: "dctag:a"},
		"dctag:b": {ID: 2, Name: "dctag:b"},
		"dctag:c": {ID: 3, Name: "dctag:c"},
	}}
	identities := &mockIdentityRepo{}
	fetcher := &mockFetcher{profile: domain.Profile{"sub": "42", "tags": []any{"a", "b"}}}
	svc := newProfileService(&mockTokenRepo{token: validToken()}, fetcher, groups, identities)
	identity := domain.NewIdentity(42, "dcuser_42")

	if _, err := svc.LoadProfile(context.Background(), identity, true); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	fetcher.profile = domain.Profile{"sub": "42", "tags": []any{"b", "c"}}
	if _, err := svc.LoadProfile(context.Background(), identity, true); err != nil {
		t.Fatalf("second sync: %v", err)
	}

	want := []int64{2, 3}
	if len(identities.lastGroupIDs) != len(want) {
		t.Fatalf("membership = %v, want %v", identities.lastGroupIDs, want)
	}
	for i, id := range want {
		if identities.lastGroupIDs[i] != id {
			t.Fatalf("membership = %v, want %v", identities.lastGroupIDs, want)
		}
	}
}

func TestLoadProfilePersistErrorLeavesCache(t *testing.T) {
	identities := &mockIdentityRepo{saveErr: errors.New("db down")}
	fetcher := &mockFetcher{profile: domain.Profile{"sub": "42", "is_active": true}}
	svc := newProfileService(&mockTokenRepo{token: validToken()}, fetcher, &mockGroupRepo{}, identities)
	identity := domain.NewIdentity(42, "dcuser_42")

	if _, err := svc.LoadProfile(context.Background(), identity, true); err == nil {
		t.Fatalf("expected persist error to propagate")
	}
	if identity.Loaded() {
		t.Fatalf("cache populated despite failed durable write")
	}
}
