package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vidstream/account-service/internal/core/domain"
	"github.com/vidstream/account-service/internal/core/password"
	"github.com/vidstream/account-service/internal/core/ports"
	"github.com/vidstream/account-service/internal/core/token"
)

// stubUserRepo is an in-memory UserRepository. Refresh-token writes go
// through a mutex so the rotation compare-and-swap behaves like the real
// conditional update in Mongo.
type stubUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.UserAccount // by id
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.UserAccount)}
}

func cloneUser(u *domain.UserAccount) *domain.UserAccount {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.UserAccount) (*domain.UserAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.seq++
	clone := cloneUser(user)
	clone.ID = fmt.Sprintf("user-%d", r.seq)
	clone.CreatedAt = time.Now().UTC()
	clone.UpdatedAt = clone.CreatedAt
	r.users[clone.ID] = clone
	return cloneUser(clone), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.UserAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByIdentifier(_ context.Context, identifier string) (*domain.UserAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == identifier || u.Email == identifier {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) SetRefreshToken(_ context.Context, id, tok string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.RefreshToken = tok
	return nil
}

func (r *stubUserRepo) RotateRefreshToken(_ context.Context, id, old, next string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	if u.RefreshToken != old {
		return domain.ErrTokenMismatch
	}
	u.RefreshToken = next
	return nil
}

func (r *stubUserRepo) ClearRefreshToken(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.RefreshToken = ""
	return nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id, fullName, email string) (*domain.UserAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.FullName = fullName
	u.Email = email
	u.UpdatedAt = time.Now().UTC()
	return cloneUser(u), nil
}

func newTestService(t *testing.T, repo ports.UserRepository) *SessionService {
	t.Helper()
	mgr, err := token.NewManager(token.Config{
		AccessSecret:  []byte("access-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshSecret: []byte("refresh-secret"),
		RefreshTTL:    10 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	return NewSessionService(repo, mgr, zerolog.Nop())
}

func registerAna(t *testing.T, svc *SessionService) *domain.SessionView {
	t.Helper()
	view, err := svc.Register(context.Background(), ports.RegisterInput{
		FullName:  "Ana Lima",
		Email:     "a@x.com",
		Username:  "ana",
		Password:  "pw1",
		AvatarURL: "https://media.example.com/avatars/ana.png",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	return view
}

func TestRegister_ReturnsPublicView(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo)

	view := registerAna(t, svc)
	if view.ID == "" || view.Username != "ana" || view.Email != "a@x.com" {
		t.Fatalf("unexpected view: %+v", view)
	}

	stored, err := repo.FindByID(context.Background(), view.ID)
	if err != nil {
		t.Fatalf("stored account missing: %v", err)
	}
	if stored.PasswordHash == "" || stored.PasswordHash == "pw1" {
		t.Fatalf("expected hashed password, got %q", stored.PasswordHash)
	}
	if stored.RefreshToken != "" {
		t.Fatalf("register must not start a session")
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService(t, newStubUserRepo())

	cases := []ports.RegisterInput{
		{FullName: " ", Email: "a@x.com", Username: "ana", Password: "pw", AvatarURL: "u"},
		{FullName: "Ana", Email: "", Username: "ana", Password: "pw", AvatarURL: "u"},
		{FullName: "Ana", Email: "a@x.com", Username: "  ", Password: "pw", AvatarURL: "u"},
		{FullName: "Ana", Email: "a@x.com", Username: "ana", Password: "   ", AvatarURL: "u"},
		{FullName: "Ana", Email: "a@x.com", Username: "ana", Password: "pw", AvatarURL: ""},
	}
	for i, in := range cases {
		if _, err := svc.Register(context.Background(), in); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("case %d: expected ErrValidation, got %v", i, err)
		}
	}
}

func TestRegister_DuplicateUsernameAnyCase(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo)
	registerAna(t, svc)

	_, err := svc.Register(context.Background(), ports.RegisterInput{
		FullName: "Other", Email: "other@x.com", Username: "ANA", Password: "pw", AvatarURL: "u",
	})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists for case-insensitive duplicate, got %v", err)
	}

	_, err = svc.Register(context.Background(), ports.RegisterInput{
		FullName: "Other", Email: "a@x.com", Username: "other", Password: "pw", AvatarURL: "u",
	})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists for duplicate email, got %v", err)
	}

	if len(repo.users) != 1 {
		t.Fatalf("expected a single stored account, got %d", len(repo.users))
	}
}

func TestLogin_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo)
	view := registerAna(t, svc)

	res, err := svc.Login(context.Background(), "ana", "pw1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.User.ID != view.ID {
		t.Fatalf("expected user %s, got %s", view.ID, res.User.ID)
	}
	if res.Tokens.AccessToken == "" || res.Tokens.RefreshToken == "" {
		t.Fatalf("expected a full token pair")
	}

	stored, _ := repo.FindByID(context.Background(), view.ID)
	if stored.RefreshToken != res.Tokens.RefreshToken {
		t.Fatalf("stored refresh token not updated")
	}

	// Email works as identifier too, any case.
	if _, err := svc.Login(context.Background(), "A@X.com", "pw1"); err != nil {
		t.Fatalf("login by email failed: %v", err)
	}
}

func TestLogin_AccessTokenCarriesUserID(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo)
	view := registerAna(t, svc)

	res, err := svc.Login(context.Background(), "ana", "pw1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	ident, err := svc.tokens.VerifyAccess(res.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("access token failed verification: %v", err)
	}
	if ident.UserID != view.ID {
		t.Fatalf("expected subject %s, got %s", view.ID, ident.UserID)
	}
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo)
	registerAna(t, svc)

	_, wrongPass := svc.Login(context.Background(), "ana", "wrong")
	if !errors.Is(wrongPass, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", wrongPass)
	}

	_, unknown := svc.Login(context.Background(), "nobody", "pw1")
	if !errors.Is(unknown, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown identifier, got %v", unknown)
	}
}

func TestLogin_OverwritesPriorSession(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo)
	registerAna(t, svc)

	first, err := svc.Login(context.Background(), "ana", "pw1")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	if _, err := svc.Login(context.Background(), "ana", "pw1"); err != nil {
		t.Fatalf("second login: %v", err)
	}

	if _, err := svc.Refresh(context.Background(), first.Tokens.RefreshToken); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected first session's refresh token to be dead, got %v", err)
	}
}

func TestRefresh_RotationInvariant(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo)
	registerAna(t, svc)

	login, err := svc.Login(context.Background(), "ana", "pw1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	t1 := login.Tokens.RefreshToken

	second, err := svc.Refresh(context.Background(), t1)
	if err != nil {
		t.Fatalf("refresh(T1): %v", err)
	}
	t2 := second.Tokens.RefreshToken
	if t2 == t1 {
		t.Fatalf("rotation produced an identical token")
	}

	if _, err := svc.Refresh(context.Background(), t1); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected replayed T1 to fail, got %v", err)
	}
	if _, err := svc.Refresh(context.Background(), t2); err != nil {
		t.Fatalf("refresh(T2) should succeed: %v", err)
	}
}

func TestRefresh_RejectsGarbageAndMissing(t *testing.T) {
	svc := newTestService(t, newStubUserRepo())

	if _, err := svc.Refresh(context.Background(), ""); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for missing token, got %v", err)
	}
	if _, err := svc.Refresh(context.Background(), "not-a-token"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for malformed token, got %v", err)
	}
}

func TestRefresh_ConcurrentRedemption_SingleWinner(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo)
	registerAna(t, svc)

	login, err := svc.Login(context.Background(), "ana", "pw1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	t1 := login.Tokens.RefreshToken

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Refresh(context.Background(), t1)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, domain.ErrInvalidCredentials):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}

func TestLogout_KillsSessionAndIsIdempotent(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo)
	view := registerAna(t, svc)

	login, err := svc.Login(context.Background(), "ana", "pw1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(context.Background(), view.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := svc.Logout(context.Background(), view.ID); err != nil {
		t.Fatalf("second logout should be a no-op: %v", err)
	}

	if _, err := svc.Refresh(context.Background(), login.Tokens.RefreshToken); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected refresh after logout to fail, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo)
	view := registerAna(t, svc)
	login, _ := svc.Login(context.Background(), "ana", "pw1")

	before, _ := repo.FindByID(context.Background(), view.ID)

	err := svc.ChangePassword(context.Background(), view.ID, "pw1", "newpw", "different")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation on mismatched confirmation, got %v", err)
	}
	after, _ := repo.FindByID(context.Background(), view.ID)
	if after.PasswordHash != before.PasswordHash {
		t.Fatalf("failed change must not alter the stored hash")
	}

	if err := svc.ChangePassword(context.Background(), view.ID, "wrong", "newpw", "newpw"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong old password, got %v", err)
	}

	if err := svc.ChangePassword(context.Background(), view.ID, "pw1", "newpw", "newpw"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	after, _ = repo.FindByID(context.Background(), view.ID)
	if !password.Verify("newpw", after.PasswordHash) {
		t.Fatalf("new password does not verify against stored hash")
	}
	if after.RefreshToken != "" {
		t.Fatalf("expected session slot cleared after password change")
	}
	if _, err := svc.Refresh(context.Background(), login.Tokens.RefreshToken); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old session must not survive a password change, got %v", err)
	}

	if _, err := svc.Login(context.Background(), "ana", "newpw"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestCurrentSession_NotFound(t *testing.T) {
	svc := newTestService(t, newStubUserRepo())
	if _, err := svc.CurrentSession(context.Background(), "ghost"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo)
	view := registerAna(t, svc)

	if _, err := svc.UpdateProfile(context.Background(), view.ID, "", "a@x.com"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing full name, got %v", err)
	}
	if _, err := svc.UpdateProfile(context.Background(), view.ID, "Ana B. Lima", "  "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing email, got %v", err)
	}

	updated, err := svc.UpdateProfile(context.Background(), view.ID, "Ana B. Lima", "Ana@X.com")
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.FullName != "Ana B. Lima" || updated.Email != "ana@x.com" {
		t.Fatalf("unexpected view after update: %+v", updated)
	}
}

func TestRegister_TrimsAndLowercases(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo)

	view, err := svc.Register(context.Background(), ports.RegisterInput{
		FullName:  "  Bob Roe  ",
		Email:     " Bob@Example.COM ",
		Username:  "  BoB ",
		Password:  "pw",
		AvatarURL: "https://media.example.com/avatars/bob.png",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if view.Username != "bob" || view.Email != "bob@example.com" || view.FullName != "Bob Roe" {
		t.Fatalf("unexpected normalization: %+v", view)
	}
	if !strings.Contains(view.Avatar, "bob.png") {
		t.Fatalf("avatar lost: %+v", view)
	}
}
