package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"learnquiz/internal/validation"
)

type fakeUserRepo struct {
	byID map[string]User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[string]User)}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user User) error {
	for _, existing := range f.byID {
		if existing.Email == user.Email {
			return ErrEmailTaken
		}
	}
	f.byID[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetUser(_ context.Context, id string) (User, error) {
	user, ok := f.byID[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (User, error) {
	for _, user := range f.byID {
		if user.Email == email {
			return user, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (f *fakeUserRepo) ListUsers(context.Context) ([]User, error) {
	out := make([]User, 0, len(f.byID))
	for _, user := range f.byID {
		out = append(out, user)
	}
	return out, nil
}

func (f *fakeUserRepo) DeleteUser(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return ErrUserNotFound
	}
	delete(f.byID, id)
	return nil
}

func TestRegisterAndLogin(t *testing.T) {
	service := NewService(newFakeUserRepo(), "test-secret", time.Hour)
	ctx := context.Background()

	user, err := service.Register(ctx, RegisterInput{Name: " Ada ", Email: "Ada@Example.com ", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Role != RoleStudent || user.Email != "ada@example.com" || user.Name != "Ada" {
		t.Fatalf("unexpected user %+v", user)
	}
	if string(user.PasswordHash) == "correct-horse" {
		t.Fatal("password stored in clear text")
	}

	if _, err := service.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "another-one"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	if _, _, err := service.Login(ctx, LoginInput{Email: "ada@example.com", Password: "wrong-password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := service.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "whatever"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	token, loggedIn, err := service.Login(ctx, LoginInput{Email: "ADA@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, loggedIn.ID)
	}

	claims, err := service.Parse(token)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if claims.Sub != user.ID || claims.Role != RoleStudent || claims.Name != "Ada" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	name, err := service.DisplayName(ctx, user.ID)
	if err != nil || name != "Ada" {
		t.Fatalf("expected display name Ada, got %q err=%v", name, err)
	}
}

func TestRegisterValidation(t *testing.T) {
	service := NewService(newFakeUserRepo(), "test-secret", time.Hour)

	cases := []RegisterInput{
		{Name: "", Email: "a@example.com", Password: "long-enough"},
		{Name: "A", Email: "not-an-email", Password: "long-enough"},
		{Name: "A", Email: "a@example.com", Password: "short"},
		{Name: "A", Email: "a@example.com", Password: "long-enough", Role: "owner"},
	}
	for _, in := range cases {
		if _, err := service.Register(context.Background(), in); !errors.Is(err, validation.ErrInvalid) {
			t.Fatalf("input %+v: expected validation error, got %v", in, err)
		}
	}
}

func TestParseRejectsForeignAndExpiredTokens(t *testing.T) {
	issuer := NewService(newFakeUserRepo(), "secret-a", time.Hour)
	other := NewService(newFakeUserRepo(), "secret-b", time.Hour)

	token, err := issuer.IssueJWT(User{ID: "u1", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("IssueJWT returned error: %v", err)
	}
	if _, err := other.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign secret, got %v", err)
	}

	issuer.nowFn = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _ := issuer.IssueJWT(User{ID: "u1", Role: RoleAdmin})
	issuer.nowFn = time.Now
	if _, err := issuer.Parse(expired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestMiddlewareAndRequireRole(t *testing.T) {
	service := NewService(newFakeUserRepo(), "test-secret", time.Hour)
	lecturerToken, _ := service.IssueJWT(User{ID: "l1", Role: RoleLecturer})
	studentToken, _ := service.IssueJWT(User{ID: "s1", Role: RoleStudent})

	var seenSubject string
	handler := Middleware(service)(RequireRole(RoleLecturer, RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenSubject = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	cases := []struct {
		name   string
		setup  func(*http.Request)
		status int
	}{
		{name: "missing token", setup: func(*http.Request) {}, status: http.StatusUnauthorized},
		{name: "bad token", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, status: http.StatusUnauthorized},
		{name: "wrong role", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+studentToken) }, status: http.StatusForbidden},
		{name: "header", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+lecturerToken) }, status: http.StatusNoContent},
		{name: "query", setup: func(r *http.Request) {
			q := r.URL.Query()
			q.Set("access_token", lecturerToken)
			r.URL.RawQuery = q.Encode()
		}, status: http.StatusNoContent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seenSubject = ""
			req := httptest.NewRequest(http.MethodGet, "/courses", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rec.Code)
			}
			if tc.status == http.StatusNoContent && seenSubject != "l1" {
				t.Fatalf("expected subject l1 in context, got %q", seenSubject)
			}
		})
	}
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, "secret", time.Hour)

	created, err := svc.EnsureAdmin(context.Background(), "Root@Example.com", "password123")
	if err != nil || !created {
		t.Fatalf("first EnsureAdmin = (%t, %v), want (true, nil)", created, err)
	}
	created, err = svc.EnsureAdmin(context.Background(), "root@example.com", "password123")
	if err != nil || created {
		t.Fatalf("second EnsureAdmin = (%t, %v), want (false, nil)", created, err)
	}

	user, err := repo.GetUserByEmail(context.Background(), "root@example.com")
	if err != nil {
		t.Fatalf("admin not stored: %v", err)
	}
	if user.Role != RoleAdmin {
		t.Fatalf("role = %s, want admin", user.Role)
	}
}
