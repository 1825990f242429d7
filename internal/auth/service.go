package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"learnquiz/internal/validation"
)

const (
	defaultTokenTTL = 8 * time.Hour
	tokenIssuer     = "learnquiz"
)

type Claims struct {
	Sub  string `json:"sub"`
	Role Role   `json:"role"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Name     string `json:"name" validate:"notblank,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     Role   `json:"role" validate:"omitempty,oneof=student lecturer admin"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Service struct {
	users UserRepository
	hmac  []byte
	ttl   time.Duration
	nowFn func() time.Time
}

func NewService(users UserRepository, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &Service{
		users: users,
		hmac:  []byte(secret),
		ttl:   ttl,
		nowFn: time.Now,
	}
}

// Register creates an account. Self-registration defaults to the student role.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = NormalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return User{}, err
	}
	if in.Role == "" {
		in.Role = RoleStudent
	}

	if _, err := s.users.GetUserByEmail(ctx, in.Email); err == nil {
		return User{}, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return User{}, err
	}

	user := User{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Role:      in.Role,
		CreatedAt: s.nowFn().UTC(),
	}
	if err := user.SetPassword(in.Password); err != nil {
		return User{}, err
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// EnsureAdmin creates an admin account for email unless one is already
// registered. It reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	_, err := s.Register(ctx, RegisterInput{Name: "Administrator", Email: email, Password: password, Role: RoleAdmin})
	if errors.Is(err, ErrEmailTaken) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Login checks the credentials and issues a signed token.
func (s *Service) Login(ctx context.Context, in LoginInput) (string, User, error) {
	in.Email = NormalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return "", User{}, err
	}

	user, err := s.users.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, ErrUserNotFound) {
		return "", User{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", User{}, err
	}
	if err := user.CheckPassword(in.Password); err != nil {
		return "", User{}, ErrInvalidCredentials
	}

	token, err := s.IssueJWT(user)
	if err != nil {
		return "", User{}, err
	}
	return token, user, nil
}

func (s *Service) IssueJWT(user User) (string, error) {
	now := s.nowFn()
	claims := &Claims{
		Sub:  user.ID,
		Role: user.Role,
		Name: user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.hmac)
}

func (s *Service) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.hmac, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.nowFn),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	c, ok := token.Claims.(*Claims)
	if !ok || c.Sub == "" || !c.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return c, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.users.ListUsers(ctx)
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	return s.users.DeleteUser(ctx, strings.TrimSpace(id))
}

// DisplayName resolves a user id for leaderboards.
func (s *Service) DisplayName(ctx context.Context, userID string) (string, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Name, nil
}
