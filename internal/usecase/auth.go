package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ErlanBelekov/jwt-auth/internal/domain"
	"github.com/ErlanBelekov/jwt-auth/internal/email"
	"github.com/ErlanBelekov/jwt-auth/internal/metrics"
	"github.com/ErlanBelekov/jwt-auth/internal/password"
	"github.com/ErlanBelekov/jwt-auth/internal/repository"
	"github.com/go-playground/validator/v10"
)

// Hashed when the email is unknown so both login failures cost one verification.
const dummyPassword = "dummy-password-for-unknown-users"

type passwordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, hash string) (bool, error)
}

type tokenIssuer interface {
	Issue(subject string, userID int64, now time.Time, ttl time.Duration) (string, error)
	TTL() time.Duration
}

type RegisterInput struct {
	Email    string `validate:"required,email"`
	Username string `validate:"required,min=2"`
	Password string `validate:"required,min=8"`
}

type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// AuthResult is returned by a successful registration or login.
type AuthResult struct {
	User        *domain.User
	AccessToken string
	ExpiresAt   time.Time
}

type AuthUsecase struct {
	users    repository.UserRepository
	hasher   passwordHasher
	issuer   tokenIssuer
	mailer   email.Sender
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time

	dummyMu   sync.Mutex
	dummyHash string
}

func NewAuthUsecase(users repository.UserRepository, hasher passwordHasher, issuer tokenIssuer, mailer email.Sender, logger *slog.Logger) *AuthUsecase {
	return &AuthUsecase{
		users:    users,
		hasher:   hasher,
		issuer:   issuer,
		mailer:   mailer,
		validate: validator.New(),
		logger:   logger.With("component", "auth_usecase"),
		now:      time.Now,
	}
}

// WithClock replaces the time source used for token expiry.
func (u *AuthUsecase) WithClock(now func() time.Time) *AuthUsecase {
	u.now = now
	return u
}

// Register stores a new user with a hashed password and returns an access token.
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := u.validateInput(in); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	_, err := u.users.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
		return nil, domain.ErrDuplicateIdentity
	case !errors.Is(err, domain.ErrUserNotFound):
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := u.hasher.Hash(ctx, in.Password)
	if err != nil {
		if errors.Is(err, password.ErrPasswordTooLong) {
			metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
			return nil, domain.NewValidationError("password", "must be at most 72 bytes")
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := u.users.Create(ctx, &domain.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
			return nil, domain.ErrDuplicateIdentity
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("create user: %w", err)
	}

	result, err := u.issue(user)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.RegistrationsTotal.WithLabelValues("success").Inc()

	subject, body := email.Welcome(user.Username)
	if err := u.mailer.Send(ctx, user.Email, subject, body); err != nil {
		u.logger.WarnContext(ctx, "send welcome email", "user_id", user.ID, "error", err)
	}

	return result, nil
}

// Login checks the password and returns a fresh access token. An unknown
// email and a wrong password both yield domain.ErrInvalidCredentials.
func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := u.validateInput(in); err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	user, err := u.users.FindByEmail(ctx, in.Email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			metrics.LoginsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("find user: %w", err)
		}
		u.burnVerification(ctx, in.Password)
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	ok, err := u.hasher.Verify(ctx, in.Password, user.PasswordHash)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	result, err := u.issue(user)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return result, nil
}

func (u *AuthUsecase) issue(user *domain.User) (*AuthResult, error) {
	now := u.now()
	ttl := u.issuer.TTL()

	signed, err := u.issuer.Issue(user.Email, user.ID, now, ttl)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	metrics.TokensIssuedTotal.Inc()

	return &AuthResult{
		User:        user,
		AccessToken: signed,
		ExpiresAt:   now.Add(ttl),
	}, nil
}

// burnVerification runs one verification against a throwaway hash.
func (u *AuthUsecase) burnVerification(ctx context.Context, plaintext string) {
	hash, err := u.getDummyHash(ctx)
	if err != nil {
		u.logger.WarnContext(ctx, "dummy hash unavailable", "error", err)
		return
	}
	_, _ = u.hasher.Verify(ctx, plaintext, hash)
}

func (u *AuthUsecase) getDummyHash(ctx context.Context) (string, error) {
	u.dummyMu.Lock()
	defer u.dummyMu.Unlock()

	if u.dummyHash != "" {
		return u.dummyHash, nil
	}
	hash, err := u.hasher.Hash(ctx, dummyPassword)
	if err != nil {
		return "", err
	}
	u.dummyHash = hash
	return hash, nil
}

func (u *AuthUsecase) validateInput(in any) error {
	err := u.validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate input: %w", err)
	}

	vErr := &domain.ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		vErr.Fields[strings.ToLower(fe.Field())] = fieldMessage(fe)
	}
	return vErr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	default:
		return "is invalid"
	}
}
