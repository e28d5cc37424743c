package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/helpdesk-kit/tickets/internal/auth"
	"github.com/helpdesk-kit/tickets/internal/config"
	"github.com/helpdesk-kit/tickets/internal/domain"
	"github.com/helpdesk-kit/tickets/internal/repository"
	apperrors "github.com/helpdesk-kit/tickets/pkg/util"
)

// ErrInvalidCredentials is the single outcome of a failed login, whether the
// username is unknown or the password is wrong.
var ErrInvalidCredentials = apperrors.NewUnauthorized("invalid username or password")

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	TokenManager *auth.TokenManager
	Logger       *zap.Logger
}

// RegisterInput is a registration request.
type RegisterInput struct {
	Username string      `json:"username" form:"username" validate:"required,min=4,max=25"`
	Password string      `json:"password" form:"password" validate:"required,min=6"`
	Role     domain.Role `json:"role" form:"role" validate:"required,oneof=company regular-user"`
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	tokens := deps.TokenManager
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.SecretKey, cfg.AccessTokenTTLMinutes)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokenMgr:   tokens,
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
	}
}

// Register validates input and creates a new account. An empty role means
// regular-user. A taken username yields a DUPLICATE_USERNAME conflict and
// leaves the store unchanged.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	if input.Role == "" {
		input.Role = domain.RoleRegularUser
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Username:     input.Username,
		PasswordHash: hash,
		Role:         input.Role,
		CreatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict(apperrors.CodeDuplicateUsername, "username already exists",
				map[string]any{"username": "That username is already taken."})
		}
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("user registered",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(user.Role)))
	return user, nil
}

// Authenticate returns the user matching username and password.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		s.burnComparison(password)
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.burnComparison(password)
			return nil, ErrInvalidCredentials
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// IssueToken signs a bearer token for API clients.
func (s *AuthService) IssueToken(user *domain.User) (string, time.Time, error) {
	token, exp, err := s.tokenMgr.GenerateAccessToken(user)
	if err != nil {
		return "", time.Time{}, apperrors.NewInternalError(err)
	}
	return token, exp, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// burnComparison spends the same bcrypt work as a real comparison so every
// failed login takes about as long.
func (s *AuthService) burnComparison(password string) {
	_ = auth.ComparePassword(s.dummyPasswordHash(), password)
}

func (s *AuthService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := auth.HashPassword("not-a-real-password", s.bcryptCost)
		if err != nil {
			s.logger.Error("failed to prepare dummy hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
