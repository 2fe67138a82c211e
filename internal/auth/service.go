package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/enterprise/aml-risk-engine/internal/models"
)

var (
	ErrInvalidCredentials   = errors.New("auth: invalid email or password")
	ErrWeakPassword         = errors.New("auth: password does not meet requirements")
	ErrAccountAlreadyExists = errors.New("auth: account already exists")
)

// AccountStore is the minimal persistence an AuthService needs for analyst
// accounts.
type AccountStore interface {
	Create(ctx context.Context, account models.AnalystAccount) error
	GetByEmail(ctx context.Context, email string) (models.AnalystAccount, error)
}

// MemoryAccountStore is a process-local AccountStore keyed by email, the
// default for deployments that don't need accounts to survive a restart.
type MemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]models.AnalystAccount
}

func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{accounts: make(map[string]models.AnalystAccount)}
}

func (s *MemoryAccountStore) Create(_ context.Context, account models.AnalystAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[account.Email]; exists {
		return ErrAccountAlreadyExists
	}
	s.accounts[account.Email] = account
	return nil
}

func (s *MemoryAccountStore) GetByEmail(_ context.Context, email string) (models.AnalystAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[email]
	if !ok {
		return models.AnalystAccount{}, ErrAccountNotFound
	}
	return account, nil
}

// ErrAccountNotFound is returned by AccountStore.GetByEmail when no account
// is registered under that email.
var ErrAccountNotFound = errors.New("auth: account not found")

// AuthService handles analyst registration and login, issuing JWTs on
// success.
type AuthService struct {
	store      AccountStore
	jwtManager *JWTManager
}

func NewAuthService(store AccountStore, jwtManager *JWTManager) *AuthService {
	return &AuthService{store: store, jwtManager: jwtManager}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AccountResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthResponse struct {
	Token     string          `json:"token"`
	ExpiresIn int64           `json:"expires_in"`
	Account   AccountResponse `json:"account"`
}

// Register creates a new analyst account and returns a session token for it.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if !ValidatePasswordStrength(req.Password) {
		return nil, ErrWeakPassword
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := req.Role
	if role == "" {
		role = "analyst"
	}

	account := models.AnalystAccount{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: hashed,
		Role:         role,
		CreatedAt:    time.Now(),
	}

	if err := s.store.Create(ctx, account); err != nil {
		if errors.Is(err, ErrAccountAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	return s.issueToken(account)
}

// Login verifies credentials and returns a fresh session token.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	account, err := s.store.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find account: %w", err)
	}

	if !CheckPassword(req.Password, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.issueToken(account)
}

func (s *AuthService) issueToken(account models.AnalystAccount) (*AuthResponse, error) {
	token, err := s.jwtManager.GenerateToken(account.ID, account.Email, account.Role)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &AuthResponse{
		Token:     token,
		ExpiresIn: int64(s.jwtManager.expiration.Seconds()),
		Account: AccountResponse{
			ID:        account.ID,
			Email:     account.Email,
			Role:      account.Role,
			CreatedAt: account.CreatedAt,
		},
	}, nil
}
