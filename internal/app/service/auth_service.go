package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"otaku_hub/internal/common"
	"otaku_hub/internal/common/security"
	"otaku_hub/internal/domain/model"
	"otaku_hub/internal/domain/repository"
	"otaku_hub/internal/platform/logging"

	"github.com/google/uuid"
)

const (
	MsgEmailTaken         = "User with this email already exists."
	MsgInvalidCredentials = "Invalid email or password."
)

type AuthService struct {
	db          *sql.DB // For the user+profile transaction
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	tokens      *security.TokenManager
	log         logging.Logger
	hashCost    int

	dummyOnce sync.Once
	dummyHash string
}

type AuthOption func(*AuthService)

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) AuthOption {
	return func(s *AuthService) { s.hashCost = cost }
}

func NewAuthService(
	db *sql.DB,
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	tokens *security.TokenManager,
	log logging.Logger,
	opts ...AuthOption,
) *AuthService {
	s := &AuthService{
		db:          db,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		tokens:      tokens,
		log:         log,
		hashCost:    security.DefaultHashCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

// Register creates the user and its default profile in one transaction and
// returns a signed token.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if err := ValidateRegistration(req); err != nil {
		return nil, err
	}
	email := strings.ToLower(req.Email)

	_, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil, common.NewConflictError(MsgEmailTaken)
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hashedPassword, err := security.HashPassword(req.Password, s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(req.Name),
		Email:          email,
		HashedPassword: hashedPassword,
	}
	profile := &model.Profile{
		ID:             uuid.NewString(),
		UserID:         user.ID,
		Username:       DefaultUsername(req.Name),
		FavoriteGenres: []string{},
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	if err := s.userRepo.Create(ctx, tx, user); err != nil {
		// A concurrent registration can pass the lookup above; the unique
		// index turns it into a conflict here.
		if errors.Is(err, common.ErrConflict) {
			return nil, common.NewConflictError(MsgEmailTaken)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if err := s.profileRepo.Create(ctx, tx, profile); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	if err := tx.Commit(); err != nil {
		if common.IsUniqueViolation(err) {
			return nil, common.NewConflictError(MsgEmailTaken)
		}
		return nil, fmt.Errorf("failed to commit registration: %w", err)
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return s.authResponse(user)
}

// Login never reveals whether the email exists: unknown email and wrong
// password produce the same error.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := ValidateLogin(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Burn the same bcrypt time as a real comparison.
			security.CheckPasswordHash(req.Password, s.placeholderHash())
			return nil, common.NewAuthenticationError(MsgInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, common.NewAuthenticationError(MsgInvalidCredentials)
	}
	return s.authResponse(user)
}

func (s *AuthService) authResponse(user *model.User) (*AuthResponse, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResponse{Token: token, User: user.Public()}, nil
}

func (s *AuthService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		h, err := security.HashPassword(uuid.NewString(), s.hashCost)
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
