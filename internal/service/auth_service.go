package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"shortly-live/internal/apperr"
	"shortly-live/internal/entities"
	"shortly-live/internal/jwt"
	"shortly-live/internal/models"
	"shortly-live/internal/repository"
)

// AuthService defines the interface for authentication business logic
type AuthService interface {
	Signup(ctx context.Context, req *models.SignupRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error)
	Profile(ctx context.Context, userID string) (*models.ProfileResponse, error)
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *jwt.JWTService
	hashCost   int
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repository.UserRepository, jwtService *jwt.JWTService, hashCost int) AuthService {
	if hashCost == 0 {
		hashCost = bcrypt.DefaultCost
	}
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		hashCost:   hashCost,
	}
}

const maxPasswordBytes = 72

var errBadCredentials = apperr.Auth("Invalid email or password")

// Signup creates a new user account and signs them in
func (s *authService) Signup(ctx context.Context, req *models.SignupRequest) (*models.AuthResponse, error) {
	if len(req.Password) < 8 {
		return nil, apperr.Validation("password: must be at least 8 characters")
	}
	// bcrypt only hashes the first 72 bytes and rejects anything longer
	if len(req.Password) > maxPasswordBytes {
		return nil, apperr.Validation("password: must be at most 72 bytes")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	user, err := s.userRepo.Create(ctx, normalizeEmail(req.Email), string(hashedPassword))
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return nil, apperr.Conflict("User with this email already exists")
	}
	if err != nil {
		return nil, apperr.Internal("failed to create user", err)
	}

	return s.issue(user)
}

// Login authenticates a user and returns a fresh token pair
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, apperr.Internal("failed to find user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errBadCredentials
	}

	return s.issue(user)
}

// Refresh trades a valid refresh token for a new pair
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperr.Auth("Invalid or expired refresh token")
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Auth("User no longer exists")
	}
	if err != nil {
		return nil, apperr.Internal("failed to find user", err)
	}

	return s.issue(user)
}

func (s *authService) Profile(ctx context.Context, userID string) (*models.ProfileResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("User")
	}
	if err != nil {
		return nil, apperr.Internal("failed to find user", err)
	}
	return &models.ProfileResponse{ID: user.ID, Email: user.Email}, nil
}

func (s *authService) issue(user *entities.User) (*models.AuthResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		return nil, apperr.Internal("failed to generate token", fmt.Errorf("user %s: %w", user.ID, err))
	}

	return &models.AuthResponse{
		ID:           user.ID,
		Email:        user.Email,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
