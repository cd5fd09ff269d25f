package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"logistics-backoffice/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ServiceInterface defines methods for user business logic.
type ServiceInterface interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	GetUserProfile(ctx context.Context, userID string) (*models.User, error)
	ListUsers(ctx context.Context, page, limit int) ([]models.User, int, error)
}

type Service struct {
	userRepo  RepositoryInterface
	jwtSecret string
	jwtExpiry time.Duration
	now       func() time.Time
}

func NewService(userRepo RepositoryInterface, jwtSecret string, jwtExpiry time.Duration) ServiceInterface {
	if jwtExpiry <= 0 {
		jwtExpiry = 24 * time.Hour
	}
	return &Service{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
		now:       time.Now,
	}
}

func (s *Service) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	_, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil, fmt.Errorf("service.Signup: %w: user already exists", models.ErrConflict)
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("service.Signup: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("service.Signup: failed to hash password: %w", err)
	}

	userType := req.UserType
	if userType == "" {
		userType = models.UserTypeUser
	}
	// Only the first admin may register through the public endpoint.
	if userType == models.UserTypeAdmin {
		admins, err := s.userRepo.CountByType(ctx, models.UserTypeAdmin)
		if err != nil {
			return nil, fmt.Errorf("service.Signup: %w", err)
		}
		if admins > 0 {
			return nil, fmt.Errorf("service.Signup: %w: admin accounts cannot be self-registered", models.ErrForbidden)
		}
	}

	created, err := s.userRepo.Create(ctx, &models.User{
		Name:         strings.TrimSpace(req.Name),
		Phone:        strings.TrimSpace(req.Phone),
		Email:        email,
		PasswordHash: string(hashedPassword),
		UserType:     userType,
	})
	if err != nil {
		return nil, fmt.Errorf("service.Signup: %w", err)
	}
	return s.generateAuthResponse(created)
}

func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("service.Login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}
	return s.generateAuthResponse(user)
}

func (s *Service) generateAuthResponse(user *models.User) (*models.AuthResponse, error) {
	now := s.now()
	claims := &models.JwtCustomClaims{
		UserID:   user.ID,
		Email:    user.Email,
		UserType: user.UserType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("service.generateAuthResponse: %w", err)
	}
	return &models.AuthResponse{Token: signed, User: user}, nil
}

func (s *Service) GetUserProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.GetUserProfile: %w", err)
	}
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context, page, limit int) ([]models.User, int, error) {
	users, total, err := s.userRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("service.ListUsers: %w", err)
	}
	return users, total, nil
}
