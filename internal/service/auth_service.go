package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"dactylogame/internal/models"
	"dactylogame/internal/security"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidationError describes a rejected input field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// UserStore is the persistence contract for user accounts and identity lookups
type UserStore interface {
	CreateUser(username, email, passwordHash string) (*models.User, error)
	GetUserByID(id int64) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUsernamesByIDs(ids []int64) (map[int64]string, error)
}

// AuthService handles account registration, login and access tokens
type AuthService struct {
	users         UserStore
	jwtSecret     string
	tokenDuration time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, jwtSecret string, tokenDuration time.Duration) *AuthService {
	return &AuthService{
		users:         users,
		jwtSecret:     jwtSecret,
		tokenDuration: tokenDuration,
	}
}

// Register creates a new account and returns it with a fresh access token
func (s *AuthService) Register(username, email, password string) (*models.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if len(username) < 3 {
		return nil, "", ValidationError{Field: "username", Message: "username must be at least 3 characters"}
	}
	if !emailRegex.MatchString(email) {
		return nil, "", ValidationError{Field: "email", Message: "invalid email format"}
	}
	if len(password) < 8 {
		return nil, "", ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}

	existing, err := s.users.GetUserByUsername(username)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing username: %w", err)
	}
	if existing != nil {
		return nil, "", ErrUsernameTaken
	}

	existing, err = s.users.GetUserByEmail(email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing email: %w", err)
	}
	if existing != nil {
		return nil, "", ErrEmailTaken
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.CreateUser(username, email, passwordHash)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := security.GenerateToken(s.jwtSecret, user.ID, s.tokenDuration)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return user, token, nil
}

// Login authenticates a user and returns a fresh access token
func (s *AuthService) Login(username, password string) (*models.User, string, error) {
	user, err := s.users.GetUserByUsername(strings.TrimSpace(username))
	if err != nil {
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}

	if !security.CheckPassword(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := security.GenerateToken(s.jwtSecret, user.ID, s.tokenDuration)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return user, token, nil
}

// UserFromToken resolves a bearer token to its user account
func (s *AuthService) UserFromToken(tokenStr string) (*models.User, error) {
	claims, err := security.ParseToken(s.jwtSecret, tokenStr)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, security.ErrInvalidToken
	}

	return user, nil
}
