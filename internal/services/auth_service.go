package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"kabro/internal/apperr"
	"kabro/internal/models"
	"kabro/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput is the sign-up payload.
type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=6"`
}

// LoginInput is the sign-in payload.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=6"`
}

// AuthService handles accounts and session tokens.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	sessionTTL time.Duration
	now        func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, sessionTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// Register creates an account. A taken email is a ConflictError.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)
	if err := invalidIfAny(validateStruct(in)); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByEmail(ctx, in.Email); err == nil {
		return nil, &apperr.ConflictError{Code: apperr.CodeEmailTaken}
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.Persistence("lookup user", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{Name: in.Name, Email: in.Email, PasswordHash: string(hashed)}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, &apperr.ConflictError{Code: apperr.CodeEmailTaken}
		}
		return nil, apperr.Persistence("create user", err)
	}
	log.Printf("User #%d registered", user.ID)
	return user, nil
}

// Login checks the credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)
	if err := invalidIfAny(validateStruct(in)); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, in.Email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, &apperr.AuthenticationError{Code: apperr.CodeInvalidCredentials}
	}
	if err != nil {
		return nil, apperr.Persistence("lookup user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, &apperr.AuthenticationError{Code: apperr.CodeInvalidCredentials}
	}
	return user, nil
}

// IssueToken signs an HS256 session token for user.
func (s *AuthService) IssueToken(user *models.User) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.sessionTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"name":  user.Name,
		"iat":   now.Unix(),
		"exp":   expires.Unix(),
	})

	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, expires, nil
}

// ParseSession validates a session token. Any defect, including expiry, is
// an AuthenticationError.
func (s *AuthService) ParseSession(tokenString string) (*models.Session, error) {
	unauthenticated := &apperr.AuthenticationError{Code: apperr.CodeUnauthenticated}
	if tokenString == "" {
		return nil, unauthenticated
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, unauthenticated
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, unauthenticated
	}
	sub, ok := claims["sub"].(float64)
	if !ok || sub < 1 {
		return nil, unauthenticated
	}

	session := &models.Session{UserID: uint(sub)}
	session.Email, _ = claims["email"].(string)
	session.Name, _ = claims["name"].(string)
	if iat, ok := claims["iat"].(float64); ok {
		session.IssuedAt = time.Unix(int64(iat), 0)
	}
	if exp, ok := claims["exp"].(float64); ok {
		session.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return session, nil
}

// CurrentUser loads the user behind a session.
func (s *AuthService) CurrentUser(ctx context.Context, session *models.Session) (*models.User, error) {
	if session == nil {
		return nil, &apperr.AuthenticationError{Code: apperr.CodeUnauthenticated}
	}
	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, &apperr.AuthenticationError{Code: apperr.CodeUnauthenticated}
	}
	if err != nil {
		return nil, apperr.Persistence("load user", err)
	}
	return user, nil
}
