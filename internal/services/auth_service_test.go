package services_test

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"kabro/internal/apperr"
	"kabro/internal/models"
	"kabro/internal/repositories"
	"kabro/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = 1
	}
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

const testJWTSecret = "test_jwt_secret"

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, 7*24*time.Hour)

	mockRepo.On("GetByEmail", ctx, "sami@example.com").Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil).Once()

	user, err := authService.Register(ctx, services.RegisterInput{Name: "Sami", Email: " Sami@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "sami@example.com", user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)

	mockRepo.On("GetByEmail", ctx, "sami@example.com").Return(&models.User{ID: 3, Email: "sami@example.com"}, nil).Once()

	_, err := authService.Register(ctx, services.RegisterInput{Name: "Sami", Email: "sami@example.com", Password: "secret1"})
	var conflict *apperr.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, apperr.CodeEmailTaken, conflict.Code)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Register_DuplicateRace(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)

	mockRepo.On("GetByEmail", ctx, "sami@example.com").Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("Create", ctx, mock.Anything).Return(repositories.ErrDuplicate).Once()

	_, err := authService.Register(ctx, services.RegisterInput{Name: "Sami", Email: "sami@example.com", Password: "secret1"})
	var conflict *apperr.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestAuthService_Register_Invalid(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), testJWTSecret, time.Hour)

	_, err := authService.Register(context.Background(), services.RegisterInput{Name: "", Email: "not-an-email", Password: "123"})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, apperr.CodeInvalidInput, verr.Code)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "password")
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)

	hashed, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	stored := &models.User{ID: 5, Name: "Sami", Email: "sami@example.com", PasswordHash: string(hashed)}
	mockRepo.On("GetByEmail", ctx, "sami@example.com").Return(stored, nil)
	mockRepo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, repositories.ErrNotFound)

	user, err := authService.Login(ctx, services.LoginInput{Email: "sami@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, uint(5), user.ID)

	for _, in := range []services.LoginInput{
		{Email: "sami@example.com", Password: "wrong-password"},
		{Email: "ghost@example.com", Password: "secret1"},
	} {
		_, err := authService.Login(ctx, in)
		var authErr *apperr.AuthenticationError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, apperr.CodeInvalidCredentials, authErr.Code)
	}
}

func TestAuthService_Login_StoreFailure(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)
	mockRepo.On("GetByEmail", ctx, "sami@example.com").Return(nil, errors.New("db down"))

	_, err := authService.Login(ctx, services.LoginInput{Email: "sami@example.com", Password: "secret1"})
	var pf *apperr.PersistenceFailure
	assert.ErrorAs(t, err, &pf)
}

func TestAuthService_IssueAndParseSession(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), testJWTSecret, 7*24*time.Hour)
	user := &models.User{ID: 9, Name: "Sami", Email: "sami@example.com"}

	token, expires, err := authService.IssueToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), expires, time.Minute)

	session, err := authService.ParseSession(token)
	require.NoError(t, err)
	assert.Equal(t, uint(9), session.UserID)
	assert.Equal(t, "sami@example.com", session.Email)
	assert.Equal(t, "Sami", session.Name)
	assert.Equal(t, expires.Unix(), session.ExpiresAt.Unix())
}

func TestAuthService_ParseSession_Rejects(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), testJWTSecret, time.Hour)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": 1, "iat": time.Now().Add(-2 * time.Hour).Unix(), "exp": time.Now().Add(-time.Hour).Unix(),
	})
	expiredToken, _ := expired.SignedString([]byte(testJWTSecret))

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": 1, "exp": time.Now().Add(time.Hour).Unix()})
	foreignToken, _ := foreign.SignedString([]byte("another_secret"))

	noSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	noSubToken, _ := noSub.SignedString([]byte(testJWTSecret))

	for name, token := range map[string]string{
		"empty":   "",
		"garbage": "not.a.token",
		"expired": expiredToken,
		"foreign": foreignToken,
		"no sub":  noSubToken,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := authService.ParseSession(token)
			var authErr *apperr.AuthenticationError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, apperr.CodeUnauthenticated, authErr.Code)
		})
	}
}

func TestAuthService_CurrentUser(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)
	mockRepo.On("GetByID", ctx, uint(4)).Return(&models.User{ID: 4, Name: "Sami"}, nil)
	mockRepo.On("GetByID", ctx, uint(99)).Return(nil, repositories.ErrNotFound)

	user, err := authService.CurrentUser(ctx, &models.Session{UserID: 4})
	require.NoError(t, err)
	assert.Equal(t, "Sami", user.Name)

	_, err = authService.CurrentUser(ctx, &models.Session{UserID: 99})
	var authErr *apperr.AuthenticationError
	assert.ErrorAs(t, err, &authErr)

	_, err = authService.CurrentUser(ctx, nil)
	assert.ErrorAs(t, err, &authErr)
}
