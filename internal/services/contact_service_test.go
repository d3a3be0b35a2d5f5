package services_test

import (
	"context"
	"errors"
	"testing"

	"kabro/internal/apperr"
	"kabro/internal/models"
	"kabro/internal/notify"
	"kabro/internal/repositories"
	"kabro/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type failingContactRepo struct{}

func (failingContactRepo) Create(ctx context.Context, m *models.ContactMessage) error {
	return errors.New("database is locked")
}

func (failingContactRepo) GetByID(ctx context.Context, id uint) (*models.ContactMessage, error) {
	return nil, repositories.ErrNotFound
}

func TestContactService_Submit(t *testing.T) {
	repo := repositories.NewMockContactRepository()
	mailer := new(MockNotifier)
	svc := services.NewContactService(repo, newTestRenderer(t), mailer, "owner@kabro.ma")

	mailer.On("Deliver", mock.Anything, mock.MatchedBy(func(m notify.Message) bool {
		return m.To == "owner@kabro.ma" &&
			m.ReplyTo == "visitor@example.com" &&
			m.Subject == services.ContactSubject
	})).Return(&notify.Outcome{OK: true, PreviewURL: "http://localhost:3000/api/previews/c.html"}, nil).Once()

	receipt, err := svc.Submit(context.Background(), services.ContactInput{Name: "Visitor", Email: "visitor@example.com", Message: "Bonjour\nÇa va ?"})
	require.NoError(t, err)
	assert.Equal(t, uint(1), receipt.ID)
	assert.Equal(t, "http://localhost:3000/api/previews/c.html", receipt.PreviewURL)
	assert.Equal(t, 1, repo.Len())
	mailer.AssertExpectations(t)
}

func TestContactService_MissingEmailPersistsNothing(t *testing.T) {
	repo := repositories.NewMockContactRepository()
	mailer := new(MockNotifier)
	svc := services.NewContactService(repo, newTestRenderer(t), mailer, "owner@kabro.ma")

	_, err := svc.Submit(context.Background(), services.ContactInput{Name: "Visitor", Message: "hi"})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, apperr.CodeInvalidInput, verr.Code)
	assert.Contains(t, verr.Fields, "email")
	assert.Equal(t, 0, repo.Len())
	mailer.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
}

func TestContactService_EmailFailureStillSucceeds(t *testing.T) {
	repo := repositories.NewMockContactRepository()
	mailer := new(MockNotifier)
	svc := services.NewContactService(repo, newTestRenderer(t), mailer, "owner@kabro.ma")
	mailer.On("Deliver", mock.Anything, mock.Anything).
		Return(&notify.Outcome{}, &apperr.NotificationFailure{Channel: notify.ChannelEmail, Err: errors.New("no route")})

	receipt, err := svc.Submit(context.Background(), services.ContactInput{Name: "V", Email: "v@example.com", Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, uint(1), receipt.ID)
	assert.Empty(t, receipt.PreviewURL)
}

func TestContactService_PersistenceFailure(t *testing.T) {
	mailer := new(MockNotifier)
	svc := services.NewContactService(failingContactRepo{}, newTestRenderer(t), mailer, "owner@kabro.ma")

	_, err := svc.Submit(context.Background(), services.ContactInput{Name: "V", Email: "v@example.com", Message: "hi"})
	var pf *apperr.PersistenceFailure
	require.ErrorAs(t, err, &pf)
	mailer.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
}
