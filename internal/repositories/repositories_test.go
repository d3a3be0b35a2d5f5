package repositories_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"kabro/internal/config"
	"kabro/internal/models"
	"kabro/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// openTestDB opens an isolated in-memory SQLite database per test.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repositories.OpenDatabase(config.DatabaseConfig{
		Driver: "sqlite",
		URL:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)
	require.NoError(t, repositories.AutoMigrate(db))
	return db
}

func sampleOrder(userID *uint) *models.Order {
	return &models.Order{
		UserID:  userID,
		Address: "12 rue des Orangers",
		Phone:   "0600000000",
		Total:   decimal.NewFromInt(27),
		Items: []models.OrderItem{
			{ProductSlug: "a", Name: "A", Price: decimal.NewFromInt(10), Qty: 2},
			{ProductSlug: "b", Name: "B", Price: decimal.NewFromInt(7), Qty: 1},
		},
	}
}

func TestGORMOrderRepository_CreatePersistsOrderAndItems(t *testing.T) {
	db := openTestDB(t)
	repo := repositories.NewGORMOrderRepository(db)

	created, err := repo.Create(context.Background(), sampleOrder(nil))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Nil(t, created.UserID)
	assert.Nil(t, created.User)
	require.Len(t, created.Items, 2)
	assert.Equal(t, "a", created.Items[0].ProductSlug)
	assert.Equal(t, 2, created.Items[0].Qty)
	assert.True(t, decimal.NewFromInt(10).Equal(created.Items[0].Price))
	assert.True(t, decimal.NewFromInt(27).Equal(created.Total))

	var orders, items int64
	db.Model(&models.Order{}).Count(&orders)
	db.Model(&models.OrderItem{}).Count(&items)
	assert.Equal(t, int64(1), orders)
	assert.Equal(t, int64(2), items)
}

func TestGORMOrderRepository_CreateLoadsUser(t *testing.T) {
	db := openTestDB(t)
	users := repositories.NewGORMUserRepository(db)
	orders := repositories.NewGORMOrderRepository(db)

	user := &models.User{Name: "Samira", Email: "samira@example.com", PasswordHash: "x"}
	require.NoError(t, users.Create(context.Background(), user))

	created, err := orders.Create(context.Background(), sampleOrder(&user.ID))
	require.NoError(t, err)
	require.NotNil(t, created.User)
	assert.Equal(t, user.ID, *created.UserID)
	assert.Equal(t, "samira@example.com", created.User.Email)
}

func TestGORMOrderRepository_RejectsOrderWithoutItems(t *testing.T) {
	db := openTestDB(t)
	repo := repositories.NewGORMOrderRepository(db)

	order := sampleOrder(nil)
	order.Items = nil
	_, err := repo.Create(context.Background(), order)
	assert.Error(t, err)

	var count int64
	db.Model(&models.Order{}).Count(&count)
	assert.Zero(t, count)
}

func TestGORMOrderRepository_RollsBackWhenItemsFail(t *testing.T) {
	db := openTestDB(t)
	repo := repositories.NewGORMOrderRepository(db)
	require.NoError(t, db.Migrator().DropTable(&models.OrderItem{}))

	_, err := repo.Create(context.Background(), sampleOrder(nil))
	assert.Error(t, err)

	var count int64
	db.Model(&models.Order{}).Count(&count)
	assert.Zero(t, count, "order row must not outlive a failed item insert")
}

func TestGORMUserRepository_DuplicateAndNotFound(t *testing.T) {
	db := openTestDB(t)
	repo := repositories.NewGORMUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Name: "A", Email: "a@example.com", PasswordHash: "x"}))
	err := repo.Create(ctx, &models.User{Name: "B", Email: "a@example.com", PasswordHash: "y"})
	assert.True(t, errors.Is(err, repositories.ErrDuplicate))

	_, err = repo.GetByEmail(ctx, "missing@example.com")
	assert.True(t, errors.Is(err, repositories.ErrNotFound))
	_, err = repo.GetByID(ctx, 999)
	assert.True(t, errors.Is(err, repositories.ErrNotFound))
}

func TestGORMContactRepository_Create(t *testing.T) {
	db := openTestDB(t)
	repo := repositories.NewGORMContactRepository(db)
	ctx := context.Background()

	msg := &models.ContactMessage{Name: "Yassine", Email: "y@example.com", Message: "Bonjour"}
	require.NoError(t, repo.Create(ctx, msg))
	assert.NotZero(t, msg.ID)

	got, err := repo.GetByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", got.Message)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestMockOrderRepository_AssignsIDs(t *testing.T) {
	repo := repositories.NewMockOrderRepository(nil)

	first, err := repo.Create(context.Background(), sampleOrder(nil))
	require.NoError(t, err)
	second, err := repo.Create(context.Background(), sampleOrder(nil))
	require.NoError(t, err)

	assert.Equal(t, uint(1), first.ID)
	assert.Equal(t, uint(2), second.ID)
	assert.Equal(t, second.ID, second.Items[0].OrderID)
	assert.Len(t, repo.All(), 2)
}

func TestJSONProductRepository_DefaultAndFile(t *testing.T) {
	catalogue, err := repositories.NewJSONProductRepository("").LoadCatalogue(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, catalogue.Categories)
	assert.NotEmpty(t, catalogue.Products)

	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"categories":[],"products":[{"slug":"x","name":"X","price":9.5,"categoryId":"c"}]}`), 0o644))
	catalogue, err = repositories.NewJSONProductRepository(path).LoadCatalogue(context.Background())
	require.NoError(t, err)
	require.Len(t, catalogue.Products, 1)
	assert.True(t, decimal.RequireFromString("9.5").Equal(catalogue.Products[0].Price))

	_, err = repositories.NewJSONProductRepository(filepath.Join(t.TempDir(), "missing.json")).LoadCatalogue(context.Background())
	assert.Error(t, err)
}
