package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/petalworks/bloomshop-backend/pkg/db/models"
	pkgerrors "github.com/petalworks/bloomshop-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}))
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	return svc
}

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

func TestCreateAndGetProduct(t *testing.T) {
	svc := newTestService(t, newTestDB(t))
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{
		Name:          "  Rose Bouquet ",
		Description:   strPtr("A dozen red roses"),
		Price:         decimal.NewFromFloat(59.99),
		Category:      strPtr("bouquets"),
		StockQuantity: 12,
	})
	require.NoError(t, err)
	require.Equal(t, "Rose Bouquet", created.Name)
	require.True(t, created.IsActive)
	require.NotEqual(t, uuid.Nil, created.ID)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, got.Price.Equal(decimal.NewFromFloat(59.99)))
}

func TestCreateProductValidation(t *testing.T) {
	svc := newTestService(t, newTestDB(t))
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateProductInput{Name: "  ", Price: decimal.NewFromInt(1)})
	require.Error(t, err)

	_, err = svc.Create(ctx, CreateProductInput{Name: "Tulips", Price: decimal.NewFromInt(-1)})
	require.Error(t, err)

	_, err = svc.Create(ctx, CreateProductInput{Name: "Tulips", Price: decimal.NewFromInt(1), StockQuantity: -3})
	require.Error(t, err)
}

func TestListActiveFiltersInactiveAndCategory(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateProductInput{Name: "Roses", Price: decimal.NewFromInt(40), Category: strPtr("bouquets")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateProductInput{Name: "Orchid Pot", Price: decimal.NewFromInt(30), Category: strPtr("plants")})
	require.NoError(t, err)
	hidden, err := svc.Create(ctx, CreateProductInput{Name: "Retired Wreath", Price: decimal.NewFromInt(25), IsActive: boolPtr(false)})
	require.NoError(t, err)

	all, err := svc.ListActive(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, p := range all {
		require.NotEqual(t, hidden.ID, p.ID)
	}

	bouquets, err := svc.ListActive(ctx, "bouquets", 0)
	require.NoError(t, err)
	require.Len(t, bouquets, 1)
	require.Equal(t, "Roses", bouquets[0].Name)

	capped, err := svc.ListActive(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, capped, 1)
}

func TestListAllSearchAndCategory(t *testing.T) {
	svc := newTestService(t, newTestDB(t))
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateProductInput{Name: "Rose Bouquet", Price: decimal.NewFromInt(40), Category: strPtr("bouquets")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateProductInput{Name: "Orchid Pot", Price: decimal.NewFromInt(30), Category: strPtr("plants"), IsActive: boolPtr(false)})
	require.NoError(t, err)

	everything, err := svc.ListAll(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, everything, 2, "inactive products must show in the admin list")

	matched, err := svc.ListAll(ctx, "orchid", "")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	require.Equal(t, "Orchid Pot", matched[0].Name)

	plants, err := svc.ListAll(ctx, "", "plants")
	require.NoError(t, err)
	require.Len(t, plants, 1)
}

func TestGetActiveHidesInactive(t *testing.T) {
	svc := newTestService(t, newTestDB(t))
	ctx := context.Background()

	hidden, err := svc.Create(ctx, CreateProductInput{Name: "Retired Wreath", Price: decimal.NewFromInt(25), IsActive: boolPtr(false)})
	require.NoError(t, err)

	_, err = svc.GetActive(ctx, hidden.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	// Admin read still sees it.
	got, err := svc.Get(ctx, hidden.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)
}

func TestUpdateProductPartial(t *testing.T) {
	svc := newTestService(t, newTestDB(t))
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{Name: "Lily Bunch", Price: decimal.NewFromInt(35), StockQuantity: 5})
	require.NoError(t, err)

	newPrice := decimal.NewFromFloat(38.50)
	updated, err := svc.Update(ctx, created.ID, UpdateProductInput{
		Price:    &newPrice,
		IsActive: boolPtr(false),
	})
	require.NoError(t, err)
	require.True(t, updated.Price.Equal(newPrice))
	require.False(t, updated.IsActive)
	require.Equal(t, "Lily Bunch", updated.Name, "untouched fields must survive partial updates")
	require.Equal(t, 5, updated.StockQuantity)
}

func TestUpdateMissingProduct(t *testing.T) {
	svc := newTestService(t, newTestDB(t))

	_, err := svc.Update(context.Background(), uuid.New(), UpdateProductInput{Name: strPtr("Ghost")})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestDeleteProductDeactivates(t *testing.T) {
	svc := newTestService(t, newTestDB(t))
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{Name: "Seasonal Wreath", Price: decimal.NewFromInt(20)})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.GetActive(ctx, created.ID)
	require.Error(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err, "the row survives for order item references")
	require.False(t, got.IsActive)
}
