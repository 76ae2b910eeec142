package stock

import (
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nchikhaoui/gestistock/internal/models"
)

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	category := models.Category{Label: "Boissons"}
	require.NoError(t, db.Create(&category).Error)

	return db
}

func seedProduct(t *testing.T, db *gorm.DB, ref string, stock int) {
	t.Helper()

	product := models.Product{
		Ref:            ref,
		Designation:    "Produit " + ref,
		PurchasePrice:  1,
		SalePrice:      2,
		Stock:          stock,
		AlertThreshold: 3,
		CategoryID:     1,
	}
	require.NoError(t, db.Create(&product).Error)
}

func TestDecrement_SubtractsAndPersists(t *testing.T) {
	db := initTestDB(t)
	seedProduct(t, db, "P-001", 10)

	product, zeroed, err := Decrement(db, "P-001", 4)
	require.NoError(t, err)
	assert.False(t, zeroed)
	assert.Equal(t, 6, product.Stock)

	var stored models.Product
	require.NoError(t, db.First(&stored, "ref = ?", "P-001").Error)
	assert.Equal(t, 6, stored.Stock)
}

func TestDecrement_InsufficientStock(t *testing.T) {
	db := initTestDB(t)
	seedProduct(t, db, "P-001", 3)

	_, _, err := Decrement(db, "P-001", 5)
	require.Error(t, err)

	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "P-001", stockErr.Ref)
	assert.Equal(t, "Produit P-001", stockErr.Designation)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Equal(t, 3, stockErr.Available)

	var stored models.Product
	require.NoError(t, db.First(&stored, "ref = ?", "P-001").Error)
	assert.Equal(t, 3, stored.Stock)
}

func TestDecrement_UnknownProduct(t *testing.T) {
	db := initTestDB(t)

	_, _, err := Decrement(db, "NOPE", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestDecrement_ReportsZeroCrossing(t *testing.T) {
	db := initTestDB(t)
	seedProduct(t, db, "P-001", 2)

	_, zeroed, err := Decrement(db, "P-001", 1)
	require.NoError(t, err)
	assert.False(t, zeroed)

	product, zeroed, err := Decrement(db, "P-001", 1)
	require.NoError(t, err)
	assert.True(t, zeroed)
	assert.Equal(t, 0, product.Stock)
}

func TestDecrement_RejectsNonPositiveQuantity(t *testing.T) {
	db := initTestDB(t)
	seedProduct(t, db, "P-001", 2)

	_, _, err := Decrement(db, "P-001", 0)
	require.Error(t, err)
}
