package stock

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nchikhaoui/gestistock/internal/models"
)

var ErrProductNotFound = errors.New("product not found")

// InsufficientStockError aborts the enclosing order transaction. It carries
// enough product identity for user-facing reporting.
type InsufficientStockError struct {
	Ref         string
	Designation string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (%s): requested %d, available %d",
		e.Designation, e.Ref, e.Requested, e.Available)
}

// lockForUpdate takes the product row lock on drivers that support it. SQLite
// (the test driver) has no FOR UPDATE syntax and serializes writers anyway.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// Decrement subtracts qty from the product's stock inside the caller's
// transaction, holding the row lock until that transaction ends. The second
// return value reports whether the stock hit exactly zero.
func Decrement(tx *gorm.DB, ref string, qty int) (*models.Product, bool, error) {
	if qty < 1 {
		return nil, false, fmt.Errorf("quantity must be >= 1, got %d", qty)
	}

	var product models.Product
	if err := lockForUpdate(tx).First(&product, "ref = ?", ref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("%w: %s", ErrProductNotFound, ref)
		}
		return nil, false, err
	}

	if product.Stock < qty {
		return nil, false, &InsufficientStockError{
			Ref:         product.Ref,
			Designation: product.Designation,
			Requested:   qty,
			Available:   product.Stock,
		}
	}

	product.Stock -= qty
	if err := tx.Model(&models.Product{}).Where("ref = ?", product.Ref).
		Update("stock", product.Stock).Error; err != nil {
		return nil, false, err
	}

	return &product, product.Stock == 0, nil
}
