package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/nchikhaoui/gestistock/internal/models"
	"github.com/nchikhaoui/gestistock/internal/notify"
	"github.com/nchikhaoui/gestistock/internal/stock"
	"github.com/nchikhaoui/gestistock/pkg/logging"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

type LineRequest struct {
	ProductRef string  `json:"Ref_Produit"`
	Quantity   int     `json:"Quantite"`
	UnitPrice  float64 `json:"Prix_Unitaire"`
}

type CreateRequest struct {
	Name        string        `json:"Nom_Commande"`
	Date        string        `json:"date_Commande"`
	TimeOfDay   string        `json:"Heure_Cmd"`
	Total       float64       `json:"Total_TTC"`
	PaymentMode string        `json:"Mode_Paiement"`
	ClientID    *uint         `json:"Id_Client"`
	UserID      uint          `json:"Id_Utilisateur"`
	Lines       []LineRequest `json:"produits"`
}

// UpdateRequest fields are pointers so absent keys leave the stored value
// untouched. A non-nil Lines replaces the full line set.
type UpdateRequest struct {
	Name        *string       `json:"Nom_Commande"`
	Date        *string       `json:"date_Commande"`
	TimeOfDay   *string       `json:"Heure_Cmd"`
	Total       *float64      `json:"Total_TTC"`
	PaymentMode *string       `json:"Mode_Paiement"`
	ClientID    *uint         `json:"Id_Client"`
	UserID      *uint         `json:"Id_Utilisateur"`
	Lines       []LineRequest `json:"produits"`
}

type Service struct {
	DB       *gorm.DB
	Notifier *notify.Emitter
}

func validateLines(lines []LineRequest) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: produits required", ErrValidation)
	}
	for i := range lines {
		if lines[i].ProductRef == "" {
			return fmt.Errorf("%w: produits.%d.Ref_Produit required", ErrValidation, i)
		}
		if lines[i].Quantity < 1 {
			return fmt.Errorf("%w: produits.%d.Quantite must be >= 1", ErrValidation, i)
		}
		if lines[i].UnitPrice < 0 {
			return fmt.Errorf("%w: produits.%d.Prix_Unitaire must be >= 0", ErrValidation, i)
		}
	}
	return nil
}

// sortedLines returns a copy ordered by product reference so concurrent
// transactions acquire row locks in the same order.
func sortedLines(lines []LineRequest) []LineRequest {
	out := make([]LineRequest, len(lines))
	copy(out, lines)
	sort.Slice(out, func(i, j int) bool { return out[i].ProductRef < out[j].ProductRef })
	return out
}

func (s *Service) validateCreate(ctx context.Context, req CreateRequest) (time.Time, error) {
	if req.Name == "" {
		return time.Time{}, fmt.Errorf("%w: Nom_Commande required", ErrValidation)
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date_Commande must be %s", ErrValidation, dateLayout)
	}
	if _, err := time.Parse(timeLayout, req.TimeOfDay); err != nil {
		return time.Time{}, fmt.Errorf("%w: Heure_Cmd must be %s", ErrValidation, timeLayout)
	}
	if req.Total < 0 {
		return time.Time{}, fmt.Errorf("%w: Total_TTC must be >= 0", ErrValidation)
	}
	if req.PaymentMode == "" {
		return time.Time{}, fmt.Errorf("%w: Mode_Paiement required", ErrValidation)
	}
	if err := validateLines(req.Lines); err != nil {
		return time.Time{}, err
	}

	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", req.UserID).Count(&count).Error; err != nil {
		return time.Time{}, err
	}
	if count == 0 {
		return time.Time{}, fmt.Errorf("%w: user %d", ErrNotFound, req.UserID)
	}
	if req.ClientID != nil {
		if err := s.DB.WithContext(ctx).Model(&models.Client{}).Where("id = ?", *req.ClientID).Count(&count).Error; err != nil {
			return time.Time{}, err
		}
		if count == 0 {
			return time.Time{}, fmt.Errorf("%w: client %d", ErrNotFound, *req.ClientID)
		}
	}
	if err := s.DB.WithContext(ctx).Model(&models.Order{}).Where("name = ?", req.Name).Count(&count).Error; err != nil {
		return time.Time{}, err
	}
	if count > 0 {
		return time.Time{}, fmt.Errorf("%w: order name %q already exists", ErrConflict, req.Name)
	}
	return date, nil
}

// Create runs the whole order as one transaction: every line decrements its
// product under a row lock, the header and lines are persisted, and any
// failure rolls the entire unit back. Notifications are emitted only after
// the commit, so a rolled-back order leaves no trace.
func (s *Service) Create(ctx context.Context, req CreateRequest, callerID *uint) (*models.Order, error) {
	date, err := s.validateCreate(ctx, req)
	if err != nil {
		return nil, err
	}

	ord := models.Order{
		Name:        req.Name,
		Date:        date,
		TimeOfDay:   req.TimeOfDay,
		Total:       req.Total,
		PaymentMode: req.PaymentMode,
		ClientID:    req.ClientID,
		UserID:      req.UserID,
	}

	var stockOuts []models.Product
	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ord).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: order name %q already exists", ErrConflict, req.Name)
			}
			return err
		}

		for _, line := range sortedLines(req.Lines) {
			product, zeroed, err := stock.Decrement(tx, line.ProductRef, line.Quantity)
			if err != nil {
				if errors.Is(err, stock.ErrProductNotFound) {
					return fmt.Errorf("%w: %v", ErrNotFound, err)
				}
				return err
			}
			if zeroed {
				stockOuts = append(stockOuts, *product)
			}

			ol := models.OrderLine{
				OrderID:    ord.ID,
				ProductRef: line.ProductRef,
				Quantity:   line.Quantity,
				UnitPrice:  line.UnitPrice,
			}
			if err := tx.Create(&ol).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.emitStockOuts(ctx, callerID, stockOuts)
	s.emitOrderCreated(ctx, callerID, &ord)

	return s.load(ctx, ord.ID)
}

// Update applies partial header changes and, when lines are given, replaces
// the full line set. Replaced lines do not re-validate or re-adjust stock;
// that behaviour is pinned by tests.
func (s *Service) Update(ctx context.Context, id uint, req UpdateRequest) (*models.Order, error) {
	var ord models.Order
	if err := s.DB.WithContext(ctx).First(&ord, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
		}
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, fmt.Errorf("%w: Nom_Commande required", ErrValidation)
		}
		var count int64
		if err := s.DB.WithContext(ctx).Model(&models.Order{}).
			Where("name = ? AND id <> ?", *req.Name, id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, fmt.Errorf("%w: order name %q already exists", ErrConflict, *req.Name)
		}
		ord.Name = *req.Name
	}
	if req.Date != nil {
		date, err := time.Parse(dateLayout, *req.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: date_Commande must be %s", ErrValidation, dateLayout)
		}
		ord.Date = date
	}
	if req.TimeOfDay != nil {
		if _, err := time.Parse(timeLayout, *req.TimeOfDay); err != nil {
			return nil, fmt.Errorf("%w: Heure_Cmd must be %s", ErrValidation, timeLayout)
		}
		ord.TimeOfDay = *req.TimeOfDay
	}
	if req.Total != nil {
		if *req.Total < 0 {
			return nil, fmt.Errorf("%w: Total_TTC must be >= 0", ErrValidation)
		}
		ord.Total = *req.Total
	}
	if req.PaymentMode != nil {
		if *req.PaymentMode == "" {
			return nil, fmt.Errorf("%w: Mode_Paiement required", ErrValidation)
		}
		ord.PaymentMode = *req.PaymentMode
	}
	if req.ClientID != nil {
		var count int64
		if err := s.DB.WithContext(ctx).Model(&models.Client{}).Where("id = ?", *req.ClientID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, fmt.Errorf("%w: client %d", ErrNotFound, *req.ClientID)
		}
		ord.ClientID = req.ClientID
	}
	if req.UserID != nil {
		var count int64
		if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", *req.UserID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, *req.UserID)
		}
		ord.UserID = *req.UserID
	}
	if req.Lines != nil {
		if err := validateLines(req.Lines); err != nil {
			return nil, err
		}
	}

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&ord).Error; err != nil {
			return err
		}
		if req.Lines == nil {
			return nil
		}
		if err := tx.Where("order_id = ?", ord.ID).Delete(&models.OrderLine{}).Error; err != nil {
			return err
		}
		for _, line := range req.Lines {
			var count int64
			if err := tx.Model(&models.Product{}).Where("ref = ?", line.ProductRef).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return fmt.Errorf("%w: product %s", ErrNotFound, line.ProductRef)
			}
			ol := models.OrderLine{
				OrderID:    ord.ID,
				ProductRef: line.ProductRef,
				Quantity:   line.Quantity,
				UnitPrice:  line.UnitPrice,
			}
			if err := tx.Create(&ol).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return s.load(ctx, ord.ID)
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Order, error) {
	return s.load(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.DB.WithContext(ctx).
		Preload("Client").
		Preload("User").
		Preload("Lines.Product").
		Order("id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	var ord models.Order
	if err := s.DB.WithContext(ctx).First(&ord, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: order %d", ErrNotFound, id)
		}
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderLine{}).Error; err != nil {
			return err
		}
		return tx.Delete(&ord).Error
	})
}

func (s *Service) load(ctx context.Context, id uint) (*models.Order, error) {
	var ord models.Order
	err := s.DB.WithContext(ctx).
		Preload("Client").
		Preload("User").
		Preload("Lines.Product").
		First(&ord, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &ord, nil
}

func (s *Service) emitStockOuts(ctx context.Context, callerID *uint, products []models.Product) {
	for _, p := range products {
		_, err := s.Notifier.Emit(ctx, callerID,
			"Rupture de stock",
			fmt.Sprintf("Le produit %s (%s) est en rupture de stock.", p.Designation, p.Ref),
			"stock_out",
			map[string]any{
				"Ref_Produit": p.Ref,
				"Designation": p.Designation,
				"Qt_Stock":    p.Stock,
			})
		if err != nil {
			logging.FromContext(ctx).Error("stock-out notification failed", "product", p.Ref, "error", err)
		}
	}
}

func (s *Service) emitOrderCreated(ctx context.Context, callerID *uint, ord *models.Order) {
	_, err := s.Notifier.Emit(ctx, callerID,
		"Nouvelle commande",
		fmt.Sprintf("Commande %s créée (Total: %.2f)", ord.Name, ord.Total),
		"order_created",
		map[string]any{
			"Id_Commande":    ord.ID,
			"Id_Client":      ord.ClientID,
			"Id_Utilisateur": ord.UserID,
		})
	if err != nil {
		logging.FromContext(ctx).Error("order-created notification failed", "order", ord.ID, "error", err)
	}
}
