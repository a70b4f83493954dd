package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/petalworks/bloomshop-backend/pkg/db/models"
	"github.com/petalworks/bloomshop-backend/pkg/enums"
	pkgerrors "github.com/petalworks/bloomshop-backend/pkg/errors"
	"github.com/petalworks/bloomshop-backend/pkg/logger"
)

// Service defines inventory-level operations.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Adjust(ctx context.Context, input AdjustInput) (*AdjustResult, error)
	History(ctx context.Context, productID uuid.UUID, limit int) ([]models.StockAdjustment, error)
	LowStock(ctx context.Context) ([]models.Product, error)
}

// AdjustInput captures one requested stock change.
type AdjustInput struct {
	ProductID      uuid.UUID
	QuantityChange int
	Reason         enums.StockReason
	Notes          *string

	// Clamp floors the quantity at zero instead of rejecting the change.
	// Used when reconciling a completed payment, where the money has
	// already moved and refusing the decrement would be worse than
	// recording an oversell.
	Clamp bool
}

// AdjustResult reports what the adjustment actually did. AppliedChange can
// differ from the requested change only when Clamp is set. Warning carries
// non-fatal problems, currently only a failed audit append.
type AdjustResult struct {
	ProductID        uuid.UUID
	PreviousQuantity int
	NewQuantity      int
	AppliedChange    int
	Clamped          bool
	Warning          string
}

type service struct {
	repo      Repository
	logg      *logger.Logger
	threshold int
}

// NewService wires an inventory service with the provided repository.
func NewService(repo Repository, logg *logger.Logger, lowStockThreshold int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if lowStockThreshold <= 0 {
		lowStockThreshold = 10
	}
	return &service{repo: repo, logg: logg, threshold: lowStockThreshold}, nil
}

// WithTx returns a service whose writes run inside the provided transaction.
func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx), logg: s.logg, threshold: s.threshold}
}

func (s *service) Adjust(ctx context.Context, input AdjustInput) (*AdjustResult, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.QuantityChange == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity change cannot be zero")
	}
	if !input.Reason.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid stock reason %q", input.Reason))
	}

	affected, err := s.repo.ApplyDelta(ctx, input.ProductID, input.QuantityChange)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "adjusting stock")
	}

	applied := input.QuantityChange
	clamped := false

	if affected == 0 {
		applied, clamped, err = s.settleRejectedDelta(ctx, input)
		if err != nil {
			return nil, err
		}
	}

	product, err := s.repo.GetProduct(ctx, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading product after adjustment")
	}

	result := &AdjustResult{
		ProductID:        input.ProductID,
		PreviousQuantity: product.StockQuantity - applied,
		NewQuantity:      product.StockQuantity,
		AppliedChange:    applied,
		Clamped:          clamped,
	}

	// The audit row is best-effort: a failed append must not undo a stock
	// change that already happened.
	adjustment := &models.StockAdjustment{
		ProductID:      input.ProductID,
		QuantityChange: applied,
		QuantityAfter:  result.NewQuantity,
		Reason:         input.Reason,
		Notes:          input.Notes,
	}
	if err := s.repo.CreateAdjustment(ctx, adjustment); err != nil {
		result.Warning = "stock adjustment applied but the audit row was not recorded"
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"product_id": input.ProductID,
			"reason":     input.Reason.String(),
		}), "failed to append stock adjustment audit row")
	}

	return result, nil
}

const settleAttempts = 3

// settleRejectedDelta resolves an adjustment the conditional update turned
// down. Each pass re-reads the quantity and either retries the full change
// (stock recovered in the meantime) or zeroes the row guarded by the
// quantity it just read. A concurrent write between the read and the
// zero-out makes the guard miss, and the loop starts over instead of wiping
// stock it never saw.
func (s *service) settleRejectedDelta(ctx context.Context, input AdjustInput) (applied int, clamped bool, err error) {
	for attempt := 0; attempt < settleAttempts; attempt++ {
		product, err := s.repo.GetProduct(ctx, input.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, false, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return 0, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product for adjustment")
		}

		if product.StockQuantity+input.QuantityChange >= 0 {
			affected, err := s.repo.ApplyDelta(ctx, input.ProductID, input.QuantityChange)
			if err != nil {
				return 0, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "adjusting stock")
			}
			if affected > 0 {
				return input.QuantityChange, false, nil
			}
			continue
		}

		if !input.Clamp {
			return 0, false, pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
				WithDetails(map[string]any{
					"product_id": input.ProductID,
					"available":  product.StockQuantity,
					"requested":  -input.QuantityChange,
				})
		}

		affected, err := s.repo.ZeroOutFrom(ctx, input.ProductID, product.StockQuantity)
		if err != nil {
			return 0, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clamping stock to zero")
		}
		if affected > 0 {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"product_id": input.ProductID,
				"requested":  input.QuantityChange,
				"applied":    -product.StockQuantity,
			}), "stock decrement clamped to zero")
			return -product.StockQuantity, true, nil
		}
	}
	return 0, false, pkgerrors.New(pkgerrors.CodeConflict, "stock changed concurrently, retry the adjustment")
}

func (s *service) History(ctx context.Context, productID uuid.UUID, limit int) ([]models.StockAdjustment, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	rows, err := s.repo.ListAdjustments(ctx, productID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing stock adjustments")
	}
	return rows, nil
}

func (s *service) LowStock(ctx context.Context) ([]models.Product, error) {
	rows, err := s.repo.ListLowStock(ctx, s.threshold)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing low stock products")
	}
	return rows, nil
}
