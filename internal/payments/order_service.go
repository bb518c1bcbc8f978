package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"wedbook/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Verifier decides whether reported payment details are authentic for an order
type Verifier interface {
	Verify(ctx context.Context, order *OrderRecord, details PaymentDetails) (bool, error)
}

// OrderService is the gorm-backed OrderBackend
type OrderService struct {
	repo     Repository
	verifier Verifier
	currency string
	log      *logger.Logger
}

func NewOrderService(repo Repository, verifier Verifier, currency string, log *logger.Logger) *OrderService {
	return &OrderService{
		repo:     repo,
		verifier: verifier,
		currency: strings.ToUpper(currency),
		log:      log.WithComponent("orders"),
	}
}

// CreateOrder returns the unpaid order for req.Receipt, creating it if needed.
// A receipt that was already paid is refused with ErrDuplicateReceipt.
func (s *OrderService) CreateOrder(ctx context.Context, req OrderRequest) (*OrderRecord, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if req.Receipt == "" {
		return nil, fmt.Errorf("receipt is required")
	}
	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = s.currency
	}
	amountMinor := ToMinorUnits(req.Amount)

	existing, err := s.repo.GetByReceipt(ctx, req.Receipt)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up receipt: %w", err)
	}
	if existing != nil {
		return s.reuse(ctx, existing, amountMinor, currency, req.Notes)
	}

	order := &Order{
		ID:          uuid.New(),
		Receipt:     req.Receipt,
		AmountMinor: amountMinor,
		Currency:    currency,
		Notes:       req.Notes,
		Status:      OrderStatusCreated,
		Attempts:    1,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost a race on the same receipt
			existing, getErr := s.repo.GetByReceipt(ctx, req.Receipt)
			if getErr != nil {
				return nil, fmt.Errorf("failed to reload order: %w", getErr)
			}
			return s.reuse(ctx, existing, amountMinor, currency, req.Notes)
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.log.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID.String()),
		slog.String("receipt", order.Receipt),
		slog.Int64("amount_minor", order.AmountMinor))
	return order.Record(), nil
}

func (s *OrderService) reuse(ctx context.Context, order *Order, amountMinor int64, currency string, notes map[string]string) (*OrderRecord, error) {
	if order.Status == OrderStatusPaid {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateReceipt, order.Receipt)
	}

	updates := map[string]interface{}{
		"attempts": order.Attempts + 1,
		"status":   OrderStatusCreated,
	}
	order.Attempts++
	order.Status = OrderStatusCreated
	if order.AmountMinor != amountMinor || order.Currency != currency {
		updates["amount_minor"] = amountMinor
		updates["currency"] = currency
		order.AmountMinor = amountMinor
		order.Currency = currency
	}
	if notes != nil {
		updates["notes"] = notes
		order.Notes = notes
	}
	if err := s.repo.Update(ctx, order.ID, updates); err != nil {
		return nil, fmt.Errorf("failed to refresh order: %w", err)
	}
	return order.Record(), nil
}

// VerifyPayment checks reported details against the stored order and marks it paid.
// Unknown orders are simply not verified.
func (s *OrderService) VerifyPayment(ctx context.Context, details PaymentDetails) (bool, error) {
	orderID, err := uuid.Parse(details.OrderID)
	if err != nil {
		return false, nil
	}
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load order: %w", err)
	}

	if order.Status == OrderStatusPaid {
		return order.PaymentID != nil && *order.PaymentID == details.PaymentID, nil
	}

	ok, err := s.verifier.Verify(ctx, order.Record(), details)
	if err != nil {
		return false, err
	}
	if !ok {
		s.log.WarnContext(ctx, "payment verification rejected",
			slog.String("order_id", details.OrderID),
			slog.String("payment_id", details.PaymentID))
		if err := s.repo.Update(ctx, order.ID, map[string]interface{}{"status": OrderStatusFailed}); err != nil {
			s.log.WarnContext(ctx, "failed to mark order failed", slog.String("error", err.Error()))
		}
		return false, nil
	}

	now := time.Now().UTC()
	if err := s.repo.Update(ctx, order.ID, map[string]interface{}{
		"status":     OrderStatusPaid,
		"payment_id": details.PaymentID,
		"paid_at":    now,
	}); err != nil {
		return false, fmt.Errorf("failed to mark order paid: %w", err)
	}
	return true, nil
}

// GetByReceipt exposes the stored order for a receipt
func (s *OrderService) GetByReceipt(ctx context.Context, receipt string) (*OrderRecord, error) {
	order, err := s.repo.GetByReceipt(ctx, receipt)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order.Record(), nil
}
