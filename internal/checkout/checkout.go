package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/notify"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Cart interface {
	Items() []domain.CartItem
	RemoveOrdered(ctx context.Context, ordered []domain.CartItem) error
}

type OrderRecorder interface {
	AddOrder(ctx context.Context, draft domain.OrderDraft) (domain.Order, error)
}

type PrincipalSource interface {
	Principal() *domain.Principal
}

// ContactForm carries the buyer's delivery details. Field rules are enforced
// where the form is decoded.
type ContactForm struct {
	Name          string               `json:"name"`
	Email         string               `json:"email"`
	Phone         string               `json:"phone"`
	Address       string               `json:"address"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
}

// Service runs checkout for one visitor: notify the seller, record the order,
// then take the ordered lines out of the cart. A failed step leaves the cart
// as it was. Items added while checkout runs stay in the cart.
type Service struct {
	cart     Cart
	orders   OrderRecorder
	session  PrincipalSource
	notifier notify.Notifier
	logger   *zap.Logger
	now      func() time.Time

	busy atomic.Bool
}

func NewService(cart Cart, orders OrderRecorder, session PrincipalSource, notifier notify.Notifier, logger *zap.Logger) *Service {
	return &Service{
		cart:     cart,
		orders:   orders,
		session:  session,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// InProgress reports whether PlaceOrder is running.
func (s *Service) InProgress() bool {
	return s.busy.Load()
}

func (s *Service) PlaceOrder(ctx context.Context, form ContactForm) (domain.Order, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return domain.Order{}, ErrCheckoutInProgress
	}
	defer s.busy.Store(false)

	principal := s.session.Principal()
	if principal == nil {
		return domain.Order{}, ErrUnauthenticated
	}
	if !form.PaymentMethod.Valid() {
		return domain.Order{}, &domain.ValidationError{Fields: map[string]string{
			"payment_method": "You need to select a payment method.",
		}}
	}

	items := s.cart.Items()
	if len(items) == 0 {
		return domain.Order{}, ErrEmptyCart
	}
	total := domain.CartTotal(items)
	placedAt := s.now()

	orderCtx := notify.OrderContext{
		Reference:       fmt.Sprintf("ORD-%d", placedAt.UnixMilli()),
		CustomerName:    form.Name,
		CustomerEmail:   form.Email,
		CustomerPhone:   form.Phone,
		DeliveryAddress: form.Address,
		Summary:         Summary(items, total),
	}
	res, err := s.notifier.Notify(ctx, orderCtx)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%w: %w", ErrNotificationFailed, err)
	}
	if !res.Delivered() {
		return domain.Order{}, ErrNotificationFailed
	}

	order, err := s.orders.AddOrder(ctx, domain.OrderDraft{
		CustomerName:    form.Name,
		CustomerEmail:   form.Email,
		CustomerPhone:   form.Phone,
		DeliveryAddress: form.Address,
		Items:           items,
		Total:           total,
		PaymentMethod:   form.PaymentMethod,
		OrderDate:       placedAt,
		UserID:          principal.ID,
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("record order: %w", err)
	}

	if err := s.cart.RemoveOrdered(ctx, items); err != nil {
		s.logger.Warn("order recorded but cart not cleared",
			zap.String("order_id", order.ID),
			zap.Error(err))
	}

	s.logger.Info("checkout completed",
		zap.String("order_id", order.ID),
		zap.String("order_ref", orderCtx.Reference),
		zap.Bool("email_sent", res.EmailSent),
		zap.Bool("whatsapp_sent", res.WhatsAppSent))
	return order, nil
}

// Summary renders the seller-facing text of an order.
func Summary(items []domain.CartItem, total decimal.Decimal) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%s (x%d) - $%s", item.Name, item.Quantity, item.Subtotal().StringFixed(2))
	}
	return strings.Join(lines, "\n") + "\n\nTotal: $" + total.StringFixed(2)
}
