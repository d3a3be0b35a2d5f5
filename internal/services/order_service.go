package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"kabro/internal/apperr"
	"kabro/internal/config"
	"kabro/internal/email"
	"kabro/internal/models"
	"kabro/internal/notify"
	"kabro/internal/repositories"
	"kabro/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

// OrderConfirmationSubject is the subject of the customer confirmation email.
const OrderConfirmationSubject = "Confirmation de commande"

// OrderItemInput is one submitted order line. Slug, name and price are
// taken as submitted; only qty is constrained.
type OrderItemInput struct {
	Slug  string         `json:"slug"`
	Name  string         `json:"name"`
	Price *models.Amount `json:"price"`
	Qty   int            `json:"qty" validate:"min=1"`
}

// PlaceOrderInput is the checkout payload.
type PlaceOrderInput struct {
	Items   []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	Address string           `json:"address" validate:"min=3"`
	Phone   string           `json:"phone" validate:"min=6"`
	Total   *models.Amount   `json:"total"`
}

// Validate checks the payload and reports every failing field at once.
func (in PlaceOrderInput) Validate() error {
	fields := validateStruct(in)
	for i, item := range in.Items {
		if item.Price == nil {
			fields[fmt.Sprintf("items[%d].price", i)] = "required"
		}
	}
	if in.Total == nil {
		fields["total"] = "required"
	}
	return invalidIfAny(fields)
}

// OrderEventPublisher publishes order.placed events.
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event models.OrderPlacedEvent) error
}

// Notifiers groups the delivery channels used after a write.
type Notifiers struct {
	Email    notify.Notifier
	WhatsApp notify.Notifier
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo     repositories.OrderRepository
	userRepo      repositories.UserRepository
	renderer      *email.Renderer
	notifiers     Notifiers
	events        OrderEventPublisher
	totalPolicy   string
	fallbackEmail string
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, userRepo repositories.UserRepository, renderer *email.Renderer, notifiers Notifiers, cfg *config.Config) *OrderService {
	return &OrderService{
		orderRepo:     orderRepo,
		userRepo:      userRepo,
		renderer:      renderer,
		notifiers:     notifiers,
		totalPolicy:   cfg.Orders.TotalPolicy,
		fallbackEmail: cfg.Mail.OrderFallbackEmail,
	}
}

// WithEvents enables order.placed publishing.
func (s *OrderService) WithEvents(p OrderEventPublisher) *OrderService {
	s.events = p
	return s
}

// PlaceOrder validates and persists an order, then notifies the customer and
// the shop owner. session may be nil for guest checkout. Notification
// failures never fail the call.
func (s *OrderService) PlaceOrder(ctx context.Context, session *models.Session, in PlaceOrderInput) (*models.Receipt, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	order := &models.Order{
		Address: in.Address,
		Phone:   in.Phone,
		Total:   models.RoundMoney(in.Total.Decimal),
	}
	for _, item := range in.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductSlug: item.Slug,
			Name:        item.Name,
			Price:       models.RoundMoney(item.Price.Decimal),
			Qty:         item.Qty,
		})
	}

	if sum := order.ItemsTotal(); !sum.Equal(order.Total) {
		metrics.TotalMismatches.Inc()
		if s.totalPolicy == config.TotalPolicyReject {
			return nil, &apperr.ValidationError{
				Code:   apperr.CodeTotalMismatch,
				Fields: map[string]string{"total": sum.StringFixed(2)},
			}
		}
		log.Printf("Order total %s differs from item sum %s, keeping submitted total", order.Total.StringFixed(2), sum.StringFixed(2))
	}

	userID, err := s.resolveUser(ctx, session)
	if err != nil {
		return nil, err
	}
	order.UserID = userID

	saved, err := s.orderRepo.Create(ctx, order)
	if err != nil {
		return nil, apperr.Persistence("create order", err)
	}

	kind := "guest"
	if saved.UserID != nil {
		kind = "member"
	}
	metrics.OrdersPlaced.WithLabelValues(kind).Inc()
	log.Printf("Order #%d recorded (%s, %d item(s), total %s)", saved.ID, kind, len(saved.Items), models.FormatMoney(saved.Total))

	emailOutcome := s.dispatch(context.WithoutCancel(ctx), saved)

	receipt := &models.Receipt{ID: saved.ID}
	if emailOutcome != nil {
		receipt.PreviewURL = emailOutcome.PreviewURL
	}
	return receipt, nil
}

// resolveUser turns a session into a user ID. A session whose user no
// longer exists yields a guest order.
func (s *OrderService) resolveUser(ctx context.Context, session *models.Session) (*uint, error) {
	if session == nil {
		return nil, nil
	}
	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		log.Printf("Session user %d no longer exists, placing guest order", session.UserID)
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Persistence("load session user", err)
	}
	id := user.ID
	return &id, nil
}

// dispatch runs every notification step concurrently. Each step logs its own
// outcome; none of them can fail the order.
func (s *OrderService) dispatch(ctx context.Context, order *models.Order) *notify.Outcome {
	var (
		g            errgroup.Group
		emailOutcome *notify.Outcome
	)

	g.Go(func() error {
		emailOutcome = s.sendConfirmation(ctx, order)
		return nil
	})
	g.Go(func() error {
		s.sendOwnerSummary(ctx, order)
		return nil
	})
	if s.events != nil {
		g.Go(func() error {
			s.publishPlaced(ctx, order)
			return nil
		})
	}
	_ = g.Wait()
	return emailOutcome
}

func (s *OrderService) sendConfirmation(ctx context.Context, order *models.Order) *notify.Outcome {
	rendered, err := s.renderer.Order(*order)
	if err != nil {
		log.Printf("Order #%d: rendering confirmation failed: %v", order.ID, err)
		return nil
	}

	to := s.fallbackEmail
	if order.User != nil && order.User.Email != "" {
		to = order.User.Email
	}
	out, err := s.notifiers.Email.Deliver(ctx, notify.Message{
		To:          to,
		Subject:     OrderConfirmationSubject,
		HTML:        rendered.HTML,
		Attachments: rendered.Attachments,
	})
	logOutcome(fmt.Sprintf("Order #%d", order.ID), out, err)
	return out
}

func (s *OrderService) sendOwnerSummary(ctx context.Context, order *models.Order) {
	out, err := s.notifiers.WhatsApp.Deliver(ctx, notify.Message{Text: WhatsAppSummary(order)})
	logOutcome(fmt.Sprintf("Order #%d", order.ID), out, err)
}

func (s *OrderService) publishPlaced(ctx context.Context, order *models.Order) {
	event := models.OrderPlacedEvent{
		OrderID:  order.ID,
		UserID:   order.UserID,
		Total:    order.Total,
		Items:    len(order.Items),
		PlacedAt: time.Now(),
	}
	if err := s.events.PublishOrderPlaced(ctx, event); err != nil {
		log.Printf("Order #%d: publishing order event failed: %v", order.ID, err)
	}
}

// WhatsAppSummary is the plain-text message sent to the shop owner.
func WhatsAppSummary(order *models.Order) string {
	return fmt.Sprintf("Nouvelle commande #%d\nTotal: %s\nClient: %s\nTel: %s\nAdresse: %s",
		order.ID, models.FormatMoney(order.Total), order.CustomerName(), order.Phone, order.Address)
}

func logOutcome(subject string, out *notify.Outcome, err error) {
	switch {
	case err != nil:
		log.Printf("%s: notification failed: %v", subject, err)
	case out == nil:
	case !out.OK:
		log.Printf("%s: %s notification not delivered: %s", subject, out.Channel, out.Error)
	case out.PreviewURL != "":
		log.Printf("%s: %s sent to sandbox, preview at %s", subject, out.Channel, out.PreviewURL)
	default:
		log.Printf("%s: %s notification sent (%s)", subject, out.Channel, out.MessageID)
	}
}
