package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"automark_backend/internals/configs"
	"automark_backend/internals/constants"
	"automark_backend/internals/features/finance/subscriptions/dto"
	subsModel "automark_backend/internals/features/finance/subscriptions/model"
	subsRepo "automark_backend/internals/features/finance/subscriptions/repository"
	userModel "automark_backend/internals/features/users/user/model"
)

var (
	ErrInvalidPlan          = errors.New("unknown plan")
	ErrPaymentNotConfigured = errors.New("payment gateway is not configured")
	ErrInvalidSignature     = errors.New("invalid signature")
	ErrOrderNotFound        = errors.New("order not found")
	ErrAmountMismatch       = errors.New("gross amount does not match order")
	ErrGateway              = errors.New("payment gateway error")
)

const orderPrefix = "AM-"

type Service struct {
	db      *gorm.DB
	cfg     configs.MidtransConfig
	gateway SnapGateway
	now     func() time.Time
}

func NewService(db *gorm.DB, cfg configs.MidtransConfig, gateway SnapGateway) *Service {
	return &Service{db: db, cfg: cfg, gateway: gateway, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) FreeExamLimit() int { return s.cfg.FreeExamLimit }

// Price: harga plan dalam IDR.
func (s *Service) Price(plan string) (int64, error) {
	switch plan {
	case constants.PlanBasic:
		return s.cfg.PriceBasic, nil
	case constants.PlanPremium:
		return s.cfg.PricePremium, nil
	}
	return 0, ErrInvalidPlan
}

/* ==================== CHECKOUT ==================== */

// Checkout membuat order pending lalu meminta Snap token.
func (s *Service) Checkout(ctx context.Context, user *userModel.UserModel, plan string) (*dto.CheckoutResponse, error) {
	plan = strings.ToLower(strings.TrimSpace(plan))
	amount, err := s.Price(plan)
	if err != nil {
		return nil, err
	}
	if s.gateway == nil || s.cfg.ServerKey == "" {
		return nil, ErrPaymentNotConfigured
	}

	sub := &subsModel.SubscriptionModel{
		UserID:          user.ID,
		ProviderOrderID: orderPrefix + uuid.NewString(),
		PlanType:        plan,
		Status:          constants.SubscriptionPending,
		Amount:          amount,
	}
	if err := subsRepo.Create(ctx, s.db, sub); err != nil {
		return nil, err
	}

	cust := customer{Name: user.UserName}
	if user.Email != nil {
		cust.Email = *user.Email
	}
	resp, merr := s.gateway.CreateTransaction(buildSnapRequest(sub.ProviderOrderID, plan, amount, cust))
	if merr != nil {
		log.Printf("[MIDTRANS] create transaction %s gagal: %s", sub.ProviderOrderID, merr.Message)
		sub.Status = constants.SubscriptionCanceled
		_ = subsRepo.Save(ctx, s.db, sub)
		return nil, fmt.Errorf("%w: %s", ErrGateway, merr.Message)
	}

	sub.SnapToken = &resp.Token
	sub.RedirectURL = &resp.RedirectURL
	if err := subsRepo.Save(ctx, s.db, sub); err != nil {
		return nil, err
	}
	log.Printf("[MIDTRANS] order %s (%s, %d) dibuat untuk %s", sub.ProviderOrderID, plan, amount, user.ID)

	return &dto.CheckoutResponse{
		SubscriptionID: sub.ID,
		OrderID:        sub.ProviderOrderID,
		Plan:           plan,
		Amount:         amount,
		SnapToken:      resp.Token,
		RedirectURL:    resp.RedirectURL,
	}, nil
}

/* ==================== WEBHOOK ==================== */

// HandleNotification memverifikasi signature lalu menerapkan status.
// Notifikasi berulang untuk status yang sama tidak memperpanjang periode.
func (s *Service) HandleNotification(ctx context.Context, n dto.MidtransNotification) (*subsModel.SubscriptionModel, error) {
	if !validSignature(n, s.cfg.ServerKey) {
		return nil, ErrInvalidSignature
	}
	sub, err := subsRepo.FindByOrderID(ctx, s.db, n.OrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if amt, err := strconv.ParseFloat(n.GrossAmount, 64); err != nil || int64(amt+0.5) != sub.Amount {
		return nil, ErrAmountMismatch
	}

	status, ok := mapMidtransStatus(n)
	if !ok {
		log.Printf("[MIDTRANS] status %q untuk %s diabaikan", n.TransactionStatus, n.OrderID)
		return sub, nil
	}
	if n.TransactionID != "" {
		ref := n.TransactionID
		sub.ProviderTransactionID = &ref
	}

	switch {
	case status == sub.Status:
	case sub.Status == constants.SubscriptionActive && status == constants.SubscriptionPending:
		// notifikasi pending yang telat
	case status == constants.SubscriptionActive:
		end := s.now().Add(time.Duration(s.cfg.PeriodDays) * 24 * time.Hour)
		sub.Status = status
		sub.CurrentPeriodEnd = &end
	default:
		sub.Status = status
	}

	if err := subsRepo.Save(ctx, s.db, sub); err != nil {
		return nil, err
	}
	log.Printf("[MIDTRANS] order %s → %s (%s/%s)", sub.ProviderOrderID, sub.Status, n.TransactionStatus, n.FraudStatus)
	return sub, nil
}

/* ==================== QUERY ==================== */

func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*dto.MeResponse, error) {
	active, err := subsRepo.FindActive(ctx, s.db, userID, s.now())
	if err != nil {
		return nil, err
	}
	latest, err := subsRepo.FindLatest(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	out := &dto.MeResponse{
		Plan:          constants.PlanFree,
		Active:        dto.FromModel(active),
		Latest:        dto.FromModel(latest),
		FreeExamLimit: s.cfg.FreeExamLimit,
	}
	if active != nil {
		out.Plan = active.PlanType
	}
	return out, nil
}

// HasPaidPlan dipakai exam service untuk mengangkat batas plan free.
func (s *Service) HasPaidPlan(ctx context.Context, userID uuid.UUID) (bool, error) {
	active, err := subsRepo.FindActive(ctx, s.db, userID, s.now())
	return active != nil, err
}

func (s *Service) ExpireDue(ctx context.Context) (int64, error) {
	return subsRepo.ExpireDue(ctx, s.db, s.now())
}
