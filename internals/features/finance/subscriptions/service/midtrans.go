package service

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	"automark_backend/internals/configs"
	"automark_backend/internals/constants"
	"automark_backend/internals/features/finance/subscriptions/dto"
)

/* =========================================================
   Midtrans Snap
========================================================= */

// SnapGateway: *snap.Client di production, fake di test.
type SnapGateway interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

// NewSnapClient: sandbox kecuali UseProduction.
func NewSnapClient(cfg configs.MidtransConfig) *snap.Client {
	var c snap.Client
	if cfg.UseProduction {
		c.New(cfg.ServerKey, midtrans.Production)
	} else {
		c.New(cfg.ServerKey, midtrans.Sandbox)
	}
	return &c
}

type customer struct {
	Name  string
	Email string
}

func buildSnapRequest(orderID, plan string, amount int64, cust customer) *snap.Request {
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: amount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: cust.Name,
			Email: cust.Email,
		},
		CreditCard: &snap.CreditCardDetails{Secure: true},
	}
	req.Items = &[]midtrans.ItemDetails{
		{
			ID:       plan,
			Price:    amount,
			Qty:      1,
			Name:     "AutoMark " + strings.ToUpper(plan[:1]) + plan[1:] + " plan",
			Category: "subscription",
		},
	}
	return req
}

/* =========================================================
   Webhook helpers
========================================================= */

// Signature: SHA512(order_id + status_code + gross_amount + ServerKey), hex.
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	h := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(h[:])
}

func validSignature(n dto.MidtransNotification, serverKey string) bool {
	want := strings.ToLower(strings.TrimSpace(n.SignatureKey))
	if want == "" || serverKey == "" {
		return false
	}
	got := Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// mapMidtransStatus → status subscription. ok=false untuk status yang tidak dikenal.
func mapMidtransStatus(n dto.MidtransNotification) (string, bool) {
	ts := strings.ToLower(n.TransactionStatus)
	fraud := strings.ToLower(n.FraudStatus)
	switch ts {
	case "capture":
		// kartu kredit: accept → aktif, challenge → tunggu review
		switch fraud {
		case "accept", "":
			return constants.SubscriptionActive, true
		case "challenge":
			return constants.SubscriptionPending, true
		}
		return constants.SubscriptionCanceled, true
	case "settlement":
		return constants.SubscriptionActive, true
	case "pending":
		return constants.SubscriptionPending, true
	case "deny", "cancel", "failure", "refund", "partial_refund":
		return constants.SubscriptionCanceled, true
	case "expire":
		return constants.SubscriptionExpired, true
	}
	return "", false
}
