package entity

import (
	"github.com/go-playground/validator/v10"

	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// PaymentChannel tags which variant of PaymentDetails is populated
type PaymentChannel string

// Payment channels
const (
	ChannelMobile PaymentChannel = "mobile"
	ChannelBank   PaymentChannel = "bank"
	ChannelCard   PaymentChannel = "card"
	ChannelNone   PaymentChannel = "none"
)

// MobilePayment carries the details of a bkash, nagad or rocket transfer
type MobilePayment struct {
	TransactionID  string `json:"transactionId,omitempty" validate:"omitempty,max=64"`
	SenderNumber   string `json:"senderNumber,omitempty" validate:"omitempty,numeric,min=11,max=14"`
	ReceiverNumber string `json:"receiverNumber,omitempty" validate:"omitempty,numeric,min=11,max=14"`
}

// BankPayment carries the details of a bank transfer
type BankPayment struct {
	BankName      string `json:"bankName" validate:"required,max=100"`
	AccountNumber string `json:"accountNumber" validate:"required,max=34"`
	TransactionID string `json:"transactionId,omitempty" validate:"omitempty,max=64"`
}

// CardPayment carries the details of a card payment
type CardPayment struct {
	LastFour        string `json:"cardLastFour" validate:"required,numeric,len=4"`
	GatewayResponse string `json:"gatewayResponse,omitempty"`
}

// PaymentDetails is a tagged variant: exactly the member matching Channel is set
type PaymentDetails struct {
	Channel PaymentChannel `json:"channel"`
	Mobile  *MobilePayment `json:"mobile,omitempty"`
	Bank    *BankPayment   `json:"bank,omitempty"`
	Card    *CardPayment   `json:"card,omitempty"`
}

// MobileDetails builds mobile money details
func MobileDetails(transactionID, sender, receiver string) PaymentDetails {
	return PaymentDetails{Channel: ChannelMobile, Mobile: &MobilePayment{
		TransactionID:  transactionID,
		SenderNumber:   sender,
		ReceiverNumber: receiver,
	}}
}

// BankDetails builds bank transfer details
func BankDetails(bankName, accountNumber, transactionID string) PaymentDetails {
	return PaymentDetails{Channel: ChannelBank, Bank: &BankPayment{
		BankName:      bankName,
		AccountNumber: accountNumber,
		TransactionID: transactionID,
	}}
}

// CardDetails builds card payment details
func CardDetails(lastFour, gatewayResponse string) PaymentDetails {
	return PaymentDetails{Channel: ChannelCard, Card: &CardPayment{
		LastFour:        lastFour,
		GatewayResponse: gatewayResponse,
	}}
}

// NoDetails is used for wallet and system movements
func NoDetails() PaymentDetails {
	return PaymentDetails{Channel: ChannelNone}
}

// ExternalID returns the channel side transaction id, if any
func (d PaymentDetails) ExternalID() string {
	switch {
	case d.Mobile != nil:
		return d.Mobile.TransactionID
	case d.Bank != nil:
		return d.Bank.TransactionID
	default:
		return ""
	}
}

// Validate checks that the populated variant matches the payment method
func (d PaymentDetails) Validate(method PaymentMethod) error {
	want := method.Channel()
	if want == "" {
		return errs.NewValidationError("paymentMethod", "unsupported payment method "+string(method), nil)
	}
	channel := d.Channel
	if channel == "" {
		channel = ChannelNone
	}
	if channel != want {
		return errs.NewValidationError("paymentDetails", "details do not match payment method "+string(method), nil)
	}

	populated := 0
	for _, set := range []bool{d.Mobile != nil, d.Bank != nil, d.Card != nil} {
		if set {
			populated++
		}
	}

	var member any
	switch want {
	case ChannelNone:
		if populated == 0 {
			return nil
		}
	case ChannelMobile:
		member = d.Mobile
	case ChannelBank:
		member = d.Bank
	case ChannelCard:
		member = d.Card
	}
	if populated != 1 || isNilVariant(member) {
		return errs.NewValidationError("paymentDetails", "exactly one payment variant matching the channel must be set", nil)
	}

	if err := validate.Struct(member); err != nil {
		return errs.NewValidationError("paymentDetails", err.Error(), nil)
	}
	return nil
}

func isNilVariant(member any) bool {
	switch v := member.(type) {
	case *MobilePayment:
		return v == nil
	case *BankPayment:
		return v == nil
	case *CardPayment:
		return v == nil
	default:
		return true
	}
}
