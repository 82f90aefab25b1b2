package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
)

func TestNewTransaction(t *testing.T) {
	fixedTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	t.Run("Valid deposit", func(t *testing.T) {
		txn, err := NewTransaction(NewTransactionParams{
			UserID:         userID,
			Type:           TypeDeposit,
			Amount:         decimal.NewFromInt(2000),
			PaymentMethod:  MethodBkash,
			PaymentDetails: MobileDetails("BK123", "01712345678", ""),
		}, fixedTime)

		require.NoError(t, err)
		assert.Equal(t, userID, txn.UserID)
		assert.Equal(t, StatusPending, txn.Status)
		assert.True(t, txn.NetAmount.Equal(decimal.NewFromInt(2000)))
		assert.Equal(t, fixedTime, txn.CreatedAt)
		assert.Nil(t, txn.ProcessedAt)
		assert.False(t, txn.IsBalanceApplied())
	})

	t.Run("Withdrawal computes net amount", func(t *testing.T) {
		txn, err := NewTransaction(NewTransactionParams{
			UserID:         userID,
			Type:           TypeWithdrawal,
			Amount:         decimal.NewFromInt(1000),
			Charge:         decimal.NewFromInt(20),
			PaymentMethod:  MethodNagad,
			PaymentDetails: MobileDetails("", "", "01812345678"),
		}, fixedTime)

		require.NoError(t, err)
		assert.Equal(t, "980.00", FormatAmount(txn.NetAmount))
	})

	t.Run("Invalid inputs", func(t *testing.T) {
		testCases := []struct {
			name   string
			params NewTransactionParams
		}{
			{"Zero amount", NewTransactionParams{UserID: userID, Type: TypeDeposit, Amount: decimal.Zero, PaymentMethod: MethodWallet}},
			{"Negative amount", NewTransactionParams{UserID: userID, Type: TypeDeposit, Amount: decimal.NewFromInt(-5), PaymentMethod: MethodWallet}},
			{"Fractional cents", NewTransactionParams{UserID: userID, Type: TypeDeposit, Amount: decimal.RequireFromString("1.005"), PaymentMethod: MethodWallet}},
			{"Unknown type", NewTransactionParams{UserID: userID, Type: "gift", Amount: decimal.NewFromInt(5), PaymentMethod: MethodWallet}},
			{"Missing user", NewTransactionParams{Type: TypeDeposit, Amount: decimal.NewFromInt(5), PaymentMethod: MethodWallet}},
			{"Charge swallows withdrawal", NewTransactionParams{UserID: userID, Type: TypeWithdrawal, Amount: decimal.NewFromInt(5), Charge: decimal.NewFromInt(5), PaymentMethod: MethodWallet}},
			{"Details do not match method", NewTransactionParams{UserID: userID, Type: TypeDeposit, Amount: decimal.NewFromInt(5), PaymentMethod: MethodBank, PaymentDetails: MobileDetails("x", "", "")}},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				txn, err := NewTransaction(tc.params, fixedTime)
				assert.Nil(t, txn)
				assert.True(t, errs.IsValidationError(err), "got %v", err)
			})
		}
	})
}

func TestTransactionStatusMachine(t *testing.T) {
	testCases := []struct {
		from    TransactionStatus
		to      TransactionStatus
		allowed bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusFailed, true},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusRejected, true},
		{StatusProcessing, StatusCancelled, false},
		{StatusProcessing, StatusPending, false},
		{StatusCompleted, StatusRejected, false},
		{StatusCompleted, StatusCompleted, false},
		{StatusRejected, StatusCompleted, false},
		{StatusCancelled, StatusPending, false},
		{StatusFailed, StatusCompleted, false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}

	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusProcessing.IsTerminal())
	for _, s := range []TransactionStatus{StatusCompleted, StatusFailed, StatusCancelled, StatusRejected} {
		assert.True(t, s.IsTerminal(), string(s))
	}
}

func TestTransactionTransitionTo(t *testing.T) {
	created := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	processed := created.Add(time.Hour)
	admin := uuid.New()

	txn, err := NewTransaction(NewTransactionParams{
		UserID:        uuid.New(),
		Type:          TypeDeposit,
		Amount:        decimal.NewFromInt(100),
		PaymentMethod: MethodWallet,
	}, created)
	require.NoError(t, err)

	require.NoError(t, txn.TransitionTo(StatusRejected, &admin, "no matching payment", processed))
	assert.Equal(t, StatusRejected, txn.Status)
	assert.Equal(t, &admin, txn.ProcessedBy)
	assert.Equal(t, "no matching payment", txn.Notes)
	require.NotNil(t, txn.ProcessedAt)
	assert.Equal(t, processed, *txn.ProcessedAt)

	err = txn.TransitionTo(StatusCompleted, &admin, "", processed)
	assert.True(t, errs.IsInvalidTransitionError(err))
	assert.Equal(t, StatusRejected, txn.Status)
}

func TestTransactionTypeEffects(t *testing.T) {
	assert.True(t, TypeDeposit.IsCredit())
	assert.True(t, TypeProfit.IsCredit())
	assert.True(t, TypeCommission.IsCredit())
	assert.True(t, TypeBonus.IsCredit())
	assert.True(t, TypeWithdrawal.IsDebit())
	assert.True(t, TypeInvestment.IsDebit())
	assert.False(t, TypeRefund.IsCredit())
	assert.False(t, TypeRefund.IsDebit())
	assert.True(t, TypeProfit.IsSystemGenerated())
	assert.False(t, TypeDeposit.IsSystemGenerated())
}

func TestPaymentDetailsValidate(t *testing.T) {
	testCases := []struct {
		name    string
		method  PaymentMethod
		details PaymentDetails
		valid   bool
	}{
		{"Mobile with sender", MethodBkash, MobileDetails("TX1", "01712345678", ""), true},
		{"Mobile bad number", MethodRocket, MobileDetails("", "12ab", ""), false},
		{"Bank complete", MethodBank, BankDetails("City Bank", "1234567890", ""), true},
		{"Bank missing account", MethodBank, BankDetails("City Bank", "", ""), false},
		{"Card last four", MethodCreditCard, CardDetails("4242", ""), true},
		{"Card too long", MethodCreditCard, CardDetails("42424", ""), false},
		{"Wallet without details", MethodWallet, PaymentDetails{}, true},
		{"System without details", MethodSystem, NoDetails(), true},
		{"Wallet with stray details", MethodWallet, PaymentDetails{Channel: ChannelNone, Card: &CardPayment{LastFour: "4242"}}, false},
		{"Mobile channel with bank body", MethodNagad, PaymentDetails{Channel: ChannelMobile, Bank: &BankPayment{BankName: "x", AccountNumber: "1"}}, false},
		{"Unknown method", PaymentMethod("paypal"), NoDetails(), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.details.Validate(tc.method)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.True(t, errs.IsValidationError(err), "got %v", err)
			}
		})
	}
}

func TestGenerateReference(t *testing.T) {
	original := randIntN
	defer func() { randIntN = original }()
	randIntN = func(n int) int { return n / 2 }

	now := time.UnixMilli(1735732800123)
	assert.Equal(t, "TXN328001235500", GenerateReference(now))
	assert.Equal(t, "SB3280012350", GenerateAccountNumber(now))
	assert.Equal(t, "SSSSSSSS", GenerateReferralCode())
}
