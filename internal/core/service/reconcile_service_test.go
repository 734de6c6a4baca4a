package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/giftpay/internal/core/domain"
)

const goodSignature = "valid-signature"

type reconcileFixture struct {
	repo       *mockTxRepo
	dispatcher *mockDispatcher
	svc        *ReconcileService
}

func newReconcileFixture(t *testing.T) *reconcileFixture {
	t.Helper()

	f := &reconcileFixture{
		repo:       newMockTxRepo(),
		dispatcher: &mockDispatcher{},
	}
	f.svc = NewReconcileService(stubVerifier{valid: goodSignature}, f.repo, f.dispatcher, discardLogger())
	return f
}

func (f *reconcileFixture) seedPending(t *testing.T, buyer, item int64, gross string) string {
	t.Helper()

	price := decimal.RequireFromString(gross)
	minor, err := domain.MinorUnits(price)
	require.NoError(t, err)
	ref, err := domain.NewOrderRef(buyer, item, minor)
	require.NoError(t, err)

	tx := domain.NewPendingTransaction(ref, "Coffee", price, decimal.RequireFromString("0.10"), time.Now())
	_, created, err := f.repo.RecordPending(context.Background(), tx)
	require.NoError(t, err)
	require.True(t, created)
	return tx.OrderRef
}

func paidWebhook(orderRef, amount string) domain.WebhookNotification {
	return domain.WebhookNotification{OrderRef: orderRef, Amount: amount, Status: "paid"}
}

func TestReconcile_PaidNotifiesOnce(t *testing.T) {
	f := newReconcileFixture(t)
	orderRef := f.seedPending(t, 501, 7, "300.00")
	require.Equal(t, "501_7_30000", orderRef)

	outcome, err := f.svc.Reconcile(context.Background(), paidWebhook(orderRef, "300.00"), goodSignature)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, domain.TransactionStatusPaid, f.repo.status(orderRef))

	sent := f.dispatcher.ofKind(domain.NotificationPaymentConfirmed)
	require.Len(t, sent, 1)
	assert.Equal(t, "300.00", sent[0].Gross.StringFixed(2))
	assert.Equal(t, int64(501), sent[0].BuyerID)
	assert.Equal(t, "Coffee", sent[0].ItemName)

	stored, err := f.repo.GetByOrderRef(context.Background(), orderRef)
	require.NoError(t, err)
	assert.Equal(t, "30.00", stored.Fee.StringFixed(2))
}

func TestReconcile_ReplayIsDuplicate(t *testing.T) {
	f := newReconcileFixture(t)
	orderRef := f.seedPending(t, 501, 7, "300.00")

	first, err := f.svc.Reconcile(context.Background(), paidWebhook(orderRef, "300.00"), goodSignature)
	require.NoError(t, err)
	second, err := f.svc.Reconcile(context.Background(), paidWebhook(orderRef, "300.00"), goodSignature)
	require.NoError(t, err)

	assert.Equal(t, OutcomeApplied, first)
	assert.Equal(t, OutcomeDuplicate, second)
	assert.Len(t, f.dispatcher.ofKind(domain.NotificationPaymentConfirmed), 1)
}

func TestReconcile_TamperedSignature(t *testing.T) {
	f := newReconcileFixture(t)
	orderRef := f.seedPending(t, 501, 7, "300.00")

	_, err := f.svc.Reconcile(context.Background(), paidWebhook(orderRef, "300.00"), "forged")
	assert.ErrorIs(t, err, domain.ErrAuthentication)
	assert.Equal(t, domain.TransactionStatusPending, f.repo.status(orderRef))
	assert.Zero(t, f.repo.transitions)
	assert.Empty(t, f.dispatcher.sent)
}

func TestReconcile_MalformedReference(t *testing.T) {
	f := newReconcileFixture(t)

	_, err := f.svc.Reconcile(context.Background(), paidWebhook("501_7", "300.00"), goodSignature)
	assert.ErrorIs(t, err, domain.ErrMalformedReference)
	assert.Zero(t, f.repo.transitions)
}

func TestReconcile_UnknownStatusIgnored(t *testing.T) {
	f := newReconcileFixture(t)
	orderRef := f.seedPending(t, 501, 7, "300.00")

	n := domain.WebhookNotification{OrderRef: orderRef, Amount: "300.00", Status: "processing"}
	outcome, err := f.svc.Reconcile(context.Background(), n, goodSignature)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
	assert.Equal(t, domain.TransactionStatusPending, f.repo.status(orderRef))
	assert.Zero(t, f.repo.transitions)
}

func TestReconcile_FailedDoesNotNotify(t *testing.T) {
	f := newReconcileFixture(t)
	orderRef := f.seedPending(t, 501, 7, "300.00")

	n := domain.WebhookNotification{OrderRef: orderRef, Amount: "300.00", Status: "expired"}
	outcome, err := f.svc.Reconcile(context.Background(), n, goodSignature)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, domain.TransactionStatusFailed, f.repo.status(orderRef))
	assert.Empty(t, f.dispatcher.sent)

	// a late "paid" for a failed order must not resurrect it
	outcome, err = f.svc.Reconcile(context.Background(), paidWebhook(orderRef, "300.00"), goodSignature)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
	assert.Equal(t, domain.TransactionStatusFailed, f.repo.status(orderRef))
	assert.Empty(t, f.dispatcher.sent)
}

func TestReconcile_AmountMismatch(t *testing.T) {
	f := newReconcileFixture(t)
	orderRef := f.seedPending(t, 501, 7, "300.00")

	for _, amount := range []string{"3.00", "300.01", "abc"} {
		_, err := f.svc.Reconcile(context.Background(), paidWebhook(orderRef, amount), goodSignature)
		assert.ErrorIs(t, err, domain.ErrAmountMismatch, amount)
	}
	assert.Equal(t, domain.TransactionStatusPending, f.repo.status(orderRef))

	// same value, different spelling
	outcome, err := f.svc.Reconcile(context.Background(), paidWebhook(orderRef, "300"), goodSignature)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
}

func TestReconcile_UnknownOrderNeverCreated(t *testing.T) {
	f := newReconcileFixture(t)

	outcome, err := f.svc.Reconcile(context.Background(), paidWebhook("9_9_900", "9.00"), goodSignature)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
	assert.Zero(t, f.repo.count())
	assert.Empty(t, f.dispatcher.sent)
}

func TestReconcile_StorageErrorSurfaces(t *testing.T) {
	f := newReconcileFixture(t)
	orderRef := f.seedPending(t, 501, 7, "300.00")
	f.repo.transitionErr = errStorage

	_, err := f.svc.Reconcile(context.Background(), paidWebhook(orderRef, "300.00"), goodSignature)
	assert.ErrorIs(t, err, errStorage)
	assert.Empty(t, f.dispatcher.sent)
}

func TestReconcile_ConfirmationSurvivesLookupFailure(t *testing.T) {
	f := newReconcileFixture(t)
	orderRef := f.seedPending(t, 501, 7, "300.00")
	f.repo.getErr = errStorage

	outcome, err := f.svc.Reconcile(context.Background(), paidWebhook(orderRef, "300.00"), goodSignature)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	sent := f.dispatcher.ofKind(domain.NotificationPaymentConfirmed)
	require.Len(t, sent, 1)
	assert.Equal(t, "300.00", sent[0].Gross.StringFixed(2))
	assert.Empty(t, sent[0].ItemName)
}

func TestReconcile_ConcurrentDuplicates(t *testing.T) {
	f := newReconcileFixture(t)
	orderRef := f.seedPending(t, 501, 7, "300.00")

	var applied atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := f.svc.Reconcile(context.Background(), paidWebhook(orderRef, "300.00"), goodSignature)
			if err == nil && outcome == OutcomeApplied {
				applied.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), applied.Load())
	assert.Len(t, f.dispatcher.ofKind(domain.NotificationPaymentConfirmed), 1)
}
