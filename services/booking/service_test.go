package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tourvia/database/repository"
	bookingRepo "tourvia/database/repository/booking"
	"tourvia/models"
)

// fakeBookingRepo is an in-memory BookingRepository with the same
// compare-and-set semantics as the Mongo implementation.
type fakeBookingRepo struct {
	mu        sync.Mutex
	bookings  map[int64]*models.Booking
	commits   int
	commitErr error // returned by CommitStatus when set, simulating a store fault
}

func newFakeBookingRepo(bookings ...*models.Booking) *fakeBookingRepo {
	repo := &fakeBookingRepo{bookings: make(map[int64]*models.Booking)}
	for _, b := range bookings {
		repo.bookings[b.BookingID] = b
	}
	return repo
}

func (r *fakeBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[b.BookingID] = b
	return nil
}

func (r *fakeBookingRepo) GetByID(ctx context.Context, bookingID int64) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	clone := *b
	return &clone, nil
}

func (r *fakeBookingRepo) GetByCode(ctx context.Context, code string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.BookingCode == code {
			clone := *b
			return &clone, nil
		}
	}
	return nil, bookingRepo.ErrNotFound
}

func (r *fakeBookingRepo) Search(ctx context.Context, filter repository.BookingSearchFilter) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if filter.UserID != "" && b.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (r *fakeBookingRepo) CommitStatus(ctx context.Context, bookingID int64, from []models.BookingStatus, to models.BookingStatus, fields map[string]interface{}) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.commitErr != nil {
		return nil, r.commitErr
	}
	b, ok := r.bookings[bookingID]
	if !ok {
		return nil, bookingRepo.ErrStatusNotMatched
	}
	matched := false
	for _, s := range from {
		if b.Status == s {
			matched = true
			break
		}
	}
	if !matched {
		return nil, bookingRepo.ErrStatusNotMatched
	}
	b.Status = to
	b.UpdatedAt = time.Now()
	if v, ok := fields["cancelReason"].(string); ok {
		b.CancelReason = v
	}
	if v, ok := fields["accountName"].(string); ok {
		b.AccountName = v
	}
	if v, ok := fields["accountNumber"].(string); ok {
		b.AccountNumber = v
	}
	if v, ok := fields["bank"].(string); ok {
		b.Bank = v
	}
	r.commits++
	clone := *b
	return &clone, nil
}

func (r *fakeBookingRepo) ListPaymentExpired(ctx context.Context, now time.Time) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.PaymentExpired(now) {
			out = append(out, *b)
		}
	}
	return out, nil
}

type fakeWallet struct {
	mu      sync.Mutex
	credits []float64
	err     error
}

func (w *fakeWallet) CreditCoins(ctx context.Context, userID string, amount float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.credits = append(w.credits, amount)
	return nil
}

func (w *fakeWallet) GetBalance(ctx context.Context, userID string) (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var total float64
	for _, c := range w.credits {
		total += c
	}
	return total, nil
}

// fakeLedger answers settled-transfer lookups from a script of errors, one per
// call, repeating the last entry once the script runs out.
type fakeLedger struct {
	mu     sync.Mutex
	script []error
	calls  int
}

func (l *fakeLedger) FindSettledTransfer(ctx context.Context, reference string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if len(l.script) == 0 {
		return nil
	}
	idx := l.calls - 1
	if idx >= len(l.script) {
		idx = len(l.script) - 1
	}
	return l.script[idx]
}

func newTestService(repo *fakeBookingRepo, wallet *fakeWallet, ledger *fakeLedger) *DefaultStatusService {
	if wallet == nil {
		wallet = &fakeWallet{}
	}
	if ledger == nil {
		ledger = &fakeLedger{}
	}
	return &DefaultStatusService{
		Repo:   repo,
		Wallet: wallet,
		Ledger: ledger,
		Logger: zap.NewNop(),
	}
}

func paidBooking(id int64) *models.Booking {
	return &models.Booking{
		BookingID:      id,
		BookingCode:    "TOUR100",
		UserID:         "user-1",
		TourName:       "Ha Long Bay",
		Status:         models.StatusPaid,
		TotalPrice:     90,
		SubtotalPrice:  100,
		CouponDiscount: 5,
		PaidByCoin:     5,
	}
}

func TestCommitTransitionSameStatusIsNoOp(t *testing.T) {
	repo := newFakeBookingRepo(paidBooking(1))
	svc := newTestService(repo, nil, nil)

	b, err := svc.CommitTransition(context.Background(), 1, models.StatusPaid, ActorAdmin, "")
	require.NoError(t, err)
	require.Equal(t, models.StatusPaid, b.Status)
	require.Zero(t, repo.commits)
}

func TestCommitTransitionRejectsIllegalMove(t *testing.T) {
	repo := newFakeBookingRepo(paidBooking(1))
	svc := newTestService(repo, nil, nil)

	_, err := svc.CommitTransition(context.Background(), 1, models.StatusPendingPayment, ActorAdmin, "")
	require.True(t, IsTransitionRejected(err))
	require.Zero(t, repo.commits)
}

func TestCommitTransitionUnknownBooking(t *testing.T) {
	svc := newTestService(newFakeBookingRepo(), nil, nil)
	_, err := svc.CommitTransition(context.Background(), 42, models.StatusPaid, ActorAdmin, "")
	require.ErrorIs(t, err, ErrBookingNotFound)
}

func TestCancelWithCoinRefundCreditsExactlyOnce(t *testing.T) {
	repo := newFakeBookingRepo(paidBooking(1))
	wallet := &fakeWallet{}
	svc := newTestService(repo, wallet, nil)

	b, err := svc.CancelWithCoinRefund(context.Background(), "", 1, ActorAdmin, "tour no longer offered")
	require.NoError(t, err)
	require.Equal(t, models.StatusCancelled, b.Status)
	require.Equal(t, []float64{95}, wallet.credits) // totalPrice 90 + paidByCoin 5

	// Retrying the same cancellation is a success no-op and must not credit
	// again.
	b, err = svc.CancelWithCoinRefund(context.Background(), "", 1, ActorAdmin, "tour no longer offered")
	require.NoError(t, err)
	require.Equal(t, models.StatusCancelled, b.Status)
	require.Equal(t, []float64{95}, wallet.credits)
	require.Equal(t, 1, repo.commits)
}

func TestCancelPaidRequiresReason(t *testing.T) {
	repo := newFakeBookingRepo(paidBooking(1))
	svc := newTestService(repo, nil, nil)

	_, err := svc.CancelWithCoinRefund(context.Background(), "", 1, ActorAdmin, "")
	require.True(t, IsValidation(err))
	require.Zero(t, repo.commits)
}

func TestRequestBankRefund(t *testing.T) {
	repo := newFakeBookingRepo(paidBooking(1))
	svc := newTestService(repo, nil, nil)

	b, instructions, err := svc.RequestBankRefund(context.Background(), "user-1", models.RefundRequest{
		BookingID:     1,
		AccountName:   "NGUYEN VAN A",
		AccountNumber: "0123456789",
		Bank:          "VCB",
		Reason:        "schedule conflict",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusPendingRefund, b.Status)
	require.Equal(t, "NGUYEN VAN A", b.AccountName)
	require.Equal(t, "HOANTIEN TOUR100", instructions.TransferReference)
	require.Equal(t, "VCB", instructions.Bank)
}

func TestRequestBankRefundValidation(t *testing.T) {
	svc := newTestService(newFakeBookingRepo(paidBooking(1)), nil, nil)

	_, _, err := svc.RequestBankRefund(context.Background(), "user-1", models.RefundRequest{
		BookingID: 1,
		Reason:    "schedule conflict",
	})
	require.True(t, IsValidation(err))

	_, _, err = svc.RequestBankRefund(context.Background(), "user-1", models.RefundRequest{
		BookingID:     1,
		AccountName:   "NGUYEN VAN A",
		AccountNumber: "0123456789",
		Bank:          "VCB",
	})
	require.True(t, IsValidation(err))
}

func TestRefundSettlementGatedOnLedger(t *testing.T) {
	b := paidBooking(1)
	b.Status = models.StatusPendingRefund
	b.CancelReason = "schedule conflict"
	repo := newFakeBookingRepo(b)
	ledger := &fakeLedger{script: []error{ErrReconciliationNotFound, nil}}
	svc := newTestService(repo, nil, ledger)

	// Transfer not yet settled: the commit is refused with the recoverable
	// sentinel, not a transition rejection.
	_, err := svc.CommitTransitionFor(context.Background(), "user-1", 1, models.StatusCancelled, ActorCustomer, "")
	require.ErrorIs(t, err, ErrReconciliationNotFound)
	require.Zero(t, repo.commits)

	// Once the ledger sees the transfer, the same call succeeds.
	updated, err := svc.CommitTransitionFor(context.Background(), "user-1", 1, models.StatusCancelled, ActorCustomer, "")
	require.NoError(t, err)
	require.Equal(t, models.StatusCancelled, updated.Status)
	require.Equal(t, 2, ledger.calls)
}

func TestRefundSettlementUsesStoredReason(t *testing.T) {
	// The reason was recorded at refund request time; the reconciliation
	// commit passes none and must still satisfy the guard.
	b := paidBooking(1)
	b.Status = models.StatusPendingRefund
	b.CancelReason = "schedule conflict"
	svc := newTestService(newFakeBookingRepo(b), nil, &fakeLedger{})

	updated, err := svc.CommitTransitionFor(context.Background(), "user-1", 1, models.StatusCancelled, ActorCustomer, "")
	require.NoError(t, err)
	require.Equal(t, models.StatusCancelled, updated.Status)
}

func TestSubmitReviewOwnership(t *testing.T) {
	repo := newFakeBookingRepo(paidBooking(1))
	svc := newTestService(repo, nil, nil)

	_, err := svc.SubmitReview(context.Background(), "someone-else", models.ReviewRequest{
		BookingID: 1, Rating: 5, Comment: "great trip",
	})
	require.ErrorIs(t, err, ErrBookingNotFound)

	b, err := svc.SubmitReview(context.Background(), "user-1", models.ReviewRequest{
		BookingID: 1, Rating: 5, Comment: "great trip",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusReviewed, b.Status)
}

func TestCancelOtherUsersBookingRefused(t *testing.T) {
	repo := newFakeBookingRepo(paidBooking(1))
	wallet := &fakeWallet{}
	svc := newTestService(repo, wallet, nil)

	// An authenticated customer pointing at someone else's booking gets the
	// same answer as for a booking that does not exist, and nothing moves.
	_, err := svc.CancelWithCoinRefund(context.Background(), "attacker", 1, ActorCustomer, "changed my mind")
	require.ErrorIs(t, err, ErrBookingNotFound)
	require.Empty(t, wallet.credits)

	b, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, models.StatusPaid, b.Status)
	require.Zero(t, repo.commits)
}

func TestRefundRequestRequiresOwnership(t *testing.T) {
	repo := newFakeBookingRepo(paidBooking(1))
	svc := newTestService(repo, nil, nil)

	_, _, err := svc.RequestBankRefund(context.Background(), "attacker", models.RefundRequest{
		BookingID:     1,
		AccountName:   "MALLORY",
		AccountNumber: "9999999999",
		Bank:          "VCB",
		Reason:        "give me the money",
	})
	require.ErrorIs(t, err, ErrBookingNotFound)

	b, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, models.StatusPaid, b.Status)
	require.Empty(t, b.AccountNumber)
}

func TestCommitTransitionForRequiresOwnership(t *testing.T) {
	repo := newFakeBookingRepo(paidBooking(1))
	svc := newTestService(repo, nil, nil)

	_, err := svc.CommitTransitionFor(context.Background(), "attacker", 1, models.StatusCancelled, ActorCustomer, "nope")
	require.ErrorIs(t, err, ErrBookingNotFound)
	require.Zero(t, repo.commits)

	// The trusted entry carries no identity, so a customer actor through it
	// can never match a real owner either.
	_, err = svc.CommitTransition(context.Background(), 1, models.StatusCancelled, ActorCustomer, "nope")
	require.ErrorIs(t, err, ErrBookingNotFound)
	require.Zero(t, repo.commits)
}

func TestCustomerCannotSelfConfirmPayment(t *testing.T) {
	b := paidBooking(1)
	b.Status = models.StatusPendingPayment
	repo := newFakeBookingRepo(b)
	svc := newTestService(repo, nil, nil)

	// Payment confirmation is the gateway's call, never the customer's.
	_, err := svc.CommitTransitionFor(context.Background(), "user-1", 1, models.StatusPaid, ActorCustomer, "")
	require.True(t, IsTransitionRejected(err))
	require.Zero(t, repo.commits)

	updated, err := svc.CommitTransition(context.Background(), 1, models.StatusPaid, ActorSystem, "")
	require.NoError(t, err)
	require.Equal(t, models.StatusPaid, updated.Status)
}

func TestConfirmPaymentTransientFault(t *testing.T) {
	b := paidBooking(1)
	b.Status = models.StatusPendingConfirmation
	repo := newFakeBookingRepo(b)
	svc := newTestService(repo, nil, nil)

	repo.commitErr = errors.New("mongo: connection reset")
	_, err := svc.CommitTransition(context.Background(), 1, models.StatusPaid, ActorAdmin, "")
	require.True(t, IsTransient(err))

	// The booking stays where it was so the admin can simply retry.
	repo.commitErr = nil
	current, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, models.StatusPendingConfirmation, current.Status)

	updated, err := svc.CommitTransition(context.Background(), 1, models.StatusPaid, ActorAdmin, "")
	require.NoError(t, err)
	require.Equal(t, models.StatusPaid, updated.Status)
}

func TestSubmitReviewRatingBounds(t *testing.T) {
	svc := newTestService(newFakeBookingRepo(paidBooking(1)), nil, nil)
	_, err := svc.SubmitReview(context.Background(), "user-1", models.ReviewRequest{
		BookingID: 1, Rating: 6,
	})
	require.True(t, IsValidation(err))
}

func TestExpireOverduePayments(t *testing.T) {
	deadline := time.Now().Add(-time.Hour)
	overdue := &models.Booking{
		BookingID: 2, BookingCode: "TOUR200", UserID: "user-2",
		Status: models.StatusPendingPayment, TimeLimit: &deadline,
	}
	fresh := &models.Booking{
		BookingID: 3, BookingCode: "TOUR300", UserID: "user-3",
		Status: models.StatusPendingPayment,
	}
	repo := newFakeBookingRepo(overdue, fresh)
	svc := newTestService(repo, nil, nil)

	flagged, err := svc.ExpireOverduePayments(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, flagged)

	b, err := repo.GetByID(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, models.StatusOverduePayment, b.Status)

	b, err = repo.GetByID(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, models.StatusPendingPayment, b.Status)
}

func TestCancelOverdueBookings(t *testing.T) {
	overdue := &models.Booking{
		BookingID: 4, BookingCode: "TOUR400", UserID: "user-4",
		Status: models.StatusOverduePayment,
	}
	repo := newFakeBookingRepo(overdue, paidBooking(1))
	svc := newTestService(repo, nil, nil)

	cancelled, err := svc.CancelOverdueBookings(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, cancelled)

	b, err := repo.GetByID(context.Background(), 4)
	require.NoError(t, err)
	require.Equal(t, models.StatusCancelled, b.Status)

	// A second sweep finds nothing left to cancel.
	cancelled, err = svc.CancelOverdueBookings(context.Background())
	require.NoError(t, err)
	require.Zero(t, cancelled)
}
