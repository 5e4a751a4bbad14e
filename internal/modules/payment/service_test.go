package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Jovan-creator/armaflex-sub001/internal/domain"
	"github.com/Jovan-creator/armaflex-sub001/internal/pkg/lock"
	"github.com/Jovan-creator/armaflex-sub001/internal/repository"
)

/* ==================== MOCKS ==================== */

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByProviderReference(ctx context.Context, ref string) (*domain.Payment, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListByReservation(ctx context.Context, reservationID int64) ([]domain.Payment, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListRefundsByPayment(ctx context.Context, paymentID int64) ([]domain.Refund, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Refund), args.Error(1)
}

func (m *MockPaymentRepository) UpdateStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockPaymentRepository) SaveRefund(ctx context.Context, refund *domain.Refund, paymentStatus domain.PaymentStatus, reservationID int64, rollup domain.PaymentRollup) error {
	args := m.Called(ctx, refund, paymentStatus, reservationID, rollup)
	return args.Error(0)
}

func (m *MockPaymentRepository) ReservationIDsWithPayments(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

type MockReservationReader struct {
	mock.Mock
}

func (m *MockReservationReader) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

type MockRollupWriter struct {
	mock.Mock
}

func (m *MockRollupWriter) UpdatePaymentRollup(ctx context.Context, id int64, rollup domain.PaymentRollup) error {
	args := m.Called(ctx, id, rollup)
	return args.Error(0)
}

type MockConfirmer struct {
	mock.Mock
}

func (m *MockConfirmer) Confirm(ctx context.Context, id int64, actor domain.Actor) (*domain.Reservation, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

var staff = domain.Actor{UserID: 9, Role: domain.RoleStaff}

/* ==================== ROLLUP RULE ==================== */

func TestComputeRollup(t *testing.T) {
	succeeded := func(amount float64) domain.Payment {
		return domain.Payment{Amount: amount, Status: domain.PaymentSucceeded}
	}

	cases := []struct {
		name     string
		payments []domain.Payment
		refunds  float64
		total    float64
		want     domain.PaymentRollup
	}{
		{"no payments", nil, 0, 100, domain.RollupPending},
		{"failed only", []domain.Payment{{Amount: 100, Status: domain.PaymentFailed}}, 0, 100, domain.RollupPending},
		{"full payment", []domain.Payment{succeeded(100)}, 0, 100, domain.RollupPaid},
		{"partial payment", []domain.Payment{succeeded(60)}, 0, 100, domain.RollupPartial},
		{"two payments covering total", []domain.Payment{succeeded(60), succeeded(40)}, 0, 100, domain.RollupPaid},
		{"paid then partially refunded", []domain.Payment{succeeded(100)}, 40, 100, domain.RollupPartial},
		{"fully refunded", []domain.Payment{succeeded(100)}, 100, 100, domain.RollupRefunded},
		{"float noise still paid", []domain.Payment{succeeded(33.33), succeeded(33.33), succeeded(33.34)}, 0, 100, domain.RollupPaid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := computeRollup(tc.payments, tc.refunds, tc.total)
			assert.Equal(t, tc.want, got)
		})
	}
}

/* ==================== PAYMENTS ==================== */

func TestRecordPayment_CreatesAndRollsUp(t *testing.T) {
	ctx := context.Background()

	reservation := &domain.Reservation{ID: 1, Status: domain.ReservationConfirmed, PaymentStatus: domain.RollupPending, TotalAmount: 100}

	payments := new(MockPaymentRepository)
	reservations := new(MockReservationReader)
	rollups := new(MockRollupWriter)

	reservations.On("GetByID", ctx, int64(1)).Return(reservation, nil)
	payments.On("GetByProviderReference", ctx, "prov-1").Return(nil, repository.ErrNotFound)
	payments.On("Create", ctx, mock.MatchedBy(func(p *domain.Payment) bool {
		return p.ReservationID == 1 && p.Amount == 100 && p.Status == domain.PaymentSucceeded
	})).Return(nil)
	payments.On("ListByReservation", ctx, int64(1)).
		Return([]domain.Payment{{ID: 10, Amount: 100, Status: domain.PaymentSucceeded}}, nil)
	payments.On("ListRefundsByPayment", ctx, int64(10)).Return([]domain.Refund{}, nil)
	rollups.On("UpdatePaymentRollup", ctx, int64(1), domain.RollupPaid).Return(nil)

	service := NewService(payments, reservations, rollups, nil, lock.NewKeyed(), nil)

	p, err := service.RecordPayment(ctx, RecordPaymentRequest{
		ReservationID:     1,
		Amount:            100,
		Currency:          "USD",
		Method:            "card",
		ProviderReference: "prov-1",
		Status:            "succeeded",
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentSucceeded, p.Status)
	rollups.AssertExpectations(t)
}

func TestRecordPayment_IdempotentByProviderReference(t *testing.T) {
	ctx := context.Background()

	reservation := &domain.Reservation{ID: 1, Status: domain.ReservationConfirmed, PaymentStatus: domain.RollupPaid, TotalAmount: 100}
	existing := &domain.Payment{ID: 10, ReservationID: 1, Amount: 100, Status: domain.PaymentSucceeded, ProviderReference: "prov-1"}

	payments := new(MockPaymentRepository)
	reservations := new(MockReservationReader)

	reservations.On("GetByID", ctx, int64(1)).Return(reservation, nil)
	payments.On("GetByProviderReference", ctx, "prov-1").Return(existing, nil)

	service := NewService(payments, reservations, new(MockRollupWriter), nil, lock.NewKeyed(), nil)

	p, err := service.RecordPayment(ctx, RecordPaymentRequest{
		ReservationID:     1,
		Amount:            100,
		ProviderReference: "prov-1",
		Status:            "succeeded",
	})

	assert.NoError(t, err)
	assert.Equal(t, existing, p)
	payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	payments.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordPayment_SucceededConfirmsPendingHold(t *testing.T) {
	ctx := context.Background()

	reservation := &domain.Reservation{ID: 2, Status: domain.ReservationPending, PaymentStatus: domain.RollupPending, TotalAmount: 100}

	payments := new(MockPaymentRepository)
	reservations := new(MockReservationReader)
	rollups := new(MockRollupWriter)
	confirmer := new(MockConfirmer)

	reservations.On("GetByID", ctx, int64(2)).Return(reservation, nil)
	payments.On("GetByProviderReference", ctx, "prov-2").Return(nil, repository.ErrNotFound)
	payments.On("Create", ctx, mock.Anything).Return(nil)
	payments.On("ListByReservation", ctx, int64(2)).
		Return([]domain.Payment{{ID: 11, Amount: 100, Status: domain.PaymentSucceeded}}, nil)
	payments.On("ListRefundsByPayment", ctx, int64(11)).Return([]domain.Refund{}, nil)
	rollups.On("UpdatePaymentRollup", ctx, int64(2), domain.RollupPaid).Return(nil)
	confirmer.On("Confirm", ctx, int64(2), mock.Anything).
		Return(&domain.Reservation{ID: 2, Status: domain.ReservationConfirmed}, nil)

	service := NewService(payments, reservations, rollups, confirmer, lock.NewKeyed(), nil)

	_, err := service.RecordPayment(ctx, RecordPaymentRequest{
		ReservationID:     2,
		Amount:            100,
		ProviderReference: "prov-2",
		Status:            "succeeded",
	})

	assert.NoError(t, err)
	confirmer.AssertExpectations(t)
}

// The rollup short-circuit compares against reservation.PaymentStatus, so
// the reservation has to be read inside the per-reservation lock: a read
// taken while queued behind another writer would see the state that
// writer is about to replace and skip a needed rollup write.
func TestRecordPayment_ReadsReservationUnderLock(t *testing.T) {
	ctx := context.Background()

	reservation := &domain.Reservation{ID: 1, Status: domain.ReservationConfirmed, PaymentStatus: domain.RollupPaid, TotalAmount: 100}

	payments := new(MockPaymentRepository)
	reservations := new(MockReservationReader)
	rollups := new(MockRollupWriter)

	reservations.On("GetByID", ctx, int64(1)).Return(reservation, nil)
	payments.On("GetByProviderReference", ctx, "prov-7").Return(nil, repository.ErrNotFound)
	payments.On("Create", ctx, mock.Anything).Return(nil)
	payments.On("ListByReservation", ctx, int64(1)).
		Return([]domain.Payment{{ID: 12, Amount: 100, Status: domain.PaymentSucceeded}}, nil)
	payments.On("ListRefundsByPayment", ctx, int64(12)).Return([]domain.Refund{}, nil)
	rollups.On("UpdatePaymentRollup", ctx, int64(1), domain.RollupPaid).Return(nil)

	locks := lock.NewKeyed()
	service := NewService(payments, reservations, rollups, nil, locks, nil)

	// A competing writer holds the reservation's lock and downgrades the
	// rollup before releasing it. The callback queues behind it, so its
	// read must see pending, making the paid rollup write mandatory.
	locks.Lock(1)
	done := make(chan error, 1)
	go func() {
		_, err := service.RecordPayment(ctx, RecordPaymentRequest{
			ReservationID:     1,
			Amount:            100,
			ProviderReference: "prov-7",
			Status:            "succeeded",
		})
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	reservation.PaymentStatus = domain.RollupPending
	locks.Unlock(1)

	assert.NoError(t, <-done)
	rollups.AssertExpectations(t)
}

func TestRecordPayment_InvalidStatusRejected(t *testing.T) {
	ctx := context.Background()

	service := NewService(new(MockPaymentRepository), new(MockReservationReader), new(MockRollupWriter), nil, lock.NewKeyed(), nil)

	_, err := service.RecordPayment(ctx, RecordPaymentRequest{
		ReservationID:     1,
		Amount:            100,
		ProviderReference: "prov-x",
		Status:            "maybe",
	})

	assert.ErrorIs(t, err, ErrValidation)
}

/* ==================== REFUNDS ==================== */

func TestRecordRefund_PartialFlipsRollupToPartial(t *testing.T) {
	ctx := context.Background()

	p := &domain.Payment{ID: 10, ReservationID: 1, Amount: 100, Status: domain.PaymentSucceeded}
	reservation := &domain.Reservation{ID: 1, Status: domain.ReservationConfirmed, PaymentStatus: domain.RollupPaid, TotalAmount: 100}

	payments := new(MockPaymentRepository)
	reservations := new(MockReservationReader)

	payments.On("GetByID", ctx, int64(10)).Return(p, nil)
	reservations.On("GetByID", ctx, int64(1)).Return(reservation, nil)
	payments.On("ListRefundsByPayment", ctx, int64(10)).Return([]domain.Refund{}, nil)
	payments.On("ListByReservation", ctx, int64(1)).Return([]domain.Payment{*p}, nil)
	payments.On("SaveRefund", ctx, mock.MatchedBy(func(r *domain.Refund) bool {
		return r.PaymentID == 10 && r.Amount == 40
	}), domain.PaymentPartiallyRefunded, int64(1), domain.RollupPartial).Return(nil)

	service := NewService(payments, reservations, new(MockRollupWriter), nil, lock.NewKeyed(), nil)

	refund, err := service.RecordRefund(ctx, 10, 40, "late cancellation fee waived", staff)

	assert.NoError(t, err)
	assert.Equal(t, 40.0, refund.Amount)
	payments.AssertExpectations(t)
}

func TestRecordRefund_ExceedsRemainingPayment(t *testing.T) {
	ctx := context.Background()

	p := &domain.Payment{ID: 10, ReservationID: 1, Amount: 100, Status: domain.PaymentPartiallyRefunded}
	reservation := &domain.Reservation{ID: 1, Status: domain.ReservationConfirmed, TotalAmount: 100}

	payments := new(MockPaymentRepository)
	reservations := new(MockReservationReader)

	payments.On("GetByID", ctx, int64(10)).Return(p, nil)
	reservations.On("GetByID", ctx, int64(1)).Return(reservation, nil)
	payments.On("ListRefundsByPayment", ctx, int64(10)).Return([]domain.Refund{{PaymentID: 10, Amount: 40}}, nil)

	service := NewService(payments, reservations, new(MockRollupWriter), nil, lock.NewKeyed(), nil)

	_, err := service.RecordRefund(ctx, 10, 70, "overcharge", staff)

	assert.ErrorIs(t, err, ErrRefundExceedsPayment)
	payments.AssertNotCalled(t, "SaveRefund", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordRefund_FullRefundClosesPayment(t *testing.T) {
	ctx := context.Background()

	p := &domain.Payment{ID: 10, ReservationID: 1, Amount: 100, Status: domain.PaymentSucceeded}
	reservation := &domain.Reservation{ID: 1, Status: domain.ReservationCancelled, PaymentStatus: domain.RollupPaid, TotalAmount: 100}

	payments := new(MockPaymentRepository)
	reservations := new(MockReservationReader)

	payments.On("GetByID", ctx, int64(10)).Return(p, nil)
	reservations.On("GetByID", ctx, int64(1)).Return(reservation, nil)
	payments.On("ListRefundsByPayment", ctx, int64(10)).Return([]domain.Refund{}, nil)
	payments.On("ListByReservation", ctx, int64(1)).Return([]domain.Payment{*p}, nil)
	payments.On("SaveRefund", ctx, mock.Anything, domain.PaymentRefunded, int64(1), domain.RollupRefunded).Return(nil)

	service := NewService(payments, reservations, new(MockRollupWriter), nil, lock.NewKeyed(), nil)

	_, err := service.RecordRefund(ctx, 10, 100, "booking cancelled", staff)

	assert.NoError(t, err)
	payments.AssertExpectations(t)
}

func TestRecordRefund_PendingReservationRefused(t *testing.T) {
	ctx := context.Background()

	p := &domain.Payment{ID: 10, ReservationID: 1, Amount: 100, Status: domain.PaymentSucceeded}
	reservation := &domain.Reservation{ID: 1, Status: domain.ReservationPending, TotalAmount: 100}

	payments := new(MockPaymentRepository)
	reservations := new(MockReservationReader)

	payments.On("GetByID", ctx, int64(10)).Return(p, nil)
	reservations.On("GetByID", ctx, int64(1)).Return(reservation, nil)

	service := NewService(payments, reservations, new(MockRollupWriter), nil, lock.NewKeyed(), nil)

	_, err := service.RecordRefund(ctx, 10, 40, "requested", staff)

	assert.ErrorIs(t, err, ErrRefundNotAllowed)
}

/* ==================== RECONCILE ==================== */

func TestReconcile_RepairsDriftedRollup(t *testing.T) {
	ctx := context.Background()

	// rollup says pending but the ledger shows a settled payment
	drifted := &domain.Reservation{ID: 1, Status: domain.ReservationConfirmed, PaymentStatus: domain.RollupPending, TotalAmount: 100}

	payments := new(MockPaymentRepository)
	reservations := new(MockReservationReader)
	rollups := new(MockRollupWriter)

	payments.On("ReservationIDsWithPayments", ctx).Return([]int64{1}, nil)
	reservations.On("GetByID", ctx, int64(1)).Return(drifted, nil)
	payments.On("ListByReservation", ctx, int64(1)).
		Return([]domain.Payment{{ID: 10, Amount: 100, Status: domain.PaymentSucceeded}}, nil)
	payments.On("ListRefundsByPayment", ctx, int64(10)).Return([]domain.Refund{}, nil)
	rollups.On("UpdatePaymentRollup", ctx, int64(1), domain.RollupPaid).Return(nil)

	service := NewService(payments, reservations, rollups, nil, lock.NewKeyed(), nil)

	repaired, err := service.Reconcile(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 1, repaired)
	rollups.AssertExpectations(t)
}
