package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Jovan-creator/armaflex-sub001/internal/domain"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

type paymentModel struct {
	ID                int64     `gorm:"column:id;primaryKey"`
	ReservationID     int64     `gorm:"column:reservation_id;index"`
	Amount            float64   `gorm:"column:amount"`
	Currency          string    `gorm:"column:currency"`
	Method            string    `gorm:"column:method"`
	Status            string    `gorm:"column:status"`
	ProviderReference string    `gorm:"column:provider_reference;uniqueIndex"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (paymentModel) TableName() string { return "payments" }

type refundModel struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	PaymentID int64     `gorm:"column:payment_id;index"`
	Amount    float64   `gorm:"column:amount"`
	Reason    string    `gorm:"column:reason"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (refundModel) TableName() string { return "refunds" }

func toDomainPayment(m paymentModel) *domain.Payment {
	return &domain.Payment{
		ID:                m.ID,
		ReservationID:     m.ReservationID,
		Amount:            m.Amount,
		Currency:          m.Currency,
		Method:            m.Method,
		Status:            domain.PaymentStatus(m.Status),
		ProviderReference: m.ProviderReference,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func toPaymentModel(p *domain.Payment) paymentModel {
	return paymentModel{
		ID:                p.ID,
		ReservationID:     p.ReservationID,
		Amount:            p.Amount,
		Currency:          p.Currency,
		Method:            p.Method,
		Status:            string(p.Status),
		ProviderReference: p.ProviderReference,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func toDomainRefund(m refundModel) *domain.Refund {
	return &domain.Refund{
		ID:        m.ID,
		PaymentID: m.PaymentID,
		Amount:    m.Amount,
		Reason:    m.Reason,
		CreatedAt: m.CreatedAt,
	}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	m := toPaymentModel(p)
	if tx := r.db.WithContext(ctx).Create(&m); tx.Error != nil {
		return translate(tx.Error)
	}
	*p = *toDomainPayment(m)
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	var m paymentModel
	if tx := r.db.WithContext(ctx).First(&m, id); tx.Error != nil {
		return nil, translate(tx.Error)
	}
	return toDomainPayment(m), nil
}

func (r *PaymentRepository) GetByProviderReference(ctx context.Context, ref string) (*domain.Payment, error) {
	var m paymentModel
	tx := r.db.WithContext(ctx).Where("provider_reference = ?", ref).First(&m)
	if tx.Error != nil {
		return nil, translate(tx.Error)
	}
	return toDomainPayment(m), nil
}

func (r *PaymentRepository) ListByReservation(ctx context.Context, reservationID int64) ([]domain.Payment, error) {
	var rows []paymentModel
	tx := r.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("id").
		Find(&rows)
	if tx.Error != nil {
		return nil, translate(tx.Error)
	}

	out := make([]domain.Payment, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainPayment(m))
	}
	return out, nil
}

func (r *PaymentRepository) ListRefundsByPayment(ctx context.Context, paymentID int64) ([]domain.Refund, error) {
	var rows []refundModel
	tx := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("id").
		Find(&rows)
	if tx.Error != nil {
		return nil, translate(tx.Error)
	}

	out := make([]domain.Refund, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainRefund(m))
	}
	return out, nil
}

func (r *PaymentRepository) UpdateStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	tx := r.db.WithContext(ctx).Model(&paymentModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     string(status),
			"updated_at": time.Now().UTC(),
		})
	if tx.Error != nil {
		return translate(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveRefund persists the refund row, the payment's new status and the
// reservation's recomputed rollup in one transaction. Either all three land
// or none do; a half-applied refund would desync money state from booking
// state.
func (r *PaymentRepository) SaveRefund(ctx context.Context, refund *domain.Refund, paymentStatus domain.PaymentStatus, reservationID int64, rollup domain.PaymentRollup) error {
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := refundModel{
			PaymentID: refund.PaymentID,
			Amount:    refund.Amount,
			Reason:    refund.Reason,
			CreatedAt: now,
		}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		refund.ID = m.ID
		refund.CreatedAt = m.CreatedAt

		if err := tx.Model(&paymentModel{}).
			Where("id = ?", refund.PaymentID).
			Updates(map[string]interface{}{
				"status":     string(paymentStatus),
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		return tx.Model(&reservationModel{}).
			Where("id = ?", reservationID).
			Updates(map[string]interface{}{
				"payment_status": string(rollup),
				"updated_at":     now,
			}).Error
	})
	return translate(err)
}

// ReservationIDsWithPayments lists every reservation the reconciliation job
// should re-derive a rollup for.
func (r *PaymentRepository) ReservationIDsWithPayments(ctx context.Context) ([]int64, error) {
	var ids []int64
	tx := r.db.WithContext(ctx).Model(&paymentModel{}).
		Distinct("reservation_id").
		Pluck("reservation_id", &ids)
	if tx.Error != nil {
		return nil, translate(tx.Error)
	}
	return ids, nil
}
