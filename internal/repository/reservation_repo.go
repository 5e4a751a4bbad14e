package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Jovan-creator/armaflex-sub001/internal/domain"
)

type ReservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

type reservationModel struct {
	ID                 int64      `gorm:"column:id;primaryKey"`
	ResourceID         int64      `gorm:"column:resource_id;index"`
	ChannelID          *int64     `gorm:"column:channel_id"`
	BookingReference   string     `gorm:"column:booking_reference;uniqueIndex"`
	OperationID        string     `gorm:"column:operation_id;uniqueIndex"`
	StartAt            time.Time  `gorm:"column:start_at;index"`
	EndAt              time.Time  `gorm:"column:end_at"`
	Adults             int        `gorm:"column:adults"`
	Children           int        `gorm:"column:children"`
	Status             string     `gorm:"column:status;index"`
	PaymentStatus      string     `gorm:"column:payment_status"`
	TotalAmount        float64    `gorm:"column:total_amount"`
	Currency           string     `gorm:"column:currency"`
	HoldExpiresAt      *time.Time `gorm:"column:hold_expires_at"`
	Conflict           bool       `gorm:"column:conflict"`
	SpecialRequests    *string    `gorm:"column:special_requests"`
	InternalNotes      *string    `gorm:"column:internal_notes"`
	CancellationReason *string    `gorm:"column:cancellation_reason"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
	CancelledAt        *time.Time `gorm:"column:cancelled_at"`
}

func (reservationModel) TableName() string { return "reservations" }

func strOrEmpty(p *string) string {
	if p != nil {
		return *p
	}
	return ""
}

func strOrNil(s string) *string {
	if s == "" {
		return nil
	}
	v := s
	return &v
}

func toDomainReservation(m reservationModel) *domain.Reservation {
	return &domain.Reservation{
		ID:                 m.ID,
		ResourceID:         m.ResourceID,
		ChannelID:          m.ChannelID,
		BookingReference:   m.BookingReference,
		OperationID:        m.OperationID,
		StartAt:            m.StartAt,
		EndAt:              m.EndAt,
		Adults:             m.Adults,
		Children:           m.Children,
		Status:             domain.ReservationStatus(m.Status),
		PaymentStatus:      domain.PaymentRollup(m.PaymentStatus),
		TotalAmount:        m.TotalAmount,
		Currency:           m.Currency,
		HoldExpiresAt:      m.HoldExpiresAt,
		Conflict:           m.Conflict,
		SpecialRequests:    strOrEmpty(m.SpecialRequests),
		InternalNotes:      strOrEmpty(m.InternalNotes),
		CancellationReason: strOrEmpty(m.CancellationReason),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
		CancelledAt:        m.CancelledAt,
	}
}

func toReservationModel(r *domain.Reservation) reservationModel {
	return reservationModel{
		ID:                 r.ID,
		ResourceID:         r.ResourceID,
		ChannelID:          r.ChannelID,
		BookingReference:   r.BookingReference,
		OperationID:        r.OperationID,
		StartAt:            r.StartAt,
		EndAt:              r.EndAt,
		Adults:             r.Adults,
		Children:           r.Children,
		Status:             string(r.Status),
		PaymentStatus:      string(r.PaymentStatus),
		TotalAmount:        r.TotalAmount,
		Currency:           r.Currency,
		HoldExpiresAt:      r.HoldExpiresAt,
		Conflict:           r.Conflict,
		SpecialRequests:    strOrNil(r.SpecialRequests),
		InternalNotes:      strOrNil(r.InternalNotes),
		CancellationReason: strOrNil(r.CancellationReason),
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
		CancelledAt:        r.CancelledAt,
	}
}

func (r *ReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	m := toReservationModel(res)
	if tx := r.db.WithContext(ctx).Create(&m); tx.Error != nil {
		return translate(tx.Error)
	}
	*res = *toDomainReservation(m)
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	var m reservationModel
	if tx := r.db.WithContext(ctx).First(&m, id); tx.Error != nil {
		return nil, translate(tx.Error)
	}
	return toDomainReservation(m), nil
}

func (r *ReservationRepository) GetByReference(ctx context.Context, ref string) (*domain.Reservation, error) {
	var m reservationModel
	tx := r.db.WithContext(ctx).Where("booking_reference = ?", ref).First(&m)
	if tx.Error != nil {
		return nil, translate(tx.Error)
	}
	return toDomainReservation(m), nil
}

func (r *ReservationRepository) GetByOperationID(ctx context.Context, opID string) (*domain.Reservation, error) {
	var m reservationModel
	tx := r.db.WithContext(ctx).Where("operation_id = ?", opID).First(&m)
	if tx.Error != nil {
		return nil, translate(tx.Error)
	}
	return toDomainReservation(m), nil
}

// FindBlocking returns every reservation that blocks [start, end) on the
// resource at the given moment: confirmed-or-later non-failed statuses, plus
// pending holds whose TTL has not passed. Expired holds are excluded here
// rather than eagerly deleted, the sweeper cancels them later.
func (r *ReservationRepository) FindBlocking(ctx context.Context, resourceID int64, start, end, now time.Time) ([]domain.Reservation, error) {
	var rows []reservationModel
	tx := r.db.WithContext(ctx).
		Where("resource_id = ?", resourceID).
		Where("start_at < ? AND ? < end_at", end, start).
		Where(
			r.db.Where("status IN ?", []string{
				string(domain.ReservationConfirmed),
				string(domain.ReservationCheckedIn),
				string(domain.ReservationCompleted),
			}).Or("status = ? AND hold_expires_at > ?", string(domain.ReservationPending), now),
		).
		Order("start_at").
		Find(&rows)
	if tx.Error != nil {
		return nil, translate(tx.Error)
	}

	out := make([]domain.Reservation, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainReservation(m))
	}
	return out, nil
}

// UpdateStatusIf flips status from -> to only when the row is still in the
// expected state, so concurrent transitions cannot clobber each other. The
// returned bool reports whether the row was updated.
func (r *ReservationRepository) UpdateStatusIf(ctx context.Context, id int64, from, to domain.ReservationStatus, fields map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{
		"status":     string(to),
		"updated_at": time.Now().UTC(),
	}
	for k, v := range fields {
		updates[k] = v
	}

	tx := r.db.WithContext(ctx).Model(&reservationModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)
	if tx.Error != nil {
		return false, translate(tx.Error)
	}
	return tx.RowsAffected > 0, nil
}

func (r *ReservationRepository) UpdatePaymentRollup(ctx context.Context, id int64, rollup domain.PaymentRollup) error {
	tx := r.db.WithContext(ctx).Model(&reservationModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"payment_status": string(rollup),
			"updated_at":     time.Now().UTC(),
		})
	if tx.Error != nil {
		return translate(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListExpiredHolds feeds the hold sweeper. Results are capped so one sweep
// cannot stall on a backlog.
func (r *ReservationRepository) ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]domain.Reservation, error) {
	var rows []reservationModel
	tx := r.db.WithContext(ctx).
		Where("status = ? AND hold_expires_at IS NOT NULL AND hold_expires_at <= ?",
			string(domain.ReservationPending), now).
		Limit(limit).
		Find(&rows)
	if tx.Error != nil {
		return nil, translate(tx.Error)
	}

	out := make([]domain.Reservation, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainReservation(m))
	}
	return out, nil
}

// CountOpen counts reservations that still tie up the resource; used to
// refuse deactivating a resource that guests are still booked into.
func (r *ReservationRepository) CountOpen(ctx context.Context, resourceID int64) (int64, error) {
	var cnt int64
	tx := r.db.WithContext(ctx).Model(&reservationModel{}).
		Where("resource_id = ? AND status IN ?", resourceID, []string{
			string(domain.ReservationPending),
			string(domain.ReservationConfirmed),
			string(domain.ReservationCheckedIn),
		}).
		Count(&cnt)
	if tx.Error != nil {
		return 0, translate(tx.Error)
	}
	return cnt, nil
}

// CountOpenDirect counts open reservations taken outside any channel
// quota. Channel allocations may only carve up what direct bookings have
// not already consumed.
func (r *ReservationRepository) CountOpenDirect(ctx context.Context, resourceID int64) (int64, error) {
	var cnt int64
	tx := r.db.WithContext(ctx).Model(&reservationModel{}).
		Where("resource_id = ? AND channel_id IS NULL AND status IN ?", resourceID, []string{
			string(domain.ReservationPending),
			string(domain.ReservationConfirmed),
			string(domain.ReservationCheckedIn),
		}).
		Count(&cnt)
	if tx.Error != nil {
		return 0, translate(tx.Error)
	}
	return cnt, nil
}

// ReservationDetails is the admin-table row joining reservation and
// resource columns.
type ReservationDetails struct {
	ID               int64     `json:"id"`
	BookingReference string    `json:"booking_reference"`
	Status           string    `json:"status"`
	PaymentStatus    string    `json:"payment_status"`
	StartAt          time.Time `json:"start_at"`
	EndAt            time.Time `json:"end_at"`
	TotalAmount      float64   `json:"total_amount"`
	Conflict         bool      `json:"conflict"`
	ResourceID       int64     `json:"resource_id"`
	ResourceName     string    `json:"resource_name"`
	ResourceKind     string    `json:"resource_kind"`
}

func (r *ReservationRepository) ListWithResourceDetails(ctx context.Context, resourceID int64, limit, offset int) ([]ReservationDetails, error) {
	q := `
SELECT rs.id, rs.booking_reference, rs.status, rs.payment_status,
       rs.start_at, rs.end_at, rs.total_amount, rs.conflict,
       rs.resource_id, rc.name AS resource_name, rc.kind AS resource_kind
FROM reservations rs
JOIN resources rc ON rc.id = rs.resource_id
`
	args := []interface{}{}
	if resourceID > 0 {
		q += "WHERE rs.resource_id = ?\n"
		args = append(args, resourceID)
	}
	q += "ORDER BY rs.start_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []ReservationDetails
	if tx := r.db.WithContext(ctx).Raw(q, args...).Scan(&rows); tx.Error != nil {
		return nil, translate(tx.Error)
	}
	return rows, nil
}
