package channel

import (
	"context"
	"time"

	"github.com/Jovan-creator/armaflex-sub001/internal/domain"
	"github.com/Jovan-creator/armaflex-sub001/internal/modules/availability"
	"github.com/Jovan-creator/armaflex-sub001/internal/modules/pricing"
)

type ChannelRepository interface {
	CreateChannel(ctx context.Context, ch *domain.Channel) error
	GetChannelByID(ctx context.Context, id int64) (*domain.Channel, error)
	GetChannelByCode(ctx context.Context, code string) (*domain.Channel, error)
	ListChannels(ctx context.Context, activeOnly bool) ([]domain.Channel, error)
	SetChannelActive(ctx context.Context, id int64, active bool) error
	GetAllocation(ctx context.Context, resourceID, channelID int64) (*domain.ChannelAllocation, error)
	ListAllocations(ctx context.Context, resourceID int64) ([]domain.ChannelAllocation, error)
	SumAllocations(ctx context.Context, resourceID int64, excludeChannelID int64) (int, error)
	UpsertAllocation(ctx context.Context, resourceID, channelID int64, count int) (*domain.ChannelAllocation, error)
	DeleteAllocationsForChannel(ctx context.Context, channelID int64) error
	TouchLastSynced(ctx context.Context, resourceID, channelID int64, at time.Time) error
}

// SyncOutbox stores outbound notifications until the worker delivers them.
type SyncOutbox interface {
	Enqueue(ctx context.Context, evt *domain.SyncEvent) error
	Due(ctx context.Context, now time.Time, limit int) ([]domain.SyncEvent, error)
	MarkSent(ctx context.Context, id int64) error
	MarkRetry(ctx context.Context, id int64, attempts int, nextAttempt time.Time, lastErr string) error
	MarkFailed(ctx context.Context, id int64, lastErr string) error
}

type ReservationRepository interface {
	Create(ctx context.Context, r *domain.Reservation) error
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	GetByReference(ctx context.Context, ref string) (*domain.Reservation, error)
	GetByOperationID(ctx context.Context, opID string) (*domain.Reservation, error)
	UpdateStatusIf(ctx context.Context, id int64, from, to domain.ReservationStatus, fields map[string]interface{}) (bool, error)
	CountOpenDirect(ctx context.Context, resourceID int64) (int64, error)
}

type ResourceReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Resource, error)
}

type Quoter interface {
	Quote(ctx context.Context, resourceID int64, start, end time.Time, adults, children int) (*pricing.Quote, error)
}

type Reserver interface {
	TryReserve(ctx context.Context, req availability.TryReserveRequest) (*domain.Reservation, error)
}

// Publisher delivers a sync payload to a channel's transport queue.
type Publisher interface {
	Publish(ctx context.Context, channelCode string, payload interface{}) error
}
