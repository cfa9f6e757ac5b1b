package out

import (
	"context"

	"airpool/internal/pool/domain"
)

// RideStore — интерфейс хранилища поездок
type RideStore interface {
	// Create создает новую поездку
	Create(ctx context.Context, ride *domain.Ride) error

	// FindByID возвращает поездку по ID
	FindByID(ctx context.Context, rideID string) (*domain.Ride, error)

	// FindState возвращает полный снимок поездки: участники со спецификациями
	// и оба списка остановок
	FindState(ctx context.Context, rideID string) (*domain.RideState, error)

	// Update обновляет существующую поездку
	Update(ctx context.Context, ride *domain.Ride) error

	// Delete удаляет поездку (остановки и связки удаляются каскадно)
	Delete(ctx context.Context, rideID string) error
}

// MembershipStore — интерфейс хранилища связок участия
type MembershipStore interface {
	// Create создает новую связку
	Create(ctx context.Context, m *domain.Membership) error

	// FindByID возвращает связку по ID
	FindByID(ctx context.Context, membershipID string) (*domain.Membership, error)

	// FindByRiderID возвращает все связки спецификации
	FindByRiderID(ctx context.Context, riderID string) ([]domain.Membership, error)

	// FindActiveByRiderID возвращает связки спецификации с активным статусом
	FindActiveByRiderID(ctx context.Context, riderID string) ([]domain.Membership, error)

	// FindSuspendedByRiderID возвращает приостановленные связки спецификации
	FindSuspendedByRiderID(ctx context.Context, riderID string) ([]domain.Membership, error)

	// Update обновляет существующую связку
	Update(ctx context.Context, m *domain.Membership) error

	// Delete удаляет связку
	Delete(ctx context.Context, membershipID string) error
}

// StopStore — интерфейс хранилища остановок. Save-методы обязаны соблюдать
// немедленный UNIQUE (ride_id, ordinal): последовательность сохранения
// выбирает вызывающий.
type StopStore interface {
	CreateCity(ctx context.Context, s *domain.CityStop) error
	UpdateCity(ctx context.Context, s *domain.CityStop) error
	DeleteCity(ctx context.Context, stopIDs []string) error
	ListCityByRide(ctx context.Context, rideID string) ([]domain.CityStop, error)

	CreateTerminal(ctx context.Context, s *domain.TerminalStop) error
	UpdateTerminal(ctx context.Context, s *domain.TerminalStop) error
	DeleteTerminal(ctx context.Context, stopIDs []string) error
	ListTerminalByRide(ctx context.Context, rideID string) ([]domain.TerminalStop, error)
}

// ProposalStore — интерфейс хранилища запросов на изменение (вместе с их
// списками удаляемых остановок)
type ProposalStore interface {
	Create(ctx context.Context, p *domain.ChangeProposal) error
	FindByID(ctx context.Context, proposalID string) (*domain.ChangeProposal, error)
	FindByMembershipID(ctx context.Context, membershipID string) (*domain.ChangeProposal, error)
	Update(ctx context.Context, p *domain.ChangeProposal) error
	Delete(ctx context.Context, proposalID string) error
}

// RiderStore — внешний коллаборатор: чтение спецификаций путешественников
type RiderStore interface {
	FindByID(ctx context.Context, riderID string) (*domain.Rider, error)
}
