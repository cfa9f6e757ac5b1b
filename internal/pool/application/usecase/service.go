package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"airpool/internal/model"
	"airpool/internal/pool/application/ports/out"
	"airpool/internal/pool/domain"
	"airpool/internal/shared/logger"

	"github.com/google/uuid"
)

// LifecycleService реализует все операции жизненного цикла участия. Каждая
// публичная операция выполняется в одной атомарной транзакции; накопленные
// события публикуются менеджером транзакций после commit.
type LifecycleService struct {
	log    *logger.Logger
	txm    out.TxManager
	riders out.RiderStore
	places out.PlaceResolver
	seq    *StopSequencer
}

// NewLifecycleService создает сервис жизненного цикла
func NewLifecycleService(
	log *logger.Logger,
	txm out.TxManager,
	riders out.RiderStore,
	places out.PlaceResolver,
) *LifecycleService {
	return &LifecycleService{
		log:    log,
		txm:    txm,
		riders: riders,
		places: places,
		seq:    NewStopSequencer(log),
	}
}

func (s *LifecycleService) loadState(ctx context.Context, tx out.Tx, rideID string) (*domain.RideState, error) {
	st, err := tx.Rides().FindState(ctx, rideID)
	if err != nil {
		return nil, fmt.Errorf("load ride state %s: %w", rideID, err)
	}
	return st, nil
}

func newEvent(eventType, rideID, riderID, membershipID string, data map[string]any) domain.Event {
	return domain.Event{
		ID:           uuid.New().String(),
		EventType:    eventType,
		RideID:       rideID,
		RiderID:      riderID,
		MembershipID: membershipID,
		Data:         data,
		CreatedAt:    time.Now().UTC(),
	}
}

// suspendRide приостанавливает поездку без попутчиков: статус disabled,
// связка уникального участника переводится в suspend.
func (s *LifecycleService) suspendRide(ctx context.Context, tx out.Tx, st *domain.RideState) error {
	owner, ok := st.UniqueMember()
	if !ok {
		return domain.ErrMembersNotLoaded
	}
	st.Ride.Status = model.RideStatusDisabled
	st.Ride.UpdatedAt = time.Now().UTC()
	if err := tx.Rides().Update(ctx, &st.Ride); err != nil {
		return fmt.Errorf("suspend ride %s: %w", st.Ride.ID, err)
	}
	owner.Membership.Status = model.MemberStatusSuspend
	owner.Membership.UpdatedAt = time.Now().UTC()
	if err := tx.Memberships().Update(ctx, &owner.Membership); err != nil {
		return fmt.Errorf("suspend membership %s: %w", owner.Membership.ID, err)
	}
	st.ReplaceMember(owner)
	tx.Buffer(newEvent(model.EventRideSuspended, st.Ride.ID, owner.Rider.ID, owner.Membership.ID, nil))
	return nil
}

// destroyRide уничтожает поездку; связки и остановки удаляются каскадно.
func (s *LifecycleService) destroyRide(ctx context.Context, tx out.Tx, st *domain.RideState) error {
	if err := tx.Rides().Delete(ctx, st.Ride.ID); err != nil {
		return fmt.Errorf("destroy ride %s: %w", st.Ride.ID, err)
	}
	tx.Buffer(newEvent(model.EventRideDestroyed, st.Ride.ID, "", "", map[string]any{
		"ride_type": st.Ride.Type,
	}))
	return nil
}

// reactivateSuspended возвращает в строй приостановленные поездки участника.
// excludeRideID нужен при каскаде: связка в умирающей поездке еще числится
// в хранилище и не должна попасть под реактивацию.
func (s *LifecycleService) reactivateSuspended(ctx context.Context, tx out.Tx, riderID, excludeRideID string) error {
	suspended, err := tx.Memberships().FindSuspendedByRiderID(ctx, riderID)
	if err != nil {
		return fmt.Errorf("find suspended memberships of %s: %w", riderID, err)
	}
	for i := range suspended {
		m := suspended[i]
		if m.RideID == excludeRideID {
			continue
		}
		ride, err := tx.Rides().FindByID(ctx, m.RideID)
		if err != nil {
			return fmt.Errorf("load suspended ride %s: %w", m.RideID, err)
		}
		ride.Status = model.RideStatusOpen
		ride.UpdatedAt = time.Now().UTC()
		if err := tx.Rides().Update(ctx, ride); err != nil {
			return fmt.Errorf("reactivate ride %s: %w", ride.ID, err)
		}
		m.Status = model.RideUniqueStatusFor(ride.Type)
		m.UpdatedAt = time.Now().UTC()
		if err := tx.Memberships().Update(ctx, &m); err != nil {
			return fmt.Errorf("reactivate membership %s: %w", m.ID, err)
		}
		tx.Buffer(newEvent(model.EventRideReactivated, ride.ID, riderID, m.ID, nil))
	}
	return nil
}

// rewriteRideFromRider переписывает условия поездки по спецификации владельца:
// дата, время, вместимость и предпочтения берутся из spec, все прежние
// остановки сбрасываются до остановок самого владельца.
func (s *LifecycleService) rewriteRideFromRider(ctx context.Context, tx out.Tx, st *domain.RideState, owner domain.MemberView) error {
	spec := owner.Rider
	st.Ride.Date = spec.Date
	st.Ride.StartTime = spec.StartTime
	st.Ride.Toward = spec.Toward
	st.Ride.AirportID = spec.AirportID
	st.Ride.AggloID = spec.AggloID
	st.Ride.SeatCount = spec.SeatCount
	st.Ride.LuggageCount = spec.LuggageCount
	st.Ride.BabySeatCount = spec.BabySeatCount
	st.Ride.SportGearCount = spec.SportGearCount
	st.Ride.PayMethod = spec.PayPref
	st.Ride.SmokePolicy = spec.SmokePref
	st.Ride.PetPolicy = spec.PetPref
	st.Ride.CurbPolicy = spec.CurbPref
	if st.Ride.Status == model.RideStatusFull || st.Ride.Status == model.RideStatusClosed {
		st.Ride.Status = model.RideStatusOpen
	}

	patch := StopPatch{}
	for _, cs := range st.CityStops {
		patch.DropCityIDs = append(patch.DropCityIDs, cs.ID)
	}
	for _, ts := range st.TerminalStops {
		patch.DropTerminalIDs = append(patch.DropTerminalIDs, ts.ID)
	}
	patch.NewCity = &domain.CityStop{
		MembershipID:   owner.Membership.ID,
		NeighborhoodID: spec.NeighborhoodID,
		Ordinal:        0,
	}
	if spec.TerminalID != "" {
		patch.NewTerminal = &domain.TerminalStop{
			MembershipID: owner.Membership.ID,
			TerminalID:   spec.TerminalID,
			Ordinal:      0,
		}
	}
	if err := s.seq.Apply(ctx, tx, st, patch); err != nil {
		return err
	}

	recomputeUsage(st)
	st.Ride.UpdatedAt = time.Now().UTC()
	if err := tx.Rides().Update(ctx, &st.Ride); err != nil {
		return fmt.Errorf("rewrite ride %s: %w", st.Ride.ID, err)
	}
	return nil
}

// removeMemberStops удаляет все остановки участника и пересеквенирует
// оставшиеся.
func (s *LifecycleService) removeMemberStops(ctx context.Context, tx out.Tx, st *domain.RideState, membershipID string) error {
	cityIDs, terminalIDs := st.StopsOfMember(membershipID)
	if len(cityIDs) == 0 && len(terminalIDs) == 0 {
		return nil
	}
	return s.seq.Apply(ctx, tx, st, StopPatch{
		DropCityIDs:     cityIDs,
		DropTerminalIDs: terminalIDs,
	})
}

// deactivateMember переводит связку участника в неактивный статус, убирает его
// остановки и пересчитывает загрузку. Поездку не сохраняет: вызывающий решает,
// что делать с ней дальше.
func (s *LifecycleService) deactivateMember(ctx context.Context, tx out.Tx, st *domain.RideState, mv domain.MemberView, newStatus string) error {
	mv.Membership.Status = newStatus
	mv.Membership.UpdatedAt = time.Now().UTC()
	if err := tx.Memberships().Update(ctx, &mv.Membership); err != nil {
		return fmt.Errorf("update membership %s: %w", mv.Membership.ID, err)
	}
	st.ReplaceMember(mv)
	if err := s.removeMemberStops(ctx, tx, st, mv.Membership.ID); err != nil {
		return err
	}
	recomputeUsage(st)
	return nil
}

// dropPendingProposal удаляет незакрытый запрос участника, если он есть.
func (s *LifecycleService) dropPendingProposal(ctx context.Context, tx out.Tx, membershipID string) error {
	p, err := tx.Proposals().FindByMembershipID(ctx, membershipID)
	if err != nil {
		if errors.Is(err, domain.ErrProposalNotFound) {
			return nil
		}
		return fmt.Errorf("find proposal of membership %s: %w", membershipID, err)
	}
	if err := tx.Proposals().Delete(ctx, p.ID); err != nil {
		return fmt.Errorf("delete proposal %s: %w", p.ID, err)
	}
	return nil
}
