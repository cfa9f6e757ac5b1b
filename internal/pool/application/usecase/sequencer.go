package usecase

import (
	"context"
	"fmt"
	"time"

	"airpool/internal/pool/application/ports/out"
	"airpool/internal/pool/domain"
	"airpool/internal/shared/logger"

	"github.com/google/uuid"
)

// tempOrdinalBase — временный порядковый номер вне рабочего диапазона,
// используемый на проходе (b) для разрыва циклов коллизий.
const tempOrdinalBase = 1000

// StopPatch описывает одно изменение списков остановок поездки: набор
// удаляемых остановок и максимум одну новую на сторону. Ordinal новой
// остановки -1 означает "в конец списка".
type StopPatch struct {
	DropCityIDs []string
	NewCity     *domain.CityStop

	DropTerminalIDs []string
	NewTerminal     *domain.TerminalStop
}

// StopSequencer поддерживает инвариант плотной нумерации остановок:
// после каждого применения ordinal-значения городских остановок поездки —
// это ровно {0..n-1}, независимо для терминальных. Сохранение идет в три
// прохода, чтобы ни в один момент не нарушить немедленный UNIQUE
// (ride_id, ordinal).
type StopSequencer struct {
	log *logger.Logger
}

// NewStopSequencer создает новый секвенсор
func NewStopSequencer(log *logger.Logger) *StopSequencer {
	return &StopSequencer{log: log}
}

// seqStop — представление остановки, не зависящее от стороны (город/терминал)
type seqStop struct {
	id          string
	prevOrdinal int  // сохраненный в хранилище ordinal (для isNew не задан)
	isNew       bool
	persist     func(ctx context.Context, ordinal int, create bool) error
}

// Apply применяет патч к обоим спискам снимка st внутри транзакции tx.
// Снимок мутируется: после возврата st отражает сохраненное состояние.
func (sq *StopSequencer) Apply(ctx context.Context, tx out.Tx, st *domain.RideState, patch StopPatch) error {
	if err := sq.applyCity(ctx, tx, st, patch); err != nil {
		return err
	}
	if err := sq.applyTerminal(ctx, tx, st, patch); err != nil {
		return err
	}
	return nil
}

func (sq *StopSequencer) applyCity(ctx context.Context, tx out.Tx, st *domain.RideState, patch StopPatch) error {
	if len(patch.DropCityIDs) == 0 && patch.NewCity == nil {
		// ничего не меняется, плотность уже обеспечена предыдущим прогоном
		if sq.isDense(len(st.CityStops), cityOrdinals(st.CityStops)) {
			return nil
		}
	}

	dropped := toSet(patch.DropCityIDs)
	if len(patch.DropCityIDs) > 0 {
		if err := tx.Stops().DeleteCity(ctx, patch.DropCityIDs); err != nil {
			return fmt.Errorf("delete city stops: %w", err)
		}
	}

	// занятые ordinal после удалений
	occupied := map[int]string{}
	retained := make([]domain.CityStop, 0, len(st.CityStops))
	for _, s := range st.CityStops {
		if dropped[s.ID] {
			continue
		}
		occupied[s.Ordinal] = s.ID
		retained = append(retained, s)
	}
	sortCityByOrdinal(retained)

	now := time.Now().UTC()
	if patch.NewCity != nil {
		ns := *patch.NewCity
		ns.RideID = st.Ride.ID
		if ns.ID == "" {
			ns.ID = uuid.New().String()
		}
		ns.CreatedAt, ns.UpdatedAt = now, now
		retained = spliceCity(retained, ns)
	} else if len(retained) == 0 {
		// удаление опустошило список: поездка не может "ехать в никуда",
		// подставляем район назначенного владельца
		owner, ok := st.UniqueMember()
		if !ok {
			return domain.ErrMembersNotLoaded
		}
		retained = []domain.CityStop{{
			ID:             uuid.New().String(),
			RideID:         st.Ride.ID,
			MembershipID:   owner.Membership.ID,
			NeighborhoodID: owner.Rider.NeighborhoodID,
			Ordinal:        0,
			CreatedAt:      now,
			UpdatedAt:      now,
		}}
	}

	known := toSet(keysOf(occupied))
	stops := make([]seqStop, len(retained))
	for i := range retained {
		s := &retained[i]
		stops[i] = seqStop{
			id:          s.ID,
			prevOrdinal: s.Ordinal,
			isNew:       !known[s.ID],
			persist: func(ctx context.Context, ordinal int, create bool) error {
				s.Ordinal = ordinal
				s.UpdatedAt = time.Now().UTC()
				if create {
					return tx.Stops().CreateCity(ctx, s)
				}
				return tx.Stops().UpdateCity(ctx, s)
			},
		}
	}

	if err := sq.persistDense(ctx, stops, occupied); err != nil {
		return fmt.Errorf("resequence city stops: %w", err)
	}
	st.CityStops = retained
	return nil
}

func (sq *StopSequencer) applyTerminal(ctx context.Context, tx out.Tx, st *domain.RideState, patch StopPatch) error {
	if len(patch.DropTerminalIDs) == 0 && patch.NewTerminal == nil {
		if sq.isDense(len(st.TerminalStops), terminalOrdinals(st.TerminalStops)) {
			return nil
		}
	}

	dropped := toSet(patch.DropTerminalIDs)
	if len(patch.DropTerminalIDs) > 0 {
		if err := tx.Stops().DeleteTerminal(ctx, patch.DropTerminalIDs); err != nil {
			return fmt.Errorf("delete terminal stops: %w", err)
		}
	}

	occupied := map[int]string{}
	retained := make([]domain.TerminalStop, 0, len(st.TerminalStops))
	for _, s := range st.TerminalStops {
		if dropped[s.ID] {
			continue
		}
		occupied[s.Ordinal] = s.ID
		retained = append(retained, s)
	}
	sortTerminalByOrdinal(retained)

	now := time.Now().UTC()
	if patch.NewTerminal != nil {
		ns := *patch.NewTerminal
		ns.RideID = st.Ride.ID
		if ns.ID == "" {
			ns.ID = uuid.New().String()
		}
		ns.CreatedAt, ns.UpdatedAt = now, now
		retained = spliceTerminal(retained, ns)
	}
	// терминальный список, в отличие от городского, может быть пустым

	known := toSet(keysOf(occupied))
	stops := make([]seqStop, len(retained))
	for i := range retained {
		s := &retained[i]
		stops[i] = seqStop{
			id:          s.ID,
			prevOrdinal: s.Ordinal,
			isNew:       !known[s.ID],
			persist: func(ctx context.Context, ordinal int, create bool) error {
				s.Ordinal = ordinal
				s.UpdatedAt = time.Now().UTC()
				if create {
					return tx.Stops().CreateTerminal(ctx, s)
				}
				return tx.Stops().UpdateTerminal(ctx, s)
			},
		}
	}

	if err := sq.persistDense(ctx, stops, occupied); err != nil {
		return fmt.Errorf("resequence terminal stops: %w", err)
	}
	st.TerminalStops = retained
	return nil
}

// persistDense присваивает ordinal = индекс и сохраняет в три прохода:
//
//	(a) остановки, чей целевой ordinal свободен или занят ими же, сохраняются
//	    сразу;
//	(b) отложенные перепроверяются — освободившиеся сохраняются, все еще
//	    конфликтующие получают временный ordinal 1000+i;
//	(c) временные сохраняются еще раз с финальным ordinal, который к этому
//	    моменту освобожден проходом (b).
//
// Один проход не годится: строка A может просить ordinal K, пока строка B
// (еще не обновленная) его держит; два дополнительных прохода разрешают
// коллизию при любой длине цикла.
func (sq *StopSequencer) persistDense(ctx context.Context, stops []seqStop, occupied map[int]string) error {
	free := func(id string, ord int) {
		if cur, ok := occupied[ord]; ok && cur == id {
			delete(occupied, ord)
		}
	}
	take := func(id string, ord int) { occupied[ord] = id }

	// проход (a)
	var deferred []int
	for i, s := range stops {
		if !s.isNew && s.prevOrdinal == i {
			// уже на месте, не трогаем
			continue
		}
		holder, busy := occupied[i]
		if busy && holder != s.id {
			deferred = append(deferred, i)
			continue
		}
		if err := s.persist(ctx, i, s.isNew); err != nil {
			return err
		}
		if !s.isNew {
			free(s.id, s.prevOrdinal)
		}
		take(s.id, i)
	}

	// проход (b)
	var temped []int
	for _, i := range deferred {
		s := stops[i]
		holder, busy := occupied[i]
		if !busy || holder == s.id {
			if err := s.persist(ctx, i, s.isNew); err != nil {
				return err
			}
			if !s.isNew {
				free(s.id, s.prevOrdinal)
			}
			take(s.id, i)
			continue
		}
		tmp := tempOrdinalBase + i
		if err := s.persist(ctx, tmp, s.isNew); err != nil {
			return err
		}
		if !s.isNew {
			free(s.id, s.prevOrdinal)
		}
		take(s.id, tmp)
		temped = append(temped, i)
	}

	// проход (c)
	for _, i := range temped {
		s := stops[i]
		if err := s.persist(ctx, i, false); err != nil {
			return err
		}
		free(s.id, tempOrdinalBase+i)
		take(s.id, i)
	}

	return nil
}

func (sq *StopSequencer) isDense(n int, ordinals []int) bool {
	seen := make([]bool, n)
	for _, o := range ordinals {
		if o < 0 || o >= n || seen[o] {
			return false
		}
		seen[o] = true
	}
	return true
}

// spliceCity вставляет новую остановку перед первым элементом, чей ordinal
// превышает целевой; -1 (и любой слишком большой ordinal) — в конец.
func spliceCity(list []domain.CityStop, ns domain.CityStop) []domain.CityStop {
	if ns.Ordinal < 0 {
		return append(list, ns)
	}
	for i, s := range list {
		if s.Ordinal >= ns.Ordinal {
			out := append(list[:i:i], ns)
			return append(out, list[i:]...)
		}
	}
	return append(list, ns)
}

func spliceTerminal(list []domain.TerminalStop, ns domain.TerminalStop) []domain.TerminalStop {
	if ns.Ordinal < 0 {
		return append(list, ns)
	}
	for i, s := range list {
		if s.Ordinal >= ns.Ordinal {
			out := append(list[:i:i], ns)
			return append(out, list[i:]...)
		}
	}
	return append(list, ns)
}

func sortCityByOrdinal(list []domain.CityStop) {
	for i := 1; i < len(list); i++ {
		for j := i; j > 0 && list[j].Ordinal < list[j-1].Ordinal; j-- {
			list[j], list[j-1] = list[j-1], list[j]
		}
	}
}

func sortTerminalByOrdinal(list []domain.TerminalStop) {
	for i := 1; i < len(list); i++ {
		for j := i; j > 0 && list[j].Ordinal < list[j-1].Ordinal; j-- {
			list[j], list[j-1] = list[j-1], list[j]
		}
	}
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func keysOf(m map[int]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

func cityOrdinals(list []domain.CityStop) []int {
	out := make([]int, len(list))
	for i, s := range list {
		out[i] = s.Ordinal
	}
	return out
}

func terminalOrdinals(list []domain.TerminalStop) []int {
	out := make([]int, len(list))
	for i, s := range list {
		out[i] = s.Ordinal
	}
	return out
}
