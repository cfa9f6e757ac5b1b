// Package memrepo — хранилище в памяти для тестов и локального запуска.
// Повторяет контракт PostgreSQL-хранилищ, включая немедленную проверку
// UNIQUE (ride_id, ordinal) на каждой записи остановки.
package memrepo

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"airpool/internal/pool/application/ports/out"
	"airpool/internal/pool/domain"
)

// Store держит все таблицы в памяти. Потокобезопасен на уровне транзакций:
// WithinTx сериализует доступ одним мьютексом.
type Store struct {
	mu sync.Mutex

	rides         map[string]domain.Ride
	riders        map[string]domain.Rider
	memberships   map[string]domain.Membership
	cityStops     map[string]domain.CityStop
	terminalStops map[string]domain.TerminalStop
	proposals     map[string]domain.ChangeProposal

	neighborhoodAgglo map[string]string
	terminalAirport   map[string]string

	// Published — события, "опубликованные" после commit (в порядке выпуска)
	Published []domain.Event

	// CityWrites / TerminalWrites считают физические записи остановок;
	// тесты плотности ordinal проверяют по ним отсутствие лишних сохранений
	CityWrites     int
	TerminalWrites int
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{
		rides:             map[string]domain.Ride{},
		riders:            map[string]domain.Rider{},
		memberships:       map[string]domain.Membership{},
		cityStops:         map[string]domain.CityStop{},
		terminalStops:     map[string]domain.TerminalStop{},
		proposals:         map[string]domain.ChangeProposal{},
		neighborhoodAgglo: map[string]string{},
		terminalAirport:   map[string]string{},
	}
}

// ==== посев данных ====

func (s *Store) PutRide(r domain.Ride)             { s.rides[r.ID] = r }
func (s *Store) PutRider(r domain.Rider)           { s.riders[r.ID] = r }
func (s *Store) PutMembership(m domain.Membership) { s.memberships[m.ID] = m }
func (s *Store) PutCityStop(c domain.CityStop)     { s.cityStops[c.ID] = c }
func (s *Store) PutTerminalStop(t domain.TerminalStop) {
	s.terminalStops[t.ID] = t
}
func (s *Store) PutProposal(p domain.ChangeProposal) { s.proposals[p.ID] = p }

func (s *Store) SetNeighborhoodAgglo(neighborhoodID, aggloID string) {
	s.neighborhoodAgglo[neighborhoodID] = aggloID
}
func (s *Store) SetTerminalAirport(terminalID, airportID string) {
	s.terminalAirport[terminalID] = airportID
}

// ==== чтение для проверок в тестах ====

// Ride возвращает поездку, как она лежит в хранилище
func (s *Store) Ride(id string) (domain.Ride, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[id]
	return r, ok
}

// Membership возвращает связку, как она лежит в хранилище
func (s *Store) Membership(id string) (domain.Membership, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.memberships[id]
	return m, ok
}

// CityStopsOf возвращает городские остановки поездки по порядку
func (s *Store) CityStopsOf(rideID string) []domain.CityStop {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.CityStop
	for _, c := range s.cityStops {
		if c.RideID == rideID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out
}

// TerminalStopsOf возвращает терминальные остановки поездки по порядку
func (s *Store) TerminalStopsOf(rideID string) []domain.TerminalStop {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.TerminalStop
	for _, t := range s.terminalStops {
		if t.RideID == rideID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out
}

// ==== TxManager ====

// WithinTx выполняет fn над снимком хранилища: ошибка откатывает все записи,
// успех публикует накопленные события в Published.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx out.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	backup := s.snapshot()
	tx := &memTx{store: s}
	if err := fn(ctx, tx); err != nil {
		s.restore(backup)
		return err
	}
	s.Published = append(s.Published, tx.buffered...)
	return nil
}

type storeSnapshot struct {
	rides         map[string]domain.Ride
	riders        map[string]domain.Rider
	memberships   map[string]domain.Membership
	cityStops     map[string]domain.CityStop
	terminalStops map[string]domain.TerminalStop
	proposals     map[string]domain.ChangeProposal
}

func (s *Store) snapshot() storeSnapshot {
	return storeSnapshot{
		rides:         copyMap(s.rides),
		riders:        copyMap(s.riders),
		memberships:   copyMap(s.memberships),
		cityStops:     copyMap(s.cityStops),
		terminalStops: copyMap(s.terminalStops),
		proposals:     copyMap(s.proposals),
	}
}

func (s *Store) restore(b storeSnapshot) {
	s.rides = b.rides
	s.riders = b.riders
	s.memberships = b.memberships
	s.cityStops = b.cityStops
	s.terminalStops = b.terminalStops
	s.proposals = b.proposals
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ==== RiderStore / PlaceResolver ====

// FindByID возвращает спецификацию по ID. Не берет мьютекс: вызывается
// из use-case внутри WithinTx, который уже держит его.
func (s *Store) FindByID(ctx context.Context, riderID string) (*domain.Rider, error) {
	r, ok := s.riders[riderID]
	if !ok {
		return nil, domain.ErrRiderNotFound
	}
	return &r, nil
}

// NeighborhoodAgglo возвращает id агломерации района
func (s *Store) NeighborhoodAgglo(ctx context.Context, neighborhoodID string) (string, error) {
	if agglo, ok := s.neighborhoodAgglo[neighborhoodID]; ok {
		return agglo, nil
	}
	return "", domain.ErrPlaceNotFound
}

// TerminalAirport возвращает id аэропорта терминала
func (s *Store) TerminalAirport(ctx context.Context, terminalID string) (string, error) {
	if airport, ok := s.terminalAirport[terminalID]; ok {
		return airport, nil
	}
	return "", domain.ErrPlaceNotFound
}

// ==== Tx ====

type memTx struct {
	store    *Store
	buffered []domain.Event
}

func (t *memTx) Rides() out.RideStore             { return (*rideStore)(t) }
func (t *memTx) Memberships() out.MembershipStore { return (*membershipStore)(t) }
func (t *memTx) Stops() out.StopStore             { return (*stopStore)(t) }
func (t *memTx) Proposals() out.ProposalStore     { return (*proposalStore)(t) }

func (t *memTx) Buffer(evt domain.Event) {
	t.buffered = append(t.buffered, evt)
}

// ==== RideStore ====

type rideStore memTx

func (r *rideStore) Create(ctx context.Context, ride *domain.Ride) error {
	r.store.rides[ride.ID] = *ride
	return nil
}

func (r *rideStore) FindByID(ctx context.Context, rideID string) (*domain.Ride, error) {
	ride, ok := r.store.rides[rideID]
	if !ok {
		return nil, domain.ErrRideNotFound
	}
	return &ride, nil
}

func (r *rideStore) FindState(ctx context.Context, rideID string) (*domain.RideState, error) {
	ride, err := r.FindByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	st := &domain.RideState{Ride: *ride}

	var ms []domain.Membership
	for _, m := range r.store.memberships {
		if m.RideID == rideID {
			ms = append(ms, m)
		}
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].CreatedAt.Before(ms[j].CreatedAt) })
	for _, m := range ms {
		rider, ok := r.store.riders[m.RiderID]
		if !ok {
			return nil, domain.ErrRiderNotFound
		}
		st.Members = append(st.Members, domain.MemberView{Membership: m, Rider: rider})
	}

	stops := (*stopStore)(r)
	if st.CityStops, err = stops.ListCityByRide(ctx, rideID); err != nil {
		return nil, err
	}
	if st.TerminalStops, err = stops.ListTerminalByRide(ctx, rideID); err != nil {
		return nil, err
	}
	return st, nil
}

func (r *rideStore) Update(ctx context.Context, ride *domain.Ride) error {
	if _, ok := r.store.rides[ride.ID]; !ok {
		return domain.ErrRideNotFound
	}
	r.store.rides[ride.ID] = *ride
	return nil
}

func (r *rideStore) Delete(ctx context.Context, rideID string) error {
	if _, ok := r.store.rides[rideID]; !ok {
		return domain.ErrRideNotFound
	}
	delete(r.store.rides, rideID)
	for id, m := range r.store.memberships {
		if m.RideID == rideID {
			delete(r.store.memberships, id)
			for pid, p := range r.store.proposals {
				if p.MembershipID == id {
					delete(r.store.proposals, pid)
				}
			}
		}
	}
	for id, c := range r.store.cityStops {
		if c.RideID == rideID {
			delete(r.store.cityStops, id)
		}
	}
	for id, t := range r.store.terminalStops {
		if t.RideID == rideID {
			delete(r.store.terminalStops, id)
		}
	}
	return nil
}

// ==== MembershipStore ====

type membershipStore memTx

func (r *membershipStore) Create(ctx context.Context, m *domain.Membership) error {
	r.store.memberships[m.ID] = *m
	return nil
}

func (r *membershipStore) FindByID(ctx context.Context, membershipID string) (*domain.Membership, error) {
	m, ok := r.store.memberships[membershipID]
	if !ok {
		return nil, domain.ErrMembershipNotFound
	}
	return &m, nil
}

func (r *membershipStore) FindByRiderID(ctx context.Context, riderID string) ([]domain.Membership, error) {
	return r.filter(func(m domain.Membership) bool {
		return m.RiderID == riderID
	}), nil
}

func (r *membershipStore) FindActiveByRiderID(ctx context.Context, riderID string) ([]domain.Membership, error) {
	return r.filter(func(m domain.Membership) bool {
		return m.RiderID == riderID && m.IsActive()
	}), nil
}

func (r *membershipStore) FindSuspendedByRiderID(ctx context.Context, riderID string) ([]domain.Membership, error) {
	return r.filter(func(m domain.Membership) bool {
		return m.RiderID == riderID && m.Status == "suspend"
	}), nil
}

func (r *membershipStore) Update(ctx context.Context, m *domain.Membership) error {
	if _, ok := r.store.memberships[m.ID]; !ok {
		return domain.ErrMembershipNotFound
	}
	r.store.memberships[m.ID] = *m
	return nil
}

func (r *membershipStore) Delete(ctx context.Context, membershipID string) error {
	if _, ok := r.store.memberships[membershipID]; !ok {
		return domain.ErrMembershipNotFound
	}
	delete(r.store.memberships, membershipID)
	return nil
}

func (r *membershipStore) filter(keep func(domain.Membership) bool) []domain.Membership {
	var out []domain.Membership
	for _, m := range r.store.memberships {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// ==== StopStore ====

type stopStore memTx

func (r *stopStore) CreateCity(ctx context.Context, s *domain.CityStop) error {
	if err := r.checkCityOrdinal(s.RideID, s.Ordinal, s.ID); err != nil {
		return err
	}
	r.store.cityStops[s.ID] = *s
	r.store.CityWrites++
	return nil
}

func (r *stopStore) UpdateCity(ctx context.Context, s *domain.CityStop) error {
	if _, ok := r.store.cityStops[s.ID]; !ok {
		return fmt.Errorf("city stop %s not found", s.ID)
	}
	if err := r.checkCityOrdinal(s.RideID, s.Ordinal, s.ID); err != nil {
		return err
	}
	r.store.cityStops[s.ID] = *s
	r.store.CityWrites++
	return nil
}

func (r *stopStore) DeleteCity(ctx context.Context, stopIDs []string) error {
	for _, id := range stopIDs {
		delete(r.store.cityStops, id)
	}
	return nil
}

func (r *stopStore) ListCityByRide(ctx context.Context, rideID string) ([]domain.CityStop, error) {
	var out []domain.CityStop
	for _, c := range r.store.cityStops {
		if c.RideID == rideID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out, nil
}

func (r *stopStore) CreateTerminal(ctx context.Context, s *domain.TerminalStop) error {
	if err := r.checkTerminalOrdinal(s.RideID, s.Ordinal, s.ID); err != nil {
		return err
	}
	r.store.terminalStops[s.ID] = *s
	r.store.TerminalWrites++
	return nil
}

func (r *stopStore) UpdateTerminal(ctx context.Context, s *domain.TerminalStop) error {
	if _, ok := r.store.terminalStops[s.ID]; !ok {
		return fmt.Errorf("terminal stop %s not found", s.ID)
	}
	if err := r.checkTerminalOrdinal(s.RideID, s.Ordinal, s.ID); err != nil {
		return err
	}
	r.store.terminalStops[s.ID] = *s
	r.store.TerminalWrites++
	return nil
}

func (r *stopStore) DeleteTerminal(ctx context.Context, stopIDs []string) error {
	for _, id := range stopIDs {
		delete(r.store.terminalStops, id)
	}
	return nil
}

func (r *stopStore) ListTerminalByRide(ctx context.Context, rideID string) ([]domain.TerminalStop, error) {
	var out []domain.TerminalStop
	for _, t := range r.store.terminalStops {
		if t.RideID == rideID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out, nil
}

// checkCityOrdinal — немедленный аналог uq_rides_neighborhoods_ordinal
func (r *stopStore) checkCityOrdinal(rideID string, ordinal int, selfID string) error {
	for _, c := range r.store.cityStops {
		if c.RideID == rideID && c.Ordinal == ordinal && c.ID != selfID {
			return fmt.Errorf("duplicate key value violates unique constraint %q (ride_id=%s, ordinal=%d)",
				"uq_rides_neighborhoods_ordinal", rideID, ordinal)
		}
	}
	return nil
}

// checkTerminalOrdinal — немедленный аналог uq_rides_terminals_ordinal
func (r *stopStore) checkTerminalOrdinal(rideID string, ordinal int, selfID string) error {
	for _, t := range r.store.terminalStops {
		if t.RideID == rideID && t.Ordinal == ordinal && t.ID != selfID {
			return fmt.Errorf("duplicate key value violates unique constraint %q (ride_id=%s, ordinal=%d)",
				"uq_rides_terminals_ordinal", rideID, ordinal)
		}
	}
	return nil
}

// ==== ProposalStore ====

type proposalStore memTx

func (r *proposalStore) Create(ctx context.Context, p *domain.ChangeProposal) error {
	r.store.proposals[p.ID] = *p
	return nil
}

func (r *proposalStore) FindByID(ctx context.Context, proposalID string) (*domain.ChangeProposal, error) {
	p, ok := r.store.proposals[proposalID]
	if !ok {
		return nil, domain.ErrProposalNotFound
	}
	return &p, nil
}

func (r *proposalStore) FindByMembershipID(ctx context.Context, membershipID string) (*domain.ChangeProposal, error) {
	for _, p := range r.store.proposals {
		if p.MembershipID == membershipID {
			found := p
			return &found, nil
		}
	}
	return nil, domain.ErrProposalNotFound
}

func (r *proposalStore) Update(ctx context.Context, p *domain.ChangeProposal) error {
	if _, ok := r.store.proposals[p.ID]; !ok {
		return domain.ErrProposalNotFound
	}
	r.store.proposals[p.ID] = *p
	return nil
}

func (r *proposalStore) Delete(ctx context.Context, proposalID string) error {
	if _, ok := r.store.proposals[proposalID]; !ok {
		return domain.ErrProposalNotFound
	}
	delete(r.store.proposals, proposalID)
	return nil
}
