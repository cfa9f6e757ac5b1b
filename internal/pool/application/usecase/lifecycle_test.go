package usecase

import (
	"context"
	"testing"
	"time"

	"airpool/internal/model"
	"airpool/internal/pool/adapter/out/memrepo"
	"airpool/internal/pool/application/ports/in"
	"airpool/internal/pool/application/ports/out"
	"airpool/internal/pool/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testDay = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

func poolFixture(t *testing.T) (*memrepo.Store, *LifecycleService) {
	t.Helper()
	store := memrepo.NewStore()
	store.SetNeighborhoodAgglo("hood-owner", "agglo-a")
	store.SetNeighborhoodAgglo("hood-x", "agglo-a")
	store.SetTerminalAirport("term-1", "airport-a")
	svc := NewLifecycleService(testLogger(), store, store, store)
	return store, svc
}

func seedRide(t *testing.T, store *memrepo.Store, id, rideType string, seats int) domain.Ride {
	t.Helper()
	ride := domain.Ride{
		ID:        id,
		Date:      testDay,
		StartTime: "10:00",
		Status:    model.RideStatusOpen,
		Type:      rideType,
		Toward:    model.TowardAirport,
		SeatCount: seats, LuggageCount: seats,
		PayMethod: model.PaySplit, SmokePolicy: model.PolicyNo,
		PetPolicy: model.PolicyFlex, CurbPolicy: model.PolicyFlex,
		Public:    true,
		AirportID: "airport-a", AggloID: "agglo-a",
		CreatedAt: testDay, UpdatedAt: testDay,
	}
	store.PutRide(ride)
	return ride
}

type memberOpts struct {
	startTime string
	hood      string
	seats     int
	joinedAt  time.Time
}

func seedMember(t *testing.T, store *memrepo.Store, rideID, riderID, status string, opts memberOpts) domain.Membership {
	t.Helper()
	if opts.startTime == "" {
		opts.startTime = "10:00"
	}
	if opts.hood == "" {
		opts.hood = "hood-" + riderID
	}
	if opts.seats == 0 {
		opts.seats = 1
	}
	store.PutRider(domain.Rider{
		ID:         riderID,
		TravelerID: "traveler-" + riderID,
		Date:       testDay,
		StartTime:  opts.startTime,
		Toward:     model.TowardAirport,
		AirportID:  "airport-a", AggloID: "agglo-a",
		NeighborhoodID: opts.hood,
		SeatCount:      opts.seats, LuggageCount: 1,
		PayPref: model.PaySplit, SmokePref: model.PolicyNo,
		PetPref: model.PolicyFlex, CurbPref: model.PolicyFlex,
	})
	m := domain.Membership{
		ID:      "m-" + riderID,
		RideID:  rideID,
		RiderID: riderID,
		Status:  status,
		// CreatedAt задает порядок членов в снимке
		CreatedAt: opts.joinedAt,
		UpdatedAt: opts.joinedAt,
	}
	if model.IsActiveMemberStatus(status) {
		j := opts.joinedAt
		m.JoinedAt = &j
	}
	store.PutMembership(m)
	return m
}

func seedStop(t *testing.T, store *memrepo.Store, id, rideID, membershipID, hood string, ordinal int) {
	t.Helper()
	store.PutCityStop(domain.CityStop{
		ID: id, RideID: rideID, MembershipID: membershipID,
		NeighborhoodID: hood, Ordinal: ordinal,
	})
}

func eventTypes(store *memrepo.Store) []string {
	var types []string
	for _, e := range store.Published {
		types = append(types, e.EventType)
	}
	return types
}

func TestAdmitHappyPath(t *testing.T) {
	store, svc := poolFixture(t)
	seedRide(t, store, "ride-1", model.RideTypeShareCab, 4)
	seedMember(t, store, "ride-1", "owner", model.MemberStatusOwner, memberOpts{joinedAt: testDay})
	seedStop(t, store, "cs-owner", "ride-1", "m-owner", "hood-owner", 0)
	seedMember(t, store, "ride-1", "cand", model.MemberStatusApplied, memberOpts{joinedAt: testDay.Add(time.Hour)})

	res, err := svc.Admit(context.Background(), in.AdmitInput{
		RideID:       "ride-1",
		MembershipID: "m-cand",
	})
	require.NoError(t, err)
	require.False(t, res.Destroyed)

	m, ok := store.Membership("m-cand")
	require.True(t, ok)
	require.Equal(t, model.MemberStatusJoined, m.Status)
	require.NotNil(t, m.JoinedAt)

	// район кандидата дописан в конец, нумерация плотная
	stops := store.CityStopsOf("ride-1")
	require.Len(t, stops, 2)
	require.Equal(t, "hood-cand", stops[1].NeighborhoodID)
	require.Equal(t, "m-cand", stops[1].MembershipID)
	require.Equal(t, []int{0, 1}, []int{stops[0].Ordinal, stops[1].Ordinal})

	require.Equal(t, []string{model.EventMemberAdmitted}, eventTypes(store))
}

func TestAdmitRejectsNonApplicant(t *testing.T) {
	store, svc := poolFixture(t)
	seedRide(t, store, "ride-1", model.RideTypeShareCab, 4)
	seedMember(t, store, "ride-1", "owner", model.MemberStatusOwner, memberOpts{joinedAt: testDay})
	seedMember(t, store, "ride-1", "other", model.MemberStatusJoined, memberOpts{joinedAt: testDay})

	_, err := svc.Admit(context.Background(), in.AdmitInput{
		RideID:       "ride-1",
		MembershipID: "m-other",
	})
	require.ErrorIs(t, err, domain.ErrNotApplicant)
}

func TestAdmitOutsideTimeWindowRollsBack(t *testing.T) {
	store, svc := poolFixture(t)
	seedRide(t, store, "ride-1", model.RideTypeShareCab, 4)
	seedMember(t, store, "ride-1", "owner", model.MemberStatusOwner, memberOpts{joinedAt: testDay})
	seedMember(t, store, "ride-1", "cand", model.MemberStatusApplied, memberOpts{
		startTime: "23:30", // 13.5 часа позже поездки
		joinedAt:  testDay,
	})

	_, err := svc.Admit(context.Background(), in.AdmitInput{
		RideID:       "ride-1",
		MembershipID: "m-cand",
	})
	require.ErrorIs(t, err, domain.ErrTimeWindow)

	m, _ := store.Membership("m-cand")
	require.Equal(t, model.MemberStatusApplied, m.Status)
	require.Empty(t, store.Published)
}

func TestAdmitSuspendsCandidateSoloRide(t *testing.T) {
	store, svc := poolFixture(t)
	seedRide(t, store, "ride-1", model.RideTypeShareCab, 4)
	seedMember(t, store, "ride-1", "owner", model.MemberStatusOwner, memberOpts{joinedAt: testDay})
	seedMember(t, store, "ride-1", "cand", model.MemberStatusApplied, memberOpts{joinedAt: testDay.Add(time.Hour)})

	// у кандидата есть собственная поездка без попутчиков
	seedRide(t, store, "ride-solo", model.RideTypeShareCab, 4)
	store.PutMembership(domain.Membership{
		ID: "m-cand-solo", RideID: "ride-solo", RiderID: "cand",
		Status: model.MemberStatusOwner, CreatedAt: testDay,
	})

	_, err := svc.Admit(context.Background(), in.AdmitInput{
		RideID:       "ride-1",
		MembershipID: "m-cand",
	})
	require.NoError(t, err)

	solo, _ := store.Ride("ride-solo")
	require.Equal(t, model.RideStatusDisabled, solo.Status)
	m, _ := store.Membership("m-cand-solo")
	require.Equal(t, model.MemberStatusSuspend, m.Status)

	require.Equal(t,
		[]string{model.EventRideSuspended, model.EventMemberAdmitted},
		eventTypes(store))
}

func TestAdmitConflictsWithSharedRide(t *testing.T) {
	store, svc := poolFixture(t)
	seedRide(t, store, "ride-1", model.RideTypeShareCab, 4)
	seedMember(t, store, "ride-1", "owner", model.MemberStatusOwner, memberOpts{joinedAt: testDay})
	seedMember(t, store, "ride-1", "cand", model.MemberStatusApplied, memberOpts{joinedAt: testDay.Add(time.Hour)})

	// чужая поездка кандидата уже везет попутчика
	seedRide(t, store, "ride-shared", model.RideTypeShareCab, 4)
	store.PutMembership(domain.Membership{
		ID: "m-cand-shared", RideID: "ride-shared", RiderID: "cand",
		Status: model.MemberStatusOwner, CreatedAt: testDay,
	})
	seedMember(t, store, "ride-shared", "passenger", model.MemberStatusJoined, memberOpts{joinedAt: testDay})

	_, err := svc.Admit(context.Background(), in.AdmitInput{
		RideID:       "ride-1",
		MembershipID: "m-cand",
	})
	require.ErrorIs(t, err, domain.ErrOtherRideActive)
}

func TestAdmitAppliesProposal(t *testing.T) {
	store, svc := poolFixture(t)
	seedRide(t, store, "ride-1", model.RideTypeShareCab, 4)
	seedMember(t, store, "ride-1", "owner", model.MemberStatusOwner, memberOpts{joinedAt: testDay})
	seedStop(t, store, "cs-owner", "ride-1", "m-owner", "hood-owner", 0)
	seedMember(t, store, "ride-1", "cand", model.MemberStatusApplied, memberOpts{joinedAt: testDay.Add(time.Hour)})

	newTime := "11:30"
	hood := uuid.New().String()
	store.SetNeighborhoodAgglo(hood, "agglo-a")
	ord := 0
	store.PutProposal(domain.ChangeProposal{
		ID:                  "prop-1",
		MembershipID:        "m-cand",
		StartTime:           &newTime,
		NeighborhoodID:      &hood,
		NeighborhoodOrdinal: &ord,
	})

	propID := "prop-1"
	_, err := svc.Admit(context.Background(), in.AdmitInput{
		RideID:       "ride-1",
		MembershipID: "m-cand",
		ProposalID:   &propID,
	})
	require.NoError(t, err)

	ride, _ := store.Ride("ride-1")
	require.Equal(t, "11:30", ride.StartTime)

	stops := store.CityStopsOf("ride-1")
	require.Len(t, stops, 2)
	require.Equal(t, hood, stops[0].NeighborhoodID)
	require.Equal(t, "hood-owner", stops[1].NeighborhoodID)

	// принятый запрос удален
	err = store.WithinTx(context.Background(), func(ctx context.Context, tx out.Tx) error {
		_, err := tx.Proposals().FindByID(ctx, "prop-1")
		return err
	})
	require.ErrorIs(t, err, domain.ErrProposalNotFound)
}

func TestAdmitFillsRideToFull(t *testing.T) {
	store, svc := poolFixture(t)
	seedRide(t, store, "ride-1", model.RideTypeShareCab, 2)
	seedMember(t, store, "ride-1", "owner", model.MemberStatusOwner, memberOpts{joinedAt: testDay})
	seedMember(t, store, "ride-1", "cand", model.MemberStatusApplied, memberOpts{joinedAt: testDay.Add(time.Hour)})

	_, err := svc.Admit(context.Background(), in.AdmitInput{
		RideID:       "ride-1",
		MembershipID: "m-cand",
	})
	require.NoError(t, err)

	ride, _ := store.Ride("ride-1")
	require.Equal(t, model.RideStatusFull, ride.Status)
}

func TestExpelRefusesRideUniqueMember(t *testing.T) {
	store, svc := poolFixture(t)
	seedRide(t, store, "ride-1", model.RideTypeShareCab, 4)
	seedMember(t, store, "ride-1", "owner", model.MemberStatusOwner, memberOpts{joinedAt: testDay})

	_, err := svc.Expel(context.Background(), in.ExpelInput{
		RideID:       "ride-1",
		MembershipID: "m-owner",
	})
	require.ErrorIs(t, err, domain.ErrRideUniqueMember)
}

func TestExpelRemovesStopsAndReactivates(t *testing.T) {
	store, svc := poolFixture(t)
	seedRide(t, store, "ride-1", model.RideTypeShareCab, 4)
	seedMember(t, store, "ride-1", "owner", model.MemberStatusOwner, memberOpts{joinedAt: testDay})
	seedMember(t, store, "ride-1", "member", model.MemberStatusJoined, memberOpts{joinedAt: testDay.Add(time.Hour)})
	seedStop(t, store, "cs-owner", "ride-1", "m-owner", "hood-owner", 0)
	seedStop(t, store, "cs-member", "ride-1", "m-member", "hood-member", 1)

	// у исключаемого есть приостановленная собственная поездка
	seedRide(t, store, "ride-frozen", model.RideTypeShareCab, 4)
	frozen, _ := store.Ride("ride-frozen")
	frozen.Status = model.RideStatusDisabled
	store.PutRide(frozen)
	store.PutMembership(domain.Membership{
		ID: "m-member-frozen", RideID: "ride-frozen", RiderID: "member",
		Status: model.MemberStatusSuspend, CreatedAt: testDay,
	})

	// реактивация включена по умолчанию
	_, err := svc.Expel(context.Background(), in.ExpelInput{
		RideID:       "ride-1",
		MembershipID: "m-member",
		NewStatus:    model.MemberStatusDenied,
	})
	require.NoError(t, err)

	m, _ := store.Membership("m-member")
	require.Equal(t, model.MemberStatusDenied, m.Status)

	stops := store.CityStopsOf("ride-1")
	require.Len(t, stops, 1)
	require.Equal(t, 0, stops[0].Ordinal)

	// приостановленная поездка снова в строю
	reactivated, _ := store.Ride("ride-frozen")
	require.Equal(t, model.RideStatusOpen, reactivated.Status)
	fm, _ := store.Membership("m-member-frozen")
	require.Equal(t, model.MemberStatusOwner, fm.Status)

	require.Contains(t, eventTypes(store), model.EventMemberExpelled)
	require.Contains(t, eventTypes(store), model.EventRideReactivated)
}

func TestExpelSuppressedReactivationKeepsRideFrozen(t *testing.T) {
	store, svc := poolFixture(t)
	seedRide(t, store, "ride-1", model.RideTypeShareCab, 4)
	seedMember(t, store, "ride-1", "owner", model.MemberStatusOwner, memberOpts{joinedAt: testDay})
	seedMember(t, store, "ride-1", "member", model.MemberStatusJoined, memberOpts{joinedAt: testDay.Add(time.Hour)})

	seedRide(t, store, "ride-frozen", model.RideTypeShareCab, 4)
	frozen, _ := store.Ride("ride-frozen")
	frozen.Status = model.RideStatusDisabled
	store.PutRide(frozen)
	store.PutMembership(domain.Membership{
		ID: "m-member-frozen", RideID: "ride-frozen", RiderID: "member",
		Status: model.MemberStatusSuspend, CreatedAt: testDay,
	})

	_, err := svc.Expel(context.Background(), in.ExpelInput{
		RideID:             "ride-1",
		MembershipID:       "m-member",
		SuppressReactivate: true,
	})
	require.NoError(t, err)

	still, _ := store.Ride("ride-frozen")
	require.Equal(t, model.RideStatusDisabled, still.Status)
	fm, _ := store.Membership("m-member-frozen")
	require.Equal(t, model.MemberStatusSuspend, fm.Status)
	require.NotContains(t, eventTypes(store), model.EventRideReactivated)
}

func TestDropOwnerTransfersToEarliestCoRider(t *testing.T) {
	store, svc := poolFixture(t)
	seedRide(t, store, "ride-1", model.RideTypeShareCab, 4)
	seedMember(t, store, "ride-1", "owner", model.MemberStatusOwner, memberOpts{joinedAt: testDay})
	seedMember(t, store, "ride-1", "early", model.MemberStatusJoined, memberOpts{
		startTime: "10:15", joinedAt: testDay.Add(time.Hour),
	})
	seedMember(t, store, "ride-1", "late", model.MemberStatusJoined, memberOpts{
		startTime: "10:20", joinedAt: testDay.Add(2 * time.Hour),
	})
	seedStop(t, store, "cs-owner", "ride-1", "m-owner", "hood-owner", 0)
	seedStop(t, store, "cs-early", "ride-1", "m-early", "hood-early", 1)
	seedStop(t, store, "cs-late", "ride-1", "m-late", "hood-late", 2)

	res, err := svc.DropOwner(context.Background(), in.DropOwnerInput{RideID: "ride-1"})
	require.NoError(t, err)
	require.False(t, res.Destroyed)

	heir, _ := store.Membership("m-early")
	require.Equal(t, model.MemberStatusOwner, heir.Status)
	departed, _ := store.Membership("m-owner")
	require.Equal(t, model.MemberStatusLeft, departed.Status)

	// расписание наследуется от нового владельца
	ride, _ := store.Ride("ride-1")
	require.Equal(t, "10:15", ride.StartTime)
	require.Equal(t, "traveler-early", ride.CreatorID)

	// остановки ушедшего владельца убраны, нумерация плотная
	stops := store.CityStopsOf("ride-1")
	require.Len(t, stops, 2)
	require.Equal(t, "hood-early", stops[0].NeighborhoodID)
	require.Equal(t, []int{0, 1}, []int{stops[0].Ordinal, stops[1].Ordinal})

	require.Contains(t, eventTypes(store), model.EventOwnerChanged)
}

func TestDropOwnerCollapsesOntoSingleCoRider(t *testing.T) {
	store, svc := poolFixture(t)
	seedRide(t, store, "ride-1", model.RideTypeShareCab, 4)
	seedMember(t, store, "ride-1", "owner", model.MemberStatusOwner, memberOpts{joinedAt: testDay})
	seedMember(t, store, "ride-1", "solo", model.MemberStatusJoined, memberOpts{
		seats: 2, joinedAt: testDay.Add(time.Hour),
	})
	seedStop(t, store, "cs-owner", "ride-1", "m-owner", "hood-owner", 0)
	seedStop(t, store, "cs-solo", "ride-1", "m-solo", "hood-solo", 1)

	_, err := svc.DropOwner(context.Background(), in.DropOwnerInput{RideID: "ride-1"})
	require.NoError(t, err)

	survivor, _ := store.Membership("m-solo")
	require.Equal(t, model.MemberStatusOwner, survivor.Status)

	// условия переписаны по спецификации выжившего
	ride, _ := store.Ride("ride-1")
	require.Equal(t, 2, ride.SeatCount)
	require.Equal(t, "traveler-solo", ride.CreatorID)

	// остановки сброшены до остановки нового владельца
	stops := store.CityStopsOf("ride-1")
	require.Len(t, stops, 1)
	require.Equal(t, "hood-solo", stops[0].NeighborhoodID)
	require.Equal(t, "m-solo", stops[0].MembershipID)
}

// Тип поездки без нескольких не-владельцев не передается группе целиком:
// даже при двух попутчиках выход водителя сворачивает поездку на самого
// раннего из них.
func TestDropOwnerSingleRiderTypeCollapses(t *testing.T) {
	store, svc := poolFixture(t)
	seedRide(t, store, "ride-1", model.RideTypeOwnCar, 4)
	seedMember(t, store, "ride-1", "drv", model.MemberStatusDriver, memberOpts{joinedAt: testDay})
	seedMember(t, store, "ride-1", "first", model.MemberStatusJoined, memberOpts{
		seats: 2, joinedAt: testDay.Add(time.Hour),
	})
	seedMember(t, store, "ride-1", "second", model.MemberStatusJoined, memberOpts{joinedAt: testDay.Add(2 * time.Hour)})

	_, err := svc.DropOwner(context.Background(), in.DropOwnerInput{RideID: "ride-1"})
	require.NoError(t, err)

	// не spin-off: условия переписаны по спецификации самого раннего
	survivor, _ := store.Membership("m-first")
	require.Equal(t, model.MemberStatusDriver, survivor.Status)
	ride, _ := store.Ride("ride-1")
	require.Equal(t, 2, ride.SeatCount)
	require.Equal(t, "traveler-first", ride.CreatorID)

	departed, _ := store.Membership("m-drv")
	require.Equal(t, model.MemberStatusLeft, departed.Status)
}

func TestDropOwnerAloneDestroysRide(t *testing.T) {
	store, svc := poolFixture(t)
	seedRide(t, store, "ride-1", model.RideTypeShareCab, 4)
	seedMember(t, store, "ride-1", "owner", model.MemberStatusOwner, memberOpts{joinedAt: testDay})
	seedStop(t, store, "cs-owner", "ride-1", "m-owner", "hood-owner", 0)

	res, err := svc.DropOwner(context.Background(), in.DropOwnerInput{RideID: "ride-1"})
	require.NoError(t, err)
	require.True(t, res.Destroyed)

	_, ok := store.Ride("ride-1")
	require.False(t, ok)
	_, ok = store.Membership("m-owner")
	require.False(t, ok)
	require.Empty(t, store.CityStopsOf("ride-1"))

	require.Equal(t, []string{model.EventRideDestroyed}, eventTypes(store))
}

func TestDropOwnerAloneSuspendsOnRequest(t *testing.T) {
	store, svc := poolFixture(t)
	seedRide(t, store, "ride-1", model.RideTypeShareCab, 4)
	seedMember(t, store, "ride-1", "owner", model.MemberStatusOwner, memberOpts{joinedAt: testDay})

	res, err := svc.DropOwner(context.Background(), in.DropOwnerInput{RideID: "ride-1", Suspend: true})
	require.NoError(t, err)
	require.False(t, res.Destroyed)
	require.Equal(t, model.RideStatusDisabled, res.Ride.Status)

	m, _ := store.Membership("m-owner")
	require.Equal(t, model.MemberStatusSuspend, m.Status)
	require.Equal(t, []string{model.EventRideSuspended}, eventTypes(store))
}

func TestResetSoloRewritesInPlace(t *testing.T) {
	store, svc := poolFixture(t)
	seedRide(t, store, "ride-1", model.RideTypeShareCab, 4)
	seedMember(t, store, "ride-1", "owner", model.MemberStatusOwner, memberOpts{joinedAt: testDay})
	seedStop(t, store, "cs-a", "ride-1", "m-owner", "hood-a", 0)
	seedStop(t, store, "cs-b", "ride-1", "m-owner", "hood-b", 1)

	// владелец обновил спецификацию
	rider, err := store.FindByID(context.Background(), "owner")
	require.NoError(t, err)
	updated := *rider
	updated.StartTime = "14:00"
	updated.SeatCount = 3
	store.PutRider(updated)

	res, err := svc.Reset(context.Background(), in.ResetInput{RideID: "ride-1"})
	require.NoError(t, err)

	require.Equal(t, "14:00", res.Ride.StartTime)
	require.Equal(t, 3, res.Ride.SeatCount)

	stops := store.CityStopsOf("ride-1")
	require.Len(t, stops, 1)
	require.Equal(t, "hood-owner", stops[0].NeighborhoodID)

	require.Equal(t, []string{model.EventRideReset}, eventTypes(store))
}

func TestResetWithCoRidersBehavesAsDropOwner(t *testing.T) {
	store, svc := poolFixture(t)
	seedRide(t, store, "ride-1", model.RideTypeShareCab, 4)
	seedMember(t, store, "ride-1", "owner", model.MemberStatusOwner, memberOpts{joinedAt: testDay})
	seedMember(t, store, "ride-1", "solo", model.MemberStatusJoined, memberOpts{joinedAt: testDay.Add(time.Hour)})

	_, err := svc.Reset(context.Background(), in.ResetInput{RideID: "ride-1"})
	require.NoError(t, err)

	survivor, _ := store.Membership("m-solo")
	require.Equal(t, model.MemberStatusOwner, survivor.Status)
	departed, _ := store.Membership("m-owner")
	require.Equal(t, model.MemberStatusLeft, departed.Status)
}

func TestDropOutCoRiderLeaves(t *testing.T) {
	store, svc := poolFixture(t)
	seedRide(t, store, "ride-1", model.RideTypeShareCab, 4)
	seedMember(t, store, "ride-1", "owner", model.MemberStatusOwner, memberOpts{joinedAt: testDay})
	seedMember(t, store, "ride-1", "member", model.MemberStatusJoined, memberOpts{joinedAt: testDay.Add(time.Hour)})
	seedStop(t, store, "cs-owner", "ride-1", "m-owner", "hood-owner", 0)
	seedStop(t, store, "cs-member", "ride-1", "m-member", "hood-member", 1)

	_, err := svc.DropOut(context.Background(), in.DropOutInput{RiderID: "member"})
	require.NoError(t, err)

	m, _ := store.Membership("m-member")
	require.Equal(t, model.MemberStatusLeft, m.Status)
	require.Len(t, store.CityStopsOf("ride-1"), 1)
	require.Equal(t, []string{model.EventMemberLeft}, eventTypes(store))
}

func TestDropOutWithoutActiveMembership(t *testing.T) {
	store, svc := poolFixture(t)
	store.PutRider(domain.Rider{ID: "ghost"})

	_, err := svc.DropOut(context.Background(), in.DropOutInput{RiderID: "ghost"})
	require.ErrorIs(t, err, domain.ErrMembershipNotFound)
}

func TestCascadeDestroysSoloAndRetainsShared(t *testing.T) {
	store, svc := poolFixture(t)

	// одиночная поездка удаляемого: уничтожается целиком
	seedRide(t, store, "ride-solo", model.RideTypeShareCab, 4)
	seedMember(t, store, "ride-solo", "victim", model.MemberStatusOwner, memberOpts{joinedAt: testDay})
	seedStop(t, store, "cs-v", "ride-solo", "m-victim", "hood-victim", 0)

	// общая поездка, где удаляемый лишь попутчик: остается жить
	seedRide(t, store, "ride-shared", model.RideTypeShareCab, 4)
	seedMember(t, store, "ride-shared", "keeper", model.MemberStatusOwner, memberOpts{joinedAt: testDay})
	store.PutMembership(domain.Membership{
		ID: "m-victim-shared", RideID: "ride-shared", RiderID: "victim",
		Status: model.MemberStatusJoined, CreatedAt: testDay.Add(time.Hour),
	})
	seedStop(t, store, "cs-k", "ride-shared", "m-keeper", "hood-keeper", 0)
	seedStop(t, store, "cs-vs", "ride-shared", "m-victim-shared", "hood-victim", 1)

	res, err := svc.Cascade(context.Background(), in.CascadeInput{RiderIDs: []string{"victim"}})
	require.NoError(t, err)

	require.ElementsMatch(t, []string{"ride-solo"}, res.RidesDestroyed)
	require.ElementsMatch(t, []string{"ride-shared"}, res.RidesRetained)

	// полнота каскада: ни связок, ни остановок удаляемого не осталось
	_, ok := store.Ride("ride-solo")
	require.False(t, ok)
	_, ok = store.Membership("m-victim")
	require.False(t, ok)
	_, ok = store.Membership("m-victim-shared")
	require.False(t, ok)

	shared := store.CityStopsOf("ride-shared")
	require.Len(t, shared, 1)
	require.Equal(t, "m-keeper", shared[0].MembershipID)
	require.Equal(t, 0, shared[0].Ordinal)
}

// Поездка, потерявшая уникальную роль при каскаде, растворяется: выжившим
// возвращаются их приостановленные поездки, сама поездка уничтожается.
func TestCascadePurgedOwnerDissolvesRide(t *testing.T) {
	store, svc := poolFixture(t)
	seedRide(t, store, "ride-1", model.RideTypeShareCab, 4)
	seedMember(t, store, "ride-1", "victim", model.MemberStatusOwner, memberOpts{joinedAt: testDay})
	seedMember(t, store, "ride-1", "heir", model.MemberStatusJoined, memberOpts{joinedAt: testDay.Add(time.Hour)})
	seedStop(t, store, "cs-v", "ride-1", "m-victim", "hood-victim", 0)
	seedStop(t, store, "cs-h", "ride-1", "m-heir", "hood-heir", 1)

	// у выжившего есть приостановленная собственная поездка
	seedRide(t, store, "ride-frozen", model.RideTypeShareCab, 4)
	frozen, _ := store.Ride("ride-frozen")
	frozen.Status = model.RideStatusDisabled
	store.PutRide(frozen)
	store.PutMembership(domain.Membership{
		ID: "m-heir-frozen", RideID: "ride-frozen", RiderID: "heir",
		Status: model.MemberStatusSuspend, CreatedAt: testDay,
	})

	res, err := svc.Cascade(context.Background(), in.CascadeInput{RiderIDs: []string{"victim"}})
	require.NoError(t, err)

	require.Contains(t, res.RidesDestroyed, "ride-1")
	require.NotContains(t, res.RidesRetained, "ride-1")

	_, ok := store.Ride("ride-1")
	require.False(t, ok)
	_, ok = store.Membership("m-victim")
	require.False(t, ok)
	_, ok = store.Membership("m-heir")
	require.False(t, ok)
	require.Empty(t, store.CityStopsOf("ride-1"))

	// приостановленная поездка выжившего снова в строю
	reactivated, _ := store.Ride("ride-frozen")
	require.Equal(t, model.RideStatusOpen, reactivated.Status)
	fm, _ := store.Membership("m-heir-frozen")
	require.Equal(t, model.MemberStatusOwner, fm.Status)

	require.Contains(t, eventTypes(store), model.EventRideReactivated)
	require.Contains(t, eventTypes(store), model.EventRideDestroyed)
}

func TestSpinOffWithoutCoRiders(t *testing.T) {
	store, svc := poolFixture(t)
	seedRide(t, store, "ride-1", model.RideTypeShareCab, 4)
	seedMember(t, store, "ride-1", "owner", model.MemberStatusOwner, memberOpts{joinedAt: testDay})

	_, err := svc.SpinOff(context.Background(), in.SpinOffInput{RideID: "ride-1"}, nil)
	require.ErrorIs(t, err, domain.ErrNoCoRiders)
}

func TestSpinOffRunsFollowUpInSameTransaction(t *testing.T) {
	store, svc := poolFixture(t)
	seedRide(t, store, "ride-1", model.RideTypeShareCab, 4)
	seedMember(t, store, "ride-1", "owner", model.MemberStatusOwner, memberOpts{joinedAt: testDay})
	seedMember(t, store, "ride-1", "heir", model.MemberStatusJoined, memberOpts{joinedAt: testDay.Add(time.Hour)})

	var departedRider string
	_, err := svc.SpinOff(context.Background(), in.SpinOffInput{RideID: "ride-1"},
		func(ctx context.Context, tx out.Tx, departed domain.MemberView) error {
			departedRider = departed.Rider.ID
			return nil
		})
	require.NoError(t, err)
	require.Equal(t, "owner", departedRider)

	// ошибка продолжения откатывает и саму передачу
	store2, svc2 := poolFixture(t)
	seedRide(t, store2, "ride-2", model.RideTypeShareCab, 4)
	seedMember(t, store2, "ride-2", "owner", model.MemberStatusOwner, memberOpts{joinedAt: testDay})
	seedMember(t, store2, "ride-2", "heir", model.MemberStatusJoined, memberOpts{joinedAt: testDay.Add(time.Hour)})

	boom := context.Canceled
	_, err = svc2.SpinOff(context.Background(), in.SpinOffInput{RideID: "ride-2"},
		func(ctx context.Context, tx out.Tx, departed domain.MemberView) error {
			return boom
		})
	require.ErrorIs(t, err, boom)

	m, _ := store2.Membership("m-owner")
	require.Equal(t, model.MemberStatusOwner, m.Status)
	require.Empty(t, store2.Published)
}
