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

func pendingProposalOf(t *testing.T, store *memrepo.Store, membershipID string) *domain.ChangeProposal {
	t.Helper()
	var found *domain.ChangeProposal
	err := store.WithinTx(context.Background(), func(ctx context.Context, tx out.Tx) error {
		p, err := tx.Proposals().FindByMembershipID(ctx, membershipID)
		if err != nil {
			return err
		}
		found = p
		return nil
	})
	require.NoError(t, err)
	return found
}

func TestProposeChangeCreatesPendingProposal(t *testing.T) {
	store, svc := poolFixture(t)
	seedRide(t, store, "ride-1", model.RideTypeShareCab, 4)
	seedMember(t, store, "ride-1", "owner", model.MemberStatusOwner, memberOpts{joinedAt: testDay})
	seedMember(t, store, "ride-1", "cand", model.MemberStatusApplied, memberOpts{joinedAt: testDay.Add(time.Hour)})
	seedStop(t, store, "cs-owner", "ride-1", "m-owner", "hood-owner", 0)

	newTime := "11:00"
	created, err := svc.ProposeChange(context.Background(), in.ProposeChangeInput{
		RideID:       "ride-1",
		MembershipID: "m-cand",
		Proposal:     domain.ChangeProposal{StartTime: &newTime},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "m-cand", created.MembershipID)
	require.False(t, created.Counter)

	stored := pendingProposalOf(t, store, "m-cand")
	require.Equal(t, created.ID, stored.ID)
	require.Equal(t, "11:00", *stored.StartTime)
}

func TestProposeChangeIdenticalResubmitIsNotRewritten(t *testing.T) {
	store, svc := poolFixture(t)
	seedRide(t, store, "ride-1", model.RideTypeShareCab, 4)
	seedMember(t, store, "ride-1", "owner", model.MemberStatusOwner, memberOpts{joinedAt: testDay})
	seedMember(t, store, "ride-1", "cand", model.MemberStatusApplied, memberOpts{joinedAt: testDay.Add(time.Hour)})
	seedStop(t, store, "cs-owner", "ride-1", "m-owner", "hood-owner", 0)

	newTime := "11:00"
	first, err := svc.ProposeChange(context.Background(), in.ProposeChangeInput{
		RideID:       "ride-1",
		MembershipID: "m-cand",
		Proposal:     domain.ChangeProposal{StartTime: &newTime},
	})
	require.NoError(t, err)

	sameTime := "11:00"
	second, err := svc.ProposeChange(context.Background(), in.ProposeChangeInput{
		RideID:       "ride-1",
		MembershipID: "m-cand",
		Proposal:     domain.ChangeProposal{StartTime: &sameTime},
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.UpdatedAt, second.UpdatedAt)
}

func TestProposeChangeReplacesPendingInPlace(t *testing.T) {
	store, svc := poolFixture(t)
	seedRide(t, store, "ride-1", model.RideTypeShareCab, 4)
	seedMember(t, store, "ride-1", "owner", model.MemberStatusOwner, memberOpts{joinedAt: testDay})
	seedMember(t, store, "ride-1", "cand", model.MemberStatusApplied, memberOpts{joinedAt: testDay.Add(time.Hour)})
	seedStop(t, store, "cs-owner", "ride-1", "m-owner", "hood-owner", 0)

	firstTime := "11:00"
	first, err := svc.ProposeChange(context.Background(), in.ProposeChangeInput{
		RideID:       "ride-1",
		MembershipID: "m-cand",
		Proposal:     domain.ChangeProposal{StartTime: &firstTime},
	})
	require.NoError(t, err)

	laterTime := "12:30"
	seats := 2
	second, err := svc.ProposeChange(context.Background(), in.ProposeChangeInput{
		RideID:       "ride-1",
		MembershipID: "m-cand",
		Proposal:     domain.ChangeProposal{StartTime: &laterTime, SeatCount: &seats},
	})
	require.NoError(t, err)

	// тот же pending-запрос, новые условия
	require.Equal(t, first.ID, second.ID)
	stored := pendingProposalOf(t, store, "m-cand")
	require.Equal(t, "12:30", *stored.StartTime)
	require.Equal(t, 2, *stored.SeatCount)
}

func TestProposeChangeCounterFlag(t *testing.T) {
	store, svc := poolFixture(t)
	seedRide(t, store, "ride-1", model.RideTypeShareCab, 4)
	seedMember(t, store, "ride-1", "owner", model.MemberStatusOwner, memberOpts{joinedAt: testDay})
	seedMember(t, store, "ride-1", "cand", model.MemberStatusApplied, memberOpts{joinedAt: testDay.Add(time.Hour)})
	seedStop(t, store, "cs-owner", "ride-1", "m-owner", "hood-owner", 0)

	// встречное предложение владельца прикрепляется к связке кандидата
	counterTime := "09:30"
	counter, err := svc.ProposeChange(context.Background(), in.ProposeChangeInput{
		RideID:       "ride-1",
		MembershipID: "m-cand",
		Counter:      true,
		Proposal:     domain.ChangeProposal{StartTime: &counterTime},
	})
	require.NoError(t, err)
	require.True(t, counter.Counter)
	require.Equal(t, "m-cand", counter.MembershipID)
}

func TestProposeChangeRejectsInvalidOrInapplicable(t *testing.T) {
	store, svc := poolFixture(t)
	seedRide(t, store, "ride-1", model.RideTypeShareCab, 4)
	seedMember(t, store, "ride-1", "owner", model.MemberStatusOwner, memberOpts{joinedAt: testDay})
	seedMember(t, store, "ride-1", "cand", model.MemberStatusApplied, memberOpts{joinedAt: testDay.Add(time.Hour)})
	seedStop(t, store, "cs-owner", "ride-1", "m-owner", "hood-owner", 0)

	// пустой запрос
	_, err := svc.ProposeChange(context.Background(), in.ProposeChangeInput{
		RideID:       "ride-1",
		MembershipID: "m-cand",
	})
	require.ErrorIs(t, err, domain.ErrNoChange)

	// невалидное поле
	badSeats := 0
	_, err = svc.ProposeChange(context.Background(), in.ProposeChangeInput{
		RideID:       "ride-1",
		MembershipID: "m-cand",
		Proposal:     domain.ChangeProposal{SeatCount: &badSeats},
	})
	var fe domain.FieldErrors
	require.ErrorAs(t, err, &fe)
	require.Contains(t, fe, "seat_count")

	// район из чужой агломерации
	foreignHood := uuid.New().String()
	store.SetNeighborhoodAgglo(foreignHood, "agglo-other")
	_, err = svc.ProposeChange(context.Background(), in.ProposeChangeInput{
		RideID:       "ride-1",
		MembershipID: "m-cand",
		Proposal:     domain.ChangeProposal{NeighborhoodID: &foreignHood},
	})
	require.ErrorIs(t, err, domain.ErrAggloMismatch)

	// неприменимый запрос не сохраняется
	err = store.WithinTx(context.Background(), func(ctx context.Context, tx out.Tx) error {
		_, err := tx.Proposals().FindByMembershipID(ctx, "m-cand")
		return err
	})
	require.ErrorIs(t, err, domain.ErrProposalNotFound)
}

func TestProposeThenAdmitAppliesProposal(t *testing.T) {
	store, svc := poolFixture(t)
	seedRide(t, store, "ride-1", model.RideTypeShareCab, 4)
	seedMember(t, store, "ride-1", "owner", model.MemberStatusOwner, memberOpts{joinedAt: testDay})
	seedMember(t, store, "ride-1", "cand", model.MemberStatusApplied, memberOpts{joinedAt: testDay.Add(time.Hour)})
	seedStop(t, store, "cs-owner", "ride-1", "m-owner", "hood-owner", 0)

	newTime := "11:30"
	p, err := svc.ProposeChange(context.Background(), in.ProposeChangeInput{
		RideID:       "ride-1",
		MembershipID: "m-cand",
		Proposal:     domain.ChangeProposal{StartTime: &newTime},
	})
	require.NoError(t, err)

	_, err = svc.Admit(context.Background(), in.AdmitInput{
		RideID:       "ride-1",
		MembershipID: "m-cand",
		ProposalID:   &p.ID,
	})
	require.NoError(t, err)

	ride, _ := store.Ride("ride-1")
	require.Equal(t, "11:30", ride.StartTime)
}
