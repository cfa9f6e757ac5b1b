package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	testDate    = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	airportA    = "airport-a"
	aggloA      = "agglo-a"
	hoodCenter  = "hood-center"
	terminalOne = "terminal-1"
)

func baseRide() Ride {
	return Ride{
		ID:           "ride-1",
		Date:         testDate,
		StartTime:    "10:00",
		Status:       "open",
		Type:         "shareCab",
		Toward:       "airport",
		SeatCount:    4,
		LuggageCount: 4,
		PayMethod:    "split",
		SmokePolicy:  "no",
		PetPolicy:    "flex",
		CurbPolicy:   "yes",
		AirportID:    airportA,
		AggloID:      aggloA,
	}
}

func baseRider(id string) Rider {
	return Rider{
		ID:             id,
		TravelerID:     "traveler-" + id,
		Date:           testDate,
		StartTime:      "10:00",
		Toward:         "airport",
		AirportID:      airportA,
		NeighborhoodID: hoodCenter,
		AggloID:        aggloA,
		SeatCount:      1,
		LuggageCount:   1,
		PayPref:        "split",
		SmokePref:      "no",
		PetPref:        "flex",
		CurbPref:       "yes",
	}
}

func memberOf(t *testing.T, st *RideState, rider Rider, status string, joinedAt time.Time) MemberView {
	t.Helper()
	j := joinedAt
	mv := MemberView{
		Membership: Membership{
			ID:       "m-" + rider.ID,
			RideID:   st.Ride.ID,
			RiderID:  rider.ID,
			Status:   status,
			JoinedAt: &j,
		},
		Rider: rider,
	}
	st.Members = append(st.Members, mv)
	return mv
}

func TestMayAdmit(t *testing.T) {
	st := RideState{Ride: baseRide()}
	memberOf(t, &st, baseRider("owner"), "owner", testDate)

	tests := []struct {
		name    string
		mutate  func(r *Rider)
		wantErr error
	}{
		{name: "compatible candidate", mutate: func(r *Rider) {}},
		{
			name:    "airport mismatch",
			mutate:  func(r *Rider) { r.AirportID = "airport-b" },
			wantErr: ErrAirportMismatch,
		},
		{
			name:    "agglomeration mismatch",
			mutate:  func(r *Rider) { r.AggloID = "agglo-b" },
			wantErr: ErrAggloMismatch,
		},
		{
			name:    "direction mismatch",
			mutate:  func(r *Rider) { r.Toward = "city" },
			wantErr: ErrTowardMismatch,
		},
		{
			name:    "traveler already present",
			mutate:  func(r *Rider) { r.TravelerID = "traveler-owner" },
			wantErr: ErrTravelerPresent,
		},
		{
			name:    "departure 13h late",
			mutate:  func(r *Rider) { r.StartTime = "23:30" },
			wantErr: ErrTimeWindow,
		},
		{
			name:   "departure exactly 12h late",
			mutate: func(r *Rider) { r.StartTime = "22:00" },
		},
		{
			name: "departure 13h early",
			mutate: func(r *Rider) {
				r.Date = testDate.AddDate(0, 0, -1)
				r.StartTime = "21:00"
			},
			wantErr: ErrTimeWindow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cand := baseRider("cand")
			tt.mutate(&cand)
			err := MayAdmit(st, cand)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestMayApplyChange(t *testing.T) {
	st := RideState{Ride: baseRide()}
	st.CityStops = []CityStop{
		{ID: "cs-1", RideID: st.Ride.ID, NeighborhoodID: hoodCenter, Ordinal: 0},
		{ID: "cs-2", RideID: st.Ride.ID, NeighborhoodID: "hood-north", Ordinal: 1},
	}

	newTime := "11:00"
	badTime := "23:30"
	nextDay := testDate.AddDate(0, 0, 1).Format(DateLayout)
	hood := "hood-south"
	term := terminalOne

	tests := []struct {
		name     string
		proposal ChangeProposal
		scope    ChangeScope
		wantErr  error
	}{
		{
			name:     "time shift within 24h",
			proposal: ChangeProposal{StartTime: &newTime},
		},
		{
			name:     "time shift beyond 24h",
			proposal: ChangeProposal{Date: &nextDay, StartTime: &badTime},
			wantErr:  ErrTimeWindow,
		},
		{
			name:     "neighborhood outside agglomeration",
			proposal: ChangeProposal{NeighborhoodID: &hood},
			scope:    ChangeScope{NeighborhoodAggloID: "agglo-b"},
			wantErr:  ErrAggloMismatch,
		},
		{
			name:     "terminal outside airport",
			proposal: ChangeProposal{TerminalID: &term},
			scope:    ChangeScope{TerminalAirportID: "airport-b"},
			wantErr:  ErrAirportMismatch,
		},
		{
			name: "dropping every city stop",
			proposal: ChangeProposal{
				CityStopDrops: []StopDrop{{StopID: "cs-1"}, {StopID: "cs-2"}},
			},
			wantErr: ErrLastCityStop,
		},
		{
			name: "dropping all stops but adding one",
			proposal: ChangeProposal{
				NeighborhoodID: &hood,
				CityStopDrops:  []StopDrop{{StopID: "cs-1"}, {StopID: "cs-2"}},
			},
			scope: ChangeScope{NeighborhoodAggloID: aggloA},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MayApplyChange(st, tt.proposal, tt.scope)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestMayKeep(t *testing.T) {
	st := RideState{Ride: baseRide()}
	memberOf(t, &st, baseRider("owner"), "owner", testDate)
	late := baseRider("late")
	late.StartTime = "10:30" // самое позднее отправление среди остальных
	memberOf(t, &st, late, "joined", testDate)

	tests := []struct {
		name      string
		startTime string
		wantErr   error
	}{
		{name: "same time", startTime: "10:30"},
		{name: "5 minutes later", startTime: "10:35"},
		{name: "11 minutes later", startTime: "10:41", wantErr: ErrTimeWindow},
		{name: "6 hours earlier", startTime: "04:30"},
		{name: "just over 6 hours earlier", startTime: "04:29", wantErr: ErrTimeWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			member := baseRider("member")
			member.StartTime = tt.startTime
			mv := MemberView{
				Membership: Membership{ID: "m-member", Status: "joined"},
				Rider:      member,
			}
			err := MayKeep(st, mv)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestMatchScore(t *testing.T) {
	st := RideState{Ride: baseRide()}
	memberOf(t, &st, baseRider("owner"), "owner", testDate)
	st.CityStops = []CityStop{
		{ID: "cs-1", RideID: st.Ride.ID, NeighborhoodID: hoodCenter, Ordinal: 0},
	}
	st.TerminalStops = []TerminalStop{
		{ID: "ts-1", RideID: st.Ride.ID, TerminalID: terminalOne, Ordinal: 0},
	}

	tests := []struct {
		name   string
		mutate func(r *Rider)
		want   float64
	}{
		{name: "perfect match", mutate: func(r *Rider) { r.TerminalID = terminalOne }, want: 1.0},
		{name: "wrong airport scores zero", mutate: func(r *Rider) { r.AirportID = "airport-b" }, want: 0},
		{name: "20 minutes late", mutate: func(r *Rider) { r.StartTime = "10:20" }, want: 0.95},
		{name: "20 minutes early", mutate: func(r *Rider) { r.StartTime = "09:40" }, want: 0.90},
		{name: "3 hours late", mutate: func(r *Rider) { r.StartTime = "13:00" }, want: 0.65},
		{
			name:   "3 hours early",
			mutate: func(r *Rider) { r.StartTime = "07:00" },
			want:   0.50,
		},
		{
			name:   "unserved neighborhood",
			mutate: func(r *Rider) { r.NeighborhoodID = "hood-far" },
			want:   0.95,
		},
		{
			name:   "unserved terminal",
			mutate: func(r *Rider) { r.TerminalID = "terminal-9" },
			want:   0.90,
		},
		{
			name: "seats over capacity",
			// занято 1 место из 4; кандидат просит 4, не хватает 1 из 4
			mutate: func(r *Rider) { r.SeatCount = 4; r.LuggageCount = 0 },
			want:   0.96,
		},
		{
			name:   "pay preference mismatch",
			mutate: func(r *Rider) { r.PayPref = "each" },
			want:   0.97,
		},
		{
			name:   "smoke mismatch strict vs strict",
			mutate: func(r *Rider) { r.SmokePref = "yes" },
			want:   0.97,
		},
		{
			name:   "pet flex matches anything",
			mutate: func(r *Rider) { r.PetPref = "yes" },
			want:   1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cand := baseRider("cand")
			tt.mutate(&cand)
			require.InDelta(t, tt.want, MatchScore(st, cand), 0.001)
		})
	}
}

// Каждое гибкое предпочтение сверяется со своим полем политики: pet_pref
// не должен сравниваться со smoke_policy и наоборот.
func TestPreferencePenaltyUsesMatchingPolicyField(t *testing.T) {
	ride := baseRide()
	ride.SmokePolicy = "yes"
	ride.PetPolicy = "no"
	ride.CurbPolicy = "no"

	cand := baseRider("cand")
	cand.SmokePref = "yes" // совпадает со smoke_policy
	cand.PetPref = "no"    // совпадает с pet_policy
	cand.CurbPref = "no"   // совпадает с curb_policy

	require.InDelta(t, 0.0, preferencePenalty(ride, cand), 0.0001)

	// несовпадение ровно одного поля дает ровно один штраф
	cand.PetPref = "yes"
	require.InDelta(t, 0.03, preferencePenalty(ride, cand), 0.0001)
}
