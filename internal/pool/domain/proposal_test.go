package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestProposalValidate(t *testing.T) {
	validHood := uuid.New().String()

	tests := []struct {
		name      string
		proposal  ChangeProposal
		wantField string
	}{
		{name: "empty proposal is valid", proposal: ChangeProposal{}},
		{
			name: "all fields valid",
			proposal: ChangeProposal{
				Date:           strPtr("2026-09-02"),
				StartTime:      strPtr("08:15"),
				SeatCount:      intPtr(3),
				PayMethod:      strPtr("each"),
				NeighborhoodID: &validHood,
				CityStopDrops:  []StopDrop{{StopID: uuid.New().String()}},
			},
		},
		{
			name:      "malformed date",
			proposal:  ChangeProposal{Date: strPtr("02.09.2026")},
			wantField: "ride_date",
		},
		{
			name:      "malformed time",
			proposal:  ChangeProposal{StartTime: strPtr("8am")},
			wantField: "start_time",
		},
		{
			name:      "zero seats",
			proposal:  ChangeProposal{SeatCount: intPtr(0)},
			wantField: "seat_count",
		},
		{
			name:      "negative luggage",
			proposal:  ChangeProposal{LuggageCount: intPtr(-1)},
			wantField: "luggage_count",
		},
		{
			name:      "unknown pay method",
			proposal:  ChangeProposal{PayMethod: strPtr("barter")},
			wantField: "pay_method",
		},
		{
			name:      "unknown smoke policy",
			proposal:  ChangeProposal{SmokePolicy: strPtr("sometimes")},
			wantField: "smoke_policy",
		},
		{
			name:      "neighborhood id not a uuid",
			proposal:  ChangeProposal{NeighborhoodID: strPtr("not-a-uuid")},
			wantField: "neighborhood_id",
		},
		{
			name:      "negative ordinal",
			proposal:  ChangeProposal{NeighborhoodID: &validHood, NeighborhoodOrdinal: intPtr(-2)},
			wantField: "neighborhood_ordinal",
		},
		{
			name:      "drop references non-uuid",
			proposal:  ChangeProposal{CityStopDrops: []StopDrop{{StopID: "bogus"}}},
			wantField: "city_stop_drops",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.proposal.Validate()
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			var fe FieldErrors
			require.ErrorAs(t, err, &fe)
			require.Contains(t, fe, tt.wantField)
		})
	}
}

func TestProposalHasChange(t *testing.T) {
	require.False(t, ChangeProposal{}.HasChange())
	require.True(t, ChangeProposal{StartTime: strPtr("09:00")}.HasChange())
	require.True(t, ChangeProposal{CityStopDrops: []StopDrop{{StopID: "x"}}}.HasChange())
	closeRide := true
	require.True(t, ChangeProposal{CloseRide: &closeRide}.HasChange())
}

func TestProposalDiffersFrom(t *testing.T) {
	base := ChangeProposal{
		StartTime:     strPtr("09:00"),
		SeatCount:     intPtr(3),
		CityStopDrops: []StopDrop{{StopID: "s1"}, {StopID: "s2"}},
	}

	same := ChangeProposal{
		StartTime:     strPtr("09:00"),
		SeatCount:     intPtr(3),
		CityStopDrops: []StopDrop{{StopID: "s2"}, {StopID: "s1"}}, // порядок не важен
	}
	require.False(t, base.DiffersFrom(same))

	differentTime := same
	differentTime.StartTime = strPtr("09:30")
	require.True(t, base.DiffersFrom(differentTime))

	differentDrops := same
	differentDrops.CityStopDrops = []StopDrop{{StopID: "s1"}, {StopID: "s3"}}
	require.True(t, base.DiffersFrom(differentDrops))

	nilVsSet := same
	nilVsSet.SeatCount = nil
	require.True(t, base.DiffersFrom(nilVsSet))
}

func TestProposalApplyTo(t *testing.T) {
	ride := Ride{
		Date:        testDate,
		StartTime:   "10:00",
		SeatCount:   4,
		PayMethod:   "split",
		SmokePolicy: "no",
	}

	p := ChangeProposal{
		Date:      strPtr("2026-09-03"),
		StartTime: strPtr("07:45"),
		SeatCount: intPtr(2),
		PayMethod: strPtr("owner"),
	}
	p.ApplyTo(&ride)

	require.Equal(t, "2026-09-03", ride.Date.Format(DateLayout))
	require.Equal(t, "07:45", ride.StartTime)
	require.Equal(t, 2, ride.SeatCount)
	require.Equal(t, "owner", ride.PayMethod)
	// незаполненные поля не тронуты
	require.Equal(t, "no", ride.SmokePolicy)
}
