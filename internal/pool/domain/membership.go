package domain

import (
	"sort"
	"time"

	"airpool/internal/model"
)

// Membership — строка связки Ride↔Rider: роль участника в конкретной поездке.
type Membership struct {
	ID        string     `json:"id" db:"id"`
	RideID    string     `json:"ride_id" db:"ride_id"`
	RiderID   string     `json:"rider_id" db:"rider_id"`
	Status    string     `json:"status" db:"status"`
	JoinedAt  *time.Time `json:"joined_at,omitempty" db:"joined_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// IsRideUnique сообщает, занимает ли участник уникальную роль (driver|provider|owner).
func (m Membership) IsRideUnique() bool {
	return model.IsRideUniqueStatus(m.Status)
}

// IsActive сообщает, занимает ли участник место в поездке.
func (m Membership) IsActive() bool {
	return model.IsActiveMemberStatus(m.Status)
}

// MemberView — составная пара {связка, спецификация}: передается по значению,
// общий кэшированный Rider никогда не мутируется через view.
type MemberView struct {
	Membership Membership `json:"membership"`
	Rider      Rider      `json:"rider"`
}

// RideState — полный снимок поездки: участники со спецификациями и оба
// упорядоченных списка остановок. Все проверки и пересеквенирование работают
// над этим снимком.
type RideState struct {
	Ride          Ride           `json:"ride"`
	Members       []MemberView   `json:"members"`
	CityStops     []CityStop     `json:"city_stops"`
	TerminalStops []TerminalStop `json:"terminal_stops"`
}

// ActiveMembers возвращает участников, занимающих место в поездке.
func (st RideState) ActiveMembers() []MemberView {
	out := make([]MemberView, 0, len(st.Members))
	for _, m := range st.Members {
		if m.Membership.IsActive() {
			out = append(out, m)
		}
	}
	return out
}

// UniqueMember возвращает участника с уникальной ролью, если он есть.
func (st RideState) UniqueMember() (MemberView, bool) {
	for _, m := range st.Members {
		if m.Membership.IsRideUnique() {
			return m, true
		}
	}
	return MemberView{}, false
}

// CoRiders возвращает активных участников без уникальной роли.
func (st RideState) CoRiders() []MemberView {
	out := make([]MemberView, 0, len(st.Members))
	for _, m := range st.Members {
		if m.Membership.IsActive() && !m.Membership.IsRideUnique() {
			out = append(out, m)
		}
	}
	return out
}

// EarliestJoinedCoRider возвращает активного не-уникального участника с самым
// ранним joined_at (стабильно по времени вступления).
func (st RideState) EarliestJoinedCoRider() (MemberView, bool) {
	co := st.CoRiders()
	if len(co) == 0 {
		return MemberView{}, false
	}
	sort.SliceStable(co, func(i, j int) bool {
		ti, tj := co[i].Membership.JoinedAt, co[j].Membership.JoinedAt
		switch {
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.Before(*tj)
		}
	})
	return co[0], true
}

// MemberByID находит участника по id связки.
func (st RideState) MemberByID(membershipID string) (MemberView, bool) {
	for _, m := range st.Members {
		if m.Membership.ID == membershipID {
			return m, true
		}
	}
	return MemberView{}, false
}

// MemberByRiderID находит участника по id спецификации.
func (st RideState) MemberByRiderID(riderID string) (MemberView, bool) {
	for _, m := range st.Members {
		if m.Membership.RiderID == riderID {
			return m, true
		}
	}
	return MemberView{}, false
}

// RemoveMember убирает участника из снимка (не трогая хранилище).
func (st *RideState) RemoveMember(membershipID string) {
	out := st.Members[:0]
	for _, m := range st.Members {
		if m.Membership.ID != membershipID {
			out = append(out, m)
		}
	}
	st.Members = out
}

// ReplaceMember обновляет участника в снимке.
func (st *RideState) ReplaceMember(mv MemberView) {
	for i, m := range st.Members {
		if m.Membership.ID == mv.Membership.ID {
			st.Members[i] = mv
			return
		}
	}
}

// StopsOfMember возвращает id городских и терминальных остановок участника.
func (st RideState) StopsOfMember(membershipID string) (cityIDs, terminalIDs []string) {
	for _, s := range st.CityStops {
		if s.MembershipID == membershipID {
			cityIDs = append(cityIDs, s.ID)
		}
	}
	for _, s := range st.TerminalStops {
		if s.MembershipID == membershipID {
			terminalIDs = append(terminalIDs, s.ID)
		}
	}
	return cityIDs, terminalIDs
}

// HasCityStopFor сообщает, обслуживается ли район хоть одной остановкой.
func (st RideState) HasCityStopFor(neighborhoodID string) bool {
	for _, s := range st.CityStops {
		if s.NeighborhoodID == neighborhoodID {
			return true
		}
	}
	return false
}

// HasTerminalStopFor сообщает, обслуживается ли терминал хоть одной остановкой.
func (st RideState) HasTerminalStopFor(terminalID string) bool {
	for _, s := range st.TerminalStops {
		if s.TerminalID == terminalID {
			return true
		}
	}
	return false
}

// LatestCoRiderDeparture возвращает самое позднее время отправления среди
// активных участников, исключая указанного. Второе значение false, если
// таких участников нет.
func (st RideState) LatestCoRiderDeparture(excludeMembershipID string) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, m := range st.Members {
		if !m.Membership.IsActive() || m.Membership.ID == excludeMembershipID {
			continue
		}
		dep := m.Rider.DepartureAt()
		if !found || dep.After(latest) {
			latest = dep
			found = true
		}
	}
	return latest, found
}
