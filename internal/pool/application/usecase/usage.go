package usecase

import (
	"airpool/internal/model"
	"airpool/internal/pool/domain"
)

// rideUsage — суммарная загрузка активных участников поездки
type rideUsage struct {
	Seats    int
	Luggage  int
	BabySeat int
	Sport    int
}

func computeUsage(st *domain.RideState) rideUsage {
	var u rideUsage
	for _, m := range st.ActiveMembers() {
		u.Seats += m.Rider.SeatCount
		u.Luggage += m.Rider.LuggageCount
		u.BabySeat += m.Rider.BabySeatCount
		u.Sport += m.Rider.SportGearCount
	}
	return u
}

// recomputeUsage пересчитывает загрузку после изменения состава и переключает
// статус поездки между open и full. Статусы closed и disabled выставляются
// явно и пересчетом не трогаются. Возвращает true, если статус изменился.
func recomputeUsage(st *domain.RideState) bool {
	if st.Ride.Status != model.RideStatusOpen && st.Ride.Status != model.RideStatusFull {
		return false
	}
	u := computeUsage(st)
	next := model.RideStatusOpen
	if u.Seats >= st.Ride.SeatCount {
		next = model.RideStatusFull
	}
	if next == st.Ride.Status {
		return false
	}
	st.Ride.Status = next
	return true
}
