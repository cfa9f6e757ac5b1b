package domain

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"airpool/internal/model"
)

// StopDrop — ссылка на существующую остановку, удаляемую при принятии запроса.
type StopDrop struct {
	ID        string `json:"id" db:"id"`
	RequestID string `json:"request_id" db:"request_id"`
	StopID    string `json:"stop_id" db:"stop_id"`
}

// ChangeProposal — запрос на изменение условий поездки. Все необязательные
// поля нормализуются в nil: nil-поле не учитывается в HasChange и не трогает
// соответствующее значение поездки при ApplyTo. Counter=true помечает
// встречное предложение владельца.
type ChangeProposal struct {
	ID           string `json:"id" db:"id"`
	MembershipID string `json:"ride_rider_id" db:"ride_rider_id"`
	Counter      bool   `json:"counter" db:"counter"`

	Date           *string `json:"ride_date,omitempty" db:"ride_date"`
	StartTime      *string `json:"start_time,omitempty" db:"start_time"`
	SeatCount      *int    `json:"seat_count,omitempty" db:"seat_count"`
	LuggageCount   *int    `json:"luggage_count,omitempty" db:"luggage_count"`
	BabySeatCount  *int    `json:"baby_seat_count,omitempty" db:"baby_seat_count"`
	SportGearCount *int    `json:"sport_gear_count,omitempty" db:"sport_gear_count"`
	PayMethod      *string `json:"pay_method,omitempty" db:"pay_method"`
	SmokePolicy    *string `json:"smoke_policy,omitempty" db:"smoke_policy"`
	PetPolicy      *string `json:"pet_policy,omitempty" db:"pet_policy"`
	CurbPolicy     *string `json:"curb_policy,omitempty" db:"curb_policy"`
	CloseRide      *bool   `json:"close_ride,omitempty" db:"close_ride"`

	NeighborhoodID      *string `json:"neighborhood_id,omitempty" db:"neighborhood_id"`
	NeighborhoodOrdinal *int    `json:"neighborhood_ordinal,omitempty" db:"neighborhood_ordinal"`
	TerminalID          *string `json:"terminal_id,omitempty" db:"terminal_id"`
	TerminalOrdinal     *int    `json:"terminal_ordinal,omitempty" db:"terminal_ordinal"`

	CityStopDrops     []StopDrop `json:"city_stop_drops,omitempty"`
	TerminalStopDrops []StopDrop `json:"terminal_stop_drops,omitempty"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Validate проверяет каждое заполненное поле по его собственному ограничению.
// Любое нарушение отклоняет запрос целиком, с ошибкой по конкретному полю.
func (p *ChangeProposal) Validate() error {
	fe := FieldErrors{}

	if p.Date != nil {
		if _, err := time.Parse(DateLayout, *p.Date); err != nil {
			fe["ride_date"] = "must be a valid date (YYYY-MM-DD)"
		}
	}
	if p.StartTime != nil {
		if _, err := time.Parse(TimeLayout, *p.StartTime); err != nil {
			fe["start_time"] = "must be a valid time (HH:MM)"
		}
	}
	if p.SeatCount != nil && *p.SeatCount < 1 {
		fe["seat_count"] = "must be a positive integer"
	}
	if p.LuggageCount != nil && *p.LuggageCount < 0 {
		fe["luggage_count"] = "must not be negative"
	}
	if p.BabySeatCount != nil && *p.BabySeatCount < 0 {
		fe["baby_seat_count"] = "must not be negative"
	}
	if p.SportGearCount != nil && *p.SportGearCount < 0 {
		fe["sport_gear_count"] = "must not be negative"
	}
	if p.PayMethod != nil && !model.IsValidPayMethod(*p.PayMethod) {
		fe["pay_method"] = "unknown pay method"
	}
	if p.SmokePolicy != nil && !model.IsValidPolicy(*p.SmokePolicy) {
		fe["smoke_policy"] = "unknown smoke policy"
	}
	if p.PetPolicy != nil && !model.IsValidPolicy(*p.PetPolicy) {
		fe["pet_policy"] = "unknown pet policy"
	}
	if p.CurbPolicy != nil && !model.IsValidPolicy(*p.CurbPolicy) {
		fe["curb_policy"] = "unknown curb policy"
	}
	if p.NeighborhoodID != nil {
		if _, err := uuid.Parse(*p.NeighborhoodID); err != nil {
			fe["neighborhood_id"] = "must be a UUID"
		}
	}
	if p.NeighborhoodOrdinal != nil && *p.NeighborhoodOrdinal < 0 {
		fe["neighborhood_ordinal"] = "must not be negative"
	}
	if p.TerminalID != nil {
		if _, err := uuid.Parse(*p.TerminalID); err != nil {
			fe["terminal_id"] = "must be a UUID"
		}
	}
	if p.TerminalOrdinal != nil && *p.TerminalOrdinal < 0 {
		fe["terminal_ordinal"] = "must not be negative"
	}
	for i, d := range p.CityStopDrops {
		if _, err := uuid.Parse(d.StopID); err != nil {
			fe["city_stop_drops"] = "entry " + strconv.Itoa(i) + " must reference a UUID"
		}
	}
	for i, d := range p.TerminalStopDrops {
		if _, err := uuid.Parse(d.StopID); err != nil {
			fe["terminal_stop_drops"] = "entry " + strconv.Itoa(i) + " must reference a UUID"
		}
	}

	if len(fe) > 0 {
		return fe
	}
	return nil
}

// HasChange сообщает, заполнено ли хотя бы одно поле.
func (p ChangeProposal) HasChange() bool {
	return p.Date != nil || p.StartTime != nil ||
		p.SeatCount != nil || p.LuggageCount != nil ||
		p.BabySeatCount != nil || p.SportGearCount != nil ||
		p.PayMethod != nil || p.SmokePolicy != nil ||
		p.PetPolicy != nil || p.CurbPolicy != nil ||
		p.CloseRide != nil ||
		p.NeighborhoodID != nil || p.NeighborhoodOrdinal != nil ||
		p.TerminalID != nil || p.TerminalOrdinal != nil ||
		len(p.CityStopDrops) > 0 || len(p.TerminalStopDrops) > 0
}

// DiffersFrom — структурное сравнение со вторым запросом: все изменяемые поля
// плюс симметрическая разность обоих списков удаляемых остановок. Используется,
// чтобы не перезаписывать идентичный pending-запрос.
func (p ChangeProposal) DiffersFrom(other ChangeProposal) bool {
	if !eqStr(p.Date, other.Date) || !eqStr(p.StartTime, other.StartTime) {
		return true
	}
	if !eqInt(p.SeatCount, other.SeatCount) || !eqInt(p.LuggageCount, other.LuggageCount) ||
		!eqInt(p.BabySeatCount, other.BabySeatCount) || !eqInt(p.SportGearCount, other.SportGearCount) {
		return true
	}
	if !eqStr(p.PayMethod, other.PayMethod) || !eqStr(p.SmokePolicy, other.SmokePolicy) ||
		!eqStr(p.PetPolicy, other.PetPolicy) || !eqStr(p.CurbPolicy, other.CurbPolicy) {
		return true
	}
	if !eqBool(p.CloseRide, other.CloseRide) {
		return true
	}
	if !eqStr(p.NeighborhoodID, other.NeighborhoodID) || !eqInt(p.NeighborhoodOrdinal, other.NeighborhoodOrdinal) ||
		!eqStr(p.TerminalID, other.TerminalID) || !eqInt(p.TerminalOrdinal, other.TerminalOrdinal) {
		return true
	}
	if !sameStopSet(p.CityStopDrops, other.CityStopDrops) {
		return true
	}
	if !sameStopSet(p.TerminalStopDrops, other.TerminalStopDrops) {
		return true
	}
	return false
}

// ApplyTo копирует каждое заполненное поле на поездку; nil-поля оставляют
// текущее значение нетронутым.
func (p ChangeProposal) ApplyTo(r *Ride) {
	if p.Date != nil {
		if d, err := time.Parse(DateLayout, *p.Date); err == nil {
			r.Date = d
		}
	}
	if p.StartTime != nil {
		r.StartTime = *p.StartTime
	}
	if p.SeatCount != nil {
		r.SeatCount = *p.SeatCount
	}
	if p.LuggageCount != nil {
		r.LuggageCount = *p.LuggageCount
	}
	if p.BabySeatCount != nil {
		r.BabySeatCount = *p.BabySeatCount
	}
	if p.SportGearCount != nil {
		r.SportGearCount = *p.SportGearCount
	}
	if p.PayMethod != nil {
		r.PayMethod = *p.PayMethod
	}
	if p.SmokePolicy != nil {
		r.SmokePolicy = *p.SmokePolicy
	}
	if p.PetPolicy != nil {
		r.PetPolicy = *p.PetPolicy
	}
	if p.CurbPolicy != nil {
		r.CurbPolicy = *p.CurbPolicy
	}
}

// ProposedDepartureAt возвращает дату/время отправления, которые получит
// поездка после принятия запроса (незаполненные части берутся из base).
func (p ChangeProposal) ProposedDepartureAt(base Ride) time.Time {
	date := base.Date
	if p.Date != nil {
		if d, err := time.Parse(DateLayout, *p.Date); err == nil {
			date = d
		}
	}
	startTime := base.StartTime
	if p.StartTime != nil {
		startTime = *p.StartTime
	}
	return combineDateTime(date, startTime)
}

func eqStr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eqInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eqBool(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameStopSet(a, b []StopDrop) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]int, len(a))
	for _, d := range a {
		set[d.StopID]++
	}
	for _, d := range b {
		set[d.StopID]--
		if set[d.StopID] < 0 {
			return false
		}
	}
	return true
}

