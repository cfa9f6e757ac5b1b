package domain

import "time"

// TimeLayout — формат поля start_time ("чч:мм")
const TimeLayout = "15:04"

// DateLayout — формат дат в запросах и DTO
const DateLayout = "2006-01-02"

// Ride представляет совместную поездку в/из аэропорта.
type Ride struct {
	ID             string    `json:"id" db:"id"`
	Date           time.Time `json:"ride_date" db:"ride_date"`
	StartTime      string    `json:"start_time" db:"start_time"`
	Status         string    `json:"status" db:"status"`
	Type           string    `json:"ride_type" db:"ride_type"`
	Toward         string    `json:"toward" db:"toward"`
	SeatCount      int       `json:"seat_count" db:"seat_count"`
	LuggageCount   int       `json:"luggage_count" db:"luggage_count"`
	BabySeatCount  int       `json:"baby_seat_count" db:"baby_seat_count"`
	SportGearCount int       `json:"sport_gear_count" db:"sport_gear_count"`
	PayMethod      string    `json:"pay_method" db:"pay_method"`
	SmokePolicy    string    `json:"smoke_policy" db:"smoke_policy"`
	PetPolicy      string    `json:"pet_policy" db:"pet_policy"`
	CurbPolicy     string    `json:"curb_policy" db:"curb_policy"`
	Public         bool      `json:"public" db:"public"`
	AirportID      string    `json:"airport_id" db:"airport_id"`
	AggloID        string    `json:"agglo_id" db:"agglo_id"`
	CreatorID      string    `json:"creator_id" db:"creator_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// DepartureAt возвращает дату и время отправления одним значением.
func (r Ride) DepartureAt() time.Time {
	return combineDateTime(r.Date, r.StartTime)
}

// Rider — спецификация путешественника: когда, куда и с какими требованиями
// он едет. Может быть привязан максимум к одной активной поездке.
type Rider struct {
	ID             string    `json:"id" db:"id"`
	TravelerID     string    `json:"traveler_id" db:"traveler_id"`
	Date           time.Time `json:"ride_date" db:"ride_date"`
	StartTime      string    `json:"start_time" db:"start_time"`
	Toward         string    `json:"toward" db:"toward"`
	AirportID      string    `json:"airport_id" db:"airport_id"`
	TerminalID     string    `json:"terminal_id,omitempty" db:"terminal_id"`
	NeighborhoodID string    `json:"neighborhood_id" db:"neighborhood_id"`
	AggloID        string    `json:"agglo_id" db:"agglo_id"`
	SeatCount      int       `json:"seat_count" db:"seat_count"`
	LuggageCount   int       `json:"luggage_count" db:"luggage_count"`
	BabySeatCount  int       `json:"baby_seat_count" db:"baby_seat_count"`
	SportGearCount int       `json:"sport_gear_count" db:"sport_gear_count"`
	PayPref        string    `json:"pay_pref" db:"pay_pref"`
	SmokePref      string    `json:"smoke_pref" db:"smoke_pref"`
	PetPref        string    `json:"pet_pref" db:"pet_pref"`
	CurbPref       string    `json:"curb_pref" db:"curb_pref"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// DepartureAt возвращает дату и время отправления одним значением.
func (r Rider) DepartureAt() time.Time {
	return combineDateTime(r.Date, r.StartTime)
}

func combineDateTime(date time.Time, startTime string) time.Time {
	t, err := time.Parse(TimeLayout, startTime)
	if err != nil {
		return date
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		t.Hour(), t.Minute(), 0, 0, time.UTC)
}
