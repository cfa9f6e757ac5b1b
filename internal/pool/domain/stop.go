package domain

import "time"

// CityStop — точка посадки/высадки в районе города. Принадлежит одной поездке
// и ссылается на участника, чью посадку представляет. В пределах поездки
// ordinal-значения уникальны и образуют плотную последовательность 0..n-1.
type CityStop struct {
	ID             string    `json:"id" db:"id"`
	RideID         string    `json:"ride_id" db:"ride_id"`
	MembershipID   string    `json:"ride_rider_id" db:"ride_rider_id"`
	NeighborhoodID string    `json:"neighborhood_id" db:"neighborhood_id"`
	Ordinal        int       `json:"ordinal" db:"ordinal"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// TerminalStop — точка посадки/высадки у терминала аэропорта. Та же модель
// упорядочивания, что у CityStop, но последовательность независимая.
type TerminalStop struct {
	ID           string    `json:"id" db:"id"`
	RideID       string    `json:"ride_id" db:"ride_id"`
	MembershipID string    `json:"ride_rider_id" db:"ride_rider_id"`
	TerminalID   string    `json:"terminal_id" db:"terminal_id"`
	Ordinal      int       `json:"ordinal" db:"ordinal"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
