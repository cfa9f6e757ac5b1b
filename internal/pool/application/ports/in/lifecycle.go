package in

import "airpool/internal/pool/domain"

// RideResult — исход операции жизненного цикла: обновленная поездка либо
// nil, когда поездка уничтожена.
type RideResult struct {
	Ride      *domain.Ride `json:"ride,omitempty"`
	Destroyed bool         `json:"destroyed"`
}
