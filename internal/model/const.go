package model

// ==== Ride Status ====
const (
	RideStatusOpen     = "open"
	RideStatusFull     = "full"
	RideStatusClosed   = "closed"
	RideStatusDisabled = "disabled"
)

// ==== Ride Type ====
const (
	RideTypeShareCab    = "shareCab"
	RideTypeCabRide     = "cabRide"
	RideTypeOwnCar      = "ownCar"
	RideTypeRentalCar   = "rentalCar"
	RideTypeRelativeCar = "relativeCar"
)

// ==== Ride Direction ====
const (
	TowardCity    = "city"
	TowardAirport = "airport"
)

// ==== Membership Status ====
const (
	MemberStatusDriver   = "driver"
	MemberStatusProvider = "provider"
	MemberStatusOwner    = "owner"
	MemberStatusAdmin    = "admin"
	MemberStatusJoined   = "joined"
	MemberStatusApplied  = "applied"
	MemberStatusDenied   = "denied"
	MemberStatusSaved    = "saved"
	MemberStatusLeft     = "left"
	MemberStatusSuspend  = "suspend"
	MemberStatusNone     = "none"
)

// ==== Pay Method ====
const (
	PayEach  = "each"
	PaySplit = "split"
	PayOwner = "owner"
)

// ==== Flexible Policies (smoke / pet / curb) ====
const (
	PolicyYes  = "yes"
	PolicyNo   = "no"
	PolicyFlex = "flex"
)

// ==== Pool Event Type ====
const (
	EventMemberAdmitted  = "MEMBER_ADMITTED"
	EventMemberLeft      = "MEMBER_LEFT"
	EventMemberExpelled  = "MEMBER_EXPELLED"
	EventOwnerChanged    = "OWNER_CHANGED"
	EventRideReset       = "RIDE_RESET"
	EventRideSuspended   = "RIDE_SUSPENDED"
	EventRideReactivated = "RIDE_REACTIVATED"
	EventRideDestroyed   = "RIDE_DESTROYED"
)

// IsRideUniqueStatus сообщает, является ли статус уникальным для поездки
// (водитель, провайдер или владелец — максимум один на поездку).
func IsRideUniqueStatus(s string) bool {
	switch s {
	case MemberStatusDriver, MemberStatusProvider, MemberStatusOwner:
		return true
	default:
		return false
	}
}

// IsActiveMemberStatus сообщает, занимает ли участник место в поездке.
func IsActiveMemberStatus(s string) bool {
	switch s {
	case MemberStatusDriver, MemberStatusProvider, MemberStatusOwner,
		MemberStatusAdmin, MemberStatusJoined:
		return true
	default:
		return false
	}
}

// RideUniqueStatusFor возвращает уникальный статус по типу поездки:
// ownCar/relativeCar → driver, rentalCar → provider, иначе owner.
func RideUniqueStatusFor(rideType string) string {
	switch rideType {
	case RideTypeOwnCar, RideTypeRelativeCar:
		return MemberStatusDriver
	case RideTypeRentalCar:
		return MemberStatusProvider
	default:
		return MemberStatusOwner
	}
}

// AllowsCoRiders сообщает, допускает ли тип поездки несколько не-владельцев.
func AllowsCoRiders(rideType string) bool {
	switch rideType {
	case RideTypeShareCab, RideTypeCabRide:
		return true
	default:
		return false
	}
}

// IsValidPayMethod проверяет принадлежность значения enum способов оплаты.
func IsValidPayMethod(s string) bool {
	return s == PayEach || s == PaySplit || s == PayOwner
}

// IsValidPolicy проверяет принадлежность значения enum гибких политик.
func IsValidPolicy(s string) bool {
	return s == PolicyYes || s == PolicyNo || s == PolicyFlex
}
