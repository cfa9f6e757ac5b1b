package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrRideNotFound возвращается когда поездка не найдена
	ErrRideNotFound = errors.New("ride not found")

	// ErrRiderNotFound возвращается когда спецификация путешественника не найдена
	ErrRiderNotFound = errors.New("rider not found")

	// ErrMembershipNotFound возвращается когда связка участника не найдена
	ErrMembershipNotFound = errors.New("membership not found")

	// ErrProposalNotFound возвращается когда запрос на изменение не найден
	ErrProposalNotFound = errors.New("change proposal not found")

	// ErrPlaceNotFound возвращается когда район или терминал не найден
	ErrPlaceNotFound = errors.New("place not found")

	// ErrMembersNotLoaded — предусловие: снимок поездки без участников
	ErrMembersNotLoaded = errors.New("ride members must be populated")

	// ErrNotApplicant возвращается при попытке принять участника не в статусе applied
	ErrNotApplicant = errors.New("membership is not a pending application")

	// ErrRideUniqueMember возвращается при попытке исключить участника с уникальной ролью
	ErrRideUniqueMember = errors.New("cannot expel a ride-unique member")

	// ErrNotRideUnique возвращается когда операция требует владельца/водителя
	ErrNotRideUnique = errors.New("membership does not hold a ride-unique role")

	// ErrOtherRideActive возвращается когда участник состоит в другой поездке с попутчиками
	ErrOtherRideActive = errors.New("rider belongs to another active ride with co-riders")

	// ErrTimeWindow возвращается когда время кандидата вне допустимого окна
	ErrTimeWindow = errors.New("departure time outside the allowed window")

	// ErrTravelerPresent возвращается когда путешественник уже участвует в поездке
	ErrTravelerPresent = errors.New("traveler already present in ride")

	// ErrAirportMismatch возвращается при несовпадении аэропорта
	ErrAirportMismatch = errors.New("airport mismatch")

	// ErrAggloMismatch возвращается при несовпадении агломерации
	ErrAggloMismatch = errors.New("agglomeration mismatch")

	// ErrTowardMismatch возвращается при несовпадении направления
	ErrTowardMismatch = errors.New("ride direction mismatch")

	// ErrLastCityStop возвращается когда изменение оставило бы поездку без остановок
	ErrLastCityStop = errors.New("change would drop the last city stop")

	// ErrProposalMismatch возвращается когда запрос принадлежит другой связке
	ErrProposalMismatch = errors.New("proposal belongs to a different membership")

	// ErrNoChange возвращается для запроса без единого заполненного поля
	ErrNoChange = errors.New("proposal carries no change")

	// ErrNoCoRiders возвращается когда передача поездки невозможна без попутчиков
	ErrNoCoRiders = errors.New("ride has no co-riders to take over")
)

// FieldErrors — ошибки валидации запроса на изменение, по полям.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fe[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
