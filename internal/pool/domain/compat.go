package domain

import (
	"math"
	"time"
)

// Окна допуска для жизненного цикла участия.
const (
	admitWindow       = 12 * time.Hour // кандидат vs время поездки
	applyChangeWindow = 24 * time.Hour // запрошенное время vs текущее время поездки
	keepEarlyWindow   = 360            // минут раньше самой поздней остановки
	keepLateWindow    = 10             // минут позже самой поздней остановки
)

// MayAdmit решает, может ли кандидат вступить в поездку: время в пределах
// 12 часов, путешественник еще не в поездке, совпадают аэропорт, агломерация
// и направление.
func MayAdmit(st RideState, cand Rider) error {
	if cand.AirportID != st.Ride.AirportID {
		return ErrAirportMismatch
	}
	if cand.AggloID != st.Ride.AggloID {
		return ErrAggloMismatch
	}
	if cand.Toward != st.Ride.Toward {
		return ErrTowardMismatch
	}
	for _, m := range st.Members {
		if !m.Membership.IsActive() {
			continue
		}
		if m.Rider.TravelerID == cand.TravelerID {
			return ErrTravelerPresent
		}
	}
	diff := cand.DepartureAt().Sub(st.Ride.DepartureAt())
	if diff < -admitWindow || diff > admitWindow {
		return ErrTimeWindow
	}
	return nil
}

// ChangeScope — уже разрешенные привязки мест из запроса: агломерация
// запрошенного района и аэропорт запрошенного терминала.
type ChangeScope struct {
	NeighborhoodAggloID string
	TerminalAirportID   string
}

// MayApplyChange решает, может ли запрос быть применен к поездке: время в
// пределах 24 часов, район принадлежит агломерации поездки, терминал —
// аэропорту поездки, и после удалений остается хотя бы одна городская
// остановка.
func MayApplyChange(st RideState, p ChangeProposal, scope ChangeScope) error {
	diff := p.ProposedDepartureAt(st.Ride).Sub(st.Ride.DepartureAt())
	if diff < -applyChangeWindow || diff > applyChangeWindow {
		return ErrTimeWindow
	}
	if p.NeighborhoodID != nil && scope.NeighborhoodAggloID != st.Ride.AggloID {
		return ErrAggloMismatch
	}
	if p.TerminalID != nil && scope.TerminalAirportID != st.Ride.AirportID {
		return ErrAirportMismatch
	}
	if len(p.CityStopDrops) > 0 {
		remaining := len(st.CityStops) - len(p.CityStopDrops)
		if p.NeighborhoodID != nil {
			remaining++
		}
		if remaining < 1 {
			return ErrLastCityStop
		}
	}
	return nil
}

// MayKeep решает, может ли существующий участник оставаться в поездке:
// аэропорт и агломерация совпадают, а его время попадает в окно
// [-360, +10] минут относительно самого позднего отправления среди
// остальных активных участников.
func MayKeep(st RideState, member MemberView) error {
	if member.Rider.AirportID != st.Ride.AirportID {
		return ErrAirportMismatch
	}
	if member.Rider.AggloID != st.Ride.AggloID {
		return ErrAggloMismatch
	}
	latest, ok := st.LatestCoRiderDeparture(member.Membership.ID)
	if !ok {
		return nil
	}
	diffMin := int(member.Rider.DepartureAt().Sub(latest).Minutes())
	if diffMin < -keepEarlyWindow || diffMin > keepLateWindow {
		return ErrTimeWindow
	}
	return nil
}

// MatchScore оценивает соответствие кандидата поездке в диапазоне [0, 1].
// Несовпадение аэропорта, агломерации или направления сразу дает 0; дальше
// применяются ступенчатые штрафы за разницу во времени (асимметричные:
// приехать раньше хуже, чем позже), штрафы за несовпадение остановок,
// пропорциональные штрафы за нехватку мест и багажа, фиксированные — за
// нехватку детских кресел и мест под снаряжение, и небольшие симметричные
// штрафы за каждое несовпадение гибких предпочтений.
func MatchScore(st RideState, cand Rider) float64 {
	if cand.AirportID != st.Ride.AirportID ||
		cand.AggloID != st.Ride.AggloID ||
		cand.Toward != st.Ride.Toward {
		return 0
	}

	score := 1.0
	score -= timePenalty(cand.DepartureAt().Sub(st.Ride.DepartureAt()))
	score -= stopPenalty(st, cand)
	score -= capacityPenalty(st, cand)
	score -= preferencePenalty(st.Ride, cand)

	if score < 0 {
		score = 0
	}
	return math.Round(score*100) / 100
}

// timePenalty — ступени от 15 до 120+ минут; опоздание штрафуется мягче,
// чем слишком ранний выезд.
func timePenalty(diff time.Duration) float64 {
	min := diff.Minutes()
	early := min < 0
	abs := math.Abs(min)

	var band float64
	switch {
	case abs <= 15:
		band = 0
	case abs <= 30:
		band = 0.05
	case abs <= 60:
		band = 0.10
	case abs <= 120:
		band = 0.20
	default:
		band = 0.35
	}
	if early && band > 0 {
		band += 0.05
	}
	if early && abs > 120 {
		band += 0.10
	}
	return band
}

// stopPenalty — фиксированные штрафы, если терминала или района кандидата
// еще нет среди остановок поездки.
func stopPenalty(st RideState, cand Rider) float64 {
	p := 0.0

	hoodServed := false
	for _, s := range st.CityStops {
		if s.NeighborhoodID == cand.NeighborhoodID {
			hoodServed = true
			break
		}
	}
	if !hoodServed {
		p += 0.05
	}

	if cand.TerminalID != "" {
		terminalServed := false
		for _, s := range st.TerminalStops {
			if s.TerminalID == cand.TerminalID {
				terminalServed = true
				break
			}
		}
		if !terminalServed {
			p += 0.10
		}
	}
	return p
}

// capacityPenalty — пропорционально нехватке мест и багажа, фиксированно за
// детские кресла и снаряжение.
func capacityPenalty(st RideState, cand Rider) float64 {
	usedSeats, usedLuggage, usedBaby, usedSport := 0, 0, 0, 0
	for _, m := range st.ActiveMembers() {
		usedSeats += m.Rider.SeatCount
		usedLuggage += m.Rider.LuggageCount
		usedBaby += m.Rider.BabySeatCount
		usedSport += m.Rider.SportGearCount
	}

	p := 0.0
	if cand.SeatCount > 0 {
		if missing := usedSeats + cand.SeatCount - st.Ride.SeatCount; missing > 0 {
			p += 0.15 * float64(missing) / float64(cand.SeatCount)
		}
	}
	if cand.LuggageCount > 0 {
		if missing := usedLuggage + cand.LuggageCount - st.Ride.LuggageCount; missing > 0 {
			p += 0.10 * float64(missing) / float64(cand.LuggageCount)
		}
	}
	if cand.BabySeatCount > 0 && usedBaby+cand.BabySeatCount > st.Ride.BabySeatCount {
		p += 0.10
	}
	if cand.SportGearCount > 0 && usedSport+cand.SportGearCount > st.Ride.SportGearCount {
		p += 0.10
	}
	return p
}

// preferencePenalty — по каждому гибкому предпочтению свое поле политики
// поездки; "flex" совместим с любым значением.
func preferencePenalty(ride Ride, cand Rider) float64 {
	p := 0.0
	if cand.PayPref != ride.PayMethod {
		p += 0.03
	}
	if mismatchFlexible(cand.SmokePref, ride.SmokePolicy) {
		p += 0.03
	}
	if mismatchFlexible(cand.PetPref, ride.PetPolicy) {
		p += 0.03
	}
	if mismatchFlexible(cand.CurbPref, ride.CurbPolicy) {
		p += 0.03
	}
	return p
}

func mismatchFlexible(pref, policy string) bool {
	if pref == "flex" || policy == "flex" {
		return false
	}
	return pref != policy
}
