package out

import "context"

// PlaceResolver — внешний коллаборатор: проверка привязки мест.
// Идентификаторы приходят уже разрешенными; resolver только подтверждает,
// какой агломерации принадлежит район и какому аэропорту — терминал.
type PlaceResolver interface {
	// NeighborhoodAgglo возвращает id агломерации района
	NeighborhoodAgglo(ctx context.Context, neighborhoodID string) (string, error)

	// TerminalAirport возвращает id аэропорта терминала
	TerminalAirport(ctx context.Context, terminalID string) (string, error)
}
