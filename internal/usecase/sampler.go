package usecase

import (
	"sort"
	"time"

	"dealwatch-service/internal/domain/entity"
)

// SampleQueries returns the deterministic set of searches for route as of now.
// Departures are now's UTC date plus each offset day inside the horizon; round
// trips are paired with the shortest and longest stay, dropping returns past
// the horizon. Queries come out nearest departure first, then by stay, then by
// cabin, so a per-tick ceiling keeps the near-term ones.
func SampleQueries(route *entity.Route, now time.Time, offsets []int) []entity.FareQuery {
	today := now.UTC().Truncate(24 * time.Hour)
	horizonEnd := today.AddDate(0, 0, route.HorizonDays)

	cabins := route.Cabins()
	if len(cabins) == 0 {
		cabins = []entity.CabinClass{entity.CabinEconomy}
	}

	var stays []int
	if route.IsRoundTrip() {
		stays = append(stays, route.MinDays)
		if route.MaxDays != route.MinDays {
			stays = append(stays, route.MaxDays)
		}
	}

	seenOffset := make(map[int]bool, len(offsets))
	var queries []entity.FareQuery
	for _, offset := range sortedOffsets(offsets) {
		if offset < 1 || offset > route.HorizonDays || seenOffset[offset] {
			continue
		}
		seenOffset[offset] = true
		depart := today.AddDate(0, 0, offset)

		if !route.IsRoundTrip() {
			for _, cabin := range cabins {
				queries = append(queries, newQuery(route, depart, nil, cabin))
			}
			continue
		}

		for _, stay := range stays {
			ret := depart.AddDate(0, 0, stay)
			if ret.After(horizonEnd) {
				continue
			}
			for _, cabin := range cabins {
				r := ret
				queries = append(queries, newQuery(route, depart, &r, cabin))
			}
		}
	}
	return queries
}

func newQuery(route *entity.Route, depart time.Time, ret *time.Time, cabin entity.CabinClass) entity.FareQuery {
	return entity.FareQuery{
		Origin:        route.Origin,
		Destination:   route.Destination,
		DepartureDate: depart,
		ReturnDate:    ret,
		Cabin:         cabin,
		Currency:      route.Currency,
	}
}

func sortedOffsets(offsets []int) []int {
	out := append([]int(nil), offsets...)
	sort.Ints(out)
	return out
}
