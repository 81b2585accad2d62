// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

/*
Package cache provides a small in-process TTL cache.

The API uses it for the tour aggregate queries (difficulty stats, monthly
plans and geo lookups), which scan whole collections but change only when
a tour or review is written. Writers call Clear; readers go through
GetOrLoad.

There is no background goroutine. Expired entries are dropped lazily on
Get and in bulk by CleanupExpired, which the server runs from a supervised
maintenance job:

	c := cache.New[any]("tour-aggregates", time.Minute)
	stats, err := c.GetOrLoad("stats", func() (any, error) {
	    return queries.Stats(ctx)
	})

Lookups are exported as natours_cache_lookups_total{cache,result}.
*/
package cache
