package projects

import (
	"strconv"

	"diamond-app-go/pkg/cache"
)

// Cache partitions. Lists are keyed by (owner, filter fingerprint, sort, page),
// details by (owner, id), yearly stats by (owner, year). Every write to one of
// these partitions goes through a cache.Mutation or an explicit invalidation;
// nothing else may touch them.

func listPrefix(userID string) string {
	return cache.Key("projects", "list", userID) + ":"
}

func listKey(userID, fingerprint, orderBy string, page, pageSize int, withCounts bool) string {
	suffix := "plain"
	if withCounts {
		suffix = "counts"
	}
	return cache.Key("projects", "list", userID, fingerprint, orderBy,
		strconv.Itoa(page), strconv.Itoa(pageSize), suffix)
}

func detailKey(userID, projectID string) string {
	return cache.Key("projects", "detail", userID, projectID)
}

// StatsCachePrefix covers every cached yearly-stats entry for a user.
func StatsCachePrefix(userID string) string {
	return cache.Key("stats", userID) + ":"
}

// StatsCacheKey addresses one (owner, year) stats entry.
func StatsCacheKey(userID string, year int) string {
	return cache.Key("stats", userID, strconv.Itoa(year))
}
