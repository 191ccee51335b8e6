package schedule

import (
	"sort"
	"time"
)

// ResolveConflicts partitions holders into overlap clusters and assigns each
// holder its conflict count and position in place.
//
// Clusters are the transitive closure of pairwise time-range overlap: a chain
// A-B-C where A overlaps B and B overlaps C forms one three-member cluster
// even if A and C are disjoint. Within a cluster, positions 0..k-1 are
// assigned by ascending start instant, then ascending end instant, then
// original input order, so repeated runs over the same event set produce
// identical assignments regardless of input permutation of distinct events.
//
// Runs in O(n log n): one stable sort plus a linear sweep.
func ResolveConflicts(holders []*EventHolder) {
	if len(holders) == 0 {
		return
	}

	entries := make([]holderEntry, len(holders))
	for i, h := range holders {
		entries[i] = holderEntry{holder: h, index: i}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].holder.start.Before(entries[j].holder.start)
	})

	// Sweep left to right over runs of equal start instants. A run joins the
	// open cluster while it starts before the maximum end instant seen so
	// far; otherwise it closes the cluster (half-open intervals, so touching
	// endpoints do not conflict). Runs are taken whole because a
	// zero-duration holder overlaps an equal-start timed holder even though
	// neither reaches past the shared instant; admitting them one at a time
	// would make cluster membership depend on input order.
	clusterID := 0
	var cluster []holderEntry
	var maxEnd time.Time

	closeCluster := func() {
		if len(cluster) > 0 {
			finalizeCluster(cluster, clusterID)
			clusterID++
			cluster = nil
		}
	}

	for i := 0; i < len(entries); {
		j := i
		for j < len(entries) && entries[j].holder.start.Equal(entries[i].holder.start) {
			j++
		}
		run := entries[i:j]
		i = j

		if len(cluster) > 0 && run[0].holder.start.Before(maxEnd) {
			cluster = append(cluster, run...)
			if end := runMaxEnd(run); end.After(maxEnd) {
				maxEnd = end
			}
			continue
		}

		closeCluster()
		if runAllZeroDuration(run) {
			// Equal-instant zero-duration events do not overlap each other,
			// and nothing sorted after them can reach back to their instant.
			// Each one is its own cluster.
			for k := range run {
				finalizeCluster(run[k:k+1], clusterID)
				clusterID++
			}
			continue
		}
		cluster = append(cluster, run...)
		maxEnd = runMaxEnd(run)
	}
	closeCluster()
}

func runMaxEnd(run []holderEntry) time.Time {
	end := run[0].holder.end
	for _, e := range run[1:] {
		if e.holder.end.After(end) {
			end = e.holder.end
		}
	}
	return end
}

func runAllZeroDuration(run []holderEntry) bool {
	for _, e := range run {
		if e.holder.end.After(e.holder.start) {
			return false
		}
	}
	return true
}

type holderEntry struct {
	holder *EventHolder
	index  int
}

// finalizeCluster orders one closed cluster by the position tie-break and
// writes the layout into its holders.
func finalizeCluster(cluster []holderEntry, clusterID int) {
	sort.SliceStable(cluster, func(i, j int) bool {
		a, b := cluster[i].holder, cluster[j].holder
		if !a.start.Equal(b.start) {
			return a.start.Before(b.start)
		}
		if !a.end.Equal(b.end) {
			return a.end.Before(b.end)
		}
		return cluster[i].index < cluster[j].index
	})
	for pos, e := range cluster {
		e.holder.setLayout(clusterID, len(cluster), pos)
	}
}
