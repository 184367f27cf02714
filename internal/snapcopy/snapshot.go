package snapcopy

import (
	"sort"
	"strings"
	"time"
)

// SnapshotType is the RDS snapshot type string.
type SnapshotType string

const (
	TypeAutomated SnapshotType = "automated"
	TypeManual    SnapshotType = "manual"
	TypeShared    SnapshotType = "shared"
	TypePublic    SnapshotType = "public"
	TypeAWSBackup SnapshotType = "awsbackup"
)

// Snapshot is one cluster snapshot as reported by the service.
type Snapshot struct {
	ClusterID  string
	SnapshotID string
	Type       SnapshotType
	CreatedAt  time.Time
}

// Inventory is the per-run view of the snapshot listing.
type Inventory struct {
	// Clusters lists cluster ids with automated snapshots in order of first
	// appearance in the listing.
	Clusters []string
	// Automated holds each cluster's automated snapshots in listing order.
	Automated map[string][]Snapshot
	// Manual is the set of manual snapshot identifiers.
	Manual map[string]struct{}
	// Counts is the number of snapshots seen per type, ignored types included.
	Counts map[SnapshotType]int
}

// Partition splits a listing into automated snapshots by cluster and the set
// of manual identifiers. Snapshots of any other type are counted and dropped.
func Partition(snaps []Snapshot) Inventory {
	inv := Inventory{
		Automated: make(map[string][]Snapshot),
		Manual:    make(map[string]struct{}),
		Counts:    make(map[SnapshotType]int),
	}
	for _, s := range snaps {
		inv.Counts[s.Type]++
		switch s.Type {
		case TypeAutomated:
			if _, ok := inv.Automated[s.ClusterID]; !ok {
				inv.Clusters = append(inv.Clusters, s.ClusterID)
			}
			inv.Automated[s.ClusterID] = append(inv.Automated[s.ClusterID], s)
		case TypeManual:
			inv.Manual[s.SnapshotID] = struct{}{}
		default:
			// shared, public and backup-vault snapshots are not ours to copy
		}
	}
	return inv
}

// HasManual reports whether a manual snapshot named id exists.
func (inv Inventory) HasManual(id string) bool {
	_, ok := inv.Manual[id]
	return ok
}

// Latest returns the most recent snapshot of snaps. Snapshots are stable-sorted
// ascending by creation time and the last one wins, so among equal timestamps
// the one listed last is chosen. snaps is sorted in place.
func Latest(snaps []Snapshot) (Snapshot, bool) {
	if len(snaps) == 0 {
		return Snapshot{}, false
	}
	sort.SliceStable(snaps, func(i, j int) bool {
		return snaps[i].CreatedAt.Before(snaps[j].CreatedAt)
	})
	return snaps[len(snaps)-1], true
}

// TargetIdentifier strips the namespace prefix from an automated snapshot id:
// everything up to and including the last colon. "rds:db-2024-01-01" becomes
// "db-2024-01-01"; ids without a colon are returned unchanged.
func TargetIdentifier(source string) string {
	if i := strings.LastIndex(source, ":"); i >= 0 {
		return source[i+1:]
	}
	return source
}
