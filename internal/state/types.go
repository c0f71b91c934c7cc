package state

import (
	"fmt"
	"sort"
	"strings"
)

// KeySeparator joins ingest and job ids in the string form of a JobKey.
// Neither id is expected to contain it.
const KeySeparator = "|"

// JobKey identifies one active job on the primary system.
type JobKey struct {
	IngestID string
	JobID    string
}

func (k JobKey) String() string {
	return k.IngestID + KeySeparator + k.JobID
}

// ParseJobKey is the inverse of JobKey.String.
func ParseJobKey(s string) (JobKey, error) {
	parts := strings.Split(s, KeySeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return JobKey{}, fmt.Errorf("invalid job key %q", s)
	}
	return JobKey{IngestID: parts[0], JobID: parts[1]}, nil
}

// JobRecord is what is known about an active job.
type JobRecord struct {
	Basename    string `json:"basename"`
	LogicalName string `json:"logical_name"`
}

// ActiveJobSet is one snapshot of the active jobs.
type ActiveJobSet map[JobKey]JobRecord

func (s ActiveJobSet) Clone() ActiveJobSet {
	ret := make(ActiveJobSet, len(s))
	for k, v := range s {
		ret[k] = v
	}
	return ret
}

// Keys returns the keys ordered by ingest id, then job id.
func (s ActiveJobSet) Keys() []JobKey {
	keys := make([]JobKey, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	SortKeys(keys)
	return keys
}

// Encode converts the set to its string-keyed wire and storage form.
func (s ActiveJobSet) Encode() map[string]JobRecord {
	ret := make(map[string]JobRecord, len(s))
	for k, v := range s {
		ret[k.String()] = v
	}
	return ret
}

// Decode parses the string-keyed form. Entries with invalid keys are dropped
// and reported in skipped.
func Decode(raw map[string]JobRecord) (set ActiveJobSet, skipped []string) {
	set = make(ActiveJobSet, len(raw))
	for k, v := range raw {
		key, err := ParseJobKey(k)
		if err != nil {
			skipped = append(skipped, k)
			continue
		}
		set[key] = v
	}
	sort.Strings(skipped)
	return set, skipped
}

func SortKeys(keys []JobKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].IngestID != keys[j].IngestID {
			return keys[i].IngestID < keys[j].IngestID
		}
		return keys[i].JobID < keys[j].JobID
	})
}
