package primary

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PrimaryPresetTag marks the job's main output in a file listing.
const PrimaryPresetTag = "Primary"

// IngestJobs is one entry of GET /ingests/activejobsinfo.
type IngestJobs struct {
	IngestID       OpaqueID  `json:"ingestId"`
	ActiveJobsInfo []JobInfo `json:"activeJobsInfo"`
}

type JobInfo struct {
	ID OpaqueID `json:"id"`
}

// JobFiles is the body of GET /ingests/{ingestId}/jobs/{jobId}/files.
type JobFiles struct {
	Data []JobFile `json:"data"`
}

type JobFile struct {
	PresetTag string `json:"presetTag"`
	FileName  string `json:"fileName"`
}

// OpaqueID accepts identifiers sent either as JSON strings or numbers.
type OpaqueID string

func (id *OpaqueID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = OpaqueID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number, got %s", data)
	}
	*id = OpaqueID(n.String())
	return nil
}

// primaryFileName returns the name of the first file tagged as primary.
func (f JobFiles) primaryFileName() (string, bool) {
	for _, file := range f.Data {
		if file.PresetTag == PrimaryPresetTag && file.FileName != "" {
			return file.FileName, true
		}
	}
	return "", false
}
