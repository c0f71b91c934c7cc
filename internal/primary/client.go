// Package primary reads active jobs from the primary ingest platform.
package primary

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/MimeLyc/dvr-mirror/internal/config"
	"github.com/MimeLyc/dvr-mirror/internal/state"
	"github.com/MimeLyc/dvr-mirror/internal/transport"
	"github.com/MimeLyc/dvr-mirror/pkg/file"
	"github.com/MimeLyc/dvr-mirror/pkg/log"
)

// Client reads active jobs and their output files from the ingest platform.
type Client struct {
	baseURL  string
	channels config.Channels
	http     *transport.Client
}

// NewClient returns a client for baseURL. A nil httpClient gets the default
// transport with gateway retries.
func NewClient(baseURL string, channels config.Channels, httpClient *transport.Client) *Client {
	if httpClient == nil {
		httpClient = transport.New()
	}
	return &Client{
		baseURL:  baseURL,
		channels: channels,
		http:     httpClient,
	}
}

// ListActiveJobs returns the current active job set. An error means the
// snapshot could not be taken; it is never reported as an empty set. Jobs whose
// primary file cannot be determined are left out.
func (c *Client) ListActiveJobs(ctx context.Context) (state.ActiveJobSet, error) {
	endpoint := c.baseURL + "/ingests/activejobsinfo"

	var ingests []IngestJobs
	if err := c.http.GetJSON(ctx, endpoint, &ingests); err != nil {
		return nil, fmt.Errorf("get active jobs info: %w", err)
	}
	if ingests == nil {
		return nil, fmt.Errorf("get active jobs info: %w", &transport.Error{
			Kind: transport.ErrDecode, Op: http.MethodGet, URL: endpoint,
			Cause: fmt.Errorf("expected a list, got null"),
		})
	}

	ret := make(state.ActiveJobSet)
	for _, ingest := range ingests {
		ingestID := string(ingest.IngestID)
		if ingestID == "" {
			log.Warn("Skipping active jobs entry without ingestId")
			continue
		}
		logicalName := c.channels.LogicalName(ingestID)

		for _, job := range ingest.ActiveJobsInfo {
			jobID := string(job.ID)
			if jobID == "" {
				log.Warn("Skipping job without id on ingest %s (%s)", ingestID, logicalName)
				continue
			}
			basename, ok := c.FetchPrimaryBasename(ctx, ingestID, jobID)
			if !ok {
				continue
			}
			ret[state.JobKey{IngestID: ingestID, JobID: jobID}] = state.JobRecord{
				Basename:    basename,
				LogicalName: logicalName,
			}
		}
	}
	return ret, nil
}

// FetchPrimaryBasename returns the job's primary output name without its
// extension. Any failure is logged and reported as absent.
func (c *Client) FetchPrimaryBasename(ctx context.Context, ingestID, jobID string) (string, bool) {
	endpoint := fmt.Sprintf("%s/ingests/%s/jobs/%s/files",
		c.baseURL, url.PathEscape(ingestID), url.PathEscape(jobID))

	var files JobFiles
	if err := c.http.GetJSON(ctx, endpoint, &files); err != nil {
		log.Error("Failed to get files info for ingest %s, job %s: %v", ingestID, jobID, err)
		return "", false
	}

	name, ok := files.primaryFileName()
	if !ok {
		log.Debug("No primary file for ingest %s, job %s", ingestID, jobID)
		return "", false
	}
	return file.StripExt(name), true
}
