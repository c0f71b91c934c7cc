// Package recorder drives the secondary recording system (DVR).
package recorder

import (
	"context"
	"fmt"

	"github.com/MimeLyc/dvr-mirror/internal/config"
	"github.com/MimeLyc/dvr-mirror/internal/metrics"
	"github.com/MimeLyc/dvr-mirror/internal/transport"
	"github.com/MimeLyc/dvr-mirror/pkg/log"
)

// Outcome is the result of a start or stop request.
type Outcome string

const (
	OutcomeStarted          Outcome = "started"
	OutcomeStopped          Outcome = "stopped"
	OutcomeAlreadyRecording Outcome = "already_recording"
	OutcomeNotRecording     Outcome = "not_recording"
	OutcomeUnmapped         Outcome = "unmapped"
	OutcomeFailed           Outcome = "failed"
)

// Source is one entry of GET /sources; its index is the source id.
type Source struct {
	IsRecording bool `json:"is_recording"`
}

type recordingNameRequest struct {
	RecordingName string `json:"recording_name"`
}

// Client drives the DVR sources mapped from logical channel names.
type Client struct {
	baseURL  string
	channels config.Channels
	http     *transport.Client
	metrics  *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithMetrics counts every start and stop outcome on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient returns a client for baseURL. A nil httpClient gets a transport
// that makes a single attempt per request.
func NewClient(baseURL string, channels config.Channels, httpClient *transport.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = transport.New(transport.WithMaxAttempts(1))
	}
	c := &Client{
		baseURL:  baseURL,
		channels: channels,
		http:     httpClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsRecording reports whether the source is recording. Any failure reads as
// not recording.
func (c *Client) IsRecording(ctx context.Context, sourceID int) bool {
	var sources []Source
	if err := c.http.GetJSON(ctx, c.baseURL+"/sources", &sources); err != nil {
		log.Error("Failed to get DVR sources: %v", err)
		return false
	}
	if sources == nil {
		log.Error("Invalid DVR sources data: expected a list")
		return false
	}
	if sourceID < 0 || sourceID >= len(sources) {
		log.Error("DVR source ID %d is out of range (%d sources)", sourceID, len(sources))
		return false
	}
	return sources[sourceID].IsRecording
}

// StartRecording names and starts the recording on the source mapped to
// logicalName, unless it is already recording.
func (c *Client) StartRecording(ctx context.Context, basename, logicalName string) Outcome {
	outcome := c.start(ctx, basename, logicalName)
	c.metrics.RecorderAction("start", string(outcome))
	return outcome
}

func (c *Client) start(ctx context.Context, basename, logicalName string) Outcome {
	sourceID, ok := c.channels.SourceID(logicalName)
	if !ok {
		log.Error("No DVR source ID found for logical name %s", logicalName)
		return OutcomeUnmapped
	}

	if c.IsRecording(ctx, sourceID) {
		log.Info("DVR for %s is already recording", logicalName)
		return OutcomeAlreadyRecording
	}

	nameURL := c.sourceURL(sourceID, "recording_name")
	if err := c.http.PutJSON(ctx, nameURL, recordingNameRequest{RecordingName: basename}); err != nil {
		log.Error("Failed to set recording name for %s: %v", logicalName, err)
		return OutcomeFailed
	}
	log.Info("Set recording name to %s for %s", basename, logicalName)

	if _, err := c.http.Get(ctx, c.sourceURL(sourceID, "record")); err != nil {
		log.Error("Failed to start DVR recording for %s: %v", logicalName, err)
		return OutcomeFailed
	}
	log.Info("Started DVR recording for %s", logicalName)
	return OutcomeStarted
}

// StopRecording stops the source mapped to logicalName if it is recording.
// basename is only used for logging; the recorder stops by source.
func (c *Client) StopRecording(ctx context.Context, basename, logicalName string) Outcome {
	outcome := c.stop(ctx, basename, logicalName)
	c.metrics.RecorderAction("stop", string(outcome))
	return outcome
}

func (c *Client) stop(ctx context.Context, basename, logicalName string) Outcome {
	sourceID, ok := c.channels.SourceID(logicalName)
	if !ok {
		log.Error("No DVR source ID found for logical name %s", logicalName)
		return OutcomeUnmapped
	}

	if !c.IsRecording(ctx, sourceID) {
		log.Info("DVR for %s is not recording", logicalName)
		return OutcomeNotRecording
	}

	if _, err := c.http.Get(ctx, c.sourceURL(sourceID, "stop")); err != nil {
		log.Error("Failed to stop DVR recording for %s (%s): %v", logicalName, basename, err)
		return OutcomeFailed
	}
	log.Info("Stopped DVR recording for %s (%s)", logicalName, basename)
	return OutcomeStopped
}

func (c *Client) sourceURL(sourceID int, action string) string {
	return fmt.Sprintf("%s/sources/%d/%s", c.baseURL, sourceID, action)
}
