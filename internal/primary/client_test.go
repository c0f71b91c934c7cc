package primary

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/dvr-mirror/internal/config"
	"github.com/MimeLyc/dvr-mirror/internal/state"
	"github.com/MimeLyc/dvr-mirror/internal/transport"
)

const ingestPCR1 = "9C64992CFF3A4A3FA3C635BB7D9B6071"

func newTestClient(baseURL string) *Client {
	return NewClient(baseURL, config.DefaultChannels(),
		transport.New(transport.WithBackoff(time.Millisecond, 2*time.Millisecond)))
}

func TestClient_ListActiveJobs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ingests/activejobsinfo", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"ingestId": "` + ingestPCR1 + `", "activeJobsInfo": [{"id": "job-1", "state": "running"}, {"id": "job-2"}]},
			{"ingestId": "UNMAPPED", "activeJobsInfo": [{"id": 77}]},
			{"ingestId": "", "activeJobsInfo": [{"id": "orphan"}]},
			{"ingestId": "EMPTY"}
		]`))
	})
	mux.HandleFunc("/ingests/"+ingestPCR1+"/jobs/job-1/files", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": [
			{"presetTag": "Proxy", "fileName": "show_proxy.mp4"},
			{"presetTag": "Primary", "fileName": "show_20240101.mp4"}
		]}`))
	})
	mux.HandleFunc("/ingests/"+ingestPCR1+"/jobs/job-2/files", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": [{"presetTag": "Proxy", "fileName": "proxy.mp4"}]}`))
	})
	mux.HandleFunc("/ingests/UNMAPPED/jobs/77/files", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": [{"presetTag": "Primary", "fileName": "clip"}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	got, err := newTestClient(srv.URL).ListActiveJobs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, state.ActiveJobSet{
		{IngestID: ingestPCR1, JobID: "job-1"}: {Basename: "show_20240101", LogicalName: "PCR 1"},
		{IngestID: "UNMAPPED", JobID: "77"}:    {Basename: "clip", LogicalName: config.UnknownIngest},
	}, got)
}

func TestClient_ListActiveJobs_EmptyIsNotFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).ListActiveJobs(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestClient_ListActiveJobs_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		errKind transport.ErrorKind
	}{
		{name: "object instead of list", status: http.StatusOK, body: `{"data": []}`, errKind: transport.ErrDecode},
		{name: "null document", status: http.StatusOK, body: `null`, errKind: transport.ErrDecode},
		{name: "invalid json", status: http.StatusOK, body: `[{`, errKind: transport.ErrDecode},
		{name: "server error", status: http.StatusInternalServerError, body: ``, errKind: transport.ErrHTTPStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := newTestClient(srv.URL).ListActiveJobs(context.Background())
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, transport.IsKind(err, tt.errKind), "got %v", err)
		})
	}
}

func TestClient_ListActiveJobs_RetriesGatewayErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ListActiveJobs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClient_FetchPrimaryBasename(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   any
		want   string
		wantOK bool
	}{
		{
			name:   "strips last extension",
			status: http.StatusOK,
			body:   JobFiles{Data: []JobFile{{PresetTag: "Primary", FileName: "a.b.mxf"}}},
			want:   "a.b", wantOK: true,
		},
		{
			name:   "no extension",
			status: http.StatusOK,
			body:   JobFiles{Data: []JobFile{{PresetTag: "Primary", FileName: "raw"}}},
			want:   "raw", wantOK: true,
		},
		{
			name:   "primary without file name is ignored",
			status: http.StatusOK,
			body:   JobFiles{Data: []JobFile{{PresetTag: "Primary"}, {PresetTag: "Primary", FileName: "second.mp4"}}},
			want:   "second", wantOK: true,
		},
		{
			name:   "no primary",
			status: http.StatusOK,
			body:   JobFiles{Data: []JobFile{{PresetTag: "Proxy", FileName: "p.mp4"}}},
		},
		{name: "wrong shape", status: http.StatusOK, body: []string{"x"}},
		{name: "not found", status: http.StatusNotFound, body: map[string]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/ingests/ING/jobs/J%2F1/files", r.URL.EscapedPath())
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(tt.body)
			}))
			defer srv.Close()

			got, ok := newTestClient(srv.URL).FetchPrimaryBasename(context.Background(), "ING", "J/1")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpaqueID_Unmarshal(t *testing.T) {
	var v struct {
		A OpaqueID `json:"a"`
		B OpaqueID `json:"b"`
		C OpaqueID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": "x-1", "b": 12, "c": null}`), &v))
	assert.Equal(t, OpaqueID("x-1"), v.A)
	assert.Equal(t, OpaqueID("12"), v.B)
	assert.Equal(t, OpaqueID(""), v.C)

	require.Error(t, json.Unmarshal([]byte(`{"a": {"nested": true}}`), &v))
}
