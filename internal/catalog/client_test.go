package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/marc2iiif/internal/marc"
)

func exportFixture(t *testing.T, id string) []byte {
	t.Helper()
	record := &marc.Record{
		Leader: "00000nem a2200000 a 4500",
		Fields: []marc.Field{
			{Tag: "001", Data: id},
			{Tag: "245", Ind1: "1", Ind2: "0", Subfields: []marc.Subfield{{Code: "a", Value: "Chicago and vicinity /"}}},
		},
	}
	raw, err := record.MarshalBinary()
	require.NoError(t, err)
	return raw
}

func newCatalog(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/Record/{id}/Export", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("style") != "MARC" {
			http.Error(w, "bad style", http.StatusBadRequest)
			return
		}
		switch id := r.PathValue("id"); id {
		case "missing":
			http.NotFound(w, r)
		case "broken":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("solr is down"))
		case "empty":
			w.WriteHeader(http.StatusOK)
		case "garbage":
			_, _ = w.Write([]byte("<html>not marc</html>"))
		default:
			w.Header().Set("Content-Type", "application/marc")
			_, _ = w.Write(exportFixture(t, id))
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchRecord(t *testing.T) {
	srv := newCatalog(t)
	client := NewClient(srv.URL + "/")

	record, err := client.FetchRecord(context.Background(), "b123")
	require.NoError(t, err)
	assert.Equal(t, "b123", record.ControlNumber())
	require.Len(t, record.FieldsByTag("245"), 1)
}

func TestFetchRecordErrors(t *testing.T) {
	srv := newCatalog(t)
	client := NewClient(srv.URL)

	tests := []struct {
		id     string
		target error
	}{
		{id: "missing", target: ErrRecordNotFound},
		{id: "broken"},
		{id: "empty", target: marc.ErrMalformedRecord},
		{id: "garbage", target: marc.ErrMalformedRecord},
		{id: ""},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			_, err := client.FetchRecord(context.Background(), tt.id)
			require.Error(t, err)
			if tt.target != nil {
				assert.True(t, errors.Is(err, tt.target), "got %v", err)
			}
		})
	}
}

func TestExportURLEscapesID(t *testing.T) {
	client := NewClient("https://catalog.example.edu")
	assert.Equal(t, "https://catalog.example.edu/Record/a%2Fb/Export?style=MARC", client.ExportURL("a/b"))
}

func TestFetchRecordsSkipsFailures(t *testing.T) {
	srv := newCatalog(t)
	client := NewClient(srv.URL)

	records, err := client.FetchRecords(context.Background(), []string{"b1", "missing", "b2"})
	assert.Error(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b1", records[0].ControlNumber())
	assert.Equal(t, "b2", records[1].ControlNumber())
}

func TestFetchRecordCanceled(t *testing.T) {
	srv := newCatalog(t)
	client := NewClient(srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchRecord(ctx, "b1")
	assert.ErrorIs(t, err, context.Canceled)
}
