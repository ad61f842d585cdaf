package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordingBeforeInitIsNoOp(t *testing.T) {
	// Must not panic when metrics were never enabled.
	AddFilesArchived(1)
	AddBytesArchived(42)
	IncShardsOpened()
	IncErrors()
}

func TestCountersAppearOnHandler(t *testing.T) {
	Init()
	Init() // idempotent

	require.True(t, Enabled())

	AddFilesArchived(3)
	AddBytesArchived(1024)
	IncShardsOpened()
	IncShardsFinalized()
	IncArchivesRestored()
	AddCompressedBytesRead(10)
	AddUncompressedBytesRead(20)
	IncErrors()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "shardpack_files_archived_total 3")
	assert.Contains(t, body, "shardpack_bytes_archived_total 1024")
	assert.Contains(t, body, "shardpack_shards_opened_total 1")
	assert.Contains(t, body, "shardpack_errors_total 1")
}
