package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/models"
)

func TestFileSinkWritesValidJSONArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "duplicates.json")

	sink, err := NewFileSink(path)
	require.NoError(t, err)

	comparisons := []models.Comparison{
		{Source: models.Owner{ID: "a"}, Score: 0.9},
		{Source: models.Owner{ID: "b"}, Score: 0.87, NeedsReview: true},
	}
	for _, comparison := range comparisons {
		require.NoError(t, sink.Record(comparison))
	}
	require.NoError(t, sink.Flush())
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []models.Comparison
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "a", decoded[0].Source.ID)
	assert.Equal(t, 0.9, decoded[0].Score)
	assert.True(t, decoded[1].NeedsReview)
}

func TestFileSinkEmptyRunStillYieldsValidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "duplicates.json")

	sink, err := NewFileSink(path)
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []models.Comparison
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Empty(t, decoded)
}

func TestFileSinkCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "duplicates.json")

	sink, err := NewFileSink(path)
	require.NoError(t, err)
	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())

	assert.Error(t, sink.Record(models.Comparison{}))
	assert.NoError(t, sink.Flush())
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.json")

	report := models.Report{Overall: 10, Match: 3, NonMatch: 6, NeedReview: 1}
	report.Score.Sum = 4.2
	report.Score.Mean = 0.42

	require.NoError(t, WriteReport(path, report))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded models.Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, report, decoded)
}
