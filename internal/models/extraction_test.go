// internal/models/extraction_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeFileBatch() *ExtractionBatch {
	return &ExtractionBatch{
		FileCount: 3,
		Files: []ExtractionFile{
			{Position: 0, FileName: "a.pdf", Status: ExtractionFileStatusQueued},
			{Position: 1, FileName: "b.pdf", Status: ExtractionFileStatusQueued},
			{Position: 2, FileName: "c.pdf", Status: ExtractionFileStatusQueued},
		},
	}
}

func TestBatchAdvancesOneFileAtATime(t *testing.T) {
	batch := threeFileBatch()

	file, err := batch.CurrentFile()
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", file.FileName)
	assert.False(t, batch.IsComplete())

	assert.True(t, batch.Advance())
	file, err = batch.CurrentFile()
	require.NoError(t, err)
	assert.Equal(t, "b.pdf", file.FileName)

	assert.True(t, batch.Advance())
	file, err = batch.CurrentFile()
	require.NoError(t, err)
	assert.Equal(t, "c.pdf", file.FileName)

	assert.False(t, batch.Advance())
	assert.True(t, batch.IsComplete())

	_, err = batch.CurrentFile()
	assert.ErrorIs(t, err, ErrBatchExhausted)
}

func TestBatchSingleFile(t *testing.T) {
	batch := &ExtractionBatch{
		FileCount: 1,
		Files:     []ExtractionFile{{Position: 0, FileName: "only.pdf"}},
	}

	file, err := batch.CurrentFile()
	require.NoError(t, err)
	assert.Equal(t, "only.pdf", file.FileName)

	assert.False(t, batch.Advance())
	assert.True(t, batch.IsComplete())
}
