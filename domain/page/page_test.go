package page

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconstructPage_CopiesInputs(t *testing.T) {
	emb := []float64{0.1, 0.2}
	meta := Metadata{"meta_tags": map[string]any{"lang": "en"}}
	now := time.Now().UTC()

	p := ReconstructPage(7, "https://example.com", "Example", "body", meta, emb, now, now)
	emb[0] = 9
	meta["meta_tags"].(map[string]any)["lang"] = "fr"

	assert.Equal(t, int64(7), p.ID())
	assert.Equal(t, []float64{0.1, 0.2}, p.Embedding())
	assert.Equal(t, "en", p.Metadata().Section(MetadataMetaTags).String("lang"))
	assert.True(t, p.HasEmbedding())
	assert.Equal(t, 2, p.Dimension())
}

func TestNewPage_NoEmbedding(t *testing.T) {
	p := NewPage("https://example.com", "", "", nil)

	assert.Zero(t, p.ID())
	assert.False(t, p.HasEmbedding())
	assert.Nil(t, p.Embedding())
	assert.NotNil(t, p.Metadata())
}

func TestUpsert_Validate(t *testing.T) {
	tests := []struct {
		name    string
		upsert  Upsert
		wantErr error
	}{
		{name: "ok without embedding", upsert: Upsert{URL: "https://a"}},
		{name: "ok with embedding", upsert: Upsert{URL: "https://a", Embedding: []float64{1, 2, 3}}},
		{name: "empty url", upsert: Upsert{URL: "  "}, wantErr: ErrEmptyURL},
		{name: "wrong dimension", upsert: Upsert{URL: "https://a", Embedding: []float64{1}}, wantErr: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.upsert.Validate(3)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, KindValidation, KindOf(err))
		})
	}
}

func TestUpsert_ValidateDimensionCause(t *testing.T) {
	err := Upsert{URL: "https://a", Embedding: []float64{1}}.Validate(3)

	var de *DimensionError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 3, de.Expected)
	assert.Equal(t, 1, de.Actual)
	assert.True(t, IsDimensionMismatch(err))
}

func TestError_KindsAreDistinct(t *testing.T) {
	cause := errors.New("connection refused")
	storageErr := NewStorageError("upsert", "https://a", cause)
	providerErr := NewProviderError("embed", "https://a", cause)
	notFound := NewNotFoundError("get", "42")

	assert.ErrorIs(t, storageErr, ErrStorage)
	assert.NotErrorIs(t, storageErr, ErrProvider)
	assert.ErrorIs(t, storageErr, cause)

	assert.ErrorIs(t, providerErr, ErrProvider)
	assert.NotErrorIs(t, providerErr, ErrStorage)

	assert.ErrorIs(t, notFound, ErrNotFound)
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("wrapped: %w", notFound)))
	assert.Equal(t, Kind(0), KindOf(cause))
}

func TestError_Message(t *testing.T) {
	err := NewStorageError("upsert", "https://a", errors.New("disk full"))

	assert.Equal(t, `upsert "https://a": storage error: disk full`, err.Error())
	assert.Equal(t, "upsert", err.Op())
	assert.Equal(t, "https://a", err.Key())
	assert.Equal(t, "storage", err.Kind().String())
}
