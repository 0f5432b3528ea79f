package google

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestKeyPool_RotatesAndBlocks(t *testing.T) {
	_, err := NewKeyPool([]string{" ", ""})
	require.ErrorIs(t, err, ErrNoKeys)

	p, err := NewKeyPool([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Size())

	ctx := context.Background()
	k1, _ := p.Borrow(ctx)
	k2, _ := p.Borrow(ctx)
	assert.ElementsMatch(t, []string{"a", "b"}, []string{k1, k2})

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = p.Borrow(short)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	p.Release(k1)
	got, err := p.Borrow(ctx)
	require.NoError(t, err)
	assert.Equal(t, k1, got)
}

func TestNewClient_Defaults(t *testing.T) {
	_, err := NewClient(nil, Options{}, nil)
	require.ErrorIs(t, err, ErrNoKeys)

	c, err := NewClient([]string{"k"}, Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "gemini/"+DefaultModel, c.Name())

	cfg := c.contentConfig()
	require.NotNil(t, cfg.Temperature)
	assert.Zero(t, *cfg.Temperature, "zero temperature is kept")
	assert.EqualValues(t, 4096, cfg.MaxOutputTokens)
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	require.NotNil(t, cfg.ResponseSchema)
	assert.Equal(t, genai.TypeObject, cfg.ResponseSchema.Type)
	assert.Len(t, cfg.SafetySettings, 4)
	for _, s := range cfg.SafetySettings {
		assert.Equal(t, genai.HarmBlockThresholdBlockMediumAndAbove, s.Threshold)
	}
}

func TestNewClient_TemperatureAsGiven(t *testing.T) {
	for _, temp := range []float32{0, 0.2, 1.5} {
		c, err := NewClient([]string{"k"}, Options{Temperature: temp}, nil)
		require.NoError(t, err)
		cfg := c.contentConfig()
		require.NotNil(t, cfg.Temperature)
		assert.Equal(t, temp, *cfg.Temperature)
	}
}
