package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seekr-dev/seekr/internal/domain"
)

type fakeProvider struct {
	name      string
	kind      domain.ProviderKind
	models    []domain.ModelInfo
	healthErr error
	delay     time.Duration
	response  string
}

func (f *fakeProvider) Name() string              { return f.name }
func (f *fakeProvider) Kind() domain.ProviderKind { return f.kind }

func (f *fakeProvider) HealthCheck(context.Context) ([]domain.ModelInfo, error) {
	time.Sleep(f.delay)
	if f.healthErr != nil {
		return nil, f.healthErr
	}
	return f.models, nil
}

func (f *fakeProvider) Generate(context.Context, []Message, GenerateOptions) (string, error) {
	return f.response, nil
}

func (f *fakeProvider) Stream(_ context.Context, _ []Message, _ GenerateOptions, fn func(string) error) error {
	return fn(f.response)
}

func localProvider(name string, delay time.Duration) *fakeProvider {
	return &fakeProvider{
		name:   name,
		kind:   domain.ProviderKindLocal,
		models: []domain.ModelInfo{{ID: name + "-model", Recommended: true}},
		delay:  delay,
	}
}

func onlineProvider(name string, delay time.Duration) *fakeProvider {
	p := localProvider(name, delay)
	p.kind = domain.ProviderKindOnline
	return p
}

func TestSweepRecordsStatus(t *testing.T) {
	up := localProvider("ollama", 0)
	down := onlineProvider("openai", 0)
	down.healthErr = errors.New("401 unauthorized")

	r := NewRegistry(up, down)
	r.Sweep(context.Background())

	status, ok := r.Status("ollama")
	require.True(t, ok)
	assert.True(t, status.Available)
	assert.Len(t, status.Models, 1)
	assert.False(t, status.CheckedAt.IsZero())

	status, ok = r.Status("openai")
	require.True(t, ok)
	assert.False(t, status.Available)
	assert.Contains(t, status.Error, "401")
}

func TestSelectBeforeSweep(t *testing.T) {
	r := NewRegistry(localProvider("ollama", 0))

	_, err := r.Select(domain.ProcessingModeAuto, "")
	assert.ErrorIs(t, err, domain.ErrNoProviderAvailable)
}

func TestSelectPreferredWins(t *testing.T) {
	fast := localProvider("ollama", 0)
	slow := onlineProvider("openai", 5*time.Millisecond)

	r := NewRegistry(fast, slow)
	r.Sweep(context.Background())

	sel, err := r.Select(domain.ProcessingModeAuto, "openai")
	require.NoError(t, err)
	assert.Equal(t, "openai", sel.Provider.Name())
	assert.Equal(t, "openai-model", sel.Model)
}

func TestSelectPreferredDownFallsThrough(t *testing.T) {
	up := localProvider("ollama", 0)
	down := onlineProvider("openai", 0)
	down.healthErr = errors.New("down")

	r := NewRegistry(up, down)
	r.Sweep(context.Background())

	sel, err := r.Select(domain.ProcessingModeAuto, "openai")
	require.NoError(t, err)
	assert.Equal(t, "ollama", sel.Provider.Name())
}

func TestSelectModeFilter(t *testing.T) {
	local := localProvider("ollama", 0)
	online := onlineProvider("groq", 0)

	r := NewRegistry(local, online)
	r.Sweep(context.Background())

	sel, err := r.Select(domain.ProcessingModeOnline, "")
	require.NoError(t, err)
	assert.Equal(t, "groq", sel.Provider.Name())

	sel, err = r.Select(domain.ProcessingModeLocal, "")
	require.NoError(t, err)
	assert.Equal(t, "ollama", sel.Provider.Name())
}

func TestSelectLowestLatency(t *testing.T) {
	fast := onlineProvider("groq", 0)
	slow := onlineProvider("openai", 20*time.Millisecond)

	r := NewRegistry(fast, slow)
	r.Sweep(context.Background())

	sel, err := r.Select(domain.ProcessingModeOnline, "")
	require.NoError(t, err)
	assert.Equal(t, "groq", sel.Provider.Name())
}

func TestSelectAnyWhenModeHasNone(t *testing.T) {
	online := onlineProvider("openai", 0)

	r := NewRegistry(online)
	r.Sweep(context.Background())

	// Local mode has no providers; any usable provider still serves.
	sel, err := r.Select(domain.ProcessingModeLocal, "")
	require.NoError(t, err)
	assert.Equal(t, "openai", sel.Provider.Name())
}

func TestSelectNoneAvailable(t *testing.T) {
	down := localProvider("ollama", 0)
	down.healthErr = errors.New("refused")

	r := NewRegistry(down)
	r.Sweep(context.Background())

	_, err := r.Select(domain.ProcessingModeAuto, "")
	assert.ErrorIs(t, err, domain.ErrNoProviderAvailable)
}
