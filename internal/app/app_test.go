package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyage/internal/config"
	"voyage/internal/modules/conversation"
	"voyage/internal/observability"
	"voyage/internal/service"
)

func TestBuildWithoutProvider(t *testing.T) {
	cfg := config.Default()
	cfg.AI.Provider = config.ProviderNone

	a, err := Build(context.Background(), cfg, observability.Discard(), nil)
	require.NoError(t, err)
	defer a.Close()
	assert.IsType(t, &conversation.MemoryStore{}, a.Store)

	resp, err := a.Planner.ClassifyAndRespond(context.Background(), "4 days in Vienna from Prague", "")
	require.NoError(t, err)
	assert.Equal(t, service.ResponseInformation, resp.ResponseType)
	assert.Contains(t, resp.Message, "Vienna (4 days)")
	assert.Equal(t, conversation.StatusReady, resp.ConversationState.Status)

	a.sweep(context.Background())
}

func TestBuildRejectsUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.AI.Provider = config.ProviderNone
	cfg.Session.Backend = "cassandra"

	_, err := Build(context.Background(), cfg, observability.Discard(), nil)
	assert.Error(t, err)
}

func TestModificationLimitsFromConfig(t *testing.T) {
	l := modificationLimits(config.Default().Planner)
	assert.Equal(t, 15, l.MaxDays)
	assert.Equal(t, 1, l.MinDays)
	assert.Equal(t, 3, l.ConfirmDayDelta)
}
