package services

import (
	"testing"

	"github.com/dukex/notiair/pkg/models"
	"github.com/dukex/notiair/pkg/persistence"
	"github.com/dukex/notiair/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnector_SaveDefaults(t *testing.T) {
	f := newFixture(t)

	saved, err := f.connectors.Save(t.Context(), &models.Connector{Name: "bot", Secret: "123:abc"})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, models.ConnectorTypeTelegram, saved.Type)

	_, err = f.connectors.Save(t.Context(), &models.Connector{Name: "bot"})
	require.ErrorIs(t, err, ErrConnectorSecret)

	_, err = f.connectors.Save(t.Context(), &models.Connector{Secret: "123:abc"})
	require.ErrorIs(t, err, ErrConnectorNameRequired)
}

func TestConnector_SetActive(t *testing.T) {
	f := newFixture(t)

	_, err := f.connectors.Save(t.Context(), testutil.CreateTestConnector())
	require.NoError(t, err)

	updated, err := f.connectors.SetActive(t.Context(), testutil.ConnectorID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	stored, err := f.connectors.Get(t.Context(), testutil.ConnectorID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	_, err = f.connectors.SetActive(t.Context(), "missing", true)
	require.ErrorIs(t, err, persistence.ErrConnectorNotFound)
}

func TestConnector_Channels(t *testing.T) {
	f := newFixture(t)

	_, err := f.connectors.Save(t.Context(), testutil.CreateTestConnector())
	require.NoError(t, err)

	_, err = f.connectors.SaveChannel(t.Context(), &models.Channel{ConnectorID: "missing", Name: "@x"})
	require.ErrorIs(t, err, persistence.ErrConnectorNotFound)

	saved, err := f.connectors.SaveChannel(t.Context(), testutil.CreateTestChannel())
	require.NoError(t, err)

	channels, err := f.connectors.Channels(t.Context(), testutil.ConnectorID)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, saved.Name, channels[0].Name)

	updated, err := f.connectors.SaveChannel(t.Context(), &models.Channel{ID: testutil.ChannelID, Name: "@renamed", Muted: true})
	require.NoError(t, err)
	assert.Equal(t, testutil.ConnectorID, updated.ConnectorID)
	assert.True(t, updated.Muted)

	channel, connector, err := f.connectors.ResolveChannel(t.Context(), testutil.ChannelID)
	require.NoError(t, err)
	assert.Equal(t, "@renamed", channel.Name)
	assert.Equal(t, testutil.ConnectorID, connector.ID)

	_, err = f.connectors.Channels(t.Context(), "missing")
	require.ErrorIs(t, err, persistence.ErrConnectorNotFound)
}

func TestConnector_DeleteKeepsChannels(t *testing.T) {
	f := newFixture(t)

	_, err := f.connectors.Save(t.Context(), testutil.CreateTestConnector())
	require.NoError(t, err)

	_, err = f.connectors.SaveChannel(t.Context(), testutil.CreateTestChannel())
	require.NoError(t, err)

	require.NoError(t, f.connectors.Delete(t.Context(), testutil.ConnectorID))

	channel, err := f.connectors.Channel(t.Context(), testutil.ChannelID)
	require.NoError(t, err)
	assert.Equal(t, testutil.ConnectorID, channel.ConnectorID)

	_, _, err = f.connectors.ResolveChannel(t.Context(), testutil.ChannelID)
	require.ErrorIs(t, err, persistence.ErrConnectorNotFound)

	require.NoError(t, f.connectors.DeleteChannel(t.Context(), testutil.ChannelID))
	require.ErrorIs(t, f.connectors.DeleteChannel(t.Context(), testutil.ChannelID), persistence.ErrChannelNotFound)
}
