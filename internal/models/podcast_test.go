package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPodcastID_MarshalForms(t *testing.T) {
	numeric, err := json.Marshal(PodcastID("123"))
	require.NoError(t, err)
	assert.Equal(t, "123", string(numeric))

	negative, err := json.Marshal(PodcastID("-7"))
	require.NoError(t, err)
	assert.Equal(t, "-7", string(negative))

	// Episode-favorite ids are not number literals and stay quoted.
	episode, err := json.Marshal(PodcastID("ep-7"))
	require.NoError(t, err)
	assert.Equal(t, `"ep-7"`, string(episode))

	// Leading zeros are not a valid JSON number, so they must stay quoted
	// rather than produce an invalid document.
	padded, err := json.Marshal(PodcastID("007"))
	require.NoError(t, err)
	assert.Equal(t, `"007"`, string(padded))
}

func TestPodcastID_UnmarshalForms(t *testing.T) {
	var ref PodcastRef

	require.NoError(t, json.Unmarshal([]byte(`{"id":123,"name":"Show"}`), &ref))
	assert.Equal(t, "123", ref.ID.String())

	require.NoError(t, json.Unmarshal([]byte(`{"id":"ep-7","name":"Great Episode"}`), &ref))
	assert.Equal(t, "ep-7", ref.ID.String())
}

func TestLikedPodcast_WireRoundTripWithStringID(t *testing.T) {
	row := LikedPodcastFromRef(1, PodcastRef{
		ID:           PodcastID("ep-7"),
		Name:         "Great Episode",
		FavoriteType: FavoriteEpisode,
	})

	raw, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"ep-7","name":"Great Episode","images":null,"favoriteType":"episode"}`, string(raw))

	var back LikedPodcast
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, "ep-7", back.PodcastID)
	assert.Equal(t, FavoriteEpisode, back.FavoriteType)
}
