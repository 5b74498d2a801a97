package gateway

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable() *Table {
	rules := []Rule{
		{Prefix: "/api/tts/", Upstream: "tts"},
		{Prefix: "/api/comfy/", Upstream: "comfy", StripPrefix: true},
	}
	upstreams := []Upstream{
		{Name: "tts", URL: "http://127.0.0.1:8000", MaxInFlight: 2},
		{Name: "comfy", URL: "http://127.0.0.1:8001", MaxInFlight: 1},
	}
	return NewTable(rules, upstreams)
}

func TestTable_Resolve_TTS(t *testing.T) {
	target, err := testTable().Resolve(http.MethodGet, "/api/tts/voices")
	require.NoError(t, err)

	assert.Equal(t, "tts", target.Upstream)
	assert.Equal(t, "http://127.0.0.1:8000", target.URL)
	// TTS serves under its own /api/tts prefix, no rewrite
	assert.Equal(t, "/api/tts/voices", target.Path)
	assert.False(t, target.Limited)
	assert.True(t, target.CanRoute())
}

func TestTable_Resolve_ComfyStripsPrefix(t *testing.T) {
	target, err := testTable().Resolve(http.MethodGet, "/api/comfy/system_stats")
	require.NoError(t, err)

	assert.Equal(t, "comfy", target.Upstream)
	assert.Equal(t, "/system_stats", target.Path)
}

func TestTable_Resolve_ComfyBarePrefix(t *testing.T) {
	target, err := testTable().Resolve(http.MethodGet, "/api/comfy")
	require.NoError(t, err)
	assert.Equal(t, "/", target.Path)
}

func TestTable_Resolve_NoMatch(t *testing.T) {
	_, err := testTable().Resolve(http.MethodGet, "/api/video/render")
	require.Error(t, err)

	routeErr, ok := err.(RouteError)
	require.True(t, ok)
	assert.Equal(t, ErrorNotFound, routeErr.Type)
	assert.Equal(t, http.StatusNotFound, routeErr.StatusCode)
}

func TestTable_Resolve_UnknownUpstream(t *testing.T) {
	table := NewTable(
		[]Rule{{Prefix: "/api/tts/", Upstream: "ghost"}},
		[]Upstream{{Name: "tts", URL: "http://127.0.0.1:8000"}},
	)

	_, err := table.Resolve(http.MethodGet, "/api/tts/voices")
	require.Error(t, err)

	routeErr, ok := err.(RouteError)
	require.True(t, ok)
	assert.Equal(t, ErrorUnavailable, routeErr.Type)
}

func TestTable_Resolve_LongestPrefixWins(t *testing.T) {
	table := NewTable(
		[]Rule{
			{Prefix: "/api/", Upstream: "tts"},
			{Prefix: "/api/comfy/", Upstream: "comfy", StripPrefix: true},
		},
		[]Upstream{
			{Name: "tts", URL: "http://127.0.0.1:8000"},
			{Name: "comfy", URL: "http://127.0.0.1:8001"},
		},
	)

	target, err := table.Resolve(http.MethodGet, "/api/comfy/view")
	require.NoError(t, err)
	assert.Equal(t, "comfy", target.Upstream)

	target, err = table.Resolve(http.MethodGet, "/api/other")
	require.NoError(t, err)
	assert.Equal(t, "tts", target.Upstream)
}

func TestTable_Resolve_GenerationIsLimited(t *testing.T) {
	target, err := testTable().Resolve(http.MethodPost, "/api/tts/generate")
	require.NoError(t, err)
	assert.True(t, target.Limited)

	target, err = testTable().Resolve(http.MethodPost, "/api/comfy/prompt")
	require.NoError(t, err)
	assert.True(t, target.Limited)
}

func TestTable_Resolve_ReadsAreNotLimited(t *testing.T) {
	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/tts/audio/out.wav"},
		{http.MethodGet, "/api/tts/voices"},
		{http.MethodPost, "/api/tts/upload-voice"},
		{http.MethodGet, "/api/comfy/history/abc"},
		{http.MethodGet, "/api/comfy/view"},
		// GET on a generation path holds no slot
		{http.MethodGet, "/api/tts/generate"},
	}

	for _, tc := range cases {
		target, err := testTable().Resolve(tc.method, tc.path)
		require.NoError(t, err, "%s %s", tc.method, tc.path)
		assert.False(t, target.Limited, "%s %s", tc.method, tc.path)
	}
}

func TestTable_Upstreams_Sorted(t *testing.T) {
	upstreams := testTable().Upstreams()
	require.Len(t, upstreams, 2)
	assert.Equal(t, "comfy", upstreams[0].Name)
	assert.Equal(t, "tts", upstreams[1].Name)
}

func TestTarget_CanRoute(t *testing.T) {
	assert.False(t, Target{}.CanRoute())
	assert.True(t, Target{URL: "http://127.0.0.1:8000"}.CanRoute())
}
