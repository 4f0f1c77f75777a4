package share

import (
	"testing"

	"github.com/rocketscienceinc/tictactoe-peer/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildURL(t *testing.T) {
	t.Run("Code comes before method", func(t *testing.T) {
		link, err := BuildURL("https://play.example.com/ttt", "AB12", entity.MethodWebRTC)

		require.NoError(t, err)
		assert.Equal(t, "https://play.example.com/ttt?code=AB12&method=webrtc", link)
	})

	t.Run("Missing method defaults to webrtc", func(t *testing.T) {
		link, err := BuildURL("tictactoe://join", "ZZ99", entity.MethodNone)

		require.NoError(t, err)
		assert.Equal(t, "tictactoe://join?code=ZZ99&method=webrtc", link)
	})

	t.Run("Unrelated query fields survive", func(t *testing.T) {
		link, err := BuildURL("https://play.example.com/?lang=en", "AB12", entity.MethodQR)

		require.NoError(t, err)
		assert.Equal(t, "https://play.example.com/?code=AB12&method=qr&lang=en", link)
	})
}

func TestParseURL(t *testing.T) {
	t.Run("Code is upper-cased and method lower-cased", func(t *testing.T) {
		// When: a link with mixed case is parsed
		link, ok := ParseURL("https://play.example.com/?code=ab12&method=WebRTC")

		// Then: values are normalized
		require.True(t, ok)
		assert.Equal(t, Link{Code: "AB12", Method: entity.MethodWebRTC}, link)
	})

	t.Run("Method defaults to webrtc", func(t *testing.T) {
		link, ok := ParseURL("tictactoe://join?code=XY34")

		require.True(t, ok)
		assert.Equal(t, entity.MethodWebRTC, link.Method)
	})

	t.Run("No code means no link", func(t *testing.T) {
		_, ok := ParseURL("https://play.example.com/?method=qr")

		assert.False(t, ok)
	})

	t.Run("Round trip through BuildURL", func(t *testing.T) {
		raw, err := BuildURL("tictactoe://join", "K9Q2", entity.MethodBluetooth)
		require.NoError(t, err)

		link, ok := ParseURL(raw)

		require.True(t, ok)
		assert.Equal(t, Link{Code: "K9Q2", Method: entity.MethodBluetooth}, link)
	})
}

func TestClearURL(t *testing.T) {
	// Given: a consumed share link with an unrelated field
	raw := "https://play.example.com/ttt?code=AB12&method=webrtc&lang=en"

	// When: it is cleared
	cleared := ClearURL(raw)

	// Then: the rendezvous fields are gone and nothing else changed
	assert.Equal(t, "https://play.example.com/ttt?lang=en", cleared)
	_, ok := ParseURL(cleared)
	assert.False(t, ok)
}

func TestNewInvite(t *testing.T) {
	invite, err := NewInvite("tictactoe://join", "AB12", entity.MethodWebRTC)

	require.NoError(t, err)
	assert.Equal(t, "Join my Tic Tac Toe game!", invite.Title)
	assert.Equal(t, "Join my Tic Tac Toe game! Code: AB12\ntictactoe://join?code=AB12&method=webrtc", invite.Text)
	assert.Equal(t, "tictactoe://join?code=AB12&method=webrtc", invite.URL)
}
