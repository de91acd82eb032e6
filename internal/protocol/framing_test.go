package protocol

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte(`{"type":"is_ready"}`)))
	assert.Equal(t, `19:{"type":"is_ready"}`, buf.String())

	payload, err := ReadFrame(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, `{"type":"is_ready"}`, string(payload))
}

func TestReadFrameBackToBack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("first")))
	require.NoError(t, WriteFrame(&buf, []byte("second payload")))
	require.NoError(t, WriteFrame(&buf, []byte("")))

	r := bufio.NewReader(&buf)
	for _, want := range []string{"first", "second payload", ""} {
		payload, err := ReadFrame(r)
		require.NoError(t, err)
		assert.Equal(t, want, string(payload))
	}
	_, err := ReadFrame(r)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadFrameRejectsBadPrefix(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"non-digit length", "xx:{}"},
		{"negative length", "-2:{}"},
		{"empty length", ":{}"},
		{"oversized length", "99999999999:{}"},
		{"over frame limit", "1048577:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadFrame(bufio.NewReader(strings.NewReader(tt.input)))
			assert.Error(t, err)
		})
	}
}

func TestReadFrameTruncatedPayload(t *testing.T) {
	_, err := ReadFrame(bufio.NewReader(strings.NewReader("10:short")))
	assert.Error(t, err)
}

func TestWriteReadMessage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, &SetDisplayName{PlayerName: "alice"}))

	msg, err := ReadMessage(bufio.NewReader(&buf))
	require.NoError(t, err)
	named, ok := msg.(*SetDisplayName)
	require.True(t, ok)
	assert.Equal(t, "alice", named.PlayerName)
}
