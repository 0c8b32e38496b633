package pty

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBypassEncodeDoublesBackticks(t *testing.T) {
	var b Bypass
	assert.Equal(t, []byte("hello"), b.Encode([]byte("hello")))
	assert.Equal(t, []byte("a``b"), b.Encode([]byte("a`b")))
	assert.Equal(t, []byte("``````"), b.Encode([]byte("```")))
}

func TestBypassEncodeResize(t *testing.T) {
	var b Bypass
	assert.Equal(t, []byte("`r80:24;"), b.EncodeResize(80, 24))
}

func TestDecoderFeedPlainData(t *testing.T) {
	var d Decoder
	plain, resizes := d.Feed([]byte("hello world"))
	assert.Equal(t, []byte("hello world"), plain)
	assert.Empty(t, resizes)
}

func TestDecoderFeedEscapedBacktick(t *testing.T) {
	var d Decoder
	plain, resizes := d.Feed([]byte("a``b"))
	assert.Equal(t, []byte("a`b"), plain)
	assert.Empty(t, resizes)
}

func TestDecoderFeedResizeCommand(t *testing.T) {
	var d Decoder
	plain, resizes := d.Feed([]byte("before`r100:40;after"))
	assert.Equal(t, []byte("beforeafter"), plain)
	require.Len(t, resizes, 1)
	assert.Equal(t, ResizeCommand{Cols: 100, Rows: 40}, resizes[0])
}

func TestDecoderFeedCommandSplitAcrossCalls(t *testing.T) {
	var d Decoder
	plain1, resizes1 := d.Feed([]byte("data`r12"))
	assert.Equal(t, []byte("data"), plain1)
	assert.Empty(t, resizes1)

	plain2, resizes2 := d.Feed([]byte(":34;more"))
	assert.Equal(t, []byte("more"), plain2)
	require.Len(t, resizes2, 1)
	assert.Equal(t, ResizeCommand{Cols: 12, Rows: 34}, resizes2[0])
}

func TestDecoderFeedBacktickAtVeryEndOfChunk(t *testing.T) {
	var d Decoder
	plain1, resizes1 := d.Feed([]byte("tail`"))
	assert.Equal(t, []byte("tail"), plain1)
	assert.Empty(t, resizes1)

	plain2, resizes2 := d.Feed([]byte("`rest"))
	assert.Equal(t, []byte("`rest"), plain2)
	assert.Empty(t, resizes2)
}

func TestDecoderFeedMultipleResizesInOneChunk(t *testing.T) {
	var d Decoder
	plain, resizes := d.Feed([]byte("`r1:2;`r3:4;"))
	assert.Empty(t, plain)
	require.Len(t, resizes, 2)
	assert.Equal(t, ResizeCommand{Cols: 1, Rows: 2}, resizes[0])
	assert.Equal(t, ResizeCommand{Cols: 3, Rows: 4}, resizes[1])
}
