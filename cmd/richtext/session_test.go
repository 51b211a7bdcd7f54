package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisa-it/aiplan-richtext/internal/richtext/config"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/tree"
)

func testConfig() *config.Config {
	return &config.Config{
		LinkDetection:  true,
		SanitizeImport: true,
		MinifyImport:   true,
		MaxImportBytes: config.DefaultMaxImportBytes,
		DefaultBlock:   "paragraph",
		HistoryLimit:   10,
		Metrics:        true,
	}
}

func TestSession(t *testing.T) {
	var out bytes.Buffer
	s, err := newSession(testConfig(), &out)
	require.NoError(t, err)

	for _, line := range []string{
		"type visit http://x.com",
		"type  ",
		"select 0.0:0 0.0:5",
		"mark bold",
	} {
		require.NoError(t, s.exec(line), line)
	}
	assert.False(t, s.ed.HasPending(), "очередь выполняется после команды")

	out.Reset()
	require.NoError(t, s.exec("show"))
	assert.Contains(t, out.String(), `{"text":"visit","bold":true}`)
	assert.Contains(t, out.String(), `{"type":"link","url":"http://x.com"`)
	assert.Contains(t, out.String(), "selection: [0 0]:0..[0 0]:5")

	out.Reset()
	require.NoError(t, s.exec("md"))
	assert.Contains(t, out.String(), "[http://x.com](http://x.com)")

	out.Reset()
	require.NoError(t, s.exec("metrics"))
	assert.Contains(t, out.String(), "richtext_links_detected_total 1")

	out.Reset()
	require.NoError(t, s.exec("history"))
	assert.Contains(t, out.String(), "link_detect")

	assert.ErrorIs(t, s.exec("quit"), errQuit)
	assert.Error(t, s.exec("jump"))
	assert.Error(t, s.exec("select 0.x:1"))
}

func TestSessionPaste(t *testing.T) {
	var out bytes.Buffer
	s, err := newSession(testConfig(), &out)
	require.NoError(t, err)

	require.NoError(t, s.exec(`paste-text one\ntwo`))
	require.NoError(t, s.exec("block bulleted-list"))
	require.NoError(t, s.exec("md"))
	assert.Contains(t, out.String(), "- two")
}

func TestParseRange(t *testing.T) {
	r, err := parseRange("0.1:4")
	require.NoError(t, err)
	assert.Equal(t, tree.Collapsed(tree.Point{Path: tree.Path{0, 1}, Offset: 4}).String(), r.String())

	r, err = parseRange("0.0:1  2.0.0:3")
	require.NoError(t, err)
	assert.Equal(t, "[0 0]:1..[2 0 0]:3", r.String())

	for _, bad := range []string{"", "0.0", "0.0:-1", "a:1", "0:1 0:2 0:3"} {
		_, err := parseRange(bad)
		assert.Error(t, err, bad)
	}
}
