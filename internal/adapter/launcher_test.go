package adapter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLauncherConfiguredCommand(t *testing.T) {
	l := NewLauncher("firefox", []string{"--new-tab"}, NullLogger())

	var gotName string
	var gotArgs []string
	l.start = func(name string, args ...string) error {
		gotName, gotArgs = name, args
		return nil
	}

	require.NoError(t, l.Open("https://www.youtube.com/watch?v=abc"))
	assert.Equal(t, "firefox", gotName)
	assert.Equal(t, []string{"--new-tab", "https://www.youtube.com/watch?v=abc"}, gotArgs)
}

func TestLauncherRejectsBadLinks(t *testing.T) {
	l := NewLauncher("", nil, NullLogger())
	l.start = func(string, ...string) error {
		t.Fatal("should not launch")
		return nil
	}

	assert.ErrorIs(t, l.Open(""), ErrNoLink)
	assert.Error(t, l.Open("file:///etc/passwd"))
	assert.Error(t, l.Open("javascript:alert(1)"))
}

func TestLauncherPropagatesStartError(t *testing.T) {
	l := NewLauncher("nope", nil, NullLogger())
	boom := errors.New("not found")
	l.start = func(string, ...string) error { return boom }

	assert.ErrorIs(t, l.Open("https://www.themoviedb.org/movie/1"), boom)
}
