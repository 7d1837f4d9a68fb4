package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURIFromPath(t *testing.T) {
	assert.Equal(t, DocumentUri("file:///home/u/main.go"), URIFromPath("/home/u/main.go"))
	assert.Equal(t, DocumentUri("file:///home/u/with%20space.go"), URIFromPath("/home/u/with space.go"))
}

func TestPathRoundTrip(t *testing.T) {
	paths := []string{
		"/home/u/main.go",
		"/home/u/with space.go",
		"/home/u/unicodé/файл.go",
	}
	for _, p := range paths {
		assert.Equal(t, p, URIFromPath(p).Path(), "path %s", p)
	}
}

func TestPathNonFileURI(t *testing.T) {
	assert.Equal(t, "untitled:Untitled-1", DocumentUri("untitled:Untitled-1").Path())
}

func TestPathWindowsDrive(t *testing.T) {
	assert.Equal(t, "C:/Users/u/main.go", DocumentUri("file:///C:/Users/u/main.go").Path())
}
