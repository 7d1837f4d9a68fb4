package protocol

import (
	"net/url"
	"path/filepath"
	"strings"
)

// DocumentUri identifies a text document, e.g. "file:///home/u/main.go".
type DocumentUri string

// URIFromPath converts an absolute filesystem path to a file:// URI.
func URIFromPath(path string) DocumentUri {
	path = filepath.ToSlash(path)
	if !strings.HasPrefix(path, "/") {
		// Windows drive paths need a leading slash in the URI.
		path = "/" + path
	}
	u := url.URL{Scheme: "file", Path: path}
	return DocumentUri(u.String())
}

// Path returns the filesystem path for a file:// URI. Non-file URIs are
// returned unchanged so callers can still display them.
func (u DocumentUri) Path() string {
	s := string(u)
	if !strings.HasPrefix(s, "file://") {
		return s
	}
	parsed, err := url.Parse(s)
	if err != nil {
		return strings.TrimPrefix(s, "file://")
	}
	path := parsed.Path
	// Strip the leading slash of Windows drive paths ("/C:/...").
	if len(path) >= 3 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path)
}
