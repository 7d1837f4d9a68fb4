package version

// Version is the current application version, overridden at build time via
// -ldflags "-X github.com/quill-ai/quill/internal/version.Version=...".
var Version = "0.3.0-dev"
