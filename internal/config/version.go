package config

// Version is the idsync binary version.
// Set at build time via: -ldflags "-X github.com/crossidm/idsync/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
