package version

// Current defines the application version.
// It defaults to "dev" but is overwritten at release time using -ldflags.
var Current = "dev"

// AppName is the canonical service name used in logs, traces, and the
// User-Agent sent to cloud APIs.
const AppName = "cloud-resource-archaeologist"
