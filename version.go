package microsel

// Set at build time with -ldflags "-X github.com/moon44432/interpreter-tutorial.Version=...".
var (
	Version   = "v0.2.0"
	BuildDate = "unknown"
)
