package ui

// Config contains TUI-specific configuration.
type Config struct {
	// Document file path, used for reloading
	Path string

	MaxWidth    uint
	EnableMouse bool
	HomeDir     string `env:"HOME"`

	HighlightColor  string `env:"READALOUD_HIGHLIGHT_COLOR" envDefault:"226"`
	ShowPageHeaders bool   `env:"READALOUD_PAGE_HEADERS"    envDefault:"true"`
	Watch           bool   `env:"READALOUD_WATCH"           envDefault:"true"`
	FollowReading   bool   `env:"READALOUD_FOLLOW"          envDefault:"true"`
}
