package cli

import "io"

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	DB      string `long:"db" description:"Path to the history database (overrides config)"`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable debug logging"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// AddCommand records a single visit, or a batch read from a YAML file.
type AddCommand struct {
	URL      string `long:"url" description:"Visited URL (required unless --from-file)"`
	Title    string `long:"title" description:"Page title"`
	Snippet  string `long:"snippet" description:"Text shown under search results"`
	At       string `long:"at" description:"Visit time, RFC 3339 (default: now)"`
	FromFile string `long:"from-file" description:"Import visits from a YAML list of url/title/snippet/at"`

	globals *GlobalFlags
}

// ListCommand prints history as day cards, newest first.
type ListCommand struct {
	Search string `long:"search" short:"s" description:"Only show visits matching all words"`
	Pages  int    `long:"pages" description:"Number of pages to load (0 = all)" default:"1"`
	Width  int    `long:"width" description:"Output width in columns" default:"80"`

	globals *GlobalFlags
}

// RemoveCommand deletes visits to a URL.
type RemoveCommand struct {
	URL    string `long:"url" description:"URL whose visits are removed (required)"`
	At     string `long:"at" description:"Only remove the entry holding a visit at this RFC 3339 time"`
	Search string `long:"search" description:"Term used to find the entries (default: the URL)"`

	globals *GlobalFlags
}

// StatusCommand shows database statistics.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// ClearCommand deletes all history after confirmation.
type ClearCommand struct {
	All   bool `long:"all" description:"Required flag to confirm intent"`
	Force bool `long:"force" description:"Skip the confirmation prompt"`

	globals *GlobalFlags
	stdin   io.Reader // nil means os.Stdin
}
