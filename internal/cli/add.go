package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/runnerr0/histview/internal/logging"
	"github.com/runnerr0/histview/internal/storage"
)

// Execute implements the go-flags Commander interface for AddCommand.
func (c *AddCommand) Execute(args []string) error {
	if c.URL != "" && c.FromFile != "" {
		return fmt.Errorf("--url and --from-file cannot be combined")
	}
	if c.URL == "" && c.FromFile == "" {
		return fmt.Errorf("--url is required for add command")
	}

	e, err := openEnv(c.globals)
	if err != nil {
		return err
	}
	defer e.Close()

	return c.executeWithStore(e.store)
}

// executeWithStore runs the add logic against a provided store (used by tests).
func (c *AddCommand) executeWithStore(store storage.Store) error {
	if c.FromFile != "" {
		return c.importFile(store)
	}

	parsed, err := url.Parse(c.URL)
	if err != nil || parsed.Scheme == "" {
		return fmt.Errorf("invalid URL: %s", c.URL)
	}

	at, err := parseTime(c.At)
	if err != nil {
		return err
	}

	v := &storage.Visit{
		URL:       c.URL,
		Title:     c.Title,
		Snippet:   c.Snippet,
		Timestamp: at,
		Source:    "manual",
	}

	if err := store.AddVisit(context.Background(), v); err != nil {
		if errors.Is(err, storage.ErrExcluded) {
			return fmt.Errorf("domain %q is excluded by exclusion rules", v.Domain)
		}
		return fmt.Errorf("storing visit: %w", err)
	}

	logging.Named("cli").WithField("id", v.ID).Debug("visit added")

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]interface{}{
			"id":     v.ID,
			"url":    v.URL,
			"title":  v.Title,
			"domain": v.Domain,
			"ts":     v.Timestamp.Format(time.RFC3339),
		})
	}

	fmt.Printf("Added visit %s (%s)\n", v.ID, v.Timestamp.Format(time.RFC3339))
	fmt.Printf("  URL: %s\n", v.URL)
	if v.Title != "" {
		fmt.Printf("  Title: %s\n", v.Title)
	}
	fmt.Printf("  Domain: %s\n", v.Domain)
	return nil
}

// importedVisit is one item of an --from-file YAML list.
type importedVisit struct {
	URL     string `yaml:"url"`
	Title   string `yaml:"title"`
	Snippet string `yaml:"snippet"`
	At      string `yaml:"at"`
}

// readVisitFile parses path into visits. Any invalid item rejects the whole
// file.
func readVisitFile(path string) ([]*storage.Visit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading visit file: %w", err)
	}

	var items []importedVisit
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parsing visit file %s: %w", path, err)
	}

	visits := make([]*storage.Visit, 0, len(items))
	for i, it := range items {
		parsed, err := url.Parse(it.URL)
		if err != nil || parsed.Scheme == "" {
			return nil, fmt.Errorf("item %d: invalid URL: %q", i+1, it.URL)
		}
		at, err := parseTime(it.At)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		visits = append(visits, &storage.Visit{
			URL:       it.URL,
			Title:     it.Title,
			Snippet:   it.Snippet,
			Timestamp: at,
			Source:    "import",
		})
	}
	return visits, nil
}

func (c *AddCommand) importFile(store storage.Store) error {
	visits, err := readVisitFile(c.FromFile)
	if err != nil {
		return err
	}

	n, err := store.AddVisits(context.Background(), visits)
	if err != nil {
		return fmt.Errorf("storing visits: %w", err)
	}
	skipped := len(visits) - n

	logging.Named("cli").WithFields(logrus.Fields{
		"file":     c.FromFile,
		"imported": n,
		"excluded": skipped,
	}).Debug("visits imported")

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]interface{}{
			"imported": n,
			"excluded": skipped,
		})
	}

	fmt.Printf("Imported %s visits from %s\n", formatNumber(int64(n)), c.FromFile)
	if skipped > 0 {
		fmt.Printf("  Skipped %s visits to excluded domains\n", formatNumber(int64(skipped)))
	}
	return nil
}
