package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/runnerr0/histview/internal/logging"
	"github.com/runnerr0/histview/internal/storage"
)

// Execute implements the go-flags Commander interface for ClearCommand.
func (c *ClearCommand) Execute(args []string) error {
	if !c.All {
		return fmt.Errorf("clear requires --all flag for safety")
	}

	if !c.Force {
		if err := c.confirm(); err != nil {
			return err
		}
	}

	e, err := openEnv(c.globals)
	if err != nil {
		return err
	}
	defer e.Close()

	return c.executeWithStore(e.store)
}

func (c *ClearCommand) confirm() error {
	var in io.Reader = os.Stdin
	if c.stdin != nil {
		in = c.stdin
	}

	fmt.Println("⚠ WARNING: This will permanently delete ALL browsing history.")
	fmt.Println("Exclusion rules are kept. This action cannot be undone.")
	fmt.Println()
	fmt.Print(`Type "CLEAR" to confirm: `)

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return fmt.Errorf("aborted: no input received")
	}
	if strings.TrimSpace(scanner.Text()) != "CLEAR" {
		return fmt.Errorf("aborted: confirmation text did not match")
	}
	return nil
}

// executeWithStore deletes every visit from store (for testing).
func (c *ClearCommand) executeWithStore(store storage.Store) error {
	n, err := store.DeleteAll(context.Background())
	if err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}

	logging.Named("cli").WithField("visits", n).Info("history cleared")

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]interface{}{
			"cleared": true,
			"visits":  n,
		})
	}

	fmt.Printf("Cleared %s visits. History is empty.\n", formatNumber(n))
	return nil
}
