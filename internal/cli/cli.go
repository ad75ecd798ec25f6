package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Add    *AddCommand
	List   *ListCommand
	Remove *RemoveCommand
	Status *StatusCommand
	Clear  *ClearCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "histview"
	parser.LongDescription = "Local browsing history: record visits, browse them as day cards, search and remove them."

	cmds := &commands{
		Add:    &AddCommand{globals: &globals},
		List:   &ListCommand{globals: &globals},
		Remove: &RemoveCommand{globals: &globals},
		Status: &StatusCommand{globals: &globals, version: version},
		Clear:  &ClearCommand{globals: &globals},
	}

	parser.AddCommand("add", "Record a visit", "Record a visit to a URL.", cmds.Add)
	parser.AddCommand("list", "Show history", "Show history grouped into day cards, newest first. With --search, show matching visits only.", cmds.List)
	parser.AddCommand("remove", "Remove visits to a URL", "Remove every visit to a URL, or a single entry with --at.", cmds.Remove)
	parser.AddCommand("status", "Show database statistics", "Show database statistics and configuration summary.", cmds.Status)
	parser.AddCommand("clear", "Delete all history", "Delete all recorded visits. Destructive operation with safety prompt.", cmds.Clear)

	return parser, &globals, cmds
}

// Run is the main entry point for the histview CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// go-flags requires a subcommand, but --version is valid without one.
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("histview %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
