package command

import (
	"flag"
	"fmt"
	"io"
	"sort"

	"github.com/justestif/go-moodify/internal/config"
)

// Registry holds the available commands.
type Registry struct {
	commands map[string]Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds cmd, replacing any command with the same name.
func (r *Registry) Register(cmd Command) {
	r.commands[cmd.Name()] = cmd
}

// Get returns a command by name.
func (r *Registry) Get(name string) (Command, error) {
	cmd, ok := r.commands[name]
	if !ok {
		return nil, fmt.Errorf("command not found: %s", name)
	}
	return cmd, nil
}

// List returns the command names in alphabetical order.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run parses args for the named command and executes it. Flag errors are
// returned rather than exiting the process.
func (r *Registry) Run(name string, args []string, stdout, stderr io.Writer) error {
	cmd, err := r.Get(name)
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: moodify %s\n", cmd.Usage())
		_, _ = fmt.Fprintf(stderr, "\n%s\n\n", cmd.Description())
		_, _ = fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
	}
	cmd.SetupFlags(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}
	return cmd.Execute(fs.Args(), stdout, stderr)
}

// NewDefaultRegistry returns a registry with every moodify command.
func NewDefaultRegistry(cfg *config.Config) *Registry {
	r := NewRegistry()
	r.Register(NewHelpCommand(r))
	r.Register(NewServeCommand(cfg))
	r.Register(NewClassifyCommand(cfg))
	r.Register(NewRecommendCommand(cfg))
	r.Register(NewHistoryCommand(cfg))
	r.Register(NewJourneyCommand(cfg))
	r.Register(NewPlaylistsCommand(cfg))
	return r
}
