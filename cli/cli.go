// Copyright (c) 2023 BVK Chaitanya

// Package cli implements a minimal subcommand framework over the standard
// library's flag.FlagSets. Commands can be nested into groups of arbitrary
// depth. A special "help" argument prints documentation collected through
// the optional Synopsis and CommandHelp interfaces.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// CmdFunc is the execution function for a resolved command.
type CmdFunc func(ctx context.Context, args []string) error

// Command is implemented by all subcommands. The returned flag set carries
// the command name and its flags.
type Command interface {
	Command() (*flag.FlagSet, CmdFunc)
}

type group struct {
	name     string
	synopsis string
	subcmds  []Command
}

// CommandGroup nests commands under a parent command name.
func CommandGroup(name, synopsis string, cmds ...Command) Command {
	return &group{name: name, synopsis: synopsis, subcmds: cmds}
}

func (g *group) Command() (*flag.FlagSet, CmdFunc) {
	return flag.NewFlagSet(g.name, flag.ContinueOnError), g.run
}

func (g *group) Synopsis() string {
	return g.synopsis
}

func (g *group) run(ctx context.Context, args []string) error {
	return run(ctx, g.subcmds, args, g.name)
}

// Run resolves args into one of the commands and executes it.
func Run(ctx context.Context, cmds []Command, args []string) error {
	return run(ctx, cmds, args, "")
}

func run(ctx context.Context, cmds []Command, args []string, prefix string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "commands" {
		printCommands(os.Stderr, cmds, prefix)
		return flag.ErrHelp
	}

	name := args[0]
	for _, c := range cmds {
		fset, fn := c.Command()
		if fset.Name() != name {
			continue
		}
		if _, ok := c.(*group); ok {
			return fn(ctx, args[1:])
		}
		if len(args) > 1 && args[1] == "help" {
			printHelp(os.Stderr, c, fset)
			return flag.ErrHelp
		}
		if err := fset.Parse(args[1:]); err != nil {
			return err
		}
		return fn(ctx, fset.Args())
	}
	return fmt.Errorf("command not defined: %s", strings.TrimSpace(prefix+" "+name))
}

func printCommands(w io.Writer, cmds []Command, prefix string) {
	for _, c := range cmds {
		fset, _ := c.Command()
		name := fset.Name()
		if len(prefix) != 0 {
			name = prefix + " " + name
		}
		if s, ok := c.(interface{ Synopsis() string }); ok {
			fmt.Fprintf(w, "\t%-15s  %s\n", name, s.Synopsis())
			continue
		}
		fmt.Fprintf(w, "\t%-15s\n", name)
	}
}

func printHelp(w io.Writer, c Command, fset *flag.FlagSet) {
	if s, ok := c.(interface{ Synopsis() string }); ok {
		fmt.Fprintf(w, "%s: %s\n", fset.Name(), s.Synopsis())
	}
	if h, ok := c.(interface{ CommandHelp() string }); ok {
		fmt.Fprint(w, h.CommandHelp())
	}
	fset.SetOutput(w)
	fset.PrintDefaults()
}
