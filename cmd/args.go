package main

import (
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var negativeNumber = regexp.MustCompile(`^-[0-9]+$`)

// positionalArgs moves negative numbers behind a "--" so that coordinates
// such as "pixel -500 700" reach the command instead of being read as
// shorthand flags. Flag values ("-n -5") stay with their flag. args are
// returned unchanged when nothing needs moving.
func positionalArgs(root *cobra.Command, args []string) []string {
	c := root
	var front, rest []string
	moved := false

	for i := 0; i < len(args); i++ {
		tok := args[i]
		switch {
		case tok == "--":
			rest = append(rest, args[i+1:]...)
			i = len(args)
		case negativeNumber.MatchString(tok):
			rest = append(rest, tok)
			moved = true
		case strings.HasPrefix(tok, "-"):
			front = append(front, tok)
			if takesValue(c, tok) && i+1 < len(args) {
				i++
				front = append(front, args[i])
			}
		default:
			if len(rest) == 0 {
				if sub := subcommand(c, tok); sub != nil {
					c = sub
					front = append(front, tok)
					continue
				}
			}
			rest = append(rest, tok)
		}
	}

	if !moved {
		return args
	}
	out := append(front, "--")
	return append(out, rest...)
}

func subcommand(c *cobra.Command, name string) *cobra.Command {
	for _, sub := range c.Commands() {
		if sub.Name() == name || sub.HasAlias(name) {
			return sub
		}
	}
	return nil
}

// takesValue reports whether tok is a flag whose value is the next argument
func takesValue(c *cobra.Command, tok string) bool {
	if strings.Contains(tok, "=") {
		return false
	}

	var f *pflag.Flag
	sets := []*pflag.FlagSet{c.Flags(), c.PersistentFlags(), c.InheritedFlags()}
	switch {
	case strings.HasPrefix(tok, "--"):
		for _, fs := range sets {
			if f = fs.Lookup(tok[2:]); f != nil {
				break
			}
		}
	case len(tok) == 2:
		for _, fs := range sets {
			if f = fs.ShorthandLookup(tok[1:]); f != nil {
				break
			}
		}
	}
	return f != nil && f.NoOptDefVal == ""
}
