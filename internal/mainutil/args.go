package mainutil

import (
	"os"

	"github.com/mattn/go-shellwords"
	flag "github.com/spf13/pflag"
)

// ParseArgs parses command line flags, appending any extra arguments piped
// in on stdin, shell-style.
func ParseArgs(flags *flag.FlagSet) error {
	var argx []string
	if input, err := ReadAllStdin(); err == nil && len(input) > 0 {
		parser := shellwords.NewParser()
		parser.ParseEnv = true
		words, err := parser.Parse(b2s(input))
		if err != nil {
			return err
		}
		argx = words
	} else if err != nil {
		return err
	}
	return flags.Parse(append(os.Args[1:], argx...))
}
