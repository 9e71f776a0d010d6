// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package main

import (
	"errors"
	"os"

	"github.com/jessevdk/go-flags"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}

		os.Exit(1)
	}
}

// run parses the command line and executes the selected command.
// Parse errors are printed by the parser itself.
func run(args []string) error {
	_, parser, err := loadConfig(args)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		return err
	}

	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	if _, err = parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if !errors.As(err, &flagsErr) {
			log.Errorf("%v", err)
		}

		return err
	}

	return nil
}
