package main

import (
	"fmt"
	"strings"

	"buildcap/internal/cmdline"

	"github.com/spf13/cobra"
)

var stripExecutable bool

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize <command line>",
	Short: "Split a recorded compiler command line into arguments",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		line := strings.Join(args, " ")
		if stripExecutable {
			line = cmdline.StripExecutable(line)
		}

		tokens, err := cmdline.Tokenize(line)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for i, tok := range tokens {
			fmt.Fprintf(out, "%3d  %s\n", i, tok)
		}
		return nil
	},
}

func init() {
	tokenizeCmd.Flags().BoolVar(&stripExecutable, "strip-exe", true, "Drop the executable prefix before the first option")
}
