package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"novalite/db"
)

func shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run commands interactively against one open database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(d *db.DB) error {
				return runShell(d, cmd.OutOrStdout())
			})
		},
	}
}

func runShell(d *db.DB, out io.Writer) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(prefix string) []string {
		var res []string
		for _, a := range actions {
			if name := strings.Fields(a.use)[0]; strings.HasPrefix(name, prefix) {
				res = append(res, name)
			}
		}
		return res
	})

	for {
		input, err := line.Prompt("novalite> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		fields := strings.Fields(input)
		if len(fields) == 0 {
			continue
		}
		line.AppendHistory(input)

		switch fields[0] {
		case "exit", "quit":
			return nil
		case "sync":
			if err := d.Sync(); err != nil {
				fmt.Fprintln(out, "error:", err)
			}
			continue
		}

		a, ok := findAction(fields[0])
		if !ok {
			fmt.Fprintf(out, "unknown command %q\n", fields[0])
			continue
		}
		if err := a.run(d, out, fields[1:]); err != nil {
			fmt.Fprintln(out, "error:", err)
		}
	}
}
