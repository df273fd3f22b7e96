package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"novalite/buffer"
	"novalite/common"
	"novalite/config"
	"novalite/db"
	"novalite/disk/structures"
)

var (
	cfgFile string
	dbPath  string
)

var rootCmd = &cobra.Command{
	Use:          "novalite",
	Short:        "Inspect and edit a novalite database file",
	SilenceUsage: true,
}

// action runs one command against an open database. Commands share them with the interactive shell.
type action struct {
	use   string
	short string
	run   func(d *db.DB, out io.Writer, args []string) error
}

var actions = []action{
	{"insert <value>...", "Insert every argument as a row and print its rid", insertRows},
	{"get <page> <slot>", "Print the row at a rid", getRow},
	{"update <page> <slot> <value>", "Replace the row at a rid", updateRow},
	{"delete <page> <slot>", "Delete the row at a rid", deleteRow},
	{"scan", "Print every live row with its rid", scanRows},
	{"stats", "Print page counts of the database", printStats},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file, NOVALITE_* environment variables override it")
	rootCmd.PersistentFlags().StringVar(&dbPath, "path", "", "database file, overrides the configured path")

	for _, a := range actions {
		rootCmd.AddCommand(actionCmd(a))
	}
	rootCmd.AddCommand(shellCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func actionCmd(a action) *cobra.Command {
	return &cobra.Command{
		Use:   a.use,
		Short: a.short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(d *db.DB) error {
				return a.run(d, cmd.OutOrStdout(), args)
			})
		},
	}
}

func findAction(name string) (action, bool) {
	for _, a := range actions {
		if strings.Fields(a.use)[0] == name {
			return a, true
		}
	}
	return action{}, false
}

// withDB opens the database, runs fn and closes it. Close errors are reported only when fn succeeded.
func withDB(fn func(d *db.DB) error) (err error) {
	if dbPath != "" {
		os.Setenv("NOVALITE_PATH", dbPath)
	}

	cfg, err := config.Load("NOVALITE", cfgFile)
	if err != nil {
		return err
	}

	d, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := d.Close(); err == nil {
			err = cerr
		}
	}()

	return fn(d)
}

func wantArgs(args []string, n int, usage string) error {
	if len(args) != n {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}

func parseRid(page, slot string) (structures.Rid, error) {
	pid, err := strconv.ParseUint(page, 10, 32)
	if err != nil {
		return structures.Rid{}, fmt.Errorf("bad page id %q: %w", page, err)
	}
	idx, err := strconv.ParseUint(slot, 10, 16)
	if err != nil {
		return structures.Rid{}, fmt.Errorf("bad slot id %q: %w", slot, err)
	}

	return structures.NewRid(common.PageId(pid), uint16(idx)), nil
}

func insertRows(d *db.DB, out io.Writer, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: insert <value>...")
	}

	for _, arg := range args {
		rid, err := d.Heap().InsertTuple([]byte(arg))
		if err != nil {
			return err
		}
		fmt.Fprintln(out, rid)
	}
	return nil
}

func getRow(d *db.DB, out io.Writer, args []string) error {
	if err := wantArgs(args, 2, "get <page> <slot>"); err != nil {
		return err
	}
	rid, err := parseRid(args[0], args[1])
	if err != nil {
		return err
	}

	row, err := d.Heap().ReadTuple(rid)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\n", row.GetData())
	return nil
}

func updateRow(d *db.DB, out io.Writer, args []string) error {
	if err := wantArgs(args, 3, "update <page> <slot> <value>"); err != nil {
		return err
	}
	rid, err := parseRid(args[0], args[1])
	if err != nil {
		return err
	}

	return d.Heap().UpdateTuple(rid, []byte(args[2]))
}

func deleteRow(d *db.DB, out io.Writer, args []string) error {
	if err := wantArgs(args, 2, "delete <page> <slot>"); err != nil {
		return err
	}
	rid, err := parseRid(args[0], args[1])
	if err != nil {
		return err
	}

	return d.Heap().DeleteTuple(rid)
}

func scanRows(d *db.DB, out io.Writer, args []string) error {
	if err := wantArgs(args, 0, "scan"); err != nil {
		return err
	}

	return d.Heap().Scan(func(row *structures.Row) error {
		_, err := fmt.Fprintf(out, "%v\t%s\n", row.GetRid(), row.GetData())
		return err
	})
}

func printStats(d *db.DB, out io.Writer, args []string) error {
	if err := wantArgs(args, 0, "stats"); err != nil {
		return err
	}

	n, err := d.Pager().NumPages()
	if err != nil {
		return err
	}

	free := d.Pager().FreePages()
	ids := make([]string, 0, len(free))
	for _, pid := range free {
		ids = append(ids, pid.String())
	}

	fmt.Fprintf(out, "pages:\t%d\n", n)
	fmt.Fprintf(out, "heap pages:\t%d\n", len(d.Heap().PageIDs()))
	fmt.Fprintf(out, "free pages:\t[%s]\n", strings.Join(ids, " "))
	if pool, ok := d.Pager().(*buffer.BufferPool); ok {
		s := pool.Stats()
		fmt.Fprintf(out, "cache:\thits=%d misses=%d evictions=%d\n", s.Hits, s.Misses, s.Evictions)
	}
	return nil
}
