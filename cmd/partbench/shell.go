package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aglyzov/go-part/internal/xlog"
	"github.com/aglyzov/go-part/part"
)

const shellHelp = `commands:
  insert KEY VALUE   store VALUE under KEY in the writer
  get KEY            exact lookup
  lb KEY             smallest key >= KEY
  ub KEY             smallest key > KEY
  snap               take a snapshot of the writer, prints its id
  use ID             read from snapshot ID (0 is the writer)
  drop ID            destroy snapshot ID
  keys               list the keys in order
  dump               print the nodes
  stats              print node counts and sizes
  check              validate the structure
  help               this text
  quit               leave`

var (
	errReadOnly = errors.New("snapshots are read-only, 'use 0' to go back to the writer")
	errQuit     = errors.New("quit")
)

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive tree with snapshots; reads commands from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sh := newShell(cmd.OutOrStdout(), a.logger)
			defer sh.close()

			return sh.run(cmd.InOrStdin(), xlog.IsTerminal(cmd.InOrStdin()))
		},
	}
}

// shell is one session: a writer tree plus the snapshots taken from it
type shell struct {
	out    io.Writer
	logger zerolog.Logger
	writer *part.Tree[string]
	snaps  map[int]*part.Tree[string]
	nextID int
	cur    int // 0 is the writer
}

func newShell(out io.Writer, logger zerolog.Logger) *shell {
	return &shell{
		out:    out,
		logger: logger,
		writer: part.New[string](part.WithLogger(logger)),
		snaps:  make(map[int]*part.Tree[string]),
		nextID: 1,
	}
}

func (sh *shell) run(in io.Reader, prompt bool) error {
	sc := bufio.NewScanner(in)
	for {
		if prompt {
			fmt.Fprintf(sh.out, "[%d]> ", sh.cur)
		}
		if !sc.Scan() {
			return sc.Err()
		}
		err := sh.exec(sc.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
		}
	}
}

func (sh *shell) tree() *part.Tree[string] {
	if sh.cur == 0 {
		return sh.writer
	}
	return sh.snaps[sh.cur]
}

// exec runs one command line
func (sh *shell) exec(line string) (err error) {
	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse %q: %w", line, err)
	}
	if len(args) == 0 {
		return nil
	}

	defer func() {
		// Insert panics on oversized keys
		if r := recover(); r != nil {
			if e, ok := r.(error); ok && errors.Is(e, part.ErrKeyTooLong) {
				err = e
				return
			}
			panic(r)
		}
	}()

	var (
		cmd  = strings.ToLower(args[0])
		tr   = sh.tree()
		want = func(n int) error {
			if len(args)-1 != n {
				return fmt.Errorf("%s takes %d argument(s)", cmd, n)
			}
			return nil
		}
	)
	sh.logger.Debug().Str("cmd", cmd).Strs("args", args[1:]).Msg("shell")

	switch cmd {
	case "insert", "set":
		if err := want(2); err != nil {
			return err
		}
		if sh.cur != 0 {
			return errReadOnly
		}
		tr.Insert([]byte(args[1]), args[2])
		fmt.Fprintln(sh.out, "ok")

	case "get":
		if err := want(1); err != nil {
			return err
		}
		if val, ok := tr.Get([]byte(args[1])); ok {
			fmt.Fprintf(sh.out, "%q\n", val)
		} else {
			fmt.Fprintln(sh.out, "not found")
		}

	case "lb", "ub":
		if err := want(1); err != nil {
			return err
		}
		it := tr.LowerBound([]byte(args[1]))
		if cmd == "ub" {
			it = tr.UpperBound([]byte(args[1]))
		}
		if it.Valid() {
			fmt.Fprintf(sh.out, "%q = %q\n", it.Key(), it.Value())
		} else {
			fmt.Fprintln(sh.out, "end")
		}

	case "snap":
		if err := want(0); err != nil {
			return err
		}
		id := sh.nextID
		sh.nextID++
		sh.snaps[id] = sh.writer.Snapshot()
		fmt.Fprintf(sh.out, "snapshot %d\n", id)

	case "use", "drop":
		if err := want(1); err != nil {
			return err
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("bad id %q: %w", args[1], err)
		}
		if _, ok := sh.snaps[id]; !ok && !(cmd == "use" && id == 0) {
			return fmt.Errorf("no snapshot %d", id)
		}
		if cmd == "use" {
			sh.cur = id
			fmt.Fprintf(sh.out, "using %d\n", id)
			break
		}
		freed := sh.snaps[id].Destroy()
		delete(sh.snaps, id)
		if sh.cur == id {
			sh.cur = 0
		}
		fmt.Fprintf(sh.out, "dropped %d, freed %d bytes\n", id, freed)

	case "keys":
		tr.Iterate(func(key []byte, val string) bool {
			fmt.Fprintf(sh.out, "%q = %q\n", key, val)
			return true
		})

	case "dump":
		tr.Dump(sh.out)

	case "stats":
		printStats(sh.out, tr)

	case "check":
		if err := tr.Validate(); err != nil {
			return err
		}
		fmt.Fprintln(sh.out, "ok")

	case "help", "?":
		fmt.Fprintln(sh.out, shellHelp)

	case "quit", "exit":
		return errQuit

	default:
		return fmt.Errorf("unknown command %q, try help", args[0])
	}
	return nil
}

// close destroys the writer and every snapshot still held
func (sh *shell) close() {
	for id, s := range sh.snaps {
		s.Destroy()
		delete(sh.snaps, id)
	}
	sh.writer.Destroy()
}
