package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aglyzov/go-part/part"
)

func newDumpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dump [keys...]",
		Short: "Build a tree from the keys (or stdin lines) and print its nodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			tr := part.New[int](part.WithLogger(a.logger))
			defer tr.Destroy()

			if len(args) > 0 {
				for i, key := range args {
					tr.Insert([]byte(key), i)
				}
			} else if err := insertLines(tr, cmd.InOrStdin()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tr.Dump(out)
			printStats(out, tr)
			return tr.Validate()
		},
	}
}

// insertLines inserts every line of r, valued by its line number
func insertLines(tr *part.Tree[int], r io.Reader) error {
	sc := bufio.NewScanner(r)
	for i := 0; sc.Scan(); i++ {
		tr.Insert(sc.Bytes(), i)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read keys: %w", err)
	}
	return nil
}

func printStats[V any](w io.Writer, tr *part.Tree[V]) {
	u := tr.Usage()
	fmt.Fprintf(w, "keys=%d depth=%d size=%d live=%d", tr.Len(), tr.MaxDepth(), tr.NodeSize(), u.Live())
	for k := part.KindLeaf; k <= part.KindNode256; k++ {
		fmt.Fprintf(w, " %s=%d", k, u.Nodes[k])
	}
	fmt.Fprintln(w)
}
