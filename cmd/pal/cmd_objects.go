package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/odvcencio/pal/pkg/object"
)

func newHashObjectCmd() *cobra.Command {
	var (
		write   bool
		objType string
	)

	cmd := &cobra.Command{
		Use:   "hash-object <file>",
		Short: "Compute an object id, optionally storing the object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := object.ObjectType(objType)
			if !kind.Valid() {
				return fmt.Errorf("unknown object type %q", objType)
			}
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			if kind != object.TypeBlob {
				if _, err := object.ParseObject(kind, data); err != nil {
					return err
				}
			}

			h := object.HashObject(kind, data)
			if write {
				r, err := openRepo()
				if err != nil {
					return err
				}
				if h, err = r.Store.Write(kind, data); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the object into the store")
	cmd.Flags().StringVarP(&objType, "type", "t", string(object.TypeBlob), "object type")
	return cmd
}

func newCatFileCmd() *cobra.Command {
	var (
		showType bool
		showSize bool
	)

	cmd := &cobra.Command{
		Use:   "cat-file [<type>] <object>",
		Short: "Print the content, type or size of an object",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			name := args[len(args)-1]
			var want object.ObjectType
			if len(args) == 2 {
				want = object.ObjectType(args[0])
				if !want.Valid() {
					return fmt.Errorf("unknown object type %q", args[0])
				}
			}
			h, err := r.FindObject(name, want, true)
			if err != nil {
				return err
			}
			kind, data, err := r.Store.Read(h)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case showType:
				fmt.Fprintln(out, kind)
			case showSize:
				fmt.Fprintln(out, len(data))
			case kind == object.TypeTree:
				tree, err := object.ParseTree(data)
				if err != nil {
					return err
				}
				printTree(out, tree)
			default:
				_, err = out.Write(data)
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&showType, "type", "t", false, "print the object type")
	cmd.Flags().BoolVarP(&showSize, "size", "s", false, "print the payload size")
	return cmd
}

func newLsTreeCmd() *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "ls-tree <tree-ish>",
		Short: "List the contents of a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			h, err := r.ResolveTree(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if recursive {
				files, err := r.FlattenTree(h)
				if err != nil {
					return err
				}
				for _, f := range files {
					fmt.Fprintf(out, "%s blob %s\t%s\n", f.Mode, f.Hash, f.Path)
				}
				return nil
			}
			tree, err := r.Store.ReadTree(h)
			if err != nil {
				return err
			}
			printTree(out, tree)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "descend into subtrees")
	return cmd
}

func printTree(out io.Writer, tree *object.Tree) {
	for _, e := range tree.Entries {
		kind := object.TypeBlob
		if e.IsDir() {
			kind = object.TypeTree
		}
		fmt.Fprintf(out, "%s %s %s\t%s\n", e.Mode, kind, e.Hash, e.Name)
	}
}
