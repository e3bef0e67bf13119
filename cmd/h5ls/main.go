// Command h5ls prints the object tree of an HDF5 file, one line per
// group or dataset, with storage details for datasets.
package main

import (
	"fmt"
	"os"

	"github.com/seqview/hdf5/hdf5"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: h5ls <file.h5> [path...]")
		os.Exit(1)
	}

	f, err := hdf5.Open(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "h5ls: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	if len(os.Args) > 2 {
		status := 0
		for _, p := range os.Args[2:] {
			if err := printDataset(f, p); err != nil {
				fmt.Fprintf(os.Stderr, "h5ls: %v\n", err)
				status = 1
			}
		}
		os.Exit(status)
	}

	err = f.Walk(func(path string, kind hdf5.ObjectKind) error {
		switch kind {
		case hdf5.KindDataset:
			ds, err := f.OpenDataset(path)
			if err != nil {
				fmt.Printf("%s (unreadable: %v)\n", path, err)
				return nil
			}
			fmt.Println(ds.Inspect())
		default:
			fmt.Println(path)
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "h5ls: %v\n", err)
		os.Exit(1)
	}
}

func printDataset(f *hdf5.File, path string) error {
	ds, err := f.OpenDataset(path)
	if err != nil {
		return err
	}
	fmt.Println(ds.Inspect())
	for _, a := range ds.Attributes() {
		v, err := a.Value()
		if err != nil {
			fmt.Printf("  @%s = <%v>\n", a.Name(), err)
			continue
		}
		fmt.Printf("  @%s = %v\n", a.Name(), v)
	}
	vals, err := ds.Values()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	const max = 16
	for i, v := range vals {
		if i == max {
			fmt.Printf("  ... %d more\n", len(vals)-max)
			break
		}
		fmt.Printf("  [%d] %v\n", i, v)
	}
	return nil
}
