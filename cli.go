package mousedb

import (
	"fmt"
	"os"
	"strconv"

	"mousedb/bench"

	"github.com/spf13/cobra"
)

var current Filter
var currentKind string

func parseParams(args []string) ([]uint64, error) {
	params := make([]uint64, len(args))
	for i, a := range args {
		v, err := strconv.ParseUint(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad parameter %q: %w", a, err)
		}
		params[i] = v
	}
	return params, nil
}

func buildFilter(kind string, p []uint64) (Filter, error) {
	switch kind {
	case "bloom":
		if len(p) != 2 {
			return nil, fmt.Errorf("bloom takes <bits> <hashes>")
		}
		return NewBloomFilter(p[0], p[1])
	case "cuckoo":
		if len(p) != 4 {
			return nil, fmt.Errorf("cuckoo takes <buckets> <slots> <fpbits> <kicks>")
		}
		return NewCuckooFilter(p[0], p[1], p[2], p[3])
	case "cuckoomap":
		if len(p) != 4 {
			return nil, fmt.Errorf("cuckoomap takes <buckets> <slots> <fpbits> <kicks>")
		}
		return NewCuckooMap(p[0], p[1], p[2], p[3])
	}
	return nil, fmt.Errorf("unknown filter kind %q", kind)
}

func loadFilter(kind string, f *os.File) (Filter, error) {
	switch kind {
	case "bloom":
		return LoadBloomFilter(f)
	case "cuckoo":
		return LoadCuckooFilter(f)
	case "cuckoomap":
		return LoadCuckooMap(f)
	}
	return nil, fmt.Errorf("unknown filter kind %q", kind)
}

func requireFilter() bool {
	if current == nil {
		fmt.Println("No filter loaded; run 'create' or 'load' first")
		return false
	}
	return true
}

func InitializeCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mousedb",
		Short: "CLI for mousedb approximate-membership filters",
	}
	rootCmd.AddCommand(createCmd, insertCmd, containsCmd, eraseCmd, saveCmd, loadCmd, sizeCmd, benchCmd)
	return rootCmd
}

var createCmd = &cobra.Command{
	Use:   "create [bloom|cuckoo|cuckoomap] [params...]",
	Short: "Create an in-memory filter (bloom <bits> <hashes>, cuckoo/cuckoomap <buckets> <slots> <fpbits> <kicks>)",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		params, err := parseParams(args[1:])
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		f, err := buildFilter(args[0], params)
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		current, currentKind = f, args[0]
		fmt.Printf("Created %s filter (%d bits)\n", currentKind, current.Size())
	},
}

var insertCmd = &cobra.Command{
	Use:   "insert [key]",
	Short: "Insert a key into the current filter",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !requireFilter() {
			return
		}
		if current.Insert([]byte(args[0])) {
			fmt.Printf("Inserted key=%s\n", args[0])
		} else {
			fmt.Printf("Filter full, key=%s dropped\n", args[0])
		}
	},
}

var containsCmd = &cobra.Command{
	Use:   "contains [key]",
	Short: "Test whether a key may have been inserted",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !requireFilter() {
			return
		}
		fmt.Printf("contains(%s) = %v\n", args[0], current.Contains([]byte(args[0])))
	},
}

var eraseCmd = &cobra.Command{
	Use:   "erase [key]",
	Short: "Erase one occurrence of a key (cuckoo and cuckoomap only)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !requireFilter() {
			return
		}
		if currentKind == "bloom" {
			fmt.Println("Bloom filters do not support erase")
			return
		}
		fmt.Printf("erase(%s) = %v\n", args[0], current.Erase([]byte(args[0])))
	},
}

var saveCmd = &cobra.Command{
	Use:   "save [path]",
	Short: "Save the current filter to a file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !requireFilter() {
			return
		}
		f, err := os.Create(args[0])
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		defer f.Close()
		written, err := current.Save(f)
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		fmt.Printf("Saved %s filter to %s (%d bytes)\n", currentKind, args[0], written)
	},
}

var loadCmd = &cobra.Command{
	Use:   "load [bloom|cuckoo|cuckoomap] [path]",
	Short: "Load a filter from a file",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		f, err := os.Open(args[1])
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		defer f.Close()
		loaded, err := loadFilter(args[0], f)
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		current, currentKind = loaded, args[0]
		fmt.Printf("Loaded %s filter from %s (%d bits)\n", currentKind, args[1], current.Size())
	},
}

var sizeCmd = &cobra.Command{
	Use:   "size",
	Short: "Report the current filter's memory footprint in bits",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if !requireFilter() {
			return
		}
		fmt.Printf("%s filter occupies %d bits\n", currentKind, current.Size())
	},
}

var benchCmd = &cobra.Command{
	Use:   "bench [bloom|cuckoo|cuckoomap]",
	Short: "Run a false-positive workload against a freshly sized filter",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		numKeys, _ := cmd.Flags().GetInt("n")
		zipfian, _ := cmd.Flags().GetBool("zipfian")

		var f Filter
		var err error
		switch args[0] {
		case "bloom":
			bits, hashes := bench.BloomSizing(numKeys, 0.03)
			f, err = NewBloomFilter(bits, hashes)
		case "cuckoo":
			f, err = NewCuckooFilter(bench.CuckooSizing(numKeys, 4), 4, 8, 50)
		case "cuckoomap":
			f, err = NewCuckooMap(bench.CuckooSizing(numKeys, 4), 4, 8, 50)
		default:
			err = fmt.Errorf("unknown filter kind %q", args[0])
		}
		if err != nil {
			fmt.Println("Error:", err)
			return
		}

		dist := bench.Uniform
		if zipfian {
			dist = bench.Zipfian
		}
		result, err := bench.RunWorkload(f, bench.WorkloadOptions{
			NumKeys:    numKeys,
			Dist:       dist,
			ZipfS:      1.1,
			ZipfN:      10_000_000,
			InsertSeed: 12345,
			QuerySeed:  54321,
		})
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		fmt.Printf("=== %s workload ===\n", dist)
		fmt.Printf("%s: %s\n", args[0], result)
	},
}

func init() {
	benchCmd.Flags().Int("n", 1_000_000, "number of keys to insert and query")
	benchCmd.Flags().Bool("zipfian", false, "draw inserted keys from a zipfian distribution")
}
