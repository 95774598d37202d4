// wexbimtool is a CLI utility for inspecting and generating wexbim
// geometry containers.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Faultbox/xviewer/internal/loader"
	"github.com/Faultbox/xviewer/internal/store"
	"github.com/Faultbox/xviewer/pkg/wexbim"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "list", "ls":
		cmdList(args)
	case "gen":
		cmdGen(args)
	case "snapshots":
		cmdSnapshots(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`wexbimtool - wexbim geometry container utility

Usage:
  wexbimtool <command> [options]

Commands:
  info <file>                       Show container header and product types
  list <file> [type]                List products (optional type name filter)
  gen [-n N] [-storeys S] <out>     Generate an N×N room building
  snapshots [-rm id] <db> [model]   List or delete stored viewer snapshots

Sources may be paths, http(s) URLs or gzip-compressed files.

Examples:
  wexbimtool info tower.wexbim
  wexbimtool list tower.wexbim IfcSpace
  wexbimtool gen -n 10 -storeys 4 block.wexbim
  wexbimtool snapshots ~/.config/xviewer/snapshots.db`)
}

func fail(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}

func load(src string) *wexbim.Model {
	m, err := loader.New().Load(context.Background(), src)
	if err != nil {
		fail("Error: %v", err)
	}
	return m
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fail("Usage: wexbimtool info <file>")
	}
	m := load(args[0])

	typeCount := make(map[wexbim.ProductType]int)
	for _, p := range m.Products {
		typeCount[p.Type]++
	}

	r := m.Region
	fmt.Printf("Model:     %s\n", args[0])
	fmt.Printf("Version:   %s\n", m.Version)
	fmt.Printf("Units/m:   %g\n", m.UnitsPerMeter)
	fmt.Printf("Region:    [%g %g %g] - [%g %g %g]\n", r.Min[0], r.Min[1], r.Min[2], r.Max[0], r.Max[1], r.Max[2])
	fmt.Printf("Products:  %d\n", len(m.Products))
	fmt.Printf("Vertices:  %d\n", m.VertexCount())
	fmt.Printf("Triangles: %d\n", len(m.Indices)/3)
	fmt.Println()
	fmt.Println("Products by type:")

	// Sort by count
	type typeStat struct {
		typ   wexbim.ProductType
		count int
	}
	var stats []typeStat
	for typ, count := range typeCount {
		stats = append(stats, typeStat{typ, count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].count != stats[j].count {
			return stats[i].count > stats[j].count
		}
		return stats[i].typ < stats[j].typ
	})

	for _, s := range stats {
		fmt.Printf("  %-26s %d\n", s.typ, s.count)
	}
}

func cmdList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	limit := fs.Int("n", 0, "Limit output to N products (0 = all)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fail("Usage: wexbimtool list <file> [type]")
	}
	m := load(fs.Arg(0))

	filter := ""
	if fs.NArg() > 1 {
		filter = strings.ToLower(fs.Arg(1))
	}

	count := 0
	for _, p := range m.Products {
		if filter != "" && !strings.Contains(strings.ToLower(p.Type.String()), filter) {
			continue
		}
		c := p.BBox.Centre()
		fmt.Printf("%8d  %-26s centre [%.2f %.2f %.2f]\n", p.ID, p.Type, c[0], c[1], c[2])
		count++
		if *limit > 0 && count >= *limit {
			break
		}
	}

	if filter != "" {
		fmt.Fprintf(os.Stderr, "\n(%d products matched)\n", count)
	}
}

func cmdGen(args []string) {
	fs := flag.NewFlagSet("gen", flag.ExitOnError)
	n := fs.Int("n", 4, "Rooms per side")
	storeys := fs.Int("storeys", 1, "Number of storeys")
	fs.Parse(args)

	if fs.NArg() < 1 || *n < 1 || *storeys < 1 {
		fail("Usage: wexbimtool gen [-n N] [-storeys S] <out>")
	}
	out := fs.Arg(0)

	m := generate(*n, *storeys)
	data, err := wexbim.Encode(m)
	if err != nil {
		fail("Error encoding model: %v", err)
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fail("Error creating directory: %v", err)
		}
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		fail("Error writing file: %v", err)
	}

	fmt.Printf("Generated: %s (%d products, %d bytes)\n", out, len(m.Products), len(data))
}

func cmdSnapshots(args []string) {
	fs := flag.NewFlagSet("snapshots", flag.ExitOnError)
	rm := fs.String("rm", "", "Delete the snapshot with this id")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fail("Usage: wexbimtool snapshots [-rm id] <db> [model]")
	}
	ctx := context.Background()
	st, err := store.Open(ctx, fs.Arg(0))
	if err != nil {
		fail("Error: %v", err)
	}
	defer st.Close()

	if *rm != "" {
		id, err := uuid.Parse(*rm)
		if err != nil {
			fail("Error: bad snapshot id: %v", err)
		}
		if err := st.Delete(ctx, id); err != nil {
			fail("Error: %v", err)
		}
		fmt.Printf("Deleted: %s\n", id)
		return
	}

	model := ""
	if fs.NArg() > 1 {
		model, err = filepath.Abs(fs.Arg(1))
		if err != nil {
			fail("Error: %v", err)
		}
	}
	recs, err := st.List(ctx, model)
	if err != nil {
		fail("Error: %v", err)
	}
	for _, r := range recs {
		fmt.Printf("%s  %s  %-20s %6d products  %s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Name, r.Products, r.ModelKey)
	}
	if len(recs) == 0 {
		fmt.Fprintln(os.Stderr, "No snapshots found")
	}
}
