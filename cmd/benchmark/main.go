package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/delaneyj/fiberparty/fiber"
	"github.com/delaneyj/fiberparty/vhost"
)

var (
	widths  = []int{10, 100, 1_000}
	depths  = []int{1, 3}
	iters   = 100
	profile = flag.Bool("profile", false, "write a CPU profile to default.pgo")
)

func main() {
	flag.Parse()

	if *profile {
		f, err := os.Create("default.pgo")
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	log.Printf("warming up")
	benchmarkUpdates(false)
	benchmarkUpdates(true)
	benchmarkReorders(true)
}

func grid(label string, width, depth int) *fiber.Element {
	rows := make([]any, width)
	for i := 0; i < width; i++ {
		cells := make([]any, depth)
		for j := 0; j < depth; j++ {
			cells[j] = fiber.E("td", fiber.Props{"label": label}, fmt.Sprintf("%d:%d", i, j))
		}
		rows[i] = fiber.Keyed(fmt.Sprintf("r%d", i), fiber.E("tr", nil, cells...))
	}
	return fiber.E("table", nil, rows...)
}

func benchmarkUpdates(shouldRender bool) {
	tbl := table.NewWriter()
	tbl.SetTitle("Prop Updates")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "nodes", "avg", "min", "p75", "p99", "max"})

	for _, w := range widths {
		for _, d := range depths {
			tree := vhost.New()
			rt := fiber.CreateRuntime(tree, func(from *fiber.Node, err error) {
				log.Panic(err)
			})
			root := rt.Mount(grid("a", w, d), tree.Root())

			tach := tachymeter.New(&tachymeter.Config{Size: iters})
			for i := 0; i < iters; i++ {
				label := fmt.Sprintf("pass%d", i)
				start := time.Now()
				root.Render(grid(label, w, d), fiber.LaneSync)
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{{
				fmt.Sprintf("update %d * %d", w, d),
				humanize.Comma(int64(tree.Size())),
				calc.Time.Avg,
				calc.Time.Min,
				calc.Time.P75,
				calc.Time.P99,
				calc.Time.Max,
			}})
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

func benchmarkReorders(shouldRender bool) {
	tbl := table.NewWriter()
	tbl.SetTitle("Keyed Reorders")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "moves", "avg", "min", "p75", "p99", "max"})

	for _, w := range widths {
		tree := vhost.New()
		rt := fiber.CreateRuntime(tree, func(from *fiber.Node, err error) {
			log.Panic(err)
		})

		keys := make([]string, w)
		for i := range keys {
			keys[i] = fmt.Sprintf("k%d", i)
		}
		list := func(keys []string) *fiber.Element {
			children := make([]any, len(keys))
			for i, k := range keys {
				children[i] = fiber.Keyed(k, fiber.E("li", nil, k))
			}
			return fiber.E("ul", nil, children...)
		}

		root := rt.Mount(list(keys), tree.Root())
		tree.ResetJournal()

		tach := tachymeter.New(&tachymeter.Config{Size: iters})
		for i := 0; i < iters; i++ {
			// rotate: every pass moves the former head to the tail
			keys = append(keys[1:], keys[0])
			start := time.Now()
			root.Render(list(keys), fiber.LaneSync)
			tach.AddTime(time.Since(start))
		}

		moves := 0
		for _, m := range tree.Journal() {
			if m.Op == vhost.OpAppend || m.Op == vhost.OpInsert {
				moves++
			}
		}

		calc := tach.Calc()
		tbl.AppendRows([]table.Row{{
			fmt.Sprintf("rotate %d", w),
			humanize.Comma(int64(moves)),
			calc.Time.Avg,
			calc.Time.Min,
			calc.Time.P75,
			calc.Time.P99,
			calc.Time.Max,
		}})
	}

	if shouldRender {
		tbl.Render()
	}
}
