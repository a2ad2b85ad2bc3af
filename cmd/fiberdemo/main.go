package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/delaneyj/fiberparty/fiber"
	"github.com/delaneyj/fiberparty/vhost"
)

const (
	itemsKey  = "items"
	budgetKey = "budget"
	htmlKey   = "html"
)

func main() {
	cmd := &cli.Command{
		Name:  "fiberdemo",
		Usage: "Mount a tree, drive keyed updates through the lane scheduler, dump the host",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  itemsKey,
				Usage: "Number of keyed list items",
				Value: 12,
			},
			&cli.DurationFlag{
				Name:  budgetKey,
				Usage: "Time-slice budget per cooperative burst",
				Value: fiber.DefaultSliceBudget,
			},
			&cli.BoolFlag{
				Name:  htmlKey,
				Usage: "Print the final host tree as HTML",
				Value: true,
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

type todo struct {
	key   string
	label string
	done  bool
}

func todoApp(todos []todo) *fiber.Element {
	children := make([]any, 0, len(todos))
	for _, td := range todos {
		children = append(children, fiber.Keyed(td.key,
			fiber.E("li", fiber.Props{"done": td.done}, td.label),
		))
	}
	return fiber.E("main", nil,
		fiber.E("h1", nil, "todos"),
		fiber.E("ul", nil, children...),
	)
}

func run(ctx context.Context, cmd *cli.Command) error {
	start := time.Now()
	defer func() {
		log.Printf("demo finished in %v", time.Since(start))
	}()

	items := int(cmd.Uint(itemsKey))
	budget := cmd.Duration(budgetKey)

	tree := vhost.New()
	step := &fiber.StepFrames{Budget: budget}
	rt := fiber.CreateRuntime(tree, func(from *fiber.Node, err error) {
		log.Printf("%s node error: %v", from.Kind, err)
	}, fiber.WithFrames(step))

	todos := make([]todo, items)
	for i := range todos {
		todos[i] = todo{key: fmt.Sprintf("t%d", i), label: fmt.Sprintf("task %d", i)}
	}

	log.Printf("mounting %d items", items)
	root := rt.Mount(todoApp(todos), tree.Root())

	log.Print("deferrable pass: marking every other item done")
	for i := range todos {
		todos[i].done = i%2 == 0
	}
	root.Render(todoApp(todos), fiber.LaneTransition)
	bursts := 0
	for step.Step() {
		bursts++
	}
	log.Printf("time-sliced pass committed after %d bursts", bursts)

	log.Print("urgent pass: rotating the list")
	todos = append(todos[1:], todos[0])
	root.Render(todoApp(todos), fiber.LaneSync)
	step.Drain()

	summary := map[vhost.Op]int{}
	for _, m := range tree.Journal() {
		summary[m.Op]++
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"op", "count"})
	for op := vhost.OpCreate; op <= vhost.OpRemove; op++ {
		table.Append([]string{op.String(), fmt.Sprint(summary[op])})
	}
	table.Append([]string{"attached nodes", fmt.Sprint(tree.Size())})
	table.Render()

	if cmd.Bool(htmlKey) {
		fmt.Println(tree.HTML())
	}
	return nil
}
