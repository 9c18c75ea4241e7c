package ingest

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Plan lists the files of one ingestion run.
type Plan struct {
	Orders    []string
	Trades    []string
	Snapshots []string
}

type task struct {
	kind Kind
	path string
}

func (p Plan) tasks() []task {
	var out []task
	for _, f := range p.Orders {
		out = append(out, task{KindOrders, f})
	}
	for _, f := range p.Trades {
		out = append(out, task{KindTrades, f})
	}
	for _, f := range p.Snapshots {
		out = append(out, task{KindSnapshots, f})
	}
	return out
}

func (p Plan) Empty() bool {
	return len(p.Orders) == 0 && len(p.Trades) == 0 && len(p.Snapshots) == 0
}

// Run ingests every file in plan. With parallel set each file runs in its own
// goroutine; files are independent and every batch is its own transaction, so
// commit order does not matter. A failing file does not stop the others; the
// first error is returned after all files finish. Reports follow plan order.
func (j *Job) Run(ctx context.Context, plan Plan, parallel bool) ([]Report, error) {
	tasks := plan.tasks()
	reports := make([]Report, len(tasks))
	var g errgroup.Group
	if !parallel {
		g.SetLimit(1)
	}
	for i, t := range tasks {
		g.Go(func() error {
			rep, err := j.IngestFile(ctx, t.kind, t.path)
			reports[i] = rep
			return err
		})
	}
	err := g.Wait()
	return reports, err
}
