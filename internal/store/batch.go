package store

import (
	"context"
	"errors"

	"tradeledger/internal/store/model"
)

// Batch is one transaction's worth of normalized rows. Rows are written in
// dependency order so foreign keys are satisfied inside the transaction.
type Batch struct {
	Seq        int
	Portfolio  *model.Portfolio
	Strategies []model.Strategy
	Orders     []model.Order
	Trades     []model.Trade
	Snapshots  []model.PortfolioSnapshot
	Logs       []model.Log
}

func (b Batch) Empty() bool {
	return b.Portfolio == nil && len(b.Strategies) == 0 && len(b.Orders) == 0 &&
		len(b.Trades) == 0 && len(b.Snapshots) == 0 && len(b.Logs) == 0
}

type TableCounts struct {
	Strategies int `json:"strategies" yaml:"strategies"`
	Orders     int `json:"orders" yaml:"orders"`
	Trades     int `json:"trades" yaml:"trades"`
	Snapshots  int `json:"snapshots" yaml:"snapshots"`
	Logs       int `json:"logs" yaml:"logs"`
}

func (c TableCounts) Total() int {
	return c.Strategies + c.Orders + c.Trades + c.Snapshots + c.Logs
}

func (c TableCounts) Add(o TableCounts) TableCounts {
	return TableCounts{
		Strategies: c.Strategies + o.Strategies,
		Orders:     c.Orders + o.Orders,
		Trades:     c.Trades + o.Trades,
		Snapshots:  c.Snapshots + o.Snapshots,
		Logs:       c.Logs + o.Logs,
	}
}

func (c TableCounts) Sub(o TableCounts) TableCounts {
	return TableCounts{
		Strategies: c.Strategies - o.Strategies,
		Orders:     c.Orders - o.Orders,
		Trades:     c.Trades - o.Trades,
		Snapshots:  c.Snapshots - o.Snapshots,
		Logs:       c.Logs - o.Logs,
	}
}

type BatchResult struct {
	Submitted TableCounts
	Inserted  TableCounts
}

// Duplicates counts rows that already existed and were ignored.
func (r BatchResult) Duplicates() TableCounts {
	return r.Submitted.Sub(r.Inserted)
}

// WriteBatch persists b in a single transaction on s. Any error rolls the whole
// batch back and is returned as *PersistenceError. There is no retry here.
func WriteBatch(ctx context.Context, s Store, b Batch) (BatchResult, error) {
	res := BatchResult{Submitted: TableCounts{
		Strategies: len(b.Strategies),
		Orders:     len(b.Orders),
		Trades:     len(b.Trades),
		Snapshots:  len(b.Snapshots),
		Logs:       len(b.Logs),
	}}
	if b.Empty() {
		return res, nil
	}
	var inserted TableCounts
	err := s.InTx(ctx, func(uow UnitOfWork) error {
		if b.Portfolio != nil {
			if _, err := uow.Portfolios().Ensure(ctx, *b.Portfolio); err != nil {
				return &PersistenceError{Table: "Portfolio", Batch: b.Seq, Err: err}
			}
		}
		steps := []struct {
			table string
			n     int
			run   func() (int, error)
			dst   *int
		}{
			{"Strategy", len(b.Strategies), func() (int, error) { return uow.Strategies().Insert(ctx, b.Strategies) }, &inserted.Strategies},
			{"Trade_Order", len(b.Orders), func() (int, error) { return uow.Orders().Insert(ctx, b.Orders) }, &inserted.Orders},
			{"Trade", len(b.Trades), func() (int, error) { return uow.Trades().Insert(ctx, b.Trades) }, &inserted.Trades},
			{"Portfolio_Snapshot", len(b.Snapshots), func() (int, error) { return uow.Snapshots().Insert(ctx, b.Snapshots) }, &inserted.Snapshots},
			{"Log", len(b.Logs), func() (int, error) { return uow.Logs().Insert(ctx, b.Logs) }, &inserted.Logs},
		}
		for _, st := range steps {
			if st.n == 0 {
				continue
			}
			n, err := st.run()
			if err != nil {
				return &PersistenceError{Table: st.table, Batch: b.Seq, Err: err}
			}
			*st.dst = n
		}
		return nil
	})
	if err != nil {
		var perr *PersistenceError
		if !errors.As(err, &perr) {
			err = &PersistenceError{Batch: b.Seq, Err: err}
		}
		return res, err
	}
	res.Inserted = inserted
	return res, nil
}
