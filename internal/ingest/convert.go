package ingest

import (
	"tradeledger/internal/normalize"
	"tradeledger/internal/snapshot"
	"tradeledger/internal/store"
	"tradeledger/internal/store/model"

	"gorm.io/datatypes"
)

// batchBuilder collects one transaction's rows. Strategies are repeated per
// batch so that every batch satisfies its own foreign keys.
type batchBuilder struct {
	portfolio  model.Portfolio
	seq        int
	batch      store.Batch
	strategies map[string]struct{}
	records    int
}

func newBatchBuilder(p model.Portfolio) *batchBuilder {
	b := &batchBuilder{portfolio: p}
	b.reset()
	return b
}

func (b *batchBuilder) reset() {
	b.seq++
	p := b.portfolio
	b.batch = store.Batch{Seq: b.seq, Portfolio: &p}
	b.strategies = make(map[string]struct{})
	b.records = 0
}

func (b *batchBuilder) add(res normalize.Result) {
	if _, ok := b.strategies[res.Strategy.StrategyID]; !ok {
		b.strategies[res.Strategy.StrategyID] = struct{}{}
		b.batch.Strategies = append(b.batch.Strategies, strategyModel(res.Strategy, b.portfolio.PortfolioID))
	}
	if res.Order != nil {
		b.batch.Orders = append(b.batch.Orders, orderModel(res.Order))
	}
	if res.Trade != nil {
		b.batch.Trades = append(b.batch.Trades, tradeModel(res.Trade))
	}
	b.batch.Logs = append(b.batch.Logs, logModel(res.Log, b.portfolio.PortfolioID))
	b.records++
}

// take returns the pending batch and starts a new one.
func (b *batchBuilder) take() store.Batch {
	out := b.batch
	b.reset()
	return out
}

func strategyModel(s normalize.StrategyObservation, portfolioID int64) model.Strategy {
	return model.Strategy{
		StrategyID:  s.StrategyID,
		Direction:   string(s.Direction),
		Symbol:      s.Symbol,
		PortfolioID: portfolioID,
	}
}

func orderModel(o *normalize.OrderRecord) model.Order {
	return model.Order{
		OrderID:    o.OrderID,
		Time:       o.Time.UTC(),
		StrategyID: o.StrategyID,
		Price:      o.Price,
		Qty:        o.Qty,
		Side:       string(o.Side),
		Symbol:     o.Symbol,
	}
}

func tradeModel(t *normalize.TradeRecord) model.Trade {
	return model.Trade{
		TradeID:    t.TradeID,
		Time:       t.Time.UTC(),
		StrategyID: t.StrategyID,
		Price:      t.Price,
		Qty:        t.Qty,
		Side:       string(t.Side),
		Symbol:     t.Symbol,
		Volume:     t.Volume,
	}
}

func logModel(l normalize.LogEntry, portfolioID int64) model.Log {
	return model.Log{
		LogID:       l.LogID,
		Time:        l.Time.UTC(),
		Message:     l.Message,
		PortfolioID: portfolioID,
		Payload:     datatypes.JSON(l.Payload),
	}
}

func snapshotModels(rows []snapshot.Snapshot) []model.PortfolioSnapshot {
	out := make([]model.PortfolioSnapshot, 0, len(rows))
	for _, s := range rows {
		out = append(out, model.PortfolioSnapshot{
			PortfolioID: s.PortfolioID,
			Time:        s.Time.UTC(),
			Fund:        s.Fund,
			Leverage:    s.Leverage,
			Position:    s.Position,
			OrderValue:  s.OrderValue,
		})
	}
	return out
}
