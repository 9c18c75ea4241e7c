package report

import (
	"fmt"
	"strconv"
	"time"

	"tradeledger/internal/ingest"
	"tradeledger/internal/pkg/text"
	"tradeledger/internal/store/model"
)

const (
	timeLayout = "2006-01-02 15:04:05.000"
	// messageWidth caps log messages in table output; json/yaml keep them whole.
	messageWidth = 96
)

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func footer[T any](l Listing[T]) [][]string {
	if l.Limit <= 0 || int64(len(l.Items)) == l.Total {
		return nil
	}
	return [][]string{{fmt.Sprintf("-- page %d, %d of %d rows", l.Page, len(l.Items), l.Total)}}
}

func (r *Renderer) Strategies(l Listing[model.Strategy]) error {
	grid := make([][]string, 0, len(l.Items))
	for _, s := range l.Items {
		grid = append(grid, []string{s.StrategyID, s.Symbol, s.Direction, strconv.FormatInt(s.PortfolioID, 10)})
	}
	return r.render(l, []string{"STRATEGY", "SYMBOL", "DIRECTION", "PORTFOLIO"}, append(grid, footer(l)...))
}

func (r *Renderer) Orders(l Listing[model.Order]) error {
	grid := make([][]string, 0, len(l.Items))
	for _, o := range l.Items {
		grid = append(grid, []string{
			o.OrderID, formatTime(o.Time), o.StrategyID, o.Symbol, o.Side,
			o.Price.String(), o.Qty.String(),
		})
	}
	return r.render(l, []string{"ORDER", "TIME", "STRATEGY", "SYMBOL", "SIDE", "PRICE", "QTY"}, append(grid, footer(l)...))
}

func (r *Renderer) Trades(l Listing[model.Trade]) error {
	grid := make([][]string, 0, len(l.Items))
	for _, t := range l.Items {
		grid = append(grid, []string{
			t.TradeID, formatTime(t.Time), t.StrategyID, t.Symbol, t.Side,
			t.Price.String(), t.Qty.String(), t.Volume.String(),
		})
	}
	return r.render(l, []string{"TRADE", "TIME", "STRATEGY", "SYMBOL", "SIDE", "PRICE", "QTY", "VOLUME"}, append(grid, footer(l)...))
}

func (r *Renderer) Logs(l Listing[model.Log]) error {
	grid := make([][]string, 0, len(l.Items))
	for _, e := range l.Items {
		grid = append(grid, []string{strconv.FormatInt(e.LogID, 10), formatTime(e.Time), text.Truncate(e.Message, messageWidth)})
	}
	return r.render(l, []string{"LOG", "TIME", "MESSAGE"}, append(grid, footer(l)...))
}

func (r *Renderer) Snapshots(l Listing[model.PortfolioSnapshot]) error {
	grid := make([][]string, 0, len(l.Items))
	for _, s := range l.Items {
		grid = append(grid, []string{
			formatTime(s.Time), s.Fund.String(), s.Leverage.String(),
			s.Position.String(), s.OrderValue.String(),
		})
	}
	return r.render(l, []string{"TIME", "FUND", "LEVERAGE", "POSITION", "ORDER VALUE"}, append(grid, footer(l)...))
}

func (r *Renderer) Ingest(reports []ingest.Report) error {
	grid := make([][]string, 0, len(reports))
	for _, rep := range reports {
		grid = append(grid, []string{
			string(rep.Kind), rep.Source,
			strconv.Itoa(rep.Lines), strconv.Itoa(rep.Parsed), strconv.Itoa(rep.Accepted),
			strconv.Itoa(rep.Rejected), strconv.Itoa(rep.Skipped),
			strconv.Itoa(rep.Inserted.Total()), strconv.Itoa(rep.Duplicates.Total()),
			strconv.Itoa(rep.Batches), strconv.Itoa(rep.FailedBatches),
			rep.Duration().Round(time.Millisecond).String(),
		})
	}
	return r.render(reports, []string{"KIND", "SOURCE", "LINES", "PARSED", "ACCEPTED", "REJECTED", "SKIPPED", "INSERTED", "DUPLICATES", "BATCHES", "FAILED", "TOOK"}, grid)
}
