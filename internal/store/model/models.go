package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// TimeLayout is how the sqlite driver renders time.Time values. All stored
// times are UTC so that text comparison matches chronological order.
const TimeLayout = "2006-01-02 15:04:05.999999999-07:00"

// FormatTime renders t the way it is stored, for use as a query bound.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

type Portfolio struct {
	PortfolioID int64  `gorm:"column:portfolio_id;primaryKey;autoIncrement:false" json:"portfolio_id" yaml:"portfolio_id"`
	Name        string `gorm:"column:name" json:"name" yaml:"name"`
}

func (Portfolio) TableName() string { return "Portfolio" }

type Strategy struct {
	StrategyID  string `gorm:"column:strategy_id;primaryKey" json:"strategy_id" yaml:"strategy_id"`
	Direction   string `gorm:"column:direction" json:"direction" yaml:"direction"`
	Symbol      string `gorm:"column:symbol" json:"symbol" yaml:"symbol"`
	PortfolioID int64  `gorm:"column:portfolio_id" json:"portfolio_id" yaml:"portfolio_id"`
}

func (Strategy) TableName() string { return "Strategy" }

type Order struct {
	OrderID    string          `gorm:"column:order_id;primaryKey" json:"order_id" yaml:"order_id"`
	Time       time.Time       `gorm:"column:time" json:"time" yaml:"time"`
	StrategyID string          `gorm:"column:strategy_id" json:"strategy_id" yaml:"strategy_id"`
	Price      decimal.Decimal `gorm:"column:price;type:text" json:"price" yaml:"price"`
	Qty        decimal.Decimal `gorm:"column:qty;type:text" json:"qty" yaml:"qty"`
	Side       string          `gorm:"column:side" json:"side" yaml:"side"`
	Symbol     string          `gorm:"column:symbol" json:"symbol" yaml:"symbol"`
}

func (Order) TableName() string { return "Trade_Order" }

type Trade struct {
	TradeID    string          `gorm:"column:trade_id;primaryKey" json:"trade_id" yaml:"trade_id"`
	Time       time.Time       `gorm:"column:time" json:"time" yaml:"time"`
	StrategyID string          `gorm:"column:strategy_id" json:"strategy_id" yaml:"strategy_id"`
	Price      decimal.Decimal `gorm:"column:price;type:text" json:"price" yaml:"price"`
	Qty        decimal.Decimal `gorm:"column:qty;type:text" json:"qty" yaml:"qty"`
	Side       string          `gorm:"column:side" json:"side" yaml:"side"`
	Symbol     string          `gorm:"column:symbol" json:"symbol" yaml:"symbol"`
	Volume     decimal.Decimal `gorm:"column:volume;type:text" json:"volume" yaml:"volume"`
}

func (Trade) TableName() string { return "Trade" }

// Log is the append-only audit row. Payload keeps the raw event for replay checks.
type Log struct {
	LogID       int64          `gorm:"column:log_id;primaryKey;autoIncrement:false" json:"log_id" yaml:"log_id"`
	Time        time.Time      `gorm:"column:time" json:"time" yaml:"time"`
	Message     string         `gorm:"column:message" json:"message" yaml:"message"`
	PortfolioID int64          `gorm:"column:portfolio_id" json:"portfolio_id" yaml:"portfolio_id"`
	Payload     datatypes.JSON `gorm:"column:payload;type:TEXT" json:"payload,omitempty" yaml:"-"`
}

func (Log) TableName() string { return "Log" }

type PortfolioSnapshot struct {
	PortfolioID int64           `gorm:"column:portfolio_id;primaryKey;autoIncrement:false" json:"portfolio_id" yaml:"portfolio_id"`
	Time        time.Time       `gorm:"column:time;primaryKey" json:"time" yaml:"time"`
	Fund        decimal.Decimal `gorm:"column:fund;type:text" json:"fund" yaml:"fund"`
	Leverage    decimal.Decimal `gorm:"column:leverage;type:text" json:"leverage" yaml:"leverage"`
	Position    decimal.Decimal `gorm:"column:position;type:text" json:"position" yaml:"position"`
	OrderValue  decimal.Decimal `gorm:"column:order_value;type:text" json:"order_value" yaml:"order_value"`
}

func (PortfolioSnapshot) TableName() string { return "Portfolio_Snapshot" }
