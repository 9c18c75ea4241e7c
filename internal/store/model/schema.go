package model

// Schema creates the six ledger tables. Decimals are stored as TEXT so that
// values read back exactly as they were written.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS Portfolio (
		portfolio_id INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE TABLE IF NOT EXISTS Strategy (
		strategy_id TEXT PRIMARY KEY,
		direction TEXT NOT NULL CHECK (direction IN ('long', 'short')),
		symbol TEXT NOT NULL,
		portfolio_id INTEGER NOT NULL REFERENCES Portfolio(portfolio_id)
	);`,
	`CREATE TABLE IF NOT EXISTS Trade_Order (
		order_id TEXT PRIMARY KEY,
		time DATETIME NOT NULL,
		strategy_id TEXT NOT NULL REFERENCES Strategy(strategy_id),
		price TEXT NOT NULL,
		qty TEXT NOT NULL,
		side TEXT NOT NULL CHECK (side IN ('buy', 'sell')),
		symbol TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS Trade (
		trade_id TEXT PRIMARY KEY,
		time DATETIME NOT NULL,
		strategy_id TEXT NOT NULL REFERENCES Strategy(strategy_id),
		price TEXT NOT NULL,
		qty TEXT NOT NULL,
		side TEXT NOT NULL CHECK (side IN ('buy', 'sell')),
		symbol TEXT NOT NULL,
		volume TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS Log (
		log_id INTEGER PRIMARY KEY,
		time DATETIME NOT NULL,
		message TEXT NOT NULL,
		portfolio_id INTEGER NOT NULL REFERENCES Portfolio(portfolio_id),
		payload TEXT
	);`,
	`CREATE TABLE IF NOT EXISTS Portfolio_Snapshot (
		portfolio_id INTEGER NOT NULL REFERENCES Portfolio(portfolio_id),
		time DATETIME NOT NULL,
		fund TEXT NOT NULL,
		leverage TEXT NOT NULL,
		position TEXT NOT NULL,
		order_value TEXT NOT NULL,
		PRIMARY KEY (portfolio_id, time)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_strategy_portfolio ON Strategy(portfolio_id);`,
	`CREATE INDEX IF NOT EXISTS idx_trade_strategy_time ON Trade(strategy_id, time);`,
	`CREATE INDEX IF NOT EXISTS idx_order_strategy_time ON Trade_Order(strategy_id, time);`,
	`CREATE INDEX IF NOT EXISTS idx_log_portfolio_time ON Log(portfolio_id, time);`,
}
