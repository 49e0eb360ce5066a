package models

import "github.com/shopspring/decimal"

type SessionStats struct {
	TotalBets    int             `json:"totalBets"`
	BetsWon      int             `json:"betsWon"`
	BetsLost     int             `json:"betsLost"`
	TotalWagered decimal.Decimal `json:"totalWagered"`
	TotalWon     decimal.Decimal `json:"totalWon"`
	NetProfit    decimal.Decimal `json:"netProfit"`
}
