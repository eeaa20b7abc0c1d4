package entity

import "time"

// StockPrice is one daily OHLCV bar for a stock.
type StockPrice struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StockCode string    `gorm:"index:idx_price_stock_date,unique;not null" json:"stock_code"`
	Date      time.Time `gorm:"index:idx_price_stock_date,unique;not null" json:"date"`
	Open      float64   `gorm:"not null" json:"open"`
	High      float64   `gorm:"not null" json:"high"`
	Low       float64   `gorm:"not null" json:"low"`
	Close     float64   `gorm:"not null" json:"close"`
	Volume    int64     `gorm:"not null" json:"volume"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (StockPrice) TableName() string {
	return "stock_prices"
}
