package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order or position.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Opposite returns the closing direction for a side.
func (s Side) Opposite() Side {
	if s == SideLong {
		return SideShort
	}
	return SideLong
}

// OrderType is the execution style requested from the exchange.
type OrderType string

const (
	OrderMarket     OrderType = "MARKET"
	OrderLimit      OrderType = "LIMIT"
	OrderStop       OrderType = "STOP"
	OrderTakeProfit OrderType = "TAKE_PROFIT"
)

// OrderStatus mirrors the exchange's view of order lifecycle.
type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "NEW"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
	OrderStatusRejected        OrderStatus = "REJECTED"
)

// Order is a request to, and the exchange's response from, the connector.
type Order struct {
	ID             string
	Symbol         string
	Side           Side
	Type           OrderType
	Quantity       decimal.Decimal
	Price          decimal.Decimal // zero value means "not set" for MARKET orders
	Status         OrderStatus
	FilledQuantity decimal.Decimal
	AveragePrice   decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Filled reports whether the order has any executed quantity.
func (o Order) Filled() bool {
	return o.Status == OrderStatusFilled || o.Status == OrderStatusPartiallyFilled
}

// Ticker is the current best-price snapshot for a symbol.
type Ticker struct {
	Symbol    string
	Price     decimal.Decimal
	Timestamp time.Time
}

// Balance is the account's free/used funds as reported by the exchange.
type Balance struct {
	Asset     string
	Free      decimal.Decimal
	Locked    decimal.Decimal
	Timestamp time.Time
}
