// Copyright (c) 2025 BVK Chaitanya

package internal

type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

type TickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

type ServerTime struct {
	ServerTime int64 `json:"serverTime"`
}

// CapitalConfig is one entry of the /sapi/v1/capital/config/getall spot
// wallet response. Only the fields this bot reads are mapped.
type CapitalConfig struct {
	Coin    string `json:"coin"`
	Free    string `json:"free"`
	Locked  string `json:"locked"`
	Trading bool   `json:"trading"`
}

// EarnPosition is one flexible-savings position of an asset.
type EarnPosition struct {
	Asset              string `json:"asset"`
	ProductID          string `json:"productId"`
	ProductName        string `json:"productName"`
	FreeAmount         string `json:"freeAmount"`
	TotalAmount        string `json:"totalAmount"`
	CanRedeem          bool   `json:"canRedeem"`
	AnnualInterestRate string `json:"annualInterestRate"`
}

type RedeemResponse struct{}

type OrderFill struct {
	Price           string `json:"price"`
	Quantity        string `json:"qty"`
	Commission      string `json:"commission"`
	CommissionAsset string `json:"commissionAsset"`
}

// OrderResponse is the FULL response of a market order.
type OrderResponse struct {
	Symbol              string      `json:"symbol"`
	OrderID             int64       `json:"orderId"`
	ClientOrderID       string      `json:"clientOrderId"`
	TransactTime        int64       `json:"transactTime"`
	ExecutedQty         string      `json:"executedQty"`
	CummulativeQuoteQty string      `json:"cummulativeQuoteQty"`
	Status              string      `json:"status"`
	Fills               []OrderFill `json:"fills"`
}
