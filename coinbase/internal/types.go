// Copyright (c) 2025 BVK Chaitanya

package internal

type Account struct {
	UUID     string `json:"uuid"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Type     string `json:"type"`

	AvailableBalance struct {
		Value    string `json:"value"`
		Currency string `json:"currency"`
	} `json:"available_balance"`
}

type ListAccountsResponse struct {
	Accounts []*Account `json:"accounts"`
	HasNext  bool       `json:"has_next"`
	Cursor   string     `json:"cursor"`
}

type Product struct {
	ProductID string `json:"product_id"`
	Price     string `json:"price"`
	Status    string `json:"status"`
}

type MarketIOC struct {
	QuoteSize string `json:"quote_size"`
}

type OrderConfiguration struct {
	MarketIOC *MarketIOC `json:"market_market_ioc,omitempty"`
}

type CreateOrderRequest struct {
	ClientOrderID      string             `json:"client_order_id"`
	ProductID          string             `json:"product_id"`
	Side               string             `json:"side"`
	OrderConfiguration OrderConfiguration `json:"order_configuration"`
}

type CreateOrderResponse struct {
	Success bool `json:"success"`

	SuccessResponse struct {
		OrderID string `json:"order_id"`
	} `json:"success_response"`

	ErrorResponse struct {
		Error        string `json:"error"`
		Message      string `json:"message"`
		ErrorDetails string `json:"error_details"`
	} `json:"error_response"`
}

type Order struct {
	OrderID            string `json:"order_id"`
	ProductID          string `json:"product_id"`
	Status             string `json:"status"`
	FilledSize         string `json:"filled_size"`
	AverageFilledPrice string `json:"average_filled_price"`
	FilledValue        string `json:"filled_value"`
	CreatedTime        string `json:"created_time"`
}

type GetOrderResponse struct {
	Order *Order `json:"order"`
}
