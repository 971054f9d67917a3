package dto

type CheckoutItem struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type ShippingAddress struct {
	Line1      string `json:"line1"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type Customer struct {
	Email   string          `json:"email"`
	Name    string          `json:"name"`
	Address ShippingAddress `json:"address"`
}

type CheckoutRequest struct {
	StoreID  string          `json:"store_id"`
	Items    []*CheckoutItem `json:"items"`
	Customer Customer        `json:"customer"`
}

type CheckoutResponse struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	RedirectURL string `json:"redirect_url"`
}

type CreateStoreRequest struct {
	UserID         string  `json:"user_id"`
	Name           string  `json:"name"`
	Slug           string  `json:"slug"`
	CommissionRate float64 `json:"commission_rate"`
}

type OnboardRequest struct {
	RefreshURL string `json:"refresh_url"`
	ReturnURL  string `json:"return_url"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
