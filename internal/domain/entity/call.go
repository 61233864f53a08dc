// Package entity holds the plain data types passed between layers of the
// bridge. None of these types know how they are transported or persisted.
package entity

import "time"

// CallIdentity is created by the webhook handler and is immutable for the
// life of the call.
type CallIdentity struct {
	CallID       string
	CallerNumber string
	StartedAt    time.Time
}

// IdentificationContext is produced by the order backend client before the
// media socket opens and survives a base64/JSON round-trip through the
// carrier's stream parameters.
type IdentificationContext struct {
	Found        bool            `json:"found"`
	CustomerName string          `json:"customerName,omitempty"`
	GreetingHint string          `json:"greetingHint"`
	Orders       []OrderSummary  `json:"orders"`
	Error        bool            `json:"error,omitempty"`
}

// OrderStatus is the closed status enum.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPreparing OrderStatus = "preparing"
	StatusConfirmed OrderStatus = "confirmed"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
	StatusReturned  OrderStatus = "returned"
)

// OrderItem is a single line item on an order.
type OrderItem struct {
	Name  string  `json:"name"`
	Qty   int     `json:"qty"`
	Price float64 `json:"price"`
}

// Order is the canonical, backend-owned record. The bridge only ever holds
// read-only snapshots of it.
type Order struct {
	OrderID        string      `json:"orderId"`
	CustomerName   string      `json:"customerName"`
	CustomerEmail  string      `json:"customerEmail"`
	CustomerPhone  string      `json:"customerPhone"`
	Status         OrderStatus `json:"status"`
	OrderDate      string      `json:"orderDate"`
	ShippedDate    string      `json:"shippedDate,omitempty"`
	Carrier        string      `json:"carrier,omitempty"`
	TrackingNumber string      `json:"trackingNumber,omitempty"`
	TrackingURL    string      `json:"trackingUrl,omitempty"`
	Items          []OrderItem `json:"items"`
	TotalAmount    float64     `json:"totalAmount"`
	Platform       string      `json:"platform"`
}

// OrderSummary is the slimmer projection carried inside IdentificationContext.
type OrderSummary struct {
	OrderID        string      `json:"orderId"`
	Status         OrderStatus `json:"status"`
	StatusMessage  string      `json:"statusMessage"`
	OrderDate      string      `json:"orderDate"`
	Carrier        string      `json:"carrier,omitempty"`
	TrackingNumber string      `json:"trackingNumber,omitempty"`
	TrackingURL    string      `json:"trackingUrl,omitempty"`
	Items          []OrderItem `json:"items"`
	TotalAmount    float64     `json:"totalAmount"`
}

// ReturnReason enumerates why a customer wants to return an order.
type ReturnReason string

const (
	ReasonDefective       ReturnReason = "defective"
	ReasonDamaged         ReturnReason = "damaged"
	ReasonWrongItem       ReturnReason = "wrong_item"
	ReasonSizeIssue       ReturnReason = "size_issue"
	ReasonImageDifferent  ReturnReason = "image_different"
	ReasonOther           ReturnReason = "other"
)

// ReturnCondition describes the physical state of the item being returned.
type ReturnCondition string

const (
	ConditionUnopened ReturnCondition = "unopened"
	ConditionOpened   ReturnCondition = "opened"
)

// ReturnRequest is what the customer wants done once the return is accepted.
type ReturnRequest string

const (
	RequestRefund   ReturnRequest = "refund"
	RequestExchange ReturnRequest = "exchange"
)

// ReturnInput is the caller-supplied side of a return registration.
type ReturnInput struct {
	OrderID     string
	Reason      ReturnReason
	Condition   ReturnCondition
	Request     ReturnRequest
	Description string
}

// ReturnResult is what RegisterReturn (or the eligibility check that guards
// it) yields.
type ReturnResult struct {
	Success         bool
	ReturnID        string
	Message         string
	RequiresHandoff bool
	BuyerPaysShip   bool
}

// ToolCall tracks one LLM-initiated tool invocation end to end.
type ToolCall struct {
	ToolName    string
	CallID      string
	Arguments   map[string]any
	Result      string
	StartedAt   time.Time
	CompletedAt time.Time
}

// Speaker identifies the origin of a TranscriptEntry.
type Speaker string

const (
	SpeakerCaller    Speaker = "caller"
	SpeakerAssistant Speaker = "assistant"
	SpeakerSystem    Speaker = "system"
	SpeakerTool      Speaker = "tool"
)

// TranscriptEntry is one append-only record in a call's transcript.
type TranscriptEntry struct {
	CallID  string
	Speaker Speaker
	Text    string
	When    time.Time
}
