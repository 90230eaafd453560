package server

// Request types accepted from clients.
const (
	TypeSubscribe     = "subscribe"
	TypeUnsubscribe   = "unsubscribe"
	TypeGetSubscribed = "get_subscribed"
)

// Request is an inbound client message.
type Request struct {
	Type    string   `json:"type"`
	Symbols []string `json:"symbols,omitempty"`
}

// SubscribeAck confirms a subscribe request.
type SubscribeAck struct {
	Type            string   `json:"type"` // "subscribe_success"
	Symbols         []string `json:"symbols"`
	TotalSubscribed int      `json:"total_subscribed"`
}

// UnsubscribeAck confirms an unsubscribe request.
type UnsubscribeAck struct {
	Type            string   `json:"type"` // "unsubscribe_success"
	Symbols         []string `json:"symbols"`
	TotalSubscribed int      `json:"total_subscribed"`
}

// SubscribedList answers a get_subscribed request.
type SubscribedList struct {
	Type    string   `json:"type"` // "subscribed_symbols"
	Symbols []string `json:"symbols"`
}

// ErrorMessage reports a request problem to the offending client only.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}
