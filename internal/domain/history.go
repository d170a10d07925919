package domain

// HistoryItem is a value copy of an ordered line, detached from the catalog.
type HistoryItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// OrderHistoryEntry is an immutable record of a sent order.
type OrderHistoryEntry struct {
	ID          string        `json:"id"`
	Date        string        `json:"date"`
	VendorName  string        `json:"vendorName"`
	VendorPhone string        `json:"vendorPhone"`
	Items       []HistoryItem `json:"items"`
	Message     string        `json:"message"`
}

// OrderRecord is the server-side summary posted after a send.
type OrderRecord struct {
	ID          string `json:"id,omitempty"`
	VendorID    string `json:"vendorId"`
	ProfileID   string `json:"profileId,omitempty"`
	TotalAmount string `json:"totalAmount"`
	ItemsCount  int    `json:"itemsCount"`
	CreatedAt   string `json:"createdAt,omitempty"`
}
