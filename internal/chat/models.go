package chat

// Status of a message. Transitions: created SENT, bulk SENT to READ when the
// receiver acknowledges a conversation direction.
type Status string

const (
	StatusSent Status = "SENT"
	// StatusDelivered is reserved for per-message delivery receipts.
	// No transition assigns it today.
	StatusDelivered Status = "DELIVERED"
	StatusRead      Status = "READ"
)

// Message is the unit of communication between two accounts.
//
// SenderID is always the sending connection's bound principal subject id; the
// router overwrites whatever the client claimed. Timestamp is server-assigned
// unix milliseconds, non-decreasing within one process.
type Message struct {
	ID         string `json:"id" db:"id"`
	SenderID   string `json:"senderId" db:"sender_id"`
	ReceiverID string `json:"receiverId" db:"receiver_id"`
	Content    string `json:"content" db:"content"`
	Timestamp  int64  `json:"timestamp" db:"ts"`
	Status     Status `json:"status" db:"status"`
}
