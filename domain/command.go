package domain

// SendMessageCommand is the intent of a sender to deliver a payload
// to a single recipient. Text and Image are both optional but at least
// one must be set.
type SendMessageCommand struct {
	SenderID   string
	ReceiverID string
	Text       string
	Image      string
}

// HasContent reports whether the command carries at least a text body
// or an image reference.
func (c SendMessageCommand) HasContent() bool {
	return c.Text != "" || c.Image != ""
}
