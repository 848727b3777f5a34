package p2p

const commandSendHeaders = "sendheaders"

// SendHeadersMessage opts the sender into receiving new block
// announcements as "headers" messages rather than "inv". No payload.
type SendHeadersMessage struct{}

func (SendHeadersMessage) Command() string { return commandSendHeaders }

func (SendHeadersMessage) Serialize() []byte { return nil }

func ParseSendHeadersMessage(b []byte) (SendHeadersMessage, error) {
	return SendHeadersMessage{}, nil
}
