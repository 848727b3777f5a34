package p2p

const commandVerack = "verack"

// VerackMessage acknowledges a version message. It carries no payload.
type VerackMessage struct{}

func (VerackMessage) Command() string { return commandVerack }

func (VerackMessage) Serialize() []byte { return nil }

// ParseVerackMessage accepts any payload (including empty) for verack;
// the command name alone carries the meaning.
func ParseVerackMessage(b []byte) (VerackMessage, error) {
	return VerackMessage{}, nil
}
