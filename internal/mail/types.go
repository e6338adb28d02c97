package mail

import "time"

// NoSubject is stored when an inbound message has no Subject header.
const NoSubject = "(No Subject)"

// InboundMessage is one message fetched from the external mailbox,
// reduced to the fields the import pipeline needs.
type InboundMessage struct {
	UID     uint32
	Subject string
	From    string
	To      []string
	Date    time.Time
	Body    string
}
