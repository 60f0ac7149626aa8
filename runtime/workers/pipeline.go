package workers

import (
	"concord/contract"
	"concord/domain"
)

// StoreRequest couples one accepted send with the sink of its origin
// session, so a persistence failure can be reported back to the sender
// and to nobody else.
type StoreRequest struct {
	Cmd    domain.PostMessageCommand
	Origin contract.EventSink
}
