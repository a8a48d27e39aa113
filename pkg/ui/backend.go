package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/branchcanvas/pkg/host"
	"github.com/go-go-golems/branchcanvas/pkg/responder"
)

// ReplyForwarder applies replies to the session and wakes the program up so
// it redraws. Use it with responder.HandleReplies.
type ReplyForwarder struct {
	session *host.Session
	program *tea.Program
}

func NewReplyForwarder(session *host.Session) *ReplyForwarder {
	return &ReplyForwarder{session: session}
}

// Attach sets the program to notify. Replies arriving before Attach are
// applied but not announced.
func (f *ReplyForwarder) Attach(p *tea.Program) {
	f.program = p
}

func (f *ReplyForwarder) HandleReply(r *responder.Reply) error {
	if err := f.session.HandleReply(r); err != nil {
		return err
	}
	if f.program == nil {
		log.Debug().Str("node_id", r.NodeID.String()).Msg("reply before the program started")
		return nil
	}
	f.program.Send(ReplyMsg{NodeID: r.NodeID, Failed: r.Failed()})
	return nil
}
