package handler

import (
	"context"
	"errors"
	"time"

	"github.com/chronicle-rp/server/internal/charvar"
	"github.com/chronicle-rp/server/internal/netio"
	"github.com/chronicle-rp/server/internal/netio/packet"
	"github.com/chronicle-rp/server/internal/world"
	"go.uber.org/zap"
)

// HandleDeleteChar processes C_OPCODE_CHAR_DELETE. Deleting a character
// someone is currently playing kicks that session back to the menu once the
// delete has gone through.
func HandleDeleteChar(sess *netio.Session, r *packet.Reader, deps *Deps) {
	charID := r.ReadD()

	// Capture the live session before the row goes away; the kick only
	// happens once the delete has passed the ownership check.
	c := deps.World.Character(charID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := deps.Service.Delete(ctx, charID, sess); err != nil {
		switch {
		case errors.Is(err, charvar.ErrNotFound):
			sendLoadFail(sess, chooseReasonNotFound)
		case errors.Is(err, charvar.ErrUnauthorized):
			sendLoadFail(sess, chooseReasonNotYours)
		default:
			deps.Log.Error("delete character",
				zap.Int32("char", charID), zap.Error(err))
			sendLoadFail(sess, createReasonInternal)
		}
		return
	}

	if c != nil && c.HasLiveSession() {
		kickToMenu(c.Session, charID)
	}
	deps.World.InvalidateOwner(sess.AccountID)

	w := packet.NewWriterWithOpcode(packet.S_OPCODE_CHAR_DELETED)
	w.WriteD(charID)
	sess.Send(w.Bytes())

	ids, err := deps.Service.Restore(ctx, sess.AccountID, sess, true, 0)
	if err != nil {
		deps.Log.Error("restore after delete",
			zap.String("owner", sess.AccountID), zap.Error(err))
		return
	}
	sendCharMenu(sess, ids, deps)
}

// kickToMenu detaches a session from its in-world character and drops it back
// to the character menu.
func kickToMenu(conn world.Conn, charID int32) {
	sess, ok := conn.(*netio.Session)
	if !ok || sess.IsClosed() {
		return
	}

	w := packet.NewWriterWithOpcode(packet.S_OPCODE_CHAR_KICK)
	if sess.CharID == charID {
		w.WriteC(1)
	} else {
		w.WriteC(0)
	}
	sess.Send(w.Bytes())

	if sess.CharID == charID {
		sess.CharID = 0
		sess.SetState(packet.StateAuthenticated)
	}
}
