package handler

import (
	"context"
	"time"

	"github.com/chronicle-rp/server/internal/netio"
	"github.com/chronicle-rp/server/internal/netio/packet"
	"go.uber.org/zap"
)

const (
	chooseReasonNotFound = "char_not_found"
	chooseReasonNotYours = "not_your_char"
)

// HandleChooseChar processes C_OPCODE_CHAR_CHOOSE: the session picks one of
// its loaded characters and enters the world with it.
func HandleChooseChar(sess *netio.Session, r *packet.Reader, deps *Deps) {
	charID := r.ReadD()

	c := deps.World.Character(charID)
	if c == nil {
		// Roster may have been evicted; reload just this row.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := deps.Service.Restore(ctx, sess.AccountID, sess, false, charID); err != nil {
			deps.Log.Error("restore chosen character",
				zap.Int32("char", charID), zap.Error(err))
			sendLoadFail(sess, chooseReasonNotFound)
			return
		}
		c = deps.World.Character(charID)
	}
	if c == nil {
		sendLoadFail(sess, chooseReasonNotFound)
		return
	}
	if c.Owner != sess.AccountID {
		sendLoadFail(sess, chooseReasonNotYours)
		return
	}

	c.Session = sess
	sess.CharID = c.ID
	sess.SetState(packet.StateInWorld)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := deps.CharRepo.TouchLastJoin(ctx, c.ID); err != nil {
		deps.Log.Error("touch last join", zap.Int32("char", c.ID), zap.Error(err))
	}

	w := packet.NewWriterWithOpcode(packet.S_OPCODE_CHAR_LOADED)
	w.WriteD(c.ID)
	sess.Send(w.Bytes())

	sendCharInfo(sess, c.ID, c.Owner, c.Snapshot())
}
