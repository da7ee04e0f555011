package handler

import (
	"context"
	"strings"
	"time"

	"github.com/chronicle-rp/server/internal/netio"
	"github.com/chronicle-rp/server/internal/netio/packet"
	"go.uber.org/zap"
)

const (
	loginReasonBadCredentials = "bad_credentials"
	loginReasonBanned         = "banned"
	loginReasonInternal       = "internal_error"
)

// HandleLogin processes C_OPCODE_LOGIN: owner identity + password. Success
// moves the session to the character menu and restores the owner's roster.
func HandleLogin(sess *netio.Session, r *packet.Reader, deps *Deps) {
	steamID := strings.ToLower(r.ReadS())
	password := r.ReadS()

	if steamID == "" {
		sendLoginFail(sess, loginReasonBadCredentials)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	player, err := deps.PlayerRepo.Load(ctx, steamID)
	if err != nil {
		deps.Log.Error("load player", zap.Error(err))
		sendLoginFail(sess, loginReasonInternal)
		return
	}

	if player == nil {
		if !deps.Config.Character.AutoCreateAccounts {
			sendLoginFail(sess, loginReasonBadCredentials)
			return
		}
		player, err = deps.PlayerRepo.Create(ctx, steamID, password, steamID, sess.IP)
		if err != nil {
			deps.Log.Error("create player", zap.Error(err))
			sendLoginFail(sess, loginReasonInternal)
			return
		}
		deps.Log.Info("player auto-created", zap.String("owner", steamID))
	} else if !deps.PlayerRepo.ValidatePassword(player.PasswordHash, password) {
		sendLoginFail(sess, loginReasonBadCredentials)
		return
	}

	if player.Banned {
		deps.Log.Info("banned player login attempt", zap.String("owner", steamID))
		sendLoginFail(sess, loginReasonBanned)
		return
	}

	if err := deps.PlayerRepo.TouchSeen(ctx, steamID, sess.IP); err != nil {
		deps.Log.Error("touch player seen", zap.Error(err))
	}

	sess.AccountID = steamID
	sess.SetState(packet.StateAuthenticated)
	deps.World.AddSession(sess)

	w := packet.NewWriterWithOpcode(packet.S_OPCODE_LOGIN_OK)
	w.WriteS(steamID)
	sess.Send(w.Bytes())

	ids, err := deps.Service.Restore(ctx, steamID, sess, false, 0)
	if err != nil {
		deps.Log.Error("restore characters", zap.String("owner", steamID), zap.Error(err))
		sendLoadFail(sess, loginReasonInternal)
		return
	}
	sendCharMenu(sess, ids, deps)
}

func sendLoginFail(sess *netio.Session, reason string) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_LOGIN_FAIL)
	w.WriteS(reason)
	sess.Send(w.Bytes())
}

func sendLoadFail(sess *netio.Session, reason string) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_CHAR_LOAD_FAIL)
	w.WriteS(reason)
	sess.Send(w.Bytes())
}
