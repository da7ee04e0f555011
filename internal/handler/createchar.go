package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chronicle-rp/server/internal/charvar"
	"github.com/chronicle-rp/server/internal/hooks"
	"github.com/chronicle-rp/server/internal/netio"
	"github.com/chronicle-rp/server/internal/netio/packet"
	"go.uber.org/zap"
)

const (
	createReasonMalformed  = "malformed_payload"
	createReasonCooldown   = "creation_cooldown"
	createReasonCharLimit  = "char_limit"
	createReasonInternal   = "internal_error"
)

// HandleCreateChar processes C_OPCODE_CHAR_CREATE. The payload is a field
// count followed by name + tagged value pairs; all authority lives server
// side. A rejection from any stage aborts with zero persistence.
func HandleCreateChar(sess *netio.Session, r *packet.Reader, deps *Deps) {
	payload, err := charvar.DecodePayload(r)
	if err != nil {
		sendCreateFail(sess, createReasonMalformed, nil)
		return
	}

	now := time.Now()
	cooldown := deps.Config.Character.CreationCooldown.Duration
	if cooldown > 0 && now.Sub(sess.LastCharCreate) < cooldown {
		sendCreateFail(sess, createReasonCooldown, []any{cooldown.Seconds()})
		return
	}
	// Stamp at request time so a rejected attempt restarts the interval too.
	sess.LastCharCreate = now

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := checkCreatePolicy(ctx, sess, payload, deps); err != nil {
		code, args := rejectionOf(err)
		if code == createReasonInternal {
			deps.Log.Error("creation policy",
				zap.String("owner", sess.AccountID), zap.Error(err))
		}
		sendCreateFail(sess, code, args)
		return
	}

	validated, adjusted, err := deps.Service.Registry().ValidatePayload(sess, payload)
	if err != nil {
		code, args := rejectionOf(err)
		sendCreateFail(sess, code, args)
		return
	}

	// Owner stamp and the final extension point run before the adjust buffer
	// merges, so var adjusters get the last word over hook injections.
	validated.Set("owner", sess.AccountID)
	deps.Hooks.Notify(hooks.AdjustCreationPayload, sess.AccountID, validated)
	validated.Merge(adjusted)

	c, err := deps.Service.Create(ctx, validated)
	if err != nil {
		deps.Log.Error("create character",
			zap.String("owner", sess.AccountID), zap.Error(err))
		sendCreateFail(sess, createReasonInternal, nil)
		return
	}
	c.Session = sess

	ids, _ := deps.World.CachedIDs(sess.AccountID)

	w := packet.NewWriterWithOpcode(packet.S_OPCODE_CHAR_AUTH_OK)
	w.WriteD(c.ID)
	w.WriteC(byte(len(ids)))
	for _, id := range ids {
		w.WriteD(id)
	}
	sess.Send(w.Bytes())

	sendCharInfo(sess, c.ID, c.Owner, c.Snapshot())
}

// checkCreatePolicy enforces the pre-validation creation policy: the
// per-owner character cap, then any registered veto hook. Policy failures
// come back as *charvar.PolicyError so rejectionOf can lift out the reason.
func checkCreatePolicy(ctx context.Context, sess *netio.Session, payload *charvar.Payload, deps *Deps) error {
	count, err := deps.Service.CountByOwner(ctx, sess.AccountID)
	if err != nil {
		return fmt.Errorf("count characters: %w", err)
	}
	if count >= deps.Config.Character.MaxCharacters {
		return &charvar.PolicyError{
			Code: createReasonCharLimit,
			Args: []any{float64(deps.Config.Character.MaxCharacters)},
		}
	}
	if ok, reason, args := deps.Hooks.Check(hooks.CanCreateCharacter, sess.AccountID, payload); !ok {
		return &charvar.PolicyError{Code: reason, Args: args}
	}
	return nil
}

// rejectionOf maps a validation pipeline error onto a wire reason code.
func rejectionOf(err error) (string, []any) {
	var verr *charvar.ValidationError
	if errors.As(err, &verr) {
		return verr.Code, verr.Args
	}
	var perr *charvar.PolicyError
	if errors.As(err, &perr) {
		return perr.Code, perr.Args
	}
	return createReasonInternal, nil
}

func sendCreateFail(sess *netio.Session, reason string, args []any) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_CHAR_AUTH_FAIL)
	w.WriteS(reason)
	w.WriteC(byte(len(args)))
	for _, a := range args {
		w.WriteTagged(a)
	}
	sess.Send(w.Bytes())
}
