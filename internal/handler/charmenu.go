package handler

import (
	"sort"

	"github.com/chronicle-rp/server/internal/netio"
	"github.com/chronicle-rp/server/internal/netio/packet"
)

// sendCharMenu sends the owner's roster IDs followed by one info packet per
// loaded character. Info packets carry the displayable snapshot only; local
// and hidden vars never appear here.
func sendCharMenu(sess *netio.Session, ids []int32, deps *Deps) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_CHAR_MENU)
	w.WriteC(byte(len(ids)))
	for _, id := range ids {
		w.WriteD(id)
	}
	sess.Send(w.Bytes())

	for _, id := range ids {
		c := deps.World.Character(id)
		if c == nil {
			continue
		}
		sendCharInfo(sess, c.ID, c.Owner, c.Snapshot())
	}
}

func sendCharInfo(sess *netio.Session, id int32, owner string, snapshot map[string]any) {
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)

	w := packet.NewWriterWithOpcode(packet.S_OPCODE_CHAR_INFO)
	w.WriteD(id)
	w.WriteS(owner)
	w.WriteC(byte(len(names)))
	for _, name := range names {
		w.WriteS(name)
		w.WriteTagged(snapshot[name])
	}
	sess.Send(w.Bytes())
}
