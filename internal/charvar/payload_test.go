package charvar

import (
	"testing"

	"github.com/chronicle-rp/server/internal/netio/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadCodecRoundTrip(t *testing.T) {
	p := NewPayload()
	p.Set("name", "Ada Verne")
	p.Set("money", float64(120))
	p.Set("flagged", true)
	p.Set("attrs", map[string]any{"hp": float64(50)})

	w := packet.NewWriterWithOpcode(packet.C_OPCODE_CHAR_CREATE)
	p.EncodeTo(w)

	got, err := DecodePayload(packet.NewReader(w.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, p.Names(), got.Names())
	assert.Equal(t, "Ada Verne", got.Get("name"))
	assert.Equal(t, float64(120), got.Get("money"))
	assert.Equal(t, true, got.Get("flagged"))
	assert.Equal(t, map[string]any{"hp": float64(50)}, got.Get("attrs"))
}

func TestDecodePayloadRejectsOversizedCount(t *testing.T) {
	w := packet.NewWriterWithOpcode(packet.C_OPCODE_CHAR_CREATE)
	w.WriteH(65)

	_, err := DecodePayload(packet.NewReader(w.Bytes()))
	assert.Error(t, err)
}

func TestDecodePayloadRejectsEmptyName(t *testing.T) {
	w := packet.NewWriterWithOpcode(packet.C_OPCODE_CHAR_CREATE)
	w.WriteH(1)
	w.WriteS("")
	w.WriteTagged("x")

	_, err := DecodePayload(packet.NewReader(w.Bytes()))
	assert.Error(t, err)
}

func TestPayloadCloneIsIndependent(t *testing.T) {
	p := NewPayload()
	p.Set("name", "one")

	c := p.Clone()
	c.Set("name", "two")
	c.Set("extra", true)

	assert.Equal(t, "one", p.Get("name"))
	assert.False(t, p.Has("extra"))
	assert.Equal(t, 2, c.Len())
}

func TestPayloadDeletePreservesOrder(t *testing.T) {
	p := NewPayload()
	p.Set("a", 1)
	p.Set("b", 2)
	p.Set("c", 3)
	p.Delete("b")

	assert.Equal(t, []string{"a", "c"}, p.Names())
	assert.False(t, p.Has("b"))
}
