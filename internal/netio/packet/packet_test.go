package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriterWithOpcode(0x2A)
	w.WriteC(7)
	w.WriteH(0xBEEF)
	w.WriteD(-12345)
	w.WriteF(3.25)
	w.WriteS("hello")
	w.WriteS("") // empty string still gets its terminator

	r := NewReader(w.Bytes())
	assert.Equal(t, byte(0x2A), r.Opcode())
	assert.Equal(t, byte(7), r.ReadC())
	assert.Equal(t, uint16(0xBEEF), r.ReadH())
	assert.Equal(t, int32(-12345), r.ReadD())
	assert.Equal(t, 3.25, r.ReadF())
	assert.Equal(t, "hello", r.ReadS())
	assert.Equal(t, "", r.ReadS())
	assert.Zero(t, r.Remaining())
}

func TestReaderShortReadsReturnZero(t *testing.T) {
	r := NewReader([]byte{0x01, 0xFF})
	assert.Equal(t, byte(0xFF), r.ReadC())
	assert.Equal(t, byte(0), r.ReadC())
	assert.Equal(t, uint16(0), r.ReadH())
	assert.Equal(t, int32(0), r.ReadD())
	assert.Equal(t, float64(0), r.ReadF())
	assert.Equal(t, "", r.ReadS())
}

func TestTaggedRoundTrip(t *testing.T) {
	w := NewWriterWithOpcode(1)
	w.WriteTagged(nil)
	w.WriteTagged("name")
	w.WriteTagged(true)
	w.WriteTagged(2.5)
	w.WriteTagged(int32(7))
	w.WriteTagged(int64(9))
	w.WriteTagged(map[string]any{"mood": "happy"})
	w.WriteTagged([]any{"a", 1.0})

	r := NewReader(w.Bytes())
	read := func() any {
		v, err := r.ReadTagged()
		require.NoError(t, err)
		return v
	}

	assert.Nil(t, read())
	assert.Equal(t, "name", read())
	assert.Equal(t, true, read())
	assert.Equal(t, 2.5, read())
	assert.Equal(t, 7.0, read(), "integers normalize to float64 on the wire")
	assert.Equal(t, 9.0, read())
	assert.Equal(t, map[string]any{"mood": "happy"}, read())
	assert.Equal(t, []any{"a", 1.0}, read())
}

func TestTaggedUnknownTag(t *testing.T) {
	r := NewReader([]byte{0x01, 0x77})
	_, err := r.ReadTagged()
	assert.Error(t, err)
}

func TestRegistryStateGating(t *testing.T) {
	reg := NewRegistry(zap.NewNop())

	var calls int
	reg.Register(12, []SessionState{StateAuthenticated}, func(sess any, r *Reader) {
		calls++
	})

	pkt := []byte{12}
	require.NoError(t, reg.Dispatch(nil, StateAuthenticated, pkt))
	assert.Equal(t, 1, calls)

	err := reg.Dispatch(nil, StateHandshake, pkt)
	assert.Error(t, err, "opcode outside its allowed states is refused")
	assert.Equal(t, 1, calls)

	// Unknown opcodes are ignored, not errors.
	assert.NoError(t, reg.Dispatch(nil, StateHandshake, []byte{250}))

	assert.Error(t, reg.Dispatch(nil, StateHandshake, nil))
}

func TestRegistryRecoversHandlerPanic(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(13, []SessionState{StateHandshake}, func(sess any, r *Reader) {
		panic("boom")
	})

	err := reg.Dispatch(nil, StateHandshake, []byte{13})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
}
