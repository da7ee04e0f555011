package netio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// frameHeaderLen is the little-endian length prefix on every frame. The
// prefix counts itself, so a frame's payload is at most 65535-frameHeaderLen
// bytes.
const (
	frameHeaderLen = 2
	maxPayloadLen  = 0xFFFF - frameHeaderLen
)

// ReadFrame reads one packet frame from r and returns the payload bytes
// without the length prefix.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [frameHeaderLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}

	totalLen := int(binary.LittleEndian.Uint16(header[:]))
	payloadLen := totalLen - frameHeaderLen
	if payloadLen <= 0 || payloadLen > maxPayloadLen {
		return nil, fmt.Errorf("invalid frame length: %d", totalLen)
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload (%d bytes): %w", payloadLen, err)
	}
	return payload, nil
}

// WriteFrame prefixes data with its framed length and writes it to w.
func WriteFrame(w io.Writer, data []byte) error {
	var header [frameHeaderLen]byte
	binary.LittleEndian.PutUint16(header[:], uint16(len(data)+frameHeaderLen))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}
