package protocol

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

const (
	// maxFrameSize bounds a single JSON payload. A full-table game_state is
	// well under 1 KiB; anything near this limit is a hostile or broken peer.
	maxFrameSize = 1 << 20

	// maxLengthDigits bounds the decimal length prefix.
	maxLengthDigits = 10
)

// WriteFrame writes one framed payload: decimal length, ':', payload bytes.
func WriteFrame(w io.Writer, payload []byte) error {
	header := strconv.AppendUint(make([]byte, 0, maxLengthDigits+1), uint64(len(payload)), 10)
	header = append(header, ':')
	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// WriteMessage encodes and frames a message in one step.
func WriteMessage(w io.Writer, m Message) error {
	payload, err := Encode(m)
	if err != nil {
		return err
	}
	return WriteFrame(w, payload)
}

// ReadFrame reads one framed payload: digits up to the colon give the
// length, then exactly that many bytes follow.
func ReadFrame(r *bufio.Reader) ([]byte, error) {
	var digits []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == ':' {
			break
		}
		if b < '0' || b > '9' {
			return nil, fmt.Errorf("read frame: length byte %q is not a digit", b)
		}
		if len(digits) >= maxLengthDigits {
			return nil, fmt.Errorf("read frame: length prefix longer than %d digits", maxLengthDigits)
		}
		digits = append(digits, b)
	}
	if len(digits) == 0 {
		return nil, fmt.Errorf("read frame: empty length prefix")
	}

	size, err := strconv.ParseUint(string(digits), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("read frame: bad length %q: %w", digits, err)
	}
	if size > maxFrameSize {
		return nil, fmt.Errorf("read frame: payload of %d bytes exceeds limit", size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// ReadMessage reads and decodes one message in one step.
func ReadMessage(r *bufio.Reader) (Message, error) {
	payload, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	return Decode(payload)
}
