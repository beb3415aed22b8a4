package filter

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// All persisted integers are 64-bit little-endian words.
const wordSize = 8

func writeWord(w io.Writer, v uint64) error {
	return binary.Write(w, binary.LittleEndian, v)
}

func readWord(r io.Reader) (uint64, error) {
	var v uint64
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, readErr(err)
	}
	return v, nil
}

// readErr folds short reads into ErrFormat; real I/O faults pass through.
func readErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated stream", ErrFormat)
	}
	return err
}
