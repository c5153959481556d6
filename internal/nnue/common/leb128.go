package common

import (
	"fmt"
	"io"
)

// leb128Magic prefixes every LEB128-compressed tensor in the weight file
// format, the same way it does in the teacher's nnue_common.go.
const leb128Magic = "COMPRESSED_LEB128"

// ReadLEB128 reads len(out) signed integers compressed with the standard
// signed LEB128 varint scheme (see https://en.wikipedia.org/wiki/LEB128).
// Weight files store int16/int32 tensors this way to shrink network size
// on disk; everything else in this package uses plain little-endian.
func ReadLEB128[T int16 | int32](r io.Reader, out []T) error {
	magic := make([]byte, len(leb128Magic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return fmt.Errorf("nnue: leb128 magic: %w", err)
	}
	if string(magic) != leb128Magic {
		return fmt.Errorf("nnue: leb128 magic mismatch: got %q", magic)
	}

	bytesLeft, err := ReadLittleEndian[uint32](r)
	if err != nil {
		return fmt.Errorf("nnue: leb128 byte count: %w", err)
	}

	const bufSize = 4096
	buf := make([]byte, bufSize)
	bufPos := bufSize

	for i := range out {
		var result T
		var shift uint
		bitSize := uint(8 * sizeofT(result))

		for {
			if bufPos == bufSize {
				toRead := bytesLeft
				if toRead > bufSize {
					toRead = bufSize
				}
				if _, err := io.ReadFull(r, buf[:toRead]); err != nil {
					return fmt.Errorf("nnue: leb128 data: %w", err)
				}
				bufPos = 0
			}

			b := buf[bufPos]
			bufPos++
			bytesLeft--

			result |= T(b&0x7f) << shift
			shift += 7

			if b&0x80 == 0 {
				if shift < bitSize && b&0x40 != 0 {
					result |= ^T(0) << shift
				}
				break
			}
			if shift >= bitSize {
				break
			}
		}
		out[i] = result
	}

	if bytesLeft != 0 {
		return fmt.Errorf("nnue: leb128 trailing bytes: %d", bytesLeft)
	}
	return nil
}

// WriteLEB128 writes values with the same signed LEB128 scheme ReadLEB128
// reads back.
func WriteLEB128[T int16 | int32](w io.Writer, values []T) error {
	if _, err := w.Write([]byte(leb128Magic)); err != nil {
		return fmt.Errorf("nnue: leb128 magic write: %w", err)
	}

	var byteCount uint32
	for _, value := range values {
		v := value
		for {
			b := byte(v & 0x7f)
			v >>= 7
			byteCount++
			if (b&0x40 == 0 && v == 0) || (b&0x40 != 0 && v == -1) {
				break
			}
		}
	}
	if err := WriteLittleEndian(w, byteCount); err != nil {
		return fmt.Errorf("nnue: leb128 byte count write: %w", err)
	}

	buf := make([]byte, 0, 4096)
	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
		buf = buf[:0]
		return nil
	}
	for _, value := range values {
		v := value
		for {
			b := byte(v & 0x7f)
			v >>= 7
			done := (b&0x40 == 0 && v == 0) || (b&0x40 != 0 && v == -1)
			if done {
				buf = append(buf, b)
			} else {
				buf = append(buf, b|0x80)
			}
			if len(buf) == cap(buf) {
				if err := flush(); err != nil {
					return err
				}
			}
			if done {
				break
			}
		}
	}
	return flush()
}

func sizeofT[T int16 | int32](v T) int {
	switch any(v).(type) {
	case int16:
		return 2
	default:
		return 4
	}
}
