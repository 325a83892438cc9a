package mapfile

import (
	"encoding/binary"
	"io"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
)

// ReadBuffer is a positioned view over a chunk of a map file, matching the
// read-block-then-parse pattern mapsforge uses: callers pull a block of
// bytes from the underlying file with ReadFromFile, then decode fixed-width
// and variable-length fields out of that block without touching the file
// again until the next ReadFromFile call.
type ReadBuffer struct {
	file     gofs.File
	buffer   []byte
	position int
}

// NewReadBuffer wraps file. file is not read until ReadFromFile is called.
func NewReadBuffer(file gofs.File) *ReadBuffer {
	return &ReadBuffer{file: file}
}

// ReadFromFile reads length bytes from the file at its current offset into
// the buffer and resets the read position to its start.
func (rb *ReadBuffer) ReadFromFile(length int) errorsx.Error {
	if length < 0 {
		return invalidArgument("negative read length %d", length)
	}

	buffer := make([]byte, length)
	_, err := io.ReadFull(rb.file, buffer)
	if err != nil {
		return ioFailure("reading %d bytes from map file: %s", length, err)
	}

	rb.buffer = buffer
	rb.position = 0
	return nil
}

// Remaining returns how many unread bytes are left in the current buffer.
func (rb *ReadBuffer) Remaining() int {
	return len(rb.buffer) - rb.position
}

func (rb *ReadBuffer) require(n int) errorsx.Error {
	if n < 0 || rb.position+n > len(rb.buffer) {
		return malformed("read of %d bytes at position %d would cross the buffered window of %d bytes", n, rb.position, len(rb.buffer))
	}
	return nil
}

// Skip advances the read position by n bytes without interpreting them.
func (rb *ReadBuffer) Skip(n int) errorsx.Error {
	if err := rb.require(n); err != nil {
		return err
	}
	rb.position += n
	return nil
}

// ReadByte reads a single unsigned byte.
func (rb *ReadBuffer) ReadByte() (byte, errorsx.Error) {
	if err := rb.require(1); err != nil {
		return 0, err
	}
	b := rb.buffer[rb.position]
	rb.position++
	return b, nil
}

// ReadShort reads a big-endian 16-bit unsigned integer.
func (rb *ReadBuffer) ReadShort() (uint16, errorsx.Error) {
	if err := rb.require(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(rb.buffer[rb.position:])
	rb.position += 2
	return v, nil
}

// ReadInt reads a big-endian 32-bit signed integer.
func (rb *ReadBuffer) ReadInt() (int32, errorsx.Error) {
	if err := rb.require(4); err != nil {
		return 0, err
	}
	v := int32(binary.BigEndian.Uint32(rb.buffer[rb.position:]))
	rb.position += 4
	return v, nil
}

// ReadLong reads a big-endian 64-bit signed integer.
func (rb *ReadBuffer) ReadLong() (int64, errorsx.Error) {
	if err := rb.require(8); err != nil {
		return 0, err
	}
	v := int64(binary.BigEndian.Uint64(rb.buffer[rb.position:]))
	rb.position += 8
	return v, nil
}

// ReadUnsignedInt decodes a variable-length unsigned integer: 7 bits of
// payload per byte, continuation bit in the MSB, least-significant group
// first.
func (rb *ReadBuffer) ReadUnsignedInt() (int, errorsx.Error) {
	variableByteDecode := 0
	shift := 0
	for {
		b, err := rb.ReadByte()
		if err != nil {
			return 0, err
		}

		variableByteDecode |= int(b&0x7f) << shift

		if b&0x80 == 0 {
			return variableByteDecode, nil
		}

		shift += 7
		if shift >= 35 {
			return 0, malformed("variable-length unsigned int longer than 5 bytes")
		}
	}
}

// ReadSignedInt decodes a variable-length signed integer. Identical to
// ReadUnsignedInt except that bit 6 (0x40) of the terminating (non-
// continuation) byte carries the sign.
func (rb *ReadBuffer) ReadSignedInt() (int, errorsx.Error) {
	variableByteDecode := 0
	shift := 0
	for {
		b, err := rb.ReadByte()
		if err != nil {
			return 0, err
		}

		if b&0x80 == 0 {
			// terminating byte: bits 0-5 are payload, bit 6 is the sign
			variableByteDecode |= int(b&0x3f) << shift
			if b&0x40 != 0 {
				return -variableByteDecode, nil
			}
			return variableByteDecode, nil
		}

		variableByteDecode |= int(b&0x7f) << shift
		shift += 7
		if shift >= 35 {
			return 0, malformed("variable-length signed int longer than 5 bytes")
		}
	}
}

// ReadUTF8EncodedString reads a variable-length-prefixed UTF-8 string.
func (rb *ReadBuffer) ReadUTF8EncodedString() (string, errorsx.Error) {
	length, err := rb.ReadUnsignedInt()
	if err != nil {
		return "", err
	}
	if length < 0 {
		return "", malformed("negative UTF-8 string length %d", length)
	}

	if err := rb.require(length); err != nil {
		return "", err
	}
	s := string(rb.buffer[rb.position : rb.position+length])
	rb.position += length
	return s, nil
}

// ReadTag reads a variable-length integer identifying a row in a tag table
// (the POI or way tag table read by the header).
func (rb *ReadBuffer) ReadTag() (int, errorsx.Error) {
	return rb.ReadUnsignedInt()
}
