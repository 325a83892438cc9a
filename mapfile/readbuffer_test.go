package mapfile

import (
	"testing"

	"github.com/jamesrr39/goutil/gofs/mockfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReadBuffer(t *testing.T, data []byte) *ReadBuffer {
	file, _ := openMockFile(t, data)
	t.Cleanup(func() { file.Close() })
	return NewReadBuffer(file)
}

func TestReadBuffer_UnsignedVLI(t *testing.T) {
	tests := []struct {
		name  string
		bytes []byte
		want  int
	}{
		{"single byte, no continuation", []byte{0x05}, 5},
		{"two bytes", []byte{0xac, 0x02}, 0x2c + (2 << 7)},
		{"zero", []byte{0x00}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := newTestReadBuffer(t, tt.bytes)
			require.Nil(t, rb.ReadFromFile(len(tt.bytes)))
			got, err := rb.ReadUnsignedInt()
			require.Nil(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadBuffer_SignedVLI(t *testing.T) {
	tests := []struct {
		name  string
		bytes []byte
		want  int
	}{
		{"positive single byte", []byte{0x05}, 5},
		{"negative single byte", []byte{0x05 | 0x40}, -5},
		{"zero", []byte{0x00}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := newTestReadBuffer(t, tt.bytes)
			require.Nil(t, rb.ReadFromFile(len(tt.bytes)))
			got, err := rb.ReadSignedInt()
			require.Nil(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadBuffer_UTF8String(t *testing.T) {
	b := &testHeaderBuilder{}
	b.writeUTF8String("hello, map")
	data := b.buf.Bytes()

	rb := newTestReadBuffer(t, data)
	require.Nil(t, rb.ReadFromFile(len(data)))

	got, err := rb.ReadUTF8EncodedString()
	require.Nil(t, err)
	assert.Equal(t, "hello, map", got)
}

func TestReadBuffer_ReadPastBufferFails(t *testing.T) {
	rb := newTestReadBuffer(t, []byte{0x01, 0x02})
	require.Nil(t, rb.ReadFromFile(2))

	_, err := rb.ReadLong()
	require.NotNil(t, err)
}

func TestReadBuffer_StringLengthPastBufferFails(t *testing.T) {
	// a VLI-encoded length whose high bit would make it negative never
	// happens from ReadUnsignedInt (it always returns >= 0), but a length
	// exceeding the remaining buffer must still fail cleanly.
	rb := newTestReadBuffer(t, []byte{0x05, 'h', 'i'})
	require.Nil(t, rb.ReadFromFile(3))

	_, err := rb.ReadUTF8EncodedString()
	require.NotNil(t, err)
}

func mockFsForBytes(t *testing.T, data []byte) {
	fs := mockfs.NewMockFs()
	require.NoError(t, fs.WriteFile("x", data, 0644))
}
