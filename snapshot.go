package arena

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/rs/zerolog"
)

// Codec selects how the word payload of a snapshot is compressed.
type Codec uint8

const (
	// CodecNone stores the words uncompressed.
	CodecNone Codec = 0
	// CodecLZ4 stores the words as one LZ4 block.
	CodecLZ4 Codec = 1
	// CodecZstd stores the words as one zstd frame.
	CodecZstd Codec = 2
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecLZ4:
		return "lz4"
	case CodecZstd:
		return "zstd"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

// ParseCodec maps "none", "lz4" or "zstd" to a Codec.
func ParseCodec(s string) (Codec, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CodecNone, nil
	case "lz4":
		return CodecLZ4, nil
	case "zstd":
		return CodecZstd, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCodec, s)
}

// Snapshot layout, little-endian:
//
//	[0:4]   magic "BTAG"
//	[4]     version
//	[5]     codec
//	[6:8]   reserved
//	[8:12]  pool size in words
//	[12:16] free-list head index (-1 when empty)
//	[16:20] Start/Next cursor index
//	[20:24] payload length in bytes
//	[24:]   payload: the pool words as int32, compressed per codec
//
// Uncompressed, the payload is the pool verbatim: boundary tags hold the
// signed block length (negative when free) and free blocks carry their
// prev/next indices in the two words after the left tag.
const (
	snapshotMagic      = "BTAG"
	snapshotVersion    = 1
	snapshotHeaderSize = 24

	// maxSnapshotWords caps the pool a snapshot may declare (64 MiB).
	maxSnapshotWords = 1 << 24

	// lz4MaxRatio bounds how far one LZ4 block can expand.
	lz4MaxRatio = 255
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("arena: zstd encoder: %w", err)
	}
	return enc, nil
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("arena: zstd decoder: %w", err)
	}
	return dec, nil
}

// WriteSnapshot encodes the pool and allocator state to w. If the codec
// does not shrink the payload it is stored uncompressed.
func (a *Arena) WriteSnapshot(w io.Writer, codec Codec) (int64, error) {
	a.panicIfReleased()

	raw := make([]byte, len(a.words)*WordSize)
	for i, v := range a.words {
		binary.LittleEndian.PutUint32(raw[i*WordSize:], uint32(v))
	}

	payload, used, err := compressWords(raw, codec)
	if err != nil {
		return 0, err
	}

	var hdr [snapshotHeaderSize]byte
	copy(hdr[0:4], snapshotMagic)
	hdr[4] = snapshotVersion
	hdr[5] = byte(used)
	binary.LittleEndian.PutUint32(hdr[8:], uint32(len(a.words)))
	binary.LittleEndian.PutUint32(hdr[12:], uint32(int32(a.freeHead)))
	binary.LittleEndian.PutUint32(hdr[16:], uint32(a.cursor))
	binary.LittleEndian.PutUint32(hdr[20:], uint32(len(payload)))

	n, err := w.Write(hdr[:])
	written := int64(n)
	if err != nil {
		return written, err
	}
	n, err = w.Write(payload)
	written += int64(n)
	if err != nil {
		return written, err
	}
	a.log.Debug().Int("words", len(a.words)).Str("codec", used.String()).Int64("bytes", written).Msg("snapshot written")
	return written, nil
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot into a new
// heap-backed Arena. The decoded layout must pass Check.
func ReadSnapshot(r io.Reader, opts ...Option) (*Arena, error) {
	var hdr [snapshotHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrBadSnapshot, err)
	}
	if string(hdr[0:4]) != snapshotMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrBadSnapshot, hdr[0:4])
	}
	if hdr[4] != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, hdr[4])
	}
	codec := Codec(hdr[5])
	words := int(binary.LittleEndian.Uint32(hdr[8:]))
	freeHead := int(int32(binary.LittleEndian.Uint32(hdr[12:])))
	cursor := int(binary.LittleEndian.Uint32(hdr[16:]))
	payloadLen := int(binary.LittleEndian.Uint32(hdr[20:]))

	rawLen := words * WordSize
	switch {
	case words < MinBlockWords || words > maxSnapshotWords:
		return nil, fmt.Errorf("%w: pool of %d words", ErrBadSnapshot, words)
	case freeHead < nilIndex || freeHead >= words:
		return nil, fmt.Errorf("%w: free-list head %d", ErrBadSnapshot, freeHead)
	case cursor > words:
		return nil, fmt.Errorf("%w: cursor %d", ErrBadSnapshot, cursor)
	}
	// WriteSnapshot only keeps a compressed payload that is smaller than
	// the raw words.
	switch codec {
	case CodecNone:
		if payloadLen != rawLen {
			return nil, fmt.Errorf("%w: %d payload bytes, want %d", ErrBadSnapshot, payloadLen, rawLen)
		}
	case CodecLZ4, CodecZstd:
		if payloadLen >= rawLen {
			return nil, fmt.Errorf("%w: %s payload of %d bytes for %d words", ErrBadSnapshot, codec, payloadLen, words)
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(codec))
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: payload: %w", ErrBadSnapshot, err)
	}
	raw, err := decompressWords(payload, codec, rawLen)
	if err != nil {
		return nil, err
	}

	pool := make([]int32, words)
	for i := range pool {
		pool[i] = int32(binary.LittleEndian.Uint32(raw[i*WordSize:]))
	}

	a := &Arena{words: pool, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	a.freeHead = freeHead
	a.cursor = cursor
	if err := a.Check(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}
	if !a.blockStartsAt(cursor) {
		return nil, fmt.Errorf("%w: cursor %d is not on a block boundary", ErrBadSnapshot, cursor)
	}
	return a, nil
}

func compressWords(raw []byte, codec Codec) ([]byte, Codec, error) {
	switch codec {
	case CodecNone:
		return raw, CodecNone, nil
	case CodecLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, 0, err
		}
		if n == 0 || n >= len(raw) {
			return raw, CodecNone, nil
		}
		return buf[:n], CodecLZ4, nil
	case CodecZstd:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, 0, err
		}
		defer zstdEncoderPool.Put(enc)
		out := enc.EncodeAll(raw, nil)
		if len(out) >= len(raw) {
			return raw, CodecNone, nil
		}
		return out, CodecZstd, nil
	}
	return nil, 0, fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(codec))
}

func decompressWords(payload []byte, codec Codec, rawLen int) ([]byte, error) {
	switch codec {
	case CodecNone:
		if len(payload) != rawLen {
			return nil, fmt.Errorf("%w: %d payload bytes, want %d", ErrBadSnapshot, len(payload), rawLen)
		}
		return payload, nil
	case CodecLZ4:
		if rawLen > len(payload)*lz4MaxRatio {
			return nil, fmt.Errorf("%w: %d lz4 bytes cannot hold %d", ErrBadSnapshot, len(payload), rawLen)
		}
		raw := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(payload, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %w", ErrBadSnapshot, err)
		}
		if n != rawLen {
			return nil, fmt.Errorf("%w: lz4 decoded %d bytes, want %d", ErrBadSnapshot, n, rawLen)
		}
		return raw, nil
	case CodecZstd:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		defer zstdDecoderPool.Put(dec)
		if err := dec.Reset(bytes.NewReader(payload)); err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrBadSnapshot, err)
		}
		// The output buffer grows with the decoded data, never past rawLen+1.
		raw, err := io.ReadAll(io.LimitReader(dec, int64(rawLen)+1))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrBadSnapshot, err)
		}
		if len(raw) != rawLen {
			return nil, fmt.Errorf("%w: zstd decoded %d bytes, want %d", ErrBadSnapshot, len(raw), rawLen)
		}
		return raw, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(codec))
}
