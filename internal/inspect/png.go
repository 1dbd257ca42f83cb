package inspect

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// maxTextChunk bounds a single decompressed text chunk.
const maxTextChunk = 8 << 20

// TextChunks returns the tEXt, zTXt and iTXt entries of a PNG stream keyed
// by keyword. Later chunks with the same keyword win.
func TextChunks(r io.Reader) (map[string]string, error) {
	br := bufio.NewReader(r)
	sig := make([]byte, len(pngSig))
	if _, err := io.ReadFull(br, sig); err != nil {
		return nil, err
	}
	if !bytes.Equal(sig, pngSig) {
		return nil, errors.New("invalid PNG signature")
	}

	out := map[string]string{}
	head := make([]byte, 8)
	for {
		if _, err := io.ReadFull(br, head); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, err
		}
		length := binary.BigEndian.Uint32(head[:4])
		name := string(head[4:8])

		switch name {
		case "tEXt", "zTXt", "iTXt":
			if length > maxTextChunk {
				return out, fmt.Errorf("%s chunk too large: %d bytes", name, length)
			}
			data := make([]byte, length)
			if _, err := io.ReadFull(br, data); err != nil {
				return out, err
			}
			if _, err := br.Discard(4); err != nil {
				return out, err
			}
			key, val, err := parseText(name, data)
			if err != nil {
				continue
			}
			if key != "" {
				out[key] = val
			}
		default:
			if _, err := io.CopyN(io.Discard, br, int64(length)+4); err != nil {
				return out, err
			}
		}
		if name == "IEND" {
			return out, nil
		}
	}
}

func parseText(chunk string, data []byte) (string, string, error) {
	key, rest, ok := bytes.Cut(data, []byte{0})
	if !ok || len(key) == 0 {
		return "", "", errors.New("missing keyword")
	}
	switch chunk {
	case "tEXt":
		return string(key), latin1(rest), nil
	case "zTXt":
		if len(rest) < 1 {
			return "", "", errors.New("short zTXt")
		}
		text, err := inflate(rest[1:])
		return string(key), latin1(text), err
	default:
		// iTXt: compression flag, method, language\0, translated keyword\0, text.
		if len(rest) < 2 {
			return "", "", errors.New("short iTXt")
		}
		compressed := rest[0] == 1
		rest = rest[2:]
		if _, after, ok := bytes.Cut(rest, []byte{0}); ok {
			rest = after
		}
		if _, after, ok := bytes.Cut(rest, []byte{0}); ok {
			rest = after
		}
		if !compressed {
			return string(key), string(rest), nil
		}
		text, err := inflate(rest)
		return string(key), string(text), err
	}
}

func inflate(b []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer func() { _ = zr.Close() }()
	return io.ReadAll(io.LimitReader(zr, maxTextChunk))
}

func latin1(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}
