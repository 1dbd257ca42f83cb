package inspect

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/vitrine/internal/gallery"
)

func chunk(name string, data []byte) []byte {
	var b bytes.Buffer
	_ = binary.Write(&b, binary.BigEndian, uint32(len(data)))
	b.WriteString(name)
	b.Write(data)
	crc := crc32.NewIEEE()
	crc.Write([]byte(name))
	crc.Write(data)
	_ = binary.Write(&b, binary.BigEndian, crc.Sum32())
	return b.Bytes()
}

// pngWithText encodes a 3x2 image and splices extra chunks in before IEND.
func pngWithText(t *testing.T, extra ...[]byte) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.Set(1, 1, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	raw := buf.Bytes()
	iend := len(raw) - 12
	out := append([]byte(nil), raw[:iend]...)
	for _, c := range extra {
		out = append(out, c...)
	}
	return append(out, raw[iend:]...)
}

func compress(t *testing.T, s string) []byte {
	t.Helper()
	var b bytes.Buffer
	zw := zlib.NewWriter(&b)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return b.Bytes()
}

func TestSniff(t *testing.T) {
	assert.Equal(t, KindPNG, Sniff(pngSig))
	assert.Equal(t, KindJPEG, Sniff([]byte{0xff, 0xd8, 0xff, 0xe0}))
	assert.Equal(t, KindGIF, Sniff([]byte("GIF89a")))
	assert.Equal(t, KindWebP, Sniff([]byte("RIFF\x00\x00\x00\x00WEBPVP8 ")))
	assert.Equal(t, KindTIFF, Sniff([]byte{'M', 'M', 0, 0x2a}))
	assert.Equal(t, KindUnknown, Sniff([]byte("hello")))
	assert.True(t, KindGIF.Animated())
	assert.False(t, KindPNG.Animated())
}

func TestTextChunks_AllEncodings(t *testing.T) {
	itxt := append([]byte("workflow\x00\x01\x00en\x00\x00"), compress(t, `{"nodes":[1]}`)...)
	data := pngWithText(t,
		chunk("tEXt", []byte("prompt\x00{\"text\":\"a cat\"}")),
		chunk("zTXt", append([]byte("Comment\x00\x00"), compress(t, "caf\xe9")...)),
		chunk("iTXt", itxt),
	)

	text, err := TextChunks(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, `{"text":"a cat"}`, text["prompt"])
	assert.Equal(t, "café", text["Comment"])
	assert.Equal(t, `{"nodes":[1]}`, text["workflow"])

	_, err = TextChunks(strings.NewReader("not a png at all"))
	assert.Error(t, err)
}

func TestInspect_PNG(t *testing.T) {
	data := pngWithText(t,
		chunk("tEXt", []byte("prompt\x00{\"text\":\"a cat\"}")),
		chunk("tEXt", []byte("workflow\x00{\"nodes\":[]}")),
		chunk("tEXt", []byte("Software\x00vitrine")),
	)
	info, err := Inspect(data)
	require.NoError(t, err)
	assert.Equal(t, KindPNG, info.Kind)
	assert.Equal(t, 3, info.Width)
	assert.Equal(t, 2, info.Height)
	assert.Equal(t, `{"text":"a cat"}`, info.Prompt)
	assert.Equal(t, `{"nodes":[]}`, info.Workflow)
	assert.Equal(t, map[string]string{"Software": "vitrine"}, info.Text)

	md := Markdown(gallery.Image{Path: "out/a.png", Filename: "a.png", HasEdit: true}, info)
	assert.Contains(t, md, "# a.png")
	assert.Contains(t, md, "| Dimensions | 3 × 2 |")
	assert.Contains(t, md, "## Prompt")
	assert.Contains(t, md, "```json")
	assert.Contains(t, md, `"text": "a cat"`)
	assert.Contains(t, md, "- **Software**: vitrine")
	assert.Contains(t, md, "| Edits | saved |")
}

func TestInspect_Unrecognised(t *testing.T) {
	_, err := Inspect([]byte("garbage"))
	assert.Error(t, err)
}

func TestLimitLines(t *testing.T) {
	assert.Equal(t, "a\nb\n… 1 more lines", limitLines("a\nb\nc", 2))
	assert.Equal(t, "a", limitLines("a", 2))
}
