package inspect

import "bytes"

// Kind identifies an image container by its magic bytes.
type Kind int

const (
	KindUnknown Kind = iota
	KindJPEG
	KindPNG
	KindGIF
	KindWebP
	KindTIFF
)

func (k Kind) String() string {
	switch k {
	case KindJPEG:
		return "jpeg"
	case KindPNG:
		return "png"
	case KindGIF:
		return "gif"
	case KindWebP:
		return "webp"
	case KindTIFF:
		return "tiff"
	default:
		return "unknown"
	}
}

var (
	pngSig    = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}
	jpegSig   = []byte{0xff, 0xd8, 0xff}
	gifSig    = []byte("GIF8")
	tiffSigLE = []byte{'I', 'I', 0x2a, 0x00}
	tiffSigBE = []byte{'M', 'M', 0x00, 0x2a}
)

// Sniff detects the container of data from its header.
func Sniff(data []byte) Kind {
	switch {
	case bytes.HasPrefix(data, jpegSig):
		return KindJPEG
	case bytes.HasPrefix(data, pngSig):
		return KindPNG
	case bytes.HasPrefix(data, gifSig):
		return KindGIF
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return KindWebP
	case bytes.HasPrefix(data, tiffSigLE), bytes.HasPrefix(data, tiffSigBE):
		return KindTIFF
	}
	return KindUnknown
}

// Animated reports whether the container can carry temporal edits.
func (k Kind) Animated() bool {
	return k == KindGIF || k == KindWebP
}
