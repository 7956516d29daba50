// Package ico writes Windows icon containers holding PNG frames and reads
// their directories.
package ico

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
)

const (
	headerSize = 6
	entrySize  = 16
	maxSize    = 256
)

// Entry is one ICONDIRENTRY of an icon file.
type Entry struct {
	Width  int
	Height int
	Planes uint16
	BPP    uint16
	Size   uint32
	Offset uint32
}

type iconDir struct {
	Reserved uint16
	Type     uint16
	Count    uint16
}

type iconDirEntry struct {
	Width      uint8
	Height     uint8
	ColorCount uint8
	Reserved   uint8
	Planes     uint16
	BPP        uint16
	Size       uint32
	Offset     uint32
}

// Encode writes frames as a single ICO with PNG payloads, one entry per
// frame in the given order.
func Encode(w io.Writer, frames []image.Image) error {
	if len(frames) == 0 {
		return errors.New("ico: no frames")
	}

	payloads := make([][]byte, 0, len(frames))
	for i, img := range frames {
		b := img.Bounds()
		if b.Dx() < 1 || b.Dy() < 1 || b.Dx() > maxSize || b.Dy() > maxSize {
			return fmt.Errorf("ico: frame %d has unsupported size %dx%d", i, b.Dx(), b.Dy())
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return fmt.Errorf("ico: encode frame %d: %w", i, err)
		}
		payloads = append(payloads, buf.Bytes())
	}

	bw := bufio.NewWriter(w)
	dir := iconDir{Type: 1, Count: uint16(len(frames))}
	if err := binary.Write(bw, binary.LittleEndian, dir); err != nil {
		return err
	}

	offset := uint32(headerSize + len(frames)*entrySize)
	for i, img := range frames {
		b := img.Bounds()
		e := iconDirEntry{
			Width:  dimByte(b.Dx()),
			Height: dimByte(b.Dy()),
			Planes: 1,
			BPP:    32,
			Size:   uint32(len(payloads[i])),
			Offset: offset,
		}
		if err := binary.Write(bw, binary.LittleEndian, e); err != nil {
			return err
		}
		offset += e.Size
	}

	for _, data := range payloads {
		if _, err := bw.Write(data); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// 256 is stored as 0.
func dimByte(n int) uint8 {
	if n >= maxSize {
		return 0
	}
	return uint8(n)
}

func byteDim(b uint8) int {
	if b == 0 {
		return maxSize
	}
	return int(b)
}

// DecodeDirectory parses the icon directory and validates that every entry
// points inside data.
func DecodeDirectory(data []byte) ([]Entry, error) {
	r := bytes.NewReader(data)
	var dir iconDir
	if err := binary.Read(r, binary.LittleEndian, &dir); err != nil {
		return nil, fmt.Errorf("ico: read header: %w", err)
	}
	if dir.Reserved != 0 || dir.Type != 1 {
		return nil, fmt.Errorf("ico: not an icon file (type %d)", dir.Type)
	}

	entries := make([]Entry, 0, dir.Count)
	for i := 0; i < int(dir.Count); i++ {
		var e iconDirEntry
		if err := binary.Read(r, binary.LittleEndian, &e); err != nil {
			return nil, fmt.Errorf("ico: read entry %d: %w", i, err)
		}
		end := uint64(e.Offset) + uint64(e.Size)
		if end > uint64(len(data)) {
			return nil, fmt.Errorf("ico: entry %d overruns file (%d > %d)", i, end, len(data))
		}
		entries = append(entries, Entry{
			Width:  byteDim(e.Width),
			Height: byteDim(e.Height),
			Planes: e.Planes,
			BPP:    e.BPP,
			Size:   e.Size,
			Offset: e.Offset,
		})
	}
	return entries, nil
}
