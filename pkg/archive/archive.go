// Package archive packages named buffers into a reproducible zip archive
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// ErrArchive is returned for path collisions and compression failures
var ErrArchive = errors.New("archive error")

// epoch is the modification time stamped on every entry so identical
// input produces identical bytes. 1980-01-01 is the earliest MS-DOS date.
var epoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Entry is a file to place in the archive. Path is archive-relative and may
// contain folders separated by "/".
type Entry struct {
	Path string
	Data []byte
}

// File creates a binary entry
func File(p string, data []byte) Entry {
	return Entry{Path: p, Data: data}
}

// Text creates a text entry
func Text(p, text string) Entry {
	return Entry{Path: p, Data: []byte(text)}
}

// Assembler writes zip archives. The zero value uses default compression.
type Assembler struct {
	level int
	set   bool
}

// NewAssembler creates an assembler using a flate compression level
// (flate.NoCompression through flate.BestCompression)
func NewAssembler(level int) Assembler {
	return Assembler{level: level, set: true}
}

func (a Assembler) compressionLevel() int {
	if !a.set {
		return flate.DefaultCompression
	}
	return a.level
}

// Assemble writes entries in insertion order. Folders implied by entry
// paths are added once, just before the first entry that needs them.
func (a Assembler) Assemble(entries []Entry) ([]byte, error) {
	names, err := plan(entries)
	if err != nil {
		return nil, err
	}

	level := a.compressionLevel()
	if level < flate.HuffmanOnly || level > flate.BestCompression {
		return nil, fmt.Errorf("%w: compression level %d out of range", ErrArchive, level)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	for _, n := range names {
		if n.dir {
			fh := &zip.FileHeader{Name: n.name, Method: zip.Store, Modified: epoch}
			fh.SetMode(fs.ModeDir | 0755)
			if _, err := zw.CreateHeader(fh); err != nil {
				return nil, fmt.Errorf("%w: folder %s: %v", ErrArchive, n.name, err)
			}
			continue
		}

		fh := &zip.FileHeader{Name: n.name, Method: zip.Deflate, Modified: epoch}
		fh.SetMode(0644)
		w, err := zw.CreateHeader(fh)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrArchive, n.name, err)
		}
		if _, err := w.Write(entries[n.entry].Data); err != nil {
			return nil, fmt.Errorf("%w: failed to compress %s: %v", ErrArchive, n.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: failed to finish archive: %v", ErrArchive, err)
	}
	return buf.Bytes(), nil
}

type plannedName struct {
	name  string
	dir   bool
	entry int
}

// plan validates paths and lays out the final entry list, folders included
func plan(entries []Entry) ([]plannedName, error) {
	files := make(map[string]bool, len(entries))
	dirs := make(map[string]bool)
	var out []plannedName

	for i, e := range entries {
		p, err := cleanPath(e.Path)
		if err != nil {
			return nil, err
		}

		parts := strings.Split(p, "/")
		for j := 1; j < len(parts); j++ {
			dir := strings.Join(parts[:j], "/")
			if files[dir] {
				return nil, fmt.Errorf("%w: %s is a file and a folder", ErrArchive, dir)
			}
			if !dirs[dir] {
				dirs[dir] = true
				out = append(out, plannedName{name: dir + "/", dir: true})
			}
		}

		if files[p] {
			return nil, fmt.Errorf("%w: duplicate path %s", ErrArchive, p)
		}
		if dirs[p] {
			return nil, fmt.Errorf("%w: %s is a file and a folder", ErrArchive, p)
		}
		files[p] = true
		out = append(out, plannedName{name: p, entry: i})
	}
	return out, nil
}

func cleanPath(p string) (string, error) {
	raw := strings.ReplaceAll(p, "\\", "/")
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: empty path", ErrArchive)
	}
	if strings.HasPrefix(raw, "/") {
		return "", fmt.Errorf("%w: absolute path %s", ErrArchive, p)
	}
	if strings.HasSuffix(raw, "/") {
		return "", fmt.Errorf("%w: %s names a folder, not a file", ErrArchive, p)
	}
	cleaned := path.Clean(raw)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: path %s escapes the archive", ErrArchive, p)
	}
	return cleaned, nil
}
