package archive

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readZip(t *testing.T, data []byte) (names []string, contents map[string][]byte) {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	contents = make(map[string][]byte)
	for _, f := range zr.File {
		names = append(names, f.Name)
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		contents[f.Name] = b
	}
	return names, contents
}

func TestAssemblePreservesOrder(t *testing.T) {
	entries := []Entry{
		File("song_structure_markers.mid", []byte("MThd-markers")),
		File("drums.mid", []byte("MThd-drums")),
		Text("README.txt", "hello"),
		File("bass.mid", bytes.Repeat([]byte{0x90, 0x24, 0x64}, 100)),
	}

	data, err := Assembler{}.Assemble(entries)
	require.NoError(t, err)

	names, contents := readZip(t, data)
	assert.Equal(t, []string{"song_structure_markers.mid", "drums.mid", "README.txt", "bass.mid"}, names)
	assert.Equal(t, "hello", string(contents["README.txt"]))
	assert.Equal(t, entries[3].Data, contents["bass.mid"])
}

func TestAssembleIsReproducible(t *testing.T) {
	entries := []Entry{
		File("a.mid", []byte{1, 2, 3}),
		File("tracks/b.mid", []byte{4, 5, 6}),
	}

	for _, asm := range []Assembler{{}, NewAssembler(flate.BestCompression), NewAssembler(flate.NoCompression)} {
		first, err := asm.Assemble(entries)
		require.NoError(t, err)
		second, err := asm.Assemble(entries)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(first, second), "archives differ between runs")
	}
}

func TestAssembleImpliedFolders(t *testing.T) {
	entries := []Entry{
		File("markers.mid", []byte("m")),
		File("instruments/drums.mid", []byte("d")),
		File("instruments/bass.mid", []byte("b")),
		File("instruments/extra/keys.mid", []byte("k")),
	}

	data, err := Assembler{}.Assemble(entries)
	require.NoError(t, err)

	names, contents := readZip(t, data)
	assert.Equal(t, []string{
		"markers.mid",
		"instruments/",
		"instruments/drums.mid",
		"instruments/bass.mid",
		"instruments/extra/",
		"instruments/extra/keys.mid",
	}, names)
	assert.Equal(t, "k", string(contents["instruments/extra/keys.mid"]))
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
	}{
		{"duplicate", []Entry{File("a.mid", nil), File("a.mid", nil)}},
		{"duplicate after clean", []Entry{File("x/a.mid", nil), File("x/./a.mid", nil)}},
		{"file then folder", []Entry{File("x", nil), File("x/a.mid", nil)}},
		{"folder then file", []Entry{File("x/a.mid", nil), File("x", nil)}},
		{"empty path", []Entry{File("", nil)}},
		{"absolute", []Entry{File("/etc/a.mid", nil)}},
		{"escape", []Entry{File("../a.mid", nil)}},
		{"folder only", []Entry{File("x/", nil)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Assembler{}.Assemble(tt.entries)
			assert.True(t, errors.Is(err, ErrArchive), "Assemble() error = %v", err)
			assert.Nil(t, data)
		})
	}
}

func TestAssembleBadLevel(t *testing.T) {
	_, err := NewAssembler(42).Assemble([]Entry{File("a", nil)})
	assert.True(t, errors.Is(err, ErrArchive))
}

func TestAssembleEmpty(t *testing.T) {
	data, err := Assembler{}.Assemble(nil)
	require.NoError(t, err)
	names, _ := readZip(t, data)
	assert.Empty(t, names)
}
