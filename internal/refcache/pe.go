package refcache

import (
	"debug/pe"
	"io"
	"os"

	"buildcap/internal/errors"

	"github.com/cespare/xxhash/v2"
)

// IMAGE_DIRECTORY_ENTRY_COM_DESCRIPTOR
const clrDirectoryIndex = 14

// Reference is a loaded binary dependency. Handles are shared by pointer
// between every project of a session that references the same file.
type Reference struct {
	Path        string
	Size        int64
	Digest      uint64 // xxhash64 of the file contents
	Machine     uint16
	HasMetadata bool // the image carries a CLI header
}

// PELoader reads references as PE images.
type PELoader struct{}

func (PELoader) Load(path string) (*Reference, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, errors.Wrap(err, "failed to hash reference")
	}

	img, err := pe.NewFile(f)
	if err != nil {
		return nil, errors.WithHint(
			errors.Wrap(err, "not a PE image"),
			"metadata references must point at compiled assemblies",
		)
	}
	defer img.Close()

	return &Reference{
		Path:        path,
		Size:        info.Size(),
		Digest:      h.Sum64(),
		Machine:     img.FileHeader.Machine,
		HasMetadata: hasCLIHeader(img),
	}, nil
}

func hasCLIHeader(img *pe.File) bool {
	var dirs []pe.DataDirectory
	var n uint32
	switch oh := img.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		dirs, n = oh.DataDirectory[:], oh.NumberOfRvaAndSizes
	case *pe.OptionalHeader64:
		dirs, n = oh.DataDirectory[:], oh.NumberOfRvaAndSizes
	}
	if n <= clrDirectoryIndex || len(dirs) <= clrDirectoryIndex {
		return false
	}
	return dirs[clrDirectoryIndex].VirtualAddress != 0
}
