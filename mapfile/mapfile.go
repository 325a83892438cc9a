package mapfile

import (
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
)

// MapFile is an opened mapsforge binary map file: its parsed header plus
// the underlying file handle, kept open so a geometry reader can later seek
// into the sub-file regions the header describes.
type MapFile struct {
	Path   string
	Header *Header
	file   gofs.File
}

// Open reads and validates the header of the map file at path. The file is
// kept open; callers must Close it.
func Open(fs gofs.Fs, path string) (*MapFile, errorsx.Error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, ioFailure("opening map file %q: %s", path, err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, ioFailure("stat-ing map file %q: %s", path, err)
	}

	header, headerErr := ReadHeader(file, stat.Size())
	if headerErr != nil {
		file.Close()
		return nil, errorsx.Wrap(headerErr, "path", path)
	}

	return &MapFile{Path: path, Header: header, file: file}, nil
}

// Close releases the underlying file handle.
func (mf *MapFile) Close() error {
	return mf.file.Close()
}

// File returns the underlying open file handle, for a geometry reader to
// seek/read sub-file data from.
func (mf *MapFile) File() gofs.File {
	return mf.file
}
