// Package fonts loads the TTF used to rasterize captions and way names.
package fonts

import (
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
)

// LoadFont reads and parses a TTF font file from fs at path.
func LoadFont(fs gofs.Fs, path string) (*truetype.Font, errorsx.Error) {
	fontBytes, err := fs.ReadFile(path)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	font, parseErr := freetype.ParseFont(fontBytes)
	if parseErr != nil {
		return nil, errorsx.Wrap(parseErr)
	}

	return font, nil
}
