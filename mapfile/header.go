package mapfile

import (
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/paulmach/osm"
)

// magicBytes is the literal ASCII prefix every mapsforge binary map file
// starts with.
var magicBytes = []byte("mapsforge binary OSM")

const (
	// headerSizeMin is the minimum legal value of a sub-file's startAddress:
	// no sub-file may start inside the fixed prelude.
	headerSizeMin = 70

	// baseZoomLevelMax is the highest legal baseZoomLevel for a sub-file.
	baseZoomLevelMax = 20

	// zoomLevelMax is the highest legal zoomLevelMin/zoomLevelMax value.
	zoomLevelMax = 22

	// signatureLengthIndex is the length in bytes of the debug signature
	// mapsforge writes immediately before a sub-file's index, when the file
	// was produced with debug information enabled.
	signatureLengthIndex = 16

	// languagePreferenceLength is the exact byte length OptionalFields
	// requires of the language preference field.
	languagePreferenceLength = 2
)

// optional field bitmask, read in this fixed order.
const (
	flagDebug              = 0x80
	flagStartPosition      = 0x40
	flagStartZoomLevel     = 0x20
	flagLanguagePreference = 0x10
	flagComment            = 0x08
	flagCreatedBy           = 0x04
)

// LatLon is a microdegree-precision geo point, used for the optional start
// position field.
type LatLon struct {
	Lat float64
	Lon float64
}

// MapFileInfo is the decoded, immutable output of the header reader.
type MapFileInfo struct {
	FileVersion        int32
	FileSize           int64
	MapDate            int64
	BoundingBox        osm.Bounds
	TilePixelSize      uint16
	ProjectionName     string
	IsDebugFile        bool
	StartPosition      *LatLon
	StartZoomLevel     *uint8
	LanguagePreference *string
	Comment            *string
	CreatedBy          *string
	PoiTags            []string
	WayTags            []string
	NumberOfSubFiles   int
}

// SubFileParameter describes one zoom-banded region of the map file.
type SubFileParameter struct {
	BaseZoomLevel     uint8
	ZoomLevelMin      uint8
	ZoomLevelMax      uint8
	StartAddress      int64
	IndexStartAddress int64
	SubFileSize       int64
	BoundingBox       osm.Bounds
}

// Header is the parsed file prelude plus the per-zoom-level sub-file lookup
// table built from it.
type Header struct {
	Info         MapFileInfo
	SubFiles     []*SubFileParameter
	zoomLookup   []*SubFileParameter
	globalMinZoom uint8
	globalMaxZoom uint8
}

// GlobalZoomRange returns the zoom levels spanned by any sub-file in the file.
func (h *Header) GlobalZoomRange() (min, max uint8) {
	return h.globalMinZoom, h.globalMaxZoom
}

// GetQueryZoomLevel clamps z into the file's global zoom range before it is
// used to index the lookup table.
func (h *Header) GetQueryZoomLevel(z int) uint8 {
	if z < int(h.globalMinZoom) {
		return h.globalMinZoom
	}
	if z > int(h.globalMaxZoom) {
		return h.globalMaxZoom
	}
	return uint8(z)
}

// GetSubFileParameter returns the sub-file covering zoom level z, after
// clamping z with GetQueryZoomLevel.
func (h *Header) GetSubFileParameter(z int) *SubFileParameter {
	return h.zoomLookup[h.GetQueryZoomLevel(z)]
}

// ReadHeader parses the file prelude from file, whose on-disk size is
// fileSize (the caller typically obtains this from file.Stat()).
func ReadHeader(file gofs.File, fileSize int64) (*Header, errorsx.Error) {
	rb := NewReadBuffer(file)

	if err := rb.ReadFromFile(len(magicBytes)); err != nil {
		return nil, errorsx.Wrap(err)
	}
	if string(rb.buffer) != string(magicBytes) {
		return nil, notAMapFile("magic bytes %q did not match expected %q", rb.buffer, magicBytes)
	}
	bytesRead := int64(len(magicBytes))

	if err := rb.ReadFromFile(4); err != nil {
		return nil, errorsx.Wrap(err)
	}
	headerLength, err := rb.ReadInt()
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	bytesRead += 4
	if headerLength <= 0 {
		return nil, malformed("remaining header length %d must be positive", headerLength)
	}
	if bytesRead+int64(headerLength) > fileSize {
		return nil, malformed("remaining header length %d does not fit in the remaining file (%d bytes left)", headerLength, fileSize-bytesRead)
	}

	if err := rb.ReadFromFile(int(headerLength)); err != nil {
		return nil, errorsx.Wrap(err)
	}

	info := MapFileInfo{}

	fileVersion, err := rb.ReadInt()
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	// versions 3, 4 and 5 are the mapsforge binary formats this reader
	// understands; anything else is rejected rather than guessed at.
	if fileVersion < 3 || fileVersion > 5 {
		return nil, unsupportedVersion("file version %d is not supported", fileVersion)
	}
	info.FileVersion = fileVersion

	declaredFileSize, err := rb.ReadLong()
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	if declaredFileSize != fileSize {
		return nil, malformed("declared file size %d does not match actual file size %d", declaredFileSize, fileSize)
	}
	info.FileSize = declaredFileSize

	mapDate, err := rb.ReadLong()
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	info.MapDate = mapDate

	boundingBox, err := readBoundingBox(rb)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	info.BoundingBox = boundingBox

	tilePixelSize, err := rb.ReadShort()
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	if tilePixelSize == 0 {
		return nil, malformed("tile pixel size must be positive")
	}
	info.TilePixelSize = tilePixelSize

	projectionName, err := rb.ReadUTF8EncodedString()
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	info.ProjectionName = projectionName

	if err := readOptionalFields(rb, &info); err != nil {
		return nil, errorsx.Wrap(err)
	}

	poiTags, err := readTagTable(rb)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	info.PoiTags = poiTags

	wayTags, err := readTagTable(rb)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	info.WayTags = wayTags

	numberOfSubFilesByte, err := rb.ReadByte()
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	if numberOfSubFilesByte < 1 {
		return nil, malformed("number of sub-files must be at least 1, got %d", numberOfSubFilesByte)
	}
	info.NumberOfSubFiles = int(numberOfSubFilesByte)

	subFiles := make([]*SubFileParameter, info.NumberOfSubFiles)
	for i := 0; i < info.NumberOfSubFiles; i++ {
		subFile, err := readSubFileParameter(rb, info.BoundingBox, fileSize, info.IsDebugFile)
		if err != nil {
			return nil, errorsx.Wrap(err)
		}
		subFiles[i] = subFile
	}

	header := &Header{Info: info, SubFiles: subFiles}
	if err := header.buildZoomLookup(); err != nil {
		return nil, errorsx.Wrap(err)
	}

	return header, nil
}

func readBoundingBox(rb *ReadBuffer) (osm.Bounds, errorsx.Error) {
	minLatRaw, err := rb.ReadInt()
	if err != nil {
		return osm.Bounds{}, err
	}
	minLonRaw, err := rb.ReadInt()
	if err != nil {
		return osm.Bounds{}, err
	}
	maxLatRaw, err := rb.ReadInt()
	if err != nil {
		return osm.Bounds{}, err
	}
	maxLonRaw, err := rb.ReadInt()
	if err != nil {
		return osm.Bounds{}, err
	}

	bounds := osm.Bounds{
		MinLat: float64(minLatRaw) / 1e6,
		MinLon: float64(minLonRaw) / 1e6,
		MaxLat: float64(maxLatRaw) / 1e6,
		MaxLon: float64(maxLonRaw) / 1e6,
	}

	if bounds.MinLat > bounds.MaxLat {
		return osm.Bounds{}, malformed("min latitude %f is greater than max latitude %f", bounds.MinLat, bounds.MaxLat)
	}
	if bounds.MinLon > bounds.MaxLon {
		return osm.Bounds{}, malformed("min longitude %f is greater than max longitude %f", bounds.MinLon, bounds.MaxLon)
	}
	if bounds.MinLat < -90 || bounds.MaxLat > 90 {
		return osm.Bounds{}, malformed("latitude out of range [-90,90]: min=%f max=%f", bounds.MinLat, bounds.MaxLat)
	}
	if bounds.MinLon < -180 || bounds.MaxLon > 180 {
		return osm.Bounds{}, malformed("longitude out of range [-180,180]: min=%f max=%f", bounds.MinLon, bounds.MaxLon)
	}

	return bounds, nil
}

func readOptionalFields(rb *ReadBuffer, info *MapFileInfo) errorsx.Error {
	flags, err := rb.ReadByte()
	if err != nil {
		return err
	}

	info.IsDebugFile = flags&flagDebug != 0

	if flags&flagStartPosition != 0 {
		latRaw, err := rb.ReadInt()
		if err != nil {
			return err
		}
		lonRaw, err := rb.ReadInt()
		if err != nil {
			return err
		}
		info.StartPosition = &LatLon{Lat: float64(latRaw) / 1e6, Lon: float64(lonRaw) / 1e6}
	}

	if flags&flagStartZoomLevel != 0 {
		zoom, err := rb.ReadByte()
		if err != nil {
			return err
		}
		if zoom > zoomLevelMax {
			return malformed("start zoom level %d exceeds maximum %d", zoom, zoomLevelMax)
		}
		info.StartZoomLevel = &zoom
	}

	if flags&flagLanguagePreference != 0 {
		lang, err := rb.ReadUTF8EncodedString()
		if err != nil {
			return err
		}
		if len([]rune(lang)) != languagePreferenceLength {
			return malformed("language preference %q must be exactly %d characters", lang, languagePreferenceLength)
		}
		info.LanguagePreference = &lang
	}

	if flags&flagComment != 0 {
		comment, err := rb.ReadUTF8EncodedString()
		if err != nil {
			return err
		}
		info.Comment = &comment
	}

	if flags&flagCreatedBy != 0 {
		createdBy, err := rb.ReadUTF8EncodedString()
		if err != nil {
			return err
		}
		info.CreatedBy = &createdBy
	}

	return nil
}

func readTagTable(rb *ReadBuffer) ([]string, errorsx.Error) {
	count, err := rb.ReadShort()
	if err != nil {
		return nil, err
	}

	tags := make([]string, count)
	for i := range tags {
		tag, err := rb.ReadUTF8EncodedString()
		if err != nil {
			return nil, err
		}
		tags[i] = tag
	}
	return tags, nil
}

func readSubFileParameter(rb *ReadBuffer, fileBoundingBox osm.Bounds, fileSize int64, isDebugFile bool) (*SubFileParameter, errorsx.Error) {
	baseZoomLevel, err := rb.ReadByte()
	if err != nil {
		return nil, err
	}
	if baseZoomLevel > baseZoomLevelMax {
		return nil, malformed("base zoom level %d exceeds maximum %d", baseZoomLevel, baseZoomLevelMax)
	}

	zoomLevelMin, err := rb.ReadByte()
	if err != nil {
		return nil, err
	}
	if zoomLevelMin > zoomLevelMax {
		return nil, malformed("zoom level min %d exceeds maximum %d", zoomLevelMin, zoomLevelMax)
	}

	zoomLevelMaxVal, err := rb.ReadByte()
	if err != nil {
		return nil, err
	}
	if zoomLevelMaxVal > zoomLevelMax {
		return nil, malformed("zoom level max %d exceeds maximum %d", zoomLevelMaxVal, zoomLevelMax)
	}
	if zoomLevelMaxVal < zoomLevelMin {
		return nil, malformed("zoom level max %d is less than zoom level min %d", zoomLevelMaxVal, zoomLevelMin)
	}

	startAddress, err := rb.ReadLong()
	if err != nil {
		return nil, err
	}
	if startAddress < headerSizeMin || startAddress >= fileSize {
		return nil, malformed("sub-file start address %d must be in [%d, %d)", startAddress, headerSizeMin, fileSize)
	}

	subFileSize, err := rb.ReadLong()
	if err != nil {
		return nil, err
	}
	if subFileSize < 1 {
		return nil, malformed("sub-file size %d must be at least 1", subFileSize)
	}

	indexStartAddress := startAddress
	if isDebugFile {
		indexStartAddress += signatureLengthIndex
	}

	return &SubFileParameter{
		BaseZoomLevel:     baseZoomLevel,
		ZoomLevelMin:      zoomLevelMin,
		ZoomLevelMax:      zoomLevelMaxVal,
		StartAddress:      startAddress,
		IndexStartAddress: indexStartAddress,
		SubFileSize:       subFileSize,
		BoundingBox:       fileBoundingBox,
	}, nil
}

func (h *Header) buildZoomLookup() errorsx.Error {
	if len(h.SubFiles) == 0 {
		return malformed("header has no sub-files to build a zoom lookup from")
	}

	globalMin := h.SubFiles[0].ZoomLevelMin
	globalMax := h.SubFiles[0].ZoomLevelMax
	for _, sf := range h.SubFiles[1:] {
		if sf.ZoomLevelMin < globalMin {
			globalMin = sf.ZoomLevelMin
		}
		if sf.ZoomLevelMax > globalMax {
			globalMax = sf.ZoomLevelMax
		}
	}
	h.globalMinZoom = globalMin
	h.globalMaxZoom = globalMax

	lookup := make([]*SubFileParameter, globalMax+1)
	for _, sf := range h.SubFiles {
		for z := sf.ZoomLevelMin; z <= sf.ZoomLevelMax; z++ {
			lookup[z] = sf
		}
	}
	h.zoomLookup = lookup

	return nil
}
