package envcache

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/quartzray/pathtrace/envcache/distribution"
	"github.com/quartzray/pathtrace/sceneio"
)

// cacheMagic identifies a persisted ELVC file; cacheVersion is bumped on any
// incompatible layout change, per spec §6's "PersistentCacheVersionMismatch"
// error signal.
const (
	cacheMagic   uint32 = 0x454c5643 // "ELVC"
	cacheVersion uint32 = 1
)

// Save writes cache to filename using the on-disk layout spec §6 mandates:
// fixed magic+version header, tile dimensions, then one (p, n, isVolume,
// serialized Distribution2D) record per entry. If safeSave is set, the
// write goes to "<filename>.tmp" first, is fsync'd, then atomically
// renamed into place.
func Save(cache *Cache, entries []*ELVCEntry, filename string, safeSave bool) error {
	target := filename
	if safeSave {
		target = filename + ".tmp"
	}

	f, err := os.Create(target)
	if err != nil {
		return sceneio.WrapCoreError(sceneio.PersistentCacheCorrupt, "creating cache file", err)
	}

	if err := writeCache(f, cache, entries); err != nil {
		f.Close()
		return err
	}

	if safeSave {
		if err := f.Sync(); err != nil {
			f.Close()
			return sceneio.WrapCoreError(sceneio.PersistentCacheCorrupt, "fsync cache file", err)
		}
	}
	if err := f.Close(); err != nil {
		return sceneio.WrapCoreError(sceneio.PersistentCacheCorrupt, "closing cache file", err)
	}

	if safeSave {
		if err := os.Rename(target, filename); err != nil {
			return sceneio.WrapCoreError(sceneio.PersistentCacheCorrupt, "renaming cache file into place", err)
		}
	}
	return nil
}

func writeCache(w io.Writer, cache *Cache, entries []*ELVCEntry) error {
	header := []uint32{cacheMagic, cacheVersion, uint32(cache.tilesX), uint32(cache.tilesY), uint32(len(entries))}
	for _, h := range header {
		if err := binary.Write(w, binary.LittleEndian, h); err != nil {
			return sceneio.WrapCoreError(sceneio.PersistentCacheCorrupt, "writing header", err)
		}
	}
	for _, e := range entries {
		if err := writeEntry(w, e); err != nil {
			return err
		}
	}
	return nil
}

func writeEntry(w io.Writer, e *ELVCEntry) error {
	fields := []interface{}{
		e.p.X, e.p.Y, e.p.Z,
		e.n.X, e.n.Y, e.n.Z,
		boolToUint32(e.isVolume),
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return sceneio.WrapCoreError(sceneio.PersistentCacheCorrupt, "writing entry", err)
		}
	}
	return writeDistribution2D(w, e.dist)
}

func writeDistribution2D(w io.Writer, d *distribution.Distribution2D) error {
	width, height := uint32(d.Width()), uint32(d.Height())
	if err := binary.Write(w, binary.LittleEndian, width); err != nil {
		return sceneio.WrapCoreError(sceneio.PersistentCacheCorrupt, "writing distribution width", err)
	}
	if err := binary.Write(w, binary.LittleEndian, height); err != nil {
		return sceneio.WrapCoreError(sceneio.PersistentCacheCorrupt, "writing distribution height", err)
	}
	if err := binary.Write(w, binary.LittleEndian, d.Integral()); err != nil {
		return sceneio.WrapCoreError(sceneio.PersistentCacheCorrupt, "writing distribution integral", err)
	}
	// The table itself is re-derivable by the reader from pdf samples at
	// cell centers (width*height floats), which is sufficient to
	// reconstruct an equivalent Distribution2D without exposing row/marginal
	// CDF internals across the package boundary.
	for row := 0; row < int(height); row++ {
		v := (float32(row) + 0.5) / float32(height)
		for col := 0; col < int(width); col++ {
			u := (float32(col) + 0.5) / float32(width)
			if err := binary.Write(w, binary.LittleEndian, d.Pdf(u, v)); err != nil {
				return sceneio.WrapCoreError(sceneio.PersistentCacheCorrupt, "writing distribution cell", err)
			}
		}
	}
	return nil
}

func boolToUint32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// Load reads a cache file written by Save, reconstructing its entries and a
// fresh BVHIndex over them. Returns a PersistentCacheVersionMismatch
// CoreError if the file's version differs from cacheVersion, or
// PersistentCacheCorrupt for any structural read failure.
func Load(filename string, radius float32, luminance *distribution.Distribution2D) (*Cache, []*ELVCEntry, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, sceneio.WrapCoreError(sceneio.PersistentCacheCorrupt, "opening cache file", err)
	}
	defer f.Close()

	var magic, version, tilesX, tilesY, count uint32
	for _, dst := range []*uint32{&magic, &version, &tilesX, &tilesY, &count} {
		if err := binary.Read(f, binary.LittleEndian, dst); err != nil {
			return nil, nil, sceneio.WrapCoreError(sceneio.PersistentCacheCorrupt, "reading header", err)
		}
	}
	if magic != cacheMagic {
		return nil, nil, sceneio.NewCoreError(sceneio.PersistentCacheCorrupt, "bad magic")
	}
	if version != cacheVersion {
		return nil, nil, sceneio.NewCoreError(sceneio.PersistentCacheVersionMismatch, "unsupported cache version")
	}

	entries := make([]*ELVCEntry, count)
	for i := range entries {
		e, err := readEntry(f)
		if err != nil {
			return nil, nil, err
		}
		entries[i] = e
	}

	cache := Freeze(radius, luminance, int(tilesX), int(tilesY), entries)
	return cache, entries, nil
}

func readEntry(r io.Reader) (*ELVCEntry, error) {
	e := &ELVCEntry{}
	floats := []*float32{&e.p.X, &e.p.Y, &e.p.Z, &e.n.X, &e.n.Y, &e.n.Z}
	for _, f := range floats {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return nil, sceneio.WrapCoreError(sceneio.PersistentCacheCorrupt, "reading entry", err)
		}
	}
	var isVolume uint32
	if err := binary.Read(r, binary.LittleEndian, &isVolume); err != nil {
		return nil, sceneio.WrapCoreError(sceneio.PersistentCacheCorrupt, "reading entry volume flag", err)
	}
	e.isVolume = isVolume != 0

	dist, err := readDistribution2D(r)
	if err != nil {
		return nil, err
	}
	e.dist = dist
	return e, nil
}

func readDistribution2D(r io.Reader) (*distribution.Distribution2D, error) {
	var width, height uint32
	if err := binary.Read(r, binary.LittleEndian, &width); err != nil {
		return nil, sceneio.WrapCoreError(sceneio.PersistentCacheCorrupt, "reading distribution width", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &height); err != nil {
		return nil, sceneio.WrapCoreError(sceneio.PersistentCacheCorrupt, "reading distribution height", err)
	}
	var integral float32
	if err := binary.Read(r, binary.LittleEndian, &integral); err != nil {
		return nil, sceneio.WrapCoreError(sceneio.PersistentCacheCorrupt, "reading distribution integral", err)
	}

	cellCount := int(width) * int(height)
	cells := make([]float32, cellCount)
	for i := range cells {
		if err := binary.Read(r, binary.LittleEndian, &cells[i]); err != nil {
			return nil, sceneio.WrapCoreError(sceneio.PersistentCacheCorrupt, "reading distribution cells", err)
		}
	}
	return distribution.NewDistribution2D(cells, int(width), int(height)), nil
}
