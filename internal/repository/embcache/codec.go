package embcache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
)

// KeyPrefix namespaces cache entries in a shared Redis.
const KeyPrefix = "lawbot:emb_cache:"

// entryVersion is the first byte of every stored entry. Bump it when the
// layout changes; entries with another version read as misses.
const entryVersion byte = 1

// header: version (1 byte) + dimensions (uint16 LE).
const headerSize = 3

var errBadEntry = errors.New("malformed cache entry")

// CacheKey derives the store key for (model, text).
func CacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return KeyPrefix + hex.EncodeToString(sum[:])
}

// encodeEntry packs v as header + little-endian float32s.
func encodeEntry(v []float32) []byte {
	buf := make([]byte, headerSize+len(v)*4)
	buf[0] = entryVersion
	binary.LittleEndian.PutUint16(buf[1:], uint16(len(v)))
	body := buf[headerSize:]
	for i, f := range v {
		binary.LittleEndian.PutUint32(body[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeEntry unpacks an entry written by encodeEntry. wantDims > 0 also
// rejects vectors of another size.
func decodeEntry(data []byte, wantDims int) ([]float32, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes", errBadEntry, len(data))
	}
	if data[0] != entryVersion {
		return nil, fmt.Errorf("%w: version %d", errBadEntry, data[0])
	}
	dims := int(binary.LittleEndian.Uint16(data[1:]))
	body := data[headerSize:]
	if dims == 0 || len(body) != dims*4 {
		return nil, fmt.Errorf("%w: header says %d dims, body has %d bytes", errBadEntry, dims, len(body))
	}
	if wantDims > 0 && dims != wantDims {
		return nil, fmt.Errorf("%w: %d dims, index expects %d", errBadEntry, dims, wantDims)
	}
	vec := make([]float32, dims)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[i*4:]))
	}
	return vec, nil
}
