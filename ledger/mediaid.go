package ledger

import (
	"crypto/hkdf"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

const (
	idSalt   = "lsbmark-media-id-salt-v1"
	idPrefix = "lsbmark-media-id-v1"
	keyLen   = 32
	nonceLen = 8
)

// IDGen issues 24 hex character media IDs, the shape of the identifiers the
// upload service stores: a 4-byte big-endian unix time followed by 8 bytes
// derived with HKDF from a master key, the time, a per-generator nonce and a
// sequence number. The nonce keeps generators in separate processes apart.
type IDGen struct {
	ikm   []byte
	nonce []byte
	seq   atomic.Uint32
}

// NewIDGen derives IDs from masterKey. An empty key is replaced with a
// random one.
func NewIDGen(masterKey []byte) (*IDGen, error) {
	if len(masterKey) == 0 {
		masterKey = make([]byte, keyLen)
		if _, err := rand.Read(masterKey); err != nil {
			return nil, err
		}
	}
	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return &IDGen{ikm: masterKey, nonce: nonce}, nil
}

// Generate returns the next ID for timestamp.
func (g *IDGen) Generate(timestamp time.Time) (string, error) {
	return g.derive(timestamp, g.seq.Add(1))
}

func (g *IDGen) derive(timestamp time.Time, seq uint32) (string, error) {
	sec := uint32(timestamp.Unix())
	info := fmt.Sprintf("%s-%d-%x-%d", idPrefix, sec, g.nonce, seq)
	tail, err := hkdf.Key(sha256.New, g.ikm, []byte(idSalt), info, 8)
	if err != nil {
		return "", err
	}
	id := binary.BigEndian.AppendUint32(make([]byte, 0, 12), sec)
	return hex.EncodeToString(append(id, tail...)), nil
}
