package llm

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"time"
)

const sessionIDLen = 24

// NewSessionID returns a 12-byte hex id: a 4-byte unix timestamp followed by
// 8 random bytes. Every completion of one blendgen session is logged to tellm
// under the same id.
func NewSessionID() string {
	var id [12]byte
	binary.BigEndian.PutUint32(id[:4], uint32(time.Now().Unix()))
	if _, err := rand.Read(id[4:]); err != nil {
		binary.BigEndian.PutUint64(id[4:], uint64(time.Now().UnixNano()))
	}
	return hex.EncodeToString(id[:])
}

// EnsureSessionID keeps a well-formed id and replaces anything else.
func EnsureSessionID(id string) string {
	if len(id) == sessionIDLen {
		if _, err := hex.DecodeString(id); err == nil {
			return id
		}
	}
	return NewSessionID()
}
