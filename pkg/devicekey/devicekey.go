// Package devicekey derives opaque device keys.
//
// A key is the hex-encoded BLAKE2b hash of the owner ID and a device serial,
// so the same serial maps to different keys under different owners.
package devicekey

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/hydrosim/hydrosim-go/pkg/registry"
)

// Size is the hash length in bytes. Keys are twice as long in hex.
const Size = 16

// Derive returns the key for serial under owner.
func Derive(owner registry.OwnerID, serial string) registry.DeviceKey {
	// New only fails for invalid sizes or oversized keys.
	h, err := blake2b.New(Size, nil)
	if err != nil {
		panic(err)
	}

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(owner))
	h.Write(buf[:])
	h.Write([]byte(serial))

	return registry.DeviceKey(hex.EncodeToString(h.Sum(nil)))
}

// New returns a key for a fresh random serial, and the serial itself.
func New(owner registry.OwnerID) (registry.DeviceKey, string) {
	serial := uuid.NewString()
	return Derive(owner, serial), serial
}

// Valid reports whether key has the shape of a derived key.
func Valid(key registry.DeviceKey) bool {
	if len(key) != 2*Size {
		return false
	}
	_, err := hex.DecodeString(string(key))
	return err == nil
}
