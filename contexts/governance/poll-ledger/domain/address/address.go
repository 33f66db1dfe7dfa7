// Package address derives record addresses from identifying keys.
//
// An address is the Keccak-256 hash of a tagged, length-prefixed encoding of
// the key tuple. The encoding is injective over the key space, so distinct
// keys of any record kind never share a pre-image.
package address

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Address locates one record in the store.
type Address = common.Hash

const (
	tagPoll      byte = 0x01
	tagCandidate byte = 0x02
	tagReceipt   byte = 0x03
)

// Poll returns the address of the poll keyed by pollID.
func Poll(pollID uint64) Address {
	return crypto.Keccak256Hash([]byte{tagPoll}, pollIDBytes(pollID))
}

// Candidate returns the address of the candidate keyed by (pollID, name).
func Candidate(pollID uint64, name string) Address {
	return crypto.Keccak256Hash([]byte{tagCandidate}, pollIDBytes(pollID), lengthPrefixed(name))
}

// Receipt returns the address of the vote receipt keyed by (pollID, voter).
func Receipt(pollID uint64, voter string) Address {
	return crypto.Keccak256Hash([]byte{tagReceipt}, pollIDBytes(pollID), lengthPrefixed(voter))
}

func pollIDBytes(pollID uint64) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, pollID)
	return out
}

func lengthPrefixed(value string) []byte {
	out := make([]byte, 4, 4+len(value))
	binary.BigEndian.PutUint32(out, uint32(len(value)))
	return append(out, value...)
}
