package hashtable

import (
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"rediska/pkg/config"
)

// HashFunc maps a key to a bucket index in [0, size).
type HashFunc func(key string, size int) int

// knuthA is the fractional golden-ratio constant from Knuth's
// multiplicative hashing method.
const knuthA = 0.6180339887

// ForType returns the hash function registered under the given name.
// Unknown names fall back to the division method.
func ForType(t config.HashFunction) HashFunc {
	switch t {
	case config.HashDivision, config.HashGeneric:
		return DivisionHash
	case config.HashMultiplication:
		return MultiplicationHash
	case config.HashMidSquare:
		return MidSquareHash
	case config.HashFolding:
		return FoldingHash
	case config.HashDJB2:
		return DJB2Hash
	}
	return DivisionHash
}

// numericKey reduces a string key to a number by summing its character
// codes. Used by the strategies that operate on numeric keys.
func numericKey(key string) uint64 {
	var sum uint64
	for _, r := range key {
		sum += uint64(r)
	}
	return sum
}

// DivisionHash is the default strategy: a generic 64-bit hash of the key
// folded modulo the table size.
func DivisionHash(key string, size int) int {
	return int(xxhash.Sum64String(key) % uint64(size))
}

// MultiplicationHash implements Knuth's multiplicative method: the bucket
// is the table size scaled by the fractional part of key*A.
func MultiplicationHash(key string, size int) int {
	k := numericKey(key)
	fractional := math.Mod(float64(k)*knuthA, 1)
	return int(float64(size) * fractional)
}

// MidSquareHash squares the numeric key and takes the middle digits,
// sized to match the digit count of the table size.
func MidSquareHash(key string, size int) int {
	k := numericKey(key)
	square := strconv.FormatUint(k*k, 10)

	mid := len(square) / 2
	numDigits := len(strconv.Itoa(size))
	start := mid - numDigits/2
	if start < 0 {
		start = 0
	}
	end := start + numDigits
	if end > len(square) {
		end = len(square)
	}

	middle, err := strconv.Atoi(square[start:end])
	if err != nil {
		return 0
	}
	return middle % size
}

// FoldingHash splits the numeric key's decimal digits into equal parts,
// sums the parts and folds the result modulo the table size.
func FoldingHash(key string, size int) int {
	digits := strconv.FormatUint(numericKey(key), 10)

	partSize := len(digits) / 2
	if partSize < 1 {
		partSize = 1
	}

	var combined int
	for i := 0; i < len(digits); i += partSize {
		end := i + partSize
		if end > len(digits) {
			end = len(digits)
		}
		part, err := strconv.Atoi(digits[i:end])
		if err != nil {
			return 0
		}
		combined += part
	}
	return combined % size
}

// DJB2Hash is the classic string hash h = h*33 + c, folded modulo the
// table size at every step.
func DJB2Hash(key string, size int) int {
	hash := 5381 % size
	for _, r := range key {
		hash = (hash*33 + int(r)) % size
	}
	return hash
}
