package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTime        uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16

	// Upper bounds keep a corrupt stored hash from exhausting memory or CPU.
	maxMemoryKB    uint32 = 1024 * 1024
	maxTime        uint32 = 16
	maxParallelism uint8  = 16
	maxSaltLength  uint32 = 64
	maxKeyLength   uint32 = 64

	phcAlgorithm = "argon2id"
)

// PasswordParams are the argon2id cost parameters.
type PasswordParams struct {
	MemoryKB    uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultPasswordParams follows the argon2 RFC's second recommended option.
func DefaultPasswordParams() PasswordParams {
	return PasswordParams{MemoryKB: 64 * 1024, Time: 1, Parallelism: 4, SaltLength: 16, KeyLength: 32}
}

// Hasher hashes and verifies passwords with argon2id, encoding results as
// PHC strings: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>.
type Hasher struct {
	params PasswordParams
}

func NewHasher(p PasswordParams) (*Hasher, error) {
	switch {
	case p.MemoryKB < minMemoryKB:
		return nil, fmt.Errorf("password memory must be >= %d KB", minMemoryKB)
	case p.Time < minTime:
		return nil, errors.New("password time must be >= 1")
	case p.Parallelism < minParallelism:
		return nil, errors.New("password parallelism must be >= 1")
	case p.SaltLength < minSaltLength:
		return nil, fmt.Errorf("password salt length must be >= %d", minSaltLength)
	case p.KeyLength < minKeyLength:
		return nil, fmt.Errorf("password key length must be >= %d", minKeyLength)
	case p.MemoryKB > maxMemoryKB:
		return nil, fmt.Errorf("password memory must be <= %d KB", maxMemoryKB)
	case p.Time > maxTime:
		return nil, fmt.Errorf("password time must be <= %d", maxTime)
	case p.Parallelism > maxParallelism:
		return nil, fmt.Errorf("password parallelism must be <= %d", maxParallelism)
	case p.SaltLength > maxSaltLength:
		return nil, fmt.Errorf("password salt length must be <= %d", maxSaltLength)
	case p.KeyLength > maxKeyLength:
		return nil, fmt.Errorf("password key length must be <= %d", maxKeyLength)
	}
	return &Hasher{params: p}, nil
}

// Hash returns a freshly salted PHC string for password.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.MemoryKB, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		phcAlgorithm,
		argon2.Version,
		h.params.MemoryKB, h.params.Time, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether plain matches encoded. Malformed or unsupported
// hashes simply do not match.
func (h *Hasher) Verify(plain, encoded string) bool {
	p, err := parsePHC(encoded)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(plain), p.salt, p.time, p.memoryKB, p.parallelism, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(computed, p.key) == 1
}

type phc struct {
	memoryKB    uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

var errMalformedHash = errors.New("malformed password hash")

func parsePHC(encoded string) (*phc, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != phcAlgorithm {
		return nil, errMalformedHash
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return nil, errMalformedHash
	}

	var out phc
	seen := 0
	for _, kv := range strings.Split(parts[3], ",") {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, errMalformedHash
		}
		switch name {
		case "m":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil || uint32(v) < minMemoryKB || uint32(v) > maxMemoryKB {
				return nil, errMalformedHash
			}
			out.memoryKB = uint32(v)
		case "t":
			v, err := strconv.ParseUint(value, 10, 32)
			if err != nil || uint32(v) < minTime || uint32(v) > maxTime {
				return nil, errMalformedHash
			}
			out.time = uint32(v)
		case "p":
			v, err := strconv.ParseUint(value, 10, 8)
			if err != nil || uint8(v) < minParallelism || uint8(v) > maxParallelism {
				return nil, errMalformedHash
			}
			out.parallelism = uint8(v)
		default:
			return nil, errMalformedHash
		}
		seen++
	}
	if seen != 3 || out.memoryKB == 0 || out.time == 0 || out.parallelism == 0 {
		return nil, errMalformedHash
	}

	if len(parts[4]) > base64.RawStdEncoding.EncodedLen(int(maxSaltLength)) || len(parts[5]) > base64.RawStdEncoding.EncodedLen(int(maxKeyLength)) {
		return nil, errMalformedHash
	}
	var err error
	if out.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(out.salt) < int(minSaltLength) || len(out.salt) > int(maxSaltLength) {
		return nil, errMalformedHash
	}
	if out.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(out.key) < int(minKeyLength) || len(out.key) > int(maxKeyLength) {
		return nil, errMalformedHash
	}

	return &out, nil
}
