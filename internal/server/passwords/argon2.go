package passwords

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

const argonPrefix = "$argon2id$"

type argonParams struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
	saltLen int
}

type argon2Hasher struct {
	p argonParams
}

func newArgon2() *argon2Hasher {
	return &argon2Hasher{p: argonParams{time: 3, memory: 64 * 1024, threads: 1, keyLen: 32, saltLen: 16}}
}

func (a *argon2Hasher) owns(hash string) bool {
	return strings.HasPrefix(hash, argonPrefix)
}

// Hash returns $argon2id$v=19$m=...,t=...,p=...$<salt>$<key>.
func (a *argon2Hasher) Hash(secret string) (string, error) {
	salt := common.GenerateRandByteArray(a.p.saltLen)
	if salt == nil {
		return "", errors.New("passwords: generating salt failed")
	}

	key := argon2.IDKey([]byte(secret), salt, a.p.time, a.p.memory, a.p.threads, a.p.keyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, a.p.memory, a.p.time, a.p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (a *argon2Hasher) Verify(secret, hash string) (bool, error) {
	p, salt, key, err := decodeArgon(hash)
	if err != nil {
		return false, err
	}
	candidate := argon2.IDKey([]byte(secret), salt, p.time, p.memory, p.threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

func decodeArgon(hash string) (p argonParams, salt, key []byte, err error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, ErrUnknownHash
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, fmt.Errorf("passwords: argon2 version: %w", err)
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("passwords: argon2 version %d not supported", version)
	}
	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, nil, nil, fmt.Errorf("passwords: argon2 params: %w", err)
	}
	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return p, nil, nil, fmt.Errorf("passwords: argon2 salt: %w", err)
	}
	if key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return p, nil, nil, fmt.Errorf("passwords: argon2 key: %w", err)
	}
	if len(key) == 0 {
		return p, nil, nil, ErrUnknownHash
	}
	return p, salt, key, nil
}
