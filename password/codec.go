package password

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/SuhanArda/argonite"
)

// ErrInvalidHash is returned when a credential string cannot be parsed: wrong field count,
// unknown algorithm tag or version, malformed parameters, or invalid Base64.
var ErrInvalidHash = errors.New("password: invalid credential string")

const algorithmTag = "argon2id"

type encoded struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	digest  []byte
}

func encodeHash(p Params, salt, digest []byte) string {
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmTag, argonite.Version, p.Memory, p.Iterations, p.Parallelism,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(digest))
}

// parseHash parses a credential string strictly: exactly six $-delimited fields, the exact
// algorithm tag and version, and the m/t/p parameters in that fixed order.
func parseHash(s string) (*encoded, error) {
	parts := strings.Split(s, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, ErrInvalidHash
	}
	if parts[1] != algorithmTag {
		return nil, ErrInvalidHash
	}

	rawVersion, ok := strings.CutPrefix(parts[2], "v=")
	if !ok {
		return nil, ErrInvalidHash
	}
	version, err := strconv.Atoi(rawVersion)
	if err != nil || version != argonite.Version {
		return nil, ErrInvalidHash
	}

	var e encoded
	params := strings.Split(parts[3], ",")
	if len(params) != 3 {
		return nil, ErrInvalidHash
	}
	memory, err := parseParam(params[0], "m=", 32)
	if err != nil {
		return nil, err
	}
	e.memory = uint32(memory)
	time, err := parseParam(params[1], "t=", 32)
	if err != nil {
		return nil, err
	}
	e.time = uint32(time)
	threads, err := parseParam(params[2], "p=", 8)
	if err != nil {
		return nil, err
	}
	e.threads = uint8(threads)

	if e.salt, err = base64.StdEncoding.DecodeString(parts[4]); err != nil {
		return nil, ErrInvalidHash
	}
	if e.digest, err = base64.StdEncoding.DecodeString(parts[5]); err != nil {
		return nil, ErrInvalidHash
	}
	if len(e.digest) == 0 {
		return nil, ErrInvalidHash
	}

	return &e, nil
}

func parseParam(s, prefix string, bitSize int) (uint64, error) {
	raw, ok := strings.CutPrefix(s, prefix)
	if !ok {
		return 0, ErrInvalidHash
	}
	v, err := strconv.ParseUint(raw, 10, bitSize)
	if err != nil {
		return 0, ErrInvalidHash
	}
	return v, nil
}
