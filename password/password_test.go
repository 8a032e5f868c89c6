package password_test

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/SuhanArda/argonite"
	"github.com/SuhanArda/argonite/password"
)

// quickParams keeps the matrix small so the property tests stay fast; the reference parameters
// are exercised separately in TestDefaultParams.
func quickParams() password.Params {
	return password.Params{
		Memory:      64,
		Iterations:  1,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestHashVerify(t *testing.T) {
	p := quickParams()
	pw := []byte("correct horse battery staple")

	encoded, err := p.Hash(pw)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("round trip", func(t *testing.T) {
		if !password.Verify(pw, encoded) {
			t.Errorf("Verify(%q, %q) = false, want = true", pw, encoded)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		if password.Verify([]byte("Tr0ub4dor&3"), encoded) {
			t.Errorf("Verify with wrong password = true, want = false")
		}
	})

	t.Run("fresh salt per hash", func(t *testing.T) {
		again, err := p.Hash(pw)
		if err != nil {
			t.Fatal(err)
		}
		if again == encoded {
			t.Errorf("two hashes of one password are identical: %q", encoded)
		}
		if !password.Verify(pw, again) {
			t.Errorf("Verify(%q, %q) = false, want = true", pw, again)
		}
	})

	t.Run("empty password", func(t *testing.T) {
		empty, err := p.Hash(nil)
		if err != nil {
			t.Fatal(err)
		}
		if !password.Verify(nil, empty) {
			t.Errorf("Verify(nil, %q) = false, want = true", empty)
		}
		if password.Verify([]byte("x"), empty) {
			t.Errorf("Verify(x, %q) = true, want = false", empty)
		}
	})
}

// TestDefaultParams runs one full derivation at the reference cost and checks the encoded form.
func TestDefaultParams(t *testing.T) {
	if testing.Short() {
		t.Skip("reference parameters fill 64 MiB")
	}

	pw := []byte("correct horse battery staple")
	encoded, err := password.Hash(pw)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$m=65536,t=3,p=1$") {
		t.Errorf("encoded = %q, want prefix $argon2id$v=19$m=65536,t=3,p=1$", encoded)
	}
	if !password.Verify(pw, encoded) {
		t.Errorf("Verify(%q, %q) = false, want = true", pw, encoded)
	}
}

func TestVerifyFailsClosed(t *testing.T) {
	p := quickParams()
	encoded, err := p.Hash([]byte("hunter2"))
	if err != nil {
		t.Fatal(err)
	}
	fields := strings.Split(encoded, "$")

	for _, tc := range []struct {
		name    string
		encoded string
	}{
		{name: "empty", encoded: ""},
		{name: "no delimiters", encoded: "argon2id"},
		{name: "too few fields", encoded: "$argon2id$v=19$m=64,t=1,p=2$" + fields[4]},
		{name: "too many fields", encoded: encoded + "$extra"},
		{name: "leading garbage", encoded: "x" + encoded},
		{name: "unknown tag", encoded: strings.Replace(encoded, "argon2id", "scrypt", 1)},
		{name: "unknown version", encoded: strings.Replace(encoded, "v=19", "v=16", 1)},
		{name: "missing version prefix", encoded: strings.Replace(encoded, "v=19", "19", 1)},
		{name: "non-numeric memory", encoded: strings.Replace(encoded, "m=64", "m=lots", 1)},
		{name: "parameter order", encoded: strings.Replace(encoded, "m=64,t=1,p=2", "t=1,m=64,p=2", 1)},
		{name: "missing parameter", encoded: strings.Replace(encoded, "m=64,t=1,p=2", "m=64,t=1", 1)},
		{name: "bad salt encoding", encoded: "$argon2id$v=19$m=64,t=1,p=2$!!!!$" + fields[5]},
		{name: "bad digest encoding", encoded: strings.TrimSuffix(encoded, fields[5]) + "!!!!"},
		{name: "empty digest", encoded: strings.TrimSuffix(encoded, fields[5])},
		{name: "unsatisfiable parameters", encoded: strings.Replace(encoded, "m=64", "m=1", 1)},
		{name: "zero iterations", encoded: strings.Replace(encoded, "t=1", "t=0", 1)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if password.Verify([]byte("hunter2"), tc.encoded) {
				t.Errorf("Verify(hunter2, %q) = true, want = false", tc.encoded)
			}
		})
	}
}

// TestVerifyBitFlips flips every bit of the stored digest in turn and checks that the original
// password no longer verifies.
func TestVerifyBitFlips(t *testing.T) {
	p := quickParams()
	pw := []byte("hunter2")
	encoded, err := p.Hash(pw)
	if err != nil {
		t.Fatal(err)
	}

	fields := strings.Split(encoded, "$")
	digest, err := base64.StdEncoding.DecodeString(fields[5])
	if err != nil {
		t.Fatal(err)
	}

	for i := range digest {
		for bit := range 8 {
			digest[i] ^= 1 << bit
			fields[5] = base64.StdEncoding.EncodeToString(digest)
			if flipped := strings.Join(fields, "$"); password.Verify(pw, flipped) {
				t.Fatalf("Verify accepted digest with bit %d of byte %d flipped", bit, i)
			}
			digest[i] ^= 1 << bit
		}
	}
}

func TestHashInvalidParams(t *testing.T) {
	for _, tc := range []struct {
		name   string
		params password.Params
	}{
		{name: "zero salt length", params: password.Params{Memory: 64, Iterations: 1, Parallelism: 1, KeyLength: 32}},
		{name: "zero iterations", params: password.Params{Memory: 64, Parallelism: 1, SaltLength: 16, KeyLength: 32}},
		{name: "zero parallelism", params: password.Params{Memory: 64, Iterations: 1, SaltLength: 16, KeyLength: 32}},
		{name: "memory too small", params: password.Params{Memory: 8, Iterations: 1, Parallelism: 4, SaltLength: 16, KeyLength: 32}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.params.Hash([]byte("pw")); !errors.Is(err, argonite.ErrInvalidParams) {
				t.Errorf("Hash = %v, want = %v", err, argonite.ErrInvalidParams)
			}
		})
	}
}

func TestNeedsRehash(t *testing.T) {
	p := quickParams()
	encoded, err := p.Hash([]byte("hunter2"))
	if err != nil {
		t.Fatal(err)
	}

	t.Run("parameters unchanged", func(t *testing.T) {
		got, err := p.NeedsRehash(encoded)
		if err != nil {
			t.Fatal(err)
		}
		if got {
			t.Errorf("NeedsRehash = true, want = false")
		}
	})

	t.Run("costs raised", func(t *testing.T) {
		stronger := p
		stronger.Memory *= 2
		got, err := stronger.NeedsRehash(encoded)
		if err != nil {
			t.Fatal(err)
		}
		if !got {
			t.Errorf("NeedsRehash = false, want = true")
		}
	})

	t.Run("digest length changed", func(t *testing.T) {
		longer := p
		longer.KeyLength = 64
		got, err := longer.NeedsRehash(encoded)
		if err != nil {
			t.Fatal(err)
		}
		if !got {
			t.Errorf("NeedsRehash = false, want = true")
		}
	})

	t.Run("malformed credential", func(t *testing.T) {
		if _, err := p.NeedsRehash("$argon2id$nope"); !errors.Is(err, password.ErrInvalidHash) {
			t.Errorf("NeedsRehash = %v, want = %v", err, password.ErrInvalidHash)
		}
	})
}
