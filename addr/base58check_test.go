// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addr

import "testing"

func TestBase58CheckRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		version byte
		payload []byte
	}{
		{"p2pkh mainnet", 0x00, Hash160([]byte("a payment destination"))},
		{"p2sh mainnet", 0x05, Hash160([]byte("a different destination"))},
		{"all-zero payload", 0x6f, make([]byte, 20)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			encoded := EncodeBase58Check(test.version, test.payload)

			version, payload, err := DecodeBase58Check(encoded)
			if err != nil {
				t.Fatalf("DecodeBase58Check(%q) failed: %v", encoded, err)
			}
			if version != test.version {
				t.Errorf("version = %#x, want %#x", version, test.version)
			}
			if string(payload) != string(test.payload) {
				t.Errorf("payload = %x, want %x", payload, test.payload)
			}
		})
	}
}

func TestDecodeBase58CheckDetectsCorruption(t *testing.T) {
	encoded := EncodeBase58Check(0x00, Hash160([]byte("corrupt me")))

	// Flip one character in the middle of the string: base58check's
	// checksum exists precisely to catch this.
	mutated := []byte(encoded)
	mid := len(mutated) / 2
	orig := mutated[mid]
	for _, r := range "123456789" {
		if byte(r) != orig {
			mutated[mid] = byte(r)
			break
		}
	}

	if _, _, err := DecodeBase58Check(string(mutated)); err == nil {
		t.Fatal("DecodeBase58Check accepted a corrupted string")
	}
}

func TestDecodeBase58CheckRejectsShortInput(t *testing.T) {
	if _, _, err := DecodeBase58Check(""); err != ErrInvalidFormat {
		t.Fatalf("err = %v, want ErrInvalidFormat", err)
	}
}
