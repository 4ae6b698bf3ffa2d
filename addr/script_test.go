// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addr

import "testing"

func p2pkhScript(hash [20]byte) []byte {
	out := make([]byte, 0, 25)
	out = append(out, opDup, opHash160, 0x14)
	out = append(out, hash[:]...)
	out = append(out, opEqualVerify, opCheckSig)
	return out
}

func TestExtractOutputAddressP2PKH(t *testing.T) {
	var hash [20]byte
	for i := range hash {
		hash[i] = byte(i + 1)
	}
	script := p2pkhScript(hash)

	address, ok := ExtractOutputAddress(script, 0x00)
	if !ok {
		t.Fatal("ExtractOutputAddress failed to recognize a well-formed P2PKH script")
	}
	want := EncodeBase58Check(0x00, hash[:])
	if address != want {
		t.Errorf("address = %s, want %s", address, want)
	}
}

func TestExtractOutputAddressUnrecognized(t *testing.T) {
	if _, ok := ExtractOutputAddress([]byte{opHash160, 0x14}, 0x00); ok {
		t.Fatal("ExtractOutputAddress recognized a malformed script")
	}
}

func TestExtractInputAddressP2PKH(t *testing.T) {
	sig := make([]byte, 72)
	sig[0] = 0x30
	pubKey := make([]byte, 33)
	pubKey[0] = 0x02

	script := []byte{byte(len(sig))}
	script = append(script, sig...)
	script = append(script, byte(len(pubKey)))
	script = append(script, pubKey...)

	address, rec, ok := ExtractInputAddress(script, 0x00, 0x05)
	if !ok {
		t.Fatal("ExtractInputAddress failed to recognize a P2PKH signature script")
	}
	if rec.Type != TypeP2PKH {
		t.Errorf("Type = %v, want TypeP2PKH", rec.Type)
	}
	if address != EncodeBase58Check(0x00, Hash160(pubKey)) {
		t.Errorf("address does not match expected hash160(pubkey) encoding")
	}
}

func TestExtractInputAddressP2SHRedeem(t *testing.T) {
	redeem := []byte{0x52, 0x21, 0x02, 0x03, opCheckMultiSig}
	script := []byte{byte(len(redeem))}
	script = append(script, redeem...)

	address, rec, ok := ExtractInputAddress(script, 0x00, 0x05)
	if !ok {
		t.Fatal("ExtractInputAddress failed to recognize a P2SH redeem script")
	}
	if rec.Type != TypeP2SH {
		t.Errorf("Type = %v, want TypeP2SH", rec.Type)
	}
	if address != EncodeBase58Check(0x05, Hash160(redeem)) {
		t.Errorf("address does not match expected hash160(redeem) encoding")
	}
}

func TestExtractInputAddressP2WPKHSH(t *testing.T) {
	program := make([]byte, 23)
	program[0] = 0x16
	program[1] = 0x00
	program[2] = 0x14

	address, rec, ok := ExtractInputAddress(program, 0x00, 0x05)
	if !ok {
		t.Fatal("ExtractInputAddress failed to recognize a nested-segwit script")
	}
	if rec.Type != TypeP2WPKHSH {
		t.Errorf("Type = %v, want TypeP2WPKHSH", rec.Type)
	}
	if address != EncodeBase58Check(0x05, Hash160(program[1:23])) {
		t.Errorf("address does not match expected hash160(witness program) encoding")
	}
}

func TestExtractInputAddressUnrecognized(t *testing.T) {
	if _, _, ok := ExtractInputAddress([]byte{0x01, 0x02}, 0x00, 0x05); ok {
		t.Fatal("ExtractInputAddress recognized a malformed script")
	}
}
