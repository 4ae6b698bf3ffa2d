// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addr

// Opcodes relevant to the three recognized script shapes. Only the
// opcodes needed for address recovery are named; this is not a script
// interpreter.
const (
	opZero         = 0x00
	opPushData1    = 0x4c
	opDup          = 0x76
	opEqualVerify  = 0x88
	opHash160      = 0xa9
	opCheckSig     = 0xac
	opEndIf        = 0x68
	opCheckMultiSig = 0xae
)

// scriptHashOpcodes holds the terminal opcodes of a "pay from scripthash"
// redeem script, i.e. scripts that the P2SH-redeem shape below can unlock.
// OP_CHECKSIG, OP_CHECKMULTISIG, and OP_ENDIF-guarded variants are the ones
// observed in the wild for the three payee shapes this engine also
// understands.
var scriptHashOpcodes = map[byte]bool{
	opCheckSig:      true,
	opCheckMultiSig: true,
}

// Type identifies the script shape an address was extracted from.
type Type int

const (
	// TypeUnknown means no recognized shape matched.
	TypeUnknown Type = iota
	// TypeP2PKH is pay-to-pubkey-hash.
	TypeP2PKH
	// TypeP2SH is pay-to-script-hash.
	TypeP2SH
	// TypeP2WPKHSH is a pay-to-witness-pubkey-hash wrapped in P2SH.
	TypeP2WPKHSH
)

// Recovered is the result of extracting an address from a script.
type Recovered struct {
	Type    Type
	Payload []byte // pubkey, redeem script, or witness program, depending on Type
}

// ExtractOutputAddress recovers the payee address from a locking
// (output) script. Only P2PKH is recognized on the output side; any other
// shape yields ok=false and the caller should index an empty address.
func ExtractOutputAddress(script []byte, p2pkhVersion byte) (address string, ok bool) {
	hash := ExtractPubKeyHash(script)
	if hash == nil {
		return "", false
	}
	return EncodeBase58Check(p2pkhVersion, hash), true
}

// ExtractPubKeyHash returns the 20-byte hash committed to by a standard
// P2PKH locking script:
//
//	OP_DUP OP_HASH160 <20-byte hash> OP_EQUALVERIFY OP_CHECKSIG
//
// It returns nil if the script does not match.
func ExtractPubKeyHash(script []byte) []byte {
	if len(script) == 25 &&
		script[0] == opDup &&
		script[1] == opHash160 &&
		script[2] == 0x14 &&
		script[23] == opEqualVerify &&
		script[24] == opCheckSig {
		return script[3:23]
	}
	return nil
}

// ExtractInputAddress recovers the payer address from a signature
// (unlocking) script, trying the three recognized shapes in the order
// specified: P2SH-redeem, P2PKH, then P2WPKH-SH. p2shVersion selects which
// network version byte to apply to the recovered hash for the P2SH and
// P2WPKH-SH cases; p2pkhVersion is used for the plain P2PKH case.
func ExtractInputAddress(sigScript []byte, p2pkhVersion, p2shVersion byte) (address string, rec Recovered, ok bool) {
	if payload, ok := extractP2SHRedeem(sigScript); ok {
		return EncodeBase58Check(p2shVersion, Hash160(payload)), Recovered{TypeP2SH, payload}, true
	}
	if pubKey, ok := extractP2PKHSig(sigScript); ok {
		return EncodeBase58Check(p2pkhVersion, Hash160(pubKey)), Recovered{TypeP2PKH, pubKey}, true
	}
	if program, ok := extractP2WPKHSH(sigScript); ok {
		return EncodeBase58Check(p2shVersion, Hash160(program)), Recovered{TypeP2WPKHSH, program}, true
	}
	return "", Recovered{}, false
}

// extractP2SHRedeem parses the final data push of a signature script as a
// redeem script and checks that its terminal opcode (or the opcode
// guarding a terminal OP_ENDIF) belongs to the known pay-from-scripthash
// set. It returns the full redeem script as payload.
func extractP2SHRedeem(sigScript []byte) (redeem []byte, ok bool) {
	last, lastOK := lastPush(sigScript)
	if !lastOK || len(last) == 0 {
		return nil, false
	}
	term := last[len(last)-1]
	if term == opEndIf && len(last) >= 2 {
		term = last[len(last)-2]
	}
	if !scriptHashOpcodes[term] {
		return nil, false
	}
	return last, true
}

// extractP2PKHSig parses a signature script of the form
// <sig> <pubkey> where sig is a canonical 71-74 byte DER push and pubkey
// is a 33 or 65 byte push ending exactly at the script boundary.
func extractP2PKHSig(sigScript []byte) (pubKey []byte, ok bool) {
	if len(sigScript) < 106 {
		return nil, false
	}
	sigLen := int(sigScript[0])
	if sigLen < 71 || sigLen > 74 {
		return nil, false
	}
	pubKeyLenOffset := 1 + sigLen
	if pubKeyLenOffset >= len(sigScript) {
		return nil, false
	}
	pubKeyLen := int(sigScript[pubKeyLenOffset])
	if pubKeyLen != 33 && pubKeyLen != 65 {
		return nil, false
	}
	start := pubKeyLenOffset + 1
	end := start + pubKeyLen
	if end != len(sigScript) {
		return nil, false
	}
	return sigScript[start:end], true
}

// extractP2WPKHSH recognizes a nested-segwit redeemer: a 23-byte push of
// a witness program (version byte + 20-byte hash) as the entire signature
// script.
func extractP2WPKHSH(sigScript []byte) (program []byte, ok bool) {
	if len(sigScript) != 23 {
		return nil, false
	}
	if sigScript[0] != 0x16 {
		return nil, false
	}
	witnessVersion := sigScript[1]
	if witnessVersion != 0x00 && (witnessVersion < 0x51 || witnessVersion > 0x60) {
		return nil, false
	}
	if sigScript[2] != 0x14 {
		return nil, false
	}
	return sigScript[1:23], true
}

// lastPush returns the data pushed by the final push opcode in script,
// supporting direct-length pushes (1-75) and OP_PUSHDATA1.
func lastPush(script []byte) (data []byte, ok bool) {
	i := 0
	for i < len(script) {
		op := script[i]
		switch {
		case op >= 1 && op <= 75:
			start := i + 1
			end := start + int(op)
			if end > len(script) {
				return nil, false
			}
			if end == len(script) {
				return script[start:end], true
			}
			i = end
		case op == opPushData1:
			if i+1 >= len(script) {
				return nil, false
			}
			n := int(script[i+1])
			start := i + 2
			end := start + n
			if end > len(script) {
				return nil, false
			}
			if end == len(script) {
				return script[start:end], true
			}
			i = end
		default:
			i++
		}
	}
	return nil, false
}
