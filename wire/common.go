// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/EXCCoin/exccspv/chainhash"
)

// binaryFreeList is reused by every message to avoid allocating a
// scratch buffer per field.
type binaryFreeList chan []byte

var bufFreeList binaryFreeList = make(chan []byte, 8)

func (l binaryFreeList) Borrow() []byte {
	select {
	case b := <-l:
		return b
	default:
	}
	return make([]byte, 8)
}

func (l binaryFreeList) Return(b []byte) {
	select {
	case l <- b:
	default:
	}
}

func (l binaryFreeList) Uint8(r io.Reader) (uint8, error) {
	b := l.Borrow()[:1]
	defer l.Return(b)
	if _, err := io.ReadFull(r, b); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (l binaryFreeList) Uint16(r io.Reader) (uint16, error) {
	b := l.Borrow()[:2]
	defer l.Return(b)
	if _, err := io.ReadFull(r, b); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (l binaryFreeList) Uint32(r io.Reader) (uint32, error) {
	b := l.Borrow()[:4]
	defer l.Return(b)
	if _, err := io.ReadFull(r, b); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (l binaryFreeList) Uint64(r io.Reader) (uint64, error) {
	b := l.Borrow()[:8]
	defer l.Return(b)
	if _, err := io.ReadFull(r, b); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (l binaryFreeList) PutUint8(w io.Writer, val uint8) error {
	b := l.Borrow()[:1]
	defer l.Return(b)
	b[0] = val
	_, err := w.Write(b)
	return err
}

func (l binaryFreeList) PutUint16(w io.Writer, val uint16) error {
	b := l.Borrow()[:2]
	defer l.Return(b)
	binary.LittleEndian.PutUint16(b, val)
	_, err := w.Write(b)
	return err
}

func (l binaryFreeList) PutUint32(w io.Writer, val uint32) error {
	b := l.Borrow()[:4]
	defer l.Return(b)
	binary.LittleEndian.PutUint32(b, val)
	_, err := w.Write(b)
	return err
}

func (l binaryFreeList) PutUint64(w io.Writer, val uint64) error {
	b := l.Borrow()[:8]
	defer l.Return(b)
	binary.LittleEndian.PutUint64(b, val)
	_, err := w.Write(b)
	return err
}

// readVarInt reads a variable-length integer using the standard
// 0xFD/0xFE/0xFF discriminant encoding and returns it as a uint64.
func readVarInt(r io.Reader) (uint64, error) {
	discriminant, err := bufFreeList.Uint8(r)
	if err != nil {
		return 0, err
	}
	switch discriminant {
	case 0xff:
		v, err := bufFreeList.Uint64(r)
		if err != nil {
			return 0, err
		}
		if v < 0x100000000 {
			return 0, fmt.Errorf("readVarInt: non-canonical varint 0xff for value %d", v)
		}
		return v, nil
	case 0xfe:
		v, err := bufFreeList.Uint32(r)
		if err != nil {
			return 0, err
		}
		if uint64(v) < 0x10000 {
			return 0, fmt.Errorf("readVarInt: non-canonical varint 0xfe for value %d", v)
		}
		return uint64(v), nil
	case 0xfd:
		v, err := bufFreeList.Uint16(r)
		if err != nil {
			return 0, err
		}
		if uint64(v) < 0xfd {
			return 0, fmt.Errorf("readVarInt: non-canonical varint 0xfd for value %d", v)
		}
		return uint64(v), nil
	default:
		return uint64(discriminant), nil
	}
}

// writeVarInt writes val using the minimal discriminant-prefixed form.
func writeVarInt(w io.Writer, val uint64) error {
	switch {
	case val < 0xfd:
		return bufFreeList.PutUint8(w, uint8(val))
	case val <= 0xffff:
		if err := bufFreeList.PutUint8(w, 0xfd); err != nil {
			return err
		}
		return bufFreeList.PutUint16(w, uint16(val))
	case val <= 0xffffffff:
		if err := bufFreeList.PutUint8(w, 0xfe); err != nil {
			return err
		}
		return bufFreeList.PutUint32(w, uint32(val))
	default:
		if err := bufFreeList.PutUint8(w, 0xff); err != nil {
			return err
		}
		return bufFreeList.PutUint64(w, val)
	}
}

// varIntSerializeSize returns the number of bytes writeVarInt would emit.
func varIntSerializeSize(val uint64) int {
	switch {
	case val < 0xfd:
		return 1
	case val <= 0xffff:
		return 3
	case val <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// maxVarStrLen bounds how much a VarStr may claim to be, independent of
// MaxMessagePayload, to avoid absurd allocation requests from a hostile
// peer on a field nested inside an otherwise small message.
const maxVarStrLen = 1024

// readVarString reads a VarInt-prefixed UTF-8 string.
func readVarString(r io.Reader) (string, error) {
	n, err := readVarInt(r)
	if err != nil {
		return "", err
	}
	if n > maxVarStrLen {
		return "", fmt.Errorf("readVarString: string length %d exceeds max %d", n, maxVarStrLen)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// writeVarString writes s as a VarInt-prefixed UTF-8 string.
func writeVarString(w io.Writer, s string) error {
	if err := writeVarInt(w, uint64(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

// readVarBytes reads a VarInt-prefixed byte slice no larger than
// maxAllowed, which callers set to a sensible bound for the field (e.g. a
// script or a filter).
func readVarBytes(r io.Reader, maxAllowed uint64, fieldName string) ([]byte, error) {
	n, err := readVarInt(r)
	if err != nil {
		return nil, err
	}
	if n > maxAllowed {
		return nil, fmt.Errorf("readVarBytes: %s length %d exceeds max %d", fieldName, n, maxAllowed)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func writeVarBytes(w io.Writer, b []byte) error {
	if err := writeVarInt(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readHash(r io.Reader) (chainhash.Hash, error) {
	var h chainhash.Hash
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return h, err
	}
	return h, nil
}

func writeHash(w io.Writer, h chainhash.Hash) error {
	_, err := w.Write(h[:])
	return err
}
