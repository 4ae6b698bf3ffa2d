// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"
	"net"
	"time"
)

// maxNetAddressPayload is services(8) + ip(16) + port(2), optionally
// preceded by a timestamp(4) when includeTimestamp is set.
const maxNetAddressPayload = 8 + 16 + 2

// NetAddress defines information about a peer on the network, including
// the time it was last seen, its service flags, and its IP and port.
type NetAddress struct {
	Timestamp time.Time
	Services  uint64
	IP        net.IP
	Port      uint16
}

func readNetAddress(r io.Reader, na *NetAddress, includeTimestamp bool) error {
	if includeTimestamp {
		ts, err := bufFreeList.Uint32(r)
		if err != nil {
			return err
		}
		na.Timestamp = time.Unix(int64(ts), 0)
	}

	services, err := bufFreeList.Uint64(r)
	if err != nil {
		return err
	}
	na.Services = services

	var ip [16]byte
	if _, err := io.ReadFull(r, ip[:]); err != nil {
		return err
	}
	na.IP = net.IP(ip[:])

	// Port is encoded big-endian, unlike every other wire field.
	var portBuf [2]byte
	if _, err := io.ReadFull(r, portBuf[:]); err != nil {
		return err
	}
	na.Port = uint16(portBuf[0])<<8 | uint16(portBuf[1])
	return nil
}

func writeNetAddress(w io.Writer, na *NetAddress, includeTimestamp bool) error {
	if includeTimestamp {
		if err := bufFreeList.PutUint32(w, uint32(na.Timestamp.Unix())); err != nil {
			return err
		}
	}
	if err := bufFreeList.PutUint64(w, na.Services); err != nil {
		return err
	}

	var ip [16]byte
	if v4 := na.IP.To4(); v4 != nil {
		copy(ip[12:16], v4)
		// IPv4-in-IPv6 prefix.
		ip[10], ip[11] = 0xff, 0xff
	} else if v6 := na.IP.To16(); v6 != nil {
		copy(ip[:], v6)
	}
	if _, err := w.Write(ip[:]); err != nil {
		return err
	}

	portBuf := [2]byte{byte(na.Port >> 8), byte(na.Port)}
	_, err := w.Write(portBuf[:])
	return err
}
