/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package socks implements the per-stream SOCKS4/4a/5 request parser
// embedded in the cell buffer layer.
package socks

import (
	"bytes"
	"fmt"

	liberr "github.com/nabbar/torrelay/errors"
)

// Command is the requested SOCKS operation.
type Command int

const (
	CmdConnect Command = iota
	CmdConnectDir
	CmdResolve
	CmdResolvePtr
)

// Status is the outcome of a Parse call.
type Status int

const (
	// NeedMore means a reply was produced (e.g. the SOCKS5 method
	// selection) and the parser expects another pass with more data.
	NeedMore Status = iota
	// Complete means a Request was fully parsed.
	Complete
	// Incomplete means more bytes are needed before progress can be made.
	Incomplete
)

// Request is a parsed SOCKS destination.
type Request struct {
	Version int
	Command Command
	Address string
	Port    uint16
	Socks4a bool
}

// notProxyReply is the canned response sent when an HTTP request arrives on
// a SOCKS port.
var notProxyReply = []byte("HTTP/1.0 501 Tor is not an HTTP Proxy\r\nContent-Type: text/html; charset=iso-8859-1\r\n\r\n")

// Parser holds the small amount of state a SOCKS5 handshake needs across
// its two passes (method selection, then the actual request).
type Parser struct {
	safe  bool
	stage int
}

// NewParser returns a Parser. In safe mode, a request that would require
// the proxy to resolve DNS locally (an IPv4 literal the caller cannot
// already map) is rejected.
func NewParser(safe bool) *Parser {
	return &Parser{safe: safe}
}

// HasLocalMapping reports whether addr is already known to the caller
// (e.g. via a prior DNS resolution) and so may be dialed directly even in
// safe mode.
type HasLocalMapping func(addr string) bool

// Parse advances the state machine by one pass over data.
func (p *Parser) Parse(data []byte, mapped HasLocalMapping) (req *Request, reply []byte, consumed int, status Status, err error) {
	if len(data) == 0 {
		return nil, nil, 0, Incomplete, nil
	}

	switch data[0] {
	case 5:
		return p.parseSocks5(data, mapped)
	case 4:
		return parseSocks4(data, p.safe, mapped)
	case 'G', 'H', 'P', 'C':
		return nil, notProxyReply, 0, Complete, liberr.New(liberr.KindProtocol, "http proxy request sent to socks port")
	default:
		return nil, nil, 0, Complete, liberr.New(liberr.KindProtocol, "unrecognized socks version byte")
	}
}

func (p *Parser) parseSocks5(data []byte, mapped HasLocalMapping) (*Request, []byte, int, Status, error) {
	if p.stage == 0 {
		if len(data) < 2 {
			return nil, nil, 0, Incomplete, nil
		}
		nmethods := int(data[1])
		if len(data) < 2+nmethods {
			return nil, nil, 0, Incomplete, nil
		}

		methods := data[2 : 2+nmethods]
		if !bytes.Contains(methods, []byte{0x00}) {
			return nil, nil, 0, Complete, liberr.New(liberr.KindProtocol, "socks5 client offers no acceptable auth method")
		}

		p.stage = 1
		return nil, []byte{0x05, 0x00}, 2 + nmethods, NeedMore, nil
	}

	if len(data) < 4 {
		return nil, nil, 0, Incomplete, nil
	}

	cmd := data[1]
	atyp := data[3]

	var (
		addr     string
		port     uint16
		consumed int
	)

	switch atyp {
	case 0x01: // IPv4
		if len(data) < 10 {
			return nil, nil, 0, Incomplete, nil
		}
		addr = fmt.Sprintf("%d.%d.%d.%d", data[4], data[5], data[6], data[7])
		port = uint16(data[8])<<8 | uint16(data[9])
		consumed = 10
	case 0x03: // FQDN
		if len(data) < 5 {
			return nil, nil, 0, Incomplete, nil
		}
		n := int(data[4])
		if len(data) < 5+n+2 {
			return nil, nil, 0, Incomplete, nil
		}
		addr = string(data[5 : 5+n])
		port = uint16(data[5+n])<<8 | uint16(data[5+n+1])
		consumed = 5 + n + 2
	default:
		return nil, nil, 0, Complete, liberr.New(liberr.KindProtocol, "unsupported socks5 address type")
	}

	command, err := socksCommand(cmd)
	if err != nil {
		return nil, nil, 0, Complete, err
	}

	if p.safe && atyp == 0x01 && (mapped == nil || !mapped(addr)) {
		return nil, nil, 0, Complete, liberr.New(liberr.KindProtocol, "safe socks: refusing to resolve IPv4 literal locally")
	}

	p.stage = 0
	return &Request{Version: 5, Command: command, Address: addr, Port: port}, nil, consumed, Complete, nil
}

func socksCommand(cmd byte) (Command, error) {
	switch cmd {
	case 0x01:
		return CmdConnect, nil
	case 0xF0:
		return CmdResolve, nil
	case 0xF1:
		return CmdResolvePtr, nil
	default:
		return 0, liberr.New(liberr.KindProtocol, "unsupported socks command")
	}
}

func parseSocks4(data []byte, safe bool, mapped HasLocalMapping) (*Request, []byte, int, Status, error) {
	if len(data) < 8 {
		return nil, nil, 0, Incomplete, nil
	}

	cmd := data[1]
	if cmd != 0x01 {
		return nil, nil, 0, Complete, liberr.New(liberr.KindProtocol, "unsupported socks4 command")
	}

	port := uint16(data[2])<<8 | uint16(data[3])
	ip := data[4:8]

	userEnd := bytes.IndexByte(data[8:], 0x00)
	if userEnd < 0 {
		return nil, nil, 0, Incomplete, nil
	}
	pos := 8 + userEnd + 1

	socks4a := ip[0] == 0 && ip[1] == 0 && ip[2] == 0 && ip[3] != 0
	if !socks4a {
		addr := fmt.Sprintf("%d.%d.%d.%d", ip[0], ip[1], ip[2], ip[3])
		if safe && (mapped == nil || !mapped(addr)) {
			return nil, nil, 0, Complete, liberr.New(liberr.KindProtocol, "safe socks: refusing to resolve IPv4 literal locally")
		}
		return &Request{Version: 4, Command: CmdConnect, Address: addr, Port: port}, nil, pos, Complete, nil
	}

	hostEnd := bytes.IndexByte(data[pos:], 0x00)
	if hostEnd < 0 {
		return nil, nil, 0, Incomplete, nil
	}
	host := string(data[pos : pos+hostEnd])
	consumed := pos + hostEnd + 1

	return &Request{Version: 4, Command: CmdConnect, Address: host, Port: port, Socks4a: true}, nil, consumed, Complete, nil
}
