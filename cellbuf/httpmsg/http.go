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

// Package httpmsg implements the HTTP request/response framing primitive:
// locate the header terminator, parse Content-Length, and decide whether a
// full message has accumulated.
package httpmsg

import (
	"bytes"
	"strconv"
	"strings"

	liberr "github.com/nabbar/torrelay/errors"
)

// Status is the outcome of a Parse call.
type Status int

const (
	// Incomplete means the CRLFCRLF header terminator has not yet arrived,
	// or the body has not fully accumulated.
	Incomplete Status = iota
	// Complete means headers and body (or as much of the body as is ever
	// coming, under ForceComplete) were parsed.
	Complete
)

const terminator = "\r\n\r\n"

// Parse locates the header/body boundary in data and extracts the body
// according to its Content-Length header. maxHeaderSize and maxBodySize cap
// the header scan and the body length respectively; exceeding either fails
// with errors.KindTooLarge. A malformed or absent Content-Length treats the
// body as zero-length; a negative Content-Length fails with
// errors.KindProtocol.
//
// When forceComplete is set, the call returns Complete as soon as headers
// are parsed even if fewer than Content-Length body bytes are available —
// safe only when the caller already knows no more bytes are coming (e.g. on
// transport EOF).
func Parse(data []byte, maxHeaderSize, maxBodySize int, forceComplete bool) (headers, body []byte, consumed int, status Status, err error) {
	idx := bytes.Index(data, []byte(terminator))
	if idx < 0 {
		if len(data) > maxHeaderSize {
			return nil, nil, 0, Incomplete, liberr.New(liberr.KindTooLarge, "http header size cap exceeded")
		}
		return nil, nil, 0, Incomplete, nil
	}

	headerEnd := idx + len(terminator)
	if headerEnd > maxHeaderSize {
		return nil, nil, 0, Incomplete, liberr.New(liberr.KindTooLarge, "http header size cap exceeded")
	}
	headers = data[:headerEnd]

	cl, ok, malformed := contentLength(headers)
	if malformed {
		return nil, nil, 0, Incomplete, liberr.New(liberr.KindProtocol, "negative Content-Length")
	}
	if !ok {
		cl = 0
	}
	if cl > maxBodySize {
		return nil, nil, 0, Incomplete, liberr.New(liberr.KindTooLarge, "http body size cap exceeded")
	}

	available := len(data) - headerEnd
	if available >= cl {
		return headers, data[headerEnd : headerEnd+cl], headerEnd + cl, Complete, nil
	}

	if forceComplete {
		return headers, data[headerEnd:], len(data), Complete, nil
	}

	return headers, nil, 0, Incomplete, nil
}

// contentLength scans headers for a Content-Length field. malformed is true
// only when the field is present and its value is negative; a non-numeric
// value is reported as absent (ok false, malformed false).
func contentLength(headers []byte) (n int, ok bool, malformed bool) {
	for _, line := range strings.Split(string(headers), "\r\n") {
		k, v, found := strings.Cut(line, ":")
		if !found || !strings.EqualFold(strings.TrimSpace(k), "Content-Length") {
			continue
		}

		v = strings.TrimSpace(v)
		val, err := strconv.Atoi(v)
		if err != nil {
			// Malformed (non-numeric) Content-Length: treat body as zero-length.
			return 0, false, false
		}
		if val < 0 {
			return 0, false, true
		}
		return val, true, false
	}
	return 0, false, false
}
