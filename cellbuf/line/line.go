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

// Package line implements the newline-delimited framing primitive: scan
// forward for '\n', accounting for wrap, bounded by an explicit maximum
// line length rather than a NUL-terminated scan.
package line

// Status is the outcome of a Parse call.
type Status int

const (
	// Incomplete means no '\n' was found within the data examined so far.
	Incomplete Status = iota
	// Complete means a full line, including its trailing '\n', was found.
	Complete
	// TooLong means the scan exceeded MaxLineLen without finding '\n'.
	TooLong
)

// MaxLineLen bounds how many bytes are scanned before giving up with
// TooLong.
const MaxLineLen = 4096

// Parse scans data for a line terminator. On Complete, line is the matched
// bytes including the trailing '\n' and consumed is its length; the caller
// discards consumed bytes from its buffer. On Incomplete or TooLong, line is
// nil and consumed is zero.
func Parse(data []byte) (line []byte, consumed int, status Status) {
	limit := len(data)
	if limit > MaxLineLen {
		limit = MaxLineLen
	}

	for i := 0; i < limit; i++ {
		if data[i] == '\n' {
			return data[:i+1], i + 1, Complete
		}
	}

	if len(data) >= MaxLineLen {
		return nil, 0, TooLong
	}
	return nil, 0, Incomplete
}
