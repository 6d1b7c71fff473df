/***********************************************************************************************************************
 *
 *   MIT License
 *
 *   Copyright (c) 2021 Nicolas JUHEL
 *
 *   Permission is hereby granted, free of charge, to any person obtaining a copy
 *   of this software and associated documentation files (the "Software"), to deal
 *   in the Software without restriction, including without limitation the rights
 *   to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *   copies of the Software, and to permit persons to whom the Software is
 *   furnished to do so, subject to the following conditions:
 *
 *   The above copyright notice and this permission notice shall be included in all
 *   copies or substantial portions of the Software.
 *
 *   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *   AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *   LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *   OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *   SOFTWARE.
 *
 *
 **********************************************************************************************************************/

package logger

import (
	"log"

	loglvl "github.com/nabbar/torrelay/logger/level"
)

// GetStdLogger returns a standard library *log.Logger that writes through
// this logger at the given level, for wiring into collaborators that only
// accept the stdlib logger interface.
func (l *lgr) GetStdLogger(lvl loglvl.Level, logFlags int) *log.Logger {
	l.SetIOWriterLevel(lvl)
	return log.New(l, "", logFlags)
}

// SetStdLogger redirects the standard library's global logger through this
// logger at the given level.
func (l *lgr) SetStdLogger(lvl loglvl.Level, logFlags int) {
	l.SetIOWriterLevel(lvl)
	log.SetOutput(l)
	log.SetPrefix("")
	log.SetFlags(logFlags)
}
