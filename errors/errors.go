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

package errors

import (
	"fmt"
)

type ers struct {
	k Kind
	m string
	p []error
	t string
}

func (e *ers) Kind() Kind {
	return e.k
}

func (e *ers) Error() string {
	if e.m == "" {
		return e.k.String()
	}
	return fmt.Sprintf("%s: %s", e.k.String(), e.m)
}

func (e *ers) HasKind(k Kind) bool {
	if e.k == k {
		return true
	}
	for _, p := range e.p {
		if er, ok := p.(Error); ok && er.HasKind(k) {
			return true
		}
	}
	return false
}

func (e *ers) Is(err error) bool {
	if err == nil {
		return false
	}
	if er, ok := err.(Error); ok {
		return er.Kind() == e.k
	}
	return false
}

func (e *ers) Add(parent ...error) {
	for _, v := range parent {
		if v != nil {
			e.p = append(e.p, v)
		}
	}
}

func (e *ers) Unwrap() []error {
	if len(e.p) < 1 {
		return nil
	}
	r := make([]error, len(e.p))
	copy(r, e.p)
	return r
}

func (e *ers) Trace() string {
	return e.t
}

func (e *ers) Map(fct FuncMap) bool {
	if !fct(e) {
		return false
	}
	for _, p := range e.p {
		if er, ok := p.(Error); ok {
			if !er.Map(fct) {
				return false
			}
		}
	}
	return true
}
