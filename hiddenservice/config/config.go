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

// Package config parses the HiddenServiceDir/HiddenServicePort/
// HiddenServiceNodes/HiddenServiceExcludeNodes/HiddenServiceVersion
// directive grammar (spec.md §6 External interfaces) out of an
// already-tokenized line stream. Locating, opening, or watching the
// configuration file that stream came from is the out-of-scope
// "configuration file loading" collaborator (spec.md §1); this package only
// parses the stream already in memory.
package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	libdur "github.com/nabbar/torrelay/duration"
	liberr "github.com/nabbar/torrelay/errors"
)

// PortMapping is one HiddenServicePort directive: a virtual port the
// service advertises, mapped to a real address/port the connection is
// bound to on a successful rendezvous join.
type PortMapping struct {
	VirtualPort int
	RealAddress string
	RealPort    int
}

// ServiceBlock is one HiddenServiceDir block and everything configured
// under it before the next HiddenServiceDir (or end of stream).
type ServiceBlock struct {
	Dir          string
	Ports        []PortMapping
	NodesPrefer  []string
	NodesExclude []string
	Versions     []int

	// PostPeriod overrides how often the descriptor is re-uploaded; zero
	// means "use the package default" (HiddenServicePostPeriod directive).
	PostPeriod time.Duration
}

const defaultRealAddress = "127.0.0.1"

// Parse reads directive lines from r and returns one ServiceBlock per
// HiddenServiceDir encountered, in file order. A HiddenServicePort (or
// HiddenServiceNodes/ExcludeNodes/Version) line with no preceding
// HiddenServiceDir is fatal, per spec.md §6.
func Parse(r io.Reader) ([]ServiceBlock, error) {
	var (
		blocks []ServiceBlock
		cur    *ServiceBlock
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		directive := fields[0]
		args := fields[1:]

		switch directive {
		case "HiddenServiceDir":
			if len(args) != 1 {
				return nil, liberr.New(liberr.KindProtocol, "HiddenServiceDir requires exactly one path argument")
			}
			if cur != nil {
				blocks = append(blocks, *cur)
			}
			cur = &ServiceBlock{Dir: args[0], Versions: []int{2}}

		case "HiddenServicePort":
			if cur == nil {
				return nil, liberr.New(liberr.KindProtocol, "HiddenServicePort without a preceding HiddenServiceDir")
			}
			pm, err := parsePort(args)
			if err != nil {
				return nil, err
			}
			cur.Ports = append(cur.Ports, pm)

		case "HiddenServiceNodes":
			if cur == nil {
				return nil, liberr.New(liberr.KindProtocol, "HiddenServiceNodes without a preceding HiddenServiceDir")
			}
			cur.NodesPrefer = append(cur.NodesPrefer, splitList(args)...)

		case "HiddenServiceExcludeNodes":
			if cur == nil {
				return nil, liberr.New(liberr.KindProtocol, "HiddenServiceExcludeNodes without a preceding HiddenServiceDir")
			}
			cur.NodesExclude = append(cur.NodesExclude, splitList(args)...)

		case "HiddenServiceVersion":
			if cur == nil {
				return nil, liberr.New(liberr.KindProtocol, "HiddenServiceVersion without a preceding HiddenServiceDir")
			}
			versions, err := parseVersions(args)
			if err != nil {
				return nil, err
			}
			cur.Versions = versions

		case "HiddenServicePostPeriod":
			if cur == nil {
				return nil, liberr.New(liberr.KindProtocol, "HiddenServicePostPeriod without a preceding HiddenServiceDir")
			}
			if len(args) != 1 {
				return nil, liberr.New(liberr.KindProtocol, "HiddenServicePostPeriod requires exactly one duration argument")
			}
			d, err := libdur.Parse(args[0])
			if err != nil {
				return nil, liberr.New(liberr.KindProtocol, fmt.Sprintf("HiddenServicePostPeriod %q is not a valid duration", args[0]), err)
			}
			cur.PostPeriod = time.Duration(d)

		default:
			// Directives outside this grammar belong to the out-of-scope
			// general configuration loader; ignore them here.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, liberr.New(liberr.KindIoError, "reading configuration stream failed", err)
	}

	if cur != nil {
		blocks = append(blocks, *cur)
	}
	return blocks, nil
}

// parsePort parses `VIRT [ (IP | PORT | IP:PORT) ]`.
func parsePort(args []string) (PortMapping, error) {
	if len(args) < 1 {
		return PortMapping{}, liberr.New(liberr.KindProtocol, "HiddenServicePort requires a virtual port")
	}
	virt, err := strconv.Atoi(args[0])
	if err != nil {
		return PortMapping{}, liberr.New(liberr.KindProtocol, "HiddenServicePort virtual port is not numeric", err)
	}

	pm := PortMapping{VirtualPort: virt, RealAddress: defaultRealAddress, RealPort: virt}
	if len(args) == 1 {
		return pm, nil
	}

	target := args[1]
	if strings.Contains(target, ":") {
		parts := strings.SplitN(target, ":", 2)
		pm.RealAddress = parts[0]
		p, perr := strconv.Atoi(parts[1])
		if perr != nil {
			return PortMapping{}, liberr.New(liberr.KindProtocol, "HiddenServicePort real port is not numeric", perr)
		}
		pm.RealPort = p
		return pm, nil
	}

	if p, perr := strconv.Atoi(target); perr == nil {
		pm.RealPort = p
		return pm, nil
	}
	pm.RealAddress = target
	return pm, nil
}

func splitList(args []string) []string {
	joined := strings.Join(args, " ")
	parts := strings.Split(joined, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseVersions(args []string) ([]int, error) {
	raw := splitList(args)
	out := make([]int, 0, len(raw))
	for _, v := range raw {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, liberr.New(liberr.KindProtocol, fmt.Sprintf("HiddenServiceVersion %q is not numeric", v), err)
		}
		if n != 0 && n != 2 {
			return nil, liberr.New(liberr.KindProtocol, fmt.Sprintf("HiddenServiceVersion %d is not a recognized version", n))
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, liberr.New(liberr.KindProtocol, "HiddenServiceVersion requires at least one version")
	}
	return out, nil
}
