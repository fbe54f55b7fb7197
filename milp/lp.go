/*
Copyright © 2018 the rivus authors.
This file is part of rivus.

rivus is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

rivus is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with rivus.  If not, see <http://www.gnu.org/licenses/>.
*/

package milp

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

const (
	// maxNameLen is the longest name most LP readers accept.
	maxNameLen = 100
	// termsPerLine limits the length of lines in LP files.
	termsPerLine = 6
)

// lpNameChar reports whether r may appear in a name in an LP file.
func lpNameChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("!\"#$%&()/,.;?@_`'{}|~", r)
}

func lpName(s string) string {
	b := []rune(s)
	for i, r := range b {
		if !lpNameChar(r) {
			b[i] = '_'
		}
	}
	if len(b) > 0 && (b[0] == '.' || (b[0] >= '0' && b[0] <= '9')) {
		b = append([]rune{'_'}, b...)
	}
	return string(b)
}

// uniqueNames makes names valid for LP files and unique, falling back
// to the prefix followed by the position for names that are too long or
// would collide.
func uniqueNames(names []string, prefix string) []string {
	o := make([]string, len(names))
	seen := make(map[string]bool, len(names))
	for i, n := range names {
		s := lpName(n)
		if s == "" || len(s) > maxNameLen || seen[s] {
			s = prefix + strconv.Itoa(i)
		}
		seen[s] = true
		o[i] = s
	}
	return o
}

// LPNames returns the names under which the variables of p are written
// to LP files, indexed by Var.
func LPNames(p *Problem) []string {
	names := make([]string, len(p.vars))
	for i, v := range p.vars {
		names[i] = v.Name
	}
	return uniqueNames(names, "x#")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

type lpWriter struct {
	w   *bufio.Writer
	err error
}

func (l *lpWriter) printf(format string, args ...interface{}) {
	if l.err != nil {
		return
	}
	_, l.err = fmt.Fprintf(l.w, format, args...)
}

func (l *lpWriter) terms(e Expr, names []string) {
	if len(e.Terms) == 0 {
		// LP readers require at least one term.
		l.printf(" 0 %s", names[0])
		return
	}
	for i, t := range e.Terms {
		if i > 0 && i%termsPerLine == 0 {
			l.printf("\n  ")
		}
		if t.Coef < 0 {
			l.printf(" - %s %s", formatFloat(-t.Coef), names[t.Var])
		} else {
			l.printf(" + %s %s", formatFloat(t.Coef), names[t.Var])
		}
	}
}

// WriteLP writes p to w in CPLEX LP format. The constant part of the
// objective is not written.
func WriteLP(w io.Writer, p *Problem) error {
	if len(p.vars) == 0 {
		return fmt.Errorf("milp: writing LP: problem %s has no variables", p.Name)
	}
	names := LPNames(p)
	cnames := make([]string, len(p.constraints))
	for i := range p.constraints {
		cnames[i] = p.constraints[i].Name()
	}
	cnames = uniqueNames(cnames, "c#")

	l := &lpWriter{w: bufio.NewWriter(w)}
	l.printf("\\ Problem: %s\n", p.Name)
	if p.minimize {
		l.printf("Minimize\n")
	} else {
		l.printf("Maximize\n")
	}
	l.printf(" obj:")
	l.terms(p.objective, names)
	l.printf("\nSubject To\n")
	for i := range p.constraints {
		c := &p.constraints[i]
		l.printf(" %s:", cnames[i])
		l.terms(c.Expr, names)
		l.printf(" %s %s\n", c.Sense, formatFloat(c.RHS))
	}

	l.printf("Bounds\n")
	for i, v := range p.vars {
		if v.Kind == Binary && v.Lower == 0 && v.Upper == 1 {
			continue
		}
		switch {
		case math.IsInf(v.Lower, -1) && math.IsInf(v.Upper, 1):
			l.printf(" %s free\n", names[i])
		case v.Lower == 0 && math.IsInf(v.Upper, 1):
			// default bounds
		case math.IsInf(v.Upper, 1):
			l.printf(" %s >= %s\n", names[i], formatFloat(v.Lower))
		case math.IsInf(v.Lower, -1):
			l.printf(" -inf <= %s <= %s\n", names[i], formatFloat(v.Upper))
		default:
			l.printf(" %s <= %s <= %s\n", formatFloat(v.Lower), names[i], formatFloat(v.Upper))
		}
	}

	var binaries []string
	for i, v := range p.vars {
		if v.Kind == Binary {
			binaries = append(binaries, names[i])
		}
	}
	if len(binaries) > 0 {
		l.printf("Binaries\n")
		for i, b := range binaries {
			if i > 0 && i%termsPerLine == 0 {
				l.printf("\n")
			}
			l.printf(" %s", b)
		}
		l.printf("\n")
	}
	l.printf("End\n")
	if l.err != nil {
		return fmt.Errorf("milp: writing LP: %v", l.err)
	}
	if err := l.w.Flush(); err != nil {
		return fmt.Errorf("milp: writing LP: %v", err)
	}
	return nil
}
