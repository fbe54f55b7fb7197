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

package cbc

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spatialmodel/rivus/milp"
)

// noSolution is the objective value cbc reports when it has not found a
// feasible solution.
const noSolution = 1e50

// statusPrefixes maps the beginning of the first line of a cbc solution
// file to a status. Longer prefixes come first.
var statusPrefixes = []struct {
	prefix string
	status milp.Status
}{
	{"Optimal", milp.Optimal},
	{"Integer infeasible", milp.Infeasible},
	{"Infeasible", milp.Infeasible},
	{"Unbounded", milp.Unbounded},
	{"Stopped on time", milp.TimeLimit},
	{"Stopped on iterations", milp.TimeLimit},
	{"Stopped on nodes", milp.TimeLimit},
	{"Stopped on solutions", milp.TimeLimit},
}

// parseHeader reads the status and objective value from the first line
// of a solution file, e.g. "Optimal - objective value 51000.00000000".
func parseHeader(line string) (milp.Status, float64, error) {
	line = strings.TrimSpace(line)
	status := milp.Error
	for _, p := range statusPrefixes {
		if strings.HasPrefix(line, p.prefix) {
			status = p.status
			break
		}
	}
	const objKey = "objective value"
	i := strings.Index(line, objKey)
	if i < 0 {
		return status, 0, nil
	}
	s := strings.TrimSpace(line[i+len(objKey):])
	obj, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return status, 0, fmt.Errorf("cbc: invalid objective value %q", s)
	}
	return status, obj, nil
}

// ReadSolution reads a cbc solution file. names holds the LP file names
// of the variables, indexed by milp.Var; see milp.LPNames. Variables
// that are not listed in the file are zero. Values are only returned
// for solutions that are optimal or that stopped at a limit after
// finding a feasible solution.
func ReadSolution(r io.Reader, names []string) (*milp.Solution, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("cbc: reading solution: %v", err)
		}
		return nil, fmt.Errorf("cbc: empty solution file")
	}
	header := sc.Text()
	status, obj, err := parseHeader(header)
	if err != nil {
		return nil, err
	}
	sol := &milp.Solution{Status: status, Objective: obj}
	if status == milp.Error {
		sol.Message = strings.TrimSpace(header)
		return sol, nil
	}
	if !(status == milp.Optimal || status == milp.TimeLimit) || obj >= noSolution {
		return sol, nil
	}

	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}
	sol.Values = make([]float64, len(names))
	for line := 2; sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		// Values that violate a bound or constraint are flagged with **.
		if len(fields) > 0 && fields[0] == "**" {
			fields = fields[1:]
		}
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 3 {
			return nil, fmt.Errorf("cbc: solution line %d: want index, name and value, have %q", line, sc.Text())
		}
		i, ok := index[fields[1]]
		if !ok {
			return nil, fmt.Errorf("cbc: solution line %d: unknown variable %q", line, fields[1])
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("cbc: solution line %d: %v", line, err)
		}
		sol.Values[i] = v
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("cbc: reading solution: %v", err)
	}
	return sol, nil
}
