package schedule

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// WriteMPS serializes m to the free-format MPS exchange format, the most
// portable MIP interchange format and the one the solver exchange contract names
// explicitly ("a standard MIP file, MPS or LP"). Row and column order is
// the model's insertion order, so two builds of the same Input produce a
// byte-identical file.
func WriteMPS(w io.Writer, m *Model, problemName string) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "NAME          %s\n", problemName)
	fmt.Fprintln(bw, "ROWS")
	fmt.Fprintln(bw, " N  COST")
	for _, c := range m.Constraints {
		fmt.Fprintf(bw, " %s  %s\n", c.Sense.String(), c.Name)
	}

	fmt.Fprintln(bw, "COLUMNS")
	colRows := make(map[string][]string) // varName -> "rowName value" lines, in row order
	for _, c := range m.Constraints {
		keys := sortedKeys(c.Coeffs)
		for _, varName := range keys {
			coeff := c.Coeffs[varName]
			if coeff == 0 {
				continue
			}
			colRows[varName] = append(colRows[varName], fmt.Sprintf("    %-10s  %-10s  %.10g\n", varName, c.Name, coeff))
		}
	}

	inInt := false
	markerSeq := 0
	for _, v := range m.Vars {
		if v.Binary && !inInt {
			fmt.Fprintf(bw, "    MARKER                 'MARKER'                 'INTORG'\n")
			inInt = true
			markerSeq++
		} else if !v.Binary && inInt {
			fmt.Fprintf(bw, "    MARKER                 'MARKER'                 'INTEND'\n")
			inInt = false
			markerSeq++
		}
		if v.Obj != 0 {
			fmt.Fprintf(bw, "    %-10s  %-10s  %.10g\n", v.Name, "COST", v.Obj)
		}
		for _, line := range colRows[v.Name] {
			bw.WriteString(line)
		}
	}
	if inInt {
		fmt.Fprintf(bw, "    MARKER                 'MARKER'                 'INTEND'\n")
	}

	fmt.Fprintln(bw, "RHS")
	for _, c := range m.Constraints {
		fmt.Fprintf(bw, "    RHS         %-10s  %.10g\n", c.Name, c.RHS)
	}

	fmt.Fprintln(bw, "BOUNDS")
	for _, v := range m.Vars {
		if v.Binary {
			fmt.Fprintf(bw, " BV BND       %s\n", v.Name)
			continue
		}
		if v.LB != 0 {
			fmt.Fprintf(bw, " LO BND       %-10s  %.10g\n", v.Name, v.LB)
		}
		if v.UB != 0 {
			fmt.Fprintf(bw, " UP BND       %-10s  %.10g\n", v.Name, v.UB)
		}
	}

	fmt.Fprintln(bw, "ENDATA")
	return bw.Flush()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ReadMPS parses a file written by WriteMPS back into a Model, recovering
// the full coefficient matrix, objective vector, RHS, and bounds. Used by
// mps_test.go's build/serialize/re-parse round trip.
func ReadMPS(r io.Reader) (*Model, error) {
	m := NewModel()
	rowSense := map[string]Sense{}
	rowOrder := []string{}
	varSet := map[string]bool{}
	varOrder := []string{}
	coeffs := map[string]map[string]float64{} // row -> var -> value
	objCoeffs := map[string]float64{}
	rhs := map[string]float64{}
	binary := map[string]bool{}
	lb := map[string]float64{}
	ub := map[string]float64{}

	section := ""
	inInt := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t") {
			fields := strings.Fields(trimmed)
			section = fields[0]
			if section == "NAME" || section == "ENDATA" {
				continue
			}
			continue
		}

		fields := strings.Fields(trimmed)
		switch section {
		case "ROWS":
			sense := parseSense(fields[0])
			name := fields[1]
			if fields[0] == "N" {
				continue // objective row, tracked separately as COST
			}
			rowSense[name] = sense
			rowOrder = append(rowOrder, name)
			coeffs[name] = map[string]float64{}

		case "COLUMNS":
			if strings.Contains(trimmed, "'MARKER'") {
				if strings.Contains(trimmed, "INTORG") {
					inInt = true
				} else if strings.Contains(trimmed, "INTEND") {
					inInt = false
				}
				continue
			}
			varName := fields[0]
			if !varSet[varName] {
				varSet[varName] = true
				varOrder = append(varOrder, varName)
				if inInt {
					binary[varName] = true
				}
			}
			for i := 1; i+1 < len(fields); i += 2 {
				rowName := fields[i]
				val, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("schedule: parsing COLUMNS value for %s/%s: %w", varName, rowName, err)
				}
				if rowName == "COST" {
					objCoeffs[varName] = val
				} else {
					coeffs[rowName][varName] = val
				}
			}

		case "RHS":
			for i := 1; i+1 < len(fields); i += 2 {
				val, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("schedule: parsing RHS value: %w", err)
				}
				rhs[fields[i]] = val
			}

		case "BOUNDS":
			kind := fields[0]
			varName := fields[2]
			if kind == "BV" {
				varName = fields[2]
				binary[varName] = true
				ub[varName] = 1
				continue
			}
			val, err := strconv.ParseFloat(fields[3], 64)
			if err != nil {
				return nil, fmt.Errorf("schedule: parsing BOUNDS value: %w", err)
			}
			switch kind {
			case "LO":
				lb[varName] = val
			case "UP":
				ub[varName] = val
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("schedule: reading MPS: %w", err)
	}

	for _, name := range varOrder {
		m.AddVar(Variable{
			Name:   name,
			Binary: binary[name],
			LB:     lb[name],
			UB:     ub[name],
			Obj:    objCoeffs[name],
		})
	}
	for _, name := range rowOrder {
		m.AddConstraint(Constraint{
			Name:   name,
			Sense:  rowSense[name],
			RHS:    rhs[name],
			Coeffs: coeffs[name],
		})
	}
	return m, nil
}

func parseSense(token string) Sense {
	switch token {
	case "L":
		return LE
	case "G":
		return GE
	default:
		return EQ
	}
}
