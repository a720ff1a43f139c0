package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// opKind is the kind of one script statement.
type opKind int

const (
	opMalloc opKind = iota
	opFree
	opDefrag
	opDump
)

// A scriptOp is one parsed statement of an allocation script.
type scriptOp struct {
	Kind opKind
	Arg  int
	Line int
}

// parseScript reads an allocation script. Each line holds one statement:
// "malloc N", "free ADDR", "defrag", or "dump". Blank lines and lines
// starting with # are skipped.
func parseScript(r io.Reader) ([]scriptOp, error) {
	ops := []scriptOp{}
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		op, err := parseStatement(line, lineNum)
		if err != nil {
			return nil, err
		}

		ops = append(ops, op)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return ops, nil
}

func parseStatement(line string, lineNum int) (scriptOp, error) {
	fields := strings.Fields(line)
	op := scriptOp{Line: lineNum}

	switch fields[0] {
	case "malloc":
		op.Kind = opMalloc
	case "free":
		op.Kind = opFree
	case "defrag":
		op.Kind = opDefrag
	case "dump":
		op.Kind = opDump
	default:
		return op, fmt.Errorf("line %d: unknown statement %q",
			lineNum, fields[0])
	}

	needsArg := op.Kind == opMalloc || op.Kind == opFree
	if !needsArg {
		if len(fields) != 1 {
			return op, fmt.Errorf("line %d: %s takes no argument",
				lineNum, fields[0])
		}

		return op, nil
	}

	if len(fields) != 2 {
		return op, fmt.Errorf("line %d: %s takes exactly one argument",
			lineNum, fields[0])
	}

	arg, err := strconv.Atoi(fields[1])
	if err != nil {
		return op, fmt.Errorf("line %d: invalid argument %q",
			lineNum, fields[1])
	}
	op.Arg = arg

	return op, nil
}
