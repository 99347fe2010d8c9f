package command

import (
	"strings"

	"github.com/pkg/errors"

	"servoarm/arm"
)

// Keywords recognised in every mode
const (
	KeywordMotor     = "motor"
	KeywordCartesian = "cartesian"
	KeywordReset     = "reset"
	KeywordStatus    = "status"
	KeywordHelp      = "help"
)

// Fixed-width cartesian line: "xxxx,yyy,zzz"
const (
	cartesianLineLen = 12
	singleAxisLen    = 6
)

// Parser turns protocol lines into commands
type Parser struct{}

// NewParser creates a new line parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseLine parses one line in the given mode. Keyword lines are accepted in
// any mode; other lines only in the mode that understands them. Unparseable
// lines return an error wrapping ErrUnknownCommand.
func (p *Parser) ParseLine(mode arm.RobotMode, line string) (*arm.Command, error) {
	line = strings.TrimSpace(line)
	if len(line) == 0 {
		return nil, nil
	}

	cmd := &arm.Command{Raw: line}

	switch strings.ToLower(line) {
	case KeywordMotor:
		cmd.Kind = arm.CmdMotor
		return cmd, nil
	case KeywordCartesian:
		cmd.Kind = arm.CmdCartesianMode
		return cmd, nil
	case KeywordReset:
		cmd.Kind = arm.CmdReset
		return cmd, nil
	case KeywordStatus:
		cmd.Kind = arm.CmdStatus
		return cmd, nil
	case KeywordHelp:
		cmd.Kind = arm.CmdHelp
		return cmd, nil
	}

	switch mode {
	case arm.ModeSingleAxis:
		axis, percent, ok := parseSingleAxis(line)
		if ok {
			cmd.Kind = arm.CmdSingleAxis
			cmd.Axis = axis
			cmd.Percent = percent
			return cmd, nil
		}
	case arm.ModeCartesian:
		x, y, z, ok := parseCartesian(line)
		if ok {
			cmd.Kind = arm.CmdCartesian
			cmd.Target = arm.CartesianTarget{X: float64(x), Y: float64(y), Z: float64(z)}
			return cmd, nil
		}
	}

	return nil, errors.Wrapf(arm.ErrUnknownCommand, "%q in %s mode", line, mode)
}

// parseSingleAxis parses "M<id>.<ppp>": axis digit at 1, a dot at 2 and a
// three digit percentage at 3..5
func parseSingleAxis(line string) (arm.AxisID, int, bool) {
	if len(line) != singleAxisLen {
		return 0, 0, false
	}
	if toUpper(line[0]) != 'M' || line[2] != '.' {
		return 0, 0, false
	}

	axis, ok := arm.AxisFromDigit(line[1])
	if !ok {
		return 0, 0, false
	}

	for i := 3; i < singleAxisLen; i++ {
		if line[i] < '0' || line[i] > '9' {
			return 0, 0, false
		}
	}

	percent, ok := parseFixedInt(line[3:6])
	if !ok || percent > 100 {
		return 0, 0, false
	}

	return axis, percent, true
}

// parseCartesian parses the fixed-width position line. x is read from
// [0,4), y from [5,8) and z from [9,12); the characters at 4 and 8 are
// separators and ignored.
func parseCartesian(line string) (int, int, int, bool) {
	if len(line) != cartesianLineLen {
		return 0, 0, 0, false
	}

	x, ok := parseFixedInt(line[0:4])
	if !ok {
		return 0, 0, 0, false
	}
	y, ok := parseFixedInt(line[5:8])
	if !ok {
		return 0, 0, 0, false
	}
	z, ok := parseFixedInt(line[9:12])
	if !ok {
		return 0, 0, 0, false
	}

	return x, y, z, true
}

// parseFixedInt parses a whole field as an integer: optional leading
// spaces, an optional sign, then only digits
func parseFixedInt(s string) (int, bool) {
	pos := 0
	for pos < len(s) && s[pos] == ' ' {
		pos++
	}

	negative := false
	if pos < len(s) && (s[pos] == '-' || s[pos] == '+') {
		negative = s[pos] == '-'
		pos++
	}

	start := pos
	value := 0
	for pos < len(s) && s[pos] >= '0' && s[pos] <= '9' {
		value = value*10 + int(s[pos]-'0')
		pos++
	}

	if pos == start || pos != len(s) {
		return 0, false
	}

	if negative {
		value = -value
	}
	return value, true
}

// toUpper converts a byte to uppercase
func toUpper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}
