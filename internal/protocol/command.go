package protocol

import (
	"strings"
)

// Command names, upper-cased.
const (
	CmdGet    = "GET"
	CmdSet    = "SET"
	CmdExpire = "EXPIRE"
	CmdTTL    = "TTL"
	CmdIncr   = "INCR"
	CmdDel    = "DEL"
	CmdPing   = "PING"
	CmdKeys   = "KEYS"
)

var known = map[string]bool{
	CmdGet:    true,
	CmdSet:    true,
	CmdExpire: true,
	CmdTTL:    true,
	CmdIncr:   true,
	CmdDel:    true,
	CmdPing:   true,
	CmdKeys:   true,
}

// Command is one parsed request line.
type Command struct {
	// Name is the upper-cased first token.
	Name string
	// Token is the first token as the client sent it.
	Token string
	Args  []string
}

// Known reports whether Name is a supported command.
func (c Command) Known() bool {
	return known[c.Name]
}

// Parse splits line on whitespace. The first token selects the command
// case-insensitively; the rest are arguments.
func Parse(line string) (Command, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return Command{}, errEmptyCommand
	}

	return Command{
		Name:  strings.ToUpper(parts[0]),
		Token: parts[0],
		Args:  parts[1:],
	}, nil
}
