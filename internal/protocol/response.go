package protocol

import (
	"strconv"
	"strings"
)

const (
	replyOK        = "OK\n"
	replyPong      = "PONG\n"
	replyNil       = "(nil)\n"
	replyEmptyList = "(empty list)\n"
)

func replyInteger(n int64) string {
	return "(integer) " + strconv.FormatInt(n, 10) + "\n"
}

func replyValue(v string) string {
	return v + "\n"
}

func replyError(err error) string {
	return "ERROR: " + err.Error() + "\n"
}

// replyList renders keys as 1-indexed quoted lines.
func replyList(keys []string) string {
	if len(keys) == 0 {
		return replyEmptyList
	}

	var b strings.Builder
	for i, k := range keys {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(`) "`)
		b.WriteString(k)
		b.WriteString("\"\n")
	}
	return b.String()
}
