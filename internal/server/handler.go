package server

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// maxLineSize bounds a single request line. Longer lines are discarded up to
// the next newline and answered with replyLineTooLong.
const maxLineSize = 1 << 20

const replyLineTooLong = "ERROR: line too long\n"

// Processor turns one request line into one response.
type Processor interface {
	Process(line string) string
}

// HandleConn feeds each line read from rw to proc and writes back the
// response, in order. It returns nil on EOF and a wrapped error on any
// transport failure.
func HandleConn(rw io.ReadWriter, proc Processor) error {
	r := bufio.NewReader(rw)

	var (
		line    []byte
		tooLong bool
	)
	for {
		frag, isPrefix, err := r.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return errors.Wrap(err, "read from connection")
		}

		if !tooLong {
			if len(line)+len(frag) > maxLineSize {
				tooLong = true
				line = line[:0]
			} else {
				line = append(line, frag...)
			}
		}
		if isPrefix {
			continue
		}

		resp := replyLineTooLong
		if !tooLong {
			resp = proc.Process(string(line))
		}
		line, tooLong = line[:0], false

		if _, err := io.WriteString(rw, resp); err != nil {
			return errors.Wrap(err, "write to connection")
		}
	}
}
