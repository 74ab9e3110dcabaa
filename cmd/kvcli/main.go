// Command kvcli sends lines from stdin to a kvstore server and prints each response.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"kvstore/internal/config"
	"kvstore/internal/retry"

	"github.com/pkg/errors"
)

func main() {
	addr := flag.String("addr", config.DefaultAddr, "server address")
	timeout := flag.Duration("timeout", 5*time.Second, "dial and first-reply timeout")
	retries := flag.Int("retries", retry.DefaultPolicy().MaxRetries, "dial retries before giving up")
	flag.Parse()

	policy := retry.DefaultPolicy()
	policy.MaxRetries = *retries

	conn, err := dial(context.Background(), *addr, *timeout, policy)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := run(conn, *timeout, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// replyIdle ends a reply once the server has been quiet this long.
// KEYS answers with several lines, so replies are not always one line.
const replyIdle = 50 * time.Millisecond

// dial connects to addr, retrying with backoff while the server comes up.
func dial(ctx context.Context, addr string, timeout time.Duration, policy retry.Policy) (net.Conn, error) {
	var conn net.Conn
	err := retry.Do(ctx, policy, func() error {
		c, err := net.DialTimeout("tcp", addr, timeout)
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", addr)
	}
	return conn, nil
}

// run forwards every line of in as one request and copies the reply to out.
func run(conn net.Conn, timeout time.Duration, in io.Reader, out io.Writer) error {
	replies := bufio.NewReader(conn)
	lines := bufio.NewScanner(in)

	for lines.Scan() {
		if _, err := io.WriteString(conn, lines.Text()+"\n"); err != nil {
			return errors.Wrap(err, "send command")
		}
		if err := copyReply(conn, replies, out, timeout); err != nil {
			return err
		}
	}
	return errors.Wrap(lines.Err(), "read stdin")
}

func copyReply(conn net.Conn, r *bufio.Reader, out io.Writer, timeout time.Duration) error {
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	for first := true; ; first = false {
		line, err := r.ReadString('\n')
		if err != nil {
			var ne net.Error
			if !first && line == "" && errors.As(err, &ne) && ne.Timeout() {
				return nil
			}
			return errors.Wrap(err, "read reply")
		}
		if _, err := io.WriteString(out, line); err != nil {
			return errors.Wrap(err, "write output")
		}
		_ = conn.SetReadDeadline(time.Now().Add(replyIdle))
	}
}
