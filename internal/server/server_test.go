package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"kvstore/internal/logs"
	"kvstore/internal/metrics"
	"kvstore/internal/protocol"
	"kvstore/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProcessor() *protocol.Processor {
	return protocol.NewProcessor(store.NewStore(nil), nil)
}

func TestHandleConn_Pipe(t *testing.T) {
	client, srv := net.Pipe()
	require.NoError(t, client.SetDeadline(time.Now().Add(2*time.Second)))
	defer client.Close()

	done := make(chan error, 1)
	go func() {
		done <- HandleConn(srv, newProcessor())
		srv.Close()
	}()

	r := bufio.NewReader(client)
	send := func(line string) string {
		_, err := client.Write([]byte(line + "\n"))
		require.NoError(t, err)
		res, err := r.ReadString('\n')
		require.NoError(t, err)
		return res
	}

	assert.Equal(t, "PONG\n", send("PING"))
	assert.Equal(t, "OK\n", send("SET greeting hello world"))
	assert.Equal(t, "hello world\n", send("GET greeting"))
	assert.Equal(t, "ERROR: Unknown command 'BOGUS'\n", send("BOGUS"), "errors keep the connection open")
	assert.Equal(t, "(integer) 1\n", send("DEL greeting"))
	assert.Equal(t, "OK\n", send("SET crlf v\r"), "trailing CR is ignored")
	assert.Equal(t, "v\n", send("GET crlf"))

	require.NoError(t, client.Close())
	select {
	case err := <-done:
		// net.Pipe reports io.EOF to the reader, which ends cleanly
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after client close")
	}
}

func TestHandleConn_OversizedLine(t *testing.T) {
	client, srv := net.Pipe()
	require.NoError(t, client.SetDeadline(time.Now().Add(5*time.Second)))
	defer client.Close()

	done := make(chan error, 1)
	go func() {
		done <- HandleConn(srv, newProcessor())
		srv.Close()
	}()

	atLimit := "GET " + strings.Repeat("k", maxLineSize-len("GET "))
	payload := "SET big " + strings.Repeat("x", 2<<20) + "\nPING\n" + atLimit + "\n"
	go func() { _, _ = client.Write([]byte(payload)) }()

	r := bufio.NewReader(client)
	read := func() string {
		res, err := r.ReadString('\n')
		require.NoError(t, err)
		return res
	}

	assert.Equal(t, "ERROR: line too long\n", read())
	assert.Equal(t, "PONG\n", read(), "connection stays open after an oversized line")
	assert.Equal(t, "(nil)\n", read(), "a line of exactly maxLineSize is processed")

	require.NoError(t, client.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after client close")
	}
}

type failingWriter struct {
	lines *strings.Reader
}

func (f *failingWriter) Read(p []byte) (int, error) { return f.lines.Read(p) }
func (f *failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestHandleConn_WriteErrorEndsConnection(t *testing.T) {
	rw := &failingWriter{lines: strings.NewReader("PING\nPING\n")}

	err := HandleConn(rw, newProcessor())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write to connection")
}

func TestServer_ServeLoopback(t *testing.T) {
	reg := metrics.NewRegistry()
	logger := logs.NewLogger(100, logs.DEBUG)

	s, err := Listen("127.0.0.1:0", newProcessor(), logger, reg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- s.Serve(ctx) }()

	dial := func() (net.Conn, *bufio.Reader) {
		conn, err := net.Dial("tcp", s.Addr())
		require.NoError(t, err)
		require.NoError(t, conn.SetDeadline(time.Now().Add(2*time.Second)))
		return conn, bufio.NewReader(conn)
	}

	send := func(conn net.Conn, r *bufio.Reader, line string) string {
		_, err := conn.Write([]byte(line + "\n"))
		require.NoError(t, err)
		res, err := r.ReadString('\n')
		require.NoError(t, err)
		return res
	}

	a, ra := dial()
	defer a.Close()
	b, rb := dial()
	defer b.Close()

	assert.Equal(t, "OK\n", send(a, ra, "SET shared 41"))
	assert.Equal(t, "(integer) 42\n", send(b, rb, "INCR shared"), "connections share one store")

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, r := dial()
			defer c.Close()
			for j := 0; j < 10; j++ {
				send(c, r, "INCR shared")
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, "92\n", send(a, ra, "GET shared"))

	assert.Eventually(t, func() bool {
		return reg.Get(metrics.ConnAcceptedTotal) == 7
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return after cancel")
	}

	_, err = a.Write([]byte("PING\n"))
	if err == nil {
		_, err = ra.ReadString('\n')
	}
	assert.Error(t, err, "open connections are closed on shutdown")
	assert.Equal(t, int64(0), reg.Get(metrics.ConnActive))
}

func TestListen_BindFailure(t *testing.T) {
	_, err := Listen("256.0.0.1:0", newProcessor(), nil, nil)
	assert.Error(t, err)
}

func TestServer_CloseIsIdempotent(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := New(ln, newProcessor(), nil, nil)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Serve(context.Background()))
}
