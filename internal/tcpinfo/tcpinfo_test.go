package tcpinfo

import (
	"net"
	"testing"
)

func TestGetOnTCPConn(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()
	server := <-accepted
	defer server.Close()

	info, err := Get(client)
	if !Available {
		if err == nil {
			t.Fatalf("expected an error on a platform without TCP_INFO support")
		}
		return
	}
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if info.RTT < 0 {
		t.Fatalf("expected non-negative RTT, got %v", info.RTT)
	}
}

func TestGetRejectsNonTCPConn(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	if _, err := Get(client); err == nil {
		t.Fatalf("expected an error for a non-TCP net.Conn")
	}
}
