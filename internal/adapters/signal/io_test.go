package signal

import (
	"testing"

	"github.com/aeroplan/collab/internal/core"
)

func TestWsConn_TrySendPreservesOrder(t *testing.T) {
	c := &wsConn{send: make(chan core.Frame, 32)}

	want := []string{"one", "two", "three", "four"}
	for _, s := range want {
		if err := c.TrySend(core.Frame(s)); err != nil {
			t.Fatalf("TrySend(%q): %v", s, err)
		}
	}

	// The write pump drains the channel with a single reader, so the
	// channel order is the wire order.
	for i, s := range want {
		got := <-c.send
		if string(got) != s {
			t.Errorf("frame %d = %q, want %q", i, got, s)
		}
	}
}

func TestWsConn_TrySendBackpressure(t *testing.T) {
	c := &wsConn{send: make(chan core.Frame, 1)}

	if err := c.TrySend(core.Frame("fits")); err != nil {
		t.Fatalf("TrySend into empty buffer: %v", err)
	}
	if err := c.TrySend(core.Frame("overflows")); err != ErrBackpressure {
		t.Errorf("TrySend into full buffer err = %v, want ErrBackpressure", err)
	}

	// The buffered frame is untouched by the rejected send.
	if got := <-c.send; string(got) != "fits" {
		t.Errorf("buffered frame = %q, want %q", got, "fits")
	}
}
