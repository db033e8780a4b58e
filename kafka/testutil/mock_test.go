package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kbukum/roundtrip/component"
	"github.com/kbukum/roundtrip/kafka"
	"github.com/kbukum/roundtrip/testutil"
)

func TestMockDriver_Interfaces(t *testing.T) {
	d := NewMockDriver()
	var _ kafka.Driver = d
	var _ testutil.TestComponent = d
}

func TestMockDriver_Lifecycle(t *testing.T) {
	d := NewMockDriver()
	ctx := context.Background()

	if h := d.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("Health before Start = %q", h.Status)
	}
	testutil.T(t).Setup(d)
	if h := d.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("Health = %q, want healthy", h.Status)
	}
	if err := d.Start(ctx); err == nil {
		t.Error("second Start should fail")
	}
}

func TestMockDriver_SendAndPollPerGroup(t *testing.T) {
	ctx := context.Background()
	d := NewMockDriver()

	pub, err := d.Publisher(ctx)
	if err != nil {
		t.Fatal(err)
	}
	del, err := pub.Send(ctx, "test-topic", "1", []byte("1_1_"))
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	if del.Partition != 0 || del.Offset != 0 {
		t.Errorf("Delivery = %+v", del)
	}
	parts, err := pub.Partitions(ctx, "test-topic")
	if err != nil || len(parts) != 1 || parts[0].Leader.ID != 1 {
		t.Fatalf("Partitions() = %+v, %v", parts, err)
	}
	pub.Close()

	for _, group := range []string{"g0", "g1"} {
		c, err := d.Consumer(ctx, "test-topic", group)
		if err != nil {
			t.Fatal(err)
		}
		msgs, err := c.Poll(ctx, 50*time.Millisecond)
		if err != nil {
			t.Fatalf("Poll() error: %v", err)
		}
		if len(msgs) != 1 || msgs[0].Key != "1" || string(msgs[0].Value) != "1_1_" {
			t.Errorf("group %s got %+v", group, msgs)
		}
		again, _ := c.Poll(ctx, 10*time.Millisecond)
		if len(again) != 0 {
			t.Errorf("group %s re-read %d committed records", group, len(again))
		}
		c.Close()
	}

	if open := d.OpenSessions(); open != 0 {
		t.Errorf("OpenSessions = %d, want 0", open)
	}
	if d.Opened() != 3 {
		t.Errorf("Opened = %d, want 3", d.Opened())
	}
}

func TestMockDriver_PollWakesOnSend(t *testing.T) {
	ctx := context.Background()
	d := NewMockDriver()
	c, _ := d.Consumer(ctx, "t", "g")
	defer c.Close()

	go func() {
		time.Sleep(20 * time.Millisecond)
		d.Seed("t", "1", []byte("x"))
	}()
	start := time.Now()
	msgs, err := c.Poll(ctx, 2*time.Second)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("Poll() = %v, %v", msgs, err)
	}
	if time.Since(start) > time.Second {
		t.Error("Poll should return as soon as a record arrives")
	}
}

func TestMockDriver_Faults(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	t.Run("open publisher", func(t *testing.T) {
		d := NewMockDriver()
		d.SetFaults(Faults{OpenPublisher: boom})
		if _, err := d.Publisher(ctx); !errors.Is(err, boom) {
			t.Errorf("err = %v", err)
		}
		if d.OpenSessions() != 0 {
			t.Error("failed open must not count as a session")
		}
	})

	t.Run("send", func(t *testing.T) {
		d := NewMockDriver()
		d.SetFaults(Faults{Send: boom})
		p, _ := d.Publisher(ctx)
		defer p.Close()
		if _, err := p.Send(ctx, "t", "1", []byte("v")); !errors.Is(err, boom) {
			t.Errorf("err = %v", err)
		}
		if len(d.Records("t")) != 0 {
			t.Error("failed send must not store a record")
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		d := NewMockDriver()
		d.SetFaults(Faults{Duplicate: true})
		p, _ := d.Publisher(ctx)
		p.Send(ctx, "t", "1", []byte("v"))
		p.Close()
		if got := len(d.Records("t")); got != 2 {
			t.Errorf("records = %d, want 2", got)
		}
	})

	t.Run("drop", func(t *testing.T) {
		d := NewMockDriver()
		d.SetFaults(Faults{Drop: true})
		p, _ := d.Publisher(ctx)
		if _, err := p.Send(ctx, "t", "1", []byte("v")); err != nil {
			t.Fatal(err)
		}
		p.Close()
		if got := len(d.Records("t")); got != 0 {
			t.Errorf("records = %d, want 0", got)
		}
	})

	t.Run("corrupt", func(t *testing.T) {
		d := NewMockDriver()
		d.SetFaults(Faults{Corrupt: true})
		p, _ := d.Publisher(ctx)
		p.Send(ctx, "t", "1", []byte("ab"))
		p.Close()
		if got := d.Records("t")[0].Value; string(got) == "ab" || got[0] != 'a' {
			t.Errorf("value = %q, want last byte flipped", got)
		}
	})

	t.Run("hidden polls", func(t *testing.T) {
		d := NewMockDriver()
		d.Seed("t", "1", []byte("v"))
		d.SetFaults(Faults{HiddenPolls: 2})
		c, _ := d.Consumer(ctx, "t", "g")
		defer c.Close()
		for i := 0; i < 2; i++ {
			if msgs, _ := c.Poll(ctx, time.Millisecond); len(msgs) != 0 {
				t.Fatalf("poll %d saw %d records", i, len(msgs))
			}
		}
		if msgs, _ := c.Poll(ctx, time.Millisecond); len(msgs) != 1 {
			t.Errorf("third poll saw %d records, want 1", len(msgs))
		}
		if d.Polls() != 3 {
			t.Errorf("Polls = %d", d.Polls())
		}
	})

	t.Run("poll", func(t *testing.T) {
		d := NewMockDriver()
		d.SetFaults(Faults{Poll: boom})
		c, _ := d.Consumer(ctx, "t", "g")
		defer c.Close()
		if _, err := c.Poll(ctx, time.Millisecond); !errors.Is(err, boom) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestMockDriver_CloseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	d := NewMockDriver()
	p, _ := d.Publisher(ctx)
	p.Close()
	p.Close()
	if d.OpenSessions() != 0 {
		t.Errorf("OpenSessions = %d", d.OpenSessions())
	}
}

func TestMockDriver_SnapshotRestoreReset(t *testing.T) {
	ctx := context.Background()
	d := NewMockDriver()
	d.Seed("t", "1", []byte("a"))

	snap := testutil.T(t).Snapshot(d)
	d.Seed("t", "1", []byte("b"))
	testutil.T(t).Restore(d, snap)
	if got := len(d.Records("t")); got != 1 {
		t.Errorf("records after Restore = %d, want 1", got)
	}

	if err := d.Restore(ctx, "bogus"); err == nil {
		t.Error("expected error for foreign snapshot")
	}

	testutil.T(t).Reset(d)
	if got := len(d.Records("t")); got != 0 {
		t.Errorf("records after Reset = %d", got)
	}
}
