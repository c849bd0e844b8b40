package wiimote

import (
	"bytes"
	"testing"

	"github.com/riking/wiimote/wmpc"
)

func TestWriteDataChunks(t *testing.T) {
	for _, l := range []int{0, 1, 15, 16, 17, 32, 33, 100} {
		d := newTestDevice(t, Options{})
		data := make([]byte, l)
		for i := range data {
			data[i] = byte(i + 1)
		}

		completions := 0
		var result error
		d.writeData(wmpc.SpaceI2CBus, wmpc.SlaveExtension, 0x40, data, func(err error) {
			completions++
			result = err
		})

		writes := 0
		for {
			sent := d.tr.takeSent()
			if len(sent) == 0 {
				break
			}
			if len(sent) != 1 {
				t.Fatalf("L=%d: %d reports in flight, want 1", l, len(sent))
			}
			req := parseRequest(sent[0])
			off := writes * 16
			if req.id != wmpc.OutputWriteData || req.address != uint16(0x40+off) {
				t.Fatalf("L=%d: write %d = %+v", l, writes, req)
			}
			if !bytes.Equal(req.data, data[off:min(off+16, l)]) {
				t.Fatalf("L=%d: write %d data = % x", l, writes, req.data)
			}
			if completions != 0 {
				t.Fatalf("L=%d: completed before the last ack", l)
			}
			writes++
			d.processReport(ackReport(wmpc.OutputWriteData, wmpc.ErrorSuccess))
		}

		if want := (l + 15) / 16; writes != want {
			t.Errorf("L=%d: %d writes, want %d", l, writes, want)
		}
		if completions != 1 || result != nil {
			t.Errorf("L=%d: completions = %d, result = %v", l, completions, result)
		}
	}
}

func TestWriteDataFailure(t *testing.T) {
	d := newTestDevice(t, Options{})
	completions := 0
	var result error
	d.writeData(wmpc.SpaceI2CBus, wmpc.SlaveCamera, 0, make([]byte, 40), func(err error) {
		completions++
		result = err
	})

	d.tr.takeSent()
	d.processReport(ackReport(wmpc.OutputWriteData, wmpc.ErrorSuccess))
	if n := len(d.tr.takeSent()); n != 1 {
		t.Fatalf("second chunk: %d reports sent", n)
	}
	d.processReport(ackReport(wmpc.OutputWriteData, wmpc.ErrorNACK))
	if n := len(d.tr.takeSent()); n != 0 {
		t.Errorf("%d reports sent after a failed chunk", n)
	}
	if completions != 1 || result != error(wmpc.ErrorNACK) {
		t.Errorf("completions = %d, result = %v", completions, result)
	}
	if d.Stats().Nacks != 1 {
		t.Errorf("Nacks = %d, want 1", d.Stats().Nacks)
	}
}

func TestReadData(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		d := newTestDevice(t, Options{})
		var got []byte
		d.readData(wmpc.SpaceEEPROM, 0, 0, 0, func(b []byte) { got = b })
		if got == nil || len(got) != 0 {
			t.Errorf("got %v, want empty non-nil", got)
		}
		if len(d.tr.takeSent()) != 0 {
			t.Errorf("empty read sent a request")
		}
	})

	t.Run("multi chunk", func(t *testing.T) {
		d := newTestDevice(t, Options{})
		mem := make([]byte, 40)
		for i := range mem {
			mem[i] = byte(0xa0 + i)
		}
		var got []byte
		calls := 0
		d.readData(wmpc.SpaceEEPROM, 0, 0x100, len(mem), func(b []byte) { got = b; calls++ })

		for off := 0; off < len(mem); off += 16 {
			sent := d.tr.takeSent()
			if len(sent) != 1 {
				t.Fatalf("offset %d: %d requests", off, len(sent))
			}
			req := parseRequest(sent[0])
			n := min(16, len(mem)-off)
			if req.address != uint16(0x100+off) || req.size != n {
				t.Fatalf("offset %d: request %+v", off, req)
			}
			d.processReport(readReply(req.address, mem[off:off+n], wmpc.ErrorSuccess))
		}
		if calls != 1 || !bytes.Equal(got, mem) {
			t.Errorf("calls = %d, got % x", calls, got)
		}
		if d.exchanges.Pending() != 0 {
			t.Errorf("exchanges left behind: %d", d.exchanges.Pending())
		}
	})

	t.Run("short replies", func(t *testing.T) {
		d := newTestDevice(t, Options{})
		mem := []byte("0123456789abcdef")
		var got []byte
		d.readData(wmpc.SpaceI2CBus, wmpc.SlaveExtension, 0x20, 16, func(b []byte) { got = b })
		d.tr.takeSent()
		d.processReport(readReply(0x20, mem[:8], wmpc.ErrorSuccess))
		req := parseRequest(d.tr.takeSent()[0])
		if req.address != 0x28 || req.size != 8 {
			t.Fatalf("follow-up = %+v", req)
		}
		// a reply for some other address is not ours
		d.processReport(readReply(0x40, mem[:8], wmpc.ErrorSuccess))
		if got != nil {
			t.Fatalf("completed early")
		}
		d.processReport(readReply(0x28, mem[8:], wmpc.ErrorSuccess))
		if !bytes.Equal(got, mem) {
			t.Errorf("got %q, want %q", got, mem)
		}
		if d.Stats().Unhandled != 1 {
			t.Errorf("Unhandled = %d, want 1", d.Stats().Unhandled)
		}
	})

	t.Run("error reply", func(t *testing.T) {
		d := newTestDevice(t, Options{})
		calls := 0
		got := []byte{1}
		d.readData(wmpc.SpaceI2CBus, wmpc.SlaveExtension, 0xfa, 6, func(b []byte) { got = b; calls++ })
		d.processReport(readReply(0xfa, nil, wmpc.ErrorNACK))
		if calls != 1 || got != nil {
			t.Errorf("calls = %d, got %v", calls, got)
		}
		if d.exchanges.Pending() != 0 {
			t.Errorf("ack exchange not cancelled")
		}
	})

	t.Run("error ack", func(t *testing.T) {
		d := newTestDevice(t, Options{})
		calls := 0
		got := []byte{1}
		d.readData(wmpc.SpaceI2CBus, wmpc.SlaveExtension, 0xfa, 6, func(b []byte) { got = b; calls++ })
		d.processReport(ackReport(wmpc.OutputReadData, wmpc.ErrorInvalidAddress))
		d.processReport(readReply(0xfa, []byte{1, 2, 3, 4, 5, 6}, wmpc.ErrorSuccess))
		if calls != 1 || got != nil {
			t.Errorf("calls = %d, got %v", calls, got)
		}
	})
}
