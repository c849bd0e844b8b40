package wiimote

import (
	"github.com/riking/wiimote/wmpc"
)

// sendAcked sends r with the ack bit semantics of its report and calls done
// with the acknowledgement's error code.  Reports that carry no ack flag
// (WriteData) are always acknowledged by the remote.
func (d *Device) sendAcked(r wmpc.OutputReport, done func(error)) {
	id := r.ID()
	d.exchanges.Expect(wmpc.InputAck, func(in wmpc.InputReport) bool {
		a, ok := in.(wmpc.AckReport)
		return ok && a.Report == id
	}, func(in wmpc.InputReport) {
		err := in.(wmpc.AckReport).Error.Err()
		if err != nil {
			d.nack(id, err)
		}
		done(err)
	})
	d.send(r)
}

// readData reads size bytes.  onComplete receives exactly size bytes, or nil
// if any part of the read failed.  Failed reads are not retried.
func (d *Device) readData(space wmpc.AddressSpace, slave byte, address uint16, size int, onComplete func([]byte)) {
	if size <= 0 {
		onComplete([]byte{})
		return
	}
	buf := make([]byte, 0, size)

	var issue func()
	issue = func() {
		addr := address + uint16(len(buf))
		n := min(size-len(buf), wmpc.MemoryChunkSize)

		var reply, ack *exchange
		reply = d.exchanges.Expect(wmpc.InputReadDataReply, func(in wmpc.InputReport) bool {
			rd, ok := in.(wmpc.ReadDataReply)
			return ok && rd.Address == addr
		}, func(in wmpc.InputReport) {
			d.exchanges.Cancel(ack)
			rd := in.(wmpc.ReadDataReply)
			if err := rd.Error.Err(); err != nil {
				d.nack(wmpc.OutputReadData, err)
				onComplete(nil)
				return
			}
			p := rd.Payload()
			if rest := size - len(buf); len(p) > rest {
				p = p[:rest]
			}
			buf = append(buf, p...)
			if len(buf) < size {
				issue()
				return
			}
			onComplete(buf)
		})
		// a read the remote refuses outright is answered with an error ack
		ack = d.exchanges.Expect(wmpc.InputAck, func(in wmpc.InputReport) bool {
			a, ok := in.(wmpc.AckReport)
			return ok && a.Report == wmpc.OutputReadData && a.Error != wmpc.ErrorSuccess
		}, func(in wmpc.InputReport) {
			d.exchanges.Cancel(reply)
			d.nack(wmpc.OutputReadData, in.(wmpc.AckReport).Error)
			onComplete(nil)
		})

		d.send(wmpc.ReadRequest{Space: space, Slave: slave, Address: addr, Size: uint16(n)})
	}
	issue()
}

// writeData writes data in 16-byte chunks, each acknowledged before the next
// is sent.  onComplete runs once: nil after the last chunk, or the first
// failing error code.
func (d *Device) writeData(space wmpc.AddressSpace, slave byte, address uint16, data []byte, onComplete func(error)) {
	if len(data) == 0 {
		onComplete(nil)
		return
	}
	n := min(len(data), wmpc.MemoryChunkSize)
	d.sendAcked(wmpc.WriteRequest{Space: space, Slave: slave, Address: address, Data: data[:n]}, func(err error) {
		if err != nil {
			onComplete(err)
			return
		}
		d.writeData(space, slave, address+uint16(n), data[n:], onComplete)
	})
}

// writeReg writes one peripheral register.
func (d *Device) writeReg(slave byte, address uint16, v byte, onComplete func(error)) {
	d.writeData(wmpc.SpaceI2CBus, slave, address, []byte{v}, onComplete)
}
