package safeupdate

import "os"

// OpKind distinguishes an append from an in-place modification within an
// update batch (spec.md §4.5).
type OpKind int

const (
	OpAdd OpKind = iota
	OpModify
)

// Op is one operation in an update batch: either ADD(payload), which is
// appended to the end of the file, or MODIFY(offset, bytes), which is
// seek-written at an existing offset.
type Op struct {
	Kind    OpKind
	Payload []byte
	Offset  int64
}

// Add returns an ADD op.
func Add(payload []byte) Op { return Op{Kind: OpAdd, Payload: payload} }

// Modify returns a MODIFY op.
func Modify(offset int64, payload []byte) Op { return Op{Kind: OpModify, Offset: offset, Payload: payload} }

// Apply runs one safe-update batch over ops and returns, for each op in
// input order, the absolute file offset it now occupies (the start of the
// appended record for ADDs, or the given offset for MODIFYs) — callers
// use these to set address.Record.WalletByteLoc only after Apply returns
// successfully (spec.md §4.5 "Return value").
func (e *Engine) Apply(ops []Op) ([]int64, error) {
	if err := e.ConsistencyCheck(); err != nil {
		return nil, err
	}

	info, err := os.Stat(e.PrimaryPath)
	if err != nil {
		return nil, err
	}
	oldSize := info.Size()

	var appendBlob []byte
	offsets := make([]int64, len(ops))
	cumulative := int64(0)
	for i, op := range ops {
		switch op.Kind {
		case OpAdd:
			offsets[i] = oldSize + cumulative
			appendBlob = append(appendBlob, op.Payload...)
			cumulative += int64(len(op.Payload))
		case OpModify:
			offsets[i] = op.Offset
		}
	}

	if err := touch(e.MUFPath); err != nil {
		return nil, err
	}

	if err := e.writeSide(e.PrimaryPath, appendBlob, ops); err != nil {
		return nil, err
	}
	if e.Fault == FaultAfterPrimaryWrite {
		return nil, faultTriggered{e.Fault}
	}

	if err := touch(e.BUFPath); err != nil {
		return nil, err
	}
	if e.Fault == FaultAfterBothSentinels {
		return nil, faultTriggered{e.Fault}
	}

	if err := removeIfExists(e.MUFPath); err != nil {
		return nil, err
	}
	if e.Fault == FaultAfterMUFRemoved {
		return nil, faultTriggered{e.Fault}
	}

	if err := e.writeSide(e.BackupPath, appendBlob, ops); err != nil {
		return nil, err
	}
	if err := removeIfExists(e.BUFPath); err != nil {
		return nil, err
	}

	return offsets, nil
}

// writeSide appends appendBlob and applies every MODIFY in ops, in the
// caller-supplied order, to the file at path, then flushes to stable
// storage (spec.md §5 "Ordering guarantees").
func (e *Engine) writeSide(path string, appendBlob []byte, ops []Op) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	if len(appendBlob) > 0 {
		if _, err := f.Seek(0, os.SEEK_END); err != nil {
			return err
		}
		if _, err := f.Write(appendBlob); err != nil {
			return err
		}
	}
	for _, op := range ops {
		if op.Kind != OpModify {
			continue
		}
		if _, err := f.WriteAt(op.Payload, op.Offset); err != nil {
			return err
		}
	}
	return f.Sync()
}
