package safeupdate

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestEngine(t *testing.T) (*Engine, string) {
	dir := t.TempDir()
	primary := filepath.Join(dir, "wallet.dat")
	if err := os.WriteFile(primary, []byte("0123456789"), 0600); err != nil {
		t.Fatal(err)
	}
	return NewEngine(primary), primary
}

func TestConsistencyCheckBootstrapsBackup(t *testing.T) {
	e, primary := newTestEngine(t)
	if err := e.ConsistencyCheck(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(e.BackupPath)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := os.ReadFile(primary)
	if string(data) != string(want) {
		t.Fatal("backup was not bootstrapped from primary")
	}
}

func TestApplyAppendAndModify(t *testing.T) {
	e, primary := newTestEngine(t)
	if err := e.ConsistencyCheck(); err != nil {
		t.Fatal(err)
	}

	offsets, err := e.Apply([]Op{
		Add([]byte("AAAA")),
		Modify(0, []byte("X")),
	})
	if err != nil {
		t.Fatal(err)
	}
	if offsets[0] != 10 {
		t.Fatalf("expected append offset 10, got %d", offsets[0])
	}
	if offsets[1] != 0 {
		t.Fatalf("expected modify offset 0, got %d", offsets[1])
	}

	data, _ := os.ReadFile(primary)
	if string(data) != "X123456789AAAA" {
		t.Fatalf("unexpected primary contents: %q", data)
	}
	backup, _ := os.ReadFile(e.BackupPath)
	if string(backup) != string(data) {
		t.Fatal("backup did not match primary after Apply")
	}
	if exists(e.MUFPath) || exists(e.BUFPath) {
		t.Fatal("sentinels should be cleared after a successful Apply")
	}
}

// TestCrashAfterPrimaryWrite simulates a crash after the primary is fully
// written but before the backup catches up (MUF present, BUF absent).
// With MUF present the primary may be mid-update, so ConsistencyCheck on
// reopen must restore P := B, returning the pair to the pre-update state.
func TestCrashAfterPrimaryWrite(t *testing.T) {
	e, primary := newTestEngine(t)
	if err := e.ConsistencyCheck(); err != nil {
		t.Fatal(err)
	}
	e.Fault = FaultAfterPrimaryWrite

	_, err := e.Apply([]Op{Add([]byte("ZZZZ"))})
	if err == nil {
		t.Fatal("expected injected fault to surface as an error")
	}

	if !exists(e.MUFPath) {
		t.Fatal("expected MUF to remain after simulated crash")
	}
	data, _ := os.ReadFile(primary)
	if string(data) != "0123456789ZZZZ" {
		t.Fatalf("expected primary to be fully written pre-crash, got %q", data)
	}
	backup, _ := os.ReadFile(e.BackupPath)
	if string(backup) == string(data) {
		t.Fatal("expected backup to be stale before recovery")
	}

	e.Fault = FaultNone
	if err := e.ConsistencyCheck(); err != nil {
		t.Fatal(err)
	}
	if exists(e.MUFPath) || exists(e.BUFPath) {
		t.Fatal("expected sentinels cleared after recovery")
	}
	backup, _ = os.ReadFile(e.BackupPath)
	restored, _ := os.ReadFile(primary)
	if string(restored) != string(backup) || string(restored) != "0123456789" {
		t.Fatalf("expected primary restored from the pre-update backup after recovery, got %q", restored)
	}
}

func TestCrashWithBothSentinels(t *testing.T) {
	e, primary := newTestEngine(t)
	if err := e.ConsistencyCheck(); err != nil {
		t.Fatal(err)
	}
	e.Fault = FaultAfterBothSentinels

	_, err := e.Apply([]Op{Add([]byte("Q"))})
	if err == nil {
		t.Fatal("expected injected fault")
	}
	if !exists(e.MUFPath) || !exists(e.BUFPath) {
		t.Fatal("expected both sentinels present")
	}

	e.Fault = FaultNone
	if err := e.ConsistencyCheck(); err != nil {
		t.Fatal(err)
	}
	primaryData, _ := os.ReadFile(primary)
	backupData, _ := os.ReadFile(e.BackupPath)
	if string(primaryData) != string(backupData) {
		t.Fatal("expected primary and backup to agree after recovery")
	}
	if exists(e.MUFPath) || exists(e.BUFPath) {
		t.Fatal("expected sentinels cleared")
	}
}
