package linkio

import "testing"

func TestWriteOpensPortLazily(t *testing.T) {
	f := &MockPortFactory{}
	w := NewWriter(f, 115200)

	if err := w.Write("/dev/ttyACM0", []byte("1,0,0,0,0,0,0\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if f.OpenCount != 1 {
		t.Fatalf("OpenCount = %d, want 1", f.OpenCount)
	}
	if f.LastBaud != 115200 {
		t.Fatalf("LastBaud = %d, want 115200", f.LastBaud)
	}
	if len(f.LastPort.Writes()) != 1 {
		t.Fatalf("writes = %d, want 1", len(f.LastPort.Writes()))
	}
}

func TestWriteReopensOnPathChange(t *testing.T) {
	f := &MockPortFactory{}
	w := NewWriter(f, 115200)

	w.Write("/dev/ttyACM0", []byte("a\n"))
	first := f.LastPort
	w.Write("/dev/ttyACM1", []byte("b\n"))

	if f.OpenCount != 2 {
		t.Fatalf("OpenCount = %d, want 2 after path change", f.OpenCount)
	}
	if !first.Closed() {
		t.Fatal("previous port should be closed after a path change")
	}
}

func TestWriteReconnectsAfterTransientFailure(t *testing.T) {
	f := &MockPortFactory{}
	w := NewWriter(f, 115200)

	w.Write("/dev/ttyACM0", []byte("a\n"))
	f.LastPort.FailNextWrite()
	if err := w.Write("/dev/ttyACM0", []byte("b\n")); err == nil {
		t.Fatal("expected an error on the simulated failing write")
	}

	if err := w.Write("/dev/ttyACM0", []byte("c\n")); err != nil {
		t.Fatalf("Write after failure: %v", err)
	}
	if f.OpenCount != 2 {
		t.Fatalf("OpenCount = %d, want 2 (reopened after failure)", f.OpenCount)
	}
}

func TestWriteEmptyPathIsNoop(t *testing.T) {
	f := &MockPortFactory{}
	w := NewWriter(f, 115200)
	if err := w.Write("", []byte("x\n")); err != nil {
		t.Fatalf("Write with empty path: %v", err)
	}
	if f.OpenCount != 0 {
		t.Fatalf("OpenCount = %d, want 0 for an unset port", f.OpenCount)
	}
}
