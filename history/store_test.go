package history

import (
	"sync"
	"testing"
	"time"

	"gitlab.com/tinyland/lab/perf-pulse/collectors"
)

func sampleN(i int) collectors.Sample {
	v := float64(i)
	return collectors.Sample{
		Time:          time.Date(2024, 1, 1, 12, 0, i%60, 0, time.UTC),
		CPUPercent:    v,
		MemoryPercent: v + 0.5,
		NetSentMB:     v * 2,
		NetRecvMB:     v * 3,
	}
}

func TestRing_UnderCapacityKeepsAppendOrder(t *testing.T) {
	for n := 0; n <= 5; n++ {
		r := NewRing(5)
		for i := 0; i < n; i++ {
			r.Push(float64(i))
		}
		if r.Len() != n {
			t.Fatalf("n=%d: len = %d", n, r.Len())
		}
		got := r.Values()
		for i, v := range got {
			if v != float64(i) {
				t.Errorf("n=%d: values[%d] = %f, want %d", n, i, v, i)
			}
		}
	}
}

func TestRing_OverCapacityKeepsLastValues(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		pushes   int
	}{
		{"one over", 4, 5},
		{"exactly twice", 4, 8},
		{"many wraps", 3, 100},
		{"capacity one", 1, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRing(tt.capacity)
			for i := 0; i < tt.pushes; i++ {
				r.Push(float64(i))
			}
			if r.Len() != tt.capacity {
				t.Fatalf("len = %d, want %d", r.Len(), tt.capacity)
			}
			got := r.Values()
			first := tt.pushes - tt.capacity
			for i, v := range got {
				if want := float64(first + i); v != want {
					t.Errorf("values[%d] = %f, want %f", i, v, want)
				}
			}
			last, ok := r.Last()
			if !ok || last != float64(tt.pushes-1) {
				t.Errorf("Last() = %f, %v; want %d, true", last, ok, tt.pushes-1)
			}
		})
	}
}

func TestRing_ValuesIsACopy(t *testing.T) {
	r := NewRing(3)
	r.Push(1)
	v := r.Values()
	v[0] = 99
	if got := r.Values()[0]; got != 1 {
		t.Errorf("ring mutated through Values(): %f", got)
	}
}

func TestRing_NonPositiveCapacity(t *testing.T) {
	r := NewRing(0)
	if r.Cap() != 1 {
		t.Errorf("cap = %d, want 1", r.Cap())
	}
	if _, ok := r.Last(); ok {
		t.Error("expected empty ring")
	}
}

func TestStore_RecordFillsSeriesAndLog(t *testing.T) {
	s := New(3)
	for i := 1; i <= 5; i++ {
		s.Record(sampleN(i))
	}

	snap := s.Snapshot()
	wantCPU := []float64{3, 4, 5}
	for i, v := range snap.CPU {
		if v != wantCPU[i] {
			t.Errorf("CPU[%d] = %f, want %f", i, v, wantCPU[i])
		}
	}
	if len(snap.Memory) != 3 || snap.Memory[2] != 5.5 {
		t.Errorf("Memory = %v", snap.Memory)
	}
	if len(snap.NetSent) != 3 || snap.NetSent[0] != 6 {
		t.Errorf("NetSent = %v", snap.NetSent)
	}
	if len(snap.NetRecv) != 3 || snap.NetRecv[2] != 15 {
		t.Errorf("NetRecv = %v", snap.NetRecv)
	}
	if snap.Count != 5 {
		t.Errorf("Count = %d, want 5", snap.Count)
	}
	if snap.Latest != sampleN(5) {
		t.Errorf("Latest = %+v", snap.Latest)
	}

	log := s.ExportLog()
	if len(log) != 5 {
		t.Fatalf("log len = %d, want 5 (log is unbounded)", len(log))
	}
	for i, smp := range log {
		if smp != sampleN(i+1) {
			t.Errorf("log[%d] = %+v, want %+v", i, smp, sampleN(i+1))
		}
	}
}

func TestStore_EmptySnapshot(t *testing.T) {
	s := New(DefaultCapacity)
	snap := s.Snapshot()
	if !snap.Empty() {
		t.Error("expected empty snapshot")
	}
	if len(snap.CPU) != 0 || !snap.Latest.IsZero() {
		t.Errorf("unexpected data in empty snapshot: %+v", snap)
	}
	if got := s.ExportLog(); len(got) != 0 {
		t.Errorf("ExportLog() len = %d, want 0", len(got))
	}
	if s.Capacity() != DefaultCapacity {
		t.Errorf("Capacity() = %d", s.Capacity())
	}
}

func TestStore_ExportLogIsACopy(t *testing.T) {
	s := New(2)
	s.Record(sampleN(1))
	log := s.ExportLog()
	log[0].CPUPercent = 1000
	if s.ExportLog()[0].CPUPercent != 1 {
		t.Error("event log mutated through ExportLog()")
	}
}

func TestStore_Stats(t *testing.T) {
	s := New(10)
	for i := 1; i <= 100; i++ {
		s.Record(collectors.Sample{CPUPercent: float64(i), MemoryPercent: 50})
	}

	st := s.Stats()
	if st.CPU.Count != 100 {
		t.Errorf("CPU count = %d, want 100", st.CPU.Count)
	}
	if st.CPU.P50 < 49 || st.CPU.P50 > 51 {
		t.Errorf("CPU p50 = %f, want ~50", st.CPU.P50)
	}
	if st.CPU.P95 < 94 || st.CPU.P95 > 96 {
		t.Errorf("CPU p95 = %f, want ~95", st.CPU.P95)
	}
	if st.CPU.Max < 99.5 || st.CPU.Max > 100 {
		t.Errorf("CPU max = %f, want ~100", st.CPU.Max)
	}
	if st.Memory.P50 < 49.5 || st.Memory.P50 > 50.5 {
		t.Errorf("Memory p50 = %f, want ~50", st.Memory.P50)
	}
}

// TestStore_SnapshotNeverTorn records samples whose four fields are all
// derived from the same counter and checks that every concurrent reader sees
// the four series agree at every position.
func TestStore_SnapshotNeverTorn(t *testing.T) {
	s := New(16)
	const writes = 5000

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(stop)
		for i := 1; i <= writes; i++ {
			s.Record(sampleN(i))
		}
	}()

	errs := make(chan string, 4)
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := s.Snapshot()
				n := len(snap.CPU)
				if len(snap.Memory) != n || len(snap.NetSent) != n || len(snap.NetRecv) != n {
					errs <- "series lengths differ"
					return
				}
				for i := 0; i < n; i++ {
					c := snap.CPU[i]
					if snap.Memory[i] != c+0.5 || snap.NetSent[i] != c*2 || snap.NetRecv[i] != c*3 {
						errs <- "series values from different records"
						return
					}
				}
				if n > 0 && snap.Latest.CPUPercent != snap.CPU[n-1] {
					errs <- "latest sample does not match series tail"
					return
				}
				if snap.Count < n {
					errs <- "log shorter than series"
					return
				}
			}
		}()
	}

	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}

	if got := s.Len(); got != writes {
		t.Errorf("Len() = %d, want %d", got, writes)
	}
}
