package roster

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/kozaktomas/campus-attendance/internal/database"
	"github.com/kozaktomas/campus-attendance/internal/database/mock"
	"github.com/kozaktomas/campus-attendance/internal/events"
	"github.com/kozaktomas/campus-attendance/internal/facematch"
	"github.com/kozaktomas/campus-attendance/internal/logger"
	"github.com/kozaktomas/campus-attendance/internal/stats"
)

func entry(id, name string, emb ...float32) database.RosterEntry {
	return database.RosterEntry{StudentID: id, Name: name, Embedding: emb}
}

func TestSnapshot_Match(t *testing.T) {
	snap := NewSnapshot([]database.RosterEntry{
		entry("S1", "Ana", 0, 0),
		entry("S2", "Bo", 1, 0),
	}, Options{})

	tests := []struct {
		name      string
		probe     []float32
		wantKnown bool
		wantID    string
		wantLabel string
	}{
		{"exact first", []float32{0, 0}, true, "S1", "Ana"},
		{"near second", []float32{0.9, 0.1}, true, "S2", "Bo"},
		{"too far", []float32{5, 5}, false, "", facematch.UnknownLabel},
		{"wrong dimension", []float32{0, 0, 0}, false, "", facematch.UnknownLabel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := snap.Match(tt.probe, facematch.DefaultThreshold)
			if id.Known != tt.wantKnown || id.StudentID != tt.wantID || id.Label() != tt.wantLabel {
				t.Errorf("got %+v (label %q)", id, id.Label())
			}
		})
	}
}

func TestSnapshot_EmptyIsUnknown(t *testing.T) {
	id := Empty().Match([]float32{0, 0}, facematch.DefaultThreshold)
	if id.Known || id.Label() != facematch.UnknownLabel {
		t.Errorf("expected unknown, got %+v", id)
	}
}

func TestSnapshot_IndexedAgreesWithExact(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	entries := make([]database.RosterEntry, 200)
	for i := range entries {
		emb := make([]float32, 16)
		for j := range emb {
			emb[j] = rng.Float32() * 4
		}
		entries[i] = database.RosterEntry{StudentID: fmt.Sprintf("S%03d", i), Name: "n", Embedding: emb}
	}

	indexed := NewSnapshot(entries, Options{IndexMinSize: 100, Candidates: 200})
	exact := NewSnapshot(entries, Options{})
	if !indexed.Indexed() || exact.Indexed() {
		t.Fatalf("unexpected index state: indexed=%v exact=%v", indexed.Indexed(), exact.Indexed())
	}

	// Probes equal to roster entries must resolve to themselves with distance 0.
	for _, i := range []int{0, 57, 199} {
		probe := entries[i].Embedding
		got := indexed.Match(probe, facematch.DefaultThreshold)
		want := exact.Match(probe, facematch.DefaultThreshold)
		if got.StudentID != want.StudentID || got.Distance != 0 {
			t.Errorf("entry %d: indexed %+v, exact %+v", i, got, want)
		}
	}
}

func TestStore_ReloadPublishesAndSkips(t *testing.T) {
	students := mock.NewMockStudentStore()
	students.AddStudent(database.Student{ID: "S1", Name: "Ana", Embedding: []float32{0, 0}})
	students.AddCorruptRow("S9", errors.New("bad vector"))
	counters := &stats.Counters{}

	store := NewStore(students, Options{}, logger.Nop(), counters)
	if store.Current().Len() != 0 {
		t.Fatalf("expected empty roster before reload")
	}

	snap, err := store.Reload(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Len() != 1 || store.Current() != snap {
		t.Errorf("expected published snapshot with 1 entry, got %d", snap.Len())
	}
	if counters.RosterRowsSkipped.Load() != 1 {
		t.Errorf("expected 1 skipped row, got %d", counters.RosterRowsSkipped.Load())
	}
	if counters.RosterReloads.Load() != 1 {
		t.Errorf("expected 1 reload, got %d", counters.RosterReloads.Load())
	}
}

func TestStore_ReloadErrorKeepsPrevious(t *testing.T) {
	students := mock.NewMockStudentStore()
	students.AddStudent(database.Student{ID: "S1", Name: "Ana", Embedding: []float32{0, 0}})
	store := NewStore(students, Options{}, logger.Nop(), nil)
	before, _ := store.Reload(context.Background())

	students.LoadRosterError = errors.New("connection refused")
	_, err := store.Reload(context.Background())
	if !database.IsStorageError(err) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if store.Current() != before {
		t.Error("failed reload replaced the snapshot")
	}
}

func TestStore_ConcurrentReadsDuringReload(t *testing.T) {
	students := mock.NewMockStudentStore()
	store := NewStore(students, Options{}, logger.Nop(), nil)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			students.AddStudent(database.Student{ID: fmt.Sprintf("S%02d", i), Name: "n", Embedding: []float32{float32(i), 0}})
			if _, err := store.Reload(context.Background()); err != nil {
				t.Errorf("reload failed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			snap := store.Current()
			// A snapshot is internally consistent whatever its size.
			if len(snap.Entries()) != snap.Len() {
				t.Error("inconsistent snapshot")
			}
		}()
	}
	wg.Wait()

	if store.Current().Len() != 20 {
		t.Errorf("expected final roster of 20, got %d", store.Current().Len())
	}
}

func TestStore_FollowReloadsOnRosterChanged(t *testing.T) {
	students := mock.NewMockStudentStore()
	counters := &stats.Counters{}
	store := NewStore(students, Options{}, logger.Nop(), counters)

	ch := make(chan events.Event)
	done := make(chan struct{})
	go func() {
		store.Follow(context.Background(), ch)
		close(done)
	}()

	students.AddStudent(database.Student{ID: "S1", Name: "Ana", Embedding: []float32{0, 0}})
	ch <- events.Event{Type: events.TypeAttendanceMarked, StudentID: "S1"}
	ch <- events.Event{Type: events.TypeRosterChanged}
	close(ch)
	<-done

	if store.Current().Len() != 1 {
		t.Errorf("expected roster of 1 after change notice, got %d", store.Current().Len())
	}
	if counters.RosterReloads.Load() != 1 {
		t.Errorf("expected exactly 1 reload, got %d", counters.RosterReloads.Load())
	}
}
