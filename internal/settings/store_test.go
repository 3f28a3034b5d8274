package settings

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), map[Key]any{KeyHotkey: "CommandOrControl+Shift+M"})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

// sampleValues holds one valid non-default value per key
var sampleValues = map[Key]any{
	KeyWindowWidth:        1440,
	KeyWindowHeight:       900,
	KeyDisplayName:        "Robin",
	KeyLastRoom:           "standup",
	KeyMicMuted:           true,
	KeyVolume:             35,
	KeyNoiseGateEnabled:   true,
	KeyNoiseGateThreshold: -42,
	KeyHotkey:             "Alt+F9",
	KeySelectedMicrophone: "USB Audio Device",
}

func TestSampleValuesCoverSchema(t *testing.T) {
	if len(sampleValues) != len(schema) {
		t.Fatalf("sampleValues has %d keys, schema has %d", len(sampleValues), len(schema))
	}
}

func TestGetReturnsDefaults(t *testing.T) {
	s := newTestStore(t)

	want := map[Key]any{
		KeyWindowWidth:        1200,
		KeyWindowHeight:       800,
		KeyDisplayName:        "",
		KeyLastRoom:           "",
		KeyMicMuted:           false,
		KeyVolume:             100,
		KeyNoiseGateEnabled:   false,
		KeyNoiseGateThreshold: -50,
		KeyHotkey:             "CommandOrControl+Shift+M",
		KeySelectedMicrophone: "",
	}
	for k, v := range want {
		got, err := s.Get(k)
		if err != nil {
			t.Fatalf("Get(%s): %v", k, err)
		}
		if got != v {
			t.Errorf("Get(%s) = %v, want %v", k, got, v)
		}
	}
}

func TestSetThenGet(t *testing.T) {
	s := newTestStore(t)

	for k, v := range sampleValues {
		if err := s.Set(k, v); err != nil {
			t.Fatalf("Set(%s): %v", k, err)
		}
		got, err := s.Get(k)
		if err != nil {
			t.Fatalf("Get(%s): %v", k, err)
		}
		if got != v {
			t.Errorf("Get(%s) = %v, want %v", k, got, v)
		}
	}
}

func TestSetIsDurable(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(KeyLastRoom, "design-review"); err != nil {
		t.Fatal(err)
	}
	// JSON numbers come back as float64 and must be coerced on load
	if err := s.Set(KeyVolume, float64(70)); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewStore(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := reopened.GetString(KeyLastRoom); got != "design-review" {
		t.Errorf("lastRoom after reopen = %q", got)
	}
	if got := reopened.GetInt(KeyVolume); got != 70 {
		t.Errorf("volume after reopen = %d", got)
	}
}

func TestClearAllRestoresDefaults(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range sampleValues {
		if err := s.Set(k, v); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.ClearAll(); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}

	for k := range schema {
		got, _ := s.Get(k)
		if got != s.Default(k) {
			t.Errorf("after ClearAll Get(%s) = %v, want default %v", k, got, s.Default(k))
		}
	}

	reopened, err := NewStore(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := reopened.GetString(KeyDisplayName); got != "" {
		t.Errorf("residual value after reopen: %q", got)
	}
}

func TestSetRejectsInvalidValues(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name    string
		key     Key
		value   any
		wantErr error
	}{
		{"unknown key", Key("theme"), "dark", ErrUnknownKey},
		{"volume above range", KeyVolume, 101, ErrInvalidValue},
		{"volume below range", KeyVolume, -1, ErrInvalidValue},
		{"fractional volume", KeyVolume, 12.5, ErrInvalidValue},
		{"string for bool", KeyMicMuted, "yes", ErrInvalidValue},
		{"number for string", KeyDisplayName, 42.0, ErrInvalidValue},
		{"zero width", KeyWindowWidth, 0, ErrInvalidValue},
		{"positive threshold", KeyNoiseGateThreshold, 3, ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Set(tt.key, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Set(%s, %v) error = %v, want %v", tt.key, tt.value, err, tt.wantErr)
			}
		})
	}

	if got := s.GetInt(KeyVolume); got != 100 {
		t.Errorf("rejected write changed volume to %d", got)
	}
}

func TestGetAllOmitsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	doc := map[string]any{"displayName": "Sam", "legacyTheme": "dark", "volume": "loud"}
	data, _ := json.Marshal(doc)
	if err := os.WriteFile(filepath.Join(dir, FileName), data, 0644); err != nil {
		t.Fatal(err)
	}

	s, err := NewStore(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	all := s.GetAll()
	if len(all) != len(schema) {
		t.Errorf("GetAll returned %d keys, want %d", len(all), len(schema))
	}
	if _, ok := all[Key("legacyTheme")]; ok {
		t.Error("unknown key returned by GetAll")
	}
	if all[KeyDisplayName] != "Sam" {
		t.Errorf("displayName = %v", all[KeyDisplayName])
	}
	if all[KeyVolume] != 100 {
		t.Errorf("invalid stored volume should fall back to default, got %v", all[KeyVolume])
	}
}

func TestCorruptFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := NewStore(dir, nil)
	if err != nil {
		t.Fatalf("corrupt file should not fail startup: %v", err)
	}
	if got := s.GetInt(KeyVolume); got != 100 {
		t.Errorf("volume = %d, want default", got)
	}
}

func TestConcurrentWritesLastWins(t *testing.T) {
	s := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if err := s.Set(KeyVolume, n); err != nil {
				t.Errorf("Set: %v", err)
			}
		}(i)
	}
	wg.Wait()

	// Sequential writes after the burst must always win
	if err := s.Set(KeyVolume, 55); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(KeyVolume, 56); err != nil {
		t.Fatal(err)
	}
	if got := s.GetInt(KeyVolume); got != 56 {
		t.Errorf("volume = %d, want 56", got)
	}
}

func TestSetMany(t *testing.T) {
	s := newTestStore(t)
	err := s.SetMany(map[Key]any{KeyWindowWidth: 1000, KeyWindowHeight: 700})
	if err != nil {
		t.Fatal(err)
	}
	if s.GetInt(KeyWindowWidth) != 1000 || s.GetInt(KeyWindowHeight) != 700 {
		t.Errorf("bounds = %dx%d", s.GetInt(KeyWindowWidth), s.GetInt(KeyWindowHeight))
	}

	if err := s.SetMany(map[Key]any{KeyWindowWidth: 900, KeyWindowHeight: -1}); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
	if s.GetInt(KeyWindowWidth) != 1000 {
		t.Error("partial SetMany must not apply")
	}
}
