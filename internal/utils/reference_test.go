package utils

import (
    "strconv"
    "strings"
    "testing"
    "time"
)

func TestNewBookingReference(t *testing.T) {
    now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
    wantTS := strings.ToUpper(strconv.FormatInt(now.Unix(), 36))

    ref, err := NewBookingReference(now)
    if err != nil {
        t.Fatal(err)
    }
    if !strings.HasPrefix(ref, "FB") {
        t.Fatalf("reference %q must start with FB", ref)
    }
    if got := ref[2 : 2+len(wantTS)]; got != wantTS {
        t.Fatalf("timestamp component %q, want %q", got, wantTS)
    }
    if len(ref) != 2+len(wantTS)+3 {
        t.Fatalf("reference %q has length %d, want %d", ref, len(ref), 2+len(wantTS)+3)
    }
    for _, r := range ref[2+len(wantTS):] {
        if !strings.ContainsRune(referenceAlphabet, r) {
            t.Fatalf("suffix char %q outside alphabet", r)
        }
    }
}

func TestNewBookingReferenceSortsByTime(t *testing.T) {
    earlier, err := NewBookingReference(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
    if err != nil {
        t.Fatal(err)
    }
    later, err := NewBookingReference(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC))
    if err != nil {
        t.Fatal(err)
    }
    if !(earlier < later) {
        t.Fatalf("%q should sort before %q", earlier, later)
    }
}
