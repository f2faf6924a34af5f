package alert

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-eyeguard/pkg/pipeline"
)

func TestNotifier_Check(t *testing.T) {
	n := New(0, 0)
	base := time.Unix(1_700_000_000, 0)

	steps := []struct {
		name   string
		offset time.Duration
		strain int
		want   bool
	}{
		{"at threshold is quiet", 0, 80, false},
		{"first breach alerts", 0, 81, true},
		{"inside cooldown", 3 * time.Second, 95, false},
		{"exactly at cooldown", 5 * time.Second, 95, false},
		{"after cooldown", 5*time.Second + time.Millisecond, 90, true},
		{"low strain never alerts", 20 * time.Second, 10, false},
	}

	for _, st := range steps {
		m := pipeline.Metrics{SessionID: "s", Timestamp: base.Add(st.offset), StrainIndex: st.strain}
		a, ok := n.Check(m)
		if ok != st.want {
			t.Errorf("%s: Check() ok = %v, want %v", st.name, ok, st.want)
			continue
		}
		if !ok {
			continue
		}
		if _, err := uuid.Parse(a.ID); err != nil {
			t.Errorf("%s: ID %q is not a uuid", st.name, a.ID)
		}
		if a.StrainIndex != st.strain || a.SessionID != "s" || !a.At.Equal(m.Timestamp) {
			t.Errorf("%s: alert = %+v", st.name, a)
		}
	}

	if n.Raised() != 2 {
		t.Errorf("Raised() = %d, want 2", n.Raised())
	}
}

func TestNotifier_Messages(t *testing.T) {
	a, ok := New(50, time.Minute).Check(pipeline.Metrics{Timestamp: time.Now(), StrainIndex: 88})
	if !ok {
		t.Fatal("expected alert")
	}
	if a.Title != "Eye Health Alert" {
		t.Errorf("Title = %q", a.Title)
	}
	if a.Message != "High Eye Strain Detected: 88/100" {
		t.Errorf("Message = %q", a.Message)
	}
	if a.Body != "Strain Level Critical: 88. Take a break!" {
		t.Errorf("Body = %q", a.Body)
	}
}
