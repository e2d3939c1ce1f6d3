package filters

import (
	"testing"

	"github.com/smartconfig/configurator-engine/internal/models"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
func bptr(v bool) *bool       { return &v }

func testRanges() models.Ranges {
	return models.Ranges{
		PayloadMin:  3,
		PayloadMax:  20,
		ReachMin:    700,
		ReachMax:    1800,
		Protections: []string{"IP54", "IP67"},
	}
}

func TestReconcileClampsOutOfRangeValues(t *testing.T) {
	f := models.TechFilters{
		PayloadMin: fptr(1),    // below range
		PayloadMax: fptr(50),   // above range
		ReachMin:   iptr(100),  // below range
		ReachMax:   iptr(9000), // above range
	}

	got, changed := Reconcile(f, testRanges())

	if !changed {
		t.Fatal("expected reconciliation to report a change")
	}
	if *got.PayloadMin != 3 || *got.PayloadMax != 20 {
		t.Errorf("payload clamp: expected [3, 20], got [%v, %v]", *got.PayloadMin, *got.PayloadMax)
	}
	if *got.ReachMin != 700 || *got.ReachMax != 1800 {
		t.Errorf("reach clamp: expected [700, 1800], got [%d, %d]", *got.ReachMin, *got.ReachMax)
	}
}

func TestReconcileResetsInvertedPairs(t *testing.T) {
	// Both inside the range but inverted relative to each other
	f := models.TechFilters{
		PayloadMin: fptr(15),
		PayloadMax: fptr(5),
		ReachMin:   iptr(1500),
		ReachMax:   iptr(800),
	}

	got, changed := Reconcile(f, testRanges())

	if !changed {
		t.Fatal("expected reconciliation to report a change")
	}
	if *got.PayloadMin != 3 || *got.PayloadMax != 20 {
		t.Errorf("inverted payload pair must reset to full range, got [%v, %v]", *got.PayloadMin, *got.PayloadMax)
	}
	if *got.ReachMin != 700 || *got.ReachMax != 1800 {
		t.Errorf("inverted reach pair must reset to full range, got [%d, %d]", *got.ReachMin, *got.ReachMax)
	}
}

func TestReconcileClearsUnavailableProtection(t *testing.T) {
	f := models.TechFilters{Protection: "IP69K"}

	got, changed := Reconcile(f, testRanges())

	if !changed {
		t.Fatal("expected reconciliation to report a change")
	}
	if got.Protection != "" {
		t.Errorf("unavailable protection must be cleared, got %q", got.Protection)
	}
}

func TestReconcileKeepsAvailableProtection(t *testing.T) {
	f := models.TechFilters{Protection: "IP67"}

	got, changed := Reconcile(f, testRanges())

	if changed {
		t.Error("no change expected for an available protection")
	}
	if got.Protection != "IP67" {
		t.Errorf("available protection must survive, got %q", got.Protection)
	}
}

func TestReconcileNoChangeReportsFalse(t *testing.T) {
	f := models.TechFilters{
		PayloadMin: fptr(5),
		PayloadMax: fptr(15),
		ReachMin:   iptr(800),
		ReachMax:   iptr(1500),
	}

	got, changed := Reconcile(f, testRanges())

	if changed {
		t.Error("in-range values must not report a change")
	}
	if *got.PayloadMin != 5 || *got.PayloadMax != 15 {
		t.Errorf("in-range values must not move, got [%v, %v]", *got.PayloadMin, *got.PayloadMax)
	}
}

func TestReconcileNilFieldsUntouched(t *testing.T) {
	got, changed := Reconcile(models.TechFilters{}, testRanges())

	if changed {
		t.Error("empty filters must not report a change")
	}
	if got.PayloadMin != nil || got.PayloadMax != nil || got.ReachMin != nil || got.ReachMax != nil {
		t.Error("nil constraints must stay nil")
	}
}

func TestActiveCount(t *testing.T) {
	r := testRanges()

	tests := []struct {
		name    string
		filters models.TechFilters
		want    int
	}{
		{"empty", models.TechFilters{}, 0},
		{"full-range slider not active", models.TechFilters{
			PayloadMin: fptr(3), PayloadMax: fptr(20),
			ReachMin: iptr(700), ReachMax: iptr(1800),
		}, 0},
		{"narrowed payload", models.TechFilters{
			PayloadMin: fptr(5), PayloadMax: fptr(20),
		}, 1},
		{"narrowed both sliders", models.TechFilters{
			PayloadMin: fptr(5), PayloadMax: fptr(15),
			ReachMin: iptr(800), ReachMax: iptr(1800),
		}, 2},
		{"axes and collaborative always count", models.TechFilters{
			Axes: iptr(6), Collaborative: bptr(true),
		}, 2},
		{"protection counts", models.TechFilters{Protection: "IP67"}, 1},
		{"everything", models.TechFilters{
			PayloadMin: fptr(5), PayloadMax: fptr(15),
			ReachMin: iptr(800), ReachMax: iptr(1500),
			Axes: iptr(6), Collaborative: bptr(false), Protection: "IP54",
		}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ActiveCount(tt.filters, r); got != tt.want {
				t.Errorf("expected %d active filters, got %d", tt.want, got)
			}
		})
	}
}
