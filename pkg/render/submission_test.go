package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/render"
)

func TestMergeAndSortHiddenFields(t *testing.T) {
	base := map[string]string{
		" existing ": "keep",
		"":           "ignored",
	}

	merged := render.MergeHiddenFields(base,
		render.CSRFToken("_csrf", "token123"),
		render.InstanceField(" form_instance ", 42),
		render.VersionField("version", 4),
		render.Hidden("  ", "skip"),
	)

	wantMerged := map[string]string{
		"existing":      "keep",
		"_csrf":         "token123",
		"form_instance": "42",
		"version":       "4",
	}
	if diff := cmp.Diff(wantMerged, merged); diff != "" {
		t.Fatalf("merged hidden fields mismatch (-want +got):\n%s", diff)
	}

	sorted := render.SortedHiddenFields(merged)
	wantSorted := []render.HiddenField{
		{Name: "_csrf", Value: "token123"},
		{Name: "existing", Value: "keep"},
		{Name: "form_instance", Value: "42"},
		{Name: "version", Value: "4"},
	}
	if diff := cmp.Diff(wantSorted, sorted); diff != "" {
		t.Fatalf("sorted hidden fields mismatch (-want +got):\n%s", diff)
	}
}

func TestMethodField(t *testing.T) {
	if _, ok := render.MethodField("post"); ok {
		t.Fatalf("POST needs no override")
	}
	field, ok := render.MethodField(" patch ")
	if !ok || field != (render.HiddenField{Name: "_method", Value: "PATCH"}) {
		t.Fatalf("unexpected override %+v (ok=%v)", field, ok)
	}
}
