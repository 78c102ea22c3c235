package index

import (
	"slices"
	"strings"
	"testing"
)

func TestReconcile(t *testing.T) {
	tests := []struct {
		name       string
		existing   []existingIndex
		wantDrop   []string
		wantCreate bool
	}{
		{"none", nil, nil, true},
		{"canonical valid", []existingIndex{{name: Name, valid: true}}, nil, false},
		{"canonical invalid", []existingIndex{{name: Name, valid: false}}, []string{Name}, true},
		{
			"conflicting only",
			[]existingIndex{{name: "courses_fts", valid: true}},
			[]string{"courses_fts"},
			true,
		},
		{
			"conflicting and canonical",
			[]existingIndex{{name: "old_text", valid: true}, {name: Name, valid: true}},
			[]string{"old_text"},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drop, create := reconcile(tt.existing)
			if !slices.Equal(drop, tt.wantDrop) {
				t.Errorf("drop = %v, want %v", drop, tt.wantDrop)
			}
			if create != tt.wantCreate {
				t.Errorf("create = %v, want %v", create, tt.wantCreate)
			}
		})
	}
}

func TestIsTextIndex(t *testing.T) {
	tests := []struct {
		def  string
		want bool
	}{
		{"CREATE INDEX course_text_index ON public.courses USING gin (search_vector)", true},
		{"CREATE INDEX x ON public.courses USING gin (to_tsvector('english'::regconfig, title))", true},
		{"CREATE INDEX idx_courses_categories ON public.courses USING gin (categories)", false},
	}

	for _, tt := range tests {
		if got := isTextIndex(tt.def); got != tt.want {
			t.Errorf("isTextIndex(%q) = %v, want %v", tt.def, got, tt.want)
		}
	}
}

func TestBuildQuery(t *testing.T) {
	cat := "Data Science"
	prov := "udemy"

	t.Run("unfiltered unbounded", func(t *testing.T) {
		q, args := buildQuery("python", Filter{}, 0)
		if strings.Contains(q, "LIMIT") {
			t.Errorf("unexpected LIMIT in %s", q)
		}
		if len(args) != 1 {
			t.Errorf("args = %v", args)
		}
	})

	t.Run("filters and limit", func(t *testing.T) {
		q, args := buildQuery("python", Filter{Category: &cat, Provider: &prov}, 25)
		for _, want := range []string{"c.provider = $2", "$3 = ANY(c.categories)", "LIMIT 25", "ORDER BY score DESC, c.id"} {
			if !strings.Contains(q, want) {
				t.Errorf("query missing %q: %s", want, q)
			}
		}
		if len(args) != 3 || args[1] != prov || args[2] != cat {
			t.Errorf("args = %v", args)
		}
	})
}
