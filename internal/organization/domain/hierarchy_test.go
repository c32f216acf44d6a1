package domain

import (
	"errors"
	"testing"
)

func ptr(s string) *string { return &s }

func TestValidateHierarchy(t *testing.T) {
	valid := []Organization{
		{ID: "n", Type: TypeNational},
		{ID: "d", Type: TypeDivision, ParentID: ptr("n")},
		{ID: "b1", Type: TypeBranch, ParentID: ptr("d")},
		{ID: "b2", Type: TypeBranch, ParentID: ptr("d")},
	}
	if err := ValidateHierarchy(valid); err != nil {
		t.Fatalf("expected valid hierarchy, got %v", err)
	}

	cases := []struct {
		name string
		orgs []Organization
		want error
	}{
		{
			name: "orphan branch",
			orgs: []Organization{{ID: "b", Type: TypeBranch}},
			want: ErrMissingParent,
		},
		{
			name: "dangling parent",
			orgs: []Organization{{ID: "b", Type: TypeBranch, ParentID: ptr("ghost")}},
			want: ErrMissingParent,
		},
		{
			name: "branch under national",
			orgs: []Organization{{ID: "n", Type: TypeNational}, {ID: "b", Type: TypeBranch, ParentID: ptr("n")}},
			want: ErrInvalidHierarchy,
		},
		{
			name: "national with parent",
			orgs: []Organization{{ID: "n1", Type: TypeNational}, {ID: "n2", Type: TypeNational, ParentID: ptr("n1")}},
			want: ErrInvalidHierarchy,
		},
		{
			name: "unknown type",
			orgs: []Organization{{ID: "x", Type: "region"}},
			want: ErrInvalidType,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidateHierarchy(tc.orgs); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestParentType(t *testing.T) {
	if ParentType(TypeBranch) != TypeDivision || ParentType(TypeDivision) != TypeNational || ParentType(TypeNational) != "" {
		t.Fatalf("unexpected parent types")
	}
}
