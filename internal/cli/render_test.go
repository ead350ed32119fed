package cli

import (
	"reflect"
	"testing"

	"github.com/matzehuels/magflat/pkg/errors"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"svg"}},
		{"png", []string{"png"}},
		{"svg, png ,pdf", []string{"svg", "png", "pdf"}},
		{",,", []string{"svg"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseFormats(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseList(t *testing.T) {
	if got := parseList(""); got != nil {
		t.Errorf("parseList(\"\") = %v, want nil", got)
	}
	got := parseList("metal1, via1,,metal2 ")
	if want := []string{"metal1", "via1", "metal2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("parseList = %v, want %v", got, want)
	}
}

func TestValidateFormats(t *testing.T) {
	if err := validateFormats([]string{"svg", "png", "pdf"}); err != nil {
		t.Errorf("valid formats rejected: %v", err)
	}
	if err := validateFormats([]string{"svg", "gif"}); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("want INVALID_FORMAT, got %v", err)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		output string
		input  string
		format string
		single bool
		want   string
	}{
		{"derived from input", "", "cells/inv.mag", "svg", true, "cells/inv.svg"},
		{"single explicit", "out/inv.svg", "inv.mag", "svg", true, "out/inv.svg"},
		{"single odd extension", "inv.image", "inv.mag", "png", true, "inv.image"},
		{"several from base", "out/inv", "inv.mag", "png", false, "out/inv.png"},
		{"several strip known ext", "out/inv.svg", "inv.mag", "pdf", false, "out/inv.pdf"},
		{"several keep unknown ext", "out/inv.v2", "inv.mag", "pdf", false, "out/inv.v2.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outputPath(tt.output, tt.input, tt.format, tt.single); got != tt.want {
				t.Errorf("outputPath(%q, %q, %q, %v) = %q, want %q",
					tt.output, tt.input, tt.format, tt.single, got, tt.want)
			}
		})
	}
}
