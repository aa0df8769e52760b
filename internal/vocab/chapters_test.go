package vocab

import (
	"reflect"
	"strconv"
	"strings"
	"testing"
)

func TestParseChapterRange(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []int
	}{
		{"simple range plus single", "4-8,10", []int{4, 5, 6, 7, 8, 10}},
		{"reversed endpoints swapped", "10-4", []int{4, 5, 6, 7, 8, 9, 10}},
		{"garbage dropped silently", "0,-1,abc", []int{}},
		{"overlapping ranges deduplicated", "1-3,3-5", []int{1, 2, 3, 4, 5}},
		{"single chapter", "7", []int{7}},
		{"spaces around tokens", " 2 , 4 - 6 ", []int{2, 4, 5, 6}},
		{"empty input", "", []int{}},
		{"only separators", ",,,", []int{}},
		{"en dash", "4–6", []int{4, 5, 6}},
		{"em dash", "4—6", []int{4, 5, 6}},
		{"tilde", "4~6", []int{4, 5, 6}},
		{"full-width digits and tilde", "４～６", []int{4, 5, 6}},
		{"ideographic comma and middle dot", "1、3・5", []int{1, 3, 5}},
		{"zero endpoint kills the token", "0-3,5", []int{5}},
		{"duplicate singles", "3,3,3", []int{3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseChapterRange(tc.input)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ParseChapterRange(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseChapterRangeIdempotent(t *testing.T) {
	for _, input := range []string{"4-8,10", "10-4", "1-3,3-5", "2, 9 ,1-1", "７、１-３"} {
		first := ParseChapterRange(input)
		parts := make([]string, len(first))
		for i, c := range first {
			parts[i] = strconv.Itoa(c)
		}
		second := ParseChapterRange(strings.Join(parts, ","))
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("parse(%q) not stable: %v then %v", input, first, second)
		}
	}
}
