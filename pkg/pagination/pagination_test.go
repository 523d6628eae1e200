package pagination

import (
	"math"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestParse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query string
		want  Params
	}{
		{"", Params{Page: 1, Limit: 20, Offset: 0}},
		{"?page=3&limit=10", Params{Page: 3, Limit: 10, Offset: 20}},
		{"?page=0&limit=0", Params{Page: 1, Limit: 20, Offset: 0}},
		{"?page=x&limit=500", Params{Page: 1, Limit: 100, Offset: 0}},
		{"?page=" + strconv.Itoa(math.MaxInt) + "&limit=20", Params{Page: math.MaxInt / 20, Limit: 20, Offset: (math.MaxInt/20 - 1) * 20}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/"+tt.query, nil)
			if got := Parse(c); got != tt.want {
				t.Fatalf("Parse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewCapsPage(t *testing.T) {
	for _, limit := range []int{1, 7, 20, MaxLimit} {
		p := New(math.MaxInt, limit)
		if p.Offset < 0 || p.Offset > math.MaxInt-p.Limit {
			t.Fatalf("New(MaxInt, %d) offset %d overflows", limit, p.Offset)
		}
	}
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	tests := []struct {
		name string
		p    Params
		want []int
	}{
		{"first page", New(1, 2), []int{1, 2}},
		{"last partial page", New(3, 2), []int{5}},
		{"past the end", New(4, 2), []int{}},
		{"everything", New(1, 100), []int{1, 2, 3, 4, 5}},
		{"huge page", New(math.MaxInt, 20), []int{}},
		{"negative offset", Params{Page: 1, Limit: 2, Offset: -4}, []int{}},
		{"offset near max int", Params{Page: 2, Limit: 100, Offset: math.MaxInt - 1}, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slice(items, tt.p)
			if len(got) != len(tt.want) {
				t.Fatalf("Slice() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Slice() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}
