package paging

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromQuery(t *testing.T) {
	tests := []struct {
		name  string
		query url.Values
		want  Params
	}{
		{"defaults", url.Values{}, Params{Page: 1, Limit: 10}},
		{"explicit", url.Values{"page": {"3"}, "limit": {"25"}}, Params{Page: 3, Limit: 25}},
		{"non numeric falls back", url.Values{"page": {"x"}, "limit": {"y"}}, Params{Page: 1, Limit: 10}},
		{"non positive falls back", url.Values{"page": {"0"}, "limit": {"-5"}}, Params{Page: 1, Limit: 10}},
		{"limit capped", url.Values{"limit": {"1000"}}, Params{Page: 1, Limit: MaxLimit}},
		{"page capped", url.Values{"page": {"9223372036854775807"}}, Params{Page: MaxPage, Limit: 10}},
		{"page beyond int falls back", url.Values{"page": {"99999999999999999999"}}, Params{Page: 1, Limit: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromQuery(tt.query))
		})
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 20, Params{Page: 3, Limit: 10}.Offset())
	assert.Equal(t, 14, Params{Page: 3, Limit: 7}.Offset())
}

func TestOffsetNeverOverflows(t *testing.T) {
	for _, limit := range []string{"1", "10", "100", "1000"} {
		p := FromQuery(url.Values{"page": {"9223372036854775807"}, "limit": {limit}})
		assert.GreaterOrEqual(t, p.Offset(), 0, "limit=%s", limit)
	}
}

func TestTotalPagesIsCeiling(t *testing.T) {
	for limit := 1; limit <= 12; limit++ {
		for total := 0; total <= 50; total++ {
			p := Params{Page: 1, Limit: limit}
			want := int(math.Ceil(float64(total) / float64(limit)))
			assert.Equal(t, want, p.TotalPages(total), "total=%d limit=%d", total, limit)
		}
	}
}

func TestNewResponse(t *testing.T) {
	p := Params{Page: 2, Limit: 10}
	resp := NewResponse[string](p, 25, nil)
	assert.Equal(t, 25, resp.TotalItems)
	assert.Equal(t, 2, resp.CurrentPage)
	assert.Equal(t, 3, resp.TotalPages)
	assert.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)
}
