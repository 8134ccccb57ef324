package urldetails

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string][]string
	}{
		{
			name: "empty is absent",
			raw:  "",
			want: nil,
		},
		{
			name: "repeated keys and bare key",
			raw:  "a=1&a=2&b",
			want: map[string][]string{"a": {"1", "2"}, "b": {}},
		},
		{
			name: "leading question mark",
			raw:  "?x=y",
			want: map[string][]string{"x": {"y"}},
		},
		{
			name: "escaped question mark is part of the key",
			raw:  "?%3Fa=1",
			want: map[string][]string{"?a": {"1"}},
		},
		{
			name: "question mark only",
			raw:  "?",
			want: map[string][]string{},
		},
		{
			name: "comma separated values",
			raw:  "ids=1,2,3&ids=4",
			want: map[string][]string{"ids": {"1", "2", "3", "4"}},
		},
		{
			name: "empty tokens discarded",
			raw:  "&&a=1&&",
			want: map[string][]string{"a": {"1"}},
		},
		{
			name: "empty value has no entries",
			raw:  "a=",
			want: map[string][]string{"a": {}},
		},
		{
			name: "split once on equals",
			raw:  "expr=x=y",
			want: map[string][]string{"expr": {"x=y"}},
		},
		{
			name: "empty key dropped",
			raw:  "=orphan&k=v",
			want: map[string][]string{"k": {"v"}},
		},
		{
			name: "decoded before splitting",
			raw:  "q=hello%20world&list=a%2Cb",
			want: map[string][]string{"q": {"hello world"}, "list": {"a", "b"}},
		},
		{
			name: "plus is a space",
			raw:  "q=a+b",
			want: map[string][]string{"q": {"a b"}},
		},
		{
			name: "malformed escape tolerated",
			raw:  "p=100%&q=1",
			want: map[string][]string{"p": {"100%"}, "q": {"1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseQuery(tt.raw)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, listsToSlices(got))
		})
	}
}

func TestParseQuery_RoundTrip(t *testing.T) {
	inputs := []string{
		"a=1&a=2&b",
		"ids=1,2,3&ids=4&name=caf%C3%A9",
		"q=hello+world&expr=x%3Dy&sym=%2B%25",
		"k=,x&empty=&z=last",
		"weird%2Ckey=v",
		"??a=1",
		"%3Fa=1&b=2",
	}

	for _, raw := range inputs {
		t.Run(raw, func(t *testing.T) {
			first := ParseQuery(raw)
			second := ParseQuery(EncodeQuery(first))
			assert.Equal(t, listsToSlices(first), listsToSlices(second))
		})
	}
}

func TestEncodeQuery(t *testing.T) {
	q := ParseQuery("b=2&a=1,x&c")
	assert.Equal(t, "a=1,x&b=2&c", EncodeQuery(q))
	assert.Equal(t, "", EncodeQuery(nil))
}

func TestParseValues_NoCommaSplit(t *testing.T) {
	got := ParseValues("a=1,2&a=3", false)
	assert.Equal(t, map[string][]string{"a": {"1,2", "3"}}, listsToSlices(got))
}

func TestParseForm(t *testing.T) {
	got := ParseForm("name=Jane+Doe&note=a%26b%2Cc&flag&name=J")
	assert.Equal(t, map[string][]string{
		"name": {"Jane Doe", "J"},
		"note": {"a&b,c"},
		"flag": {},
	}, listsToSlices(got))

	assert.Nil(t, ParseForm(""))
}
