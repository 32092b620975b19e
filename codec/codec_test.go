// MIT License
//
// Copyright (c) 2023 Lack
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package codec

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type color int

const (
	red color = iota
	green
	blue
)

func (color) EnumNames() []string {
	return []string{"Red", "Green", "Blue"}
}

type handlers struct{}

func (handlers) OnStart() {}

func TestCanInline(t *testing.T) {
	var nilPtr *int
	n := 3

	tests := []struct {
		v    any
		want bool
	}{
		{1, true},
		{"text", true},
		{3.5, true},
		{true, true},
		{green, true},
		{time.Second, true},
		{time.Now(), true},
		{uuid.New(), true},
		{decimal.NewFromInt(3), true},
		{&n, true},
		{handlers{}.OnStart, true},
		{nilPtr, false},
		{nil, false},
		{struct{ A int }{}, false},
		{[]int{1}, false},
		{[]byte("raw"), true},
		{[2]byte{}, true},
		{map[string]int{}, false},
	}

	for i, tt := range tests {
		if got := CanInline(tt.v); got != tt.want {
			t.Errorf("#%d: CanInline(%T) = %v, want %v", i, tt.v, got, tt.want)
		}
	}
}

func TestTextRoundTrip(t *testing.T) {
	n := int16(-12)
	ts := time.Date(2023, 6, 1, 8, 30, 15, 123456789, time.FixedZone("CST", 8*3600))

	tests := []any{
		int(42),
		int8(-8),
		uint64(1 << 60),
		float32(1.25),
		3.141592653589793,
		true,
		"plain",
		"{looks like an extension}",
		"{}abc",
		"a, b = 'c' \"d\"",
		blue,
		90 * time.Minute,
		uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		decimal.RequireFromString("12.50"),
		[]byte("hi"),
		[3]byte{1, 2, 3},
		&n,
	}

	for i, want := range tests {
		text, err := ToText(want)
		require.NoError(t, err, "#%d", i)
		got, err := FromText(text, reflect.TypeOf(want))
		require.NoError(t, err, "#%d: %q", i, text)
		if !Equal(got, want, reflect.TypeOf(want)) {
			t.Errorf("#%d: round trip of %v through %q gave %v", i, want, text, got.Interface())
		}
	}

	text, err := ToText(ts)
	require.NoError(t, err)
	assert.Equal(t, "2023-06-01T08:30:15.123456789+08:00", text)
	got, err := FromText(text, reflect.TypeOf(ts))
	require.NoError(t, err)
	assert.True(t, ts.Equal(got.Interface().(time.Time)))
}

func TestEscape(t *testing.T) {
	text, err := ToText("{x:Null}")
	require.NoError(t, err)
	assert.Equal(t, "{}{x:Null}", text)

	text, err = ToText("{}abc")
	require.NoError(t, err)
	assert.Equal(t, "{}{}abc", text)

	v, err := FromText(text, reflect.TypeOf(""))
	require.NoError(t, err)
	assert.Equal(t, "{}abc", v.String())

	assert.Equal(t, "abc", Unescape("abc"))
}

func TestEnum(t *testing.T) {
	text, err := ToText(green)
	require.NoError(t, err)
	assert.Equal(t, "Green", text)

	v, err := FromText("blue", reflect.TypeOf(red))
	require.NoError(t, err)
	assert.Equal(t, blue, v.Interface())

	v, err = FromText("1", reflect.TypeOf(red))
	require.NoError(t, err)
	assert.Equal(t, green, v.Interface())

	_, err = FromText("Purple", reflect.TypeOf(red))
	assert.Error(t, err)

	text, err = ToText(color(7))
	require.NoError(t, err)
	assert.Equal(t, "7", text)
}

func TestFromTextErrors(t *testing.T) {
	_, err := FromText("abc", reflect.TypeOf(0))
	assert.Error(t, err)
	_, err = FromText("300", reflect.TypeOf(int8(0)))
	assert.Error(t, err)
	_, err = FromText("yesterday", reflect.TypeOf(time.Time{}))
	assert.Error(t, err)
	_, err = FromText("OnStart", reflect.TypeOf(func() {}))
	assert.Error(t, err)
	_, err = FromText("x", reflect.TypeOf(struct{}{}))
	assert.Error(t, err)
}

func TestFromTextInterface(t *testing.T) {
	var slot any
	v, err := FromText("{}{a}", reflect.TypeOf(&slot).Elem())
	require.NoError(t, err)
	assert.Equal(t, "{a}", v.Interface())
}

func TestFuncName(t *testing.T) {
	h := handlers{}
	assert.Equal(t, "OnStart", FuncName(reflect.ValueOf(h.OnStart)))
	assert.Equal(t, "TestFuncName", FuncName(reflect.ValueOf(TestFuncName)))

	text, err := ToText(h.OnStart)
	require.NoError(t, err)
	assert.Equal(t, "OnStart", text)
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name  string
		value any
		def   any
		want  bool
	}{
		{"same", 0, 0, true},
		{"int default for int64", int64(0), 0, true},
		{"long default for int", 5, int64(5), true},
		{"overflowing default", int8(0), 256, false},
		{"negative default for uint", uint(0), -1, false},
		{"float default for int", 2, 2.0, true},
		{"fractional default", 2, 2.5, false},
		{"text default", 10, "10", true},
		{"enum from text", green, "Green", true},
		{"enum from int", blue, 2, true},
		{"different", 1, 0, false},
		{"string", "", "", true},
		{"decimal", decimal.RequireFromString("1.0"), "1", true},
		{"duration", time.Second, "1s", true},
		{"bad text", 1, "one", false},
	}

	for _, tt := range tests {
		v := reflect.ValueOf(tt.value)
		if got := Equal(v, tt.def, v.Type()); got != tt.want {
			t.Errorf("%s: Equal(%v, %v) = %v, want %v", tt.name, tt.value, tt.def, got, tt.want)
		}
	}

	var p *int
	assert.True(t, Equal(reflect.ValueOf(p), nil, reflect.TypeOf(p)))
	n := 4
	assert.True(t, Equal(reflect.ValueOf(&n), 4, reflect.TypeOf(&n)))
	assert.False(t, Equal(reflect.ValueOf(&n), nil, reflect.TypeOf(&n)))
}

func TestBytesText(t *testing.T) {
	text, err := ToText([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "aGVsbG8=", text)

	v, err := FromText(" aGVsbG8= ", reflect.TypeOf([]byte(nil)))
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), v.Interface())

	v, err = FromText("AQI=", reflect.TypeOf([2]byte{}))
	require.NoError(t, err)
	assert.Equal(t, [2]byte{1, 2}, v.Interface())

	_, err = FromText("AQI=", reflect.TypeOf([4]byte{}))
	assert.Error(t, err)
	_, err = FromText("not base64!", reflect.TypeOf([]byte(nil)))
	assert.Error(t, err)
}
