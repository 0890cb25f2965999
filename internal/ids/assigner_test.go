package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func next(t *testing.T, a *Assigner, subject string) string {
	t.Helper()
	label, ok := a.NextID(subject)
	require.True(t, ok, subject)
	return label
}

func TestNextID(t *testing.T) {
	t.Run("prefix first", func(t *testing.T) {
		a := NewAssigner(nil)
		assert.Equal(t, "j100", next(t, a, "AP - Cisco MR36H"))
		assert.Equal(t, "j101", next(t, a, "AP - Cisco MR36H"))
		assert.Equal(t, "k100", next(t, a, "AP - Cisco MR78"))
		assert.Equal(t, "aa100", next(t, a, "HL - Access Control"))
	})

	t.Run("number first", func(t *testing.T) {
		a := NewAssigner(nil)
		assert.Equal(t, "100a", next(t, a, "CCTV - Cisco MV93X"))
		assert.Equal(t, "101a", next(t, a, "CCTV - Cisco MV93X"))
		assert.Equal(t, "100b", next(t, a, "CCTV - AXIS P5655-E"))
	})

	t.Run("shared counter", func(t *testing.T) {
		a := NewAssigner(nil)
		assert.Equal(t, "f100", next(t, a, "DIST - Micro NOC"))
		assert.Equal(t, "f101", next(t, a, "DIST - Mini NOC"))
		assert.Equal(t, "f102", next(t, a, "DIST - Mega NOC"))
	})

	t.Run("same prefix different start", func(t *testing.T) {
		a := NewAssigner(nil)
		assert.Equal(t, "d300", next(t, a, "SW - Cisco 9300X 24X"))
		assert.Equal(t, "d500", next(t, a, "SW - Cisco 9300 12X36M"))
		assert.Equal(t, "d301", next(t, a, "SW - Cisco 9300X 24X"))
		assert.Equal(t, "d501", next(t, a, "SW - Cisco 9300 12X36M"))
	})

	t.Run("camera and switch share the a_100 key", func(t *testing.T) {
		a := NewAssigner(nil)
		assert.Equal(t, "100a", next(t, a, "CCTV - Cisco MV93X"))
		assert.Equal(t, "a101", next(t, a, "SW - Cisco Micro 4P"))
	})

	t.Run("unconfigured subject", func(t *testing.T) {
		a := NewAssigner(nil)
		_, ok := a.NextID("FIBER")
		assert.False(t, ok)
		assert.Empty(t, a.Counts())
	})
}

func TestRelease(t *testing.T) {
	a := NewAssigner(nil)
	first := next(t, a, "AP - Cisco MR36H")
	second := next(t, a, "AP - Cisco MR36H")

	assert.False(t, a.Release("AP - Cisco MR36H", first), "only the latest label is released")
	assert.True(t, a.Release("AP - Cisco MR36H", second))
	assert.Equal(t, second, next(t, a, "AP - Cisco MR36H"))

	b := NewAssigner(nil)
	only := next(t, b, "AP - Cisco MR36H")
	assert.True(t, b.Release("AP - Cisco MR36H", only))
	assert.Empty(t, b.Counts())
	assert.Equal(t, "j100", next(t, b, "AP - Cisco MR36H"))

	assert.False(t, b.Release("Nothing Like It", "x1"))
}

func TestResetIsDeterministic(t *testing.T) {
	subjects := []string{
		"AP - Cisco MR36H", "DIST - Micro NOC", "AP - Cisco MR36H",
		"DIST - Standard NOC", "CCTV - AXIS M5526-E", "HL - Video",
	}
	a := NewAssigner(nil)
	run := func() []string {
		var out []string
		for _, s := range subjects {
			out = append(out, next(t, a, s))
		}
		return out
	}

	first := run()
	assert.Equal(t, map[string]int{"j_100": 101, "f_100": 101, "c_100": 100, "pp_100": 100}, a.Counts())

	a.Reset()
	assert.Empty(t, a.Counts())
	assert.Equal(t, first, run())
}

func TestIndependentAssigners(t *testing.T) {
	a, b := NewAssigner(nil), NewAssigner(nil)
	assert.Equal(t, "j100", next(t, a, "AP - Cisco MR36H"))
	assert.Equal(t, "j100", next(t, b, "AP - Cisco MR36H"))
	assert.Equal(t, "j101", next(t, a, "AP - Cisco MR36H"))
}

func TestParseTable(t *testing.T) {
	table, err := ParseTable([]byte("prefixes:\n  \"X - One\": {prefix: \"q\", start: 7}\n"))
	require.NoError(t, err)
	assert.Equal(t, Prefix{Prefix: "q", Start: 7, Format: PrefixFirst}, table["X - One"])

	_, err = ParseTable([]byte("prefixes:\n  \"X\": {start: 1}\n"))
	assert.Error(t, err)

	assert.Len(t, DefaultTable(), 50)
	p, ok := Lookup("CCTV - AXIS M5526-E")
	require.True(t, ok)
	assert.Equal(t, NumberFirst, p.Format)
}
