package colorspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHex_Forms(t *testing.T) {
	c, err := ParseHex("#E94E2E")
	require.NoError(t, err)
	assert.Equal(t, RGB{R: 233, G: 78, B: 46}, c)

	// Shorthand expands per digit
	c, err = ParseHex("abc")
	require.NoError(t, err)
	assert.Equal(t, RGB{R: 0xAA, G: 0xBB, B: 0xCC}, c)

	c, err = ParseHex("  #1b2a4a ")
	require.NoError(t, err)
	assert.Equal(t, "#1B2A4A", c.Hex())
}

func TestParseHex_Invalid(t *testing.T) {
	for _, in := range []string{"", "#12345", "#GGGGGG", "not-a-color", "#12"} {
		_, err := ParseHex(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestNormalizeHex(t *testing.T) {
	out, err := NormalizeHex("e94e2e")
	require.NoError(t, err)
	assert.Equal(t, "#E94E2E", out)
	assert.True(t, HexPattern.MatchString(out))

	_, err = NormalizeHex("#zzz")
	assert.Error(t, err)
}

func TestLuminance_Extremes(t *testing.T) {
	assert.InDelta(t, 1.0, RGB{255, 255, 255}.Luminance(), 1e-9)
	assert.InDelta(t, 0.0, RGB{0, 0, 0}.Luminance(), 1e-9)
	assert.Greater(t, RGB{255, 255, 0}.Luminance(), RGB{0, 0, 255}.Luminance())
}

func TestOKLab_RoundTrip(t *testing.T) {
	for _, hex := range []string{"#E94E2E", "#1B2A4A", "#F59E0B", "#2E8B57", "#808080"} {
		c, err := ParseHex(hex)
		require.NoError(t, err)
		back := c.OKLab().RGB()
		d := DeltaE(c.OKLab(), back.OKLab())
		assert.Less(t, d, 0.5, "round trip drifted for %s -> %s", hex, back.Hex())
	}
}

func TestOKLab_WhiteLightness(t *testing.T) {
	lab := RGB{255, 255, 255}.OKLab()
	assert.InDelta(t, 1.0, lab.L, 1e-4)
	assert.InDelta(t, 0.0, lab.A, 1e-4)
	assert.InDelta(t, 0.0, lab.B, 1e-4)
}

func TestDeltaE(t *testing.T) {
	a := RGB{233, 78, 46}.OKLab()
	assert.Zero(t, DeltaE(a, a))

	d, err := DeltaEHex("#FFFFFF", "#000000")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, d, 0.01)

	// One bit apart should be far under the perceptibility line
	d, err = DeltaEHex("#E94E2E", "#E94E2F")
	require.NoError(t, err)
	assert.Less(t, d, 1.0)
}

func TestFamilyOf_Anchors(t *testing.T) {
	cases := map[string]Family{
		"#FF0000": FamilyRed,
		"#E94E2E": FamilyRed,
		"#FF8000": FamilyOrange,
		"#F59E0B": FamilyOrange,
		"#FFFF00": FamilyYellow,
		"#00FF00": FamilyGreen,
		"#2E8B57": FamilyGreen,
		"#00FFFF": FamilyCyan,
		"#14B8A6": FamilyCyan,
		"#0000FF": FamilyBlue,
		"#1B2A4A": FamilyBlue,
		"#8000FF": FamilyPurple,
		"#7C3AED": FamilyPurple,
		"#FF00FF": FamilyMagenta,
		"#808080": FamilyNeutral,
		"#6B7280": FamilyNeutral,
	}
	for hex, want := range cases {
		got, err := FamilyOf(hex)
		require.NoError(t, err)
		assert.Equal(t, want, got, "family of %s", hex)
	}

	_, err := FamilyOf("#nope")
	assert.Error(t, err)
}

func TestRGBToCMYK(t *testing.T) {
	c, m, y, k := RGBToCMYK(RGB{0, 0, 0})
	assert.Equal(t, []int{0, 0, 0, 100}, []int{c, m, y, k})

	c, m, y, k = RGBToCMYK(RGB{255, 255, 255})
	assert.Equal(t, []int{0, 0, 0, 0}, []int{c, m, y, k})

	c, m, y, k = RGBToCMYK(RGB{255, 0, 0})
	assert.Equal(t, []int{0, 100, 100, 0}, []int{c, m, y, k})

	c, m, y, k = RGBToCMYK(RGB{0x33, 0x66, 0x99})
	assert.Equal(t, []int{67, 33, 0, 40}, []int{c, m, y, k})
}

func TestDescriptiveName(t *testing.T) {
	assert.Equal(t, "Ember", DescriptiveName("#E94E2E", 0))
	assert.Equal(t, "Rust", DescriptiveName("#E94E2E", 1))
	assert.Equal(t, "Sage", DescriptiveName("#2E8B57", 0))
	assert.Equal(t, "Slate", DescriptiveName("#1B2A4A", 2))
	assert.Equal(t, "Cobalt", DescriptiveName("#336699", 0))

	// Luminance and darkness overrides
	assert.Equal(t, "Shadow", DescriptiveName("#1B1B1B", 0))
	assert.Equal(t, "White", DescriptiveName("#F7F7F7", 0))
	assert.Equal(t, "Mist", DescriptiveName("#E8E8D0", 0))
	assert.Equal(t, "Ink", DescriptiveName("#0A0A2A", 0))
	assert.Equal(t, "Deep", DescriptiveName("#0A0A2A", 3))

	// Channel ties fall through to the warm and violet buckets
	assert.Equal(t, "Gold", DescriptiveName("#C8C850", 0))
	assert.Equal(t, "Mauve", DescriptiveName("#C850C8", 0))
	assert.Equal(t, "Stone", DescriptiveName("#808080", 0))

	assert.Equal(t, "Tone", DescriptiveName("garbage", 0))
}
