package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }
func boolPtr(v bool) *bool        { return &v }
func intPtr(v int) *int           { return &v }

func TestResolveNilConfigYieldsDefaults(t *testing.T) {
	l, err := Resolve(nil)
	require.NoError(t, err)

	assert.Equal(t, 1123, l.Width)
	assert.Equal(t, 794, l.Height)
	assert.Equal(t, "Certificate of Participation", l.Title.Text)
	assert.Equal(t, "Great Vibes", l.Name.FontFamily)
	assert.True(t, l.Border.Show)
	assert.True(t, l.QR.Show)
}

func TestResolvePartialOverrideKeepsNestedDefaults(t *testing.T) {
	cfg := &LayoutConfig{
		Name: &NameConfig{Color: strPtr("#FF0000")},
	}
	l, err := Resolve(cfg)
	require.NoError(t, err)

	// Only the color changed; the sibling fields keep their defaults.
	assert.Equal(t, "#FF0000", l.Name.Color)
	assert.Equal(t, "Great Vibes", l.Name.FontFamily)
	assert.Equal(t, 52.0, l.Name.FontSize)
	assert.Equal(t, Position{X: 50, Y: 50}, l.Name.Position)
}

func TestResolvePositionMergesAxisByAxis(t *testing.T) {
	cfg := &LayoutConfig{
		Title: &TextConfig{Position: &PositionConfig{Y: floatPtr(30)}},
	}
	l, err := Resolve(cfg)
	require.NoError(t, err)

	assert.Equal(t, 50.0, l.Title.Position.X)
	assert.Equal(t, 30.0, l.Title.Position.Y)
}

func TestResolveDoesNotMutateDefaultsAcrossCalls(t *testing.T) {
	_, err := Resolve(&LayoutConfig{
		Title: &TextConfig{Text: strPtr("Changed")},
		Width: intPtr(2000),
	})
	require.NoError(t, err)

	l, err := Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, "Certificate of Participation", l.Title.Text)
	assert.Equal(t, 1123, l.Width)
}

func TestResolveLogoDefaultsPerElement(t *testing.T) {
	cfg := &LayoutConfig{
		Logos: []LogoConfig{
			{URL: "https://cdn.example.com/a.png"},
			{URL: "https://cdn.example.com/b.png", Width: floatPtr(200)},
		},
	}
	l, err := Resolve(cfg)
	require.NoError(t, err)
	require.Len(t, l.Logos, 2)

	assert.Equal(t, 96.0, l.Logos[0].Width)
	assert.Equal(t, 200.0, l.Logos[1].Width)
}

func TestResolveSignatureDefaults(t *testing.T) {
	cfg := &LayoutConfig{
		Signatures: []SignatureConfig{
			{Name: "Jane Smith", Role: "Organizer"},
		},
	}
	l, err := Resolve(cfg)
	require.NoError(t, err)
	require.Len(t, l.Signatures, 1)

	assert.Equal(t, "Jane Smith", l.Signatures[0].Name)
	assert.Equal(t, "sans-serif", l.Signatures[0].FontFamily)
	assert.Equal(t, 14.0, l.Signatures[0].FontSize)
}

func TestResolveValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  *LayoutConfig
	}{
		{
			name: "position out of range",
			cfg:  &LayoutConfig{Name: &NameConfig{Position: &PositionConfig{X: floatPtr(140)}}},
		},
		{
			name: "negative canvas",
			cfg:  &LayoutConfig{Width: intPtr(-10)},
		},
		{
			name: "bad color",
			cfg:  &LayoutConfig{Title: &TextConfig{Color: strPtr("not-a-color")}},
		},
		{
			name: "logo without url",
			cfg:  &LayoutConfig{Logos: []LogoConfig{{}}},
		},
		{
			name: "signature without name",
			cfg:  &LayoutConfig{Signatures: []SignatureConfig{{Role: "Organizer"}}},
		},
		{
			name: "zero qr size",
			cfg:  &LayoutConfig{QR: &QRConfig{Size: floatPtr(0)}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#C9A227")
	require.NoError(t, err)
	assert.Equal(t, RGB{R: 0xC9, G: 0xA2, B: 0x27}, c)

	c, err = ParseHexColor("FFFFFF")
	require.NoError(t, err)
	assert.Equal(t, RGB{R: 255, G: 255, B: 255}, c)

	_, err = ParseHexColor("#FFF")
	assert.Error(t, err)
	_, err = ParseHexColor("#GGGGGG")
	assert.Error(t, err)
}
