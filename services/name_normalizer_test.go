package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateParentName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Queen Plush Mattress", "Mattress"},
		{"Queen Firm Mattress", "Mattress"},
		{"Twin XL", "Twin XL"},
		{"Cal King Hybrid  Mattress", "Hybrid Mattress"},
		{"Cloud Pillow - Standard - High Loft", "Cloud Pillow - -"},
		{"queen medium-firm Latex Topper", "Latex Topper"},
		{"Kingsdown Classic", "Kingsdown Classic"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateParentName(tt.in))
		})
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "size", Slugify("Size"))
	assert.Equal(t, "mattress-size", Slugify("Mattress Size"))
	assert.Equal(t, "couleur-creme", Slugify("Couleur Crème"))
	assert.Equal(t, "", Slugify("  --  "))
}
