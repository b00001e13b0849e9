package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCompanies() []Company {
	return []Company{
		{Code: "036570", Name: "엔씨소프트", Country: "KR"},
		{Code: "293490", Name: "카카오게임즈", Country: "KR"},
		{Code: "7974", Name: "Nintendo", Country: "JP"},
	}
}

func TestResolve(t *testing.T) {
	reg := New(testCompanies())

	tests := []struct {
		name       string
		identifier string
		wantCode   string
		wantOK     bool
	}{
		{"exact code", "7974", "7974", true},
		{"exact name", "Nintendo", "7974", true},
		{"exact Korean name", "카카오게임즈", "293490", true},
		{"identifier contains the name", "Nintendo Co Ltd", "7974", true},
		{"name contains the identifier", "카카오", "293490", true},
		{"whitespace trimmed", "  7974  ", "7974", true},
		{"unknown", "Capcom", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			company, ok := reg.Resolve(tt.identifier)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantCode, company.Code)
			}
		})
	}
}

func TestRegistryOrderAndImmutability(t *testing.T) {
	reg := New(testCompanies())
	require.Equal(t, 3, reg.Len())

	companies := reg.Companies()
	assert.Equal(t, "036570", companies[0].Code)
	assert.Equal(t, "7974", companies[2].Code)

	// Mutating the returned slice must not affect the registry.
	companies[0].Code = "mutated"
	fresh := reg.Companies()
	assert.Equal(t, "036570", fresh[0].Code)
}

func TestNewDeduplicatesCodes(t *testing.T) {
	reg := New([]Company{
		{Code: "7974", Name: "Nintendo"},
		{Code: "7974", Name: "Nintendo duplicate"},
	})
	assert.Equal(t, 1, reg.Len())

	company, ok := reg.Get("7974")
	require.True(t, ok)
	assert.Equal(t, "Nintendo", company.Name)
}

func TestDefaultRegistry(t *testing.T) {
	reg := Default()
	assert.Greater(t, reg.Len(), 50)

	// Spot checks across markets.
	company, ok := reg.Get("036570")
	require.True(t, ok)
	assert.Equal(t, "KR", company.Country)

	_, ok = reg.Get("7974")
	assert.True(t, ok)
}
