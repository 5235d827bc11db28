package conversation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCompanyContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "content.json")
	data := `{
		"company_info": {
			"name": "IM Solutions",
			"type": "Digital Marketing Agency",
			"founded": "2012",
			"location": "Bangalore",
			"offices": ["Mumbai", "Delhi"]
		},
		"services": {
			"online_services": ["SEO", "PPC"]
		},
		"vision": "Growth for everyone."
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	content, err := LoadCompanyContent(path)
	require.NoError(t, err)
	assert.Equal(t, "IM Solutions", content.CompanyInfo.Name)
	assert.Equal(t, []string{"Mumbai", "Delhi"}, content.CompanyInfo.Offices)
	assert.Equal(t, "Growth for everyone.", content.Vision)
}

func TestLoadCompanyContentMissingFile(t *testing.T) {
	_, err := LoadCompanyContent(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadCompanyContentMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadCompanyContent(path)
	assert.Error(t, err)
}

func TestTopServices(t *testing.T) {
	content := testContent()
	assert.Equal(t, "SEO, Social Media Marketing, Web Development, PPC, Content Marketing", content.TopServices(5))
	assert.Equal(t, "SEO", content.TopServices(1))

	empty := CompanyContent{}
	assert.Equal(t, "", empty.TopServices(5))
}
