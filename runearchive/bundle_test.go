package runearchive_test

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/contenox/orchestrator/orchestrator"
	"github.com/contenox/orchestrator/runearchive"
	"github.com/stretchr/testify/require"
)

func sampleBundle() *orchestrator.RuneBundle {
	minReplicas := 1
	return &orchestrator.RuneBundle{
		Metadata: orchestrator.Metadata{
			Name:        "mariadb",
			Description: "MariaDB database server",
			Repo:        "https://example.invalid/runes/mariadb",
			Maintainers: []string{"ops@example.invalid"},
			Tags:        []string{"database", "sql"},
			Provides: []orchestrator.Provide{
				{Name: "mariadb", Interface: "sql"},
			},
			Requires: []orchestrator.Require{
				{Name: "volume", Interface: "storage", Min: &minReplicas},
			},
			Config: map[string]orchestrator.ConfigItem{
				"database": {Kind: orchestrator.ConfigString, Description: "database name", Default: "mysql-db"},
				"user":     {Kind: orchestrator.ConfigString, Description: "database user", Default: "mysql-user"},
				"password": {Kind: orchestrator.ConfigSecret, Description: "database password"},
			},
		},
		Templates: []orchestrator.Template{
			{
				Name:  "mariadb",
				Image: orchestrator.Image{Source: strPtr("docker.io/library/mariadb:11")},
				Ports: []orchestrator.Port{
					{Name: "mysql", ContainerPort: orchestrator.IntOrTemplate{Int: int64Ptr(3306)}},
				},
			},
		},
		Transformers: "def to_root_password(v):\n    return v\n",
	}
}

func strPtr(s string) *string { return &s }
func int64Ptr(i int64) *int64 { return &i }

func TestZipUnzipRoundTrip(t *testing.T) {
	bundle := sampleBundle()

	data, err := runearchive.Zip(bundle)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	got, err := runearchive.Unzip(data)
	require.NoError(t, err)
	require.Equal(t, bundle, got)
}

func TestUnzipOmitsEmptyOptionalFiles(t *testing.T) {
	bundle := sampleBundle()
	bundle.Transformers = ""
	bundle.React = ""

	data, err := runearchive.Zip(bundle)
	require.NoError(t, err)

	got, err := runearchive.Unzip(data)
	require.NoError(t, err)
	require.Empty(t, got.Transformers)
	require.Empty(t, got.React)
	require.Equal(t, bundle.Metadata, got.Metadata)
}

func TestUnzipMissingRequiredEntryFails(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("metadata.yaml")
	require.NoError(t, err)
	_, err = f.Write([]byte("name: incomplete\ndescription: no rune.yaml\nconfig: {}\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = runearchive.Unzip(buf.Bytes())
	require.ErrorIs(t, err, orchestrator.ErrArchive)
}
