package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/producelens/backend/internal/domain"
)

const sampleCSV = "\ufeffid,name,aliases,category,price,region,season,is_organic,is_local,store,update_time\n" +
	`1,Tomato,"西红柿,番茄",vegetable,12,Beijing,summer,true,yes,North Market,2024-06-01` + "\n" +
	"2,Lettuce,,vegetable,,Shanghai,summer,false,no,East Market,2024-06-02\n"

func TestReadCSV(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, domain.CatalogRow{
		ID: "1", Name: "Tomato", Aliases: "西红柿,番茄", Category: "vegetable", Price: "12",
		Region: "Beijing", Season: "summer", IsOrganic: "true", IsLocal: "yes",
		Store: "North Market", UpdateTime: "2024-06-01",
	}, rows[0])
	assert.Equal(t, "", rows[1].Price)
	assert.Equal(t, "", rows[1].Aliases)
}

func TestReadCSV_ColumnOrderAndShortRows(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader("name,id,price,extra\nPear,5,18,x\nApple,3\n"))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Pear", rows[0].Name)
	assert.Equal(t, "5", rows[0].ID)
	assert.Equal(t, "18", rows[0].Price)
	assert.Equal(t, "", rows[1].Price)
	assert.Equal(t, "", rows[1].Region)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty file", input: ""},
		{name: "missing id column", input: "name,price\nTomato,12\n"},
		{name: "missing name column", input: "id,price\n1,12\n"},
		{name: "unterminated quote", input: "id,name\n1,\"Tomato\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestCSVProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0644))

	provider := NewCSVProvider(path)
	assert.Equal(t, "products.csv", provider.Name())

	rows, err := provider.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = NewCSVProvider(filepath.Join(t.TempDir(), "missing.csv")).ListProducts(context.Background())
	assert.Error(t, err)
}
