package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableData(t *testing.T) {
	table := NewTableData("Mount", "Backend", "Options")

	assert.Equal(t, []string{"Mount", "Backend", "Options"}, table.Headers())
	assert.Empty(t, table.Rows())

	table.AddRow("/", "mem", "capacity=64MB")
	table.AddRow("/data", "badger", "path=/var/lib/velin")

	rows := table.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"/", "mem", "capacity=64MB"}, rows[0])
	assert.Equal(t, []string{"/data", "badger", "path=/var/lib/velin"}, rows[1])
}

func TestPrintTable(t *testing.T) {
	table := NewTableData("FD", "Path")
	table.AddRow("0", "/etc/hosts")
	table.AddRow("1", "/var/log")

	var buf bytes.Buffer
	err := PrintTable(&buf, table)
	require.NoError(t, err)

	// Headers are upcased by the renderer; rows pass through as-is.
	output := buf.String()
	assert.Contains(t, output, "FD")
	assert.Contains(t, output, "PATH")
	assert.Contains(t, output, "/etc/hosts")
	assert.Contains(t, output, "/var/log")
}

func TestPrintTableNoRows(t *testing.T) {
	var buf bytes.Buffer
	err := PrintTable(&buf, NewTableData("Mount", "Backend"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "MOUNT")
}

func TestSimpleTable(t *testing.T) {
	pairs := [][2]string{
		{"Inode", "42"},
		{"Size", "4096"},
	}

	var buf bytes.Buffer
	err := SimpleTable(&buf, pairs)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Inode")
	assert.Contains(t, output, "42")
	assert.Contains(t, output, "Size")
	assert.Contains(t, output, "4096")
}
