package allmemscan

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleIomem = `00000000-00000fff : Reserved
00001000-0009fbff : System RAM
0009fc00-0009ffff : Reserved
000a0000-000bffff : PCI Bus 0000:00
000c0000-000c7fff : Video ROM
00100000-bffdffff : System RAM
  01000000-01e0308e : Kernel code
  01e0308f-0264c8ff : Kernel data
bffe0000-bfffffff : Reserved
c0000000-febfffff : PCI Bus 0000:00
  fd000000-fdffffff : 0000:00:02.0
this line is garbage
fffc0000-ffffffff : Reserved
100000000-23fffffff : System RAM
`

func TestParseIomem(t *testing.T) {
	var logs bytes.Buffer
	regions, err := ParseIomem(strings.NewReader(sampleIomem), DefaultExclude, zerolog.New(&logs))
	require.NoError(t, err)

	want := []Region{
		{Start: 0x0, Length: 0x1000, Name: "Reserved"},
		{Start: 0x1000, Length: 0x9ec00, Name: "System RAM"},
		{Start: 0x9fc00, Length: 0x400, Name: "Reserved"},
		{Start: 0xc0000, Length: 0x8000, Name: "Video ROM"},
		{Start: 0x100000, Length: 0xbfee0000, Name: "System RAM"},
		{Start: 0xbffe0000, Length: 0x20000, Name: "Reserved"},
		{Start: 0xfffc0000, Length: 0x40000, Name: "Reserved"},
		{Start: 0x100000000, Length: 0x140000000, Name: "System RAM"},
	}
	assert.Equal(t, want, regions)
	assert.Equal(t, 2, strings.Count(logs.String(), "Ignoring range"))
}

func TestParseIomem_CustomExclude(t *testing.T) {
	regions, err := ParseIomem(strings.NewReader(sampleIomem), []string{"Reserved", "PCI", ""}, zerolog.Nop())
	require.NoError(t, err)

	for _, r := range regions {
		assert.NotEqual(t, "Reserved", r.Name)
	}
	assert.Len(t, regions, 4)
}

func TestParseIomem_NoExclude(t *testing.T) {
	regions, err := ParseIomem(strings.NewReader(sampleIomem), nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Len(t, regions, 10)
}

func TestParseIomemLine_Errors(t *testing.T) {
	for _, line := range []string{
		"garbage",
		"zz-100 : x",
		"100-zz : x",
		"2000-1000 : backwards",
	} {
		_, err := parseIomemLine(line)
		assert.Error(t, err, line)
	}
}

func TestReadIomem(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iomem")
	require.NoError(t, os.WriteFile(path, []byte(sampleIomem), 0o600))

	regions, err := ReadIomem(path, DefaultExclude, zerolog.Nop())
	require.NoError(t, err)
	assert.Len(t, regions, 8)

	_, err = ReadIomem(filepath.Join(t.TempDir(), "missing"), nil, zerolog.Nop())
	assert.Error(t, err)
}
