package seed

import (
	"errors"
	"github.com/litetable/litetable-extract/internal/address"
	"github.com/litetable/litetable-extract/internal/litetable"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

const phonebook = `[
  // required fields only
  {
    "firstname": "John",
    "lastname": "Doe",
    "email": "john@example.com",
    "telephone": "555-0100",
    "address": {
      "addr1": "123 Main St",
      "apt": null,
      "city": "Springfield",
      "state": "IL",
      "zip": "62704",
    },
  },
  /* no address at all */
  {"firstname": "Jane", "lastname": "Roe"},
]`

type recorder struct {
	rows map[string][]litetable.Cell
	err  error
}

func (r *recorder) Apply(rowKey string, cells []litetable.Cell) error {
	if r.err != nil {
		return r.err
	}
	if r.rows == nil {
		r.rows = make(map[string][]litetable.Cell)
	}
	r.rows[rowKey] = cells
	return nil
}

func TestParse(t *testing.T) {
	entries, err := Parse([]byte(phonebook))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "John Doe", entries[0].RowKey())
	require.NotNil(t, entries[0].Address)
	require.Nil(t, entries[0].Address.Apt)
	require.Nil(t, entries[0].Address.Addr2)
	require.Nil(t, entries[1].Address)

	_, err = Parse([]byte(`[{"firstname": "Solo"}]`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "entry 0")

	_, err = Parse([]byte(`{not json`))
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phonebook.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(phonebook), 0644))

	entries, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.jsonc"))
	require.Error(t, err)
}

func TestSeeder_Seed(t *testing.T) {
	entries, err := Parse([]byte(phonebook))
	require.NoError(t, err)

	out := &recorder{}
	s, err := New(out)
	require.NoError(t, err)

	n, err := s.Seed(entries)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	john := out.rows["John Doe"]
	require.Len(t, john, 5)
	require.Equal(t, qualifierAddress, john[4].Qualifier)

	codec, err := address.NewCodec()
	require.NoError(t, err)
	addr, err := codec.Decode(john[4].Value)
	require.NoError(t, err)
	require.Equal(t, "123 Main St", addr.Addr1)
	require.Nil(t, addr.Apt)
	require.Equal(t, "62704", addr.Zip)

	jane := out.rows["Jane Roe"]
	require.Len(t, jane, 2)
	for _, c := range jane {
		require.NotEqual(t, qualifierAddress, c.Qualifier)
	}
}

func TestSeeder_SeedWriteError(t *testing.T) {
	s, err := New(&recorder{err: errors.New("family not allowed")})
	require.NoError(t, err)

	n, err := s.Seed([]Entry{{FirstName: "A", LastName: "B"}})
	require.Error(t, err)
	require.Zero(t, n)
	require.Contains(t, err.Error(), "failed to write A B")

	_, err = New(nil)
	require.Error(t, err)
}
