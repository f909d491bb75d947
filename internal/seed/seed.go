// Package seed loads phonebook entries from a JSONC file into the info family.
package seed

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/litetable/litetable-extract/internal/address"
	"github.com/litetable/litetable-extract/internal/litetable"
	"github.com/rs/zerolog/log"
	"github.com/tailscale/hujson"
	"os"
	"strings"
)

const (
	infoFamily = "info"

	qualifierFirstName = "firstname"
	qualifierLastName  = "lastname"
	qualifierEmail     = "email"
	qualifierTelephone = "telephone"
	qualifierAddress   = "address"
)

type rowWriter interface {
	Apply(rowKey string, cells []litetable.Cell) error
}

// Address mirrors the Avro record; apt and addr2 may be null or omitted.
type Address struct {
	Addr1 string  `json:"addr1"`
	Apt   *string `json:"apt"`
	Addr2 *string `json:"addr2"`
	City  string  `json:"city"`
	State string  `json:"state"`
	Zip   string  `json:"zip"`
}

// Entry is one phonebook row. A nil Address leaves info:address unset.
type Entry struct {
	FirstName string   `json:"firstname"`
	LastName  string   `json:"lastname"`
	Email     string   `json:"email"`
	Telephone string   `json:"telephone"`
	Address   *Address `json:"address"`
}

// RowKey is the row identity of an entry.
func (e *Entry) RowKey() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// LoadFile reads a JSONC array of entries.
func LoadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	entries, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return entries, nil
}

// Parse decodes a JSONC array of entries. Comments and trailing commas are allowed.
func Parse(data []byte) ([]Entry, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	if err = json.Unmarshal(std, &entries); err != nil {
		return nil, err
	}

	var errs []error
	for i := range entries {
		if entries[i].FirstName == "" || entries[i].LastName == "" {
			errs = append(errs, fmt.Errorf("entry %d: firstname and lastname are required", i))
		}
	}
	return entries, errors.Join(errs...)
}

type Seeder struct {
	codec *address.Codec
	out   rowWriter
}

func New(out rowWriter) (*Seeder, error) {
	if out == nil {
		return nil, errors.New("row writer is required")
	}
	codec, err := address.NewCodec()
	if err != nil {
		return nil, err
	}
	return &Seeder{codec: codec, out: out}, nil
}

// Seed writes every entry as one row commit and returns the number of rows written.
func (s *Seeder) Seed(entries []Entry) (int, error) {
	written := 0
	for i := range entries {
		e := &entries[i]
		cells, err := s.cells(e)
		if err != nil {
			return written, fmt.Errorf("entry %s: %w", e.RowKey(), err)
		}
		if err = s.out.Apply(e.RowKey(), cells); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", e.RowKey(), err)
		}
		written++
	}
	log.Info().Int("rows", written).Msg("seeded phonebook entries")
	return written, nil
}

func (s *Seeder) cells(e *Entry) ([]litetable.Cell, error) {
	cells := []litetable.Cell{
		{Family: infoFamily, Qualifier: qualifierFirstName, Value: []byte(e.FirstName)},
		{Family: infoFamily, Qualifier: qualifierLastName, Value: []byte(e.LastName)},
	}
	if e.Email != "" {
		cells = append(cells, litetable.Cell{Family: infoFamily, Qualifier: qualifierEmail, Value: []byte(e.Email)})
	}
	if e.Telephone != "" {
		cells = append(cells, litetable.Cell{Family: infoFamily, Qualifier: qualifierTelephone, Value: []byte(e.Telephone)})
	}
	if e.Address != nil {
		raw, err := s.codec.Encode(&address.Address{
			Addr1: e.Address.Addr1,
			Apt:   e.Address.Apt,
			Addr2: e.Address.Addr2,
			City:  e.Address.City,
			State: e.Address.State,
			Zip:   e.Address.Zip,
		})
		if err != nil {
			return nil, err
		}
		cells = append(cells, litetable.Cell{Family: infoFamily, Qualifier: qualifierAddress, Value: raw})
	}
	return cells, nil
}
