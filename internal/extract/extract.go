// Package extract splits the Avro address of every phonebook row into one derived column per
// address field.
package extract

import (
	"context"
	"github.com/litetable/litetable-extract/internal/address"
	"github.com/litetable/litetable-extract/internal/litetable"
	"github.com/litetable/litetable-extract/internal/mapreduce"
	"github.com/rs/zerolog/log"
)

//go:generate mockgen -destination=extract_mock.go -package=extract -source=extract.go

const (
	Table = "phonebook"

	InfoFamily       = "info"
	AddressQualifier = "address"

	DerivedFamily = "derived"
	AddrLine1     = "addr_line_1"
	AptNumber     = "apt_number"
	AddrLine2     = "addr_line_2"
	City          = "city"
	State         = "state"
	Zip           = "zip"

	// MissingAddress counts rows without an info:address value.
	MissingAddress = "MISSING_ADDRESS"
)

type decoder interface {
	Decode(raw []byte) (*address.Address, error)
}

// DataRequest is the only input the extractor needs.
func DataRequest() mapreduce.Request {
	return mapreduce.Request{
		Columns: []litetable.Column{
			{Family: InfoFamily, Qualifier: AddressQualifier},
		},
	}
}

// AddressExtractor is a mapreduce.Mapper. It holds no per-row state and is safe to share
// across workers.
type AddressExtractor struct {
	codec decoder
}

// NewAddressExtractor returns an extractor for the default Address schema.
func NewAddressExtractor() (*AddressExtractor, error) {
	codec, err := address.NewCodec()
	if err != nil {
		return nil, err
	}
	return &AddressExtractor{codec: codec}, nil
}

// Map writes the derived columns of one row. A row without an address is counted and skipped.
// Nothing is written for a row whose address cannot be decoded, and a row's derived columns are
// committed together or not at all.
func (e *AddressExtractor) Map(_ context.Context, row *mapreduce.RowData, tc *mapreduce.TaskContext) (err error) {
	w := tc.NewWriter()
	defer func() {
		if cErr := w.Close(); cErr != nil && err == nil {
			err = newError(errWrite, cErr, "row %s", row.Key())
		}
	}()

	raw, ok := row.Value(InfoFamily, AddressQualifier)
	if !ok {
		log.Info().Str("row", row.Key()).Msg("missing address field")
		tc.IncrementCounter(MissingAddress, 1)
		return nil
	}

	addr, err := e.codec.Decode(raw)
	if err != nil {
		return newError(errDecode, err, "row %s", row.Key())
	}

	for _, c := range Derive(addr) {
		if err := w.Put(row.Key(), c.Family, c.Qualifier, c.Value); err != nil {
			return newError(errWrite, err, "row %s", row.Key())
		}
	}
	return nil
}

// Derive returns the derived cells for an address. Optional fields only produce a cell when
// they are set.
func Derive(a *address.Address) []litetable.Cell {
	cells := make([]litetable.Cell, 0, 6)
	put := func(qualifier, value string) {
		cells = append(cells, litetable.Cell{
			Family:    DerivedFamily,
			Qualifier: qualifier,
			Value:     []byte(value),
		})
	}

	put(AddrLine1, a.Addr1)
	if a.Apt != nil {
		put(AptNumber, *a.Apt)
	}
	if a.Addr2 != nil {
		put(AddrLine2, *a.Addr2)
	}
	put(City, a.City)
	put(State, a.State)
	put(Zip, a.Zip)
	return cells
}
