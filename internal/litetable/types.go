package litetable

import "fmt"

// Operation identifies the kind of mutation recorded in the WAL or emitted as a CDC event.
type Operation int

const (
	OperationUnknown Operation = iota
	OperationRead
	OperationWrite
	OperationDelete
)

func (o Operation) String() string {
	switch o {
	case OperationRead:
		return "READ"
	case OperationWrite:
		return "WRITE"
	case OperationDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// TimestampedValue stores a value with its timestamp
type TimestampedValue struct {
	Value       []byte `json:"value"`
	Timestamp   int64  `json:"timestamp"` // unix nanoseconds
	IsTombstone bool   `json:"tombstone"` // if the value is slated for deletion
}

// VersionedQualifier maps qualifiers to their timestamped values
type VersionedQualifier map[string][]TimestampedValue

// Data is the in-memory shape of a table: rowKey → family → qualifier → []TimestampedValue
type Data map[string]map[string]VersionedQualifier

// Row defines a row of data in LiteTable:
//
// Example:
//
//	Row{
//	  Key: "John Doe",
//	  Columns: map[string]VersionedQualifier{
//	    "info": {
//	      "address": {{Value: <avro bytes>, Timestamp: 1715600000000000000}},
//	    },
//	    "derived": {
//	      "city": {{Value: []byte("Springfield"), Timestamp: 1715600000000000001}},
//	    },
//	  },
//	}
//
// Qualifiers are defined by your codes' logic.
type Row struct {
	Key     string                        `json:"key"`
	Columns map[string]VersionedQualifier `json:"cols"` // family → qualifier → []TimestampedValue
}

// Column addresses a single cell within a row.
type Column struct {
	Family    string
	Qualifier string
}

// String renders the column as family:qualifier.
func (c Column) String() string {
	return fmt.Sprintf("%s:%s", c.Family, c.Qualifier)
}

// Cell is a value bound for a column. A row commit is a list of cells.
type Cell struct {
	Family    string `json:"family"`
	Qualifier string `json:"qualifier"`
	Value     []byte `json:"value"`
}

// Latest returns the newest non-tombstone value from a list of versions.
func Latest(values []TimestampedValue) ([]byte, bool) {
	var (
		newest TimestampedValue
		found  bool
	)
	for _, v := range values {
		if !found || v.Timestamp >= newest.Timestamp {
			newest = v
			found = true
		}
	}
	if !found || newest.IsTombstone {
		return nil, false
	}
	return newest.Value, true
}
