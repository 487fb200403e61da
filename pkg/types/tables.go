package types

// Standard table names for Store.GetTable.
const (
	UnitsTable = "units"
)

// StandardTableNames lists all standard table names for enumeration.
var StandardTableNames = []string{
	UnitsTable,
}
