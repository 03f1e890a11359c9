package etl

// Column binds one source field position to an output column.
type Column struct {
	Index int       `json:"index"`
	Name  string    `json:"name"`
	Type  FieldType `json:"type"`
}

// Mapping is the ordered list of output columns. Output order is slice order.
type Mapping []Column

// DefaultMapping is the fixed garbage_station.csv layout. The names are the
// station columns the output file is read back as.
var DefaultMapping = Mapping{
	{Index: 1, Name: "id", Type: FieldText},
	{Index: 4, Name: "latitude", Type: FieldNumber},
	{Index: 5, Name: "longitude", Type: FieldNumber},
	{Index: 7, Name: "burnable", Type: FieldText},
	{Index: 8, Name: "incombustible", Type: FieldText},
	{Index: 9, Name: "resource", Type: FieldText},
}

// MinFields is the number of fields a record needs for every column to exist.
func (m Mapping) MinFields() int {
	n := 0
	for _, c := range m {
		if c.Index+1 > n {
			n = c.Index + 1
		}
	}
	return n
}

// Schema returns the output schema described by the mapping.
func (m Mapping) Schema() *Schema {
	fields := make([]Field, len(m))
	for i, c := range m {
		fields[i] = Field{Name: c.Name, Type: c.Type}
	}
	return &Schema{Fields: fields}
}
