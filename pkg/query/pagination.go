package query

// SortOrder is the direction a list query is ordered by.
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// Pagination is the input every list API accepts.
type Pagination struct {
	Offset    int
	Limit     int
	SortOrder SortOrder
}

// Clamp normalizes Offset/Limit/SortOrder: negative
// offset clamps to 0; non-positive limit defaults to 100; limit above
// 1000 clamps to 1000; unset/invalid sort order defaults to DESC.
func (p Pagination) Clamp() Pagination {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = 100
	}
	if p.Limit > 1000 {
		p.Limit = 1000
	}
	if p.SortOrder != SortAsc && p.SortOrder != SortDesc {
		p.SortOrder = SortDesc
	}
	return p
}

// Page is the result shape of every list API.
type Page[T any] struct {
	Rows       []T
	TotalCount int64
	Offset     int
	Limit      int
}

// Column is a typed, joinable SQL column reference.
type Column struct {
	Name  string
	Table string
	Alias string
}

// Col builds a bare Column.
func Col(name string) Column { return Column{Name: name} }

// From sets the owning table, for use in joined queries.
func (c Column) From(table string) Column {
	c.Table = table
	return c
}

// As sets the output alias.
func (c Column) As(alias string) Column {
	c.Alias = alias
	return c
}

// Identifier renders `table.name` or bare `name` when Table is empty.
func (c Column) Identifier() string {
	if c.Table == "" {
		return c.Name
	}
	return c.Table + "." + c.Name
}

// Select renders `identifier AS "alias"` when Alias differs from Name,
// otherwise just the identifier.
func (c Column) Select() string {
	if c.Alias != "" && c.Alias != c.Name {
		return c.Identifier() + ` AS "` + c.Alias + `"`
	}
	return c.Identifier()
}

// OrderBy renders the column reference to sort by, preferring the
// alias when present (it's what callers passing a projected column
// will have available at the SQL level).
func (c Column) OrderBy() string {
	if c.Alias != "" {
		return c.Alias
	}
	return c.Identifier()
}
