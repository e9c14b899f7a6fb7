package ddl

import (
	"github.com/auxten/postgresql-parser/pkg/sql/parser"
	"github.com/auxten/postgresql-parser/pkg/sql/types"
)

var temporalFamilies = map[types.Family]string{
	types.TimestampTZFamily: "timestamptz",
	types.TimestampFamily:   "timestamp",
	types.DateFamily:        "date",
	types.TimeTZFamily:      "timetz",
	types.TimeFamily:        "time",
	types.IntervalFamily:    "interval",
}

// temporalName resolves a type through the PostgreSQL type grammar and
// returns its canonical name when it is a date, time or interval type.
func temporalName(raw string) (string, bool) {
	typ, err := parser.ParseType(raw)
	if err != nil || typ == nil {
		return "", false
	}
	name, ok := temporalFamilies[typ.Family()]
	return name, ok
}
