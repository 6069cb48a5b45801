package warehouse

import "fmt"

// Table names of the star schema.
const (
	StagingEvents = "staging_events"
	StagingSongs  = "staging_songs"
	Songplays     = "songplays"
	Users         = "users"
	Songs         = "songs"
	Artists       = "artists"
	Time          = "time"
)

// Tables lists every warehouse table in creation order.
var Tables = []string{
	StagingEvents,
	StagingSongs,
	Users,
	Songs,
	Artists,
	Time,
	Songplays,
}

// DropOrder lists every warehouse table in the order it is dropped.
var DropOrder = []string{
	StagingEvents,
	StagingSongs,
	Songplays,
	Users,
	Songs,
	Artists,
	Time,
}

// TransformOrder lists the tables filled by the transform step, in order.
// The fact table comes last because its rows reference all four dimensions.
var TransformOrder = []string{
	Users,
	Songs,
	Artists,
	Time,
	Songplays,
}

// ColumnKind is the storage type of a staging column, used to coerce raw
// JSON values before they are written.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindInt32
	KindInt64
	KindNumeric
)

func (k ColumnKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInt32:
		return "int4"
	case KindInt64:
		return "int8"
	case KindNumeric:
		return "numeric"
	default:
		return fmt.Sprintf("ColumnKind(%d)", int(k))
	}
}

// Column is a staging table column.
type Column struct {
	Name string
	Kind ColumnKind
}

// StagingEventsColumns are the staging_events columns in table order. The
// order matches the event log JSONPaths descriptor.
var StagingEventsColumns = []Column{
	{Name: "artist_name", Kind: KindText},
	{Name: "auth", Kind: KindText},
	{Name: "first_name", Kind: KindText},
	{Name: "gender", Kind: KindText},
	{Name: "item_in_session", Kind: KindInt32},
	{Name: "last_name", Kind: KindText},
	{Name: "length", Kind: KindNumeric},
	{Name: "level", Kind: KindText},
	{Name: "location", Kind: KindText},
	{Name: "method", Kind: KindText},
	{Name: "page", Kind: KindText},
	{Name: "registration", Kind: KindText},
	{Name: "session_id", Kind: KindInt32},
	{Name: "song", Kind: KindText},
	{Name: "status", Kind: KindText},
	{Name: "ts", Kind: KindInt64},
	{Name: "user_agent", Kind: KindText},
	{Name: "user_id", Kind: KindText},
}

// StagingSongsColumns are the staging_songs columns in table order.
var StagingSongsColumns = []Column{
	{Name: "num_songs", Kind: KindInt32},
	{Name: "artist_id", Kind: KindText},
	{Name: "artist_latitude", Kind: KindNumeric},
	{Name: "artist_longitude", Kind: KindNumeric},
	{Name: "artist_location", Kind: KindText},
	{Name: "artist_name", Kind: KindText},
	{Name: "song_id", Kind: KindText},
	{Name: "title", Kind: KindText},
	{Name: "duration", Kind: KindNumeric},
	{Name: "year", Kind: KindInt32},
}

// StagingColumns returns the column list of a staging table.
func StagingColumns(table string) ([]Column, error) {
	switch table {
	case StagingEvents:
		return StagingEventsColumns, nil
	case StagingSongs:
		return StagingSongsColumns, nil
	default:
		return nil, fmt.Errorf("%s is not a staging table", table)
	}
}

// ColumnNames returns the names of cols in order.
func ColumnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}
