package etl

import (
	"fmt"
	"strings"
)

// DestinationIDColumn receives the source system's id field.
const DestinationIDColumn = "ereserve_id"

// EntityJob binds one entity to its endpoint, its mapper and its destination
// table. Fields drives both the row layout and the INSERT column list, so the
// two cannot drift apart.
type EntityJob struct {
	Name     string   // log label, e.g. "ReadingList"
	Endpoint string   // path relative to the catalog base URL
	Table    string   // destination table
	Fields   []string // source fields in destination column order; Fields[0] is the id

	// Map overrides the default FieldMapper(Fields). It must still produce
	// len(Fields) values.
	Map Mapper
}

// Mapper returns the job's row mapper.
func (j *EntityJob) Mapper() Mapper {
	if j.Map != nil {
		return j.Map
	}
	return FieldMapper(j.Fields)
}

// Columns returns the destination column list.
func (j *EntityJob) Columns() []string {
	cols := make([]string, len(j.Fields))
	copy(cols, j.Fields)
	if len(cols) > 0 {
		cols[0] = DestinationIDColumn
	}
	return cols
}

// InsertStatement renders the parameterized INSERT for this job.
// placeholder receives 1-based parameter positions.
func (j *EntityJob) InsertStatement(placeholder func(n int) string) string {
	cols := j.Columns()
	params := make([]string, len(cols))
	for i := range cols {
		params[i] = placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		j.Table, strings.Join(cols, ", "), strings.Join(params, ", "))
}

// Entities returns the eleven synced entities in dispatch order. The order
// carries no dependency; it keeps logs and tests stable.
func Entities() []EntityJob {
	return []EntityJob{
		{
			Name: "IntegrationUser", Endpoint: "/integration-users", Table: "IntegrationUser",
			Fields: []string{
				"id", "identifier", "roles", "first_name", "last_name", "email",
				"lti_consumer_user_id", "lti_lis_person_sourcedid", "created_at", "updated_at",
			},
		},
		{
			Name: "School", Endpoint: "/schools", Table: "School",
			Fields: []string{"id", "name"},
		},
		{
			Name: "Reading", Endpoint: "/readings", Table: "Reading",
			Fields: []string{
				"id", "reading_title", "genre", "source_document_title",
				"article_number", "created_at", "updated_at",
			},
		},
		{
			Name: "Unit", Endpoint: "/units", Table: "Unit",
			Fields: []string{"id", "code", "name"},
		},
		{
			Name: "TeachingSession", Endpoint: "/teaching-sessions", Table: "TeachingSession",
			Fields: []string{
				"id", "name", "start_date", "end_date", "archived", "created_at", "updated_at",
			},
		},
		{
			Name: "ReadingList", Endpoint: "/reading-lists", Table: "ReadingList",
			Fields: []string{
				"id", "unit_id", "teaching_session_id", "name", "duration",
				"start_date", "end_date", "hidden", "usage_count", "item_count",
				"approved_item_count", "deleted", "created_at", "updated_at",
			},
		},
		{
			Name: "ReadingListItem", Endpoint: "/reading-list-items", Table: "ReadingListItem",
			Fields: []string{
				"id", "list_id", "reading_id", "status", "hidden",
				"reading_utilisations_count", "reading_importance",
				"usage_count", "created_at", "updated_at",
			},
		},
		{
			Name: "ReadingListUsage", Endpoint: "/reading-list-usages", Table: "ReadingListUsage",
			Fields: []string{
				"id", "list_id", "integration_user_id", "item_usage_count",
				"list_publication_method", "created_at", "updated_at",
			},
		},
		{
			Name: "ReadingListItemUsage", Endpoint: "/reading-list-item-usages", Table: "ReadingListItemUsage",
			Fields: []string{
				"id", "item_id", "list_usage_id", "integration_user_id",
				"utilisation_count", "created_at", "updated_at",
			},
		},
		{
			Name: "ReadingUtilisation", Endpoint: "/reading-utilisations", Table: "ReadingUtilisation",
			Fields: []string{
				"id", "integration_user_id", "item_id", "item_usage_id", "created_at", "updated_at",
			},
		},
		{
			Name: "UnitOffering", Endpoint: "/unit-offerings", Table: "UnitOffering",
			Fields: []string{
				"id", "unit_id", "reading_list_id", "source_unit_code",
				"source_unit_name", "source_unit_offering", "result",
				"list_publication_method", "created_at", "updated_at",
			},
		},
	}
}
