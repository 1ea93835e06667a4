package etl_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fedpipeline/internal/etl"
)

func TestEntities_Order(t *testing.T) {
	var names []string
	for _, j := range etl.Entities() {
		names = append(names, j.Name)
	}
	assert.Equal(t, []string{
		"IntegrationUser", "School", "Reading", "Unit", "TeachingSession",
		"ReadingList", "ReadingListItem", "ReadingListUsage",
		"ReadingListItemUsage", "ReadingUtilisation", "UnitOffering",
	}, names)
}

func TestEntities_Arity(t *testing.T) {
	want := map[string]int{
		"IntegrationUser": 10, "School": 2, "Reading": 7, "Unit": 3,
		"TeachingSession": 7, "ReadingList": 14, "ReadingListItem": 10,
		"ReadingListUsage": 7, "ReadingListItemUsage": 7,
		"ReadingUtilisation": 6, "UnitOffering": 10,
	}
	for _, j := range etl.Entities() {
		t.Run(j.Name, func(t *testing.T) {
			assert.Len(t, j.Fields, want[j.Name])
			assert.Equal(t, "id", j.Fields[0])
			assert.Equal(t, etl.DestinationIDColumn, j.Columns()[0])
			assert.Len(t, j.Mapper()(etl.RawRecord{}), len(j.Fields))
			assert.Equal(t, j.Name, j.Table)
			assert.NotEmpty(t, j.Endpoint)
		})
	}
}

func TestEntityJob_InsertStatement(t *testing.T) {
	jobs := etl.Entities()
	school := jobs[1]
	require.Equal(t, "School", school.Name)

	assert.Equal(t, "INSERT INTO School (ereserve_id, name) VALUES (?, ?)",
		school.InsertStatement(func(int) string { return "?" }))
	assert.Equal(t, "INSERT INTO School (ereserve_id, name) VALUES (@p1, @p2)",
		school.InsertStatement(func(n int) string { return "@p" + strconv.Itoa(n) }))
}

func TestEntityJob_ColumnsDoNotAlterFields(t *testing.T) {
	job := etl.Entities()[3]
	_ = job.Columns()
	assert.Equal(t, "id", job.Fields[0])
}

func TestEntityJob_CustomMapper(t *testing.T) {
	job := etl.EntityJob{
		Name: "Unit", Fields: []string{"id", "code"},
		Map: func(r etl.RawRecord) etl.Row { return etl.Row{r["id"], "fixed"} },
	}
	assert.Equal(t, etl.Row{1, "fixed"}, job.Mapper()(etl.RawRecord{"id": 1, "code": "c"}))
}
