package checks

import (
	"fmt"
	"reflect"
	"strings"

	"timetable-sync/core/database"

	"gorm.io/gorm"
)

// SchemaReport is the result of a schema check.
type SchemaReport struct {
	Driver  string                 `json:"driver"`
	Matched bool                   `json:"matched"`
	Tables  map[string]TableReport `json:"tables"`
	Errors  []string               `json:"errors"`
}

// TableReport is the schema check result of one table.
type TableReport struct {
	Exists         bool     `json:"exists"`
	MissingColumns []string `json:"missing_columns"`
	TypeMismatches []string `json:"type_mismatches"`
	Status         string   `json:"status"` // "ok", "error"
}

// CheckSchema verifies the database schema against gorm models.
// Columns are taken from the "column:" part of each field's gorm tag and
// types are only compared when the tag carries "type:".
func CheckSchema(db *gorm.DB, models ...interface{}) (*SchemaReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	report := &SchemaReport{
		Driver:  db.Dialector.Name(),
		Matched: true,
		Tables:  make(map[string]TableReport),
		Errors:  []string{},
	}

	for _, model := range models {
		val := reflect.TypeOf(model)
		if val.Kind() == reflect.Ptr {
			val = val.Elem()
		}
		tabler, ok := reflect.New(val).Interface().(interface{ TableName() string })
		if !ok {
			return nil, fmt.Errorf("model %s does not implement TableName", val.Name())
		}
		tableName := tabler.TableName()

		tblReport := TableReport{
			MissingColumns: []string{},
			TypeMismatches: []string{},
			Status:         "ok",
		}

		actualCols, err := database.GetTableColumns(db, tableName)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Failed to inspect table %s: %v", tableName, err))
			report.Matched = false
			continue
		}
		tblReport.Exists = len(actualCols) > 0

		actualMap := make(map[string]database.ColumnInfo, len(actualCols))
		for _, col := range actualCols {
			actualMap[col.Field] = col
		}

		for i := 0; i < val.NumField(); i++ {
			gormTag := val.Field(i).Tag.Get("gorm")
			colName := parseGormColumn(gormTag)
			if colName == "" {
				continue
			}

			actCol, exists := actualMap[colName]
			if !exists {
				tblReport.MissingColumns = append(tblReport.MissingColumns, colName)
				tblReport.Status = "error"
				report.Matched = false
				continue
			}

			expType := strings.ToLower(parseGormType(gormTag))
			if expType != "" && !strings.Contains(actCol.Type, expType) {
				mismatch := fmt.Sprintf("%s: expected %s, got %s", colName, expType, actCol.Type)
				tblReport.TypeMismatches = append(tblReport.TypeMismatches, mismatch)
				tblReport.Status = "error"
				report.Matched = false
			}
		}

		report.Tables[tableName] = tblReport
	}

	return report, nil
}

func parseGormColumn(tag string) string {
	return tagValue(tag, "column:")
}

func parseGormType(tag string) string {
	return tagValue(tag, "type:")
}

func tagValue(tag, key string) string {
	for _, p := range strings.Split(tag, ";") {
		if strings.HasPrefix(p, key) {
			return strings.TrimPrefix(p, key)
		}
	}
	return ""
}
