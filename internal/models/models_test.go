package models

import (
	"reflect"
	"strings"
	"testing"
)

// gormTag extracts the gorm tag from a struct field.
func gormTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("gorm")
}

// assertGormTag checks that a struct field's gorm tag contains the expected value.
func assertGormTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := gormTag(t, typ, fieldName)
	if !strings.Contains(tag, expected) {
		t.Errorf("%s.%s gorm tag = %q, want to contain %q", typ.Name(), fieldName, tag, expected)
	}
}

// assertFieldType checks that a struct field has the expected Go type.
func assertFieldType(t *testing.T, typ reflect.Type, fieldName, expectedType string) {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	got := f.Type.String()
	if got != expectedType {
		t.Errorf("%s.%s type = %q, want %q", typ.Name(), fieldName, got, expectedType)
	}
}

func TestInstallation_Fields(t *testing.T) {
	typ := reflect.TypeOf(Installation{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "Name", "uniqueIndex")
	assertGormTag(t, typ, "Name", "not null")
	assertGormTag(t, typ, "Risk", "size:16")
	assertFieldType(t, typ, "Latitude", "float64")
	assertFieldType(t, typ, "Maturity", "int")
}

func TestHistoricalStudy_Fields(t *testing.T) {
	typ := reflect.TypeOf(HistoricalStudy{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "Installation", "index")
	assertGormTag(t, typ, "Status", "default:CURRENT")
	assertGormTag(t, typ, "SuggestedAction", "type:text")
	assertFieldType(t, typ, "Year", "int")
}

func TestProcessNode_Fields(t *testing.T) {
	typ := reflect.TypeOf(ProcessNode{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "Installation", "index")
	assertGormTag(t, typ, "Description", "type:text")
	assertGormTag(t, typ, "Refs", "foreignKey:NodeID")
	assertFieldType(t, typ, "Refs", "[]models.NodeRef")
}

func TestNodeRef_CompositeKey(t *testing.T) {
	typ := reflect.TypeOf(NodeRef{})

	assertGormTag(t, typ, "NodeID", "primaryKey")
	assertGormTag(t, typ, "Position", "primaryKey")
}

func TestStudyRecord_Fields(t *testing.T) {
	typ := reflect.TypeOf(StudyRecord{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "ID", "size:32")
	assertGormTag(t, typ, "Seq", "index")
	assertGormTag(t, typ, "State", "index")
	assertGormTag(t, typ, "Payload", "type:mediumtext")
	assertFieldType(t, typ, "CreatedAt", "time.Time")
}
