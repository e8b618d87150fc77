package schema

// PrimaryKey is the implicit identifier column of every managed table.
const PrimaryKey = "uid"

// ParentKey points at the page (location) a record is stored on.
const ParentKey = "pid"

// TableSchema carries the control-field metadata of one table.
type TableSchema struct {
	Name          string                `yaml:"-"`
	Title         string                `yaml:"title,omitempty"`
	Label         string                `yaml:"label"`
	CreatedAt     string                `yaml:"crdate,omitempty"`
	UpdatedAt     string                `yaml:"tstamp,omitempty"`
	TypeField     string                `yaml:"type,omitempty"`
	Types         map[string]TypeConfig `yaml:"types,omitempty"`
	Delete        string                `yaml:"delete,omitempty"`
	EnableColumns EnableColumns         `yaml:"enablecolumns,omitempty"`
	Columns       []string              `yaml:"columns,omitempty"`
}

type EnableColumns struct {
	Disabled  string `yaml:"disabled,omitempty"`
	StartTime string `yaml:"starttime,omitempty"`
	EndTime   string `yaml:"endtime,omitempty"`
}

// TypeConfig holds per discriminator value settings.
type TypeConfig struct {
	SubtypeValueField string `yaml:"subtype_value_field,omitempty"`
}

func (t *TableSchema) HasTypeField() bool {
	return t.TypeField != ""
}

// SubtypeField returns the secondary discriminator of a container type such as
// the "list" content element type.
func (t *TableSchema) SubtypeField(typeValue string) (string, bool) {
	cfg, ok := t.Types[typeValue]
	if !ok || cfg.SubtypeValueField == "" {
		return "", false
	}
	return cfg.SubtypeValueField, true
}

// TimestampColumns lists the columns holding unix timestamps.
func (t *TableSchema) TimestampColumns() []string {
	var columns []string
	for _, column := range []string{t.CreatedAt, t.UpdatedAt, t.EnableColumns.StartTime, t.EnableColumns.EndTime} {
		if column != "" {
			columns = append(columns, column)
		}
	}
	return columns
}

func (t *TableSchema) IsTimestampColumn(column string) bool {
	for _, candidate := range t.TimestampColumns() {
		if candidate == column {
			return true
		}
	}
	return false
}
