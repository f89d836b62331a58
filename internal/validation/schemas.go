package validation

import "time"

type fieldType int

const (
	typeString fieldType = iota
	typeBool
	typeTime
	typeIDList
)

type field struct {
	name     string
	typ      fieldType
	required bool
	nullable bool
	trim     bool
	rules    string
	def      func(now time.Time) any
}

type schemaKey struct {
	kind Kind
	mode Mode
}

type schema struct {
	fields []field
	// strict の場合、未知のフィールドはエラーになります。それ以外は取り除かれます。
	strict bool
	// toggle スキーマの厳格さは Engine の設定に従います。
	toggle   bool
	stripped map[string]bool
}

func (s *schema) has(name string) bool {
	for _, f := range s.fields {
		if f.name == name {
			return true
		}
	}
	return false
}

// DefaultLabelColor はラベル作成時に色が指定されなかった場合の値です。
const DefaultLabelColor = "#cccccc"

// 優先度
const (
	PriorityHigh   = "P1"
	PriorityMedium = "P2"
	PriorityLow    = "P3"
)

// アクティビティログの種別
const (
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionDeleted   = "deleted"
	ActionCompleted = "completed"
)

func constant(v any) func(time.Time) any {
	return func(time.Time) any { return v }
}

func current(now time.Time) any { return now }

func emptyIDs(time.Time) any { return []string{} }

func stripSet(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

func optional(fields []field) []field {
	out := make([]field, len(fields))
	for i, f := range fields {
		f.required = false
		f.def = nil
		out[i] = f
	}
	return out
}

func defaultSchemas() map[schemaKey]*schema {
	serverManaged := stripSet("updatedAt", "deletedAt", "completedAt", "deleted", "isGuest", "guestExpiryDate")

	taskFields := []field{
		{name: "title", typ: typeString, required: true, trim: true, rules: "min=1"},
		{name: "description", typ: typeString, trim: true, def: constant("")},
		{name: "labels", typ: typeIDList, def: emptyIDs},
		{name: "dueDate", typ: typeTime, nullable: true, def: constant(nil)},
		{name: "priority", typ: typeString, trim: true, rules: "oneof=P1 P2 P3", def: constant(PriorityLow)},
		{name: "isCompleted", typ: typeBool, def: constant(false)},
	}
	labelFields := []field{
		{name: "name", typ: typeString, required: true, trim: true, rules: "min=1,max=30"},
		{name: "color", typ: typeString, trim: true, rules: "hexcolor", def: constant(DefaultLabelColor)},
	}

	return map[schemaKey]*schema{
		{KindTask, ModeCreate}: {fields: taskFields, strict: true, stripped: serverManaged},
		{KindTask, ModeUpdate}: {fields: optional(taskFields), stripped: serverManaged},
		{KindTask, ModeSoftDelete}: {fields: []field{
			{name: "deletedAt", typ: typeTime, def: current},
			{name: "updatedAt", typ: typeTime, def: current},
		}},
		{KindTask, ModeRestore}: {fields: []field{
			{name: "deletedAt", typ: typeTime, nullable: true},
			{name: "updatedAt", typ: typeTime, def: current},
		}},
		{KindTask, ModeToggle}: {fields: []field{
			{name: "isCompleted", typ: typeBool, required: true},
		}, toggle: true},

		{KindLabel, ModeCreate}: {fields: labelFields, strict: true, stripped: serverManaged},
		{KindLabel, ModeUpdate}: {fields: optional(labelFields), stripped: serverManaged},

		{KindNotification, ModeCreate}: {fields: []field{
			{name: "listTitle", typ: typeString, required: true, trim: true, rules: "min=3,max=100"},
			{name: "modalTitle", typ: typeString, required: true, trim: true, rules: "min=3,max=100"},
			{name: "message", typ: typeString, required: true, trim: true, rules: "min=1"},
			{name: "isRead", typ: typeBool, def: constant(false)},
		}, strict: true, stripped: serverManaged},
		{KindNotification, ModeToggle}: {fields: []field{
			{name: "isRead", typ: typeBool, required: true},
		}, toggle: true},

		{KindActivityLog, ModeCreate}: {fields: []field{
			{name: "taskId", typ: typeString, required: true, rules: "objectid"},
			{name: "taskTitle", typ: typeString, required: true, trim: true, rules: "min=1"},
			{name: "action", typ: typeString, required: true, rules: "oneof=created updated deleted completed"},
		}, strict: true},

		{KindUser, ModeCreate}: {fields: []field{
			{name: "username", typ: typeString, required: true, trim: true, rules: "min=3,max=50"},
			{name: "email", typ: typeString, required: true, trim: true, rules: "email"},
			{name: "password", typ: typeString, required: true, rules: "min=8,max=72"},
		}, strict: true, stripped: serverManaged},
	}
}
