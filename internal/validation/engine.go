// Package validation はエンティティごとの宣言的なスキーマで入力を検証・正規化します。
//
// スキーマは (Kind, Mode) の組み合わせで選択されます。検証は途中で打ち切らず、
// 違反したすべてのフィールドを apperror.ValidationError にまとめて返します。
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-next-task/backend/internal/apperror"
)

// Kind は検証対象のエンティティ種別です。
type Kind string

const (
	KindTask         Kind = "task"
	KindLabel        Kind = "label"
	KindNotification Kind = "notification"
	KindActivityLog  Kind = "activityLog"
	KindUser         Kind = "user"
)

// Mode はどのサブスキーマを適用するかを選びます。
type Mode int

const (
	ModeCreate Mode = iota
	ModeUpdate
	ModeSoftDelete
	ModeRestore
	ModeToggle
)

func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeUpdate:
		return "update"
	case ModeSoftDelete:
		return "softDelete"
	case ModeRestore:
		return "restore"
	case ModeToggle:
		return "toggle"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ErrNoSchema は (Kind, Mode) の組み合わせにスキーマが存在しない場合のエラーです。
var ErrNoSchema = errors.New("validation: no schema registered")

// forbiddenFields は識別子・所有者・作成日時で、どのモードでも必ず取り除かれます。
var forbiddenFields = map[string]bool{
	"id":        true,
	"_id":       true,
	"userId":    true,
	"createdAt": true,
}

// Engine はスキーマ群と validator インスタンスを保持します。並行利用しても安全です。
type Engine struct {
	validate     *validator.Validate
	strictToggle bool
	now          func() time.Time
	schemas      map[schemaKey]*schema
}

// Option は Engine の設定を変更します。
type Option func(*Engine)

// WithStrictToggle はトグル用スキーマで余分なフィールドを拒否するかどうかを設定します。
// false の場合、余分なフィールドは黙って無視されます。
func WithStrictToggle(strict bool) Option {
	return func(e *Engine) {
		e.strictToggle = strict
	}
}

// WithClock はデフォルト日時の算出に使う時計を差し替えます。
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine は新しい検証エンジンを作成します。
func NewEngine(opts ...Option) *Engine {
	v := validator.New()
	// objectid は 24桁の16進数文字列のみを受け付けます。
	_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
		return IsObjectID(fl.Field().String())
	})

	e := &Engine{
		validate: v,
		now:      time.Now,
		schemas:  defaultSchemas(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsObjectID は s が 24桁の16進数IDかどうかを返します。
func IsObjectID(s string) bool {
	return len(s) == 24 && primitive.IsValidObjectID(s)
}

// Validate は入力を検証し、デフォルト値を補った正規化済みの値を返します。
func (e *Engine) Validate(kind Kind, mode Mode, input map[string]any) (Values, error) {
	sc, ok := e.schemas[schemaKey{kind: kind, mode: mode}]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNoSchema, kind, mode)
	}
	strict := sc.strict || (sc.toggle && e.strictToggle)

	verr := &apperror.ValidationError{}
	for _, key := range slices.Sorted(maps.Keys(input)) {
		if forbiddenFields[key] || sc.stripped[key] || sc.has(key) {
			continue
		}
		if strict {
			verr.Add(key, fmt.Sprintf("%q is not allowed", key))
		}
	}

	now := e.now().UTC().Truncate(time.Millisecond)
	out := make(Values, len(sc.fields))
	for _, f := range sc.fields {
		raw, present := input[f.name]
		if !present {
			if f.required {
				verr.Add(f.name, fmt.Sprintf("%q is required", f.name))
			} else if f.def != nil {
				out[f.name] = f.def(now)
			}
			continue
		}
		v, msg := e.normalize(f, raw)
		if msg != "" {
			verr.Add(f.name, msg)
			continue
		}
		out[f.name] = v
	}

	if err := verr.ErrOrNil(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) normalize(f field, raw any) (any, string) {
	switch f.typ {
	case typeString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Sprintf("%q must be a string", f.name)
		}
		if f.trim {
			s = strings.TrimSpace(s)
		}
		if f.rules != "" {
			if err := e.validate.Var(s, f.rules); err != nil {
				return nil, ruleMessage(f.name, err)
			}
		}
		return s, ""

	case typeBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Sprintf("%q must be a boolean", f.name)
		}
		return b, ""

	case typeTime:
		if raw == nil {
			if f.nullable {
				return nil, ""
			}
			return nil, fmt.Sprintf("%q must be a valid date", f.name)
		}
		t, ok := parseTime(raw)
		if !ok {
			return nil, fmt.Sprintf("%q must be a valid date", f.name)
		}
		return t.UTC().Truncate(time.Millisecond), ""

	case typeIDList:
		return e.normalizeIDs(f.name, raw)
	}
	return nil, fmt.Sprintf("%q has an unsupported type", f.name)
}

func (e *Engine) normalizeIDs(name string, raw any) (any, string) {
	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	case nil:
		return []string{}, ""
	default:
		return nil, fmt.Sprintf("%q must be an array", name)
	}

	ids := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	var bad []string
	for i, item := range items {
		s, ok := item.(string)
		if !ok || e.validate.Var(s, "objectid") != nil {
			bad = append(bad, fmt.Sprintf("%s[%d]", name, i))
			continue
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		ids = append(ids, s)
	}
	if len(bad) > 0 {
		return nil, fmt.Sprintf("%q must contain only 24-character hex ids (invalid: %s)", name, strings.Join(bad, ", "))
	}
	return ids, ""
}

// maxEpochMillis はエポックミリ秒として受け付ける絶対値の上限 (2^53) です。
const maxEpochMillis = 1 << 53

func fromEpochMillis(ms int64) (time.Time, bool) {
	if ms > maxEpochMillis || ms < -maxEpochMillis {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

func parseTime(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, true
	case float64:
		if math.IsNaN(v) || math.Abs(v) > maxEpochMillis {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(v)), true
	case int64:
		return fromEpochMillis(v)
	case int:
		return fromEpochMillis(int64(v))
	case json.Number:
		ms, err := v.Int64()
		if err != nil {
			return time.Time{}, false
		}
		return fromEpochMillis(ms)
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

func ruleMessage(name string, err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Sprintf("%q is invalid", name)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "min":
		if fe.Param() == "1" {
			return fmt.Sprintf("%q is not allowed to be empty", name)
		}
		return fmt.Sprintf("%q length must be at least %s characters long", name, fe.Param())
	case "max":
		return fmt.Sprintf("%q length must be less than or equal to %s characters long", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%q must be one of [%s]", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return fmt.Sprintf("%q must be a valid email", name)
	case "hexcolor":
		return fmt.Sprintf("%q must be a valid hex color", name)
	case "objectid":
		return fmt.Sprintf("%q must be a 24-character hex id", name)
	default:
		return fmt.Sprintf("%q failed on the %q rule", name, fe.Tag())
	}
}
