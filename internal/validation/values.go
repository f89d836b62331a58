package validation

import "time"

// Values は Validate が返す正規化済みの値です。
type Values map[string]any

// String は key の文字列値を返します。
func (v Values) String(key string) (string, bool) {
	s, ok := v[key].(string)
	return s, ok
}

func (v Values) Bool(key string) (bool, bool) {
	b, ok := v[key].(bool)
	return b, ok
}

// Time は key の日時を返します。値が null の場合は (nil, true) です。
func (v Values) Time(key string) (*time.Time, bool) {
	raw, ok := v[key]
	if !ok {
		return nil, false
	}
	t, isTime := raw.(time.Time)
	if !isTime {
		return nil, true
	}
	return &t, true
}

func (v Values) IDs(key string) ([]string, bool) {
	ids, ok := v[key].([]string)
	return ids, ok
}

// Has は key が正規化済みの値に含まれているかどうかを返します。
func (v Values) Has(key string) bool {
	_, ok := v[key]
	return ok
}
