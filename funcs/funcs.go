package funcs

import (
	"encoding/base64"
	"reflect"
	"runtime"
	"strings"
)

func Base64(str string) string {
	input := []byte(str)
	return base64.StdEncoding.EncodeToString(input)
}

// FuncName returns the package qualified name of a func value, trimmed to
// the last path element, e.g. "ddd.RegisterEventSubscriber.func1".
func FuncName(fn interface{}) string {
	if fn == nil {
		return "<nil>"
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "<nil>"
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return "<unknown>"
	}
	name := f.Name()
	if idx := strings.LastIndex(name, "/"); idx != -1 {
		name = name[idx+1:]
	}
	return name
}

func TypeEqual(x, y interface{}) bool {
	if x == nil || y == nil {
		return false
	}

	v1 := reflect.ValueOf(x)
	v2 := reflect.ValueOf(y)
	return v1.Type() == v2.Type()
}

// ReflectValueName returns the bare type name of val, "Order" for *ddd.Order.
func ReflectValueName(val interface{}) string {
	if val == nil {
		return "nil"
	}
	t := reflect.TypeOf(val)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
