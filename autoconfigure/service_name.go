package autoconfigure

import (
	"reflect"
	"strings"

	"github.com/aadauth/go-aad-filter/telemetry"
)

// EventName is the telemetry event sent when the filter is constructed: the
// unqualified type name of the registrar.
var EventName = reflect.TypeOf(AuthFilterAutoConfig{}).Name()

// namespace is the import path of this package.
var namespace = reflect.TypeOf(AuthFilterAutoConfig{}).PkgPath()

// ServiceName returns the second-to-last segment of namespace, splitting on
// both '/' and '.'. It reports false when there are fewer than two segments.
//
//	ServiceName("a.b.c") // "b", true
//	ServiceName("a")     // "", false
func ServiceName(namespace string) (string, bool) {
	segments := strings.FieldsFunc(namespace, func(r rune) bool {
		return r == '/' || r == '.'
	})
	if len(segments) < 2 {
		return "", false
	}
	return segments[len(segments)-2], true
}

func eventProperties(namespace string) map[string]string {
	props := map[string]string{}
	if name, ok := ServiceName(namespace); ok {
		props[telemetry.ServiceNameKey] = name
	}
	return props
}
